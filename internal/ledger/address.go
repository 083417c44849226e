package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Domain-separation tags for record address derivation. Record addresses are
// Keccak-256 of a tag plus the identifying fields, so the API layer and the
// core agree on addresses without any lookup table, and creation uniqueness
// reduces to insert-if-absent at the derived key.
const (
	tagBet          = "betledger/bet"
	tagVault        = "betledger/vault"
	tagVaultToken   = "betledger/vault-token"
	tagUserBet      = "betledger/user-bet"
	tagTokenAccount = "betledger/token-account"
)

// DeriveBetAddress returns the address of the bet with the given title.
func DeriveBetAddress(title string) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(tagBet), []byte(title)))
}

// DeriveVaultAuthority returns the disbursement authority for a bet's vault.
// No key material backs it; holding the bet address is the only way to
// produce it, which is what makes the engine the sole disbursement path.
func DeriveVaultAuthority(bet common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(tagVault), bet.Bytes()))
}

// DeriveVaultTokenAccount returns the custody token account address for a bet.
func DeriveVaultTokenAccount(bet common.Hash) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(tagVaultToken), bet.Bytes()))
}

// DeriveUserBetAddress returns the address of a user's bet record on a bet.
func DeriveUserBetAddress(bet common.Hash, user common.Address) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(tagUserBet), bet.Bytes(), user.Bytes()))
}

// DeriveTokenAccount returns the token account address for an owner identity
// and mint.
func DeriveTokenAccount(mint common.Address, owner common.Address) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(tagTokenAccount), mint.Bytes(), owner.Bytes()))
}

// IdentityKey widens an identity to the owner-key width used by token
// accounts.
func IdentityKey(id common.Address) common.Hash {
	return common.BytesToHash(id.Bytes())
}
