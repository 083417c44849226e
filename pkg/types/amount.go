package types

import "math/bits"

// Amount is a token amount in the mint's smallest unit.
type Amount uint64

// CheckedAdd returns a + b, or AMOUNT_OVERFLOW if the sum does not fit in 64 bits.
func (a Amount) CheckedAdd(b Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, NewBetError(CodeAmountOverflow, "amount addition overflows")
	}

	return Amount(sum), nil
}

// CheckedSub returns a - b, or AMOUNT_OVERFLOW if b > a.
func (a Amount) CheckedSub(b Amount) (Amount, error) {
	diff, borrow := bits.Sub64(uint64(a), uint64(b), 0)
	if borrow != 0 {
		return 0, NewBetError(CodeAmountOverflow, "amount subtraction underflows")
	}

	return Amount(diff), nil
}

// MulDiv returns floor(a * b / d) using a 128-bit intermediate product, so the
// multiplication cannot overflow before the division. Fails with
// NO_WINNING_POOL on a zero divisor and AMOUNT_OVERFLOW if the quotient does
// not fit in 64 bits.
func MulDiv(a, b, d Amount) (Amount, error) {
	if d == 0 {
		return 0, NewBetError(CodeNoWinningPool, "division by empty pool")
	}

	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(d) {
		return 0, NewBetError(CodeAmountOverflow, "payout quotient overflows")
	}

	quo, _ := bits.Div64(hi, lo, uint64(d))

	return Amount(quo), nil
}
