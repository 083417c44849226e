package main

import "github.com/openpool/betledger/cmd"

func main() {
	cmd.Execute()
}
