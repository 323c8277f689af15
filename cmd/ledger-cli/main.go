package main

import (
	"helium-ledger/cmd/ledger-cli/cmd"

	_ "helium-ledger/docs/swagger"
)

// @title Helium Ledger Signing Bridge
// @version 1.0
// @description Local HTTP bridge to a Helium Ledger device

// @host localhost:8080
// @BasePath /
func main() {
	cmd.Execute()
}
