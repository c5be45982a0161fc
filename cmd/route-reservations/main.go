package main

import (
	"os"

	"github.com/klabast/wb-services/route-reservations/internal/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
