package main

import (
	"os"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
