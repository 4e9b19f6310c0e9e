package main

import (
	"os"

	"github.com/frontdeskhq/frontdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
