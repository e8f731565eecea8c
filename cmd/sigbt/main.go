package main

import (
	"os"

	"github.com/rustyeddy/sigbt/cmd/sigbt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
