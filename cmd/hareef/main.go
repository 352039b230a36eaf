package main

import (
	"os"

	"github.com/chaz8081/hareef/cmd/hareef/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
