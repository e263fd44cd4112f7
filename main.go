package main

import (
	"os"

	"github.com/yaotthaha/ipcheck/cmd/ipcheck"
)

func main() {
	if err := ipcheck.Run(); err != nil {
		os.Exit(1)
	}
}
