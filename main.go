package main

import (
	"os"

	"github.com/daylife/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
