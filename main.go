package main

import (
	"os"

	"github.com/gridwatt/evrouter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
