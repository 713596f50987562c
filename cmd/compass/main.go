package main

import (
	"os"

	"github.com/BitForged/Compass/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
