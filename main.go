package main

import (
	"os"

	"github.com/cppla/awe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
