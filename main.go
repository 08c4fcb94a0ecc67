package main

import (
	"os"

	"github.com/gilchrisn/combo-clustering/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
