package main

import (
	"os"

	"github.com/solatis/clausekeeper/cmd/clausekeeper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
