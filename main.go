// Package main is the entry point for the datasource driver CLI.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/dsdriver/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
