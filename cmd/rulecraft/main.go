// Command rulecraft serves the D&D 2024 rules reference and ruling
// assistant, and provides maintenance commands for the rule database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
