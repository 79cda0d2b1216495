// Command hyfd discovers minimal functional dependencies in a delimited
// table via the hybrid sampling/induction/validation algorithm.
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
