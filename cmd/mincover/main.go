// Command mincover reduces a discovered FD list to its minimal cover:
// no redundant FD, no redundant RHS attribute (spec.md §4.7).
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
