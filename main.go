// ABOUTME: Entry point for the hush ambient noise player
// ABOUTME: Builds the command tree and exits non-zero on failure
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hush: %v\n", err)
		os.Exit(1)
	}
}
