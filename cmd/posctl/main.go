// Command posctl is the operator CLI for the storepos API. Reads and writes go
// to the server first and fall back to a local data directory when it cannot
// answer; the collections commands reconcile the two afterwards.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
