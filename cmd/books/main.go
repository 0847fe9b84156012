// Package main is the command line front end for the book list. It runs
// the same controller as the API against the configured store.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
