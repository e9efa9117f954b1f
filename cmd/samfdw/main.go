// Command samfdw reads the public SAM.gov contract opportunities extract as
// typed rows: streamed to stdout, bulk-loaded into a database or served over
// HTTP.
package main

import (
	"fmt"
	"os"

	_ "samfdw/internal/storage/all"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
