// Command arbor loads, inspects and displays arbor element documents.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/arbor/cmd/arbor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
