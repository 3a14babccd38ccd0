// Command timingview renders the timing tracks of a recorded profiling session without a window.
package main

import (
	"fmt"
	"os"
)

// Set by the release build.
var version = "dev"

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
