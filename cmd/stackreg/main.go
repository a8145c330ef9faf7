// Command stackreg fits every subset regression of a set of explanatory
// variables, stacks the best pairs and forecasts held-out observations.
package main

import (
	"fmt"
	"os"

	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stackreg:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch errors.KindOf(err) {
	case errors.KindDataUnavailable:
		return 2
	case errors.KindInvalidArgument, errors.KindDimensionMismatch:
		return 3
	default:
		return 1
	}
}
