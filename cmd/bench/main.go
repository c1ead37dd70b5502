// Command bench races goroutines against fresh providers of every policy and
// reports constructions, identity and steady-state throughput, with optional
// Prometheus/pprof endpoints.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
