// Command hetmapf solves heterogeneous multi-agent pathfinding instances,
// either to completion or one real-time step at a time.
package main

import (
	"fmt"
	"os"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "hetmapf: internal invariant violation: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hetmapf:", err)
		os.Exit(1)
	}
}
