// Package main provides the entry point for bpsim.
// bpsim replays conditional-branch traces through static, gshare,
// tournament and TAGE branch predictors.
//
// For the full CLI, use: go run ./cmd/bpsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("bpsim - Branch Predictor Simulator")
	fmt.Println("")
	fmt.Println("Usage: bpsim [options] [trace]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -mode       static, gshare, tournament or custom")
	fmt.Println("  -config     Path to predictor configuration JSON file")
	fmt.Println("  -compare    Replay the trace through every predictor")
	fmt.Println("  -window     Report statistics over windows of branches")
	fmt.Println("  -v          Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/bpsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/bpsim' instead.")
	}
}
