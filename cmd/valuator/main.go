// Package main is the entry point of the valuator CLI.
//
// valuator ingests daily price/PE history and analyst profit forecasts for a
// configured list of A-share and Hong Kong symbols, computes PE-band
// valuations and publishes them as JSON artifacts.
package main

import (
	"os"

	"github.com/aristath/valuator/cmd/valuator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
