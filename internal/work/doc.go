// Package work runs the valuation pipeline.
//
// # Modes
//
// A run executes an ordered list of stages chosen by its mode:
//   - basic_data: price sync
//   - profit_data: forecast sync
//   - process: valuation, then export
//   - export: export only
//   - all: price sync, forecast sync, valuation, export
//
// Stages run sequentially. A storage failure or a strict fetch failure ends
// the run; per-symbol skips are counted in the run report.
//
// Every run gets a uuid run id that is attached to all log lines of the run
// and to its report. Metrics are recorded when a metrics sink is configured
// and can be flushed to a node_exporter textfile after each run.
package work
