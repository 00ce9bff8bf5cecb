// Package viz renders run results for the terminal.
//
// Tables are styled with lipgloss and fall back to plain text when the
// output is not a terminal:
//
//   - [Composition]: isotopes ranked by quantity with their fractions
//   - [Metrics]: solver metrics as label/value lines
//   - [Trajectory]: an asciigraph line plot of one quantity over time
package viz
