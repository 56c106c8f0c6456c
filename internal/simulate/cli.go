package simulate

import "os"

// ShowHelp prints usage information for the simulate tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Pairwise Recovery Check
=======================

Generates a synthetic season from known team abilities, fits it and checks
that the posterior median ranks agree with the true order.

Usage:
  go run ./cmd/simulate [options]

Options:
  -teams int          number of synthetic teams (default 12)
  -games int          meetings per pair of teams (default 12)
  -model string       binary, binary_home, ordinal or ordinal_home (default binary_home)
  -home float         true home intercept, negative favours the home side (default -0.2)
  -seed uint          seed for generation and sampling (default 123)
  -chains int         sampler chains (default 4)
  -warmup int         warmup iterations per chain (default 300)
  -draws int          kept draws per chain (default 300)
  -db string          DuckDB file to write the season to (default in-memory)
  -out string         directory for estimates and plot (default none)
  -min-spearman float required rank correlation (default 0.8)
  -help               show this help message

Examples:
  go run ./cmd/simulate -teams 30 -games 10 -model ordinal_home
  go run ./cmd/simulate -db /tmp/sim.duckdb -out ./_output
`)
}
