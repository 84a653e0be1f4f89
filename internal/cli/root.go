// Package cli wires the aigpipe commands: run executes a verification
// task, parse replays saved engine transcripts through a protocol parser,
// and backends lists the dispatch table.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the aigpipe root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "aigpipe",
		Short: "aigpipe - engine-result extraction for AIGER model checking",
		Long: `aigpipe dispatches AIGER verification backends, parses their output
protocols, aggregates verdicts and drives the counterexample
post-processing chain (witness translation, SMT refinement, simulation
replay).`,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewBackendsCommand(opts))

	return cmd
}
