package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veridian-eda/aigpipe/internal/solver"
)

// NewBackendsCommand creates the backends command.
func NewBackendsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the known verification backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BACKEND\tMODES\tPROTOCOL\tMODEL")
			for _, b := range solver.Known() {
				modes := make([]string, len(b.Modes))
				for i, m := range b.Modes {
					modes[i] = string(m)
				}
				proto := "line"
				if b.Protocol == solver.ProtocolJSON {
					proto = "json"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\tdesign_aiger%s.aig\n",
					b.Name, strings.Join(modes, ","), proto, b.Variant)
			}
			return w.Flush()
		},
	}
}
