package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridian-eda/aigpipe/internal/parser"
	"github.com/veridian-eda/aigpipe/internal/status"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Protocol string
	Status2  string
}

// NewParseCommand creates the parse command, an offline debugging aid:
// it replays a saved engine transcript through a protocol parser and
// prints the verdict, the forwarded lines and the extracted witness.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <transcript>",
		Short: "Replay a saved engine transcript through a protocol parser",
		Long: `Replay a saved engine transcript through a protocol parser.

Reads the transcript line by line, feeds it to the selected parser and
prints the parsed verdict, the lines that would have been forwarded to
the aggregate log, and the extracted witness artifact.

Example:
  aigpipe parse --protocol line engine_0/logfile.txt
  aigpipe parse --protocol json --status2 pass engine_0/logfile.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return parseTranscript(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Protocol, "protocol", "line", "output protocol (line|json)")
	cmd.Flags().StringVar(&opts.Status2, "status2", "unknown", "meaning of status code 2 (pass|unknown)")

	return cmd
}

func parseTranscript(opts *ParseOptions, path string, cmd *cobra.Command) error {
	lines, err := readLines(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transcript", err)
	}

	art := parser.NewMemArtifact()
	var p parser.Protocol
	switch opts.Protocol {
	case "line":
		st2 := status.Unknown
		if opts.Status2 == "pass" {
			st2 = status.Pass
		} else if opts.Status2 != "unknown" {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --status2 %q: must be pass or unknown", opts.Status2))
		}
		p = parser.NewLineStatus(st2, art)
	case "json":
		p = parser.NewJSONEvents(art)
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --protocol %q: must be line or json", opts.Protocol))
	}

	report := parser.Transcript(p, art, lines)
	_, err = cmd.OutOrStdout().Write(report)
	return err
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
