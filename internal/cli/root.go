// Package cli implements the lariat command line tool.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Config  string
}

// NewRootCommand creates the root command for the lariat CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lariat",
		Short: "Query FileMaker servers over the XML web publishing protocol",
		Long: `lariat talks to a FileMaker server's Custom Web Publishing XML
interface: listing databases and layouts, running finds expressed as
boolean filter strings, and showing the compound find requests those
filters compile to.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ~/.lariat.yaml)")

	cmd.AddCommand(NewDBNamesCommand(opts))
	cmd.AddCommand(NewLayoutsCommand(opts))
	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))

	return cmd
}
