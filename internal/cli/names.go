package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewDBNamesCommand creates the dbnames command.
func NewDBNamesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dbnames",
		Short: "List the databases the server hosts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.Config)
			if err != nil {
				return err
			}
			client, err := cfg.Client()
			if err != nil {
				return err
			}

			names, err := client.DatabaseNames(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// NewLayoutsCommand creates the layouts command.
func NewLayoutsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "layouts <database>",
		Short: "List the layouts of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.Config)
			if err != nil {
				return err
			}
			client, err := cfg.Client()
			if err != nil {
				return err
			}

			names, err := client.LayoutNames(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			heading := color.New(color.Bold)
			heading.Fprintf(cmd.OutOrStdout(), "%s\n", args[0])
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return nil
		},
	}
}
