package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lariat-go/lariat/findquery"
	"github.com/lariat-go/lariat/internal/exprparse"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Where string
}

// NewCompileCommand creates the compile command, which shows the wire
// parameters a filter compiles to without contacting a server.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile --where '<filter>'",
		Short: "Show the compound find request a filter compiles to",
		Long: `Compile parses a filter string, compiles it to the compound find
form and prints the resulting parameters. Filters that reduce to a
single positive conjunction also show the plain find form.

  lariat compile --where 'Name == "John" || Age > 65'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.OutOrStdout(), opts.Where)
		},
	}

	cmd.Flags().StringVar(&opts.Where, "where", "", "filter string (required)")
	_ = cmd.MarkFlagRequired("where")

	return cmd
}

func runCompile(w io.Writer, where string) error {
	e, err := exprparse.Parse(where)
	if err != nil {
		return err
	}
	compiled, err := findquery.Compile(e)
	if err != nil {
		return err
	}

	name := color.New(color.FgCyan)
	name.Fprint(w, "-query")
	fmt.Fprintf(w, "\t%s\n", compiled.Directive)
	for _, p := range compiled.Params {
		name.Fprint(w, p.Name)
		fmt.Fprintf(w, "\t%s\n", p.Value)
	}

	if compiled.Simple() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "plain find form:")
		for _, p := range compiled.SimpleParams() {
			name.Fprint(w, p.Name)
			fmt.Fprintf(w, "\t%s\n", p.Value)
		}
	}
	return nil
}
