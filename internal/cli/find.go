package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lariat-go/lariat/internal/exprparse"
	"github.com/lariat-go/lariat/model"
	"github.com/lariat-go/lariat/schema"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Schema string
	Where  string
	Sort   []string
	Max    int
	Skip   int
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find --schema <file.cue> [--where '<filter>']",
		Short: "Find records on a layout",
		Long: `Find runs a find against the layout a CUE schema file describes.
Without --where every record comes back.

  lariat find --schema person.cue --where 'Age > 30 && City == "NY"' --sort Name`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file (required)")
	cmd.Flags().StringVar(&opts.Where, "where", "", "filter string")
	cmd.Flags().StringSliceVar(&opts.Sort, "sort", nil, "sort field, prefix with - for descending (repeatable)")
	cmd.Flags().IntVar(&opts.Max, "max", 0, "cap the number of records returned")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "offset into the found set")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runFind(cmd *cobra.Command, opts *FindOptions) error {
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return err
	}
	client, err := cfg.Client()
	if err != nil {
		return err
	}
	def, err := schema.Load(opts.Schema)
	if err != nil {
		return err
	}

	set := model.NewRecordSet(client, def)
	if opts.Where != "" {
		e, err := exprparse.Parse(opts.Where)
		if err != nil {
			return err
		}
		set = set.Filter(e)
	}
	for _, field := range opts.Sort {
		set = set.Sort(sortRule(field))
	}
	if opts.Max > 0 {
		set = set.Max(opts.Max)
	}
	if opts.Skip > 0 {
		set = set.Skip(opts.Skip)
	}

	records, err := set.All(cmd.Context())
	if err != nil {
		return err
	}
	printRecords(cmd.OutOrStdout(), def, records)
	return nil
}

func sortRule(field string) model.Sort {
	if len(field) > 1 && field[0] == '-' {
		return model.SortBy(field[1:], model.OrderDescend)
	}
	return model.SortBy(field, model.OrderAscend)
}

func printRecords(w io.Writer, def *model.Definition, records []*model.Record) {
	id := color.New(color.Faint)
	name := color.New(color.FgCyan)

	for _, rec := range records {
		id.Fprintf(w, "record %d\n", rec.ID)
		for _, f := range def.Fields() {
			v, _ := rec.Get(f.Name())
			name.Fprintf(w, "  %s", f.Name())
			fmt.Fprintf(w, "\t%v\n", v)
		}
	}
	fmt.Fprintf(w, "%d record(s)\n", len(records))
}
