package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nlq/internal/fields"
)

// ColumnsOptions holds flags for the columns command.
type ColumnsOptions struct {
	*RootOptions
	SourceOptions
	Columns []string
	Config  string
}

// RoleResolution is the column a role resolves to, if any.
type RoleResolution struct {
	Role   fields.Role `json:"role"`
	Column string      `json:"column,omitempty"`
}

// ColumnsResult is the columns command's payload.
type ColumnsResult struct {
	Columns []string         `json:"columns"`
	Roles   []RoleResolution `json:"roles"`
}

// NewColumnsCommand creates the columns command.
func NewColumnsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ColumnsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Show columns and the role each resolves to",
		Long: `Show a collection's columns and which column the translator would use
for each role (identifier, date, cost, status, origin, destination).

Examples:
  nlq columns --db ./nlq.db
  nlq columns --columns "Ref #,Ship Date,Published Cost"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColumns(opts, cmd)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "comma-separated column names")
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to a CUE configuration file")

	return cmd
}

func runColumns(opts *ColumnsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return formatter.Fail(err)
	}

	columns, err := commandColumns(cmd.Context(), opts.SourceOptions, opts.Columns)
	if err != nil {
		return formatter.Fail(err)
	}

	result := ColumnsResult{Columns: columns, Roles: ResolveRoles(cfg.Keywords, columns)}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "Columns:")
	for _, c := range result.Columns {
		fmt.Fprintf(w, "  %s\n", c)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Roles:")
	for _, r := range result.Roles {
		column := r.Column
		if column == "" {
			column = "(unresolved)"
		}
		fmt.Fprintf(w, "  %-12s %s\n", r.Role, column)
	}
	return nil
}

// ResolveRoles resolves every role against columns.
func ResolveRoles(keywords fields.KeywordTable, columns []string) []RoleResolution {
	resolver := fields.NewResolver(keywords)
	out := make([]RoleResolution, len(fields.Roles))
	for i, role := range fields.Roles {
		column, _ := resolver.Resolve(columns, role)
		out[i] = RoleResolution{Role: role, Column: column}
	}
	return out
}
