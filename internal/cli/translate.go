package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nlq/internal/ir"
	"github.com/roach88/nlq/internal/queryir"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	SourceOptions
	TranslatorOptions
	Columns []string
}

// TranslateResult is the translate command's payload.
type TranslateResult struct {
	Text        string                   `json:"text"`
	QueryID     string                   `json:"query_id"`
	Columns     []string                 `json:"columns"`
	Description queryir.QueryDescription `json:"description"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate a question into a query description",
		Long: `Translate a natural-language question into a query description.

The column schema comes from --columns, or from the first document of a
collection when --db is given. Nothing is executed.

Examples:
  nlq translate "total cost this month" --columns "Ref #,Ship Date,Published Cost"
  nlq translate "how many delivered last week" --db ./nlq.db --collection shipments
  nlq translate "top 5 shipments" --columns "Ref #,Cost" --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, strings.Join(args, " "), cmd)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	addTranslatorFlags(cmd, &opts.TranslatorOptions)
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "comma-separated column names")

	return cmd
}

func runTranslate(opts *TranslateOptions, text string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	columns, err := commandColumns(cmd.Context(), opts.SourceOptions, opts.Columns)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Columns: %s", strings.Join(columns, ", "))

	sess, err := newSession(opts.TranslatorOptions)
	if err != nil {
		return formatter.Fail(err)
	}

	desc := sess.translator.Translate(sess.request(text, columns))
	queryID, err := desc.ID()
	if err != nil {
		return formatter.Fail(err)
	}

	result := TranslateResult{
		Text:        text,
		QueryID:     queryID,
		Columns:     columns,
		Description: desc,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Intent:   %s\n", desc.Intent)
	fmt.Fprintf(w, "Query ID: %s\n", queryID)
	pretty, err := prettyCanonical(desc)
	if err != nil {
		return formatter.Fail(err)
	}
	fmt.Fprintln(w, pretty)
	return nil
}

// commandColumns returns the explicit column list, or reads the schema of
// the collection when no list is given.
func commandColumns(ctx context.Context, src SourceOptions, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		if src.Database != "" {
			return nil, usageError("--columns and --db are mutually exclusive")
		}
		columns := make([]string, len(explicit))
		for i, c := range explicit {
			columns[i] = strings.TrimSpace(c)
		}
		return columns, nil
	}
	if src.Database == "" {
		return nil, usageError("either --columns or --db is required")
	}

	st, err := openStore(src.Database)
	if err != nil {
		return nil, err
	}
	defer closeStore(st)

	if ctx == nil {
		ctx = context.Background()
	}
	columns, err := st.Columns(ctx, src.Collection)
	if err != nil {
		return nil, storeError(err)
	}
	return columns, nil
}

// prettyCanonical renders v's canonical JSON with indentation.
func prettyCanonical(v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}
