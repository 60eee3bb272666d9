package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nlq/internal/fields"
	"github.com/roach88/nlq/internal/queryir"
	"github.com/roach88/nlq/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	SourceOptions
	TranslatorOptions
	Reports bool
}

// QueryResult is the query command's payload.
type QueryResult struct {
	Text          string                   `json:"text"`
	QueryID       string                   `json:"query_id"`
	TranslationID string                   `json:"translation_id"`
	Description   queryir.QueryDescription `json:"description"`
	Count         *int64                   `json:"count,omitempty"`
	Distinct      *int64                   `json:"distinct,omitempty"`
	Rows          []store.Document         `json:"rows"`
	Reports       *ReportsResult           `json:"reports,omitempty"`
}

// ReportsResult holds the summaries printed after a plain listing.
type ReportsResult struct {
	StatusField string           `json:"status_field,omitempty"`
	Statuses    []store.Document `json:"statuses"`
	IDField     string           `json:"id_field,omitempty"`
	Duplicates  []store.Document `json:"duplicates"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Translate a question and run it",
		Long: `Translate a natural-language question against a collection's columns,
record the translation, and execute it.

Count questions print the number of matching rows and distinct
identifiers. Totals, groupings and top-N questions print their rows.
Everything else lists matching documents; --reports adds a status
breakdown and the most duplicated identifiers.

Examples:
  nlq query "how many shipments this month" --db ./nlq.db
  nlq query "delivered shipments from Pune" --db ./nlq.db --reports
  nlq query "total cost last week" --db ./nlq.db --now 2024-03-15 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, strings.Join(args, " "), cmd)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	addTranslatorFlags(cmd, &opts.TranslatorOptions)
	cmd.Flags().BoolVar(&opts.Reports, "reports", false, "add status and duplicate reports to listings")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runQuery(opts *QueryOptions, text string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := newSession(opts.TranslatorOptions)
	if err != nil {
		return formatter.Fail(err)
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeStore(st)

	columns, err := st.Columns(ctx, opts.Collection)
	if err != nil {
		return formatter.Fail(storeError(err))
	}

	desc := sess.translator.Translate(sess.request(text, columns))
	queryID, err := desc.ID()
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Intent %s, query %s", desc.Intent, queryID)

	translationID, err := st.RecordTranslation(ctx, store.Translation{
		Collection:  opts.Collection,
		Text:        text,
		Columns:     columns,
		Description: desc,
		RecordedAt:  sess.now,
	})
	if err != nil {
		return formatter.Fail(storeError(err))
	}

	res, err := st.Execute(ctx, opts.Collection, desc)
	if err != nil {
		return formatter.Fail(storeError(err))
	}

	result := QueryResult{
		Text:          text,
		QueryID:       queryID,
		TranslationID: translationID,
		Description:   desc,
		Count:         res.Count,
		Distinct:      res.Distinct,
		Rows:          res.Rows,
	}

	if opts.Reports && desc.Intent == queryir.IntentDefault {
		resolver := fields.NewResolver(sess.cfg.Keywords)
		statusField, _ := resolver.Resolve(columns, fields.RoleStatus)
		idField, _ := resolver.Resolve(columns, fields.RoleIdentifier)

		reports, err := st.RunReports(ctx, opts.Collection, desc.Filter, statusField, idField)
		if err != nil {
			return formatter.Fail(storeError(err))
		}
		result.Reports = &ReportsResult{
			StatusField: statusField,
			Statuses:    reports.Statuses,
			IDField:     idField,
			Duplicates:  reports.Duplicates,
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return writeQueryText(formatter.Writer, result)
}

// writeQueryText prints a query result for humans.
func writeQueryText(w io.Writer, r QueryResult) error {
	desc := r.Description
	fmt.Fprintf(w, "Intent: %s\n", desc.Intent)

	switch {
	case r.Count != nil:
		fmt.Fprintf(w, "Matching rows: %d\n", *r.Count)
		if r.Distinct != nil {
			fmt.Fprintf(w, "Distinct %s: %d\n", desc.DistinctField, *r.Distinct)
		}
		return nil
	case len(r.Rows) == 0:
		fmt.Fprintln(w, "No matching rows.")
	default:
		fmt.Fprintf(w, "%d row(s):\n", len(r.Rows))
		if err := writeRows(w, r.Rows); err != nil {
			return err
		}
	}

	if r.Reports != nil {
		if r.Reports.StatusField != "" {
			fmt.Fprintf(w, "\nBy %s:\n", r.Reports.StatusField)
			writeGroupCounts(w, r.Reports.Statuses)
		}
		if r.Reports.IDField != "" {
			fmt.Fprintf(w, "\nDuplicate %s:\n", r.Reports.IDField)
			if len(r.Reports.Duplicates) == 0 {
				fmt.Fprintln(w, "  none")
			}
			writeGroupCounts(w, r.Reports.Duplicates)
		}
	}
	return nil
}

// writeRows prints one JSON object per row, keeping column order.
func writeRows(w io.Writer, rows []store.Document) error {
	for _, row := range rows {
		data, err := row.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s\n", data)
	}
	return nil
}

// writeGroupCounts prints "key: count" for report rows.
func writeGroupCounts(w io.Writer, rows []store.Document) {
	for _, row := range rows {
		key := row.Values[queryir.GroupKeyField]
		if key == nil {
			key = "(blank)"
		}
		fmt.Fprintf(w, "  %v: %v\n", key, row.Values[queryir.CountAcc])
	}
}
