package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// BatchesOptions holds flags for the batches command.
type BatchesOptions struct {
	*RootOptions
	SourceOptions
}

// BatchEntry is one ingest run as printed.
type BatchEntry struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	Columns   []string  `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchesResult is the batches command's payload.
type BatchesResult struct {
	Collection string       `json:"collection"`
	Batches    []BatchEntry `json:"batches"`
	Rows       int          `json:"rows"`
}

// NewBatchesCommand creates the batches command.
func NewBatchesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List the ingest runs of a collection",
		Long: `List every workbook loaded into a collection, oldest first.

Ingest appends, so a collection holds the rows of all its batches.

Examples:
  nlq batches --db ./nlq.db
  nlq batches --db ./nlq.db --collection march --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatches(opts, cmd)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runBatches(opts *BatchesOptions, cmd *cobra.Command) error {
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

	st, err := openStore(opts.Database)
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeStore(st)

	batches, err := st.Batches(ctx, opts.Collection)
	if err != nil {
		return formatter.Fail(storeError(err))
	}

	result := BatchesResult{Collection: opts.Collection, Batches: make([]BatchEntry, len(batches))}
	for i, b := range batches {
		result.Batches[i] = BatchEntry{
			ID:        b.ID,
			Source:    b.Source,
			Rows:      b.RowCount,
			Columns:   b.Columns,
			CreatedAt: b.CreatedAt,
		}
		result.Rows += b.RowCount
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if len(result.Batches) == 0 {
		fmt.Fprintf(w, "No batches in %s\n", result.Collection)
		return nil
	}
	fmt.Fprintf(w, "Batches in %s:\n", result.Collection)
	for _, b := range result.Batches {
		fmt.Fprintf(w, "  %s  %s  %d row(s)  %s\n", b.ID, b.CreatedAt.Format(time.RFC3339), b.Rows, b.Source)
		formatter.VerboseLog("  columns: %s", strings.Join(b.Columns, ", "))
	}
	fmt.Fprintf(w, "Total: %d row(s) in %d batch(es)\n", result.Rows, len(result.Batches))
	return nil
}
