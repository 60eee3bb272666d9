package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nlq/internal/ingest"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	SourceOptions
	Sheet  string
	Config string
}

// IngestResult is the ingest command's payload.
type IngestResult struct {
	BatchID    string   `json:"batch_id,omitempty"`
	Collection string   `json:"collection"`
	Source     string   `json:"source"`
	Columns    []string `json:"columns"`
	Rows       int      `json:"rows"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <workbook.xlsx>",
		Short: "Load a spreadsheet into a collection",
		Long: `Load one sheet of an Excel workbook into a collection.

The header row names the columns. Identifier columns keep their text,
numeric cells become numbers and date cells become UTC timestamps
(dates without an offset are read in the configured time zone).
Loading appends a new batch; existing documents are kept.

Examples:
  nlq ingest shipments.xlsx --db ./nlq.db
  nlq ingest report.xlsx --db ./nlq.db --collection march --sheet "Sheet2"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args[0], cmd)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "sheet to load (default: first sheet)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to a CUE configuration file")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runIngest(opts *IngestOptions, path string, cmd *cobra.Command) error {
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

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return formatter.Fail(err)
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return formatter.Fail(err)
	}
	defer closeStore(st)

	loader := ingest.NewLoader(st,
		ingest.WithNormalizer(ingest.NewNormalizer(cfg.Location())),
		ingest.WithLogger(slog.Default()),
	)
	batch, err := loader.Load(ctx, path, opts.Collection, opts.Sheet)
	if err != nil {
		if ingest.IsIngestError(err) {
			return formatter.Fail(err)
		}
		return formatter.Fail(storeError(err))
	}

	result := IngestResult{
		Collection: opts.Collection,
		Source:     batch.Source,
		Columns:    batch.Columns,
	}
	if len(batch.Documents) > 0 {
		info, err := st.Batch(ctx, batch.ID)
		if err != nil {
			return formatter.Fail(storeError(err))
		}
		result.BatchID = info.ID
		result.Rows = info.RowCount
		result.Columns = info.Columns
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Rows == 0 {
		fmt.Fprintf(w, "No rows to insert from %s\n", result.Source)
		return nil
	}
	fmt.Fprintf(w, "✓ Inserted %d row(s) into %s (batch %s)\n", result.Rows, result.Collection, result.BatchID)
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(result.Columns, ", "))
	return nil
}
