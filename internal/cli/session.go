package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/nlq/internal/clock"
	"github.com/roach88/nlq/internal/config"
	"github.com/roach88/nlq/internal/store"
	"github.com/roach88/nlq/internal/translate"
)

// DefaultCollection is the collection commands use when --collection is
// not given.
const DefaultCollection = "shipments"

// SourceOptions select the database and collection a command works on.
type SourceOptions struct {
	Database   string
	Collection string
}

func addSourceFlags(cmd *cobra.Command, opts *SourceOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Collection, "collection", DefaultCollection, "collection name")
}

// TranslatorOptions are the flags that shape a translation.
type TranslatorOptions struct {
	DateField string
	CostField string
	Now       string
	Config    string
}

func addTranslatorFlags(cmd *cobra.Command, opts *TranslatorOptions) {
	cmd.Flags().StringVar(&opts.DateField, "date-field", "", "column to use for date phrases")
	cmd.Flags().StringVar(&opts.CostField, "cost-field", "", "column to use for cost phrases")
	cmd.Flags().StringVar(&opts.Now, "now", "", "evaluate relative dates at this instant (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to a CUE configuration file")
}

// session is a configured translator plus the instant it evaluates at.
type session struct {
	cfg        config.Config
	translator *translate.Translator
	now        time.Time
	opts       TranslatorOptions
}

// newSession loads configuration and builds a translator. A fixed --now
// freezes the translator's clock.
func newSession(opts TranslatorOptions) (*session, error) {
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return nil, err
	}

	loc := cfg.Location()
	now, err := parseNow(opts.Now, loc)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg: cfg,
		translator: translate.New(cfg,
			translate.WithClock(clock.NewFixed(now)),
			translate.WithLogger(slog.Default()),
		),
		now:  now,
		opts: opts,
	}, nil
}

// request builds a translation request for text over columns.
func (s *session) request(text string, columns []string) translate.Request {
	return translate.Request{
		Text:         text,
		Columns:      columns,
		DateOverride: s.opts.DateField,
		CostOverride: s.opts.CostField,
	}
}

// loadConfig returns the built-in configuration, or the CUE file at path
// overlaid on it.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, codedError(ErrCodeConfig, err)
	}
	slog.Debug("configuration loaded", "path", path)
	return cfg, nil
}

// parseNow parses --now. Empty means the current time; a bare date is
// midnight in loc.
func parseNow(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Now().In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, usageError(fmt.Sprintf("invalid --now %q: want RFC 3339 or YYYY-MM-DD", value))
}

// openStore opens the database named by --db.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, usageError("--db is required")
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, codedError(ErrCodeStore, err)
	}
	return st, nil
}

// closeStore closes st, logging instead of failing.
func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// storeError tags store failures that carry no typed code of their own.
func storeError(err error) error {
	var se *store.Error
	if errors.As(err, &se) {
		return err
	}
	return codedError(ErrCodeStore, err)
}
