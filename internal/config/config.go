// Package config holds the translator's tunable data: role keyword tables,
// the status vocabulary, the listing cap and the time zone.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/nlq/internal/fields"
	"github.com/roach88/nlq/internal/predicate"
	"github.com/roach88/nlq/internal/queryir"
	"github.com/roach88/nlq/internal/temporal"
)

//go:embed schema.cue
var schemaCUE string

// Config is immutable once built; the translator copies what it needs.
type Config struct {
	Keywords     fields.KeywordTable
	Statuses     []string
	DefaultLimit int
	Timezone     string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Keywords:     fields.DefaultKeywords(),
		Statuses:     predicate.DefaultStatuses(),
		DefaultLimit: queryir.DefaultLimit,
		Timezone:     temporal.DefaultZone,
	}
}

// Location loads the configured zone, falling back to the local zone.
func (c Config) Location() *time.Location {
	return temporal.LoadZone(c.Timezone)
}

// LoadFile reads a CUE configuration file. Fields it omits keep their
// defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Load(data, path)
}

// Load compiles CUE source, checks it against the embedded schema and
// overlays it on the defaults. filename is used in error positions.
func Load(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	return CompileConfig(unified)
}

// CompileConfig extracts a Config from an already validated CUE value.
func CompileConfig(v cue.Value) (Config, error) {
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	cfg := Default()

	keywordLists := []struct {
		path string
		dst  *[]string
	}{
		{"keywords.identifier", &cfg.Keywords.Identifier},
		{"keywords.date", &cfg.Keywords.Date},
		{"keywords.cost", &cfg.Keywords.Cost},
		{"keywords.status", &cfg.Keywords.Status},
		{"keywords.origin", &cfg.Keywords.Origin},
		{"keywords.destination", &cfg.Keywords.Destination},
		{"statuses", &cfg.Statuses},
	}
	for _, kl := range keywordLists {
		list, ok, err := stringList(v, kl.path)
		if err != nil {
			return Config{}, err
		}
		if ok {
			*kl.dst = list
		}
	}

	if limitVal := v.LookupPath(cue.ParsePath("default_limit")); limitVal.Exists() {
		limit, err := limitVal.Int64()
		if err != nil {
			return Config{}, formatCUEError(err)
		}
		if limit < 1 {
			return Config{}, &CompileError{
				Field:   "default_limit",
				Message: "must be at least 1",
				Pos:     limitVal.Pos(),
			}
		}
		cfg.DefaultLimit = int(limit)
	}

	if tzVal := v.LookupPath(cue.ParsePath("timezone")); tzVal.Exists() {
		tz, err := tzVal.String()
		if err != nil {
			return Config{}, formatCUEError(err)
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return Config{}, &CompileError{
				Field:   "timezone",
				Message: fmt.Sprintf("unknown zone %q", tz),
				Pos:     tzVal.Pos(),
			}
		}
		cfg.Timezone = tz
	}

	return cfg, nil
}

// stringList reads an optional list of strings at path. An empty list is
// rejected: a role without keywords can never resolve.
func stringList(v cue.Value, path string) ([]string, bool, error) {
	lv := v.LookupPath(cue.ParsePath(path))
	if !lv.Exists() {
		return nil, false, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, false, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, false, formatCUEError(err)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, false, &CompileError{
			Field:   path,
			Message: "must not be empty",
			Pos:     lv.Pos(),
		}
	}
	return out, true, nil
}

// CompileError represents a configuration error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
