// Package source loads one logical dataset into the uniform RawRecord
// representation, given a mapping from logical roles to source-native column
// names. Delimited files (local, HTTP, FTP), XLSX workbooks, and PostgreSQL
// query results are supported backends.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/crestline-group/recon-cli/internal/db"
	"github.com/crestline-group/recon-cli/internal/fetch"
)

// Kind identifies a source backend.
type Kind string

const (
	KindCSV      Kind = "csv"
	KindXLSX     Kind = "xlsx"
	KindPostgres Kind = "postgres"
)

// FieldMapping names the source-native columns for each logical role.
type FieldMapping struct {
	EntityKey  string `yaml:"entity_key" mapstructure:"entity_key"`
	Identifier string `yaml:"identifier" mapstructure:"identifier"`
}

// Spec describes one configured source.
type Spec struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Kind     Kind   `yaml:"kind" mapstructure:"kind"`
	Location string `yaml:"location" mapstructure:"location"`
	// Query is required for postgres sources; Location holds the DSN.
	Query string `yaml:"query,omitempty" mapstructure:"query"`
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string `yaml:"sheet,omitempty" mapstructure:"sheet"`
	// Delimiter overrides the CSV field separator; first rune is used.
	Delimiter string       `yaml:"delimiter,omitempty" mapstructure:"delimiter"`
	Fields    FieldMapping `yaml:"fields" mapstructure:"fields"`
}

// Check performs the static validation possible without touching the backing
// location. It runs once at startup for every configured source.
func (s Spec) Check() error {
	if s.Name == "" {
		return eris.New("source: name is required")
	}
	switch s.Kind {
	case KindCSV, KindXLSX:
	case KindPostgres:
		if s.Query == "" {
			return eris.Errorf("source %s: query is required for postgres sources", s.Name)
		}
	default:
		return eris.Errorf("source %s: unknown kind %q", s.Name, s.Kind)
	}
	if s.Location == "" {
		return eris.Errorf("source %s: location is required", s.Name)
	}
	if s.Fields.EntityKey == "" || s.Fields.Identifier == "" {
		return eris.Errorf("source %s: field mapping must name entity_key and identifier columns", s.Name)
	}
	return nil
}

// ErrUnavailable marks a source whose backing location could not be opened or
// read. The reconciliation engine converts it into a per-source skip.
var ErrUnavailable = eris.New("source: unavailable")

// SchemaError reports a field mapping that names a column (or sheet) the
// source does not have. Unlike ErrUnavailable this is a configuration
// problem and fails the run fast at validation time.
type SchemaError struct {
	Source    string
	Missing   string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s: schema mismatch: %q not found (available: %s)",
		e.Source, e.Missing, strings.Join(e.Available, ", "))
}

// Loader reads configured sources into RawRecords.
type Loader struct {
	opener  fetch.Opener
	connect func(ctx context.Context, dsn string) (db.Pool, error)
	timeout time.Duration
}

// Options tunes the loader.
type Options struct {
	// LoadTimeout bounds one source's load; expiry is treated as
	// ErrUnavailable. Zero means no per-source timeout.
	LoadTimeout time.Duration
}

// NewLoader creates a Loader reading through the given Opener.
func NewLoader(opener fetch.Opener, opts Options) *Loader {
	return &Loader{
		opener:  opener,
		connect: db.Connect,
		timeout: opts.LoadTimeout,
	}
}

// unavailable wraps ErrUnavailable with the failure context. The cause is
// folded into the message because the sentinel must stay the chain root for
// eris.Is checks.
func unavailable(spec Spec, action string, cause error) error {
	return eris.Wrapf(ErrUnavailable, "source %s: %s: %v", spec.Name, action, cause)
}

// resolveColumn finds the index of a mapped column in the header. Matching is
// exact first, then case-insensitive on trimmed names.
func resolveColumn(spec Spec, header []string, want string) (int, error) {
	for i, h := range header {
		if h == want {
			return i, nil
		}
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(want)) {
			return i, nil
		}
	}
	return 0, &SchemaError{Source: spec.Name, Missing: want, Available: header}
}

func resolveMapping(spec Spec, header []string) (keyIdx, idIdx int, err error) {
	keyIdx, err = resolveColumn(spec, header, spec.Fields.EntityKey)
	if err != nil {
		return 0, 0, err
	}
	idIdx, err = resolveColumn(spec, header, spec.Fields.Identifier)
	if err != nil {
		return 0, 0, err
	}
	return keyIdx, idIdx, nil
}

func (l *Loader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout > 0 {
		return context.WithTimeout(ctx, l.timeout)
	}
	return context.WithCancel(ctx)
}
