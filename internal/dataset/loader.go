// SPDX-License-Identifier: MPL-2.0

// Package dataset seeds a Postgres database with an ordered list of SQL
// fixture files for test purposes. Scripts run strictly in list order over a
// single connection; a failure stops the run but does not roll back earlier
// scripts. That trade is deliberate for an ephemeral test-fixture tool and
// is documented as a known limitation, not a bug.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
)

// Positional parameter defaults.
const (
	DefaultUser     = "postgres"
	DefaultPassword = "pass"
	DefaultDatabase = "test"

	// Host and port are fixed; the loader targets a local test database.
	hostPort = "localhost:5432"
)

// defaultScripts is the fixed, ordered fixture list applied when the caller
// supplies none.
var defaultScripts = []string{
	"tests/data/hotosm_bdi_waterways.sql",
	"tests/data/dummy_data.sql",
	"tests/data/dummy_types.sql",
}

var (
	// ErrScriptFailed is the sentinel error wrapped by ScriptError.
	ErrScriptFailed = errors.New("fixture script failed")
)

type (
	// SQLExecutor is the minimal connection surface the loader needs.
	// Production code uses a pgx connection; tests substitute a fake.
	SQLExecutor interface {
		Exec(ctx context.Context, sql string) error
		Close(ctx context.Context) error
	}

	// ConnectFunc opens the single connection the loader uses for every script.
	ConnectFunc func(ctx context.Context, dsn string) (SQLExecutor, error)

	// LoaderOption configures a Loader.
	LoaderOption func(*Loader)

	// LoadSpec carries the loader's parameters: connection identity plus the
	// ordered script list.
	LoadSpec struct {
		User     string
		Password string
		Database string
		Scripts  []string
	}

	// Loader applies the spec's scripts in order against one connection.
	Loader struct {
		spec    LoadSpec
		connect ConnectFunc
		logger  *log.Logger
	}

	// ScriptError is returned when fixture script N fails. Scripts before N
	// stay committed; scripts after N are never attempted.
	ScriptError struct {
		Index int
		Path  string
		Err   error
	}

	// pgxExecutor adapts a pgx connection to SQLExecutor.
	pgxExecutor struct {
		conn *pgx.Conn
	}
)

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %d (%s) failed: %v", e.Index+1, e.Path, e.Err)
}

// Unwrap returns ErrScriptFailed plus the underlying error for errors.Is chains.
func (e *ScriptError) Unwrap() []error { return []error{ErrScriptFailed, e.Err} }

// NewLoadSpec builds a LoadSpec from up to three positional arguments
// (user, password, database), applying the documented defaults for absent
// or empty positions. The fixed default script list is attached.
func NewLoadSpec(args []string) LoadSpec {
	spec := LoadSpec{
		User:     DefaultUser,
		Password: DefaultPassword,
		Database: DefaultDatabase,
		Scripts:  append([]string(nil), defaultScripts...),
	}
	if len(args) > 0 && args[0] != "" {
		spec.User = args[0]
	}
	if len(args) > 1 && args[1] != "" {
		spec.Password = args[1]
	}
	if len(args) > 2 && args[2] != "" {
		spec.Database = args[2]
	}
	return spec
}

// DSN returns the connection string for the spec's identity against the
// fixed local host and port. url.URL handles userinfo and path escaping, so
// credentials round-trip through the driver's URL parsing intact.
func (s LoadSpec) DSN() string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(s.User, s.Password),
		Host:   hostPort,
		Path:   "/" + s.Database,
	}
	return u.String()
}

// NewLoader creates a Loader for the spec. The default ConnectFunc opens a
// real pgx connection.
func NewLoader(spec LoadSpec, logger *log.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	l := &Loader{
		spec:    spec,
		connect: pgxConnect,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithConnectFunc overrides connection establishment (used by tests).
func WithConnectFunc(fn ConnectFunc) LoaderOption {
	return func(l *Loader) { l.connect = fn }
}

// WithScripts overrides the ordered script list.
func WithScripts(scripts []string) LoaderOption {
	return func(l *Loader) { l.spec.Scripts = scripts }
}

// Load opens one connection and applies every script in list order, one
// execution call per file. The first failure aborts the remaining scripts
// and surfaces as the process failure; effects of earlier scripts remain
// committed.
func (l *Loader) Load(ctx context.Context) error {
	conn, err := l.connect(ctx, l.spec.DSN())
	if err != nil {
		return fmt.Errorf("connect to %s/%s: %w", hostPort, l.spec.Database, err)
	}
	defer func() { _ = conn.Close(ctx) }() // Close error after load is non-critical

	for i, path := range l.spec.Scripts {
		content, err := os.ReadFile(path)
		if err != nil {
			return &ScriptError{Index: i, Path: path, Err: err}
		}
		l.logger.Info("applying fixture script", "script", path, "position", fmt.Sprintf("%d/%d", i+1, len(l.spec.Scripts)))
		if err := conn.Exec(ctx, string(content)); err != nil {
			return &ScriptError{Index: i, Path: path, Err: err}
		}
	}
	return nil
}

// pgxConnect is the production ConnectFunc.
func pgxConnect(ctx context.Context, dsn string) (SQLExecutor, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgxExecutor{conn: conn}, nil
}

// Exec implements SQLExecutor.
func (e *pgxExecutor) Exec(ctx context.Context, sql string) error {
	_, err := e.conn.Exec(ctx, sql)
	return err
}

// Close implements SQLExecutor.
func (e *pgxExecutor) Close(ctx context.Context) error {
	return e.conn.Close(ctx)
}
