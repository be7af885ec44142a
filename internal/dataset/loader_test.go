// SPDX-License-Identifier: MPL-2.0

package dataset

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

type fakeExecutor struct {
	executed []string
	failOn   string
	closed   bool
}

func (f *fakeExecutor) Exec(_ context.Context, sql string) error {
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return errors.New("syntax error at or near \"BROKEN\"")
	}
	f.executed = append(f.executed, sql)
	return nil
}

func (f *fakeExecutor) Close(_ context.Context) error {
	f.closed = true
	return nil
}

// writeScripts creates fixture files and returns their ordered paths.
func writeScripts(t *testing.T, contents []string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(contents))
	for i, content := range contents {
		path := filepath.Join(dir, string(rune('a'+i))+".sql")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

func newFakeLoader(spec LoadSpec, executor *fakeExecutor) *Loader {
	return NewLoader(spec, quietLogger(), WithConnectFunc(
		func(_ context.Context, _ string) (SQLExecutor, error) {
			return executor, nil
		},
	))
}

func TestNewLoadSpecDefaults(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want LoadSpec
	}{
		{
			name: "no arguments",
			args: nil,
			want: LoadSpec{User: "postgres", Password: "pass", Database: "test"},
		},
		{
			name: "user only",
			args: []string{"geo"},
			want: LoadSpec{User: "geo", Password: "pass", Database: "test"},
		},
		{
			name: "all three",
			args: []string{"geo", "secret", "waterways"},
			want: LoadSpec{User: "geo", Password: "secret", Database: "waterways"},
		},
		{
			name: "empty positions fall back",
			args: []string{"", "", "waterways"},
			want: LoadSpec{User: "postgres", Password: "pass", Database: "waterways"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewLoadSpec(tt.args)
			if got.User != tt.want.User || got.Password != tt.want.Password || got.Database != tt.want.Database {
				t.Errorf("NewLoadSpec(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
			if len(got.Scripts) == 0 {
				t.Error("default script list must not be empty")
			}
		})
	}
}

func TestLoadSpecDSNRoundTripsCredentials(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "plain", password: "pass"},
		{name: "reserved characters", password: "p@ss:w/ord"},
		{name: "space and plus", password: "p@ss word+more"},
		{name: "percent", password: "100%safe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := LoadSpec{User: "geo", Password: tt.password, Database: "test"}

			u, err := url.Parse(spec.DSN())
			if err != nil {
				t.Fatalf("DSN() = %q is not a valid URL: %v", spec.DSN(), err)
			}
			if u.User.Username() != "geo" {
				t.Errorf("parsed user = %q, want geo", u.User.Username())
			}
			got, _ := u.User.Password()
			if got != tt.password {
				t.Errorf("parsed password = %q, want %q", got, tt.password)
			}
			if u.Host != "localhost:5432" {
				t.Errorf("parsed host = %q, want localhost:5432", u.Host)
			}
			if u.Path != "/test" {
				t.Errorf("parsed path = %q, want /test", u.Path)
			}
		})
	}
}

func TestLoadAppliesScriptsInOrder(t *testing.T) {
	paths := writeScripts(t, []string{
		"CREATE TABLE waterways (id int);",
		"INSERT INTO waterways VALUES (1);",
	})
	executor := &fakeExecutor{}
	loader := newFakeLoader(NewLoadSpec(nil), executor)
	loader.spec.Scripts = paths

	if err := loader.Load(t.Context()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{
		"CREATE TABLE waterways (id int);",
		"INSERT INTO waterways VALUES (1);",
	}
	if !slices.Equal(executor.executed, want) {
		t.Errorf("executed = %v, want %v", executor.executed, want)
	}
	if !executor.closed {
		t.Error("connection must be closed after the run")
	}
}

func TestLoadStopsAtFailingScriptWithoutRollback(t *testing.T) {
	paths := writeScripts(t, []string{
		"CREATE TABLE a (id int);",
		"BROKEN STATEMENT;",
		"CREATE TABLE c (id int);",
	})
	executor := &fakeExecutor{failOn: "BROKEN"}
	loader := newFakeLoader(NewLoadSpec(nil), executor)
	loader.spec.Scripts = paths

	err := loader.Load(t.Context())
	if !errors.Is(err, ErrScriptFailed) {
		t.Fatalf("Load() error = %v, want ErrScriptFailed", err)
	}

	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("expected *ScriptError, got %T", err)
	}
	if scriptErr.Index != 1 {
		t.Errorf("ScriptError.Index = %d, want 1", scriptErr.Index)
	}

	// Script A's effects stay applied; script C is never attempted.
	if len(executor.executed) != 1 || !strings.Contains(executor.executed[0], "CREATE TABLE a") {
		t.Errorf("executed = %v, want only script A", executor.executed)
	}
}

func TestLoadMissingScriptFileIsScriptError(t *testing.T) {
	executor := &fakeExecutor{}
	loader := newFakeLoader(NewLoadSpec(nil), executor)
	loader.spec.Scripts = []string{filepath.Join(t.TempDir(), "absent.sql")}

	err := loader.Load(t.Context())
	if !errors.Is(err, ErrScriptFailed) {
		t.Fatalf("Load() error = %v, want ErrScriptFailed", err)
	}
	if len(executor.executed) != 0 {
		t.Errorf("nothing should execute for a missing file, got %v", executor.executed)
	}
}

func TestLoadConnectFailure(t *testing.T) {
	loader := NewLoader(NewLoadSpec(nil), quietLogger(), WithConnectFunc(
		func(_ context.Context, _ string) (SQLExecutor, error) {
			return nil, errors.New("connection refused")
		},
	))

	if err := loader.Load(t.Context()); err == nil {
		t.Fatal("expected error when connection fails")
	}
}
