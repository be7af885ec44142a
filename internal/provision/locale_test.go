// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"geopod-cli/internal/system"
	"geopod-cli/internal/testutil"
)

// localeFixture builds a fake zoneinfo tree and locale definitions file.
func localeFixture(t *testing.T, zones []string, localeGen string) (zoneinfoDir, localtime, timezone, localeGenPath string) {
	t.Helper()
	root := t.TempDir()

	zoneinfoDir = filepath.Join(root, "zoneinfo")
	for _, zone := range zones {
		path := filepath.Join(zoneinfoDir, filepath.FromSlash(zone))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("TZif"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	localeGenPath = filepath.Join(root, "locale.gen")
	if err := os.WriteFile(localeGenPath, []byte(localeGen), 0o644); err != nil {
		t.Fatal(err)
	}

	return zoneinfoDir, filepath.Join(root, "localtime"), filepath.Join(root, "timezone"), localeGenPath
}

func TestLocaleStepConfiguresTimezoneAndLocale(t *testing.T) {
	zoneinfo, localtime, timezone, localeGen := localeFixture(t,
		[]string{"Europe/London", "America/New_York"},
		"# en_US.UTF-8 UTF-8\n# de_DE.UTF-8 UTF-8\n")

	recorder := testutil.NewMockCommandRecorder()
	runner := system.NewRunner(system.WithExecCommand(recorder.CommandFunc(t)))
	step := NewLocaleStep(runner, discardLogger(), "America/New_York", "en_US.UTF-8",
		WithZoneinfoDir(zoneinfo),
		WithLocaltimePath(localtime),
		WithTimezonePath(timezone),
		WithLocaleGenPath(localeGen),
	)

	if err := step.Run(t.Context()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	target, err := os.Readlink(localtime)
	if err != nil {
		t.Fatalf("localtime is not a symlink: %v", err)
	}
	if want := filepath.Join(zoneinfo, "America/New_York"); target != want {
		t.Errorf("localtime -> %q, want %q", target, want)
	}

	tzContent, err := os.ReadFile(timezone)
	if err != nil {
		t.Fatal(err)
	}
	if string(tzContent) != "America/New_York\n" {
		t.Errorf("timezone file = %q, want %q", tzContent, "America/New_York\n")
	}

	genContent, err := os.ReadFile(localeGen)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(genContent), "\nen_US.UTF-8 UTF-8") && !strings.HasPrefix(string(genContent), "en_US.UTF-8 UTF-8") {
		t.Errorf("locale not uncommented in definitions file:\n%s", genContent)
	}
	if strings.Contains(string(genContent), "# de_DE") == false {
		t.Errorf("unrelated locale must stay commented:\n%s", genContent)
	}

	lines := recorder.CommandLines()
	wantPrefix := []string{"locale-gen", "update-locale LANG=en_US.UTF-8"}
	for i, want := range wantPrefix {
		if i >= len(lines) || lines[i] != want {
			t.Fatalf("command %d = %v, want %q (all: %v)", i, lines, want, lines)
		}
	}
}

func TestLocaleStepReplacesExistingLocaltime(t *testing.T) {
	zoneinfo, localtime, timezone, localeGen := localeFixture(t,
		[]string{"Europe/London", "Etc/UTC"},
		"en_US.UTF-8 UTF-8\n")

	// Simulate a distribution default already in place.
	if err := os.Symlink(filepath.Join(zoneinfo, "Etc/UTC"), localtime); err != nil {
		t.Fatal(err)
	}

	recorder := testutil.NewMockCommandRecorder()
	runner := system.NewRunner(system.WithExecCommand(recorder.CommandFunc(t)))
	step := NewLocaleStep(runner, discardLogger(), "Europe/London", "en_US.UTF-8",
		WithZoneinfoDir(zoneinfo),
		WithLocaltimePath(localtime),
		WithTimezonePath(timezone),
		WithLocaleGenPath(localeGen),
	)

	if err := step.Run(t.Context()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	target, err := os.Readlink(localtime)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(zoneinfo, "Europe/London"); target != want {
		t.Errorf("localtime -> %q, want %q", target, want)
	}
}

func TestLocaleStepUnknownTimezoneIsFatal(t *testing.T) {
	zoneinfo, localtime, timezone, localeGen := localeFixture(t,
		[]string{"Europe/London"}, "en_US.UTF-8 UTF-8\n")

	recorder := testutil.NewMockCommandRecorder()
	runner := system.NewRunner(system.WithExecCommand(recorder.CommandFunc(t)))
	step := NewLocaleStep(runner, discardLogger(), "Mars/Olympus", "en_US.UTF-8",
		WithZoneinfoDir(zoneinfo),
		WithLocaltimePath(localtime),
		WithTimezonePath(timezone),
		WithLocaleGenPath(localeGen),
	)

	err := step.Run(t.Context())
	if !errors.Is(err, ErrUnknownTimezone) {
		t.Fatalf("Run() error = %v, want ErrUnknownTimezone", err)
	}
	if len(recorder.Invocations) != 0 {
		t.Errorf("no command should run after a bad timezone, got %v", recorder.CommandLines())
	}
}

func TestLocaleStepUnknownLocaleIsFatal(t *testing.T) {
	zoneinfo, localtime, timezone, localeGen := localeFixture(t,
		[]string{"Europe/London"}, "# en_US.UTF-8 UTF-8\n")

	recorder := testutil.NewMockCommandRecorder()
	runner := system.NewRunner(system.WithExecCommand(recorder.CommandFunc(t)))
	step := NewLocaleStep(runner, discardLogger(), "Europe/London", "xx_XX.UTF-8",
		WithZoneinfoDir(zoneinfo),
		WithLocaltimePath(localtime),
		WithTimezonePath(timezone),
		WithLocaleGenPath(localeGen),
	)

	err := step.Run(t.Context())
	if !errors.Is(err, ErrUnknownLocale) {
		t.Fatalf("Run() error = %v, want ErrUnknownLocale", err)
	}
	if len(recorder.Invocations) != 0 {
		t.Errorf("locale-gen must not run for an unrecognized locale, got %v", recorder.CommandLines())
	}
}
