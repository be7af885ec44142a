// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"geopod-cli/internal/config"
	"geopod-cli/internal/system"

	"github.com/charmbracelet/log"
)

var (
	// ErrUnknownTimezone is the sentinel error wrapped by UnknownTimezoneError.
	ErrUnknownTimezone = errors.New("unknown timezone")

	// ErrUnknownLocale is the sentinel error wrapped by UnknownLocaleError.
	ErrUnknownLocale = errors.New("unknown locale")
)

type (
	// LocaleStepOption configures a LocaleStep.
	LocaleStepOption func(*LocaleStep)

	// LocaleStep sets the OS timezone and generates/activates the requested
	// locale. Bad inputs abort the build immediately: a mis-set locale or
	// timezone is a silent correctness bug once the image ships.
	LocaleStep struct {
		runner   *system.Runner
		logger   *log.Logger
		timezone config.Timezone
		locale   config.Locale

		// Filesystem roots, overridable for tests.
		zoneinfoDir   string
		localtimePath string
		timezonePath  string
		localeGenPath string
	}

	// UnknownTimezoneError is returned when the requested zone has no entry
	// under the zoneinfo directory.
	UnknownTimezoneError struct {
		Zone config.Timezone
	}

	// UnknownLocaleError is returned when the requested locale matches no
	// pattern in the locale definitions file.
	UnknownLocaleError struct {
		Locale config.Locale
	}
)

// Error implements the error interface.
func (e *UnknownTimezoneError) Error() string {
	return fmt.Sprintf("timezone %q not present in zoneinfo database", e.Zone)
}

// Unwrap returns ErrUnknownTimezone for errors.Is compatibility.
func (e *UnknownTimezoneError) Unwrap() error { return ErrUnknownTimezone }

// Error implements the error interface.
func (e *UnknownLocaleError) Error() string {
	return fmt.Sprintf("locale %q not found in locale definitions", e.Locale)
}

// Unwrap returns ErrUnknownLocale for errors.Is compatibility.
func (e *UnknownLocaleError) Unwrap() error { return ErrUnknownLocale }

// NewLocaleStep creates the locale/timezone configurator step.
func NewLocaleStep(runner *system.Runner, logger *log.Logger, tz config.Timezone, loc config.Locale, opts ...LocaleStepOption) *LocaleStep {
	if logger == nil {
		logger = log.Default()
	}
	s := &LocaleStep{
		runner:        runner,
		logger:        logger,
		timezone:      tz,
		locale:        loc,
		zoneinfoDir:   "/usr/share/zoneinfo",
		localtimePath: "/etc/localtime",
		timezonePath:  "/etc/timezone",
		localeGenPath: "/etc/locale.gen",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithZoneinfoDir overrides the zoneinfo database root.
func WithZoneinfoDir(dir string) LocaleStepOption {
	return func(s *LocaleStep) { s.zoneinfoDir = dir }
}

// WithLocaltimePath overrides the /etc/localtime symlink location.
func WithLocaltimePath(path string) LocaleStepOption {
	return func(s *LocaleStep) { s.localtimePath = path }
}

// WithTimezonePath overrides the /etc/timezone file location.
func WithTimezonePath(path string) LocaleStepOption {
	return func(s *LocaleStep) { s.timezonePath = path }
}

// WithLocaleGenPath overrides the locale definitions file location.
func WithLocaleGenPath(path string) LocaleStepOption {
	return func(s *LocaleStep) { s.localeGenPath = path }
}

// Name implements Step.
func (s *LocaleStep) Name() string { return "locale" }

// Run applies the timezone, enables and generates the locale, then reports
// the resolved date and active locale for verification.
func (s *LocaleStep) Run(ctx context.Context) error {
	if err := s.applyTimezone(); err != nil {
		return err
	}
	if err := s.enableLocale(); err != nil {
		return err
	}
	if err := s.runner.Run(ctx, "locale-gen"); err != nil {
		return err
	}
	if err := s.runner.Run(ctx, "update-locale", "LANG="+s.locale.String()); err != nil {
		return err
	}
	return s.report(ctx)
}

// applyTimezone points /etc/localtime at the requested zone and records the
// zone name in /etc/timezone. A zone absent from the zoneinfo database is
// fatal; there is no fallback zone.
func (s *LocaleStep) applyTimezone() error {
	zonePath := filepath.Join(s.zoneinfoDir, s.timezone.String())
	if _, err := os.Stat(zonePath); err != nil {
		return &UnknownTimezoneError{Zone: s.timezone}
	}

	// Replace any distribution default before linking.
	if err := os.Remove(s.localtimePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", s.localtimePath, err)
	}
	if err := os.Symlink(zonePath, s.localtimePath); err != nil {
		return fmt.Errorf("link %s: %w", s.localtimePath, err)
	}
	if err := os.WriteFile(s.timezonePath, []byte(s.timezone.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.timezonePath, err)
	}
	return nil
}

// enableLocale uncomments the requested locale's line in the locale
// definitions file. The locale must already appear (commented or not) in the
// file; an unrecognized locale is fatal.
func (s *LocaleStep) enableLocale() error {
	content, err := os.ReadFile(s.localeGenPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.localeGenPath, err)
	}

	lines := strings.Split(string(content), "\n")
	found := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
		if strings.HasPrefix(trimmed, s.locale.String()+" ") || trimmed == s.locale.String() {
			lines[i] = trimmed
			found = true
		}
	}
	if !found {
		return &UnknownLocaleError{Locale: s.locale}
	}

	if err := os.WriteFile(s.localeGenPath, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.localeGenPath, err)
	}
	return nil
}

// report emits the resolved date and active locale so build logs show what
// the image actually ended up with.
func (s *LocaleStep) report(ctx context.Context) error {
	date, err := s.runner.Output(ctx, "date")
	if err != nil {
		return err
	}
	active, err := s.runner.Output(ctx, "locale", "-a")
	if err != nil {
		return err
	}
	s.logger.Info("locale configured",
		"timezone", s.timezone, "locale", s.locale,
		"date", date, "available", strings.ReplaceAll(active, "\n", " "))
	return nil
}
