// SPDX-License-Identifier: MPL-2.0

// Package schema maintains a local cache of the OGC XML schema archive so the
// packaged server can validate documents offline, without runtime network
// access.
package schema

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Fixed upstream archive and the subtree the packaged server consumes.
const (
	// ArchiveURL is the upstream schema archive location.
	ArchiveURL = "https://schemas.opengis.net/SCHEMAS_OPENGIS_NET.zip"

	// ArchiveSubdir is the only subtree extracted from the archive.
	ArchiveSubdir = "ogcapi"

	// DefaultCacheDir is where the cache lands, relative to the server's
	// working directory.
	DefaultCacheDir = "schemas.opengis.net"
)

var (
	// ErrSubdirMissing is the sentinel error wrapped by SubdirMissingError.
	ErrSubdirMissing = errors.New("schema subdirectory missing from archive")

	// ErrArchiveUnreachable is the sentinel error wrapped by ArchiveUnreachableError.
	ErrArchiveUnreachable = errors.New("schema archive unreachable")
)

type (
	// FetcherOption configures a Fetcher.
	FetcherOption func(*Fetcher)

	// Fetcher downloads the schema archive and extracts the relevant
	// subtree into the cache directory. Re-running with the same archive
	// produces the same directory contents.
	Fetcher struct {
		client   *http.Client
		url      string
		subdir   string
		cacheDir string
	}

	// SubdirMissingError is returned when the expected subtree is absent
	// from the downloaded archive. This signals an upstream schema layout
	// change, not a transient failure.
	SubdirMissingError struct {
		Subdir string
	}

	// ArchiveUnreachableError is returned when the archive cannot be
	// downloaded.
	ArchiveUnreachableError struct {
		URL string
		Err error
	}
)

// Error implements the error interface.
func (e *SubdirMissingError) Error() string {
	return fmt.Sprintf("archive contains no entries under %q: upstream layout changed", e.Subdir)
}

// Unwrap returns ErrSubdirMissing for errors.Is compatibility.
func (e *SubdirMissingError) Unwrap() error { return ErrSubdirMissing }

// Error implements the error interface.
func (e *ArchiveUnreachableError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

// Unwrap returns ErrArchiveUnreachable plus the underlying error.
func (e *ArchiveUnreachableError) Unwrap() []error {
	return []error{ErrArchiveUnreachable, e.Err}
}

// NewFetcher creates a Fetcher with production defaults.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   http.DefaultClient,
		url:      ArchiveURL,
		subdir:   ArchiveSubdir,
		cacheDir: DefaultCacheDir,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = client }
}

// WithArchiveURL overrides the archive URL.
func WithArchiveURL(url string) FetcherOption {
	return func(f *Fetcher) { f.url = url }
}

// WithSubdir overrides the extracted subtree.
func WithSubdir(subdir string) FetcherOption {
	return func(f *Fetcher) { f.subdir = subdir }
}

// WithCacheDir overrides the cache directory.
func WithCacheDir(dir string) FetcherOption {
	return func(f *Fetcher) { f.cacheDir = dir }
}

// CacheDir returns the cache directory the fetcher writes into.
func (f *Fetcher) CacheDir() string { return f.cacheDir }

// Name implements the provisioning Step interface.
func (f *Fetcher) Name() string { return "schemacache" }

// Run implements the provisioning Step interface.
func (f *Fetcher) Run(ctx context.Context) error { return f.Fetch(ctx) }

// Fetch downloads the archive and extracts the configured subtree into the
// cache directory. Existing cached files are overwritten, never merged, so
// the result matches the archive regardless of prior state.
func (f *Fetcher) Fetch(ctx context.Context) error {
	archivePath, err := f.download(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(archivePath) }() // Temp file; removal error non-critical

	return f.extract(archivePath)
}

// download fetches the archive into a temp file and returns its path.
func (f *Fetcher) download(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &ArchiveUnreachableError{URL: f.url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &ArchiveUnreachableError{
			URL: f.url,
			Err: fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	tmp, err := os.CreateTemp("", "schemas-*.zip")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", &ArchiveUnreachableError{URL: f.url, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// extract unpacks every archive entry under the configured subtree into the
// cache directory, preserving relative layout. Zero matching entries means
// the upstream layout changed and is fatal.
func (f *Fetcher) extract(archivePath string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = reader.Close() }()

	prefix := f.subdir + "/"
	extracted := 0
	for _, entry := range reader.File {
		if !strings.HasPrefix(entry.Name, prefix) {
			continue
		}
		if err := f.extractEntry(entry); err != nil {
			return err
		}
		if !entry.FileInfo().IsDir() {
			extracted++
		}
	}
	if extracted == 0 {
		return &SubdirMissingError{Subdir: f.subdir}
	}
	return nil
}

// extractEntry writes one archive entry under the cache directory, rejecting
// paths that would escape it.
func (f *Fetcher) extractEntry(entry *zip.File) error {
	rel := filepath.FromSlash(entry.Name)
	dest := filepath.Join(f.cacheDir, rel)
	if !strings.HasPrefix(dest, filepath.Clean(f.cacheDir)+string(os.PathSeparator)) {
		return fmt.Errorf("archive entry %q escapes cache directory", entry.Name)
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
