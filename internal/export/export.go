// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes session transcripts to Markdown, JSON, YAML and HTML.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/tutorcito/internal/model"
	"github.com/jeranaias/tutorcito/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is one session together with its thread, in display order.
type Transcript struct {
	Session  model.Session   `json:"session" yaml:"session"`
	Messages []model.Message `json:"messages" yaml:"messages"`
}

// NewTranscript builds a transcript from a session and its thread.
func NewTranscript(sess model.Session, thread []model.Message) Transcript {
	return Transcript{Session: sess, Messages: thread}
}

func (t Transcript) validate() error {
	if t.Session.IsZero() {
		return fmt.Errorf("transcript has no session")
	}
	if t.Session.CreatedAt.IsZero() {
		return fmt.Errorf("session %s has invalid creation timestamp", t.Session.ID)
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format and returns the content.
	Export(t Transcript) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Formats lists the accepted format names, in help order.
var Formats = []string{"md", "json", "yaml", "html"}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "yaml", "yml":
		return NewYAMLExporter(opts), nil
	case "html":
		return NewHTMLExporter(opts), nil
	default:
		return nil, &Error{
			Format: format,
			Err:    fmt.Errorf("unsupported format (supported: %s)", strings.Join(Formats, ", ")),
		}
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is used when ExportToFile is given no explicit path.
	// Default: current working directory
	OutputDir string

	// IncludeMetadata includes the header block (title, dates, counts).
	IncludeMetadata bool

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// Times formats per-message timestamps. Nil means es-ES in local time.
	Times *util.TimeFormatter

	// Theme for HTML export ("light" or "dark").
	Theme string

	// Now stamps the export footer. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

func (o *Options) times() *util.TimeFormatter {
	if o.Times == nil {
		o.Times = util.NewTimeFormatter(util.DefaultLocale, time.Local)
	}
	return o.Times
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// =============================================================================
// ERRORS
// =============================================================================

// Error reports a failed export together with the format and destination.
type Error struct {
	Format string
	Path   string
	Err    error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("export error [%s]: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a transcript and writes it atomically. When path is
// empty a name is derived from the session title inside opts.OutputDir.
// Returns the output file path.
func ExportToFile(t Transcript, exporter Exporter, path string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	format := strings.TrimPrefix(exporter.FileExtension(), ".")

	content, err := exporter.Export(t)
	if err != nil {
		return "", &Error{Format: format, Path: path, Err: err}
	}

	if path == "" {
		path = filepath.Join(opts.OutputDir, DefaultFilename(t.Session, exporter, opts.now()))
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", &Error{Format: format, Path: path, Err: fmt.Errorf("create output directory: %w", err)}
		}
	}

	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", &Error{Format: format, Path: path, Err: err}
	}
	return path, nil
}

// DefaultFilename derives a file name from the session title and a timestamp.
func DefaultFilename(sess model.Session, exporter Exporter, at time.Time) string {
	return fmt.Sprintf("tutorcito_%s_%s%s",
		sanitizeFilename(sess.Title),
		at.Format("20060102_150405"),
		exporter.FileExtension(),
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(strings.TrimSpace(s), 50)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := make([]rune, 0, len(s))
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversacion"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for metadata blocks.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
