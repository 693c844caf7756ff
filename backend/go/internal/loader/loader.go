// Package loader reads a flat directory of RCA documents into a Corpus.
package loader

import (
	"RCA_Insights/backend/go/pkg/logger"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
)

// ErrNotDirectory is wrapped when the input path is missing, unreadable or not a directory.
var ErrNotDirectory = errors.New("input is not a readable directory")

// Reasons attached to skipped entries in log records.
const (
	ReasonHidden       = "hidden"
	ReasonDirectory    = "directory"
	ReasonNotRegular   = "not_regular"
	ReasonNotMatched   = "not_matched"
	ReasonTooLarge     = "too_large"
	ReasonReadFailed   = "read_failed"
	ReasonDecodeFailed = "decode_failed"
	ReasonNotText      = "not_text"
	ReasonEmpty        = "empty"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls which directory entries become documents.
type Options struct {
	// HiddenPrefix marks hidden entries; empty disables the check.
	HiddenPrefix string
	// Include holds glob patterns matched against the file name. Empty means all files.
	Include []string
	// MaxBytes skips larger files. 0 means no limit.
	MaxBytes int64
}

// Loader builds a Corpus from a directory.
type Loader struct {
	hiddenPrefix string
	include      []glob.Glob
	maxBytes     int64
	log          *logger.Logger
}

// NewLoader compiles the include patterns. log may be nil.
func NewLoader(opts Options, log *logger.Logger) (*Loader, error) {
	l := &Loader{
		hiddenPrefix: opts.HiddenPrefix,
		maxBytes:     opts.MaxBytes,
		log:          log,
	}
	if l.log == nil {
		l.log = logger.Discard()
	}
	for _, pattern := range opts.Include {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
		l.include = append(l.include, g)
	}
	return l, nil
}

// Load reads every eligible file in dir. Problems with the directory itself are
// fatal; problems with a single file skip that file and are logged.
func (l *Loader) Load(ctx context.Context, dir string) (*Corpus, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDirectory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	// os.ReadDir returns entries sorted by file name.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDirectory, err)
	}

	corpus := newCorpus()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		text, reason, err := l.loadEntry(dir, entry)
		if reason != "" {
			l.skip(name, reason, err)
			continue
		}
		corpus.add(name, text)
	}

	l.log.WithFields(map[string]interface{}{
		"input_dir": dir,
		"entries":   len(entries),
		"documents": corpus.Len(),
	}).Info("corpus loaded")
	return corpus, nil
}

// loadEntry returns the cleaned text of one entry, or the reason it was skipped.
func (l *Loader) loadEntry(dir string, entry os.DirEntry) (string, string, error) {
	name := entry.Name()
	if l.hiddenPrefix != "" && strings.HasPrefix(name, l.hiddenPrefix) {
		return "", ReasonHidden, nil
	}

	path := filepath.Join(dir, name)
	// Stat follows symlinks, so a link to a directory is treated as a directory.
	info, err := os.Stat(path)
	if err != nil {
		return "", ReasonReadFailed, err
	}
	if info.IsDir() {
		return "", ReasonDirectory, nil
	}
	if !info.Mode().IsRegular() {
		return "", ReasonNotRegular, nil
	}
	if !l.matches(name) {
		return "", ReasonNotMatched, nil
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return "", ReasonTooLarge, fmt.Errorf("%d bytes exceeds limit of %d", info.Size(), l.maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", ReasonReadFailed, err
	}

	text, reason, err := decode(data)
	if reason != "" {
		return "", reason, err
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", ReasonEmpty, nil
	}
	return cleaned, "", nil
}

func (l *Loader) matches(name string) bool {
	if len(l.include) == 0 {
		return true
	}
	for _, g := range l.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// skip logs a skipped entry. Expected skips are debug-level; failures are warnings.
func (l *Loader) skip(name, reason string, err error) {
	entry := l.log.WithFields(map[string]interface{}{
		"document_id": name,
		"reason":      reason,
	})
	switch reason {
	case ReasonHidden, ReasonDirectory, ReasonNotMatched, ReasonEmpty:
		entry.Debug("skipping entry")
	default:
		entry.WithError(err).Warn("skipping unreadable document")
	}
}

// decode turns raw bytes into text. Valid UTF-8 is text unless it holds NUL
// bytes; the detected content type only labels the diagnostic of a rejected file.
func decode(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", ReasonDecodeFailed, fmt.Errorf("content is not valid UTF-8 (detected %s)", mimetype.Detect(data).String())
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", ReasonNotText, fmt.Errorf("content holds NUL bytes (detected %s)", mimetype.Detect(data).String())
	}
	return string(data), "", nil
}

var (
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	lineBreaks      = regexp.MustCompile(`\s*\n\s*`)
)

// CleanText collapses runs of horizontal whitespace to one space and runs of
// line breaks (with any surrounding whitespace) to one newline, then trims.
func CleanText(s string) string {
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = lineBreaks.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
