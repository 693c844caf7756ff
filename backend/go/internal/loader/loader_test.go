package loader

import (
	"RCA_Insights/backend/go/pkg/logger"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func newTestLoader(t *testing.T, opts Options) (*Loader, *test.Hook) {
	t.Helper()
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l, err := NewLoader(opts, logger.NewWithBase(base, "loader_test", "trace"))
	require.NoError(t, err)
	return l, hook
}

// skipReasons collects document_id -> reason from the captured log entries.
func skipReasons(hook *test.Hook) map[string]string {
	out := make(map[string]string)
	for _, e := range hook.AllEntries() {
		id, ok := e.Data["document_id"].(string)
		if !ok {
			continue
		}
		out[id], _ = e.Data["reason"].(string)
	}
	return out
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces and blank lines", "A   b\n\n\nC", "A b\nC"},
		{"tabs become one space", "a\t\t b", "a b"},
		{"crlf line endings", "line one\r\n\r\nline two\r\n", "line one\nline two"},
		{"spaces around newlines dropped", "a  \n   b", "a\nb"},
		{"trims ends", "  \n hello \n ", "hello"},
		{"whitespace only", " \t\n\n ", ""},
		{"empty", "", ""},
		{"unicode kept", "Café   crash", "Café crash"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanText(tc.in))
		})
	}
}

func TestLoadSkipsIneligibleEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("A   b\n\n\nC"))
	writeFile(t, dir, ".hidden", []byte("secret"))
	writeFile(t, dir, "blank.txt", []byte(" \n\t "))
	writeFile(t, dir, "empty.txt", nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writeFile(t, filepath.Join(dir, "sub"), "nested.txt", []byte("not loaded"))

	l, hook := newTestLoader(t, Options{HiddenPrefix: "."})
	corpus, err := l.Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt"}, corpus.IDs())
	text, ok := corpus.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "A b\nC", text)

	reasons := skipReasons(hook)
	assert.Equal(t, ReasonHidden, reasons[".hidden"])
	assert.Equal(t, ReasonEmpty, reasons["blank.txt"])
	assert.Equal(t, ReasonEmpty, reasons["empty.txt"])
	assert.Equal(t, ReasonDirectory, reasons["sub"])
}

func TestLoadSkipsUndecodableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.txt", []byte("database failed"))
	writeFile(t, dir, "latin1.txt", []byte{'c', 'a', 'f', 0xe9, ' ', 'd', 'o', 'w', 'n'})
	writeFile(t, dir, "blob.bin", []byte{0x00, 0x01, 0x02, 0x03, 0x00, 0x00, 'x', 0x00})

	l, hook := newTestLoader(t, Options{HiddenPrefix: "."})
	corpus, err := l.Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"good.txt"}, corpus.IDs())
	reasons := skipReasons(hook)
	assert.Equal(t, ReasonDecodeFailed, reasons["latin1.txt"])
	assert.Equal(t, ReasonNotText, reasons["blob.bin"])

	var warned int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned++
		}
	}
	assert.Equal(t, 2, warned)
}

func TestLoadKeepsTextThatLooksLikeBinarySignatures(t *testing.T) {
	dir := t.TempDir()
	docs := map[string]string{
		"mz.txt":   "MZ cluster outage: the scheduler lost quorum",
		"id3.txt":  "ID3 service timed out during deploy",
		"gif.txt":  "GIF89a rendering pipeline crashed",
		"pdf.txt":  "%PDF export job failed",
		"json.txt": `{"incident": "cache miss storm"}`,
		"ok.txt":   "database failed",
	}
	for name, text := range docs {
		writeFile(t, dir, name, []byte(text))
	}

	l, hook := newTestLoader(t, Options{HiddenPrefix: "."})
	corpus, err := l.Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"gif.txt", "id3.txt", "json.txt", "mz.txt", "ok.txt", "pdf.txt"}, corpus.IDs())
	text, _ := corpus.Get("mz.txt")
	assert.Equal(t, docs["mz.txt"], text)
	assert.Empty(t, skipReasons(hook))
}

func TestLoadStripsBOM(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bom.txt", append([]byte{0xEF, 0xBB, 0xBF}, []byte("cache miss")...))

	l, _ := newTestLoader(t, Options{})
	corpus, err := l.Load(context.Background(), dir)
	require.NoError(t, err)

	text, ok := corpus.Get("bom.txt")
	require.True(t, ok)
	assert.Equal(t, "cache miss", text)
}

func TestLoadOrderIsLexicographic(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.md", "a.md", "B.md", "b.md"} {
		writeFile(t, dir, name, []byte("incident "+name))
	}

	l, _ := newTestLoader(t, Options{})
	corpus, err := l.Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"B.md", "a.md", "b.md", "c.md"}, corpus.IDs())
	docs := corpus.Documents()
	require.Len(t, docs, 4)
	assert.Equal(t, "incident B.md", docs[0].Text)
}

func TestLoadIncludeAndSizeFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.txt", []byte("short"))
	writeFile(t, dir, "two.md", []byte("short"))
	writeFile(t, dir, "big.txt", []byte("this document is far too long"))

	l, hook := newTestLoader(t, Options{Include: []string{"*.txt"}, MaxBytes: 10})
	corpus, err := l.Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"one.txt"}, corpus.IDs())
	reasons := skipReasons(hook)
	assert.Equal(t, ReasonNotMatched, reasons["two.md"])
	assert.Equal(t, ReasonTooLarge, reasons["big.txt"])
}

func TestLoadHiddenPrefixDisabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".notes", []byte("visible"))

	l, _ := newTestLoader(t, Options{})
	corpus, err := l.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, corpus.Len())
}

func TestLoadEmptyDirectory(t *testing.T) {
	l, _ := newTestLoader(t, Options{HiddenPrefix: "."})
	corpus, err := l.Load(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, corpus.Len())
	assert.Empty(t, corpus.IDs())
}

func TestLoadMissingDirectory(t *testing.T) {
	l, _ := newTestLoader(t, Options{})
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotDirectory))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFileInsteadOfDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file.txt", []byte("x"))

	l, _ := newTestLoader(t, Options{})
	_, err := l.Load(context.Background(), filepath.Join(dir, "file.txt"))
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestLoadCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l, _ := newTestLoader(t, Options{})
	_, err := l.Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLoaderRejectsBadPattern(t *testing.T) {
	_, err := NewLoader(Options{Include: []string{"[a-"}}, nil)
	assert.Error(t, err)
}

func TestNewCorpus(t *testing.T) {
	c := NewCorpus(map[string]string{"z": "last", "m": "middle", "a": "first"})
	assert.Equal(t, []string{"a", "m", "z"}, c.IDs())
	assert.Equal(t, "middle", c.Documents()[1].Text)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}
