// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/tutorcito/internal/model"
	"github.com/jeranaias/tutorcito/internal/util"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() *Options {
	opts := DefaultOptions()
	opts.Times = util.NewTimeFormatter(util.DefaultLocale, time.UTC)
	opts.Now = func() time.Time { return testNow }
	return opts
}

func testTranscript() Transcript {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	sess := model.Session{
		ID:            "sess_abc",
		Title:         "Aprendiendo Python",
		CreatedAt:     created,
		LastMessageAt: created.Add(2 * time.Minute),
		Preview:       "Claro, veamos listas.",
	}
	return NewTranscript(sess, []model.Message{
		{ID: "msg_1", SessionID: sess.ID, Sender: model.SenderUser, Content: "¿Qué es una lista?", CreatedAt: created.Add(time.Minute)},
		{ID: "msg_2", SessionID: sess.ID, Sender: model.SenderAssistant, Content: "Claro, veamos `listas`.\n\n```python\nxs = [1, 2]\n```", CreatedAt: created.Add(2 * time.Minute)},
	})
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"md", ".md", false},
		{"markdown", ".md", false},
		{"JSON", ".json", false},
		{"yml", ".yaml", false},
		{"html", ".html", false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := ForFormat(tt.format, nil)
			if tt.wantErr {
				var exportErr *Error
				require.ErrorAs(t, err, &exportErr)
				assert.Equal(t, tt.format, exportErr.Format)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, exp.FileExtension())
		})
	}
}

func TestMarkdownExporter_Export(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions()).Export(testTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "title: Aprendiendo Python")
	assert.Contains(t, md, "messages: 2")
	assert.Contains(t, md, "# Aprendiendo Python")
	assert.Contains(t, md, "### [Tú] <sub>09:31</sub>")
	assert.Contains(t, md, "### [Tutorcito] <sub>09:32</sub>")
	assert.Contains(t, md, "```python\nxs = [1, 2]\n```")
	assert.Less(t, strings.Index(md, "¿Qué es una lista?"), strings.Index(md, "Claro, veamos"))
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	opts := testOptions()
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false

	out, err := NewMarkdownExporter(opts).Export(testTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# Aprendiendo Python"))
	assert.NotContains(t, md, "<sub>")
	assert.Contains(t, md, "### [Tú]\n")
}

func TestMarkdownExporter_EscapesTitle(t *testing.T) {
	tr := testTranscript()
	tr.Session.Title = "C# y *punteros*: [guía]"

	out, err := NewMarkdownExporter(testOptions()).Export(tr)
	require.NoError(t, err)

	assert.Contains(t, string(out), `# C\# y \*punteros\*: \[guía\]`)
	// The frontmatter stays valid YAML despite the colon.
	parts := strings.SplitN(string(out), "---\n", 3)
	require.Len(t, parts, 3)
	var fm frontmatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, tr.Session.Title, fm.Title)
}

func TestJSONExporter_Export(t *testing.T) {
	tr := testTranscript()
	out, err := NewJSONExporter(nil).Export(tr)
	require.NoError(t, err)

	var decoded Transcript
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, tr.Session.ID, decoded.Session.ID)
	require.Len(t, decoded.Messages, 2)
	assert.Equal(t, model.SenderAssistant, decoded.Messages[1].Sender)
}

func TestYAMLExporter_Export(t *testing.T) {
	tr := testTranscript()
	out, err := NewYAMLExporter(nil).Export(tr)
	require.NoError(t, err)
	assert.Contains(t, string(out), "title: Aprendiendo Python")

	var decoded Transcript
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, tr.Session.Title, decoded.Session.Title)
	require.Len(t, decoded.Messages, 2)
	assert.Equal(t, tr.Messages[0].Content, decoded.Messages[0].Content)
	assert.True(t, tr.Messages[0].CreatedAt.Equal(decoded.Messages[0].CreatedAt))
}

func TestHTMLExporter_EscapesContent(t *testing.T) {
	tr := testTranscript()
	tr.Messages[0].Content = "<script>alert(1)</script>"

	out, err := NewHTMLExporter(testOptions()).Export(tr)
	require.NoError(t, err)
	page := string(out)

	assert.NotContains(t, page, "<script>alert")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.Contains(t, page, `<div class="code language-python"><pre`)
	assert.Contains(t, page, `<span style="color:`, "code block is highlighted")
	assert.NotContains(t, page, "```")
	assert.Contains(t, page, "<code>listas</code>")
	assert.Contains(t, page, `class="dark-theme"`)
}

func TestHTMLExporter_CodeBlocks(t *testing.T) {
	tr := testTranscript()
	tr.Messages[1].Content = "Usa `fmt.Println`:\n\n```go\nfmt.Println(`raw`, \"<b>\")\n```\nListo."

	out, err := NewHTMLExporter(testOptions()).Export(tr)
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<code>fmt.Println</code>", "inline code outside the block")
	assert.NotContains(t, page, "<code>raw</code>", "backticks inside a block stay literal")
	assert.NotContains(t, page, "<b>")
	assert.Contains(t, page, `<div class="code language-go">`)
	assert.Contains(t, page, "<br>\nListo.")

	opts := testOptions()
	opts.Theme = "light"
	light, err := NewHTMLExporter(opts).Export(tr)
	require.NoError(t, err)
	assert.Contains(t, string(light), `class="light-theme"`)
	assert.NotEqual(t, page, string(light))
}

func TestExporters_RejectEmptySession(t *testing.T) {
	for _, name := range Formats {
		exp, err := ForFormat(name, nil)
		require.NoError(t, err)
		_, err = exp.Export(Transcript{})
		assert.Error(t, err, name)
	}
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "chat.md")

	got, err := ExportToFile(testTranscript(), NewMarkdownExporter(testOptions()), path, testOptions())
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Aprendiendo Python")
}

func TestExportToFile_DefaultName(t *testing.T) {
	opts := testOptions()
	opts.OutputDir = t.TempDir()

	got, err := ExportToFile(testTranscript(), NewJSONExporter(opts), "", opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(opts.OutputDir, "tutorcito_Aprendiendo_Python_20250301_120000.json"), got)
	assert.FileExists(t, got)
}

func TestExportToFile_WrapsFailure(t *testing.T) {
	_, err := ExportToFile(Transcript{}, NewYAMLExporter(nil), "out.yaml", nil)

	var exportErr *Error
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, "yaml", exportErr.Format)
	assert.Equal(t, "out.yaml", exportErr.Path)
	assert.Contains(t, err.Error(), "export error [yaml] out.yaml")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"React Hooks", "React_Hooks"},
		{"a/b\\c:d", "a-b-c-d"},
		{"   ", "conversacion"},
		{"línea\x01", "línea-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.input), tt.input)
	}
}
