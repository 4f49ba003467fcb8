// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/tutorcito/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

var (
	codeBlockRegex  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")
)

// HTMLExporter exports transcripts to a standalone HTML page. Fenced code
// blocks are highlighted with inline styles so the page has no external
// assets.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sess := t.Session

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"es\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("  <meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&sb, "  <title>%s</title>\n", html.EscapeString(sess.Title))
	sb.WriteString("  <meta name=\"generator\" content=\"tutorcito\">\n")
	fmt.Fprintf(&sb, "  <meta name=\"date\" content=\"%s\">\n", sess.CreatedAt.Format(time.RFC3339))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)

	if e.options.IncludeMetadata {
		sb.WriteString("  <header>\n")
		fmt.Fprintf(&sb, "    <h1>%s</h1>\n", html.EscapeString(sess.Title))
		fmt.Fprintf(&sb, "    <p class=\"meta\">Creada: %s · Mensajes: %d</p>\n",
			formatTimestamp(sess.CreatedAt), len(t.Messages))
		sb.WriteString("  </header>\n")
	}

	sb.WriteString("  <main>\n")
	for _, msg := range t.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("  </main>\n")
	fmt.Fprintf(&sb, "  <footer>Exportado desde tutorcito el %s</footer>\n", formatTimestamp(e.options.now()))
	sb.WriteString("</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) renderMessage(msg model.Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "    <div class=\"message %s\">\n", html.EscapeString(string(msg.Sender)))
	fmt.Fprintf(&sb, "      <div class=\"sender\">%s", html.EscapeString(msg.Sender.DisplayName()))
	if e.options.IncludeTimestamps {
		fmt.Fprintf(&sb, " <span class=\"time\">%s</span>", e.options.times().Format(msg.CreatedAt))
	}
	sb.WriteString("</div>\n")
	fmt.Fprintf(&sb, "      <div class=\"content\">%s</div>\n", e.formatContent(msg.Content))
	sb.WriteString("    </div>\n")
	return sb.String()
}

// formatContent escapes message text and renders fenced and inline code.
// Inline code is only recognized outside fenced blocks.
func (e *HTMLExporter) formatContent(content string) string {
	content = strings.Trim(content, "\r\n")

	var out strings.Builder
	last := 0
	for _, loc := range codeBlockRegex.FindAllStringSubmatchIndex(content, -1) {
		out.WriteString(formatText(content[last:loc[0]]))
		lang := content[loc[2]:loc[3]]
		code := strings.TrimRight(content[loc[4]:loc[5]], "\n")
		out.WriteString(e.highlight(code, lang))
		last = loc[1]
	}
	out.WriteString(formatText(content[last:]))
	return out.String()
}

// formatText escapes prose, marks inline code and keeps line breaks.
func formatText(text string) string {
	text = html.EscapeString(text)
	text = inlineCodeRegex.ReplaceAllString(text, "<code>$1</code>")
	return strings.ReplaceAll(text, "\n", "<br>\n")
}

// highlight renders one fenced block with chroma. Unknown languages are
// guessed from the code; if highlighting fails the block is escaped as is.
func (e *HTMLExporter) highlight(code, lang string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if e.options.Theme == "light" {
		styleName = "github"
	}
	style := chromastyles.Get(styleName)
	if style == nil {
		style = chromastyles.Fallback
	}

	plain := fmt.Sprintf("<pre><code class=\"language-%s\">%s</code></pre>",
		html.EscapeString(lang), html.EscapeString(code))

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plain
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<div class=\"code language-%s\">", html.EscapeString(lang))
	if err := chromahtml.New(chromahtml.TabWidth(4)).Format(&sb, style, iterator); err != nil {
		return plain
	}
	sb.WriteString("</div>")
	return sb.String()
}

const pageCSS = `  <style>
    body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; max-width: 820px; margin: 0 auto; padding: 24px; line-height: 1.5; }
    .dark-theme { background: #1e1e2e; color: #cdd6f4; }
    .light-theme { background: #fafafa; color: #1e1e2e; }
    header { border-bottom: 1px solid #45475a; margin-bottom: 16px; }
    .meta, .time, footer { color: #7f849c; font-size: 0.85em; }
    .message { border-radius: 8px; padding: 10px 14px; margin: 10px 0; }
    .message.user { background: rgba(137, 180, 250, 0.15); margin-left: 15%; }
    .message.assistant { background: rgba(166, 227, 161, 0.12); margin-right: 15%; }
    .sender { font-weight: 600; margin-bottom: 4px; }
    pre, code { font-family: "Fira Code", Menlo, monospace; }
    pre { background: rgba(0, 0, 0, 0.25); padding: 8px; border-radius: 6px; overflow-x: auto; }
    footer { margin-top: 24px; text-align: center; }
  </style>
`
