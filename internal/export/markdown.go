// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/tutorcito/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// frontmatter is the metadata block at the top of a Markdown transcript.
type frontmatter struct {
	Title     string `yaml:"title"`
	Session   string `yaml:"session"`
	Date      string `yaml:"date"`
	Updated   string `yaml:"updated,omitempty"`
	Messages  int    `yaml:"messages"`
	Exported  string `yaml:"exported"`
	Generator string `yaml:"generator"`
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sess := t.Session

	if e.options.IncludeMetadata {
		fm := frontmatter{
			Title:     sess.Title,
			Session:   string(sess.ID),
			Date:      sess.CreatedAt.Format(time.RFC3339),
			Messages:  len(t.Messages),
			Exported:  e.options.now().Format(time.RFC3339),
			Generator: "tutorcito",
		}
		if !sess.LastMessageAt.IsZero() {
			fm.Updated = sess.LastMessageAt.Format(time.RFC3339)
		}
		header, err := yaml.Marshal(fm)
		if err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(header)
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(sess.Title))

	if e.options.IncludeMetadata {
		sb.WriteString("## Información\n\n")
		fmt.Fprintf(&sb, "- **Creada**: %s\n", formatTimestamp(sess.CreatedAt))
		fmt.Fprintf(&sb, "- **Último mensaje**: %s\n", formatTimestamp(sess.LastMessageAt))
		fmt.Fprintf(&sb, "- **Mensajes**: %d\n", len(t.Messages))
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversación\n\n")
	if len(t.Messages) == 0 {
		sb.WriteString("_Sin mensajes._\n")
	}

	for i, msg := range t.Messages {
		label := e.formatSenderLabel(msg.Sender)
		if e.options.IncludeTimestamps {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, e.options.times().Format(msg.CreatedAt))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		sb.WriteString(strings.Trim(msg.Content, "\r\n"))
		sb.WriteString("\n\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*Exportado desde tutorcito el %s*\n", formatTimestamp(e.options.now()))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// formatSenderLabel returns the heading label for a sender.
func (e *MarkdownExporter) formatSenderLabel(sender model.Sender) string {
	switch sender {
	case model.SenderUser, model.SenderAssistant:
		return "[" + sender.DisplayName() + "]"
	default:
		return "Desconocido"
	}
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}
