// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"

	"github.com/jeranaias/tutorcito/internal/model"
	"github.com/jeranaias/tutorcito/internal/util"
)

// =============================================================================
// PRINTER
// =============================================================================

// Printer writes conversation output for the REPL and the demo. It is
// safe for concurrent use; replies are printed from a background
// goroutine while the prompt is open.
type Printer struct {
	mu        sync.Mutex
	out       *termenv.Output
	times     *util.TimeFormatter
	assistant string
}

// NewPrinter creates a printer. Pass termenv.Ascii for plain text.
func NewPrinter(w io.Writer, profile termenv.Profile, times *util.TimeFormatter, assistantName string) *Printer {
	if assistantName == "" {
		assistantName = model.SenderAssistant.DisplayName()
	}
	return &Printer{
		out:       termenv.NewOutput(w, termenv.WithProfile(profile)),
		times:     times,
		assistant: assistantName,
	}
}

func (p *Printer) style(s, color string) termenv.Style {
	return p.out.String(s).Foreground(p.out.Color(color))
}

// Message prints one message with its sender and time.
func (p *Printer) Message(msg model.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := msg.Sender.DisplayName()
	color := "#22D3EE"
	if msg.IsFrom(model.SenderAssistant) {
		name = p.assistant
		color = "#A78BFA"
	}
	fmt.Fprintf(p.out, "%s %s\n%s\n\n",
		p.style(name, color).Bold(),
		p.style(p.times.Format(msg.CreatedAt), "#6C7086").Italic(),
		msg.Content,
	)
}

// Thread prints a whole thread under a session heading.
func (p *Printer) Thread(sess model.Session, thread []model.Message) {
	p.Heading(sess.Title)
	if len(thread) == 0 {
		p.Notice("(sin mensajes)")
		return
	}
	for _, msg := range thread {
		p.Message(msg)
	}
}

// Heading prints a section title.
func (p *Printer) Heading(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s\n%s\n", p.style(title, "#A78BFA").Bold(), strings.Repeat("─", util.StringWidth(title)))
}

// Sessions prints the numbered session list. The active session is marked
// and pending replies are counted.
func (p *Printer) Sessions(sessions []model.Session, active model.SessionID, pending map[model.SessionID]int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(sessions) == 0 {
		fmt.Fprintln(p.out, p.style("(sin conversaciones)", "#6C7086"))
		return
	}

	for i, sess := range sessions {
		marker := " "
		if sess.ID == active {
			marker = "*"
		}
		when := "     "
		if !sess.LastMessageAt.IsZero() {
			when = p.times.Format(sess.LastMessageAt)
		}
		line := fmt.Sprintf("%s %2d. %s %s", marker, i+1, util.PadRight(util.TruncateWidth(sess.Title, 28), 28), when)
		if n := pending[sess.ID]; n > 0 {
			line += p.style(fmt.Sprintf(" (%d pendiente)", n), "#FBBF24").String()
		}
		if sess.Preview != "" {
			line += "  " + p.style(util.TruncateWidth(sess.Preview, 40), "#A6ADC8").String()
		}
		fmt.Fprintln(p.out, line)
	}
}

// Status prints the reply queue summary, the reply settings and every
// session with replies in flight.
func (p *Printer) Status(summary string, delay time.Duration, sessions []model.Session, pending map[model.SessionID]int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s %s\n", p.style("Respuestas:", "#A78BFA").Bold(), summary)
	fmt.Fprintf(p.out, "%s %v, hora %s\n", p.style("Retraso:", "#A78BFA").Bold(), delay, p.times.Locale())
	for _, sess := range sessions {
		if n := pending[sess.ID]; n > 0 {
			fmt.Fprintf(p.out, "  %s %s %s\n",
				p.style(sess.ID.Short(), "#6C7086"),
				util.TruncateWidth(sess.Title, 28),
				p.style(fmt.Sprintf("(%d pendiente)", n), "#FBBF24"))
		}
	}
}

// Notice prints an informational line.
func (p *Printer) Notice(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.style(fmt.Sprintf(format, args...), "#34D399"))
}

// Error prints an error line.
func (p *Printer) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.style("[Error] ", "#FB7185").Bold().String()+err.Error())
}
