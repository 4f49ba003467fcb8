// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reply generates the assistant's answer to each user submission.
package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/tutorcito/internal/model"
)

// DefaultContent is the placeholder answer.
const DefaultContent = "Excelente pregunta. Te ayudo a entender ese concepto paso a paso..."

// Responder produces the assistant's answer to a prompt. A real model
// backend implements this; it must honor ctx cancellation.
type Responder interface {
	Respond(ctx context.Context, sessionID model.SessionID, prompt string) (string, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, sessionID model.SessionID, prompt string) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, sessionID model.SessionID, prompt string) (string, error) {
	return f(ctx, sessionID, prompt)
}

// PlaceholderResponder always answers with the same text.
type PlaceholderResponder struct {
	// Content is the answer; empty means DefaultContent
	Content string
}

// Respond returns the placeholder content.
func (p PlaceholderResponder) Respond(ctx context.Context, sessionID model.SessionID, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Content) == "" {
		return DefaultContent, nil
	}
	return p.Content, nil
}

// EchoResponder quotes the prompt back. The demo uses it so each reply is
// visibly tied to its question.
type EchoResponder struct{}

// Respond returns a reply that quotes the prompt.
func (EchoResponder) Respond(ctx context.Context, sessionID model.SessionID, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Sobre \"%s\": %s", prompt, DefaultContent), nil
}
