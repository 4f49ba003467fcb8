// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// Kind categorizes a failure reported to the caller.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidInput
	KindNoActiveSession
)

// String returns a short description of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidInput:
		return "invalid input"
	case KindNoActiveSession:
		return "no active session"
	default:
		return "unknown error"
	}
}

// =============================================================================
// ERROR TYPE
// =============================================================================

// Error is returned by every store and controller operation.
// Use errors.Is(err, ErrNotFound) and friends to check the kind.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrNoActiveSession = &Error{Kind: KindNoActiveSession}
)

// E creates an Error of the given kind for operation op.
func E(kind Kind, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
