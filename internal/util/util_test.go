// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions shared by the stores and the UIs.
package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.md")
	data := []byte("# Aprendiendo Python\n")

	if err := AtomicWriteFile(path, data, 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", string(content), string(data))
	}
}

func TestAtomicWriteFile_CreatesParentDirAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "deep", "chat.json")

	if err := AtomicWriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte("new"), 0600); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "new" {
		t.Errorf("Content = %q, want %q", content, "new")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	testCases := []struct {
		input    string
		max      int
		expected string
	}{
		{"hola", 10, "hola"},
		{"hola", 4, "hola"},
		{"programación", 8, "progr..."},
		{"ñandú", 3, "ñan"},
		{"hola", 0, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := TruncateRunes(tc.input, tc.max); got != tc.expected {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.input, tc.max, got, tc.expected)
			}
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		maxWidth int
		expected string
	}{
		{"short", "hola", 10, "hola"},
		{"ascii truncate", "Bubble sort vs Quick sort", 10, "Bubble ..."},
		{"cjk counts double", "日本語テキスト", 7, "日本..."},
		{"zero width", "hola", 0, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateWidth(tc.input, tc.maxWidth)
			if got != tc.expected {
				t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tc.input, tc.maxWidth, got, tc.expected)
			}
			if StringWidth(got) > tc.maxWidth {
				t.Errorf("width %d exceeds %d", StringWidth(got), tc.maxWidth)
			}
		})
	}
}

func TestPadRightAndSingleLine(t *testing.T) {
	if got := PadRight("ab", 4); got != "ab  " {
		t.Errorf("PadRight = %q", got)
	}
	if got := SingleLine("  a\n\tb   c "); got != "a b c" {
		t.Errorf("SingleLine = %q", got)
	}
}

// =============================================================================
// TIME FORMATTER TESTS
// =============================================================================

func TestTimeFormatter_Format(t *testing.T) {
	at := time.Date(2025, 6, 1, 14, 5, 59, 0, time.UTC)

	testCases := []struct {
		locale   string
		expected string
	}{
		{"es-ES", "14:05"},
		{"es", "14:05"},
		{"en-GB", "14:05"},
		{"en-US", "02:05 PM"},
		{"not a locale!!", "14:05"},
	}

	for _, tc := range testCases {
		t.Run(tc.locale, func(t *testing.T) {
			f := NewTimeFormatter(tc.locale, time.UTC)
			if got := f.Format(at); got != tc.expected {
				t.Errorf("Format() with %s = %q, want %q", tc.locale, got, tc.expected)
			}
		})
	}
}

func TestTimeFormatter_Location(t *testing.T) {
	loc := time.FixedZone("COT", -5*60*60)
	f := NewTimeFormatter("es-ES", loc)

	at := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	if got := f.Format(at); got != "22:00" {
		t.Errorf("Format() = %q, want %q", got, "22:00")
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	if err != nil || loc != time.Local {
		t.Errorf("LoadLocation(\"\") = %v, %v", loc, err)
	}
	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Error("expected error for unknown zone")
	}
}
