// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions shared by the stores and the UIs.
package util

import (
	"time"

	"golang.org/x/text/language"
)

// DefaultLocale is the locale of the original tutoring dashboard.
const DefaultLocale = "es-ES"

// twelveHourRegions use a 12-hour clock for short times.
var twelveHourRegions = map[string]bool{
	"US": true, "CA": true, "AU": true, "NZ": true, "PH": true,
	"IN": true, "PK": true, "EG": true, "SA": true, "CO": true,
}

// TimeFormatter renders timestamps as short hour:minute strings.
// It is immutable and safe for concurrent use.
type TimeFormatter struct {
	tag      language.Tag
	loc      *time.Location
	twelveHr bool
}

// NewTimeFormatter creates a formatter for a BCP 47 locale such as "es-ES"
// or "en-US". Unparseable locales fall back to DefaultLocale. A nil
// location means time.Local.
func NewTimeFormatter(locale string, loc *time.Location) *TimeFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	if loc == nil {
		loc = time.Local
	}

	region, _ := tag.Region()
	return &TimeFormatter{
		tag:      tag,
		loc:      loc,
		twelveHr: twelveHourRegions[region.String()],
	}
}

// Format returns the hour and minute of t, zero padded: "14:05" for
// 24-hour locales and "02:05 PM" for 12-hour ones.
func (f *TimeFormatter) Format(t time.Time) string {
	t = t.In(f.loc)
	if f.twelveHr {
		return t.Format("03:04 PM")
	}
	return t.Format("15:04")
}

// Locale returns the canonical locale tag in use.
func (f *TimeFormatter) Locale() string {
	return f.tag.String()
}

// LoadLocation resolves a timezone name; "" and "Local" mean time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
