// Copyright 2025 Split Sig

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dataset implements the canonical two-variant experiment table: CSV
// ingestion with configurable column resolution, cleaning of corrupted and
// duplicate records, and merging of auxiliary per-subject attributes.
package dataset

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/stockparfait/errors"
)

// Sentinel errors of the package. Callers distinguish them with errors.Is.
var (
	// ErrNoData indicates an operation requiring a clean table was invoked
	// before one was created.
	ErrNoData = stderrors.New("no dataset loaded")
	// ErrMissingColumn indicates that required canonical columns could not be
	// resolved in the input header.
	ErrMissingColumn = stderrors.New("missing required column")
	// ErrMalformedInput indicates unreadable or unparsable input data.
	ErrMalformedInput = stderrors.New("malformed input")
)

// Group is the experimental arm a subject was assigned to.
type Group uint8

const (
	Control Group = iota
	Treatment
)

func (g Group) String() string {
	if g == Treatment {
		return "treatment"
	}
	return "control"
}

// ParseGroup converts a raw CSV value to a Group.
func ParseGroup(s string) (Group, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "control":
		return Control, nil
	case "treatment":
		return Treatment, nil
	}
	return Control, errors.Annotate(ErrMalformedInput, "invalid group value: '%s'", s)
}

// Variant is the version of the page actually shown to a subject.
type Variant uint8

const (
	OldPage Variant = iota
	NewPage
)

func (v Variant) String() string {
	if v == NewPage {
		return "new_page"
	}
	return "old_page"
}

// ParseVariant converts a raw CSV value to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "old_page", "old":
		return OldPage, nil
	case "new_page", "new":
		return NewPage, nil
	}
	return OldPage, errors.Annotate(ErrMalformedInput, "invalid variant value: '%s'", s)
}

// ParseOutcome converts a raw CSV value to a binary outcome.
func ParseOutcome(s string) (int, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return 0, errors.Annotate(ErrMalformedInput, "invalid outcome value: '%s'", s)
}

// timestampLayouts are tried in order when parsing an optional timestamp
// column. The first layout matches the microsecond timestamps of the common
// public experiment exports.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ParseTimestamp converts a raw CSV value to a time.Time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range timestampLayouts {
		if ts, err := time.Parse(l, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errors.Annotate(ErrMalformedInput,
		"invalid timestamp value: '%s'", s)
}

// Row is a single subject-visit record in canonical form. Timestamp is zero
// when the input had no resolvable timestamp column. Attrs holds auxiliary
// per-subject attributes and is populated only by Table.MergeAttrs.
type Row struct {
	SubjectID string
	Group     Group
	Variant   Variant
	Outcome   int
	Timestamp time.Time
	Attrs     map[string]string
}

// Misaligned checks whether the row is a corruption artifact of the
// randomization system: a treatment subject shown the old page, or a control
// subject shown the new one.
func (r Row) Misaligned() bool {
	return (r.Group == Treatment && r.Variant == OldPage) ||
		(r.Group == Control && r.Variant == NewPage)
}
