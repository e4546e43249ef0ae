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

package dataset

import (
	"fmt"

	"github.com/stockparfait/errors"
)

// Table is the canonical clean dataset: no misaligned rows, unique subject
// ids. It is immutable after creation; all downstream statistics treat it as
// read-only, and MergeAttrs returns a new Table rather than modifying the
// receiver.
type Table struct {
	rows []Row
}

// Rows of the table. The returned slice must not be modified.
func (t *Table) Rows() []Row { return t.rows }

// Len is the number of retained rows.
func (t *Table) Len() int { return len(t.rows) }

// UniqueSubjects counts distinct subject ids. By the cleaning invariant this
// equals Len(), but it is computed honestly for reporting.
func (t *Table) UniqueSubjects() int {
	seen := make(map[string]struct{}, len(t.rows))
	for _, r := range t.rows {
		seen[r.SubjectID] = struct{}{}
	}
	return len(seen)
}

// Diagnostic summarizes what cleaning dropped.
type Diagnostic struct {
	Input      int // raw rows seen
	Misaligned int // rows dropped by the mismatch mask
	Duplicates int // rows dropped as repeated subject ids
	Retained   int // rows in the clean table
}

func (d Diagnostic) String() string {
	return fmt.Sprintf(
		"cleaned %d rows: dropped %d misaligned and %d duplicates, retained %d",
		d.Input, d.Misaligned, d.Duplicates, d.Retained)
}

// CountMisaligned counts the rows where the assigned group contradicts the
// variant shown. It is a read-only diagnostic, independent of Clean.
func CountMisaligned(raw []Row) int {
	n := 0
	for _, r := range raw {
		if r.Misaligned() {
			n++
		}
	}
	return n
}

// Clean builds the canonical table from raw rows: first the misaligned rows
// are dropped, then, among the remaining rows, only the earliest occurrence
// of each subject id is retained (ties broken by input order). Returns
// ErrNoData when raw is nil, i.e. no dataset was loaded at all.
func Clean(raw []Row) (*Table, Diagnostic, error) {
	var diag Diagnostic
	if raw == nil {
		return nil, diag, errors.Annotate(ErrNoData, "cannot clean")
	}
	diag.Input = len(raw)
	seen := make(map[string]struct{}, len(raw))
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		if r.Misaligned() {
			diag.Misaligned++
			continue
		}
		if _, ok := seen[r.SubjectID]; ok {
			diag.Duplicates++
			continue
		}
		seen[r.SubjectID] = struct{}{}
		rows = append(rows, r)
	}
	diag.Retained = len(rows)
	return &Table{rows: rows}, diag, nil
}

// MergeAttrs inner-joins auxiliary attributes onto the table by subject id
// and returns the result as a new Table; rows without attributes are dropped.
// Requires an existing clean table (ErrNoData otherwise).
func (t *Table) MergeAttrs(attrs *AttrTable) (*Table, error) {
	if t == nil {
		return nil, errors.Annotate(ErrNoData, "cannot merge attributes")
	}
	if attrs == nil {
		return nil, errors.Annotate(ErrNoData, "no attribute table to merge")
	}
	rows := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		a, ok := attrs.Attrs[r.SubjectID]
		if !ok {
			continue
		}
		merged := r
		merged.Attrs = make(map[string]string, len(r.Attrs)+len(a))
		for k, v := range r.Attrs {
			merged.Attrs[k] = v
		}
		for k, v := range a {
			merged.Attrs[k] = v
		}
		rows = append(rows, merged)
	}
	return &Table{rows: rows}, nil
}
