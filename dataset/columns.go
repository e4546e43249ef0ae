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
	"strings"

	"github.com/splitsig/splitsig/message"
	"github.com/stockparfait/errors"
)

// ColumnConfig sets the candidate CSV column names for each canonical field.
// Candidates are matched in list order: an exact (case-insensitive, trimmed)
// match anywhere in the header wins over a substring match, and earlier
// candidates win over later ones. Timestamp is optional; the other four
// fields are required for a dataset CSV.
type ColumnConfig struct {
	SubjectID []string `json:"subject id"`
	Group     []string `json:"group"`
	Variant   []string `json:"variant"`
	Outcome   []string `json:"outcome"`
	Timestamp []string `json:"timestamp"`
}

var _ message.Message = &ColumnConfig{}

// InitMessage implements message.Message.
func (c *ColumnConfig) InitMessage(js any) error {
	if err := message.Init(c, js); err != nil {
		return errors.Annotate(err, "failed to init ColumnConfig")
	}
	if len(c.SubjectID) == 0 {
		c.SubjectID = []string{"user_id", "id", "user", "customer_id", "participant_id"}
	}
	if len(c.Group) == 0 {
		c.Group = []string{"group", "con_treat", "test_group", "experiment_group"}
	}
	if len(c.Variant) == 0 {
		c.Variant = []string{"landing_page", "page", "version", "variant_page", "test_page"}
	}
	if len(c.Outcome) == 0 {
		c.Outcome = []string{"converted", "conversion", "success", "clicked", "purchased"}
	}
	if len(c.Timestamp) == 0 {
		c.Timestamp = []string{"timestamp", "visit_time", "date"}
	}
	return nil
}

// NewColumnConfig creates a ColumnConfig with the default candidate lists.
func NewColumnConfig() *ColumnConfig {
	var c ColumnConfig
	if err := c.InitMessage(map[string]any{}); err != nil {
		panic(errors.Annotate(err, "failed to init default ColumnConfig"))
	}
	return &c
}

// Mapping holds the resolved header indices for the canonical fields.
// Timestamp is -1 when no timestamp column was resolved.
type Mapping struct {
	SubjectID int
	Group     int
	Variant   int
	Outcome   int
	Timestamp int
}

// findColumn resolves a single canonical field against the normalized header:
// for each candidate in order, first an exact match in header order, then a
// substring match in header order. Returns -1 when nothing matches.
func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		cand = strings.ToLower(strings.TrimSpace(cand))
		for i, h := range header {
			if h == cand {
				return i
			}
		}
		for i, h := range header {
			if strings.Contains(h, cand) {
				return i
			}
		}
	}
	return -1
}

// Resolve maps the CSV header onto the canonical fields. The resolution is a
// pure function of the header and the configured candidate lists; ties are
// broken deterministically (candidate order, then header order). All fields
// except the timestamp are required; the returned error wraps
// ErrMissingColumn and names every unresolved field.
func (c *ColumnConfig) Resolve(header []string) (Mapping, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}
	m := Mapping{
		SubjectID: findColumn(normalized, c.SubjectID),
		Group:     findColumn(normalized, c.Group),
		Variant:   findColumn(normalized, c.Variant),
		Outcome:   findColumn(normalized, c.Outcome),
		Timestamp: findColumn(normalized, c.Timestamp),
	}
	var unresolved []string
	if m.SubjectID < 0 {
		unresolved = append(unresolved, "subject id")
	}
	if m.Group < 0 {
		unresolved = append(unresolved, "group")
	}
	if m.Variant < 0 {
		unresolved = append(unresolved, "variant")
	}
	if m.Outcome < 0 {
		unresolved = append(unresolved, "outcome")
	}
	if len(unresolved) > 0 {
		return m, errors.Annotate(ErrMissingColumn, "could not resolve: %s",
			strings.Join(unresolved, ", "))
	}
	return m, nil
}
