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

package abtest

import (
	"fmt"

	"github.com/splitsig/splitsig/dataset"
	"github.com/splitsig/splitsig/table"
	"github.com/stockparfait/errors"
)

// Summary are the descriptive statistics of the clean dataset, independent of
// any hypothesis test.
type Summary struct {
	TotalSubjects  int
	UniqueSubjects int
	OverallRate    float64
	ControlRate    float64
	TreatmentRate  float64
	RateDifference float64 // treatment rate - control rate
	NNew           int
	NOld           int
}

// NewSummary computes the Summary of the clean table.
func NewSummary(t *dataset.Table) (*Summary, error) {
	if t == nil {
		return nil, errors.Annotate(dataset.ErrNoData, "cannot summarize")
	}
	rates, err := Rates(t)
	if err != nil {
		return nil, errors.Annotate(err, "failed to extract rates")
	}
	sizes, err := Sizes(t)
	if err != nil {
		return nil, errors.Annotate(err, "failed to extract sample sizes")
	}
	return &Summary{
		TotalSubjects:  t.Len(),
		UniqueSubjects: t.UniqueSubjects(),
		OverallRate:    rates.Overall,
		ControlRate:    rates.Control,
		TreatmentRate:  rates.Treatment,
		RateDifference: rates.Treatment - rates.Control,
		NNew:           sizes.NNew,
		NOld:           sizes.NOld,
	}, nil
}

// Report aggregates the summary and the available test results for
// presentation. Sim and Z may be nil when the corresponding test didn't run.
type Report struct {
	Summary *Summary
	Sim     *SimResult
	Z       *ZTestResult
}

// NewReport creates a Report out of the available results. Summary is
// required, the test results are optional.
func NewReport(summary *Summary, sim *SimResult, z *ZTestResult) (*Report, error) {
	if summary == nil {
		return nil, errors.Reason("summary is required")
	}
	return &Report{Summary: summary, Sim: sim, Z: z}, nil
}

// Table lays the report out as a single-row table of named metrics, suitable
// for both the text and the CSV writers. Columns for tests that didn't run
// are omitted.
func (r *Report) Table() *table.Table {
	header := []string{
		"total", "unique", "overall rate", "control rate", "treatment rate",
		"rate diff", "n_new", "n_old",
	}
	s := r.Summary
	row := table.Strings{
		fmt.Sprintf("%d", s.TotalSubjects),
		fmt.Sprintf("%d", s.UniqueSubjects),
		fmt.Sprintf("%.6f", s.OverallRate),
		fmt.Sprintf("%.6f", s.ControlRate),
		fmt.Sprintf("%.6f", s.TreatmentRate),
		fmt.Sprintf("%.6f", s.RateDifference),
		fmt.Sprintf("%d", s.NNew),
		fmt.Sprintf("%d", s.NOld),
	}
	if r.Sim != nil {
		header = append(header, "sim p-value", "sim iterations", "sim sidedness")
		row = append(row,
			fmt.Sprintf("%.4f", r.Sim.PValue),
			fmt.Sprintf("%d", r.Sim.Iterations),
			r.Sim.Sidedness,
		)
	}
	if r.Z != nil {
		header = append(header, "z-score", "z p-value", "z sidedness")
		row = append(row,
			fmt.Sprintf("%.4f", r.Z.Z),
			fmt.Sprintf("%.4f", r.Z.PValue),
			r.Z.Sidedness,
		)
	}
	tbl := table.NewTable(header...)
	tbl.AddRow(row)
	return tbl
}
