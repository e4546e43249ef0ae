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

// Package abtest implements the statistical inference engine for two-variant
// experiments: aggregate rate extraction over the clean dataset, a Monte
// Carlo simulation of the null hypothesis, the closed-form two-proportion
// z-test, the significance interpreter and the report aggregator.
//
// All results are plain immutable values returned to the caller; nothing in
// this package keeps shared mutable state between calls.
package abtest

import (
	stderrors "errors"
	"math"

	"github.com/splitsig/splitsig/dataset"
	"github.com/stockparfait/errors"
)

// ErrInvalidSampleSizes indicates that one or both experiment arms have zero
// subjects after cleaning, so no test statistic is defined.
var ErrInvalidSampleSizes = stderrors.New("invalid sample sizes")

// Sidedness values accepted by the test engines.
const (
	OneSided = "one-sided"
	TwoSided = "two-sided"
)

// RateStats are the aggregate conversion rates of the clean table. A rate is
// NaN when its subgroup is empty; this is a well-defined edge case, not an
// error.
type RateStats struct {
	Overall      float64 // mean outcome over all rows
	Control      float64 // mean outcome over the control group
	Treatment    float64 // mean outcome over the treatment group
	NewPageShare float64 // fraction of rows shown the new page
}

// SampleSizes are the row counts per variant and per group.
type SampleSizes struct {
	NNew       int
	NOld       int
	NControl   int
	NTreatment int
}

// ConversionCounts are the successful outcomes per variant.
type ConversionCounts struct {
	New int
	Old int
}

func rate(converted, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	return float64(converted) / float64(total)
}

// Rates recomputes RateStats from the clean table. Pure: the same table
// always yields bit-identical results.
func Rates(t *dataset.Table) (RateStats, error) {
	if t == nil {
		return RateStats{}, errors.Annotate(dataset.ErrNoData, "cannot compute rates")
	}
	var all, converted, ctl, ctlConv, trt, trtConv, newShown int
	for _, r := range t.Rows() {
		all++
		converted += r.Outcome
		switch r.Group {
		case dataset.Control:
			ctl++
			ctlConv += r.Outcome
		case dataset.Treatment:
			trt++
			trtConv += r.Outcome
		}
		if r.Variant == dataset.NewPage {
			newShown++
		}
	}
	return RateStats{
		Overall:      rate(converted, all),
		Control:      rate(ctlConv, ctl),
		Treatment:    rate(trtConv, trt),
		NewPageShare: rate(newShown, all),
	}, nil
}

// Sizes recomputes SampleSizes from the clean table.
func Sizes(t *dataset.Table) (SampleSizes, error) {
	if t == nil {
		return SampleSizes{}, errors.Annotate(dataset.ErrNoData, "cannot compute sizes")
	}
	var s SampleSizes
	for _, r := range t.Rows() {
		if r.Variant == dataset.NewPage {
			s.NNew++
		} else {
			s.NOld++
		}
		if r.Group == dataset.Treatment {
			s.NTreatment++
		} else {
			s.NControl++
		}
	}
	return s, nil
}

// Conversions recomputes ConversionCounts from the clean table.
func Conversions(t *dataset.Table) (ConversionCounts, error) {
	if t == nil {
		return ConversionCounts{},
			errors.Annotate(dataset.ErrNoData, "cannot compute conversions")
	}
	var c ConversionCounts
	for _, r := range t.Rows() {
		if r.Outcome != 1 {
			continue
		}
		if r.Variant == dataset.NewPage {
			c.New++
		} else {
			c.Old++
		}
	}
	return c, nil
}
