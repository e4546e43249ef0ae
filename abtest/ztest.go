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
	"math"

	"github.com/splitsig/splitsig/dataset"
	"github.com/splitsig/splitsig/stats"
	"github.com/stockparfait/errors"
)

// Alternative hypotheses for the z-test p-value.
const (
	AltTwoSided = "two-sided" // any difference between the arms
	AltLarger   = "larger"    // treatment is better than control
	AltSmaller  = "smaller"   // treatment is worse than control
)

// NormalPValue converts a z statistic to a p-value under the standard normal
// null distribution for the given alternative.
func NormalPValue(z float64, alternative string) (float64, error) {
	switch alternative {
	case AltTwoSided:
		return 2.0 * (1.0 - stats.NormalCDF(math.Abs(z))), nil
	case AltLarger:
		return 1.0 - stats.NormalCDF(z), nil
	case AltSmaller:
		return stats.NormalCDF(z), nil
	}
	return 0, errors.Reason("invalid alternative: '%s'", alternative)
}

// ZTestResult is the immutable outcome of one two-proportion z-test run.
type ZTestResult struct {
	Z             float64
	PValue        float64
	CriticalValue float64 // one-sided 95% critical value, for reporting
	ZSignificance float64 // Phi(z), reported for diagnostics
	ConvertNew    int
	ConvertOld    int
	NNew          int
	NOld          int
	Sidedness     string
	Alternative   string
}

// ZTest runs the closed-form two-proportion z-test of the null hypothesis
// that both arms share the same true conversion rate. One-sided tests the
// "larger" alternative: that the new page converts better than the old one.
//
//	p_pool = (convert_new + convert_old) / (n_new + n_old)
//	v      = p_pool * (1 - p_pool) * (1/n_new + 1/n_old)
//	z      = (p1 - p2) / sqrt(v)
func ZTest(t *dataset.Table, sidedness string) (*ZTestResult, error) {
	if t == nil {
		return nil, errors.Annotate(dataset.ErrNoData, "cannot run z-test")
	}
	alternative := AltLarger
	switch sidedness {
	case OneSided:
	case TwoSided:
		alternative = AltTwoSided
	default:
		return nil, errors.Reason("invalid sidedness: '%s'", sidedness)
	}
	counts, err := Conversions(t)
	if err != nil {
		return nil, errors.Annotate(err, "failed to extract conversions")
	}
	sizes, err := Sizes(t)
	if err != nil {
		return nil, errors.Annotate(err, "failed to extract sample sizes")
	}
	if sizes.NNew == 0 || sizes.NOld == 0 {
		return nil, errors.Annotate(ErrInvalidSampleSizes,
			"n_new=%d, n_old=%d", sizes.NNew, sizes.NOld)
	}

	p1 := float64(counts.New) / float64(sizes.NNew)
	p2 := float64(counts.Old) / float64(sizes.NOld)
	pPool := float64(counts.New+counts.Old) / float64(sizes.NNew+sizes.NOld)
	v := pPool * (1.0 - pPool) *
		(1.0/float64(sizes.NNew) + 1.0/float64(sizes.NOld))
	z := (p1 - p2) / math.Sqrt(v)
	pValue, err := NormalPValue(z, alternative)
	if err != nil {
		return nil, errors.Annotate(err, "failed to compute p-value")
	}
	return &ZTestResult{
		Z:             z,
		PValue:        pValue,
		CriticalValue: stats.OneSidedCriticalValue95,
		ZSignificance: stats.NormalCDF(z),
		ConvertNew:    counts.New,
		ConvertOld:    counts.Old,
		NNew:          sizes.NNew,
		NOld:          sizes.NOld,
		Sidedness:     sidedness,
		Alternative:   alternative,
	}, nil
}
