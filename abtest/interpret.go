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
	"strings"

	"github.com/splitsig/splitsig/message"
	"github.com/stockparfait/errors"
)

// Thresholds are the decision boundaries used by Interpret. The two-sided
// threshold is intentionally loose; tighten it in the config for a
// conventional test.
type Thresholds struct {
	OneSidedAlpha     float64 `json:"one-sided alpha" default:"0.05"`
	TwoSidedThreshold float64 `json:"two-sided threshold" default:"0.25"`
}

var _ message.Message = &Thresholds{}

// InitMessage implements message.Message.
func (t *Thresholds) InitMessage(js any) error {
	if err := message.Init(t, js); err != nil {
		return errors.Annotate(err, "failed to init Thresholds")
	}
	if t.OneSidedAlpha <= 0.0 || t.OneSidedAlpha >= 1.0 {
		return errors.Reason("one-sided alpha=%g must be in (0, 1)", t.OneSidedAlpha)
	}
	if t.TwoSidedThreshold <= 0.0 || t.TwoSidedThreshold >= 1.0 {
		return errors.Reason(
			"two-sided threshold=%g must be in (0, 1)", t.TwoSidedThreshold)
	}
	return nil
}

// NewThresholds creates a Thresholds with all the default values.
func NewThresholds() *Thresholds {
	var t Thresholds
	if err := t.InitMessage(map[string]any{}); err != nil {
		panic(errors.Annotate(err, "failed to init default Thresholds"))
	}
	return &t
}

// Interpret renders a human-readable verdict for the available test results.
// Either result may be nil; with both nil it asks the caller to run an
// analysis first. A nil th uses the default Thresholds.
//
// The decision rules: a one-sided test rejects the null hypothesis when its
// p-value is at most the one-sided alpha; a two-sided test reports a
// significant difference when its p-value is strictly below the two-sided
// threshold. The one-sided z-test additionally requires the z-score to reach
// the critical value before failing to reject.
func Interpret(sim *SimResult, z *ZTestResult, th *Thresholds) string {
	if sim == nil && z == nil {
		return "No test results available; run an analysis first."
	}
	if th == nil {
		th = NewThresholds()
	}
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	if sim != nil {
		add("Simulation p-value (%s): %.4f", sim.Sidedness, sim.PValue)
		if sim.Sidedness == TwoSided {
			if sim.PValue < th.TwoSidedThreshold {
				add("  significant difference between the pages (p < %g)",
					th.TwoSidedThreshold)
			} else {
				add("  no significant difference detected")
			}
		} else {
			if sim.PValue > th.OneSidedAlpha {
				add("  fail to reject the null hypothesis")
				add("  the new page is NOT significantly better than the old page")
			} else {
				add("  reject the null hypothesis")
				add("  the new page shows a significant improvement")
			}
		}
	}

	if z != nil {
		if len(lines) > 0 {
			add("")
		}
		add("Z-test p-value (%s): %.4f", z.Sidedness, z.PValue)
		add("Z-score: %.4f (critical: %.4f)", z.Z, z.CriticalValue)
		if z.Sidedness == TwoSided {
			if z.PValue < th.TwoSidedThreshold {
				add("  significant difference detected (p < %g)", th.TwoSidedThreshold)
			} else {
				add("  no significant difference")
			}
		} else {
			if z.Z < z.CriticalValue && z.PValue > th.OneSidedAlpha {
				add("  fail to reject the null hypothesis")
				add("  no significant difference")
			} else {
				add("  significant result detected")
			}
		}
	}
	return strings.Join(lines, "\n")
}
