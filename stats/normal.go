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

package stats

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// OneSidedCriticalValue95 is the 95th percentile of the standard normal
// distribution, the critical value for a one-sided test at 95% confidence.
const OneSidedCriticalValue95 = 1.6448536269514722

// NormalCDF computes Phi(x), the standard normal cumulative distribution
// function.
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}
