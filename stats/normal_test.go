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
	"testing"

	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormal(t *testing.T) {
	t.Parallel()
	Convey("NormalCDF matches known values", t, func() {
		So(NormalCDF(0.0), ShouldEqual, 0.5)
		So(testutil.Round(NormalCDF(1.96), 4), ShouldEqual, 0.975)
		So(testutil.Round(NormalCDF(-1.96), 4), ShouldEqual, 0.025)
		// The one-sided 95% critical value is indeed the 95th percentile.
		So(testutil.Round(NormalCDF(OneSidedCriticalValue95), 6), ShouldEqual, 0.95)
	})
}
