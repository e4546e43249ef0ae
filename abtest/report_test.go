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
	"bytes"
	"testing"

	"github.com/splitsig/splitsig/dataset"
	"github.com/splitsig/splitsig/table"
	"github.com/stockparfait/errors"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReport(t *testing.T) {
	t.Parallel()
	Convey("Summary works", t, func() {
		tbl := makeTable(1000, 120, 1000, 100)
		s, err := NewSummary(tbl)
		So(err, ShouldBeNil)
		So(s, ShouldResemble, &Summary{
			TotalSubjects:  2000,
			UniqueSubjects: 2000,
			OverallRate:    0.11,
			ControlRate:    0.10,
			TreatmentRate:  0.12,
			RateDifference: 0.12 - 0.10,
			NNew:           1000,
			NOld:           1000,
		})

		_, err = NewSummary(nil)
		So(errors.Is(err, dataset.ErrNoData), ShouldBeTrue)
	})

	Convey("Report works", t, func() {
		tbl := makeTable(1000, 120, 1000, 100)
		s, err := NewSummary(tbl)
		So(err, ShouldBeNil)

		Convey("summary is required", func() {
			_, err := NewReport(nil, nil, nil)
			So(err, ShouldNotBeNil)
		})

		Convey("summary-only table", func() {
			r, err := NewReport(s, nil, nil)
			So(err, ShouldBeNil)
			tb := r.Table()
			So(tb.Header, ShouldResemble, []string{
				"total", "unique", "overall rate", "control rate",
				"treatment rate", "rate diff", "n_new", "n_old"})
			var buf bytes.Buffer
			So(tb.WriteCSV(&buf, table.Params{}), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "2000,2000,0.110000")
		})

		Convey("test columns are appended when available", func() {
			sim := &SimResult{PValue: 0.0716, Iterations: 10000, Sidedness: OneSided}
			z := &ZTestResult{Z: 1.4293, PValue: 0.0765, Sidedness: OneSided}
			r, err := NewReport(s, sim, z)
			So(err, ShouldBeNil)
			tb := r.Table()
			So(tb.Header, ShouldContain, "sim p-value")
			So(tb.Header, ShouldContain, "z-score")
			var buf bytes.Buffer
			So(tb.WriteCSV(&buf, table.Params{}), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "0.0716,10000,one-sided")
			So(buf.String(), ShouldContainSubstring, "1.4293,0.0765,one-sided")
		})
	})
}
