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
	"encoding/json"
	"testing"

	"github.com/stockparfait/errors"

	. "github.com/smartystreets/goconvey/convey"
)

func testJSON(js string) any {
	var res any
	if err := json.Unmarshal([]byte(js), &res); err != nil {
		return nil
	}
	return res
}

func TestColumns(t *testing.T) {
	t.Parallel()
	Convey("ColumnConfig works", t, func() {
		Convey("defaults are populated", func() {
			c := NewColumnConfig()
			So(c.SubjectID[0], ShouldEqual, "user_id")
			So(c.Group[0], ShouldEqual, "group")
			So(c.Variant[0], ShouldEqual, "landing_page")
			So(c.Outcome[0], ShouldEqual, "converted")
		})

		Convey("custom candidates from JSON", func() {
			var c ColumnConfig
			So(c.InitMessage(testJSON(`{"subject id": ["uid"]}`)), ShouldBeNil)
			So(c.SubjectID, ShouldResemble, []string{"uid"})
			So(c.Group[0], ShouldEqual, "group") // still defaulted
		})
	})

	Convey("Resolve works", t, func() {
		c := NewColumnConfig()

		Convey("standard header", func() {
			m, err := c.Resolve(
				[]string{"user_id", "timestamp", "group", "landing_page", "converted"})
			So(err, ShouldBeNil)
			So(m, ShouldResemble,
				Mapping{SubjectID: 0, Group: 2, Variant: 3, Outcome: 4, Timestamp: 1})
		})

		Convey("alternative header via later candidates", func() {
			m, err := c.Resolve([]string{"id", "con_treat", "page", "converted"})
			So(err, ShouldBeNil)
			So(m, ShouldResemble,
				Mapping{SubjectID: 0, Group: 1, Variant: 2, Outcome: 3, Timestamp: -1})
		})

		Convey("exact match wins over substring", func() {
			// "customer_id" contains "id" as a substring, but the exact "id"
			// column must win for the first candidate that matches exactly.
			m, err := c.Resolve([]string{"customer_id", "id", "group", "page", "converted"})
			So(err, ShouldBeNil)
			So(m.SubjectID, ShouldEqual, 1)
		})

		Convey("matching is case-insensitive and trims spaces", func() {
			m, err := c.Resolve([]string{" User_ID ", "GROUP", "Landing_Page", "Converted"})
			So(err, ShouldBeNil)
			So(m.SubjectID, ShouldEqual, 0)
			So(m.Outcome, ShouldEqual, 3)
		})

		Convey("unresolved fields are all named", func() {
			_, err := c.Resolve([]string{"foo", "bar"})
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrMissingColumn), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "subject id")
			So(err.Error(), ShouldContainSubstring, "group")
			So(err.Error(), ShouldContainSubstring, "variant")
			So(err.Error(), ShouldContainSubstring, "outcome")
		})

		Convey("resolution is deterministic", func() {
			header := []string{"experiment_group", "test_group", "page", "converted", "uid x"}
			var c2 ColumnConfig
			So(c2.InitMessage(testJSON(`{"subject id": ["uid"]}`)), ShouldBeNil)
			m1, err1 := c2.Resolve(header)
			m2, err2 := c2.Resolve(header)
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)
			So(m1, ShouldResemble, m2)
			// No exact "group" column: the substring pass picks the earliest
			// header containing the first candidate.
			So(m1.Group, ShouldEqual, 0)
			So(m1.SubjectID, ShouldEqual, 4) // substring match
		})
	})
}
