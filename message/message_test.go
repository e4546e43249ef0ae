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

package message

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func testJSON(js string) any {
	var res any
	if err := json.Unmarshal([]byte(js), &res); err != nil {
		return nil
	}
	return res
}

type Trial struct {
	Name       string   `json:"name" required:"true"`
	Sidedness  string   `json:"sidedness" choices:"one-sided,two-sided" default:"one-sided"`
	Iterations int      `json:"iterations" default:"10000"`
	Seed       uint64   `json:"seed" default:"42"`
	Alpha      *float64 `json:"alpha" default:"0.05"`
	Dry        bool
	Arms       []*Trial          `json:"arms,omitempty"`
	Labels     map[string]string `json:"labels"`
	Skipped    int               `json:"-"`
	unexported int
}

var _ Message = &Trial{}

func (c *Trial) InitMessage(js any) error {
	return Init(c, js)
}

type BadChoice struct {
	Choice string `choices:"foo,bar"` // no default
}

func (b *BadChoice) InitMessage(js any) error {
	return Init(b, js)
}

func TestMessage(t *testing.T) {
	t.Parallel()
	Convey("Init() works", t, func() {
		Convey("with required fields only", func() {
			var c Trial
			So(c.InitMessage(testJSON(`{"name": "landing"}`)), ShouldBeNil)
			So(c.Name, ShouldEqual, "landing")
			So(c.Sidedness, ShouldEqual, "one-sided")
			So(c.Iterations, ShouldEqual, 10000)
			So(c.Seed, ShouldEqual, 42)
			So(*c.Alpha, ShouldEqual, 0.05)
			So(c.Dry, ShouldBeFalse)
			So(len(c.Arms), ShouldEqual, 0)
		})

		Convey("with recursive Message entries", func() {
			var c Trial
			So(c.InitMessage(testJSON(`{
        "name": "landing", "alpha": null, "Dry": true,
        "labels": {"team": "growth", "quarter": "q3"},
        "arms": [
          {"name": "checkout", "sidedness": "two-sided"},
          {"name": "signup", "seed": 7}]
      }`)), ShouldBeNil)
			So(c.Name, ShouldEqual, "landing")
			So(c.Alpha, ShouldBeNil)
			So(c.Dry, ShouldBeTrue)
			So(c.Labels, ShouldResemble,
				map[string]string{"team": "growth", "quarter": "q3"})
			So(len(c.Arms), ShouldEqual, 2)
			So(c.Arms[0].Sidedness, ShouldEqual, "two-sided")
			So(c.Arms[0].Seed, ShouldEqual, 42)
			So(c.Arms[1].Sidedness, ShouldEqual, "one-sided")
			So(c.Arms[1].Seed, ShouldEqual, 7)
			So(c.unexported, ShouldEqual, 0)
		})

		Convey("with missing fields in recursive call", func() {
			var c Trial
			// An arm is missing its name.
			So(c.InitMessage(testJSON(`{"name": "x", "arms": [{"seed": 1}]}`)),
				ShouldNotBeNil)
		})

		Convey("with ignored and unexported fields", func() {
			var c Trial
			err := c.InitMessage(testJSON(`{"name": "x", "Skipped": 5}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring,
				"unsupported fields for Trial: Skipped")

			err = c.InitMessage(testJSON(`{"name": "x", "unexported": 5}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring,
				"unsupported fields for Trial: unexported")
		})

		Convey("with a value outside the choice list", func() {
			var c Trial
			err := c.InitMessage(testJSON(`{"name": "x", "sidedness": "three-sided"}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring,
				"value for Sidedness is not in its choice list: 'three-sided'")
		})

		Convey("with an invalid default choice", func() {
			var b BadChoice
			err := b.InitMessage(testJSON(`{}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring,
				"value for Choice is not in its choice list: ''")
		})
	})

	Convey("FromFile works", t, func() {
		tmpdir, err := os.MkdirTemp("", "test_message")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tmpdir)

		confFile := filepath.Join(tmpdir, "config.json")
		So(testutil.WriteFile(confFile, `{"name": "landing", "seed": 2022}`),
			ShouldBeNil)
		var c Trial
		So(FromFile(&c, confFile), ShouldBeNil)
		So(c.Name, ShouldEqual, "landing")
		So(c.Seed, ShouldEqual, 2022)

		So(FromFile(&c, filepath.Join(tmpdir, "no-such.json")), ShouldNotBeNil)

		So(testutil.WriteFile(confFile, `{"name": }`), ShouldBeNil)
		So(FromFile(&c, confFile), ShouldNotBeNil)
	})

	Convey("StringIn works", t, func() {
		So(StringIn("one-sided", "one-sided", "two-sided"), ShouldBeTrue)
		So(StringIn("three-sided", "one-sided", "two-sided"), ShouldBeFalse)
	})
}
