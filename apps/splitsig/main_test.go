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

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stockparfait/logging"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

// testCSV has 5 aligned rows per arm plus one misaligned and one duplicate
// row, both of which the cleaner drops.
func testCSV() string {
	var sb strings.Builder
	sb.WriteString("user_id,timestamp,group,landing_page,converted\n")
	for i := 0; i < 5; i++ {
		conv := 0
		if i < 2 {
			conv = 1
		}
		fmt.Fprintf(&sb, "t%d,2017-01-0%d 10:00:00,treatment,new_page,%d\n",
			i, i%3+2, conv)
	}
	for i := 0; i < 5; i++ {
		conv := 0
		if i < 1 {
			conv = 1
		}
		fmt.Fprintf(&sb, "c%d,2017-01-0%d 11:00:00,control,old_page,%d\n",
			i, i%3+2, conv)
	}
	sb.WriteString("x1,2017-01-02 12:00:00,treatment,old_page,1\n") // misaligned
	sb.WriteString("t0,2017-01-02 13:00:00,treatment,new_page,0\n") // duplicate
	return sb.String()
}

func TestMain(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_splitsig")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		flags, err := parseFlags([]string{
			"-conf", "path/to/config", "-log-level", "warning", "-csv",
			"-plot", "out.json"})
		So(err, ShouldBeNil)
		So(flags.Config, ShouldEqual, "path/to/config")
		So(flags.LogLevel, ShouldEqual, logging.Warning)
		So(flags.CSV, ShouldBeTrue)
		So(flags.Plot, ShouldEqual, "out.json")

		_, err = parseFlags([]string{"-csv"})
		So(err, ShouldNotBeNil)
	})

	Convey("Config works", t, func() {
		var c Config
		So(c.InitMessage(map[string]any{"file": "data.csv"}), ShouldBeNil)
		So(c.Sidedness, ShouldEqual, "one-sided")
		So(c.Buckets, ShouldEqual, 200)
		So(c.Columns, ShouldNotBeNil)
		So(c.Simulation.Sidedness, ShouldEqual, "one-sided")
		So(c.Thresholds, ShouldBeNil)

		So((&Config{}).InitMessage(map[string]any{}), ShouldNotBeNil)
		So((&Config{}).InitMessage(map[string]any{
			"file": "a.csv", "url": "http://x"}), ShouldNotBeNil)
	})

	Convey("analyze works", t, func() {
		ctx := logging.Use(context.Background(),
			logging.DefaultGoLogger(logging.Warning))
		dataFile := filepath.Join(tmpdir, "data.csv")
		configFile := filepath.Join(tmpdir, "config.json")
		So(testutil.WriteFile(dataFile, testCSV()), ShouldBeNil)

		Convey("text report with verdict", func() {
			So(testutil.WriteFile(configFile, fmt.Sprintf(`
{
  "file": "%s",
  "simulation": {"iterations": 200, "batch size": 50}
}`, dataFile)), ShouldBeNil)
			flags, err := parseFlags([]string{"-conf", configFile})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(analyze(ctx, flags, &buf), ShouldBeNil)
			out := buf.String()
			So(out, ShouldContainSubstring, "total")
			So(out, ShouldContainSubstring, "treatment rate")
			So(out, ShouldContainSubstring, "Simulation p-value (one-sided)")
			So(out, ShouldContainSubstring, "Z-test p-value (one-sided)")
		})

		Convey("CSV report", func() {
			So(testutil.WriteFile(configFile, fmt.Sprintf(`
{
  "file": "%s",
  "simulation": {"iterations": 100}
}`, dataFile)), ShouldBeNil)
			flags, err := parseFlags([]string{"-conf", configFile, "-csv"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(analyze(ctx, flags, &buf), ShouldBeNil)
			// 5 aligned rows per arm survive cleaning.
			So(buf.String(), ShouldContainSubstring, "10,10,0.300000")
		})

		Convey("plot JSON export", func() {
			plotFile := filepath.Join(tmpdir, "plots.json")
			So(testutil.WriteFile(configFile, fmt.Sprintf(`
{
  "file": "%s",
  "simulation": {"iterations": 100},
  "buckets": 20
}`, dataFile)), ShouldBeNil)
			flags, err := parseFlags([]string{
				"-conf", configFile, "-plot", plotFile})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(analyze(ctx, flags, &buf), ShouldBeNil)
			data, err := os.ReadFile(plotFile)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "Simulated null distribution")
			So(string(data), ShouldContainSubstring, "Daily conversion rates")
		})

		Convey("attribute merge", func() {
			attrFile := filepath.Join(tmpdir, "countries.csv")
			So(testutil.WriteFile(attrFile,
				"user_id,country\nt0,UK\nt1,UK\nt2,US\nt3,US\nt4,US\n"+
					"c0,UK\nc1,UK\nc2,US\nc3,US\nc4,US\n"), ShouldBeNil)
			So(testutil.WriteFile(configFile, fmt.Sprintf(`
{
  "file": "%s",
  "attributes": "%s",
  "simulation": {"iterations": 100}
}`, dataFile, attrFile)), ShouldBeNil)
			flags, err := parseFlags([]string{"-conf", configFile, "-csv"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(analyze(ctx, flags, &buf), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "10,10")
		})

		Convey("bad config fails", func() {
			So(testutil.WriteFile(configFile, `{"url": "http://x", "file": "y"}`),
				ShouldBeNil)
			flags, err := parseFlags([]string{"-conf", configFile})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(analyze(ctx, flags, &buf), ShouldNotBeNil)
		})
	})
}
