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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_splitsig_fetch")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		flags, err := parseFlags([]string{
			"-cache", "/tmp/cache", "-log-level", "warning"})
		So(err, ShouldBeNil)
		So(flags.CacheDir, ShouldEqual, "/tmp/cache")
		So(flags.LogLevel, ShouldEqual, logging.Warning)
	})

	Convey("parseConfig", t, func() {
		Convey("missing config suggests a sample", func() {
			_, err := parseConfig(filepath.Join(tmpdir, "nowhere"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "[[sources]]")
		})

		Convey("valid config", func() {
			So(testutil.WriteFile(filepath.Join(tmpdir, "config.toml"), `
[[sources]]
name = "ab_data.csv"
url = "https://example.com/ab_data.csv"

[[sources]]
name = "countries.csv"
url = "https://example.com/countries.csv"
`), ShouldBeNil)
			c, err := parseConfig(tmpdir)
			So(err, ShouldBeNil)
			So(len(c.Sources), ShouldEqual, 2)
			So(c.Sources[0].Name, ShouldEqual, "ab_data.csv")
		})

		Convey("sources must be complete", func() {
			So(testutil.WriteFile(filepath.Join(tmpdir, "config.toml"), `
[[sources]]
name = "ab_data.csv"
`), ShouldBeNil)
			_, err := parseConfig(tmpdir)
			So(err, ShouldNotBeNil)
		})

		Convey("source name must be a plain file name", func() {
			So(testutil.WriteFile(filepath.Join(tmpdir, "config.toml"), `
[[sources]]
name = "../escape.csv"
url = "https://example.com/x.csv"
`), ShouldBeNil)
			_, err := parseConfig(tmpdir)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("download works", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()
		csv := "user_id,group,landing_page,converted\nu1,control,old_page,0\n"
		server.ResponseBody = []string{csv}
		ctx := fetch.UseClient(context.Background(), server.Client())
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Warning))

		cacheDir := filepath.Join(tmpdir, "cache")
		So(os.MkdirAll(cacheDir, 0755), ShouldBeNil)
		So(testutil.WriteFile(filepath.Join(cacheDir, "config.toml"),
			fmt.Sprintf(`
[[sources]]
name = "ab_data.csv"
url = "%s/ab_data.csv"
`, server.URL())), ShouldBeNil)

		flags := &Flags{CacheDir: cacheDir, LogLevel: logging.Warning}
		So(download(ctx, flags), ShouldBeNil)
		data, err := os.ReadFile(filepath.Join(cacheDir, "ab_data.csv"))
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, csv)
	})
}
