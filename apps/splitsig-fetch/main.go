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

// Command splitsig-fetch downloads the experiment CSV files named in the
// TOML config into a local cache directory, so repeated analysis runs don't
// hit the network.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"

	toml "github.com/pelletier/go-toml/v2"
)

type Flags struct {
	CacheDir string // default: ~/.splitsig
	LogLevel logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("splitsig-fetch", flag.ExitOnError)
	fs.StringVar(&flags.CacheDir, "cache",
		filepath.Join(os.Getenv("HOME"), ".splitsig"),
		"cache directory with config.toml")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	return &flags, err
}

// Source is a single named CSV download.
type Source struct {
	Name string `toml:"name"` // local file name, e.g. "ab_data.csv"
	URL  string `toml:"url"`
}

type Config struct {
	Sources []Source `toml:"sources"`
}

func parseConfig(cacheDir string) (*Config, error) {
	filePath := filepath.Join(cacheDir, "config.toml")
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			sample := `[[sources]]
name = "ab_data.csv"
url = "https://example.com/ab_data.csv"
`
			err = errors.Annotate(err,
				"config file '%s' does not exist.\nPlease create config file containing:\n%s",
				filePath, sample)
			return nil, err
		} else {
			return nil, errors.Annotate(err,
				"cannot check config file for existence: '%s'", filePath)
		}
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	var c Config
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", filePath)
	}
	for i, s := range c.Sources {
		if s.Name == "" || s.URL == "" {
			return nil, errors.Reason(
				"source %d must have both 'name' and 'url'", i)
		}
		if s.Name != filepath.Base(s.Name) {
			return nil, errors.Reason(
				"source name '%s' must be a plain file name", s.Name)
		}
	}
	return &c, nil
}

// fetchSource downloads one source into the cache directory.
func fetchSource(ctx context.Context, cacheDir string, s Source) error {
	resp, err := fetch.GetRetry(ctx, s.URL, nil, nil)
	if err != nil {
		return errors.Annotate(err, "failed to fetch '%s'", s.URL)
	}
	defer resp.Body.Close()

	path := filepath.Join(cacheDir, s.Name)
	f, err := os.Create(path)
	if err != nil {
		return errors.Annotate(err, "failed to create '%s'", path)
	}
	defer f.Close()
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return errors.Annotate(err, "failed to write '%s'", path)
	}
	logging.Infof(ctx, "downloaded %s: %d bytes", s.Name, n)
	return nil
}

func download(ctx context.Context, flags *Flags) error {
	config, err := parseConfig(flags.CacheDir)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	if len(config.Sources) == 0 {
		logging.Warningf(ctx, "no sources configured, nothing to do")
		return nil
	}
	for _, s := range config.Sources {
		if err := fetchSource(ctx, flags.CacheDir, s); err != nil {
			return errors.Annotate(err, "failed to download '%s'", s.Name)
		}
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := download(ctx, flags); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
