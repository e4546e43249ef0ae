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

// Command splitsig runs the full A/B test analysis over an experiment CSV:
// cleaning, summary statistics, the Monte Carlo simulation, the z-test and
// the verdict. Optionally exports chart data as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/splitsig/splitsig/abtest"
	"github.com/splitsig/splitsig/dataset"
	"github.com/splitsig/splitsig/message"
	"github.com/splitsig/splitsig/plot"
	"github.com/splitsig/splitsig/table"
)

// Config is the JSON configuration of the analysis run.
type Config struct {
	File       string                `json:"file"` // exactly one of file / URL
	URL        string                `json:"url"`
	Attributes string                `json:"attributes"` // optional subject attributes CSV
	Columns    *dataset.ColumnConfig `json:"columns"`    // nil: default candidates
	Simulation *abtest.SimConfig     `json:"simulation"` // nil: defaults
	Sidedness  string                `json:"sidedness" choices:"one-sided,two-sided" default:"one-sided"`
	Thresholds *abtest.Thresholds    `json:"thresholds"` // nil: defaults
	Buckets    int                   `json:"buckets" default:"200"`
}

var _ message.Message = &Config{}

// InitMessage implements message.Message.
func (c *Config) InitMessage(js any) error {
	if err := message.Init(c, js); err != nil {
		return errors.Annotate(err, "failed to init Config")
	}
	if (c.File == "") == (c.URL == "") {
		return errors.Reason("exactly one of 'file' or 'url' must be set")
	}
	if c.Buckets <= 0 {
		return errors.Reason("buckets=%d must be positive", c.Buckets)
	}
	if c.Columns == nil {
		c.Columns = dataset.NewColumnConfig()
	}
	if c.Simulation == nil {
		c.Simulation = abtest.NewSimConfig()
		c.Simulation.Sidedness = c.Sidedness
	}
	return nil
}

type Flags struct {
	LogLevel logging.Level
	Config   string // config file
	CSV      bool   // dump CSV format; default: text
	Plot     string // write chart data JSON to this file
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("splitsig", flag.ExitOnError)
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.StringVar(&flags.Config, "conf", "", "config file (required)")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")
	fs.StringVar(&flags.Plot, "plot", "", "write chart data JSON to this file")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.Config == "" {
		return nil, errors.Reason("missing required -conf argument")
	}
	return &flags, err
}

// loadTable reads, cleans and optionally annotates the experiment data.
func loadTable(ctx context.Context, config *Config) (*dataset.Table, error) {
	var raw []dataset.Row
	var err error
	if config.File != "" {
		raw, err = dataset.ReadCSVFile(config.File, config.Columns)
	} else {
		raw, err = dataset.ReadCSVURL(ctx, config.URL, config.Columns)
	}
	if err != nil {
		return nil, errors.Annotate(err, "failed to load experiment data")
	}
	tbl, diag, err := dataset.Clean(raw)
	if err != nil {
		return nil, errors.Annotate(err, "failed to clean experiment data")
	}
	logging.Infof(ctx, "cleaned dataset: %s", diag.String())

	if config.Attributes != "" {
		attrs, err := dataset.ReadAttrCSVFile(config.Attributes, config.Columns)
		if err != nil {
			return nil, errors.Annotate(err, "failed to load attributes")
		}
		tbl, err = tbl.MergeAttrs(attrs)
		if err != nil {
			return nil, errors.Annotate(err, "failed to merge attributes")
		}
		logging.Infof(ctx, "merged attributes %v: %d rows remain",
			attrs.Names, tbl.Len())
	}
	return tbl, nil
}

// addPlots populates the canvas with the null distribution histogram, the
// observed difference marker and the daily rate series.
func addPlots(canvas *plot.Canvas, config *Config, tbl *dataset.Table, sim *abtest.SimResult) error {
	h, err := sim.Histogram(config.Buckets)
	if err != nil {
		return errors.Annotate(err, "failed to compute histogram")
	}
	g, err := canvas.EnsureGraph(plot.KindXY, "null distribution")
	if err != nil {
		return errors.Annotate(err, "failed to create histogram graph")
	}
	g.SetTitle("Simulated null distribution").SetXLabel("rate difference")
	if err := g.AddPlot(plot.NewHistogramPlot(h).SetLegend("null")); err != nil {
		return errors.Annotate(err, "failed to add histogram plot")
	}
	maxPDF := 0.0
	for _, p := range h.PDFs() {
		if p > maxPDF {
			maxPDF = p
		}
	}
	marker := plot.NewMarkerPlot(sim.ActualDiff, maxPDF).SetLegend("observed")
	if err := g.AddPlot(marker); err != nil {
		return errors.Annotate(err, "failed to add marker plot")
	}

	daily, err := abtest.DailyRates(tbl)
	if err != nil {
		return errors.Annotate(err, "failed to compute daily rates")
	}
	if len(daily) == 0 {
		return nil
	}
	g, err = canvas.EnsureGraph(plot.KindSeries, "daily rates")
	if err != nil {
		return errors.Annotate(err, "failed to create daily rates graph")
	}
	g.SetTitle("Daily conversion rates").SetXLabel("day")
	oldPage, newPage := plot.NewDailyRatePlots(daily)
	if err := g.AddPlot(oldPage); err != nil {
		return errors.Annotate(err, "failed to add old page plot")
	}
	if err := g.AddPlot(newPage); err != nil {
		return errors.Annotate(err, "failed to add new page plot")
	}
	return nil
}

// analyze runs the full pipeline and prints the report and the verdict to w.
func analyze(ctx context.Context, flags *Flags, w io.Writer) error {
	var config Config
	if err := message.FromFile(&config, flags.Config); err != nil {
		return errors.Annotate(err, "failed to read config '%s'", flags.Config)
	}
	tbl, err := loadTable(ctx, &config)
	if err != nil {
		return errors.Annotate(err, "failed to load data")
	}
	summary, err := abtest.NewSummary(tbl)
	if err != nil {
		return errors.Annotate(err, "failed to summarize data")
	}
	sim, err := abtest.Simulate(ctx, tbl, config.Simulation)
	if err != nil {
		return errors.Annotate(err, "failed to run the simulation")
	}
	z, err := abtest.ZTest(tbl, config.Sidedness)
	if err != nil {
		return errors.Annotate(err, "failed to run the z-test")
	}
	report, err := abtest.NewReport(summary, sim, z)
	if err != nil {
		return errors.Annotate(err, "failed to create the report")
	}

	tb := report.Table()
	if flags.CSV {
		if err := tb.WriteCSV(w, table.Params{}); err != nil {
			return errors.Annotate(err, "failed to print CSV")
		}
	} else {
		if err := tb.WriteText(w, table.Params{}); err != nil {
			return errors.Annotate(err, "failed to print text")
		}
	}
	if _, err := fmt.Fprintf(w, "\n%s\n",
		abtest.Interpret(sim, z, config.Thresholds)); err != nil {
		return errors.Annotate(err, "failed to print the verdict")
	}

	if flags.Plot != "" {
		canvas := plot.NewCanvas()
		if err := addPlots(canvas, &config, tbl, sim); err != nil {
			return errors.Annotate(err, "failed to create plots")
		}
		f, err := os.Create(flags.Plot)
		if err != nil {
			return errors.Annotate(err, "failed to create plot file '%s'", flags.Plot)
		}
		defer f.Close()
		if err := canvas.WriteJSON(f); err != nil {
			return errors.Annotate(err, "failed to write plot file '%s'", flags.Plot)
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

	if err := analyze(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
