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

// Package plot defines JSON-serializable chart data for the analysis
// results: the simulated null distribution histogram, the observed rate
// difference marker, and the daily conversion rate series. The JSON payload
// is rendered by an external viewer.
package plot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/stockparfait/errors"

	"github.com/splitsig/splitsig/abtest"
	"github.com/splitsig/splitsig/stats"
)

// Kind is an enum of plot kinds: daily time series and arbitrary (x, y)
// plots such as histograms or markers.
type Kind int

// Values of Kind.
const (
	KindSeries Kind = iota
	KindXY
	KindLast // to check for invalid kinds
)

var _ json.Marshaler = KindSeries

func (k Kind) String() string {
	switch k {
	case KindSeries:
		return "KindSeries"
	case KindXY:
		return "KindXY"
	default:
		return fmt.Sprintf("<Undefined Kind: %d>", k)
	}
}

// MarshalJSON implements json.Marshaler.
func (k Kind) MarshalJSON() ([]byte, error) {
	if k >= KindLast {
		return nil, errors.Reason("invalid kind: %s", k)
	}
	return []byte(`"` + k.String() + `"`), nil
}

// ChartType is an enum of different ways to plot data.
type ChartType int

// Values of ChartType.
const (
	ChartLine    ChartType = iota
	ChartDashed            // dashed connected line
	ChartScatter           // individual dots
	ChartBars              // histogram bars for each X
	ChartLast              // to check for invalid chart types
)

var _ json.Marshaler = ChartLine

func (c ChartType) String() string {
	switch c {
	case ChartLine:
		return "ChartLine"
	case ChartDashed:
		return "ChartDashed"
	case ChartScatter:
		return "ChartScatter"
	case ChartBars:
		return "ChartBars"
	default:
		return fmt.Sprintf("<Undefined ChartType: %d>", c)
	}
}

// MarshalJSON implements json.Marshaler.
func (c ChartType) MarshalJSON() ([]byte, error) {
	if c >= ChartLast {
		return nil, errors.Reason("invalid chart type: %s", c)
	}
	return []byte(`"` + c.String() + `"`), nil
}

// Plot holds data and configuration of a single plot.
type Plot struct {
	Kind      Kind
	X         []float64   `json:"X,omitempty"`    // when Kind = KindXY
	Days      []time.Time `json:"Days,omitempty"` // when Kind = KindSeries
	Y         []float64
	YLabel    string // value label on the Y axis
	Legend    string // name in the legend
	ChartType ChartType
}

// NewXYPlot creates an untimed plot. Panics if the slices x and y don't have
// the same length.
func NewXYPlot(x, y []float64) *Plot {
	if len(x) != len(y) {
		panic(errors.Reason("len(x)=%d != len(y)=%d", len(x), len(y)))
	}
	return &Plot{
		Kind:   KindXY,
		X:      x,
		Y:      y,
		YLabel: "values",
		Legend: "Unnamed",
	}
}

// NewDayPlot creates a daily time series plot. Panics if the slices don't
// have the same length.
func NewDayPlot(days []time.Time, y []float64) *Plot {
	if len(days) != len(y) {
		panic(errors.Reason("len(days)=%d != len(y)=%d", len(days), len(y)))
	}
	return &Plot{
		Kind:   KindSeries,
		Days:   days,
		Y:      y,
		YLabel: "rate",
		Legend: "Unnamed",
	}
}

// NewHistogramPlot plots the histogram's PDF as bars at the bucket midpoints.
func NewHistogramPlot(h *stats.Histogram) *Plot {
	return NewXYPlot(h.Buckets().Xs(0.5), h.PDFs()).
		SetYLabel("density").
		SetChartType(ChartBars)
}

// NewMarkerPlot plots a vertical marker at x, for highlighting the observed
// value against a distribution.
func NewMarkerPlot(x, height float64) *Plot {
	return NewXYPlot([]float64{x, x}, []float64{0.0, height}).
		SetChartType(ChartDashed)
}

// NewDailyRatePlots converts the per-day rates into two series plots, old
// page first.
func NewDailyRatePlots(daily []abtest.DayRate) (oldPage, newPage *Plot) {
	days := make([]time.Time, len(daily))
	oldRates := make([]float64, len(daily))
	newRates := make([]float64, len(daily))
	for i, d := range daily {
		days[i] = d.Day
		oldRates[i] = d.OldRate
		newRates[i] = d.NewRate
	}
	oldPage = NewDayPlot(days, oldRates).
		SetLegend("old page").SetChartType(ChartScatter)
	newPage = NewDayPlot(days, newRates).
		SetLegend("new page").SetChartType(ChartScatter)
	return
}

// Size returns the number of points in the plot.
func (p *Plot) Size() int { return len(p.Y) }

// SetYLabel of the plot, used as the value label on the Y axis.
func (p *Plot) SetYLabel(label string) *Plot {
	p.YLabel = label
	return p
}

// SetLegend of the plot, used as the plot's name in the legend.
func (p *Plot) SetLegend(legend string) *Plot {
	p.Legend = legend
	return p
}

// SetChartType - how to plot the data.
func (p *Plot) SetChartType(t ChartType) *Plot {
	p.ChartType = t
	return p
}

// Graph is a single chart displaying one or more plots of the same Kind.
type Graph struct {
	Kind   Kind
	ID     string `json:"-"` // unique identifier within a Canvas
	Title  string // user visible graph title; defaults to ID
	XLabel string // label on the X axis
	Plots  []*Plot
}

// NewGraph creates an empty Graph.
func NewGraph(kind Kind, id string) *Graph {
	return &Graph{
		Kind:   kind,
		ID:     id,
		Title:  id,
		XLabel: "value",
	}
}

// SetTitle of the graph.
func (g *Graph) SetTitle(t string) *Graph {
	g.Title = t
	return g
}

// SetXLabel of the graph.
func (g *Graph) SetXLabel(l string) *Graph {
	g.XLabel = l
	return g
}

// AddPlot to the graph. It's an error if the plot and the Graph have
// different Kinds.
func (g *Graph) AddPlot(p *Plot) error {
	if p.Kind != g.Kind {
		return errors.Reason("plot's kind [%s] != graph's kind [%s]",
			p.Kind, g.Kind)
	}
	g.Plots = append(g.Plots, p)
	return nil
}

// Canvas is the master collection of all the graphs to be exported.
type Canvas struct {
	Graphs   []*Graph          // to preserve the order
	graphMap map[string]*Graph // for quick reference by ID
}

// NewCanvas creates an empty Canvas.
func NewCanvas() *Canvas {
	return &Canvas{graphMap: make(map[string]*Graph)}
}

// AddGraph to the Canvas. Graph IDs must be unique.
func (c *Canvas) AddGraph(graph *Graph) error {
	if _, ok := c.graphMap[graph.ID]; ok {
		return errors.Reason("graph %s already exists in Canvas", graph.ID)
	}
	c.Graphs = append(c.Graphs, graph)
	c.graphMap[graph.ID] = graph
	return nil
}

// GetGraph by ID, if it exists, otherwise nil.
func (c *Canvas) GetGraph(id string) *Graph {
	g, ok := c.graphMap[id]
	if !ok {
		return nil
	}
	return g
}

// EnsureGraph returns the graph by ID, creating it as necessary. It's an
// error if an existing graph has a different Kind.
func (c *Canvas) EnsureGraph(kind Kind, id string) (*Graph, error) {
	if graph, ok := c.graphMap[id]; ok {
		if graph.Kind != kind {
			return nil, errors.Reason("graph %s has kind %s != required kind %s",
				id, graph.Kind, kind)
		}
		return graph, nil
	}
	graph := NewGraph(kind, id)
	if err := c.AddGraph(graph); err != nil {
		return nil, errors.Annotate(err, "cannot ensure graph %s", id)
	}
	return graph, nil
}

// WriteJSON writes the entire Canvas to w as JSON.
func (c *Canvas) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(c); err != nil {
		return errors.Annotate(err, "failed to encode JSON")
	}
	return nil
}

// WriteJS writes "var DATA = <JSON>;" string to w, suitable for importing as
// a javascript module.
func (c *Canvas) WriteJS(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "var DATA = "); err != nil {
		return errors.Annotate(err, "failed to write JS prefix")
	}
	if err := c.WriteJSON(w); err != nil {
		return errors.Annotate(err, "failed to write JSON part of JS")
	}
	if _, err := fmt.Fprintf(w, ";"); err != nil {
		return errors.Annotate(err, "failed to write JS suffix")
	}
	return nil
}

type contextKey int

const (
	canvasContextKey contextKey = iota
)

// Use injects the Canvas into the context.
func Use(ctx context.Context, c *Canvas) context.Context {
	return context.WithValue(ctx, canvasContextKey, c)
}

// Get a Canvas instance from the context, or nil if not present.
func Get(ctx context.Context) *Canvas {
	c, ok := ctx.Value(canvasContextKey).(*Canvas)
	if !ok {
		return nil
	}
	return c
}

// EnsureGraph in the Canvas in context. It's an error if Canvas is not in
// context.
func EnsureGraph(ctx context.Context, kind Kind, id string) (*Graph, error) {
	c := Get(ctx)
	if c == nil {
		return nil, errors.Reason("no Canvas in context")
	}
	return c.EnsureGraph(kind, id)
}

// Add a plot to the graph by ID in the Canvas in context. The graph must
// exist in the Canvas.
func Add(ctx context.Context, p *Plot, graphID string) error {
	c := Get(ctx)
	if c == nil {
		return errors.Reason("no Canvas in context")
	}
	graph := c.GetGraph(graphID)
	if graph == nil {
		return errors.Reason("no such graph in Canvas: %s", graphID)
	}
	if err := graph.AddPlot(p); err != nil {
		return errors.Annotate(err, "failed to add plot %s to Canvas", p.Legend)
	}
	return nil
}

// WriteJSON writes the Canvas in context to w. It's an error if Canvas is
// not in context.
func WriteJSON(ctx context.Context, w io.Writer) error {
	c := Get(ctx)
	if c == nil {
		return errors.Reason("no Canvas in context")
	}
	return c.WriteJSON(w)
}
