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
	"context"

	"github.com/splitsig/splitsig/dataset"
	"github.com/splitsig/splitsig/message"
	"github.com/splitsig/splitsig/stats"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// SimConfig configures the Monte Carlo simulation of the null hypothesis.
type SimConfig struct {
	Iterations int    `json:"iterations" default:"10000"`
	Sidedness  string `json:"sidedness" choices:"one-sided,two-sided" default:"one-sided"`
	Seed       uint64 `json:"seed" default:"42"`
	Workers    int    `json:"workers" default:"1"`
	BatchSize  int    `json:"batch size" default:"1000"`
}

var _ message.Message = &SimConfig{}

// InitMessage implements message.Message.
func (c *SimConfig) InitMessage(js any) error {
	if err := message.Init(c, js); err != nil {
		return errors.Annotate(err, "failed to init SimConfig")
	}
	if c.Iterations <= 0 {
		return errors.Reason("iterations=%d must be positive", c.Iterations)
	}
	if c.Workers <= 0 {
		return errors.Reason("workers=%d must be positive", c.Workers)
	}
	if c.BatchSize <= 0 {
		return errors.Reason("batch size=%d must be positive", c.BatchSize)
	}
	return nil
}

// NewSimConfig creates a SimConfig with all the default values.
func NewSimConfig() *SimConfig {
	var c SimConfig
	if err := c.InitMessage(map[string]any{}); err != nil {
		panic(errors.Annotate(err, "failed to init default SimConfig"))
	}
	return &c
}

// SimResult is the immutable outcome of one simulation run.
type SimResult struct {
	Diffs      []float64 // simulated treatment-control rate differences
	ActualDiff float64   // observed treatment rate - control rate
	PValue     float64
	PNull      float64 // the pooled rate used as the shared truth
	Iterations int
	Sidedness  string
}

// Histogram buckets the simulated differences for plotting.
func (r *SimResult) Histogram(nBuckets int) (*stats.Histogram, error) {
	b, err := stats.SampleBuckets(stats.NewSample(r.Diffs), nBuckets)
	if err != nil {
		return nil, errors.Annotate(err, "failed to bucket simulated differences")
	}
	h := stats.NewHistogram(b)
	h.Add(r.Diffs...)
	return h, nil
}

// batchSeed derives an independent per-batch seed from the master seed, so
// that the generated sequence depends only on the seed and the batch layout,
// never on the number of workers.
func batchSeed(seed uint64, batch int) uint64 {
	return seed + uint64(batch)*0x9e3779b97f4a7c15
}

// simBatch holds the simulated differences of one batch, tagged with its
// index for order-independent assembly.
type simBatch struct {
	index int
	diffs []float64
}

// Simulate estimates the probability of observing a treatment-control rate
// difference at least as extreme as the actual one, assuming both arms share
// the pooled conversion rate (the null hypothesis). For each iteration it
// draws synthetic success counts from Binomial(NNew, p0) and Binomial(NOld,
// p0) and records the simulated rate difference; the p-value is the fraction
// of simulated differences strictly exceeding the observed one (one-sided),
// or exceeding it in absolute value (two-sided).
//
// The draws are reproducible: the same seed, iteration count and inputs
// produce identical Diffs and PValue regardless of the worker count.
func Simulate(ctx context.Context, t *dataset.Table, c *SimConfig) (*SimResult, error) {
	if t == nil {
		return nil, errors.Annotate(dataset.ErrNoData, "cannot simulate")
	}
	if c == nil {
		c = NewSimConfig()
	}
	rates, err := Rates(t)
	if err != nil {
		return nil, errors.Annotate(err, "failed to extract rates")
	}
	sizes, err := Sizes(t)
	if err != nil {
		return nil, errors.Annotate(err, "failed to extract sample sizes")
	}
	if sizes.NNew == 0 || sizes.NOld == 0 {
		return nil, errors.Annotate(ErrInvalidSampleSizes,
			"n_new=%d, n_old=%d", sizes.NNew, sizes.NOld)
	}
	p0 := rates.Overall

	nBatches := (c.Iterations + c.BatchSize - 1) / c.BatchSize
	batches := make([]int, nBatches)
	for i := range batches {
		batches[i] = i
	}
	f := func(i int) simBatch {
		size := c.BatchSize
		if i == nBatches-1 {
			size = c.Iterations - i*c.BatchSize
		}
		src := rand.NewSource(batchSeed(c.Seed, i))
		binomNew := distuv.Binomial{N: float64(sizes.NNew), P: p0, Src: src}
		binomOld := distuv.Binomial{N: float64(sizes.NOld), P: p0, Src: src}
		diffs := make([]float64, size)
		for j := range diffs {
			diffs[j] = binomNew.Rand()/float64(sizes.NNew) -
				binomOld.Rand()/float64(sizes.NOld)
		}
		return simBatch{index: i, diffs: diffs}
	}
	pm := iterator.ParallelMap(ctx, c.Workers, iterator.FromSlice(batches), f)
	defer iterator.Flush(pm)
	diffs := iterator.Reduce[simBatch, []float64](pm,
		make([]float64, c.Iterations), func(b simBatch, acc []float64) []float64 {
			copy(acc[b.index*c.BatchSize:], b.diffs)
			return acc
		})

	actual := rates.Treatment - rates.Control
	sample := stats.NewSample(diffs)
	pValue := sample.FractionAbove(actual)
	if c.Sidedness == TwoSided {
		pValue = sample.FractionAbsAbove(actual)
	}
	return &SimResult{
		Diffs:      diffs,
		ActualDiff: actual,
		PValue:     pValue,
		PNull:      p0,
		Iterations: c.Iterations,
		Sidedness:  c.Sidedness,
	}, nil
}
