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

// Package stats implements the numeric primitives of the analyzer: samples of
// simulated rate differences, linear histograms for rendering null
// distributions, and standard normal helpers for the closed-form z-test.
package stats

import (
	"math"
)

// Sample stores an unordered set of float64 data points and computes various
// statistics over it. The typical use here is the set of simulated
// treatment-control rate differences drawn under the null hypothesis.
type Sample struct {
	data []float64
	sum  *float64 // cached sum of samples (for mean computation)
}

// NewSample creates a Sample around the provided slice. The slice is reused
// without copying; use Copy() to decouple the input from the Sample.
func NewSample(data []float64) *Sample {
	return &Sample{data: data}
}

// Data returns the sample data.
func (s *Sample) Data() []float64 { return s.data }

// Copy deep-copies the Sample, so the original slice can be safely modified.
func (s *Sample) Copy() *Sample {
	cp := make([]float64, len(s.data))
	copy(cp, s.data)
	return NewSample(cp)
}

// Sum of samples, cached.
func (s *Sample) Sum() float64 {
	if s.sum == nil {
		sum := 0.0
		for _, d := range s.data {
			sum += d
		}
		s.sum = &sum
	}
	return *s.sum
}

// Mean computes the mean of the Sample, cached.
func (s *Sample) Mean() float64 {
	if len(s.data) == 0 {
		return 0.0
	}
	return s.Sum() / float64(len(s.data))
}

// Variance of the Sample (sigma squared).
func (s *Sample) Variance() float64 {
	if len(s.data) == 0 {
		return 0.0
	}
	mean := s.Mean()
	v := 0.0
	for _, d := range s.data {
		v += (d - mean) * (d - mean)
	}
	return v / float64(len(s.data))
}

// Sigma computes the standard deviation of the Sample.
func (s *Sample) Sigma() float64 {
	return math.Sqrt(s.Variance())
}

// FractionAbove computes the fraction of data points strictly greater than x.
// This is the one-sided empirical p-value of x under the sample's
// distribution. Returns NaN for an empty sample.
func (s *Sample) FractionAbove(x float64) float64 {
	if len(s.data) == 0 {
		return math.NaN()
	}
	n := 0
	for _, d := range s.data {
		if d > x {
			n++
		}
	}
	return float64(n) / float64(len(s.data))
}

// FractionAbsAbove computes the fraction of data points whose absolute value
// is strictly greater than |x|, the two-sided analog of FractionAbove.
// Returns NaN for an empty sample.
func (s *Sample) FractionAbsAbove(x float64) float64 {
	if len(s.data) == 0 {
		return math.NaN()
	}
	abs := math.Abs(x)
	n := 0
	for _, d := range s.data {
		if math.Abs(d) > abs {
			n++
		}
	}
	return float64(n) / float64(len(s.data))
}
