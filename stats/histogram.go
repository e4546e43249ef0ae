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

package stats

import (
	"github.com/stockparfait/errors"
)

// Buckets defines a linear bucketing of the [MinVal..MaxVal] interval into
// NumBuckets equal parts. Samples below MinVal land in the first bucket, and
// samples at or above MaxVal in the last one.
type Buckets struct {
	NumBuckets int
	MinVal     float64
	MaxVal     float64
}

// NewBuckets creates and validates a new Buckets value.
func NewBuckets(n int, minval, maxval float64) (*Buckets, error) {
	if n <= 0 {
		return nil, errors.Reason("n=%d must be > 0", n)
	}
	if minval >= maxval {
		return nil, errors.Reason("invalid interval: minval=%f >= maxval=%f",
			minval, maxval)
	}
	return &Buckets{NumBuckets: n, MinVal: minval, MaxVal: maxval}, nil
}

// SampleBuckets creates Buckets spanning the sample's data range. A degenerate
// (empty or constant) sample gets a unit interval around its value.
func SampleBuckets(s *Sample, n int) (*Buckets, error) {
	min, max := 0.0, 0.0
	for i, d := range s.Data() {
		if i == 0 || d < min {
			min = d
		}
		if i == 0 || d > max {
			max = d
		}
	}
	if min == max {
		min -= 0.5
		max += 0.5
	}
	return NewBuckets(n, min, max)
}

// Size of each (uniform) bucket.
func (b *Buckets) Size() float64 {
	return (b.MaxVal - b.MinVal) / float64(b.NumBuckets)
}

// X computes the representative value of the i'th bucket, adjusted by the
// relative shift amount: shift=0 is the lower bound, shift=1 the upper.
func (b *Buckets) X(i int, shift float64) float64 {
	return b.MinVal + (float64(i)+shift)*b.Size()
}

// Xs returns the representative values for all buckets at the given shift. It
// always returns a newly allocated slice, so it is safe to modify.
func (b *Buckets) Xs(shift float64) []float64 {
	res := make([]float64, b.NumBuckets)
	for i := range res {
		res[i] = b.X(i, shift)
	}
	return res
}

// Bucket computes the bucket index for a sample value.
func (b *Buckets) Bucket(x float64) int {
	if x < b.MinVal {
		return 0
	}
	i := int((x - b.MinVal) / b.Size())
	if i >= b.NumBuckets {
		i = b.NumBuckets - 1
	}
	return i
}

// Histogram stores sample counts for each bucket.
type Histogram struct {
	buckets *Buckets
	counts  []uint
	size    uint // total counts
}

// NewHistogram creates and initializes a Histogram. It panics if buckets is
// nil.
func NewHistogram(buckets *Buckets) *Histogram {
	if buckets == nil {
		panic(errors.Reason("buckets cannot be nil"))
	}
	return &Histogram{
		buckets: buckets,
		counts:  make([]uint, buckets.NumBuckets),
	}
}

// Buckets value of the Histogram.
func (h *Histogram) Buckets() *Buckets { return h.buckets }

// Counts of the Histogram.
func (h *Histogram) Counts() []uint { return h.counts }

// Size is the sum total of all counts.
func (h *Histogram) Size() uint { return h.size }

// Add samples to the Histogram.
func (h *Histogram) Add(xs ...float64) {
	for _, x := range xs {
		h.counts[h.buckets.Bucket(x)]++
	}
	h.size += uint(len(xs))
}

// PDF value at the i'th bucket. Returns 0.0 if i is out of range. It
// integrates to 1.0 with dx = h.Buckets().Size().
func (h *Histogram) PDF(i int) float64 {
	if i < 0 || i >= len(h.counts) || h.size == 0 {
		return 0.0
	}
	return float64(h.counts[i]) / float64(h.size) / h.buckets.Size()
}

// PDFs lists the PDF values for all buckets, suitable for plotting against
// Xs(0.5).
func (h *Histogram) PDFs() []float64 {
	res := make([]float64, len(h.counts))
	for i := range h.counts {
		res[i] = h.PDF(i)
	}
	return res
}

// CDF computes the fraction of samples in buckets entirely at or below x.
func (h *Histogram) CDF(x float64) float64 {
	if h.size == 0 {
		return 0.0
	}
	var acc uint
	for i := 0; i <= h.buckets.Bucket(x); i++ {
		if h.buckets.X(i, 1.0) > x {
			break
		}
		acc += h.counts[i]
	}
	return float64(acc) / float64(h.size)
}
