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
	"sort"
	"time"

	"github.com/splitsig/splitsig/dataset"
	"github.com/stockparfait/errors"
)

// DayRate is the per-day conversion rate of each page variant. A rate is NaN
// when the variant saw no visits that day.
type DayRate struct {
	Day     time.Time // midnight UTC of the day
	OldRate float64
	NewRate float64
	NOld    int
	NNew    int
}

// Diff is the new-page rate minus the old-page rate for the day.
func (d DayRate) Diff() float64 { return d.NewRate - d.OldRate }

type dayCounts struct {
	oldVisits, oldConv, newVisits, newConv int
}

// DailyRates buckets the rows by calendar day (UTC) of their timestamp and
// computes the per-variant conversion rates, sorted by day. Rows without a
// timestamp are skipped.
func DailyRates(t *dataset.Table) ([]DayRate, error) {
	if t == nil {
		return nil, errors.Annotate(dataset.ErrNoData, "cannot compute daily rates")
	}
	counts := make(map[time.Time]*dayCounts)
	for _, r := range t.Rows() {
		if r.Timestamp.IsZero() {
			continue
		}
		day := r.Timestamp.UTC().Truncate(24 * time.Hour)
		c := counts[day]
		if c == nil {
			c = &dayCounts{}
			counts[day] = c
		}
		if r.Variant == dataset.NewPage {
			c.newVisits++
			c.newConv += r.Outcome
		} else {
			c.oldVisits++
			c.oldConv += r.Outcome
		}
	}
	res := make([]DayRate, 0, len(counts))
	for day, c := range counts {
		res = append(res, DayRate{
			Day:     day,
			OldRate: rate(c.oldConv, c.oldVisits),
			NewRate: rate(c.newConv, c.newVisits),
			NOld:    c.oldVisits,
			NNew:    c.newVisits,
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Day.Before(res[j].Day) })
	return res, nil
}

// WeekdayRates computes the overall conversion rate per day of the week, in
// time.Weekday order starting from Sunday. Days with no visits have a NaN
// rate. Rows without a timestamp are skipped.
func WeekdayRates(t *dataset.Table) ([7]float64, error) {
	var res [7]float64
	if t == nil {
		return res, errors.Annotate(dataset.ErrNoData, "cannot compute weekday rates")
	}
	var visits, conv [7]int
	for _, r := range t.Rows() {
		if r.Timestamp.IsZero() {
			continue
		}
		d := r.Timestamp.UTC().Weekday()
		visits[d]++
		conv[d] += r.Outcome
	}
	for i := range res {
		res[i] = rate(conv[i], visits[i])
	}
	return res, nil
}
