package metrics

import (
	"slices"
	"time"

	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/validate"
)

const day = 24 * time.Hour

// gapSpread is the gap standard deviation, in days, at which posting consistency halves.
const gapSpread = 5

// Frequency holds posting cadence metrics.
type Frequency struct {
	PostsWithTimestamps    *int     `json:"postsWithTimestamps"`
	FirstPostAt            *string  `json:"firstPostAt"`
	LastPostAt             *string  `json:"lastPostAt"`
	PostingPeriodDays      *float64 `json:"postingPeriodDays"`
	PostsPerWeek           *float64 `json:"postsPerWeek"`
	PostsPerMonth          *float64 `json:"postsPerMonth"`
	DaysSinceLastPost      *float64 `json:"daysSinceLastPost"`
	AvgDaysBetweenPosts    *float64 `json:"avgDaysBetweenPosts"`
	MedianDaysBetweenPosts *float64 `json:"medianDaysBetweenPosts"`
	MaxGapDays             *float64 `json:"maxGapDays"`
	PostingConsistency     *float64 `json:"postingConsistency"` // 0-100
	Reason                 *string  `json:"_reason"`
}

// Populated counts computed fields.
func (f *Frequency) Populated() int {
	return countSet(
		f.PostsWithTimestamps != nil, f.FirstPostAt != nil, f.LastPostAt != nil,
		f.PostingPeriodDays != nil, f.PostsPerWeek != nil, f.PostsPerMonth != nil,
		f.DaysSinceLastPost != nil, f.AvgDaysBetweenPosts != nil,
		f.MedianDaysBetweenPosts != nil, f.MaxGapDays != nil, f.PostingConsistency != nil,
	)
}

// SkipReason returns why the group is null, or nil.
func (f *Frequency) SkipReason() *string { return f.Reason }

// postTimes returns the parseable post timestamps in ascending order.
func postTimes(s *snapshot.Snapshot) []time.Time {
	var ts []time.Time
	for i := range s.LatestPosts {
		if t, ok := s.LatestPosts[i].Timestamp.Time(); ok {
			ts = append(ts, t.UTC())
		}
	}
	slices.SortFunc(ts, func(a, b time.Time) int { return a.Compare(b) })
	return ts
}

// CalculateFrequency computes posting cadence metrics.
func CalculateFrequency(s *snapshot.Snapshot, f validate.Flags, ref time.Time) *Frequency {
	if !f.HasPosts {
		return &Frequency{Reason: str(ReasonNoPosts)}
	}
	if !f.HasTimestamps {
		return &Frequency{Reason: str(ReasonNoTimestamps)}
	}
	ts := postTimes(s)
	n := len(ts)
	if n == 0 {
		return &Frequency{Reason: str(ReasonNoTimestamps)}
	}

	first, last := ts[0], ts[n-1]
	period := last.Sub(first).Hours() / 24
	fr := &Frequency{
		PostsWithTimestamps: intp(n),
		FirstPostAt:         str(first.Format(time.RFC3339)),
		LastPostAt:          str(last.Format(time.RFC3339)),
		PostingPeriodDays:   f64(round(period, 2)),
		DaysSinceLastPost:   f64(round(max(ref.Sub(last).Hours()/24, 0), 1)),
	}
	if n >= 2 && period > 0 {
		fr.PostsPerWeek = f64(round(float64(n)/period*7, 2))
		fr.PostsPerMonth = f64(round(float64(n)/period*30, 2))
	}

	gaps := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		gaps = append(gaps, float64(ts[i].Sub(ts[i-1]))/float64(day))
	}
	if len(gaps) >= 1 {
		fr.AvgDaysBetweenPosts = f64(round(mean(gaps), 2))
		fr.MedianDaysBetweenPosts = f64(round(median(gaps), 2))
		fr.MaxGapDays = f64(round(slices.Max(gaps), 2))
	}
	if len(gaps) >= 2 {
		fr.PostingConsistency = f64(round(clamp(100/(1+stdDev(gaps)/gapSpread), 0, 100), 1))
	}
	return fr
}
