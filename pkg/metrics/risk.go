package metrics

import (
	"fmt"

	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/validate"
)

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// viralMultiple is how far above the sample average a post must land to count as viral.
const viralMultiple = 2

// Risk holds the fake-follower heuristic and derived account ratios.
// FakeFollowerRisk is an indicator for manual review, not proof of fraud.
type Risk struct {
	FakeFollowerRisk          *float64 `json:"fakeFollowerRisk"` // 0-100
	RiskLevel                 *string  `json:"riskLevel"`
	ExpectedMinEngagementRate *float64 `json:"expectedMinEngagementRate"`
	FollowersPerPost          *float64 `json:"followersPerPost"`
	ContentDensity            *float64 `json:"contentDensity"`
	ViralPostCount            *int     `json:"viralPostCount"`
	ViralPostRate             *float64 `json:"viralPostRate"`
	// Deprecated: ViralPostRateOfTotal divides a sample count by the lifetime post
	// count. Use ViralPostRate.
	ViralPostRateOfTotal *float64 `json:"viralPostRateOfTotal"`
	SampleSize           *int     `json:"sampleSize"`
	Reason               *string  `json:"_reason"`
	RiskFactors          []string `json:"riskFactors"`
}

// Populated counts computed fields. RiskFactors counts once the risk itself was scored,
// even when no factor fired.
func (r *Risk) Populated() int {
	factorsScored := r.FakeFollowerRisk != nil && r.RiskFactors != nil
	return countSet(
		r.FakeFollowerRisk != nil, r.RiskLevel != nil, factorsScored,
		r.ExpectedMinEngagementRate != nil, r.FollowersPerPost != nil, r.ContentDensity != nil,
		r.ViralPostCount != nil, r.ViralPostRate != nil, r.ViralPostRateOfTotal != nil,
		r.SampleSize != nil,
	)
}

// SkipReason returns why the group is null, or nil. A risk group can carry a
// reason while its derived ratios are still set.
func (r *Risk) SkipReason() *string { return r.Reason }

// NullFields names derived ratios left nil and why. The risk score fields are
// covered by Reason.
func (r *Risk) NullFields() map[string]string {
	if r.SampleSize == nil {
		return nil
	}
	m := map[string]string{}
	if r.FollowersPerPost == nil {
		m["followersPerPost"] = ReasonNoPostCount
	}
	if r.ContentDensity == nil {
		m["contentDensity"] = ReasonNoFollowers
	}
	if r.ViralPostCount != nil && r.ViralPostRateOfTotal == nil {
		m["viralPostRateOfTotal"] = ReasonNoPostCount
	}
	return nullable(m)
}

// ExpectedMinEngagementRate is the lowest healthy engagement rate, as a fraction,
// for an account of the given size. Larger audiences engage proportionally less.
func ExpectedMinEngagementRate(followers int64) float64 {
	switch {
	case followers < 10_000:
		return 0.03
	case followers < 50_000:
		return 0.02
	case followers < 500_000:
		return 0.015
	default:
		return 0.01
	}
}

// followersPerPostLimit is the plausible ceiling of followers per lifetime post.
func followersPerPostLimit(followers int64) float64 {
	switch {
	case followers < 10_000:
		return 200
	case followers < 100_000:
		return 1_000
	default:
		return 5_000
	}
}

// Level maps a 0-100 risk score to a level.
func Level(score float64) string {
	switch {
	case score < 30:
		return RiskLow
	case score < 60:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// CalculateRisk computes the fake-follower risk and derived ratios.
// It reads the already computed profile and engagement groups; either may be nil.
func CalculateRisk(s *snapshot.Snapshot, f validate.Flags, p *Profile, e *Engagement) *Risk {
	if !f.HasPosts || len(s.LatestPosts) == 0 {
		return &Risk{Reason: str(ReasonNoPosts), RiskFactors: []string{}}
	}

	followers := max(s.FollowersCount, 0)
	posts := max(s.PostsCount, 0)
	expected := ExpectedMinEngagementRate(followers)
	r := &Risk{
		ExpectedMinEngagementRate: f64(expected),
		SampleSize:                intp(len(s.LatestPosts)),
		RiskFactors:               []string{},
	}
	if posts > 0 {
		r.FollowersPerPost = f64(round(float64(followers)/float64(posts), 1))
	}
	if followers > 0 {
		r.ContentDensity = f64(round(float64(posts)/float64(followers)*1000, 2))
	}

	if e == nil || e.Reason != nil {
		r.Reason = str(ReasonNoEngagement)
		return r
	}

	viral, analyzed := viralPosts(s)
	r.ViralPostCount = intp(viral)
	if analyzed > 0 {
		r.ViralPostRate = f64(round(float64(viral)/float64(analyzed)*100, 1))
	}
	if posts > 0 {
		r.ViralPostRateOfTotal = f64(round(float64(viral)/float64(posts)*100, 2))
	}

	if e.EngagementRate == nil {
		r.Reason = str(ReasonNoFollowers)
		return r
	}
	score, factors := fakeFollowerScore(followers, posts, *e.EngagementRate, expected, p, e)
	r.FakeFollowerRisk = f64(score)
	r.RiskLevel = str(Level(score))
	r.RiskFactors = factors
	return r
}

// fakeFollowerScore sums four independently capped factors.
func fakeFollowerScore(followers, posts int64, rate, expected float64, p *Profile, e *Engagement) (float64, []string) {
	var score float64
	factors := []string{}
	add := func(points float64, format string, args ...any) {
		score += points
		factors = append(factors, fmt.Sprintf(format, args...))
	}

	// Engagement well under what an account this size should see.
	switch ratio := rate / expected; {
	case ratio < 0.25:
		add(35, "engagement rate %.2f%% is under a quarter of the %.1f%% expected at this size", rate*100, expected*100)
	case ratio < 0.5:
		add(25, "engagement rate %.2f%% is under half of the %.1f%% expected at this size", rate*100, expected*100)
	case ratio < 1:
		add(10, "engagement rate %.2f%% is below the %.1f%% expected at this size", rate*100, expected*100)
	}

	// Follows more accounts than follow it back.
	if p != nil && p.AuthorityRatio != nil {
		switch a := *p.AuthorityRatio; {
		case a < 0.2:
			add(25, "follows %.1fx more accounts than follow it", 1/max(a, 0.01))
		case a < 0.5:
			add(15, "follower/following ratio %.2f is low", a)
		case a < 1:
			add(8, "follows more accounts than follow it (ratio %.2f)", a)
		}
	}

	// Large audience built on very few posts.
	if posts > 0 {
		fpp := float64(followers) / float64(posts)
		limit := followersPerPostLimit(followers)
		switch {
		case fpp > 5*limit:
			add(20, "%.0f followers per post is far above the %.0f plausible for this size", fpp, limit)
		case fpp > limit:
			add(10, "%.0f followers per post is above the %.0f plausible for this size", fpp, limit)
		}
	}

	// Engagement too uniform for its level, or wildly volatile.
	if e.EngagementConsistency != nil {
		c := *e.EngagementConsistency
		switch {
		case c >= 85 && rate < 0.5*expected:
			add(20, "engagement is suspiciously uniform (consistency %.1f) at a low rate", c)
		case c < 20:
			add(10, "engagement is extremely volatile (consistency %.1f)", c)
		}
	}

	return round(clamp(score, 0, 100), 1), factors
}

// viralPosts counts analysed posts with engagement at least twice the sample average.
func viralPosts(s *snapshot.Snapshot) (viral, analyzed int) {
	per, _, _, _ := postEngagement(s)
	if len(per) == 0 {
		return 0, 0
	}
	values := make([]float64, len(per))
	for i, v := range per {
		values[i] = float64(v)
	}
	avg := mean(values)
	if avg <= 0 {
		return 0, len(per)
	}
	for _, v := range values {
		if v >= viralMultiple*avg {
			viral++
		}
	}
	return viral, len(per)
}
