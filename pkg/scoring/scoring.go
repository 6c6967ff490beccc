// Package scoring turns metric groups into composite 0-100 scores and opportunity gaps.
package scoring

import (
	"math"

	"github.com/codeGROOVE-dev/leadscope/pkg/metrics"
)

// Scores are the composite scores. Every value is in [0,100] with one decimal.
type Scores struct {
	EngagementHealth      float64 `json:"engagementHealth"`
	ContentSophistication float64 `json:"contentSophistication"`
	AccountMaturity       float64 `json:"accountMaturity"`
	FakeFollowerRisk      float64 `json:"fakeFollowerRisk"`
	OpportunityScore      float64 `json:"opportunityScore"`
}

// Gaps flag areas where the account underperforms. Null metrics read as zero,
// so a profile without posts shows content and platform gaps.
type Gaps struct {
	EngagementGap bool `json:"engagementGap"`
	ContentGap    bool `json:"contentGap"`
	ConversionGap bool `json:"conversionGap"`
	PlatformGap   bool `json:"platformGap"`
}

// Gap thresholds.
const (
	LowEngagementRate       = 0.01
	EngagementGapFollowers  = 1_000
	MinFormatDiversity      = 2
	MinAvgCaptionLength     = 50
	ConversionGapFollowers  = 5_000
	MinReelsRate            = 20
	highlightCap            = 10
	highlightPoints         = 3
	profileCompletionPoints = 10
)

// Calculate computes scores and gaps. Null metrics read as zero; nothing here fails.
func Calculate(g metrics.Groups) (Scores, Gaps) {
	var s Scores
	s.EngagementHealth = engagementHealth(g.Engagement)
	s.ContentSophistication = contentSophistication(g.Content, g.Format)
	s.AccountMaturity = accountMaturity(g.Profile, g.Frequency)
	if g.Risk != nil {
		s.FakeFollowerRisk = score(orZero(g.Risk.FakeFollowerRisk))
	}
	s.OpportunityScore = score(0.30*s.EngagementHealth +
		0.25*s.ContentSophistication +
		0.25*s.AccountMaturity +
		0.20*(100-s.FakeFollowerRisk))
	return s, gaps(g)
}

func engagementHealth(e *metrics.Engagement) float64 {
	if e == nil {
		return 0
	}
	ratePct := orZero(e.EngagementRate) * 100
	return score(0.5*math.Min(100, ratePct*20) +
		0.3*orZero(e.EngagementConsistency) +
		0.2*math.Min(100, orZero(e.CommentToLikeRatio)*500))
}

func contentSophistication(c *metrics.Content, f *metrics.Format) float64 {
	var v float64
	if c != nil {
		v += 0.25*math.Min(100, orZero(c.AvgHashtagsPerPost)*10) +
			0.25*math.Min(100, orZero(c.AvgCaptionLength)/3) +
			0.25*orZero(c.LocationRate)
	}
	if f != nil {
		v += 0.25 * float64(intOrZero(f.FormatDiversity)*25)
	}
	return score(v)
}

func accountMaturity(p *metrics.Profile, fr *metrics.Frequency) float64 {
	var v float64
	if fr != nil {
		v += 0.4 * orZero(fr.PostingConsistency)
	}
	if p != nil {
		v += highlightPoints * float64(min(p.HighlightCount, highlightCap))
		v += profileCompletionPoints * (b2f(p.HasBio) + b2f(p.HasExternalLink) + b2f(p.IsBusinessAccount))
	}
	return score(v)
}

func gaps(g metrics.Groups) Gaps {
	var p metrics.Profile
	if g.Profile != nil {
		p = *g.Profile
	}
	var rate, reelsRate, captionLength float64
	var diversity int
	if g.Engagement != nil {
		rate = orZero(g.Engagement.EngagementRate)
	}
	if g.Format != nil {
		diversity = intOrZero(g.Format.FormatDiversity)
		reelsRate = orZero(g.Format.ReelsRate)
	}
	if g.Content != nil {
		captionLength = orZero(g.Content.AvgCaptionLength)
	}

	return Gaps{
		EngagementGap: rate < LowEngagementRate && p.FollowersCount > EngagementGapFollowers,
		ContentGap:    diversity < MinFormatDiversity || captionLength < MinAvgCaptionLength,
		ConversionGap: !p.HasExternalLink && (p.IsBusinessAccount || p.FollowersCount > ConversionGapFollowers),
		PlatformGap:   reelsRate < MinReelsRate,
	}
}

// score clamps to [0,100] and rounds to one decimal.
func score(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Round(math.Max(0, math.Min(100, v))*10) / 10
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
