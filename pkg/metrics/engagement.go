package metrics

import (
	"time"

	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/validate"
)

// Fresh posts are still accumulating engagement, so their per-post rate is
// divided by a weight below 1 before the consistency calculation.
const (
	freshPostAge    = 24 * time.Hour
	recentPostAge   = 7 * 24 * time.Hour
	freshPostWeight = 0.5
	recentWeight    = 0.8
	settledWeight   = 1.0
)

// Engagement holds like/comment metrics over the sampled posts.
type Engagement struct {
	PostsAnalyzed         *int     `json:"postsAnalyzed"`
	TotalLikes            *int64   `json:"totalLikes"`
	TotalComments         *int64   `json:"totalComments"`
	AvgLikes              *float64 `json:"avgLikes"`
	AvgComments           *float64 `json:"avgComments"`
	AvgEngagement         *float64 `json:"avgEngagement"`
	MedianEngagement      *float64 `json:"medianEngagement"`
	MaxEngagement         *int64   `json:"maxEngagement"`
	MinEngagement         *int64   `json:"minEngagement"`
	EngagementRate        *float64 `json:"engagementRate"` // fraction: 0.044 is 4.4%
	CommentToLikeRatio    *float64 `json:"commentToLikeRatio"`
	EngagementCV          *float64 `json:"engagementCV"`
	EngagementConsistency *float64 `json:"engagementConsistency"` // 0-100
	Reason                *string  `json:"_reason"`
}

// Populated counts computed fields.
func (e *Engagement) Populated() int {
	return countSet(
		e.PostsAnalyzed != nil, e.TotalLikes != nil, e.TotalComments != nil,
		e.AvgLikes != nil, e.AvgComments != nil, e.AvgEngagement != nil,
		e.MedianEngagement != nil, e.MaxEngagement != nil, e.MinEngagement != nil,
		e.EngagementRate != nil, e.CommentToLikeRatio != nil,
		e.EngagementCV != nil, e.EngagementConsistency != nil,
	)
}

// SkipReason returns why the group is null, or nil.
func (e *Engagement) SkipReason() *string { return e.Reason }

// NullFields names the fields left nil in computed engagement and why.
func (e *Engagement) NullFields() map[string]string {
	if e.Reason != nil {
		return nil
	}
	m := map[string]string{}
	if e.EngagementRate == nil {
		m["engagementRate"] = ReasonNoFollowers
	}
	if e.CommentToLikeRatio == nil {
		m["commentToLikeRatio"] = ReasonNoLikes
	}
	if e.EngagementCV == nil {
		m["engagementCV"] = ReasonNoVariation
		m["engagementConsistency"] = ReasonNoVariation
	}
	return nullable(m)
}

// postEngagement is likes + comments for each post that reports either.
// A missing half counts as zero.
func postEngagement(s *snapshot.Snapshot) (per []int64, likes, comments int64, analyzed []*snapshot.Post) {
	for i := range s.LatestPosts {
		p := &s.LatestPosts[i]
		if !p.HasEngagement() {
			continue
		}
		l, _ := p.Likes()
		c, _ := p.Comments()
		likes += l
		comments += c
		per = append(per, l+c)
		analyzed = append(analyzed, p)
	}
	return per, likes, comments, analyzed
}

// CalculateEngagement computes engagement metrics. ref is the reference time for post ages.
func CalculateEngagement(s *snapshot.Snapshot, f validate.Flags, ref time.Time) *Engagement {
	if !f.HasPosts {
		return &Engagement{Reason: str(ReasonNoPosts)}
	}
	if !f.HasEngagementData {
		return &Engagement{Reason: str(ReasonNoEngagement)}
	}

	per, likes, comments, posts := postEngagement(s)
	n := len(per)
	if n == 0 {
		return &Engagement{Reason: str(ReasonNoEngagement)}
	}

	values := make([]float64, n)
	lo, hi := per[0], per[0]
	for i, e := range per {
		values[i] = float64(e)
		lo = min(lo, e)
		hi = max(hi, e)
	}
	avg := mean(values)

	e := &Engagement{
		PostsAnalyzed:    intp(n),
		TotalLikes:       i64(likes),
		TotalComments:    i64(comments),
		AvgLikes:         f64(round(float64(likes)/float64(n), 2)),
		AvgComments:      f64(round(float64(comments)/float64(n), 2)),
		AvgEngagement:    f64(round(avg, 2)),
		MedianEngagement: f64(round(median(values), 2)),
		MaxEngagement:    i64(hi),
		MinEngagement:    i64(lo),
	}

	followers := float64(max(s.FollowersCount, 0))
	if followers > 0 {
		e.EngagementRate = f64(clamp(round(avg/followers, 6), 0, 1))
	}
	if likes > 0 {
		e.CommentToLikeRatio = f64(round(float64(comments)/float64(likes), 3))
	}

	if cv, ok := weightedCV(per, posts, followers, ref); ok {
		e.EngagementCV = f64(round(cv, 3))
		e.EngagementConsistency = f64(round(clamp(100/(1+cv), 0, 100), 1))
	}
	return e
}

// weightedCV is the coefficient of variation of age-weighted per-post rates.
// Without a follower count it falls back to raw engagement; CV is scale-free so
// the result is the same either way.
func weightedCV(per []int64, posts []*snapshot.Post, followers float64, ref time.Time) (float64, bool) {
	if len(per) < 2 {
		return 0, false
	}
	rates := make([]float64, len(per))
	for i, e := range per {
		r := float64(e)
		if followers > 0 {
			r /= followers
		}
		rates[i] = r / ageWeight(posts[i], ref)
	}
	m := mean(rates)
	if m <= 0 {
		return 0, false
	}
	return stdDev(rates) / m, true
}

func ageWeight(p *snapshot.Post, ref time.Time) float64 {
	t, ok := p.Timestamp.Time()
	if !ok {
		return settledWeight
	}
	switch age := ref.Sub(t); {
	case age < freshPostAge:
		return freshPostWeight
	case age < recentPostAge:
		return recentWeight
	default:
		return settledWeight
	}
}
