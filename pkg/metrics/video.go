package metrics

import (
	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/validate"
)

// Video holds view metrics over posts that report views.
type Video struct {
	VideosAnalyzed   *int     `json:"videosAnalyzed"`
	TotalViews       *int64   `json:"totalViews"`
	AvgViews         *float64 `json:"avgViews"`
	MaxViews         *int64   `json:"maxViews"`
	ViewToLikeRatio  *float64 `json:"viewToLikeRatio"`
	ViewsPerFollower *float64 `json:"viewsPerFollower"`
	Reason           *string  `json:"_reason"`
}

// Populated counts computed fields.
func (v *Video) Populated() int {
	return countSet(
		v.VideosAnalyzed != nil, v.TotalViews != nil, v.AvgViews != nil,
		v.MaxViews != nil, v.ViewToLikeRatio != nil, v.ViewsPerFollower != nil,
	)
}

// SkipReason returns why the group is null, or nil.
func (v *Video) SkipReason() *string { return v.Reason }

// CalculateVideo computes view metrics. Missing view data yields a null group, never zeros.
func CalculateVideo(s *snapshot.Snapshot, f validate.Flags) *Video {
	if !f.HasPosts {
		return &Video{Reason: str(ReasonNoPosts)}
	}
	if !f.HasVideoData {
		return &Video{Reason: str(ReasonNoVideo)}
	}

	var n int
	var total, peak, likes int64
	for i := range s.LatestPosts {
		p := &s.LatestPosts[i]
		views, ok := p.Views()
		if !ok {
			continue
		}
		n++
		total += views
		peak = max(peak, views)
		if l, ok := p.Likes(); ok {
			likes += l
		}
	}
	if n == 0 {
		return &Video{Reason: str(ReasonNoVideo)}
	}

	avg := float64(total) / float64(n)
	v := &Video{
		VideosAnalyzed: intp(n),
		TotalViews:     i64(total),
		AvgViews:       f64(round(avg, 2)),
		MaxViews:       i64(peak),
	}
	// avg views / avg likes over the same posts reduces to total / total.
	if likes > 0 {
		v.ViewToLikeRatio = f64(round(float64(total)/float64(likes), 2))
	}
	if s.FollowersCount > 0 {
		v.ViewsPerFollower = f64(round(avg/float64(s.FollowersCount), 3))
	}
	return v
}
