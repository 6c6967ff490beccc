package metrics

import (
	"strings"

	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/validate"
)

// Post formats.
const (
	FormatReels    = "reels"
	FormatVideo    = "video"
	FormatImage    = "image"
	FormatCarousel = "carousel"
	FormatMixed    = "mixed"
)

// dominantShare is the share of the sample, in percent, a format must exceed to dominate.
const dominantShare = 50

// Format holds the content format mix.
type Format struct {
	TotalPosts      *int     `json:"totalPosts"`
	ReelsCount      *int     `json:"reelsCount"`
	VideoCount      *int     `json:"videoCount"`
	ImageCount      *int     `json:"imageCount"`
	CarouselCount   *int     `json:"carouselCount"`
	ReelsRate       *float64 `json:"reelsRate"`
	VideoRate       *float64 `json:"videoRate"`
	ImageRate       *float64 `json:"imageRate"`
	CarouselRate    *float64 `json:"carouselRate"`
	FormatDiversity *int     `json:"formatDiversity"`
	DominantFormat  *string  `json:"dominantFormat"`
	VideoTotalRate  *float64 `json:"videoTotalRate"`
	Reason          *string  `json:"_reason"`
}

// Populated counts computed fields.
func (f *Format) Populated() int {
	return countSet(
		f.TotalPosts != nil, f.ReelsCount != nil, f.VideoCount != nil,
		f.ImageCount != nil, f.CarouselCount != nil, f.ReelsRate != nil,
		f.VideoRate != nil, f.ImageRate != nil, f.CarouselRate != nil,
		f.FormatDiversity != nil, f.DominantFormat != nil, f.VideoTotalRate != nil,
	)
}

// SkipReason returns why the group is null, or nil.
func (f *Format) SkipReason() *string { return f.Reason }

// Classify returns the format of a post. Reels are never also counted as video.
func Classify(p *snapshot.Post) string {
	typ := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p.Type), "Graph"))
	switch typ {
	case "sidecar", "carousel":
		return FormatCarousel
	case "reel", "clips":
		return FormatReels
	case "video":
		if strings.EqualFold(strings.TrimSpace(p.ProductType), "clips") {
			return FormatReels
		}
		return FormatVideo
	default:
		return FormatImage
	}
}

// CalculateFormat computes the format mix of the sample.
func CalculateFormat(s *snapshot.Snapshot, f validate.Flags) *Format {
	n := len(s.LatestPosts)
	if !f.HasPosts || n == 0 {
		return &Format{Reason: str(ReasonNoPosts)}
	}

	counts := map[string]int{}
	for i := range s.LatestPosts {
		counts[Classify(&s.LatestPosts[i])]++
	}

	// Fixed order so ties resolve the same way every run.
	order := []string{FormatReels, FormatVideo, FormatImage, FormatCarousel}
	diversity := 0
	top, topCount := "", 0
	for _, k := range order {
		if counts[k] > 0 {
			diversity++
		}
		if counts[k] > topCount {
			top, topCount = k, counts[k]
		}
	}

	fm := &Format{
		TotalPosts:      intp(n),
		ReelsCount:      intp(counts[FormatReels]),
		VideoCount:      intp(counts[FormatVideo]),
		ImageCount:      intp(counts[FormatImage]),
		CarouselCount:   intp(counts[FormatCarousel]),
		ReelsRate:       f64(percent(counts[FormatReels], n)),
		VideoRate:       f64(percent(counts[FormatVideo], n)),
		ImageRate:       f64(percent(counts[FormatImage], n)),
		CarouselRate:    f64(percent(counts[FormatCarousel], n)),
		FormatDiversity: intp(diversity),
		VideoTotalRate:  f64(percent(counts[FormatReels]+counts[FormatVideo], n)),
	}
	switch {
	case float64(topCount)/float64(n)*100 > dominantShare:
		fm.DominantFormat = str(top)
	case diversity >= 2:
		fm.DominantFormat = str(FormatMixed)
	}
	return fm
}
