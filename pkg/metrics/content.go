package metrics

import (
	"strings"

	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/textutil"
	"github.com/codeGROOVE-dev/leadscope/pkg/validate"
)

// Content holds caption, tag and annotation metrics.
type Content struct {
	TotalHashtags            *int     `json:"totalHashtags"`
	UniqueHashtags           *int     `json:"uniqueHashtags"`
	AvgHashtagsPerPost       *float64 `json:"avgHashtagsPerPost"`
	TotalMentions            *int     `json:"totalMentions"`
	UniqueMentions           *int     `json:"uniqueMentions"`
	AvgMentionsPerPost       *float64 `json:"avgMentionsPerPost"`
	AvgCaptionLength         *float64 `json:"avgCaptionLength"`
	AvgCaptionLengthNonEmpty *float64 `json:"avgCaptionLengthNonEmpty"`
	MaxCaptionLength         *int     `json:"maxCaptionLength"`
	PostsWithCaption         *int     `json:"postsWithCaption"`
	LocationRate             *float64 `json:"locationRate"`
	AltTextRate              *float64 `json:"altTextRate"`
	CommentsDisabledRate     *float64 `json:"commentsDisabledRate"`
	TotalTaggedUsers         *int     `json:"totalTaggedUsers"`
	UniqueTaggedUsers        *int     `json:"uniqueTaggedUsers"`
	TopHashtag               *string  `json:"topHashtag"`
	Reason                   *string  `json:"_reason"`
}

// Populated counts computed fields.
func (c *Content) Populated() int {
	return countSet(
		c.TotalHashtags != nil, c.UniqueHashtags != nil, c.AvgHashtagsPerPost != nil,
		c.TotalMentions != nil, c.UniqueMentions != nil, c.AvgMentionsPerPost != nil,
		c.AvgCaptionLength != nil, c.AvgCaptionLengthNonEmpty != nil,
		c.MaxCaptionLength != nil, c.PostsWithCaption != nil,
		c.LocationRate != nil, c.AltTextRate != nil, c.CommentsDisabledRate != nil,
		c.TotalTaggedUsers != nil, c.UniqueTaggedUsers != nil, c.TopHashtag != nil,
	)
}

// SkipReason returns why the group is null, or nil.
func (c *Content) SkipReason() *string { return c.Reason }

// PostHashtags returns the normalized hashtags of a post, parsed from the caption
// when the scraper sent no list.
func PostHashtags(p *snapshot.Post) []string {
	return textutil.NormalizeTags(p.Hashtags, p.Caption, textutil.CaptionHashtags)
}

// PostMentions returns the normalized mentions of a post.
func PostMentions(p *snapshot.Post) []string {
	return textutil.NormalizeTags(p.Mentions, p.Caption, textutil.CaptionMentions)
}

// CalculateContent computes caption and tagging metrics.
func CalculateContent(s *snapshot.Snapshot, f validate.Flags) *Content {
	n := len(s.LatestPosts)
	if !f.HasPosts || n == 0 {
		return &Content{Reason: str(ReasonNoPosts)}
	}

	hashtags := map[string]int{}
	mentions := map[string]bool{}
	tagged := map[string]bool{}
	var totalHashtags, totalMentions, totalTagged int
	var captionSum, captioned, maxCaption int
	var withLocation, withAlt, commentsOff int

	for i := range s.LatestPosts {
		p := &s.LatestPosts[i]
		for _, h := range PostHashtags(p) {
			hashtags[h]++
			totalHashtags++
		}
		for _, m := range PostMentions(p) {
			mentions[m] = true
			totalMentions++
		}
		for _, u := range p.TaggedUsers {
			if name := textutil.NormalizeTag(u.Username); name != "" {
				tagged[name] = true
				totalTagged++
			}
		}

		if l := textutil.RuneLen(strings.TrimSpace(p.Caption)); l > 0 {
			captionSum += l
			captioned++
			maxCaption = max(maxCaption, l)
		}
		if strings.TrimSpace(p.LocationName) != "" {
			withLocation++
		}
		if strings.TrimSpace(p.Alt) != "" {
			withAlt++
		}
		if p.IsCommentsDisabled {
			commentsOff++
		}
	}

	c := &Content{
		TotalHashtags:        intp(totalHashtags),
		UniqueHashtags:       intp(len(hashtags)),
		AvgHashtagsPerPost:   f64(round(float64(totalHashtags)/float64(n), 2)),
		TotalMentions:        intp(totalMentions),
		UniqueMentions:       intp(len(mentions)),
		AvgMentionsPerPost:   f64(round(float64(totalMentions)/float64(n), 2)),
		AvgCaptionLength:     f64(round(float64(captionSum)/float64(n), 1)),
		MaxCaptionLength:     intp(maxCaption),
		PostsWithCaption:     intp(captioned),
		LocationRate:         f64(percent(withLocation, n)),
		AltTextRate:          f64(percent(withAlt, n)),
		CommentsDisabledRate: f64(percent(commentsOff, n)),
		TotalTaggedUsers:     intp(totalTagged),
		UniqueTaggedUsers:    intp(len(tagged)),
	}
	if captioned > 0 {
		c.AvgCaptionLengthNonEmpty = f64(round(float64(captionSum)/float64(captioned), 1))
	}
	if top, ok := topTerm(hashtags); ok {
		c.TopHashtag = str(top)
	}
	return c
}

// topTerm returns the most frequent term; ties go to the alphabetically first.
func topTerm(counts map[string]int) (string, bool) {
	best, bestCount := "", 0
	for term, n := range counts {
		if n > bestCount || (n == bestCount && term < best) {
			best, bestCount = term, n
		}
	}
	return best, bestCount > 0
}
