package metrics

import (
	"math"
	"strings"

	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/textutil"
	"github.com/codeGROOVE-dev/leadscope/pkg/validate"
)

// PerfectAuthorityMinFollowers is the audience an account that follows nobody needs
// before it earns the perfect authority score. Below it, following=0 says nothing.
const PerfectAuthorityMinFollowers = 100

// authorityScale maps log10(followers/following) onto 0-100: a ratio of 10,000 scores 100.
const authorityScale = 25

// Profile holds account-level metrics. It is computed for every valid snapshot.
type Profile struct {
	AuthorityRatio    *float64 `json:"authorityRatio"`
	AuthorityScore    *float64 `json:"authorityScore"`
	BusinessCategory  *string  `json:"businessCategory"`
	Reason            *string  `json:"_reason"`
	FollowersCount    int64    `json:"followersCount"`
	FollowingCount    int64    `json:"followingCount"`
	PostsCount        int64    `json:"postsCount"`
	BioLength         int      `json:"bioLength"`
	ExternalLinkCount int      `json:"externalLinkCount"`
	HighlightCount    int      `json:"highlightCount"`
	HasBio            bool     `json:"hasBio"`
	HasExternalLink   bool     `json:"hasExternalLink"`
	IsVerified        bool     `json:"isVerified"`
	IsBusinessAccount bool     `json:"isBusinessAccount"`
	HasChannel        bool     `json:"hasChannel"`
}

// Populated counts computed fields.
func (p *Profile) Populated() int {
	const alwaysSet = 11
	return alwaysSet + countSet(p.AuthorityRatio != nil, p.AuthorityScore != nil, p.BusinessCategory != nil)
}

// SkipReason returns why the group is null, or nil.
func (p *Profile) SkipReason() *string { return p.Reason }

// NullFields names the fields left nil in a computed profile and why.
func (p *Profile) NullFields() map[string]string {
	if p.Reason != nil {
		return nil
	}
	m := map[string]string{}
	if p.AuthorityRatio == nil {
		m["authorityRatio"] = ReasonAuthorityNoFollowing
		m["authorityScore"] = ReasonAuthorityNoFollowing
	}
	if p.BusinessCategory == nil {
		m["businessCategory"] = ReasonNoCategory
	}
	return nullable(m)
}

// CalculateProfile computes account-level metrics.
func CalculateProfile(s *snapshot.Snapshot, f validate.Flags) *Profile {
	bio := strings.TrimSpace(s.Biography)
	p := &Profile{
		FollowersCount:    max(s.FollowersCount, 0),
		FollowingCount:    max(s.FollowsCount, 0),
		PostsCount:        max(s.PostsCount, 0),
		HasBio:            f.HasBio,
		BioLength:         textutil.RuneLen(bio),
		IsVerified:        s.Verified,
		IsBusinessAccount: s.IsBusinessAccount,
		HasChannel:        s.HasChannel,
		HighlightCount:    max(s.HighlightReelCount, 0),
	}
	if c := strings.TrimSpace(s.BusinessCategoryName); c != "" && c != "None" {
		p.BusinessCategory = str(c)
	}

	p.ExternalLinkCount = externalLinkCount(s)
	p.HasExternalLink = p.ExternalLinkCount > 0

	p.AuthorityRatio, p.AuthorityScore = authority(p.FollowersCount, p.FollowingCount)
	return p
}

// authority returns the followers/following ratio and its log-scaled 0-100 score.
func authority(followers, following int64) (ratio, score *float64) {
	if following == 0 {
		if followers >= PerfectAuthorityMinFollowers {
			// Denominator taken as 1.
			return f64(float64(followers)), f64(100)
		}
		return nil, nil
	}
	r := float64(followers) / float64(following)
	s := 0.0
	if r > 0 {
		s = clamp(math.Log10(r)*authorityScale, 0, 100)
	}
	return f64(round(r, 2)), f64(round(s, 1))
}

// externalLinkCount is the size of the union of the primary URL and the bio link list.
func externalLinkCount(s *snapshot.Snapshot) int {
	seen := make(map[string]bool)
	add := func(u string) {
		if key := textutil.NormalizeURL(u); key != "" {
			seen[key] = true
		}
	}
	add(s.ExternalURL)
	for _, l := range s.ExternalURLs {
		add(l.URL)
	}
	return len(seen)
}
