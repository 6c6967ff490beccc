// Package metrics computes the per-group quantitative metrics for a validated snapshot.
//
// Every calculator is a pure function of the snapshot, its availability flags and a
// reference time. A calculator that lacks its prerequisite data returns a null group:
// every nullable field nil, slices empty, and Reason set. A computed group (Reason nil)
// may still leave single fields nil; NullFields names each of them with its reason.
// Calculators never panic and never return errors.
package metrics

// Skip reasons shared by the post-based groups.
const (
	ReasonNoPosts      = "No posts available"
	ReasonNoEngagement = "No like or comment counts on any post"
	ReasonNoTimestamps = "No parseable post timestamps"
	ReasonNoVideo      = "No posts with video view counts"
	ReasonNoFollowers  = "No follower count to rate engagement against"
)

// Reasons for single null fields inside a computed group.
const (
	ReasonAuthorityNoFollowing = "Follows nobody and has too few followers for a perfect authority score"
	ReasonNoCategory           = "No business category set"
	ReasonNoLikes              = "No likes to compare comments against"
	ReasonNoVariation          = "Needs two or more posts with engagement to measure variation"
	ReasonNoPostCount          = "No lifetime post count"
)

// Group names, used as keys in skip-reason maps.
const (
	GroupProfile    = "profile"
	GroupEngagement = "engagement"
	GroupFrequency  = "frequency"
	GroupFormat     = "format"
	GroupContent    = "content"
	GroupVideo      = "video"
	GroupRisk       = "risk"
)

// Field counts per group.
const (
	ProfileFields    = 14
	EngagementFields = 13
	FrequencyFields  = 11
	FormatFields     = 12
	ContentFields    = 16
	VideoFields      = 6
	RiskFields       = 10

	// TotalPossibleMetrics is the number of metrics a fully populated snapshot yields.
	TotalPossibleMetrics = ProfileFields + EngagementFields + FrequencyFields +
		FormatFields + ContentFields + VideoFields + RiskFields
)

// Groups bundles the seven metric groups of one extraction.
type Groups struct {
	Profile    *Profile
	Engagement *Engagement
	Frequency  *Frequency
	Format     *Format
	Content    *Content
	Video      *Video
	Risk       *Risk
}

// Summary is one group's contribution to metric accounting.
type Summary struct {
	Reason     *string
	NullFields map[string]string // field name to reason, for nulls inside a computed group
	Name       string
	Fields     int
	Calculated int
}

// Summaries reports per-group accounting in a fixed order. Nil groups count as fully skipped.
func (g Groups) Summaries() []Summary {
	return []Summary{
		summarize(GroupProfile, ProfileFields, g.Profile != nil, g.Profile),
		summarize(GroupEngagement, EngagementFields, g.Engagement != nil, g.Engagement),
		summarize(GroupFrequency, FrequencyFields, g.Frequency != nil, g.Frequency),
		summarize(GroupFormat, FormatFields, g.Format != nil, g.Format),
		summarize(GroupContent, ContentFields, g.Content != nil, g.Content),
		summarize(GroupVideo, VideoFields, g.Video != nil, g.Video),
		summarize(GroupRisk, RiskFields, g.Risk != nil, g.Risk),
	}
}

type populater interface {
	Populated() int
	SkipReason() *string
}

type fieldNuller interface {
	NullFields() map[string]string
}

// present is checked separately because a nil group pointer is a non-nil interface.
func summarize(name string, fields int, present bool, group populater) Summary {
	s := Summary{Name: name, Fields: fields}
	if !present {
		s.Reason = str("not calculated")
		return s
	}
	s.Calculated = group.Populated()
	s.Reason = group.SkipReason()
	if fn, ok := group.(fieldNuller); ok {
		s.NullFields = fn.NullFields()
	}
	return s
}
