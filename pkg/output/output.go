// Package output flattens an extraction into a single record for tabular storage.
package output

import (
	"time"

	"github.com/codeGROOVE-dev/leadscope/pkg/metrics"
	"github.com/codeGROOVE-dev/leadscope/pkg/scoring"
)

// SchemaVersion identifies the layout of Record. Bump it when a column is added,
// renamed or removed.
const SchemaVersion = "2.1.0"

// Record is the flat form of one extraction. Every field is copied explicitly;
// absent metrics stay null.
//
//nolint:govet // fieldalignment: columns are grouped by metric group
type Record struct {
	Username      string `json:"username"`
	SchemaVersion string `json:"schema_version"`
	ProcessedAt   string `json:"processed_at"`

	// Profile
	ProfileFollowersCount    int64    `json:"profile_followers_count"`
	ProfileFollowingCount    int64    `json:"profile_following_count"`
	ProfilePostsCount        int64    `json:"profile_posts_count"`
	ProfileAuthorityRatio    *float64 `json:"profile_authority_ratio"`
	ProfileAuthorityScore    *float64 `json:"profile_authority_score"`
	ProfileHasBio            bool     `json:"profile_has_bio"`
	ProfileBioLength         int      `json:"profile_bio_length"`
	ProfileExternalLinkCount int      `json:"profile_external_link_count"`
	ProfileHasExternalLink   bool     `json:"profile_has_external_link"`
	ProfileIsVerified        bool     `json:"profile_is_verified"`
	ProfileIsBusinessAccount bool     `json:"profile_is_business_account"`
	ProfileBusinessCategory  *string  `json:"profile_business_category"`
	ProfileHasChannel        bool     `json:"profile_has_channel"`
	ProfileHighlightCount    int      `json:"profile_highlight_count"`

	// Engagement
	EngagementPostsAnalyzed      *int     `json:"engagement_posts_analyzed"`
	EngagementTotalLikes         *int64   `json:"engagement_total_likes"`
	EngagementTotalComments      *int64   `json:"engagement_total_comments"`
	EngagementAvgLikes           *float64 `json:"engagement_avg_likes"`
	EngagementAvgComments        *float64 `json:"engagement_avg_comments"`
	EngagementAvgEngagement      *float64 `json:"engagement_avg_engagement"`
	EngagementMedianEngagement   *float64 `json:"engagement_median_engagement"`
	EngagementMaxEngagement      *int64   `json:"engagement_max_engagement"`
	EngagementMinEngagement      *int64   `json:"engagement_min_engagement"`
	EngagementRate               *float64 `json:"engagement_rate"`
	EngagementCommentToLikeRatio *float64 `json:"engagement_comment_to_like_ratio"`
	EngagementCV                 *float64 `json:"engagement_cv"`
	EngagementConsistency        *float64 `json:"engagement_consistency"`

	// Frequency
	FrequencyPostsWithTimestamps    *int     `json:"frequency_posts_with_timestamps"`
	FrequencyFirstPostAt            *string  `json:"frequency_first_post_at"`
	FrequencyLastPostAt             *string  `json:"frequency_last_post_at"`
	FrequencyPostingPeriodDays      *float64 `json:"frequency_posting_period_days"`
	FrequencyPostsPerWeek           *float64 `json:"frequency_posts_per_week"`
	FrequencyPostsPerMonth          *float64 `json:"frequency_posts_per_month"`
	FrequencyDaysSinceLastPost      *float64 `json:"frequency_days_since_last_post"`
	FrequencyAvgDaysBetweenPosts    *float64 `json:"frequency_avg_days_between_posts"`
	FrequencyMedianDaysBetweenPosts *float64 `json:"frequency_median_days_between_posts"`
	FrequencyMaxGapDays             *float64 `json:"frequency_max_gap_days"`
	FrequencyPostingConsistency     *float64 `json:"frequency_posting_consistency"`

	// Format
	FormatTotalPosts     *int     `json:"format_total_posts"`
	FormatReelsCount     *int     `json:"format_reels_count"`
	FormatVideoCount     *int     `json:"format_video_count"`
	FormatImageCount     *int     `json:"format_image_count"`
	FormatCarouselCount  *int     `json:"format_carousel_count"`
	FormatReelsRate      *float64 `json:"format_reels_rate"`
	FormatVideoRate      *float64 `json:"format_video_rate"`
	FormatImageRate      *float64 `json:"format_image_rate"`
	FormatCarouselRate   *float64 `json:"format_carousel_rate"`
	FormatDiversity      *int     `json:"format_diversity"`
	FormatDominantFormat *string  `json:"format_dominant_format"`
	FormatVideoTotalRate *float64 `json:"format_video_total_rate"`

	// Content
	ContentTotalHashtags            *int     `json:"content_total_hashtags"`
	ContentUniqueHashtags           *int     `json:"content_unique_hashtags"`
	ContentAvgHashtagsPerPost       *float64 `json:"content_avg_hashtags_per_post"`
	ContentTotalMentions            *int     `json:"content_total_mentions"`
	ContentUniqueMentions           *int     `json:"content_unique_mentions"`
	ContentAvgMentionsPerPost       *float64 `json:"content_avg_mentions_per_post"`
	ContentAvgCaptionLength         *float64 `json:"content_avg_caption_length"`
	ContentAvgCaptionLengthNonEmpty *float64 `json:"content_avg_caption_length_non_empty"`
	ContentMaxCaptionLength         *int     `json:"content_max_caption_length"`
	ContentPostsWithCaption         *int     `json:"content_posts_with_caption"`
	ContentLocationRate             *float64 `json:"content_location_rate"`
	ContentAltTextRate              *float64 `json:"content_alt_text_rate"`
	ContentCommentsDisabledRate     *float64 `json:"content_comments_disabled_rate"`
	ContentTotalTaggedUsers         *int     `json:"content_total_tagged_users"`
	ContentUniqueTaggedUsers        *int     `json:"content_unique_tagged_users"`
	ContentTopHashtag               *string  `json:"content_top_hashtag"`

	// Video
	VideoVideosAnalyzed   *int     `json:"video_videos_analyzed"`
	VideoTotalViews       *int64   `json:"video_total_views"`
	VideoAvgViews         *float64 `json:"video_avg_views"`
	VideoMaxViews         *int64   `json:"video_max_views"`
	VideoViewToLikeRatio  *float64 `json:"video_view_to_like_ratio"`
	VideoViewsPerFollower *float64 `json:"video_views_per_follower"`

	// Risk
	RiskFakeFollowerRisk          *float64 `json:"risk_fake_follower_risk"`
	RiskLevel                     *string  `json:"risk_level"`
	RiskFactors                   []string `json:"risk_factors"`
	RiskExpectedMinEngagementRate *float64 `json:"risk_expected_min_engagement_rate"`
	RiskFollowersPerPost          *float64 `json:"risk_followers_per_post"`
	RiskContentDensity            *float64 `json:"risk_content_density"`
	RiskViralPostCount            *int     `json:"risk_viral_post_count"`
	RiskViralPostRate             *float64 `json:"risk_viral_post_rate"`
	RiskViralPostRateOfTotal      *float64 `json:"risk_viral_post_rate_of_total"`
	RiskSampleSize                *int     `json:"risk_sample_size"`

	// Scores
	ScoreEngagementHealth      float64 `json:"score_engagement_health"`
	ScoreContentSophistication float64 `json:"score_content_sophistication"`
	ScoreAccountMaturity       float64 `json:"score_account_maturity"`
	ScoreFakeFollowerRisk      float64 `json:"score_fake_follower_risk"`
	ScoreOpportunity           float64 `json:"score_opportunity"`

	// Gaps
	GapEngagement bool `json:"gap_engagement"`
	GapContent    bool `json:"gap_content"`
	GapConversion bool `json:"gap_conversion"`
	GapPlatform   bool `json:"gap_platform"`
}

// Flatten copies every group field, the scores and the gaps into one Record.
// Nil groups leave their columns null.
func Flatten(username string, g metrics.Groups, s scoring.Scores, gp scoring.Gaps, processedAt time.Time) Record {
	r := Record{
		Username:      username,
		SchemaVersion: SchemaVersion,
		ProcessedAt:   processedAt.UTC().Format(time.RFC3339),
		RiskFactors:   []string{},

		ScoreEngagementHealth:      s.EngagementHealth,
		ScoreContentSophistication: s.ContentSophistication,
		ScoreAccountMaturity:       s.AccountMaturity,
		ScoreFakeFollowerRisk:      s.FakeFollowerRisk,
		ScoreOpportunity:           s.OpportunityScore,

		GapEngagement: gp.EngagementGap,
		GapContent:    gp.ContentGap,
		GapConversion: gp.ConversionGap,
		GapPlatform:   gp.PlatformGap,
	}

	if p := g.Profile; p != nil {
		r.ProfileFollowersCount = p.FollowersCount
		r.ProfileFollowingCount = p.FollowingCount
		r.ProfilePostsCount = p.PostsCount
		r.ProfileAuthorityRatio = p.AuthorityRatio
		r.ProfileAuthorityScore = p.AuthorityScore
		r.ProfileHasBio = p.HasBio
		r.ProfileBioLength = p.BioLength
		r.ProfileExternalLinkCount = p.ExternalLinkCount
		r.ProfileHasExternalLink = p.HasExternalLink
		r.ProfileIsVerified = p.IsVerified
		r.ProfileIsBusinessAccount = p.IsBusinessAccount
		r.ProfileBusinessCategory = p.BusinessCategory
		r.ProfileHasChannel = p.HasChannel
		r.ProfileHighlightCount = p.HighlightCount
	}

	if e := g.Engagement; e != nil {
		r.EngagementPostsAnalyzed = e.PostsAnalyzed
		r.EngagementTotalLikes = e.TotalLikes
		r.EngagementTotalComments = e.TotalComments
		r.EngagementAvgLikes = e.AvgLikes
		r.EngagementAvgComments = e.AvgComments
		r.EngagementAvgEngagement = e.AvgEngagement
		r.EngagementMedianEngagement = e.MedianEngagement
		r.EngagementMaxEngagement = e.MaxEngagement
		r.EngagementMinEngagement = e.MinEngagement
		r.EngagementRate = e.EngagementRate
		r.EngagementCommentToLikeRatio = e.CommentToLikeRatio
		r.EngagementCV = e.EngagementCV
		r.EngagementConsistency = e.EngagementConsistency
	}

	if f := g.Frequency; f != nil {
		r.FrequencyPostsWithTimestamps = f.PostsWithTimestamps
		r.FrequencyFirstPostAt = f.FirstPostAt
		r.FrequencyLastPostAt = f.LastPostAt
		r.FrequencyPostingPeriodDays = f.PostingPeriodDays
		r.FrequencyPostsPerWeek = f.PostsPerWeek
		r.FrequencyPostsPerMonth = f.PostsPerMonth
		r.FrequencyDaysSinceLastPost = f.DaysSinceLastPost
		r.FrequencyAvgDaysBetweenPosts = f.AvgDaysBetweenPosts
		r.FrequencyMedianDaysBetweenPosts = f.MedianDaysBetweenPosts
		r.FrequencyMaxGapDays = f.MaxGapDays
		r.FrequencyPostingConsistency = f.PostingConsistency
	}

	if f := g.Format; f != nil {
		r.FormatTotalPosts = f.TotalPosts
		r.FormatReelsCount = f.ReelsCount
		r.FormatVideoCount = f.VideoCount
		r.FormatImageCount = f.ImageCount
		r.FormatCarouselCount = f.CarouselCount
		r.FormatReelsRate = f.ReelsRate
		r.FormatVideoRate = f.VideoRate
		r.FormatImageRate = f.ImageRate
		r.FormatCarouselRate = f.CarouselRate
		r.FormatDiversity = f.FormatDiversity
		r.FormatDominantFormat = f.DominantFormat
		r.FormatVideoTotalRate = f.VideoTotalRate
	}

	if c := g.Content; c != nil {
		r.ContentTotalHashtags = c.TotalHashtags
		r.ContentUniqueHashtags = c.UniqueHashtags
		r.ContentAvgHashtagsPerPost = c.AvgHashtagsPerPost
		r.ContentTotalMentions = c.TotalMentions
		r.ContentUniqueMentions = c.UniqueMentions
		r.ContentAvgMentionsPerPost = c.AvgMentionsPerPost
		r.ContentAvgCaptionLength = c.AvgCaptionLength
		r.ContentAvgCaptionLengthNonEmpty = c.AvgCaptionLengthNonEmpty
		r.ContentMaxCaptionLength = c.MaxCaptionLength
		r.ContentPostsWithCaption = c.PostsWithCaption
		r.ContentLocationRate = c.LocationRate
		r.ContentAltTextRate = c.AltTextRate
		r.ContentCommentsDisabledRate = c.CommentsDisabledRate
		r.ContentTotalTaggedUsers = c.TotalTaggedUsers
		r.ContentUniqueTaggedUsers = c.UniqueTaggedUsers
		r.ContentTopHashtag = c.TopHashtag
	}

	if v := g.Video; v != nil {
		r.VideoVideosAnalyzed = v.VideosAnalyzed
		r.VideoTotalViews = v.TotalViews
		r.VideoAvgViews = v.AvgViews
		r.VideoMaxViews = v.MaxViews
		r.VideoViewToLikeRatio = v.ViewToLikeRatio
		r.VideoViewsPerFollower = v.ViewsPerFollower
	}

	if k := g.Risk; k != nil {
		r.RiskFakeFollowerRisk = k.FakeFollowerRisk
		r.RiskLevel = k.RiskLevel
		if k.RiskFactors != nil {
			r.RiskFactors = k.RiskFactors
		}
		r.RiskExpectedMinEngagementRate = k.ExpectedMinEngagementRate
		r.RiskFollowersPerPost = k.FollowersPerPost
		r.RiskContentDensity = k.ContentDensity
		r.RiskViralPostCount = k.ViralPostCount
		r.RiskViralPostRate = k.ViralPostRate
		r.RiskViralPostRateOfTotal = k.ViralPostRateOfTotal //nolint:staticcheck // deprecated column kept for existing readers
		r.RiskSampleSize = k.SampleSize
	}

	return r
}
