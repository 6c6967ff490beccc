package metrics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/validate"
)

func n64(v int64) *int64 { return &v }

var ref = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func TestTotalPossibleMetrics(t *testing.T) {
	if TotalPossibleMetrics != 82 {
		t.Errorf("TotalPossibleMetrics = %d, want 82", TotalPossibleMetrics)
	}
}

func TestAuthority(t *testing.T) {
	tests := []struct {
		name                 string
		followers, follows   int64
		wantRatio, wantScore *float64
	}{
		{"follows nobody with audience", 150, 0, f64(150), f64(100)},
		{"follows nobody without audience", 5, 0, nil, nil},
		{"ratio 100", 1000, 10, f64(100), f64(50)},
		{"follows more than followers", 10, 100, f64(0.1), f64(0)},
		{"huge ratio clamps", 10_000_000, 1, f64(10_000_000), f64(100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, score := authority(tt.followers, tt.follows)
			if diff := cmp.Diff(tt.wantRatio, ratio); diff != "" {
				t.Errorf("ratio mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantScore, score); diff != "" {
				t.Errorf("score mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProfileExternalLinks(t *testing.T) {
	s := &snapshot.Snapshot{
		Username:             "shop",
		Biography:            "  ",
		BusinessCategoryName: "None",
		ExternalURL:          "https://www.Shop.com/",
		ExternalURLs: []snapshot.ExternalLink{
			{URL: "https://shop.com"},
			{URL: "https://linktr.ee/shop"},
		},
	}
	p := CalculateProfile(s, validate.Assess(s))
	if p.ExternalLinkCount != 2 || !p.HasExternalLink {
		t.Errorf("ExternalLinkCount = %d, HasExternalLink = %v; want 2, true", p.ExternalLinkCount, p.HasExternalLink)
	}
	if p.BusinessCategory != nil {
		t.Errorf("BusinessCategory = %q, want nil", *p.BusinessCategory)
	}
	if p.HasBio || p.BioLength != 0 {
		t.Errorf("blank bio counted: HasBio=%v BioLength=%d", p.HasBio, p.BioLength)
	}
}

func TestNullGroupsWithoutPosts(t *testing.T) {
	s := &snapshot.Snapshot{Username: "empty", FollowersCount: 500}
	f := validate.Assess(s)
	p := CalculateProfile(s, f)
	e := CalculateEngagement(s, f, ref)
	g := Groups{
		Profile:    p,
		Engagement: e,
		Frequency:  CalculateFrequency(s, f, ref),
		Format:     CalculateFormat(s, f),
		Content:    CalculateContent(s, f),
		Video:      CalculateVideo(s, f),
		Risk:       CalculateRisk(s, f, p, e),
	}

	for _, sum := range g.Summaries() {
		if sum.Name == GroupProfile {
			if sum.Reason != nil {
				t.Errorf("profile has skip reason %q", *sum.Reason)
			}
			continue
		}
		if sum.Calculated != 0 {
			t.Errorf("%s: Calculated = %d, want 0", sum.Name, sum.Calculated)
		}
		if sum.Reason == nil || *sum.Reason != ReasonNoPosts {
			t.Errorf("%s: Reason = %v, want %q", sum.Name, sum.Reason, ReasonNoPosts)
		}
	}
	if g.Risk.RiskFactors == nil {
		t.Error("RiskFactors should be an empty slice, not nil")
	}
}

func TestSummariesNilGroup(t *testing.T) {
	sums := Groups{}.Summaries()
	if len(sums) != 7 {
		t.Fatalf("len = %d, want 7", len(sums))
	}
	for _, s := range sums {
		if s.Calculated != 0 || s.Reason == nil {
			t.Errorf("%s: nil group should be fully skipped, got %+v", s.Name, s)
		}
	}
}

func TestEngagement(t *testing.T) {
	s := &snapshot.Snapshot{
		Username:       "u",
		FollowersCount: 1000,
		LatestPosts: []snapshot.Post{
			{LikesCount: n64(90), CommentsCount: n64(10)},
			{LikesCount: n64(45), CommentsCount: n64(5)},
			{LikesCount: n64(-1)}, // hidden likes, not analysed
		},
	}
	got := CalculateEngagement(s, validate.Assess(s), ref)
	want := &Engagement{
		PostsAnalyzed:         intp(2),
		TotalLikes:            i64(135),
		TotalComments:         i64(15),
		AvgLikes:              f64(67.5),
		AvgComments:           f64(7.5),
		AvgEngagement:         f64(75),
		MedianEngagement:      f64(75),
		MaxEngagement:         i64(100),
		MinEngagement:         i64(50),
		EngagementRate:        f64(0.075),
		CommentToLikeRatio:    f64(0.111),
		EngagementCV:          f64(0.333),
		EngagementConsistency: f64(75),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CalculateEngagement mismatch (-want +got):\n%s", diff)
	}
	if got.Populated() != EngagementFields {
		t.Errorf("Populated = %d, want %d", got.Populated(), EngagementFields)
	}
}

func TestEngagementZeroFollowers(t *testing.T) {
	s := &snapshot.Snapshot{
		Username:    "u",
		LatestPosts: []snapshot.Post{{LikesCount: n64(10)}, {LikesCount: n64(20)}},
	}
	got := CalculateEngagement(s, validate.Assess(s), ref)
	if got.EngagementRate != nil {
		t.Errorf("EngagementRate = %v, want nil", *got.EngagementRate)
	}
	if got.EngagementCV == nil {
		t.Error("EngagementCV should fall back to raw engagement")
	}
	if got.CommentToLikeRatio == nil || *got.CommentToLikeRatio != 0 {
		t.Errorf("CommentToLikeRatio = %v, want 0", got.CommentToLikeRatio)
	}
}

func TestAgeWeight(t *testing.T) {
	tests := []struct {
		ts   snapshot.Timestamp
		want float64
	}{
		{"2024-03-04T12:00:00Z", freshPostWeight},
		{"2024-03-01T00:00:00Z", recentWeight},
		{"2024-02-01T00:00:00Z", settledWeight},
		{"2024-03-06T00:00:00Z", freshPostWeight}, // after the reference time
		{"", settledWeight},
	}
	for _, tt := range tests {
		if got := ageWeight(&snapshot.Post{Timestamp: tt.ts}, ref); got != tt.want {
			t.Errorf("ageWeight(%q) = %v, want %v", tt.ts, got, tt.want)
		}
	}
}

func TestFrequency(t *testing.T) {
	s := &snapshot.Snapshot{
		Username: "u",
		LatestPosts: []snapshot.Post{
			{Timestamp: "2024-03-04T00:00:00Z"},
			{Timestamp: "2024-03-01T00:00:00Z"},
			{Timestamp: "garbage"},
			{Timestamp: "2024-03-02T00:00:00Z"},
		},
	}
	got := CalculateFrequency(s, validate.Assess(s), ref)
	want := &Frequency{
		PostsWithTimestamps:    intp(3),
		FirstPostAt:            str("2024-03-01T00:00:00Z"),
		LastPostAt:             str("2024-03-04T00:00:00Z"),
		PostingPeriodDays:      f64(3),
		PostsPerWeek:           f64(7),
		PostsPerMonth:          f64(30),
		DaysSinceLastPost:      f64(1),
		AvgDaysBetweenPosts:    f64(1.5),
		MedianDaysBetweenPosts: f64(1.5),
		MaxGapDays:             f64(2),
		PostingConsistency:     f64(90.9),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CalculateFrequency mismatch (-want +got):\n%s", diff)
	}
}

func TestFrequencySinglePost(t *testing.T) {
	s := &snapshot.Snapshot{
		Username:    "u",
		LatestPosts: []snapshot.Post{{Timestamp: "2024-03-10T00:00:00Z"}},
	}
	got := CalculateFrequency(s, validate.Assess(s), ref)
	if got.PostsPerWeek != nil || got.AvgDaysBetweenPosts != nil || got.PostingConsistency != nil {
		t.Errorf("single post should leave rates and gaps null: %+v", got)
	}
	if got.DaysSinceLastPost == nil || *got.DaysSinceLastPost != 0 {
		t.Errorf("DaysSinceLastPost = %v, want 0 for a post after the reference time", got.DaysSinceLastPost)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		typ, product, want string
	}{
		{"Video", "clips", FormatReels},
		{"Reel", "", FormatReels},
		{"GraphVideo", "igtv", FormatVideo},
		{"Video", "", FormatVideo},
		{"Sidecar", "", FormatCarousel},
		{"GraphSidecar", "", FormatCarousel},
		{"Image", "", FormatImage},
		{"", "", FormatImage},
	}
	for _, tt := range tests {
		if got := Classify(&snapshot.Post{Type: tt.typ, ProductType: tt.product}); got != tt.want {
			t.Errorf("Classify(%q, %q) = %q, want %q", tt.typ, tt.product, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name          string
		types         []string
		wantDominant  *string
		wantDiversity int
	}{
		{"mixed", []string{"Reel", "GraphVideo", "Image", "Sidecar", "Image"}, str(FormatMixed), 4},
		{"image heavy", []string{"Image", "Image", "Image", "Reel"}, str(FormatImage), 2},
		{"single format", []string{"Sidecar"}, str(FormatCarousel), 1},
		{"even split", []string{"Image", "Sidecar"}, str(FormatMixed), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &snapshot.Snapshot{Username: "u"}
			for _, typ := range tt.types {
				s.LatestPosts = append(s.LatestPosts, snapshot.Post{Type: typ})
			}
			got := CalculateFormat(s, validate.Assess(s))
			if diff := cmp.Diff(tt.wantDominant, got.DominantFormat); diff != "" {
				t.Errorf("DominantFormat mismatch (-want +got):\n%s", diff)
			}
			if *got.FormatDiversity != tt.wantDiversity {
				t.Errorf("FormatDiversity = %d, want %d", *got.FormatDiversity, tt.wantDiversity)
			}
		})
	}

	s := &snapshot.Snapshot{Username: "u", LatestPosts: []snapshot.Post{
		{Type: "Reel"}, {Type: "GraphVideo"}, {Type: "Image"}, {Type: "Sidecar"}, {Type: "Image"},
	}}
	got := CalculateFormat(s, validate.Assess(s))
	if *got.ReelsRate != 20 || *got.ImageRate != 40 || *got.VideoTotalRate != 40 {
		t.Errorf("rates = reels %v image %v videoTotal %v, want 20 40 40", *got.ReelsRate, *got.ImageRate, *got.VideoTotalRate)
	}
	if got.Populated() != FormatFields {
		t.Errorf("Populated = %d, want %d", got.Populated(), FormatFields)
	}
}

func TestContentTagDedup(t *testing.T) {
	s := &snapshot.Snapshot{
		Username: "u",
		LatestPosts: []snapshot.Post{
			{Hashtags: []string{"Sale,", "sale"}, Caption: "ignored #other", LocationName: "Lisbon"},
			{Caption: "Big #SALE with @Friend.", Alt: "photo"},
			{Hashtags: []string{"#", "  "}, TaggedUsers: []snapshot.TaggedUser{{Username: "pal"}, {Username: "PAL"}}},
			{IsCommentsDisabled: true},
		},
	}
	got := CalculateContent(s, validate.Assess(s))

	if *got.TotalHashtags != 3 || *got.UniqueHashtags != 1 {
		t.Errorf("hashtags total=%d unique=%d, want 3 and 1", *got.TotalHashtags, *got.UniqueHashtags)
	}
	if *got.UniqueHashtags > *got.TotalHashtags || *got.UniqueMentions > *got.TotalMentions {
		t.Error("unique count exceeds total")
	}
	if got.TopHashtag == nil || *got.TopHashtag != "sale" {
		t.Errorf("TopHashtag = %v, want sale", got.TopHashtag)
	}
	if *got.TotalMentions != 1 || *got.UniqueMentions != 1 {
		t.Errorf("mentions total=%d unique=%d, want 1 and 1", *got.TotalMentions, *got.UniqueMentions)
	}
	if *got.TotalTaggedUsers != 2 || *got.UniqueTaggedUsers != 1 {
		t.Errorf("tagged total=%d unique=%d, want 2 and 1", *got.TotalTaggedUsers, *got.UniqueTaggedUsers)
	}
	if *got.LocationRate != 25 || *got.AltTextRate != 25 || *got.CommentsDisabledRate != 25 {
		t.Errorf("rates = %v %v %v, want 25 each", *got.LocationRate, *got.AltTextRate, *got.CommentsDisabledRate)
	}
	if *got.PostsWithCaption != 2 {
		t.Errorf("PostsWithCaption = %d, want 2", *got.PostsWithCaption)
	}
}

func TestContentCaptionLengths(t *testing.T) {
	s := &snapshot.Snapshot{
		Username: "u",
		LatestPosts: []snapshot.Post{
			{Caption: "héllo"}, // 5 runes
			{Caption: "   "},
			{Caption: "0123456789"},
			{},
		},
	}
	got := CalculateContent(s, validate.Assess(s))
	if *got.AvgCaptionLength != 3.8 {
		t.Errorf("AvgCaptionLength = %v, want 3.8", *got.AvgCaptionLength)
	}
	if *got.AvgCaptionLengthNonEmpty != 7.5 {
		t.Errorf("AvgCaptionLengthNonEmpty = %v, want 7.5", *got.AvgCaptionLengthNonEmpty)
	}
	if *got.MaxCaptionLength != 10 {
		t.Errorf("MaxCaptionLength = %d, want 10", *got.MaxCaptionLength)
	}
	if got.TopHashtag != nil {
		t.Errorf("TopHashtag = %q, want nil", *got.TopHashtag)
	}
}

func TestVideo(t *testing.T) {
	s := &snapshot.Snapshot{
		Username:       "u",
		FollowersCount: 1000,
		LatestPosts: []snapshot.Post{
			{VideoViewCount: n64(100), LikesCount: n64(10)},
			{VideoPlayCount: n64(300), LikesCount: n64(10)},
			{LikesCount: n64(500)}, // no views, ignored
		},
	}
	got := CalculateVideo(s, validate.Assess(s))
	want := &Video{
		VideosAnalyzed:   intp(2),
		TotalViews:       i64(400),
		AvgViews:         f64(200),
		MaxViews:         i64(300),
		ViewToLikeRatio:  f64(20),
		ViewsPerFollower: f64(0.2),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CalculateVideo mismatch (-want +got):\n%s", diff)
	}

	noVideo := &snapshot.Snapshot{Username: "u", LatestPosts: []snapshot.Post{{LikesCount: n64(1)}}}
	if v := CalculateVideo(noVideo, validate.Assess(noVideo)); v.Populated() != 0 || v.Reason == nil {
		t.Errorf("no view data should give a null group, got %+v", v)
	}
}

func TestExpectedMinEngagementRate(t *testing.T) {
	tests := []struct {
		followers int64
		want      float64
	}{
		{0, 0.03}, {9_999, 0.03}, {10_000, 0.02}, {49_999, 0.02},
		{50_000, 0.015}, {499_999, 0.015}, {500_000, 0.01}, {10_000_000, 0.01},
	}
	for _, tt := range tests {
		if got := ExpectedMinEngagementRate(tt.followers); got != tt.want {
			t.Errorf("ExpectedMinEngagementRate(%d) = %v, want %v", tt.followers, got, tt.want)
		}
	}
}

func TestLevel(t *testing.T) {
	for score, want := range map[float64]string{0: RiskLow, 29.9: RiskLow, 30: RiskMedium, 59.9: RiskMedium, 60: RiskHigh, 100: RiskHigh} {
		if got := Level(score); got != want {
			t.Errorf("Level(%v) = %q, want %q", score, got, want)
		}
	}
}

func TestRiskAllFactors(t *testing.T) {
	// 20k followers following 100k, 10 lifetime posts, flat 110 engagement per post:
	// rate 0.0055 vs expected 0.02 (25), authority 0.2 (15), 2000 followers/post over
	// the 1000 limit (10), perfectly uniform at a low rate (20).
	s := &snapshot.Snapshot{
		Username:       "suspect",
		FollowersCount: 20_000,
		FollowsCount:   100_000,
		PostsCount:     10,
		LatestPosts: []snapshot.Post{
			{LikesCount: n64(100), CommentsCount: n64(10)},
			{LikesCount: n64(100), CommentsCount: n64(10)},
		},
	}
	f := validate.Assess(s)
	p := CalculateProfile(s, f)
	e := CalculateEngagement(s, f, ref)
	got := CalculateRisk(s, f, p, e)

	if got.FakeFollowerRisk == nil || *got.FakeFollowerRisk != 70 {
		t.Fatalf("FakeFollowerRisk = %v, want 70", got.FakeFollowerRisk)
	}
	if *got.RiskLevel != RiskHigh {
		t.Errorf("RiskLevel = %q, want high", *got.RiskLevel)
	}
	if len(got.RiskFactors) != 4 {
		t.Errorf("RiskFactors = %q, want 4 entries", got.RiskFactors)
	}
	if *got.FollowersPerPost != 2000 || *got.ContentDensity != 0.5 {
		t.Errorf("FollowersPerPost=%v ContentDensity=%v, want 2000 and 0.5", *got.FollowersPerPost, *got.ContentDensity)
	}
	if got.Populated() != RiskFields {
		t.Errorf("Populated = %d, want %d", got.Populated(), RiskFields)
	}
}

func TestRiskHealthyAccount(t *testing.T) {
	s := &snapshot.Snapshot{
		Username:       "healthy",
		FollowersCount: 5_000,
		FollowsCount:   500,
		PostsCount:     300,
		LatestPosts: []snapshot.Post{
			{LikesCount: n64(300), CommentsCount: n64(20)},
			{LikesCount: n64(250), CommentsCount: n64(15)},
			{LikesCount: n64(280), CommentsCount: n64(18)},
		},
	}
	f := validate.Assess(s)
	p := CalculateProfile(s, f)
	e := CalculateEngagement(s, f, ref)
	got := CalculateRisk(s, f, p, e)
	if *got.FakeFollowerRisk != 0 || *got.RiskLevel != RiskLow || len(got.RiskFactors) != 0 {
		t.Errorf("risk = %v %q %q, want 0 low none", *got.FakeFollowerRisk, *got.RiskLevel, got.RiskFactors)
	}
}

func TestRiskWithoutEngagement(t *testing.T) {
	s := &snapshot.Snapshot{Username: "u", FollowersCount: 100, PostsCount: 4, LatestPosts: []snapshot.Post{{Type: "Image"}}}
	f := validate.Assess(s)
	got := CalculateRisk(s, f, CalculateProfile(s, f), CalculateEngagement(s, f, ref))
	if got.FakeFollowerRisk != nil || got.RiskLevel != nil {
		t.Errorf("risk should be null without engagement, got %v", got.FakeFollowerRisk)
	}
	if got.Reason == nil || *got.Reason != ReasonNoEngagement {
		t.Errorf("Reason = %v, want %q", got.Reason, ReasonNoEngagement)
	}
	if *got.FollowersPerPost != 25 || *got.SampleSize != 1 {
		t.Errorf("derived ratios should still compute: %v %v", *got.FollowersPerPost, *got.SampleSize)
	}
}

func TestViralPosts(t *testing.T) {
	s := &snapshot.Snapshot{
		Username:       "u",
		FollowersCount: 1000,
		PostsCount:     100,
		LatestPosts: []snapshot.Post{
			{LikesCount: n64(10)}, {LikesCount: n64(10)}, {LikesCount: n64(10)}, {LikesCount: n64(50)},
		},
	}
	f := validate.Assess(s)
	got := CalculateRisk(s, f, CalculateProfile(s, f), CalculateEngagement(s, f, ref))
	if *got.ViralPostCount != 1 {
		t.Errorf("ViralPostCount = %d, want 1", *got.ViralPostCount)
	}
	if *got.ViralPostRate != 25 {
		t.Errorf("ViralPostRate = %v, want 25", *got.ViralPostRate)
	}
	if *got.ViralPostRateOfTotal != 1 {
		t.Errorf("ViralPostRateOfTotal = %v, want 1", *got.ViralPostRateOfTotal)
	}
}

func TestNullFieldsCarryReasons(t *testing.T) {
	s := &snapshot.Snapshot{
		Username:    "quiet",
		LatestPosts: []snapshot.Post{{Type: "Image", CommentsCount: n64(3)}},
	}
	f := validate.Assess(s)
	p := CalculateProfile(s, f)
	e := CalculateEngagement(s, f, ref)
	r := CalculateRisk(s, f, p, e)

	tests := []struct {
		name  string
		group fieldNuller
		want  map[string]string
	}{
		{"profile", p, map[string]string{
			"authorityRatio":   ReasonAuthorityNoFollowing,
			"authorityScore":   ReasonAuthorityNoFollowing,
			"businessCategory": ReasonNoCategory,
		}},
		{"engagement", e, map[string]string{
			"engagementRate":        ReasonNoFollowers,
			"commentToLikeRatio":    ReasonNoLikes,
			"engagementCV":          ReasonNoVariation,
			"engagementConsistency": ReasonNoVariation,
		}},
		{"risk", r, map[string]string{
			"followersPerPost":     ReasonNoPostCount,
			"contentDensity":       ReasonNoFollowers,
			"viralPostRateOfTotal": ReasonNoPostCount,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.group.NullFields()); diff != "" {
				t.Errorf("NullFields mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if r.Reason == nil || *r.Reason != ReasonNoFollowers {
		t.Errorf("risk Reason = %v, want %q", r.Reason, ReasonNoFollowers)
	}
	for _, sum := range (Groups{Profile: p, Engagement: e, Risk: r}).Summaries()[:2] {
		if sum.Reason != nil || len(sum.NullFields) == 0 {
			t.Errorf("%s: computed group should report field reasons, got %v %v", sum.Name, sum.Reason, sum.NullFields)
		}
	}
}

func TestNullFieldsOnNullGroup(t *testing.T) {
	s := &snapshot.Snapshot{Username: "empty"}
	f := validate.Assess(s)
	if got := CalculateEngagement(s, f, ref).NullFields(); got != nil {
		t.Errorf("null engagement group NullFields = %v, want nil", got)
	}
	if got := CalculateRisk(s, f, nil, nil).NullFields(); got != nil {
		t.Errorf("null risk group NullFields = %v, want nil", got)
	}
}

func TestRiskPopulated(t *testing.T) {
	scored := &Risk{FakeFollowerRisk: f64(0), RiskFactors: []string{}}
	if got := scored.Populated(); got != 2 {
		t.Errorf("scored risk Populated = %d, want 2 (score and factors)", got)
	}
	unscored := &Risk{RiskFactors: []string{}, SampleSize: intp(3)}
	if got := unscored.Populated(); got != 1 {
		t.Errorf("unscored risk Populated = %d, want 1", got)
	}
}
