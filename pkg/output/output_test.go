package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/leadscope/pkg/metrics"
	"github.com/codeGROOVE-dev/leadscope/pkg/scoring"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }
func str(v string) *string   { return &v }

var processedAt = time.Date(2024, 3, 5, 10, 30, 0, 0, time.FixedZone("CET", 3600))

func TestFlattenCopiesFields(t *testing.T) {
	g := metrics.Groups{
		Profile:    &metrics.Profile{FollowersCount: 1200, HasBio: true, BusinessCategory: str("Bakery")},
		Engagement: &metrics.Engagement{EngagementRate: f64(0.042), PostsAnalyzed: intp(12)},
		Format:     &metrics.Format{DominantFormat: str("reels"), ReelsRate: f64(60)},
		Risk:       &metrics.Risk{RiskLevel: str("low"), RiskFactors: []string{"x"}, ViralPostRateOfTotal: f64(1.5)},
	}
	s := scoring.Scores{OpportunityScore: 71.2, FakeFollowerRisk: 12}
	gp := scoring.Gaps{ConversionGap: true}

	r := Flatten("bakery", g, s, gp, processedAt)

	if r.SchemaVersion != SchemaVersion || r.ProcessedAt != "2024-03-05T09:30:00Z" {
		t.Errorf("header = %q %q", r.SchemaVersion, r.ProcessedAt)
	}
	if r.Username != "bakery" || r.ProfileFollowersCount != 1200 || !r.ProfileHasBio {
		t.Errorf("profile columns not copied: %+v", r)
	}
	if r.ProfileBusinessCategory == nil || *r.ProfileBusinessCategory != "Bakery" {
		t.Errorf("ProfileBusinessCategory = %v", r.ProfileBusinessCategory)
	}
	if *r.EngagementRate != 0.042 || *r.EngagementPostsAnalyzed != 12 {
		t.Errorf("engagement columns not copied")
	}
	if *r.FormatDominantFormat != "reels" || *r.FormatReelsRate != 60 {
		t.Errorf("format columns not copied")
	}
	if *r.RiskLevel != "low" || len(r.RiskFactors) != 1 || *r.RiskViralPostRateOfTotal != 1.5 {
		t.Errorf("risk columns not copied")
	}
	if r.ScoreOpportunity != 71.2 || r.ScoreFakeFollowerRisk != 12 || !r.GapConversion || r.GapPlatform {
		t.Errorf("scores or gaps not copied")
	}
	if r.VideoAvgViews != nil || r.FrequencyPostsPerWeek != nil || r.ContentTopHashtag != nil {
		t.Error("nil groups must leave their columns null")
	}
}

func TestFlattenJSONKeys(t *testing.T) {
	r := Flatten("u", metrics.Groups{}, scoring.Scores{}, scoring.Gaps{}, processedAt)
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	// Metric columns plus username, schema_version, processed_at, 5 scores and 4 gaps.
	want := metrics.TotalPossibleMetrics + 3 + 5 + 4
	if len(m) != want {
		t.Errorf("record has %d columns, want %d", len(m), want)
	}
	for k, v := range m {
		if k != strings.ToLower(k) || strings.Contains(k, "-") {
			t.Errorf("key %q is not snake_case", k)
		}
		if k == "video_avg_views" && v != nil {
			t.Errorf("video_avg_views = %v, want null", v)
		}
	}
	if factors, ok := m["risk_factors"].([]any); !ok || len(factors) != 0 {
		t.Errorf("risk_factors = %v, want []", m["risk_factors"])
	}
}
