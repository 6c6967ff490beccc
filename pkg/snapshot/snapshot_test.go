package snapshot

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantUser  string
		wantErr   bool
	}{
		{"object", `{"username":"janedoe","followersCount":10}`, 1, "janedoe", false},
		{"array", `[{"username":"a"},{"username":"b"}]`, 2, "a", false},
		{"empty array", `[]`, 0, "", false},
		{"whitespace", "  \n", 0, "", true},
		{"scalar", `42`, 0, "", true},
		{"broken", `{"username":`, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("Parse(%q) error = %v, want ErrMalformed", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("Parse(%q) returned %d snapshots, want %d", tt.input, len(got), tt.wantCount)
			}
			if tt.wantCount > 0 && got[0].Username != tt.wantUser {
				t.Errorf("first username = %q, want %q", got[0].Username, tt.wantUser)
			}
		})
	}
}

func TestParseOneEmptyArray(t *testing.T) {
	s, err := ParseOne([]byte(`[]`))
	if err != nil {
		t.Fatalf("ParseOne: %v", err)
	}
	if s != nil {
		t.Errorf("ParseOne([]) = %+v, want nil", s)
	}
}

func TestPostCounts(t *testing.T) {
	data := `{"username":"x","latestPosts":[
		{"likesCount":-1,"commentsCount":4,"videoPlayCount":900},
		{"likesCount":12,"videoViewCount":300,"videoPlayCount":900},
		{}
	]}`
	s, err := ParseOne([]byte(data))
	if err != nil {
		t.Fatalf("ParseOne: %v", err)
	}

	p0 := &s.LatestPosts[0]
	if _, ok := p0.Likes(); ok {
		t.Error("hidden likes (-1) should report ok=false")
	}
	if c, ok := p0.Comments(); !ok || c != 4 {
		t.Errorf("Comments() = %d, %v; want 4, true", c, ok)
	}
	if v, ok := p0.Views(); !ok || v != 900 {
		t.Errorf("Views() fallback to play count = %d, %v; want 900, true", v, ok)
	}
	if !p0.HasEngagement() {
		t.Error("post with comments should have engagement")
	}

	p1 := &s.LatestPosts[1]
	if v, _ := p1.Views(); v != 300 {
		t.Errorf("Views() = %d, want view count 300 preferred over play count", v)
	}

	p2 := &s.LatestPosts[2]
	if p2.HasEngagement() {
		t.Error("empty post should not have engagement")
	}
	if _, ok := p2.Views(); ok {
		t.Error("empty post should not have views")
	}
}

func TestTimestampTime(t *testing.T) {
	want := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		json   string
		want   time.Time
		wantOK bool
	}{
		{"iso", `"2024-03-15T12:30:00.000Z"`, want, true},
		{"rfc3339 offset", `"2024-03-15T14:30:00+02:00"`, want, true},
		{"unix seconds", `1710505800`, want, true},
		{"unix millis", `1710505800000`, want, true},
		{"numeric string", `"1710505800"`, want, true},
		{"date only", `"2024-03-15"`, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"null", `null`, time.Time{}, false},
		{"empty", `""`, time.Time{}, false},
		{"garbage", `"yesterday"`, time.Time{}, false},
		{"before 2000", `"1999-12-31T23:59:59Z"`, time.Time{}, false},
		{"after 2033", `"2034-01-01T00:00:00Z"`, time.Time{}, false},
		{"zero", `0`, time.Time{}, false},
		{"negative", `-5`, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := ts.UnmarshalJSON([]byte(tt.json)); err != nil {
				t.Fatalf("UnmarshalJSON(%s): %v", tt.json, err)
			}
			got, ok := ts.Time()
			if ok != tt.wantOK {
				t.Fatalf("Time() ok = %v, want %v (raw %q)", ok, tt.wantOK, ts)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Time() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		in   *Snapshot
		want string
	}{
		{nil, ""},
		{&Snapshot{Username: " @brand "}, "brand"},
		{&Snapshot{Username: "brand"}, "brand"},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, tt.in.Handle()); diff != "" {
			t.Errorf("Handle() mismatch (-want +got):\n%s", diff)
		}
	}
}
