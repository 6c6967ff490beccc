// Package snapshot defines the raw profile snapshot produced by the scraper collaborator.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned when snapshot data cannot be decoded.
var ErrMalformed = errors.New("malformed snapshot")

// ExternalLink is a link listed on the profile (bio links).
type ExternalLink struct {
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	LinkType string `json:"link_type,omitempty"`
}

// TaggedUser is an account tagged in a post.
type TaggedUser struct {
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// Snapshot is one point-in-time capture of a public profile and its recent posts.
// The engine treats it as read-only.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Snapshot struct {
	// Identity
	Username             string `json:"username"`
	FullName             string `json:"fullName,omitempty"`
	Biography            string `json:"biography,omitempty"`
	Verified             bool   `json:"verified,omitempty"`
	Private              bool   `json:"private,omitempty"`
	IsBusinessAccount    bool   `json:"isBusinessAccount,omitempty"`
	BusinessCategoryName string `json:"businessCategoryName,omitempty"`
	HasChannel           bool   `json:"hasChannel,omitempty"`

	// Counts
	FollowersCount     int64 `json:"followersCount"`
	FollowsCount       int64 `json:"followsCount"`
	PostsCount         int64 `json:"postsCount"`
	HighlightReelCount int   `json:"highlightReelCount,omitempty"`
	IGTVVideoCount     int   `json:"igtvVideoCount,omitempty"`

	// Links
	ExternalURL  string         `json:"externalUrl,omitempty"`
	ExternalURLs []ExternalLink `json:"externalUrls,omitempty"`

	// When the scraper captured the profile, if it says so.
	CapturedAt Timestamp `json:"capturedAt,omitempty"`

	// Most recent posts, newest first as delivered by the scraper.
	LatestPosts []Post `json:"latestPosts,omitempty"`
}

// Post is a single post record in the sampled window.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Post struct {
	ID          string `json:"id,omitempty"`
	ShortCode   string `json:"shortCode,omitempty"`
	Type        string `json:"type,omitempty"`        // Image, Video, Sidecar (Graph* aliases accepted)
	ProductType string `json:"productType,omitempty"` // "clips" marks a reel
	URL         string `json:"url,omitempty"`
	Caption     string `json:"caption,omitempty"`

	Hashtags    []string     `json:"hashtags,omitempty"`
	Mentions    []string     `json:"mentions,omitempty"`
	TaggedUsers []TaggedUser `json:"taggedUsers,omitempty"`

	LikesCount     *int64 `json:"likesCount,omitempty"`
	CommentsCount  *int64 `json:"commentsCount,omitempty"`
	VideoViewCount *int64 `json:"videoViewCount,omitempty"`
	VideoPlayCount *int64 `json:"videoPlayCount,omitempty"`

	Timestamp          Timestamp `json:"timestamp,omitempty"`
	LocationName       string    `json:"locationName,omitempty"`
	Alt                string    `json:"alt,omitempty"`
	IsCommentsDisabled bool      `json:"isCommentsDisabled,omitempty"`
}

// Likes returns the like count. Hidden or missing counts report ok=false.
func (p *Post) Likes() (int64, bool) { return count(p.LikesCount) }

// Comments returns the comment count. Missing counts report ok=false.
func (p *Post) Comments() (int64, bool) { return count(p.CommentsCount) }

// Views returns the video view count, falling back to the play count.
func (p *Post) Views() (int64, bool) {
	if v, ok := count(p.VideoViewCount); ok {
		return v, true
	}
	return count(p.VideoPlayCount)
}

// HasEngagement reports whether the post carries a like or comment count.
func (p *Post) HasEngagement() bool {
	_, likes := p.Likes()
	_, comments := p.Comments()
	return likes || comments
}

// The scraper reports -1 when a count is hidden.
func count(v *int64) (int64, bool) {
	if v == nil || *v < 0 {
		return 0, false
	}
	return *v, true
}

// Parse decodes a single snapshot object or an array of snapshots.
func Parse(data []byte) ([]*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}

	switch trimmed[0] {
	case '[':
		var list []*Snapshot
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return list, nil
	case '{':
		var s Snapshot
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return []*Snapshot{&s}, nil
	default:
		return nil, fmt.Errorf("%w: expected JSON object or array, got %q", ErrMalformed, string(trimmed[:1]))
	}
}

// ParseOne decodes data and returns the first snapshot, or nil when the input is an empty array.
func ParseOne(data []byte) (*Snapshot, error) {
	list, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil //nolint:nilnil // an empty dataset is not a decode error
	}
	return list[0], nil
}

// Handle returns the username without a leading @.
func (s *Snapshot) Handle() string {
	if s == nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(s.Username), "@")
}
