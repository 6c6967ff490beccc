// Package validate decides whether a snapshot can be analyzed and records which
// categories of data it actually carries.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/textutil"
)

// Terminal error codes.
const (
	CodeProfileNotFound = "PROFILE_NOT_FOUND"
	CodeProfilePrivate  = "PROFILE_PRIVATE"
)

// Warning codes. Warnings never block extraction.
const (
	WarnNoPosts          = "NO_POSTS"
	WarnNoEngagementData = "NO_ENGAGEMENT_DATA"
	WarnNoTimestamps     = "NO_TIMESTAMPS"
	WarnNoVideoData      = "NO_VIDEO_DATA"
	WarnLowSampleSize    = "LOW_SAMPLE_SIZE"
)

// MinConfidentSample is the post count below which results carry a low-sample warning.
const MinConfidentSample = 5

// Sentinel errors matching the terminal codes.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfilePrivate  = errors.New("profile is private")
)

// Issue is a coded validation error or warning.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Flags records which categories of data the snapshot contains.
// It is the only place downstream code asks "can I compute X".
type Flags struct {
	ProfileExists     bool `json:"profileExists"`
	IsPrivate         bool `json:"isPrivate"`
	HasPosts          bool `json:"hasPosts"`
	HasEngagementData bool `json:"hasEngagementData"`
	HasTimestamps     bool `json:"hasTimestamps"`
	HasVideoData      bool `json:"hasVideoData"`
	HasHashtags       bool `json:"hasHashtags"`
	HasMentions       bool `json:"hasMentions"`
	HasLocationData   bool `json:"hasLocationData"`
	HasBusinessData   bool `json:"hasBusinessData"`
	HasExternalLinks  bool `json:"hasExternalLinks"`
	HasBio            bool `json:"hasBio"`
}

// Result is the outcome of Validate.
type Result struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Flags    Flags   `json:"flags"`
	IsValid  bool    `json:"isValid"`
}

// Err returns the sentinel error for the first terminal issue, or nil when valid.
func (r Result) Err() error {
	if r.IsValid || len(r.Errors) == 0 {
		return nil
	}
	switch r.Errors[0].Code {
	case CodeProfilePrivate:
		return fmt.Errorf("%w: %s", ErrProfilePrivate, r.Errors[0].Message)
	default:
		return fmt.Errorf("%w: %s", ErrProfileNotFound, r.Errors[0].Message)
	}
}

// Validate runs the existence check, the privacy check and the availability scan, in that order.
func Validate(s *snapshot.Snapshot) Result {
	r := Result{Errors: []Issue{}, Warnings: []Issue{}}

	if s == nil || s.Handle() == "" {
		r.Errors = append(r.Errors, Issue{
			Code:    CodeProfileNotFound,
			Message: "snapshot is empty or has no username",
		})
		return r
	}
	r.Flags.ProfileExists = true

	if s.Private {
		r.Flags.IsPrivate = true
		r.Errors = append(r.Errors, Issue{
			Code:    CodeProfilePrivate,
			Message: fmt.Sprintf("profile @%s is private; its content cannot be analyzed", s.Handle()),
		})
		return r
	}

	r.Flags = Assess(s)
	r.IsValid = true
	r.Warnings = warnings(r.Flags, len(s.LatestPosts))
	return r
}

// Assess scans the snapshot once and derives the availability flags.
// It never fails: missing data is recorded, not rejected.
func Assess(s *snapshot.Snapshot) Flags {
	f := Flags{ProfileExists: s != nil}
	if s == nil {
		return f
	}

	f.IsPrivate = s.Private
	f.HasBio = strings.TrimSpace(s.Biography) != ""
	f.HasBusinessData = s.IsBusinessAccount || strings.TrimSpace(s.BusinessCategoryName) != ""
	f.HasExternalLinks = strings.TrimSpace(s.ExternalURL) != ""
	for _, l := range s.ExternalURLs {
		if strings.TrimSpace(l.URL) != "" {
			f.HasExternalLinks = true
			break
		}
	}

	f.HasPosts = len(s.LatestPosts) > 0
	for i := range s.LatestPosts {
		p := &s.LatestPosts[i]
		if p.HasEngagement() {
			f.HasEngagementData = true
		}
		if _, ok := p.Timestamp.Time(); ok {
			f.HasTimestamps = true
		}
		if _, ok := p.Views(); ok {
			f.HasVideoData = true
		}
		if len(p.Hashtags) > 0 || len(textutil.CaptionHashtags(p.Caption)) > 0 {
			f.HasHashtags = true
		}
		if len(p.Mentions) > 0 || len(textutil.CaptionMentions(p.Caption)) > 0 {
			f.HasMentions = true
		}
		if strings.TrimSpace(p.LocationName) != "" {
			f.HasLocationData = true
		}
	}
	return f
}

func warnings(f Flags, postCount int) []Issue {
	w := []Issue{}
	if !f.HasPosts {
		return append(w, Issue{Code: WarnNoPosts, Message: "no posts available; post-based metrics will be skipped"})
	}
	if postCount < MinConfidentSample {
		w = append(w, Issue{
			Code:    WarnLowSampleSize,
			Message: fmt.Sprintf("only %d posts in sample (minimum %d for confident metrics)", postCount, MinConfidentSample),
		})
	}
	if !f.HasEngagementData {
		w = append(w, Issue{Code: WarnNoEngagementData, Message: "no like or comment counts on any post"})
	}
	if !f.HasTimestamps {
		w = append(w, Issue{Code: WarnNoTimestamps, Message: "no parseable post timestamps; frequency metrics will be skipped"})
	}
	if !f.HasVideoData {
		w = append(w, Issue{Code: WarnNoVideoData, Message: "no video view counts; video metrics will be skipped"})
	}
	return w
}

// HasWarning reports whether the result carries a warning with the given code.
func (r Result) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
