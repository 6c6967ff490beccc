// Package textdata collects the free text of a snapshot for downstream language analysis.
package textdata

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/leadscope/pkg/metrics"
	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/textutil"
)

// Limits on the collected text.
const (
	MaxCaptions    = 10
	MaxTopHashtags = 10
	MaxTopMentions = 5
)

// TermCount is a term and how often it appeared.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Link is a bio link with its classified platform.
type Link struct {
	Title    string `json:"title,omitempty"`
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

// TextData is the text-only view of a profile.
type TextData struct {
	Biography        string      `json:"biography"`
	FullName         string      `json:"fullName"`
	BusinessCategory string      `json:"businessCategory"`
	Captions         []string    `json:"captions"`
	Hashtags         []string    `json:"hashtags"`
	Mentions         []string    `json:"mentions"`
	TopHashtags      []TermCount `json:"topHashtags"`
	TopMentions      []TermCount `json:"topMentions"`
	ExternalLinks    []Link      `json:"externalLinks"`
	LinkTitles       []string    `json:"linkTitles"`
	Locations        []string    `json:"locations"`
}

// Extract pulls the text out of a snapshot. Slices are never nil.
func Extract(s *snapshot.Snapshot) TextData {
	td := TextData{
		Captions:      []string{},
		Hashtags:      []string{},
		Mentions:      []string{},
		TopHashtags:   []TermCount{},
		TopMentions:   []TermCount{},
		ExternalLinks: []Link{},
		LinkTitles:    []string{},
		Locations:     []string{},
	}
	if s == nil {
		return td
	}

	td.Biography = textutil.CleanText(s.Biography)
	td.FullName = textutil.CleanText(s.FullName)
	if c := strings.TrimSpace(s.BusinessCategoryName); c != "None" {
		td.BusinessCategory = c
	}

	td.Captions = recentCaptions(s.LatestPosts, MaxCaptions)

	hashtags := newTally()
	mentions := newTally()
	locations := map[string]bool{}
	for i := range s.LatestPosts {
		p := &s.LatestPosts[i]
		for _, h := range metrics.PostHashtags(p) {
			hashtags.add(h)
		}
		for _, m := range metrics.PostMentions(p) {
			mentions.add(m)
		}
		if loc := textutil.CleanText(p.LocationName); loc != "" && !locations[strings.ToLower(loc)] {
			locations[strings.ToLower(loc)] = true
			td.Locations = append(td.Locations, loc)
		}
	}
	td.Hashtags = append(td.Hashtags, hashtags.order...)
	td.Mentions = append(td.Mentions, mentions.order...)
	td.TopHashtags = hashtags.top(MaxTopHashtags)
	td.TopMentions = mentions.top(MaxTopMentions)

	td.ExternalLinks, td.LinkTitles = links(s)
	return td
}

type dated struct {
	at      time.Time
	text    string
	index   int
	hasTime bool
}

// recentCaptions returns up to limit non-empty captions, newest first.
// Posts without a parseable timestamp sort after dated ones; input order breaks ties.
func recentCaptions(posts []snapshot.Post, limit int) []string {
	var all []dated
	for i := range posts {
		text := textutil.CleanText(posts[i].Caption)
		if text == "" {
			continue
		}
		at, ok := posts[i].Timestamp.Time()
		all = append(all, dated{at: at, hasTime: ok, text: text, index: i})
	}
	slices.SortStableFunc(all, func(a, b dated) int {
		switch {
		case a.hasTime && !b.hasTime:
			return -1
		case !a.hasTime && b.hasTime:
			return 1
		case a.hasTime:
			if c := b.at.Compare(a.at); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.index, b.index)
	})

	out := make([]string, 0, min(len(all), limit))
	for _, d := range all[:min(len(all), limit)] {
		out = append(out, d.text)
	}
	return out
}

// tally counts terms and remembers first-seen order.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally { return &tally{counts: map[string]int{}} }

func (t *tally) add(term string) {
	if t.counts[term] == 0 {
		t.order = append(t.order, term)
	}
	t.counts[term]++
}

// top ranks by count descending, then term ascending.
func (t *tally) top(n int) []TermCount {
	out := make([]TermCount, 0, len(t.counts))
	for term, c := range t.counts {
		out = append(out, TermCount{Term: term, Count: c})
	}
	slices.SortFunc(out, func(a, b TermCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Term, b.Term)
	})
	return out[:min(len(out), n)]
}

// links lists the profile's external links, deduplicated by normalized URL.
func links(s *snapshot.Snapshot) ([]Link, []string) {
	out := []Link{}
	titles := []string{}
	seen := map[string]bool{}
	add := func(title, raw string) {
		raw = strings.TrimSpace(raw)
		key := textutil.NormalizeURL(raw)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		title = textutil.CleanText(title)
		out = append(out, Link{Title: title, URL: raw, Platform: textutil.LinkPlatform(raw)})
		if title != "" {
			titles = append(titles, title)
		}
	}
	for _, l := range s.ExternalURLs {
		add(l.Title, l.URL)
	}
	add("", s.ExternalURL)
	return out, titles
}
