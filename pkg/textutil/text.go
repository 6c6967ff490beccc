// Package textutil provides text normalization helpers for scraped profile content.
package textutil

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	multiSpacePattern = regexp.MustCompile(`\s+`)
	hashtagPattern    = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	mentionPattern    = regexp.MustCompile(`@([\p{L}\p{N}_.]+)`)
)

// CleanText decodes HTML entities, drops stray tags and collapses whitespace.
// Scraped captions occasionally arrive with &amp; and <br> left in.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// RuneLen returns the number of characters in s, not bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// NormalizeTag canonicalizes a hashtag or mention so "#Sale", "sale," and "＃SALE"
// collapse to "sale". Returns "" if nothing meaningful is left.
func NormalizeTag(raw string) string {
	s := width.Fold.String(raw)
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "#@")
	s = strings.TrimRightFunc(s, isTrailingJunk)
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Casers carry state, so one per call.
	return cases.Lower(language.Und).String(s)
}

// Underscores are legal inside tags; everything else trailing is punctuation or emoji.
func isTrailingJunk(r rune) bool {
	if r == '_' {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
}

// CaptionHashtags finds #tags in free text, in order of appearance.
func CaptionHashtags(caption string) []string {
	return findAll(hashtagPattern, caption)
}

// CaptionMentions finds @mentions in free text, in order of appearance.
func CaptionMentions(caption string) []string {
	return findAll(mentionPattern, caption)
}

func findAll(re *regexp.Regexp, text string) []string {
	if text == "" {
		return nil
	}
	text = width.Fold.String(text)
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		// Mentions may swallow a sentence-ending period.
		if v := strings.TrimRight(m[1], "."); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// NormalizeTags normalizes list, or the tags parsed from caption when list is empty.
// Empty results are dropped; duplicates are kept so callers can count occurrences.
func NormalizeTags(list []string, caption string, parse func(string) []string) []string {
	if len(list) == 0 && parse != nil {
		list = parse(caption)
	}
	out := make([]string, 0, len(list))
	for _, raw := range list {
		if t := NormalizeTag(raw); t != "" {
			out = append(out, t)
		}
	}
	return out
}
