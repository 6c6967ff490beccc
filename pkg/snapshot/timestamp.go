package snapshot

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Timestamp holds a post time exactly as the scraper sent it.
// The scraper emits ISO-8601 strings, but older exports use Unix seconds or milliseconds.
type Timestamp string

// Sanity window for parsed timestamps. Anything outside it is scraper garbage.
var (
	minTimestamp = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	maxTimestamp = time.Date(2034, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Values at or above this are Unix milliseconds.
const millisThreshold = 1e12

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts a JSON string, a JSON number, or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(strings.TrimSpace(s))
		return nil
	}
	*t = Timestamp(data)
	return nil
}

// Time parses the timestamp. ok is false when it is empty, unparseable,
// or falls outside the sanity window.
func (t Timestamp) Time() (time.Time, bool) {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return time.Time{}, false
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromUnix(n)
	}

	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return bounded(parsed.UTC())
		}
	}
	return time.Time{}, false
}

func fromUnix(n float64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	if n >= millisThreshold {
		return bounded(time.UnixMilli(int64(n)).UTC())
	}
	return bounded(time.Unix(int64(n), 0).UTC())
}

func bounded(t time.Time) (time.Time, bool) {
	if t.Before(minTimestamp) || !t.Before(maxTimestamp) {
		return time.Time{}, false
	}
	return t, true
}
