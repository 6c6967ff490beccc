// Package extract runs the full extraction for one profile snapshot: validation,
// the seven metric groups, text collection, scores, gaps and the flat record.
//
// Basic usage:
//
//	x := extract.New(extract.WithLogger(logger))
//	resp := x.Extract(snap)
//	if !resp.Success {
//	    log.Printf("skipped %s: %v", resp.Metadata.Username, resp.Error)
//	}
package extract

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/leadscope/pkg/metrics"
	"github.com/codeGROOVE-dev/leadscope/pkg/output"
	"github.com/codeGROOVE-dev/leadscope/pkg/scoring"
	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/textdata"
	"github.com/codeGROOVE-dev/leadscope/pkg/validate"
)

// ExtractionVersion is stamped on every response.
const ExtractionVersion = output.SchemaVersion

// WarnCalculationFailed marks a metric group whose calculator panicked and was replaced by a null group.
const WarnCalculationFailed = "CALCULATION_FAILED"

// Option configures an Extractor.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	clock      func() time.Time
	sequential bool
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithClock sets the clock used for processedAt and as the reference time
// for snapshots that carry no capture time.
func WithClock(clock func() time.Time) Option {
	return func(c *config) { c.clock = clock }
}

// WithSequential runs the calculators one after another instead of concurrently.
func WithSequential() Option {
	return func(c *config) { c.sequential = true }
}

// Extractor runs extractions. It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	logger     *slog.Logger
	clock      func() time.Time
	sequential bool
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	cfg := &config{logger: slog.Default(), clock: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.clock == nil {
		cfg.clock = time.Now
	}
	return &Extractor{logger: cfg.logger, clock: cfg.clock, sequential: cfg.sequential}
}

// Extract analyzes one snapshot. It always returns a typed response: either
// Success with Data, or a terminal validation Error with no partial metrics.
func (x *Extractor) Extract(s *snapshot.Snapshot) *Response {
	start := x.clock()
	username := s.Handle()

	v := validate.Validate(s)
	if !v.IsValid {
		return x.failure(username, v, start)
	}

	ref := referenceTime(s, start)
	t := &tally{skipReasons: map[string]string{}}
	g, failed := x.calculate(s, v.Flags, ref)
	for _, sum := range g.Summaries() {
		t.record(sum)
		if sum.Reason != nil {
			x.logger.Debug("metric group skipped", "username", username, "group", sum.Name, "reason", *sum.Reason)
		}
	}

	scores, gaps := scoring.Calculate(g)
	end := x.clock()
	elapsed := end.Sub(start).Milliseconds()

	warnings := append([]validate.Issue{}, v.Warnings...)
	for _, name := range failed {
		warnings = append(warnings, validate.Issue{
			Code:    WarnCalculationFailed,
			Message: fmt.Sprintf("%s metrics could not be calculated", name),
		})
	}

	res := &Result{
		Validation:    v,
		Profile:       g.Profile,
		Engagement:    g.Engagement,
		Frequency:     g.Frequency,
		Format:        g.Format,
		Content:       g.Content,
		Video:         g.Video,
		Risk:          g.Risk,
		TextDataForAI: textdata.Extract(s),
		Scores:        scores,
		Gaps:          gaps,
		Flattened:     output.Flatten(username, g, scores, gaps, end),
		Metadata: Metadata{
			ProcessedAt:          end.UTC().Format(time.RFC3339),
			ProcessingTimeMs:     elapsed,
			SampleSize:           len(s.LatestPosts),
			TotalPostCount:       max(s.PostsCount, 0),
			MetricsCalculated:    t.calculated,
			MetricsSkipped:       t.skipped,
			TotalPossibleMetrics: metrics.TotalPossibleMetrics,
			DataCompleteness:     completeness(t.calculated),
			SkipReasons:          t.skipReasons,
			Warnings:             warnings,
			LowSample:            len(s.LatestPosts) < validate.MinConfidentSample,
			ExtractionVersion:    ExtractionVersion,
		},
	}

	x.logger.Info("extracted profile",
		"username", username,
		"posts", len(s.LatestPosts),
		"calculated", t.calculated,
		"skipped", t.skipped,
		"completeness", res.Metadata.DataCompleteness,
		"opportunity", scores.OpportunityScore,
		"duration_ms", elapsed)

	return &Response{
		Success: true,
		Data:    res,
		Metadata: RunInfo{
			Username:          username,
			ProcessedAt:       res.Metadata.ProcessedAt,
			ProcessingTimeMs:  elapsed,
			ExtractionVersion: ExtractionVersion,
		},
	}
}

func (x *Extractor) failure(username string, v validate.Result, start time.Time) *Response {
	end := x.clock()
	e := newError(v)
	x.logger.Info("profile not extracted", "username", username, "code", e.Code, "reason", e.Message)
	return &Response{
		Error: e,
		Metadata: RunInfo{
			Username:          username,
			ProcessedAt:       end.UTC().Format(time.RFC3339),
			ProcessingTimeMs:  end.Sub(start).Milliseconds(),
			ExtractionVersion: ExtractionVersion,
		},
	}
}

// referenceTime anchors age-dependent metrics. Using the capture time keeps
// output stable when the same snapshot is processed again later.
func referenceTime(s *snapshot.Snapshot, now time.Time) time.Time {
	if t, ok := s.CapturedAt.Time(); ok {
		return t
	}
	return now.UTC()
}

// calculate runs the calculators. Profile, Engagement, Frequency, Format, Content and
// Video are independent and run concurrently; Risk needs Profile and Engagement.
// Each goroutine writes only its own field of g.
func (x *Extractor) calculate(s *snapshot.Snapshot, f validate.Flags, ref time.Time) (metrics.Groups, []string) {
	var g metrics.Groups
	var mu sync.Mutex
	var failed []string
	fail := func(name string) {
		mu.Lock()
		failed = append(failed, name)
		mu.Unlock()
	}

	jobs := []func(){
		func() {
			g.Profile = guard(x.logger, metrics.GroupProfile, fail, func(r string) *metrics.Profile {
				return &metrics.Profile{Reason: &r}
			}, func() *metrics.Profile { return metrics.CalculateProfile(s, f) })
		},
		func() {
			g.Engagement = guard(x.logger, metrics.GroupEngagement, fail, func(r string) *metrics.Engagement {
				return &metrics.Engagement{Reason: &r}
			}, func() *metrics.Engagement { return metrics.CalculateEngagement(s, f, ref) })
		},
		func() {
			g.Frequency = guard(x.logger, metrics.GroupFrequency, fail, func(r string) *metrics.Frequency {
				return &metrics.Frequency{Reason: &r}
			}, func() *metrics.Frequency { return metrics.CalculateFrequency(s, f, ref) })
		},
		func() {
			g.Format = guard(x.logger, metrics.GroupFormat, fail, func(r string) *metrics.Format {
				return &metrics.Format{Reason: &r}
			}, func() *metrics.Format { return metrics.CalculateFormat(s, f) })
		},
		func() {
			g.Content = guard(x.logger, metrics.GroupContent, fail, func(r string) *metrics.Content {
				return &metrics.Content{Reason: &r}
			}, func() *metrics.Content { return metrics.CalculateContent(s, f) })
		},
		func() {
			g.Video = guard(x.logger, metrics.GroupVideo, fail, func(r string) *metrics.Video {
				return &metrics.Video{Reason: &r}
			}, func() *metrics.Video { return metrics.CalculateVideo(s, f) })
		},
	}

	if x.sequential {
		for _, job := range jobs {
			job()
		}
	} else {
		var wg sync.WaitGroup
		for _, job := range jobs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				job()
			}()
		}
		wg.Wait()
	}

	g.Risk = guard(x.logger, metrics.GroupRisk, fail, func(r string) *metrics.Risk {
		return &metrics.Risk{Reason: &r, RiskFactors: []string{}}
	}, func() *metrics.Risk { return metrics.CalculateRisk(s, f, g.Profile, g.Engagement) })

	slices.Sort(failed)
	return g, failed
}

// guard runs a calculator and turns a panic into a null group.
func guard[T any](logger *slog.Logger, name string, fail func(string), null func(reason string) T, calc func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("metric calculation panicked", "group", name, "panic", r)
			fail(name)
			out = null(fmt.Sprintf("calculation failed: %v", r))
		}
	}()
	return calc()
}

// tally accumulates metric accounting for a single Extract call.
type tally struct {
	skipReasons map[string]string
	calculated  int
	skipped     int
}

func (t *tally) record(s metrics.Summary) {
	t.calculated += s.Calculated
	t.skipped += s.Fields - s.Calculated
	if s.Reason != nil {
		t.skipReasons[s.Name] = *s.Reason
	}
	for field, reason := range s.NullFields {
		t.skipReasons[s.Name+"."+field] = reason
	}
}

// completeness is the share of possible metrics that were calculated, capped at 100.
func completeness(calculated int) float64 {
	pct := float64(calculated) / float64(metrics.TotalPossibleMetrics) * 100
	return math.Round(math.Min(100, pct)*10) / 10
}
