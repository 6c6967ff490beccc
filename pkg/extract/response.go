package extract

import (
	"github.com/codeGROOVE-dev/leadscope/pkg/metrics"
	"github.com/codeGROOVE-dev/leadscope/pkg/output"
	"github.com/codeGROOVE-dev/leadscope/pkg/scoring"
	"github.com/codeGROOVE-dev/leadscope/pkg/textdata"
	"github.com/codeGROOVE-dev/leadscope/pkg/validate"
)

// Response is the outcome of one Extract call.
// Exactly one of Data and Error is set.
type Response struct {
	Data     *Result `json:"data,omitempty"`
	Error    *Error  `json:"error,omitempty"`
	Metadata RunInfo `json:"metadata"`
	Success  bool    `json:"success"`
}

// RunInfo is attached to every response, including failures.
type RunInfo struct {
	Username          string `json:"username,omitempty"`
	ProcessedAt       string `json:"processedAt"`
	ExtractionVersion string `json:"extractionVersion"`
	ProcessingTimeMs  int64  `json:"processingTimeMs"`
}

// Error is a terminal validation failure.
type Error struct {
	sentinel error
	Details  *validate.Result `json:"details,omitempty"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Unwrap returns validate.ErrProfileNotFound or validate.ErrProfilePrivate.
func (e *Error) Unwrap() error { return e.sentinel }

func newError(v validate.Result) *Error {
	e := &Error{
		sentinel: v.Err(),
		Details:  &v,
		Code:     validate.CodeProfileNotFound,
		Message:  "profile could not be analyzed",
	}
	if len(v.Errors) > 0 {
		e.Code = v.Errors[0].Code
		e.Message = v.Errors[0].Message
	}
	if e.sentinel == nil {
		e.sentinel = validate.ErrProfileNotFound
	}
	return e
}

// Result is the full extraction for one valid profile. It is built once and never modified.
type Result struct {
	Profile       *metrics.Profile    `json:"profile"`
	Engagement    *metrics.Engagement `json:"engagement"`
	Frequency     *metrics.Frequency  `json:"frequency"`
	Format        *metrics.Format     `json:"format"`
	Content       *metrics.Content    `json:"content"`
	Video         *metrics.Video      `json:"video"`
	Risk          *metrics.Risk       `json:"risk"`
	Validation    validate.Result     `json:"validation"`
	TextDataForAI textdata.TextData   `json:"textDataForAI"`
	Scores        scoring.Scores      `json:"scores"`
	Gaps          scoring.Gaps        `json:"gaps"`
	Flattened     output.Record       `json:"flattened"`
	Metadata      Metadata            `json:"metadata"`
}

// Metadata describes how much of the profile could be measured.
// SkipReasons is keyed by group name for null groups and by "group.field"
// for single null fields inside a computed group.
type Metadata struct {
	SkipReasons          map[string]string `json:"skipReasons"`
	ProcessedAt          string            `json:"processedAt"`
	ExtractionVersion    string            `json:"extractionVersion"`
	Warnings             []validate.Issue  `json:"warnings"`
	ProcessingTimeMs     int64             `json:"processingTimeMs"`
	SampleSize           int               `json:"sampleSize"`
	TotalPostCount       int64             `json:"totalPostCount"`
	MetricsCalculated    int               `json:"metricsCalculated"`
	MetricsSkipped       int               `json:"metricsSkipped"`
	TotalPossibleMetrics int               `json:"totalPossibleMetrics"`
	DataCompleteness     float64           `json:"dataCompleteness"` // percent, 0-100
	LowSample            bool              `json:"lowSample"`
}
