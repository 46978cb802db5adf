package validation

import (
	"encoding/json"
	"time"
)

// Severity ranks an issue. Only SeverityError fails the gate.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Category names the rule family that raised an issue.
type Category string

const (
	CategorySchema       Category = "schema"
	CategoryCompleteness Category = "completeness"
	CategoryQuality      Category = "quality"
	CategoryTaxonomy     Category = "taxonomy"
	CategoryConsistency  Category = "consistency"
)

// Issue is one finding against an episode.
type Issue struct {
	Category   Category `json:"category"`
	Severity   Severity `json:"severity"`
	Field      string   `json:"field"`
	Message    string   `json:"message"`
	Value      string   `json:"value,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Result is the outcome of validating one episode.
type Result struct {
	EpisodeID           string    `json:"episode_id"`
	Valid               bool      `json:"valid"`
	Issues              []Issue   `json:"issues"`
	SensorCompleteness  float64   `json:"sensor_completeness"`
	LabelConfidence     float64   `json:"label_confidence"`
	FeatureCompleteness float64   `json:"feature_completeness"`
	QualityScore        float64   `json:"overall_quality_score"`
	ValidatedAt         time.Time `json:"validated_at"`
}

// ErrorCount counts ERROR-severity issues.
func (r Result) ErrorCount() int { return r.count(SeverityError) }

// WarningCount counts WARNING-severity issues.
func (r Result) WarningCount() int { return r.count(SeverityWarning) }

// IssuesBySeverity returns the issues with the given severity in report order.
func (r Result) IssuesBySeverity(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

func (r Result) count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// MarshalJSON adds the derived issue counts.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	issues := r.Issues
	if issues == nil {
		issues = []Issue{}
	}
	p := plain(r)
	p.Issues = issues
	return json.Marshal(struct {
		plain
		ErrorCount   int `json:"error_count"`
		WarningCount int `json:"warning_count"`
	}{p, r.ErrorCount(), r.WarningCount()})
}
