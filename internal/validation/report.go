package validation

import (
	"time"

	"factorynet/internal/episode"
)

// Report aggregates per-episode results for one dataset.
type Report struct {
	DatasetName     string `json:"dataset_name"`
	TotalEpisodes   int    `json:"total_episodes"`
	ValidEpisodes   int    `json:"valid_episodes"`
	InvalidEpisodes int    `json:"invalid_episodes"`
	// PassRate is a percentage in [0,100].
	PassRate              float64        `json:"pass_rate"`
	AvgSensorCompleteness float64        `json:"avg_sensor_completeness"`
	AvgLabelConfidence    float64        `json:"avg_label_confidence"`
	AvgQualityScore       float64        `json:"avg_quality_score"`
	ErrorCounts           map[string]int `json:"error_counts"`
	WarningCounts         map[string]int `json:"warning_counts"`
	GeneratedAt           time.Time      `json:"generated_at"`
	EpisodeResults        []Result       `json:"episode_results"`
}

// ReportGenerator builds dataset reports with a shared Validator.
type ReportGenerator struct {
	validator *Validator
}

// NewReportGenerator wraps v.
func NewReportGenerator(v *Validator) *ReportGenerator {
	return &ReportGenerator{validator: v}
}

// Generate validates every episode and aggregates the results.
func (g *ReportGenerator) Generate(episodes []*episode.Episode, dataset string) Report {
	results := make([]Result, 0, len(episodes))
	for _, ep := range episodes {
		results = append(results, g.validator.Validate(ep))
	}
	return g.FromResults(results, dataset)
}

// FromResults aggregates results computed elsewhere.
func (g *ReportGenerator) FromResults(results []Result, dataset string) Report {
	report := Report{
		DatasetName:    dataset,
		TotalEpisodes:  len(results),
		ErrorCounts:    map[string]int{},
		WarningCounts:  map[string]int{},
		GeneratedAt:    g.validator.now().UTC(),
		EpisodeResults: results,
	}
	if report.EpisodeResults == nil {
		report.EpisodeResults = []Result{}
	}

	var completeness, confidence, score float64
	for _, result := range results {
		if result.Valid {
			report.ValidEpisodes++
		} else {
			report.InvalidEpisodes++
		}
		completeness += result.SensorCompleteness
		confidence += result.LabelConfidence
		score += result.QualityScore
		for _, issue := range result.Issues {
			switch issue.Severity {
			case SeverityError:
				report.ErrorCounts[issue.Message]++
			case SeverityWarning:
				report.WarningCounts[issue.Message]++
			}
		}
	}
	if n := float64(len(results)); n > 0 {
		report.PassRate = float64(report.ValidEpisodes) / n * 100
		report.AvgSensorCompleteness = completeness / n
		report.AvgLabelConfidence = confidence / n
		report.AvgQualityScore = score / n
	}
	return report
}
