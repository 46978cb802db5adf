package pipeline

import (
	"encoding/json"
	"time"
)

// Stats summarizes one dataset run.
type Stats struct {
	DatasetName string
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time

	RawEpisodesProcessed int
	EpisodesNormalized   int
	EpisodesValidated    int
	EpisodesPassed       int
	EpisodesFailed       int
	EpisodesDropped      int
	EpisodesSaved        int
	QAPairsGenerated     int

	AvgSensorCompleteness float64
	AvgLabelConfidence    float64
	AvgQualityScore       float64

	// StopReason is set when the run ended before the source was exhausted.
	StopReason string
	Errors     []string
}

// PassRate is the percentage of validated episodes that passed.
func (s Stats) PassRate() float64 {
	total := s.EpisodesPassed + s.EpisodesFailed
	if total == 0 {
		return 0
	}
	return float64(s.EpisodesPassed) / float64(total) * 100
}

// Duration is the wall-clock time of the run. An unfinished run measures up
// to now.
func (s Stats) Duration() time.Duration {
	end := s.CompletedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.StartedAt)
}

type statsJSON struct {
	DatasetName           string     `json:"dataset_name"`
	RunID                 string     `json:"run_id"`
	StartedAt             time.Time  `json:"started_at"`
	CompletedAt           *time.Time `json:"completed_at"`
	DurationSeconds       float64    `json:"duration_seconds"`
	RawEpisodesProcessed  int        `json:"raw_episodes_processed"`
	EpisodesNormalized    int        `json:"episodes_normalized"`
	EpisodesValidated     int        `json:"episodes_validated"`
	EpisodesPassed        int        `json:"episodes_passed"`
	EpisodesFailed        int        `json:"episodes_failed"`
	EpisodesDropped       int        `json:"episodes_dropped"`
	EpisodesSaved         int        `json:"episodes_saved"`
	QAPairsGenerated      int        `json:"qa_pairs_generated"`
	PassRate              float64    `json:"pass_rate"`
	AvgSensorCompleteness float64    `json:"avg_sensor_completeness"`
	AvgLabelConfidence    float64    `json:"avg_label_confidence"`
	AvgQualityScore       float64    `json:"avg_quality_score"`
	StopReason            string     `json:"stop_reason,omitempty"`
	ErrorCount            int        `json:"error_count"`
	Errors                []string   `json:"errors"`
}

// MarshalJSON renders the run record with derived pass rate and duration.
func (s Stats) MarshalJSON() ([]byte, error) {
	out := statsJSON{
		DatasetName:           s.DatasetName,
		RunID:                 s.RunID,
		StartedAt:             s.StartedAt,
		DurationSeconds:       s.Duration().Seconds(),
		RawEpisodesProcessed:  s.RawEpisodesProcessed,
		EpisodesNormalized:    s.EpisodesNormalized,
		EpisodesValidated:     s.EpisodesValidated,
		EpisodesPassed:        s.EpisodesPassed,
		EpisodesFailed:        s.EpisodesFailed,
		EpisodesDropped:       s.EpisodesDropped,
		EpisodesSaved:         s.EpisodesSaved,
		QAPairsGenerated:      s.QAPairsGenerated,
		PassRate:              s.PassRate(),
		AvgSensorCompleteness: s.AvgSensorCompleteness,
		AvgLabelConfidence:    s.AvgLabelConfidence,
		AvgQualityScore:       s.AvgQualityScore,
		StopReason:            s.StopReason,
		ErrorCount:            len(s.Errors),
		Errors:                s.Errors,
	}
	if !s.CompletedAt.IsZero() {
		completed := s.CompletedAt
		out.CompletedAt = &completed
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	return json.Marshal(out)
}
