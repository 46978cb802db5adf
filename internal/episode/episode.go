package episode

import (
	"math"
	"time"
)

// Source marks episodes adapted from external benchmark datasets.
const Source = "adapted"

// Step is one synchronized sample across all channels.
type Step struct {
	Index         int                `json:"step_index"`
	OffsetSeconds float64            `json:"timestamp_offset"`
	Values        map[string]float64 `json:"values"`
}

// StateAnnotation labels the machine condition captured by an episode.
type StateAnnotation struct {
	Code       string   `json:"state_code"`
	Label      string   `json:"state_label"`
	Confidence float64  `json:"confidence"`
	Severity   float64  `json:"severity"`
	Symptoms   []string `json:"symptoms"`
}

// BearingInfo describes the bearing geometry assumed for fault frequencies.
type BearingInfo struct {
	Type            string  `json:"type" yaml:"type"`
	NumBalls        int     `json:"num_balls" yaml:"num_balls"`
	BallDiameterMM  float64 `json:"ball_diameter_mm" yaml:"ball_diameter_mm"`
	PitchDiameterMM float64 `json:"pitch_diameter_mm" yaml:"pitch_diameter_mm"`
}

// OperatingConditions records load and speed at capture time.
type OperatingConditions struct {
	LoadHP *float64 `json:"load_hp"`
	RPM    *float64 `json:"rpm"`
}

// SemanticPriors is static domain text attached by source dataset.
type SemanticPriors struct {
	MachineType                string              `json:"machine_type"`
	MachineDescription         string              `json:"machine_description"`
	TypicalFailureModes        []string            `json:"typical_failure_modes"`
	MaintenanceRecommendations []string            `json:"maintenance_recommendations"`
	OperatingConditions        OperatingConditions `json:"operating_conditions"`
	Bearing                    *BearingInfo        `json:"bearing_info,omitempty"`
}

// Episode is the canonical normalized record.
type Episode struct {
	EpisodeID     string
	Source        string
	SourceDataset string
	SourceFile    string
	RawChecksum   string

	MachineCode     string
	MachineInstance string

	TimestampStart  time.Time
	TimestampEnd    time.Time
	DurationSeconds float64
	SamplingRateHz  float64

	Steps        []Step
	ChannelNames []string
	ChannelUnits map[string]string

	State     StateAnnotation
	CauseCode string

	Features map[string]VibrationFeatures
	Priors   *SemanticPriors

	LoadHP      *float64
	RPM         *float64
	RawMetadata Metadata
}

// MetadataRecord is the JSON metadata document persisted per episode.
type MetadataRecord struct {
	EpisodeID       string            `json:"episode_id"`
	Source          string            `json:"source"`
	SourceDataset   string            `json:"source_dataset"`
	SourceFile      string            `json:"source_file"`
	RawChecksum     string            `json:"raw_checksum,omitempty"`
	MachineCode     string            `json:"machine_code"`
	MachineInstance string            `json:"machine_instance"`
	TimestampStart  time.Time         `json:"timestamp_start"`
	TimestampEnd    time.Time         `json:"timestamp_end"`
	DurationSeconds float64           `json:"duration_seconds"`
	SamplingRateHz  float64           `json:"sampling_rate_hz"`
	NumTimesteps    int               `json:"num_timesteps"`
	ChannelNames    []string          `json:"channel_names"`
	ChannelUnits    map[string]string `json:"channel_units"`
	State           StateAnnotation   `json:"state_annotation"`
	CauseCode       *string           `json:"cause_code"`
	LoadHP          *float64          `json:"load_hp"`
	RPM             *float64          `json:"rpm"`
	RawMetadata     Metadata          `json:"raw_metadata"`
}

// MetadataDocument returns the serialisable metadata view of e.
func (e *Episode) MetadataDocument() MetadataRecord {
	rec := MetadataRecord{
		EpisodeID:       e.EpisodeID,
		Source:          e.Source,
		SourceDataset:   e.SourceDataset,
		SourceFile:      e.SourceFile,
		RawChecksum:     e.RawChecksum,
		MachineCode:     e.MachineCode,
		MachineInstance: e.MachineInstance,
		TimestampStart:  e.TimestampStart,
		TimestampEnd:    e.TimestampEnd,
		DurationSeconds: e.DurationSeconds,
		SamplingRateHz:  e.SamplingRateHz,
		NumTimesteps:    len(e.Steps),
		ChannelNames:    nonNilStrings(e.ChannelNames),
		ChannelUnits:    e.ChannelUnits,
		State:           e.State,
		LoadHP:          e.LoadHP,
		RPM:             e.RPM,
		RawMetadata:     e.RawMetadata,
	}
	if rec.ChannelUnits == nil {
		rec.ChannelUnits = map[string]string{}
	}
	rec.State.Symptoms = nonNilStrings(rec.State.Symptoms)
	if e.CauseCode != "" {
		cause := e.CauseCode
		rec.CauseCode = &cause
	}
	return rec
}

// FeaturesDocument returns scalar features keyed by channel name.
func (e *Episode) FeaturesDocument() map[string]map[string]float64 {
	return ScalarFeatures(e.Features)
}

// ScalarFeatures drops the spectrum from each channel's features.
func ScalarFeatures(feats map[string]VibrationFeatures) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(feats))
	for name, feat := range feats {
		out[name] = feat.Scalars()
	}
	return out
}

// ChannelSeries extracts one channel across all steps, keeping positions.
// Missing and non-finite cells are nil.
func (e *Episode) ChannelSeries(name string) []*float64 {
	out := make([]*float64, len(e.Steps))
	for i, step := range e.Steps {
		if v, ok := step.Values[name]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = &v
		}
	}
	return out
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
