package validation

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"factorynet/internal/episode"
	"factorynet/internal/services"
	"factorynet/internal/taxonomy"
)

// Thresholds configure the quality gate and the completeness rules.
type Thresholds struct {
	SensorCompleteness float64
	LabelConfidence    float64
	MinSteps           int
	MaxMissingRatio    float64
}

// DefaultThresholds returns the standard gate: 95% sensor completeness,
// 0.85 label confidence, 100 steps, 5% missing cells.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SensorCompleteness: 0.95,
		LabelConfidence:    0.85,
		MinSteps:           100,
		MaxMissingRatio:    0.05,
	}
}

const durationTolerance = 1.0

// Validator checks episodes against fixed rules and configurable thresholds.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	thresholds Thresholds
	now        func() time.Time
}

// New rejects out-of-range thresholds.
func New(thresholds Thresholds) (*Validator, error) {
	for _, bound := range []struct {
		name  string
		value float64
	}{
		{"sensor completeness", thresholds.SensorCompleteness},
		{"label confidence", thresholds.LabelConfidence},
		{"max missing ratio", thresholds.MaxMissingRatio},
	} {
		if math.IsNaN(bound.value) || bound.value < 0 || bound.value > 1 {
			return nil, services.Wrap(services.ErrConfiguration, "validator", "thresholds",
				fmt.Sprintf("%s must be within [0,1], got %v", bound.name, bound.value), nil)
		}
	}
	if thresholds.MinSteps < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "validator", "thresholds",
			fmt.Sprintf("min steps must be >= 0, got %d", thresholds.MinSteps), nil)
	}
	return &Validator{thresholds: thresholds, now: time.Now}, nil
}

// Thresholds returns the configured gate.
func (v *Validator) Thresholds() Thresholds { return v.thresholds }

// Validate runs every rule family against ep and applies the gate.
func (v *Validator) Validate(ep *episode.Episode) Result {
	var issues []Issue
	issues = append(issues, v.checkSchema(ep)...)
	issues = append(issues, v.checkCompleteness(ep)...)
	issues = append(issues, v.checkQuality(ep)...)
	issues = append(issues, v.checkTaxonomy(ep)...)
	issues = append(issues, v.checkConsistency(ep)...)

	result := Result{
		EpisodeID:           ep.EpisodeID,
		Issues:              issues,
		SensorCompleteness:  sensorCompleteness(ep),
		LabelConfidence:     ep.State.Confidence,
		FeatureCompleteness: featureCompleteness(ep),
		ValidatedAt:         v.now().UTC(),
	}
	result.QualityScore = 0.4*result.SensorCompleteness +
		0.3*result.LabelConfidence +
		0.3*result.FeatureCompleteness
	result.Valid = result.ErrorCount() == 0 &&
		result.SensorCompleteness >= v.thresholds.SensorCompleteness &&
		result.LabelConfidence >= v.thresholds.LabelConfidence
	return result
}

func (v *Validator) checkSchema(ep *episode.Episode) []Issue {
	var issues []Issue
	required := func(field, value, message string) {
		if strings.TrimSpace(value) == "" {
			issues = append(issues, Issue{Category: CategorySchema, Severity: SeverityError, Field: field, Message: message})
		}
	}
	required("episode_id", ep.EpisodeID, "Episode ID is required")
	required("source_dataset", ep.SourceDataset, "Source dataset is required")
	required("machine_code", ep.MachineCode, "Machine code is required")

	if !(ep.SamplingRateHz > 0) {
		issues = append(issues, Issue{
			Category: CategorySchema,
			Severity: SeverityError,
			Field:    "sampling_rate_hz",
			Message:  "Sampling rate must be positive",
			Value:    formatFloat(ep.SamplingRateHz),
		})
	}
	if ep.DurationSeconds < 0 || math.IsNaN(ep.DurationSeconds) {
		issues = append(issues, Issue{
			Category: CategorySchema,
			Severity: SeverityError,
			Field:    "duration_seconds",
			Message:  "Duration cannot be negative",
			Value:    formatFloat(ep.DurationSeconds),
		})
	}
	return issues
}

func (v *Validator) checkCompleteness(ep *episode.Episode) []Issue {
	var issues []Issue
	if len(ep.Steps) < v.thresholds.MinSteps {
		issues = append(issues, Issue{
			Category: CategoryCompleteness,
			Severity: SeverityWarning,
			Field:    "steps",
			Message:  fmt.Sprintf("Episode has fewer than %d time steps", v.thresholds.MinSteps),
			Value:    strconv.Itoa(len(ep.Steps)),
		})
	}
	if len(ep.ChannelNames) == 0 {
		issues = append(issues, Issue{
			Category: CategoryCompleteness,
			Severity: SeverityError,
			Field:    "channel_names",
			Message:  "No sensor channels found",
		})
	}
	if strings.TrimSpace(ep.State.Code) == "" {
		issues = append(issues, Issue{
			Category: CategoryCompleteness,
			Severity: SeverityWarning,
			Field:    "state_annotation.state_code",
			Message:  "State code is empty",
		})
	}
	return issues
}

func (v *Validator) checkQuality(ep *episode.Episode) []Issue {
	var issues []Issue
	if cells := len(ep.Steps) * len(ep.ChannelNames); cells > 0 {
		missing := cells - presentCells(ep)
		ratio := float64(missing) / float64(cells)
		if ratio > v.thresholds.MaxMissingRatio {
			issues = append(issues, Issue{
				Category:   CategoryQuality,
				Severity:   SeverityWarning,
				Field:      "steps",
				Message:    fmt.Sprintf("High missing-value ratio (%.2f%%) in sensor data", ratio*100),
				Value:      formatFloat(ratio),
				Suggestion: "Check data source for missing values",
			})
		}
	}
	if ep.State.Confidence < v.thresholds.LabelConfidence {
		issues = append(issues, Issue{
			Category: CategoryQuality,
			Severity: SeverityWarning,
			Field:    "state_annotation.confidence",
			Message:  fmt.Sprintf("Label confidence below threshold (%v)", v.thresholds.LabelConfidence),
			Value:    formatFloat(ep.State.Confidence),
		})
	}
	return issues
}

func (v *Validator) checkTaxonomy(ep *episode.Episode) []Issue {
	var issues []Issue
	check := func(family taxonomy.Family, field, kind, code string, severity Severity) {
		if code == "" || taxonomy.HasValidPrefix(family, code) {
			return
		}
		issues = append(issues, Issue{
			Category:   CategoryTaxonomy,
			Severity:   severity,
			Field:      field,
			Message:    fmt.Sprintf("Unknown %s code prefix: %s", kind, taxonomy.Prefix(code)),
			Value:      code,
			Suggestion: "Valid prefixes: " + strings.Join(taxonomy.ValidPrefixes(family), ", "),
		})
	}
	check(taxonomy.FamilyState, "state_annotation.state_code", "state", ep.State.Code, SeverityWarning)
	check(taxonomy.FamilyMachine, "machine_code", "machine", ep.MachineCode, SeverityWarning)
	check(taxonomy.FamilyCause, "cause_code", "cause", ep.CauseCode, SeverityWarning)
	for _, symptom := range ep.State.Symptoms {
		check(taxonomy.FamilySymptom, "state_annotation.symptoms", "symptom", symptom, SeverityInfo)
	}
	return issues
}

func (v *Validator) checkConsistency(ep *episode.Episode) []Issue {
	var issues []Issue
	if len(ep.Steps) > 0 && ep.SamplingRateHz > 0 {
		computed := float64(len(ep.Steps)) / ep.SamplingRateHz
		if math.Abs(ep.DurationSeconds-computed) > durationTolerance {
			issues = append(issues, Issue{
				Category: CategoryConsistency,
				Severity: SeverityWarning,
				Field:    "duration_seconds",
				Message:  fmt.Sprintf("Duration mismatch: stated %.2fs, computed %.2fs", ep.DurationSeconds, computed),
				Value:    formatFloat(ep.DurationSeconds),
			})
		}
	}
	if len(ep.Steps) > 0 && len(ep.ChannelNames) > 0 {
		if missing := undeclaredInSteps(ep); len(missing) > 0 {
			issues = append(issues, Issue{
				Category: CategoryConsistency,
				Severity: SeverityInfo,
				Field:    "channel_names",
				Message:  fmt.Sprintf("Declared channels not found in data: %s", strings.Join(missing, ", ")),
				Value:    strings.Join(missing, ","),
			})
		}
	}
	return issues
}

// undeclaredInSteps returns declared channel names that appear in no step,
// sorted. The scan stops once every name has been seen.
func undeclaredInSteps(ep *episode.Episode) []string {
	pending := make(map[string]struct{}, len(ep.ChannelNames))
	for _, name := range ep.ChannelNames {
		pending[name] = struct{}{}
	}
	for _, step := range ep.Steps {
		for name := range pending {
			if _, ok := step.Values[name]; ok {
				delete(pending, name)
			}
		}
		if len(pending) == 0 {
			return nil
		}
	}
	missing := make([]string, 0, len(pending))
	for name := range pending {
		missing = append(missing, name)
	}
	slices.Sort(missing)
	return missing
}

// presentCells counts declared channel cells holding a non-NaN value.
func presentCells(ep *episode.Episode) int {
	present := 0
	for _, step := range ep.Steps {
		for _, name := range ep.ChannelNames {
			if value, ok := step.Values[name]; ok && !math.IsNaN(value) {
				present++
			}
		}
	}
	return present
}

func sensorCompleteness(ep *episode.Episode) float64 {
	cells := len(ep.Steps) * len(ep.ChannelNames)
	if cells == 0 {
		return 0
	}
	return float64(presentCells(ep)) / float64(cells)
}

func featureCompleteness(ep *episode.Episode) float64 {
	if len(ep.ChannelNames) == 0 {
		return 0
	}
	covered := 0
	for _, name := range ep.ChannelNames {
		if _, ok := ep.Features[name]; ok {
			covered++
		}
	}
	return float64(covered) / float64(len(ep.ChannelNames))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
