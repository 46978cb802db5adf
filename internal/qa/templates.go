package qa

import (
	"fmt"
	"strings"

	"factorynet/internal/episode"
)

// Question categories in generation order.
const (
	CategoryFaultIdentification = "fault_identification"
	CategorySeverityAssessment  = "severity_assessment"
	CategoryFeatureAnalysis     = "feature_analysis"
	CategoryRootCause           = "root_cause"
	CategoryMaintenanceAction   = "maintenance_action"
	CategoryOperatingConditions = "operating_conditions"
)

// Categories lists every category in generation order.
func Categories() []string {
	return []string{
		CategoryFaultIdentification,
		CategorySeverityAssessment,
		CategoryFeatureAnalysis,
		CategoryRootCause,
		CategoryMaintenanceAction,
		CategoryOperatingConditions,
	}
}

// Difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Criticality levels.
const (
	CriticalityLow      = "low"
	CriticalityMedium   = "medium"
	CriticalityHigh     = "high"
	CriticalityCritical = "critical"
)

// Expertise areas.
const (
	ExpertiseVibration  = "vibration_analysis"
	ExpertiseBearing    = "bearing_diagnostics"
	ExpertiseMachinery  = "machinery_maintenance"
	ExpertiseSignal     = "signal_processing"
	ExpertiseRootCause  = "root_cause_analysis"
	ExpertisePredictive = "predictive_maintenance"
)

// facts is everything a template may draw on, derived once per episode.
type facts struct {
	fault    episode.FaultType
	severity episode.Severity
	location string

	// features is nil when the episode has no extracted features.
	features *episode.VibrationFeatures
	rpm      *float64
	loadHP   *float64
}

func (f facts) faultText() string {
	return strings.ReplaceAll(f.fault.String(), "_", " ")
}

type template struct {
	difficulty  string
	criticality string
	expertise   []string
	// needs reports whether the episode carries the facts the template uses.
	needs       func(facts) bool
	question    func(facts) string
	answer      func(facts) string
}

func always(facts) bool        { return true }
func hasFeatures(f facts) bool { return f.features != nil }
func hasRPM(f facts) bool      { return f.rpm != nil }
func hasLoad(f facts) bool     { return f.loadHP != nil }
func hasSpectrum(f facts) bool { return f.features != nil && f.rpm != nil && *f.rpm > 0 }
func isFault(f facts) bool     { return f.fault != episode.FaultNormal }

func constant(s string) func(facts) string {
	return func(facts) string { return s }
}

var templates = map[string][]template{
	CategoryFaultIdentification: {
		{
			difficulty: DifficultyMedium, criticality: CriticalityHigh,
			expertise: []string{ExpertiseVibration, ExpertiseBearing},
			needs:     always,
			question: func(f facts) string {
				return fmt.Sprintf("Based on the vibration signal from the %s, what type of bearing fault is present?", f.location)
			},
			answer: func(f facts) string {
				return fmt.Sprintf("The vibration signal indicates %s. Key indicators include %s.", f.faultText(), indicators(f.fault, 2))
			},
		},
		{
			difficulty: DifficultyMedium, criticality: CriticalityHigh,
			expertise: []string{ExpertiseVibration},
			needs:     always,
			question:  constant("Analyze the vibration signature and identify the fault condition."),
			answer: func(f facts) string {
				return fmt.Sprintf("The analysis indicates %s with %s severity. %s", f.faultText(), f.severity, reasoning(f.fault))
			},
		},
		{
			difficulty: DifficultyEasy, criticality: CriticalityMedium,
			expertise: []string{ExpertiseBearing},
			needs:     always,
			question:  constant("What fault pattern can you identify from this bearing vibration data?"),
			answer: func(f facts) string {
				return fmt.Sprintf("%s. The characteristic features are: %s.", capitalize(f.faultText()), describeFeatures(f))
			},
		},
	},
	CategorySeverityAssessment: {
		{
			difficulty: DifficultyMedium, criticality: CriticalityHigh,
			expertise: []string{ExpertiseBearing, ExpertisePredictive},
			needs:     always,
			question:  constant("What is the severity level of the detected bearing fault?"),
			answer: func(f facts) string {
				return fmt.Sprintf("The fault severity is %s. %s", f.severity, reasoning(f.fault))
			},
		},
		{
			difficulty: DifficultyMedium, criticality: CriticalityCritical,
			expertise: []string{ExpertiseMachinery, ExpertisePredictive},
			needs:     always,
			question:  constant("How urgent is maintenance action required based on this data?"),
			answer: func(f facts) string {
				return fmt.Sprintf("Maintenance urgency: %s. The %s fault level suggests %s.",
					urgency[f.severity], f.severity, strings.ToLower(recommendation[f.severity]))
			},
		},
		{
			difficulty: DifficultyEasy, criticality: CriticalityMedium,
			expertise: []string{ExpertiseBearing},
			needs:     always,
			question:  constant("Rate the condition of this bearing on a scale from healthy to critical."),
			answer: func(f facts) string {
				return fmt.Sprintf("Bearing condition: %s. %s", f.severity, reasoning(f.fault))
			},
		},
	},
	CategoryFeatureAnalysis: {
		{
			difficulty: DifficultyMedium, criticality: CriticalityMedium,
			expertise: []string{ExpertiseVibration, ExpertiseSignal},
			needs:     hasFeatures,
			question: func(f facts) string {
				return fmt.Sprintf("What does the RMS value of %.4f indicate about the vibration level?", f.features.RMS)
			},
			answer: func(f facts) string {
				return fmt.Sprintf("The RMS value of %.4f indicates %s. %s", f.features.RMS, interpretRMS(f.features.RMS), compareToBaseline(f.features.RMS))
			},
		},
		{
			difficulty: DifficultyHard, criticality: CriticalityMedium,
			expertise: []string{ExpertiseSignal, ExpertiseVibration},
			needs:     hasFeatures,
			question: func(f facts) string {
				return fmt.Sprintf("The kurtosis value is %.2f. What does this suggest about the signal?", f.features.Kurtosis)
			},
			answer: func(f facts) string {
				return fmt.Sprintf("A kurtosis of %.2f %s. %s", f.features.Kurtosis, interpretKurtosis(f.features.Kurtosis), frequencySignificance(f.fault))
			},
		},
		{
			difficulty: DifficultyHard, criticality: CriticalityHigh,
			expertise: []string{ExpertiseVibration, ExpertiseSignal},
			needs:     hasSpectrum,
			question: func(f facts) string {
				return fmt.Sprintf("Interpret the dominant frequency of %.1f Hz in relation to the %.0f RPM shaft speed.", f.features.DominantFrequencyHz, *f.rpm)
			},
			answer: func(f facts) string {
				shaft := *f.rpm / 60
				return fmt.Sprintf("The dominant frequency of %.1f Hz is %.2f times the %.2f Hz shaft frequency. %s",
					f.features.DominantFrequencyHz, f.features.DominantFrequencyHz/shaft, shaft, frequencySignificance(f.fault))
			},
		},
	},
	CategoryRootCause: {
		{
			difficulty: DifficultyHard, criticality: CriticalityHigh,
			expertise: []string{ExpertiseRootCause, ExpertiseBearing},
			needs:     isFault,
			question: func(f facts) string {
				return fmt.Sprintf("What is the most likely root cause of this %s fault?", f.faultText())
			},
			answer: func(f facts) string {
				return fmt.Sprintf("The most likely cause is %s. Contributing factors include: %s.", lookup(likelyCause, f.fault, "unknown failure mechanism"),
					lookup(contributingFactors, f.fault, "operating conditions, maintenance history"))
			},
		},
		{
			difficulty: DifficultyHard, criticality: CriticalityHigh,
			expertise: []string{ExpertiseRootCause},
			needs:     isFault,
			question:  constant("What failure mechanism is indicated by this vibration pattern?"),
			answer: func(f facts) string {
				return fmt.Sprintf("The pattern indicates %s. This typically results from cyclic loading, material fatigue, and environmental factors.",
					lookup(failureMechanism, f.fault, "progressive degradation"))
			},
		},
	},
	CategoryMaintenanceAction: {
		{
			difficulty: DifficultyMedium, criticality: CriticalityCritical,
			expertise: []string{ExpertiseMachinery, ExpertisePredictive},
			needs:     always,
			question:  constant("What maintenance action should be taken for this bearing condition?"),
			answer: func(f facts) string {
				return fmt.Sprintf("Recommended action: %s. Priority: %s. Based on %s severity level.", maintenanceAction[f.severity], urgency[f.severity], f.severity)
			},
		},
		{
			difficulty: DifficultyMedium, criticality: CriticalityCritical,
			expertise: []string{ExpertiseMachinery},
			needs:     always,
			question:  constant("Should this bearing be replaced immediately, scheduled for replacement, or monitored?"),
			answer: func(f facts) string {
				return fmt.Sprintf("%s. Rationale: The %s condition and %s pattern indicate this action.", recommendation[f.severity], f.severity, f.fault)
			},
		},
		{
			difficulty: DifficultyEasy, criticality: CriticalityMedium,
			expertise: []string{ExpertisePredictive},
			needs:     always,
			question:  constant("What is the recommended monitoring interval for this bearing?"),
			answer: func(f facts) string {
				return fmt.Sprintf("Recommended interval: %s. %s", monitoringInterval[f.severity], reasoning(f.fault))
			},
		},
	},
	CategoryOperatingConditions: {
		{
			difficulty: DifficultyHard, criticality: CriticalityMedium,
			expertise: []string{ExpertiseMachinery, ExpertiseBearing},
			needs:     hasLoad,
			question: func(f facts) string {
				return fmt.Sprintf("How does the %g HP load affect the bearing fault characteristics?", *f.loadHP)
			},
			answer: func(f facts) string {
				return fmt.Sprintf("At %g HP load, %s. %s", *f.loadHP, loadEffect(f.severity), recommendation[f.severity])
			},
		},
		{
			difficulty: DifficultyMedium, criticality: CriticalityMedium,
			expertise: []string{ExpertiseMachinery},
			needs:     hasRPM,
			question: func(f facts) string {
				return fmt.Sprintf("Is the bearing operating within normal parameters at %.0f RPM?", *f.rpm)
			},
			answer: func(f facts) string {
				assessment := "No - fault detected"
				analysis := fmt.Sprintf("fault frequencies scale with the %.0f RPM shaft speed", *f.rpm)
				if f.severity == episode.SeverityHealthy {
					assessment = "Yes"
				}
				if f.fault == episode.FaultNormal {
					analysis = fmt.Sprintf("vibration levels are normal for %.0f RPM operation", *f.rpm)
				}
				return fmt.Sprintf("%s. At %.0f RPM, %s.", assessment, *f.rpm, analysis)
			},
		},
	},
}

var faultIndicators = map[episode.FaultType][]string{
	episode.FaultInnerRace: {
		"elevated BPFI (Ball Pass Frequency Inner) amplitude",
		"modulation with shaft speed",
		"harmonics at multiples of BPFI",
	},
	episode.FaultOuterRace: {
		"elevated BPFO (Ball Pass Frequency Outer) amplitude",
		"stationary defect pattern",
		"consistent amplitude levels",
	},
	episode.FaultBall: {
		"elevated BSF (Ball Spin Frequency) amplitude",
		"2x BSF sidebands",
		"non-synchronous vibration",
	},
	episode.FaultCage: {
		"elevated FTF (Fundamental Train Frequency) amplitude",
		"sub-synchronous vibration",
		"unstable amplitude modulation",
	},
	episode.FaultNormal: {
		"baseline vibration levels",
		"no significant fault frequencies",
		"normal kurtosis values",
	},
}

var recommendation = map[episode.Severity]string{
	episode.SeverityHealthy:  "Continue normal monitoring",
	episode.SeverityMinor:    "Increase monitoring frequency",
	episode.SeverityModerate: "Schedule maintenance within 2-4 weeks",
	episode.SeveritySevere:   "Schedule maintenance within 1 week",
	episode.SeverityCritical: "Immediate action required",
}

var urgency = map[episode.Severity]string{
	episode.SeverityHealthy:  "None - routine monitoring only",
	episode.SeverityMinor:    "Low - monitor for progression",
	episode.SeverityModerate: "Medium - plan maintenance",
	episode.SeveritySevere:   "High - schedule prompt maintenance",
	episode.SeverityCritical: "Immediate - risk of failure",
}

var maintenanceAction = map[episode.Severity]string{
	episode.SeverityHealthy:  "Continue routine monitoring",
	episode.SeverityMinor:    "Monitor condition; prepare replacement bearing",
	episode.SeverityModerate: "Plan bearing replacement; increase monitoring",
	episode.SeveritySevere:   "Schedule bearing replacement within 1 week",
	episode.SeverityCritical: "Immediate bearing replacement",
}

var monitoringInterval = map[episode.Severity]string{
	episode.SeverityHealthy:  "Monthly",
	episode.SeverityMinor:    "Weekly",
	episode.SeverityModerate: "Every 3 days",
	episode.SeveritySevere:   "Daily",
	episode.SeverityCritical: "Continuous until replacement",
}

var likelyCause = map[episode.FaultType]string{
	episode.FaultInnerRace: "fatigue spalling from cyclic stress concentration",
	episode.FaultOuterRace: "localized fatigue failure in load zone",
	episode.FaultBall:      "surface fatigue from rolling contact stress",
	episode.FaultCage:      "wear from inadequate lubrication or contamination",
}

var contributingFactors = map[episode.FaultType]string{
	episode.FaultInnerRace: "misalignment, excessive preload, contamination",
	episode.FaultOuterRace: "improper mounting, static overload, corrosion",
	episode.FaultBall:      "lubrication breakdown, contamination, material defects",
	episode.FaultCage:      "poor lubrication, high speed, improper clearance",
}

var failureMechanism = map[episode.FaultType]string{
	episode.FaultInnerRace: "rolling contact fatigue with subsurface crack propagation",
	episode.FaultOuterRace: "Hertzian contact stress exceeding material limits",
	episode.FaultBall:      "surface pitting and spalling from contact fatigue",
	episode.FaultCage:      "wear and plastic deformation from friction",
}

func lookup(table map[episode.FaultType]string, fault episode.FaultType, fallback string) string {
	if v, ok := table[fault]; ok {
		return v
	}
	return fallback
}

func indicators(fault episode.FaultType, n int) string {
	list, ok := faultIndicators[fault]
	if !ok {
		return "characteristic vibration pattern"
	}
	return strings.Join(list[:min(n, len(list))], ", ")
}

func reasoning(fault episode.FaultType) string {
	switch fault {
	case episode.FaultInnerRace:
		return "The BPFI amplitude and shaft speed modulation confirm inner race defect."
	case episode.FaultOuterRace:
		return "The BPFO presence with consistent amplitude indicates outer race fault."
	case episode.FaultBall:
		return "The BSF and its harmonics indicate rolling element damage."
	case episode.FaultCage:
		return "Sub-synchronous vibration at FTF indicates cage degradation."
	case episode.FaultNormal:
		return "No significant fault frequencies detected; baseline vibration levels observed."
	default:
		return "Vibration pattern indicates potential fault condition."
	}
}

func describeFeatures(f facts) string {
	var parts []string
	if f.features != nil {
		if rms := f.features.RMS; rms > 0.5 {
			parts = append(parts, fmt.Sprintf("elevated RMS of %.3f", rms))
		} else {
			parts = append(parts, fmt.Sprintf("RMS of %.3f", rms))
		}
		switch k := f.features.Kurtosis; {
		case k > 5:
			parts = append(parts, fmt.Sprintf("high kurtosis (%.1f)", k))
		case k > 3.5:
			parts = append(parts, fmt.Sprintf("moderate kurtosis (%.1f)", k))
		}
	}
	if f.fault != episode.FaultNormal {
		parts = append(parts, "characteristic fault frequencies")
	}
	if len(parts) == 0 {
		return "vibration analysis results"
	}
	return strings.Join(parts, ", ")
}

func interpretRMS(rms float64) string {
	switch {
	case rms > 1.0:
		return "very high vibration requiring immediate attention"
	case rms > 0.5:
		return "elevated vibration suggesting fault presence"
	case rms > 0.2:
		return "moderate vibration within acceptable limits"
	default:
		return "low vibration indicating good condition"
	}
}

func compareToBaseline(rms float64) string {
	switch {
	case rms > 0.5:
		return "This exceeds typical baseline values by a significant margin."
	case rms > 0.2:
		return "This is slightly above typical baseline values."
	default:
		return "This is within expected baseline range."
	}
}

func interpretKurtosis(k float64) string {
	switch {
	case k > 5:
		return "indicates impulsive behavior typical of bearing faults"
	case k > 3.5:
		return "suggests developing fault with periodic impacts"
	default:
		return "is near the normal Gaussian value of 3.0"
	}
}

func frequencySignificance(fault episode.FaultType) string {
	switch fault {
	case episode.FaultInnerRace:
		return "This frequency relationship confirms inner race fault."
	case episode.FaultOuterRace:
		return "This matches the expected BPFO for outer race defect."
	case episode.FaultBall:
		return "The frequency indicates ball spin frequency fault."
	default:
		return "The frequency pattern is consistent with the identified condition."
	}
}

func loadEffect(s episode.Severity) string {
	switch s {
	case episode.SeveritySevere, episode.SeverityCritical:
		return "higher loads accelerate fault progression"
	case episode.SeverityModerate:
		return "load affects fault frequency amplitude"
	default:
		return "load is within normal operating range"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
