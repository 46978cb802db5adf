package episode

import (
	"fmt"
	"strings"
)

// FaultType is the closed set of condition labels adapters may assign.
type FaultType int

const (
	FaultUnknown FaultType = iota
	FaultNormal
	FaultInnerRace
	FaultOuterRace
	FaultBall
	FaultCage
	FaultCombined
	FaultImbalance
	FaultMisalignment
	FaultLooseness
)

var faultNames = map[FaultType]string{
	FaultUnknown:      "unknown",
	FaultNormal:       "normal",
	FaultInnerRace:    "inner_race",
	FaultOuterRace:    "outer_race",
	FaultBall:         "ball",
	FaultCage:         "cage",
	FaultCombined:     "combined",
	FaultImbalance:    "imbalance",
	FaultMisalignment: "misalignment",
	FaultLooseness:    "looseness",
}

// FaultTypes lists every fault type in declaration order.
func FaultTypes() []FaultType {
	return []FaultType{
		FaultNormal, FaultInnerRace, FaultOuterRace, FaultBall, FaultCage,
		FaultCombined, FaultImbalance, FaultMisalignment, FaultLooseness, FaultUnknown,
	}
}

// String returns the snake_case name.
func (f FaultType) String() string {
	if name, ok := faultNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FaultType(%d)", int(f))
}

// ParseFaultType accepts snake_case names; hyphens and spaces are treated as
// underscores.
func ParseFaultType(value string) (FaultType, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for fault, name := range faultNames {
		if name == key {
			return fault, nil
		}
	}
	return FaultUnknown, fmt.Errorf("unknown fault type %q", value)
}

func (f FaultType) MarshalText() ([]byte, error) {
	if _, ok := faultNames[f]; !ok {
		return nil, fmt.Errorf("invalid fault type %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *FaultType) UnmarshalText(text []byte) error {
	parsed, err := ParseFaultType(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Severity grades how far a fault has progressed.
type Severity int

const (
	SeverityHealthy Severity = iota
	SeverityMinor
	SeverityModerate
	SeveritySevere
	SeverityCritical
)

var severityNames = [...]string{"healthy", "minor", "moderate", "severe", "critical"}

func (s Severity) String() string {
	if s >= SeverityHealthy && int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Value maps the grade onto [0,1] in 0.25 steps.
func (s Severity) Value() float64 {
	if s < SeverityHealthy || s > SeverityCritical {
		return 0
	}
	return float64(s) * 0.25
}

// ParseSeverity accepts the lowercase grade names.
func ParseSeverity(value string) (Severity, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	for i, name := range severityNames {
		if name == key {
			return Severity(i), nil
		}
	}
	return SeverityHealthy, fmt.Errorf("unknown severity %q", value)
}

func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityHealthy || s > SeverityCritical {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
