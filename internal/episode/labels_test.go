package episode_test

import (
	"encoding/json"
	"testing"

	"factorynet/internal/episode"
)

func TestParseFaultType(t *testing.T) {
	cases := map[string]episode.FaultType{
		"normal":       episode.FaultNormal,
		"inner_race":   episode.FaultInnerRace,
		"Outer-Race":   episode.FaultOuterRace,
		" ball ":       episode.FaultBall,
		"misalignment": episode.FaultMisalignment,
		"unknown":      episode.FaultUnknown,
	}
	for input, want := range cases {
		got, err := episode.ParseFaultType(input)
		if err != nil {
			t.Fatalf("ParseFaultType(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseFaultType(%q) = %v, want %v", input, got, want)
		}
	}
	if _, err := episode.ParseFaultType("gearbox"); err == nil {
		t.Fatal("expected error for unknown fault type")
	}
}

func TestFaultTypesCoverEveryName(t *testing.T) {
	seen := map[string]bool{}
	for _, fault := range episode.FaultTypes() {
		seen[fault.String()] = true
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 distinct fault names, got %d", len(seen))
	}
}

func TestSeverityValue(t *testing.T) {
	want := map[episode.Severity]float64{
		episode.SeverityHealthy:  0,
		episode.SeverityMinor:    0.25,
		episode.SeverityModerate: 0.5,
		episode.SeveritySevere:   0.75,
		episode.SeverityCritical: 1,
	}
	for sev, value := range want {
		if got := sev.Value(); got != value {
			t.Fatalf("%v.Value() = %v, want %v", sev, got, value)
		}
	}
}

func TestLabelsJSONUseSnakeCaseNames(t *testing.T) {
	type labels struct {
		Fault    episode.FaultType `json:"fault"`
		Severity episode.Severity  `json:"severity"`
	}
	data, err := json.Marshal(labels{Fault: episode.FaultInnerRace, Severity: episode.SeveritySevere})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"fault":"inner_race","severity":"severe"}` {
		t.Fatalf("unexpected JSON: %s", data)
	}
	var decoded labels
	if err := json.Unmarshal([]byte(`{"fault":"cage","severity":"minor"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Fault != episode.FaultCage || decoded.Severity != episode.SeverityMinor {
		t.Fatalf("unexpected decode: %+v", decoded)
	}
	if err := json.Unmarshal([]byte(`{"fault":"bogus"}`), &decoded); err == nil {
		t.Fatal("expected error for unknown fault name")
	}
}
