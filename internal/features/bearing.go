package features

import (
	"math"
	"slices"
	"strings"

	"factorynet/internal/episode"
)

// BearingGeometry holds the rolling-element dimensions needed to predict
// fault characteristic frequencies.
type BearingGeometry struct {
	NumBalls        int
	BallDiameterMM  float64
	PitchDiameterMM float64
	ContactAngleDeg float64
}

// FaultFrequencies are the theoretical characteristic frequencies in Hz.
type FaultFrequencies struct {
	BPFO float64
	BPFI float64
	BSF  float64
	FTF  float64
}

// FaultFrequencies evaluates the classic kinematic formulas at rpm.
func (g BearingGeometry) FaultFrequencies(rpm float64) FaultFrequencies {
	shaft := rpm / 60
	n := float64(g.NumBalls)
	d := g.BallDiameterMM
	D := g.PitchDiameterMM
	if D == 0 || d == 0 {
		return FaultFrequencies{}
	}
	ratio := (d / D) * math.Cos(g.ContactAngleDeg*math.Pi/180)
	return FaultFrequencies{
		BPFO: n / 2 * shaft * (1 - ratio),
		BPFI: n / 2 * shaft * (1 + ratio),
		BSF:  D / (2 * d) * shaft * (1 - ratio*ratio),
		FTF:  shaft / 2 * (1 - ratio),
	}
}

// Info describes the geometry for semantic priors.
func (g BearingGeometry) Info(model string) episode.BearingInfo {
	return episode.BearingInfo{
		Type:            model,
		NumBalls:        g.NumBalls,
		BallDiameterMM:  g.BallDiameterMM,
		PitchDiameterMM: g.PitchDiameterMM,
	}
}

var bearingCatalog = map[string]BearingGeometry{
	// SKF 6205-2RS, used on the CWRU rig.
	"6205": {NumBalls: 9, BallDiameterMM: 7.94, PitchDiameterMM: 39.04},
	"6206": {NumBalls: 9, BallDiameterMM: 9.53, PitchDiameterMM: 46.64},
	"6208": {NumBalls: 9, BallDiameterMM: 12.7, PitchDiameterMM: 60.0},
}

// LookupBearing returns the catalogued geometry for a bearing model number.
func LookupBearing(model string) (BearingGeometry, bool) {
	g, ok := bearingCatalog[strings.TrimSpace(model)]
	return g, ok
}

// BearingModels lists catalogued model numbers in sorted order.
func BearingModels() []string {
	models := make([]string, 0, len(bearingCatalog))
	for model := range bearingCatalog {
		models = append(models, model)
	}
	slices.Sort(models)
	return models
}
