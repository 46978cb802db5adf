// Package taxonomy holds the fixed hierarchical code tables used to label
// episodes: machine state, machine type, cause, and symptom codes.
//
// Codes are dot-separated paths such as "S.flt.mec.wea.bea.inn". The first two
// segments form the prefix checked by validation.
package taxonomy

import (
	"slices"
	"strings"

	"factorynet/internal/episode"
)

const (
	// DefaultMachineCode labels datasets missing from the machine table.
	DefaultMachineCode = "M.tst.bea"
	// SeededDefectCause marks faults that were introduced artificially on a
	// test rig.
	SeededDefectCause = "C.tes.art"
	// ElevatedVibration is attached to every non-normal fault.
	ElevatedVibration = "Y.vib.hig"
)

var stateCodes = map[episode.FaultType]string{
	episode.FaultNormal:       "S.nom.run",
	episode.FaultInnerRace:    "S.flt.mec.wea.bea.inn",
	episode.FaultOuterRace:    "S.flt.mec.wea.bea.out",
	episode.FaultBall:         "S.flt.mec.wea.bea.bal",
	episode.FaultCage:         "S.flt.mec.wea.bea.cag",
	episode.FaultCombined:     "S.flt.mec.wea.bea",
	episode.FaultImbalance:    "S.flt.mec.imb",
	episode.FaultMisalignment: "S.flt.mec.mis",
	episode.FaultLooseness:    "S.flt.mec.loo",
	episode.FaultUnknown:      "S.unk",
}

var machineCodes = map[string]string{
	"cwru_bearing":      "M.tst.bea.cwru",
	"paderborn_bearing": "M.tst.bea.paderborn",
	"mafaulda":          "M.tst.rot.mafaulda",
	"xjtu_sy":           "M.tst.bea.xjtu",
	"phm_2010":          "M.tst.cnc.phm2010",
	"nasa_ims":          "M.tst.bea.ims",
	"aursad":            "M.rob.col.ur.ur3e",
	"ur3e_pickplace":    "M.rob.col.ur.ur3e",
	"phm2021_scara":     "M.rob.ind.scara.phm2021",
}

var faultSymptoms = map[episode.FaultType]string{
	episode.FaultInnerRace:    "Y.vib.hig.bea.bpfi",
	episode.FaultOuterRace:    "Y.vib.hig.bea.bpfo",
	episode.FaultBall:         "Y.vib.hig.bea.bsf",
	episode.FaultCage:         "Y.vib.hig.bea.ftf",
	episode.FaultImbalance:    "Y.vib.hig.1x",
	episode.FaultMisalignment: "Y.vib.hig.2x",
}

var (
	statePrefixes   = []string{"S.nom", "S.flt", "S.deg", "S.unk"}
	machinePrefixes = []string{"M.rob", "M.cnc", "M.tst", "M.sen"}
	causePrefixes   = []string{"C.mai", "C.ope", "C.env", "C.tes", "C.unk"}
	symptomPrefixes = []string{"Y.vib", "Y.the", "Y.aco", "Y.vis"}
)

// StateCode maps a fault type to its state code. Unlisted values map to "S.unk".
func StateCode(fault episode.FaultType) string {
	if code, ok := stateCodes[fault]; ok {
		return code
	}
	return stateCodes[episode.FaultUnknown]
}

// FaultForState is the inverse of StateCode. Unlisted codes report false.
func FaultForState(code string) (episode.FaultType, bool) {
	for fault, c := range stateCodes {
		if c == code {
			return fault, true
		}
	}
	return episode.FaultUnknown, false
}

// MachineCode maps a source dataset name to its machine code.
func MachineCode(dataset string) string {
	if code, ok := machineCodes[dataset]; ok {
		return code
	}
	return DefaultMachineCode
}

// Symptoms returns the symptom codes implied by a fault type: the specific
// characteristic-frequency symptom when one applies, then the generic
// elevated vibration symptom for any non-normal fault.
func Symptoms(fault episode.FaultType) []string {
	symptoms := make([]string, 0, 2)
	if code, ok := faultSymptoms[fault]; ok {
		symptoms = append(symptoms, code)
	}
	if fault != episode.FaultNormal {
		symptoms = append(symptoms, ElevatedVibration)
	}
	return symptoms
}

// CauseCode returns the seeded-defect cause for any non-normal fault and ""
// otherwise.
func CauseCode(fault episode.FaultType) string {
	if fault == episode.FaultNormal {
		return ""
	}
	return SeededDefectCause
}

// Prefix returns the first two segments of a code.
func Prefix(code string) string {
	parts := strings.SplitN(code, ".", 3)
	if len(parts) < 2 {
		return code
	}
	return parts[0] + "." + parts[1]
}

// Family selects which prefix set a code is checked against.
type Family int

const (
	FamilyState Family = iota
	FamilyMachine
	FamilyCause
	FamilySymptom
)

// ValidPrefixes returns the accepted two-segment prefixes for a family.
func ValidPrefixes(family Family) []string {
	switch family {
	case FamilyState:
		return slices.Clone(statePrefixes)
	case FamilyMachine:
		return slices.Clone(machinePrefixes)
	case FamilyCause:
		return slices.Clone(causePrefixes)
	case FamilySymptom:
		return slices.Clone(symptomPrefixes)
	default:
		return nil
	}
}

// HasValidPrefix reports whether code starts with one of the family's prefixes.
func HasValidPrefix(family Family, code string) bool {
	return slices.Contains(ValidPrefixes(family), Prefix(code))
}
