package episode

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"
)

const checksumEdgeSamples = 100

// RawEpisode is one recording as emitted by a format adapter, before
// normalization.
type RawEpisode struct {
	RawID         string `json:"raw_id"`
	SourceDataset string `json:"source_dataset"`
	SourceFile    string `json:"source_file"`

	Timestamp       *time.Time `json:"timestamp,omitempty"`
	DurationSeconds float64    `json:"duration_seconds,omitempty"`

	Channels []SensorChannel `json:"channels"`

	FaultType     FaultType `json:"fault_type"`
	FaultLocation string    `json:"fault_location,omitempty"`
	Severity      Severity  `json:"severity"`

	LoadHP *float64 `json:"load_hp,omitempty"`
	RPM    *float64 `json:"rpm,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// EffectiveDuration returns the stated duration, or the first channel's
// length divided by its rate when none was stated.
func (r *RawEpisode) EffectiveDuration() float64 {
	if r.DurationSeconds != 0 || len(r.Channels) == 0 {
		return r.DurationSeconds
	}
	return r.Channels[0].Duration()
}

// NumSamples totals samples across all channels.
func (r *RawEpisode) NumSamples() int {
	total := 0
	for _, ch := range r.Channels {
		total += len(ch.Samples)
	}
	return total
}

// Checksum fingerprints the episode from its identity and the first and last
// samples of every channel. Used to spot re-ingested recordings.
func (r *RawEpisode) Checksum() string {
	h := md5.New()
	h.Write([]byte(r.SourceDataset))
	h.Write([]byte(r.RawID))
	var word [8]byte
	writeSample := func(v float64) {
		binary.LittleEndian.PutUint64(word[:], math.Float64bits(v))
		h.Write(word[:])
	}
	for _, ch := range r.Channels {
		h.Write([]byte(ch.Name))
		head := ch.Samples[:min(checksumEdgeSamples, len(ch.Samples))]
		tail := ch.Samples[max(0, len(ch.Samples)-checksumEdgeSamples):]
		for _, v := range head {
			writeSample(v)
		}
		for _, v := range tail {
			writeSample(v)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
