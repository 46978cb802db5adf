package episode

// VibrationFeatures is the per-channel feature record. Zero value is the
// degenerate result for an empty channel.
type VibrationFeatures struct {
	Mean            float64 `json:"mean"`
	Std             float64 `json:"std"`
	RMS             float64 `json:"rms"`
	Peak            float64 `json:"peak"`
	PeakToPeak      float64 `json:"peak_to_peak"`
	CrestFactor     float64 `json:"crest_factor"`
	Kurtosis        float64 `json:"kurtosis"`
	Skewness        float64 `json:"skewness"`
	ShapeFactor     float64 `json:"shape_factor"`
	ImpulseFactor   float64 `json:"impulse_factor"`
	ClearanceFactor float64 `json:"clearance_factor"`

	DominantFrequencyHz float64 `json:"dominant_frequency_hz"`
	SpectralCentroidHz  float64 `json:"spectral_centroid_hz"`
	SpectralSpreadHz    float64 `json:"spectral_spread_hz"`
	SpectralEnergy      float64 `json:"spectral_energy"`

	BPFOAmplitude float64 `json:"bpfo_amplitude"`
	BPFIAmplitude float64 `json:"bpfi_amplitude"`
	BSFAmplitude  float64 `json:"bsf_amplitude"`
	FTFAmplitude  float64 `json:"ftf_amplitude"`

	// Leading one-sided spectrum bins, capped for storage.
	FFTFrequencies []float32 `json:"fft_frequencies,omitempty"`
	FFTMagnitudes  []float32 `json:"fft_magnitudes,omitempty"`
}

// Scalars returns the named scalar features without the stored spectrum.
func (f VibrationFeatures) Scalars() map[string]float64 {
	return map[string]float64{
		"mean":                  f.Mean,
		"std":                   f.Std,
		"rms":                   f.RMS,
		"peak":                  f.Peak,
		"peak_to_peak":          f.PeakToPeak,
		"crest_factor":          f.CrestFactor,
		"kurtosis":              f.Kurtosis,
		"skewness":              f.Skewness,
		"shape_factor":          f.ShapeFactor,
		"impulse_factor":        f.ImpulseFactor,
		"clearance_factor":      f.ClearanceFactor,
		"dominant_frequency_hz": f.DominantFrequencyHz,
		"spectral_centroid_hz":  f.SpectralCentroidHz,
		"spectral_spread_hz":    f.SpectralSpreadHz,
		"spectral_energy":       f.SpectralEnergy,
		"bpfo_amplitude":        f.BPFOAmplitude,
		"bpfi_amplitude":        f.BPFIAmplitude,
		"bsf_amplitude":         f.BSFAmplitude,
		"ftf_amplitude":         f.FTFAmplitude,
	}
}
