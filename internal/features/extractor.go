package features

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"factorynet/internal/episode"
	"factorynet/internal/services"
)

const (
	// DefaultMaxSpectrumPoints caps the stored spectrum length.
	DefaultMaxSpectrumPoints = 1000
	// DefaultToleranceBins is the bin radius searched around a fault frequency.
	DefaultToleranceBins = 2

	minSpectrumSamples = 10
	shapeEpsilon       = 1e-10
)

var (
	ErrNonFiniteSample     = fmt.Errorf("%w: non-finite sample", services.ErrValidation)
	ErrInvalidSamplingRate = fmt.Errorf("%w: sampling rate must be positive", services.ErrValidation)
)

// Window names the taper applied before the transform.
type Window string

const (
	WindowHann    Window = "hann"
	WindowHamming Window = "hamming"
	WindowNone    Window = "none"
)

// Options configures an Extractor.
type Options struct {
	// Window defaults to hann; "rectangular" is accepted as none.
	Window Window
	// FFTSize is the transform length; 0 selects the next power of two at or
	// above the sample count. Shorter sizes truncate the signal.
	FFTSize int
	// MaxSpectrumPoints defaults to DefaultMaxSpectrumPoints when zero.
	MaxSpectrumPoints int
	// ToleranceBins is used as given; zero reads the exact nearest bin.
	ToleranceBins int
}

// DefaultOptions returns the standard extraction settings.
func DefaultOptions() Options {
	return Options{
		Window:            WindowHann,
		MaxSpectrumPoints: DefaultMaxSpectrumPoints,
		ToleranceBins:     DefaultToleranceBins,
	}
}

// Extractor turns one channel into an episode.VibrationFeatures record.
type Extractor struct {
	opts Options
}

// New validates opts and returns an Extractor.
func New(opts Options) (*Extractor, error) {
	switch Window(strings.ToLower(strings.TrimSpace(string(opts.Window)))) {
	case "", WindowHann:
		opts.Window = WindowHann
	case WindowHamming:
		opts.Window = WindowHamming
	case WindowNone, "rectangular":
		opts.Window = WindowNone
	default:
		return nil, services.Wrap(services.ErrConfiguration, "features", "window", fmt.Sprintf("unsupported window %q", opts.Window), nil)
	}
	if opts.FFTSize < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "features", "fft size", "must be >= 0", nil)
	}
	if opts.MaxSpectrumPoints < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "features", "max spectrum points", "must be >= 0", nil)
	}
	if opts.MaxSpectrumPoints == 0 {
		opts.MaxSpectrumPoints = DefaultMaxSpectrumPoints
	}
	if opts.ToleranceBins < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "features", "tolerance bins", "must be >= 0", nil)
	}
	return &Extractor{opts: opts}, nil
}

// Options returns the effective settings.
func (e *Extractor) Options() Options { return e.opts }

// Extract computes features for samples recorded at rateHz. Bearing
// amplitudes are filled only when rpm is positive and geom is non-nil.
// An empty channel yields the zero record.
func (e *Extractor) Extract(samples []float64, rateHz float64, rpm *float64, geom *BearingGeometry) (episode.VibrationFeatures, error) {
	var out episode.VibrationFeatures
	if len(samples) == 0 {
		return out, nil
	}
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return out, fmt.Errorf("%w at index %d", ErrNonFiniteSample, i)
		}
	}
	if !(rateHz > 0) || math.IsInf(rateHz, 0) {
		return out, fmt.Errorf("%w: %v", ErrInvalidSamplingRate, rateHz)
	}

	// Moments and the transform run on the signal scaled to unit peak so
	// squares of large finite samples cannot overflow. Amplitude features
	// are scaled back and saturate at the largest finite value.
	scale := floats.Norm(samples, math.Inf(1))
	if scale == 0 {
		scale = 1
	}
	x := make([]float64, len(samples))
	for i, v := range samples {
		x[i] = v / scale
	}
	floats.AddConst(-floats.Sum(x)/float64(len(x)), x)

	timeDomain(x, scale, &out)

	if len(x) <= minSpectrumSamples {
		return out, nil
	}
	spec := e.spectrum(x, rateHz)
	spec.summarize(&out, scale)

	keep := min(len(spec.mags), e.opts.MaxSpectrumPoints)
	out.FFTFrequencies = make([]float32, keep)
	out.FFTMagnitudes = make([]float32, keep)
	for k := range keep {
		out.FFTFrequencies[k] = toFloat32(spec.freqs[k])
		out.FFTMagnitudes[k] = toFloat32(spec.mags[k] * scale)
	}

	if rpm != nil && *rpm > 0 && geom != nil {
		e.bearingAmplitudes(&out, geom.FaultFrequencies(*rpm), spec.resolution)
	}
	return out, nil
}

// timeDomain fills the time-domain features from x, the demeaned signal
// divided by scale.
func timeDomain(x []float64, scale float64, out *episode.VibrationFeatures) {
	n := float64(len(x))

	mean, std := stat.PopMeanStdDev(x, nil)
	out.Mean = saturate(mean * scale)
	out.Std = saturate(std * scale)
	out.RMS = saturate(math.Sqrt(floats.Dot(x, x)/n) * scale)
	out.PeakToPeak = saturate((floats.Max(x) - floats.Min(x)) * scale)

	var peak, sumAbs, sumSqrtAbs float64
	for _, v := range x {
		a := math.Abs(v)
		peak = max(peak, a)
		sumAbs += a
		sumSqrtAbs += math.Sqrt(a)
	}
	out.Peak = saturate(peak * scale)
	meanAbs := sumAbs / n
	rms := math.Sqrt(floats.Dot(x, x) / n)

	if rms > 0 {
		out.CrestFactor = peak / rms
		out.ShapeFactor = out.RMS / (saturate(meanAbs*scale) + shapeEpsilon)
	}

	if std > 0 {
		var m3, m4 float64
		for _, v := range x {
			z := (v - mean) / std
			z2 := z * z
			m3 += z2 * z
			m4 += z2 * z2
		}
		out.Skewness = m3 / n
		out.Kurtosis = m4 / n
	}

	if meanAbs > 0 {
		out.ImpulseFactor = peak / meanAbs
	}
	if sqrtMean := sumSqrtAbs / n; sqrtMean > 0 {
		out.ClearanceFactor = peak / (sqrtMean * sqrtMean)
	}
}

// saturate clamps an overflowed result to the largest finite float64 of the
// same sign.
func saturate(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.Copysign(math.MaxFloat64, v)
	}
	return v
}

func toFloat32(v float64) float32 {
	return float32(max(-math.MaxFloat32, min(v, math.MaxFloat32)))
}

type spectrum struct {
	freqs      []float64
	mags       []float64
	resolution float64
}

func (e *Extractor) spectrum(x []float64, rateHz float64) spectrum {
	n := len(x)
	nfft := e.opts.FFTSize
	if nfft == 0 {
		nfft = nextPowerOfTwo(n)
	}

	windowed := make([]float64, n)
	copy(windowed, x)
	switch e.opts.Window {
	case WindowHann:
		window.Hann(windowed)
	case WindowHamming:
		window.Hamming(windowed)
	}

	padded := make([]float64, nfft)
	copy(padded, windowed)

	coeffs := fourier.NewFFT(nfft).Coefficients(nil, padded)
	spec := spectrum{
		freqs:      make([]float64, len(coeffs)),
		mags:       make([]float64, len(coeffs)),
		resolution: rateHz / float64(nfft),
	}
	for k, c := range coeffs {
		spec.freqs[k] = float64(k) * spec.resolution
		spec.mags[k] = cmplx.Abs(c) / float64(n)
	}
	return spec
}

// summarize fills the spectral features. Magnitudes are relative to scale;
// frequencies are not.
func (s spectrum) summarize(out *episode.VibrationFeatures, scale float64) {
	if len(s.mags) > 1 {
		peak := 1 + floats.MaxIdx(s.mags[1:])
		if s.mags[peak] > 0 {
			out.DominantFrequencyHz = s.freqs[peak]
		}
	}

	total := floats.Sum(s.mags)
	if total > 0 {
		centroid := floats.Dot(s.freqs, s.mags) / total
		var spread float64
		for k, m := range s.mags {
			d := s.freqs[k] - centroid
			spread += d * d * m
		}
		out.SpectralCentroidHz = centroid
		out.SpectralSpreadHz = math.Sqrt(spread / total)
	}
	out.SpectralEnergy = saturate(floats.Dot(s.mags, s.mags) * scale * scale)
}

func (e *Extractor) bearingAmplitudes(out *episode.VibrationFeatures, freqs FaultFrequencies, resolution float64) {
	amplitude := func(target float64) float64 {
		stored := out.FFTMagnitudes
		if len(stored) == 0 || !(resolution > 0) {
			return 0
		}
		idx := int(target / resolution)
		start := max(0, idx-e.opts.ToleranceBins)
		end := min(len(stored), idx+e.opts.ToleranceBins+1)
		var peak float64
		for k := start; k < end; k++ {
			peak = max(peak, float64(stored[k]))
		}
		return peak
	}
	out.BPFOAmplitude = amplitude(freqs.BPFO)
	out.BPFIAmplitude = amplitude(freqs.BPFI)
	out.BSFAmplitude = amplitude(freqs.BSF)
	out.FTFAmplitude = amplitude(freqs.FTF)
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
