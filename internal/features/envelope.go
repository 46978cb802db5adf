package features

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// EnvelopeSpectrum demodulates a band of the signal and returns the one-sided
// spectrum of its envelope. Bearing defects show up as peaks at their fault
// frequencies even when the raw spectrum is dominated by structural
// resonance.
//
// The band defaults to a quarter and three quarters of Nyquist when lowHz or
// highHz is zero. Returned frequencies and magnitudes have len(samples)/2+1
// entries; magnitudes are normalized by the sample count.
func EnvelopeSpectrum(samples []float64, rateHz, lowHz, highHz float64) ([]float64, []float64, error) {
	n := len(samples)
	if n < 2 {
		return nil, nil, nil
	}
	if !(rateHz > 0) {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSamplingRate, rateHz)
	}
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("%w at index %d", ErrNonFiniteSample, i)
		}
	}
	nyquist := rateHz / 2
	if lowHz == 0 {
		lowHz = nyquist / 4
	}
	if highHz == 0 {
		highHz = nyquist * 3 / 4
	}

	seq := make([]complex128, n)
	for i, v := range samples {
		seq[i] = complex(v, 0)
	}
	cfft := fourier.NewCmplxFFT(n)
	coeffs := cfft.Coefficients(nil, seq)

	// Band-limit and keep only strictly positive frequencies, doubled, which
	// yields the analytic signal after the inverse transform.
	lastPositive := (n - 1) / 2
	for k := range coeffs {
		freq := float64(k) * rateHz / float64(n)
		if k > lastPositive {
			freq = float64(k-n) * rateHz / float64(n)
		}
		abs := math.Abs(freq)
		if abs < lowHz || abs > highHz || freq <= 0 {
			coeffs[k] = 0
			continue
		}
		coeffs[k] *= 2
	}
	analytic := cfft.Sequence(nil, coeffs)

	envelope := make([]float64, n)
	for i, c := range analytic {
		envelope[i] = cmplx.Abs(c) / float64(n)
	}
	floats.AddConst(-floats.Sum(envelope)/float64(n), envelope)

	envCoeffs := fourier.NewFFT(n).Coefficients(nil, envelope)
	freqs := make([]float64, len(envCoeffs))
	mags := make([]float64, len(envCoeffs))
	for k, c := range envCoeffs {
		freqs[k] = float64(k) * rateHz / float64(n)
		mags[k] = cmplx.Abs(c) / float64(n)
	}
	return freqs, mags, nil
}
