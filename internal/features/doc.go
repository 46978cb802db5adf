// Package features computes vibration condition-monitoring features from a
// single uniformly sampled channel.
//
// Extract produces time-domain statistics, a windowed one-sided magnitude
// spectrum with summary statistics, and, when shaft speed and bearing
// geometry are known, the spectrum amplitude near each theoretical bearing
// fault frequency. Extractors hold only their options, so one instance may
// be shared by any number of goroutines; ExtractBatch fans work out that way.
//
// EnvelopeSpectrum and ComputeStatistics are standalone helpers for
// demodulation analysis and quick summaries.
package features
