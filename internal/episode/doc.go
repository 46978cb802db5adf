// Package episode defines the shared data model that flows through the
// normalization pipeline.
//
// RawEpisode is what a format adapter hands over: dataset-local identity,
// uniformly sampled SensorChannels, fault and severity labels, optional
// operating conditions, and a free-form ordered Metadata map. Episode is the
// canonical record the Normalizer builds from exactly one RawEpisode; it is
// read-only once constructed and is consumed by validation, Q&A generation,
// and storage.
package episode
