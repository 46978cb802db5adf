// Package adapters turns external dataset files into raw episode streams.
//
// Adapters are registered explicitly on a Registry at startup; there is no
// package-level registration. The jsonl adapter reads one RawEpisode JSON
// object per line and is the format other converters are expected to emit.
package adapters
