// Package normalizer converts adapter output into canonical episodes.
//
// A Normalizer owns the session-scoped episode ID counter and seen-set, so
// one instance should be passed by reference to whichever caller drives
// normalization. It is not safe for concurrent use.
package normalizer
