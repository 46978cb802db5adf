// Package pipeline sequences normalization, validation, Q&A generation, and
// storage for one dataset at a time.
//
// Per-episode failures are isolated: a bad record is logged with its raw ID,
// appended to Stats.Errors, and the run moves on. The run itself always
// returns a Stats value.
package pipeline
