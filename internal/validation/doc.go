// Package validation scores canonical episodes against schema, completeness,
// quality, taxonomy, and consistency rules and applies the quality gate.
//
// Issues are data, not errors: a Result always comes back, and only
// ERROR-severity issues affect the pass/fail decision alongside the
// completeness and confidence thresholds.
package validation
