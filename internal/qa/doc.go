// Package qa generates template question and answer pairs for normalized
// episodes.
package qa
