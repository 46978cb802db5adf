// Package store persists normalized episodes, their Q&A pairs, and dataset
// validation reports in a SQLite database under the output directory.
//
// Writes are upserts: saving an episode again replaces the row keyed by
// (source_dataset, episode_id), and saving a report replaces the dataset's
// previous report. A file lock next to the database keeps a second process
// from opening the same store.
package store
