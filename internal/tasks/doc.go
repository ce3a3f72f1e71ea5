// Package tasks orchestrates the extract and migrate stages with real-time progress reporting.
//
// # Core Operations
//
// [Pipeline] exposes three operations:
//
//  1. [Pipeline.Extract] : Anghami playlist → artifact
//     - Drives the extractor against the playlist URL
//     - Writes the JSON artifact and the numbered review list
//     - Writes nothing when extraction fails
//
//  2. [Pipeline.Migrate] : artifact → Spotify playlist
//     - Matches every source track in order (exactly one result per track)
//     - Creates the destination playlist only when something matched
//     - Appends matches in batches of at most [services.MaxBatchSize]
//     - Always writes the JSON, text and CSV report, marked incomplete on failure
//
//  3. [Pipeline.Run] : Extract followed by Migrate
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Resume
//
// When migrating from an artifact, a [Checkpoint] is kept next to it. It records the destination playlist and
// the ids already appended, so a re-run after a failure reuses the playlist and only appends what is missing.
// MigrateOpts.Fresh discards it.
package tasks
