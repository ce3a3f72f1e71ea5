// Package models defines the data passed between the extraction and migration stages.
//
// Source side:
//   - [SourceTrack] : one scraped row (title, artist, optional album and duration)
//   - [PlaylistRecord] : playlist name plus ordered tracks; the intermediate artifact contract
//
// Destination side:
//   - [CandidateTrack] : a catalog search hit
//   - [MatchResult] : the accept/reject decision for one source track, with diagnostics
//
// Every [SourceTrack] in a [PlaylistRecord] yields exactly one [MatchResult], and results keep source order.
package models
