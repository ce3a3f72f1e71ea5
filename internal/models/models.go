package models

import (
	"fmt"
	"strings"
)

// SourceTrack is a track scraped from the source playlist. Album and DurationMS are nil when the page did not show them.
type SourceTrack struct {
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Album      *string `json:"album"`
	DurationMS *int    `json:"duration_ms"`
}

// Key identifies a track for de-duplication within a scrape.
func (t SourceTrack) Key() string {
	return strings.ToLower(strings.TrimSpace(t.Title)) + "|" + strings.ToLower(strings.TrimSpace(t.Artist))
}

// String renders the track as "Artist - Title".
func (t SourceTrack) String() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

// PlaylistRecord is the ordered output of extraction and the input to migration.
type PlaylistRecord struct {
	Name   string        `json:"playlist_name"`
	Tracks []SourceTrack `json:"tracks"`
}

// Validate reports structural problems: a missing name or tracks without a title.
func (p *PlaylistRecord) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("playlist name is empty")
	}
	for i, t := range p.Tracks {
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("track %d has no title", i+1)
		}
	}
	return nil
}

// CandidateTrack is a destination catalog search result.
type CandidateTrack struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	DurationMS int      `json:"duration_ms,omitempty"`
	ISRC       string   `json:"isrc,omitempty"`
}

// ArtistString joins the candidate's artists with ", ".
func (c CandidateTrack) ArtistString() string {
	return strings.Join(c.Artists, ", ")
}

// MatchStatus is the outcome of matching one source track.
type MatchStatus string

const (
	StatusMatched  MatchStatus = "matched"
	StatusNotFound MatchStatus = "not_found"
)

// Reasons recorded on [StatusNotFound] results.
const (
	ReasonNoResults      = "no_results"
	ReasonBelowThreshold = "below_threshold"
	ReasonInvalidTrack   = "invalid_track"
)

// MatchResult pairs a source track with the accepted candidate, or with the reason none was accepted.
type MatchResult struct {
	Position   int             `json:"position"`
	Source     SourceTrack     `json:"source"`
	Status     MatchStatus     `json:"status"`
	Match      *CandidateTrack `json:"match,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Query      string          `json:"query,omitempty"`
	Queries    []string        `json:"queries,omitempty"`
	Reason     string          `json:"reason,omitempty"`

	BestScore     float64         `json:"best_score,omitempty"`
	BestCandidate *CandidateTrack `json:"best_candidate,omitempty"`
}

// Matched reports whether a candidate was accepted.
func (r MatchResult) Matched() bool {
	return r.Status == StatusMatched && r.Match != nil
}

// Playlist is a playlist created on the destination service.
type Playlist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}
