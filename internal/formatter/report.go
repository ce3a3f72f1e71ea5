package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/shared"
)

// RunMeta describes the migration run a report covers.
type RunMeta struct {
	RunID       string
	GeneratedAt time.Time
	Source      string
	Destination string
	PlaylistID  string
	PlaylistURL string
	Added       int
	Completed   bool
	Err         error
}

// Summary holds the report totals. MatchRate is a percentage.
type Summary struct {
	Total     int     `json:"total_songs"`
	Matched   int     `json:"found_songs"`
	NotFound  int     `json:"not_found_songs"`
	Added     int     `json:"added_songs"`
	MatchRate float64 `json:"success_rate"`
}

// Entry is one [models.MatchResult] flattened for reporting. Found entries always carry
// Confidence and not-found entries always carry BestScore, even when it is zero.
type Entry struct {
	Position   int      `json:"position"`
	Title      string   `json:"title"`
	Artist     string   `json:"artist"`
	Status     string   `json:"status"`
	MatchID    string   `json:"spotify_id,omitempty"`
	MatchURI   string   `json:"spotify_uri,omitempty"`
	MatchTitle string   `json:"spotify_title,omitempty"`
	MatchBy    string   `json:"spotify_artist,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Query      string   `json:"query,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	BestScore  *float64 `json:"best_score,omitempty"`
	BestTitle  string   `json:"best_title,omitempty"`
	BestBy     string   `json:"best_artist,omitempty"`
	Queries    []string `json:"search_queries,omitempty"`
}

// Report is the outcome of a migration run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source_playlist"`
	Destination string    `json:"destination_playlist"`
	PlaylistID  string    `json:"playlist_id,omitempty"`
	PlaylistURL string    `json:"playlist_url,omitempty"`
	Completed   bool      `json:"completed"`
	Error       string    `json:"error,omitempty"`
	Summary     Summary   `json:"summary"`
	Found       []Entry   `json:"found_tracks"`
	NotFound    []Entry   `json:"not_found_tracks"`
}

// BuildReport derives a [Report] from the match results alone; it performs no I/O.
func BuildReport(meta RunMeta, results []models.MatchResult) Report {
	r := Report{
		RunID:       meta.RunID,
		GeneratedAt: meta.GeneratedAt,
		Source:      meta.Source,
		Destination: meta.Destination,
		PlaylistID:  meta.PlaylistID,
		PlaylistURL: meta.PlaylistURL,
		Completed:   meta.Completed,
		Found:       []Entry{},
		NotFound:    []Entry{},
	}
	if meta.Err != nil {
		r.Error = meta.Err.Error()
	}

	for _, res := range results {
		e := Entry{
			Position: res.Position + 1,
			Title:    res.Source.Title,
			Artist:   res.Source.Artist,
			Status:   string(res.Status),
			Reason:   res.Reason,
			Query:    res.Query,
			Queries:  res.Queries,
		}
		if res.Matched() {
			e.MatchID = res.Match.ID
			e.MatchURI = res.Match.URI
			e.MatchTitle = res.Match.Title
			e.MatchBy = res.Match.ArtistString()
			e.Confidence = score(res.Confidence)
			r.Found = append(r.Found, e)
			continue
		}
		e.BestScore = score(res.BestScore)
		if res.BestCandidate != nil {
			e.BestTitle = res.BestCandidate.Title
			e.BestBy = res.BestCandidate.ArtistString()
		}
		r.NotFound = append(r.NotFound, e)
	}

	r.Summary = Summary{
		Total:    len(results),
		Matched:  len(r.Found),
		NotFound: len(r.NotFound),
		Added:    meta.Added,
	}
	if r.Summary.Total > 0 {
		r.Summary.MatchRate = round3(float64(r.Summary.Matched) / float64(r.Summary.Total) * 100)
	}
	return r
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func score(v float64) *float64 {
	rounded := round3(v)
	return &rounded
}

// Score returns the entry's confidence when matched and its best candidate score otherwise.
func (e Entry) Score() float64 {
	p := e.BestScore
	if e.Status == string(models.StatusMatched) {
		p = e.Confidence
	}
	if p == nil {
		return 0
	}
	return *p
}

// RenderReportJSON encodes the report as indented JSON.
func RenderReportJSON(r Report) ([]byte, error) {
	data, err := shared.MarshalJSON(r, true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderReportText renders the human-readable report.
func RenderReportText(r Report) []byte {
	var buf bytes.Buffer
	line := strings.Repeat("═", 39)

	fmt.Fprintf(&buf, "%s\nMIGRATION REPORT\n%s\n", line, line)
	fmt.Fprintf(&buf, "Run: %s\n", r.RunID)
	fmt.Fprintf(&buf, "Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Source: %s\n", r.Source)
	fmt.Fprintf(&buf, "Destination: %s\n", r.Destination)
	if r.PlaylistURL != "" {
		fmt.Fprintf(&buf, "Playlist: %s\n", r.PlaylistURL)
	}
	if !r.Completed {
		buf.WriteString("Status: INCOMPLETE")
		if r.Error != "" {
			fmt.Fprintf(&buf, " (%s)", r.Error)
		}
		buf.WriteByte('\n')
	}

	buf.WriteString("\nSUMMARY\n")
	fmt.Fprintf(&buf, "Total songs: %d\n", r.Summary.Total)
	fmt.Fprintf(&buf, "Found: %d\n", r.Summary.Matched)
	fmt.Fprintf(&buf, "Not found: %d\n", r.Summary.NotFound)
	fmt.Fprintf(&buf, "Added to playlist: %d\n", r.Summary.Added)
	fmt.Fprintf(&buf, "Success rate: %.1f%%\n", r.Summary.MatchRate)

	if len(r.Found) > 0 {
		fmt.Fprintf(&buf, "\nFOUND (%d)\n", len(r.Found))
		for _, e := range r.Found {
			fmt.Fprintf(&buf, "%d. %s - %s\n", e.Position, e.Title, e.Artist)
			fmt.Fprintf(&buf, "   → %s - %s (confidence %.2f)\n", e.MatchTitle, e.MatchBy, e.Score())
		}
	}

	if len(r.NotFound) > 0 {
		fmt.Fprintf(&buf, "\nNOT FOUND (%d)\n", len(r.NotFound))
		for _, e := range r.NotFound {
			fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", e.Position, e.Title, e.Artist, e.Reason)
			if e.BestTitle != "" {
				fmt.Fprintf(&buf, "   closest: %s - %s (score %.2f)\n", e.BestTitle, e.BestBy, e.Score())
			}
		}
	}

	return buf.Bytes()
}

// RenderReportCSV writes one row per result, matched and unmatched, in source order.
func RenderReportCSV(r Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artist", "Status", "SpotifyID", "SpotifyTitle", "SpotifyArtist", "Score", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	rows := append(append([]Entry{}, r.Found...), r.NotFound...)
	sortEntries(rows)
	for _, e := range rows {
		title, by := e.MatchTitle, e.MatchBy
		if e.Status != string(models.StatusMatched) {
			title, by = e.BestTitle, e.BestBy
		}
		record := []string{
			strconv.Itoa(e.Position), e.Title, e.Artist, e.Status, e.MatchID,
			title, by, strconv.FormatFloat(e.Score(), 'f', 3, 64), e.Reason,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
}

// ReportFiles contains the paths written by [WriteReport].
type ReportFiles struct {
	JSON string
	Text string
	CSV  string
}

// WriteReport writes migration_report_<YYYYMMDD_HHMMSS>.{json,txt,csv} into dir.
func WriteReport(dir string, r Report) (*ReportFiles, error) {
	if dir == "" {
		dir = "."
	}
	base := filepath.Join(dir, "migration_report_"+shared.Timestamp(r.GeneratedAt))
	files := &ReportFiles{JSON: base + ".json", Text: base + ".txt", CSV: base + ".csv"}

	data, err := RenderReportJSON(r)
	if err != nil {
		return nil, err
	}
	if err := shared.WriteFileAtomic(files.JSON, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write JSON report: %w", err)
	}

	if err := shared.WriteFileAtomic(files.Text, RenderReportText(r), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write text report: %w", err)
	}

	csvData, err := RenderReportCSV(r)
	if err != nil {
		return nil, err
	}
	if err := shared.WriteFileAtomic(files.CSV, csvData, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write CSV report: %w", err)
	}

	return files, nil
}
