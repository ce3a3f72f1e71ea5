package tasks

import (
	"fmt"

	"github.com/desertthunder/a2s/internal/formatter"
	"github.com/desertthunder/a2s/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Extract Phase = iota
	Match
	CreatePlaylist
	AddTracks
	Report
)

func (p Phase) String() string {
	switch p {
	case Extract:
		return "extract"
	case Match:
		return "match"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case Report:
		return "report"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func extractStartUpdate(url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Extract,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Opening %s in the browser...", url),
	}
}

func extractDoneUpdate(record *models.PlaylistRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Extract,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Extracted playlist: %s (%d tracks)", record.Name, len(record.Tracks)),
		Data:    record,
	}
}

func matchTrackUpdate(step, total int, t models.SourceTrack) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Match,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, t),
	}
}

func matchResultUpdate(step, total int, res models.MatchResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✗ %s (%s)", step, total, res.Source, res.Reason)
	if res.Matched() {
		msg = fmt.Sprintf("[%d/%d] ✓ %s → %s - %s (%.2f)", step, total, res.Source, res.Match.ArtistString(), res.Match.Title, res.Confidence)
	}
	return ProgressUpdate{
		Phase:   Match,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func createDestinationUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func createPlaylistUpdate(pl *models.Playlist, resumed bool) ProgressUpdate {
	msg := fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID)
	if resumed {
		msg = fmt.Sprintf("Resuming playlist: %s (ID: %s)", pl.Name, pl.ID)
	}
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    pl,
	}
}

func addTracksUpdate(added, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    added,
		Total:   total,
		Message: fmt.Sprintf("Added %d/%d tracks", added, total),
	}
}

func reportUpdate(files *formatter.ReportFiles) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Report,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Report written: %s", files.Text),
		Data:    files,
	}
}
