package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/a2s/internal/matcher"
	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/services"
	"github.com/desertthunder/a2s/internal/shared"
)

// PlaylistWriteError is returned when the destination rejects playlist creation or an append.
// Added is the number of tracks that were in the playlist before the failure.
type PlaylistWriteError struct {
	PlaylistID string
	Added      int
	Err        error
}

func (e *PlaylistWriteError) Error() string {
	if e.PlaylistID == "" {
		return fmt.Sprintf("failed to create playlist: %v", e.Err)
	}
	return fmt.Sprintf("failed to add tracks to playlist %s after %d tracks: %v", e.PlaylistID, e.Added, e.Err)
}

func (e *PlaylistWriteError) Unwrap() []error {
	return []error{shared.ErrPlaylistWrite, e.Err}
}

// MigrationResult contains everything a migration produced, including partial runs.
type MigrationResult struct {
	RunID        string
	PlaylistName string
	Playlist     *models.Playlist // nil when nothing matched
	Results      []models.MatchResult
	Added        int // tracks from this record now in the playlist, across resumed runs
	Resumed      bool
	Completed    bool
}

// Matched returns the number of results with an accepted candidate.
func (r *MigrationResult) Matched() int {
	n := 0
	for _, res := range r.Results {
		if res.Matched() {
			n++
		}
	}
	return n
}

// MigratorOpts configures a [Migrator].
type MigratorOpts struct {
	RunID          string
	PlaylistName   string
	Description    string
	Public         bool
	BatchSize      int
	CheckpointPath string // empty disables resume
	Fresh          bool   // discard any existing checkpoint
	Logger         *log.Logger
}

// Migrator matches a playlist record against a catalog and writes the matches to a new playlist.
type Migrator struct {
	catalog services.Catalog
	matcher *matcher.Matcher
	opts    MigratorOpts
	log     *log.Logger
	now     func() time.Time
}

// NewMigrator creates a migrator. The matcher must search the same catalog.
func NewMigrator(catalog services.Catalog, m *matcher.Matcher, opts MigratorOpts) *Migrator {
	if opts.BatchSize <= 0 || opts.BatchSize > services.MaxBatchSize {
		opts.BatchSize = services.MaxBatchSize
	}
	if opts.RunID == "" {
		opts.RunID = shared.GenerateID()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Migrator{catalog: catalog, matcher: m, opts: opts, log: logger, now: time.Now}
}

// Migrate matches every track in source order, then creates the playlist (only if something
// matched) and appends the matches in batches. On error the returned result holds everything
// produced so far.
func (m *Migrator) Migrate(ctx context.Context, record *models.PlaylistRecord, progress chan<- ProgressUpdate) (*MigrationResult, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: nil playlist record", shared.ErrInvalidInput)
	}
	result := &MigrationResult{
		RunID:        m.opts.RunID,
		PlaylistName: m.opts.PlaylistName,
		Results:      make([]models.MatchResult, 0, len(record.Tracks)),
	}

	cp, err := m.checkpoint()
	if err != nil {
		return result, err
	}
	key := CheckpointKey(record, m.opts.PlaylistName)
	if cp != nil && cp.Key != key {
		m.log.Warn("checkpoint belongs to another migration; starting fresh",
			"checkpoint", cp.Source, "playlist", record.Name, "destination", m.opts.PlaylistName)
		cp = nil
	}

	total := len(record.Tracks)
	ids := make([]string, 0, total)
	for i, t := range record.Tracks {
		sendProgress(progress, matchTrackUpdate(i+1, total, t))

		res, err := m.matcher.Match(ctx, i, t)
		if err != nil {
			return result, fmt.Errorf("matching %q: %w", t.String(), err)
		}
		result.Results = append(result.Results, res)
		if res.Matched() {
			ids = append(ids, res.Match.ID)
		}
		sendProgress(progress, matchResultUpdate(i+1, total, res))
	}
	m.log.Info("matching finished", "matched", len(ids), "total", total)

	if len(ids) == 0 {
		m.log.Warn("no tracks matched; not creating a playlist")
		result.Completed = true
		return result, nil
	}

	if cp != nil && !hasPrefix(ids, cp.AddedIDs) {
		return result, fmt.Errorf("%w: playlist %s already holds tracks that no longer match in order; run again with --fresh",
			shared.ErrStaleCheckpoint, cp.Playlist.ID)
	}

	if cp != nil {
		result.Playlist = &cp.Playlist
		result.PlaylistName = cp.Playlist.Name
		result.Resumed = true
		sendProgress(progress, createPlaylistUpdate(result.Playlist, true))
		m.log.Info("resuming playlist", "id", cp.Playlist.ID, "already_added", len(cp.AddedIDs))
	} else {
		sendProgress(progress, createDestinationUpdate(m.opts.PlaylistName))
		pl, err := m.catalog.CreatePlaylist(ctx, m.opts.PlaylistName, m.opts.Description, m.opts.Public)
		if err != nil {
			return result, &PlaylistWriteError{Err: err}
		}
		result.Playlist = pl
		cp = &Checkpoint{RunID: m.opts.RunID, Source: record.Name, Key: key, Playlist: *pl, AddedIDs: []string{}}
		if err := m.save(cp); err != nil {
			return result, err
		}
		sendProgress(progress, createPlaylistUpdate(pl, false))
	}

	todo := ids[len(cp.AddedIDs):]
	result.Added = len(cp.AddedIDs)
	if len(todo) == 0 {
		m.log.Info("playlist already up to date", "id", cp.Playlist.ID)
	}

	for start := 0; start < len(todo); start += m.opts.BatchSize {
		end := min(start+m.opts.BatchSize, len(todo))
		batch := todo[start:end]

		if err := m.catalog.AddTracks(ctx, cp.Playlist.ID, batch); err != nil {
			return result, &PlaylistWriteError{PlaylistID: cp.Playlist.ID, Added: result.Added, Err: err}
		}
		result.Added += len(batch)
		cp.AddedIDs = append(cp.AddedIDs, batch...)
		if err := m.save(cp); err != nil {
			return result, err
		}
		sendProgress(progress, addTracksUpdate(result.Added, len(ids)))
		m.log.Debug("added batch", "size", len(batch), "added", result.Added)
	}

	cp.Completed = true
	if err := m.save(cp); err != nil {
		return result, err
	}
	result.Completed = true
	return result, nil
}

func (m *Migrator) checkpoint() (*Checkpoint, error) {
	path := m.opts.CheckpointPath
	if path == "" {
		return nil, nil
	}
	if m.opts.Fresh {
		return nil, RemoveCheckpoint(path)
	}
	return LoadCheckpoint(path)
}

func (m *Migrator) save(cp *Checkpoint) error {
	if m.opts.CheckpointPath == "" {
		return nil
	}
	cp.UpdatedAt = m.now().UTC()
	return SaveCheckpoint(m.opts.CheckpointPath, cp)
}
