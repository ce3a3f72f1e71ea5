package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/a2s/internal/extractor"
	"github.com/desertthunder/a2s/internal/formatter"
	"github.com/desertthunder/a2s/internal/matcher"
	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/services"
	"github.com/desertthunder/a2s/internal/shared"
)

// MigrateOpts are the per-run choices for the migrate stage.
type MigrateOpts struct {
	Name     string // destination playlist name; falls back to the record name, then config
	Artifact string // artifact the record came from; its checkpoint enables resume
	Fresh    bool
}

// RunResult is the outcome of the migrate stage, including the written report.
type RunResult struct {
	Migration *MigrationResult
	Report    formatter.Report
	Files     *formatter.ReportFiles
}

// Pipeline wires the extract and migrate stages to the configured paths.
type Pipeline struct {
	cfg       *shared.Config
	extractor extractor.Extractor
	catalog   services.Catalog
	log       *log.Logger
	now       func() time.Time
}

// NewPipeline creates a pipeline. Either dependency may be nil when its stage is not used.
func NewPipeline(cfg *shared.Config, ex extractor.Extractor, catalog services.Catalog, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{cfg: cfg, extractor: ex, catalog: catalog, log: logger, now: time.Now}
}

// Extract scrapes playlistURL and writes the artifact and review list. Nothing is written on failure.
func (p *Pipeline) Extract(ctx context.Context, playlistURL string, progress chan<- ProgressUpdate) (*models.PlaylistRecord, error) {
	if p.extractor == nil {
		return nil, fmt.Errorf("%w: extractor not initialized", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, extractStartUpdate(playlistURL))
	record, err := p.extractor.Extract(ctx, playlistURL)
	if err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrExtraction, err)
	}

	if err := formatter.WriteArtifact(p.cfg.Paths.Artifact, record); err != nil {
		return nil, err
	}
	if p.cfg.Paths.Review != "" {
		if err := formatter.WriteReview(p.cfg.Paths.Review, record); err != nil {
			return nil, err
		}
	}
	p.log.Info("wrote artifact", "path", p.cfg.Paths.Artifact, "tracks", len(record.Tracks))

	sendProgress(progress, extractDoneUpdate(record))
	return record, nil
}

// MigrateArtifact reads the artifact at path and migrates it.
func (p *Pipeline) MigrateArtifact(ctx context.Context, path string, opts MigrateOpts, progress chan<- ProgressUpdate) (*RunResult, error) {
	if path == "" {
		path = p.cfg.Paths.Artifact
	}
	record, err := formatter.ReadArtifact(path)
	if err != nil {
		return nil, err
	}
	opts.Artifact = path
	return p.Migrate(ctx, record, opts, progress)
}

// Migrate matches record against the catalog, writes the playlist and always writes a report,
// marked incomplete when the run failed.
func (p *Pipeline) Migrate(ctx context.Context, record *models.PlaylistRecord, opts MigrateOpts, progress chan<- ProgressUpdate) (*RunResult, error) {
	if p.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: nil playlist record", shared.ErrInvalidInput)
	}

	matchOpts, err := matcher.OptionsFromConfig(p.cfg.Matching)
	if err != nil {
		return nil, err
	}

	runID := shared.GenerateID()
	logger := shared.WithLogger(p.log, "run", runID[:8])
	mopts := MigratorOpts{
		RunID:        runID,
		PlaylistName: p.playlistName(opts.Name, record),
		Description:  p.cfg.Migration.Description,
		Public:       p.cfg.Migration.Public,
		BatchSize:    p.cfg.Migration.BatchSize,
		Fresh:        opts.Fresh,
		Logger:       logger,
	}
	if opts.Artifact != "" {
		mopts.CheckpointPath = CheckpointPath(opts.Artifact)
	}

	m := NewMigrator(p.catalog, matcher.New(p.catalog, matchOpts, logger), mopts)
	migration, runErr := m.Migrate(ctx, record, progress)
	if migration == nil {
		return nil, runErr
	}

	meta := formatter.RunMeta{
		RunID:       runID,
		GeneratedAt: p.now(),
		Source:      record.Name,
		Destination: migration.PlaylistName,
		Added:       migration.Added,
		Completed:   migration.Completed,
		Err:         runErr,
	}
	if migration.Playlist != nil {
		meta.PlaylistID = migration.Playlist.ID
		meta.PlaylistURL = migration.Playlist.URL
	}

	result := &RunResult{Migration: migration, Report: formatter.BuildReport(meta, migration.Results)}
	files, err := formatter.WriteReport(p.cfg.Paths.ReportDir, result.Report)
	if err != nil {
		if runErr != nil {
			logger.Error("could not write report", "error", err)
			return result, runErr
		}
		return result, err
	}
	result.Files = files
	sendProgress(progress, reportUpdate(files))
	logger.Info("wrote report", "path", files.Text)

	return result, runErr
}

// Run extracts playlistURL and migrates the result.
func (p *Pipeline) Run(ctx context.Context, playlistURL string, opts MigrateOpts, progress chan<- ProgressUpdate) (*RunResult, error) {
	record, err := p.Extract(ctx, playlistURL, progress)
	if err != nil {
		return nil, err
	}
	opts.Artifact = p.cfg.Paths.Artifact
	return p.Migrate(ctx, record, opts, progress)
}

func (p *Pipeline) playlistName(flag string, record *models.PlaylistRecord) string {
	for _, name := range []string{flag, record.Name, p.cfg.Migration.PlaylistName} {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return "Anghami Playlist"
}
