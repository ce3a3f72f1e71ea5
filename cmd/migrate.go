package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/a2s/internal/extractor"
	"github.com/desertthunder/a2s/internal/services"
	"github.com/desertthunder/a2s/internal/shared"
	"github.com/desertthunder/a2s/internal/tasks"
)

// Run extracts the playlist at --url and migrates it to Spotify.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	catalog, done, err := r.newCatalog(ctx)
	if err != nil {
		return err
	}
	defer done()

	p := tasks.NewPipeline(r.config, r.newExtractor(true), catalog, r.logger)
	opts := tasks.MigrateOpts{Name: cmd.String("name"), Fresh: cmd.Bool("fresh")}

	r.logger.Info("starting migration", "url", cmd.String("url"))
	progress, wait := r.printProgress(cmd.Bool("json"))
	result, err := p.Run(ctx, cmd.String("url"), opts, progress)
	close(progress)
	wait()

	return r.finish(result, err, cmd.Bool("json"))
}

// Extract scrapes the playlist at --url into the artifact file.
func (r *Runner) Extract(ctx context.Context, cmd *cli.Command) error {
	cfg := *r.config
	if out := cmd.String("output"); out != "" {
		cfg.Paths.Artifact = out
	}

	p := tasks.NewPipeline(&cfg, r.newExtractor(true), nil, r.logger)
	progress, wait := r.printProgress(cmd.Bool("json"))
	record, err := p.Extract(ctx, cmd.String("url"), progress)
	close(progress)
	wait()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(record, true)
	}

	r.writePlain("\n✓ Extracted %d tracks from %q\n", len(record.Tracks), record.Name)
	r.writePlain("  Artifact: %s\n", cfg.Paths.Artifact)
	if cfg.Paths.Review != "" {
		r.writePlain("  Review list: %s\n", cfg.Paths.Review)
	}
	r.writePlain("\nRun 'a2s migrate' to create the Spotify playlist.\n")
	return nil
}

// Migrate migrates a previously extracted artifact.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	catalog, done, err := r.newCatalog(ctx)
	if err != nil {
		return err
	}
	defer done()

	p := tasks.NewPipeline(r.config, nil, catalog, r.logger)
	opts := tasks.MigrateOpts{Name: cmd.String("name"), Fresh: cmd.Bool("fresh")}

	progress, wait := r.printProgress(cmd.Bool("json"))
	result, err := p.MigrateArtifact(ctx, cmd.String("artifact"), opts, progress)
	close(progress)
	wait()

	return r.finish(result, err, cmd.Bool("json"))
}

// newExtractor returns the injected extractor or a Chromium-backed one. Without stored cookies an
// interactive run pauses on the login page until the user presses Enter.
func (r *Runner) newExtractor(interactive bool) extractor.Extractor {
	if r.extractor != nil {
		return r.extractor
	}

	opts := extractor.OptionsFromConfig(r.config.Extractor)
	opts.Logger = shared.WithLogger(r.logger, "stage", "extract")
	if cookie := r.config.Credentials.Anghami.Cookie; cookie != "" {
		opts.Cookies = shared.ParseCookieString(cookie)
	} else if interactive {
		opts.AwaitLogin = func(ctx context.Context) error {
			r.writePlain("→ Log in to Anghami in the browser window, then press Enter to continue...\n")
			return r.waitForEnter(ctx)
		}
	}
	return extractor.New(extractor.ChromeFactory(extractor.ChromeOptsFromConfig(r.config.Extractor)), opts)
}

// newCatalog returns the injected catalog or a Spotify client built from the stored token.
// The returned func persists the token if it was refreshed during the run.
func (r *Runner) newCatalog(ctx context.Context) (services.Catalog, func(), error) {
	if r.catalog != nil {
		return r.catalog, func() {}, nil
	}

	creds := r.config.Credentials.Spotify
	auth, err := services.NewAuthenticator(creds)
	if err != nil {
		return nil, nil, err
	}
	tok := creds.Token()
	if tok == nil {
		return nil, nil, fmt.Errorf("%w: no Spotify token stored; run 'a2s auth' first", shared.ErrNotAuthenticated)
	}

	logger := shared.WithLogger(r.logger, "service", "spotify")
	transport := services.NewRetryTransport(r.httpClient.Transport, r.config.Migration.MaxRetries, r.config.Migration.Backoff(), logger)
	catalog := services.NewSpotifyCatalog(services.SpotifyOpts{
		HTTPClient:        services.NewAuthorizedClient(ctx, auth, tok, transport),
		RequestsPerSecond: r.config.Migration.RequestsPerSecond,
		Logger:            logger,
	})

	done := func() {
		current, err := catalog.Token()
		if err != nil || current.AccessToken == tok.AccessToken {
			return
		}
		if err := r.saveTokens(current); err != nil {
			r.logger.Warn("could not save refreshed token", "error", err)
		}
	}
	return catalog, done, nil
}

// printProgress prints updates as they arrive; quiet only drains them so JSON output stays clean.
// Call the returned func after closing the channel to wait for the last line.
func (r *Runner) printProgress(quiet bool) (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		for update := range progress {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.Extract:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Match:
				if update.Data != nil {
					r.writePlain("   %s\n", update.Message)
				} else if update.Step == 1 {
					r.writePlain("\n🔍 Searching Spotify for %d tracks\n", update.Total)
				}
			case tasks.CreatePlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.AddTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.Report:
				r.writePlain("\n📄 %s\n", update.Message)
			}
		}
	}()

	return progress, func() { <-finished }
}

// finish prints the run summary, including for failed runs that still produced a report.
func (r *Runner) finish(result *tasks.RunResult, err error, asJSON bool) error {
	if result != nil {
		if asJSON {
			if jsonErr := r.writeJSON(result.Report, true); jsonErr != nil {
				return jsonErr
			}
		} else {
			r.printSummary(result)
		}
	}

	if errors.Is(err, shared.ErrTokenExpired) {
		r.writePlainln("⚠ Spotify rejected the stored token. Run 'a2s auth' and then 'a2s migrate' to resume.")
	} else if err != nil && result != nil && result.Migration != nil && result.Migration.Playlist != nil {
		r.writePlainln("⚠ Progress was saved. Run 'a2s migrate' again to resume the same playlist.")
	}
	return err
}

func (r *Runner) printSummary(result *tasks.RunResult) {
	rep := result.Report
	title := "Migration Complete!"
	if !rep.Completed {
		title = "Migration Incomplete"
	}

	r.writePlain("\n")
	r.writePlainHeader(title)
	r.writePlain("Source: %s\n", rep.Source)
	r.writePlain("Destination: %s\n", rep.Destination)
	if rep.PlaylistURL != "" {
		r.writePlain("Playlist: %s\n", rep.PlaylistURL)
	}
	r.writePlain("Found: %d/%d (%.1f%%)\n", rep.Summary.Matched, rep.Summary.Total, rep.Summary.MatchRate)
	r.writePlain("Added: %d\n", rep.Summary.Added)

	if len(rep.NotFound) > 0 {
		r.writePlain("\nNot found (%d):\n", len(rep.NotFound))
		for _, e := range rep.NotFound {
			r.writePlain("  - %s - %s [%s]\n", e.Title, e.Artist, e.Reason)
		}
	}
	if result.Files != nil {
		r.writePlain("\nReport: %s\n", result.Files.Text)
	}
}
