package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/shared"
)

// Extractor reads a source playlist into a [models.PlaylistRecord].
type Extractor interface {
	Extract(ctx context.Context, playlistURL string) (*models.PlaylistRecord, error)
}

// Options tunes an [AnghamiExtractor].
type Options struct {
	LoginURL     string
	PageTimeout  time.Duration // bound on navigation and on the wait for the first track row
	ScrollWait   time.Duration // how long one scroll may take to load more rows
	PollInterval time.Duration
	MaxScrolls   int
	Selectors    Selectors

	// Cookies, when set, are installed instead of waiting for an interactive login.
	Cookies []*http.Cookie

	// AwaitLogin blocks until the user has signed in on the login page.
	AwaitLogin func(ctx context.Context) error

	Logger *log.Logger
}

// OptionsFromConfig converts the extractor config section.
func OptionsFromConfig(cfg shared.ExtractorConfig) Options {
	return Options{
		LoginURL:     cfg.LoginURL,
		PageTimeout:  cfg.PageTimeoutDuration(),
		ScrollWait:   cfg.ScrollWaitDuration(),
		PollInterval: cfg.PollInterval(),
		MaxScrolls:   cfg.MaxScrolls,
		Selectors: Selectors{
			Title:    cfg.TitleSelector,
			Artist:   cfg.ArtistSelector,
			Album:    cfg.AlbumSelector,
			Duration: cfg.DurationSelector,
		},
	}
}

// AnghamiExtractor scrapes an Anghami playlist page in a browser session.
type AnghamiExtractor struct {
	open PageFactory
	opts Options
	log  *log.Logger
}

// New creates an extractor that opens pages with open.
func New(open PageFactory, opts Options) *AnghamiExtractor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}
	if opts.ScrollWait <= 0 {
		opts.ScrollWait = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &AnghamiExtractor{open: open, opts: opts, log: logger}
}

// Extract loads playlistURL, scrolls until every row has rendered and parses the rows.
func (e *AnghamiExtractor) Extract(ctx context.Context, playlistURL string) (*models.PlaylistRecord, error) {
	if err := validateURL(playlistURL); err != nil {
		return nil, err
	}
	if _, err := e.opts.Selectors.compile(); err != nil {
		return nil, err
	}

	page, err := e.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrExtraction, err)
	}
	defer page.Close()

	if err := e.login(ctx, page, playlistURL); err != nil {
		return nil, err
	}

	e.log.Info("opening playlist", "url", playlistURL)
	if err := e.navigate(ctx, page, playlistURL); err != nil {
		return nil, err
	}

	loc, err := page.Location(ctx)
	if err != nil {
		return nil, e.pageErr(ctx, playlistURL, err)
	}
	if isLoginURL(loc) {
		return nil, newError(KindAuth, playlistURL, fmt.Errorf("redirected to %s", loc))
	}

	if err := e.waitForRows(ctx, page, playlistURL); err != nil {
		return nil, err
	}

	loaded, err := e.loadAll(ctx, page)
	if err != nil {
		return nil, e.pageErr(ctx, playlistURL, err)
	}
	e.log.Info("finished scrolling", "rows", loaded)

	var hidden bool
	if err := page.Evaluate(ctx, hideRecommendedScript, &hidden); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Warn("could not run recommended-section script", "error", err)
	} else if hidden {
		e.log.Info("hid recommended section")
	} else {
		e.log.Warn("no recommended section found; extra songs may be included")
	}

	doc, err := page.HTML(ctx)
	if err != nil {
		return nil, e.pageErr(ctx, playlistURL, err)
	}

	parsed, err := ParsePlaylist(doc, e.opts.Selectors)
	if err != nil {
		return nil, err
	}
	if parsed.Duplicates > 0 {
		e.log.Info("dropped duplicate rows", "count", parsed.Duplicates)
	}

	switch {
	case parsed.ExpectedCount < 0:
		e.log.Debug("page does not state a song count")
	case parsed.ExpectedCount != len(parsed.Tracks):
		e.log.Warn("extracted count differs from page count", "extracted", len(parsed.Tracks), "page", parsed.ExpectedCount)
	default:
		e.log.Info("extracted count matches page count", "count", parsed.ExpectedCount)
	}

	if len(parsed.Tracks) == 0 {
		return nil, newError(KindEmptyPlaylist, playlistURL, nil)
	}
	return &models.PlaylistRecord{Name: parsed.Name, Tracks: parsed.Tracks}, nil
}

func (e *AnghamiExtractor) login(ctx context.Context, page Page, playlistURL string) error {
	if len(e.opts.Cookies) > 0 {
		e.log.Info("installing session cookies", "count", len(e.opts.Cookies))
		if err := page.SetCookies(ctx, playlistURL, e.opts.Cookies); err != nil {
			return newError(KindAuth, playlistURL, err)
		}
		return nil
	}
	if e.opts.AwaitLogin == nil || e.opts.LoginURL == "" {
		return nil
	}

	e.log.Info("opening login page", "url", e.opts.LoginURL)
	if err := e.navigate(ctx, page, e.opts.LoginURL); err != nil {
		return err
	}
	if err := e.opts.AwaitLogin(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newError(KindAuth, e.opts.LoginURL, err)
	}
	return nil
}

func (e *AnghamiExtractor) navigate(ctx context.Context, page Page, target string) error {
	navCtx, cancel := context.WithTimeout(ctx, e.opts.PageTimeout)
	defer cancel()
	if err := page.Navigate(navCtx, target); err != nil {
		return e.pageErr(ctx, target, err)
	}
	return nil
}

// pageErr turns a page failure into a timeout unless the caller cancelled.
func (e *AnghamiExtractor) pageErr(ctx context.Context, target string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, target, err)
	}
	return fmt.Errorf("%w: %w", shared.ErrExtraction, err)
}

// waitForRows polls for the first title cell. A loaded page without one is a selector failure;
// a page that never finished loading is a timeout.
func (e *AnghamiExtractor) waitForRows(ctx context.Context, page Page, playlistURL string) error {
	deadline := time.Now().Add(e.opts.PageTimeout)
	loaded := false
	var lastErr error

	for {
		n, err := page.Count(ctx, e.opts.Selectors.Title)
		if err == nil && n > 0 {
			return nil
		}
		if err != nil {
			lastErr = err
		}

		var state string
		if err := page.Evaluate(ctx, readyStateScript, &state); err == nil && state == "complete" {
			loaded = true
		}

		if !time.Now().Before(deadline) {
			break
		}
		if err := sleep(ctx, e.opts.PollInterval); err != nil {
			return err
		}
	}

	if loaded {
		return newError(KindSelectorNotFound, playlistURL, fmt.Errorf("no element matches %s", e.opts.Selectors.Title))
	}
	return newError(KindTimeout, playlistURL, lastErr)
}

// loadAll scrolls the last row into view until the row count stops growing.
func (e *AnghamiExtractor) loadAll(ctx context.Context, page Page) (int, error) {
	title := e.opts.Selectors.Title
	count, err := page.Count(ctx, title)
	if err != nil {
		return 0, err
	}

	for i := 0; e.opts.MaxScrolls <= 0 || i < e.opts.MaxScrolls; i++ {
		e.log.Debug("scrolling", "attempt", i+1, "rows", count)
		if err := page.ScrollToLast(ctx, title); err != nil {
			return count, err
		}

		grown, err := e.waitForGrowth(ctx, page, count)
		if err != nil {
			return count, err
		}
		if grown == count {
			return count, nil
		}
		count = grown
	}
	e.log.Warn("stopped after max scrolls", "max", e.opts.MaxScrolls, "rows", count)
	return count, nil
}

func (e *AnghamiExtractor) waitForGrowth(ctx context.Context, page Page, before int) (int, error) {
	deadline := time.Now().Add(e.opts.ScrollWait)
	for {
		n, err := page.Count(ctx, e.opts.Selectors.Title)
		if err != nil {
			return before, err
		}
		if n > before {
			return n, nil
		}
		if !time.Now().Before(deadline) {
			return before, nil
		}
		if err := sleep(ctx, e.opts.PollInterval); err != nil {
			return before, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not a playlist URL", shared.ErrInvalidArgument, raw)
	}
	return nil
}

func isLoginURL(loc string) bool {
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Path, "/login")
}
