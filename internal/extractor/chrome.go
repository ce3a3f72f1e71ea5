package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/desertthunder/a2s/internal/shared"
)

// ChromeOpts configures the Chromium session behind a [ChromePage].
type ChromeOpts struct {
	ExecPath    string
	UserDataDir string
	Headless    bool
}

// ChromeOptsFromConfig reads the browser settings from the extractor config.
func ChromeOptsFromConfig(cfg shared.ExtractorConfig) ChromeOpts {
	return ChromeOpts{ExecPath: cfg.BrowserPath, UserDataDir: cfg.UserDataDir, Headless: cfg.Headless}
}

// ChromePage drives one Chromium tab over the DevTools protocol.
type ChromePage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewChromePage starts a browser and opens a tab. The browser exits when ctx is cancelled or
// [ChromePage.Close] is called.
func NewChromePage(ctx context.Context, opts ChromeOpts) (*ChromePage, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser now so later per-call deadlines cannot tear it down.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return &ChromePage{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

// ChromeFactory returns a [PageFactory] that opens a fresh browser per extraction.
func ChromeFactory(opts ChromeOpts) PageFactory {
	return func(ctx context.Context) (Page, error) {
		return NewChromePage(ctx, opts)
	}
}

// run executes actions on the tab, cancelling them when ctx is done.
func (p *ChromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (p *ChromePage) SetCookies(ctx context.Context, pageURL string, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	origin := u.Scheme + "://" + u.Host

	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			URL:      origin,
			Path:     "/",
			Secure:   u.Scheme == "https",
			HTTPOnly: c.HttpOnly,
		})
	}
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
}

func (p *ChromePage) Navigate(ctx context.Context, target string) error {
	return p.run(ctx, chromedp.Navigate(target))
}

func (p *ChromePage) Location(ctx context.Context) (string, error) {
	var loc string
	err := p.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (p *ChromePage) Count(ctx context.Context, selector string) (int, error) {
	var n int
	err := p.run(ctx, chromedp.Evaluate(countScript(selector), &n))
	return n, err
}

func (p *ChromePage) ScrollToLast(ctx context.Context, selector string) error {
	var n int
	return p.run(ctx, chromedp.Evaluate(scrollScript(selector), &n))
}

func (p *ChromePage) Evaluate(ctx context.Context, script string, res any) error {
	return p.run(ctx, chromedp.Evaluate(script, res))
}

func (p *ChromePage) HTML(ctx context.Context) (string, error) {
	var doc string
	err := p.run(ctx, chromedp.OuterHTML("html", &doc, chromedp.ByQuery))
	return doc, err
}

// Close shuts the tab and the browser process.
func (p *ChromePage) Close() error {
	p.cancel()
	p.allocCancel()
	return nil
}
