package extractor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/a2s/internal/shared"
)

const playlistURL = "https://play.anghami.com/playlist/123"

// fakePage replays a scripted sequence of row counts.
type fakePage struct {
	counts     []int
	calls      int
	readyState string
	location   string
	html       string
	navErr     error
	hidden     bool

	navigated []string
	cookieURL string
	cookies   []*http.Cookie
	scrolls   int
	closed    bool
}

func (p *fakePage) SetCookies(ctx context.Context, pageURL string, cookies []*http.Cookie) error {
	p.cookieURL = pageURL
	p.cookies = cookies
	return nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	if p.navErr != nil {
		return p.navErr
	}
	return ctx.Err()
}

func (p *fakePage) Location(ctx context.Context) (string, error) {
	if p.location != "" {
		return p.location, nil
	}
	return p.navigated[len(p.navigated)-1], nil
}

func (p *fakePage) Count(ctx context.Context, selector string) (int, error) {
	if len(p.counts) == 0 {
		return 0, nil
	}
	i := min(p.calls, len(p.counts)-1)
	p.calls++
	return p.counts[i], nil
}

func (p *fakePage) ScrollToLast(ctx context.Context, selector string) error {
	p.scrolls++
	return nil
}

func (p *fakePage) Evaluate(ctx context.Context, script string, res any) error {
	switch script {
	case readyStateScript:
		*res.(*string) = p.readyState
	case hideRecommendedScript:
		*res.(*bool) = p.hidden
	}
	return nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) { return p.html, nil }

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

func testOptions() Options {
	return Options{
		LoginURL:     "https://play.anghami.com/login",
		PageTimeout:  30 * time.Millisecond,
		ScrollWait:   10 * time.Millisecond,
		PollInterval: time.Millisecond,
		MaxScrolls:   50,
		Selectors:    testSelectors,
	}
}

func newTestExtractor(p *fakePage, opts Options) *AnghamiExtractor {
	return New(func(context.Context) (Page, error) { return p, nil }, opts)
}

func TestExtract(t *testing.T) {
	t.Run("scrolls until stable and parses rows", func(t *testing.T) {
		p := &fakePage{counts: []int{0, 3, 3, 5}, readyState: "complete", html: playlistFixture, hidden: true}
		record, err := newTestExtractor(p, testOptions()).Extract(context.Background(), playlistURL)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}

		if record.Name != "Road Trip" || len(record.Tracks) != 3 {
			t.Errorf("unexpected record %+v", record)
		}
		if p.scrolls != 2 {
			t.Errorf("expected 2 scrolls (one that grew, one that did not), got %d", p.scrolls)
		}
		if !p.closed {
			t.Error("expected page to be closed")
		}
		if len(p.navigated) != 1 || p.navigated[0] != playlistURL {
			t.Errorf("unexpected navigation %v", p.navigated)
		}
	})

	t.Run("redirect to login is an auth failure", func(t *testing.T) {
		p := &fakePage{counts: []int{3}, location: "https://play.anghami.com/login?next=/playlist/123"}
		_, err := newTestExtractor(p, testOptions()).Extract(context.Background(), playlistURL)
		assertKind(t, err, KindAuth)
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("loaded page without rows", func(t *testing.T) {
		p := &fakePage{counts: []int{0}, readyState: "complete"}
		_, err := newTestExtractor(p, testOptions()).Extract(context.Background(), playlistURL)
		assertKind(t, err, KindSelectorNotFound)
		if !errors.Is(err, shared.ErrSelectorNotFound) {
			t.Errorf("expected ErrSelectorNotFound, got %v", err)
		}
	})

	t.Run("page that never loads", func(t *testing.T) {
		p := &fakePage{counts: []int{0}, readyState: "loading"}
		_, err := newTestExtractor(p, testOptions()).Extract(context.Background(), playlistURL)
		assertKind(t, err, KindTimeout)
	})

	t.Run("navigation timeout", func(t *testing.T) {
		p := &fakePage{navErr: context.DeadlineExceeded}
		_, err := newTestExtractor(p, testOptions()).Extract(context.Background(), playlistURL)
		assertKind(t, err, KindTimeout)
		if !errors.Is(err, shared.ErrPageTimeout) {
			t.Errorf("expected ErrPageTimeout, got %v", err)
		}
	})

	t.Run("no parsable rows", func(t *testing.T) {
		p := &fakePage{counts: []int{2}, readyState: "complete", html: `<html><body><h1>Empty</h1></body></html>`}
		_, err := newTestExtractor(p, testOptions()).Extract(context.Background(), playlistURL)
		assertKind(t, err, KindEmptyPlaylist)
		if !errors.Is(err, shared.ErrEmptyPlaylist) {
			t.Errorf("expected ErrEmptyPlaylist, got %v", err)
		}
	})

	t.Run("stops at max scrolls", func(t *testing.T) {
		p := &fakePage{counts: []int{1, 1, 2, 3, 4, 5, 6, 7, 8}, html: playlistFixture}
		opts := testOptions()
		opts.MaxScrolls = 3
		if _, err := newTestExtractor(p, opts).Extract(context.Background(), playlistURL); err != nil {
			t.Fatal(err)
		}
		if p.scrolls != 3 {
			t.Errorf("expected 3 scrolls, got %d", p.scrolls)
		}
	})

	t.Run("installs cookies instead of logging in", func(t *testing.T) {
		p := &fakePage{counts: []int{3}, html: playlistFixture}
		opts := testOptions()
		opts.Cookies = []*http.Cookie{{Name: "session", Value: "abc"}}
		opts.AwaitLogin = func(context.Context) error {
			t.Error("AwaitLogin should not be called when cookies are set")
			return nil
		}
		if _, err := newTestExtractor(p, opts).Extract(context.Background(), playlistURL); err != nil {
			t.Fatal(err)
		}
		if len(p.cookies) != 1 || p.cookieURL != playlistURL {
			t.Errorf("cookies not installed: %v for %q", p.cookies, p.cookieURL)
		}
		if len(p.navigated) != 1 {
			t.Errorf("expected only the playlist navigation, got %v", p.navigated)
		}
	})

	t.Run("waits for interactive login", func(t *testing.T) {
		p := &fakePage{counts: []int{3}, html: playlistFixture}
		opts := testOptions()
		called := false
		opts.AwaitLogin = func(context.Context) error {
			called = true
			return nil
		}
		if _, err := newTestExtractor(p, opts).Extract(context.Background(), playlistURL); err != nil {
			t.Fatal(err)
		}
		if !called {
			t.Error("expected AwaitLogin to be called")
		}
		if len(p.navigated) != 2 || p.navigated[0] != opts.LoginURL {
			t.Errorf("expected login then playlist navigation, got %v", p.navigated)
		}
	})

	t.Run("login aborted", func(t *testing.T) {
		p := &fakePage{}
		opts := testOptions()
		opts.AwaitLogin = func(context.Context) error { return errors.New("user quit") }
		_, err := newTestExtractor(p, opts).Extract(context.Background(), playlistURL)
		assertKind(t, err, KindAuth)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := newTestExtractor(&fakePage{}, testOptions()).Extract(context.Background(), "not a url")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestExtractor(&fakePage{counts: []int{0}}, testOptions()).Extract(ctx, playlistURL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("browser fails to start", func(t *testing.T) {
		x := New(func(context.Context) (Page, error) { return nil, errors.New("no chrome") }, testOptions())
		_, err := x.Extract(context.Background(), playlistURL)
		if !errors.Is(err, shared.ErrExtraction) {
			t.Errorf("expected ErrExtraction, got %v", err)
		}
	})
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	var xe *ExtractionError
	if !errors.As(err, &xe) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
	if xe.Kind != kind {
		t.Errorf("Kind = %s, want %s", xe.Kind, kind)
	}
	if !errors.Is(err, shared.ErrExtraction) {
		t.Errorf("expected error to match ErrExtraction")
	}
}
