package extractor

import (
	"context"
	"encoding/json"
	"net/http"
)

// Page is a live browser tab. Implementations must honour ctx cancellation on every call.
type Page interface {
	// SetCookies installs session cookies for pageURL before the first navigation.
	SetCookies(ctx context.Context, pageURL string, cookies []*http.Cookie) error
	Navigate(ctx context.Context, url string) error
	// Location returns the current URL after any redirects.
	Location(ctx context.Context) (string, error)
	// Count returns the number of elements matching a CSS selector.
	Count(ctx context.Context, selector string) (int, error)
	// ScrollToLast scrolls the last element matching selector into view, or the window to the
	// bottom when nothing matches.
	ScrollToLast(ctx context.Context, selector string) error
	// Evaluate runs a script and decodes its result into res.
	Evaluate(ctx context.Context, script string, res any) error
	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// PageFactory opens a new [Page] bound to ctx.
type PageFactory func(ctx context.Context) (Page, error)

const readyStateScript = `document.readyState`

// hideRecommendedScript hides the section under a "Recommended" heading (English or Arabic) so
// its tracks are not read as part of the playlist.
const hideRecommendedScript = `(() => {
  const header = Array.from(document.querySelectorAll("h1, h2, h3, h4, [role='heading']"))
    .find(el => el.textContent.includes('Recommended') || el.textContent.includes('مقترحة'));
  if (!header) return false;
  let parent = header.parentElement;
  for (let i = 0; i < 5 && parent; i++) {
    if (parent.childElementCount > 1) break;
    parent = parent.parentElement;
  }
  if (!parent) return false;
  parent.style.display = 'none';
  return true;
})()`

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func countScript(selector string) string {
	return `document.querySelectorAll(` + jsString(selector) + `).length`
}

func scrollScript(selector string) string {
	return `(() => {
  const els = document.querySelectorAll(` + jsString(selector) + `);
  if (els.length) {
    els[els.length - 1].scrollIntoView({behavior: 'auto', block: 'end'});
  } else {
    window.scrollTo(0, document.body.scrollHeight);
  }
  return els.length;
})()`
}
