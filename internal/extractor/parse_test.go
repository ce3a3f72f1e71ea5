package extractor

import (
	"errors"
	"testing"

	"github.com/desertthunder/a2s/internal/shared"
)

var testSelectors = Selectors{
	Title:    "[class*='cell-title']",
	Artist:   "[class*='cell-artist']",
	Album:    "[class*='cell-album']",
	Duration: "[class*='cell-duration']",
}

const playlistFixture = `<!DOCTYPE html>
<html>
<head><title>Road Trip - Anghami</title></head>
<body>
  <header><h1>Road Trip</h1><span class="count">4 songs</span></header>
  <section class="list">
    <div class="row">
      <div class="table-cell cell-title"><a>Shape of You</a></div>
      <div class="table-cell cell-artist"><a>Ed Sheeran</a></div>
      <div class="table-cell cell-album">÷</div>
      <div class="table-cell cell-duration">3:53</div>
    </div>
    <div class="row">
      <div class="table-cell cell-title">Tamally   Maak</div>
      <div class="table-cell cell-artist">Amr Diab</div>
    </div>
    <div class="row">
      <div class="table-cell cell-title">  </div>
      <div class="table-cell cell-artist">Nobody</div>
    </div>
    <div class="row">
      <div class="table-cell cell-title">Shape of You</div>
      <div class="table-cell cell-artist">Ed Sheeran</div>
    </div>
    <div class="row">
      <div class="table-cell cell-title">Hello</div>
      <div class="table-cell cell-artist">Adele</div>
      <div class="table-cell cell-duration">1:02:03</div>
    </div>
  </section>
  <section style="display: none;">
    <h2>Recommended</h2>
    <div class="row">
      <div class="table-cell cell-title">Suggested Song</div>
      <div class="table-cell cell-artist">Someone</div>
    </div>
  </section>
  <script>var x = "<div class='cell-title'>Nope</div>";</script>
</body>
</html>`

func TestParsePlaylist(t *testing.T) {
	page, err := ParsePlaylist(playlistFixture, testSelectors)
	if err != nil {
		t.Fatalf("ParsePlaylist() error = %v", err)
	}

	if page.Name != "Road Trip" {
		t.Errorf("Name = %q, want %q", page.Name, "Road Trip")
	}
	if page.ExpectedCount != 4 {
		t.Errorf("ExpectedCount = %d, want 4", page.ExpectedCount)
	}
	if page.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", page.Duplicates)
	}

	if len(page.Tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d: %+v", len(page.Tracks), page.Tracks)
	}

	first := page.Tracks[0]
	if first.Title != "Shape of You" || first.Artist != "Ed Sheeran" {
		t.Errorf("unexpected first track %+v", first)
	}
	if first.Album == nil || *first.Album != "÷" {
		t.Errorf("expected album ÷, got %v", first.Album)
	}
	if first.DurationMS == nil || *first.DurationMS != 233_000 {
		t.Errorf("expected duration 233000, got %v", first.DurationMS)
	}

	second := page.Tracks[1]
	if second.Title != "Tamally Maak" || second.Album != nil || second.DurationMS != nil {
		t.Errorf("unexpected second track %+v", second)
	}

	third := page.Tracks[2]
	if third.Title != "Hello" || third.DurationMS == nil || *third.DurationMS != 3_723_000 {
		t.Errorf("unexpected third track %+v", third)
	}
}

func TestParsePlaylistName(t *testing.T) {
	tc := []struct {
		name string
		doc  string
		want string
	}{
		{name: "heading", doc: `<html><body><h1> Chill  Mix </h1></body></html>`, want: "Chill Mix"},
		{name: "document title", doc: `<html><head><title>Workout | Anghami</title></head><body></body></html>`, want: "Workout"},
		{name: "fallback", doc: `<html><body><p>nothing</p></body></html>`, want: defaultPlaylistName},
		{name: "hidden heading ignored", doc: `<html><head><title>Real</title></head><body><h1 hidden>Fake</h1></body></html>`, want: "Real"},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ParsePlaylist(tt.doc, testSelectors)
			if err != nil {
				t.Fatal(err)
			}
			if page.Name != tt.want {
				t.Errorf("Name = %q, want %q", page.Name, tt.want)
			}
			if page.ExpectedCount != -1 {
				t.Errorf("ExpectedCount = %d, want -1", page.ExpectedCount)
			}
		})
	}
}

func TestParsePlaylistSelectors(t *testing.T) {
	t.Run("class selector", func(t *testing.T) {
		doc := `<div><span class="t x">A</span><span class="a">B</span></div>`
		page, err := ParsePlaylist(doc, Selectors{Title: ".t", Artist: ".a"})
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Tracks) != 1 || page.Tracks[0].Title != "A" || page.Tracks[0].Artist != "B" {
			t.Errorf("unexpected tracks %+v", page.Tracks)
		}
	})

	t.Run("unsupported selector", func(t *testing.T) {
		_, err := ParsePlaylist("<div></div>", Selectors{Title: "div > span", Artist: ".a"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("rows without an artist cell are ignored", func(t *testing.T) {
		doc := `<div><span class="cell-title">Lonely</span></div>`
		page, err := ParsePlaylist(doc, testSelectors)
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Tracks) != 0 {
			t.Errorf("expected no tracks, got %+v", page.Tracks)
		}
	})
}

func TestParseDuration(t *testing.T) {
	tc := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3:53", 233_000, true},
		{" 0:07 ", 7_000, true},
		{"1:02:03", 3_723_000, true},
		{"10:5", 0, false},
		{"3:75", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"1:2:3:4", 0, false},
	}
	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseDuration(tt.in)
			if !tt.ok {
				if got != nil {
					t.Errorf("ParseDuration(%q) = %d, want nil", tt.in, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %d", tt.in, got, tt.want)
			}
		})
	}
}
