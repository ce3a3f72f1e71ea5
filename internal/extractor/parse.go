package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/shared"
)

const defaultPlaylistName = "Anghami Playlist"

var (
	songCount      = regexp.MustCompile(`(?i)(\d+)\s+songs?\b`)
	classSubstring = regexp.MustCompile(`^\[class\*=['"]?([^'"\]]+)['"]?\]$`)
	titleSuffix    = regexp.MustCompile(`\s*[|\-–]\s*Anghami\s*$`)
)

// Selectors name the cells of a track row. Each is either a class-substring
// attribute selector ([class*='cell-title']) or a single class (.cell-title).
type Selectors struct {
	Title    string
	Artist   string
	Album    string
	Duration string
}

// classMatcher reports whether an element matches a selector.
type classMatcher func(n *html.Node) bool

func compileSelector(sel string) (classMatcher, error) {
	sel = strings.TrimSpace(sel)
	if m := classSubstring.FindStringSubmatch(sel); m != nil {
		frag := m[1]
		return func(n *html.Node) bool {
			return strings.Contains(attr(n, "class"), frag)
		}, nil
	}
	if strings.HasPrefix(sel, ".") && len(sel) > 1 && !strings.ContainsAny(sel[1:], " .[>#:") {
		want := sel[1:]
		return func(n *html.Node) bool {
			for _, c := range strings.Fields(attr(n, "class")) {
				if c == want {
					return true
				}
			}
			return false
		}, nil
	}
	return nil, fmt.Errorf("%w: unsupported cell selector %q", shared.ErrInvalidConfig, sel)
}

type rowMatchers struct {
	title, artist, album, duration classMatcher
}

func (s Selectors) compile() (*rowMatchers, error) {
	var m rowMatchers
	var err error
	if m.title, err = compileSelector(s.Title); err != nil {
		return nil, err
	}
	if m.artist, err = compileSelector(s.Artist); err != nil {
		return nil, err
	}
	if s.Album != "" {
		if m.album, err = compileSelector(s.Album); err != nil {
			return nil, err
		}
	}
	if s.Duration != "" {
		if m.duration, err = compileSelector(s.Duration); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// ParsedPage is the parsed result of a playlist page.
type ParsedPage struct {
	Name          string
	Tracks        []models.SourceTrack
	ExpectedCount int // -1 when the page does not state a count
	Duplicates    int
}

// ParsePlaylist extracts track rows from a rendered playlist page. A row is the nearest ancestor
// of a title cell that also contains an artist cell. Hidden subtrees are ignored, rows without a
// title are skipped and repeated (title, artist) pairs are dropped.
func ParsePlaylist(doc string, sel Selectors) (*ParsedPage, error) {
	m, err := sel.compile()
	if err != nil {
		return nil, err
	}
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	page := &ParsedPage{Name: playlistName(root), ExpectedCount: -1, Tracks: []models.SourceTrack{}}
	if match := songCount.FindStringSubmatch(visibleText(root)); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil {
			page.ExpectedCount = n
		}
	}

	seenRows := map[*html.Node]bool{}
	seenTracks := map[string]bool{}
	walkVisible(root, func(n *html.Node) {
		if !m.title(n) {
			return
		}
		row := rowOf(n, m.artist)
		if row == nil || seenRows[row] {
			return
		}
		seenRows[row] = true

		t := models.SourceTrack{Title: textOf(n)}
		if t.Title == "" {
			return
		}
		if a := find(row, m.artist); a != nil {
			t.Artist = textOf(a)
		}
		if m.album != nil {
			if a := find(row, m.album); a != nil {
				if album := textOf(a); album != "" {
					t.Album = &album
				}
			}
		}
		if m.duration != nil {
			if d := find(row, m.duration); d != nil {
				t.DurationMS = ParseDuration(textOf(d))
			}
		}

		if seenTracks[t.Key()] {
			page.Duplicates++
			return
		}
		seenTracks[t.Key()] = true
		page.Tracks = append(page.Tracks, t)
	})
	return page, nil
}

// ParseDuration converts "m:ss" or "h:mm:ss" to milliseconds. It returns nil for anything else.
func ParseDuration(s string) *int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil
	}
	total := 0
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || (i > 0 && (v > 59 || len(p) != 2)) {
			return nil
		}
		total = total*60 + v
	}
	ms := total * 1000
	return &ms
}

func rowOf(cell *html.Node, artist classMatcher) *html.Node {
	for p := cell.Parent; p != nil && p.Type == html.ElementNode; p = p.Parent {
		if find(p, artist) != nil {
			return p
		}
	}
	return nil
}

func find(root *html.Node, match classMatcher) *html.Node {
	var found *html.Node
	walkVisible(root, func(n *html.Node) {
		if found == nil && match(n) {
			found = n
		}
	})
	return found
}

// walkVisible calls fn for every element below root, skipping hidden subtrees.
func walkVisible(root *html.Node, fn func(*html.Node)) {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if hidden(c) {
			continue
		}
		fn(c)
		walkVisible(c, fn)
	}
}

func hidden(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Template, atom.Noscript:
		return true
	}
	if _, ok := attrOK(n, "hidden"); ok {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(style, "display:none")
}

func playlistName(root *html.Node) string {
	var h1, title *html.Node
	walkVisible(root, func(n *html.Node) {
		if h1 == nil && n.DataAtom == atom.H1 && textOf(n) != "" {
			h1 = n
		}
	})
	if h1 != nil {
		return textOf(h1)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil && title == nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Title {
				title = c
				return
			}
			walk(c)
		}
	}
	walk(root)
	if title != nil {
		if name := strings.TrimSpace(titleSuffix.ReplaceAllString(textOf(title), "")); name != "" {
			return name
		}
	}
	return defaultPlaylistName
}

func visibleText(root *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				b.WriteString(c.Data)
				b.WriteByte(' ')
			case c.Type == html.ElementNode && !hidden(c):
				walk(c)
			}
		}
	}
	walk(root)
	return b.String()
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
				b.WriteByte(' ')
			} else if c.Type == html.ElementNode && c.DataAtom != atom.Script && c.DataAtom != atom.Style {
				walk(c)
			}
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
