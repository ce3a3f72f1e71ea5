package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// qualifiers mark the tail of a " - " suffix as a version note rather than part of the title.
var qualifiers = []string{
	"live", "remix", "remixed", "acoustic", "radio edit", "album version", "single version", "extended",
	"studio version", "original mix", "club mix", "radio mix", "main mix", "extended mix", "short mix",
	"instrumental", "karaoke", "cover", "remastered", "remaster", "edit", "mix", "cut", "take", "session",
	"unplugged", "stripped", "edition", "stereo", "mono", "reprise", "interlude", "soundtrack", "version",
	"demo", "bonus track", "from", "mono version", "explicit", "clean",
}

var (
	bracketed     = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]|\{[^{}]*\}`)
	qualifierTail = regexp.MustCompile(`(?i)\b(?:` + strings.Join(qualifiers, "|") + `)\b`)
	separators    = []string{" - ", " – ", " — "}
	featTokens    = map[string]bool{"feat": true, "ft": true, "featuring": true}
)

// Normalize maps a title or artist string to the comparison form used on both sides of a match:
// lowercase, diacritics folded, bracketed segments and " - Remix"-style suffixes removed,
// punctuation replaced by spaces, and everything from a feat/ft/featuring token onward dropped.
//
// A stripping step that would leave nothing is skipped, so "(Intro)" normalizes to "intro".
// Normalize is idempotent.
func Normalize(s string) string {
	s = foldDiacritics(strings.ToLower(s))

	for _, strip := range []func(string) string{stripBrackets, stripQualifierSuffix} {
		if stripped := strip(s); cleanPunctuation(stripped) != "" {
			s = stripped
		}
	}

	s = cleanPunctuation(s)
	if cut := cutFeaturing(s); cut != "" {
		s = cut
	}
	return s
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// stripBrackets removes (), [] and {} segments, innermost first, until none remain.
func stripBrackets(s string) string {
	for {
		next := bracketed.ReplaceAllString(s, " ")
		if next == s {
			return next
		}
		s = next
	}
}

// stripQualifierSuffix cuts at the first " - " whose tail names a version qualifier.
func stripQualifierSuffix(s string) string {
	for i := 0; i < len(s); i++ {
		for _, sep := range separators {
			if strings.HasPrefix(s[i:], sep) && qualifierTail.MatchString(s[i+len(sep):]) {
				return s[:i]
			}
		}
	}
	return s
}

// cleanPunctuation drops apostrophes, turns every other non letter/digit run into one space, and trims.
func cleanPunctuation(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case r == '\'' || r == '’' || r == '`':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

func cutFeaturing(s string) string {
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if featTokens[tok] {
			return strings.Join(tokens[:i], " ")
		}
	}
	return s
}

// CleanTitle strips version qualifiers but keeps original casing, for use in search queries.
func CleanTitle(title string) string {
	s := strings.TrimSpace(title)
	if stripped := strings.TrimSpace(stripBrackets(s)); stripped != "" {
		s = stripped
	}
	if cut := strings.TrimSpace(stripQualifierSuffix(s)); cut != "" {
		s = cut
	}
	return collapseSpaces(s)
}

var artistSplit = regexp.MustCompile(`(?i)\s*(?:,|&|;|/|\s+x\s+|\s+and\s+|\s+with\s+|\s+feat\.?\s+|\s+ft\.?\s+|\s+featuring\s+)\s*`)

// PrimaryArtist returns the first artist of a joined credit ("A feat. B", "A & B", "A, B").
func PrimaryArtist(artist string) string {
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return ""
	}
	parts := artistSplit.Split(artist, -1)
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			return p
		}
	}
	return artist
}

// CleanArtist is the primary artist with a leading "The" removed.
func CleanArtist(artist string) string {
	primary := PrimaryArtist(artist)
	if rest, ok := cutPrefixFold(primary, "the "); ok && strings.TrimSpace(rest) != "" {
		return strings.TrimSpace(rest)
	}
	return primary
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
