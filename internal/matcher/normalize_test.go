package matcher

import "testing"

var normalizeCases = []struct {
	name  string
	input string
	want  string
}{
	{name: "remix suffix", input: "Shape of You - Remix", want: "shape of you"},
	{name: "plain artist", input: "Ed Sheeran", want: "ed sheeran"},
	{name: "diacritics", input: "Beyoncé", want: "beyonce"},
	{name: "bracketed remaster", input: "Don't Stop Me Now (2011 Remaster)", want: "dont stop me now"},
	{name: "suffix with year", input: "Bohemian Rhapsody - Remastered 2011", want: "bohemian rhapsody"},
	{name: "square brackets", input: "I Gotta Feeling [Radio Edit]", want: "i gotta feeling"},
	{name: "nested brackets", input: "Song (Live (at Wembley))", want: "song"},
	{name: "from soundtrack", input: "Let It Go - From \"Frozen\"", want: "let it go"},
	{name: "feat in title", input: "Señorita feat. Camila Cabello", want: "senorita"},
	{name: "ft in artist", input: "Ed Sheeran ft. Justin Bieber", want: "ed sheeran"},
	{name: "bracket only falls back", input: "(Intro)", want: "intro"},
	{name: "feature only falls back", input: "feat. Someone", want: "feat someone"},
	{name: "dash without qualifier kept", input: "Hello - Adele", want: "hello adele"},
	{name: "punctuation", input: "AC/DC", want: "ac dc"},
	{name: "whitespace", input: "   Multiple   Spaces  ", want: "multiple spaces"},
	{name: "curly apostrophe", input: "Rock ’n’ Roll", want: "rock n roll"},
	{name: "arabic letters", input: "عمرو دياب", want: "عمرو دياب"},
	{name: "arabic harakat", input: "حَبيبي", want: "حبيبي"},
	{name: "empty", input: "", want: ""},
}

func TestNormalize(t *testing.T) {
	for _, tt := range normalizeCases {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	extra := []string{"(Intro) feat", "- Remix", "The Beatles - Live", "[[x]]", "Ft. Ft. Ft", "Café del Mar — Edit"}
	inputs := extra
	for _, tt := range normalizeCases {
		inputs = append(inputs, tt.input)
	}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	tc := []struct{ input, want string }{
		{"Shape of You - Remix", "Shape of You"},
		{"Song (Live)", "Song"},
		{"(Intro)", "(Intro)"},
		{"Hello - Adele", "Hello - Adele"},
		{"  Bohemian  Rhapsody - 2011 Remaster ", "Bohemian Rhapsody"},
	}
	for _, tt := range tc {
		if got := CleanTitle(tt.input); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPrimaryArtist(t *testing.T) {
	tc := []struct{ input, want string }{
		{"Ed Sheeran feat. Justin Bieber", "Ed Sheeran"},
		{"Calvin Harris ft Rihanna", "Calvin Harris"},
		{"Amr Diab, Tamer Hosny", "Amr Diab"},
		{"Simon & Garfunkel", "Simon"},
		{"Major Lazer x DJ Snake", "Major Lazer"},
		{"Adele", "Adele"},
		{"", ""},
	}
	for _, tt := range tc {
		if got := PrimaryArtist(tt.input); got != tt.want {
			t.Errorf("PrimaryArtist(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanArtist(t *testing.T) {
	tc := []struct{ input, want string }{
		{"The Beatles", "Beatles"},
		{"the weeknd feat. Daft Punk", "weeknd"},
		{"The", "The"},
		{"Theory of a Deadman", "Theory of a Deadman"},
	}
	for _, tt := range tc {
		if got := CleanArtist(tt.input); got != tt.want {
			t.Errorf("CleanArtist(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
