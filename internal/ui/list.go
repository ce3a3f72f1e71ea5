package ui

import (
	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = modeItem{}

// Mode is one of the run modes offered by the menu.
type Mode int

const (
	ModeFull Mode = iota
	ModeExtract
	ModeMigrate
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "Full migration"
	case ModeExtract:
		return "Extract only"
	case ModeMigrate:
		return "Migrate only"
	default:
		return ""
	}
}

// needsURL reports whether the mode scrapes a playlist page.
func (m Mode) needsURL() bool { return m != ModeMigrate }

// needsName reports whether the mode writes a destination playlist.
func (m Mode) needsName() bool { return m != ModeExtract }

// modeItem wraps [Mode] to implement [list.Item].
type modeItem struct {
	mode Mode
	desc string
}

func (i modeItem) FilterValue() string { return i.mode.String() }
func (i modeItem) Title() string       { return i.mode.String() }
func (i modeItem) Description() string { return i.desc }

func modeItems() []list.Item {
	return []list.Item{
		modeItem{mode: ModeFull, desc: "Extract an Anghami playlist and migrate it to Spotify"},
		modeItem{mode: ModeExtract, desc: "Extract an Anghami playlist to the artifact file"},
		modeItem{mode: ModeMigrate, desc: "Migrate a previously extracted artifact to Spotify"},
	}
}
