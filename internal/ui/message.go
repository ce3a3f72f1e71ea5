package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgRunComplete
)

// runOutcome is the payload of [MsgRunComplete].
type runOutcome struct {
	record *models.PlaylistRecord // set by extract-only runs
	result *tasks.RunResult       // set by runs that migrate
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(record *models.PlaylistRecord, result *tasks.RunResult, err error) Msg {
	return Msg{kind: MsgRunComplete, data: runOutcome{record: record, result: result, err: err}}
}

// waitForProgress reads the next update; once progress is closed it returns the completion message.
func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}
