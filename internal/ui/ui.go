package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/a2s/internal/models"
	"github.com/desertthunder/a2s/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MenuView ViewState = iota
	InputView
	ProgressView
	ResultView
)

// Pipeline is the subset of [tasks.Pipeline] the TUI drives.
type Pipeline interface {
	Run(ctx context.Context, playlistURL string, opts tasks.MigrateOpts, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)
	Extract(ctx context.Context, playlistURL string, progress chan<- tasks.ProgressUpdate) (*models.PlaylistRecord, error)
	MigrateArtifact(ctx context.Context, path string, opts tasks.MigrateOpts, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)
}

// Options pre-fills the prompts, usually from command-line flags.
type Options struct {
	URL      string
	Name     string
	Artifact string
	Fresh    bool
}

type promptKind int

const (
	promptURL promptKind = iota
	promptName
)

const logLines = 6

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	pipeline Pipeline
	opts     Options

	view   ViewState
	mode   Mode
	width  int
	height int

	menu    list.Model
	input   textinput.Model
	prompts []promptKind
	prompt  int
	url     string
	name    string
	invalid string

	spinner      spinner.Model
	cancel       context.CancelFunc
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	recent       []string

	record *models.PlaylistRecord
	result *tasks.RunResult
	err    error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, pipeline Pipeline, opts Options) *Model {
	menu := list.New(modeItems(), list.NewDefaultDelegate(), 72, 14)
	menu.Title = "a2s: Anghami → Spotify"
	menu.SetShowHelp(false)
	menu.SetFilteringEnabled(false)

	input := textinput.New()
	input.CharLimit = 512
	input.Width = 64

	return &Model{
		ctx:      ctx,
		pipeline: pipeline,
		opts:     opts,
		view:     MenuView,
		menu:     menu,
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init implements [tea.Model]; the menu needs no startup work.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MenuView:
			return m.handleMenuKeys(msg)
		case InputView:
			return m.handleInputKeys(msg)
		case ProgressView:
			return m.handleProgressKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != ProgressView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			update := msg.data.(tasks.ProgressUpdate)
			m.progress = update
			m.recent = append(m.recent, update.Message)
			if len(m.recent) > logLines {
				m.recent = m.recent[len(m.recent)-logLines:]
			}
			return m, waitForProgress(m.progressChan, m.done)
		case MsgRunComplete:
			out := msg.data.(runOutcome)
			m.record, m.result, m.err = out.record, out.result, out.err
			m.view = ResultView
			if m.cancel != nil {
				m.cancel()
				m.cancel = nil
			}
			m.progressChan, m.done = nil, nil
			return m, nil
		}
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MenuView:
		return m.renderMenu()
	case InputView:
		return m.renderInput()
	case ProgressView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Err returns the error of the last run, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.menu.SelectedItem().(modeItem); ok {
			return m, m.choose(item.mode)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

// choose sets up the prompts for mode, or starts right away when it needs none.
func (m *Model) choose(mode Mode) tea.Cmd {
	m.mode = mode
	m.url, m.name = m.opts.URL, m.opts.Name
	m.prompts = m.prompts[:0]
	if mode.needsURL() {
		m.prompts = append(m.prompts, promptURL)
	}
	if mode.needsName() {
		m.prompts = append(m.prompts, promptName)
	}
	m.prompt = 0
	return m.showPrompt()
}

func (m *Model) showPrompt() tea.Cmd {
	if m.prompt >= len(m.prompts) {
		return m.start()
	}

	m.view = InputView
	m.invalid = ""
	switch m.prompts[m.prompt] {
	case promptURL:
		m.input.Placeholder = "https://play.anghami.com/playlist/..."
		m.input.SetValue(m.url)
	case promptName:
		m.input.Placeholder = "leave empty to use the Anghami playlist name"
		m.input.SetValue(m.name)
	}
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.input.Blur()
		m.view = MenuView
		return m, nil
	case key.Matches(msg, m.keys.submit):
		value := strings.TrimSpace(m.input.Value())
		switch m.prompts[m.prompt] {
		case promptURL:
			if value == "" {
				m.invalid = "A playlist URL is required"
				return m, nil
			}
			m.url = value
		case promptName:
			m.name = value
		}
		m.prompt++
		return m, m.showPrompt()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleProgressKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) && m.cancel != nil {
		m.cancel()
		m.recent = append(m.recent, "Cancelling...")
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = MenuView
		m.record, m.result, m.err = nil, nil, nil
		m.recent = nil
		m.progress = tasks.ProgressUpdate{}
		return m, nil
	}
	return m, nil
}

// start launches the selected mode in the background. The goroutine owns the progress
// channel and closes it after publishing the outcome on done.
func (m *Model) start() tea.Cmd {
	m.input.Blur()
	m.view = ProgressView
	m.recent = nil

	ctx, cancel := context.WithCancel(m.ctx)
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.cancel, m.progressChan, m.done = cancel, progress, done

	mode, url := m.mode, m.url
	opts := tasks.MigrateOpts{Name: m.name, Fresh: m.opts.Fresh}
	artifact := m.opts.Artifact

	go func() {
		var msg Msg
		switch mode {
		case ModeExtract:
			record, err := m.pipeline.Extract(ctx, url, progress)
			msg = runCompleteMsg(record, nil, err)
		case ModeMigrate:
			result, err := m.pipeline.MigrateArtifact(ctx, artifact, opts, progress)
			msg = runCompleteMsg(nil, result, err)
		default:
			result, err := m.pipeline.Run(ctx, url, opts, progress)
			msg = runCompleteMsg(nil, result, err)
		}
		done <- msg
		close(progress)
	}()

	return tea.Batch(m.spinner.Tick, waitForProgress(progress, done))
}

func (m *Model) renderMenu() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.menu.View(), helpView)
}

func (m *Model) renderInput() string {
	label := "Destination playlist name"
	if m.prompts[m.prompt] == promptURL {
		label = "Anghami playlist URL"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(m.mode.String()))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n\n%s\n", label, m.input.View())
	if m.invalid != "" {
		fmt.Fprintf(&b, "\n%s\n", styles.err.Render(m.invalid))
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.back, m.keys.cancel}))
	return b.String()
}

func (m *Model) renderProgress() string {
	var phase string
	switch m.progress.Phase {
	case tasks.Extract:
		phase = "Extracting playlist from Anghami..."
	case tasks.Match:
		phase = fmt.Sprintf("Searching Spotify %s", progressBar(m.progress.Step, m.progress.Total, 30))
	case tasks.CreatePlaylist:
		phase = "Creating playlist on Spotify..."
	case tasks.AddTracks:
		phase = fmt.Sprintf("Adding tracks %s", progressBar(m.progress.Step, m.progress.Total, 30))
	case tasks.Report:
		phase = "Writing report..."
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(m.mode.String()))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), phase)
	for _, line := range m.recent {
		fmt.Fprintf(&b, "  %s\n", styles.help.Render(line))
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.cancel}))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	var b strings.Builder
	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("✗ %s failed: %v", m.mode, m.err)))
		b.WriteString("\n")
	case m.record != nil:
		b.WriteString(styles.ok.Render("✓ Extraction complete"))
		fmt.Fprintf(&b, "\n\nPlaylist: %s\nTracks: %d\n", m.record.Name, len(m.record.Tracks))
	default:
		b.WriteString(styles.ok.Render("✓ Migration complete"))
		b.WriteString("\n")
	}

	if m.result != nil {
		s := m.result.Report.Summary
		fmt.Fprintf(&b, "\nDestination: %s\n", m.result.Report.Destination)
		if m.result.Report.PlaylistURL != "" {
			fmt.Fprintf(&b, "Playlist: %s\n", m.result.Report.PlaylistURL)
		}
		fmt.Fprintf(&b, "Found: %d/%d (%.1f%%)\nAdded: %d\n", s.Matched, s.Total, s.MatchRate, s.Added)
		if s.NotFound > 0 {
			fmt.Fprintf(&b, "%s\n", styles.warn.Render(fmt.Sprintf("%d tracks not found", s.NotFound)))
		}
		if m.result.Files != nil {
			fmt.Fprintf(&b, "Report: %s\n", m.result.Files.Text)
		}
	}

	return fmt.Sprintf("%s\n%s", b.String(), helpView)
}

// progressBar renders a fixed-width bar with a step counter.
func progressBar(step, total, width int) string {
	if total <= 0 {
		return ""
	}
	filled := min(width*step/total, width)
	bar := styles.bar.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %d/%d", bar, step, total)
}
