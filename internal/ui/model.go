// Package ui is the terminal player: a progress bar, the active subtitle,
// a play/pause label and the list of all lines.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mgpai22/sublisten/internal/logging"
	"github.com/mgpai22/sublisten/internal/playback"
	"github.com/mgpai22/sublisten/internal/subtitle"
)

// TickMsg asks the model to read the clock.
type TickMsg time.Time

// ReloadMsg carries a reparsed track, or the error that kept the old one.
type ReloadMsg struct {
	Track *subtitle.Track
	Err   error
}

// PlayerDoneMsg reports that the player process went away.
type PlayerDoneMsg struct{}

const (
	defaultWidth  = 80
	defaultHeight = 24
	// title, progress, label box, controls, status
	chromeHeight = 9
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Bold(true)
	buttonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("86")).Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type Options struct {
	Title    string
	SeekStep time.Duration
	Logger   *logging.Logger
}

type Model struct {
	session  *playback.Session
	keys     KeyMap
	list     list.Model
	progress progress.Model
	logger   *logging.Logger

	title    string
	seekStep time.Duration
	width    int

	position time.Duration
	state    playback.State
	label    string
	// number of times the label text was replaced
	renders int
	status  string
	err     error
}

type entryItem struct {
	entry subtitle.Entry
}

func (i entryItem) Title() string { return i.entry.Text }

func (i entryItem) Description() string {
	return subtitle.FormatTimestamp(i.entry.StartTime) + " --> " + subtitle.FormatTimestamp(i.entry.EndTime)
}

func (i entryItem) FilterValue() string { return i.entry.Text }

func itemsFor(track *subtitle.Track) []list.Item {
	if track == nil {
		return nil
	}
	items := make([]list.Item, len(track.Entries))
	for i, e := range track.Entries {
		items[i] = entryItem{entry: e}
	}
	return items
}

func New(session *playback.Session, opts Options) Model {
	if opts.SeekStep <= 0 {
		opts.SeekStep = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	l := list.New(itemsFor(session.Track()), list.NewDefaultDelegate(), defaultWidth, defaultHeight-chromeHeight)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return Model{
		session:  session,
		keys:     DefaultKeyMap(),
		list:     l,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		logger:   opts.Logger,
		title:    opts.Title,
		seekStep: opts.SeekStep,
		width:    defaultWidth,
		state:    playback.StatePaused,
	}
}

func tick() tea.Msg {
	return TickMsg(time.Now())
}

func (m Model) Init() tea.Cmd {
	return tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(msg.Width-24, 10)
		m.list.SetSize(msg.Width, max(msg.Height-chromeHeight, 3))
		return m, nil

	case TickMsg:
		m.onTick()
		return m, nil

	case ReloadMsg:
		if msg.Err != nil {
			m.status = "Reload failed, keeping current lines"
			m.err = msg.Err
			return m, nil
		}
		m.session.ReplaceTrack(msg.Track)
		m.err = nil
		m.status = fmt.Sprintf("Reloaded %d lines", msg.Track.Len())
		return m, m.list.SetItems(itemsFor(msg.Track))

	case PlayerDoneMsg:
		m.status = "Player exited"
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.togglePlayPause()
			return m, nil
		case key.Matches(msg, m.keys.Seek):
			m.seekToSelected()
			return m, nil
		case key.Matches(msg, m.keys.Back):
			m.seekRelative(-m.seekStep)
			return m, nil
		case key.Matches(msg, m.keys.Forward):
			m.seekRelative(m.seekStep)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) onTick() {
	frame, err := m.session.Tick()
	if err != nil {
		m.err = err
		m.logger.Warnw("Tick failed", "error", err)
		return
	}
	m.err = nil
	m.position = frame.Position
	m.state = frame.State
	if !frame.Changed {
		return
	}
	m.renders++
	if frame.Index < 0 {
		m.label = ""
		return
	}
	m.label = frame.Entry.Text
	m.logger.Debugw("Active line", "index", frame.Entry.Index, "at", subtitle.FormatTimestamp(frame.Position))
}

func (m *Model) togglePlayPause() {
	state, err := m.session.TogglePlayPause()
	if err != nil {
		m.err = err
		return
	}
	m.state = state
	m.status = state.String()
}

func (m *Model) seekToSelected() {
	if len(m.list.Items()) == 0 {
		return
	}
	pos, err := m.session.SeekTo(m.list.Index())
	if err != nil {
		m.err = err
		return
	}
	m.position = pos
	m.status = "Jumped to " + subtitle.FormatTimestamp(pos)
	m.logger.Debugw("Seek", "index", m.list.Index(), "position", pos)
}

func (m *Model) seekRelative(delta time.Duration) {
	pos, err := m.session.SeekRelative(delta)
	if err != nil {
		m.err = err
		return
	}
	m.position = pos
}

func (m Model) fraction() float64 {
	d := m.session.Duration()
	if d <= 0 {
		return 0
	}
	return min(float64(m.position)/float64(d), 1)
}

func (m Model) View() string {
	var b strings.Builder

	if m.title != "" {
		b.WriteString(titleStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "%s  %s / %s\n\n",
		m.progress.ViewAs(m.fraction()),
		clock(m.position),
		clock(m.session.Duration()),
	)

	label := m.label
	if label == "" {
		label = " "
	}
	b.WriteString(labelStyle.Width(max(m.width-4, 20)).Render(label))
	b.WriteString("\n")

	b.WriteString(buttonStyle.Render(m.state.Label()))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(helpLine(m.keys)))
	b.WriteString("\n\n")

	b.WriteString(m.list.View())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
	case m.status != "":
		b.WriteString(dimStyle.Render(m.status))
	}

	return b.String()
}

func helpLine(k KeyMap) string {
	parts := make([]string, 0, len(k.ShortHelp()))
	for _, b := range k.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// clock formats d as M:SS or H:MM:SS
func clock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
