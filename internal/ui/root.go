package ui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leighmacdonald/kmon/internal/config"
	"github.com/leighmacdonald/kmon/internal/event"
	"github.com/leighmacdonald/kmon/internal/session"
	"github.com/leighmacdonald/kmon/internal/ui/input"
	"github.com/leighmacdonald/kmon/internal/ui/styles"
	zone "github.com/lrstanley/bubblezone"
)

const (
	inputHeight = 1
	// Rows taken by the top and bottom border of a panel.
	borderSize = 2
)

// Reconfigure applies a reloaded configuration outside of the ui, returning true when the
// module list must be reloaded.
type Reconfigure func(config.Config) bool

// rootModel is the top level model for the ui side of the app. It forwards terminal input to
// the key producer and draws the session after each event it consumes.
type rootModel struct {
	ctx         context.Context
	session     *session.Session
	events      *event.Aggregator
	keys        event.KeyChan
	reconfigure Reconfigure
	zonePrefix  string
	width       int
	height      int
	info        viewport.Model
	logs        viewport.Model
	help        help.Model
	caret       cursor.Model
	err         error
}

func newRootModel(ctx context.Context, sess *session.Session, events *event.Aggregator,
	keys event.KeyChan, reconfigure Reconfigure,
) rootModel {
	caret := cursor.New()
	caret.SetChar(" ")
	caret.Style = styles.Caret
	caret.SetMode(cursor.CursorStatic)
	caret.Focus()

	return rootModel{
		ctx:         ctx,
		session:     sess,
		events:      events,
		keys:        keys,
		reconfigure: reconfigure,
		zonePrefix:  zone.NewPrefix(),
		info:        viewport.New(0, 0),
		logs:        viewport.New(0, 0),
		help:        help.New(),
		caret:       caret,
	}
}

func (m rootModel) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("kmon"),
		waitForEvent(m.ctx, m.events),
	)
}

func (m rootModel) Update(inMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := inMsg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.session.Resize(m.layout(lipgloss.Height(m.footer())).viewport())
	case tea.KeyMsg:
		m.forward(keyFromMsg(msg))
	case tea.MouseMsg:
		if k, ok := m.pointerKey(msg); ok {
			m.forward(k)
		}
	case eventMsg:
		if m.session.Handle(m.ctx, msg.event) {
			slog.Debug("Quit requested")

			return m, tea.Quit
		}

		return m, waitForEvent(m.ctx, m.events)
	case fatalMsg:
		slog.Error("Event stream failed", slog.String("error", msg.err.Error()))
		m.err = msg.err

		return m, tea.Quit
	case ConfigMsg:
		styles.SetAccent(msg.Config.AccentColor)
		m.caret.Style = styles.Caret
		if m.reconfigure != nil && m.reconfigure(msg.Config) {
			m.events.Push(event.NewKeyPress(event.Char('r')))
		}
	}

	var cmd tea.Cmd
	m.caret, cmd = m.caret.Update(inMsg)

	return m, cmd
}

// forward hands terminal input to the key producer. The send blocks only if the reader has
// stopped draining, which is reported through the event stream.
func (m rootModel) forward(k event.Key) {
	select {
	case m.keys <- k:
	case <-m.ctx.Done():
	}
}

// keyFromMsg converts a bubbletea key to the names used by the key bindings.
func keyFromMsg(msg tea.KeyMsg) event.Key {
	switch {
	case msg.Type == tea.KeyRunes && !msg.Alt:
		return event.Text(string(msg.Runes))
	case msg.Type == tea.KeySpace && !msg.Alt:
		return event.Char(' ')
	default:
		return event.Named(msg.String())
	}
}

// pointerKey turns a left click on a panel into a focus request and the wheel into up/down.
func (m rootModel) pointerKey(msg tea.MouseMsg) (event.Key, bool) {
	if !m.session.State.Mode.IsNone() {
		return event.Key{}, false
	}

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelUp:
		return event.Named("up"), true
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelDown:
		return event.Named("down"), true
	case msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft:
		for _, block := range session.Blocks() {
			if zone.Get(m.zonePrefix + block.String()).InBounds(msg) {
				return event.Click(block.String()), true
			}
		}
	}

	return event.Key{}, false
}

func (m rootModel) footer() string {
	var footer string
	if m.session.State.Mode.IsNone() {
		footer = m.help.ShortHelpView(input.Default.ShortHelp())
	} else {
		footer = m.help.ShortHelpView(input.Input.ShortHelp())
	}

	return styles.HelpStyle.Width(m.width).Render(footer)
}

// layout holds the inner size of every panel.
type layout struct {
	leftWidth   int
	rightWidth  int
	tableHeight int
	logsWidth   int
	logsHeight  int
}

func (m rootModel) layout(footerHeight int) layout {
	bodyHeight := m.height - footerHeight - (inputHeight + borderSize)
	tableHeight := max(1, bodyHeight*2/3-borderSize)

	return layout{
		leftWidth:   m.width/2 - borderSize,
		rightWidth:  m.width - m.width/2 - borderSize,
		tableHeight: tableHeight,
		logsWidth:   m.width - borderSize,
		logsHeight:  max(1, bodyHeight-tableHeight-2*borderSize),
	}
}

func (l layout) viewport() session.Viewport {
	return session.Viewport{InfoWidth: l.rightWidth, InfoHeight: l.tableHeight, LogHeight: l.logsHeight}
}

func (m rootModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	footer := m.footer()
	size := m.layout(lipgloss.Height(footer))

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.panel(session.UserInput, size.leftWidth, inputHeight),
		m.panel(session.KernelInfo, size.rightWidth, inputHeight))
	middle := lipgloss.JoinHorizontal(lipgloss.Top,
		m.panel(session.ModuleTable, size.leftWidth, size.tableHeight),
		m.panel(session.ModuleInfo, size.rightWidth, size.tableHeight))
	bottom := m.panel(session.Activities, size.logsWidth, size.logsHeight)

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, top, middle, bottom, footer))
}
