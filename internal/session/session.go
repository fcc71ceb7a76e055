package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/leighmacdonald/kmon/internal/event"
	"github.com/leighmacdonald/kmon/internal/kernel"
	"github.com/leighmacdonald/kmon/internal/store"
	"github.com/leighmacdonald/kmon/internal/ui/input"
	"golang.org/x/sync/errgroup"
)

var ErrRefresh = errors.New("failed to refresh kernel snapshot")

// HelpName is the pseudo module name used while the help page is shown.
const HelpName = kernel.PseudoPrefix + "Help"

// Emitter accepts events generated by the session itself.
type Emitter interface {
	Push(evt event.Event)
}

// History records executed commands and lists the latest ones.
type History interface {
	Record(ctx context.Context, entry store.Entry) error
	Recent(ctx context.Context, limit int) ([]store.Entry, error)
}

// Deps are the collaborators used by a Session.
type Deps struct {
	Modules  kernel.ModuleSource
	Kernel   kernel.InfoSource
	Executor kernel.Executor
	Emitter  Emitter
	// History is optional.
	History History
}

// State is the interaction state of the dashboard. It is replaced wholesale on refresh.
type State struct {
	Focus   Block
	Mode    InputMode
	Query   string
	Pending Pending
	List    ScrollState
	Info    ScrollState
	Logs    ScrollState
}

func NewState() State {
	return State{Focus: ModuleTable}
}

// ModuleView is the content of the module information panel.
type ModuleView struct {
	Name string
	Text string
}

// Snapshot holds the data read from the collaborators. Each field is replaced as a whole,
// never edited in place.
type Snapshot struct {
	Modules []kernel.Module
	Kernel  kernel.Info
	Logs    []string
}

// Session owns the dashboard state and applies events to it. It is not safe for concurrent
// use; it is driven exclusively by the main loop.
type Session struct {
	State    State
	snapshot Snapshot
	current  ModuleView
	view     Viewport
	deps     Deps
}

// New builds a session and loads the initial snapshot. A snapshot failure is fatal.
func New(ctx context.Context, deps Deps) (*Session, error) {
	sess := &Session{deps: deps, State: NewState()}

	snapshot, errSnapshot := sess.load(ctx)
	if errSnapshot != nil {
		return nil, errSnapshot
	}

	sess.snapshot = snapshot
	sess.scrollList(ctx, input.Top)

	return sess, nil
}

// Snapshot returns the current collaborator data.
func (s *Session) Snapshot() Snapshot {
	return s.snapshot
}

// Current returns the module information panel content.
func (s *Session) Current() ModuleView {
	return s.current
}

// Cursor returns the caret placement for the current state.
func (s *Session) Cursor() Cursor {
	return CursorPosition(s.State)
}

// Modules returns the module list as displayed: filtered by the query unless the prompt is
// being used to name a module to load.
func (s *Session) Modules() []kernel.Module {
	if s.State.Query == "" || s.State.Mode == Load {
		return s.snapshot.Modules
	}

	return kernel.Filter(s.snapshot.Modules, s.State.Query)
}

// Selected returns the highlighted module.
func (s *Session) Selected() (kernel.Module, bool) {
	modules := s.Modules()
	if len(modules) == 0 || s.State.List.Index < 0 || s.State.List.Index >= len(modules) {
		return kernel.Module{}, false
	}

	return modules[s.State.List.Index], true
}

// Handle applies one event and reports whether the session should end.
func (s *Session) Handle(ctx context.Context, evt event.Event) bool {
	switch evt.Kind {
	case event.KeyPress:
		if s.State.Mode.IsNone() {
			return s.handleKey(ctx, evt.Key)
		}

		return s.handleInputKey(ctx, evt.Key)
	case event.ExternalUpdate:
		following := s.followingLogs()
		s.snapshot.Logs = evt.Lines
		s.syncLogs(following)
	case event.Tick:
	}

	return false
}

func (s *Session) handleKey(ctx context.Context, k event.Key) bool {
	keys := input.Default

	switch {
	case k.Name == event.ClickName:
		if block, ok := BlockFromZone(k.Zone); ok {
			s.State.Focus = block
		}
	case key.Matches(k, keys.Quit):
		return true
	case key.Matches(k, keys.Refresh):
		s.refresh(ctx)
	case key.Matches(k, keys.Help):
		s.State.Focus = ModuleInfo
		s.current = ModuleView{Name: HelpName, Text: s.helpText(ctx)}
		s.State.Info.Reset()
	case key.Matches(k, keys.Up):
		s.scrollFocused(ctx, input.Up)
	case key.Matches(k, keys.Down):
		s.scrollFocused(ctx, input.Down)
	case key.Matches(k, keys.Prev):
		s.State.Focus = s.State.Focus.Prev()
	case key.Matches(k, keys.Next):
		s.State.Focus = s.State.Focus.Next()
	case key.Matches(k, keys.Top):
		s.State.Focus = ModuleTable
		s.scrollList(ctx, input.Top)
	case key.Matches(k, keys.Bottom):
		s.State.Focus = ModuleTable
		s.scrollList(ctx, input.Bottom)
	case key.Matches(k, keys.LogUp):
		s.State.Focus = Activities
		s.State.Logs.Scroll(input.Up, s.logOffsets())
	case key.Matches(k, keys.LogDown):
		s.State.Focus = Activities
		s.State.Logs.Scroll(input.Down, s.logOffsets())
	case key.Matches(k, keys.InfoUp):
		s.State.Focus = ModuleInfo
		s.State.Info.Scroll(input.Up, s.infoOffsets())
	case key.Matches(k, keys.InfoDown):
		s.State.Focus = ModuleInfo
		s.State.Info.Scroll(input.Down, s.infoOffsets())
	case key.Matches(k, keys.KernelNext):
		s.snapshot.Kernel.Next()
	case key.Matches(k, keys.KernelPrev):
		s.snapshot.Kernel.Prev()
	case key.Matches(k, keys.Unload):
		s.stageSelected(kernel.Unload)
	case key.Matches(k, keys.Blacklist):
		s.stageSelected(kernel.Blacklist)
	case key.Matches(k, keys.Confirm):
		s.confirm(ctx)
	case key.Matches(k, keys.Cancel):
		s.cancel(ctx)
	case key.Matches(k, keys.Search):
		s.enterInput(Search, k)
	case key.Matches(k, keys.Load):
		s.enterInput(Load, k)
	case key.Matches(k, keys.UsedBy):
		position := int(k.Name[0] - '1')
		s.showUsedModule(ctx, position)
	}

	return false
}

func (s *Session) handleInputKey(ctx context.Context, k event.Key) bool {
	keys := input.Input

	switch {
	case key.Matches(k, keys.Quit):
		return true
	case key.Matches(k, keys.PrevMode):
		s.State.Mode = s.State.Mode.Prev()
		s.State.Query = ""
	case key.Matches(k, keys.NextMode):
		s.State.Mode = s.State.Mode.Next()
		s.State.Query = ""
	case key.Matches(k, keys.Submit):
		s.leaveInput(ctx, k)
	case key.Matches(k, keys.Erase):
		if _, size := utf8.DecodeLastRuneInString(s.State.Query); size > 0 {
			s.State.Query = s.State.Query[:len(s.State.Query)-size]
		}
		s.State.List.Reset()
	case k.Printable():
		s.State.Query += string(k.Runes)
		s.State.List.Reset()
	}

	return false
}

// enterInput activates the prompt. Only the enter key keeps the previous query so a
// search can be resumed.
func (s *Session) enterInput(mode InputMode, k event.Key) {
	s.State.Focus = UserInput
	s.State.Mode = mode
	if k.Name != "enter" {
		s.State.Query = ""
	}
}

func (s *Session) leaveInput(ctx context.Context, k event.Key) {
	switch k.Name {
	case "left", "ctrl+h":
		s.State.Focus = s.State.Focus.Prev()
	case "enter":
		if s.State.Mode == Load {
			s.State.Focus = ModuleInfo
		} else {
			s.State.Focus = ModuleTable
		}
	default:
		s.State.Focus = ModuleTable
	}

	switch {
	case s.State.Mode == Search && s.State.List.Index == 0:
		// Show the first match.
		s.scrollList(ctx, input.Top)
	case s.State.Mode == Load && s.State.Query != "":
		name := strings.TrimSpace(s.State.Query)
		s.State.Query = ""
		s.State.Focus = ModuleInfo
		if !s.stage(kernel.Load, name) {
			s.current = ModuleView{Name: kernel.PseudoPrefix + name, Text: fmt.Sprintf("Invalid module name: %q", name)}
			s.State.Info.Reset()
		}
	}

	s.State.Mode = NoInput
}

func (s *Session) scrollFocused(ctx context.Context, dir input.Direction) {
	switch s.State.Focus {
	case ModuleTable:
		s.scrollList(ctx, dir)
	case ModuleInfo:
		s.State.Info.Scroll(dir, s.infoOffsets())
	case Activities:
		s.State.Logs.Scroll(dir, s.logOffsets())
	case UserInput, KernelInfo:
	}
}

// scrollList moves the highlighted row and shows the information of the module under it.
func (s *Session) scrollList(ctx context.Context, dir input.Direction) {
	modules := s.Modules()
	if len(modules) == 0 {
		return
	}

	s.State.List.Scroll(dir, len(modules))
	s.showModule(ctx, modules[s.State.List.Index].Name, modules[s.State.List.Index].Name)
}

func (s *Session) showModule(ctx context.Context, name string, displayName string) {
	text, errInfo := s.deps.Modules.Info(ctx, name)
	if errInfo != nil {
		slog.Warn("Failed to read module info", slog.String("module", name), slog.String("error", errInfo.Error()))
		text = errInfo.Error()
	}

	s.current = ModuleView{Name: displayName, Text: text}
	s.State.Info.Reset()
}

func (s *Session) showUsedModule(ctx context.Context, position int) {
	selected, ok := s.Selected()
	if !ok || position < 0 || position >= len(selected.UsedBy) {
		return
	}

	name := selected.UsedBy[position]
	s.showModule(ctx, name, kernel.PseudoPrefix+name)
}

func (s *Session) stageSelected(cmd kernel.Command) {
	selected, ok := s.Selected()
	if !ok {
		return
	}

	s.stage(cmd, selected.Name)
}

// stage sets the pending command and shows the confirmation prompt.
func (s *Session) stage(cmd kernel.Command, name string) bool {
	if !kernel.ValidName(name) {
		return false
	}

	s.State.Pending = Pending{Command: cmd, Module: name}
	s.current = ModuleView{Name: name, Text: cmd.Prompt(name)}
	s.State.Info.Reset()

	return true
}

func (s *Session) confirm(ctx context.Context) {
	pending := s.State.Pending
	if pending.IsNone() {
		return
	}

	s.State.Pending = Pending{}
	s.State.Info.Reset()

	errExec := s.deps.Executor.Exec(ctx, pending.Command, pending.Module)
	s.record(ctx, pending, errExec)

	if errExec != nil {
		s.current = ModuleView{
			Name: pending.Module,
			Text: fmt.Sprintf("Failed to execute command: '%s'\n%s", pending.Command.Shell(pending.Module), errExec.Error()),
		}

		return
	}

	s.current = ModuleView{Name: pending.Module, Text: "Executed: " + pending.Command.Shell(pending.Module)}
	if s.deps.Emitter != nil {
		s.deps.Emitter.Push(event.NewKeyPress(event.Char('r')))
	}
}

func (s *Session) cancel(ctx context.Context) {
	if s.State.Pending.IsNone() {
		return
	}

	s.State.Pending = Pending{}
	s.State.Focus = ModuleTable

	if len(s.Modules()) == 0 {
		return
	}

	index, dir := cancelNudge(s.State.List.Index)
	s.State.List.Index = index
	s.scrollList(ctx, dir)
}

func (s *Session) record(ctx context.Context, pending Pending, errExec error) {
	if s.deps.History == nil {
		return
	}

	entry := store.Entry{Command: pending.Command.String(), Module: pending.Module, Success: errExec == nil}
	if errExec != nil {
		entry.Error = errExec.Error()
	}

	if err := s.deps.History.Record(ctx, entry); err != nil {
		slog.Error("Failed to record command history", slog.String("error", err.Error()))
	}
}

// refresh rebuilds the whole state from fresh collaborator snapshots. The kernel log is
// kept; it is owned by the poll producer.
func (s *Session) refresh(ctx context.Context) {
	snapshot, errSnapshot := s.load(ctx)
	if errSnapshot != nil {
		slog.Error("Refresh failed", slog.String("error", errSnapshot.Error()))
		s.current = ModuleView{Name: kernel.PseudoPrefix + "Error", Text: errSnapshot.Error()}
		s.State.Info.Reset()

		return
	}

	snapshot.Logs = s.snapshot.Logs
	s.snapshot = snapshot
	s.State = NewState()
	s.State.Logs.Scroll(input.Bottom, s.logOffsets())
	s.current = ModuleView{}
	s.scrollList(ctx, input.Top)

	slog.Debug("Session refreshed", slog.Int("modules", len(snapshot.Modules)))
}

func (s *Session) load(ctx context.Context) (Snapshot, error) {
	var (
		modules    []kernel.Module
		categories []kernel.InfoCategory
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		modules, err = s.deps.Modules.List(groupCtx)

		return err
	})
	group.Go(func() error {
		if s.deps.Kernel == nil {
			return nil
		}

		var err error
		categories, err = s.deps.Kernel.Categories(groupCtx)

		return err
	})

	if err := group.Wait(); err != nil {
		return Snapshot{}, errors.Join(err, ErrRefresh)
	}

	return Snapshot{Modules: modules, Kernel: kernel.NewInfo(categories)}, nil
}
