package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/leighmacdonald/kmon/internal/config"
	"github.com/leighmacdonald/kmon/internal/event"
	"github.com/leighmacdonald/kmon/internal/kernel"
	"github.com/leighmacdonald/kmon/internal/session"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

type stubModules struct{}

func (stubModules) List(_ context.Context) ([]kernel.Module, error) {
	return []kernel.Module{
		{Name: "snd_pcm", Size: 155648, Used: 2, UsedBy: []string{"snd_hda_codec"}},
		{Name: "loop", Size: 40960},
		{Name: "nvme", Size: 61440, Used: 3},
		{Name: "mod_one", Size: 1024},
	}, nil
}

func (stubModules) Info(_ context.Context, name string) (string, error) {
	return "filename: /lib/modules/" + name + ".ko", nil
}

type stubExecutor struct {
	calls chan string
}

func (s stubExecutor) Exec(_ context.Context, cmd kernel.Command, name string) error {
	s.calls <- cmd.Shell(name)

	return nil
}

type harness struct {
	model    rootModel
	events   *event.Aggregator
	keys     event.KeyChan
	executor stubExecutor
}

func newHarness(t *testing.T) harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	events := event.NewAggregator()
	keys := make(event.KeyChan, 16)
	executor := stubExecutor{calls: make(chan string, 4)}

	sess, err := session.New(ctx, session.Deps{
		Modules:  stubModules{},
		Executor: executor,
		Emitter:  events,
	})
	require.NoError(t, err)

	events.StartKeyReader(ctx, keys)

	return harness{
		model:    newRootModel(ctx, sess, events, keys, nil),
		events:   events,
		keys:     keys,
		executor: executor,
	}
}

func runes(value string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(value)}
}

func TestProgramNavigation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tm := teatest.NewTestModel(t, h.model, teatest.WithInitialTermSize(120, 40))

	tm.Send(runes("j"))
	tm.Send(runes("j"))
	tm.Send(runes("/"))
	tm.Send(runes("o"))
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	tm.Send(runes("q"))

	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
	final, ok := tm.FinalModel(t).(rootModel)
	require.True(t, ok)
	require.NoError(t, final.err)

	state := final.session.State
	require.Equal(t, session.NoInput, state.Mode)
	require.Equal(t, session.ModuleTable, state.Focus)
	require.Equal(t, "o", state.Query)
	require.Equal(t, 0, state.List.Index)
	require.Len(t, final.session.Modules(), 2)
	require.Equal(t, "loop", final.session.Current().Name)
}

func TestProgramConfirmCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tm := teatest.NewTestModel(t, h.model, teatest.WithInitialTermSize(120, 40))

	tm.Send(runes("x"))
	tm.Send(runes("y"))

	select {
	case shell := <-h.executor.calls:
		require.Equal(t, kernel.Blacklist.Shell("snd_pcm"), shell)
	case <-time.After(3 * time.Second):
		t.Fatal("command was not executed")
	}

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
}

func TestProgramInputClosed(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	tm := teatest.NewTestModel(t, h.model, teatest.WithInitialTermSize(80, 24))

	close(h.keys)

	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
	final, ok := tm.FinalModel(t).(rootModel)
	require.True(t, ok)
	require.ErrorIs(t, final.err, event.ErrInputClosed)
	require.ErrorIs(t, final.err, event.ErrProducerStopped)
}

func TestView(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.Empty(t, h.model.View())

	updated, _ := h.model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := updated.View()

	for _, want := range []string{"Loaded Kernel Modules 1/4", "snd_pcm", "Kernel Activities", "filename: /lib/modules/snd_pcm.ko"} {
		require.Contains(t, view, want)
	}

	require.LessOrEqual(t, len(strings.Split(view, "\n")), 40)
}

func kernelLines(count int) []string {
	lines := make([]string, count)
	for i := range lines {
		lines[i] = fmt.Sprintf("kernel line %03d", i)
	}

	return lines
}

func TestViewActivitiesNewest(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	updated, _ := h.model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated, _ = updated.Update(eventMsg{event: event.NewExternalUpdate(kernelLines(200))})

	view := updated.View()
	require.Contains(t, view, "kernel line 199")
	require.Contains(t, view, "kernel line 190")
	require.NotContains(t, view, "kernel line 189")
	require.NotContains(t, view, "kernel line 000")

	updated, _ = updated.Update(eventMsg{event: event.NewKeyPress(event.Named("pgup"))})
	view = updated.View()
	require.Contains(t, view, "kernel line 189")
	require.NotContains(t, view, "kernel line 199")

	// Scrolled back, new lines arrive off screen.
	updated, _ = updated.Update(eventMsg{event: event.NewExternalUpdate(kernelLines(201))})
	require.NotContains(t, updated.View(), "kernel line 200")
}

func TestKeyFromMsg(t *testing.T) {
	t.Parallel()

	for _, testCase := range []struct {
		msg  tea.KeyMsg
		want event.Key
	}{
		{msg: runes("q"), want: event.Char('q')},
		{msg: runes("日"), want: event.Char('日')},
		{msg: tea.KeyMsg{Type: tea.KeySpace}, want: event.Char(' ')},
		{msg: tea.KeyMsg{Type: tea.KeySpace, Alt: true}, want: event.Named("alt+ ")},
		{msg: tea.KeyMsg{Type: tea.KeyEnter}, want: event.Named("enter")},
		{msg: tea.KeyMsg{Type: tea.KeyShiftTab}, want: event.Named("shift+tab")},
		{msg: tea.KeyMsg{Type: tea.KeyPgDown}, want: event.Named("pgdown")},
		{msg: tea.KeyMsg{Type: tea.KeyCtrlH}, want: event.Named("ctrl+h")},
		{msg: tea.KeyMsg{Type: tea.KeyF5}, want: event.Named("f5")},
	} {
		require.Equal(t, testCase.want, keyFromMsg(testCase.msg))
	}
}

func TestPointerWheel(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	k, ok := h.model.pointerKey(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	require.True(t, ok)
	require.Equal(t, event.Named("down"), k)

	_, ok = h.model.pointerKey(tea.MouseMsg{Action: tea.MouseActionMotion, Button: tea.MouseButtonNone})
	require.False(t, ok)

	h.model.session.State.Mode = session.Search
	_, ok = h.model.pointerKey(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	require.False(t, ok)
}

func TestConfigReload(t *testing.T) {
	h := newHarness(t)
	var applied config.Config
	h.model.reconfigure = func(conf config.Config) bool {
		applied = conf

		return conf.Sort != "name"
	}

	h.model.Update(ConfigMsg{Config: config.Config{Sort: "name"}})
	require.Zero(t, h.events.Len())

	h.model.Update(ConfigMsg{Config: config.Config{Sort: "size", AccentColor: "#5885A2"}})
	require.Equal(t, "size", applied.Sort)
	require.Equal(t, 1, h.events.Len())

	evt, err := h.events.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, event.Char('r'), evt.Key)
}
