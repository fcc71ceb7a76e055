package event_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leighmacdonald/kmon/internal/event"
	"github.com/stretchr/testify/require"
)

func TestAggregatorFIFO(t *testing.T) {
	t.Parallel()

	agg := event.NewAggregator()
	for _, name := range []string{"a", "b", "c"} {
		agg.Push(event.NewKeyPress(event.Text(name)))
	}
	agg.Push(event.NewTick())
	agg.Push(event.NewExternalUpdate([]string{"line"}))

	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		evt, err := agg.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, event.KeyPress, evt.Kind)
		require.Equal(t, name, evt.Key.Name)
	}

	evt, err := agg.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, event.Tick, evt.Kind)

	evt, err = agg.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, event.ExternalUpdate, evt.Kind)
	require.Equal(t, []string{"line"}, evt.Lines)
	require.Equal(t, 0, agg.Len())
}

func TestAggregatorDoesNotDropUnderLoad(t *testing.T) {
	t.Parallel()

	const perProducer = 5000

	agg := event.NewAggregator()

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perProducer {
				agg.Push(event.NewTick())
			}
		}()
	}
	wg.Wait()

	require.Equal(t, perProducer*2, agg.Len())

	ctx := context.Background()
	for range perProducer * 2 {
		_, err := agg.Next(ctx)
		require.NoError(t, err)
	}
}

func TestAggregatorNextHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := event.NewAggregator().Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAggregatorFailureAfterDrain(t *testing.T) {
	t.Parallel()

	agg := event.NewAggregator()
	agg.Push(event.NewTick())
	agg.Fail(errors.New("tty gone"))

	_, err := agg.Next(context.Background())
	require.NoError(t, err)

	_, err = agg.Next(context.Background())
	require.ErrorIs(t, err, event.ErrProducerStopped)
}

func TestKeyReaderProducer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys := make(event.KeyChan, 2)
	agg := event.NewAggregator()
	agg.StartKeyReader(ctx, keys)

	keys <- event.Char('j')
	keys <- event.Named("enter")

	evt, err := agg.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "j", evt.Key.Name)

	evt, err = agg.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, "enter", evt.Key.Name)

	close(keys)

	_, err = agg.Next(ctx)
	require.ErrorIs(t, err, event.ErrInputClosed)
	require.ErrorIs(t, err, event.ErrProducerStopped)
}

type fakePoller struct {
	mu    sync.Mutex
	calls int
}

func (p *fakePoller) Poll(_ context.Context) ([]string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls%2 == 0 {
		return []string{"usb 1-1: new device"}, true, nil
	}

	return nil, false, nil
}

func TestPollerProducer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agg := event.NewAggregator()
	agg.StartPoller(ctx, time.Millisecond, &fakePoller{})

	first, err := agg.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, event.Tick, first.Kind)

	second, err := agg.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, event.ExternalUpdate, second.Kind)
	require.Equal(t, []string{"usb 1-1: new device"}, second.Lines)
}

func TestKeyConstructors(t *testing.T) {
	t.Parallel()

	require.True(t, event.Char('x').Printable())
	require.False(t, event.Named("enter").Printable())
	require.Equal(t, []rune("ü"), event.Text("ü").Runes)
	require.Equal(t, "ü", event.Text("ü").Name)
	require.Equal(t, []rune("abc"), event.Text("abc").Runes)

	click := event.Click("modules")
	require.Equal(t, event.ClickName, click.String())
	require.Equal(t, "modules", click.Zone)
}
