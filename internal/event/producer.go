package event

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRate is the poll interval used when none is configured.
const DefaultRate = 250 * time.Millisecond

// KeyReader blocks until the next keystroke is available.
type KeyReader interface {
	ReadKey() (Key, error)
}

// LogPoller reports the kernel log buffer and whether it changed since the last poll.
type LogPoller interface {
	Poll(ctx context.Context) ([]string, bool, error)
}

// KeyChan adapts a channel of keys into a KeyReader. A closed channel is reported as
// ErrInputClosed.
type KeyChan chan Key

func (c KeyChan) ReadKey() (Key, error) {
	key, ok := <-c
	if !ok {
		return Key{}, ErrInputClosed
	}

	return key, nil
}

// StartKeyReader runs the keyboard producer. Every keystroke is pushed immediately. A read
// failure stops the producer and is reported to the consumer through Next.
func (a *Aggregator) StartKeyReader(ctx context.Context, reader KeyReader) {
	go func() {
		for {
			key, err := reader.ReadKey()
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("Keyboard reader stopped", slog.String("error", err.Error()))
					a.Fail(err)
				}

				return
			}

			a.Push(NewKeyPress(key))
		}
	}()
}

// StartPoller runs the poll producer. Each interval it asks the log poller for new content
// and pushes either an ExternalUpdate carrying the buffer or a Tick. Poll errors are logged
// and reported as a Tick so the redraw cadence is kept.
func (a *Aggregator) StartPoller(ctx context.Context, interval time.Duration, poller LogPoller) {
	if interval <= 0 {
		interval = DefaultRate
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.Push(pollOnce(ctx, poller))
			}
		}
	}()
}

func pollOnce(ctx context.Context, poller LogPoller) Event {
	if poller == nil {
		return NewTick()
	}

	lines, changed, err := poller.Poll(ctx)
	if err != nil {
		slog.Warn("Failed to poll kernel log", slog.String("error", err.Error()))

		return NewTick()
	}

	if !changed {
		return NewTick()
	}

	return NewExternalUpdate(lines)
}
