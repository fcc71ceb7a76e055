package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/nxadm/tail"
)

var (
	ErrLogRead = errors.New("failed to read kernel log")
	ErrLogOpen = errors.New("failed to open kernel log")
)

// DefaultLogLines is the number of kernel log lines kept for the activities panel.
const DefaultLogLines = 1000

// LogSource provides the kernel log buffer shown in the activities panel.
type LogSource interface {
	Poll(ctx context.Context) ([]string, bool, error)
	Close(ctx context.Context) error
}

// DmesgLog reads the kernel ring buffer by running dmesg on every poll.
type DmesgLog struct {
	Command  []string
	MaxLines int
	last     []string
}

func NewDmesgLog(maxLines int) *DmesgLog {
	return &DmesgLog{
		Command:  []string{"dmesg", "--kernel", "--nopager", "--color=never"},
		MaxLines: maxLines,
	}
}

// Poll returns the current buffer and whether it differs from the previous poll.
func (d *DmesgLog) Poll(ctx context.Context) ([]string, bool, error) {
	out, errExec := exec.CommandContext(ctx, d.Command[0], d.Command[1:]...).Output()
	if errExec != nil {
		return nil, false, errors.Join(errExec, ErrLogRead)
	}

	lines := keepLast(splitLines(string(out)), d.MaxLines)
	if slices.Equal(lines, d.last) {
		return d.last, false, nil
	}

	d.last = lines

	return lines, true, nil
}

func (d *DmesgLog) Close(_ context.Context) error {
	return nil
}

// TailLog follows a kernel log file such as /var/log/kern.log. New lines are buffered in
// the background and handed out on the next poll.
type TailLog struct {
	filePath string
	maxLines int
	tail     *tail.Tail
	mu       sync.Mutex
	lines    []string
	dirty    bool
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewTailLog(filePath string, maxLines int) *TailLog {
	return &TailLog{
		filePath: filePath,
		maxLines: maxLines,
		stopChan: make(chan struct{}),
	}
}

func (l *TailLog) Open() error {
	if l.tail != nil {
		return nil
	}

	tailConfig := tail.Config{
		// Start at the end of the file, only watch for new lines.
		Location: &tail.SeekInfo{
			Offset: 0,
			Whence: io.SeekEnd,
		},
		// Ensure we don't see the log messages in stdout and mangle the ui
		Logger:    tail.DiscardingLogger,
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
	}

	tailFile, errTail := tail.TailFile(l.filePath, tailConfig)
	if errTail != nil {
		return errors.Join(errTail, ErrLogOpen)
	}

	l.tail = tailFile

	return nil
}

// Start consumes lines from the followed file until the context is done or Close is called.
func (l *TailLog) Start(ctx context.Context) {
	stop := func() {
		if errStop := l.tail.Stop(); errStop != nil {
			slog.Error("Failed to stop tailing kernel log cleanly", slog.String("error", errStop.Error()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			stop()

			return
		case msg, ok := <-l.tail.Lines:
			if !ok {
				l.fail(l.tail.Err())

				return
			}

			if msg == nil {
				continue
			}

			if msg.Err != nil {
				slog.Warn("Kernel log tail error", slog.String("error", msg.Err.Error()))

				continue
			}

			l.append(msg.Text)
		case <-l.stopChan:
			stop()

			return
		}
	}
}

// fail records that the follower stopped on its own. The reason is added to the buffer so
// the next poll shows it.
func (l *TailLog) fail(err error) {
	if err == nil {
		err = ErrLogRead
	}

	slog.Error("Stopped following kernel log", slog.String("path", l.filePath), slog.String("error", err.Error()))
	l.append(fmt.Sprintf("Stopped following %s: %s", l.filePath, err.Error()))
}

func (l *TailLog) append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = keepLast(append(l.lines, line), l.maxLines)
	l.dirty = true
}

func (l *TailLog) Poll(_ context.Context) ([]string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.dirty {
		return nil, false, nil
	}

	l.dirty = false

	return slices.Clone(l.lines), true, nil
}

func (l *TailLog) Close(_ context.Context) error {
	if l.tail == nil {
		return nil
	}

	l.stopOnce.Do(func() { close(l.stopChan) })

	return nil
}

func splitLines(body string) []string {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return nil
	}

	return strings.Split(body, "\n")
}

func keepLast(lines []string, limit int) []string {
	if limit <= 0 || len(lines) <= limit {
		return lines
	}

	return lines[len(lines)-limit:]
}
