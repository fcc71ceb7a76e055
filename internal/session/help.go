package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/kmon/internal/ui/input"
)

const historyLimit = 10

func (s *Session) helpText(ctx context.Context) string {
	var builder strings.Builder

	writeBindings(&builder, input.Default.FullHelp())
	builder.WriteString("\nPrompt\n")
	writeBindings(&builder, input.Input.FullHelp())

	if s.deps.History == nil {
		return strings.TrimRight(builder.String(), "\n")
	}

	entries, errHistory := s.deps.History.Recent(ctx, historyLimit)
	if errHistory != nil {
		slog.Error("Failed to load command history", slog.String("error", errHistory.Error()))
	}

	if len(entries) > 0 {
		builder.WriteString("\nRecent commands\n")
	}

	for _, entry := range entries {
		status := "ok"
		if !entry.Success {
			status = "failed: " + entry.Error
		}

		fmt.Fprintf(&builder, "  %-9s %-20s %s (%s)\n", entry.Command, entry.Module,
			humanize.Time(entry.CreatedOn), status)
	}

	return strings.TrimRight(builder.String(), "\n")
}

func writeBindings(builder *strings.Builder, groups [][]key.Binding) {
	for _, group := range groups {
		for _, binding := range group {
			help := binding.Help()
			fmt.Fprintf(builder, "  %-12s %s\n", help.Key, help.Desc)
		}
	}
}
