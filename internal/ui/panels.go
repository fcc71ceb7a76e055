package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/leighmacdonald/kmon/internal/kernel"
	"github.com/leighmacdonald/kmon/internal/session"
	"github.com/leighmacdonald/kmon/internal/ui/styles"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

// container draws a titled border around content. width and height are the inner size.
func container(zoneID string, title string, width int, height int, content string, active bool) string {
	if height <= 0 || width <= 0 {
		return ""
	}

	base := styles.ContainerStyle
	if active {
		base = styles.ContainerStyleActive
	}

	return zone.Mark(zoneID, base.
		Border(styles.TitleBorder(styles.ContainerBorder, width, title)).
		Width(width).
		Height(height).
		MaxHeight(height+2).
		Render(content))
}

func newModuleTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderHeader(false)
}

// panel renders one block with the given inner size.
func (m rootModel) panel(block session.Block, width int, height int) string {
	state := m.session.State
	active := state.Focus == block
	zoneID := m.zonePrefix + block.String()

	switch block {
	case session.UserInput:
		title := session.Search.String()
		if !state.Mode.IsNone() {
			title = state.Mode.String()
		}

		return container(zoneID, title, width, height, m.renderInput(width), active)
	case session.KernelInfo:
		info := m.session.Snapshot().Kernel
		category := info.Current()
		title := category.Title
		if info.Len() > 1 {
			title = fmt.Sprintf("%s (%d/%d)", category.Title, info.Index()+1, info.Len())
		}

		return container(zoneID, title, width, height, renderKernel(category, width), active)
	case session.ModuleTable:
		modules := m.session.Modules()
		title := fmt.Sprintf("Loaded Kernel Modules %d/%d", min(state.List.Index+1, len(modules)), len(modules))

		return container(zoneID, title, width, height, m.renderModules(modules, width, height), active)
	case session.ModuleInfo:
		current := m.session.Current()

		m.info.Width = width
		m.info.Height = height
		m.info.SetContent(m.session.InfoText())
		m.info.SetYOffset(state.Info.Index)

		return container(zoneID, current.Name, width, height, m.info.View(), active)
	case session.Activities:
		lines := m.session.Snapshot().Logs
		rendered := make([]string, len(lines))
		for i, line := range lines {
			rendered[i] = styles.LogLine.Render(truncate.String(line, uint(width)))
		}

		m.logs.Width = width
		m.logs.Height = height
		m.logs.SetContent(strings.Join(rendered, "\n"))
		m.logs.SetYOffset(state.Logs.Index)

		return container(zoneID, "Kernel Activities", width, height, m.logs.View(), active)
	default:
		return ""
	}
}

// renderInput draws the query with the caret placed at the column reported by the session.
func (m rootModel) renderInput(width int) string {
	state := m.session.State
	caret := m.session.Cursor()
	if !caret.Visible {
		return truncate.String(state.Query, uint(width))
	}

	column := caret.X - session.PromptOffset

	return runewidth.FillRight(state.Query, column) + m.caret.View()
}

func renderKernel(category kernel.InfoCategory, width int) string {
	fields := make([]string, 0, len(category.Fields))
	for _, field := range category.Fields {
		fields = append(fields, styles.InfoLabel.Render(field.Label+":")+" "+styles.InfoValue.Render(field.Value))
	}

	return truncate.String(strings.Join(fields, "  "), uint(width))
}

// renderModules draws the window of the module list that keeps the highlighted row visible.
func (m rootModel) renderModules(modules []kernel.Module, width int, height int) string {
	index := m.session.State.List.Index
	start, end := m.session.State.List.Window(height-1, len(modules))

	rows := make([][]string, 0, end-start)
	for _, module := range modules[start:end] {
		usedBy := strconv.Itoa(module.Used)
		if len(module.UsedBy) > 0 {
			usedBy += " " + strings.Join(module.UsedBy, ",")
		}

		rows = append(rows, []string{module.Name, module.HumanSize(), usedBy})
	}

	return newModuleTable().
		Width(width).
		Headers("Module", "Size", "Used by").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styles.TableHeader
			case row+start == index:
				return styles.TableRowSelected
			case row%2 == 0:
				return styles.TableRow
			default:
				return styles.TableRowOdd
			}
		}).
		String()
}
