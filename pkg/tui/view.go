package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sgaunet/s2console/pkg/dto"
	"github.com/sgaunet/s2console/pkg/listing"
)

const timeFormat = "2006-01-02 15:04Z07:00"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#999999"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#0066cc"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#cc0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// View renders the current screen.
func (m Model) View() string {
	var b strings.Builder
	if m.screen == screenFiles {
		s := m.files.Snapshot()
		b.WriteString(titleStyle.Render("s2console | files of " + s.Scope))
		b.WriteString("\n\n")
		m.writeToolbar(&b, s.Pattern, s.Total, s.Limit)
		writeBanner(&b, s.ErrorMessage, m.notice)
		writeFiles(&b, s.Items, s.Offset, m.cursor)
		writeStatus(&b, s.Status, s.Total, s.Limit, s.Offset)
	} else {
		s := m.buckets.Snapshot()
		b.WriteString(titleStyle.Render("s2console | buckets"))
		b.WriteString("\n\n")
		m.writeToolbar(&b, s.Pattern, s.Total, s.Limit)
		writeBanner(&b, s.ErrorMessage, m.notice)
		writeBuckets(&b, s.Items, s.Offset, m.cursor)
		writeStatus(&b, s.Status, s.Total, s.Limit, s.Offset)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help()))
	return b.String()
}

func (m Model) writeToolbar(b *strings.Builder, pattern string, total, limit int) {
	if m.editing {
		b.WriteString(m.filter.View())
	} else {
		fmt.Fprintf(b, "filter: %s", pattern)
	}
	fmt.Fprintf(b, "   %d matching, %d per page\n\n", total, limit)
}

func writeBanner(b *strings.Builder, messages ...string) {
	for _, msg := range messages {
		if msg != "" {
			b.WriteString(errorStyle.Render(msg))
			b.WriteString("\n\n")
		}
	}
}

func writeBuckets(b *strings.Builder, items []dto.Bucket, offset, cursor int) {
	b.WriteString(headerStyle.Render(fmt.Sprintf("%5s  %-40s %12s", "#", "Name", "Size")))
	b.WriteString("\n")
	for i, it := range items {
		line := fmt.Sprintf("%5d  %-40s %12s", offset+i+1, it.Name, humanize.IBytes(uint64(max(it.Size, 0))))
		writeRow(b, line, i == cursor)
	}
	if len(items) == 0 {
		b.WriteString(helpStyle.Render("  no bucket"))
		b.WriteString("\n")
	}
}

func writeFiles(b *strings.Builder, items []dto.File, offset, cursor int) {
	b.WriteString(headerStyle.Render(fmt.Sprintf("%5s  %-40s %12s  %s", "#", "Name", "Size", "Modified")))
	b.WriteString("\n")
	for i, it := range items {
		mod := ""
		if !it.ModTime.IsZero() {
			mod = it.ModTime.Format(timeFormat)
		}
		line := fmt.Sprintf("%5d  %-40s %12s  %s", offset+i+1, it.Name, humanize.IBytes(uint64(max(it.Size, 0))), mod)
		writeRow(b, line, i == cursor)
	}
	if len(items) == 0 {
		b.WriteString(helpStyle.Render("  no file"))
		b.WriteString("\n")
	}
}

func writeRow(b *strings.Builder, line string, selected bool) {
	if selected {
		line = selectedStyle.Render(line)
	}
	b.WriteString(line)
	b.WriteString("\n")
}

func writeStatus(b *strings.Builder, status listing.Status, total, limit, offset int) {
	info := dto.NewPaginationInfo(int64(total), limit, offset)
	fmt.Fprintf(b, "\npage %d/%d", info.CurrentPage, info.TotalPages)
	if status == listing.StatusLoading {
		b.WriteString("  loading...")
	}
	b.WriteString("\n")
}

func (m Model) help() string {
	if m.editing {
		return "type to filter | enter/esc: done"
	}
	if m.screen == screenFiles {
		return "←/→: page | home/end: first/last | +/-: page size | /: filter | r: refresh | esc: buckets | q: quit"
	}
	return "←/→: page | home/end: first/last | +/-: page size | /: filter | r: refresh | enter: open | q: quit"
}
