package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/panels/internal/view"
)

func (a *App) View() string {
	width := max(1, a.width)
	if a.width == 0 {
		width = 80
	}

	var body []string
	rows := a.rows()
	avail := len(rows)
	if a.height > 0 {
		avail = max(1, a.height-3)
		if a.prompt != promptNone {
			avail--
		}
	}
	a.scrollTo(avail)
	for n := a.offset; n < len(rows) && n < a.offset+avail; n++ {
		body = append(body, a.renderRow(rows[n].inst, n == a.cursor, width))
	}
	if len(rows) == 0 {
		body = append(body, typeStyle.Render("no open views"))
	}

	parts := []string{a.renderHeader(width), strings.Join(body, "\n")}
	switch {
	case a.picker != nil:
		parts = append(parts, a.renderPicker(width))
	case a.prompt != promptNone:
		parts = append(parts, a.input.View())
	}
	parts = append(parts, a.renderStatus(width), a.renderFooter(width))
	return strings.Join(parts, "\n")
}

func (a *App) scrollTo(avail int) {
	if a.cursor < a.offset {
		a.offset = a.cursor
	}
	if a.cursor >= a.offset+avail {
		a.offset = a.cursor - avail + 1
	}
	a.offset = max(0, a.offset)
}

func (a *App) renderHeader(width int) string {
	tabs := []string{headerAppStyle.Render(" panels ")}
	for n, v := range a.eng.Views() {
		style := inactiveTabStyle
		if n == a.active {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(v.Root.ID))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return renderBar(footerStyle, width, line, colorMantle)
}

func (a *App) renderRow(in *view.Instance, cursor bool, width int) string {
	text := strings.Repeat("  ", in.Depth()) + label(in)
	text = ansi.Truncate(text, width, "…")

	style := rowStyle
	switch {
	case cursor:
		style = cursorRowStyle
	case in.Truncated:
		style = repeatStyle
	case in.Type == "task" && in.Attrs["checked"] == true:
		style = doneStyle
	}
	return style.Render(text)
}

func label(in *view.Instance) string {
	var b strings.Builder
	if p := in.Parent(); p != nil {
		if _, single := p.Single(in.Key().Name); single {
			b.WriteString(in.Key().String() + " ")
		}
	}
	if in.Truncated {
		b.WriteString("↻ ")
	}
	switch in.Type {
	case "task":
		if in.Attrs["checked"] == true {
			b.WriteString("[x] ")
		} else {
			b.WriteString("[ ] ")
		}
		b.WriteString(in.ID)
	case "number":
		fmt.Fprintf(&b, "%s = %v", in.ID, in.Attrs["value"])
	case "note":
		fmt.Fprintf(&b, "%s: %v", in.ID, in.Attrs["text"])
	case "calendar":
		fmt.Fprintf(&b, "%s %v-%02v", in.ID, in.Attrs["year"], in.Attrs["month"])
	default:
		b.WriteString(in.ID)
	}
	b.WriteString(" (" + in.Type + ")")
	return b.String()
}

func (a *App) renderPicker(width int) string {
	line := a.input.View() + " "
	if hint := a.picker.Hint(); hint != "" {
		return ansi.Truncate(line+" "+typeStyle.Render(hint), width, "…")
	}
	for n, t := range a.picker.Matches() {
		style := typeStyle
		if n == a.picker.Cursor() {
			style = cursorRowStyle
		}
		line += " " + style.Render(t.Tag)
	}
	return ansi.Truncate(line, width, "…")
}

func (a *App) renderStatus(width int) string {
	msg := strings.TrimSpace(a.status)
	if msg == "" {
		msg = "Ready"
	}
	if a.yanked != "" {
		msg += "  [yank: " + a.yanked + "]"
	}
	if a.statusErr {
		return renderBar(statusErrBarStyle, width, msg, colorSurface0)
	}
	return renderBar(statusBarStyle, width, msg, colorSurface0)
}

func (a *App) renderFooter(width int) string {
	bg := colorMantle
	keyFg := keyStyle.Background(bg)
	descStyle := lipgloss.NewStyle().Foreground(colorMuted).Background(bg)
	space := lipgloss.NewStyle().Background(bg).Render(" ")
	sep := lipgloss.NewStyle().Background(bg).Render("  ")

	var parts []string
	for _, kb := range a.keys.Help(a.scope()) {
		h := kb.Help()
		parts = append(parts, keyFg.Render(h.Key)+space+descStyle.Render(h.Desc))
	}
	return renderBar(footerStyle, width, strings.Join(parts, sep), bg)
}

func renderBar(style lipgloss.Style, width int, text string, bg lipgloss.TerminalColor) string {
	line := strings.ReplaceAll(text, "\n", " ")
	line = ansi.Truncate(line, width, "")
	if w := ansi.StringWidth(line); w < width {
		line += strings.Repeat(" ", width-w)
	}
	return style.
		Background(bg).
		Width(width).
		MaxWidth(width).
		Render(line)
}
