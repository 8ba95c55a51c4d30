package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jimdaga/nextrend/internal/generation"
	"github.com/jimdaga/nextrend/internal/studio"
)

func (a *App) View() string {
	if a.width == 0 {
		return headerStyle.Render("nextrend")
	}

	header := headerStyle.Render("nextrend") + "  " + sourceTitleStyle.Render(truncateStr(a.req.Source.Title, a.width-14))

	var blocks []string
	for i, slot := range a.board.Slots() {
		if i == a.cursor {
			blocks = append(blocks, a.renderActiveSlot(i, slot))
		} else {
			blocks = append(blocks, a.renderCollapsedSlot(i, slot))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(blocks, "\n"), a.renderStatusBar())
}

func (a *App) renderCollapsedSlot(i int, slot studio.Slot) string {
	line := fmt.Sprintf("  %s  %s", slotLabelStyle.Render(slot.Type.Label), a.renderStatus(slot))
	if slot.Status == generation.StatusDone {
		preview := strings.Join(strings.Fields(a.reveals[i].Displayed()), " ")
		line += "  " + statusDimStyle.Render(truncateStr(preview, a.width-lipgloss.Width(line)-4))
	}
	return line
}

func (a *App) renderActiveSlot(i int, slot studio.Slot) string {
	innerW := max(20, a.width-4)
	title := slotLabelStyle.Render(slot.Type.Label) + "  " + a.renderStatus(slot)

	var body string
	switch {
	case slot.IsEditing:
		body = a.editor.View()
	case slot.Status == generation.StatusDone:
		body = slotBodyStyle.Width(innerW - 2).Render(a.reveals[i].Displayed())
	case slot.Status == generation.StatusFailed:
		body = statusFailedStyle.Render(slot.Error)
	case slot.Status == generation.StatusSkipped:
		body = statusDimStyle.Render("Skipped after an earlier failure.")
	default:
		body = a.spinner.View() + statusDimStyle.Render(" "+slot.Type.Description)
	}

	parts := []string{title, body}
	if slot.Warning != "" {
		parts = append(parts, warningStyle.Render(slot.Warning))
	}
	return slotActiveStyle.Width(innerW).Render(strings.Join(parts, "\n"))
}

func (a *App) renderStatus(slot studio.Slot) string {
	switch slot.Status {
	case generation.StatusDone:
		if slot.Edited {
			return statusDoneStyle.Render("edited")
		}
		return statusDoneStyle.Render("done")
	case generation.StatusFailed:
		return statusFailedStyle.Render("failed")
	case generation.StatusSkipped:
		return statusDimStyle.Render("skipped")
	default:
		return a.spinner.View() + statusDimStyle.Render(" generating")
	}
}

func (a *App) renderStatusBar() string {
	left := a.status
	if a.err != nil {
		left = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	right := " j/k move  enter skip  e edit  c copy  s share  r regenerate  q quit "
	if a.mode == modeEdit {
		right = " esc done editing "
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(a.width).Render(left + fmt.Sprintf("%*s", gap, "") + right)
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
