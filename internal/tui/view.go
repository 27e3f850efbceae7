package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/febros/localesdash/internal/emitter"
)

const (
	dateColWidth  = len(emitter.DisplayLayout)
	badgeColWidth = len("Inactive")
)

func (m model) View() string {
	switch m.screen {
	case screenLogin:
		return m.loginView()
	case screenBoard:
		return m.boardView()
	}
	return m.styles.dim.Render("Restoring session…")
}

func (m model) loginView() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("localesdash"))
	b.WriteString("\n\n")
	b.WriteString(m.username.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")
	switch {
	case m.submitting:
		b.WriteString(m.styles.dim.Render("Checking…"))
	case m.loginErr != "":
		b.WriteString(m.styles.err.Render(m.loginErr))
	default:
		b.WriteString(m.styles.dim.Render("enter to sign in · tab to switch field"))
	}

	box := m.styles.loginBox.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m model) boardView() string {
	s := m.styles
	lines := make([]string, 0, rowsTop+len(m.visible)+2)

	lines = append(lines, s.title.Render("localesdash")+"  "+s.label.Render("Vendedor: ")+s.user.Bold(true).Render(m.user))
	lines = append(lines, m.filterLine())
	lines = append(lines, m.statusLine())
	lines = append(lines, m.columnHeader())

	h := m.listHeight()
	switch {
	case m.view.Version() == 0:
		lines = append(lines, s.dim.Render("No data yet. Waiting for the first refresh."))
	case len(m.visible) == 0:
		lines = append(lines, s.dim.Render("No emitters match the current filters."))
	default:
		end := min(len(m.visible), m.offset+h)
		for i := m.offset; i < end; i++ {
			lines = append(lines, m.row(i))
		}
	}

	if m.height > 0 {
		for len(lines) < m.height-m.footerHeight() {
			lines = append(lines, "")
		}
	}
	lines = append(lines, s.dim.Render("Refreshing every "+strconv.FormatInt(int64(math.Round(m.rt.getInterval().Seconds())), 10)+" s"))
	lines = append(lines, strings.Split(m.help.View(keys), "\n")...)

	if col, row, ok := m.popupOrigin(); ok {
		lines = overlayAt(lines, strings.Split(m.popupBox(), "\n"), m.width, col, row)
	}
	return strings.Join(lines, "\n")
}

func (m model) footerHeight() int {
	return 1 + lipgloss.Height(m.help.View(keys))
}

func (m model) filterLine() string {
	s := m.styles
	status := s.label.Render("Status: ") + s.value.Render(statusLabel(m.filter.Status))
	return strings.Join([]string{m.search.View(), m.from.View(), m.to.View(), status}, "  ")
}

func (m model) statusLine() string {
	s := m.styles
	if m.notice != "" {
		if m.noticeErr {
			return s.err.Render(m.notice)
		}
		return s.dim.Render(m.notice)
	}
	active, inactive := emitter.Counts(m.visible)
	return s.label.Render(fmt.Sprintf("%d of %d shown · ", len(m.visible), m.view.Len())) +
		s.active.Render(strconv.Itoa(active)+" active") +
		s.label.Render(" · ") +
		s.inactive.Render(strconv.Itoa(inactive)+" inactive")
}

func (m model) labelWidth() int {
	w := m.width
	if w <= 0 {
		w = 80
	}
	return max(8, w-2-dateColWidth-badgeColWidth-4)
}

func (m model) columnHeader() string {
	lw := m.labelWidth()
	return m.styles.header.Render(fmt.Sprintf("  %-*s  %-*s  %s", lw, "Emisor", dateColWidth, "Fecha de pago", "Estado"))
}

func (m model) row(i int) string {
	rec := m.visible[i]
	lw := m.labelWidth()

	label := xansi.Truncate(rec.Label(), lw, "…")
	label += strings.Repeat(" ", lw-xansi.StringWidth(label))
	date := emitter.FormatDate(rec.FechaAlta, m.deps.Loc)
	date = xansi.Truncate(date, dateColWidth, "…")
	date += strings.Repeat(" ", dateColWidth-xansi.StringWidth(date))

	badge := m.styles.inactive.Render("Inactive")
	if rec.Active {
		badge = m.styles.active.Render("Active")
	}

	marker := "  "
	if i == m.cursor {
		marker = "▸ "
	}
	line := marker + label + "  " + date + "  " + badge
	if i == m.cursor {
		return m.styles.selected.Render(line)
	}
	return line
}

func (m model) popupBox() string {
	p, _ := m.pos.Current()
	title := string(p.ID)
	if rec, ok := m.view.Find(p.ID); ok {
		title = rec.Label()
	}
	inner := popupWidth - 2
	body := strings.Join([]string{
		xansi.Truncate(title, inner, "…"),
		m.styles.label.Render("Fecha de pago"),
		m.styles.title.Render(p.Text),
	}, "\n")
	return m.styles.popup.Render(body)
}

func statusLabel(s emitter.Status) string {
	switch s {
	case emitter.StatusActive:
		return "Active"
	case emitter.StatusInactive:
		return "Inactive"
	default:
		return "All"
	}
}

// overlayAt draws fg over bg with its top-left cell at (x, y), clipping
// whatever falls outside the screen.
func overlayAt(bg, fg []string, width, x, y int) []string {
	fgW := 0
	for _, ln := range fg {
		fgW = max(fgW, xansi.StringWidth(ln))
	}
	if width <= 0 {
		width = fgW + max(0, x)
	}

	for i, fgLine := range fg {
		row := y + i
		if row < 0 {
			continue
		}
		for len(bg) <= row {
			bg = append(bg, "")
		}
		if n := xansi.StringWidth(fgLine); n < fgW {
			fgLine += strings.Repeat(" ", fgW-n)
		}

		start, skip := x, 0
		if start < 0 {
			skip, start = -start, 0
		}
		visible := min(fgW-skip, width-start)
		if visible <= 0 {
			continue
		}
		fgLine = xansi.Cut(fgLine, skip, skip+visible)

		bgLine := bg[row]
		if n := xansi.StringWidth(bgLine); n < start {
			bgLine += strings.Repeat(" ", start-n)
		}
		left := xansi.Cut(bgLine, 0, start)
		right := xansi.Cut(bgLine, start+visible, max(width, start+visible))
		bg[row] = left + fgLine + right
	}
	return bg
}
