// Package tui is the terminal dashboard: a login form, then the live
// emitter board with filters and the payment-date popup.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/febros/localesdash/internal/auth"
	"github.com/febros/localesdash/internal/emitter"
	"github.com/febros/localesdash/internal/poller"
	"github.com/febros/localesdash/internal/popup"
	"github.com/febros/localesdash/internal/session"
)

const (
	popupWidth  = 32
	popupHeight = 5

	// rowsTop is the screen line of the first emitter row.
	rowsTop = 4
)

// Authenticator checks credentials and starts a session on success.
type Authenticator interface {
	Login(ctx context.Context, s auth.Starter, username, password string) error
}

// Deps is what the terminal dashboard needs from the rest of the program.
type Deps struct {
	Auth     Authenticator
	Session  *session.Session
	Fetcher  poller.Fetcher
	Interval time.Duration
	Loc      *time.Location
	Logger   *slog.Logger
}

// IntervalMsg changes the refresh interval of a running dashboard.
type IntervalMsg struct {
	Interval time.Duration
}

type screen int

const (
	screenRestoring screen = iota
	screenLogin
	screenBoard
)

type field int

const (
	fieldNone field = iota
	fieldSearch
	fieldFrom
	fieldTo
)

type restoreMsg struct {
	username string
	ok       bool
	err      error
}

type loginResultMsg struct {
	username string
	err      error
}

type logoutMsg struct {
	err error
}

type model struct {
	ctx    context.Context
	deps   Deps
	rt     *pollRuntime
	logger *slog.Logger

	screen        screen
	width, height int
	theme         theme
	styles        styles
	help          help.Model

	// login
	username   textinput.Model
	password   textinput.Model
	loginFocus int
	submitting bool
	loginErr   string

	// board
	user      string
	view      *emitter.View
	filter    emitter.Filter
	visible   []emitter.Record
	cursor    int
	offset    int
	editing   field
	search    textinput.Model
	from      textinput.Model
	to        textinput.Model
	notice    string
	noticeErr bool
	pos       *popup.Positioner
}

func newModel(ctx context.Context, deps Deps) model {
	if deps.Loc == nil {
		deps.Loc = time.Local
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	username := textinput.New()
	username.Prompt = "Usuario    "
	username.CharLimit = 64
	username.Width = 24
	username.Focus()

	password := textinput.New()
	password.Prompt = "Contraseña "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 24

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "id or name"
	search.Width = 20

	from := textinput.New()
	from.Prompt = "From: "
	from.Placeholder = "YYYY-MM-DD"
	from.CharLimit = 10
	from.Width = 10

	to := textinput.New()
	to.Prompt = "To: "
	to.Placeholder = "YYYY-MM-DD"
	to.CharLimit = 10
	to.Width = 10

	return model{
		ctx:      ctx,
		deps:     deps,
		rt:       newPollRuntime(deps.Fetcher, deps.Interval, deps.Logger),
		logger:   deps.Logger,
		screen:   screenRestoring,
		theme:    themeDark,
		styles:   newStyles(themeDark),
		help:     help.New(),
		username: username,
		password: password,
		view:     emitter.NewView(),
		filter:   emitter.Filter{Status: emitter.StatusAll, Loc: deps.Loc},
		search:   search,
		from:     from,
		to:       to,
		pos:      popup.NewPositioner(popupWidth, popupHeight, deps.Loc),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.restore(), textinput.Blink)
}

func (m model) restore() tea.Cmd {
	ctx, s := m.ctx, m.deps.Session
	return func() tea.Msg {
		username, ok, err := s.Restore(ctx)
		return restoreMsg{username: username, ok: ok, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.clampScroll()
		return m, nil

	case restoreMsg:
		if msg.err != nil {
			m.logger.Warn("session restore failed", "error", msg.err)
		}
		if msg.ok {
			return m.enterBoard(msg.username)
		}
		m.screen = screenLogin
		return m, nil

	case loginResultMsg:
		m.submitting = false
		m.password.Reset()
		if msg.err != nil {
			m.loginErr = auth.FailureMessage
			if !errors.Is(msg.err, auth.ErrInvalidCredentials) {
				m.logger.Error("login failed", "error", msg.err)
			}
			return m, nil
		}
		m.loginErr = ""
		return m.enterBoard(msg.username)

	case logoutMsg:
		if msg.err != nil {
			m.logger.Error("logout failed", "error", msg.err)
			m.setNotice("Could not log out: "+msg.err.Error(), true)
			return m, nil
		}
		m.leaveBoard()
		return m, nil

	case recordsMsg:
		if !m.rt.current(msg.epoch) {
			return m, nil
		}
		m.view.Replace(msg.records)
		m.refresh()
		return m, m.rt.next(msg)

	case IntervalMsg:
		if err := m.rt.setInterval(msg.Interval); err != nil {
			m.logger.Warn("ignoring poll interval", "error", err)
		}
		return m, nil

	case tea.MouseMsg:
		if m.screen == screenBoard {
			m.handleMouse(msg)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.ForceQuit) {
			m.rt.stop()
			return m, tea.Quit
		}
		switch m.screen {
		case screenLogin:
			return m.updateLogin(msg)
		case screenBoard:
			return m.updateBoard(msg)
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

// updateInputs forwards non-key messages such as cursor blinks to the
// focused input.
func (m model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		if m.loginFocus == 0 {
			m.username, cmd = m.username.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
	case screenBoard:
		if in := m.input(m.editing); in != nil {
			*in, cmd = in.Update(msg)
		}
	}
	return m, cmd
}

func (m model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Submit):
		if m.submitting {
			return m, nil
		}
		username, password := m.username.Value(), m.password.Value()
		if username == "" || password == "" {
			m.loginErr = auth.FailureMessage
			return m, nil
		}
		m.submitting = true
		ctx, authn, s := m.ctx, m.deps.Auth, m.deps.Session
		return m, func() tea.Msg {
			return loginResultMsg{username: username, err: authn.Login(ctx, s, username, password)}
		}
	case key.Matches(msg, keys.NextField), key.Matches(msg, keys.PrevField):
		cmd := m.focusLogin(1 - m.loginFocus)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *model) focusLogin(i int) tea.Cmd {
	m.loginFocus = i
	if i == 0 {
		m.password.Blur()
		return m.username.Focus()
	}
	m.username.Blur()
	return m.password.Focus()
}

func (m model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing != fieldNone {
		return m.updateEditing(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.rt.stop()
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, keys.Open):
		m.openSelected()
	case key.Matches(msg, keys.Close):
		m.pos.Close()
	case key.Matches(msg, keys.Search):
		cmd := m.startEditing(fieldSearch)
		return m, cmd
	case key.Matches(msg, keys.From):
		cmd := m.startEditing(fieldFrom)
		return m, cmd
	case key.Matches(msg, keys.To):
		cmd := m.startEditing(fieldTo)
		return m, cmd
	case key.Matches(msg, keys.Status):
		m.filter.Status = m.filter.Status.Next()
		m.refresh()
	case key.Matches(msg, keys.Clear):
		m.clearFilters()
	case key.Matches(msg, keys.Theme):
		m.theme = m.theme.toggle()
		m.styles = newStyles(m.theme)
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.clampScroll()
	case key.Matches(msg, keys.Logout):
		ctx, s := m.ctx, m.deps.Session
		return m, func() tea.Msg { return logoutMsg{err: s.Logout(ctx)} }
	}
	return m, nil
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	in := m.input(m.editing)
	switch msg.Type {
	case tea.KeyEsc:
		m.stopEditing()
		return m, nil
	case tea.KeyEnter:
		if m.editing == fieldSearch {
			m.stopEditing()
			return m, nil
		}
		d, err := emitter.ParseDate(in.Value())
		if err != nil {
			m.setNotice("Invalid date, use YYYY-MM-DD", true)
			return m, nil
		}
		if m.editing == fieldFrom {
			m.filter.Start = d
		} else {
			m.filter.End = d
		}
		m.setNotice("", false)
		m.stopEditing()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	if m.editing == fieldSearch {
		m.filter.Query = in.Value()
		m.refresh()
	}
	return m, cmd
}

func (m *model) input(f field) *textinput.Model {
	switch f {
	case fieldSearch:
		return &m.search
	case fieldFrom:
		return &m.from
	case fieldTo:
		return &m.to
	}
	return nil
}

func (m *model) startEditing(f field) tea.Cmd {
	m.stopEditing()
	m.editing = f
	return m.input(f).Focus()
}

func (m *model) stopEditing() {
	if in := m.input(m.editing); in != nil {
		in.Blur()
	}
	m.editing = fieldNone
}

func (m *model) clearFilters() {
	m.stopEditing()
	m.search.Reset()
	m.from.Reset()
	m.to.Reset()
	m.filter = emitter.Filter{Status: emitter.StatusAll, Loc: m.deps.Loc}
	m.setNotice("", false)
	m.refresh()
}

func (m *model) setNotice(text string, isErr bool) {
	m.notice, m.noticeErr = text, isErr
}

func (m model) enterBoard(username string) (tea.Model, tea.Cmd) {
	m.user = username
	m.screen = screenBoard
	m.username.Reset()
	m.password.Reset()
	cmd, err := m.rt.start(m.ctx)
	if err != nil {
		m.logger.Error("starting poller", "error", err)
		m.setNotice("Refresh is not running: "+err.Error(), true)
	}
	m.refresh()
	return m, cmd
}

func (m *model) leaveBoard() {
	m.rt.stop()
	m.view = emitter.NewView()
	m.pos.Close()
	m.clearFilters()
	m.user = ""
	m.cursor, m.offset = 0, 0
	m.screen = screenLogin
	m.loginErr = ""
	m.focusLogin(0)
}

// refresh recomputes the visible list and keeps the cursor on it.
func (m *model) refresh() {
	m.visible = m.view.Visible(m.filter)
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.clampScroll()
}

func (m *model) moveCursor(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.visible)-1, m.cursor+delta))
	m.clampScroll()
}

// listHeight is how many rows fit between the header and the footer.
func (m model) listHeight() int {
	if m.height <= 0 {
		return len(m.visible)
	}
	return max(1, m.height-rowsTop-m.footerHeight())
}

func (m *model) clampScroll() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if maxOffset := max(0, len(m.visible)-h); m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// rowAt maps a screen line to an index into visible.
func (m model) rowAt(y int) (int, bool) {
	if y < rowsTop || y >= rowsTop+m.listHeight() {
		return 0, false
	}
	i := m.offset + y - rowsTop
	if i >= len(m.visible) {
		return 0, false
	}
	return i, true
}

func (m model) rowRect(i int) popup.Rect {
	return popup.Rect{X: 0, Y: float64(rowsTop + i - m.offset), Width: float64(m.width), Height: 1}
}

func (m *model) openSelected() {
	if len(m.visible) == 0 {
		return
	}
	m.open(m.cursor)
}

func (m *model) open(i int) {
	rec := m.visible[i]
	if !m.pos.Open(rec, m.rowRect(i)) {
		m.setNotice(fmt.Sprintf("%s has no payment date", rec.Label()), false)
		return
	}
	m.setNotice("", false)
}

func (m *model) handleMouse(msg tea.MouseMsg) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress {
		return
	}
	// Hit-test against the centre of the clicked cell.
	x, y := float64(msg.X)+0.5, float64(msg.Y)+0.5
	if _, open := m.pos.Current(); open && !m.pos.Click(x, y) {
		return
	}
	if i, ok := m.rowAt(msg.Y); ok {
		m.cursor = i
		m.open(i)
	}
}

// popupOrigin is the top-left cell of the open popup.
func (m model) popupOrigin() (col, row int, ok bool) {
	b, ok := m.pos.Bounds()
	if !ok {
		return 0, 0, false
	}
	return int(math.Floor(b.X)), int(math.Floor(b.Y)), true
}
