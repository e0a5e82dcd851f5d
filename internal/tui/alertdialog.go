package tui

import (
	"fmt"
	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"time"
)

// alertCursor selects which button answers "enter".
type alertCursor int

const (
	negative alertCursor = iota
	positive
)

// alertDialogMsg raises the dialog. With button texts it is a
// confirmation, without any it is a self dismissing alert that counts
// down alertDuration (5s when unset).
type alertDialogMsg struct {
	header, body                   string
	positiveBtnTxt, negativeBtnTxt string
	cursor                         alertCursor
	alertDuration                  time.Duration
	positiveFunc, negativeFunc     func() tea.Cmd
}

func (msg alertDialogMsg) cmd() tea.Msg { return msg }

func (msg alertDialogMsg) isTimerAlert() bool {
	return msg.positiveBtnTxt == "" && msg.negativeBtnTxt == ""
}

// alertDialogModel renders one alertDialogMsg at a time over the rest
// of the TUI, stealing focus until it is answered or times out.
type alertDialogModel struct {
	current alertDialogMsg
	timer   timer.Model
	// prevFocus is where focus returns once the dialog hides
	prevFocus     focusSpace
	active        bool
	disableKeymap bool
}

func initialAlertDialogModel() alertDialogModel {
	return alertDialogModel{
		timer:         newAlertTimer(0),
		disableKeymap: true,
	}
}

func newAlertTimer(d time.Duration) timer.Model {
	if d <= 0 {
		d = 5 * time.Second
	}
	return timer.NewWithInterval(d, 100*time.Millisecond)
}

func (m alertDialogModel) capturesKeyEvent(msg tea.KeyMsg) bool {
	if !m.active {
		return false
	}
	switch msg.String() {
	case "enter", "tab", "shift+tab", "left", "right", "h", "l", "esc":
		return true
	}
	return false
}

func (m alertDialogModel) Init() tea.Cmd {
	return nil
}

func (m alertDialogModel) Update(msg tea.Msg) (alertDialogModel, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if currentFocus != alert {
			return m, nil
		}
		return m.handleKey(msg)

	case alertDialogMsg:
		m.current = msg
		m.active = true
		// a dialog raised over another must not capture alert as the
		// focus to restore
		if currentFocus != alert {
			m.prevFocus = currentFocus
		}
		currentFocus = alert
		if msg.isTimerAlert() {
			m.timer = newAlertTimer(msg.alertDuration)
			return m, tea.Batch(m.timer.Init(), spaceFocusSwitchCmd)
		}
		return m, spaceFocusSwitchCmd

	case timer.TickMsg:
		if msg.ID == m.timer.ID() {
			var cmd tea.Cmd
			m.timer, cmd = m.timer.Update(msg)
			return m, cmd
		}

	case timer.TimeoutMsg:
		if msg.ID == m.timer.ID() {
			return m, m.hide()
		}
	}

	return m, nil
}

func (m *alertDialogModel) handleKey(msg tea.KeyMsg) (alertDialogModel, tea.Cmd) {
	switch msg.String() {

	case "enter":
		run := m.current.negativeFunc
		if m.current.cursor == positive {
			run = m.current.positiveFunc
		}
		var cmd tea.Cmd
		if run != nil {
			cmd = run()
		}
		return *m, tea.Batch(m.hide(), cmd)

	case "tab", "shift+tab":
		m.current.cursor ^= 1

	case "left", "h":
		m.current.cursor = negative

	case "right", "l":
		m.current.cursor = positive

	case "esc": // dismiss without running either button
		return *m, m.hide()
	}

	return *m, nil
}

func (m alertDialogModel) View() string {
	c := alertDialogContainerStyle.Width(m.dialogWidth())
	rows := []string{
		alertDialogHeaderStyle.Render(m.current.header),
		alertDialogBodyStyle.Render(m.current.body),
	}
	footerW := c.GetWidth() - alertDialogBtnStyle.GetHorizontalPadding()

	if m.current.isTimerAlert() {
		lbl := lipgloss.NewStyle().Inline(true).Foreground(subduedHighlightColor)
		countdown := lipgloss.JoinHorizontal(lipgloss.Center,
			lbl.Render("Escaping in: "),
			lbl.Foreground(midHighlightColor).Render(fmt.Sprintf("%.1f", m.timer.Timeout.Seconds())),
		)
		rows = append(rows, lipgloss.PlaceHorizontal(footerW, lipgloss.Right, countdown))
	} else {
		activeBtn := alertDialogBtnStyle.
			Background(highlightColor).
			Foreground(subduedHighlightColor).
			Faint(true)
		neg, pos := activeBtn, alertDialogBtnStyle
		if m.current.cursor == positive {
			neg, pos = pos, neg
		}
		btns := lipgloss.JoinHorizontal(lipgloss.Center,
			neg.Render(m.current.negativeBtnTxt),
			pos.Render(m.current.positiveBtnTxt),
		)
		rows = append(rows, lipgloss.PlaceHorizontal(footerW, lipgloss.Right, btns))
	}

	return c.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// dialogWidth caps the dialog at 50 cells and keeps its parity in step
// with the workable width so centering lands on whole cells.
func (m alertDialogModel) dialogWidth() int {
	w := min(50, workableW())
	if workableW()%2 != 0 {
		w--
	}
	return w
}

func (m *alertDialogModel) updateKeymap(disable bool) {
	m.disableKeymap = disable
}

func (m *alertDialogModel) hide() tea.Cmd {
	wasTimer := m.current.isTimerAlert()
	m.active = false
	m.current = alertDialogMsg{}
	if wasTimer {
		// a fresh timer takes a fresh ID, in flight ticks of the old
		// one no longer match
		m.timer = newAlertTimer(0)
	}
	currentFocus = m.prevFocus
	return spaceFocusSwitchCmd
}
