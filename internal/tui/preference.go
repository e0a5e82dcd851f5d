package tui

import (
	"errors"
	"fmt"
	"github.com/MuhamedUsman/letdrop/internal/config"
	"github.com/MuhamedUsman/letdrop/internal/tui/overlay"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type preferenceType int

const (
	option preferenceType = iota
	input
)

type preferenceSection int

const (
	general preferenceSection = iota
	staging
	describing
)

var prefSecNames = []string{
	"General",
	"Staging",
	"Describing",
}

func (ps preferenceSection) string() string {
	if int(ps) >= 0 && int(ps) < len(prefSecNames) {
		return prefSecNames[ps]
	}
	return fmt.Sprintf("preferenceSection(%d)", int(ps))
}

type preferenceKey int

const (
	username preferenceKey = iota
	maxFiles
	maxSize
	acceptedTypes
	descModel
	descBaseURL
	descPrompt
	descTimeout
	lowDetail
)

var prefKeyNames = []string{
	"USERNAME",
	"MAX STAGED FILES",
	"MAX FILE SIZE",
	"ACCEPTED TYPES",
	"MODEL",
	"BASE URL",
	"PROMPT",
	"TIMEOUT",
	"LOW DETAIL?",
}

func (pk preferenceKey) string() string {
	if int(pk) >= 0 && int(pk) < len(prefKeyNames) {
		return prefKeyNames[pk]
	}
	return fmt.Sprintf("preferenceKey(%d)", int(pk))
}

type preferenceQue struct {
	title preferenceKey
	desc  string
	pType preferenceType
	pSec  preferenceSection
	// input ques carry a prompt and the typed answer
	prompt, input string
	// row span inside the rendered viewport content, drives scrolling
	startLine, endLine int
	// option ques carry this instead, true reads YUP!
	check bool
}

type preferenceModel struct {
	view  viewport.Model
	field textinput.Model
	ques  []preferenceQue
	// the saved baseline every answer is diffed against
	config                                      *config.Config
	titleStyle                                  lipgloss.Style
	cursor                                      int
	showHelp, disableKeymap, active, insertMode bool
}

func initialPreferenceModel() preferenceModel {
	cfg, err := config.Get()
	if errors.Is(err, config.ErrNoConfig) {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("unable to load preferences", "error", err)
		os.Exit(1)
	}

	v := viewport.New(0, 0)
	v.Style = v.Style.Padding(1, 1, 0, 1)
	v.MouseWheelEnabled = false
	v.KeyMap = viewport.KeyMap{} // scrolling is cursor driven

	ti := textinput.New()
	ti.Prompt = ""
	ti.ShowSuggestions = true
	ti.PromptStyle = ti.PromptStyle.Foreground(midHighlightColor)
	ti.TextStyle = ti.TextStyle.Foreground(highlightColor)
	ti.Cursor.TextStyle = ti.Cursor.Style.Foreground(highlightColor)
	ti.Cursor.Style = ti.Cursor.TextStyle.Reverse(true)
	ti.PlaceholderStyle = ti.PlaceholderStyle.Foreground(subduedHighlightColor)

	return preferenceModel{
		ques:   populatePreferencesFromConfig(cfg),
		config: &cfg,
		view:   v,
		field:  ti,
	}
}

func (m preferenceModel) capturesKeyEvent(msg tea.KeyMsg) bool {
	if m.insertMode {
		return true
	}
	switch msg.String() {
	case "tab", "down", "enter", "shift+tab", "up", "left", "right", "i", "ctrl+s", "esc", "?":
		return !m.disableKeymap && m.active
	default:
		return false
	}
}

func (m preferenceModel) Init() tea.Cmd {
	return tea.Batch(m.view.Init(), textinput.Blink)
}

func (m preferenceModel) Update(msg tea.Msg) (preferenceModel, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.updateDimensions()
		m.renderViewport()

	case tea.KeyMsg:
		if m.disableKeymap || !m.active {
			return m, nil
		}

		if m.insertMode {
			switch msg.String() {
			case "enter":
				m.ques[m.cursor].input = m.field.Value()
				m.leaveInsertMode()

			case "esc":
				m.leaveInsertMode()
			}
			return m, m.handleUpdate(msg)
		}

		switch msg.String() {
		case "tab", "enter":
			m.wrapCursor(1)
			m.scrollToCursor(down)

		case "down":
			m.cursor = min(m.cursor+1, len(m.ques)-1)
			m.scrollToCursor(down)

		case "shift+tab":
			m.wrapCursor(-1)
			m.scrollToCursor(up)

		case "up":
			m.cursor = max(m.cursor-1, 0)
			m.scrollToCursor(up)

		case "left", "right":
			m.ques[m.cursor].check = msg.String() == "right"

		case "i":
			return m, m.enterInsertMode()

		case "ctrl+s":
			if m.isUnsavedState() {
				return m, m.savePreferences()
			}

		case "esc":
			if m.isUnsavedState() {
				return m, m.confirmSaveChanges()
			}
			return m, tea.Batch(m.inactivePreference(), m.handleUpdate(msg))

		case "?":
			m.showHelp = !m.showHelp
			m.updateDimensions()

		}
		m.renderViewport()

	case spaceFocusSwitchMsg:
		m.updateTitleStyleAsFocus(currentFocus == picker)

	case pickerChildSwitchMsg:
		m.active = msg.child == pickerPrefs

	case preferencesSavedMsg:
		// refresh the saved baseline so the state reads Saved again
		if cfg, err := config.Get(); err == nil {
			m.config = &cfg
		}
		return m, tea.Batch(m.inactivePreference(), m.handleUpdate(msg))
	}

	return m, m.handleUpdate(msg)
}

func (m preferenceModel) View() string {
	title := m.renderTitle("Preferences")
	status := m.renderStatusBar()
	ht := preferenceHelp(m.showHelp, largeContainerW()-2)
	if m.insertMode {
		o := m.renderInsertOverlay(m.ques[m.cursor].title.string(), m.field.View(), m.field.Width)
		o = overlay.Center(m.view.View(), o)
		return lipgloss.JoinVertical(lipgloss.Center, title, status, o, ht)
	}
	return lipgloss.JoinVertical(lipgloss.Center, title, status, m.view.View(), ht)
}

func (m *preferenceModel) handleUpdate(msg tea.Msg) tea.Cmd {
	var viewCmd, fieldCmd tea.Cmd
	m.view, viewCmd = m.view.Update(msg)
	m.field, fieldCmd = m.field.Update(msg)
	return tea.Batch(viewCmd, fieldCmd)
}

type scrollDirection int

const (
	up scrollDirection = iota
	down
)

// wrapCursor moves the cursor delta ques over, wrapping at both ends.
func (m *preferenceModel) wrapCursor(delta int) {
	n := len(m.ques)
	m.cursor = (m.cursor + delta + n) % n
}

// scrollToCursor nudges the viewport just enough to uncover the que
// under the cursor, the edges snap to top/bottom.
func (m *preferenceModel) scrollToCursor(direction scrollDirection) {
	switch m.cursor {
	case 0:
		m.view.GotoTop()
		return
	case len(m.ques) - 1:
		m.view.GotoBottom()
		return
	}
	q := m.ques[m.cursor]
	switch direction {
	case up:
		if q.startLine < m.view.YOffset {
			m.view.SetYOffset(q.startLine)
		}
	case down:
		if bottom := m.view.YOffset + m.view.VisibleLineCount(); q.endLine > bottom {
			m.view.SetYOffset(q.endLine - m.view.VisibleLineCount())
		}
	}
}

func (m *preferenceModel) updateDimensions() {
	statusBarH := pickerStatusBarStyle.GetHeight() + pickerStatusBarStyle.GetVerticalFrameSize()
	helpH := lipgloss.Height(preferenceHelp(m.showHelp, 0))
	m.view.Width = largeContainerW()
	m.view.Height = pickerWorkableH() - (statusBarH + helpH + m.view.Style.GetVerticalFrameSize())

	inputW := min(50, m.view.Width)
	m.field.Width = inputW - 5 - preferenceQueOverlayContainerStyle.GetHorizontalFrameSize() -
		m.view.Style.GetHorizontalFrameSize()

	if !m.insertMode {
		m.cursor = 0
		m.view.GotoTop()
	}
}

func (m *preferenceModel) updateTitleStyleAsFocus(focused bool) {
	t := titleStyle.UnsetMarginBottom()
	if focused {
		t = t.Background(highlightColor).Foreground(subduedHighlightColor)
	} else {
		t = t.Background(subduedGrayColor).Foreground(highlightColor)
	}
	m.titleStyle = t
}

// renderViewport lays every que into the viewport and records the row
// span each one occupies, scrollToCursor needs those spans.
func (m *preferenceModel) renderViewport() {
	var b strings.Builder
	lastSec := preferenceSection(-1)
	var startLine, endLine int
	for i, q := range m.ques {
		if q.pSec != lastSec {
			lastSec = q.pSec
			b.WriteString(m.renderSectionTitle(q.pSec.string()) + "\n")
		}
		b.WriteString(m.renderQue(q, i == m.cursor) + "\n")
		endLine = lipgloss.Height(b.String())
		m.ques[i].startLine = startLine - preferenceQueContainerStyle.GetBorderTopSize()
		m.ques[i].endLine = endLine - preferenceQueContainerStyle.GetBorderBottomSize()
		startLine = endLine
	}
	m.view.SetContent(b.String())
}

func (m preferenceModel) renderTitle(title string) string {
	tail := "…"
	w := largeContainerW() - titleStyle.GetHorizontalPadding() - 2*lipgloss.Width(tail)
	return m.titleStyle.Render(runewidth.Truncate(title, w, tail))
}

func (m preferenceModel) renderStatusBar() string {
	state := "Saved"
	if m.isUnsavedState() {
		state = "Unsaved"
	}
	s := fmt.Sprintf("Cursor at: %d/%d • State: %s", m.cursor+1, len(m.ques), state)
	return pickerStatusBarStyle.Render(s)
}

func (m preferenceModel) renderSectionTitle(t string) string {
	w := m.view.Width - m.view.Style.GetHorizontalFrameSize() - preferenceSectionStyle.GetHorizontalBorderSize()
	return preferenceSectionStyle.Width(w).Render(t)
}

// renderQue draws one preference card, the active one gets the filled
// title, highlighted border and underlined answer.
func (m preferenceModel) renderQue(q preferenceQue, active bool) string {
	titleS := preferenceQueTitleStyle
	descS := preferenceQueDescStyle
	ansS := preferenceQueInputAnsStyle
	container := preferenceQueContainerStyle
	if active {
		titleS = titleS.Faint(true).
			Background(highlightColor).Foreground(subduedHighlightColor)
		descS = descS.Foreground(highlightColor)
		ansS = ansS.Underline(true).Italic(true)
		container = container.BorderForeground(highlightColor)
	}

	var answer string
	switch q.pType {
	case option:
		answer = renderCheck(q.check, active)
	case input:
		answer = preferenceQueInputPromptStyle.Render(q.prompt) + ansS.Render(q.input)
	}

	card := lipgloss.JoinVertical(lipgloss.Left,
		titleS.Render(truncatePrefTitle(q.title.string())),
		descS.Render(q.desc),
		answer,
	)
	w := m.view.Width - m.view.Style.GetHorizontalFrameSize() - container.GetHorizontalBorderSize()
	return container.Width(w).Render(card)
}

// renderCheck shows only the picked side when the que is inactive, both
// buttons once it has the cursor.
func renderCheck(check, active bool) string {
	picked := preferenceQueBtnStyle.Faint(true).
		Background(highlightColor).Foreground(subduedHighlightColor)
	if !active {
		s := "NOPE"
		if check {
			s = "YUP!"
		}
		return picked.Render(s)
	}
	nope, yup := preferenceQueBtnStyle, picked
	if !check {
		nope, yup = yup, nope
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, nope.Render("NOPE"), yup.Render("YUP!"))
}

// renderInsertOverlay floats a bordered input box whose top border
// carries the que title, the way the picker filter does.
func (m preferenceModel) renderInsertOverlay(title, inputView string, width int) string {
	cornerL, cornerR := "╭─", "─╮"
	tail := "…"
	cornerW := lipgloss.Width(cornerL + cornerR)

	title = runewidth.Truncate(title, width+cornerW+lipgloss.Width(tail), tail)
	title = preferenceQueTitleStyle.Faint(true).
		Background(highlightColor).Foreground(subduedHighlightColor).
		Render(title)

	frame := preferenceQueOverlayContainerStyle.GetHorizontalPadding() +
		preferenceQueOverlayContainerStyle.GetHorizontalBorderSize()
	wantW := width + cornerW - 1 + frame
	fill := ""
	if gap := wantW - lipgloss.Width(title); gap > 0 {
		fill = strings.Repeat("─", gap)
	}

	border := lipgloss.NewStyle().Foreground(highlightColor)
	top := border.MarginTop(1).
		MarginLeft(preferenceQueOverlayContainerStyle.GetMarginLeft()).
		MarginRight(preferenceQueOverlayContainerStyle.GetMarginRight()).
		Render(border.Render(cornerL) + title + border.Render(fill+cornerR))

	body := preferenceQueOverlayContainerStyle.
		BorderStyle(lipgloss.RoundedBorder()).
		Width(width + 9).
		Render(inputView)
	return lipgloss.JoinVertical(lipgloss.Top, top, body)
}

func (m *preferenceModel) updateKeymap(disable bool) {
	m.disableKeymap = disable
}

func (m *preferenceModel) enterInsertMode() tea.Cmd {
	q := m.ques[m.cursor]
	if q.pType != input {
		return nil
	}
	m.insertMode = true
	m.field.Prompt = q.prompt
	m.field.SetValue(q.input)
	return m.field.Focus()
}

func (m *preferenceModel) leaveInsertMode() {
	m.field.Prompt = ""
	m.field.SetValue("")
	m.insertMode = false
	m.field.Blur()
}

// resetToSavedState rebuilds every que from the saved baseline,
// discarding whatever was edited.
func (m *preferenceModel) resetToSavedState() {
	m.ques = populatePreferencesFromConfig(*m.config)
}

func (m *preferenceModel) inactivePreference() tea.Cmd {
	m.cursor = 0
	m.active, m.showHelp = false, false
	return msgToCmd(preferenceInactiveMsg{})
}

// buildConfig assembles a config from the current answers, the returned
// string is a user facing complaint, empty when everything parsed.
func (m preferenceModel) buildConfig() (config.Config, string) {
	cfg := *m.config
	for _, q := range m.ques {
		switch q.title {
		case username:
			cfg.Personal.Username = strings.TrimSpace(q.input)
		case maxFiles:
			n, err := strconv.Atoi(strings.TrimSpace(q.input))
			if err != nil || n < 1 || n > config.MaxStagedFiles {
				return cfg, fmt.Sprintf("“%s” must be a number between 1 and %d.",
					q.title.string(), config.MaxStagedFiles)
			}
			cfg.Intake.MaxFiles = n
		case maxSize:
			n, err := strconv.ParseInt(strings.TrimSpace(q.input), 10, 64)
			if err != nil || n < 1 || n > 4096 {
				return cfg, fmt.Sprintf("“%s” must be megabytes between 1 and 4096.", q.title.string())
			}
			cfg.Intake.MaxSizeBytes = n << 20
		case acceptedTypes:
			rules := parseAcceptedTypes(q.input)
			if bad := malformedTypeRule(rules); bad != "" {
				return cfg, fmt.Sprintf("“%s” entry “%s” must be an extension like “.pdf” or a media type like “image/*”.",
					q.title.string(), bad)
			}
			cfg.Intake.AcceptedTypes = rules
		case descModel:
			cfg.Describe.Model = strings.TrimSpace(q.input)
		case descBaseURL:
			cfg.Describe.BaseURL = strings.TrimSpace(q.input)
		case descPrompt:
			cfg.Describe.Prompt = q.input
		case descTimeout:
			n, err := strconv.Atoi(strings.TrimSpace(q.input))
			if err != nil || n < 1 || n > 600 {
				return cfg, fmt.Sprintf("“%s” must be seconds between 1 and 600.", q.title.string())
			}
			cfg.Describe.TimeoutSeconds = n
		case lowDetail:
			cfg.Describe.LowDetail = q.check
		}
	}
	return cfg, ""
}

func (m *preferenceModel) savePreferences() tea.Cmd {
	cfg, invalid := m.buildConfig()
	if invalid != "" {
		return m.invalidPreferenceAlert(invalid)
	}
	return saveConfigCmd(cfg)
}

func (preferenceModel) invalidPreferenceAlert(body string) tea.Cmd {
	return msgToCmd(alertDialogMsg{header: "INVALID PREFERENCE", body: body})
}

func saveConfigCmd(cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		if err := config.Save(cfg); err != nil {
			return errMsg{
				err:   fmt.Errorf("saving preferences: %v", err),
				fatal: true,
			}
		}
		return preferencesSavedMsg{}
	}
}

func (m preferenceModel) isUnsavedState() bool {
	for _, q := range m.ques {
		var saved string
		switch q.title {
		case username:
			saved = m.config.Personal.Username
		case maxFiles:
			saved = strconv.Itoa(m.config.Intake.MaxFiles)
		case maxSize:
			saved = formatMaxSizeMB(m.config.Intake.MaxSizeBytes)
		case acceptedTypes:
			saved = formatAcceptedTypes(m.config.Intake.AcceptedTypes)
		case descModel:
			saved = m.config.Describe.Model
		case descBaseURL:
			saved = m.config.Describe.BaseURL
		case descPrompt:
			saved = m.config.Describe.Prompt
		case descTimeout:
			saved = strconv.Itoa(m.config.Describe.TimeoutSeconds)
		case lowDetail:
			if q.check != m.config.Describe.LowDetail {
				return true
			}
			continue
		}
		if q.input != saved {
			return true
		}
	}
	return false
}

// confirmSaveChanges asks what to do with unsaved edits on the way out,
// save them or fall back to the saved baseline.
func (m *preferenceModel) confirmSaveChanges() tea.Cmd {
	positiveFunc := func() tea.Cmd {
		cfg, invalid := m.buildConfig()
		if invalid != "" {
			return m.invalidPreferenceAlert(invalid)
		}
		return tea.Batch(m.inactivePreference(), saveConfigCmd(cfg))
	}
	negativeFunc := func() tea.Cmd {
		m.resetToSavedState()
		return m.inactivePreference()
	}

	return msgToCmd(alertDialogMsg{
		header:         "UPDATE PREFERENCES?",
		body:           "Do you want to update preferences, unsaved changes will be lost.",
		cursor:         positive,
		positiveBtnTxt: "YUP!",
		negativeBtnTxt: "NOPE",
		positiveFunc:   positiveFunc,
		negativeFunc:   negativeFunc,
	})
}

func populatePreferencesFromConfig(cfg config.Config) []preferenceQue {
	return []preferenceQue{
		{
			title: username, pSec: general, pType: input, prompt: "Name: ",
			desc:  "Name stamped on this machine's staging activity in the logs.",
			input: cfg.Personal.Username,
		},
		{
			title: maxFiles, pSec: staging, pType: input, prompt: "Count: ",
			desc:  "Staging capacity, submissions beyond it are rejected. Applies on next launch.",
			input: strconv.Itoa(cfg.Intake.MaxFiles),
		},
		{
			title: maxSize, pSec: staging, pType: input, prompt: "MBs: ",
			desc:  "Per file size ceiling, larger files are rejected on intake. Applies on next launch.",
			input: formatMaxSizeMB(cfg.Intake.MaxSizeBytes),
		},
		{
			title: acceptedTypes, pSec: staging, pType: input, prompt: "CSV: ",
			desc:  "Extensions or MIME patterns to accept, e.g. “.pdf, image/*”. Empty accepts everything. Applies on next launch.",
			input: formatAcceptedTypes(cfg.Intake.AcceptedTypes),
		},
		{
			title: descModel, pSec: describing, pType: input, prompt: "Model: ",
			desc:  "Vision capable model used to caption staged images.",
			input: cfg.Describe.Model,
		},
		{
			title: descBaseURL, pSec: describing, pType: input, prompt: "URL: ",
			desc:  "OpenAI compatible endpoint, empty uses the official one.",
			input: cfg.Describe.BaseURL,
		},
		{
			title: descPrompt, pSec: describing, pType: input, prompt: "Prompt: ",
			desc:  "Instruction sent along with the image.",
			input: cfg.Describe.Prompt,
		},
		{
			title: descTimeout, pSec: describing, pType: input, prompt: "Secs: ",
			desc:  "Seconds to wait on a caption before giving up.",
			input: strconv.Itoa(cfg.Describe.TimeoutSeconds),
		},
		{
			title: lowDetail, pSec: describing, pType: option,
			desc:  "Send images at low detail to save tokens on captions.",
			check: cfg.Describe.LowDetail,
		},
	}
}

func formatMaxSizeMB(bytes int64) string {
	return strconv.FormatInt(bytes>>20, 10)
}

func formatAcceptedTypes(types []string) string {
	return strings.Join(types, ", ")
}

func parseAcceptedTypes(csv string) []string {
	parts := strings.Split(csv, ",")
	types := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			types = append(types, p)
		}
	}
	return types
}

// malformedTypeRule returns the first rule that is neither a dot
// extension nor a media type, such a rule can never match a file.
func malformedTypeRule(rules []string) string {
	for _, r := range rules {
		if !strings.HasPrefix(r, ".") && !strings.Contains(r, "/") {
			return r
		}
	}
	return ""
}

func truncatePrefTitle(title string) string {
	w := largeContainerW() - largeContainerStyle.GetHorizontalFrameSize() -
		preferenceQueContainerStyle.GetHorizontalFrameSize() - preferenceQueTitleStyle.GetHorizontalFrameSize()
	return runewidth.Truncate(title, w, "…")
}

func preferenceHelp(show bool, width int) string {
	rows := [][]string{{"?", "help"}}
	if show {
		rows = [][]string{
			{"tab/shift+tab", "cycle ques"},
			{"↓/↑", "next/prev que"},
			{"←/→", "pick NOPE/YUP!"},
			{"i", "edit answer"},
			{"enter", "commit answer"},
			{"esc", "leave insert/preferences"},
			{"ctrl+s", "save preferences"},
			{"?", "close help"},
		}
	}
	return renderHelpTable(width, rows)
}
