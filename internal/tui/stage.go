package tui

import (
	"context"
	"errors"
	"fmt"
	"github.com/MuhamedUsman/letdrop/internal/bgtask"
	"github.com/MuhamedUsman/letdrop/internal/config"
	"github.com/MuhamedUsman/letdrop/internal/describe"
	"github.com/MuhamedUsman/letdrop/internal/file"
	"github.com/MuhamedUsman/letdrop/internal/intake"
	"github.com/MuhamedUsman/letdrop/internal/preview"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"log/slog"
	"time"
)

type stageModel struct {
	engine *intake.Engine
	store  *preview.Store
	// filesCh carries the engine's staged snapshots, newest wins
	filesCh chan []intake.Entry
	entries []intake.Entry
	// materialized remembers preview copies already written to disk
	materialized map[preview.Handle]string
	vp           viewport.Model
	titleStyle   lipgloss.Style
	// banner is the first rejection of the last submission
	banner              string
	caption, captionFor string
	cursor              int
	// describing guards a single in flight caption call
	describing, showCaption, showHelp, disableKeymap bool
}

func initialStageModel(engine *intake.Engine, store *preview.Store) stageModel {
	filesCh := make(chan []intake.Entry, 1)
	// the engine notifies from the event loop, so a full channel only ever
	// holds a stale snapshot, drop it and publish the fresh one
	engine.Subscribe(func(entries []intake.Entry) {
		select {
		case filesCh <- entries:
		default:
			select {
			case <-filesCh:
			default:
			}
			filesCh <- entries
		}
	})

	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.KeyMap{}

	return stageModel{
		engine:       engine,
		store:        store,
		filesCh:      filesCh,
		materialized: make(map[preview.Handle]string),
		vp:           vp,
		titleStyle:   titleStyle,
	}
}

func (m stageModel) capturesKeyEvent(msg tea.KeyMsg) bool {
	if currentFocus != stage || m.disableKeymap {
		return false
	}
	switch msg.String() {
	case "up", "down", "x", "backspace", "d", "p", "esc", "?":
		return true
	default:
		return false
	}
}

func (m stageModel) Init() tea.Cmd {
	return m.trackStagedFiles()
}

func (m stageModel) Update(msg tea.Msg) (stageModel, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.updateDimensions()
		return m, nil

	case tea.KeyMsg:
		if m.disableKeymap {
			return m, nil
		}
		switch msg.String() {

		case "up":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}

		case "x", "backspace":
			if len(m.entries) == 0 {
				return m, nil
			}
			if err := m.engine.Remove(m.cursor); err != nil {
				return m, errMsg{
					errHeader: "STAGING ERROR",
					errStr:    "Unable to remove the selected file",
					err:       fmt.Errorf("removing staged file: %v", err),
				}.cmd
			}

		case "d":
			return m.handleDescribeKey()

		case "p":
			return m.handlePreviewKey()

		case "esc":
			m.showCaption = false

		case "?":
			m.showHelp = !m.showHelp
			m.updateDimensions()
		}

	case spaceFocusSwitchMsg:
		m.updateTitleStyleAsFocus(currentFocus == stage)

	case stageSelectionsMsg:
		cmd := m.submitSelections(msg.infos)
		return m, cmd

	case stagedFilesMsg:
		m.entries = msg
		if m.cursor >= len(m.entries) {
			m.cursor = max(0, len(m.entries)-1)
		}
		m.pruneMaterialized()
		if m.captionFor != "" && !m.hasEntry(m.captionFor) {
			m.caption, m.captionFor = "", ""
			m.showCaption = false
		}
		return m, m.trackStagedFiles()

	case clearStagedErrMsg:
		m.engine.ClearErrAt(msg.epoch)
		if _, ok := m.engine.LastError(); !ok {
			m.banner = ""
		}

	case describeDoneMsg:
		m.describing = false
		m.caption, m.captionFor = msg.caption, msg.name
		m.showCaption = true
		m.vp.SetContent(wordwrap.String(m.caption, m.vp.Width))
		m.vp.GotoTop()

	case describeErrMsg:
		m.describing = false
		slog.Error("describing staged file", "file", msg.name, "error", msg.err)
		body := "Unable to caption the file, see the log for details."
		if errors.Is(msg.err, describe.ErrNoAPIKey) {
			body = "Set LETDROP_API_KEY or OPENAI_API_KEY to caption files."
		}
		return m, alertDialogMsg{
			header:        "DESCRIBE FAILED",
			body:          body,
			alertDuration: 5 * time.Second,
		}.cmd
	}
	return m, nil
}

func (m stageModel) View() string {
	title := m.titleStyle.Render("Stage Space")
	status := stageStatusBarStyle.Width(m.workableW()).Render(m.statusLine())
	helpView := stageHelp(m.showHelp, m.workableW())

	var banner, caption string
	if m.banner != "" {
		b := wordwrap.String(m.banner, m.workableW()-stageBannerStyle.GetHorizontalPadding())
		banner = stageBannerStyle.Render(b)
	}
	if m.showCaption {
		caption = m.renderCaption()
	}

	// whatever height the fixed sections leave goes to the entry rows
	used := smallContainerStyle.GetVerticalFrameSize()
	for _, s := range []string{title, status, banner, caption, helpView} {
		if s != "" {
			used += lipgloss.Height(s)
		}
	}
	entries := m.renderEntries(workableH() - used)

	sections := make([]string, 0, 6)
	sections = append(sections, title, status)
	if banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections, entries)
	if caption != "" {
		sections = append(sections, caption)
	}
	sections = append(sections, helpView)

	c := lipgloss.JoinVertical(lipgloss.Top, sections...)
	return smallContainerStyle.Render(c)
}

func (m *stageModel) updateDimensions() {
	m.vp.Width = m.workableW()
	m.vp.Height = 6
	if m.caption != "" {
		m.vp.SetContent(wordwrap.String(m.caption, m.vp.Width))
	}
}

func (m *stageModel) updateKeymap(disable bool) {
	m.disableKeymap = disable
}

func (m *stageModel) updateTitleStyleAsFocus(focus bool) {
	if focus {
		m.titleStyle = titleStyle.Background(highlightColor).Foreground(subduedHighlightColor)
	} else {
		m.titleStyle = titleStyle.Background(subduedGrayColor).Foreground(highlightColor)
	}
}

func (m stageModel) workableW() int {
	return smallContainerW() - smallContainerStyle.GetHorizontalFrameSize()
}

// submitSelections stages the picked files and surfaces the first rejection,
// if any, as a banner that clears itself after intake.ErrClearAfter unless a
// newer submission has replaced it.
func (m *stageModel) submitSelections(infos []file.Info) tea.Cmd {
	candidates := make([]intake.Candidate, len(infos))
	for i, info := range infos {
		candidates[i] = intake.Candidate{
			Name: info.Name,
			Size: info.Size,
			MIME: info.MIME,
			Path: info.Path,
		}
	}
	m.engine.SubmitBatch(candidates)
	intakeErr, ok := m.engine.LastError()
	if !ok {
		m.banner = ""
		return nil
	}
	m.banner = intakeErr.Message
	epoch := m.engine.ErrEpoch()
	return tea.Tick(intake.ErrClearAfter, func(time.Time) tea.Msg {
		return clearStagedErrMsg{epoch: epoch}
	})
}

func (m *stageModel) handleDescribeKey() (stageModel, tea.Cmd) {
	if len(m.entries) == 0 || m.describing {
		return *m, nil
	}
	ent := m.entries[m.cursor]
	if ent.Preview == 0 {
		return *m, alertDialogMsg{
			header:        "NO PREVIEW",
			body:          fmt.Sprintf("%q is not an image, only images can be captioned.", ent.Name),
			alertDuration: 3 * time.Second,
		}.cmd
	}
	src, ok := m.store.Locate(ent.Preview)
	if !ok {
		return *m, alertDialogMsg{
			header:        "NO PREVIEW",
			body:          "The preview for this file is gone, stage it again to caption it.",
			alertDuration: 3 * time.Second,
		}.cmd
	}
	m.describing = true
	return *m, m.describeEntry(ent, src)
}

func (m *stageModel) handlePreviewKey() (stageModel, tea.Cmd) {
	if len(m.entries) == 0 {
		return *m, nil
	}
	ent := m.entries[m.cursor]
	if ent.Preview == 0 {
		return *m, alertDialogMsg{
			header:        "NO PREVIEW",
			body:          fmt.Sprintf("%q is not an image, there is no preview to open.", ent.Name),
			alertDuration: 3 * time.Second,
		}.cmd
	}
	path, err := m.store.Materialize(ent.Preview)
	if err != nil {
		return *m, errMsg{
			errHeader: "PREVIEW ERROR",
			errStr:    "Unable to write the preview copy",
			err:       fmt.Errorf("materializing preview: %v", err),
		}.cmd
	}
	m.materialized[ent.Preview] = path
	return *m, alertDialogMsg{
		header:        "PREVIEW READY",
		body:          fmt.Sprintf("A copy of %q is at %q.", ent.Name, path),
		alertDuration: 5 * time.Second,
	}.cmd
}

// describeEntry runs the caption call as a background task so quitting the
// program waits for the in flight request instead of abandoning it.
func (m stageModel) describeEntry(ent intake.Entry, src string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.Get()
		if err != nil {
			if cfg, err = config.Load(); err != nil {
				return errMsg{
					errHeader: "CONFIGURATION ERROR",
					errStr:    "Unable to load preferences",
					err:       fmt.Errorf("loading config for describe: %v", err),
					fatal:     true,
				}
			}
		}
		var caption string
		bgtask.Get().RunAndBlock(func(shutdownCtx context.Context) {
			c := describe.New(cfg.Describe)
			caption, err = c.Describe(shutdownCtx, cfg.Describe.Prompt, describe.File{
				Name: ent.Name,
				MIME: ent.MIME,
				Path: src,
			})
		})
		if err != nil {
			return describeErrMsg{name: ent.Name, err: err}
		}
		return describeDoneMsg{name: ent.Name, caption: caption}
	}
}

// trackStagedFiles re-arms itself from the Update loop, one snapshot per cmd.
func (m stageModel) trackStagedFiles() tea.Cmd {
	return func() tea.Msg {
		return stagedFilesMsg(<-m.filesCh)
	}
}

func (m *stageModel) pruneMaterialized() {
	live := make(map[preview.Handle]bool, len(m.entries))
	for _, ent := range m.entries {
		if ent.Preview != 0 {
			live[ent.Preview] = true
		}
	}
	for h := range m.materialized {
		if !live[h] {
			delete(m.materialized, h)
		}
	}
}

func (m stageModel) hasEntry(name string) bool {
	for _, ent := range m.entries {
		if ent.Name == name {
			return true
		}
	}
	return false
}

func (m stageModel) statusLine() string {
	var total int64
	for _, ent := range m.entries {
		total += ent.Size
	}
	pol := m.engine.Policy()
	s := fmt.Sprintf("%d/%d Staged • %s Total",
		len(m.entries), pol.MaxFiles, humanize.Bytes(uint64(total)))
	if len(m.entries) >= pol.MaxFiles {
		s += lipgloss.NewStyle().Foreground(yellowColor).Render(" • Full")
	}
	return s
}

// renderEntries renders a window of entry rows that fits avail lines,
// scrolled so the cursor stays visible.
func (m stageModel) renderEntries(avail int) string {
	w := m.workableW()
	if len(m.entries) == 0 {
		s := lipgloss.NewStyle().
			Foreground(grayColor).
			Italic(true).
			Padding(1, 1, 0, 1).
			Width(w)
		return s.Render("Nothing staged yet, pick files & press “ctrl+s”.")
	}

	maxRows := max(avail-1, 1) // top padding takes a line
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := min(start+maxRows, len(m.entries))

	gradient := generateGradient(highlightColor, midHighlightColor, len(m.entries))
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		ent := m.entries[i]
		size := humanize.Bytes(uint64(ent.Size))
		marker := "  "
		if i == m.cursor {
			marker = "→ "
		}
		flag := ""
		if _, ok := m.materialized[ent.Preview]; ok && ent.Preview != 0 {
			flag = " ◉"
		}
		nameW := w - lipgloss.Width(marker) - lipgloss.Width(size) - lipgloss.Width(flag) - 3
		name := runewidth.Truncate(ent.Name, max(nameW, 0), "…")
		row := fmt.Sprintf("%s%s%s  %s", marker, name, flag, size)
		s := lipgloss.NewStyle().Foreground(gradient[i]).Padding(0, 1)
		if i == m.cursor && currentFocus == stage {
			s = s.Background(subduedHighlightColor).Italic(true)
		}
		rows = append(rows, s.Render(row))
	}
	c := lipgloss.JoinVertical(lipgloss.Top, rows...)
	return lipgloss.NewStyle().Padding(1, 0, 0, 0).Render(c)
}

func (m stageModel) renderCaption() string {
	title := stageCaptionTitleStyle.Render("Caption • " + runewidth.Truncate(m.captionFor, m.workableW()-12, "…"))
	c := lipgloss.JoinVertical(lipgloss.Top, title, m.vp.View())
	return stageCaptionContainerStyle.Render(c)
}

func stageHelp(show bool, width int) string {
	rows := [][]string{{"?", "help"}}
	if show {
		rows = [][]string{
			{"↓/↑", "move cursor"},
			{"x/b-space", "unstage at cursor"},
			{"d", "caption at cursor"},
			{"p", "write preview copy"},
			{"esc", "hide caption"},
			{"?", "close help"},
		}
	}
	return renderHelpTable(width, rows)
}
