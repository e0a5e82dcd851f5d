package tui

import (
	"errors"
	"fmt"
	"github.com/MuhamedUsman/letdrop/internal/bgtask"
	"github.com/MuhamedUsman/letdrop/internal/file"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
	"io/fs"
	"path/filepath"
	"unicode/utf8"
)

const nae = "---" // Not an Extension

type filterState int

const (
	unfiltered = iota
	filtering
	filterApplied
)

type pickItem struct {
	info      file.Info
	selection bool
}

type pickContents struct {
	items []pickItem
	// indices into items, meaningful while a filter term is live
	filteredItems []int
	parentDir     string
}

// fuzzyIndices narrows targets down to the indices fuzzy matching term.
func fuzzyIndices(term string, targets []string) []int {
	matches := fuzzy.Find(term, targets)
	indices := make([]int, len(matches))
	for i, match := range matches {
		indices[i] = match.Index
	}
	return indices
}

// filePickerModel lists the files of the directory the browse space sits
// in, lets the user select a subset and hands the selection over for
// staging.
type filePickerModel struct {
	pickTable                                                        table.Model
	filterInput                                                      textinput.Model
	titleStyle                                                       lipgloss.Style
	filterState                                                      filterState
	contents                                                         pickContents
	allSelected, filterChanged, focusOnOpen, showHelp, disableKeymap bool
}

func initialFilePickerModel() filePickerModel {
	pt := table.New(
		table.WithColumns(pickTableCols(0)),
		table.WithStyles(customTableStyles),
	)
	return filePickerModel{
		pickTable:     pt,
		filterInput:   newPickerFilterInput(),
		titleStyle:    titleStyle,
		disableKeymap: true,
	}
}

func pickTableCols(tableWidth int) []table.Column {
	const selW = 1
	avail := tableWidth - customTableStyles.Cell.GetHorizontalFrameSize()*4 - selW
	nameW := avail * 62 / 100
	typeW := avail * 18 / 100
	sizeW := avail * 20 / 100
	// integer division sheds cells, the name column absorbs them
	nameW += avail - (nameW + typeW + sizeW)
	return []table.Column{
		{Title: "✓", Width: selW},
		{Title: "Name", Width: nameW},
		{Title: "Type", Width: typeW},
		{Title: "Size", Width: sizeW},
	}
}

func (m filePickerModel) capturesKeyEvent(msg tea.KeyMsg) bool {
	// a live filter swallows everything the terminal doesn't own
	if msg.String() != "ctrl+c" && m.filterState == filtering {
		return true
	}
	switch msg.String() {
	case "enter", "ctrl+s":
		return m.isValidTableShortcut() && m.selectionCount() > 0
	case "up", "down", "?", "ctrl+a":
		return true
	case "/", "shift+up", "shift+down":
		return m.isValidTableShortcut()
	case "esc":
		return m.filterState != unfiltered || m.selectionCount() > 0
	default:
		return false
	}
}

func (m filePickerModel) Init() tea.Cmd {
	return nil
}

func (m filePickerModel) Update(msg tea.Msg) (filePickerModel, tea.Cmd) {

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.updateDimensions()

	case tea.KeyMsg:
		if m.disableKeymap {
			return m, nil
		}
		switch msg.String() {

		case "enter":
			if m.filterState == filtering {
				m.applyFilter()
			} else if m.isValidTableShortcut() {
				m.pickTable.Focus()
				idx := m.cursorItemIndex()
				m.contents.items[idx].selection = !m.contents.items[idx].selection
				m.populateTable(m.contents.items)
			}

		case "up", "down":
			if m.filterState == filtering {
				m.applyFilter()
				return m, m.updateTable(msg)
			}

		case "shift+down": // select a row and move down
			if m.isValidTableShortcut() {
				m.selectAtCursor(true)
				m.pickTable.MoveDown(1)
			}

		case "shift+up": // undo selection & move up
			if m.isValidTableShortcut() {
				m.selectAtCursor(false)
				m.pickTable.MoveUp(1)
			}

		case "ctrl+a":
			m.allSelected = !m.allSelected
			m.selectAll(m.allSelected)

		case "ctrl+s":
			if m.filterState != filtering && m.selectionCount() > 0 {
				return m, m.confirmStage()
			}

		case "/":
			if m.isValidTableShortcut() {
				m.filterState = filtering
				m.pickTable.Blur()
				return m, m.filterInput.Focus()
			}

		case "?":
			if m.filterState != filtering {
				m.showHelp = !m.showHelp
				m.updateDimensions()
			}

		case "esc":
			if m.filterState != unfiltered {
				m.resetFilter()
				m.pickTable.Focus()
				m.populateTable(m.contents.items)
			} else if m.selectionCount() > 0 {
				return m, m.confirmDiscardSel(pickerHome)
			}
		}

	case openDirMsg:
		m.focusOnOpen = msg.focus
		if msg.path == m.contents.parentDir && m.selectionCount() > 0 {
			// same dir, selections stay, at most the focus moves
			return m, msgToCmd(pickerChildSwitchMsg{child: pickerFiles, focus: msg.focus})
		}
		if m.selectionCount() > 0 {
			if !msg.focus {
				// passive mirror from browsing, selections pin the picker
				// to their dir until the user acts on them
				return m, nil
			}
			// the user wants a new dir, but the previous one has selected items
			return m, m.confirmDiscardSelOnOpenDir(msg)
		}
		return m, m.collectDir(msg.path)

	case dirContentsMsg:
		items := make([]pickItem, len(msg.infos))
		for i, info := range msg.infos {
			items[i] = pickItem{info: info}
		}
		m.contents = pickContents{items: items, parentDir: msg.parentDir}
		m.allSelected = false
		m.resetFilter()
		m.populateTable(m.contents.items)
		if m.focusOnOpen {
			m.pickTable.Focus()
		} else {
			m.pickTable.Blur()
		}
		m.pickTable.SetCursor(0)
		if currentFocus == browse {
			return m, msgToCmd(pickerChildSwitchMsg{child: pickerFiles, focus: m.focusOnOpen})
		}

	case resetPickerSelectionsMsg:
		m.allSelected = false
		m.selectAll(m.allSelected)

	case spaceFocusSwitchMsg:
		if currentFocus == picker {
			m.updateTitleStyleAsFocus(true)
			m.pickTable.Focus()
		} else {
			m.updateTitleStyleAsFocus(false)
			m.resetFilter()
			m.pickTable.Blur()
		}

	}

	if m.filterState == filtering {
		m.handleFiltering()
	}

	return m, tea.Batch(m.updateTable(msg), m.updateFilterInput(msg))
}

func (m filePickerModel) View() string {
	ht := filePickerHelp(m.showHelp, m.pickTable.Width()-2)

	tail := "…"
	w := largeContainerW() - (titleStyle.GetHorizontalPadding() + 2*lipgloss.Width(tail))
	title := runewidth.Truncate("Picking From: "+filepath.Base(m.contents.parentDir), w, tail)
	title = m.titleStyle.Render(title)

	status := pickerStatusBarStyle.Render(m.renderStatus())

	if m.filterInput.Focused() {
		box := filePickerFilterContainerStyle.Width(m.filterInput.Width)
		// one extra cell when the text fills the container, the cursor
		// needs somewhere to sit without re-centering the block
		if utf8.RuneCountInString(m.filterInput.Value()) >= box.GetWidth() {
			box = box.Width(box.GetWidth() + 1)
		}
		return lipgloss.JoinVertical(lipgloss.Center, box.Render(m.filterInput.View()), status, m.pickTable.View(), ht)
	}
	return lipgloss.JoinVertical(lipgloss.Center, title, status, m.pickTable.View(), ht)
}

func newPickerFilterInput() textinput.Model {
	cur := cursor.New()
	cur.TextStyle = lipgloss.NewStyle().Foreground(highlightColor)
	cur.Style = cur.TextStyle.Reverse(true)

	ti := textinput.New()
	ti.Placeholder = "Filter by Name"
	ti.Prompt = ""
	ti.Cursor = cur
	ti.PromptStyle = ti.PromptStyle.Foreground(highlightColor).Align(lipgloss.Center)
	ti.TextStyle = ti.TextStyle.Foreground(highlightColor).Align(lipgloss.Center)
	ti.PlaceholderStyle = ti.PromptStyle.Faint(true)
	return ti
}

func (m *filePickerModel) updateDimensions() {
	w := largeContainerW() - largeContainerStyle.GetHorizontalFrameSize()
	m.pickTable.SetWidth(w + 2)
	m.filterInput.Width = w * 60 / 100
	helpH := lipgloss.Height(filePickerHelp(m.showHelp, 0))
	statusBarH := pickerStatusBarStyle.GetHeight() + pickerStatusBarStyle.GetVerticalFrameSize()
	titleH := m.titleStyle.GetHeight() + m.titleStyle.GetVerticalFrameSize()
	m.pickTable.SetHeight(pickerWorkableH() - (titleH + statusBarH + helpH))
	m.pickTable.SetColumns(pickTableCols(m.pickTable.Width()))
}

func (m *filePickerModel) updateTitleStyleAsFocus(focused bool) {
	t := titleStyle
	if focused {
		t = t.Background(highlightColor).Foreground(subduedHighlightColor)
	} else {
		t = t.Background(grayColor).Foreground(highlightColor)
	}
	m.titleStyle = t
}

func (m *filePickerModel) updateTable(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.pickTable, cmd = m.pickTable.Update(msg)
	return cmd
}

// updateFilterInput forwards msg to the filter input and notes whether
// the term changed, handleFiltering refilters only on change.
func (m *filePickerModel) updateFilterInput(msg tea.Msg) tea.Cmd {
	updated, cmd := m.filterInput.Update(msg)
	m.filterChanged = m.filterInput.Value() != updated.Value()
	m.filterInput = updated
	return cmd
}

func (filePickerModel) collectDir(path string) tea.Cmd {
	return func() tea.Msg {
		infos, err := file.CollectDir(bgtask.Get().ShutdownCtx(), path)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return fsErrMsg("Perm denied!")
			}
			if errors.Is(err, fs.ErrNotExist) {
				return fsErrMsg("No such dir!")
			}
			return errMsg{
				errHeader: "FILESYSTEM ERROR",
				err:       fmt.Errorf("listing files to pick: %v", err),
				errStr:    "Unable to read directory contents",
			}
		}
		return dirContentsMsg{parentDir: path, infos: infos}
	}
}

func (m *filePickerModel) populateTable(items []pickItem) {
	if m.filterState != unfiltered && utf8.RuneCountInString(m.filterInput.Value()) > 0 {
		rows := make([]table.Row, 0, len(m.contents.filteredItems))
		for _, i := range m.contents.filteredItems {
			rows = append(rows, rowFor(items[i]))
		}
		m.pickTable.SetRows(rows)
		return
	}
	rows := make([]table.Row, len(items))
	for i, item := range items {
		rows[i] = rowFor(item)
	}
	m.pickTable.SetRows(rows)
}

func rowFor(item pickItem) table.Row {
	sel := ""
	if item.selection {
		sel = "✓"
	}
	mime := item.info.MIME
	if mime == "" {
		mime = nae
	}
	size := humanize.Bytes(uint64(item.info.Size))
	return table.Row{sel, item.info.Name, mime, size}
}

func (m filePickerModel) isValidTableShortcut() bool {
	return currentFocus == picker && m.pickTable.Focused() && len(m.pickTable.Rows()) > 0
}

// cursorItemIndex resolves the table cursor to an index into
// contents.items, looking through the filter when one is live.
func (m filePickerModel) cursorItemIndex() int {
	idx := max(0, m.pickTable.Cursor())
	if m.filterState != unfiltered {
		idx = m.contents.filteredItems[idx]
	}
	return idx
}

func (m *filePickerModel) selectAll(selection bool) {
	if !m.isValidTableShortcut() {
		return
	}
	if m.filterState != unfiltered {
		for _, i := range m.contents.filteredItems {
			m.contents.items[i].selection = selection
		}
	} else {
		for i := range m.contents.items {
			m.contents.items[i].selection = selection
		}
	}
	m.populateTable(m.contents.items)
}

func (m *filePickerModel) selectAtCursor(selection bool) {
	m.contents.items[m.cursorItemIndex()].selection = selection
	m.populateTable(m.contents.items)
}

func (m *filePickerModel) resetFilter() {
	m.filterInput.Reset()
	m.filterInput.Blur()
	m.filterState = unfiltered
	m.contents.filteredItems = nil
}

func (m *filePickerModel) applyFilter() {
	m.filterInput.Blur()
	m.filterState = filterApplied
	m.pickTable.Focus()
}

func (m *filePickerModel) handleFiltering() {
	if !m.filterChanged {
		return
	}
	m.pickTable.SetCursor(0) // stale cursor may point past the matches
	names := make([]string, len(m.contents.items))
	for i, item := range m.contents.items {
		names[i] = item.info.Name
	}
	m.contents.filteredItems = fuzzyIndices(m.filterInput.Value(), names)
	m.populateTable(m.contents.items)
}

func (m filePickerModel) renderStatus() string {
	total := len(m.contents.items)
	selected := m.selectionCount()
	truncate := func(s string) string {
		// -4 for tail, pickerContainer & statusBar frame size
		return runewidth.Truncate(s, largeContainerW()-4, "…")
	}

	if utf8.RuneCountInString(m.filterInput.Value()) == 0 {
		s := fmt.Sprintf("%d File/s • %d Total", total, total)
		if selected > 0 {
			s = fmt.Sprintf("%d File/s • %d Selected • %d Total", total, selected, total)
		}
		return truncate(s)
	}

	matched := "Nothing matched"
	if n := len(m.contents.filteredItems); n > 0 {
		matched = fmt.Sprintf("%d Match/es", n)
	}
	s := fmt.Sprintf("%s • %d Filtered", matched, total)
	if selected > 0 {
		s = fmt.Sprintf("%s • %d Selected • %d Filtered", matched, selected, total)
	}
	if m.filterState == filterApplied {
		s = fmt.Sprintf("“%s” %s", m.filterInput.Value(), s)
	}
	return truncate(s)
}

func (m filePickerModel) selectionCount() int {
	var count int
	for _, item := range m.contents.items {
		if item.selection {
			count++
		}
	}
	return count
}

func (m filePickerModel) selectedInfos() []file.Info {
	infos := make([]file.Info, 0, len(m.contents.items))
	for _, item := range m.contents.items {
		if item.selection {
			infos = append(infos, item.info)
		}
	}
	return infos
}

// confirmDialog is the YUP!/NOPE scaffold every picker confirmation
// shares, enter on YUP! runs positiveFunc.
func confirmDialog(header, body string, positiveFunc func() tea.Cmd) tea.Cmd {
	return msgToCmd(alertDialogMsg{
		header:         header,
		body:           body,
		cursor:         positive,
		positiveBtnTxt: "YUP!",
		negativeBtnTxt: "NOPE",
		positiveFunc:   positiveFunc,
	})
}

func (m *filePickerModel) confirmDiscardSelOnOpenDir(msg openDirMsg) tea.Cmd {
	return confirmDialog("ARE YOU SURE?", "All the selections will be lost...", func() tea.Cmd {
		return m.collectDir(msg.path)
	})
}

func (m *filePickerModel) confirmDiscardSel(child pickerChild) tea.Cmd {
	// discarding mid-filter is not allowed
	if m.filterState != unfiltered {
		return nil
	}
	cmd := msgToCmd(pickerChildSwitchMsg{child: child, focus: true})
	if m.selectionCount() == 0 {
		return cmd
	}
	return confirmDialog("ARE YOU SURE?", "All the selections will be lost...", func() tea.Cmd {
		return tea.Batch(msgToCmd(resetPickerSelectionsMsg{}), cmd)
	})
}

func (m *filePickerModel) confirmStage() tea.Cmd {
	infos := m.selectedInfos()
	body := fmt.Sprintf(`Selected “%d File/s” will be validated against intake preferences. To change preferences, press “esc” & “ctrl+p”.`,
		len(infos))
	return confirmDialog("STAGE SELECTIONS?", body, func() tea.Cmd {
		cmd := msgToCmd(stageSelectionsMsg{infos: infos})
		return tea.Batch(cmd, msgToCmd(resetPickerSelectionsMsg{}))
	})
}

func (m *filePickerModel) updateKeymap(disable bool) {
	m.disableKeymap = disable
}

func filePickerHelp(show bool, width int) string {
	rows := [][]string{{"?", "help"}}
	if show {
		rows = [][]string{
			{"enter", "toggle at cursor"},
			{"shift+↓/↑", "select/unselect & move"},
			{"ctrl+a", "toggle all"},
			{"ctrl+s", "stage selection"},
			{"esc", "stop filtering"},
			{"/", "filter files"},
			{"?", "close help"},
		}
	}
	return renderHelpTable(width, rows)
}
