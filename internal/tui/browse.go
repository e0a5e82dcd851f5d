package tui

import (
	"errors"
	"fmt"
	"github.com/MuhamedUsman/letdrop/internal/file"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type dirAction int

const (
	noop dirAction = iota
	in
	out
)

type dirEntryMsg struct {
	// path is the directory the entries belong to, already resolved so
	// the handler never re-reads the selection
	path    string
	entries []string
	action  dirAction
}

type dirItem string

func (i dirItem) FilterValue() string {
	return string(i)
}

func (i dirItem) Title() string {
	return string(i)
}

func (i dirItem) Description() string {
	return ""
}

// browseModel navigates directories in the small left container, every
// move mirrors the current directory's files into the picker space.
type browseModel struct {
	// dirList holds the child directories of curDirPath
	dirList       list.Model
	curDirPath    string
	showHelp      bool
	disableKeymap bool
}

func initialBrowseModel() browseModel {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return browseModel{
		curDirPath: wd,
		dirList:    newDirList(),
	}
}

func (m browseModel) capturesKeyEvent(msg tea.KeyMsg) bool {
	if m.dirList.FilterState() == list.Filtering {
		return msg.String() != "ctrl+c"
	}
	return false
}

func (m browseModel) Init() tea.Cmd {
	return m.readDir(m.curDirPath, noop)
}

func (m browseModel) Update(msg tea.Msg) (browseModel, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.updateDimensions()

	case tea.KeyMsg:
		if m.disableKeymap {
			return m, nil
		}
		switch msg.String() {

		case "enter":
			if m.dirList.FilterState() != list.Filtering && m.dirList.SelectedItem() != nil {
				sel := filepath.Join(m.curDirPath, m.dirList.SelectedItem().FilterValue())
				return m, m.readDir(sel, in)
			}

		case "backspace":
			if m.dirList.FilterState() == list.Unfiltered {
				parent := filepath.Dir(m.curDirPath)
				if parent == m.curDirPath {
					return m, m.newBrowseStatus("Drive Root!", highlightColor)
				}
				return m, m.readDir(parent, out)
			}

		case " ", "space":
			if m.dirList.FilterState() != list.Filtering {
				return m, openDirMsg{path: m.curDirPath, focus: true}.cmd
			}

		case "?":
			m.showHelp = !m.showHelp
			m.updateDimensions()

		}

	case spaceFocusSwitchMsg:
		title := m.dirList.Styles.Title
		if currentFocus == browse {
			title = title.Background(highlightColor).Foreground(subduedGrayColor)
		} else {
			title = title.Background(subduedGrayColor).Foreground(highlightColor)
		}
		m.dirList.Styles.Title = title

	case dirEntryMsg:
		var cmd tea.Cmd
		if msg.action != noop {
			m.curDirPath = msg.path
			m.dirList.Title = m.browseTitle(m.curDirPath)
			// keep the picker in step with where the user is
			cmd = openDirMsg{path: m.curDirPath}.cmd
		}
		m.dirList.ResetSelected()
		return m, tea.Batch(m.populateDirList(msg.entries), cmd)

	case fsErrMsg:
		return m, m.newBrowseStatus(string(msg), redColor)

	}

	var cmd tea.Cmd
	m.dirList, cmd = m.dirList.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	m.dirList.SetShowStatusBar(len(m.dirList.Items()) > 0)
	ht := browseHelp(m.showHelp, m.dirList.Width())
	return lipgloss.JoinVertical(lipgloss.Left, m.dirList.View(), ht)
}

func newDirList() list.Model {
	l := list.New(nil, dirListDelegate(), 0, 0)
	l.Title = "Browse Space"
	l.SetStatusBarItemName("Dir", "Dirs")
	l.DisableQuitKeybindings()
	l.SetShowHelp(false)

	extraKeys := func() []key.Binding {
		return []key.Binding{
			key.NewBinding(key.WithKeys("space"), key.WithHelp("space", "pick files")),
			key.NewBinding(key.WithKeys("backspace"), key.WithHelp("b-space", "parent dir")),
		}
	}
	l.AdditionalShortHelpKeys = extraKeys
	l.AdditionalFullHelpKeys = extraKeys

	l.Help.Styles = browseHelpStyles(l.Help.Styles)
	l.Styles.HelpStyle = l.Styles.HelpStyle.Padding(1, 0, 0, 1)

	l.Styles.Title = l.Styles.Title.Italic(true).
		Background(highlightColor).Foreground(subduedGrayColor)

	dim := func(s lipgloss.Style) lipgloss.Style {
		return s.Foreground(highlightColor).Italic(true).Faint(true)
	}
	l.Styles.StatusBar = dim(l.Styles.StatusBar)
	l.Styles.StatusBarFilterCount = dim(l.Styles.StatusBarFilterCount)
	l.Styles.StatusEmpty = dim(l.Styles.StatusEmpty)
	l.Styles.NoItems = dim(l.Styles.NoItems).PaddingLeft(2)
	l.Styles.DividerDot = l.Styles.DividerDot.Foreground(highlightColor).Faint(true)

	cur := cursor.New()
	cur.Style = lipgloss.NewStyle().Foreground(highlightColor)

	filter := textinput.New()
	filter.Prompt = "🔎 "
	filter.Placeholder = "Directory Name"
	filter.PromptStyle = l.Styles.FilterPrompt.Foreground(highlightColor)
	filter.TextStyle = lipgloss.NewStyle().Foreground(highlightColor)
	filter.PlaceholderStyle = filter.TextStyle.Faint(true)
	filter.Cursor = cur
	l.FilterInput = filter

	return l
}

func browseHelpStyles(s help.Styles) help.Styles {
	keyStyle := lipgloss.NewStyle().Foreground(highlightColor).Faint(true)
	s.ShortKey, s.FullKey = keyStyle, keyStyle
	s.ShortSeparator, s.FullSeparator = keyStyle, keyStyle
	descStyle := lipgloss.NewStyle().Foreground(subduedHighlightColor)
	s.ShortDesc, s.FullDesc = descStyle, descStyle
	return s
}

func dirListDelegate() list.ItemDelegate {
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	d.SetSpacing(0)
	d.SetHeight(2)

	d.Styles.NormalTitle = d.Styles.NormalTitle.Faint(true).Foreground(highlightColor)
	d.Styles.DimmedTitle = d.Styles.DimmedTitle.Faint(true).Foreground(highlightColor)
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Bold(true).Italic(true).
		Foreground(highlightColor).
		BorderStyle(lipgloss.ThickBorder()).BorderForeground(highlightColor)
	d.Styles.FilterMatch = d.Styles.FilterMatch.Foreground(highlightColor)

	return d
}

func browseHelp(show bool, width int) string {
	rows := [][]string{{"?", "help"}}
	if show {
		rows = [][]string{
			{"/", "filter dirs"},
			{"space", "pick files"},
			{"enter", "enter dir"},
			{"backspace", "parent dir"},
			{"←||→", "flip pages"},
			{"esc", "stop filtering"},
			{"?", "close help"},
		}
	}
	return renderHelpTable(width, rows)
}

func (m *browseModel) updateDimensions() {
	// the list grows by one line when pagination reappears after
	// filtering, subtracting one keeps the frame stable till the next
	// update lands
	helpHeight := lipgloss.Height(browseHelp(m.showHelp, 0))
	h := termH - (mainContainerStyle.GetVerticalFrameSize() + smallContainerStyle.GetVerticalFrameSize() + helpHeight + 1)
	m.dirList.SetSize(smallContainerW()-smallContainerStyle.GetHorizontalFrameSize(), h)
}

func (m *browseModel) updateKeymap(disable bool) {
	m.disableKeymap = disable
}

func (browseModel) readDir(dir string, action dirAction) tea.Cmd {
	return func() tea.Msg {
		names, err := file.SubDirs(dir)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return fsErrMsg("Perm Denied!")
			}
			return errMsg{
				errHeader: "FILESYSTEM ERROR",
				err:       err,
				errStr:    "Unable to read directory contents",
			}
		}
		return dirEntryMsg{path: dir, entries: names, action: action}
	}
}

func (m *browseModel) populateDirList(dirs []string) tea.Cmd {
	items := make([]list.Item, 0, len(dirs))
	for _, d := range dirs {
		items = append(items, dirItem(d))
	}
	return m.dirList.SetItems(items)
}

// browseTitle shortens a directory path to its volume plus final
// element, the middle collapses to an ellipsis.
func (browseModel) browseTitle(path string) string {
	vol := filepath.VolumeName(path)
	base := filepath.ToSlash(filepath.Base(path))
	if strings.Count(path, string(os.PathSeparator)) == 1 || base == "/" {
		return vol + base
	}
	return fmt.Sprintf("%s/…/%s", vol, base)
}

func (m *browseModel) newBrowseStatus(s string, c lipgloss.AdaptiveColor) tea.Cmd {
	style := lipgloss.NewStyle().Italic(true).Foreground(c)
	return m.dirList.NewStatusMessage(style.Render(s))
}
