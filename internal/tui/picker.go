package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pickerChild int

const (
	pickerHome pickerChild = iota
	pickerFiles
	pickerPrefs
)

// pickerSpaceModel is the large middle container, it flips between the
// home banner, the file picker table and the preference page.
type pickerSpaceModel struct {
	filePicker                   filePickerModel
	preference                   preferenceModel
	titleStyle                   lipgloss.Style
	activeChild, prevActiveChild pickerChild
	disableKeymap                bool
}

func initialPickerSpaceModel() pickerSpaceModel {
	return pickerSpaceModel{
		filePicker:  initialFilePickerModel(),
		preference:  initialPreferenceModel(),
		titleStyle:  titleStyle,
		activeChild: pickerHome,
	}
}

func (m pickerSpaceModel) capturesKeyEvent(msg tea.KeyMsg) bool {
	switch m.activeChild {
	case pickerFiles:
		return m.filePicker.capturesKeyEvent(msg)
	case pickerPrefs:
		return m.preference.capturesKeyEvent(msg)
	default:
		return false
	}
}

func (m pickerSpaceModel) Init() tea.Cmd {
	return tea.Batch(m.filePicker.Init(), m.preference.Init())
}

func (m pickerSpaceModel) Update(msg tea.Msg) (pickerSpaceModel, tea.Cmd) {

	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.disableKeymap {
			return m, nil
		}
		if msg.String() == "esc" && m.activeChild == pickerFiles && !m.filePicker.capturesKeyEvent(msg) {
			// nothing for the picker table to unwind, so back to home
			return m, msgToCmd(pickerChildSwitchMsg{child: pickerHome})
		}

	case pickerChildSwitchMsg:
		m.prevActiveChild = m.activeChild
		m.activeChild = msg.child
		m.updateKeymap(m.disableKeymap)
		if msg.focus {
			currentFocus = picker
			return m, tea.Batch(spaceFocusSwitchCmd, m.handleChildModelUpdate(msg))
		}
		return m, m.handleChildModelUpdate(msg)

	case preferenceInactiveMsg:
		// the user is done with preferences, bring back what was shown before
		child := m.prevActiveChild
		if child == pickerPrefs {
			child = pickerHome
		}
		return m, msgToCmd(pickerChildSwitchMsg{child: child, focus: true})

	case spaceFocusSwitchMsg:
		m.updateTitleStyleAsFocus(currentFocus == picker)

	}
	return m, m.handleChildModelUpdate(msg)
}

func (m pickerSpaceModel) View() string {
	container := largeContainerStyle.
		Width(largeContainerW()).
		Height(termH - mainContainerStyle.GetVerticalFrameSize())
	var content string
	switch m.activeChild {
	case pickerHome:
		title := m.titleStyle.Render("Home Space")
		art := banner.Height(pickerWorkableH() - lipgloss.Height(title)).Render()
		home := lipgloss.JoinVertical(lipgloss.Center, title, art)
		content = lipgloss.PlaceHorizontal(largeContainerW(), lipgloss.Center, home)
	case pickerFiles:
		content = m.filePicker.View()
	case pickerPrefs:
		content = m.preference.View()
	}
	return container.Render(content)
}

func (m *pickerSpaceModel) handleChildModelUpdate(msg tea.Msg) tea.Cmd {
	// a captured key goes only to the capturing child
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		var cmd tea.Cmd
		switch {
		case m.activeChild == pickerFiles && m.filePicker.capturesKeyEvent(keyMsg):
			m.filePicker, cmd = m.filePicker.Update(msg)
			return cmd
		case m.activeChild == pickerPrefs && m.preference.capturesKeyEvent(keyMsg):
			m.preference, cmd = m.preference.Update(msg)
			return cmd
		}
	}

	var fpCmd, prefCmd tea.Cmd
	m.filePicker, fpCmd = m.filePicker.Update(msg)
	m.preference, prefCmd = m.preference.Update(msg)
	return tea.Batch(fpCmd, prefCmd)
}

func (m *pickerSpaceModel) updateTitleStyleAsFocus(focused bool) {
	t := titleStyle
	if focused {
		t = t.Background(highlightColor).Foreground(subduedHighlightColor)
	} else {
		t = t.Background(subduedGrayColor).Foreground(highlightColor)
	}
	m.titleStyle = t
}

func (m *pickerSpaceModel) updateKeymap(disable bool) {
	m.disableKeymap = disable
	m.filePicker.updateKeymap(disable || m.activeChild != pickerFiles)
	m.preference.updateKeymap(disable || m.activeChild != pickerPrefs)
}
