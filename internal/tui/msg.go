package tui

import (
	"github.com/MuhamedUsman/letdrop/internal/file"
	"github.com/MuhamedUsman/letdrop/internal/intake"
	tea "github.com/charmbracelet/bubbletea"
)

// msgToCmd wraps a msg in a tea.Cmd without the closure noise at call sites.
func msgToCmd[t tea.Msg](msg t) tea.Cmd {
	return func() tea.Msg { return msg }
}

// errMsg surfaces failures to the user, if fatal is set the program exits
// once the err is handed to the final error channel, otherwise errStr is
// shown as a self dismissing alert.
type errMsg struct {
	errHeader, errStr string
	err               error
	fatal             bool
}

func (em errMsg) cmd() tea.Msg { return em }

// fsErrMsg is for recoverable filesystem errors, shown as a status msg.
type fsErrMsg string

// spaceFocusSwitchMsg signals retinting of titles once the focus switches
// between spaces.
type spaceFocusSwitchMsg struct{}

var spaceFocusSwitchCmd = msgToCmd(spaceFocusSwitchMsg{})

// openDirMsg asks the picker space to list the files of path, focus moves
// the focusSpace along with it.
type openDirMsg struct {
	path  string
	focus bool
}

func (msg openDirMsg) cmd() tea.Msg { return msg }

// pickerChildSwitchMsg switches the child model the picker space displays.
type pickerChildSwitchMsg struct {
	child pickerChild
	focus bool
}

func (msg pickerChildSwitchMsg) cmd() tea.Msg { return msg }

// dirContentsMsg carries the stat'ed files of parentDir, read off the
// worker pool.
type dirContentsMsg struct {
	parentDir string
	infos     []file.Info
}

// resetPickerSelectionsMsg clears every selection in the picker table.
type resetPickerSelectionsMsg struct{}

// stageSelectionsMsg hands the files selected in the picker over to the
// stage space for submission.
type stageSelectionsMsg struct {
	infos []file.Info
}

func (msg stageSelectionsMsg) cmd() tea.Msg { return msg }

// stagedFilesMsg is the intake engine's published snapshot of staged
// entries, newest wins.
type stagedFilesMsg []intake.Entry

// clearStagedErrMsg fires once the rejection banner has been on display
// long enough, epoch guards against wiping a newer rejection.
type clearStagedErrMsg struct {
	epoch uint64
}

type describeDoneMsg struct {
	name, caption string
}

type describeErrMsg struct {
	name string
	err  error
}

// preferencesSavedMsg signals the edited preferences are on disk.
type preferencesSavedMsg struct{}

// preferenceInactiveMsg swaps the picker back to its previous child once
// the preference page is dismissed.
type preferenceInactiveMsg struct{}
