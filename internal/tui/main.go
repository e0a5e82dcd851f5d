package tui

import (
	"github.com/MuhamedUsman/letdrop/internal/config"
	"github.com/MuhamedUsman/letdrop/internal/intake"
	"github.com/MuhamedUsman/letdrop/internal/preview"
	"github.com/MuhamedUsman/letdrop/internal/tui/overlay"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"log/slog"
	"os"
	"time"
)

type focusSpace int

const (
	browse focusSpace = iota
	picker
	stage
	alert
)

// currentFocus tracks the focused space, only ever touched from the
// event loop.
var currentFocus focusSpace

// terminal dimensions, set on every tea.WindowSizeMsg
var termW, termH int

type MainModel struct {
	browse      browseModel
	picker      pickerSpaceModel
	stage       stageModel
	alertDialog alertDialogModel
	engine      *intake.Engine
	store       *preview.Store
	// finalErrCh reports the error that forced the program to quit
	finalErrCh chan<- error
}

func InitialMainModel(finalErrCh chan<- error) MainModel {
	cfg, err := config.Get()
	if err != nil {
		if cfg, err = config.Load(); err != nil {
			slog.Error("loading preferences", "error", err)
			os.Exit(1)
		}
	}
	store, err := preview.New("", slog.Default())
	if err != nil {
		slog.Error("creating preview store", "error", err)
		os.Exit(1)
	}
	engine := intake.New(intake.Config{
		MaxFiles:      cfg.Intake.MaxFiles,
		MaxSizeBytes:  cfg.Intake.MaxSizeBytes,
		AcceptedTypes: cfg.Intake.AcceptedTypes,
	}, store, slog.Default())

	return MainModel{
		browse:      initialBrowseModel(),
		picker:      initialPickerSpaceModel(),
		stage:       initialStageModel(engine, store),
		alertDialog: initialAlertDialogModel(),
		engine:      engine,
		store:       store,
		finalErrCh:  finalErrCh,
	}
}

func (m MainModel) capturesKeyEvent(msg tea.KeyMsg) bool {
	switch currentFocus {
	case browse:
		return m.browse.capturesKeyEvent(msg)
	case picker:
		return m.picker.capturesKeyEvent(msg)
	case stage:
		return m.stage.capturesKeyEvent(msg)
	case alert:
		return m.alertDialog.capturesKeyEvent(msg)
	default:
		return false
	}
}

func (m MainModel) Init() tea.Cmd {
	return tea.Batch(
		m.browse.Init(),
		m.picker.Init(),
		m.stage.Init(),
		spaceFocusSwitchCmd,
	)
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		termW, termH = msg.Width, msg.Height
		return m, m.handleChildModelUpdates(msg)

	case tea.KeyMsg:
		if m.alertDialog.capturesKeyEvent(msg) {
			// only the dialog sees keys while it is up
			var cmd tea.Cmd
			m.alertDialog, cmd = m.alertDialog.Update(msg)
			return m, cmd
		}
		if !m.capturesKeyEvent(msg) {
			switch msg.String() {

			case "ctrl+c":
				return m, m.confirmQuit()

			case "tab":
				m.cycleFocus(1)
				return m, tea.Batch(spaceFocusSwitchCmd, m.handleChildModelUpdates(msg))

			case "shift+tab":
				m.cycleFocus(-1)
				return m, tea.Batch(spaceFocusSwitchCmd, m.handleChildModelUpdates(msg))

			case "ctrl+p":
				return m, pickerChildSwitchMsg{child: pickerPrefs, focus: true}.cmd
			}
		}

	case spaceFocusSwitchMsg:
		m.updateKeymaps()

	case errMsg:
		slog.Error(msg.errHeader, "error", msg.err)
		if msg.fatal {
			m.engine.Teardown()
			m.store.Teardown()
			m.finalErrCh <- msg.err
			return m, tea.Quit
		}
		return m, alertDialogMsg{
			header:        msg.errHeader,
			body:          msg.errStr,
			alertDuration: 5 * time.Second,
		}.cmd
	}

	return m, m.handleChildModelUpdates(msg)
}

func (m MainModel) View() string {
	c := lipgloss.JoinHorizontal(lipgloss.Top, m.browse.View(), m.picker.View(), m.stage.View())
	v := mainContainerStyle.
		Width(termW - mainContainerStyle.GetHorizontalFrameSize()).
		Height(termH - mainContainerStyle.GetVerticalFrameSize()).
		Render(c)
	if m.alertDialog.active {
		v = overlay.Center(v, m.alertDialog.View())
	}
	return v
}

func (m *MainModel) handleChildModelUpdates(msg tea.Msg) tea.Cmd {
	var cmds [4]tea.Cmd
	m.browse, cmds[0] = m.browse.Update(msg)
	m.picker, cmds[1] = m.picker.Update(msg)
	m.stage, cmds[2] = m.stage.Update(msg)
	m.alertDialog, cmds[3] = m.alertDialog.Update(msg)
	return tea.Batch(cmds[:]...)
}

func (m *MainModel) updateKeymaps() {
	m.browse.updateKeymap(currentFocus != browse)
	m.picker.updateKeymap(currentFocus != picker)
	m.stage.updateKeymap(currentFocus != stage)
	m.alertDialog.updateKeymap(currentFocus != alert)
}

func (m *MainModel) cycleFocus(dir int) {
	if currentFocus == alert {
		return
	}
	spaces := 3 // browse, picker & stage participate in the tab cycle
	currentFocus = focusSpace((int(currentFocus) + dir + spaces) % spaces)
}

// confirmQuit tears the engine and the preview store down from inside the
// event loop, so no staged state is touched concurrently.
func (m MainModel) confirmQuit() tea.Cmd {
	return alertDialogMsg{
		header:         "QUIT LETDROP?",
		body:           "Staged files & preview copies will be discarded.",
		positiveBtnTxt: "YUP!",
		negativeBtnTxt: "NOPE",
		cursor:         positive,
		positiveFunc: func() tea.Cmd {
			m.engine.Teardown()
			m.store.Teardown()
			return tea.Quit
		},
	}.cmd
}
