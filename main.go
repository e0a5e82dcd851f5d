package main

import (
	"github.com/MuhamedUsman/letdrop/internal/bgtask"
	"github.com/MuhamedUsman/letdrop/internal/config"
	"github.com/MuhamedUsman/letdrop/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	"log/slog"
	"os"
	"time"
)

func main() {

	// the TUI owns the terminal, stderr speaks only once it has exited
	stderrLog := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen}))

	logFile, err := os.OpenFile("letdrop.log", os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		stderrLog.Error("Error opening log file", "err", err)
		os.Exit(1)
	}
	fileHandler := tint.NewHandler(logFile, &tint.Options{TimeFormat: time.Kitchen, NoColor: true})
	slog.SetDefault(slog.New(fileHandler))

	if _, err = config.Load(); err != nil {
		stderrLog.Error("Error loading preferences", "err", err)
		os.Exit(1)
	}

	finalErrCh := make(chan error, 1)
	_, err = tea.NewProgram(
		tui.InitialMainModel(finalErrCh),
		tea.WithAltScreen(),
		tea.WithoutBracketedPaste(),
	).Run()

	// in flight caption requests get a grace period to finish
	if sErr := bgtask.Get().Shutdown(5 * time.Second); sErr != nil {
		slog.Warn("Background tasks did not finish in time", "err", sErr)
	}

	if err != nil {
		stderrLog.Error("Error running the program", "err", err)
		os.Exit(1)
	}
	select {
	case err = <-finalErrCh:
		stderrLog.Error(err.Error())
		os.Exit(1)
	default:
	}
}
