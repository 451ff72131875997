package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/olivier-w/wavedeck/internal/config"
	"github.com/olivier-w/wavedeck/internal/media"
	"github.com/olivier-w/wavedeck/internal/queue"
	"github.com/olivier-w/wavedeck/internal/session"
	"github.com/olivier-w/wavedeck/internal/track"
	"github.com/olivier-w/wavedeck/internal/ui"
)

var red = color.New(color.FgRed, color.Bold)

func fatal(err error) {
	red.Fprint(os.Stderr, "Error: ")
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func main() {
	cfg := config.Load()

	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "wavedeck")
		if err != nil {
			fatal(err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		browser := ui.NewBrowser(".")
		if browser.HasError() {
			fatal(browser.Error())
		}
		finalModel, err := tea.NewProgram(browser, tea.WithAltScreen()).Run()
		if err != nil {
			fatal(err)
		}
		bm, ok := finalModel.(ui.BrowserModel)
		if !ok {
			fatal(fmt.Errorf("unexpected model type %T from browser", finalModel))
		}
		result := bm.Result()
		if result.Cancelled {
			return
		}
		args = result.Args
	}

	paths, err := media.Collect(args)
	if err != nil {
		fatal(err)
	}

	entries := make([]queue.Entry, len(paths))
	for i, p := range paths {
		entries[i] = queue.Entry{Path: p, Title: track.TitleFromPath(p)}
	}
	log.Printf("main: %d tracks queued", len(entries))

	sess := session.New(cfg)
	defer sess.Teardown()

	program := tea.NewProgram(ui.New(sess, queue.New(entries)), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		fatal(err)
	}
}
