package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/lumi/internal/ledger"
	"github.com/sadopc/lumi/internal/pet"
	"github.com/sadopc/lumi/internal/remind"
	"github.com/sadopc/lumi/internal/routine"
	"github.com/sadopc/lumi/internal/store"
	"github.com/sadopc/lumi/internal/tui"
)

func main() {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	l, err := ledger.New(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading tasks: %v\n", err)
		os.Exit(1)
	}

	r, err := routine.New(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading routines: %v\n", err)
		os.Exit(1)
	}

	m, err := pet.New(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading pet: %v\n", err)
		os.Exit(1)
	}
	m.FeedCap = s.GetSettingInt("daily_feed_cap", pet.DefaultDailyFeedCap)

	sched := remind.NewScheduler()
	coord := remind.NewCoordinator(sched)
	coord.Rehydrate(time.Now(), l.AllTasks(), r.All())

	app := tui.NewApp(s, l, r, m, coord, sched)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
