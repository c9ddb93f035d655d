package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lumi/internal/export"
	"github.com/sadopc/lumi/internal/ledger"
	"github.com/sadopc/lumi/internal/pet"
	"github.com/sadopc/lumi/internal/remind"
	"github.com/sadopc/lumi/internal/routine"
	"github.com/sadopc/lumi/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	ledger    *ledger.Ledger
	routines  *routine.Engine
	pet       *pet.Machine
	scheduler *remind.Scheduler

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	today        todayModel
	routinesView routinesModel
	stats        statsModel
	petView      petModel
	settings     settingsModel

	help   help.Model
	status string
}

func NewApp(s *store.Store, l *ledger.Ledger, r *routine.Engine, p *pet.Machine, coord *remind.Coordinator, sched *remind.Scheduler) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:        s,
		ledger:       l,
		routines:     r,
		pet:          p,
		scheduler:    sched,
		activeView:   viewToday,
		today:        newTodayModel(l, r, p, coord),
		routinesView: newRoutinesModel(l, r, p, coord),
		stats:        newStatsModel(l, r),
		petView:      newPetModel(p),
		settings:     newSettingsModel(s, l, r, p),
		help:         h,
	}
}

func (a App) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.today.setSize(a.width, contentHeight)
		a.routinesView.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.petView.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.stats.buildChart()
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewToday
			a.today.rebuildRows()
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewRoutines
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStats
			a.stats.buildChart()
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewPet
			return a, nil
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 5
			if a.activeView == viewToday {
				a.today.rebuildRows()
			}
			if a.activeView == viewStats {
				a.stats.buildChart()
			}
			return a, nil
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())

		// Deliver due reminders into the status bar.
		if due := a.scheduler.Due(time.Time(msg)); len(due) > 0 {
			cmds = append(cmds, func() tea.Msg { return reminderFiredMsg{alerts: due} })
		}

		// Drive the pet's level-up animation.
		var cmd tea.Cmd
		a.petView, cmd = a.petView.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case reminderFiredMsg:
		for _, alert := range msg.alerts {
			a.status = "⏰ " + alert.Body
		}
		return a, nil

	case fedMsg:
		a.status = "Lumi fed! +1 exp"
		if msg.leveled {
			a.status += " — level up available (Pet view, l)"
		}
		if msg.evolved {
			a.status += " — ready to evolve! (Pet view, v)"
		}
		return a, nil

	case statusMsg:
		a.status = msg.text
		return a, nil

	case levelUpDoneMsg:
		var cmd tea.Cmd
		a.petView, cmd = a.petView.update(msg)
		return a, cmd

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewRoutines:
		a.routinesView, cmd = a.routinesView.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewPet:
		a.petView, cmd = a.petView.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewToday:
		return a.today.formActive
	case viewRoutines:
		return a.routinesView.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

// ============================================================
// Export picker
// ============================================================

var exportFormats = []string{"JSON", "CSV"}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.runExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) runExport(format string) tea.Cmd {
	tasks := a.ledger.AllTasks()
	routines := a.routines.All()
	categories := make(map[string]ledger.Category)
	for _, c := range a.ledger.Categories() {
		categories[c.ID] = c
	}

	return func() tea.Msg {
		home, err := os.UserHomeDir()
		if err != nil {
			return errStatus(err)
		}
		stamp := time.Now().Format("20060102-150405")

		var path string
		switch format {
		case "CSV":
			path = filepath.Join(home, "lumi-export-"+stamp+".csv")
			err = export.ToCSV(tasks, routines, categories, path)
		default:
			path = filepath.Join(home, "lumi-export-"+stamp+".json")
			err = export.ToJSON(tasks, routines, categories, path)
		}
		if err != nil {
			return errStatus(err)
		}
		return exportDoneMsg{path: path}
	}
}

// ============================================================
// View
// ============================================================

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewToday:
		content = a.today.view()
	case viewRoutines:
		content = a.routinesView.view()
	case viewStats:
		content = a.stats.view()
	case viewPet:
		content = a.petView.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("lumi")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow))
}

func (a App) renderFooter() string {
	if a.showHelp {
		return footerStyle.Render(a.help.View(keys))
	}

	status := a.status
	if status == "" {
		status = a.help.View(keys)
	}
	return footerStyle.Render(status)
}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export"), "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, fmt.Sprintf("%s%s", cursor, style.Render(f)))
	}
	rows = append(rows, "", mutedStyle.Render("enter: export  esc: cancel"))

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
