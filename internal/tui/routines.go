package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lumi/internal/daykey"
	"github.com/sadopc/lumi/internal/ledger"
	"github.com/sadopc/lumi/internal/pet"
	"github.com/sadopc/lumi/internal/remind"
	"github.com/sadopc/lumi/internal/routine"
)

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type routinesModel struct {
	ledger    *ledger.Ledger
	routines  *routine.Engine
	pet       *pet.Machine
	reminders *remind.Coordinator
	width     int
	height    int

	cursor int

	formActive bool
	form       *huh.Form

	formFreq  *string
	formDays  *[]int
	formDates *string
	editingID string
}

func newRoutinesModel(l *ledger.Ledger, r *routine.Engine, p *pet.Machine, rc *remind.Coordinator) routinesModel {
	freq, dates := string(routine.FreqDaily), ""
	days := []int{}
	return routinesModel{
		ledger:    l,
		routines:  r,
		pet:       p,
		reminders: rc,
		formFreq:  &freq,
		formDays:  &days,
		formDates: &dates,
	}
}

func (r *routinesModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r routinesModel) update(msg tea.Msg) (routinesModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	all := r.routines.All()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < len(all)-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
			return r.toggleToday(all)
		case key.Matches(msg, keys.Delete):
			if r.cursor < len(all) {
				id := all[r.cursor].ID
				r.reminders.Cancel(id)
				if err := r.routines.Delete(id); err != nil {
					return r, func() tea.Msg { return errStatus(err) }
				}
				if r.cursor > 0 {
					r.cursor--
				}
			}
		case key.Matches(msg, keys.Freq):
			return r.showFreqForm(all)
		}
	}
	return r, nil
}

// toggleToday flips today's occurrence for the selected routine, feeding
// the pet on a positive transition just like the today view does.
func (r routinesModel) toggleToday(all []routine.Routine) (routinesModel, tea.Cmd) {
	if r.cursor >= len(all) {
		return r, nil
	}
	sel := all[r.cursor]
	today := daykey.Today()

	// Only occurrences that exist today can be toggled here.
	occurs := false
	for _, occ := range r.routines.ForDate(today) {
		if occ.ID == sel.ID {
			occurs = true
			break
		}
	}
	if !occurs {
		return r, func() tea.Msg {
			return statusMsg{text: "Routine is not scheduled today", isError: true}
		}
	}

	completed, err := r.routines.ToggleCompletion(sel.ID, today)
	if err != nil {
		return r, func() tea.Msg { return errStatus(err) }
	}
	if !completed {
		return r, nil
	}
	res, err := r.pet.Feed()
	if err != nil {
		return r, func() tea.Msg { return errStatus(err) }
	}
	if !res.Fed {
		return r, func() tea.Msg { return statusMsg{text: "Done! Lumi is full for today."} }
	}
	return r, func() tea.Msg { return fedMsg{leveled: res.LevelReady, evolved: res.EvolutionReady} }
}

func (r routinesModel) showFreqForm(all []routine.Routine) (routinesModel, tea.Cmd) {
	if r.cursor >= len(all) {
		return r, nil
	}
	sel := all[r.cursor]
	r.editingID = sel.ID
	*r.formFreq = string(sel.Frequency.Type)
	*r.formDays = append((*r.formDays)[:0], sel.Frequency.Days...)
	*r.formDates = intsToCSV(sel.Frequency.Dates)

	dayOptions := make([]huh.Option[int], len(weekdayNames))
	for i, name := range weekdayNames {
		dayOptions[i] = huh.NewOption(name, i)
	}

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Frequency").
				Options(
					huh.NewOption("Daily", string(routine.FreqDaily)),
					huh.NewOption("Weekly", string(routine.FreqWeekly)),
					huh.NewOption("Monthly", string(routine.FreqMonthly)),
				).
				Value(r.formFreq),
			huh.NewMultiSelect[int]().Title("Weekdays (weekly only)").Options(dayOptions...).Value(r.formDays),
			huh.NewInput().Title("Days of month (monthly only, e.g. 1,15)").Value(r.formDates),
		),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r routinesModel) updateForm(msg tea.Msg) (routinesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			r.formActive = false
			r.form = nil
			return r, nil
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted {
		r.formActive = false
		f := routine.Frequency{Type: routine.FrequencyType(*r.formFreq)}
		switch f.Type {
		case routine.FreqWeekly:
			f.Days = append([]int(nil), *r.formDays...)
			sort.Ints(f.Days)
		case routine.FreqMonthly:
			f.Dates = csvToInts(*r.formDates)
		}
		if err := r.routines.SetFrequency(r.editingID, f); err != nil {
			return r, func() tea.Msg { return errStatus(err) }
		}
	}
	return r, cmd
}

func (r routinesModel) view() string {
	if r.formActive && r.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Frequency"), "", r.form.View())
		return panelStyle.Width(r.width - 4).Render(content)
	}

	w := r.width - 4
	all := r.routines.All()
	title := titleStyle.Render("Routines")

	if len(all) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No routines yet. Press r on a task in the Today view to convert it."),
		)
		return panelStyle.Width(w).Render(content)
	}

	today := daykey.Today()
	doneToday := map[string]bool{}
	activeToday := map[string]bool{}
	for _, occ := range r.routines.ForDate(today) {
		activeToday[occ.ID] = true
		doneToday[occ.ID] = occ.Completed
	}

	var rows []string
	rows = append(rows, title, "")

	for i, rt := range all {
		cursor := "  "
		style := normalItemStyle
		if i == r.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		check := mutedStyle.Render(" — ")
		if activeToday[rt.ID] {
			check = "[ ]"
			if doneToday[rt.ID] {
				check = successStyle.Render("[✓]")
			}
		}

		c, ok := r.ledger.Category(rt.CategoryID)
		if !ok {
			c = ledger.Category{Color: ledger.DefaultColorKey}
		}
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(ledger.ColorValue(c.Color))).Render("●")

		streak := ""
		if rt.LastCompletedDate != nil {
			streak = mutedStyle.Render("  last: " + *rt.LastCompletedDate)
		}

		rows = append(rows, fmt.Sprintf("  %s%s %s %s %s%s",
			cursor, check, dot, style.Render(rt.Text), mutedStyle.Render(describeFrequency(rt.Frequency)), streak))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  space: toggle today  f: frequency  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func describeFrequency(f routine.Frequency) string {
	switch f.Type {
	case routine.FreqDaily:
		return "daily"
	case routine.FreqWeekly:
		var names []string
		for _, d := range f.Days {
			if d >= 0 && d < len(weekdayNames) {
				names = append(names, weekdayNames[d])
			}
		}
		if len(names) == 0 {
			return "weekly"
		}
		return "weekly: " + strings.Join(names, ",")
	case routine.FreqMonthly:
		if len(f.Dates) == 0 {
			return "monthly"
		}
		return "monthly: " + intsToCSV(f.Dates)
	default:
		return "unscheduled"
	}
}

func intsToCSV(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func csvToInts(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}
