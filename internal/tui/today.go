package tui

import (
	"fmt"
	"strings"
	"time"

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

type rowKind int

const (
	rowTask rowKind = iota
	rowOccurrence
)

// todayRow is one selectable line: a one-off task or a routine occurrence.
type todayRow struct {
	kind     rowKind
	task     ledger.Task
	occ      routine.Occurrence
	category ledger.Category
}

type todayModel struct {
	ledger    *ledger.Ledger
	routines  *routine.Engine
	pet       *pet.Machine
	reminders *remind.Coordinator
	width     int
	height    int

	date   string
	cursor int
	rows   []todayRow

	formActive bool
	form       *huh.Form
	formType   string // "task", "edit", "remind", "category"

	// Form field pointers (survive value copies)
	formText     *string
	formCategory *string
	formColor    *string
	formTime     *string

	editingID string
}

func newTodayModel(l *ledger.Ledger, r *routine.Engine, p *pet.Machine, rc *remind.Coordinator) todayModel {
	text, cat, color, at := "", "", ledger.ColorKeys[0], ""
	m := todayModel{
		ledger:       l,
		routines:     r,
		pet:          p,
		reminders:    rc,
		date:         daykey.Today(),
		formText:     &text,
		formCategory: &cat,
		formColor:    &color,
		formTime:     &at,
	}
	m.rebuildRows()
	return m
}

func (t *todayModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

// rebuildRows projects the ledger and routine engine onto the selected date:
// tasks grouped by category first, then the day's routine occurrences.
func (t *todayModel) rebuildRows() {
	t.rows = t.rows[:0]

	tasks := t.ledger.TasksForDate(t.date)
	for _, c := range t.ledger.Categories() {
		for _, task := range tasks {
			if task.CategoryID == c.ID {
				t.rows = append(t.rows, todayRow{kind: rowTask, task: task, category: c})
			}
		}
	}
	// Tasks whose category no longer resolves still render, with the
	// fallback color.
	for _, task := range tasks {
		if _, ok := t.ledger.Category(task.CategoryID); !ok {
			t.rows = append(t.rows, todayRow{kind: rowTask, task: task, category: ledger.Category{ID: task.CategoryID, Title: "?", Color: ledger.DefaultColorKey}})
		}
	}

	for _, occ := range t.routines.ForDate(t.date) {
		c, ok := t.ledger.Category(occ.CategoryID)
		if !ok {
			c = ledger.Category{ID: occ.CategoryID, Title: "?", Color: ledger.DefaultColorKey}
		}
		t.rows = append(t.rows, todayRow{kind: rowOccurrence, occ: occ, category: c})
	}

	if t.cursor >= len(t.rows) {
		t.cursor = max(0, len(t.rows)-1)
	}
}

func (t todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.rows)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.Left):
			t.date = daykey.AddDays(t.date, -1)
			t.rebuildRows()
		case key.Matches(msg, keys.Right):
			t.date = daykey.AddDays(t.date, 1)
			t.rebuildRows()
		case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
			return t.toggleSelected()
		case key.Matches(msg, keys.New):
			return t.showTaskForm()
		case key.Matches(msg, keys.Category):
			return t.showCategoryForm()
		case key.Matches(msg, keys.Edit):
			return t.showEditForm()
		case key.Matches(msg, keys.Remind):
			return t.showReminderForm()
		case key.Matches(msg, keys.Delete):
			return t.deleteSelected()
		case key.Matches(msg, keys.Routine):
			return t.convertSelected()
		}
	}
	return t, nil
}

// toggleSelected flips the completion flag on the selected row. When the
// flip lands on "completed", the pet is fed — that wiring lives here, in the
// caller, not inside the ledger or routine engine.
func (t todayModel) toggleSelected() (todayModel, tea.Cmd) {
	if t.cursor >= len(t.rows) {
		return t, nil
	}
	row := t.rows[t.cursor]

	var completed bool
	var err error
	switch row.kind {
	case rowTask:
		completed, err = t.ledger.ToggleTask(row.task.ID, t.date)
	case rowOccurrence:
		completed, err = t.routines.ToggleCompletion(row.occ.ID, t.date)
	}
	if err != nil {
		return t, func() tea.Msg { return errStatus(err) }
	}
	t.rebuildRows()

	if !completed {
		return t, nil
	}
	res, err := t.pet.Feed()
	if err != nil {
		return t, func() tea.Msg { return errStatus(err) }
	}
	if !res.Fed {
		return t, func() tea.Msg {
			return statusMsg{text: "Done! Lumi is full for today."}
		}
	}
	return t, func() tea.Msg {
		return fedMsg{leveled: res.LevelReady, evolved: res.EvolutionReady}
	}
}

func (t todayModel) deleteSelected() (todayModel, tea.Cmd) {
	if t.cursor >= len(t.rows) {
		return t, nil
	}
	row := t.rows[t.cursor]

	var err error
	switch row.kind {
	case rowTask:
		t.reminders.Cancel(row.task.ID)
		err = t.ledger.DeleteTask(row.task.ID, t.date)
	case rowOccurrence:
		t.reminders.Cancel(row.occ.ID)
		err = t.routines.Delete(row.occ.ID)
	}
	if err != nil {
		return t, func() tea.Msg { return errStatus(err) }
	}
	t.rebuildRows()
	return t, nil
}

// convertSelected turns a one-off task into a daily routine. Two steps by
// design: create the routine, then delete the source task.
func (t todayModel) convertSelected() (todayModel, tea.Cmd) {
	if t.cursor >= len(t.rows) {
		return t, nil
	}
	row := t.rows[t.cursor]
	if row.kind != rowTask {
		return t, nil
	}

	r, err := t.routines.NewFromTask(row.task)
	if err != nil {
		return t, func() tea.Msg { return errStatus(err) }
	}
	if err := t.ledger.DeleteTask(row.task.ID, t.date); err != nil {
		return t, func() tea.Msg { return errStatus(err) }
	}
	t.rebuildRows()
	text := r.Text
	return t, func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("%q is now a daily routine", text)}
	}
}

// ============================================================
// Forms
// ============================================================

func (t todayModel) showTaskForm() (todayModel, tea.Cmd) {
	cats := t.ledger.Categories()
	if len(cats) == 0 {
		return t, func() tea.Msg {
			return statusMsg{text: "No categories yet. Press c to create one.", isError: true}
		}
	}

	*t.formText = ""
	*t.formCategory = cats[0].ID
	t.formType = "task"

	catOptions := make([]huh.Option[string], len(cats))
	for i, c := range cats {
		catOptions[i] = huh.NewOption(c.Title, c.ID)
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(t.formText),
			huh.NewSelect[string]().Title("Category").Options(catOptions...).Value(t.formCategory),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t todayModel) showCategoryForm() (todayModel, tea.Cmd) {
	*t.formText = ""
	*t.formColor = ledger.ColorKeys[0]
	t.formType = "category"

	colorOptions := make([]huh.Option[string], len(ledger.ColorKeys))
	for i, k := range ledger.ColorKeys {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(ledger.ColorValue(k))).Render("●")
		colorOptions[i] = huh.NewOption(fmt.Sprintf("%s %s", dot, k), k)
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Category Name").Value(t.formText),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(t.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t todayModel) showEditForm() (todayModel, tea.Cmd) {
	if t.cursor >= len(t.rows) {
		return t, nil
	}
	row := t.rows[t.cursor]
	if row.kind != rowTask {
		return t, nil
	}

	*t.formText = row.task.Text
	t.formType = "edit"
	t.editingID = row.task.ID

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(t.formText),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t todayModel) showReminderForm() (todayModel, tea.Cmd) {
	if t.cursor >= len(t.rows) {
		return t, nil
	}
	row := t.rows[t.cursor]

	*t.formTime = ""
	t.formType = "remind"
	switch row.kind {
	case rowTask:
		t.editingID = row.task.ID
	case rowOccurrence:
		t.editingID = row.occ.ID
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Remind at (HH:MM, empty to clear)").Value(t.formTime),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t todayModel) updateForm(msg tea.Msg) (todayModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		return t.applyForm()
	}
	return t, cmd
}

func (t todayModel) applyForm() (todayModel, tea.Cmd) {
	switch t.formType {
	case "task":
		// Empty or whitespace text never reaches the ledger.
		text := strings.TrimSpace(*t.formText)
		if text == "" {
			return t, nil
		}
		if _, err := t.ledger.CreateTask(*t.formCategory, t.date, text); err != nil {
			return t, func() tea.Msg { return errStatus(err) }
		}

	case "category":
		title := strings.TrimSpace(*t.formText)
		if title == "" {
			return t, nil
		}
		if _, err := t.ledger.CreateCategory(title, *t.formColor); err != nil {
			return t, func() tea.Msg { return errStatus(err) }
		}

	case "edit":
		text := strings.TrimSpace(*t.formText)
		if text == "" {
			return t, nil
		}
		if err := t.ledger.EditTaskText(t.editingID, t.date, text); err != nil {
			return t, func() tea.Msg { return errStatus(err) }
		}

	case "remind":
		return t.applyReminder()
	}

	t.rebuildRows()
	return t, nil
}

func (t todayModel) applyReminder() (todayModel, tea.Cmd) {
	row := t.rows[t.cursor]
	input := strings.TrimSpace(*t.formTime)

	if input == "" {
		t.reminders.Cancel(t.editingID)
		var err error
		switch row.kind {
		case rowTask:
			err = t.ledger.SetTaskReminder(t.editingID, t.date, nil)
		case rowOccurrence:
			err = t.routines.SetReminder(t.editingID, nil)
		}
		if err != nil {
			return t, func() tea.Msg { return errStatus(err) }
		}
		t.rebuildRows()
		return t, func() tea.Msg { return statusMsg{text: "Reminder cleared"} }
	}

	clock, err := time.Parse("15:04", input)
	if err != nil {
		return t, func() tea.Msg {
			return statusMsg{text: "Use HH:MM, e.g. 09:30", isError: true}
		}
	}
	day, err := daykey.Parse(t.date)
	if err != nil {
		return t, func() tea.Msg { return errStatus(err) }
	}
	at := day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
	stored := at.Format(time.RFC3339)

	var body string
	switch row.kind {
	case rowTask:
		body = row.task.Text
		err = t.ledger.SetTaskReminder(t.editingID, t.date, &stored)
	case rowOccurrence:
		body = row.occ.Text
		err = t.routines.SetReminder(t.editingID, &stored)
	}
	if err != nil {
		return t, func() tea.Msg { return errStatus(err) }
	}
	if err := t.reminders.Schedule(t.editingID, body, at); err != nil {
		return t, func() tea.Msg { return errStatus(err) }
	}
	t.rebuildRows()
	return t, func() tea.Msg {
		return statusMsg{text: "Reminder set for " + at.Format("15:04")}
	}
}

// ============================================================
// View
// ============================================================

func (t todayModel) view() string {
	if t.formActive && t.form != nil {
		title := map[string]string{
			"task":     "New Task",
			"category": "New Category",
			"edit":     "Edit Task",
			"remind":   "Reminder",
		}[t.formType]
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", t.form.View())
		return panelStyle.Width(t.width - 4).Render(content)
	}

	w := t.width - 4
	header := t.renderDateHeader()

	var rows []string
	rows = append(rows, header, "")

	if len(t.rows) == 0 {
		rows = append(rows, mutedStyle.Render("  Nothing for this day. Press n for a task, c for a category."))
	} else {
		lastCategory := ""
		routinesHeaderDone := false
		for i, row := range t.rows {
			if row.kind == rowOccurrence && !routinesHeaderDone {
				rows = append(rows, "", subtitleStyle.Render("  Routines"))
				routinesHeaderDone = true
				lastCategory = ""
			}
			if row.kind == rowTask && row.category.ID != lastCategory {
				dot := lipgloss.NewStyle().Foreground(lipgloss.Color(ledger.ColorValue(row.category.Color))).Render("●")
				rows = append(rows, fmt.Sprintf("  %s %s", dot, subtitleStyle.Render(row.category.Title)))
				lastCategory = row.category.ID
			}
			rows = append(rows, t.renderRow(i, row))
		}
	}

	done := t.completedCount()
	total := len(t.rows)
	rows = append(rows, "", subtitleStyle.Render(fmt.Sprintf("  %d/%d done", done, total)))
	rows = append(rows, mutedStyle.Render("  space: toggle  n: task  c: category  e: edit  d: delete  m: remind  r: routine"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (t todayModel) renderDateHeader() string {
	day, err := daykey.Parse(t.date)
	label := t.date
	if err == nil {
		label = day.Format("Mon, Jan 02 2006")
	}
	if t.date == daykey.Today() {
		label += "  " + highlightStyle.Render("(today)")
	}
	return titleStyle.Render("‹ "+label+" ›") + "  " + mutedStyle.Render("←/→ change day")
}

func (t todayModel) renderRow(i int, row todayRow) string {
	cursor := "  "
	style := normalItemStyle
	if i == t.cursor {
		cursor = "> "
		style = selectedItemStyle
	}

	var text string
	var completed bool
	var badge string
	switch row.kind {
	case rowTask:
		text = row.task.Text
		completed = row.task.Completed
		if row.task.ReminderTime != nil {
			badge = " ⏰"
		}
	case rowOccurrence:
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(ledger.ColorValue(row.category.Color))).Render("●")
		text = dot + " " + row.occ.Text + " " + mutedStyle.Render(freqLabel(row.occ.Frequency))
		completed = row.occ.Completed
		if row.occ.ReminderTime != nil {
			badge = " ⏰"
		}
	}

	check := "[ ]"
	if completed {
		check = successStyle.Render("[✓]")
		if row.kind == rowTask {
			style = doneItemStyle
		}
	}
	return fmt.Sprintf("  %s%s %s%s", cursor, check, style.Render(text), badge)
}

func (t todayModel) completedCount() int {
	n := t.ledger.CompletedCountForDate(t.date)
	for _, occ := range t.routines.ForDate(t.date) {
		if occ.Completed {
			n++
		}
	}
	return n
}

func freqLabel(f routine.Frequency) string {
	switch f.Type {
	case routine.FreqDaily:
		return "(daily)"
	case routine.FreqWeekly:
		return "(weekly)"
	case routine.FreqMonthly:
		return "(monthly)"
	default:
		return "(?)"
	}
}
