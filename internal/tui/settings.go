package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lumi/internal/ledger"
	"github.com/sadopc/lumi/internal/pet"
	"github.com/sadopc/lumi/internal/routine"
	"github.com/sadopc/lumi/internal/store"
)

type settingsModel struct {
	store    *store.Store
	ledger   *ledger.Ledger
	routines *routine.Engine
	pet      *pet.Machine
	width    int
	height   int

	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "settings", "edit_category"

	feedCap   *string
	weekStart *string
	catTitle  *string
	catColor  *string
	editingID string
}

func newSettingsModel(s *store.Store, l *ledger.Ledger, r *routine.Engine, p *pet.Machine) settingsModel {
	fc, ws, ct, cc := "", "", "", ""
	return settingsModel{
		store:     s,
		ledger:    l,
		routines:  r,
		pet:       p,
		feedCap:   &fc,
		weekStart: &ws,
		catTitle:  &ct,
		catColor:  &cc,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	cats := s.ledger.Categories()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(cats)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Edit):
			return s.showEditCategoryForm(cats)
		case key.Matches(msg, keys.Delete):
			return s.deleteCategory(cats)
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showSettingsForm()
		}
	}
	return s, nil
}

// deleteCategory cascades across both blobs: the ledger drops the category
// and its tasks, and the routine engine drops routines referencing it, so
// no stored record points at a dead category.
func (s settingsModel) deleteCategory(cats []ledger.Category) (settingsModel, tea.Cmd) {
	if s.cursor >= len(cats) {
		return s, nil
	}
	c := cats[s.cursor]

	if err := s.ledger.DeleteCategory(c.ID); err != nil {
		return s, func() tea.Msg { return errStatus(err) }
	}
	if err := s.routines.DeleteForCategory(c.ID); err != nil {
		return s, func() tea.Msg { return errStatus(err) }
	}
	if s.cursor > 0 {
		s.cursor--
	}
	return s, func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Deleted %q and everything in it", c.Title)}
	}
}

func (s settingsModel) showEditCategoryForm(cats []ledger.Category) (settingsModel, tea.Cmd) {
	if s.cursor >= len(cats) {
		return s, nil
	}
	c := cats[s.cursor]
	*s.catTitle = c.Title
	*s.catColor = c.Color
	s.editingID = c.ID
	s.formType = "edit_category"

	colorOptions := make([]huh.Option[string], len(ledger.ColorKeys))
	for i, k := range ledger.ColorKeys {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(ledger.ColorValue(k))).Render("●")
		colorOptions[i] = huh.NewOption(fmt.Sprintf("%s %s", dot, k), k)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Category Name").Value(s.catTitle),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(s.catColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showSettingsForm() (settingsModel, tea.Cmd) {
	*s.feedCap = strconv.Itoa(s.store.GetSettingInt("daily_feed_cap", pet.DefaultDailyFeedCap))
	*s.weekStart = s.getVal("week_start", "monday")
	s.formType = "settings"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Daily feed cap").Value(s.feedCap),
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).
				Value(s.weekStart),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

// settingLabel maps setting keys to their display names; unknown keys
// render as-is.
func settingLabel(key string) string {
	switch key {
	case "daily_feed_cap":
		return "Daily feed cap"
	case "week_start":
		return "Week starts on"
	default:
		return key
	}
}

func (s settingsModel) getVal(key, fallback string) string {
	if v, err := s.store.GetSetting(key); err == nil {
		return v
	}
	return fallback
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		switch s.formType {
		case "settings":
			if cap, err := strconv.Atoi(strings.TrimSpace(*s.feedCap)); err == nil && cap > 0 {
				s.store.SetSetting("daily_feed_cap", strconv.Itoa(cap))
				s.pet.FeedCap = cap
			}
			s.store.SetSetting("week_start", *s.weekStart)
			return s, func() tea.Msg { return statusMsg{text: "Settings saved"} }

		case "edit_category":
			title := strings.TrimSpace(*s.catTitle)
			if title == "" {
				return s, nil
			}
			if err := s.ledger.UpdateCategory(s.editingID, title, *s.catColor); err != nil {
				return s, func() tea.Msg { return errStatus(err) }
			}
		}
	}
	return s, cmd
}

func (s settingsModel) view() string {
	if s.formActive && s.form != nil {
		title := "Settings"
		if s.formType == "edit_category" {
			title = "Edit Category"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", s.form.View())
		return panelStyle.Width(s.width - 4).Render(content)
	}

	w := s.width - 4
	var rows []string
	rows = append(rows, titleStyle.Render("Categories"), "")

	cats := s.ledger.Categories()
	if len(cats) == 0 {
		rows = append(rows, mutedStyle.Render("  No categories yet."))
	}
	for i, c := range cats {
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(ledger.ColorValue(c.Color))).Render("●")
		rows = append(rows, fmt.Sprintf("  %s%s %s", cursor, dot, style.Render(c.Title)))
	}

	rows = append(rows, "", titleStyle.Render("App"), "")
	settings, err := s.store.GetAllSettings()
	if err != nil {
		rows = append(rows, errorStyle.Render("  "+err.Error()))
	}
	for _, st := range settings {
		rows = append(rows, fmt.Sprintf("  %s: %s", settingLabel(st.Key), highlightStyle.Render(st.Value)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  e: edit category  d: delete category  enter: app settings"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
