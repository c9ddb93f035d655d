package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lumi/internal/daykey"
	"github.com/sadopc/lumi/internal/ledger"
	"github.com/sadopc/lumi/internal/routine"
)

type statsModel struct {
	ledger   *ledger.Ledger
	routines *routine.Engine
	width    int
	height   int

	offset int // 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newStatsModel(l *ledger.Ledger, r *routine.Engine) statsModel {
	return statsModel{
		ledger:   l,
		routines: r,
		chart:    barchart.New(60, 10),
	}
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			s.offset++
			s.buildChart()
		case key.Matches(msg, keys.Right):
			if s.offset > 0 {
				s.offset--
			}
			s.buildChart()
		}
	}
	return s, nil
}

func (s statsModel) dateRange() (string, string) {
	end := daykey.AddDays(daykey.Today(), -7*s.offset)
	start := daykey.AddDays(end, -6)
	return start, end
}

// completionsOn counts completed tasks plus completed routine occurrences
// for one day.
func (s statsModel) completionsOn(date string) int {
	n := s.ledger.CompletedCountForDate(date)
	for _, occ := range s.routines.ForDate(date) {
		if occ.Completed {
			n++
		}
	}
	return n
}

func (s *statsModel) buildChart() {
	chartWidth := s.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	s.chart = barchart.New(chartWidth, 10)

	start, _ := s.dateRange()
	var bars []barchart.BarData
	for i := 0; i < 7; i++ {
		date := daykey.AddDays(start, i)
		label := date[5:] // MM-DD
		if d, err := daykey.Parse(date); err == nil {
			label = d.Format("Mon 02")
		}

		count := float64(s.completionsOn(date))
		style := lipgloss.NewStyle().Foreground(colorSuccess)
		if count == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: "done", Value: count, Style: style}},
		})
	}

	s.chart.PushAll(bars)
	s.chart.Draw()
}

func (s statsModel) view() string {
	w := s.width - 4

	start, end := s.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s", start, end))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Completions"), "  ", dateLabel,
	)

	chartView := s.chart.View()
	heatmap := s.renderMonthHeatmap()
	nav := mutedStyle.Render("  ←/→: navigate weeks")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", heatmap, "", nav,
		),
	)
}

// Heat levels by completion rate quartile; the zero level renders dim.
var heatLevels = []string{"░", "▒", "▒", "▓", "█"}

func heatLevel(rate float64) int {
	switch {
	case rate == 0:
		return 0
	case rate <= 0.25:
		return 1
	case rate <= 0.5:
		return 2
	case rate <= 0.75:
		return 3
	default:
		return 4
	}
}

// renderMonthHeatmap draws one row of day cells per category for the
// current month, shaded by that day's completion rate.
func (s statsModel) renderMonthHeatmap() string {
	cats := s.ledger.Categories()
	if len(cats) == 0 {
		return mutedStyle.Render("  No categories yet")
	}

	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	var rows []string
	rows = append(rows, subtitleStyle.Render("  "+now.Format("January 2006")))

	for _, c := range cats {
		color := lipgloss.Color(ledger.ColorValue(c.Color))
		var cells strings.Builder
		for d := 1; d <= daysInMonth; d++ {
			date := daykey.Format(first.AddDate(0, 0, d-1))
			level := heatLevel(s.ledger.CompletionRateForDate(c.ID, date))
			cell := heatLevels[level]
			if level == 0 {
				cells.WriteString(mutedStyle.Render(cell))
			} else {
				cells.WriteString(lipgloss.NewStyle().Foreground(color).Render(cell))
			}
		}
		label := fmt.Sprintf("  %-12s ", truncate(c.Title, 12))
		rows = append(rows, label+cells.String())
	}

	return strings.Join(rows, "\n")
}

// truncate cuts by runes so multibyte titles never yield invalid UTF-8.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
