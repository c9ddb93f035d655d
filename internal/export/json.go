package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sadopc/lumi/internal/ledger"
	"github.com/sadopc/lumi/internal/routine"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	TaskCount  int           `json:"task_count"`
	Tasks      []jsonTask    `json:"tasks"`
	Routines   []jsonRoutine `json:"routines"`
}

type jsonTask struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Category  string `json:"category"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type jsonRoutine struct {
	ID             string   `json:"id"`
	Category       string   `json:"category"`
	Text           string   `json:"text"`
	Frequency      string   `json:"frequency"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date,omitempty"`
	CompletedDates []string `json:"completed_dates"`
}

func ToJSON(tasks []ledger.Task, routines []routine.Routine, categories map[string]ledger.Category, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		TaskCount:  len(tasks),
	}

	for _, t := range tasks {
		export.Tasks = append(export.Tasks, jsonTask{
			ID:        t.ID,
			Date:      t.Date,
			Category:  categoryTitle(categories, t.CategoryID),
			Text:      t.Text,
			Completed: t.Completed,
		})
	}

	for _, r := range routines {
		export.Routines = append(export.Routines, jsonRoutine{
			ID:             r.ID,
			Category:       categoryTitle(categories, r.CategoryID),
			Text:           r.Text,
			Frequency:      string(r.Frequency.Type),
			StartDate:      r.StartDate,
			EndDate:        deref(r.EndDate),
			CompletedDates: completedDates(r),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func categoryTitle(categories map[string]ledger.Category, id string) string {
	if c, ok := categories[id]; ok {
		return c.Title
	}
	return "Unknown"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// completedDates flattens a routine's completion history into sorted day
// keys, dropping dates that were toggled back off.
func completedDates(r routine.Routine) []string {
	var dates []string
	for d, done := range r.CompletedDates {
		if done {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	return dates
}
