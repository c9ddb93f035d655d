package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/lumi/internal/ledger"
	"github.com/sadopc/lumi/internal/routine"
)

// ToCSV writes one row per task and one row per completed routine
// occurrence, so spreadsheet users get a flat completion history.
func ToCSV(tasks []ledger.Task, routines []routine.Routine, categories map[string]ledger.Category, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Type", "ID", "Date", "Category", "Text", "Completed"}); err != nil {
		return err
	}

	for _, t := range tasks {
		row := []string{
			"task",
			t.ID,
			t.Date,
			categoryTitle(categories, t.CategoryID),
			t.Text,
			fmt.Sprintf("%t", t.Completed),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	for _, r := range routines {
		for _, d := range completedDates(r) {
			row := []string{
				"routine",
				r.ID,
				d,
				categoryTitle(categories, r.CategoryID),
				r.Text,
				"true",
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	return w.Error()
}
