// Package routine owns the recurring routine definitions. A routine has no
// stored per-date instances: whether it occurs on a date is derived from its
// frequency rule each time, and only the per-date completion flag is kept.
package routine

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sadopc/lumi/internal/daykey"
	"github.com/sadopc/lumi/internal/ledger"
)

const blobKey = "routines_v1"

// Blobs is the slice of the store the engine needs.
type Blobs interface {
	LoadBlob(key string) ([]byte, error)
	SaveBlob(key string, data []byte) error
}

type FrequencyType string

const (
	FreqDaily   FrequencyType = "daily"
	FreqWeekly  FrequencyType = "weekly"
	FreqMonthly FrequencyType = "monthly"
)

// Frequency is a tagged variant: Days is set for weekly (weekday indexes,
// 0=Sunday), Dates for monthly (day-of-month values).
type Frequency struct {
	Type  FrequencyType `json:"type"`
	Days  []int         `json:"days,omitempty"`
	Dates []int         `json:"dates,omitempty"`
}

type Routine struct {
	ID                string          `json:"id"`
	Text              string          `json:"text"`
	CategoryID        string          `json:"categoryId"`
	StartDate         string          `json:"startDate"`         // inclusive day key
	EndDate           *string         `json:"endDate,omitempty"` // inclusive, absent = unbounded
	Frequency         Frequency       `json:"frequency"`
	CompletedDates    map[string]bool `json:"completedDates"`
	LastCompletedDate *string         `json:"lastCompletedDate,omitempty"` // advisory, display only
	ReminderTime      *string         `json:"reminderTime,omitempty"`
}

// Occurrence is a routine projected onto one date.
type Occurrence struct {
	Routine
	Completed bool
}

type Engine struct {
	blobs    Blobs
	routines []Routine
}

// New loads the routines blob from the store. An absent blob yields an
// empty engine.
func New(b Blobs) (*Engine, error) {
	e := &Engine{blobs: b}

	data, err := b.LoadBlob(blobKey)
	if err != nil {
		return nil, fmt.Errorf("load routines: %w", err)
	}
	if data == nil {
		return e, nil
	}
	if err := json.Unmarshal(data, &e.routines); err != nil {
		return nil, fmt.Errorf("decode routines: %w", err)
	}
	return e, nil
}

func (e *Engine) save() error {
	data, err := json.Marshal(e.routines)
	if err != nil {
		return fmt.Errorf("encode routines: %w", err)
	}
	if err := e.blobs.SaveBlob(blobKey, data); err != nil {
		return fmt.Errorf("save routines: %w", err)
	}
	return nil
}

// NewFromTask converts a one-off task into a daily routine starting on the
// task's date. The source task stays in the ledger; the caller deletes it
// after a successful conversion.
func (e *Engine) NewFromTask(task ledger.Task) (*Routine, error) {
	r := Routine{
		ID:             uuid.NewString(),
		Text:           task.Text,
		CategoryID:     task.CategoryID,
		StartDate:      task.Date,
		Frequency:      Frequency{Type: FreqDaily},
		CompletedDates: make(map[string]bool),
		ReminderTime:   task.ReminderTime,
	}
	e.routines = append(e.routines, r)
	if err := e.save(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes the routine and its entire completion history.
func (e *Engine) Delete(id string) error {
	kept := e.routines[:0]
	for _, r := range e.routines {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	e.routines = kept
	return e.save()
}

// DeleteForCategory removes every routine referencing the category. Called
// by the app layer when a category is deleted, keeping the two blobs
// referentially consistent.
func (e *Engine) DeleteForCategory(categoryID string) error {
	kept := e.routines[:0]
	for _, r := range e.routines {
		if r.CategoryID != categoryID {
			kept = append(kept, r)
		}
	}
	e.routines = kept
	return e.save()
}

// ToggleCompletion flips the completion flag for one date. Completing a date
// advances LastCompletedDate; un-completing leaves it alone — the field is
// advisory and never un-set.
func (e *Engine) ToggleCompletion(id, date string) (bool, error) {
	for i := range e.routines {
		r := &e.routines[i]
		if r.ID != id {
			continue
		}
		if r.CompletedDates == nil {
			r.CompletedDates = make(map[string]bool)
		}
		now := !r.CompletedDates[date]
		r.CompletedDates[date] = now
		if now {
			d := date
			r.LastCompletedDate = &d
		}
		return now, e.save()
	}
	return false, fmt.Errorf("routine %q not found", id)
}

func (e *Engine) SetReminder(id string, at *string) error {
	for i := range e.routines {
		if e.routines[i].ID == id {
			e.routines[i].ReminderTime = at
			return e.save()
		}
	}
	return fmt.Errorf("routine %q not found", id)
}

// SetFrequency replaces a routine's frequency rule. Completion history is
// untouched: dates completed under the old rule stay completed.
func (e *Engine) SetFrequency(id string, f Frequency) error {
	for i := range e.routines {
		if e.routines[i].ID == id {
			e.routines[i].Frequency = f
			return e.save()
		}
	}
	return fmt.Errorf("routine %q not found", id)
}

// SetEndDate bounds (or unbounds, with nil) a routine. The end date is
// inclusive.
func (e *Engine) SetEndDate(id string, end *string) error {
	for i := range e.routines {
		if e.routines[i].ID == id {
			e.routines[i].EndDate = end
			return e.save()
		}
	}
	return fmt.Errorf("routine %q not found", id)
}

// All returns every routine definition in insertion order.
func (e *Engine) All() []Routine {
	out := make([]Routine, len(e.routines))
	copy(out, e.routines)
	return out
}

// ForDate derives the routines active on a date, in insertion order, each
// with its completion flag for that date attached. Pure with respect to
// stored state.
func (e *Engine) ForDate(date string) []Occurrence {
	var out []Occurrence
	for _, r := range e.routines {
		if r.StartDate > date {
			continue
		}
		if r.EndDate != nil && *r.EndDate < date {
			continue
		}
		if !occursOn(r.Frequency, date) {
			continue
		}
		out = append(out, Occurrence{Routine: r, Completed: r.CompletedDates[date]})
	}
	return out
}

// occursOn applies the frequency predicate. A malformed frequency type never
// occurs rather than erroring.
func occursOn(f Frequency, date string) bool {
	switch f.Type {
	case FreqDaily:
		return true
	case FreqWeekly:
		wd := daykey.Weekday(date)
		for _, d := range f.Days {
			if d == wd {
				return true
			}
		}
		return false
	case FreqMonthly:
		dom := daykey.DayOfMonth(date)
		for _, d := range f.Dates {
			if d == dom {
				return true
			}
		}
		return false
	default:
		return false
	}
}
