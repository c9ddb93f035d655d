// Package ledger owns the categories and the date-indexed one-off tasks.
// State lives in memory and is written back whole to a single blob on every
// mutation; a failed write leaves memory ahead of disk until the next
// successful save.
package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const blobKey = "ledger_v1"

// Blobs is the slice of the store the ledger needs.
type Blobs interface {
	LoadBlob(key string) ([]byte, error)
	SaveBlob(key string, data []byte) error
}

type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"` // palette key, see colors.go
}

type Task struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	Completed    bool    `json:"completed"`
	Date         string  `json:"date"` // day key, YYYY-MM-DD local
	CategoryID   string  `json:"categoryId"`
	ReminderTime *string `json:"reminderTime,omitempty"` // RFC3339, display and rehydration only
}

type blob struct {
	Categories []Category        `json:"categories"`
	Todos      map[string][]Task `json:"todos"`
}

type Ledger struct {
	blobs      Blobs
	categories []Category
	todos      map[string][]Task
	lastTaskID int64
}

// New loads the ledger blob from the store. An absent blob yields an empty
// ledger, not an error.
func New(b Blobs) (*Ledger, error) {
	l := &Ledger{blobs: b, todos: make(map[string][]Task)}

	data, err := b.LoadBlob(blobKey)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if data == nil {
		return l, nil
	}

	var st blob
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	l.categories = st.Categories
	if st.Todos != nil {
		l.todos = st.Todos
	}
	return l, nil
}

func (l *Ledger) save() error {
	data, err := json.Marshal(blob{Categories: l.categories, Todos: l.todos})
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := l.blobs.SaveBlob(blobKey, data); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// ============================================================
// Categories
// ============================================================

func (l *Ledger) CreateCategory(title, colorKey string) (*Category, error) {
	c := Category{ID: uuid.NewString(), Title: title, Color: colorKey}
	l.categories = append(l.categories, c)
	if err := l.save(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (l *Ledger) UpdateCategory(id, title, colorKey string) error {
	for i := range l.categories {
		if l.categories[i].ID == id {
			l.categories[i].Title = title
			l.categories[i].Color = colorKey
			return l.save()
		}
	}
	return fmt.Errorf("category %q not found", id)
}

// DeleteCategory removes the category and every task referencing it, across
// all dates, as one write.
func (l *Ledger) DeleteCategory(id string) error {
	kept := l.categories[:0]
	for _, c := range l.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	l.categories = kept

	for date, tasks := range l.todos {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.CategoryID != id {
				filtered = append(filtered, t)
			}
		}
		if len(filtered) == 0 {
			delete(l.todos, date)
		} else {
			l.todos[date] = filtered
		}
	}
	return l.save()
}

func (l *Ledger) Categories() []Category {
	out := make([]Category, len(l.categories))
	copy(out, l.categories)
	return out
}

func (l *Ledger) Category(id string) (Category, bool) {
	for _, c := range l.categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// ============================================================
// Tasks
// ============================================================

// taskID derives ids from the wall clock; the single UI goroutine is the
// only creator, so a monotonic bump covers same-millisecond calls.
func (l *Ledger) taskID() string {
	id := time.Now().UnixMilli()
	if id <= l.lastTaskID {
		id = l.lastTaskID + 1
	}
	l.lastTaskID = id
	return strconv.FormatInt(id, 10)
}

func (l *Ledger) CreateTask(categoryID, date, text string) (*Task, error) {
	t := Task{
		ID:         l.taskID(),
		Text:       text,
		Date:       date,
		CategoryID: categoryID,
	}
	l.todos[date] = append(l.todos[date], t)
	if err := l.save(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ToggleTask flips the completed flag and reports the new state. Feeding the
// pet on a positive transition is the caller's job, not a ledger side effect.
func (l *Ledger) ToggleTask(taskID, date string) (bool, error) {
	tasks := l.todos[date]
	for i := range tasks {
		if tasks[i].ID == taskID {
			tasks[i].Completed = !tasks[i].Completed
			return tasks[i].Completed, l.save()
		}
	}
	return false, fmt.Errorf("task %q not found on %s", taskID, date)
}

func (l *Ledger) EditTaskText(taskID, date, text string) error {
	tasks := l.todos[date]
	for i := range tasks {
		if tasks[i].ID == taskID {
			tasks[i].Text = text
			return l.save()
		}
	}
	return fmt.Errorf("task %q not found on %s", taskID, date)
}

func (l *Ledger) DeleteTask(taskID, date string) error {
	tasks := l.todos[date]
	for i := range tasks {
		if tasks[i].ID == taskID {
			l.todos[date] = append(tasks[:i], tasks[i+1:]...)
			if len(l.todos[date]) == 0 {
				delete(l.todos, date)
			}
			return l.save()
		}
	}
	return fmt.Errorf("task %q not found on %s", taskID, date)
}

// SetTaskReminder stores (or clears, with nil) the reminder timestamp on a
// task. Scheduling the actual alert is the reminder coordinator's job.
func (l *Ledger) SetTaskReminder(taskID, date string, at *string) error {
	tasks := l.todos[date]
	for i := range tasks {
		if tasks[i].ID == taskID {
			tasks[i].ReminderTime = at
			return l.save()
		}
	}
	return fmt.Errorf("task %q not found on %s", taskID, date)
}

// TasksForDate returns a copy of the day's task list in insertion order.
func (l *Ledger) TasksForDate(date string) []Task {
	tasks := l.todos[date]
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

func (l *Ledger) CompletedCountForDate(date string) int {
	n := 0
	for _, t := range l.todos[date] {
		if t.Completed {
			n++
		}
	}
	return n
}

// CompletionRateForDate returns the completed fraction of a category's tasks
// on a date, 0 when the category has no tasks that day.
func (l *Ledger) CompletionRateForDate(categoryID, date string) float64 {
	total, done := 0, 0
	for _, t := range l.todos[date] {
		if t.CategoryID != categoryID {
			continue
		}
		total++
		if t.Completed {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

// Dates returns every day key with at least one task, sorted ascending.
func (l *Ledger) Dates() []string {
	dates := make([]string, 0, len(l.todos))
	for d := range l.todos {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// AllTasks flattens every date's tasks in date order. Used by reminder
// rehydration and export.
func (l *Ledger) AllTasks() []Task {
	var out []Task
	for _, d := range l.Dates() {
		out = append(out, l.todos[d]...)
	}
	return out
}
