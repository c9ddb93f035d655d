package remind

import (
	"sort"
	"sync"
	"time"
)

// Alert is a pending in-process notification.
type Alert struct {
	ID   string
	Body string
	At   time.Time
}

// Scheduler is the in-process Notifier backing the TUI: alerts sit in a
// registry and the tick loop drains the due ones into the status bar.
// Guarded by a mutex because Bubble Tea runs commands on their own
// goroutines.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]Alert
}

func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[string]Alert)}
}

// RequestPermission always grants: the terminal is ours.
func (s *Scheduler) RequestPermission() (bool, error) {
	return true, nil
}

func (s *Scheduler) Schedule(id, body string, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = Alert{ID: id, Body: body, At: at}
	return id, nil
}

func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
	return nil
}

// Due removes and returns every alert whose time has arrived, oldest first.
func (s *Scheduler) Due(now time.Time) []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Alert
	for id, a := range s.pending {
		if !a.At.After(now) {
			due = append(due, a)
			delete(s.pending, id)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].At.Before(due[j].At) })
	return due
}

// Pending reports how many alerts are waiting.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
