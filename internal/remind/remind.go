// Package remind bridges stored reminder timestamps to a notification
// service. The coordinator itself keeps no state beyond what the ledger and
// routine engine already store on their records; the service owns the live
// alarms.
package remind

import (
	"fmt"
	"time"

	"github.com/sadopc/lumi/internal/ledger"
	"github.com/sadopc/lumi/internal/routine"
)

// Notifier is the external notification service boundary.
type Notifier interface {
	RequestPermission() (bool, error)
	// Schedule registers a one-shot alert. Scheduling under an id that is
	// already scheduled supersedes the previous alert.
	Schedule(id, body string, at time.Time) (string, error)
	// Cancel is a no-op when nothing is scheduled under id.
	Cancel(id string) error
}

type Coordinator struct {
	n Notifier
}

func NewCoordinator(n Notifier) *Coordinator {
	return &Coordinator{n: n}
}

func (c *Coordinator) RequestPermission() (bool, error) {
	return c.n.RequestPermission()
}

// Schedule cancels any alert under id before registering the new one, so a
// task or routine never has two live alarms.
func (c *Coordinator) Schedule(id, body string, at time.Time) error {
	if err := c.n.Cancel(id); err != nil {
		return fmt.Errorf("cancel previous alert %q: %w", id, err)
	}
	if _, err := c.n.Schedule(id, body, at); err != nil {
		return fmt.Errorf("schedule alert %q: %w", id, err)
	}
	return nil
}

func (c *Coordinator) Cancel(id string) error {
	return c.n.Cancel(id)
}

// Rehydrate re-registers every stored future reminder with the service.
// Stored reminderTime fields survive restarts but OS alarms do not, so this
// runs once at startup. Past or malformed timestamps are skipped. Returns
// how many alerts were scheduled.
func (c *Coordinator) Rehydrate(now time.Time, tasks []ledger.Task, routines []routine.Routine) int {
	scheduled := 0
	for _, t := range tasks {
		if c.rehydrateOne(now, t.ID, t.Text, t.ReminderTime) {
			scheduled++
		}
	}
	for _, r := range routines {
		if c.rehydrateOne(now, r.ID, r.Text, r.ReminderTime) {
			scheduled++
		}
	}
	return scheduled
}

func (c *Coordinator) rehydrateOne(now time.Time, id, body string, stored *string) bool {
	if stored == nil {
		return false
	}
	at, err := time.Parse(time.RFC3339, *stored)
	if err != nil {
		return false
	}
	if !at.After(now) {
		return false
	}
	if err := c.Schedule(id, body, at); err != nil {
		return false
	}
	return true
}
