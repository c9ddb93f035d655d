package remind

import (
	"testing"
	"time"

	"github.com/sadopc/lumi/internal/ledger"
	"github.com/sadopc/lumi/internal/routine"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *Scheduler) {
	t.Helper()
	sched := NewScheduler()
	return NewCoordinator(sched), sched
}

// ============================================================
// Scheduler
// ============================================================

func TestSchedulerDue(t *testing.T) {
	s := NewScheduler()
	now := time.Now()

	s.Schedule("a", "first", now.Add(-time.Minute))
	s.Schedule("b", "later", now.Add(time.Hour))

	due := s.Due(now)
	if len(due) != 1 || due[0].ID != "a" {
		t.Fatalf("unexpected due alerts: %+v", due)
	}
	// Due drains: a second call returns nothing for the same alert.
	if got := s.Due(now); len(got) != 0 {
		t.Fatalf("due alerts should be drained, got %+v", got)
	}
	if s.Pending() != 1 {
		t.Fatalf("future alert should stay pending, got %d", s.Pending())
	}
}

func TestSchedulerDueOrdering(t *testing.T) {
	s := NewScheduler()
	now := time.Now()
	s.Schedule("late", "late", now.Add(-time.Minute))
	s.Schedule("early", "early", now.Add(-time.Hour))

	due := s.Due(now)
	if len(due) != 2 || due[0].ID != "early" || due[1].ID != "late" {
		t.Fatalf("due alerts out of order: %+v", due)
	}
}

func TestSchedulerCancelNoop(t *testing.T) {
	s := NewScheduler()
	if err := s.Cancel("never-scheduled"); err != nil {
		t.Fatalf("cancel of unknown id should be a no-op, got %v", err)
	}
}

// ============================================================
// Coordinator
// ============================================================

func TestScheduleSupersedes(t *testing.T) {
	c, sched := newTestCoordinator(t)
	now := time.Now()

	if err := c.Schedule("task1", "old body", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := c.Schedule("task1", "new body", now.Add(2*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if sched.Pending() != 1 {
		t.Fatalf("reschedule should supersede, got %d pending", sched.Pending())
	}

	due := sched.Due(now.Add(3 * time.Hour))
	if len(due) != 1 || due[0].Body != "new body" {
		t.Fatalf("expected the superseding alert, got %+v", due)
	}
}

func TestRequestPermission(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ok, err := c.RequestPermission()
	if err != nil || !ok {
		t.Fatalf("in-process scheduler always grants, got %v %v", ok, err)
	}
}

// ============================================================
// Rehydration
// ============================================================

func TestRehydrate(t *testing.T) {
	c, sched := newTestCoordinator(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	future := now.Add(time.Hour).Format(time.RFC3339)
	past := now.Add(-time.Hour).Format(time.RFC3339)
	garbage := "half past never"

	tasks := []ledger.Task{
		{ID: "t1", Text: "future task", ReminderTime: &future},
		{ID: "t2", Text: "past task", ReminderTime: &past},
		{ID: "t3", Text: "no reminder"},
		{ID: "t4", Text: "bad timestamp", ReminderTime: &garbage},
	}
	routines := []routine.Routine{
		{ID: "r1", Text: "future routine", ReminderTime: &future},
	}

	if got := c.Rehydrate(now, tasks, routines); got != 2 {
		t.Fatalf("rehydrated %d alerts, want 2", got)
	}
	if sched.Pending() != 2 {
		t.Fatalf("pending: got %d, want 2", sched.Pending())
	}

	due := sched.Due(now.Add(2 * time.Hour))
	if len(due) != 2 {
		t.Fatalf("expected both rehydrated alerts due, got %+v", due)
	}
}
