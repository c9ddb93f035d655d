package tui

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/lumi/internal/daykey"
	"github.com/sadopc/lumi/internal/ledger"
	"github.com/sadopc/lumi/internal/pet"
	"github.com/sadopc/lumi/internal/remind"
	"github.com/sadopc/lumi/internal/routine"
	"github.com/sadopc/lumi/internal/store"
)

type testApp struct {
	store     *store.Store
	ledger    *ledger.Ledger
	routines  *routine.Engine
	pet       *pet.Machine
	coord     *remind.Coordinator
	scheduler *remind.Scheduler
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	l, err := ledger.New(s)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	r, err := routine.New(s)
	if err != nil {
		t.Fatalf("new routine engine: %v", err)
	}
	m, err := pet.New(s)
	if err != nil {
		t.Fatalf("new pet: %v", err)
	}
	sched := remind.NewScheduler()
	return testApp{
		store:     s,
		ledger:    l,
		routines:  r,
		pet:       m,
		coord:     remind.NewCoordinator(sched),
		scheduler: sched,
	}
}

// ============================================================
// Today model
// ============================================================

func TestTodayRebuildRows(t *testing.T) {
	ta := newTestApp(t)
	cat, _ := ta.ledger.CreateCategory("Health", "green")
	today := daykey.Today()
	ta.ledger.CreateTask(cat.ID, today, "Drink water")
	ta.ledger.CreateTask(cat.ID, today, "Stretch")

	tm := newTodayModel(ta.ledger, ta.routines, ta.pet, ta.coord)
	if len(tm.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tm.rows))
	}
	for _, row := range tm.rows {
		if row.kind != rowTask {
			t.Fatal("expected task rows only")
		}
		if row.category.Title != "Health" {
			t.Fatalf("category not resolved: %q", row.category.Title)
		}
	}
}

func TestTodayRowsIncludeOccurrences(t *testing.T) {
	ta := newTestApp(t)
	cat, _ := ta.ledger.CreateCategory("Health", "green")
	today := daykey.Today()
	task, _ := ta.ledger.CreateTask(cat.ID, today, "Run")
	ta.routines.NewFromTask(*task)
	ta.ledger.DeleteTask(task.ID, today)

	tm := newTodayModel(ta.ledger, ta.routines, ta.pet, ta.coord)
	if len(tm.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(tm.rows))
	}
	if tm.rows[0].kind != rowOccurrence {
		t.Fatal("expected an occurrence row")
	}
}

func TestTodayOrphanTaskGetsFallbackCategory(t *testing.T) {
	ta := newTestApp(t)
	ta.ledger.CreateTask("no-such-category", daykey.Today(), "Orphan")

	tm := newTodayModel(ta.ledger, ta.routines, ta.pet, ta.coord)
	if len(tm.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(tm.rows))
	}
	if tm.rows[0].category.Title != "?" {
		t.Fatalf("orphan task should render with fallback category, got %q", tm.rows[0].category.Title)
	}
	if tm.rows[0].category.Color != ledger.DefaultColorKey {
		t.Fatalf("orphan task should use the fallback color, got %q", tm.rows[0].category.Color)
	}
}

func TestTodayToggleFeedsPet(t *testing.T) {
	ta := newTestApp(t)
	cat, _ := ta.ledger.CreateCategory("Health", "green")
	today := daykey.Today()
	ta.ledger.CreateTask(cat.ID, today, "Drink water")

	tm := newTodayModel(ta.ledger, ta.routines, ta.pet, ta.coord)
	tm, cmd := tm.toggleSelected()
	if cmd == nil {
		t.Fatal("toggle to completed should emit a message")
	}
	if !tm.rows[0].task.Completed {
		t.Fatal("task should be completed")
	}
	if ta.pet.State().FeedCount != 1 {
		t.Fatalf("pet should have been fed once, got %d", ta.pet.State().FeedCount)
	}
	if _, ok := cmd().(fedMsg); !ok {
		t.Fatalf("expected fedMsg, got %T", cmd())
	}
}

func TestTodayUntoggleDoesNotFeed(t *testing.T) {
	ta := newTestApp(t)
	cat, _ := ta.ledger.CreateCategory("Health", "green")
	ta.ledger.CreateTask(cat.ID, daykey.Today(), "Drink water")

	tm := newTodayModel(ta.ledger, ta.routines, ta.pet, ta.coord)
	tm, _ = tm.toggleSelected()
	tm, cmd := tm.toggleSelected() // back to incomplete
	if cmd != nil {
		t.Fatal("untoggle should not emit a message")
	}
	if ta.pet.State().FeedCount != 1 {
		t.Fatalf("untoggle must not feed again, got %d", ta.pet.State().FeedCount)
	}
}

func TestTodayToggleWhenFull(t *testing.T) {
	ta := newTestApp(t)
	ta.pet.FeedCap = 0
	cat, _ := ta.ledger.CreateCategory("Health", "green")
	ta.ledger.CreateTask(cat.ID, daykey.Today(), "Drink water")

	tm := newTodayModel(ta.ledger, ta.routines, ta.pet, ta.coord)
	tm, cmd := tm.toggleSelected()
	if cmd == nil {
		t.Fatal("expected a status message")
	}
	msg, ok := cmd().(statusMsg)
	if !ok {
		t.Fatalf("expected statusMsg, got %T", cmd())
	}
	if msg.isError {
		t.Fatal("a full pet is not an error")
	}
	if !tm.rows[0].task.Completed {
		t.Fatal("the task itself still completes")
	}
}

func TestTodayConvertTaskToRoutine(t *testing.T) {
	ta := newTestApp(t)
	cat, _ := ta.ledger.CreateCategory("Health", "green")
	today := daykey.Today()
	ta.ledger.CreateTask(cat.ID, today, "Run 5k")

	tm := newTodayModel(ta.ledger, ta.routines, ta.pet, ta.coord)
	tm, _ = tm.convertSelected()

	if len(ta.ledger.TasksForDate(today)) != 0 {
		t.Fatal("source task should be deleted")
	}
	all := ta.routines.All()
	if len(all) != 1 || all[0].Text != "Run 5k" {
		t.Fatalf("routine not created: %+v", all)
	}
	if len(tm.rows) != 1 || tm.rows[0].kind != rowOccurrence {
		t.Fatal("rows should now show the occurrence")
	}
}

func TestCompletionFlowEndToEnd(t *testing.T) {
	ta := newTestApp(t)
	cat, _ := ta.ledger.CreateCategory("Exercise", "blue")
	today := daykey.Today()
	task, _ := ta.ledger.CreateTask(cat.ID, today, "Run 5k")

	tm := newTodayModel(ta.ledger, ta.routines, ta.pet, ta.coord)
	tm, _ = tm.toggleSelected()

	if got := ta.ledger.CompletedCountForDate(today); got != 1 {
		t.Fatalf("completed count: got %d, want 1", got)
	}
	st := ta.pet.State()
	if st.Experience != 1 || st.Stage != pet.StageEgg || st.EvolutionReady {
		t.Fatalf("unexpected pet state after one feed: %+v", st)
	}

	r, err := ta.routines.NewFromTask(*task)
	if err != nil {
		t.Fatal(err)
	}
	if r.StartDate != today || r.Frequency.Type != routine.FreqDaily || len(r.CompletedDates) != 0 {
		t.Fatalf("unexpected conversion result: %+v", r)
	}
	if err := ta.ledger.DeleteTask(task.ID, today); err != nil {
		t.Fatal(err)
	}
	if got := ta.ledger.TasksForDate(today); len(got) != 0 {
		t.Fatalf("source task should be gone after conversion, got %+v", got)
	}
}

func TestTodayDeleteCancelsReminder(t *testing.T) {
	ta := newTestApp(t)
	cat, _ := ta.ledger.CreateCategory("Health", "green")
	today := daykey.Today()
	task, _ := ta.ledger.CreateTask(cat.ID, today, "Call dentist")
	ta.scheduler.Schedule(task.ID, "Call dentist", time.Now().Add(time.Hour))

	tm := newTodayModel(ta.ledger, ta.routines, ta.pet, ta.coord)
	tm, _ = tm.deleteSelected()

	if len(tm.rows) != 0 {
		t.Fatal("row should be gone")
	}
	if ta.scheduler.Pending() != 0 {
		t.Fatal("pending reminder should be cancelled with the task")
	}
}

func TestFreqLabel(t *testing.T) {
	tests := []struct {
		f    routine.Frequency
		want string
	}{
		{routine.Frequency{Type: routine.FreqDaily}, "(daily)"},
		{routine.Frequency{Type: routine.FreqWeekly}, "(weekly)"},
		{routine.Frequency{Type: routine.FreqMonthly}, "(monthly)"},
		{routine.Frequency{Type: "bogus"}, "(?)"},
	}
	for _, tt := range tests {
		if got := freqLabel(tt.f); got != tt.want {
			t.Errorf("freqLabel(%q) = %q, want %q", tt.f.Type, got, tt.want)
		}
	}
}

// ============================================================
// Routines helpers
// ============================================================

func TestDescribeFrequency(t *testing.T) {
	tests := []struct {
		f    routine.Frequency
		want string
	}{
		{routine.Frequency{Type: routine.FreqDaily}, "daily"},
		{routine.Frequency{Type: routine.FreqWeekly, Days: []int{1, 3}}, "weekly: Mon,Wed"},
		{routine.Frequency{Type: routine.FreqWeekly}, "weekly"},
		{routine.Frequency{Type: routine.FreqMonthly, Dates: []int{1, 15}}, "monthly: 1,15"},
		{routine.Frequency{Type: routine.FreqMonthly}, "monthly"},
		{routine.Frequency{Type: ""}, "unscheduled"},
	}
	for _, tt := range tests {
		if got := describeFrequency(tt.f); got != tt.want {
			t.Errorf("describeFrequency(%+v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestCSVToInts(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"1,15", []int{1, 15}},
		{"15, 1", []int{1, 15}},
		{" 5 ", []int{5}},
		{"a,3,b", []int{3}},
		{"", nil},
	}
	for _, tt := range tests {
		got := csvToInts(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("csvToInts(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("csvToInts(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}

func TestIntsToCSV(t *testing.T) {
	if got := intsToCSV([]int{1, 15, 28}); got != "1,15,28" {
		t.Fatalf("intsToCSV = %q", got)
	}
	if got := intsToCSV(nil); got != "" {
		t.Fatalf("intsToCSV(nil) = %q", got)
	}
}

// ============================================================
// Pet view helpers
// ============================================================

func TestEvolutionTarget(t *testing.T) {
	tests := []struct {
		stage, want int
	}{
		{pet.StageEgg, 3},
		{pet.StageJuvenile, 9},
		{pet.StageAdult, 21},
		{pet.StageFinal, 21},
	}
	for _, tt := range tests {
		if got := evolutionTarget(tt.stage); got != tt.want {
			t.Errorf("evolutionTarget(%d) = %d, want %d", tt.stage, got, tt.want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	bar := renderBar(5, 10, 10)
	if n := strings.Count(bar, "█"); n != 5 {
		t.Fatalf("expected 5 filled cells, got %d", n)
	}
	if n := strings.Count(bar, "░"); n != 5 {
		t.Fatalf("expected 5 empty cells, got %d", n)
	}

	// Overfill clamps to the bar width.
	bar = renderBar(20, 10, 10)
	if n := strings.Count(bar, "█"); n != 10 {
		t.Fatalf("overfilled bar should clamp, got %d filled", n)
	}

	// Zero target never divides by zero.
	bar = renderBar(0, 0, 10)
	if n := strings.Count(bar, "░"); n != 10 {
		t.Fatalf("empty bar should be all empty cells, got %d", n)
	}
}

func TestStageArtCoversAllStages(t *testing.T) {
	for _, stage := range []int{pet.StageEgg, pet.StageJuvenile, pet.StageAdult, pet.StageFinal} {
		if stageArt[stage] == "" {
			t.Fatalf("missing art for stage %d", stage)
		}
		if stageNames[stage] == "" {
			t.Fatalf("missing name for stage %d", stage)
		}
	}
}

// ============================================================
// Stats helpers
// ============================================================

func TestHeatLevel(t *testing.T) {
	tests := []struct {
		rate float64
		want int
	}{
		{0, 0},
		{0.1, 1},
		{0.25, 1},
		{0.4, 2},
		{0.5, 2},
		{0.75, 3},
		{0.9, 4},
		{1.0, 4},
	}
	for _, tt := range tests {
		if got := heatLevel(tt.rate); got != tt.want {
			t.Errorf("heatLevel(%v) = %d, want %d", tt.rate, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer string", 8, "a longe…"},
		{"santé métier", 6, "santé…"},
		{"日本語のカテゴリ", 4, "日本語…"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}

func TestStatsCompletionsOn(t *testing.T) {
	ta := newTestApp(t)
	cat, _ := ta.ledger.CreateCategory("Work", "blue")
	today := daykey.Today()
	a, _ := ta.ledger.CreateTask(cat.ID, today, "One")
	ta.ledger.CreateTask(cat.ID, today, "Two")
	ta.ledger.ToggleTask(a.ID, today)

	task, _ := ta.ledger.CreateTask(cat.ID, today, "Routine seed")
	r, _ := ta.routines.NewFromTask(*task)
	ta.ledger.DeleteTask(task.ID, today)
	ta.routines.ToggleCompletion(r.ID, today)

	sm := newStatsModel(ta.ledger, ta.routines)
	if got := sm.completionsOn(today); got != 2 {
		t.Fatalf("expected 2 completions (task + occurrence), got %d", got)
	}
}

// ============================================================
// Settings view
// ============================================================

func TestSettingsViewListsAllSettings(t *testing.T) {
	ta := newTestApp(t)
	ta.store.SetSetting("week_start", "sunday")

	sm := newSettingsModel(ta.store, ta.ledger, ta.routines, ta.pet)
	sm.setSize(100, 40)

	view := sm.view()
	if !strings.Contains(view, "Daily feed cap") || !strings.Contains(view, "300") {
		t.Fatalf("view missing seeded feed cap setting:\n%s", view)
	}
	if !strings.Contains(view, "Week starts on") || !strings.Contains(view, "sunday") {
		t.Fatalf("view missing updated week_start setting:\n%s", view)
	}
}

func TestSettingLabel(t *testing.T) {
	tests := []struct {
		key, want string
	}{
		{"daily_feed_cap", "Daily feed cap"},
		{"week_start", "Week starts on"},
		{"some_future_key", "some_future_key"},
	}
	for _, tt := range tests {
		if got := settingLabel(tt.key); got != tt.want {
			t.Errorf("settingLabel(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 5 {
		t.Fatalf("expected 5 view names, got %d", len(viewNames))
	}
	expected := []string{"Today", "Routines", "Stats", "Pet", "Settings"}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewToday != 0 || viewRoutines != 1 || viewStats != 2 || viewPet != 3 || viewSettings != 4 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// App model
// ============================================================

func newAppModel(t *testing.T) App {
	t.Helper()
	ta := newTestApp(t)
	return NewApp(ta.store, ta.ledger, ta.routines, ta.pet, ta.coord, ta.scheduler)
}

func TestNewApp(t *testing.T) {
	app := newAppModel(t)

	if app.activeView != viewToday {
		t.Fatal("default view should be Today")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
}

func TestAppIsFormActiveDefault(t *testing.T) {
	app := newAppModel(t)
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	app := newAppModel(t)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app = model.(App)

	views := []viewState{viewToday, viewRoutines, viewStats, viewPet, viewSettings}
	for _, v := range views {
		app.activeView = v
		output := app.View()
		if output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := newAppModel(t)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	app := newAppModel(t)
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app := newAppModel(t)
	app.width = 120
	app.height = 40
	app.status = "test status"

	if footer := app.renderFooter(); !strings.Contains(footer, "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppFedMessage(t *testing.T) {
	app := newAppModel(t)

	model, _ := app.Update(fedMsg{})
	app = model.(App)
	if !strings.Contains(app.status, "fed") {
		t.Fatalf("status should mention feeding, got %q", app.status)
	}

	model, _ = app.Update(fedMsg{evolved: true})
	app = model.(App)
	if !strings.Contains(app.status, "evolve") {
		t.Fatalf("status should mention evolution, got %q", app.status)
	}
}

func TestAppReminderFired(t *testing.T) {
	app := newAppModel(t)

	model, _ := app.Update(reminderFiredMsg{alerts: []remind.Alert{{ID: "x", Body: "Call dentist"}}})
	app = model.(App)
	if !strings.Contains(app.status, "Call dentist") {
		t.Fatalf("status should carry the alert body, got %q", app.status)
	}
}

func TestAppExportPickerNavigation(t *testing.T) {
	app := newAppModel(t)
	app.exportPicking = true

	model, _ := app.updateExportPicker(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	app = model.(App)
	if app.exportCursor != 1 {
		t.Fatalf("cursor should move down, got %d", app.exportCursor)
	}

	model, _ = app.updateExportPicker(tea.KeyMsg{Type: tea.KeyEsc})
	app = model.(App)
	if app.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"subtitle", func() string { return subtitleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
		{"doneItem", func() string { return doneItemStyle.Render("test") }},
		{"petArt", func() string { return petArtStyle.Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}
