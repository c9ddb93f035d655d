package tui

import (
	"time"

	"github.com/sadopc/lumi/internal/remind"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewRoutines
	viewStats
	viewPet
	viewSettings
)

var viewNames = []string{"Today", "Routines", "Stats", "Pet", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// fedMsg is emitted after a positive completion toggle fed the pet.
type fedMsg struct {
	leveled bool // a level-up became eligible
	evolved bool // an evolution became eligible
}

// levelUpDoneMsg fires when the level-up animation has run its course and
// the numeric level change may be applied.
type levelUpDoneMsg struct{}

type reminderFiredMsg struct {
	alerts []remind.Alert
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func errStatus(err error) statusMsg {
	return statusMsg{text: "Error: " + err.Error(), isError: true}
}
