// Package pet holds the progression state machine for the single virtual
// creature. Completing a task or a routine occurrence feeds the pet;
// experience drives two independent tracks — levels (unbounded, with a
// two-phase apply so the UI can animate) and evolution stages (1..4, gated
// behind an explicit evolve call).
//
// Every operation's preconditions are guards that make the call a no-op;
// none of them error for domain reasons. Only persistence can fail, and a
// failed save leaves the in-memory state ahead of disk.
package pet

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sadopc/lumi/internal/daykey"
)

const blobKey = "character_v1"

// DefaultDailyFeedCap bounds how many feeds count per local day. The
// `daily_feed_cap` setting overrides it at startup.
const DefaultDailyFeedCap = 300

// Evolution thresholds per stage, evaluated against the evolution
// experience counter (which resets on each evolution).
const (
	StageEgg      = 1
	StageJuvenile = 2
	StageAdult    = 3
	StageFinal    = 4
)

// LevelUpPhase tracks the two-phase level-up: the numeric mutation happens
// only in CompleteLevelUp, after the UI has run its animation.
type LevelUpPhase string

const (
	LevelIdle      LevelUpPhase = "idle"
	LevelReady     LevelUpPhase = "ready"
	LevelAnimating LevelUpPhase = "animating"
)

// Blobs is the slice of the store the machine needs.
type Blobs interface {
	LoadBlob(key string) ([]byte, error)
	SaveBlob(key string, data []byte) error
}

type State struct {
	Stage             int          `json:"stage"`
	Experience        int          `json:"experience"` // evolution counter
	Level             int          `json:"level"`
	CurrentExperience int          `json:"currentExperience"` // toward next level
	NeedExperience    int          `json:"needExperience"`
	LastFedDate       string       `json:"lastFedDate,omitempty"`
	FeedCount         int          `json:"feedCount"`
	EvolutionReady    bool         `json:"isEvolutionReady"`
	LevelUp           LevelUpPhase `json:"levelUpPhase"`
}

// FeedResult reports what a single feed did, for the UI.
type FeedResult struct {
	Fed            bool // false when the daily cap swallowed the feed
	LevelReady     bool // a level-up became eligible on this feed
	EvolutionReady bool // an evolution became eligible on this feed
}

type Machine struct {
	blobs Blobs
	state State

	// FeedCap is the per-day feed quota. Exported so the app layer can
	// apply the configured value.
	FeedCap int

	// now is swappable in tests to drive day rollover.
	now func() time.Time
}

func initialState() State {
	return State{
		Stage:          StageEgg,
		Level:          1,
		NeedExperience: needExperience(1),
		LevelUp:        LevelIdle,
	}
}

// New loads the character blob from the store, starting a fresh egg when
// nothing is stored yet.
func New(b Blobs) (*Machine, error) {
	m := &Machine{blobs: b, FeedCap: DefaultDailyFeedCap, now: time.Now, state: initialState()}

	data, err := b.LoadBlob(blobKey)
	if err != nil {
		return nil, fmt.Errorf("load character: %w", err)
	}
	if data == nil {
		return m, nil
	}
	if err := json.Unmarshal(data, &m.state); err != nil {
		return nil, fmt.Errorf("decode character: %w", err)
	}
	if m.state.LevelUp == "" {
		m.state.LevelUp = LevelIdle
	}
	if m.state.NeedExperience == 0 {
		m.state.NeedExperience = needExperience(m.state.Level)
	}
	return m, nil
}

func (m *Machine) save() error {
	data, err := json.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("encode character: %w", err)
	}
	if err := m.blobs.SaveBlob(blobKey, data); err != nil {
		return fmt.Errorf("save character: %w", err)
	}
	return nil
}

// State returns a copy of the current progression state.
func (m *Machine) State() State {
	return m.state
}

// needExperience is the per-level threshold; it steps up once past the
// level-12 knee.
func needExperience(level int) int {
	if level < 12 {
		return 3
	}
	return 5
}

// evolveThreshold returns the evolution-counter target for the current
// stage, or 0 when the stage is terminal.
func evolveThreshold(stage int) int {
	switch stage {
	case StageEgg:
		return 3
	case StageJuvenile:
		return 9
	case StageAdult:
		return 21
	default:
		return 0
	}
}

// Feed consumes one "task went from incomplete to complete" event.
// The daily quota resets on the first feed of each local day; feeds past
// the cap change nothing.
func (m *Machine) Feed() (FeedResult, error) {
	today := daykey.Format(m.now())
	if m.state.LastFedDate != today {
		m.state.LastFedDate = today
		m.state.FeedCount = 0
	}

	if m.state.FeedCount >= m.FeedCap {
		return FeedResult{}, nil
	}

	m.state.Experience++
	m.state.CurrentExperience++
	m.state.FeedCount++

	res := FeedResult{Fed: true}

	if m.state.CurrentExperience >= m.state.NeedExperience && m.state.LevelUp == LevelIdle {
		m.state.LevelUp = LevelReady
		res.LevelReady = true
	}

	if th := evolveThreshold(m.state.Stage); th > 0 && m.state.Experience >= th && !m.state.EvolutionReady {
		m.state.EvolutionReady = true
		res.EvolutionReady = true
	}

	return res, m.save()
}

// Evolve advances the stage. No-op unless an evolution is pending. The
// evolution counter resets; the level track is untouched.
func (m *Machine) Evolve() error {
	if !m.state.EvolutionReady {
		return nil
	}
	m.state.Stage++
	m.state.Experience = 0
	m.state.EvolutionReady = false
	return m.save()
}

// StartLevelUp moves a pending level-up into the animating phase. The
// numbers don't change until CompleteLevelUp.
func (m *Machine) StartLevelUp() error {
	if m.state.LevelUp != LevelReady {
		return nil
	}
	m.state.LevelUp = LevelAnimating
	return m.save()
}

// CompleteLevelUp applies the level increment once the UI animation is
// done. Feeds that landed mid-animation keep accumulating into
// CurrentExperience and are simply reset here, matching the one-level-per-
// animation contract.
func (m *Machine) CompleteLevelUp() error {
	if m.state.LevelUp != LevelAnimating {
		return nil
	}
	m.state.Level++
	m.state.CurrentExperience = 0
	m.state.NeedExperience = needExperience(m.state.Level)
	m.state.LevelUp = LevelIdle
	return m.save()
}

// Reset hard-resets the creature to a fresh egg. Test and debug path only.
func (m *Machine) Reset() error {
	m.state = initialState()
	return m.save()
}
