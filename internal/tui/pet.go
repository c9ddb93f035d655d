package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/lumi/internal/pet"
)

// levelUpAnimation is how long the level-up sparkle runs before the level
// actually increments.
const levelUpAnimation = 1500 * time.Millisecond

var stageArt = map[int]string{
	pet.StageEgg: `
   .-""-.
  /      \
 |  ●  ●  |
  \      /
   '-..-'`,
	pet.StageJuvenile: `
   (\_/)
   (o.o)
   (> <)`,
	pet.StageAdult: `
   (\___/)
   ( o.o )
   (  >  )
    " "`,
	pet.StageFinal: `
  ✦ (\___/) ✦
    ( ^.^ )
   <(  ♥  )>
     "   "`,
}

var stageNames = map[int]string{
	pet.StageEgg:      "Egg",
	pet.StageJuvenile: "Lumi",
	pet.StageAdult:    "Grown Lumi",
	pet.StageFinal:    "Radiant Lumi",
}

type petModel struct {
	pet    *pet.Machine
	width  int
	height int

	animFrame int
}

func newPetModel(p *pet.Machine) petModel {
	return petModel{pet: p}
}

func (p *petModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p petModel) update(msg tea.Msg) (petModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if p.pet.State().LevelUp == pet.LevelAnimating {
			p.animFrame++
		}
		return p, nil

	case levelUpDoneMsg:
		if err := p.pet.CompleteLevelUp(); err != nil {
			return p, func() tea.Msg { return errStatus(err) }
		}
		p.animFrame = 0
		level := p.pet.State().Level
		return p, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Level up! Lumi reached level %d", level)}
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Evolve):
			return p.evolve()
		case key.Matches(msg, keys.LevelUp):
			return p.startLevelUp()
		}
	}
	return p, nil
}

func (p petModel) evolve() (petModel, tea.Cmd) {
	st := p.pet.State()
	if !st.EvolutionReady {
		return p, nil
	}
	if err := p.pet.Evolve(); err != nil {
		return p, func() tea.Msg { return errStatus(err) }
	}
	name := stageNames[p.pet.State().Stage]
	return p, func() tea.Msg {
		return statusMsg{text: "✦ Evolution! Say hello to " + name}
	}
}

// startLevelUp kicks off the two-phase sequence: the level change is only
// applied when the animation timer delivers levelUpDoneMsg.
func (p petModel) startLevelUp() (petModel, tea.Cmd) {
	if p.pet.State().LevelUp != pet.LevelReady {
		return p, nil
	}
	if err := p.pet.StartLevelUp(); err != nil {
		return p, func() tea.Msg { return errStatus(err) }
	}
	return p, tea.Tick(levelUpAnimation, func(time.Time) tea.Msg {
		return levelUpDoneMsg{}
	})
}

func (p petModel) view() string {
	w := p.width - 4
	st := p.pet.State()

	art := stageArt[st.Stage]
	if st.LevelUp == pet.LevelAnimating && p.animFrame%2 == 1 {
		art = strings.ReplaceAll(art, " ", "·")
	}

	name := stageNames[st.Stage]
	title := titleStyle.Render(fmt.Sprintf("%s — stage %d, level %d", name, st.Stage, st.Level))

	var lines []string
	lines = append(lines, title, "")
	lines = append(lines, petArtStyle.Width(w-6).Render(art), "")

	// Evolution track.
	lines = append(lines, subtitleStyle.Render("  Evolution"))
	if st.Stage == pet.StageFinal {
		lines = append(lines, "  "+successStyle.Render("Final form reached"))
	} else {
		target := evolutionTarget(st.Stage)
		lines = append(lines, "  "+renderBar(st.Experience, target, 24)+
			mutedStyle.Render(fmt.Sprintf("  %d/%d", st.Experience, target)))
		if st.EvolutionReady {
			lines = append(lines, "  "+warningStyle.Render("Ready to evolve! Press v"))
		}
	}
	lines = append(lines, "")

	// Level track.
	lines = append(lines, subtitleStyle.Render("  Level"))
	lines = append(lines, "  "+renderBar(st.CurrentExperience, st.NeedExperience, 24)+
		mutedStyle.Render(fmt.Sprintf("  %d/%d", st.CurrentExperience, st.NeedExperience)))
	switch st.LevelUp {
	case pet.LevelReady:
		lines = append(lines, "  "+warningStyle.Render("Level up available! Press l"))
	case pet.LevelAnimating:
		lines = append(lines, "  "+accentStyle.Render("Leveling up…"))
	}
	lines = append(lines, "")

	fed := fmt.Sprintf("  Fed %d times today", st.FeedCount)
	if st.LastFedDate != "" {
		fed += mutedStyle.Render("  (last: " + st.LastFedDate + ")")
	}
	lines = append(lines, subtitleStyle.Render(fed))
	lines = append(lines, "", mutedStyle.Render("  v: evolve  l: level up"))

	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

// evolutionTarget mirrors the machine's stage thresholds for display.
func evolutionTarget(stage int) int {
	switch stage {
	case pet.StageEgg:
		return 3
	case pet.StageJuvenile:
		return 9
	default:
		return 21
	}
}

func renderBar(value, target, width int) string {
	if target <= 0 {
		target = 1
	}
	filled := value * width / target
	if filled > width {
		filled = width
	}
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}
