package decoder

import (
	"fmt"
	"math/rand"

	"github.com/valpere/peredisc/internal/phrase"
	"github.com/valpere/peredisc/internal/search"
)

// SwitchStep builds the step that sets a slot to option choice.
func SwitchStep(d *Document, sentence, slot, choice int) search.Step {
	s := d.Slots(sentence)[slot]
	span := d.Anchor(sentence, slot)
	return search.Step{
		Label: fmt.Sprintf("s%d.p%d=%d", sentence, slot, choice),
		Modifications: []search.Modification{{
			Sentence: sentence,
			From:     span.Start,
			To:       span.End,
			Proposal: []phrase.AnchoredPair{phrase.NewPair(span, s.Source, s.Options[choice])},
		}},
	}
}

// Neighbours returns every single-slot switch away from the current
// choices, in document order.
func Neighbours(d *Document) []search.Step {
	var steps []search.Step
	for i := 0; i < d.NumSentences(); i++ {
		for j, s := range d.Slots(i) {
			for k := range s.Options {
				if k != s.Choice {
					steps = append(steps, SwitchStep(d, i, j, k))
				}
			}
		}
	}
	return steps
}

// Generator draws random single-slot switches.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator with a fixed seed so runs are
// reproducible.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Steps returns up to n distinct switches. When the document has n or
// fewer neighbours all of them are returned.
func (g *Generator) Steps(d *Document, n int) []search.Step {
	all := Neighbours(d)
	if len(all) <= n {
		return all
	}
	g.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:n]
}
