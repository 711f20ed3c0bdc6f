// Package decoder holds the host side of a document-level search: a YAML
// document of phrase slots with alternative translations, and the step
// generator that proposes switching a slot to another alternative.
package decoder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valpere/peredisc/internal/phrase"
	"github.com/valpere/peredisc/internal/search"
)

// Slot is one source phrase with its alternative translations. Choice
// indexes the alternative currently in the document.
type Slot struct {
	Source  string   `yaml:"source" json:"source"`
	Options []string `yaml:"options" json:"options"`
	Choice  int      `yaml:"choice" json:"choice"`
}

// Target returns the chosen translation.
func (s Slot) Target() string { return s.Options[s.Choice] }

type Sentence struct {
	Phrases []Slot `yaml:"phrases" json:"phrases"`
}

// File is the on-disk document format.
type File struct {
	ID         string     `yaml:"id" json:"id"`
	SourceLang string     `yaml:"source_lang" json:"source_lang"`
	TargetLang string     `yaml:"target_lang" json:"target_lang"`
	Sentences  []Sentence `yaml:"sentences" json:"sentences"`
}

// Document is a File with anchored segmentations. It implements
// search.MutableDocument. Reads and ApplyStep must not run concurrently;
// feature.Session provides that ordering.
type Document struct {
	file  File
	spans [][]phrase.Span
	segs  [][]phrase.AnchoredPair
}

var _ search.MutableDocument = (*Document)(nil)

// Load reads a document from a YAML file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document.
func Parse(data []byte) (*Document, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return New(f)
}

// New validates f and computes the anchor of every slot. Anchors are source
// word positions counted from the start of each sentence.
func New(f File) (*Document, error) {
	d := &Document{
		file:  f,
		spans: make([][]phrase.Span, len(f.Sentences)),
		segs:  make([][]phrase.AnchoredPair, len(f.Sentences)),
	}
	for i, sent := range f.Sentences {
		pos := 0
		d.spans[i] = make([]phrase.Span, len(sent.Phrases))
		d.segs[i] = make([]phrase.AnchoredPair, len(sent.Phrases))
		for j, slot := range sent.Phrases {
			n := phrase.Parse(slot.Source).Len()
			if n == 0 {
				return nil, fmt.Errorf("sentence %d phrase %d: empty source", i, j)
			}
			if len(slot.Options) == 0 {
				return nil, fmt.Errorf("sentence %d phrase %d: no options", i, j)
			}
			if slot.Choice < 0 || slot.Choice >= len(slot.Options) {
				return nil, fmt.Errorf("sentence %d phrase %d: choice %d out of range", i, j, slot.Choice)
			}
			span := phrase.Span{Start: pos, End: pos + n}
			d.spans[i][j] = span
			d.segs[i][j] = phrase.NewPair(span, slot.Source, slot.Target())
			pos += n
		}
	}
	return d, nil
}

func (d *Document) ID() string         { return d.file.ID }
func (d *Document) SourceLang() string { return d.file.SourceLang }
func (d *Document) TargetLang() string { return d.file.TargetLang }
func (d *Document) NumSentences() int  { return len(d.file.Sentences) }

func (d *Document) Segmentation(sentence int) []phrase.AnchoredPair {
	return d.segs[sentence]
}

// Slots returns the slots of a sentence. Callers must not modify them.
func (d *Document) Slots(sentence int) []Slot {
	return d.file.Sentences[sentence].Phrases
}

// Anchor returns the source span of a slot.
func (d *Document) Anchor(sentence, slot int) phrase.Span {
	return d.spans[sentence][slot]
}

// SourceText joins the source phrases of a sentence.
func (d *Document) SourceText(sentence int) string {
	return d.join(sentence, func(s Slot) string { return s.Source })
}

// TargetText joins the chosen translations of a sentence.
func (d *Document) TargetText(sentence int) string {
	return d.join(sentence, Slot.Target)
}

func (d *Document) join(sentence int, part func(Slot) string) string {
	var b strings.Builder
	for j, slot := range d.file.Sentences[sentence].Phrases {
		if j > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(part(slot))
	}
	return b.String()
}

// ApplyStep switches every slot covered by the step to the proposed
// translation. A proposal must keep the slot's anchor and source and name
// one of its options. Either every modification is applied or none.
func (d *Document) ApplyStep(step search.Step) error {
	type change struct{ sentence, slot, choice int }
	var changes []change

	for _, m := range step.Modifications {
		if m.Sentence < 0 || m.Sentence >= d.NumSentences() {
			return fmt.Errorf("sentence %d out of range", m.Sentence)
		}
		for _, p := range m.Proposal {
			if !p.Anchor.Within(m.From, m.To) {
				return fmt.Errorf("sentence %d: proposal anchor %v outside [%d, %d)", m.Sentence, p.Anchor, m.From, m.To)
			}
			j, ok := d.slotAt(m.Sentence, p.Anchor)
			if !ok {
				return fmt.Errorf("sentence %d: no slot at %v", m.Sentence, p.Anchor)
			}
			slot := d.file.Sentences[m.Sentence].Phrases[j]
			if phrase.Parse(slot.Source) != p.Source {
				return fmt.Errorf("sentence %d: proposal source %q does not match %q", m.Sentence, p.Source, slot.Source)
			}
			choice := optionIndex(slot.Options, p.Target)
			if choice < 0 {
				return fmt.Errorf("sentence %d: %q is not an option for %q", m.Sentence, p.Target, slot.Source)
			}
			changes = append(changes, change{m.Sentence, j, choice})
		}
	}

	for _, c := range changes {
		slot := &d.file.Sentences[c.sentence].Phrases[c.slot]
		slot.Choice = c.choice
		d.segs[c.sentence][c.slot] = phrase.NewPair(d.spans[c.sentence][c.slot], slot.Source, slot.Target())
	}
	return nil
}

func (d *Document) slotAt(sentence int, span phrase.Span) (int, bool) {
	for j, s := range d.spans[sentence] {
		if s == span {
			return j, true
		}
	}
	return 0, false
}

func optionIndex(options []string, target phrase.Phrase) int {
	for i, o := range options {
		if phrase.Parse(o) == target {
			return i
		}
	}
	return -1
}

// File returns a copy of the document in its on-disk form.
func (d *Document) File() File {
	f := d.file
	f.Sentences = make([]Sentence, len(d.file.Sentences))
	for i, s := range d.file.Sentences {
		f.Sentences[i].Phrases = append([]Slot(nil), s.Phrases...)
	}
	return f
}

// Encode writes the document as YAML.
func (d *Document) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d.File()); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return enc.Close()
}
