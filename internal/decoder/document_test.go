package decoder

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valpere/peredisc/internal/phrase"
	"github.com/valpere/peredisc/internal/search"
)

const sampleYAML = `
id: doc-1
source_lang: en
target_lang: de
sentences:
  - phrases:
      - source: While
        options: [Und, Während]
      - source: he slept
        options: [er schlief]
  - phrases:
      - source: However
        options: [Und, Jedoch]
      - source: it rained
        options: [regnete es, es regnete]
        choice: 1
`

func mustParse(t *testing.T) *Document {
	t.Helper()
	d, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return d
}

func TestParse(t *testing.T) {
	d := mustParse(t)

	if d.ID() != "doc-1" || d.SourceLang() != "en" || d.TargetLang() != "de" {
		t.Errorf("unexpected header: %s %s %s", d.ID(), d.SourceLang(), d.TargetLang())
	}
	if d.NumSentences() != 2 {
		t.Fatalf("expected 2 sentences, got %d", d.NumSentences())
	}

	seg := d.Segmentation(0)
	if len(seg) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(seg))
	}
	if seg[1].Anchor != (phrase.Span{Start: 1, End: 3}) {
		t.Errorf("expected anchor [1,3), got %v", seg[1].Anchor)
	}
	if seg[0].Target.String() != "Und" {
		t.Errorf("expected default choice 0, got %q", seg[0].Target)
	}
	if got := d.TargetText(1); got != "Und es regnete" {
		t.Errorf("TargetText = %q", got)
	}
	if got := d.SourceText(0); got != "While he slept" {
		t.Errorf("SourceText = %q", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "sentences: [[["},
		{"empty source", "sentences:\n  - phrases:\n      - source: ' '\n        options: [x]\n"},
		{"no options", "sentences:\n  - phrases:\n      - source: while\n"},
		{"choice out of range", "sentences:\n  - phrases:\n      - source: while\n        options: [x]\n        choice: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d.NumSentences() != 2 {
		t.Errorf("expected 2 sentences, got %d", d.NumSentences())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDocument_ApplyStep(t *testing.T) {
	d := mustParse(t)

	if err := d.ApplyStep(SwitchStep(d, 0, 0, 1)); err != nil {
		t.Fatalf("ApplyStep failed: %v", err)
	}
	if got := d.Segmentation(0)[0].Target.String(); got != "Während" {
		t.Errorf("expected Während, got %q", got)
	}
	if d.Slots(0)[0].Choice != 1 {
		t.Errorf("expected choice 1, got %d", d.Slots(0)[0].Choice)
	}
}

func TestDocument_ApplyStep_AllOrNothing(t *testing.T) {
	d := mustParse(t)

	good := SwitchStep(d, 0, 0, 1)
	bad := search.Modification{
		Sentence: 1,
		From:     0,
		To:       1,
		Proposal: []phrase.AnchoredPair{phrase.NewPair(phrase.Span{Start: 0, End: 1}, "However", "Trotzdem")},
	}
	step := search.Step{Modifications: append(good.Modifications, bad)}

	if err := d.ApplyStep(step); err == nil {
		t.Fatal("expected error for unknown option")
	}
	if got := d.Segmentation(0)[0].Target.String(); got != "Und" {
		t.Errorf("document changed after failed step: %q", got)
	}
}

func TestDocument_ApplyStep_Errors(t *testing.T) {
	d := mustParse(t)
	span := phrase.Span{Start: 0, End: 1}

	tests := []struct {
		name string
		mod  search.Modification
	}{
		{"sentence out of range", search.Modification{Sentence: 5}},
		{"anchor outside range", search.Modification{
			Sentence: 0, From: 1, To: 3,
			Proposal: []phrase.AnchoredPair{phrase.NewPair(span, "While", "Während")},
		}},
		{"no slot at anchor", search.Modification{
			Sentence: 0, From: 0, To: 2,
			Proposal: []phrase.AnchoredPair{phrase.NewPair(phrase.Span{Start: 0, End: 2}, "While he", "Während")},
		}},
		{"source mismatch", search.Modification{
			Sentence: 0, From: 0, To: 1,
			Proposal: []phrase.AnchoredPair{phrase.NewPair(span, "Whilst", "Während")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.ApplyStep(search.Step{Modifications: []search.Modification{tt.mod}}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDocument_Encode(t *testing.T) {
	d := mustParse(t)
	if err := d.ApplyStep(SwitchStep(d, 1, 0, 1)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(buf.String(), "choice: 1") {
		t.Errorf("expected encoded choice, got:\n%s", buf.String())
	}

	back, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if got := back.TargetText(1); got != "Jedoch es regnete" {
		t.Errorf("TargetText after round trip = %q", got)
	}
}

func TestDocument_FileIsCopy(t *testing.T) {
	d := mustParse(t)
	f := d.File()
	f.Sentences[0].Phrases[0].Choice = 1

	if d.Slots(0)[0].Choice != 0 {
		t.Error("modifying File() result changed the document")
	}
}
