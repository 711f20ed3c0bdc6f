// Package detector checks that the chosen translations of a document are
// written in the document's target language.
package detector

import (
	"fmt"
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// DefaultMinWords is the shortest sentence CheckDocument examines. Shorter
// texts are too ambiguous to detect reliably.
const DefaultMinWords = 3

type Detector struct {
	detector lingua.LanguageDetector
	minWords int
}

// New builds a detector over every language lingua knows.
func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector, minWords: DefaultMinWords}
}

// NewFor builds a detector restricted to the given ISO 639-1 codes. At
// least two distinct languages are required.
func NewFor(isoCodes ...string) (*Detector, error) {
	var langs []lingua.Language
	seen := make(map[lingua.Language]bool)
	for _, code := range isoCodes {
		lang, ok := languageOf(code)
		if !ok {
			return nil, fmt.Errorf("unknown language code: %s", code)
		}
		if !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	if len(langs) < 2 {
		return nil, fmt.Errorf("at least two languages are required, got %d", len(langs))
	}

	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		Build()

	return &Detector{detector: detector, minWords: DefaultMinWords}, nil
}

func languageOf(code string) (lingua.Language, bool) {
	for _, lang := range lingua.AllLanguages() {
		if strings.EqualFold(lang.IsoCode639_1().String(), code) {
			return lang, true
		}
	}
	return lingua.Unknown, false
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// TargetDocument is the part of a document the check reads.
type TargetDocument interface {
	TargetLang() string
	NumSentences() int
	TargetText(sentence int) string
}

// Mismatch is a sentence whose translation was detected as another
// language.
type Mismatch struct {
	Sentence int
	Detected string
	Text     string
}

// CheckDocument returns the sentences whose detected language differs from
// the document's target language. Short or undetectable sentences are
// skipped. A document without a target language yields no mismatches.
func (d *Detector) CheckDocument(doc TargetDocument) []Mismatch {
	want := doc.TargetLang()
	if want == "" {
		return nil
	}

	var out []Mismatch
	for i := 0; i < doc.NumSentences(); i++ {
		text := doc.TargetText(i)
		if len(strings.Fields(text)) < d.minWords {
			continue
		}
		code, ok := d.DetectISO(text)
		if !ok || strings.EqualFold(code, want) {
			continue
		}
		out = append(out, Mismatch{Sentence: i, Detected: code, Text: text})
	}
	return out
}
