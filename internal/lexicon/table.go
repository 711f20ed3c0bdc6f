package lexicon

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A connective or synonym only matches when it is not glued to other
// letters or digits.
const (
	leftBoundary  = `(?:^|[^\p{L}\p{N}])`
	rightBoundary = `(?:[^\p{L}\p{N}]|$)`
)

// Rule is one compiled table row.
type Rule struct {
	connective string
	words      int
	accepted   []string
	source     *regexp.Regexp
	target     *regexp.Regexp
}

func (r *Rule) Connective() string { return r.connective }

// Words returns the number of words in the connective.
func (r *Rule) Words() int { return r.words }

// Accepted returns the accepted renderings as listed in the lexicon.
func (r *Rule) Accepted() []string {
	return append([]string(nil), r.accepted...)
}

// MatchSource reports whether text contains the rule's connective.
func (r *Rule) MatchSource(text string) bool { return r.source.MatchString(text) }

// MatchTarget reports whether text contains one of the accepted renderings.
func (r *Rule) MatchTarget(text string) bool { return r.target.MatchString(text) }

// Table is a compiled, immutable lexicon.
type Table struct {
	sourceLang string
	targetLang string
	mode       Mode
	rules      []Rule
}

// Compile validates lex and compiles every entry. Rules keep their listed
// order except that connectives with more words are moved ahead of shorter
// ones, so "as a result" is tried before "as".
func Compile(lex Lexicon) (*Table, error) {
	mode := lex.Mode
	switch mode {
	case "":
		mode = ModeToken
	case ModeToken, ModePhrase:
	default:
		return nil, fmt.Errorf("unknown lexicon mode %q", lex.Mode)
	}

	t := &Table{
		sourceLang: lex.SourceLang,
		targetLang: lex.TargetLang,
		mode:       mode,
		rules:      make([]Rule, 0, len(lex.Connectives)),
	}
	seen := make(map[string]bool, len(lex.Connectives))
	for _, e := range lex.Connectives {
		name := strings.Join(strings.Fields(e.Connective), " ")
		if name == "" {
			return nil, fmt.Errorf("lexicon entry with empty connective")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate connective %q", name)
		}
		seen[key] = true
		if len(e.Accepted) == 0 {
			return nil, fmt.Errorf("connective %q has no accepted translations", name)
		}

		source, err := compileAlternation([]string{name})
		if err != nil {
			return nil, fmt.Errorf("connective %q: %w", name, err)
		}
		target, err := compileAlternation(e.Accepted)
		if err != nil {
			return nil, fmt.Errorf("connective %q: %w", name, err)
		}
		t.rules = append(t.rules, Rule{
			connective: name,
			words:      len(strings.Fields(name)),
			accepted:   append([]string(nil), e.Accepted...),
			source:     source,
			target:     target,
		})
	}
	sort.SliceStable(t.rules, func(i, j int) bool {
		return t.rules[i].words > t.rules[j].words
	})
	return t, nil
}

// MustCompile is like Compile but panics on error. It is meant for
// package-level tables built from trusted data.
func MustCompile(lex Lexicon) *Table {
	t, err := Compile(lex)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) SourceLang() string { return t.sourceLang }
func (t *Table) TargetLang() string { return t.targetLang }
func (t *Table) Mode() Mode         { return t.mode }
func (t *Table) Len() int           { return len(t.rules) }

// Rules returns the rules in priority order.
func (t *Table) Rules() []*Rule {
	out := make([]*Rule, len(t.rules))
	for i := range t.rules {
		out[i] = &t.rules[i]
	}
	return out
}

// Lookup returns the first rule in priority order whose connective occurs
// in text.
func (t *Table) Lookup(text string) (*Rule, bool) {
	for i := range t.rules {
		if t.rules[i].MatchSource(text) {
			return &t.rules[i], true
		}
	}
	return nil, false
}

// LookupWords returns the first rule in priority order whose connective
// matches the leading words of a token sequence. Only the first Words()
// tokens are tested for each rule, so "as a result" wins over "as" at the
// start of "As a result ,".
func (t *Table) LookupWords(words []string) (*Rule, bool) {
	for i := range t.rules {
		r := &t.rules[i]
		if r.words > len(words) {
			continue
		}
		if r.MatchSource(strings.Join(words[:r.words], " ")) {
			return r, true
		}
	}
	return nil, false
}

// compileAlternation builds one whole-word alternation from literal items
// and /raw/ fragments. Every literal is listed as written and with an upper
// case first letter.
func compileAlternation(items []string) (*regexp.Regexp, error) {
	var alts []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if raw, ok := rawFragment(item); ok {
			if _, err := regexp.Compile(raw); err != nil {
				return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, item, err)
			}
			alts = append(alts, "(?:"+raw+")")
			continue
		}
		lit := strings.Join(strings.Fields(item), " ")
		alts = append(alts, regexp.QuoteMeta(lit))
		if up := upperFirst(lit); up != lit {
			alts = append(alts, regexp.QuoteMeta(up))
		}
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("%w: no usable alternatives", ErrInvalidPattern)
	}
	re, err := regexp.Compile(leftBoundary + "(?:" + strings.Join(alts, "|") + ")" + rightBoundary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

func rawFragment(item string) (string, bool) {
	if len(item) > 2 && strings.HasPrefix(item, "/") && strings.HasSuffix(item, "/") {
		return item[1 : len(item)-1], true
	}
	return "", false
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
