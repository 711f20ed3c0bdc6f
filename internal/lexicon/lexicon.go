// Package lexicon holds the connective → accepted-translation table.
//
// A Lexicon is plain data as read from a file or the store. Compile turns
// it into an immutable Table of regular expressions that the classifier
// queries; a Table is safe for concurrent use.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Mode selects how source and target sides are aligned during matching.
type Mode string

const (
	// ModeToken tests source token j against target token j.
	ModeToken Mode = "token"
	// ModePhrase tests the whole source phrase against the whole target phrase.
	ModePhrase Mode = "phrase"
)

// ErrInvalidPattern is returned when an accepted-translation entry cannot be
// compiled.
var ErrInvalidPattern = errors.New("invalid pattern")

// Entry lists the accepted target renderings of one source connective.
// Accepted items are literal words or phrases unless wrapped in slashes
// ("/…/"), in which case the inner text is an RE2 fragment.
type Entry struct {
	Connective string   `mapstructure:"connective" yaml:"connective" toml:"connective" json:"connective"`
	Accepted   []string `mapstructure:"accepted" yaml:"accepted" toml:"accepted" json:"accepted"`
}

// Lexicon is the uncompiled form of a connective table.
type Lexicon struct {
	SourceLang  string  `mapstructure:"source_lang" yaml:"source_lang" toml:"source_lang" json:"source_lang"`
	TargetLang  string  `mapstructure:"target_lang" yaml:"target_lang" toml:"target_lang" json:"target_lang"`
	Mode        Mode    `mapstructure:"mode" yaml:"mode" toml:"mode" json:"mode"`
	Connectives []Entry `mapstructure:"connectives" yaml:"connectives" toml:"connectives" json:"connectives"`
}

//go:embed default.yaml
var defaultLexicon []byte

// Default returns the built-in English → German lexicon.
func Default() (Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(defaultLexicon, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("failed to parse built-in lexicon: %w", err)
	}
	return lex, nil
}

// Load reads a lexicon file. The format follows the file extension
// (yaml, yml, toml or json).
func Load(path string) (Lexicon, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return read(v)
}

func read(v *viper.Viper) (Lexicon, error) {
	if err := v.ReadInConfig(); err != nil {
		return Lexicon{}, fmt.Errorf("failed to read lexicon %s: %w", v.ConfigFileUsed(), err)
	}
	var lex Lexicon
	if err := v.Unmarshal(&lex); err != nil {
		return Lexicon{}, fmt.Errorf("failed to decode lexicon %s: %w", v.ConfigFileUsed(), err)
	}
	return lex, nil
}
