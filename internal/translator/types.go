// Package translator queries machine translation services for renderings
// of source connectives, to seed or extend a connective lexicon.
package translator

import (
	"context"
	"errors"
	"time"
)

type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// ServiceResult is one service's rendering. Confidence is in [0, 1].
type ServiceResult struct {
	ServiceName    string  `json:"service_name"`
	TranslatedText string  `json:"translated_text"`
	Confidence     float64 `json:"confidence"`
}

// ErrNoTranslation is returned when a service answers without a rendering.
var ErrNoTranslation = errors.New("no translation returned")

// TranslationService returns a nil result together with any error.
type TranslationService interface {
	Name() string
	Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error)
}
