package translator

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService queries the Cloud Translation v2 API. Its results carry a
// fixed confidence of 1.
type GoogleService struct{}

func NewGoogleService() *GoogleService { return &GoogleService{} }

func (s *GoogleService) Name() string { return "google" }

func (s *GoogleService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	target, opts, err := googleLanguages(req)
	if err != nil {
		return nil, err
	}

	client, err := translate.NewClient(ctx, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	defer client.Close()

	out, err := client.Translate(ctx, []string{req.Text}, target, opts)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	if len(out) == 0 || out[0].Text == "" {
		return nil, ErrNoTranslation
	}
	return &ServiceResult{
		ServiceName:    s.Name(),
		TranslatedText: out[0].Text,
		Confidence:     1,
	}, nil
}

// googleLanguages parses the request's languages. An empty or "auto" source
// leaves detection to the API.
func googleLanguages(req TranslateRequest) (language.Tag, *translate.Options, error) {
	target, err := language.Parse(req.TargetLang)
	if err != nil {
		return language.Und, nil, fmt.Errorf("target language %q: %w", req.TargetLang, err)
	}
	if req.SourceLang == "" || req.SourceLang == "auto" {
		return target, &translate.Options{Format: translate.Text}, nil
	}
	source, err := language.Parse(req.SourceLang)
	if err != nil {
		return language.Und, nil, fmt.Errorf("source language %q: %w", req.SourceLang, err)
	}
	return target, &translate.Options{Source: source, Format: translate.Text}, nil
}

func clientOptions(cfg ServiceConfig) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return opts
}
