package translator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/valpere/peredisc/internal/lexicon"
)

// Suggestion is a rendering of a connective that a service returned and the
// lexicon does not accept yet.
type Suggestion struct {
	Connective string
	Accepted   string
	Services   []string
	Confidence float64
}

// Suggest asks every service to translate each connective and returns the
// renderings missing from lex, sorted by connective then by how many
// services agreed. Failed requests are collected in the returned errors and
// do not stop the others.
func Suggest(ctx context.Context, services []TranslationService, cfg ServiceConfig, lex lexicon.Lexicon, connectives []string) ([]Suggestion, []error) {
	type job struct {
		connective string
		service    TranslationService
	}
	type outcome struct {
		connective string
		res        *ServiceResult
		err        error
	}

	var jobs []job
	for _, c := range connectives {
		for _, svc := range services {
			jobs = append(jobs, job{connective: c, service: svc})
		}
	}

	outcomes := make(chan outcome, len(jobs))
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()

			reqCtx := ctx
			if cfg.Timeout > 0 {
				var cancel context.CancelFunc
				reqCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
			}

			res, err := j.service.Translate(reqCtx, cfg, TranslateRequest{
				Text:       j.connective,
				SourceLang: lex.SourceLang,
				TargetLang: lex.TargetLang,
			})
			if err != nil {
				err = fmt.Errorf("%s: %q: %w", j.service.Name(), j.connective, err)
			}
			outcomes <- outcome{connective: j.connective, res: res, err: err}
		}(j)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	known := acceptedSet(lex)
	byKey := make(map[[2]string]*Suggestion)
	var errs []error
	for o := range outcomes {
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		text := cleanRendering(o.res.TranslatedText)
		if text == "" {
			continue
		}
		key := [2]string{strings.ToLower(o.connective), strings.ToLower(text)}
		if known[key] {
			continue
		}
		s, ok := byKey[key]
		if !ok {
			s = &Suggestion{Connective: o.connective, Accepted: text}
			byKey[key] = s
		}
		s.Services = append(s.Services, o.res.ServiceName)
		if o.res.Confidence > s.Confidence {
			s.Confidence = o.res.Confidence
		}
	}

	out := make([]Suggestion, 0, len(byKey))
	for _, s := range byKey {
		sort.Strings(s.Services)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Connective != out[j].Connective {
			return out[i].Connective < out[j].Connective
		}
		if len(out[i].Services) != len(out[j].Services) {
			return len(out[i].Services) > len(out[j].Services)
		}
		return out[i].Accepted < out[j].Accepted
	})
	return out, errs
}

func acceptedSet(lex lexicon.Lexicon) map[[2]string]bool {
	set := make(map[[2]string]bool)
	for _, e := range lex.Connectives {
		for _, a := range e.Accepted {
			set[[2]string{strings.ToLower(e.Connective), strings.ToLower(a)}] = true
		}
	}
	return set
}

// cleanRendering strips surrounding punctuation and lower-cases the first
// letter; the lexicon adds the capitalised form itself.
func cleanRendering(text string) string {
	text = strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	r := []rune(text)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
