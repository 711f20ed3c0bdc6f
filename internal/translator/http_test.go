package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newMyMemoryServer(t *testing.T, handler http.HandlerFunc) *MyMemoryService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &MyMemoryService{
		baseURL: server.URL,
		client:  server.Client(),
	}
}

func TestMyMemoryService_Name(t *testing.T) {
	svc := NewMyMemoryService("")

	if svc.Name() != "mymemory" {
		t.Errorf("expected 'mymemory', got %q", svc.Name())
	}
}

func TestMyMemoryService_Translate_Success(t *testing.T) {
	svc := newMyMemoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.URL.Query().Get("langpair"); got != "en|de" {
			t.Errorf("expected langpair en|de, got %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "however" {
			t.Errorf("expected q=however, got %q", got)
		}
		resp := map[string]interface{}{
			"responseData":   map[string]interface{}{"translatedText": "jedoch", "match": 0.85},
			"responseStatus": 200,
		}
		json.NewEncoder(w).Encode(resp)
	})

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text:       "however",
		SourceLang: "en",
		TargetLang: "de",
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "jedoch" {
		t.Errorf("expected 'jedoch', got %q", result.TranslatedText)
	}
	if result.Confidence != 0.85 {
		t.Errorf("expected confidence 0.85, got %v", result.Confidence)
	}
}

func TestMyMemoryService_Translate_AutoSourceLang(t *testing.T) {
	svc := newMyMemoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("langpair"); got != "en|de" {
			t.Errorf("expected auto source to default to en, got %q", got)
		}
		resp := map[string]interface{}{
			"responseData":   map[string]interface{}{"translatedText": "während", "match": 2},
			"responseStatus": 200,
		}
		json.NewEncoder(w).Encode(resp)
	})

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text:       "while",
		SourceLang: "auto",
		TargetLang: "de",
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Confidence != 1 {
		t.Errorf("expected confidence clamped to 1, got %v", result.Confidence)
	}
}

func TestMyMemoryService_Translate_APIError(t *testing.T) {
	svc := newMyMemoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"responseStatus":  403,
			"responseDetails": "INVALID LANGUAGE PAIR",
		}
		json.NewEncoder(w).Encode(resp)
	})

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text:       "while",
		SourceLang: "en",
		TargetLang: "xx",
	})

	if err == nil || !strings.Contains(err.Error(), "INVALID LANGUAGE PAIR") {
		t.Errorf("expected API error details, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result on error, got %+v", result)
	}
}

func TestMyMemoryService_Translate_EmptyTranslation(t *testing.T) {
	svc := newMyMemoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"responseData":   map[string]interface{}{"translatedText": "", "match": 0},
			"responseStatus": 200,
		}
		json.NewEncoder(w).Encode(resp)
	})

	_, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text:       "while",
		SourceLang: "en",
		TargetLang: "de",
	})

	if !errors.Is(err, ErrNoTranslation) {
		t.Errorf("expected ErrNoTranslation, got %v", err)
	}
}

func TestMyMemoryService_Translate_HTTPError(t *testing.T) {
	svc := newMyMemoryServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text:       "while",
		SourceLang: "en",
		TargetLang: "de",
	})

	if err == nil {
		t.Error("expected error for non-OK status")
	}
}

func TestGoogleService_Translate_InvalidTargetLang(t *testing.T) {
	svc := NewGoogleService()

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text:       "while",
		SourceLang: "en",
		TargetLang: "not a language",
	})

	if err == nil {
		t.Error("expected error for invalid target language")
	}
	if result != nil {
		t.Errorf("expected nil result on error, got %+v", result)
	}
	if svc.Name() != "google" {
		t.Errorf("expected 'google', got %q", svc.Name())
	}
}
