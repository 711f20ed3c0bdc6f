package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const myMemoryURL = "https://api.mymemory.translated.net/get"

// MyMemoryService queries the free MyMemory API. A contact email raises the
// anonymous daily quota.
type MyMemoryService struct {
	email   string
	baseURL string
	client  *http.Client
}

func NewMyMemoryService(email string) *MyMemoryService {
	return &MyMemoryService{
		email:   email,
		baseURL: myMemoryURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *MyMemoryService) Name() string { return "mymemory" }

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string  `json:"translatedText"`
		Match          float64 `json:"match"`
	} `json:"responseData"`
	ResponseStatus  int    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

func (s *MyMemoryService) Translate(ctx context.Context, _ ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.requestURL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var body myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	// The API reports its own errors inside a 200 response.
	if body.ResponseStatus != http.StatusOK {
		return nil, fmt.Errorf("api error %d: %s", body.ResponseStatus, body.ResponseDetails)
	}
	if body.ResponseData.TranslatedText == "" {
		return nil, ErrNoTranslation
	}
	return &ServiceResult{
		ServiceName:    s.Name(),
		TranslatedText: body.ResponseData.TranslatedText,
		Confidence:     min(max(body.ResponseData.Match, 0), 1),
	}, nil
}

// requestURL encodes the query. MyMemory has no detection, so an empty or
// "auto" source is sent as English.
func (s *MyMemoryService) requestURL(req TranslateRequest) string {
	source := req.SourceLang
	if source == "" || source == "auto" {
		source = "en"
	}
	q := url.Values{}
	q.Set("q", req.Text)
	q.Set("langpair", source+"|"+req.TargetLang)
	if s.email != "" {
		q.Set("de", s.email)
	}
	return s.baseURL + "?" + q.Encode()
}
