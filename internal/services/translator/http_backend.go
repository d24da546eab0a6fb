package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/models"
)

// translateRequest is the wire request for the translation backend
type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	UseCache   bool   `json:"use_cache"`
}

// translateResponse is the wire response from the translation backend
type translateResponse struct {
	TranslatedText string `json:"translated_text"`
	CacheHit       bool   `json:"cache_hit"`
	Timings        struct {
		CacheLookupMs float64 `json:"cache_lookup_ms"`
		ModelMs       float64 `json:"model_ms"`
		TotalMs       float64 `json:"total_ms"`
	} `json:"timings"`
}

// HTTPBackend calls the remote translation service over HTTP JSON.
// One call translates exactly one (text, target language) pair; the caller
// carries the deadline on the context.
type HTTPBackend struct {
	baseURL  string
	useCache bool
	client   *http.Client
	logger   arbor.ILogger
}

// NewHTTPBackend creates a translation backend client from config
func NewHTTPBackend(config *common.TranslatorConfig, logger arbor.ILogger) *HTTPBackend {
	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil {
		timeout = 30 * time.Second
	}

	return &HTTPBackend{
		baseURL:  strings.TrimRight(config.URL, "/"),
		useCache: config.UseCache,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Translate issues one single-language translation call
func (b *HTTPBackend) Translate(ctx context.Context, text, sourceLang, targetLang string) (*models.TranslationOutcome, error) {
	body, err := json.Marshal(translateRequest{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		UseCache:   b.useCache,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal translate request: %w", err)
	}

	url := b.baseURL + "/api/v1/translate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translation backend call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bounded read keeps backend error text in the log without slurping
		// an arbitrary body
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("translation backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode translate response: %w", err)
	}

	outcome := &models.TranslationOutcome{
		TranslatedText: result.TranslatedText,
		CacheHit:       result.CacheHit,
		Timings: models.TranslationTimings{
			CacheLookupMs: result.Timings.CacheLookupMs,
			ModelMs:       result.Timings.ModelMs,
			TotalMs:       result.Timings.TotalMs,
		},
	}
	if outcome.Timings.TotalMs == 0 {
		outcome.Timings.TotalMs = float64(time.Since(start).Milliseconds())
	}

	b.logger.Debug().
		Str("target_lang", targetLang).
		Bool("cache_hit", outcome.CacheHit).
		Str("total_ms", fmt.Sprintf("%.1f", outcome.Timings.TotalMs)).
		Msg("Translation backend call completed")

	return outcome, nil
}
