package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/models"
	"github.com/ternarybob/transfero/internal/services/monitor"
)

// memoryStorage tracks state transitions for a single sub-job. A non-nil
// updateErr makes UpdateState fail as if the store were unreachable.
type memoryStorage struct {
	mu        sync.Mutex
	states    map[string]models.SubJobState
	errs      map[string]models.ErrorKind
	updateErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		states: make(map[string]models.SubJobState),
		errs:   make(map[string]models.ErrorKind),
	}
}

func (m *memoryStorage) Enqueue(ctx context.Context, job *models.SubJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[job.ID] = models.SubJobStateCreated
	return nil
}

func (m *memoryStorage) Get(ctx context.Context, subJobID string) (*models.SubJob, error) {
	return nil, models.ErrSubJobNotFound
}

func (m *memoryStorage) GetByRequest(ctx context.Context, requestID string) ([]*models.SubJob, error) {
	return nil, nil
}

func (m *memoryStorage) UpdateState(ctx context.Context, subJobID string, state models.SubJobState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.states[subJobID].IsTerminal() {
		return models.ErrAlreadyTerminal
	}
	m.states[subJobID] = state
	return nil
}

func (m *memoryStorage) SavePreprocessing(ctx context.Context, subJobID string, outcome *models.PreprocessingOutcome) error {
	return nil
}

func (m *memoryStorage) MarkCompleted(ctx context.Context, subJobID string, result *models.TranslationOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[subJobID] = models.SubJobStateCompleted
	return nil
}

func (m *memoryStorage) MarkFailed(ctx context.Context, subJobID string, state models.SubJobState, kind models.ErrorKind, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[subJobID] = state
	m.errs[subJobID] = kind
	return nil
}

func (m *memoryStorage) CountsByState(ctx context.Context) (map[models.SubJobState]int, error) {
	return nil, nil
}

func (m *memoryStorage) Page(ctx context.Context, state models.SubJobState, offset, limit int) ([]*models.SubJob, error) {
	return nil, nil
}

func (m *memoryStorage) CountJobs(ctx context.Context) (int, error) { return 0, nil }

func (m *memoryStorage) stateOf(subJobID string) models.SubJobState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[subJobID]
}

// captureDelivery records the single terminal event
type captureDelivery struct {
	mu     sync.Mutex
	result *models.SubJobResult
	err    error
	calls  int
}

func (c *captureDelivery) OnPartialResult(ctx context.Context, requestID, language string, result *models.SubJobResult, deliveryErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
	c.err = deliveryErr
	c.calls++
}

func (c *captureDelivery) OnAllLanguagesComplete(ctx context.Context, requestID string) {}

func newTestInvoker(t *testing.T, backendURL string) (*Invoker, *memoryStorage, *captureDelivery) {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Translator.URL = backendURL
	config.Translator.RequestTimeout = "2s"

	storage := newMemoryStorage()
	delivery := &captureDelivery{}
	backend := NewHTTPBackend(&config.Translator, common.GetLogger())
	invoker := NewInvoker(backend, storage, delivery, monitor.NewCounters(), config, common.GetLogger())
	return invoker, storage, delivery
}

func preprocessed(text string) *models.PreprocessingOutcome {
	return &models.PreprocessingOutcome{
		OriginalText:     text,
		PreprocessedText: text,
		DetectedLanguage: "en",
	}
}

func TestTranslateOne_Success(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/translate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"translated_text": "안녕하세요",
			"cache_hit":       true,
			"timings":         map[string]float64{"total_ms": 12.5},
		})
	}))
	defer server.Close()

	invoker, storage, delivery := newTestInvoker(t, server.URL)
	storage.states["req_1:ko"] = models.SubJobStatePreprocessed

	result, err := invoker.TranslateOne(context.Background(), "req_1:ko", preprocessed("hello"), "ko")
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", result.TranslatedText)
	assert.True(t, result.CacheHit)

	assert.Equal(t, "hello", gotBody["text"])
	assert.Equal(t, "en", gotBody["source_lang"])
	assert.Equal(t, "ko", gotBody["target_lang"])

	assert.Equal(t, models.SubJobStateCompleted, storage.stateOf("req_1:ko"))
	assert.Equal(t, 1, delivery.calls)
	require.NotNil(t, delivery.result)
	assert.Equal(t, models.SubJobStateCompleted, delivery.result.State)
	assert.NoError(t, delivery.err)
}

func TestTranslateOne_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	invoker, storage, delivery := newTestInvoker(t, server.URL)
	storage.states["req_1:ko"] = models.SubJobStatePreprocessed

	result, err := invoker.TranslateOne(context.Background(), "req_1:ko", preprocessed("hello"), "ko")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, models.ErrorKindTranslationBackend, models.KindOf(err))

	assert.Equal(t, models.SubJobStateFailed, storage.stateOf("req_1:ko"))
	assert.Equal(t, 1, delivery.calls)
	assert.Nil(t, delivery.result)
	require.Error(t, delivery.err)
	assert.Contains(t, delivery.err.Error(), "model overloaded")
}

func TestTranslateOne_BackendTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	config := common.NewDefaultConfig()
	config.Translator.URL = server.URL
	config.Translator.RequestTimeout = "50ms"

	storage := newMemoryStorage()
	delivery := &captureDelivery{}
	backend := NewHTTPBackend(&config.Translator, common.GetLogger())
	invoker := NewInvoker(backend, storage, delivery, monitor.NewCounters(), config, common.GetLogger())
	storage.states["req_1:ko"] = models.SubJobStatePreprocessed

	_, err := invoker.TranslateOne(context.Background(), "req_1:ko", preprocessed("hello"), "ko")
	require.Error(t, err)
	assert.Equal(t, models.ErrorKindTranslationBackend, models.KindOf(err))
	assert.Equal(t, models.SubJobStateFailed, storage.stateOf("req_1:ko"))
}

func TestTranslateOne_StoreFailureStillDelivers(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	invoker, storage, delivery := newTestInvoker(t, server.URL)
	storage.states["req_1:ko"] = models.SubJobStatePreprocessed
	storage.updateErr = errors.New("store offline")

	result, err := invoker.TranslateOne(context.Background(), "req_1:ko", preprocessed("hello"), "ko")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, models.ErrorKindStoreUnavailable, models.KindOf(err))
	assert.False(t, called, "backend must not be called when the claim write failed")

	// The language still gets its terminal event - a store failure is
	// never a silent drop.
	assert.Equal(t, 1, delivery.calls)
	assert.Nil(t, delivery.result)
	require.Error(t, delivery.err)
	assert.Equal(t, models.ErrorKindStoreUnavailable, models.KindOf(delivery.err))
}

func TestTranslateOne_AlreadyTerminalSkipsCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	invoker, storage, delivery := newTestInvoker(t, server.URL)
	storage.states["req_1:ko"] = models.SubJobStateTimedOut

	_, err := invoker.TranslateOne(context.Background(), "req_1:ko", preprocessed("hello"), "ko")
	require.Error(t, err)
	assert.False(t, called, "backend must not be called for a terminal sub-job")
	assert.Zero(t, delivery.calls, "no delivery for a terminal sub-job")
	assert.Equal(t, models.SubJobStateTimedOut, storage.stateOf("req_1:ko"))
}
