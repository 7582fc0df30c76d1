package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ofertaglobal/dealfinder/config"
	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/internal/search"
	"ofertaglobal/dealfinder/internal/server"
	"ofertaglobal/dealfinder/internal/session"
	"ofertaglobal/dealfinder/logger"
	"ofertaglobal/dealfinder/services/cache"
	"ofertaglobal/dealfinder/services/publisher"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// modelReply mimics a grounded answer in the sectioned format the prompt asks for
const modelReply = `---
ITEM: Freidora de Aire 5L
PRECIO: $ 89.999
ORIGINAL: $ 120.000
AHORRO: 25%
TIENDA: Hogar Total
URL: https://hogartotal.example.com/p/freidora-5l
IMAGEN: https://cdn.hogartotal.example.com/freidora.jpg
CONFIABILIDAD: High
DESCRIPCION: Freidora sin aceite con envío gratis
---
ITEM: Freidora de Aire 3.5L
PRECIO: $ 64.500
TIENDA: Electro Centro
URL: https://electrocentro.example.com/producto/freidora
CONFIABILIDAD: Medium
DESCRIPCION: Modelo compacto
---`

// newFakeGemini serves generateContent calls with modelReply
func newFakeGemini(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		io.Copy(io.Discard, r.Body)

		body := map[string]interface{}{
			"candidates": []interface{}{
				map[string]interface{}{
					"content": map[string]interface{}{
						"role":  "model",
						"parts": []interface{}{map[string]interface{}{"text": modelReply}},
					},
					"groundingMetadata": map[string]interface{}{
						"groundingChunks": []interface{}{
							map[string]interface{}{"web": map[string]interface{}{
								"uri":   "https://hogartotal.example.com/p/freidora-5l",
								"title": "hogartotal.example.com",
							}},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
}

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
}

// Ensure MockCacheService implements cache.CacheService
var _ cache.CacheService = (*MockCacheService)(nil)

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

// MockPublisher collects published messages per key
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	trims    int
	closeErr error
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[key] = append(m.messages[key], append([]byte(nil), message...))
	return nil
}

func (m *MockPublisher) TrimStreams() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return nil
}

func (m *MockPublisher) Close() error {
	return m.closeErr
}

func newGeminiClient(t *testing.T, endpoint string) *search.Client {
	t.Helper()
	provider, err := search.NewGeminiProviderWithBaseURL(context.Background(), "test-key", endpoint)
	require.NoError(t, err)
	return search.NewClient(provider, "gemini-test", search.WithTimeout(5*time.Second), search.WithLogger(logger.Nop()))
}

// TestIntegration runs a search from the page form through the real Gemini client,
// the deal feed and the result cache
func TestIntegration(t *testing.T) {
	var geminiCalls atomic.Int32
	gemini := newFakeGemini(t, &geminiCalls)
	defer gemini.Close()

	mockCache := &MockCacheService{cache: make(map[string][]byte)}
	mockPublisher := &MockPublisher{messages: make(map[string][][]byte)}

	var searcher search.Searcher = newGeminiClient(t, gemini.URL)
	searcher = search.NewPublishingSearcher(searcher, mockPublisher)
	searcher = search.NewCachedSearcher(searcher, mockCache, time.Minute)

	store := session.NewStore(searcher, "Argentina", session.PolicyLastResolved)
	srv, err := server.New(store, searcher, logger.Nop())
	require.NoError(t, err)

	app := httptest.NewServer(srv.Handler("*"))
	defer app.Close()

	client := app.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.PostForm(app.URL+"/search", url.Values{"q": {"Freidora de Aire"}, "mode": {"RETAIL"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, int32(1), geminiCalls.Load())

	// Session state holds both parsed deals with the citation as source
	resp, err = client.Get(app.URL + "/api/state")
	require.NoError(t, err)
	var st session.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()

	require.Len(t, st.Results, 2)
	assert.Equal(t, "Freidora de Aire 5L", st.Results[0].Title)
	assert.Equal(t, "25%", st.Results[0].DiscountPercentage)
	assert.Equal(t, deal.ReliabilityHigh, st.Results[0].ReliabilityScore)
	assert.Equal(t, deal.ModeRetail, st.Results[0].Type)
	assert.Equal(t, []deal.GroundingSource{{
		Title: "hogartotal.example.com",
		URI:   "https://hogartotal.example.com/p/freidora-5l",
	}}, st.Sources)
	assert.Empty(t, st.Error)

	// Every deal went to the feed under its mode
	mockPublisher.mu.Lock()
	assert.Len(t, mockPublisher.messages[string(deal.ModeRetail)], 2)
	assert.Equal(t, 1, mockPublisher.trims)
	mockPublisher.mu.Unlock()

	// The same search through the API is served from the cache
	resp, err = client.Get(app.URL + "/api/deals?q=freidora+de+aire&location=Argentina&mode=RETAIL&sort=PRICE_LOW")
	require.NoError(t, err)
	var api server.DealsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&api))
	resp.Body.Close()

	assert.Equal(t, int32(1), geminiCalls.Load())
	require.Len(t, api.Results, 2)
	assert.Equal(t, "$ 64.500", api.Results[0].Price)
}

// TestIntegrationProviderFailure checks that an unreachable model shows the generic error
func TestIntegrationProviderFailure(t *testing.T) {
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, http.StatusBadRequest)
	}))
	defer gemini.Close()

	store := session.NewStore(newGeminiClient(t, gemini.URL), "Chile", session.PolicyLastResolved)
	require.True(t, store.Search(context.Background(), "iPhone 15", deal.ModeCoupons))

	st := store.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Results)
	assert.Equal(t, session.MessageFailed, st.Error)
}

// TestInitializeServicesDisabled checks that empty addresses leave the services out
func TestInitializeServicesDisabled(t *testing.T) {
	services, err := initializeServices(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, services.Cache)
	assert.Nil(t, services.Publisher)
	services.Cleanup()
}

// TestServicesCleanupLogsCloseError checks that a failing publisher close is reported
func TestServicesCleanupLogsCloseError(t *testing.T) {
	var buf bytes.Buffer
	previous := logger.Default
	logger.Default = logger.New(zerolog.New(&buf))
	defer func() { logger.Default = previous }()

	services := &Services{Publisher: &MockPublisher{closeErr: stderrors.New("connection reset")}}
	services.Cleanup()

	assert.Contains(t, buf.String(), `"component":"publisher"`)
	assert.Contains(t, buf.String(), `"error":"connection reset"`)
	assert.Contains(t, buf.String(), "Failed to close publisher")
}

// TestIntegrationRedisFeed publishes to a live Redis stream
func TestIntegrationRedisFeed(t *testing.T) {
	// Skip this test if running in CI or without Redis
	if os.Getenv("CI") != "" {
		t.Skip("Skipping integration test in CI environment")
	}

	ctx := context.Background()
	redisAddr := "localhost:6379"
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, DB: 0})
	defer redisClient.Close()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping integration test")
	}

	prefix := "test_deals_" + deal.NewID()
	defer redisClient.Del(ctx, prefix+":0")

	var geminiCalls atomic.Int32
	gemini := newFakeGemini(t, &geminiCalls)
	defer gemini.Close()

	redisPublisher := publisher.NewRedisPublisher(ctx, redisAddr, 0, prefix, 1, 100)
	defer redisPublisher.Close()

	searcher := search.NewPublishingSearcher(newGeminiClient(t, gemini.URL), redisPublisher)
	result := searcher.Search(ctx, "Freidora de Aire", "Argentina", deal.ModeWholesale)
	require.Len(t, result.Results, 2)

	entries, err := redisClient.XRange(ctx, prefix+":0", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	encoded, ok := entries[0].Values[string(deal.ModeWholesale)].(string)
	require.True(t, ok, "entry should be keyed by mode")

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var published deal.Deal
	require.NoError(t, json.Unmarshal(decoded, &published))
	assert.Equal(t, "Freidora de Aire 5L", published.Title)
	assert.Equal(t, deal.ModeWholesale, published.Type)
}
