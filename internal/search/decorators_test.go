package search

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/services/cache"
	"ofertaglobal/dealfinder/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCacheService implements cache.CacheService for testing
type MockCacheService struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

// Ensure MockCacheService implements cache.CacheService
var _ cache.CacheService = (*MockCacheService)(nil)

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	value, ok := m.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return value, nil
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = expiration
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockPublisher implements publisher.Publisher for testing
type MockPublisher struct {
	mu         sync.Mutex
	messages   map[string][][]byte
	trimCalls  int
	publishErr error
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)
	m.messages[key] = append(m.messages[key], messageCopy)
	return nil
}

func (m *MockPublisher) TrimStreams() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimCalls++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("iPhone 15", "Chile", deal.ModeRetail)
	assert.Equal(t, a, CacheKey("  iphone 15 ", "Chile", deal.ModeRetail))
	assert.NotEqual(t, a, CacheKey("iPhone 15", "Perú", deal.ModeRetail))
	assert.NotEqual(t, a, CacheKey("iPhone 15", "Chile", deal.ModeCoupons))
	assert.Len(t, a, len(cacheKeyPrefix)+40)
}

func TestCachedSearcherServesRepeats(t *testing.T) {
	provider := &MockProvider{response: &Response{
		Text:      reply,
		Citations: []deal.GroundingSource{{Title: "Electro", URI: "https://electro.example.com"}},
	}}
	mockCache := NewMockCacheService()
	searcher := NewCachedSearcher(newTestClient(provider), mockCache, 10*time.Minute)

	first := searcher.Search(context.Background(), "tv", "Argentina", deal.ModeRetail)
	require.Len(t, first.Results, 1)

	second := searcher.Search(context.Background(), "TV", "Argentina", deal.ModeRetail)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Sources, second.Sources)
	assert.Len(t, provider.Requests(), 1)

	key := CacheKey("tv", "Argentina", deal.ModeRetail)
	assert.Equal(t, 10*time.Minute, mockCache.ttls[key])
}

func TestCachedSearcherSkipsFailuresAndEmptyResults(t *testing.T) {
	provider := &MockProvider{err: errors.New("boom")}
	mockCache := NewMockCacheService()
	searcher := NewCachedSearcher(newTestClient(provider), mockCache, time.Minute)

	result := searcher.Search(context.Background(), "tv", "Argentina", deal.ModeRetail)
	assert.True(t, result.Failed)
	assert.Empty(t, mockCache.data)

	provider.err = nil
	provider.response = &Response{Text: "nada"}
	result = searcher.Search(context.Background(), "tv", "Argentina", deal.ModeRetail)
	assert.Empty(t, result.Results)
	assert.Empty(t, mockCache.data)

	// Empty queries pass through untouched
	result = searcher.Search(context.Background(), " ", "Argentina", deal.ModeRetail)
	assert.True(t, result.Skipped)
	assert.Len(t, provider.Requests(), 2)
}

func TestCachedSearcherToleratesCacheErrors(t *testing.T) {
	provider := &MockProvider{response: &Response{Text: reply}}
	mockCache := NewMockCacheService()
	mockCache.getErr = errors.New("connection refused")
	mockCache.setErr = errors.New("connection refused")
	searcher := NewCachedSearcher(newTestClient(provider), mockCache, time.Minute)

	result := searcher.Search(context.Background(), "tv", "Argentina", deal.ModeRetail)
	assert.Len(t, result.Results, 1)

	result = searcher.Search(context.Background(), "tv", "Argentina", deal.ModeRetail)
	assert.Len(t, result.Results, 1)
	assert.Len(t, provider.Requests(), 2)
}

func TestCachedSearcherIgnoresCorruptEntries(t *testing.T) {
	provider := &MockProvider{response: &Response{Text: reply}}
	mockCache := NewMockCacheService()
	mockCache.data[CacheKey("tv", "Argentina", deal.ModeRetail)] = []byte("{not json")
	searcher := NewCachedSearcher(newTestClient(provider), mockCache, time.Minute)

	result := searcher.Search(context.Background(), "tv", "Argentina", deal.ModeRetail)
	assert.Len(t, result.Results, 1)
	assert.Len(t, provider.Requests(), 1)
}

func TestPublishingSearcher(t *testing.T) {
	provider := &MockProvider{response: &Response{Text: reply}}
	mockPublisher := NewMockPublisher()
	searcher := NewPublishingSearcher(newTestClient(provider), mockPublisher)

	result := searcher.Search(context.Background(), "tv", "Argentina", deal.ModeCoupons)
	require.Len(t, result.Results, 1)

	messages := mockPublisher.messages[string(deal.ModeCoupons)]
	require.Len(t, messages, 1)
	assert.Equal(t, 1, mockPublisher.trimCalls)

	var published deal.Deal
	require.NoError(t, json.Unmarshal(messages[0], &published))
	assert.Equal(t, result.Results[0], published)
}

func TestPublishingSearcherSkipsFailures(t *testing.T) {
	provider := &MockProvider{err: errors.New("boom")}
	mockPublisher := NewMockPublisher()
	searcher := NewPublishingSearcher(newTestClient(provider), mockPublisher)

	result := searcher.Search(context.Background(), "tv", "Argentina", deal.ModeRetail)
	assert.True(t, result.Failed)
	assert.Empty(t, mockPublisher.messages)
	assert.Equal(t, 0, mockPublisher.trimCalls)
}

func TestPublishingSearcherToleratesPublishErrors(t *testing.T) {
	provider := &MockProvider{response: &Response{Text: reply}}
	mockPublisher := NewMockPublisher()
	mockPublisher.publishErr = errors.New("redis down")
	searcher := NewPublishingSearcher(newTestClient(provider), mockPublisher)

	result := searcher.Search(context.Background(), "tv", "Argentina", deal.ModeRetail)
	assert.Len(t, result.Results, 1)
	assert.Equal(t, 1, mockPublisher.trimCalls)
}
