package session

import (
	"context"
	"strings"
	"sync"

	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/internal/search"
	"ofertaglobal/dealfinder/internal/sorter"
	"ofertaglobal/dealfinder/logger"
)

// Policy decides which search completion is applied when searches overlap
type Policy int

const (
	// PolicyLastResolved applies every completion, so the response that arrives
	// last wins even if it belongs to an older search.
	PolicyLastResolved Policy = iota
	// PolicyLatestIssued applies only the completion of the most recently issued search.
	PolicyLatestIssued
)

// ParsePolicy maps a configuration value to a Policy. Unknown values keep the default.
func ParsePolicy(value string) Policy {
	if strings.EqualFold(strings.TrimSpace(value), "latest_issued") {
		return PolicyLatestIssued
	}
	return PolicyLastResolved
}

// Store owns the single session state and serializes every transition
type Store struct {
	mu       sync.Mutex
	state    State
	nextGen  uint64
	searcher search.Searcher
	policy   Policy
	log      *logger.Logger
}

// NewStore creates a store starting at the initial state for location
func NewStore(searcher search.Searcher, location string, policy Policy) *Store {
	return &Store{
		state:    Initial(location),
		searcher: searcher,
		policy:   policy,
		log:      logger.Nop(),
	}
}

// WithLogger sets the logger used for dropped completions
func (s *Store) WithLogger(l *logger.Logger) *Store {
	s.log = l
	return s
}

// State returns a snapshot of the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Sorted returns the current results in the selected sort order
func (s *Store) Sorted() []deal.Deal {
	st := s.State()
	return sorter.Sort(st.Results, st.SortOrder)
}

// Dispatch applies a user action
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, action)
	return s.state
}

// Search runs a search for query in mode at the current location. A blank query
// is ignored and leaves the state untouched; it returns false in that case.
func (s *Store) Search(ctx context.Context, query string, mode deal.Mode) bool {
	if strings.TrimSpace(query) == "" {
		return false
	}

	s.mu.Lock()
	s.nextGen++
	gen := s.nextGen
	location := s.state.Location
	s.state = Reduce(s.state, SearchStarted{Query: query, Mode: mode, Generation: gen})
	s.mu.Unlock()

	result := s.searcher.Search(ctx, query, location, mode)

	var completion Action
	switch {
	case result.Failed:
		completion = SearchFailed{Generation: gen}
	case len(result.Results) == 0:
		completion = SearchEmpty{Generation: gen}
	default:
		completion = SearchSucceeded{Generation: gen, Results: result.Results, Sources: result.Sources}
	}

	s.complete(gen, completion)
	return true
}

// SelectMode switches the tab and re-runs the current query in the new mode
func (s *Store) SelectMode(ctx context.Context, mode deal.Mode) {
	st := s.Dispatch(SetMode{Mode: mode})
	if st.Query != "" {
		s.Search(ctx, st.Query, mode)
	}
}

func (s *Store) complete(gen uint64, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy == PolicyLatestIssued && gen != s.state.Generation {
		s.log.Debug().
			Uint64("generation", gen).
			Uint64("latest", s.state.Generation).
			Msg("Dropping stale search response")
		return
	}
	s.state = Reduce(s.state, action)
}
