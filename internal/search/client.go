package search

import (
	"context"
	"strings"
	"time"

	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/internal/parser"
	"ofertaglobal/dealfinder/logger"
	"ofertaglobal/dealfinder/pkg/errors"
)

// Result is the outcome of one deal search. A failed search carries no deals and no
// sources; the error detail is only logged.
type Result struct {
	Results []deal.Deal            `json:"results"`
	Sources []deal.GroundingSource `json:"sources"`
	Failed  bool                   `json:"-"`
	Skipped bool                   `json:"-"`
}

func emptyResult() Result {
	return Result{Results: []deal.Deal{}, Sources: []deal.GroundingSource{}}
}

// Searcher runs deal searches. Implementations never return errors.
type Searcher interface {
	Search(ctx context.Context, query, location string, mode deal.Mode) Result
}

// Enricher fills in missing details of parsed deals
type Enricher interface {
	Enrich(ctx context.Context, deals []deal.Deal) []deal.Deal
}

// Client builds the prompt, calls the provider once and parses the reply
type Client struct {
	provider Provider
	model    string
	timeout  time.Duration
	enricher Enricher
	log      *logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout bounds each provider call. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithEnricher runs e over every parsed result set
func WithEnricher(e Enricher) Option {
	return func(c *Client) { c.enricher = e }
}

// WithLogger replaces the component logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a search client for the given provider and model
func NewClient(provider Provider, model string, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		model:    model,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.ForSearch()
	}
	return c
}

// Search runs one deal search. Empty queries are skipped without calling the provider,
// and provider failures come back as an empty failed Result.
func (c *Client) Search(ctx context.Context, query, location string, mode deal.Mode) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		result := emptyResult()
		result.Skipped = true
		return result
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.provider.Generate(ctx, Request{
		Model:             c.model,
		SystemInstruction: SystemInstruction(location),
		Prompt:            UserPrompt(query, location, mode),
		WebSearch:         true,
	})
	if err != nil {
		searchErr := errors.NewProvider(c.provider.Name(), "deal search failed", err)
		c.log.WithError(searchErr).
			WithFields(logger.Fields{
				"query":     query,
				"location":  location,
				"mode":      string(mode),
				"retryable": searchErr.IsRetryable(),
			}).
			Error().
			Msg("Search failed")
		result := emptyResult()
		result.Failed = true
		return result
	}

	result := emptyResult()
	result.Results = parser.Parse(resp.Text, mode, location, resp.Citations)
	if resp.Citations != nil {
		result.Sources = resp.Citations
	}

	if c.enricher != nil && len(result.Results) > 0 {
		result.Results = c.enricher.Enrich(ctx, result.Results)
	}

	c.log.Info().
		Str("query", query).
		Str("location", location).
		Str("mode", string(mode)).
		Int("deals", len(result.Results)).
		Int("sources", len(result.Sources)).
		Dur("elapsed", time.Since(start)).
		Msg("Search completed")

	return result
}
