package search

import (
	"context"
	"encoding/json"

	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/logger"
	"ofertaglobal/dealfinder/pkg/errors"
	"ofertaglobal/dealfinder/services/publisher"
)

// PublishingSearcher forwards every deal of a successful search to a deal feed
type PublishingSearcher struct {
	next      Searcher
	publisher publisher.Publisher
	log       *logger.Logger
}

// NewPublishingSearcher wraps next so that its deals are published
func NewPublishingSearcher(next Searcher, pub publisher.Publisher) *PublishingSearcher {
	return &PublishingSearcher{
		next:      next,
		publisher: pub,
		log:       logger.ForPublisher(),
	}
}

func (s *PublishingSearcher) Search(ctx context.Context, query, location string, mode deal.Mode) Result {
	result := s.next.Search(ctx, query, location, mode)
	if result.Failed || len(result.Results) == 0 {
		return result
	}

	for _, d := range result.Results {
		data, err := json.Marshal(d)
		if err != nil {
			s.log.Error().Err(err).Str("deal_id", d.ID).Msg("Failed to marshal deal")
			continue
		}
		if err := s.publisher.Publish(string(mode), data); err != nil {
			s.log.Error().
				Err(errors.NewPublisher("redis", "publish failed", err)).
				Str("deal_id", d.ID).
				Msg("Failed to publish deal")
		}
	}

	if err := s.publisher.TrimStreams(); err != nil {
		s.log.Warn().Err(errors.NewPublisher("redis", "trim failed", err)).Msg("Failed to trim streams")
	}

	return result
}
