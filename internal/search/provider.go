package search

import (
	"context"

	"ofertaglobal/dealfinder/internal/deal"
)

// Request is one generation call to the model provider
type Request struct {
	Model             string
	SystemInstruction string
	Prompt            string
	WebSearch         bool
}

// Response is the generated text plus the citations the model grounded it on
type Response struct {
	Text      string
	Citations []deal.GroundingSource
}

// Provider generates grounded text for a prompt
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}
