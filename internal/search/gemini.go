package search

import (
	"context"
	"fmt"
	"strings"

	"ofertaglobal/dealfinder/internal/deal"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider with Google's Gemini API and its search grounding tool
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	return NewGeminiProviderWithBaseURL(ctx, apiKey, "")
}

// NewGeminiProviderWithBaseURL creates a Gemini provider that talks to a custom endpoint
func NewGeminiProviderWithBaseURL(ctx context.Context, apiKey, baseURL string) (*GeminiProvider, error) {
	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{
			BaseURL: baseURL,
		}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client}, nil
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}

// Generate performs a single non-streaming generation
func (g *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{}

	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}

	if req.WebSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("Gemini generation failed: %w", err)
	}

	return convertResponse(resp), nil
}

// convertResponse reads the text and web citations of the first candidate
func convertResponse(resp *genai.GenerateContentResponse) *Response {
	result := &Response{Citations: []deal.GroundingSource{}}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return result
	}
	candidate := resp.Candidates[0]

	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
		}
		result.Text = text.String()
	}

	if candidate.GroundingMetadata != nil {
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			result.Citations = append(result.Citations, deal.GroundingSource{
				Title: chunk.Web.Title,
				URI:   chunk.Web.URI,
			})
		}
	}

	return result
}
