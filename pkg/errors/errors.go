package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeProvider represents failures reported by the generative model provider
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents response or HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// SearchError represents an error raised while serving a deal search
type SearchError struct {
	Type     ErrorType
	Provider string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *SearchError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *SearchError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeProvider:
		return true
	default:
		return false
	}
}

// New creates a new SearchError
func New(errType ErrorType, provider, message string, err error) *SearchError {
	return &SearchError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewProvider creates a new provider error
func NewProvider(provider, message string, err error) *SearchError {
	return New(ErrorTypeProvider, provider, message, err)
}

// NewNetwork creates a new network error
func NewNetwork(provider, message string, err error) *SearchError {
	return New(ErrorTypeNetwork, provider, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(provider, message string, err error) *SearchError {
	return New(ErrorTypeParsing, provider, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(provider string, retryAfter string) *SearchError {
	message := fmt.Sprintf("rate limited; retry after %s", retryAfter)
	return New(ErrorTypeRateLimit, provider, message, nil)
}

// NewCache creates a new cache error
func NewCache(provider, message string, err error) *SearchError {
	return New(ErrorTypeCache, provider, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(provider, message string, err error) *SearchError {
	return New(ErrorTypePublisher, provider, message, err)
}

// NewValidation creates a new validation error
func NewValidation(provider, message string) *SearchError {
	return New(ErrorTypeValidation, provider, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *SearchError {
	return New(ErrorTypeConfiguration, "", message, err)
}
