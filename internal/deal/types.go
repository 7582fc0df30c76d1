package deal

import (
	"strings"

	"github.com/google/uuid"
)

// Reliability is the confidence the model reports for a deal
type Reliability string

const (
	ReliabilityHigh     Reliability = "High"
	ReliabilityMedium   Reliability = "Medium"
	ReliabilityChecking Reliability = "Checking"
)

// ParseReliability maps a model-reported value onto the known scores.
// Unrecognized or empty values become Checking.
func ParseReliability(value string) Reliability {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(value), "[]")) {
	case "high":
		return ReliabilityHigh
	case "medium":
		return ReliabilityMedium
	default:
		return ReliabilityChecking
	}
}

// Deal represents a single offer extracted from model output or synthesized from a citation
type Deal struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Price              string      `json:"price"`
	OriginalPrice      string      `json:"originalPrice,omitempty"`
	DiscountPercentage string      `json:"discountPercentage,omitempty"`
	Store              string      `json:"store"`
	URL                string      `json:"url"`
	Description        string      `json:"description"`
	IsVerified         bool        `json:"isVerified"`
	ReliabilityScore   Reliability `json:"reliabilityScore"`
	Type               Mode        `json:"type"`
	ImageURL           string      `json:"imageUrl,omitempty"`
	HasFreeShipping    *bool       `json:"hasFreeShipping,omitempty"`
	IsHistoricalLow    *bool       `json:"isHistoricalLow,omitempty"`
}

// HasDiscount reports whether the deal carries a discount worth showing
func (d Deal) HasDiscount() bool {
	return d.DiscountPercentage != "" && d.DiscountPercentage != "0%"
}

// GroundingSource is a citation returned alongside the generated text
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// NewID returns a fresh opaque deal identifier
func NewID() string {
	return uuid.NewString()
}
