package deal

import (
	"fmt"
	"strings"
)

// Mode scopes both the prompt sent to the model and the classification of its deals
type Mode string

const (
	ModeRetail    Mode = "RETAIL"
	ModeWholesale Mode = "WHOLESALE"
	ModeCoupons   Mode = "COUPONS"
)

// Modes lists every search mode in tab order
var Modes = []Mode{ModeRetail, ModeWholesale, ModeCoupons}

// ModeInfo holds everything that varies by search mode
type ModeInfo struct {
	Label        string
	PromptPhrase string
	CTALabel     string
	Accent       string
}

var modeTable = map[Mode]ModeInfo{
	ModeRetail: {
		Label:        "Minorista",
		PromptPhrase: "productos minoristas con stock local",
		CTALabel:     "Comprar Ahora",
		Accent:       "blue",
	},
	ModeWholesale: {
		Label:        "Por Mayor",
		PromptPhrase: "distribuidores mayoristas nacionales",
		CTALabel:     "Comprar Ahora",
		Accent:       "indigo",
	},
	ModeCoupons: {
		Label:        "Cupones",
		PromptPhrase: "cupones vigentes en el país",
		CTALabel:     "Ver Cupón",
		Accent:       "orange",
	},
}

// Info returns the mapping entry for the mode. Unknown modes get the retail entry.
func (m Mode) Info() ModeInfo {
	if info, ok := modeTable[m]; ok {
		return info
	}
	return modeTable[ModeRetail]
}

// Valid reports whether m is one of the known modes
func (m Mode) Valid() bool {
	_, ok := modeTable[m]
	return ok
}

// ParseMode parses a mode name case-insensitively
func ParseMode(value string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(value)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown search mode %q", value)
	}
	return m, nil
}

// SortOrder selects how results are presented
type SortOrder string

const (
	SortRelevance SortOrder = "RELEVANCE"
	SortPriceLow  SortOrder = "PRICE_LOW"
	SortPriceHigh SortOrder = "PRICE_HIGH"
)

// SortOrders lists every sort order in button order
var SortOrders = []SortOrder{SortRelevance, SortPriceLow, SortPriceHigh}

// Label returns the button text for the order
func (s SortOrder) Label() string {
	switch s {
	case SortPriceLow:
		return "Barato"
	case SortPriceHigh:
		return "Caro"
	default:
		return "Popular"
	}
}

// ParseSortOrder parses a sort order name case-insensitively
func ParseSortOrder(value string) (SortOrder, error) {
	s := SortOrder(strings.ToUpper(strings.TrimSpace(value)))
	switch s {
	case SortRelevance, SortPriceLow, SortPriceHigh:
		return s, nil
	}
	return "", fmt.Errorf("unknown sort order %q", value)
}

// Categories are the suggested searches shown before any results exist
var Categories = []string{
	"iPhone 15",
	"Notebook Gamer",
	"Zapatillas Nike",
	"Smart TV 50",
	"Freidora de Aire",
}
