package parser

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"ofertaglobal/dealfinder/internal/deal"
)

const (
	// SectionSeparator splits the model reply into one block per deal
	SectionSeparator = "---"

	// minSectionLength filters preambles and stray separators
	minSectionLength = 20

	fallbackPrice = "Ver Oferta"
)

// draft accumulates the fields of one section before validation
type draft struct {
	deal.Deal
	reliability string
}

// fieldRule assigns the value of a labeled line to the draft
type fieldRule struct {
	keyword string
	apply   func(d *draft, value string)
}

// fieldRules is matched in order against the uppercased label; the first rule whose
// keyword is contained in the label wins.
var fieldRules = []fieldRule{
	{"ITEM", func(d *draft, v string) { d.Title = v }},
	{"PRECIO", func(d *draft, v string) { d.Price = v }},
	{"ORIGINAL", func(d *draft, v string) { d.OriginalPrice = v }},
	{"AHORRO", func(d *draft, v string) { d.DiscountPercentage = v }},
	{"TIENDA", func(d *draft, v string) { d.Store = v }},
	{"URL", func(d *draft, v string) { d.URL, _ = CleanURL(v) }},
	{"IMAGEN", func(d *draft, v string) { d.ImageURL, _ = CleanURL(v) }},
	{"CONFIABILIDAD", func(d *draft, v string) { d.reliability = v }},
	{"STATUS", func(d *draft, v string) { d.Description = "[" + v + "] " + d.Description }},
	{"DESCRIPCION", func(d *draft, v string) { d.Description += v }},
}

// Parse turns the raw model reply into deals. When no section yields a deal but
// citations exist, one stub deal per citation is returned instead.
func Parse(text string, mode deal.Mode, location string, citations []deal.GroundingSource) []deal.Deal {
	deals := ParseSections(text, mode)
	if len(deals) == 0 && len(citations) > 0 {
		return FromCitations(citations, mode, location)
	}
	return deals
}

// ParseSections extracts deals from the "---" delimited blocks of text.
// Blocks without a title or a valid URL are dropped.
func ParseSections(text string, mode deal.Mode) []deal.Deal {
	deals := make([]deal.Deal, 0)

	for _, section := range strings.Split(text, SectionSeparator) {
		section = strings.TrimSpace(section)
		if sectionLength(section) <= minSectionLength {
			continue
		}

		if d, ok := parseSection(section, mode); ok {
			deals = append(deals, d)
		}
	}

	return deals
}

// sectionLength counts UTF-16 code units, so an emoji counts as two
func sectionLength(section string) int {
	return len(utf16.Encode([]rune(section)))
}

func parseSection(section string, mode deal.Mode) (deal.Deal, bool) {
	d := &draft{}

	for _, line := range strings.Split(section, "\n") {
		label, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		label = strings.ToUpper(strings.TrimSpace(label))
		value = strings.TrimSpace(value)

		for _, rule := range fieldRules {
			if strings.Contains(label, rule.keyword) {
				rule.apply(d, value)
				break
			}
		}
	}

	if d.Title == "" || d.URL == "" {
		return deal.Deal{}, false
	}

	result := d.Deal
	result.ID = deal.NewID()
	result.IsVerified = true
	result.Type = mode
	result.ReliabilityScore = deal.ParseReliability(d.reliability)
	return result, true
}

// FromCitations synthesizes one stub deal per citation. Citations without a
// parsable hostname are skipped.
func FromCitations(citations []deal.GroundingSource, mode deal.Mode, location string) []deal.Deal {
	deals := make([]deal.Deal, 0, len(citations))

	for _, c := range citations {
		store, ok := hostname(c.URI)
		if !ok {
			continue
		}

		deals = append(deals, deal.Deal{
			ID:               deal.NewID(),
			Title:            c.Title,
			URL:              c.URI,
			Store:            store,
			Price:            fallbackPrice,
			Description:      fmt.Sprintf("Resultado verificado en %s.", location),
			IsVerified:       true,
			ReliabilityScore: deal.ReliabilityHigh,
			Type:             mode,
		})
	}

	return deals
}
