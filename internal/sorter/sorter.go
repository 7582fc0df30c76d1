package sorter

import (
	"slices"
	"strconv"
	"strings"

	"ofertaglobal/dealfinder/internal/deal"
)

// PriceValue extracts a number from a locale-formatted price such as "$ 1.200,50".
// Dots are thousands separators and the first comma is the decimal separator.
// Unparsable prices are 0.
func PriceValue(price string) float64 {
	s := strings.ReplaceAll(price, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Sort orders deals for display. Relevance keeps arrival order and returns deals
// as is; price orders return a new slice and keep arrival order among equal prices.
func Sort(deals []deal.Deal, order deal.SortOrder) []deal.Deal {
	if order != deal.SortPriceLow && order != deal.SortPriceHigh {
		return deals
	}

	sorted := slices.Clone(deals)
	slices.SortStableFunc(sorted, func(a, b deal.Deal) int {
		pa, pb := PriceValue(a.Price), PriceValue(b.Price)
		if order == deal.SortPriceHigh {
			pa, pb = pb, pa
		}
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	})
	return sorted
}
