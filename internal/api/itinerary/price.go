package itinerary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

var (
	minAliases   = []string{"min", "min_price", "minimum", "from"}
	maxAliases   = []string{"max", "max_price", "maximum", "to"}
	priceAliases = []string{"price", "amount", "value", "cost"}

	currencyCodes = []string{"usd", "eur", "gbp"}
)

// TicketPrice renders an activity price. Zero in any shape, or text that
// says it is free, yields FreeMarker. Missing yields PriceUnavailable.
func TicketPrice(v any) string {
	if !present(v) {
		return PriceUnavailable
	}
	if m, ok := asMap(v); ok {
		lo, hi := priceBounds(m)
		switch {
		case lo == "" && hi == "":
			if p, ok := firstOf(m, priceAliases); ok {
				return TicketPrice(p)
			}
			return PriceUnavailable
		case (lo == "" || isFree(lo)) && (hi == "" || isFree(hi)):
			return FreeMarker
		case lo == "":
			return hi
		case hi == "", lo == hi:
			return lo
		}
		return fmt.Sprintf("%s - %s", lo, hi)
	}
	s := text(v)
	if s == "" {
		return PriceUnavailable
	}
	if isFree(s) {
		return FreeMarker
	}
	return s
}

// HotelPrice renders a per-night price. Display is never empty.
func HotelPrice(v any) types.PriceRange {
	if !present(v) {
		return types.PriceRange{Display: PriceUnavailable}
	}
	if m, ok := asMap(v); ok {
		lo, hi := priceBounds(m)
		if lo == "" && hi == "" {
			if p, ok := firstOf(m, priceAliases); ok {
				return HotelPrice(p)
			}
			return types.PriceRange{Display: PriceUnavailable}
		}
		pr := types.PriceRange{Min: lo, Max: hi}
		switch {
		case lo != "" && hi != "":
			pr.Display = fmt.Sprintf("%s - %s per night", lo, hi)
		case lo != "":
			pr.Display = lo
		default:
			pr.Display = hi
		}
		return pr
	}
	s := text(v)
	if s == "" {
		return types.PriceRange{Display: PriceUnavailable}
	}
	return types.PriceRange{Display: s}
}

func priceBounds(m map[string]any) (string, string) {
	return firstText(m, minAliases), firstText(m, maxAliases)
}

func isFree(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return false
	}
	if strings.Contains(lower, "free") || strings.Contains(lower, "no entry") {
		return true
	}
	amount := strings.Trim(lower, "$€£¥ ")
	for _, code := range currencyCodes {
		amount = strings.TrimSpace(strings.TrimSuffix(amount, code))
	}
	f, err := strconv.ParseFloat(amount, 64)
	return err == nil && f == 0
}
