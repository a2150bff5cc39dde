package adapters

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/bestfriendai/NEWEVENTS-sub003/internal/types"
)

// StructuredPrice is an explicit price object supplied by a provider
type StructuredPrice struct {
	Currency string
	Min      float64
	Max      float64
}

// PriceInput carries every price-bearing signal one provider item offers.
// ExtractPrice walks these in a fixed fallback order.
type PriceInput struct {
	IsFree      bool
	Structured  *StructuredPrice
	MinPrice    *float64
	MaxPrice    *float64
	Fields      map[string]string // other named price-like fields
	TicketLinks []types.TicketLink
	InfoLinks   []types.TicketLink
	Name        string
	Description string
	VenueTier   string // arena, stadium, theater, club
	SourceName  string
}

// venueTierEstimates maps a venue tier to a typical ticket price range
var venueTierEstimates = map[string][2]float64{
	"arena":   {45, 150},
	"stadium": {50, 175},
	"theater": {25, 85},
	"theatre": {25, 85},
	"club":    {15, 40},
}

var dollarPattern = regexp.MustCompile(`\$(\d+(?:\.\d{1,2})?)`)
var freeTextPattern = regexp.MustCompile(`(?i)\b(free admission|free entry|free event|admission is free|free)\b`)

// priceParamNames are the query parameters providers embed prices under
var priceParamNames = []string{"price", "ticket_price", "min_price", "cost", "amount"}

// ExtractPrice produces the display price string for one provider item.
// Each stage is tried only if the previous yields nothing; the result is
// always a non-empty human-readable string, never a bare number.
func ExtractPrice(in PriceInput) string {
	// Free flag short-circuits everything else
	if in.IsFree {
		return "Free"
	}

	if in.Structured != nil {
		if s := formatPriceRange(in.Structured.Min, in.Structured.Max); s != "" {
			return s
		}
	}

	if s := formatPointerRange(in.MinPrice, in.MaxPrice); s != "" {
		return s
	}

	if s := priceFromFields(in.Fields); s != "" {
		return s
	}

	if s := priceFromURLs(in.TicketLinks); s != "" {
		return s
	}

	if s := priceFromText(in.Name + " " + in.Description); s != "" {
		return s
	}

	if tier, ok := venueTierEstimates[strings.ToLower(in.VenueTier)]; ok {
		return formatPriceRange(tier[0], tier[1])
	}

	if len(in.TicketLinks) > 0 {
		return "Tickets Available"
	}

	if len(in.InfoLinks) > 0 {
		source := in.InfoLinks[0].Source
		if source == "" {
			source = in.SourceName
		}
		if source != "" {
			return fmt.Sprintf("See %s", source)
		}
	}

	return types.PriceTBA
}

// formatPriceRange renders a numeric range as "$min" or "$min - $max".
// Returns empty when neither bound carries information.
func formatPriceRange(min, max float64) string {
	if min < 0 || max < 0 {
		return ""
	}
	if min == 0 && max == 0 {
		return ""
	}
	if max <= min || max == 0 {
		return "$" + formatAmount(min)
	}
	return "$" + formatAmount(min) + " - $" + formatAmount(max)
}

func formatPointerRange(min, max *float64) string {
	if min == nil && max == nil {
		return ""
	}
	lo, hi := 0.0, 0.0
	if min != nil {
		lo = *min
	}
	if max != nil {
		hi = *max
	}
	return formatPriceRange(lo, hi)
}

// formatAmount renders a dollar amount without trailing zero cents
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// priceFromFields scans loosely-typed provider fields for an amount or a
// free marker
func priceFromFields(fields map[string]string) string {
	for _, value := range fields {
		v := strings.TrimSpace(value)
		if v == "" {
			continue
		}
		if strings.EqualFold(v, "free") {
			return "Free"
		}
		if amount, err := strconv.ParseFloat(strings.TrimPrefix(v, "$"), 64); err == nil && amount > 0 {
			return "$" + formatAmount(amount)
		}
	}
	return ""
}

// priceFromURLs extracts a price from ticket-link query parameters
func priceFromURLs(links []types.TicketLink) string {
	for _, link := range links {
		u, err := url.Parse(link.Link)
		if err != nil {
			continue
		}

		query := u.Query()
		for _, param := range priceParamNames {
			value := query.Get(param)
			if value == "" {
				continue
			}
			if strings.EqualFold(value, "free") || value == "0" {
				return "Free"
			}
			if amount, err := strconv.ParseFloat(value, 64); err == nil && amount > 0 {
				return "$" + formatAmount(amount)
			}
		}
	}
	return ""
}

// priceFromText scans free text for dollar amounts or free keywords
func priceFromText(text string) string {
	if text == "" {
		return ""
	}

	matches := dollarPattern.FindAllStringSubmatch(text, -1)
	if len(matches) > 0 {
		min, max := -1.0, -1.0
		for _, m := range matches {
			amount, err := strconv.ParseFloat(m[1], 64)
			if err != nil || amount <= 0 {
				continue
			}
			if min < 0 || amount < min {
				min = amount
			}
			if amount > max {
				max = amount
			}
		}
		if min > 0 {
			return formatPriceRange(min, max)
		}
	}

	if freeTextPattern.MatchString(text) {
		return "Free"
	}

	return ""
}

// VenueTier guesses the pricing tier from a venue name
func VenueTier(venueName string) string {
	name := strings.ToLower(venueName)
	for tier := range venueTierEstimates {
		if strings.Contains(name, tier) {
			return tier
		}
	}
	return ""
}
