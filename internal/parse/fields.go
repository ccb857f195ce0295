package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dealdesk/prospectus/internal/models"
)

// Field patterns are tied to one document template (the 280 Richards
// memorandum). The city alternatives anticipate what the uppercase-run
// normalizer produces from "NEW YORK CITY", including the truncated form.
var (
	rePropertyName = regexp.MustCompile(`(?i)280\s+RICHARDS`)
	reAddress      = regexp.MustCompile(`(?i)(BROOKLYN),?\s*(NEWYOR(?:CITY)?)`)
	reSquareFeet   = regexp.MustCompile(`(?i)([\d,]+)\s*(?:square\s*feet|sf)`)
	reThousands    = regexp.MustCompile(`(?i)(\d+)\s*K`)
)

// ParseKeyData normalizes text and extracts the property name, address, and
// total rentable square footage. Fields that do not match are left nil;
// parsing never fails.
func ParseKeyData(text string) *models.ExtractionResult {
	cleaned := RemoveExtraSpaces(text)
	result := &models.ExtractionResult{}

	if m := rePropertyName.FindString(cleaned); m != "" {
		name := titleCase(strings.TrimSpace(m))
		result.PropertyName = &name
	}

	if m := reAddress.FindStringSubmatch(cleaned); m != nil {
		borough := titleCase(m[1])
		var city string
		switch strings.ToUpper(m[2]) {
		case "NEWYORCITY":
			city = "New York City"
		case "NEWYOR":
			city = "New York"
		default:
			city = titleCase(m[2])
		}
		address := borough + ", " + city
		result.Address = &address
	}

	// The square-feet phrasing always wins over the "312K" shorthand. When
	// the first pattern matches but its digits do not parse, the shorthand
	// is not consulted.
	if m := reSquareFeet.FindStringSubmatch(cleaned); m != nil {
		if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			result.TotalRentableSquareFootage = &n
		}
	} else if m := reThousands.FindStringSubmatch(cleaned); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			n *= 1000
			result.TotalRentableSquareFootage = &n
		}
	}

	return result
}

// titleCase renders each whitespace-separated word with a leading capital and
// the remainder lowered, joined by single spaces.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
