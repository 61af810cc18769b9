package columns

import (
	"slices"
	"strings"
)

// Tier is the advisory likelihood that a column holds image URLs
type Tier int

const (
	TierHigh Tier = iota
	TierMedium
	TierLow
)

var (
	highConfidenceKeywords   = []string{"image", "photo", "picture", "img", "thumbnail", "avatar", "logo"}
	mediumConfidenceKeywords = []string{"url", "link", "src", "asset", "media"}
)

// String returns the tier name ("high", "medium", "low")
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// Badge returns the short label shown next to a suggested column
func (t Tier) Badge() string {
	switch t {
	case TierHigh:
		return "Recommended"
	case TierMedium:
		return "Suggested"
	default:
		return ""
	}
}

// Hint describes what the tier means for the column's content
func (t Tier) Hint() string {
	switch t {
	case TierHigh:
		return "Likely contains image URLs"
	case TierMedium:
		return "May contain image URLs"
	default:
		return "Column data"
	}
}

// MarshalText lets tiers render as their names in JSON and YAML
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Classify scores a column name by case-insensitive keyword match.
// Only the literal name is inspected, never cell values.
func Classify(column string) Tier {
	name := strings.ToLower(column)

	if containsAny(name, highConfidenceKeywords) {
		return TierHigh
	}
	if containsAny(name, mediumConfidenceKeywords) {
		return TierMedium
	}
	return TierLow
}

// Keywords returns the name fragments that place a column in tier t.
// Low has none.
func Keywords(t Tier) []string {
	switch t {
	case TierHigh:
		return slices.Clone(highConfidenceKeywords)
	case TierMedium:
		return slices.Clone(mediumConfidenceKeywords)
	default:
		return nil
	}
}

func containsAny(name string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

// RankForDisplay returns a copy of columns ordered high, medium, low.
// Columns of equal tier keep their input order.
func RankForDisplay(columns []string) []string {
	ranked := slices.Clone(columns)
	slices.SortStableFunc(ranked, func(a, b string) int {
		return int(Classify(a)) - int(Classify(b))
	})
	return ranked
}

// Suggested returns the high and medium tier columns in ranked order
func Suggested(columns []string) []string {
	var suggested []string
	for _, column := range RankForDisplay(columns) {
		if Classify(column) != TierLow {
			suggested = append(suggested, column)
		}
	}
	return suggested
}
