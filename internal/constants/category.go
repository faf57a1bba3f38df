package constants

import "strings"

// Default expense taxonomy used when a user has no custom categories.
const (
	Groceries     = "Groceries"
	Dining        = "Dining"
	Transport     = "Transport"
	Entertainment = "Entertainment"
	Health        = "Health"
	Utilities     = "Utilities"
	Shopping      = "Shopping"
	Travel        = "Travel"
	Household     = "Household"
	Other         = "Other"
)

var defaultCategories = []string{
	Groceries,
	Dining,
	Transport,
	Entertainment,
	Health,
	Utilities,
	Shopping,
	Travel,
	Household,
	Other,
}

// DefaultCategories returns a copy of the default taxonomy.
func DefaultCategories() []string {
	out := make([]string, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}

// synonyms maps common model/merchant phrasings onto the taxonomy.
var synonyms = map[string]string{
	"food":          Groceries,
	"grocery":       Groceries,
	"supermarket":   Groceries,
	"restaurant":    Dining,
	"cafe":          Dining,
	"coffee":        Dining,
	"takeout":       Dining,
	"fast food":     Dining,
	"fuel":          Transport,
	"gas":           Transport,
	"parking":       Transport,
	"taxi":          Transport,
	"uber":          Transport,
	"lyft":          Transport,
	"movies":        Entertainment,
	"streaming":     Entertainment,
	"pharmacy":      Health,
	"medical":       Health,
	"electricity":   Utilities,
	"internet":      Utilities,
	"phone":         Utilities,
	"clothing":      Shopping,
	"electronics":   Shopping,
	"hotel":         Travel,
	"airline":       Travel,
	"flight":        Travel,
	"cleaning":      Household,
	"home supplies": Household,
}

// Canonicalize maps free-form category text into the given taxonomy. When the
// taxonomy is nil the default one applies. Unknown input maps to Other with
// ok=false.
func Canonicalize(input string, taxonomy []string) (string, bool) {
	if taxonomy == nil {
		taxonomy = defaultCategories
	}
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Other, false
	}

	for _, cat := range taxonomy {
		if normalized == strings.ToLower(cat) {
			return cat, true
		}
	}

	if cat, ok := synonyms[normalized]; ok {
		for _, t := range taxonomy {
			if t == cat {
				return cat, true
			}
		}
	}

	return Other, false
}
