package triage

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// Structural validation thresholds.
const (
	minDescriptionLen    = 20
	minDistinctTokens    = 3
	minMeaningfulTokenSz = 3
)

// Validate checks that a ticket carries enough structure to be worth
// processing. Pure function: no side effects, identical input yields
// identical output.
func Validate(t *model.Ticket) model.ValidationResult {
	var reasons []string

	if strings.TrimSpace(t.Subject) == "" {
		reasons = append(reasons, "sujet vide")
	}

	desc := strings.TrimSpace(t.Description)
	if len(desc) < minDescriptionLen {
		reasons = append(reasons, fmt.Sprintf("description trop courte (%d caractères, minimum %d)", len(desc), minDescriptionLen))
	}

	if n := countMeaningfulTokens(desc); n < minDistinctTokens {
		reasons = append(reasons, fmt.Sprintf("description trop pauvre (%d mots significatifs, minimum %d)", n, minDistinctTokens))
	}

	return model.ValidationResult{
		Valid:   len(reasons) == 0,
		Reasons: reasons,
	}
}

// countMeaningfulTokens counts distinct alphabetic tokens longer than two
// characters.
func countMeaningfulTokens(text string) int {
	seen := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if len([]rune(field)) >= minMeaningfulTokenSz {
			seen[field] = struct{}{}
		}
	}
	return len(seen)
}
