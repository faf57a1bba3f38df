package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"budget-buddy-backend/internal/constants"
	"budget-buddy-backend/internal/models"
)

// stripFences removes a markdown code fence around the model output. Models
// return fenced JSON often enough that the response format alone cannot be
// trusted.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && strings.EqualFold(strings.TrimSpace(s[:idx]), "json") {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeReceipt turns raw model output into a sanitized Receipt: fences
// stripped, categories mapped onto the allowed taxonomy, line totals
// recomputed, and the result checked against the receipt schema.
func decodeReceipt(raw string, allowedCategories []string) (*models.Receipt, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("model returned an empty response")
	}

	var receipt models.Receipt
	if err := json.Unmarshal([]byte(cleaned), &receipt); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	for i := range receipt.LineItems {
		canonical, ok := constants.Canonicalize(receipt.LineItems[i].Category, allowedCategories)
		if !ok {
			canonical = constants.Other
		}
		receipt.LineItems[i].Category = canonical
	}
	receipt.Normalize()

	sanitized, err := json.Marshal(&receipt)
	if err != nil {
		return nil, fmt.Errorf("re-encode receipt: %w", err)
	}
	if err := ValidateAgainstSchema(BuildReceiptSchema(allowedCategories), sanitized); err != nil {
		return nil, err
	}
	return &receipt, nil
}
