package extraction

import (
	"encoding/json"
	"strings"

	"budget-buddy-backend/internal/models"
)

const systemPrompt = `You are a receipt extraction assistant. You read receipt
images, PDFs and pasted text and return the purchase data as a single JSON
object with this exact shape:

{
  "merchant_details": {"name": string, "address": string},
  "purchase_date": string,
  "line_items": [
    {"item_name": string, "unit_price": number, "quantity": number,
     "price": number, "category": string}
  ],
  "total_amounts": {"total": number, "tax": number, "payment_method": string}
}

Rules:
- purchase_date must be formatted DD-MM-YYYY.
- price is quantity times unit_price for each line item.
- Assign each line item the best matching category from the allowed list.
- Use "Other" when no category fits.
- Omit nothing you can read; use empty string or 0 for fields you cannot.
- Respond with the JSON object only, no commentary and no markdown.`

// buildUserText assembles the textual part of the user message: allowed
// categories, any pasted receipt text, and reprocess feedback when present.
func buildUserText(texts []string, opts models.ExtractOptions) string {
	var b strings.Builder
	b.WriteString("Extract the receipt data.\n")
	b.WriteString("Allowed categories: ")
	b.WriteString(strings.Join(opts.AllowedCategories, ", "))
	b.WriteString("\n")

	for _, t := range texts {
		b.WriteString("\nReceipt text:\n")
		b.WriteString(t)
		b.WriteString("\n")
	}

	if opts.Previous != nil {
		if prev, err := json.Marshal(opts.Previous); err == nil {
			b.WriteString("\nA previous extraction of the same receipt produced:\n")
			b.Write(prev)
			b.WriteString("\n")
		}
	}
	if fb := strings.TrimSpace(opts.UserFeedback); fb != "" {
		b.WriteString("\nThe user reviewed the previous result and says:\n")
		b.WriteString(fb)
		b.WriteString("\nCorrect the extraction accordingly.\n")
	}
	return b.String()
}
