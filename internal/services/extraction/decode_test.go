package extraction

import (
	"strings"
	"testing"

	"budget-buddy-backend/internal/constants"
	"budget-buddy-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validOutput = `{
	"merchant_details": {"name": "Whole Foods", "address": "1 Main St"},
	"purchase_date": "15-01-2026",
	"line_items": [
		{"item_name": "Milk", "unit_price": 2.5, "quantity": 2, "price": 5.0, "category": "Groceries"}
	],
	"total_amounts": {"total": 5.5, "tax": 0.5, "payment_method": "card"}
}`

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json untouched", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestDecodeReceipt(t *testing.T) {
	receipt, err := decodeReceipt(validOutput, constants.DefaultCategories())
	require.NoError(t, err)
	assert.Equal(t, "Whole Foods", receipt.MerchantDetails.Name)
	assert.Equal(t, "15-01-2026", receipt.PurchaseDate)
	require.Len(t, receipt.LineItems, 1)
	assert.Equal(t, "Groceries", receipt.LineItems[0].Category)
	assert.InDelta(t, 5.5, receipt.TotalAmounts.Total, 0.001)
}

func TestDecodeReceiptFenced(t *testing.T) {
	receipt, err := decodeReceipt("```json\n"+validOutput+"\n```", constants.DefaultCategories())
	require.NoError(t, err)
	assert.Equal(t, "Whole Foods", receipt.MerchantDetails.Name)
}

func TestDecodeReceiptCanonicalizesCategories(t *testing.T) {
	out := strings.Replace(validOutput, `"category": "Groceries"`, `"category": "supermarket"`, 1)
	receipt, err := decodeReceipt(out, constants.DefaultCategories())
	require.NoError(t, err)
	assert.Equal(t, "Groceries", receipt.LineItems[0].Category, "synonyms map onto the taxonomy")

	out = strings.Replace(validOutput, `"category": "Groceries"`, `"category": "weird stuff"`, 1)
	receipt, err = decodeReceipt(out, constants.DefaultCategories())
	require.NoError(t, err)
	assert.Equal(t, "Other", receipt.LineItems[0].Category, "unknown categories fall back to Other")
}

func TestDecodeReceiptRecomputesLineTotals(t *testing.T) {
	out := strings.Replace(validOutput, `"price": 5.0`, `"price": 99.0`, 1)
	receipt, err := decodeReceipt(out, constants.DefaultCategories())
	require.NoError(t, err)
	assert.InDelta(t, 5, receipt.LineItems[0].Price, 0.001, "price is quantity times unit price")
}

func TestDecodeReceiptRejectsBadOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "sorry, I cannot read this receipt"},
		{"missing merchant name", strings.Replace(validOutput, `"name": "Whole Foods"`, `"name": ""`, 1)},
		{"bad date format", strings.Replace(validOutput, `"15-01-2026"`, `"January 15th"`, 1)},
		{"negative total", strings.Replace(validOutput, `"total": 5.5`, `"total": -5.5`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeReceipt(tt.raw, constants.DefaultCategories())
			assert.Error(t, err)
		})
	}
}

func TestBuildReceiptSchemaAllowsCustomCategories(t *testing.T) {
	categories := append(constants.DefaultCategories(), "Pets")
	out := strings.Replace(validOutput, `"category": "Groceries"`, `"category": "Pets"`, 1)
	receipt, err := decodeReceipt(out, categories)
	require.NoError(t, err)
	assert.Equal(t, "Pets", receipt.LineItems[0].Category)
}

func TestBuildUserTextIncludesFeedback(t *testing.T) {
	prev := &models.Receipt{
		MerchantDetails: models.MerchantDetails{Name: "Whole Foods"},
		PurchaseDate:    "15-01-2026",
		TotalAmounts:    models.TotalAmounts{Total: 5.5},
	}
	text := buildUserText([]string{"milk 2x 2.50"}, models.ExtractOptions{
		AllowedCategories: constants.DefaultCategories(),
		UserFeedback:      "the total is 6.50",
		Previous:          prev,
	})
	assert.Contains(t, text, "Groceries")
	assert.Contains(t, text, "milk 2x 2.50")
	assert.Contains(t, text, "the total is 6.50")
	assert.Contains(t, text, "Whole Foods")
}
