package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildReceiptSchema returns the JSON Schema the model output must satisfy.
// The category enum is parameterized so user-defined categories are accepted.
func BuildReceiptSchema(allowedCategories []string) map[string]any {
	categories := make([]any, 0, len(allowedCategories))
	for _, c := range allowedCategories {
		categories = append(categories, c)
	}

	return map[string]any{
		"type":     "object",
		"required": []any{"merchant_details", "purchase_date", "line_items", "total_amounts"},
		"properties": map[string]any{
			"merchant_details": map[string]any{
				"type":     "object",
				"required": []any{"name"},
				"properties": map[string]any{
					"name":    map[string]any{"type": "string", "minLength": 1},
					"address": map[string]any{"type": "string"},
				},
			},
			"purchase_date": map[string]any{
				"type":    "string",
				"pattern": `^\d{2}-\d{2}-\d{4}$`,
			},
			"line_items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"item_name", "unit_price", "quantity", "price"},
					"properties": map[string]any{
						"item_name":  map[string]any{"type": "string"},
						"unit_price": map[string]any{"type": "number", "minimum": 0},
						"quantity":   map[string]any{"type": "number", "minimum": 0},
						"price":      map[string]any{"type": "number", "minimum": 0},
						"category":   map[string]any{"type": "string", "enum": categories},
					},
				},
			},
			"total_amounts": map[string]any{
				"type":     "object",
				"required": []any{"total"},
				"properties": map[string]any{
					"total":          map[string]any{"type": "number", "minimum": 0},
					"tax":            map[string]any{"type": "number", "minimum": 0},
					"payment_method": map[string]any{"type": "string"},
				},
			},
		},
	}
}

// ValidateAgainstSchema checks raw JSON against a schema map.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
