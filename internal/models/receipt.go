package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MerchantDetails identifies the store a receipt came from.
type MerchantDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// LineItem is a single purchased item on a receipt.
type LineItem struct {
	ItemName  string  `json:"item_name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Category  string  `json:"category"`
}

// TotalAmounts carries receipt-level totals and payment info.
type TotalAmounts struct {
	Total         float64 `json:"total"`
	Tax           float64 `json:"tax,omitempty"`
	PaymentMethod string  `json:"payment_method"`
}

// Receipt is the structured extraction result and the unit persisted to the
// row store.
type Receipt struct {
	MerchantDetails MerchantDetails `json:"merchant_details"`
	PurchaseDate    string          `json:"purchase_date"`
	LineItems       []LineItem      `json:"line_items"`
	TotalAmounts    TotalAmounts    `json:"total_amounts"`
}

// Normalize recomputes each line total from quantity and unit price and trims
// merchant fields. Called on every edited receipt before dedupe and save.
func (r *Receipt) Normalize() {
	r.MerchantDetails.Name = strings.TrimSpace(r.MerchantDetails.Name)
	r.MerchantDetails.Address = strings.TrimSpace(r.MerchantDetails.Address)
	for i := range r.LineItems {
		r.LineItems[i].ItemName = strings.TrimSpace(r.LineItems[i].ItemName)
		r.LineItems[i].Price = round2(r.LineItems[i].Quantity * r.LineItems[i].UnitPrice)
	}
}

// Validate checks the fields required before a receipt may be saved.
func (r *Receipt) Validate() error {
	if strings.TrimSpace(r.MerchantDetails.Name) == "" {
		return fmt.Errorf("merchant name is required")
	}
	if r.TotalAmounts.Total < 0 {
		return fmt.Errorf("total amount must be non-negative")
	}
	if _, err := ParseReceiptDate(r.PurchaseDate); err != nil {
		return fmt.Errorf("invalid purchase date %q: %w", r.PurchaseDate, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// receiptDateLayouts in priority order. The sheet stores DD-MM-YYYY; edited
// payloads sometimes arrive as ISO dates.
var receiptDateLayouts = []string{"02-01-2006", "2006-01-02", "02/01/2006"}

// ParseReceiptDate parses the date formats accepted across the app.
func ParseReceiptDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range receiptDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// StoredReceipt is a receipt reconstructed from row-store rows, used for
// duplicate checks and history views.
type StoredReceipt struct {
	Date       string       `json:"date"`
	Merchant   string       `json:"merchant"`
	Address    string       `json:"address,omitempty"`
	GrandTotal float64      `json:"grand_total"`
	Tax        string       `json:"tax,omitempty"`
	Payment    string       `json:"payment,omitempty"`
	Items      []StoredItem `json:"items"`
}

// StoredItem is one line of a StoredReceipt.
type StoredItem struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Qty       string  `json:"qty"`
	UnitPrice string  `json:"unit_price"`
	Total     float64 `json:"total"`
}

// ItemRow is the per-line-item view the analytics run over.
type ItemRow struct {
	Date     time.Time
	Category string
	Amount   float64
}

// ExtractOptions tunes a single extraction call.
type ExtractOptions struct {
	AllowedCategories []string
	UserFeedback      string
	Previous          *Receipt
}

// ReceiptConfirmRequest is the payload of the confirm endpoint.
type ReceiptConfirmRequest struct {
	Receipt      Receipt `json:"receipt"`
	UserFeedback string  `json:"user_feedback,omitempty"`
}

// ReceiptReprocessRequest asks for a re-extraction with user feedback.
type ReceiptReprocessRequest struct {
	UserFeedback    string   `json:"user_feedback"`
	OriginalReceipt *Receipt `json:"original_receipt,omitempty"`
}
