package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRecomputesLineTotals(t *testing.T) {
	r := Receipt{
		MerchantDetails: MerchantDetails{Name: "  Whole Foods  "},
		LineItems: []LineItem{
			{ItemName: " Milk ", UnitPrice: 2.5, Quantity: 3, Price: 1},
			{ItemName: "Eggs", UnitPrice: 0.333, Quantity: 12, Price: 0},
		},
	}
	r.Normalize()

	assert.Equal(t, "Whole Foods", r.MerchantDetails.Name)
	assert.Equal(t, "Milk", r.LineItems[0].ItemName)
	assert.InDelta(t, 7.5, r.LineItems[0].Price, 0.001)
	assert.InDelta(t, 4.0, r.LineItems[1].Price, 0.001, "line totals round to cents")
}

func TestValidate(t *testing.T) {
	valid := Receipt{
		MerchantDetails: MerchantDetails{Name: "Whole Foods"},
		PurchaseDate:    "15-01-2026",
		TotalAmounts:    TotalAmounts{Total: 10},
	}
	assert.NoError(t, valid.Validate())

	noMerchant := valid
	noMerchant.MerchantDetails.Name = "  "
	assert.Error(t, noMerchant.Validate())

	negativeTotal := valid
	negativeTotal.TotalAmounts.Total = -1
	assert.Error(t, negativeTotal.Validate())

	badDate := valid
	badDate.PurchaseDate = "someday"
	assert.Error(t, badDate.Validate())
}

func TestParseReceiptDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"15-01-2026", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2026-01-15", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15/01/2026", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"  15-01-2026  ", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseReceiptDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(tt.want), "%s parsed to %s", tt.in, got)
	}

	_, err := ParseReceiptDate("01-15-2026") // month 15 does not exist
	assert.Error(t, err)
	_, err = ParseReceiptDate("")
	assert.Error(t, err)
}
