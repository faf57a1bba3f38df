package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Groceries", Groceries, true},
		{"groceries", Groceries, true},
		{"  DINING  ", Dining, true},
		{"supermarket", Groceries, true},
		{"fast food", Dining, true},
		{"uber", Transport, true},
		{"crypto", Other, false},
		{"", Other, false},
	}
	for _, tt := range tests {
		got, ok := Canonicalize(tt.in, nil)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestCanonicalizeCustomTaxonomy(t *testing.T) {
	taxonomy := []string{"Pets", Other}

	got, ok := Canonicalize("pets", taxonomy)
	assert.True(t, ok)
	assert.Equal(t, "Pets", got)

	// Synonyms only apply when their target is in the taxonomy.
	got, ok = Canonicalize("supermarket", taxonomy)
	assert.False(t, ok)
	assert.Equal(t, Other, got)
}

func TestAdmissibleContentType(t *testing.T) {
	assert.True(t, AdmissibleContentType("image/jpeg"))
	assert.True(t, AdmissibleContentType("IMAGE/PNG"))
	assert.True(t, AdmissibleContentType("application/pdf; charset=binary"))
	assert.False(t, AdmissibleContentType("text/html"))
	assert.False(t, AdmissibleContentType(""))
}
