package dedupe

import (
	"math"
	"strings"

	"budget-buddy-backend/internal/models"
)

// Config holds the tunable tolerances of the duplicate check.
type Config struct {
	// DateToleranceDays is the window within which two purchase dates count
	// as the same occasion.
	DateToleranceDays int
	// AmountTolerance absorbs rounding noise between grand totals.
	AmountTolerance float64
	// MerchantThreshold is the minimum merchant similarity (0-100) that
	// counts as a merchant match.
	MerchantThreshold float64
}

// DefaultConfig mirrors the behavior the app shipped with.
func DefaultConfig() Config {
	return Config{
		DateToleranceDays: 1,
		AmountTolerance:   0.01,
		MerchantThreshold: 85,
	}
}

// Match is a stored receipt flagged as a probable duplicate of a candidate.
type Match struct {
	Record        models.StoredReceipt `json:"record"`
	Signals       []string             `json:"signals"`
	MerchantScore float64              `json:"merchant_score"`
}

// Detector compares candidates against previously stored receipts. It never
// mutates anything; FindDuplicates is a pure function of its arguments.
type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) *Detector {
	if cfg.DateToleranceDays < 0 {
		cfg.DateToleranceDays = 0
	}
	if cfg.AmountTolerance <= 0 {
		cfg.AmountTolerance = 0.01
	}
	if cfg.MerchantThreshold <= 0 {
		cfg.MerchantThreshold = 85
	}
	return &Detector{cfg: cfg}
}

// FindDuplicates reports every existing receipt that agrees with the
// candidate on at least two of the three signals: purchase date, merchant
// name, grand total. Requiring corroboration from more than one dimension
// keeps repeat visits to the same grocery chain from being flagged.
func (d *Detector) FindDuplicates(candidate models.Receipt, existing []models.StoredReceipt) []Match {
	if len(existing) == 0 {
		return nil
	}

	candDate, dateErr := models.ParseReceiptDate(candidate.PurchaseDate)
	candMerchant := normalizeMerchant(candidate.MerchantDetails.Name)
	candTotal := candidate.TotalAmounts.Total

	var matches []Match
	for _, rec := range existing {
		var signals []string

		if dateErr == nil {
			if recDate, err := models.ParseReceiptDate(rec.Date); err == nil {
				days := math.Abs(candDate.Sub(recDate).Hours() / 24)
				if days <= float64(d.cfg.DateToleranceDays) {
					signals = append(signals, "date")
				}
			}
		}

		score := merchantSimilarity(candMerchant, normalizeMerchant(rec.Merchant))
		if score >= d.cfg.MerchantThreshold {
			signals = append(signals, "merchant")
		}

		if math.Abs(candTotal-rec.GrandTotal) <= d.cfg.AmountTolerance {
			signals = append(signals, "amount")
		}

		if len(signals) >= 2 {
			matches = append(matches, Match{Record: rec, Signals: signals, MerchantScore: score})
		}
	}
	return matches
}

// normalizeMerchant lowercases and strips punctuation so "Whole Foods" and
// "WHOLE-FOODS." compare equal token-wise.
func normalizeMerchant(name string) string {
	n := strings.ToLower(name)
	n = strings.ReplaceAll(n, ".", "")
	n = strings.ReplaceAll(n, ",", "")
	n = strings.ReplaceAll(n, "-", " ")
	return strings.Join(strings.Fields(n), " ")
}

// merchantSimilarity scores two normalized names 0-100 by matching each token
// of the shorter name against its closest token in the other, levenshtein
// distance as the metric.
func merchantSimilarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}

	aTokens := strings.Fields(a)
	bTokens := strings.Fields(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}
	// Score against the shorter name so extra legal suffixes ("inc", store
	// numbers) on one side don't drag the score down.
	if len(bTokens) < len(aTokens) {
		aTokens, bTokens = bTokens, aTokens
	}

	total := 0.0
	for _, at := range aTokens {
		best := 0.0
		for _, bt := range bTokens {
			dist := levenshtein(at, bt)
			maxLen := math.Max(float64(len(at)), float64(len(bt)))
			if maxLen == 0 {
				continue
			}
			sim := 1 - float64(dist)/maxLen
			if sim > best {
				best = sim
			}
		}
		total += best
	}
	return (total / float64(len(aTokens))) * 100
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		dp[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		dp[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			dp[i][j] = min3(
				dp[i-1][j]+1,
				dp[i][j-1]+1,
				dp[i-1][j-1]+cost,
			)
		}
	}
	return dp[len(a)][len(b)]
}

func min3(a, b, c int) int {
	if a < b && a < c {
		return a
	}
	if b < c {
		return b
	}
	return c
}
