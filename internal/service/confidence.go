package service

import "billsnap/internal/models"

// Confidence tiers derived from the completeness score.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// CalculateConfidence scores how complete an extraction looks, on a 0-100
// scale:
//
//	+20 store name present
//	+20 total present
//	+40 at least one named item, or fuel info with a type or quantity
//	+10 raw OCR text longer than 30 characters
//	+10 date present
//
// Tiers: >=70 high, >=40 medium, otherwise low.
func CalculateConfidence(extracted *models.ExtractedReceipt, rawText string) (float64, string) {
	score := 0.0

	if extracted.StoreName != nil && *extracted.StoreName != "" {
		score += 20
	}

	if extracted.Total != nil && *extracted.Total != 0 {
		score += 20
	}

	hasItems := false
	for _, item := range extracted.Items {
		if item.Name != nil && *item.Name != "" {
			hasItems = true
			break
		}
	}
	hasFuel := extracted.FuelInfo != nil &&
		((extracted.FuelInfo.FuelType != nil && *extracted.FuelInfo.FuelType != "") ||
			(extracted.FuelInfo.QuantityLiters != nil && *extracted.FuelInfo.QuantityLiters != 0))
	if hasItems || hasFuel {
		score += 40
	}

	if len(rawText) > 30 {
		score += 10
	}

	if extracted.Date != nil && *extracted.Date != "" {
		score += 10
	}

	switch {
	case score >= 70:
		return score, TierHigh
	case score >= 40:
		return score, TierMedium
	default:
		return score, TierLow
	}
}
