package changes

import "climas_backend/internal/pricing"

// Impact projects a change request's cost delta onto a priced quotation.
type Impact struct {
	BaseTotalCents         int64   `json:"baseTotalCents"`
	CostDeltaCents         int64   `json:"costDeltaCents"`
	ProjectedTotalCents    int64   `json:"projectedTotalCents"`
	DeltaRatio             float64 `json:"deltaRatio"`
	ProjectedAdvanceCents  int64   `json:"projectedAdvanceCents"`
	ProjectedProgressCents int64   `json:"projectedProgressCents"`
}

// ProjectImpact applies costDelta to the base breakdown's total and re-splits
// the payments. DeltaRatio is zero when the base total is zero.
func ProjectImpact(base pricing.Breakdown, costDeltaCents int64) Impact {
	projected := base.TotalCents + costDeltaCents
	advance, progress := pricing.SplitPayment(projected)

	var ratio float64
	if base.TotalCents != 0 {
		ratio = float64(costDeltaCents) / float64(base.TotalCents)
	}
	return Impact{
		BaseTotalCents:         base.TotalCents,
		CostDeltaCents:         costDeltaCents,
		ProjectedTotalCents:    projected,
		DeltaRatio:             ratio,
		ProjectedAdvanceCents:  advance,
		ProjectedProgressCents: progress,
	}
}
