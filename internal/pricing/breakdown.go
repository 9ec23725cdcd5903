// Package pricing turns a material list and a set of allocation percentages
// into a priced breakdown. All amounts are integer minor units (cents).
package pricing

import (
	"fmt"
	"math"

	"climas_backend/platform/apperr"
)

// Source tags where a material line came from.
type Source string

const (
	SourceCatalog      Source = "catalog"
	SourcePlanAnalysis Source = "plan_analysis"
	SourceManual       Source = "manual"
)

// Valid reports whether s is a known source tag.
func (s Source) Valid() bool {
	switch s {
	case SourceCatalog, SourcePlanAnalysis, SourceManual:
		return true
	}
	return false
}

// Material is a single priced line feeding the cost model.
type Material struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Source         Source `json:"source"`
}

// Percentages are the four allocation categories. Each is bounded to [0,100]
// independently; there is no constraint on their sum.
type Percentages struct {
	Installation float64 `json:"installation"`
	Parts        float64 `json:"parts"`
	Travel       float64 `json:"travel"`
	Personnel    float64 `json:"personnel"`
}

// Upper bounds on priced input. With these the line products and the total
// stay far below the int64 range and allocations keep cent precision in float64.
const (
	MaxQuantity       int64 = 1_000_000
	MaxUnitPriceCents int64 = 1_000_000_000_000
	MaxSubtotalCents  int64 = 1_000_000_000_000_000
)

// Fixed payment split of a quotation total.
const (
	AdvanceShare  = 0.30
	ProgressShare = 0.70
)

// LineTotal is the extended amount of one material line.
type LineTotal struct {
	Description string `json:"description"`
	TotalCents  int64  `json:"totalCents"`
}

// Breakdown is the priced result of ComputeBreakdown.
type Breakdown struct {
	Lines             []LineTotal `json:"lines"`
	SubtotalCents     int64       `json:"subtotalCents"`
	InstallationCents int64       `json:"installationCents"`
	PartsCents        int64       `json:"partsCents"`
	TravelCents       int64       `json:"travelCents"`
	PersonnelCents    int64       `json:"personnelCents"`
	TotalCents        int64       `json:"totalCents"`
	AdvanceCents      int64       `json:"advanceCents"`
	ProgressCents     int64       `json:"progressCents"`
}

// AllocatedCents is the sum of the four allocation costs.
func (b Breakdown) AllocatedCents() int64 {
	return b.InstallationCents + b.PartsCents + b.TravelCents + b.PersonnelCents
}

// roundCents rounds a float amount of cents to the nearest cent (half away from zero).
func roundCents(v float64) int64 {
	return int64(math.Round(v))
}

func allocate(percentage float64, subtotalCents int64) int64 {
	return roundCents(percentage / 100.0 * float64(subtotalCents))
}

// SplitPayment divides a total into the fixed advance and progress payments.
// Progress absorbs the rounding remainder so the two always add up to total.
func SplitPayment(totalCents int64) (advanceCents, progressCents int64) {
	advanceCents = roundCents(AdvanceShare * float64(totalCents))
	return advanceCents, totalCents - advanceCents
}

// ValidateMaterials checks every line and reports all offending fields.
func ValidateMaterials(materials []Material) error {
	fields := apperr.FieldErrors{}
	collectMaterialErrors(fields, materials)
	return fields.Err("invalid materials")
}

// ValidatePercentages checks that each allocation is within [0,100].
func ValidatePercentages(p Percentages) error {
	fields := apperr.FieldErrors{}
	collectPercentageErrors(fields, p)
	return fields.Err("invalid percentages")
}

func collectMaterialErrors(fields apperr.FieldErrors, materials []Material) {
	var subtotal int64
	linesValid := true
	for i, m := range materials {
		switch {
		case m.Quantity < 1:
			fields.Add(fmt.Sprintf("materials[%d].quantity", i), "must be at least 1")
			linesValid = false
		case m.Quantity > MaxQuantity:
			fields.Add(fmt.Sprintf("materials[%d].quantity", i), fmt.Sprintf("must be at most %d", MaxQuantity))
			linesValid = false
		}
		switch {
		case m.UnitPriceCents < 0:
			fields.Add(fmt.Sprintf("materials[%d].unitPriceCents", i), "must not be negative")
			linesValid = false
		case m.UnitPriceCents > MaxUnitPriceCents:
			fields.Add(fmt.Sprintf("materials[%d].unitPriceCents", i), fmt.Sprintf("must be at most %d", MaxUnitPriceCents))
			linesValid = false
		}
		if m.Source != "" && !m.Source.Valid() {
			fields.Add(fmt.Sprintf("materials[%d].source", i), "unknown source")
		}
		if linesValid {
			// Bounded operands: the product is at most 1e18 and cannot wrap.
			line := m.Quantity * m.UnitPriceCents
			if line > MaxSubtotalCents-subtotal {
				fields.Add("materials", fmt.Sprintf("subtotal must be at most %d cents", MaxSubtotalCents))
				linesValid = false
				continue
			}
			subtotal += line
		}
	}
}

func collectPercentageErrors(fields apperr.FieldErrors, p Percentages) {
	check := func(name string, v float64) {
		if math.IsNaN(v) || v < 0 || v > 100 {
			fields.Add("percentages."+name, "must be between 0 and 100")
		}
	}
	check("installation", p.Installation)
	check("parts", p.Parts)
	check("travel", p.Travel)
	check("personnel", p.Personnel)
}

// ComputeBreakdown prices materials and applies the allocation percentages.
// Inputs are rejected, never clamped. The function is pure: identical inputs
// always produce identical outputs.
func ComputeBreakdown(materials []Material, percentages Percentages) (Breakdown, error) {
	fields := apperr.FieldErrors{}
	collectMaterialErrors(fields, materials)
	collectPercentageErrors(fields, percentages)
	if err := fields.Err("invalid pricing input"); err != nil {
		return Breakdown{}, err
	}

	lines := make([]LineTotal, 0, len(materials))
	var subtotal int64
	for _, m := range materials {
		lineTotal := m.Quantity * m.UnitPriceCents
		subtotal += lineTotal
		lines = append(lines, LineTotal{Description: m.Description, TotalCents: lineTotal})
	}

	b := Breakdown{
		Lines:             lines,
		SubtotalCents:     subtotal,
		InstallationCents: allocate(percentages.Installation, subtotal),
		PartsCents:        allocate(percentages.Parts, subtotal),
		TravelCents:       allocate(percentages.Travel, subtotal),
		PersonnelCents:    allocate(percentages.Personnel, subtotal),
	}
	b.TotalCents = b.SubtotalCents + b.AllocatedCents()
	b.AdvanceCents, b.ProgressCents = SplitPayment(b.TotalCents)
	return b, nil
}
