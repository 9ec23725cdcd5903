package quotes

import (
	"fmt"
	"strings"
	"time"

	"climas_backend/internal/pricing"
	"climas_backend/platform/apperr"

	"github.com/google/uuid"
)

// History is the append-only list of quotation versions of one opportunity.
// Versions are numbered from 1 without gaps; at most one is not superseded.
type History struct {
	Versions []Quotation `json:"versions"`
}

// DraftEdit carries optional replacements for a draft's editable content.
type DraftEdit struct {
	Materials   *[]pricing.Material
	Percentages *pricing.Percentages
	Warranty    *WarrantyTerm
}

// Len returns the number of versions ever created.
func (h *History) Len() int {
	return len(h.Versions)
}

// All returns copies of every version in ascending order.
func (h *History) All() []Quotation {
	out := make([]Quotation, len(h.Versions))
	for i, q := range h.Versions {
		out[i] = q.Clone()
	}
	return out
}

// Current returns the single non-superseded version, if any.
func (h *History) Current() (Quotation, bool) {
	if i := h.currentIndex(); i >= 0 {
		return h.Versions[i].Clone(), true
	}
	return Quotation{}, false
}

// Get returns a copy of the given version.
func (h *History) Get(version int) (Quotation, error) {
	i, err := h.index(version)
	if err != nil {
		return Quotation{}, err
	}
	return h.Versions[i].Clone(), nil
}

// CreateDraft opens the next version as a draft. An existing current version
// is superseded first. With from set, the draft starts from that version's
// baseline; otherwise it starts empty.
func (h *History) CreateDraft(opportunityID uuid.UUID, from *int, now time.Time) (Quotation, error) {
	baseline := Baseline{Materials: []pricing.Material{}, Warranty: DefaultWarrantyTerm}
	if from != nil {
		i, err := h.index(*from)
		if err != nil {
			return Quotation{}, err
		}
		baseline = h.Versions[i].Baseline()
	}

	if cur := h.currentIndex(); cur >= 0 {
		h.markSuperseded(cur, now)
	}
	return h.appendDraft(opportunityID, baseline, now)
}

// Supersede closes out the current version and opens a new draft copying it.
func (h *History) Supersede(version int, now time.Time) (Quotation, error) {
	i, err := h.index(version)
	if err != nil {
		return Quotation{}, err
	}
	q := h.Versions[i]
	if q.Status == StatusSuperseded {
		return Quotation{}, staleErr(q)
	}

	baseline := q.Baseline()
	h.markSuperseded(i, now)
	return h.appendDraft(q.OpportunityID, baseline, now)
}

// Edit replaces the given parts of a draft and recomputes its breakdown.
// The whole edit is validated before anything is applied.
func (h *History) Edit(version int, edit DraftEdit) (Quotation, error) {
	i, err := h.draftIndex(version)
	if err != nil {
		return Quotation{}, err
	}

	fields := apperr.FieldErrors{}
	if edit.Materials != nil {
		if err := pricing.ValidateMaterials(*edit.Materials); err != nil {
			mergeFields(fields, err)
		}
	}
	if edit.Percentages != nil {
		if err := pricing.ValidatePercentages(*edit.Percentages); err != nil {
			mergeFields(fields, err)
		}
	}
	if edit.Warranty != nil && !edit.Warranty.Valid() {
		fields.Add("warranty", "unknown warranty term")
	}
	if err := fields.Err("invalid quotation edit"); err != nil {
		return Quotation{}, err
	}

	q := &h.Versions[i]
	if edit.Materials != nil {
		q.Materials = cloneMaterials(*edit.Materials)
	}
	if edit.Percentages != nil {
		q.Percentages = *edit.Percentages
	}
	if edit.Warranty != nil {
		q.Warranty = *edit.Warranty
	}
	if err := h.recomputeAt(i); err != nil {
		return Quotation{}, err
	}
	return q.Clone(), nil
}

// AddMaterials appends lines to a draft.
func (h *History) AddMaterials(version int, lines ...pricing.Material) (Quotation, error) {
	i, err := h.draftIndex(version)
	if err != nil {
		return Quotation{}, err
	}
	if err := pricing.ValidateMaterials(lines); err != nil {
		return Quotation{}, err
	}
	merged := append(cloneMaterials(h.Versions[i].Materials), lines...)
	return h.Edit(version, DraftEdit{Materials: &merged})
}

// RemoveMaterial drops the line at index from a draft.
func (h *History) RemoveMaterial(version, index int) (Quotation, error) {
	i, err := h.draftIndex(version)
	if err != nil {
		return Quotation{}, err
	}
	materials := h.Versions[i].Materials
	if index < 0 || index >= len(materials) {
		return Quotation{}, apperr.NotFound("material line not found").
			WithField("index", fmt.Sprintf("no line at %d", index))
	}
	remaining := append(cloneMaterials(materials[:index]), materials[index+1:]...)
	return h.Edit(version, DraftEdit{Materials: &remaining})
}

// Recompute re-runs the cost model over a draft. Calling it repeatedly
// without edits leaves the stored breakdown unchanged.
func (h *History) Recompute(version int) (pricing.Breakdown, error) {
	i, err := h.draftIndex(version)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	if err := h.recomputeAt(i); err != nil {
		return pricing.Breakdown{}, err
	}
	return h.Versions[i].Clone().Breakdown, nil
}

// SubmitForValidation freezes a draft for internal review.
func (h *History) SubmitForValidation(version int, now time.Time) (Quotation, error) {
	i, err := h.draftIndex(version)
	if err != nil {
		return Quotation{}, err
	}
	if len(h.Versions[i].Materials) == 0 {
		return Quotation{}, apperr.Validation("quotation has no materials").
			WithField("materials", "at least one line is required")
	}
	if err := h.recomputeAt(i); err != nil {
		return Quotation{}, err
	}
	q := &h.Versions[i]
	q.Status = StatusPendingValidation
	at := now
	q.SubmittedAt = &at
	return q.Clone(), nil
}

// MarkSent records that delivery of a validated quotation was requested.
func (h *History) MarkSent(version int, channel DeliveryChannel, message string, now time.Time) (Quotation, error) {
	fields := apperr.FieldErrors{}
	if !channel.Valid() {
		fields.Add("channel", "must be email or whatsapp")
	}
	if strings.TrimSpace(message) == "" {
		fields.Add("message", "required")
	}
	if err := fields.Err("invalid delivery request"); err != nil {
		return Quotation{}, err
	}

	i, err := h.advanceIndex(version, StatusPendingValidation, StatusSent)
	if err != nil {
		return Quotation{}, err
	}
	q := &h.Versions[i]
	q.Status = StatusSent
	q.Delivery = &Delivery{Channel: channel, Message: message, RequestedAt: now}
	return q.Clone(), nil
}

// MarkApproved records client acceptance of a sent quotation.
func (h *History) MarkApproved(version int, now time.Time) (Quotation, error) {
	i, err := h.advanceIndex(version, StatusSent, StatusApproved)
	if err != nil {
		return Quotation{}, err
	}
	q := &h.Versions[i]
	q.Status = StatusApproved
	at := now
	q.ApprovedAt = &at
	return q.Clone(), nil
}

func (h *History) appendDraft(opportunityID uuid.UUID, baseline Baseline, now time.Time) (Quotation, error) {
	q := Quotation{
		OpportunityID: opportunityID,
		Version:       len(h.Versions) + 1,
		Status:        StatusDraft,
		Materials:     cloneMaterials(baseline.Materials),
		Percentages:   baseline.Percentages,
		Warranty:      baseline.Warranty,
		CreatedAt:     now,
	}
	if !q.Warranty.Valid() {
		q.Warranty = DefaultWarrantyTerm
	}
	h.Versions = append(h.Versions, q)
	if err := h.recomputeAt(len(h.Versions) - 1); err != nil {
		h.Versions = h.Versions[:len(h.Versions)-1]
		return Quotation{}, err
	}
	return h.Versions[len(h.Versions)-1].Clone(), nil
}

func (h *History) markSuperseded(i int, now time.Time) {
	at := now
	h.Versions[i].Status = StatusSuperseded
	h.Versions[i].SupersededAt = &at
}

func (h *History) recomputeAt(i int) error {
	q := &h.Versions[i]
	b, err := pricing.ComputeBreakdown(q.Materials, q.Percentages)
	if err != nil {
		return err
	}
	q.Breakdown = b
	return nil
}

func (h *History) currentIndex() int {
	for i := len(h.Versions) - 1; i >= 0; i-- {
		if h.Versions[i].Status.IsCurrent() {
			return i
		}
	}
	return -1
}

func (h *History) index(version int) (int, error) {
	if version < 1 || version > len(h.Versions) {
		return -1, apperr.NotFound("quotation version not found").
			WithField("version", fmt.Sprintf("%d does not exist", version))
	}
	return version - 1, nil
}

// draftIndex resolves a version that must still be an editable draft.
func (h *History) draftIndex(version int) (int, error) {
	i, err := h.index(version)
	if err != nil {
		return -1, err
	}
	if h.Versions[i].Status != StatusDraft {
		return -1, staleErr(h.Versions[i])
	}
	return i, nil
}

// advanceIndex resolves a version for a forward-only status change.
func (h *History) advanceIndex(version int, from, to Status) (int, error) {
	i, err := h.index(version)
	if err != nil {
		return -1, err
	}
	q := h.Versions[i]
	if q.Status == StatusSuperseded {
		return -1, staleErr(q)
	}
	if q.Status != from {
		return -1, apperr.InvalidTransition(fmt.Sprintf("quotation v%d cannot move from %s to %s", q.Version, q.Status, to)).
			WithField("status", string(q.Status))
	}
	return i, nil
}

func staleErr(q Quotation) *apperr.Error {
	return apperr.StaleVersion(fmt.Sprintf("quotation v%d is %s and can no longer be modified", q.Version, q.Status)).
		WithField("version", fmt.Sprintf("%d", q.Version))
}

func mergeFields(dst apperr.FieldErrors, err error) {
	if e, ok := err.(*apperr.Error); ok {
		for k, v := range e.Fields {
			dst.Add(k, v)
		}
	}
}
