package domain

import (
	"time"

	"climas_backend/internal/changes"
	"climas_backend/internal/pricing"
	"climas_backend/internal/quotes"
	"climas_backend/platform/apperr"

	"github.com/google/uuid"
)

// CreateQuotation opens a new draft, optionally seeded from an earlier version.
func (o *Opportunity) CreateQuotation(from *int, now time.Time) (quotes.Quotation, error) {
	if err := o.require(PanelQuotation); err != nil {
		return quotes.Quotation{}, err
	}
	q, err := o.Quotations.CreateDraft(o.ID, from, now)
	if err != nil {
		return quotes.Quotation{}, err
	}
	o.touch(now)
	return q, nil
}

// EditQuotation applies a draft edit.
func (o *Opportunity) EditQuotation(version int, edit quotes.DraftEdit, now time.Time) (quotes.Quotation, error) {
	if err := o.require(PanelQuotation); err != nil {
		return quotes.Quotation{}, err
	}
	q, err := o.Quotations.Edit(version, edit)
	if err != nil {
		return quotes.Quotation{}, err
	}
	o.touch(now)
	return q, nil
}

// ImportMaterials appends externally sourced lines to a draft.
func (o *Opportunity) ImportMaterials(version int, lines []pricing.Material, now time.Time) (quotes.Quotation, error) {
	if err := o.require(PanelQuotation); err != nil {
		return quotes.Quotation{}, err
	}
	q, err := o.Quotations.AddMaterials(version, lines...)
	if err != nil {
		return quotes.Quotation{}, err
	}
	o.touch(now)
	return q, nil
}

// RemoveQuotationMaterial drops one line from a draft.
func (o *Opportunity) RemoveQuotationMaterial(version, index int, now time.Time) (quotes.Quotation, error) {
	if err := o.require(PanelQuotation); err != nil {
		return quotes.Quotation{}, err
	}
	q, err := o.Quotations.RemoveMaterial(version, index)
	if err != nil {
		return quotes.Quotation{}, err
	}
	o.touch(now)
	return q, nil
}

// RecomputeQuotation re-prices a draft.
func (o *Opportunity) RecomputeQuotation(version int, now time.Time) (pricing.Breakdown, error) {
	if err := o.require(PanelQuotation); err != nil {
		return pricing.Breakdown{}, err
	}
	b, err := o.Quotations.Recompute(version)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	o.touch(now)
	return b, nil
}

// SubmitQuotation moves a draft to pending validation.
func (o *Opportunity) SubmitQuotation(version int, now time.Time) (quotes.Quotation, error) {
	if err := o.require(PanelQuotation); err != nil {
		return quotes.Quotation{}, err
	}
	q, err := o.Quotations.SubmitForValidation(version, now)
	if err != nil {
		return quotes.Quotation{}, err
	}
	o.touch(now)
	return q, nil
}

// SendQuotation records that delivery was requested.
func (o *Opportunity) SendQuotation(version int, channel quotes.DeliveryChannel, message string, now time.Time) (quotes.Quotation, error) {
	if err := o.require(PanelQuotation); err != nil {
		return quotes.Quotation{}, err
	}
	q, err := o.Quotations.MarkSent(version, channel, message, now)
	if err != nil {
		return quotes.Quotation{}, err
	}
	o.touch(now)
	return q, nil
}

// ApproveQuotation records client approval of a sent version.
func (o *Opportunity) ApproveQuotation(version int, now time.Time) (quotes.Quotation, error) {
	if err := o.require(PanelQuotation); err != nil {
		return quotes.Quotation{}, err
	}
	q, err := o.Quotations.MarkApproved(version, now)
	if err != nil {
		return quotes.Quotation{}, err
	}
	o.touch(now)
	return q, nil
}

// ReviseQuotation supersedes the given version with a new draft copying it.
func (o *Opportunity) ReviseQuotation(version int, now time.Time) (quotes.Quotation, error) {
	if err := o.require(PanelQuotation); err != nil {
		return quotes.Quotation{}, err
	}
	q, err := o.Quotations.Supersede(version, now)
	if err != nil {
		return quotes.Quotation{}, err
	}
	o.touch(now)
	return q, nil
}

// RequestChange records a change request.
func (o *Opportunity) RequestChange(in changes.Input, now time.Time) (changes.ChangeRequest, error) {
	if err := o.require(PanelChangeManagement); err != nil {
		return changes.ChangeRequest{}, err
	}
	cr, err := o.Changes.Record(o.ID, in, now)
	if err != nil {
		return changes.ChangeRequest{}, err
	}
	o.touch(now)
	return cr, nil
}

// ChangeApproval is the result of approving a change request. Revision is the
// draft opened for re-pricing, nil when the request has no commercial impact.
type ChangeApproval struct {
	Request  changes.ChangeRequest
	Revision *quotes.Quotation
}

// ApproveChange decides a pending request. A request with commercial impact
// supersedes the current quotation into a new draft; without a current
// quotation such a request cannot be approved.
func (o *Opportunity) ApproveChange(id uuid.UUID, note string, now time.Time) (ChangeApproval, error) {
	if err := o.require(PanelChangeManagement); err != nil {
		return ChangeApproval{}, err
	}
	cr, err := o.Changes.CheckPending(id)
	if err != nil {
		return ChangeApproval{}, err
	}

	if !cr.CommercialImpact {
		decided, err := o.Changes.Approve(id, note, nil, now)
		if err != nil {
			return ChangeApproval{}, err
		}
		o.touch(now)
		return ChangeApproval{Request: decided}, nil
	}

	cur, ok := o.Quotations.Current()
	if !ok {
		return ChangeApproval{}, apperr.InvalidTransition("change with commercial impact requires a quotation").
			WithField("quotation", "none")
	}
	draft, err := o.Quotations.Supersede(cur.Version, now)
	if err != nil {
		return ChangeApproval{}, err
	}
	decided, err := o.Changes.Approve(id, note, &draft.Version, now)
	if err != nil {
		return ChangeApproval{}, err
	}
	o.touch(now)
	return ChangeApproval{Request: decided, Revision: &draft}, nil
}

// RejectChange decides a pending request negatively.
func (o *Opportunity) RejectChange(id uuid.UUID, note string, now time.Time) (changes.ChangeRequest, error) {
	if err := o.require(PanelChangeManagement); err != nil {
		return changes.ChangeRequest{}, err
	}
	cr, err := o.Changes.Reject(id, note, now)
	if err != nil {
		return changes.ChangeRequest{}, err
	}
	o.touch(now)
	return cr, nil
}

// ChangeImpact projects a request's cost delta onto the current quotation.
func (o *Opportunity) ChangeImpact(id uuid.UUID) (changes.Impact, error) {
	cr, err := o.Changes.Get(id)
	if err != nil {
		return changes.Impact{}, err
	}
	var base pricing.Breakdown
	if cur, ok := o.Quotations.Current(); ok {
		base = cur.Breakdown
	}
	return changes.ProjectImpact(base, cr.CostDeltaCents), nil
}
