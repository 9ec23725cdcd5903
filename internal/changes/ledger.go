package changes

import (
	"fmt"
	"strings"
	"time"

	"climas_backend/platform/apperr"

	"github.com/google/uuid"
)

// Ledger is the ordered list of change requests of one opportunity. It does
// not depend on the pipeline stage: transitions never reset its entries.
type Ledger struct {
	Requests []ChangeRequest `json:"requests"`
}

// Validate checks a new change request input and reports every offending field.
func Validate(in Input) error {
	fields := apperr.FieldErrors{}
	if !in.Type.Valid() {
		fields.Add("type", "must be scope, time, cost or technical")
	}
	if !in.Urgency.Valid() {
		fields.Add("urgency", "must be normal or urgent")
	}
	if strings.TrimSpace(in.Description) == "" {
		fields.Add("description", "required")
	}
	if !in.CommercialImpact && in.CostDeltaCents != 0 {
		fields.Add("costDeltaCents", "must be zero when the change has no commercial impact")
	}
	return fields.Err("invalid change request")
}

// Record appends a new pending change request.
func (l *Ledger) Record(opportunityID uuid.UUID, in Input, now time.Time) (ChangeRequest, error) {
	if err := Validate(in); err != nil {
		return ChangeRequest{}, err
	}
	cr := ChangeRequest{
		ID:               uuid.New(),
		OpportunityID:    opportunityID,
		Type:             in.Type,
		Urgency:          in.Urgency,
		Description:      strings.TrimSpace(in.Description),
		Justification:    strings.TrimSpace(in.Justification),
		CommercialImpact: in.CommercialImpact,
		CostDeltaCents:   in.CostDeltaCents,
		TimeDelta:        strings.TrimSpace(in.TimeDelta),
		Status:           StatusPending,
		RequestedBy:      in.RequestedBy,
		RequestedAt:      now,
	}
	l.Requests = append(l.Requests, cr)
	return cr, nil
}

// Get returns the change request with the given id.
func (l *Ledger) Get(id uuid.UUID) (ChangeRequest, error) {
	i, err := l.index(id)
	if err != nil {
		return ChangeRequest{}, err
	}
	return l.Requests[i], nil
}

// List returns every change request in the order they were recorded.
func (l *Ledger) List() []ChangeRequest {
	return append([]ChangeRequest(nil), l.Requests...)
}

// Pending returns the requests still awaiting a decision.
func (l *Ledger) Pending() []ChangeRequest {
	out := make([]ChangeRequest, 0)
	for _, cr := range l.Requests {
		if cr.Status == StatusPending {
			out = append(out, cr)
		}
	}
	return out
}

// CheckPending fails unless the request exists and is still pending.
// Used by callers that must validate before touching other state.
func (l *Ledger) CheckPending(id uuid.UUID) (ChangeRequest, error) {
	i, err := l.index(id)
	if err != nil {
		return ChangeRequest{}, err
	}
	cr := l.Requests[i]
	if cr.Status != StatusPending {
		return ChangeRequest{}, apperr.InvalidTransition(fmt.Sprintf("change request already %s", cr.Status)).
			WithField("status", string(cr.Status))
	}
	return cr, nil
}

// Approve decides a pending request. quotationVersion is the draft opened for
// re-pricing, or nil when the request has no commercial impact.
func (l *Ledger) Approve(id uuid.UUID, note string, quotationVersion *int, now time.Time) (ChangeRequest, error) {
	return l.decide(id, StatusApproved, note, quotationVersion, now)
}

// Reject decides a pending request negatively.
func (l *Ledger) Reject(id uuid.UUID, note string, now time.Time) (ChangeRequest, error) {
	return l.decide(id, StatusRejected, note, nil, now)
}

func (l *Ledger) decide(id uuid.UUID, status Status, note string, quotationVersion *int, now time.Time) (ChangeRequest, error) {
	if _, err := l.CheckPending(id); err != nil {
		return ChangeRequest{}, err
	}
	i, _ := l.index(id)
	cr := &l.Requests[i]
	at := now
	cr.Status = status
	cr.DecidedAt = &at
	cr.DecisionNote = strings.TrimSpace(note)
	if quotationVersion != nil {
		v := *quotationVersion
		cr.QuotationVersion = &v
	}
	return *cr, nil
}

func (l *Ledger) index(id uuid.UUID) (int, error) {
	for i := range l.Requests {
		if l.Requests[i].ID == id {
			return i, nil
		}
	}
	return -1, apperr.NotFound("change request not found").WithField("id", id.String())
}
