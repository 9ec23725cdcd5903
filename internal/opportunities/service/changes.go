package service

import (
	"context"
	"time"

	"climas_backend/internal/changes"
	"climas_backend/internal/events"
	"climas_backend/internal/opportunities/domain"
	"climas_backend/internal/opportunities/transport"
	"climas_backend/platform/sanitize"

	"github.com/google/uuid"
)

// RequestChange records a client change request. RequestedBy falls back to
// the sales representative when the caller is anonymous.
func (s *Service) RequestChange(ctx context.Context, id uuid.UUID, actor string, req transport.RequestChangeRequest) (*transport.ChangeRequestResponse, error) {
	var recorded changes.ChangeRequest
	_, err := s.mutate(ctx, "request_change", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		recorded, err = o.RequestChange(changes.Input{
			Type:             changes.Type(req.Type),
			Urgency:          changes.Urgency(req.Urgency),
			Description:      sanitize.Text(req.Description),
			Justification:    sanitize.Text(req.Justification),
			CommercialImpact: req.CommercialImpact,
			CostDeltaCents:   req.CostDeltaCents,
			TimeDelta:        sanitize.Line(req.TimeDelta),
			RequestedBy:      authorOr(actor, o.SalesRep),
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toChangeRequestResponse(recorded)
	return &resp, nil
}

// ApproveChange approves a pending request. Requests with commercial impact
// open a new draft quotation for re-pricing in the same commit.
func (s *Service) ApproveChange(ctx context.Context, id, changeID uuid.UUID, req transport.DecideChangeRequest) (*transport.ChangeApprovalResponse, error) {
	var approval domain.ChangeApproval
	opp, err := s.mutate(ctx, "approve_change", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		approval, err = o.ApproveChange(changeID, sanitize.Text(req.Note), now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ChangeRequestDecided{
		BaseEvent:        events.NewBaseEvent(),
		OpportunityID:    opp.ID,
		ChangeRequestID:  approval.Request.ID,
		Status:           string(approval.Request.Status),
		QuotationVersion: approval.Request.QuotationVersion,
	})
	resp := &transport.ChangeApprovalResponse{ChangeRequest: toChangeRequestResponse(approval.Request)}
	if approval.Revision != nil {
		rev := toQuotationResponse(*approval.Revision)
		resp.Revision = &rev
	}
	return resp, nil
}

// RejectChange rejects a pending request.
func (s *Service) RejectChange(ctx context.Context, id, changeID uuid.UUID, req transport.DecideChangeRequest) (*transport.ChangeRequestResponse, error) {
	var rejected changes.ChangeRequest
	opp, err := s.mutate(ctx, "reject_change", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		rejected, err = o.RejectChange(changeID, sanitize.Text(req.Note), now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ChangeRequestDecided{
		BaseEvent:       events.NewBaseEvent(),
		OpportunityID:   opp.ID,
		ChangeRequestID: rejected.ID,
		Status:          string(rejected.Status),
	})
	resp := toChangeRequestResponse(rejected)
	return &resp, nil
}

// ChangeImpact projects a request's cost delta onto the current quotation.
func (s *Service) ChangeImpact(ctx context.Context, id, changeID uuid.UUID) (*transport.ChangeImpactResponse, error) {
	opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	impact, err := opp.ChangeImpact(changeID)
	if err != nil {
		return nil, err
	}
	return &transport.ChangeImpactResponse{
		ChangeRequestID:        changeID,
		BaseTotalCents:         impact.BaseTotalCents,
		CostDeltaCents:         impact.CostDeltaCents,
		ProjectedTotalCents:    impact.ProjectedTotalCents,
		DeltaRatio:             impact.DeltaRatio,
		ProjectedAdvanceCents:  impact.ProjectedAdvanceCents,
		ProjectedProgressCents: impact.ProjectedProgressCents,
	}, nil
}

// ChangeRequests lists the ledger in recording order. With pendingOnly set
// only undecided requests are returned.
func (s *Service) ChangeRequests(ctx context.Context, id uuid.UUID, pendingOnly bool) (*transport.ChangeRequestListResponse, error) {
	opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	list := opp.Changes.List()
	if pendingOnly {
		list = opp.Changes.Pending()
	}
	resp := &transport.ChangeRequestListResponse{Items: make([]transport.ChangeRequestResponse, 0, len(list))}
	for _, cr := range list {
		resp.Items = append(resp.Items, toChangeRequestResponse(cr))
	}
	return resp, nil
}
