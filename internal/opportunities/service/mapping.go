package service

import (
	"time"

	"climas_backend/internal/changes"
	"climas_backend/internal/opportunities/domain"
	"climas_backend/internal/opportunities/transport"
	"climas_backend/internal/pricing"
	"climas_backend/internal/quotes"
)

func toOpportunityResponse(o *domain.Opportunity, now time.Time) transport.OpportunityResponse {
	resp := transport.OpportunityResponse{
		ID:         o.ID,
		ClientName: o.ClientName,
		Contact: transport.ContactResponse{
			Phone:         o.Contact.Phone,
			Email:         o.Contact.Email,
			ContactPerson: o.Contact.ContactPerson,
		},
		ProjectType:        string(o.ProjectType),
		Priority:           string(o.Priority),
		SalesRep:           o.SalesRep,
		Stage:              string(o.Stage),
		StageDuration:      toStageDurationResponse(o, now),
		StageLog:           make([]transport.StageChangeResponse, 0, len(o.StageLog)),
		Panels:             toPanelsResponse(o.Panels()),
		Communications:     make([]transport.CommunicationResponse, 0, len(o.Communications)),
		Documents:          make([]transport.DocumentResponse, 0, len(o.Documents)),
		QuotationVersions:  o.Quotations.Len(),
		PendingChanges:     len(o.Changes.Pending()),
		WorkOrderGenerated: o.WorkOrderGenerated,
		Closed:             o.IsClosed(),
		Revision:           o.Revision,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	for _, sc := range o.StageLog {
		resp.StageLog = append(resp.StageLog, transport.StageChangeResponse{From: string(sc.From), To: string(sc.To), At: sc.At})
	}
	for _, c := range o.Communications {
		resp.Communications = append(resp.Communications, toCommunicationResponse(c))
	}
	for _, d := range o.Documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(d))
	}
	if cur, ok := o.Quotations.Current(); ok {
		q := toQuotationResponse(cur)
		resp.CurrentQuotation = &q
	}
	if o.WorkOrder != nil {
		wo := toWorkOrderResponse(*o.WorkOrder)
		resp.WorkOrder = &wo
	}
	return resp
}

func toSummary(o *domain.Opportunity, now time.Time) transport.OpportunitySummary {
	d := o.StageDuration(now)
	sum := transport.OpportunitySummary{
		ID:          o.ID,
		ClientName:  o.ClientName,
		ProjectType: string(o.ProjectType),
		Priority:    string(o.Priority),
		SalesRep:    o.SalesRep,
		Stage:       string(o.Stage),
		SLA:         string(domain.SLAForDuration(d)),
		DaysInStage: int(d / (24 * time.Hour)),
		UpdatedAt:   o.UpdatedAt,
	}
	if cur, ok := o.Quotations.Current(); ok {
		total := cur.Breakdown.TotalCents
		sum.CurrentTotalCents = &total
	}
	return sum
}

func toStageDurationResponse(o *domain.Opportunity, now time.Time) transport.StageDurationResponse {
	d := o.StageDuration(now)
	return transport.StageDurationResponse{
		Stage:          string(o.Stage),
		StageEnteredAt: o.StageEnteredAt,
		Seconds:        int64(d / time.Second),
		Days:           int(d / (24 * time.Hour)),
		SLA:            string(domain.SLAForDuration(d)),
	}
}

func toPanelsResponse(p domain.Panels) transport.PanelsResponse {
	return transport.PanelsResponse{
		ClientRegistration: p.ClientRegistration,
		Quotation:          p.Quotation,
		WorkOrder:          p.WorkOrder,
		ChangeManagement:   p.ChangeManagement,
	}
}

func toCommunicationResponse(c domain.Communication) transport.CommunicationResponse {
	return transport.CommunicationResponse{
		ID:            c.ID,
		Channel:       string(c.Channel),
		Subject:       c.Subject,
		Body:          c.Body,
		Author:        c.Author,
		At:            c.At,
		HasAttachment: c.HasAttachment,
	}
}

func toDocumentResponse(d domain.Document) transport.DocumentResponse {
	return transport.DocumentResponse{
		ID:          d.ID,
		Name:        d.Name,
		FileKey:     d.FileKey,
		ContentType: d.ContentType,
		AttachedAt:  d.AttachedAt,
	}
}

func toWorkOrderResponse(wo domain.WorkOrder) transport.WorkOrderResponse {
	return transport.WorkOrderResponse{
		ID:               wo.ID,
		Reference:        wo.Reference,
		QuotationVersion: wo.QuotationVersion,
		ScheduledStart:   wo.ScheduledStart,
		CrewLead:         wo.CrewLead,
		Notes:            wo.Notes,
		GeneratedAt:      wo.GeneratedAt,
	}
}

func toQuotationResponse(q quotes.Quotation) transport.QuotationResponse {
	resp := transport.QuotationResponse{
		OpportunityID: q.OpportunityID,
		Version:       q.Version,
		Status:        string(q.Status),
		Materials:     make([]transport.MaterialResponse, 0, len(q.Materials)),
		Percentages: transport.PercentagesResponse{
			Installation: q.Percentages.Installation,
			Parts:        q.Percentages.Parts,
			Travel:       q.Percentages.Travel,
			Personnel:    q.Percentages.Personnel,
		},
		Warranty:     string(q.Warranty),
		Breakdown:    toBreakdownResponse(q.Breakdown),
		CreatedAt:    q.CreatedAt,
		SubmittedAt:  q.SubmittedAt,
		ApprovedAt:   q.ApprovedAt,
		SupersededAt: q.SupersededAt,
	}
	for _, m := range q.Materials {
		resp.Materials = append(resp.Materials, transport.MaterialResponse{
			Description:    m.Description,
			Quantity:       m.Quantity,
			UnitPriceCents: m.UnitPriceCents,
			Source:         string(m.Source),
			LineTotalCents: m.Quantity * m.UnitPriceCents,
		})
	}
	if q.Delivery != nil {
		resp.Delivery = &transport.DeliveryResponse{
			Channel:     string(q.Delivery.Channel),
			Message:     q.Delivery.Message,
			RequestedAt: q.Delivery.RequestedAt,
		}
	}
	return resp
}

func toBreakdownResponse(b pricing.Breakdown) transport.BreakdownResponse {
	return transport.BreakdownResponse{
		SubtotalCents:     b.SubtotalCents,
		InstallationCents: b.InstallationCents,
		PartsCents:        b.PartsCents,
		TravelCents:       b.TravelCents,
		PersonnelCents:    b.PersonnelCents,
		TotalCents:        b.TotalCents,
		AdvanceCents:      b.AdvanceCents,
		ProgressCents:     b.ProgressCents,
	}
}

func toChangeRequestResponse(cr changes.ChangeRequest) transport.ChangeRequestResponse {
	return transport.ChangeRequestResponse{
		ID:               cr.ID,
		OpportunityID:    cr.OpportunityID,
		Type:             string(cr.Type),
		Urgency:          string(cr.Urgency),
		Description:      cr.Description,
		Justification:    cr.Justification,
		CommercialImpact: cr.CommercialImpact,
		CostDeltaCents:   cr.CostDeltaCents,
		TimeDelta:        cr.TimeDelta,
		Status:           string(cr.Status),
		RequestedBy:      cr.RequestedBy,
		RequestedAt:      cr.RequestedAt,
		DecidedAt:        cr.DecidedAt,
		DecisionNote:     cr.DecisionNote,
		QuotationVersion: cr.QuotationVersion,
	}
}
