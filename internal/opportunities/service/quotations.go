package service

import (
	"context"
	"strings"
	"time"

	"climas_backend/internal/catalog"
	"climas_backend/internal/events"
	"climas_backend/internal/opportunities/domain"
	"climas_backend/internal/opportunities/transport"
	"climas_backend/internal/pricing"
	"climas_backend/internal/quotes"
	"climas_backend/platform/apperr"
	"climas_backend/platform/sanitize"

	"github.com/google/uuid"
)

// CreateQuotation opens a new draft version.
func (s *Service) CreateQuotation(ctx context.Context, id uuid.UUID, req transport.CreateQuotationRequest) (*transport.QuotationResponse, error) {
	var created quotes.Quotation
	_, err := s.mutate(ctx, "create_quotation", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		created, err = o.CreateQuotation(req.FromVersion, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toQuotationResponse(created)
	return &resp, nil
}

// UpdateQuotationDraft replaces the supplied parts of a draft and re-prices it.
func (s *Service) UpdateQuotationDraft(ctx context.Context, id uuid.UUID, version int, req transport.UpdateQuotationRequest) (*transport.QuotationResponse, error) {
	edit := quotes.DraftEdit{}
	if req.Materials != nil {
		materials := toMaterials(*req.Materials, pricing.SourceManual)
		edit.Materials = &materials
	}
	if req.Percentages != nil {
		p := pricing.Percentages{
			Installation: req.Percentages.Installation,
			Parts:        req.Percentages.Parts,
			Travel:       req.Percentages.Travel,
			Personnel:    req.Percentages.Personnel,
		}
		edit.Percentages = &p
	}
	if req.Warranty != nil {
		w := quotes.WarrantyTerm(strings.TrimSpace(*req.Warranty))
		edit.Warranty = &w
	}

	var updated quotes.Quotation
	_, err := s.mutate(ctx, "update_quotation", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		updated, err = o.EditQuotation(version, edit, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toQuotationResponse(updated)
	return &resp, nil
}

// ImportMaterials appends catalog references and plan analysis candidates to a draft.
func (s *Service) ImportMaterials(ctx context.Context, id uuid.UUID, version int, req transport.ImportMaterialsRequest) (*transport.QuotationResponse, error) {
	if len(req.Catalog) == 0 && len(req.PlanAnalysis) == 0 {
		return nil, apperr.Validation("nothing to import").WithField("catalog", "catalog or planAnalysis lines are required")
	}

	var lines []pricing.Material
	if len(req.Catalog) > 0 {
		if s.catalog == nil {
			return nil, apperr.Validation("material catalog is not configured").WithField("catalog", "unavailable")
		}
		refs := make([]catalog.LineRef, 0, len(req.Catalog))
		for _, l := range req.Catalog {
			refs = append(refs, catalog.LineRef{Code: l.Code, Quantity: l.Quantity})
		}
		resolved, err := s.catalog.Resolve(refs)
		if err != nil {
			return nil, err
		}
		lines = append(lines, resolved...)
	}
	lines = append(lines, catalog.PlanAnalysisLines(toMaterials(req.PlanAnalysis, pricing.SourcePlanAnalysis))...)

	var updated quotes.Quotation
	_, err := s.mutate(ctx, "import_materials", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		updated, err = o.ImportMaterials(version, lines, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toQuotationResponse(updated)
	return &resp, nil
}

// RemoveQuotationMaterial drops one material line from a draft.
func (s *Service) RemoveQuotationMaterial(ctx context.Context, id uuid.UUID, version, index int) (*transport.QuotationResponse, error) {
	var updated quotes.Quotation
	_, err := s.mutate(ctx, "remove_material", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		updated, err = o.RemoveQuotationMaterial(version, index, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toQuotationResponse(updated)
	return &resp, nil
}

// RecomputeQuotation re-prices a draft and returns the stored breakdown.
func (s *Service) RecomputeQuotation(ctx context.Context, id uuid.UUID, version int) (*transport.BreakdownResponse, error) {
	var b pricing.Breakdown
	_, err := s.mutate(ctx, "recompute_quotation", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		b, err = o.RecomputeQuotation(version, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toBreakdownResponse(b)
	return &resp, nil
}

// SubmitQuotation moves a draft to pending validation.
func (s *Service) SubmitQuotation(ctx context.Context, id uuid.UUID, version int) (*transport.QuotationResponse, error) {
	var submitted quotes.Quotation
	_, err := s.mutate(ctx, "submit_quotation", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		submitted, err = o.SubmitQuotation(version, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toQuotationResponse(submitted)
	return &resp, nil
}

// SendQuotation records the delivery request; the delivery itself runs asynchronously.
func (s *Service) SendQuotation(ctx context.Context, id uuid.UUID, version int, req transport.SendQuotationRequest) (*transport.QuotationResponse, error) {
	message := sanitize.Text(req.Message)
	var sent quotes.Quotation
	opp, err := s.mutate(ctx, "send_quotation", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		sent, err = o.SendQuotation(version, quotes.DeliveryChannel(req.Channel), message, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuotationSent{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: opp.ID,
		Version:       sent.Version,
		Channel:       string(sent.Delivery.Channel),
		Message:       sent.Delivery.Message,
		ClientName:    opp.ClientName,
		ContactPerson: opp.Contact.ContactPerson,
		Email:         opp.Contact.Email,
		Phone:         opp.Contact.Phone,
		TotalCents:    sent.Breakdown.TotalCents,
	})
	resp := toQuotationResponse(sent)
	return &resp, nil
}

// ApproveQuotation records client approval of a sent version.
func (s *Service) ApproveQuotation(ctx context.Context, id uuid.UUID, version int) (*transport.QuotationResponse, error) {
	var approved quotes.Quotation
	opp, err := s.mutate(ctx, "approve_quotation", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		approved, err = o.ApproveQuotation(version, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuotationApproved{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: opp.ID,
		Version:       approved.Version,
		TotalCents:    approved.Breakdown.TotalCents,
	})
	resp := toQuotationResponse(approved)
	return &resp, nil
}

// ReviseQuotation supersedes a version with a new draft that copies it.
func (s *Service) ReviseQuotation(ctx context.Context, id uuid.UUID, version int) (*transport.QuotationResponse, error) {
	var draft quotes.Quotation
	_, err := s.mutate(ctx, "revise_quotation", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		draft, err = o.ReviseQuotation(version, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toQuotationResponse(draft)
	return &resp, nil
}

// Quotation returns one version. Superseded versions are served through the
// snapshot cache when one is configured.
func (s *Service) Quotation(ctx context.Context, id uuid.UUID, version int) (*transport.QuotationResponse, error) {
	q, err := s.quotation(ctx, id, version)
	if err != nil {
		return nil, err
	}
	resp := toQuotationResponse(q)
	return &resp, nil
}

func (s *Service) quotation(ctx context.Context, id uuid.UUID, version int) (quotes.Quotation, error) {
	load := func(ctx context.Context) (quotes.Quotation, error) {
		opp, err := s.load(ctx, id)
		if err != nil {
			return quotes.Quotation{}, err
		}
		return opp.Quotations.Get(version)
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.Get(ctx, id, version, load)
}

// QuotationHistory lists every version in ascending order.
func (s *Service) QuotationHistory(ctx context.Context, id uuid.UUID) (*transport.QuotationHistoryResponse, error) {
	opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	all := opp.Quotations.All()
	resp := &transport.QuotationHistoryResponse{Items: make([]transport.QuotationResponse, 0, len(all))}
	for _, q := range all {
		resp.Items = append(resp.Items, toQuotationResponse(q))
	}
	if cur, ok := opp.Quotations.Current(); ok {
		v := cur.Version
		resp.CurrentVersion = &v
	}
	return resp, nil
}

// ExportQuotation renders a version to PDF and stores it.
func (s *Service) ExportQuotation(ctx context.Context, id uuid.UUID, version int) (*transport.QuotationExportResponse, error) {
	if s.exporter == nil {
		return nil, apperr.Internal("quotation export is not configured")
	}
	opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	q, err := opp.Quotations.Get(version)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	fileKey, url, err := s.exporter.ExportQuotation(ctx, *opp, q)
	s.metrics.ObserveOperation("export_quotation", outcome(err), time.Since(start))
	if err != nil {
		s.log.WithContext(ctx).Error("quotation export failed", "opportunityId", id, "version", version, "error", err)
		return nil, err
	}
	return &transport.QuotationExportResponse{Version: q.Version, FileKey: fileKey, DownloadURL: url}, nil
}

func toMaterials(in []transport.MaterialRequest, fallback pricing.Source) []pricing.Material {
	out := make([]pricing.Material, 0, len(in))
	for _, m := range in {
		source := pricing.Source(m.Source)
		if source == "" {
			source = fallback
		}
		out = append(out, pricing.Material{
			Description:    sanitize.Line(m.Description),
			Quantity:       m.Quantity,
			UnitPriceCents: m.UnitPriceCents,
			Source:         source,
		})
	}
	return out
}
