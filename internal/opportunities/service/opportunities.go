package service

import (
	"context"
	"strings"
	"time"

	"climas_backend/internal/events"
	"climas_backend/internal/opportunities/domain"
	"climas_backend/internal/opportunities/repository"
	"climas_backend/internal/opportunities/transport"
	"climas_backend/platform/apperr"
	"climas_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Create registers a new opportunity at the initial contact stage.
func (s *Service) Create(ctx context.Context, req transport.CreateOpportunityRequest) (*transport.OpportunityResponse, error) {
	start := time.Now()
	opp, err := s.create(ctx, req)
	s.metrics.ObserveOperation("create", outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OpportunityCreated{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: opp.ID,
		ClientName:    opp.ClientName,
		SalesRep:      opp.SalesRep,
	})
	resp := toOpportunityResponse(opp, s.now())
	return &resp, nil
}

func (s *Service) create(ctx context.Context, req transport.CreateOpportunityRequest) (*domain.Opportunity, error) {
	contact, err := s.contact(req.Contact)
	if err != nil {
		return nil, err
	}
	opp, err := domain.New(domain.Intake{
		ClientName:  sanitize.Line(req.ClientName),
		Contact:     contact,
		ProjectType: domain.ProjectType(req.ProjectType),
		Priority:    domain.Priority(req.Priority),
		SalesRep:    sanitize.Line(req.SalesRep),
	}, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, &opp); err != nil {
		s.log.WithContext(ctx).DatabaseError("create", err)
		return nil, err
	}
	s.log.WithContext(ctx).PipelineOperation("create", opp.ID.String(), string(opp.Stage))
	return &opp, nil
}

// Get returns the full view of an opportunity.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.OpportunityResponse, error) {
	opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toOpportunityResponse(opp, s.now())
	return &resp, nil
}

// List returns opportunity summaries, optionally narrowed to one stage.
func (s *Service) List(ctx context.Context, req transport.ListOpportunitiesRequest) (*transport.OpportunityListResponse, error) {
	stage := domain.Stage(strings.TrimSpace(req.Stage))
	if stage != "" && !domain.IsKnownStage(stage) {
		return nil, apperr.Validation("unknown stage").WithField("stage", req.Stage)
	}
	items, err := s.store.List(ctx, repository.ListFilter{Stage: stage, Limit: req.Limit, Offset: req.Offset})
	if err != nil {
		return nil, err
	}
	now := s.now()
	resp := &transport.OpportunityListResponse{Items: make([]transport.OpportunitySummary, 0, len(items))}
	for _, opp := range items {
		resp.Items = append(resp.Items, toSummary(opp, now))
	}
	return resp, nil
}

// RegisterClient replaces the client details while the registration panel is open.
func (s *Service) RegisterClient(ctx context.Context, id uuid.UUID, req transport.RegisterClientRequest) (*transport.OpportunityResponse, error) {
	contact, err := s.contact(req.Contact)
	if err != nil {
		return nil, err
	}
	opp, err := s.mutate(ctx, "register_client", id, func(o *domain.Opportunity, now time.Time) error {
		return o.RegisterClient(sanitize.Line(req.ClientName), contact, now)
	})
	if err != nil {
		return nil, err
	}
	resp := toOpportunityResponse(opp, s.now())
	return &resp, nil
}

// SetPriority changes the priority of an opportunity.
func (s *Service) SetPriority(ctx context.Context, id uuid.UUID, req transport.SetPriorityRequest) (*transport.OpportunityResponse, error) {
	opp, err := s.mutate(ctx, "set_priority", id, func(o *domain.Opportunity, now time.Time) error {
		return o.SetPriority(domain.Priority(req.Priority), now)
	})
	if err != nil {
		return nil, err
	}
	resp := toOpportunityResponse(opp, s.now())
	return &resp, nil
}

// Transition moves the opportunity to another stage.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, req transport.TransitionRequest) (*transport.OpportunityResponse, error) {
	var from domain.Stage
	opp, err := s.mutate(ctx, "transition", id, func(o *domain.Opportunity, now time.Time) error {
		from = o.Stage
		return o.Transition(domain.Stage(strings.TrimSpace(req.Stage)), now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StageEntered(string(opp.Stage))
	s.publish(ctx, events.StageChanged{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: opp.ID,
		From:          string(from),
		To:            string(opp.Stage),
	})
	resp := toOpportunityResponse(opp, s.now())
	return &resp, nil
}

// LogCommunication appends an entry to the communication log. The author is
// the acting user, or the sales representative when the request is anonymous.
func (s *Service) LogCommunication(ctx context.Context, id uuid.UUID, actor string, req transport.LogCommunicationRequest) (*transport.CommunicationResponse, error) {
	var logged domain.Communication
	_, err := s.mutate(ctx, "log_communication", id, func(o *domain.Opportunity, now time.Time) error {
		entry := domain.Communication{
			Channel:       domain.Channel(req.Channel),
			Subject:       sanitize.Line(req.Subject),
			Body:          sanitize.Text(req.Body),
			Author:        authorOr(actor, o.SalesRep),
			HasAttachment: req.HasAttachment,
		}
		if req.At != nil {
			entry.At = req.At.UTC()
		}
		var err error
		logged, err = o.LogCommunication(entry, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toCommunicationResponse(logged)
	return &resp, nil
}

// AttachDocument records a reference to an uploaded document.
func (s *Service) AttachDocument(ctx context.Context, id uuid.UUID, req transport.AttachDocumentRequest) (*transport.DocumentResponse, error) {
	var attached domain.Document
	_, err := s.mutate(ctx, "attach_document", id, func(o *domain.Opportunity, now time.Time) error {
		var err error
		attached, err = o.AttachDocument(domain.Document{
			Name:        sanitize.Line(req.Name),
			FileKey:     strings.TrimSpace(req.FileKey),
			ContentType: strings.TrimSpace(req.ContentType),
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := toDocumentResponse(attached)
	return &resp, nil
}

// StageDuration reports how long the opportunity has been in its stage.
func (s *Service) StageDuration(ctx context.Context, id uuid.UUID) (*transport.StageDurationResponse, error) {
	opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toStageDurationResponse(opp, s.now())
	return &resp, nil
}

// Panels reports which action groups are currently actionable.
func (s *Service) Panels(ctx context.Context, id uuid.UUID) (*transport.PanelsResponse, error) {
	opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toPanelsResponse(opp.Panels())
	return &resp, nil
}

// GenerateWorkOrder issues the one-way work order of a closed opportunity.
func (s *Service) GenerateWorkOrder(ctx context.Context, id uuid.UUID, req transport.GenerateWorkOrderRequest) (*transport.WorkOrderResponse, error) {
	var wo domain.WorkOrder
	opp, err := s.mutate(ctx, "generate_work_order", id, func(o *domain.Opportunity, now time.Time) error {
		in := domain.WorkOrderInput{
			CrewLead: sanitize.Line(req.CrewLead),
			Notes:    sanitize.Text(req.Notes),
		}
		if req.ScheduledStart != nil {
			start := req.ScheduledStart.UTC()
			in.ScheduledStart = &start
		}
		var err error
		wo, err = o.GenerateWorkOrder(in, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.WorkOrderGenerated{
		BaseEvent:        events.NewBaseEvent(),
		OpportunityID:    opp.ID,
		Reference:        wo.Reference,
		QuotationVersion: wo.QuotationVersion,
	})
	resp := toWorkOrderResponse(wo)
	return &resp, nil
}

func (s *Service) contact(req transport.ContactRequest) (domain.Contact, error) {
	c := domain.Contact{
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		ContactPerson: sanitize.Line(req.ContactPerson),
	}
	if s.phone == nil || c.Phone == "" {
		return c, nil
	}
	normalized, err := s.phone.E164(c.Phone)
	if err != nil {
		return domain.Contact{}, apperr.Validation("invalid contact").WithField("contact.phone", "invalid phone number")
	}
	c.Phone = normalized
	return c, nil
}

func authorOr(actor, fallback string) string {
	if strings.TrimSpace(actor) != "" {
		return strings.TrimSpace(actor)
	}
	return fallback
}
