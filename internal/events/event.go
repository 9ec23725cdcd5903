// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"climas_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Opportunity Pipeline Events
// =============================================================================

// OpportunityCreated is published when a new opportunity is registered.
type OpportunityCreated struct {
	BaseEvent
	OpportunityID uuid.UUID `json:"opportunityId"`
	ClientName    string    `json:"clientName"`
	SalesRep      string    `json:"salesRep"`
}

func (e OpportunityCreated) EventName() string { return "opportunities.created" }

// StageChanged is published after every successful stage transition.
type StageChanged struct {
	BaseEvent
	OpportunityID uuid.UUID `json:"opportunityId"`
	From          string    `json:"from"`
	To            string    `json:"to"`
}

func (e StageChanged) EventName() string { return "opportunities.stage.changed" }

// =============================================================================
// Quotation Events
// =============================================================================

// QuotationSent is published when delivery of a quotation was requested.
// The notification module turns it into an asynchronous delivery task.
type QuotationSent struct {
	BaseEvent
	OpportunityID uuid.UUID `json:"opportunityId"`
	Version       int       `json:"version"`
	Channel       string    `json:"channel"`
	Message       string    `json:"message"`
	ClientName    string    `json:"clientName"`
	ContactPerson string    `json:"contactPerson"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	TotalCents    int64     `json:"totalCents"`
}

func (e QuotationSent) EventName() string { return "quotes.sent" }

// QuotationApproved is published when the client approves a quotation.
type QuotationApproved struct {
	BaseEvent
	OpportunityID uuid.UUID `json:"opportunityId"`
	Version       int       `json:"version"`
	TotalCents    int64     `json:"totalCents"`
}

func (e QuotationApproved) EventName() string { return "quotes.approved" }

// =============================================================================
// Change Management Events
// =============================================================================

// ChangeRequestDecided is published when a change request is approved or rejected.
type ChangeRequestDecided struct {
	BaseEvent
	OpportunityID    uuid.UUID `json:"opportunityId"`
	ChangeRequestID  uuid.UUID `json:"changeRequestId"`
	Status           string    `json:"status"`
	QuotationVersion *int      `json:"quotationVersion,omitempty"`
}

func (e ChangeRequestDecided) EventName() string { return "changes.decided" }

// WorkOrderGenerated is published once per opportunity when the work order is issued.
type WorkOrderGenerated struct {
	BaseEvent
	OpportunityID    uuid.UUID `json:"opportunityId"`
	Reference        string    `json:"reference"`
	QuotationVersion int       `json:"quotationVersion"`
}

func (e WorkOrderGenerated) EventName() string { return "opportunities.work_order.generated" }
