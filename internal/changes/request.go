// Package changes records client-driven change requests against an
// opportunity and their one-shot approval lifecycle.
package changes

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies what a change request touches.
type Type string

const (
	TypeScope     Type = "scope"
	TypeTime      Type = "time"
	TypeCost      Type = "cost"
	TypeTechnical Type = "technical"
)

// Valid reports whether t is a known change type.
func (t Type) Valid() bool {
	switch t {
	case TypeScope, TypeTime, TypeCost, TypeTechnical:
		return true
	}
	return false
}

// Urgency of a change request.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgent"
)

// Valid reports whether u is a known urgency.
func (u Urgency) Valid() bool {
	return u == UrgencyNormal || u == UrgencyUrgent
}

// Status of a change request. Pending moves exactly once to approved or rejected.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ChangeRequest is one recorded client change proposal.
type ChangeRequest struct {
	ID               uuid.UUID  `json:"id"`
	OpportunityID    uuid.UUID  `json:"opportunityId"`
	Type             Type       `json:"type"`
	Urgency          Urgency    `json:"urgency"`
	Description      string     `json:"description"`
	Justification    string     `json:"justification"`
	CommercialImpact bool       `json:"commercialImpact"`
	CostDeltaCents   int64      `json:"costDeltaCents"`
	TimeDelta        string     `json:"timeDelta"`
	Status           Status     `json:"status"`
	RequestedBy      string     `json:"requestedBy"`
	RequestedAt      time.Time  `json:"requestedAt"`
	DecidedAt        *time.Time `json:"decidedAt,omitempty"`
	DecisionNote     string     `json:"decisionNote,omitempty"`
	// QuotationVersion is the draft opened when an impactful request was approved.
	QuotationVersion *int `json:"quotationVersion,omitempty"`
}

// Input is the caller-supplied part of a new change request.
type Input struct {
	Type             Type
	Urgency          Urgency
	Description      string
	Justification    string
	CommercialImpact bool
	CostDeltaCents   int64
	TimeDelta        string
	RequestedBy      string
}
