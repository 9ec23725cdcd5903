// Package quotes keeps the append-only version history of priced quotations
// for a single opportunity.
package quotes

import (
	"fmt"
	"strings"
	"time"

	"climas_backend/internal/pricing"

	"github.com/google/uuid"
)

// Status defines the lifecycle state of a quotation version.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPendingValidation Status = "pending_validation"
	StatusSent              Status = "sent"
	StatusApproved          Status = "approved"
	StatusSuperseded        Status = "superseded"
)

// IsCurrent reports whether a version in this status counts as the current one.
func (s Status) IsCurrent() bool {
	return s != StatusSuperseded
}

// WarrantyTerm is the enumerated warranty offered with a quotation.
type WarrantyTerm string

const (
	WarrantyNone     WarrantyTerm = "none"
	Warranty6Months  WarrantyTerm = "6_months"
	Warranty12Months WarrantyTerm = "12_months"
	Warranty24Months WarrantyTerm = "24_months"
	Warranty36Months WarrantyTerm = "36_months"
)

// DefaultWarrantyTerm applies to drafts opened without a baseline.
const DefaultWarrantyTerm = Warranty12Months

// Valid reports whether w is a known warranty term.
func (w WarrantyTerm) Valid() bool {
	switch w {
	case WarrantyNone, Warranty6Months, Warranty12Months, Warranty24Months, Warranty36Months:
		return true
	}
	return false
}

// DeliveryChannel is the channel a sent quotation was delivered through.
type DeliveryChannel string

const (
	DeliveryEmail    DeliveryChannel = "email"
	DeliveryWhatsApp DeliveryChannel = "whatsapp"
)

// Valid reports whether c is a supported delivery channel.
func (c DeliveryChannel) Valid() bool {
	return c == DeliveryEmail || c == DeliveryWhatsApp
}

// Delivery records that delivery of a quotation was requested. The outcome
// of the delivery itself is tracked outside this package.
type Delivery struct {
	Channel     DeliveryChannel `json:"channel"`
	Message     string          `json:"message"`
	RequestedAt time.Time       `json:"requestedAt"`
}

// Quotation is one version of a priced proposal.
type Quotation struct {
	OpportunityID uuid.UUID           `json:"opportunityId"`
	Version       int                 `json:"version"`
	Status        Status              `json:"status"`
	Materials     []pricing.Material  `json:"materials"`
	Percentages   pricing.Percentages `json:"percentages"`
	Warranty      WarrantyTerm        `json:"warranty"`
	Breakdown     pricing.Breakdown   `json:"breakdown"`
	Delivery      *Delivery           `json:"delivery,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	SubmittedAt   *time.Time          `json:"submittedAt,omitempty"`
	ApprovedAt    *time.Time          `json:"approvedAt,omitempty"`
	SupersededAt  *time.Time          `json:"supersededAt,omitempty"`
}

// Baseline is the editable content of a quotation that is carried over when
// a new version is derived from an older one.
type Baseline struct {
	Materials   []pricing.Material  `json:"materials"`
	Percentages pricing.Percentages `json:"percentages"`
	Warranty    WarrantyTerm        `json:"warranty"`
}

// Baseline returns a deep copy of the quotation's editable content.
func (q Quotation) Baseline() Baseline {
	return Baseline{
		Materials:   cloneMaterials(q.Materials),
		Percentages: q.Percentages,
		Warranty:    q.Warranty,
	}
}

// Clone returns a deep copy so callers cannot mutate history through slices.
func (q Quotation) Clone() Quotation {
	out := q
	out.Materials = cloneMaterials(q.Materials)
	out.Breakdown.Lines = append([]pricing.LineTotal(nil), q.Breakdown.Lines...)
	if q.Delivery != nil {
		d := *q.Delivery
		out.Delivery = &d
	}
	out.SubmittedAt = cloneTime(q.SubmittedAt)
	out.ApprovedAt = cloneTime(q.ApprovedAt)
	out.SupersededAt = cloneTime(q.SupersededAt)
	return out
}

func cloneMaterials(in []pricing.Material) []pricing.Material {
	if in == nil {
		return []pricing.Material{}
	}
	return append(make([]pricing.Material, 0, len(in)), in...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Reference is the printed quotation number, e.g. COT-3F2A9C1B-V2.
func Reference(opportunityID uuid.UUID, version int) string {
	return fmt.Sprintf("COT-%s-V%d", strings.ToUpper(opportunityID.String()[:8]), version)
}
