package domain

import (
	"fmt"

	"climas_backend/internal/quotes"
	"climas_backend/platform/apperr"
)

// Panel names one of the gated action groups of an opportunity.
type Panel string

const (
	PanelClientRegistration Panel = "client_registration"
	PanelQuotation          Panel = "quotation"
	PanelWorkOrder          Panel = "work_order"
	PanelChangeManagement   Panel = "change_management"
)

// Panels reports which action groups are currently actionable.
type Panels struct {
	ClientRegistration bool `json:"clientRegistration"`
	Quotation          bool `json:"quotation"`
	WorkOrder          bool `json:"workOrder"`
	ChangeManagement   bool `json:"changeManagement"`
}

// Allows reports whether p is open.
func (p Panels) Allows(panel Panel) bool {
	switch panel {
	case PanelClientRegistration:
		return p.ClientRegistration
	case PanelQuotation:
		return p.Quotation
	case PanelWorkOrder:
		return p.WorkOrder
	case PanelChangeManagement:
		return p.ChangeManagement
	}
	return false
}

// Panels evaluates the gates for the opportunity's current state.
func (o *Opportunity) Panels() Panels {
	cur, hasCurrent := o.Quotations.Current()
	return Panels{
		ClientRegistration: o.Stage == StageInitialContact,
		Quotation:          o.Stage == StageQuotationDevelopment || o.Quotations.Len() > 0,
		WorkOrder: o.Stage == StageClosure && hasCurrent &&
			cur.Status == quotes.StatusApproved && !o.WorkOrderGenerated,
		ChangeManagement: o.Stage != StageInitialContact,
	}
}

func (o *Opportunity) require(panel Panel) error {
	if o.Panels().Allows(panel) {
		return nil
	}
	return apperr.InvalidTransition(fmt.Sprintf("%s is not available at stage %s", panel, o.Stage)).
		WithField("stage", string(o.Stage))
}
