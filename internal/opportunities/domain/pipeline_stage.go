// Package domain provides the core business rules of the opportunity pipeline.
package domain

// Stage is one of the five fixed pipeline stages.
type Stage string

const (
	StageInitialContact        Stage = "initial_contact"
	StageInformationValidation Stage = "information_validation"
	StageQuotationDevelopment  Stage = "quotation_development"
	StageClientReview          Stage = "client_review"
	StageClosure               Stage = "closure"
)

// Stages lists the pipeline in its nominal order. The order is informational:
// any stage may be entered from any other.
var Stages = []Stage{
	StageInitialContact,
	StageInformationValidation,
	StageQuotationDevelopment,
	StageClientReview,
	StageClosure,
}

var knownStages = map[Stage]struct{}{
	StageInitialContact:        {},
	StageInformationValidation: {},
	StageQuotationDevelopment:  {},
	StageClientReview:          {},
	StageClosure:               {},
}

// IsKnownStage reports whether s is one of the pipeline stages.
func IsKnownStage(s Stage) bool {
	_, ok := knownStages[s]
	return ok
}
