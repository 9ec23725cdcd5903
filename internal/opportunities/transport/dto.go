package transport

import (
	"time"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// ContactRequest carries the client's contact channels.
type ContactRequest struct {
	Phone         string `json:"phone" validate:"max=32"`
	Email         string `json:"email" validate:"omitempty,email,max=254"`
	ContactPerson string `json:"contactPerson" validate:"max=200"`
}

// CreateOpportunityRequest is the request body for registering an opportunity.
type CreateOpportunityRequest struct {
	ClientName  string         `json:"clientName" validate:"required,max=200"`
	Contact     ContactRequest `json:"contact"`
	ProjectType string         `json:"projectType" validate:"required,oneof=full_project single_piece"`
	Priority    string         `json:"priority" validate:"required,oneof=urgent high medium low"`
	SalesRep    string         `json:"salesRep" validate:"required,max=200"`
}

// RegisterClientRequest replaces the client details.
type RegisterClientRequest struct {
	ClientName string         `json:"clientName" validate:"required,max=200"`
	Contact    ContactRequest `json:"contact"`
}

// SetPriorityRequest changes the priority.
type SetPriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=urgent high medium low"`
}

// TransitionRequest moves the opportunity to another stage.
type TransitionRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// LogCommunicationRequest appends a communication log entry.
type LogCommunicationRequest struct {
	Channel       string     `json:"channel" validate:"required,oneof=email phone meeting whatsapp"`
	Subject       string     `json:"subject" validate:"max=300"`
	Body          string     `json:"body" validate:"max=10000"`
	At            *time.Time `json:"at"`
	HasAttachment bool       `json:"hasAttachment"`
}

// AttachDocumentRequest records an already uploaded document.
type AttachDocumentRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	FileKey     string `json:"fileKey" validate:"required,max=1000"`
	ContentType string `json:"contentType" validate:"max=100"`
}

// PresignDocumentRequest asks for an upload URL for a new document.
type PresignDocumentRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// MaterialRequest is one material line.
type MaterialRequest struct {
	Description    string `json:"description" validate:"required,max=500"`
	Quantity       int64  `json:"quantity" validate:"max=1000000"`
	UnitPriceCents int64  `json:"unitPriceCents" validate:"max=1000000000000"`
	Source         string `json:"source" validate:"omitempty,oneof=catalog plan_analysis manual"`
}

// PercentagesRequest carries the four cost allocation percentages.
type PercentagesRequest struct {
	Installation float64 `json:"installation"`
	Parts        float64 `json:"parts"`
	Travel       float64 `json:"travel"`
	Personnel    float64 `json:"personnel"`
}

// CreateQuotationRequest opens a new draft, optionally seeded from an earlier version.
type CreateQuotationRequest struct {
	FromVersion *int `json:"fromVersion" validate:"omitempty,min=1"`
}

// UpdateQuotationRequest replaces the given parts of a draft.
type UpdateQuotationRequest struct {
	Materials   *[]MaterialRequest  `json:"materials" validate:"omitempty,dive"`
	Percentages *PercentagesRequest `json:"percentages"`
	Warranty    *string             `json:"warranty"`
}

// CatalogLineRequest references a catalog entry by code.
type CatalogLineRequest struct {
	Code     string `json:"code" validate:"required,max=64"`
	Quantity int64  `json:"quantity" validate:"max=1000000"`
}

// ImportMaterialsRequest appends catalog lines and plan analysis candidates to a draft.
type ImportMaterialsRequest struct {
	Catalog      []CatalogLineRequest `json:"catalog" validate:"omitempty,dive"`
	PlanAnalysis []MaterialRequest    `json:"planAnalysis" validate:"omitempty,dive"`
}

// SendQuotationRequest requests delivery of a quotation.
type SendQuotationRequest struct {
	Channel string `json:"channel" validate:"required,oneof=email whatsapp"`
	Message string `json:"message" validate:"required,max=4000"`
}

// RequestChangeRequest records a client change request.
type RequestChangeRequest struct {
	Type             string `json:"type" validate:"required,oneof=scope time cost technical"`
	Urgency          string `json:"urgency" validate:"required,oneof=normal urgent"`
	Description      string `json:"description" validate:"required,max=4000"`
	Justification    string `json:"justification" validate:"max=4000"`
	CommercialImpact bool   `json:"commercialImpact"`
	CostDeltaCents   int64  `json:"costDeltaCents"`
	TimeDelta        string `json:"timeDelta" validate:"max=200"`
}

// DecideChangeRequest carries the decision note.
type DecideChangeRequest struct {
	Note string `json:"note" validate:"max=4000"`
}

// GenerateWorkOrderRequest carries the work order details.
type GenerateWorkOrderRequest struct {
	ScheduledStart *time.Time `json:"scheduledStart"`
	CrewLead       string     `json:"crewLead" validate:"max=200"`
	Notes          string     `json:"notes" validate:"max=4000"`
}

// ListOpportunitiesRequest filters the opportunity list.
type ListOpportunitiesRequest struct {
	Stage  string `form:"stage" json:"stage"`
	Limit  int    `form:"limit" json:"limit" validate:"min=0,max=200"`
	Offset int    `form:"offset" json:"offset" validate:"min=0"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// ContactResponse is the contact block of an opportunity.
type ContactResponse struct {
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	ContactPerson string `json:"contactPerson"`
}

// PanelsResponse reports which action groups are currently actionable.
type PanelsResponse struct {
	ClientRegistration bool `json:"clientRegistration"`
	Quotation          bool `json:"quotation"`
	WorkOrder          bool `json:"workOrder"`
	ChangeManagement   bool `json:"changeManagement"`
}

// StageDurationResponse is the time spent in the current stage.
type StageDurationResponse struct {
	Stage          string    `json:"stage"`
	StageEnteredAt time.Time `json:"stageEnteredAt"`
	Seconds        int64     `json:"seconds"`
	Days           int       `json:"days"`
	SLA            string    `json:"sla"`
}

// StageChangeResponse is one entry of the stage log.
type StageChangeResponse struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}

// CommunicationResponse is one communication log entry.
type CommunicationResponse struct {
	ID            uuid.UUID `json:"id"`
	Channel       string    `json:"channel"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	Author        string    `json:"author"`
	At            time.Time `json:"at"`
	HasAttachment bool      `json:"hasAttachment"`
}

// DocumentResponse is one attached document reference.
type DocumentResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	FileKey     string    `json:"fileKey"`
	ContentType string    `json:"contentType"`
	AttachedAt  time.Time `json:"attachedAt"`
}

// PresignedURLResponse is a time-limited upload or download URL.
type PresignedURLResponse struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// WorkOrderResponse is the generated work order.
type WorkOrderResponse struct {
	ID               uuid.UUID  `json:"id"`
	Reference        string     `json:"reference"`
	QuotationVersion int        `json:"quotationVersion"`
	ScheduledStart   *time.Time `json:"scheduledStart,omitempty"`
	CrewLead         string     `json:"crewLead"`
	Notes            string     `json:"notes"`
	GeneratedAt      time.Time  `json:"generatedAt"`
}

// MaterialResponse is one priced material line.
type MaterialResponse struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Source         string `json:"source,omitempty"`
	LineTotalCents int64  `json:"lineTotalCents"`
}

// PercentagesResponse echoes the allocation percentages.
type PercentagesResponse struct {
	Installation float64 `json:"installation"`
	Parts        float64 `json:"parts"`
	Travel       float64 `json:"travel"`
	Personnel    float64 `json:"personnel"`
}

// BreakdownResponse is the derived cost breakdown in minor units.
type BreakdownResponse struct {
	SubtotalCents     int64 `json:"subtotalCents"`
	InstallationCents int64 `json:"installationCents"`
	PartsCents        int64 `json:"partsCents"`
	TravelCents       int64 `json:"travelCents"`
	PersonnelCents    int64 `json:"personnelCents"`
	TotalCents        int64 `json:"totalCents"`
	AdvanceCents      int64 `json:"advanceCents"`
	ProgressCents     int64 `json:"progressCents"`
}

// DeliveryResponse records the requested delivery of a quotation.
type DeliveryResponse struct {
	Channel     string    `json:"channel"`
	Message     string    `json:"message"`
	RequestedAt time.Time `json:"requestedAt"`
}

// QuotationResponse is one quotation version.
type QuotationResponse struct {
	OpportunityID uuid.UUID           `json:"opportunityId"`
	Version       int                 `json:"version"`
	Status        string              `json:"status"`
	Materials     []MaterialResponse  `json:"materials"`
	Percentages   PercentagesResponse `json:"percentages"`
	Warranty      string              `json:"warranty"`
	Breakdown     BreakdownResponse   `json:"breakdown"`
	Delivery      *DeliveryResponse   `json:"delivery,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	SubmittedAt   *time.Time          `json:"submittedAt,omitempty"`
	ApprovedAt    *time.Time          `json:"approvedAt,omitempty"`
	SupersededAt  *time.Time          `json:"supersededAt,omitempty"`
}

// QuotationHistoryResponse lists every version in ascending order.
type QuotationHistoryResponse struct {
	Items          []QuotationResponse `json:"items"`
	CurrentVersion *int                `json:"currentVersion,omitempty"`
}

// ChangeRequestResponse is one change request.
type ChangeRequestResponse struct {
	ID               uuid.UUID  `json:"id"`
	OpportunityID    uuid.UUID  `json:"opportunityId"`
	Type             string     `json:"type"`
	Urgency          string     `json:"urgency"`
	Description      string     `json:"description"`
	Justification    string     `json:"justification"`
	CommercialImpact bool       `json:"commercialImpact"`
	CostDeltaCents   int64      `json:"costDeltaCents"`
	TimeDelta        string     `json:"timeDelta"`
	Status           string     `json:"status"`
	RequestedBy      string     `json:"requestedBy"`
	RequestedAt      time.Time  `json:"requestedAt"`
	DecidedAt        *time.Time `json:"decidedAt,omitempty"`
	DecisionNote     string     `json:"decisionNote,omitempty"`
	QuotationVersion *int       `json:"quotationVersion,omitempty"`
}

// ChangeRequestListResponse lists change requests in recording order.
type ChangeRequestListResponse struct {
	Items []ChangeRequestResponse `json:"items"`
}

// ChangeApprovalResponse is the result of approving a change request.
type ChangeApprovalResponse struct {
	ChangeRequest ChangeRequestResponse `json:"changeRequest"`
	Revision      *QuotationResponse    `json:"revision,omitempty"`
}

// ChangeImpactResponse projects a change's cost delta onto the current quotation.
type ChangeImpactResponse struct {
	ChangeRequestID        uuid.UUID `json:"changeRequestId"`
	BaseTotalCents         int64     `json:"baseTotalCents"`
	CostDeltaCents         int64     `json:"costDeltaCents"`
	ProjectedTotalCents    int64     `json:"projectedTotalCents"`
	DeltaRatio             float64   `json:"deltaRatio"`
	ProjectedAdvanceCents  int64     `json:"projectedAdvanceCents"`
	ProjectedProgressCents int64     `json:"projectedProgressCents"`
}

// OpportunityResponse is the full opportunity view.
type OpportunityResponse struct {
	ID                 uuid.UUID               `json:"id"`
	ClientName         string                  `json:"clientName"`
	Contact            ContactResponse         `json:"contact"`
	ProjectType        string                  `json:"projectType"`
	Priority           string                  `json:"priority"`
	SalesRep           string                  `json:"salesRep"`
	Stage              string                  `json:"stage"`
	StageDuration      StageDurationResponse   `json:"stageDuration"`
	StageLog           []StageChangeResponse   `json:"stageLog"`
	Panels             PanelsResponse          `json:"panels"`
	Communications     []CommunicationResponse `json:"communications"`
	Documents          []DocumentResponse      `json:"documents"`
	CurrentQuotation   *QuotationResponse      `json:"currentQuotation,omitempty"`
	QuotationVersions  int                     `json:"quotationVersions"`
	PendingChanges     int                     `json:"pendingChanges"`
	WorkOrder          *WorkOrderResponse      `json:"workOrder,omitempty"`
	WorkOrderGenerated bool                    `json:"workOrderGenerated"`
	Closed             bool                    `json:"closed"`
	Revision           int64                   `json:"revision"`
	CreatedAt          time.Time               `json:"createdAt"`
	UpdatedAt          time.Time               `json:"updatedAt"`
}

// OpportunitySummary is the compact list item used by pipeline boards.
type OpportunitySummary struct {
	ID                uuid.UUID `json:"id"`
	ClientName        string    `json:"clientName"`
	ProjectType       string    `json:"projectType"`
	Priority          string    `json:"priority"`
	SalesRep          string    `json:"salesRep"`
	Stage             string    `json:"stage"`
	SLA               string    `json:"sla"`
	DaysInStage       int       `json:"daysInStage"`
	CurrentTotalCents *int64    `json:"currentTotalCents,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// OpportunityListResponse is a page of opportunity summaries.
type OpportunityListResponse struct {
	Items []OpportunitySummary `json:"items"`
}

// QuotationExportResponse points at the exported quotation document.
type QuotationExportResponse struct {
	Version     int    `json:"version"`
	FileKey     string `json:"fileKey"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}
