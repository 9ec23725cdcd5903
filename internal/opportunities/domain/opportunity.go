package domain

import (
	"fmt"
	"strings"
	"time"

	"climas_backend/internal/changes"
	"climas_backend/internal/quotes"
	"climas_backend/platform/apperr"

	"github.com/google/uuid"
)

// ProjectType distinguishes complete installations from single-piece jobs.
type ProjectType string

const (
	ProjectTypeFullProject ProjectType = "full_project"
	ProjectTypeSinglePiece ProjectType = "single_piece"
)

// Valid reports whether p is a known project type.
func (p ProjectType) Valid() bool {
	return p == ProjectTypeFullProject || p == ProjectTypeSinglePiece
}

// Priority of an opportunity.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Channel of a logged communication.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelPhone    Channel = "phone"
	ChannelMeeting  Channel = "meeting"
	ChannelWhatsApp Channel = "whatsapp"
)

// Valid reports whether c is a known communication channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelPhone, ChannelMeeting, ChannelWhatsApp:
		return true
	}
	return false
}

// Contact is how the client is reached.
type Contact struct {
	Phone         string `json:"phone" validate:"omitempty,max=32"`
	Email         string `json:"email" validate:"omitempty,email,max=254"`
	ContactPerson string `json:"contactPerson" validate:"omitempty,max=200"`
}

// Communication is an immutable log entry.
type Communication struct {
	ID            uuid.UUID `json:"id"`
	Channel       Channel   `json:"channel"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	Author        string    `json:"author"`
	At            time.Time `json:"at"`
	HasAttachment bool      `json:"hasAttachment"`
}

// Document references a file attached to the opportunity.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	FileKey     string    `json:"fileKey"`
	ContentType string    `json:"contentType"`
	AttachedAt  time.Time `json:"attachedAt"`
}

// StageChange is one entry of the stage log.
type StageChange struct {
	From Stage     `json:"from"`
	To   Stage     `json:"to"`
	At   time.Time `json:"at"`
}

// WorkOrder is generated once an approved quotation reaches closure.
type WorkOrder struct {
	ID               uuid.UUID  `json:"id"`
	Reference        string     `json:"reference"`
	QuotationVersion int        `json:"quotationVersion"`
	ScheduledStart   *time.Time `json:"scheduledStart,omitempty"`
	CrewLead         string     `json:"crewLead"`
	Notes            string     `json:"notes"`
	GeneratedAt      time.Time  `json:"generatedAt"`
}

// WorkOrderInput is the caller-supplied part of a work order.
type WorkOrderInput struct {
	ScheduledStart *time.Time
	CrewLead       string
	Notes          string
}

// Intake is the data captured when an opportunity is first registered.
type Intake struct {
	ClientName  string
	Contact     Contact
	ProjectType ProjectType
	Priority    Priority
	SalesRep    string
}

// Opportunity is the aggregate root of the pipeline. Its quotation history
// and change ledger are persisted with it and only change through it.
type Opportunity struct {
	ID                 uuid.UUID       `json:"id"`
	ClientName         string          `json:"clientName"`
	Contact            Contact         `json:"contact"`
	ProjectType        ProjectType     `json:"projectType"`
	Priority           Priority        `json:"priority"`
	SalesRep           string          `json:"salesRep"`
	Stage              Stage           `json:"stage"`
	StageEnteredAt     time.Time       `json:"stageEnteredAt"`
	StageLog           []StageChange   `json:"stageLog"`
	Communications     []Communication `json:"communications"`
	Documents          []Document      `json:"documents"`
	Quotations         quotes.History  `json:"quotations"`
	Changes            changes.Ledger  `json:"changes"`
	WorkOrder          *WorkOrder      `json:"workOrder,omitempty"`
	WorkOrderGenerated bool            `json:"workOrderGenerated"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
	// Revision is bumped by the store on every successful save.
	Revision int64 `json:"revision"`
}

// ValidateIntake checks required opportunity fields.
func ValidateIntake(in Intake) error {
	fields := apperr.FieldErrors{}
	if strings.TrimSpace(in.ClientName) == "" {
		fields.Add("clientName", "required")
	}
	if !in.ProjectType.Valid() {
		fields.Add("projectType", "must be full_project or single_piece")
	}
	if !in.Priority.Valid() {
		fields.Add("priority", "must be urgent, high, medium or low")
	}
	if strings.TrimSpace(in.SalesRep) == "" {
		fields.Add("salesRep", "required")
	}
	if strings.TrimSpace(in.Contact.Phone) == "" && strings.TrimSpace(in.Contact.Email) == "" {
		fields.Add("contact", "phone or email is required")
	}
	return fields.Err("invalid opportunity")
}

// New registers an opportunity at the initial-contact stage.
func New(in Intake, now time.Time) (Opportunity, error) {
	if err := ValidateIntake(in); err != nil {
		return Opportunity{}, err
	}
	return Opportunity{
		ID:             uuid.New(),
		ClientName:     strings.TrimSpace(in.ClientName),
		Contact:        in.Contact,
		ProjectType:    in.ProjectType,
		Priority:       in.Priority,
		SalesRep:       strings.TrimSpace(in.SalesRep),
		Stage:          StageInitialContact,
		StageEnteredAt: now,
		StageLog:       []StageChange{},
		Communications: []Communication{},
		Documents:      []Document{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsClosed reports the terminal business condition: closure with an approved quotation.
func (o *Opportunity) IsClosed() bool {
	if o.Stage != StageClosure {
		return false
	}
	cur, ok := o.Quotations.Current()
	return ok && cur.Status == quotes.StatusApproved
}

// Transition moves the opportunity to any other stage and restarts the stage clock.
func (o *Opportunity) Transition(to Stage, now time.Time) error {
	if !IsKnownStage(to) {
		return apperr.Validation("unknown stage").WithField("stage", string(to))
	}
	if to == o.Stage {
		return apperr.InvalidTransition(fmt.Sprintf("opportunity is already in %s", to)).
			WithField("stage", string(to))
	}
	o.StageLog = append(o.StageLog, StageChange{From: o.Stage, To: to, At: now})
	o.Stage = to
	o.StageEnteredAt = now
	o.touch(now)
	return nil
}

// RegisterClient replaces client details while the client registration panel is open.
func (o *Opportunity) RegisterClient(clientName string, contact Contact, now time.Time) error {
	if err := o.require(PanelClientRegistration); err != nil {
		return err
	}
	fields := apperr.FieldErrors{}
	if strings.TrimSpace(clientName) == "" {
		fields.Add("clientName", "required")
	}
	if strings.TrimSpace(contact.Phone) == "" && strings.TrimSpace(contact.Email) == "" {
		fields.Add("contact", "phone or email is required")
	}
	if err := fields.Err("invalid client registration"); err != nil {
		return err
	}
	o.ClientName = strings.TrimSpace(clientName)
	o.Contact = contact
	o.touch(now)
	return nil
}

// SetPriority changes the opportunity priority.
func (o *Opportunity) SetPriority(p Priority, now time.Time) error {
	if !p.Valid() {
		return apperr.Validation("invalid priority").WithField("priority", string(p))
	}
	o.Priority = p
	o.touch(now)
	return nil
}

// LogCommunication appends an entry to the communications log.
func (o *Opportunity) LogCommunication(c Communication, now time.Time) (Communication, error) {
	fields := apperr.FieldErrors{}
	if !c.Channel.Valid() {
		fields.Add("channel", "must be email, phone, meeting or whatsapp")
	}
	if strings.TrimSpace(c.Subject) == "" && strings.TrimSpace(c.Body) == "" {
		fields.Add("body", "subject or body is required")
	}
	if strings.TrimSpace(c.Author) == "" {
		fields.Add("author", "required")
	}
	if err := fields.Err("invalid communication"); err != nil {
		return Communication{}, err
	}
	c.ID = uuid.New()
	if c.At.IsZero() {
		c.At = now
	}
	o.Communications = append(o.Communications, c)
	o.touch(now)
	return c, nil
}

// AttachDocument records a reference to an uploaded document.
func (o *Opportunity) AttachDocument(d Document, now time.Time) (Document, error) {
	fields := apperr.FieldErrors{}
	if strings.TrimSpace(d.Name) == "" {
		fields.Add("name", "required")
	}
	if strings.TrimSpace(d.FileKey) == "" {
		fields.Add("fileKey", "required")
	}
	if err := fields.Err("invalid document"); err != nil {
		return Document{}, err
	}
	d.ID = uuid.New()
	d.AttachedAt = now
	o.Documents = append(o.Documents, d)
	o.touch(now)
	return d, nil
}

// GenerateWorkOrder issues the work order. It is one-way: once generated it
// cannot be generated again or revoked.
func (o *Opportunity) GenerateWorkOrder(in WorkOrderInput, now time.Time) (WorkOrder, error) {
	if o.WorkOrderGenerated {
		return WorkOrder{}, apperr.InvalidTransition("work order already generated").
			WithField("workOrderGenerated", "true")
	}
	if err := o.require(PanelWorkOrder); err != nil {
		return WorkOrder{}, err
	}
	cur, _ := o.Quotations.Current()
	id := uuid.New()
	wo := WorkOrder{
		ID:               id,
		Reference:        fmt.Sprintf("OT-%d-%s", now.Year(), strings.ToUpper(id.String()[:8])),
		QuotationVersion: cur.Version,
		ScheduledStart:   in.ScheduledStart,
		CrewLead:         strings.TrimSpace(in.CrewLead),
		Notes:            strings.TrimSpace(in.Notes),
		GeneratedAt:      now,
	}
	o.WorkOrder = &wo
	o.WorkOrderGenerated = true
	o.touch(now)
	return wo, nil
}

func (o *Opportunity) touch(now time.Time) {
	o.UpdatedAt = now
}
