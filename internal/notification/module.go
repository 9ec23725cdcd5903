// Package notification turns quotation events into client deliveries.
// Events are queued as tasks so delivery retries never block the request
// that sent the quotation.
package notification

import (
	"context"
	"errors"
	"fmt"

	"climas_backend/internal/email"
	"climas_backend/internal/events"
	"climas_backend/internal/pdf"
	"climas_backend/internal/quotes"
	"climas_backend/internal/scheduler"
	"climas_backend/platform/logger"
	"climas_backend/platform/metrics"

	"github.com/google/uuid"
)

// ErrNoRecipient is returned when the client contact lacks the address the
// requested channel needs. Retrying cannot fix it.
var ErrNoRecipient = fmt.Errorf("%w: no recipient for delivery channel", scheduler.ErrUndeliverable)

var errWhatsAppDisabled = errors.New("whatsapp not configured")

// WhatsAppSender sends WhatsApp messages.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

// Module subscribes to quotation events and performs the deliveries.
type Module struct {
	queue    scheduler.DeliveryScheduler
	sender   email.Sender
	whatsapp WhatsAppSender
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// New creates the module. Without a queue deliveries run inline in the
// event handler.
func New(sender email.Sender, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, log: log}
}

// SetScheduler routes deliveries through the task queue.
func (m *Module) SetScheduler(queue scheduler.DeliveryScheduler) { m.queue = queue }

// SetWhatsAppSender enables the WhatsApp channel.
func (m *Module) SetWhatsAppSender(sender WhatsAppSender) { m.whatsapp = sender }

// SetMetrics records delivery outcomes.
func (m *Module) SetMetrics(mt *metrics.Metrics) { m.metrics = mt }

func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.QuotationSent{}.EventName(), m)
	bus.Subscribe(events.QuotationApproved{}.EventName(), m)
	bus.Subscribe(events.WorkOrderGenerated{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.QuotationSent:
		return m.handleQuotationSent(ctx, e)
	case events.QuotationApproved:
		m.log.WithContext(ctx).Info("quotation approved",
			"opportunityId", e.OpportunityID, "version", e.Version, "totalCents", e.TotalCents)
	case events.WorkOrderGenerated:
		m.log.WithContext(ctx).Info("work order generated",
			"opportunityId", e.OpportunityID, "reference", e.Reference, "quotationVersion", e.QuotationVersion)
	}
	return nil
}

func (m *Module) handleQuotationSent(ctx context.Context, e events.QuotationSent) error {
	payload := scheduler.QuotationDeliveryPayload{
		OpportunityID: e.OpportunityID.String(),
		Version:       e.Version,
		Channel:       e.Channel,
		Message:       e.Message,
		ClientName:    e.ClientName,
		ContactPerson: e.ContactPerson,
		Email:         e.Email,
		Phone:         e.Phone,
		TotalCents:    e.TotalCents,
	}

	if m.queue == nil {
		return m.DeliverQuotation(ctx, payload)
	}
	if err := m.queue.EnqueueQuotationDelivery(ctx, payload); err != nil {
		m.log.WithContext(ctx).Error("failed to enqueue quotation delivery",
			"opportunityId", e.OpportunityID, "version", e.Version, "error", err)
		return err
	}
	return nil
}

// DeliverQuotation sends a quotation over its channel. It is the task
// handler of the scheduler worker.
func (m *Module) DeliverQuotation(ctx context.Context, p scheduler.QuotationDeliveryPayload) error {
	err := m.deliver(ctx, p)
	log := m.log.WithContext(ctx)
	if errors.Is(err, errWhatsAppDisabled) {
		m.metrics.Delivery(p.Channel, metrics.DeliverySkipped)
		log.Warn("whatsapp not configured, dropping delivery", "opportunityId", p.OpportunityID, "version", p.Version)
		return nil
	}
	if err != nil {
		m.metrics.Delivery(p.Channel, metrics.DeliveryFailed)
		log.Error("quotation delivery failed",
			"opportunityId", p.OpportunityID, "version", p.Version, "channel", p.Channel, "error", err)
		return err
	}
	m.metrics.Delivery(p.Channel, metrics.DeliveryOK)
	log.Info("quotation delivered", "opportunityId", p.OpportunityID, "version", p.Version, "channel", p.Channel)
	return nil
}

func (m *Module) deliver(ctx context.Context, p scheduler.QuotationDeliveryPayload) error {
	reference := p.OpportunityID
	if id, err := uuid.Parse(p.OpportunityID); err == nil {
		reference = quotes.Reference(id, p.Version)
	}

	switch quotes.DeliveryChannel(p.Channel) {
	case quotes.DeliveryEmail:
		if p.Email == "" {
			return ErrNoRecipient
		}
		return m.sender.SendQuotationEmail(ctx, email.QuotationEmail{
			To:            p.Email,
			ClientName:    p.ClientName,
			ContactPerson: p.ContactPerson,
			Reference:     reference,
			Version:       p.Version,
			TotalCents:    p.TotalCents,
			Message:       p.Message,
		})
	case quotes.DeliveryWhatsApp:
		if p.Phone == "" {
			return ErrNoRecipient
		}
		if m.whatsapp == nil {
			return errWhatsAppDisabled
		}
		return m.whatsapp.SendMessage(ctx, p.Phone, whatsAppText(p, reference))
	default:
		return fmt.Errorf("%w: unknown delivery channel %q", scheduler.ErrUndeliverable, p.Channel)
	}
}

func whatsAppText(p scheduler.QuotationDeliveryPayload, reference string) string {
	greeting := p.ContactPerson
	if greeting == "" {
		greeting = p.ClientName
	}
	text := fmt.Sprintf("Hola %s, le compartimos la cotización %s por un total de %s.",
		greeting, reference, pdf.FormatMXN(p.TotalCents))
	if p.Message != "" {
		text += "\n\n" + p.Message
	}
	return text
}
