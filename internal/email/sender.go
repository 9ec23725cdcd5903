package email

import (
	"context"
)

// QuotationEmail is a quotation delivery addressed to the client's contact.
type QuotationEmail struct {
	To            string
	ClientName    string
	ContactPerson string
	Reference     string
	Version       int
	TotalCents    int64
	Message       string
}

type Sender interface {
	SendQuotationEmail(ctx context.Context, msg QuotationEmail) error
}

// NoopSender drops every message. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendQuotationEmail(context.Context, QuotationEmail) error {
	return nil
}
