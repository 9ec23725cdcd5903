package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"climas_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type recordingDeliverer struct {
	got []QuotationDeliveryPayload
	err error
}

func (r *recordingDeliverer) DeliverQuotation(_ context.Context, p QuotationDeliveryPayload) error {
	r.got = append(r.got, p)
	return r.err
}

func TestQuotationDeliveryTaskCarriesPayload(t *testing.T) {
	in := QuotationDeliveryPayload{OpportunityID: "opp-1", Version: 2, Channel: "email", Email: "a@b.mx", TotalCents: 1000000}
	task, err := NewQuotationDeliveryTask(in)
	if err != nil {
		t.Fatalf("NewQuotationDeliveryTask: %v", err)
	}
	if task.Type() != TaskQuotationDelivery {
		t.Fatalf("type = %s", task.Type())
	}

	d := &recordingDeliverer{}
	w := &Worker{deliverer: d, log: logger.Discard()}
	if err := w.handleQuotationDelivery(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(d.got) != 1 || d.got[0] != in {
		t.Fatalf("delivered %+v", d.got)
	}
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	w := &Worker{deliverer: &recordingDeliverer{}, log: logger.Discard()}
	err := w.handleQuotationDelivery(context.Background(), asynq.NewTask(TaskQuotationDelivery, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestUndeliverablePayloadSkipsRetry(t *testing.T) {
	task, err := NewQuotationDeliveryTask(QuotationDeliveryPayload{OpportunityID: "opp-1", Version: 1, Channel: "email"})
	if err != nil {
		t.Fatalf("NewQuotationDeliveryTask: %v", err)
	}

	w := &Worker{deliverer: &recordingDeliverer{err: fmt.Errorf("%w: no email", ErrUndeliverable)}, log: logger.Discard()}
	if err := w.handleQuotationDelivery(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}

	transient := errors.New("smtp timeout")
	w = &Worker{deliverer: &recordingDeliverer{err: transient}, log: logger.Discard()}
	err = w.handleQuotationDelivery(context.Background(), task)
	if !errors.Is(err, transient) || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("transient failures must be retried, got %v", err)
	}
}

func TestTaskIDDistinguishesChannelAndVersion(t *testing.T) {
	a := QuotationDeliveryPayload{OpportunityID: "x", Version: 1, Channel: "email"}
	b := a
	b.Channel = "whatsapp"
	c := a
	c.Version = 2
	if a.TaskID() == b.TaskID() || a.TaskID() == c.TaskID() {
		t.Fatal("task ids must differ per channel and version")
	}
	if a.TaskID() != (QuotationDeliveryPayload{OpportunityID: "x", Version: 1, Channel: "email", Message: "hola"}).TaskID() {
		t.Fatal("task id must not depend on the message")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	if err := c.EnqueueQuotationDelivery(context.Background(), QuotationDeliveryPayload{}); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
