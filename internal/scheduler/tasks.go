package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TaskQuotationDelivery = "quotes.delivery"

// QuotationDeliveryPayload carries everything needed to deliver a sent
// quotation without reading the opportunity back.
type QuotationDeliveryPayload struct {
	OpportunityID string `json:"opportunityId"`
	Version       int    `json:"version"`
	Channel       string `json:"channel"`
	Message       string `json:"message"`
	ClientName    string `json:"clientName"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	TotalCents    int64  `json:"totalCents"`
}

// TaskID identifies one delivery so a repeated enqueue is rejected by the queue.
func (p QuotationDeliveryPayload) TaskID() string {
	return fmt.Sprintf("%s:%s:v%d:%s", TaskQuotationDelivery, p.OpportunityID, p.Version, p.Channel)
}

func NewQuotationDeliveryTask(payload QuotationDeliveryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotationDelivery, data), nil
}

func ParseQuotationDeliveryPayload(task *asynq.Task) (QuotationDeliveryPayload, error) {
	var payload QuotationDeliveryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return QuotationDeliveryPayload{}, err
	}
	return payload, nil
}
