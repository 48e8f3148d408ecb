package razorpay

import (
	"encoding/json"
	"fmt"
)

const EventPaymentCaptured = "payment.captured"

// WebhookEvent is the subset of a webhook delivery the checkout flow reads.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity Payment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
	CreatedAt int64 `json:"created_at"`
}

func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("razorpay webhook: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("razorpay webhook: missing event")
	}
	return &ev, nil
}

func (ev *WebhookEvent) Payment() *Payment {
	if ev == nil {
		return nil
	}
	p := ev.Payload.Payment.Entity
	if p.ID == "" {
		return nil
	}
	return &p
}
