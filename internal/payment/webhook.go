package payment

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/and161185/briefbridge/internal/errs"
)

// EventCheckoutCompleted is the only event type that unlocks a brief.
const EventCheckoutCompleted = string(stripe.EventTypeCheckoutSessionCompleted)

// Event is the verified subset of a Stripe event the unlock path needs.
type Event struct {
	ID      string
	Type    string
	BriefID string // from session metadata; empty if absent or not a checkout event
}

// WebhookVerifier checks Stripe-Signature headers against the endpoint secret.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier constructs a verifier for the endpoint signing secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify authenticates the exact raw payload and decodes it. Only authentication
// failures are errors; an undecodable session yields an Event with no BriefID.
func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", errs.ErrSignature, err)
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Type != stripe.EventTypeCheckoutSessionCompleted || ev.Data == nil {
		return out, nil
	}
	var sess struct {
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(ev.Data.Raw, &sess); err == nil {
		out.BriefID = sess.Metadata[MetadataBriefID]
	}
	return out, nil
}
