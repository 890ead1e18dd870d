// Package payment adapts the Stripe SDK to the checkout and webhook needs of the services.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// MetadataBriefID is the session metadata key that correlates a checkout with a brief.
const MetadataBriefID = "briefId"

// SessionRequest describes a single-item, single-use payment session for one brief.
type SessionRequest struct {
	BriefID    string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// Session is the processor's answer; URL is where the client is redirected.
type Session struct {
	ID  string
	URL string
}

// StripeCheckout creates hosted checkout sessions.
type StripeCheckout struct {
	api *client.API
}

// NewStripeCheckout constructs a client for secretKey. backends may be nil for the live API.
func NewStripeCheckout(secretKey string, backends *stripe.Backends) *StripeCheckout {
	return &StripeCheckout{api: client.New(secretKey, backends)}
}

// CreateSession asks Stripe for a payment-mode session carrying the brief id as metadata.
func (s *StripeCheckout) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata:   map[string]string{MetadataBriefID: req.BriefID},
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe create session: %w", err)
	}
	if sess.URL == "" {
		return Session{}, errors.New("stripe create session: empty url")
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}
