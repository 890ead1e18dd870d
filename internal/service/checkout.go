package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/briefbridge/internal/errs"
	"github.com/and161185/briefbridge/internal/payment"
)

// SessionCreator asks the payment processor for a hosted checkout session.
type SessionCreator interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error)
}

// CheckoutService starts payment flows for briefs.
type CheckoutService interface {
	// StartCheckout returns the redirect URL of a new session for briefID.
	// It never records an unlock: only the webhook confirms payment.
	StartCheckout(ctx context.Context, briefID, successURL, cancelURL string) (string, error)
}

type CheckoutServiceImpl struct {
	sessions SessionCreator
	priceID  string
	log      *zap.Logger
}

// NewCheckoutService constructs CheckoutService. A nil creator or empty priceID leaves checkout unconfigured.
func NewCheckoutService(sessions SessionCreator, priceID string, log *zap.Logger) *CheckoutServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutServiceImpl{sessions: sessions, priceID: priceID, log: log}
}

// StartCheckout validates arguments, then creates a single-item session tagged with briefID.
func (s *CheckoutServiceImpl) StartCheckout(ctx context.Context, briefID, successURL, cancelURL string) (string, error) {
	if strings.TrimSpace(briefID) == "" || strings.TrimSpace(successURL) == "" || strings.TrimSpace(cancelURL) == "" {
		return "", fmt.Errorf("%w: missing briefId/successUrl/cancelUrl", errs.ErrValidation)
	}
	if s.sessions == nil || s.priceID == "" {
		return "", fmt.Errorf("%w: payment processor", errs.ErrNotConfigured)
	}

	sess, err := s.sessions.CreateSession(ctx, payment.SessionRequest{
		BriefID:    briefID,
		PriceID:    s.priceID,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		return "", fmt.Errorf("create session for brief %s: %w", briefID, err)
	}
	s.log.Info("checkout session created", zap.String("brief_id", briefID), zap.String("session_id", sess.ID))
	return sess.URL, nil
}
