package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/briefbridge/internal/errs"
	"github.com/and161185/briefbridge/internal/payment"
	"github.com/and161185/briefbridge/internal/repository"
)

// EventVerifier authenticates a raw webhook body against its signature header.
type EventVerifier interface {
	Verify(payload []byte, sigHeader string) (payment.Event, error)
}

// Outcome describes how a verified event was processed. Every outcome is acknowledged.
type Outcome string

const (
	OutcomeUnlocked  Outcome = "unlocked"  // first unlock recorded
	OutcomeDuplicate Outcome = "duplicate" // brief was already unlocked
	OutcomeNoBrief   Outcome = "no_brief"  // completed checkout without a brief id
	OutcomeIgnored   Outcome = "ignored"   // event type is not a completed checkout
)

// UnlockService turns verified payment events into unlock records.
type UnlockService interface {
	// HandleWebhook verifies the exact raw payload and records the unlock at most once.
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (Outcome, error)
}

type UnlockServiceImpl struct {
	verifier EventVerifier
	unlocks  repository.UnlockRepository
	log      *zap.Logger
	now      func() time.Time
}

// NewUnlockService constructs UnlockService. A nil verifier leaves the webhook unconfigured.
func NewUnlockService(verifier EventVerifier, unlocks repository.UnlockRepository, log *zap.Logger) *UnlockServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &UnlockServiceImpl{verifier: verifier, unlocks: unlocks, log: log, now: time.Now}
}

// HandleWebhook implements UnlockService. Store mutation happens only after successful verification.
// Whether briefID names a stored brief is not checked.
func (s *UnlockServiceImpl) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (Outcome, error) {
	if s.verifier == nil {
		return "", fmt.Errorf("%w: webhook secret", errs.ErrNotConfigured)
	}
	ev, err := s.verifier.Verify(payload, sigHeader)
	if err != nil {
		s.log.Warn("webhook rejected", zap.Error(err))
		return "", err
	}

	if ev.Type != payment.EventCheckoutCompleted {
		s.log.Debug("webhook ignored", zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return OutcomeIgnored, nil
	}
	if ev.BriefID == "" {
		s.log.Info("checkout completed without brief id", zap.String("event_id", ev.ID))
		return OutcomeNoBrief, nil
	}

	created, err := s.unlocks.InsertUnlockIfAbsent(ctx, ev.BriefID, s.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("record unlock for brief %s (event %s): %w", ev.BriefID, ev.ID, err)
	}
	if !created {
		s.log.Info("brief already unlocked", zap.String("brief_id", ev.BriefID), zap.String("event_id", ev.ID))
		return OutcomeDuplicate, nil
	}
	s.log.Info("brief unlocked", zap.String("brief_id", ev.BriefID), zap.String("event_id", ev.ID))
	return OutcomeUnlocked, nil
}
