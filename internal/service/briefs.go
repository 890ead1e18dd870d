// Package service contains application services for briefs, checkout and unlocks.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/briefbridge/internal/errs"
	"github.com/and161185/briefbridge/internal/limiter"
	"github.com/and161185/briefbridge/internal/model"
	"github.com/and161185/briefbridge/internal/repository"
)

// NotifySubject is the subject line of the operator email for a new brief.
const NotifySubject = "New brief posted"

// Notifier delivers a plain-text summary to the operator.
type Notifier interface {
	Notify(ctx context.Context, subject, text string) error
}

// BriefService defines operations over submitted briefs.
type BriefService interface {
	// Create validates and stores a brief, then notifies the operator in the background.
	Create(ctx context.Context, in model.BriefInput, clientIP string) (model.Brief, error)
	// List returns the most recent briefs, newest first.
	List(ctx context.Context) ([]model.Brief, error)
	// UnlockStatus reports whether a brief has been paid for.
	UnlockStatus(ctx context.Context, briefID string) (bool, error)
}

// RateLimitedError carries the wait before a client may submit again.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Unwrap() error { return errs.ErrRateLimited }

type BriefServiceImpl struct {
	store         repository.Store
	notifier      Notifier
	lim           limiter.Limiter
	log           *zap.Logger
	listLimit     int
	notifyTimeout time.Duration

	now   func() time.Time
	newID func() (uuid.UUID, error)

	pending sync.WaitGroup
}

// NewBriefService constructs BriefService. A nil notifier disables email; a nil limiter allows all.
func NewBriefService(
	store repository.Store, notifier Notifier, lim limiter.Limiter, log *zap.Logger,
	listLimit int, notifyTimeout time.Duration,
) *BriefServiceImpl {
	if lim == nil {
		lim = limiter.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if listLimit <= 0 {
		listLimit = 100
	}
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &BriefServiceImpl{
		store:         store,
		notifier:      notifier,
		lim:           lim,
		log:           log,
		listLimit:     listLimit,
		notifyTimeout: notifyTimeout,
		now:           time.Now,
		newID:         uuid.NewV7,
	}
}

// Create validates input and delegates to the store.
// Validation rules:
// - title not blank
// - details not blank
// Budget bounds are stored as given, in any order.
func (s *BriefServiceImpl) Create(ctx context.Context, in model.BriefInput, clientIP string) (model.Brief, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Brief{}, fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	if strings.TrimSpace(in.Details) == "" {
		return model.Brief{}, fmt.Errorf("%w: details is required", errs.ErrValidation)
	}

	allowed, wait, err := s.lim.Allow(ctx, limiter.HashIP(clientIP))
	switch {
	case err != nil:
		s.log.Warn("rate limiter failed; allowing", zap.Error(err))
	case !allowed:
		return model.Brief{}, &RateLimitedError{RetryAfter: wait}
	}

	id, err := s.newID()
	if err != nil {
		return model.Brief{}, fmt.Errorf("generate id: %w", err)
	}
	created, err := s.store.InsertBrief(ctx, model.NewBrief(id.String(), s.now().UnixMilli(), in))
	if err != nil {
		return model.Brief{}, fmt.Errorf("insert brief: %w", err)
	}

	s.notifyAsync(ctx, created)
	return created, nil
}

// notifyAsync sends the summary detached from the request; failures stop at this boundary.
func (s *BriefServiceImpl) notifyAsync(ctx context.Context, b model.Brief) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("notifier panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("brief_id", b.ID),
				)
			}
		}()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(nctx, NotifySubject, FormatSummary(b)); err != nil {
			if !errors.Is(err, errs.ErrNotifier) {
				err = fmt.Errorf("%w: %w", errs.ErrNotifier, err)
			}
			s.log.Warn("notify failed", zap.String("brief_id", b.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (s *BriefServiceImpl) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns up to listLimit briefs, newest first.
func (s *BriefServiceImpl) List(ctx context.Context) ([]model.Brief, error) {
	out, err := s.store.ListBriefs(ctx, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("list briefs: %w", err)
	}
	if out == nil {
		out = []model.Brief{}
	}
	return out, nil
}

// UnlockStatus reports whether briefID has an unlock record.
func (s *BriefServiceImpl) UnlockStatus(ctx context.Context, briefID string) (bool, error) {
	if strings.TrimSpace(briefID) == "" {
		return false, fmt.Errorf("%w: briefId is required", errs.ErrValidation)
	}
	ok, err := s.store.HasUnlock(ctx, briefID)
	if err != nil {
		return false, fmt.Errorf("has unlock: %w", err)
	}
	return ok, nil
}

// FormatSummary renders the operator email body; absent fields show as "-".
func FormatSummary(b model.Brief) string {
	lines := []string{
		"Title: " + b.Title,
		"Category: " + orDash(b.Category),
		"Budget: " + intOrDash(b.BudgetMin) + " - " + intOrDash(b.BudgetMax),
		"Timeline: " + orDash(b.Timeline),
		"Name: " + orDash(b.Name),
		"Email: " + orDash(b.Email),
		"",
		b.Details,
	}
	return strings.Join(lines, "\n")
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func intOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}
