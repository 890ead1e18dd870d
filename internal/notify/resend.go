// Package notify delivers operator notifications by email through the Resend HTTP API.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/and161185/briefbridge/internal/errs"
)

// Resend sends plain-text emails to a fixed recipient.
type Resend struct {
	client *resty.Client
	from   string
	to     string
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// NewResend constructs a notifier. baseURL is normally https://api.resend.com.
func NewResend(baseURL, apiKey, from, to string, timeout time.Duration) *Resend {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Resend{client: c, from: from, to: to}
}

// Notify sends subject/text to the configured recipient.
func (r *Resend) Notify(ctx context.Context, subject, text string) error {
	var out sendResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(&sendRequest{From: r.from, To: []string{r.to}, Subject: subject, Text: text}).
		SetResult(&out).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("%w: resend request: %v", errs.ErrNotifier, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: resend status %d: %s", errs.ErrNotifier, resp.StatusCode(), resp.String())
	}
	return nil
}
