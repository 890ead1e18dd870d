package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/and161185/briefbridge/internal/model"
)

// apiClient calls the BriefBridge HTTP API.
type apiClient struct {
	rc *resty.Client
}

func newAPIClient(baseURL, bearer string, timeout time.Duration) *apiClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if bearer != "" {
		c.SetAuthToken(bearer)
	}
	return &apiClient{rc: c}
}

type apiError struct {
	Error string `json:"error"`
}

// statusError is returned for any non-2xx response.
type statusError struct {
	Code int
	Msg  string
}

func (e *statusError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Msg)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var apiErr apiError
	req := c.rc.R().SetContext(ctx).SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &statusError{Code: resp.StatusCode(), Msg: apiErr.Error}
	}
	return nil
}

func (c *apiClient) Submit(ctx context.Context, in model.BriefInput) (model.Brief, error) {
	var out struct {
		Created model.Brief `json:"created"`
	}
	err := c.do(ctx, "POST", "/api/briefs", map[string]any{"brief": in}, &out)
	return out.Created, err
}

func (c *apiClient) List(ctx context.Context) ([]model.Brief, error) {
	var out struct {
		Briefs []model.Brief `json:"briefs"`
	}
	err := c.do(ctx, "GET", "/api/briefs", nil, &out)
	return out.Briefs, err
}

func (c *apiClient) UnlockStatus(ctx context.Context, briefID string) (bool, error) {
	if briefID == "" {
		return false, errors.New("empty brief id")
	}
	var out struct {
		Unlocked bool `json:"unlocked"`
	}
	err := c.do(ctx, "GET", "/api/briefs/"+briefID+"/unlock", nil, &out)
	return out.Unlocked, err
}

func (c *apiClient) Checkout(ctx context.Context, briefID, successURL, cancelURL string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.do(ctx, "POST", "/api/create-checkout-session", map[string]string{
		"briefId":    briefID,
		"successUrl": successURL,
		"cancelUrl":  cancelURL,
	}, &out)
	return out.URL, err
}
