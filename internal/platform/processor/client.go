package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lojinha-pet/billing/pkg/config"
)

// Client talks to the external payment processor. Implementations must not
// touch local billing state; local records are driven exclusively by the
// processor's webhook events.
type Client interface {
	// CancelAtPeriodEnd instructs the processor to stop auto-renewing the
	// subscription at the end of the current period.
	CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error
	// CreateCheckoutSession returns the hosted payment page for a tenant
	// and plan item.
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error)
}

type CheckoutSessionRequest struct {
	TenantKey string `json:"tenant_key"`
	PlanKey   string `json:"plan_key"`
	ItemID    string `json:"item_id"`
}

type CheckoutSession struct {
	URL string `json:"url"`
}

// HTTPClient is the REST implementation of Client.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.SugaredLogger

	successURL string
	cancelURL  string
}

func NewHTTPClient(cfg *config.Config, log *zap.SugaredLogger) *HTTPClient {
	return &HTTPClient{
		baseURL:    cfg.Processor.BaseURL,
		apiKey:     cfg.Processor.APIKey,
		http:       &http.Client{Timeout: 15 * time.Second},
		log:        log,
		successURL: cfg.Processor.SuccessURL,
		cancelURL:  cfg.Processor.CancelURL,
	}
}

func (c *HTTPClient) CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error {
	if subscriptionRef == "" {
		return fmt.Errorf("subscription ref is required")
	}
	body := map[string]any{"cancel_at_period_end": true}
	path := fmt.Sprintf("/v1/subscriptions/%s", subscriptionRef)
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("failed to schedule cancellation: %w", err)
	}
	c.log.Infow("processor_cancel_scheduled", "subscription_ref", subscriptionRef)
	return nil
}

func (c *HTTPClient) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error) {
	body := map[string]any{
		"item_id":     req.ItemID,
		"success_url": c.successURL,
		"cancel_url":  c.cancelURL,
		"metadata": map[string]string{
			"tenant_key": req.TenantKey,
			"plan_key":   req.PlanKey,
		},
	}
	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("processor returned no checkout url")
	}
	return &session, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("processor responded %d", res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return err
		}
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, log *zap.SugaredLogger) Client {
		return NewHTTPClient(cfg, log)
	}),
)
