package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SkillBinder/GrandFinale/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

type StripeClient struct {
	SecretKey     string
	WebhookSecret string
	APIBaseURL    string

	HTTPClient *http.Client
}

// CheckoutSessionParams describes one hosted checkout. Mode is "subscription"
// for recurring plans and "payment" for lifetime, couples and token prices.
type CheckoutSessionParams struct {
	PriceID           string
	Quantity          int
	Mode              string
	CustomerID        string
	CustomerEmail     string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
	Metadata          map[string]string
}

type StripeCheckoutSession struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	Mode              string            `json:"mode"`
	CustomerID        string            `json:"-"`
	ClientReferenceID string            `json:"client_reference_id"`
	PaymentIntentID   string            `json:"-"`
	SubscriptionID    string            `json:"-"`
	AmountTotal       int64             `json:"amount_total"`
	Metadata          map[string]string `json:"metadata"`
}

type StripePortalSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// StripeSubscription is the flattened subset of a subscription object the
// sync path needs.
type StripeSubscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	Interval           string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// StripeEvent is the envelope of one webhook delivery.
type StripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		WebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		APIBaseURL:    strings.TrimRight(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateCheckoutSession creates a hosted checkout session and returns its
// redirect URL.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*StripeCheckoutSession, error) {
	if strings.TrimSpace(params.PriceID) == "" {
		return nil, errors.New("price id is required")
	}
	if strings.TrimSpace(params.SuccessURL) == "" || strings.TrimSpace(params.CancelURL) == "" {
		return nil, errors.New("success and cancel URLs are required")
	}
	mode := strings.TrimSpace(params.Mode)
	if mode == "" {
		mode = "subscription"
	}
	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	form := url.Values{}
	form.Set("mode", mode)
	form.Set("line_items[0][price]", strings.TrimSpace(params.PriceID))
	form.Set("line_items[0][quantity]", strconv.Itoa(quantity))
	form.Set("success_url", strings.TrimSpace(params.SuccessURL))
	form.Set("cancel_url", strings.TrimSpace(params.CancelURL))
	if params.ClientReferenceID != "" {
		form.Set("client_reference_id", params.ClientReferenceID)
	}
	if params.CustomerID != "" {
		form.Set("customer", params.CustomerID)
	} else if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	body, err := c.post(ctx, "/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	return parseCheckoutSession(body)
}

// CreatePortalSession creates a billing-portal session for subscription
// self-management.
func (c *StripeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*StripePortalSession, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, errors.New("customer id is required")
	}

	form := url.Values{}
	form.Set("customer", strings.TrimSpace(customerID))
	if strings.TrimSpace(returnURL) != "" {
		form.Set("return_url", strings.TrimSpace(returnURL))
	}

	body, err := c.post(ctx, "/billing_portal/sessions", form)
	if err != nil {
		return nil, err
	}

	var out StripePortalSession
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.URL) == "" {
		return nil, errors.New("stripe portal session returned no url")
	}
	return &out, nil
}

// GetSubscription fetches one subscription by ID.
func (c *StripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*StripeSubscription, error) {
	id := strings.TrimSpace(subscriptionID)
	if id == "" {
		return nil, errors.New("subscription id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/subscriptions/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe subscription fetch failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return ParseSubscriptionObject(body)
}

func (c *StripeClient) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe request %s failed: status=%d body=%s", path, resp.StatusCode, string(body))
	}
	return body, nil
}

// ParseStripeEvent decodes a webhook envelope.
func ParseStripeEvent(payload []byte) (*StripeEvent, error) {
	var event StripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	if strings.TrimSpace(event.Type) == "" {
		return nil, errors.New("stripe event payload missing type")
	}
	return &event, nil
}

// ParseSubscriptionObject flattens a subscription object from the API or a
// webhook event.
func ParseSubscriptionObject(raw []byte) (*StripeSubscription, error) {
	type rawSubscription struct {
		ID                 string `json:"id"`
		Customer           string `json:"customer"`
		Status             string `json:"status"`
		CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
		CurrentPeriodStart int64  `json:"current_period_start"`
		CurrentPeriodEnd   int64  `json:"current_period_end"`
		Items              struct {
			Data []struct {
				Price struct {
					ID        string `json:"id"`
					Recurring struct {
						Interval string `json:"interval"`
					} `json:"recurring"`
				} `json:"price"`
			} `json:"data"`
		} `json:"items"`
	}

	var sub rawSubscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sub.ID) == "" {
		return nil, errors.New("stripe subscription object missing id")
	}

	out := &StripeSubscription{
		ID:                strings.TrimSpace(sub.ID),
		CustomerID:        strings.TrimSpace(sub.Customer),
		Status:            strings.TrimSpace(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if len(sub.Items.Data) > 0 {
		out.PriceID = strings.TrimSpace(sub.Items.Data[0].Price.ID)
		out.Interval = strings.TrimSpace(sub.Items.Data[0].Price.Recurring.Interval)
	}
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0)
		out.CurrentPeriodStart = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0)
		out.CurrentPeriodEnd = &t
	}
	return out, nil
}

// ParseCheckoutSessionObject flattens a checkout.session object from a
// webhook event.
func ParseCheckoutSessionObject(raw []byte) (*StripeCheckoutSession, error) {
	type rawSession struct {
		ID                string            `json:"id"`
		URL               string            `json:"url"`
		Mode              string            `json:"mode"`
		Customer          string            `json:"customer"`
		ClientReferenceID string            `json:"client_reference_id"`
		PaymentIntent     string            `json:"payment_intent"`
		Subscription      string            `json:"subscription"`
		AmountTotal       int64             `json:"amount_total"`
		Metadata          map[string]string `json:"metadata"`
	}

	var sess rawSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sess.ID) == "" {
		return nil, errors.New("stripe checkout session missing id")
	}
	return &StripeCheckoutSession{
		ID:                strings.TrimSpace(sess.ID),
		URL:               strings.TrimSpace(sess.URL),
		Mode:              strings.TrimSpace(sess.Mode),
		CustomerID:        strings.TrimSpace(sess.Customer),
		ClientReferenceID: strings.TrimSpace(sess.ClientReferenceID),
		PaymentIntentID:   strings.TrimSpace(sess.PaymentIntent),
		SubscriptionID:    strings.TrimSpace(sess.Subscription),
		AmountTotal:       sess.AmountTotal,
		Metadata:          sess.Metadata,
	}, nil
}

func parseCheckoutSession(body []byte) (*StripeCheckoutSession, error) {
	sess, err := ParseCheckoutSessionObject(body)
	if err != nil {
		return nil, err
	}
	if sess.URL == "" {
		return nil, errors.New("stripe checkout session returned no url")
	}
	return sess, nil
}
