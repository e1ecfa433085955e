// Package provider talks to the banking provider: the outbound business API
// (counterparties, payment drafts, account details) and the inbound webhook
// event payloads.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/logger"
)

// API is the subset of the provider business API the sync tasks use.
type API interface {
	CreateCounterparty(ctx context.Context, req CounterpartyRequest) (*Counterparty, error)
	CreatePaymentDraft(ctx context.Context, req PaymentDraftRequest) (*PaymentDraft, error)
	GetAccountBankDetails(ctx context.Context, accountID string) ([]AccountBankDetails, error)
}

// Client communicates with the provider business API. Calls go through a
// circuit breaker so an unavailable provider fails fast; client errors do
// not trip it.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
}

// NewClient creates a provider API client.
func NewClient(baseURL, accessToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "provider",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, apperrors.ErrProviderServer)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Get().Warnw("provider circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// CreateCounterparty registers a beneficiary and returns its provider id.
func (c *Client) CreateCounterparty(ctx context.Context, req CounterpartyRequest) (*Counterparty, error) {
	var out Counterparty
	if err := c.do(ctx, http.MethodPost, "/counterparty", req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, apperrors.Wrap(apperrors.ErrProviderServer, errors.New("counterparty response has no id"))
	}
	return &out, nil
}

// CreatePaymentDraft submits a scheduled payment draft.
func (c *Client) CreatePaymentDraft(ctx context.Context, req PaymentDraftRequest) (*PaymentDraft, error) {
	var out PaymentDraft
	if err := c.do(ctx, http.MethodPost, "/payment-drafts", req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, apperrors.Wrap(apperrors.ErrProviderServer, errors.New("payment draft response has no id"))
	}
	return &out, nil
}

// GetAccountBankDetails returns the routing details of a provider account.
func (c *Client) GetAccountBankDetails(ctx context.Context, accountID string) ([]AccountBankDetails, error) {
	var out []AccountBankDetails
	if err := c.do(ctx, http.MethodGet, "/accounts/"+accountID+"/bank-details", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.Wrap(apperrors.ErrProviderServer, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("marshaling request: %w", err))
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("creating request: %w", err))
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrProviderServer, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return statusError(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrProviderServer, fmt.Errorf("decoding %s response: %w", path, err))
	}
	return nil
}

// statusError maps a non-2xx response onto the provider error taxonomy.
func statusError(method, path string, resp *http.Response) error {
	var payload struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &payload)

	cause := fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	if payload.Message != "" {
		cause = fmt.Errorf("%w: %s", cause, payload.Message)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.Wrap(apperrors.ErrProviderAuth, cause)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return apperrors.Wrap(apperrors.ErrProviderClient, cause)
	default:
		return apperrors.Wrap(apperrors.ErrProviderServer, cause)
	}
}
