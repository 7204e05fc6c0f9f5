package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alxtravel/travel-api/internal/metrics"
	"github.com/shopspring/decimal"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 2048

	opInitiate = "initiate"
	opVerify   = "verify"
)

// Config is the immutable gateway configuration.
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client talks to a Chapa-compatible payment API.
type Client struct {
	baseURL string
	secret  string
	timeout time.Duration
	http    *http.Client
	logger  *log.Logger
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.SecretKey,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type InitiateRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Email       string
	FirstName   string
	LastName    string
	TxRef       string
	ReturnURL   string
	CallbackURL string
	Title       string
	Description string
}

type InitiateResult struct {
	CheckoutURL string
	TxRef       string
	Raw         json.RawMessage
}

type VerifyResult struct {
	Status   string
	TxRef    string
	Amount   string
	Currency string
	Raw      json.RawMessage
}

type initiatePayload struct {
	Amount        string        `json:"amount"`
	Currency      string        `json:"currency"`
	Email         string        `json:"email"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	TxRef         string        `json:"tx_ref"`
	ReturnURL     string        `json:"return_url,omitempty"`
	CallbackURL   string        `json:"callback_url,omitempty"`
	Customization customization `json:"customization"`
}

type customization struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type initiateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
		TxRef       string `json:"tx_ref"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string          `json:"status"`
		TxRef    string          `json:"tx_ref"`
		Amount   json.RawMessage `json:"amount"`
		Currency string          `json:"currency"`
	} `json:"data"`
}

// Initiate creates a remote transaction and returns its checkout URL.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	payload := initiatePayload{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		TxRef:       req.TxRef,
		ReturnURL:   req.ReturnURL,
		CallbackURL: req.CallbackURL,
		Customization: customization{
			Title:       orDefault(req.Title, "Property Booking Payment"),
			Description: orDefault(req.Description, "Secure payment for your property booking"),
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return InitiateResult{}, &GatewayError{Op: opInitiate, Err: err}
	}

	c.logger.Printf("gateway initiate tx_ref=%s amount=%s currency=%s", req.TxRef, payload.Amount, req.Currency)

	raw, err := c.do(ctx, opInitiate, http.MethodPost, c.baseURL+"/transaction/initialize", body)
	if err != nil {
		c.logger.Printf("gateway initiate failed tx_ref=%s err=%v", req.TxRef, err)
		return InitiateResult{}, err
	}

	var resp initiateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return InitiateResult{}, &GatewayError{Op: opInitiate, Body: truncate(raw), Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.Data.CheckoutURL == "" {
		return InitiateResult{}, &GatewayError{Op: opInitiate, Body: truncate(raw), Err: errors.New("response missing checkout_url")}
	}

	txRef := resp.Data.TxRef
	if txRef == "" {
		txRef = req.TxRef
	}
	c.logger.Printf("gateway initiate ok tx_ref=%s checkout_url=%s", txRef, resp.Data.CheckoutURL)
	return InitiateResult{
		CheckoutURL: resp.Data.CheckoutURL,
		TxRef:       txRef,
		Raw:         raw,
	}, nil
}

// Verify reads the gateway's view of a transaction. It has no side effects.
func (c *Client) Verify(ctx context.Context, txRef string) (VerifyResult, error) {
	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(txRef)
	raw, err := c.do(ctx, opVerify, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Printf("gateway verify failed tx_ref=%s err=%v", txRef, err)
		return VerifyResult{}, err
	}

	var resp verifyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return VerifyResult{}, &GatewayError{Op: opVerify, Body: truncate(raw), Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.Data.Status == "" {
		return VerifyResult{}, &GatewayError{Op: opVerify, Body: truncate(raw), Err: errors.New("response missing data.status")}
	}

	c.logger.Printf("gateway verify ok tx_ref=%s status=%s", txRef, resp.Data.Status)
	return VerifyResult{
		Status:   resp.Data.Status,
		TxRef:    resp.Data.TxRef,
		Amount:   strings.Trim(string(resp.Data.Amount), `"`),
		Currency: resp.Data.Currency,
		Raw:      raw,
	}, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.ObserveGatewayCall(op, outcome, time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		outcome = "transport_error"
		return nil, &GatewayError{Op: op, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		outcome = "transport_error"
		return nil, &GatewayError{Op: op, StatusCode: res.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		outcome = "http_4xx"
		if res.StatusCode >= 500 {
			outcome = "http_5xx"
		}
		return nil, &GatewayError{Op: op, StatusCode: res.StatusCode, Body: truncate(raw)}
	}

	outcome = "ok"
	return raw, nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody])
	}
	return string(b)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
