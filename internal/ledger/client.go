package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/glyphlabs/glyph/internal/config"
	"github.com/glyphlabs/glyph/internal/metrics"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

const (
	// defaultTimeout is the default HTTP request timeout.
	defaultTimeout = 30 * time.Second

	// DefaultMaxPayloadBytes is the maximum payload accepted for upload.
	DefaultMaxPayloadBytes int64 = 10 << 20

	// maxErrorBody bounds how much of an error response body is read.
	maxErrorBody int64 = 64 << 10

	// Endpoint names used for per-endpoint rate limiting.
	endpointSubmit = "submit"
	endpointData   = "data"
	endpointStatus = "status"
)

// ClientOptions contains optional configuration for the ledger client.
type ClientOptions struct {
	// GatewayURL overrides the default gateway endpoint.
	GatewayURL string

	// Timeout bounds each HTTP call.
	Timeout time.Duration

	// Retry overrides the default submission retry policy.
	Retry RetryConfig

	// RatePerSecond and Burst configure gateway rate limiting.
	RatePerSecond float64
	Burst         int

	// MaxPayloadBytes overrides the upload payload size limit.
	MaxPayloadBytes int64

	// Logger receives retry and rejection diagnostics.
	Logger *config.Logger
}

// Client provides content-addressed ledger operations against an HTTP
// gateway.
type Client struct {
	gatewayURL string
	maxPayload int64
	retryCfg   RetryConfig
	limiter    *RateLimiter
	logger     *config.Logger
	httpClient *http.Client
}

// NewClient creates a new ledger client.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		gatewayURL: config.DefaultGatewayURL,
		maxPayload: DefaultMaxPayloadBytes,
		retryCfg:   DefaultRetryConfig(),
		limiter:    DefaultRateLimiter(),
		logger:     config.NullLogger(),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	if opts != nil {
		c.applyOptions(opts)
	}

	return c
}

// submitRequest is the wire shape of a transaction submission.
// Tags marshal as a JSON array, preserving the supplied order.
type submitRequest struct {
	Data      string `json:"data"`
	Tags      []Tag  `json:"tags"`
	Owner     string `json:"owner"`
	Signature string `json:"signature"`
	Digest    string `json:"digest"`
}

// submitResponse is the wire shape of a successful submission.
type submitResponse struct {
	ID string `json:"id"`
}

// statusResponse is the wire shape of a status poll.
type statusResponse struct {
	Status        string `json:"status"`
	Confirmations int    `json:"confirmations"`
}

// Fetch retrieves previously uploaded content by transaction id.
// Returns ErrNotFound when the gateway has no retrievable record, which
// includes transactions still pending propagation; this call alone cannot
// distinguish "never existed" from "not yet propagated".
func (c *Client) Fetch(ctx context.Context, txID string) ([]byte, error) {
	if err := validateTxID(txID); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx, endpointData); err != nil {
		return nil, fmt.Errorf("%w: %w", glypherr.ErrTransport, err)
	}

	url := fmt.Sprintf("%s/tx/%s/data", c.gatewayURL, txID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.Global.RecordGatewayCall(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", glypherr.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("%w: reading body: %w", glypherr.ErrTransport, readErr)
		}
		return data, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusAccepted:
		// 202 means the gateway knows the id but the data is not yet
		// retrievable; to a fetch caller that is still a miss.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, glypherr.WithDetails(glypherr.ErrNotFound, map[string]string{"tx": txID})
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", glypherr.ErrTransport, resp.StatusCode)
	}
}

// GetStatus polls the transaction status once. It never blocks waiting for
// confirmation; callers poll by repeated calls.
func (c *Client) GetStatus(ctx context.Context, txID string) (Status, error) {
	if err := validateTxID(txID); err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx, endpointStatus); err != nil {
		return "", fmt.Errorf("%w: %w", glypherr.ErrTransport, err)
	}

	url := fmt.Sprintf("%s/tx/%s/status", c.gatewayURL, txID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.Global.RecordGatewayCall(time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", glypherr.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", glypherr.WithDetails(glypherr.ErrNotFound, map[string]string{"tx": txID})
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", glypherr.ErrTransport, resp.StatusCode)
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return parseStatus(sr.Status)
}

// submit posts a signed transaction to the gateway and returns the assigned
// transaction id. A non-success HTTP response is a rejection: the ledger
// either has a transaction id or it does not, so rejections are safe to
// surface without rollback.
func (c *Client) submit(ctx context.Context, sr submitRequest) (string, error) {
	if err := c.limiter.Wait(ctx, endpointSubmit); err != nil {
		return "", fmt.Errorf("%w: %w", glypherr.ErrTransport, err)
	}

	payload, err := json.Marshal(sr)
	if err != nil {
		return "", fmt.Errorf("marshaling submission: %w", err)
	}

	url := c.gatewayURL + "/tx"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.Global.RecordGatewayCall(time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", glypherr.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("ledger: submission rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return "", glypherr.WithDetails(glypherr.ErrSubmissionRejected, map[string]string{
			"status": fmt.Sprintf("%d", resp.StatusCode),
		})
	}

	var result submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if result.ID == "" {
		return "", fmt.Errorf("%w: empty transaction id in response", glypherr.ErrSubmissionRejected)
	}

	return result.ID, nil
}

// validateTxID rejects empty or whitespace transaction ids before any
// network round-trip.
func validateTxID(txID string) error {
	if strings.TrimSpace(txID) == "" {
		return glypherr.Wrap(glypherr.ErrInvalidInput, "transaction id is empty")
	}
	return nil
}

// parseStatus maps a gateway status string onto the Status enum.
func parseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "confirmed":
		return StatusConfirmed, nil
	case "failed":
		return StatusFailed, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", glypherr.ErrInvalidInput, s)
	}
}

// applyOptions applies optional configuration.
func (c *Client) applyOptions(opts *ClientOptions) {
	if opts.GatewayURL != "" {
		c.gatewayURL = strings.TrimRight(opts.GatewayURL, "/")
	}
	if opts.Timeout > 0 {
		c.httpClient.Timeout = opts.Timeout
	}
	if opts.Retry.MaxAttempts > 0 {
		c.retryCfg = opts.Retry
	}
	if opts.RatePerSecond > 0 && opts.Burst > 0 {
		c.limiter = NewRateLimiter(opts.RatePerSecond, opts.Burst)
	}
	if opts.MaxPayloadBytes > 0 {
		c.maxPayload = opts.MaxPayloadBytes
	}
	if opts.Logger != nil {
		c.logger = opts.Logger
	}
}

// encodeBytes base64-encodes binary fields for the JSON wire format.
func encodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
