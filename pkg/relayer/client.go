package relayer

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

	"github.com/noah-isme/yoga-escrow-api/internal/models"
	"github.com/noah-isme/yoga-escrow-api/pkg/jobs"
)

const maxErrorBody = 4 << 10

// Config points the client at a relayer.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client submits escrow actions to the relayer that signs and broadcasts them.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type submitRequest struct {
	Method string              `json:"method"`
	Action models.EscrowAction `json:"action"`
}

type submitResponse struct {
	TxHash string `json:"txHash"`
	Error  string `json:"error"`
}

// NewClient builds a relayer client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Submit sends one action and returns the broadcast transaction hash. Rejections the
// relayer reports as 4xx are wrapped with jobs.ErrPermanent so the worker does not retry.
func (c *Client) Submit(ctx context.Context, action models.EscrowAction) (string, error) {
	method, err := contractMethod(action.Type)
	if err != nil {
		return "", fmt.Errorf("%w: %v", jobs.ErrPermanent, err)
	}
	body, err := json.Marshal(submitRequest{Method: method, Action: action})
	if err != nil {
		return "", fmt.Errorf("%w: encode action: %v", jobs.ErrPermanent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/escrow/transactions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build relayer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("relayer request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return "", fmt.Errorf("read relayer response: %w", err)
	}
	var decoded submitResponse
	_ = json.Unmarshal(raw, &decoded)

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("relayer returned %d: %s", resp.StatusCode, describe(decoded, raw))
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("%w: relayer rejected action (%d): %s", jobs.ErrPermanent, resp.StatusCode, describe(decoded, raw))
	}
	if decoded.TxHash == "" {
		return "", errors.New("relayer response carried no transaction hash")
	}
	return decoded.TxHash, nil
}

func contractMethod(t models.ActionType) (string, error) {
	switch t {
	case models.ActionAccept:
		return "acceptEscrow", nil
	case models.ActionRelease:
		return "releasePayment", nil
	case models.ActionCancel:
		return "cancelEscrow", nil
	case models.ActionDispute:
		return "raiseDispute", nil
	default:
		return "", fmt.Errorf("unsupported action type %q", t)
	}
}

func describe(decoded submitResponse, raw []byte) string {
	if decoded.Error != "" {
		return decoded.Error
	}
	return strings.TrimSpace(string(raw))
}
