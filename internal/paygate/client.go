package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stagepass-live/boxoffice-backend/pkg/config"
	"github.com/stagepass-live/boxoffice-backend/pkg/db/models"
)

// Client calls the payment gateway's server-side API to open a hosted
// payment session for a pending order.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.PaygateConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type createSessionRequest struct {
	APIKey     string `json:"api_key"`
	OrderID    string `json:"order_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Qty        int    `json:"qty"`
	BuyerName  string `json:"buyer_name"`
	BuyerEmail string `json:"buyer_email"`
	Desc       string `json:"description"`
}

type createSessionResponse struct {
	Status string `json:"status"`
	URL    string `json:"url"`
	Err    string `json:"error_message"`
}

// CreateSession asks the gateway for a payment page URL. Any gateway-side
// refusal is returned as an error so the caller can mark the order failed.
func (c *Client) CreateSession(ctx context.Context, order *models.Order) (string, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return "", fmt.Errorf("payment gateway is not configured")
	}

	reqBody := createSessionRequest{
		APIKey:     c.apiKey,
		OrderID:    order.ID,
		Amount:     order.Amount.StringFixed(2),
		Currency:   order.Currency,
		Qty:        order.Qty,
		BuyerName:  order.BuyerName,
		BuyerEmail: order.BuyerEmail,
		Desc:       fmt.Sprintf("%d ticket(s) for %s", order.Qty, order.ShowID),
	}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/checkout/session", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment gateway responded %d", resp.StatusCode)
	}

	var parsed createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if parsed.Status != "1" || parsed.URL == "" {
		if parsed.Err != "" {
			return "", fmt.Errorf("gateway refused session: %s", parsed.Err)
		}
		return "", fmt.Errorf("gateway refused session (status %q)", parsed.Status)
	}
	return parsed.URL, nil
}
