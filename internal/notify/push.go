package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"opsboard/internal/config"
	"opsboard/internal/models"
)

// PushSender delivers a batch of notifications through a push gateway.
// It returns the number the gateway accepted.
type PushSender interface {
	SendBatch(ctx context.Context, notifications []models.Notification) (int, error)
}

// PushClient posts notification batches to an HTTP push gateway.
type PushClient struct {
	gatewayURL string
	httpClient *http.Client
}

// NewPushClient builds a push client from config. Returns nil when the
// channel is not configured.
func NewPushClient(cfg config.PushConfig) *PushClient {
	if cfg.GatewayURL == "" {
		return nil
	}
	return &PushClient{
		gatewayURL: cfg.GatewayURL,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
	}
}

type pushItem struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Message     string `json:"message"`
}

type pushRequest struct {
	Notifications []pushItem `json:"notifications"`
}

type pushResponse struct {
	Delivered int `json:"delivered"`
}

func (c *PushClient) SendBatch(ctx context.Context, notifications []models.Notification) (int, error) {
	if len(notifications) == 0 {
		return 0, nil
	}

	payload := pushRequest{Notifications: make([]pushItem, 0, len(notifications))}
	for _, n := range notifications {
		payload.Notifications = append(payload.Notifications, pushItem{
			ID:          n.ID,
			RecipientID: n.RecipientID,
			Type:        string(n.Type),
			Title:       n.Title,
			Message:     n.Message,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("push gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	var decoded pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode push response: %w", err)
	}
	return decoded.Delivered, nil
}
