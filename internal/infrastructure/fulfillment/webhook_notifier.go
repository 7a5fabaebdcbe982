package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shipping"
	"github.com/oms/backend/internal/infrastructure/config"
	"github.com/oms/backend/internal/infrastructure/logger"
)

const maxNotifyResponseSize = 1 * 1024 * 1024 // 1MB

// WebhookNotifier implements shipping.FulfillmentNotifier by POSTing
// shipment confirmations to per-marketplace webhook endpoints. A
// marketplace with no configured endpoint is log-only: the notification
// is recorded and dropped, never treated as a failure.
type WebhookNotifier struct {
	config     config.FulfillmentConfig
	httpClient *http.Client
}

// NewWebhookNotifier creates a new webhook-based fulfillment notifier
func NewWebhookNotifier(cfg config.FulfillmentConfig, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NotifyShipped sends the shipment confirmation for the marketplace
func (n *WebhookNotifier) NotifyShipped(ctx context.Context, marketplace order.Marketplace, notification shipping.ShipmentNotification) error {
	endpoint, ok := n.config.Endpoints[string(marketplace)]
	if !ok || endpoint == "" {
		logger.L(ctx).Info("no fulfillment endpoint for marketplace, skipping notify",
			zap.String("marketplace", string(marketplace)),
			zap.String("order_number", notification.OrderNumber),
			zap.String("tracking_number", notification.TrackingNumber))
		return nil
	}

	bodyBytes, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal shipment notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.config.AuthToken)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fulfillment notify failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxNotifyResponseSize))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("fulfillment notify rejected: HTTP %d", resp.StatusCode)
	}

	logger.L(ctx).Info("shipment notification delivered",
		zap.String("marketplace", string(marketplace)),
		zap.String("order_number", notification.OrderNumber),
		zap.String("tracking_number", notification.TrackingNumber))
	return nil
}
