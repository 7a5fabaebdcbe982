package carrier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms/backend/internal/domain/shipping"
	"github.com/oms/backend/internal/infrastructure/config"
)

func newSendleTestAdapter(t *testing.T, handler http.HandlerFunc) *SendleAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := NewSendleConfig("acme_fulfillment", "apikey")
	cfg.BaseURL = server.URL
	adapter, err := NewSendleAdapter(cfg)
	require.NoError(t, err)
	return adapter
}

func TestNewSendleAdapter_ValidatesConfig(t *testing.T) {
	_, err := NewSendleAdapter(&SendleConfig{APIKey: "apikey"})
	assert.ErrorIs(t, err, ErrSendleMissingID)

	_, err = NewSendleAdapter(&SendleConfig{SendleID: "acme"})
	assert.ErrorIs(t, err, ErrSendleMissingAPIKey)
}

func TestSendleAdapter_GetRates(t *testing.T) {
	ctx := context.Background()

	t.Run("maps product quotes to offers", func(t *testing.T) {
		adapter := newSendleTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/products", r.URL.Path)
			assert.Equal(t, "97201", r.URL.Query().Get("receiver_postcode"))
			assert.Equal(t, "kg", r.URL.Query().Get("weight_units"))
			// 16oz rounds to 0.454kg
			assert.Equal(t, "0.454", r.URL.Query().Get("weight_value"))

			w.Write([]byte(`[
				{"quote":{"gross":{"amount":11.55,"currency":"USD"}},
				 "eta":{"days_range":[2,5]},
				 "product":{"code":"STANDARD-PICKUP","name":"Standard Pickup"}},
				{"quote":{"gross":{"amount":9.90,"currency":"USD"}},
				 "eta":{"days_range":[3,7]},
				 "product":{"code":"STANDARD-DROPOFF","name":"Standard Drop Off"}}
			]`))
		})

		offers, err := adapter.GetRates(ctx, testSpec(t))
		require.NoError(t, err)
		require.Len(t, offers, 2)
		assert.Equal(t, "sendle", offers[0].Carrier)
		assert.Equal(t, "STANDARD-PICKUP", offers[0].ServiceCode)
		assert.True(t, offers[0].Price.Equal(decimal.NewFromFloat(11.55)))
		assert.Equal(t, 5, offers[0].DeliveryDays)
	})

	t.Run("unprocessable quote is rejected with description", func(t *testing.T) {
		adapter := newSendleTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(sendleErrorResponse{
				ErrorCode:        "unprocessable_entity",
				ErrorDescription: "receiver_postcode is not serviced",
			})
		})

		_, err := adapter.GetRates(ctx, testSpec(t))
		assert.True(t, shipping.IsRejected(err))
		assert.Contains(t, err.Error(), "not serviced")
	})

	t.Run("server error is transient", func(t *testing.T) {
		adapter := newSendleTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := adapter.GetRates(ctx, testSpec(t))
		assert.True(t, shipping.IsTransient(err))
	})
}

func TestSendleAdapter_PurchaseLabel(t *testing.T) {
	ctx := context.Background()
	ref := shipping.QuoteRef{
		Carrier:     "sendle",
		ServiceCode: "STANDARD-DROPOFF",
		Spec:        testSpec(t),
	}

	t.Run("creates an order and maps the label", func(t *testing.T) {
		adapter := newSendleTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/api/orders", r.URL.Path)

			var req sendleOrderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "STANDARD-DROPOFF", req.ProductCode)
			assert.Equal(t, "EB-1001", req.CustomerReference)
			assert.Equal(t, "Jamie Doe", req.Receiver.Contact.Name)
			assert.Equal(t, "Portland", req.Receiver.Address.Suburb)

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(sendleOrderResponse{
				OrderID:         "f5233746-71d4-4b05-bf63-323916aba998",
				State:           "Pickup",
				SendleReference: "S3ND73",
				ProductCode:     "STANDARD-DROPOFF",
				Price:           sendleMoney{Amount: 9.90, Currency: "USD"},
				Labels: []struct {
					Format string `json:"format"`
					Size   string `json:"size"`
					URL    string `json:"url"`
				}{
					{Format: "pdf", Size: "a4", URL: "https://api.sendle.com/labels/1.pdf"},
				},
			})
		})

		result, err := adapter.PurchaseLabel(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, "f5233746-71d4-4b05-bf63-323916aba998", result.LabelID)
		assert.Equal(t, "S3ND73", result.TrackingNumber)
		assert.Equal(t, "https://api.sendle.com/labels/1.pdf", result.LabelURL)
		assert.Equal(t, "sendle", result.Carrier)
		assert.True(t, result.Price.Equal(decimal.NewFromFloat(9.90)))
	})

	t.Run("missing reference is rejected", func(t *testing.T) {
		adapter := newSendleTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(sendleOrderResponse{OrderID: "abc"})
		})

		_, err := adapter.PurchaseLabel(ctx, ref)
		assert.True(t, shipping.IsRejected(err))
	})
}

func TestSendleAdapter_VoidLabel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelled order approves the void", func(t *testing.T) {
		adapter := newSendleTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "DELETE", r.Method)
			assert.Equal(t, "/api/orders/f5233746", r.URL.Path)

			json.NewEncoder(w).Encode(sendleCancelResponse{
				OrderID:             "f5233746",
				State:               "Cancelled",
				CancellationMessage: "Cancelled by customer",
			})
		})

		result, err := adapter.VoidLabel(ctx, "f5233746")
		require.NoError(t, err)
		assert.True(t, result.Approved)
		assert.Equal(t, "Cancelled by customer", result.Message)
	})

	t.Run("picked up order cannot be voided", func(t *testing.T) {
		adapter := newSendleTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(sendleCancelResponse{State: "In Transit"})
		})

		result, err := adapter.VoidLabel(ctx, "f5233746")
		require.NoError(t, err)
		assert.False(t, result.Approved)
	})
}

func TestNewGateway(t *testing.T) {
	t.Run("selects shipstation", func(t *testing.T) {
		gw, err := NewGateway(config.CarrierConfig{Provider: "shipstation", APIKey: "k", APISecret: "s"})
		require.NoError(t, err)
		assert.Equal(t, "shipstation", gw.Name())
	})

	t.Run("selects sendle", func(t *testing.T) {
		gw, err := NewGateway(config.CarrierConfig{Provider: "sendle", APIKey: "acme", APISecret: "key"})
		require.NoError(t, err)
		assert.Equal(t, "sendle", gw.Name())
	})

	t.Run("unknown provider fails", func(t *testing.T) {
		_, err := NewGateway(config.CarrierConfig{Provider: "pigeon"})
		assert.Error(t, err)
	})
}
