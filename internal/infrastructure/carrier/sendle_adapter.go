package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/shipping"
)

const maxSendleResponseSize = 10 * 1024 * 1024 // 10MB

// ouncesPerKilogram converts parcel weights to the metric units Sendle
// quotes in
var ouncesPerKilogram = decimal.NewFromFloat(35.27396)

// centimetersPerInch converts parcel dimensions to metric
var centimetersPerInch = decimal.NewFromFloat(2.54)

// SendleAdapter implements shipping.CarrierGateway for the Sendle API.
// Sendle is a single-carrier gateway: every offer comes back under the
// sendle carrier code, differentiated by product.
type SendleAdapter struct {
	config     *SendleConfig
	httpClient *http.Client
}

// NewSendleAdapter creates a new Sendle gateway adapter
func NewSendleAdapter(config *SendleConfig) (*SendleAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SendleAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}, nil
}

// Name identifies this gateway
func (a *SendleAdapter) Name() string {
	return "sendle"
}

// GetRates returns all product quotes Sendle offers for the spec
func (a *SendleAdapter) GetRates(ctx context.Context, spec shipping.ShipmentSpec) ([]shipping.QuoteOffer, error) {
	params := url.Values{}
	params.Set("sender_suburb", spec.From.Address.City())
	params.Set("sender_postcode", spec.From.Address.PostalCode())
	params.Set("sender_country", spec.From.Address.Country())
	params.Set("receiver_suburb", spec.To.City())
	params.Set("receiver_postcode", spec.To.PostalCode())
	params.Set("receiver_country", spec.To.Country())
	params.Set("weight_value", weightKg(spec).String())
	params.Set("weight_units", "kg")

	respBody, err := a.doRequest(ctx, "GET", "/api/products?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var quotes []sendleQuote
	if err := json.Unmarshal(respBody, &quotes); err != nil {
		return nil, shipping.NewTransientError(a.Name(), "failed to parse quote response", err)
	}

	offers := make([]shipping.QuoteOffer, 0, len(quotes))
	for _, q := range quotes {
		deliveryDays := 0
		if len(q.ETA.DaysRange) > 0 {
			deliveryDays = q.ETA.DaysRange[len(q.ETA.DaysRange)-1]
		}
		offers = append(offers, shipping.QuoteOffer{
			Carrier:      a.Name(),
			Service:      q.Product.Name,
			ServiceCode:  q.Product.Code,
			Price:        decimal.NewFromFloat(q.Quote.Gross.Amount),
			Currency:     q.Quote.Gross.Currency,
			DeliveryDays: deliveryDays,
		})
	}
	return offers, nil
}

// PurchaseLabel creates a Sendle order, which purchases the label
func (a *SendleAdapter) PurchaseLabel(ctx context.Context, ref shipping.QuoteRef) (*shipping.LabelResult, error) {
	spec := ref.Spec
	reqBody := sendleOrderRequest{
		ProductCode:       ref.ServiceCode,
		CustomerReference: spec.OrderNumber,
		Weight:            sendleDimension{Value: weightKg(spec).String(), Units: "kg"},
		Dimensions: &sendleVolume{
			Length: spec.Parcel.LengthIn().Mul(centimetersPerInch).Round(1).String(),
			Width:  spec.Parcel.WidthIn().Mul(centimetersPerInch).Round(1).String(),
			Height: spec.Parcel.HeightIn().Mul(centimetersPerInch).Round(1).String(),
			Units:  "cm",
		},
		Sender: sendleEndpoint{
			Contact: sendleContact{
				Name:    spec.From.Name,
				Company: spec.From.Company,
				Phone:   spec.From.Phone,
				Email:   spec.From.Email,
			},
			Address: sendleAddress{
				AddressLine1: spec.From.Address.Street1(),
				AddressLine2: spec.From.Address.Street2(),
				Suburb:       spec.From.Address.City(),
				StateName:    spec.From.Address.State(),
				Postcode:     spec.From.Address.PostalCode(),
				Country:      spec.From.Address.Country(),
			},
		},
		Receiver: sendleEndpoint{
			Contact: sendleContact{
				Name:  spec.RecipientName,
				Phone: spec.To.Phone(),
			},
			Address: sendleAddress{
				AddressLine1: spec.To.Street1(),
				AddressLine2: spec.To.Street2(),
				Suburb:       spec.To.City(),
				StateName:    spec.To.State(),
				Postcode:     spec.To.PostalCode(),
				Country:      spec.To.Country(),
			},
		},
	}

	respBody, err := a.doRequest(ctx, "POST", "/api/orders", reqBody)
	if err != nil {
		return nil, err
	}

	var order sendleOrderResponse
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, shipping.NewTransientError(a.Name(), "failed to parse order response", err)
	}
	if order.SendleReference == "" {
		return nil, shipping.NewRejectedError(a.Name(), "order response carried no sendle reference")
	}

	labelURL := ""
	if len(order.Labels) > 0 {
		labelURL = order.Labels[0].URL
	}

	return &shipping.LabelResult{
		LabelID:        order.OrderID,
		TrackingNumber: order.SendleReference,
		LabelURL:       labelURL,
		Carrier:        a.Name(),
		ServiceCode:    order.ProductCode,
		Price:          decimal.NewFromFloat(order.Price.Amount),
		Currency:       order.Price.Currency,
	}, nil
}

// VoidLabel cancels the Sendle order behind the label
func (a *SendleAdapter) VoidLabel(ctx context.Context, labelID string) (*shipping.VoidResult, error) {
	respBody, err := a.doRequest(ctx, "DELETE", "/api/orders/"+url.PathEscape(labelID), nil)
	if err != nil {
		return nil, err
	}

	var cancel sendleCancelResponse
	if err := json.Unmarshal(respBody, &cancel); err != nil {
		return nil, shipping.NewTransientError(a.Name(), "failed to parse cancel response", err)
	}
	return &shipping.VoidResult{
		Approved: strings.EqualFold(cancel.State, "Cancelled"),
		Message:  cancel.CancellationMessage,
	}, nil
}

// doRequest performs an authenticated HTTP request against the Sendle
// API and maps failures to typed gateway errors
func (a *SendleAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, shipping.NewRejectedError(a.Name(), fmt.Sprintf("failed to marshal request: %v", err))
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, shipping.NewRejectedError(a.Name(), fmt.Sprintf("failed to create request: %v", err))
	}
	req.SetBasicAuth(a.config.SendleID, a.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, shipping.NewTransientError(a.Name(), "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSendleResponseSize))
	if err != nil {
		return nil, shipping.NewTransientError(a.Name(), "failed to read response", err)
	}

	if resp.StatusCode >= 400 {
		msg := sendleErrorMessage(body, resp.StatusCode)
		if isTransientStatus(resp.StatusCode) {
			return nil, shipping.NewTransientError(a.Name(), msg, nil)
		}
		return nil, shipping.NewRejectedError(a.Name(), msg)
	}

	return body, nil
}

func sendleErrorMessage(body []byte, statusCode int) string {
	var errResp sendleErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.ErrorDescription != "" {
		return errResp.ErrorDescription
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}

// weightKg converts the spec's parcel weight from ounces to kilograms
func weightKg(spec shipping.ShipmentSpec) decimal.Decimal {
	return spec.Parcel.WeightOz().Div(ouncesPerKilogram).Round(3)
}
