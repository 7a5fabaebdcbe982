package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/shipping"
)

const maxShipStationResponseSize = 10 * 1024 * 1024 // 10MB

// ShipStationAdapter implements shipping.CarrierGateway for the
// ShipStation rate and label API. ShipStation aggregates multiple
// carriers, so one rate call can return USPS, UPS and FedEx offers.
type ShipStationAdapter struct {
	config     *ShipStationConfig
	httpClient *http.Client
}

// NewShipStationAdapter creates a new ShipStation gateway adapter
func NewShipStationAdapter(config *ShipStationConfig) (*ShipStationAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ShipStationAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}, nil
}

// Name identifies this gateway
func (a *ShipStationAdapter) Name() string {
	return "shipstation"
}

// GetRates returns all offers ShipStation quotes for the spec
func (a *ShipStationAdapter) GetRates(ctx context.Context, spec shipping.ShipmentSpec) ([]shipping.QuoteOffer, error) {
	reqBody := shipStationRateRequest{
		FromPostalCode: spec.From.Address.PostalCode(),
		FromCity:       spec.From.Address.City(),
		FromState:      spec.From.Address.State(),
		FromCountry:    spec.From.Address.Country(),
		ToPostalCode:   spec.To.PostalCode(),
		ToCity:         spec.To.City(),
		ToState:        spec.To.State(),
		ToCountry:      spec.To.Country(),
		Weight:         shipStationWeight{Value: spec.Parcel.WeightOz().InexactFloat64(), Units: "ounces"},
		Dimensions: &shipStationDimensions{
			Length: spec.Parcel.LengthIn().InexactFloat64(),
			Width:  spec.Parcel.WidthIn().InexactFloat64(),
			Height: spec.Parcel.HeightIn().InexactFloat64(),
			Units:  "inches",
		},
	}

	respBody, err := a.doRequest(ctx, "POST", "/shipments/getrates", reqBody)
	if err != nil {
		return nil, err
	}

	var rates []shipStationRate
	if err := json.Unmarshal(respBody, &rates); err != nil {
		return nil, shipping.NewTransientError(a.Name(), "failed to parse rate response", err)
	}

	offers := make([]shipping.QuoteOffer, 0, len(rates))
	for _, r := range rates {
		offers = append(offers, shipping.QuoteOffer{
			Carrier:      r.CarrierCode,
			Service:      r.ServiceName,
			ServiceCode:  r.ServiceCode,
			Price:        decimal.NewFromFloat(r.ShipmentCost).Add(decimal.NewFromFloat(r.OtherCost)),
			Currency:     "USD",
			DeliveryDays: r.DeliveryDays,
		})
	}
	return offers, nil
}

// PurchaseLabel buys a label for the referenced offer
func (a *ShipStationAdapter) PurchaseLabel(ctx context.Context, ref shipping.QuoteRef) (*shipping.LabelResult, error) {
	spec := ref.Spec
	reqBody := shipStationLabelRequest{
		CarrierCode: ref.Carrier,
		ServiceCode: ref.ServiceCode,
		ShipDate:    time.Now().Format("2006-01-02"),
		Weight:      shipStationWeight{Value: spec.Parcel.WeightOz().InexactFloat64(), Units: "ounces"},
		Dimensions: &shipStationDimensions{
			Length: spec.Parcel.LengthIn().InexactFloat64(),
			Width:  spec.Parcel.WidthIn().InexactFloat64(),
			Height: spec.Parcel.HeightIn().InexactFloat64(),
			Units:  "inches",
		},
		ShipFrom: shipStationAddress{
			Name:       spec.From.Name,
			Company:    spec.From.Company,
			Street1:    spec.From.Address.Street1(),
			Street2:    spec.From.Address.Street2(),
			City:       spec.From.Address.City(),
			State:      spec.From.Address.State(),
			PostalCode: spec.From.Address.PostalCode(),
			Country:    spec.From.Address.Country(),
			Phone:      spec.From.Phone,
		},
		ShipTo: shipStationAddress{
			Name:       spec.RecipientName,
			Street1:    spec.To.Street1(),
			Street2:    spec.To.Street2(),
			City:       spec.To.City(),
			State:      spec.To.State(),
			PostalCode: spec.To.PostalCode(),
			Country:    spec.To.Country(),
			Phone:      spec.To.Phone(),
		},
	}

	respBody, err := a.doRequest(ctx, "POST", "/shipments/createlabel", reqBody)
	if err != nil {
		return nil, err
	}

	var label shipStationLabelResponse
	if err := json.Unmarshal(respBody, &label); err != nil {
		return nil, shipping.NewTransientError(a.Name(), "failed to parse label response", err)
	}
	if label.TrackingNumber == "" {
		return nil, shipping.NewRejectedError(a.Name(), "label response carried no tracking number")
	}

	return &shipping.LabelResult{
		LabelID:        strconv.FormatInt(label.ShipmentID, 10),
		TrackingNumber: label.TrackingNumber,
		LabelURL:       label.LabelURL,
		Carrier:        label.CarrierCode,
		ServiceCode:    label.ServiceCode,
		Price:          decimal.NewFromFloat(label.ShipmentCost),
		Currency:       "USD",
	}, nil
}

// VoidLabel voids a previously purchased label
func (a *ShipStationAdapter) VoidLabel(ctx context.Context, labelID string) (*shipping.VoidResult, error) {
	shipmentID, err := strconv.ParseInt(labelID, 10, 64)
	if err != nil {
		return nil, shipping.NewRejectedError(a.Name(), fmt.Sprintf("invalid label id %q", labelID))
	}

	respBody, err := a.doRequest(ctx, "POST", "/shipments/voidlabel", shipStationVoidRequest{ShipmentID: shipmentID})
	if err != nil {
		return nil, err
	}

	var void shipStationVoidResponse
	if err := json.Unmarshal(respBody, &void); err != nil {
		return nil, shipping.NewTransientError(a.Name(), "failed to parse void response", err)
	}
	return &shipping.VoidResult{Approved: void.Approved, Message: void.Message}, nil
}

// doRequest performs an authenticated HTTP request against the
// ShipStation API and maps failures to typed gateway errors
func (a *ShipStationAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, shipping.NewRejectedError(a.Name(), fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, shipping.NewRejectedError(a.Name(), fmt.Sprintf("failed to create request: %v", err))
	}
	req.SetBasicAuth(a.config.APIKey, a.config.APISecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, shipping.NewTransientError(a.Name(), "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShipStationResponseSize))
	if err != nil {
		return nil, shipping.NewTransientError(a.Name(), "failed to read response", err)
	}

	if resp.StatusCode >= 400 {
		msg := shipStationErrorMessage(body, resp.StatusCode)
		if isTransientStatus(resp.StatusCode) {
			return nil, shipping.NewTransientError(a.Name(), msg, nil)
		}
		return nil, shipping.NewRejectedError(a.Name(), msg)
	}

	return body, nil
}

func shipStationErrorMessage(body []byte, statusCode int) string {
	var errResp shipStationErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.ExceptionMsg != "" {
			return errResp.ExceptionMsg
		}
		if errResp.Message != "" {
			return errResp.Message
		}
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}
