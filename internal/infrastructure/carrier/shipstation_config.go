package carrier

import (
	"errors"
	"time"
)

// ShipStationConfig holds configuration for the ShipStation rate and
// label API
type ShipStationConfig struct {
	// APIKey is the ShipStation API key (basic auth username)
	APIKey string
	// APISecret is the ShipStation API secret (basic auth password)
	APISecret string
	// BaseURL is the API endpoint, overridable for sandbox and tests
	BaseURL string
	// RequestTimeout is the HTTP request timeout
	RequestTimeout time.Duration
}

// ShipStationProductionAPIURL is the production API endpoint
const ShipStationProductionAPIURL = "https://ssapi.shipstation.com"

// Errors for ShipStation configuration
var (
	ErrShipStationMissingAPIKey    = errors.New("shipstation: API key is required")
	ErrShipStationMissingAPISecret = errors.New("shipstation: API secret is required")
)

// NewShipStationConfig creates a ShipStation configuration with defaults
func NewShipStationConfig(apiKey, apiSecret string) *ShipStationConfig {
	return &ShipStationConfig{
		APIKey:         apiKey,
		APISecret:      apiSecret,
		BaseURL:        ShipStationProductionAPIURL,
		RequestTimeout: 30 * time.Second,
	}
}

// Validate validates the ShipStation configuration
func (c *ShipStationConfig) Validate() error {
	if c.APIKey == "" {
		return ErrShipStationMissingAPIKey
	}
	if c.APISecret == "" {
		return ErrShipStationMissingAPISecret
	}
	if c.BaseURL == "" {
		c.BaseURL = ShipStationProductionAPIURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	return nil
}
