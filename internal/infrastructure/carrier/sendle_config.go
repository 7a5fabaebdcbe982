package carrier

import (
	"errors"
	"time"
)

// SendleConfig holds configuration for the Sendle API
type SendleConfig struct {
	// SendleID is the account identifier (basic auth username)
	SendleID string
	// APIKey is the Sendle API key (basic auth password)
	APIKey string
	// BaseURL is the API endpoint, overridable for sandbox and tests
	BaseURL string
	// RequestTimeout is the HTTP request timeout
	RequestTimeout time.Duration
}

const (
	// SendleProductionAPIURL is the production API endpoint
	SendleProductionAPIURL = "https://api.sendle.com"
	// SendleSandboxAPIURL is the sandbox API endpoint
	SendleSandboxAPIURL = "https://sandbox.sendle.com"
)

// Errors for Sendle configuration
var (
	ErrSendleMissingID     = errors.New("sendle: sendle ID is required")
	ErrSendleMissingAPIKey = errors.New("sendle: API key is required")
)

// NewSendleConfig creates a Sendle configuration with defaults
func NewSendleConfig(sendleID, apiKey string) *SendleConfig {
	return &SendleConfig{
		SendleID:       sendleID,
		APIKey:         apiKey,
		BaseURL:        SendleProductionAPIURL,
		RequestTimeout: 30 * time.Second,
	}
}

// Validate validates the Sendle configuration
func (c *SendleConfig) Validate() error {
	if c.SendleID == "" {
		return ErrSendleMissingID
	}
	if c.APIKey == "" {
		return ErrSendleMissingAPIKey
	}
	if c.BaseURL == "" {
		c.BaseURL = SendleProductionAPIURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	return nil
}
