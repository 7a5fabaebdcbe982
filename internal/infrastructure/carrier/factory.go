package carrier

import (
	"fmt"
	"net/http"

	"github.com/oms/backend/internal/domain/shipping"
	"github.com/oms/backend/internal/infrastructure/config"
)

// NewGateway builds the carrier gateway selected by configuration.
// Exactly one provider is active per deployment; callers hold only the
// shipping.CarrierGateway interface.
func NewGateway(cfg config.CarrierConfig) (shipping.CarrierGateway, error) {
	switch cfg.Provider {
	case "shipstation":
		ssCfg := NewShipStationConfig(cfg.APIKey, cfg.APISecret)
		if cfg.BaseURL != "" {
			ssCfg.BaseURL = cfg.BaseURL
		}
		ssCfg.RequestTimeout = cfg.RequestTimeout
		return NewShipStationAdapter(ssCfg)
	case "sendle":
		sdCfg := NewSendleConfig(cfg.APIKey, cfg.APISecret)
		if cfg.BaseURL != "" {
			sdCfg.BaseURL = cfg.BaseURL
		}
		sdCfg.RequestTimeout = cfg.RequestTimeout
		return NewSendleAdapter(sdCfg)
	default:
		return nil, fmt.Errorf("unknown carrier provider %q", cfg.Provider)
	}
}

// isTransientStatus reports whether an HTTP status indicates a failure
// worth retrying: rate limits, timeouts, and carrier-side errors.
func isTransientStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	}
	return statusCode >= 500
}
