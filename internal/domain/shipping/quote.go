package shipping

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/shared"
)

// CarrierQuote is one observed carrier offer for an order, stored as
// append-only history. Rows are never updated except for the is_cheapest
// flag, which the rate shopper resets and sets in one transaction.
type CarrierQuote struct {
	shared.BaseEntity

	OrderID      uuid.UUID
	Carrier      string
	Service      string
	ServiceCode  string
	Source       string
	Price        decimal.Decimal
	Currency     string
	DeliveryDays int
	IsCheapest   bool
}

// NewCarrierQuote creates a new quote row from a gateway offer
func NewCarrierQuote(orderID uuid.UUID, source string, offer QuoteOffer) (*CarrierQuote, error) {
	if offer.Carrier == "" {
		return nil, shared.NewDomainError("INVALID_QUOTE", "Quote carrier cannot be empty")
	}
	if offer.Price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUOTE", "Quote price cannot be negative")
	}
	currency := offer.Currency
	if currency == "" {
		currency = "USD"
	}

	return &CarrierQuote{
		BaseEntity:   shared.NewBaseEntity(),
		OrderID:      orderID,
		Carrier:      strings.ToLower(offer.Carrier),
		Service:      offer.Service,
		ServiceCode:  offer.ServiceCode,
		Source:       source,
		Price:        offer.Price,
		Currency:     currency,
		DeliveryDays: offer.DeliveryDays,
	}, nil
}

// TupleKey is the dedupe identity of a quote. Two offers with the same
// tuple are the same observation and only the first is stored.
func (q *CarrierQuote) TupleKey() string {
	return fmt.Sprintf("%s|%s|%s|%s", q.Carrier, q.ServiceCode, q.Source, q.Price.String())
}

// excludedServicePatterns lists substrings of service codes that never
// win cheapest-selection: services staff cannot actually use for bulk
// label printing even when they price lowest.
var excludedServicePatterns = []string{
	"media_mail",
	"mediamail",
	"drop_off",
	"dropoff",
	"pickup_only",
}

// IsExcluded reports whether this quote's service category is barred from
// cheapest-selection
func (q *CarrierQuote) IsExcluded() bool {
	code := strings.ToLower(q.ServiceCode)
	svc := strings.ToLower(q.Service)
	for _, p := range excludedServicePatterns {
		if strings.Contains(code, p) || strings.Contains(svc, strings.ReplaceAll(p, "_", " ")) {
			return true
		}
	}
	return false
}

// SelectCheapest returns the lowest-priced non-excluded quote, or nil when
// every quote falls into an excluded category. Ties keep the first seen.
func SelectCheapest(quotes []*CarrierQuote) *CarrierQuote {
	var winner *CarrierQuote
	for _, q := range quotes {
		if q.IsExcluded() {
			continue
		}
		if winner == nil || q.Price.LessThan(winner.Price) {
			winner = q
		}
	}
	return winner
}

// DedupeOffers filters out quotes whose tuple key already exists, either
// in the stored history or earlier in the same batch
func DedupeOffers(quotes []*CarrierQuote, existingKeys map[string]bool) []*CarrierQuote {
	seen := make(map[string]bool, len(existingKeys))
	for k := range existingKeys {
		seen[k] = true
	}

	out := make([]*CarrierQuote, 0, len(quotes))
	for _, q := range quotes {
		key := q.TupleKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}
