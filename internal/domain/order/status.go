package order

import "strings"

// Marketplace identifies the external marketplace an order originated from
type Marketplace string

const (
	MarketplaceEbay       Marketplace = "ebay"
	MarketplaceAmazon     Marketplace = "amazon"
	MarketplaceWalmart    Marketplace = "walmart"
	MarketplaceTikTok     Marketplace = "tiktok"
	MarketplaceAliExpress Marketplace = "aliexpress"
	MarketplaceShein      Marketplace = "shein"
	MarketplaceDoba       Marketplace = "doba"
	MarketplaceWayfair    Marketplace = "wayfair"
	MarketplaceReverb     Marketplace = "reverb"
)

// AllMarketplaces lists every supported marketplace code
var AllMarketplaces = []Marketplace{
	MarketplaceEbay, MarketplaceAmazon, MarketplaceWalmart,
	MarketplaceTikTok, MarketplaceAliExpress, MarketplaceShein,
	MarketplaceDoba, MarketplaceWayfair, MarketplaceReverb,
}

// IsValid checks if the marketplace code is supported
func (m Marketplace) IsValid() bool {
	for _, known := range AllMarketplaces {
		if m == known {
			return true
		}
	}
	return false
}

// String returns the string representation of Marketplace
func (m Marketplace) String() string {
	return string(m)
}

// Status is the normalized order status vocabulary. Marketplace-native
// strings are mapped into this set before the engine trusts them.
type Status string

const (
	StatusUnshipped        Status = "unshipped"
	StatusAwaitingShipment Status = "awaiting_shipment"
	StatusShipped          Status = "shipped"
	StatusCancelled        Status = "cancelled"
	StatusOnHold           Status = "on_hold"
	StatusUnknown          Status = "unknown"
)

// IsValid checks if the status is a valid normalized Status
func (s Status) IsValid() bool {
	switch s {
	case StatusUnshipped, StatusAwaitingShipment, StatusShipped,
		StatusCancelled, StatusOnHold, StatusUnknown:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsUnshippedFamily returns true for statuses that permit label work
func (s Status) IsUnshippedFamily() bool {
	return s == StatusUnshipped || s == StatusAwaitingShipment
}

// statusAliases maps lowercased marketplace-native status strings onto the
// normalized vocabulary. Anything not listed normalizes to StatusUnknown.
var statusAliases = map[string]Status{
	"unshipped":           StatusUnshipped,
	"created":             StatusUnshipped,
	"paid":                StatusUnshipped,
	"processing":          StatusUnshipped,
	"ready_to_ship":       StatusUnshipped,
	"to_ship":             StatusUnshipped,
	"awaiting_shipment":   StatusAwaitingShipment,
	"awaiting_fulfilment": StatusAwaitingShipment,
	"unfulfilled":         StatusAwaitingShipment,
	"shipped":             StatusShipped,
	"in_transit":          StatusShipped,
	"delivered":           StatusShipped,
	"completed":           StatusShipped,
	"fulfilled":           StatusShipped,
	"cancelled":           StatusCancelled,
	"canceled":            StatusCancelled,
	"refunded":            StatusCancelled,
	"on_hold":             StatusOnHold,
	"hold":                StatusOnHold,
	"pending":             StatusOnHold,
}

// NormalizeStatus maps a marketplace-native status string onto the internal
// vocabulary. The raw string is preserved on the order for audit.
func NormalizeStatus(raw string) Status {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if s, ok := statusAliases[key]; ok {
		return s
	}
	return StatusUnknown
}

// PrintingStatus tracks label/print progression on an order
type PrintingStatus int

const (
	// PrintingNone means no label has been purchased yet
	PrintingNone PrintingStatus = 0
	// PrintingLabeled means a label was purchased and awaits printing
	PrintingLabeled PrintingStatus = 1
	// PrintingArchived means the label was printed and archived; terminal
	// for this engine
	PrintingArchived PrintingStatus = 2
)

// IsValid checks if the printing status is in range
func (p PrintingStatus) IsValid() bool {
	return p >= PrintingNone && p <= PrintingArchived
}

// CancelStatus is the marketplace cancel axis, independent of Status
type CancelStatus string

const (
	CancelNone      CancelStatus = "none"
	CancelRequested CancelStatus = "requested"
	CancelConfirmed CancelStatus = "cancelled"
)

// IsValid checks if the cancel status is valid
func (c CancelStatus) IsValid() bool {
	switch c {
	case CancelNone, CancelRequested, CancelConfirmed:
		return true
	}
	return false
}

// Phase is the composite state observed across status, printing status and
// shipment existence. Orders move strictly forward through these phases.
type Phase string

const (
	// PhaseIneligible: cancelled, on hold, or missing the data needed to shop rates
	PhaseIneligible Phase = "ineligible"
	// PhaseEligibleForRates: shippable, address complete, rates not fetched yet
	PhaseEligibleForRates Phase = "eligible_for_rates"
	// PhaseRateShopped: quotes stored and a default rate selected, no label yet
	PhaseRateShopped Phase = "rate_shopped"
	// PhaseLabeled: active shipment exists, awaiting print
	PhaseLabeled Phase = "labeled"
	// PhasePrinted: label printed and archived, terminal for this engine
	PhasePrinted Phase = "printed"
	// PhaseInconsistent: observed fields violate the state machine invariants
	PhaseInconsistent Phase = "inconsistent"
)
