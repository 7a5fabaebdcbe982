package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// Test helpers
func createTestOrder(t *testing.T) *Order {
	o, err := NewOrder(MarketplaceEbay, "EB-2026-001")
	require.NoError(t, err)
	return o
}

func completeTestAddress(t *testing.T) valueobject.ShippingAddress {
	addr, err := valueobject.NewShippingAddress("12 Main St", "Springfield", "IL", "62704", "US")
	require.NoError(t, err)
	return addr
}

func makeShippable(t *testing.T, o *Order) {
	o.ApplyMarketplaceStatus("unshipped")
	o.SetRecipient("Jane Smith", completeTestAddress(t))
}

// ============================================
// NormalizeStatus Tests
// ============================================

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"unshipped", StatusUnshipped},
		{"Awaiting Shipment", StatusAwaitingShipment},
		{"awaiting-shipment", StatusAwaitingShipment},
		{"READY_TO_SHIP", StatusUnshipped},
		{"Shipped", StatusShipped},
		{"delivered", StatusShipped},
		{"canceled", StatusCancelled},
		{"cancelled", StatusCancelled},
		{"on hold", StatusOnHold},
		{"  pending  ", StatusOnHold},
		{"something weird", StatusUnknown},
		{"", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.raw))
		})
	}
}

func TestStatus_IsUnshippedFamily(t *testing.T) {
	assert.True(t, StatusUnshipped.IsUnshippedFamily())
	assert.True(t, StatusAwaitingShipment.IsUnshippedFamily())
	assert.False(t, StatusShipped.IsUnshippedFamily())
	assert.False(t, StatusCancelled.IsUnshippedFamily())
	assert.False(t, StatusOnHold.IsUnshippedFamily())
	assert.False(t, StatusUnknown.IsUnshippedFamily())
}

// ============================================
// Order Creation Tests
// ============================================

func TestNewOrder(t *testing.T) {
	t.Run("valid order", func(t *testing.T) {
		o, err := NewOrder(MarketplaceAmazon, "AMZ-100")
		require.NoError(t, err)
		assert.Equal(t, MarketplaceAmazon, o.Marketplace)
		assert.Equal(t, "AMZ-100", o.OrderNumber)
		assert.Equal(t, StatusUnknown, o.Status)
		assert.Equal(t, PrintingNone, o.PrintingStatus)
		assert.Equal(t, CancelNone, o.CancelStatus)
		assert.Equal(t, QueueFree, o.Queue)
		assert.False(t, o.ShippingRateFetched)
	})

	t.Run("invalid marketplace", func(t *testing.T) {
		_, err := NewOrder(Marketplace("myspace"), "X-1")
		assert.Error(t, err)
	})

	t.Run("empty order number", func(t *testing.T) {
		_, err := NewOrder(MarketplaceEbay, "")
		assert.Error(t, err)
	})
}

// ============================================
// Shippability and Eligibility Tests
// ============================================

func TestOrder_IsShippable(t *testing.T) {
	t.Run("unshipped is shippable", func(t *testing.T) {
		o := createTestOrder(t)
		o.ApplyMarketplaceStatus("unshipped")
		assert.True(t, o.IsShippable())
	})

	t.Run("cancelled is not shippable", func(t *testing.T) {
		o := createTestOrder(t)
		o.ApplyMarketplaceStatus("cancelled")
		assert.False(t, o.IsShippable())
	})

	t.Run("cancel axis overrides status", func(t *testing.T) {
		o := createTestOrder(t)
		o.ApplyMarketplaceStatus("unshipped")
		require.NoError(t, o.ApplyCancelStatus(CancelConfirmed))
		assert.False(t, o.IsShippable())
	})

	t.Run("marked-as-ship overrides unknown status", func(t *testing.T) {
		o := createTestOrder(t)
		o.ApplyMarketplaceStatus("something weird")
		assert.False(t, o.IsShippable())
		o.SetMarkedAsShip(true)
		assert.True(t, o.IsShippable())
	})

	t.Run("marked-as-ship does not override cancellation", func(t *testing.T) {
		o := createTestOrder(t)
		o.ApplyMarketplaceStatus("cancelled")
		o.SetMarkedAsShip(true)
		assert.False(t, o.IsShippable())
	})
}

func TestOrder_EligibleForRateShopping(t *testing.T) {
	t.Run("eligible when shippable with complete address", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		assert.True(t, o.EligibleForRateShopping())
	})

	t.Run("incomplete address blocks eligibility", func(t *testing.T) {
		o := createTestOrder(t)
		o.ApplyMarketplaceStatus("unshipped")
		assert.False(t, o.EligibleForRateShopping())
	})

	t.Run("already fetched blocks eligibility", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkRateShopped(uuid.New(), "usps", decimal.NewFromFloat(4.50), "USD"))
		assert.False(t, o.EligibleForRateShopping())
	})

	t.Run("labeled order is not eligible", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkLabeled())
		assert.False(t, o.EligibleForRateShopping())
	})
}

func TestOrder_EligibleForForcedPurchase(t *testing.T) {
	t.Run("labeled order is eligible under force", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkLabeled())
		assert.False(t, o.EligibleForPurchase())
		assert.True(t, o.EligibleForForcedPurchase())
	})

	t.Run("cancelled order stays off-limits", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.ApplyCancelStatus(CancelConfirmed))
		assert.False(t, o.EligibleForForcedPurchase())
	})

	t.Run("archived order stays off-limits", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkLabeled())
		require.NoError(t, o.Archive())
		assert.False(t, o.EligibleForForcedPurchase())
	})

	t.Run("incomplete address blocks force", func(t *testing.T) {
		o := createTestOrder(t)
		o.ApplyMarketplaceStatus("unshipped")
		assert.False(t, o.EligibleForForcedPurchase())
	})
}

// ============================================
// Rate Shopping Transition Tests
// ============================================

func TestOrder_MarkRateShopped(t *testing.T) {
	t.Run("stamps default pointer and raises event", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		rateID := uuid.New()

		err := o.MarkRateShopped(rateID, "usps", decimal.NewFromFloat(4.50), "USD")
		require.NoError(t, err)

		assert.True(t, o.ShippingRateFetched)
		assert.False(t, o.RateFetchFailed)
		require.NotNil(t, o.DefaultRateID)
		assert.Equal(t, rateID, *o.DefaultRateID)
		assert.Equal(t, "usps", o.DefaultCarrier)
		assert.True(t, o.HasDefaultRate())

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeOrderRateShopped, events[0].EventType())
	})

	t.Run("rejected after label purchase", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkLabeled())
		err := o.MarkRateShopped(uuid.New(), "usps", decimal.NewFromFloat(4.50), "USD")
		assert.Error(t, err)
	})
}

func TestOrder_MarkRateFetchFailed(t *testing.T) {
	o := createTestOrder(t)
	makeShippable(t, o)
	o.MarkRateFetchFailed()

	assert.True(t, o.ShippingRateFetched)
	assert.True(t, o.RateFetchFailed)
	assert.Nil(t, o.DefaultRateID)
	assert.False(t, o.EligibleForRateShopping())
}

func TestOrder_MarkRateShoppedNoWinner(t *testing.T) {
	o := createTestOrder(t)
	makeShippable(t, o)
	o.MarkRateShoppedNoWinner()

	assert.True(t, o.ShippingRateFetched)
	assert.False(t, o.RateFetchFailed)
	assert.Nil(t, o.DefaultRateID)
	assert.False(t, o.HasDefaultRate())
}

// ============================================
// Label and Archive Transition Tests
// ============================================

func TestOrder_MarkLabeled(t *testing.T) {
	t.Run("advances to shipped with printing status 1", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)

		err := o.MarkLabeled()
		require.NoError(t, err)

		assert.Equal(t, StatusShipped, o.Status)
		assert.Equal(t, PrintingLabeled, o.PrintingStatus)
		require.NotNil(t, o.ShippedAt)
	})

	t.Run("rejected on archived order", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkLabeled())
		require.NoError(t, o.Archive())

		err := o.MarkLabeled()
		assert.Error(t, err)
	})
}

func TestOrder_Archive(t *testing.T) {
	t.Run("labeled order archives", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkLabeled())

		err := o.Archive()
		require.NoError(t, err)
		assert.Equal(t, PrintingArchived, o.PrintingStatus)
		require.NotNil(t, o.ArchivedAt)
	})

	t.Run("unlabeled order cannot archive", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		err := o.Archive()
		assert.Error(t, err)
	})
}

func TestOrder_ForceLabeledComposite(t *testing.T) {
	o := createTestOrder(t)
	o.ApplyMarketplaceStatus("unshipped")

	o.ForceLabeledComposite()

	assert.Equal(t, StatusShipped, o.Status)
	assert.Equal(t, PrintingLabeled, o.PrintingStatus)
	require.NotNil(t, o.ShippedAt)

	// Idempotent on an already archived order: printing status is not demoted
	o.PrintingStatus = PrintingArchived
	o.ForceLabeledComposite()
	assert.Equal(t, PrintingArchived, o.PrintingStatus)
}

// ============================================
// Lock Flag Tests
// ============================================

func TestOrder_LockIsStale(t *testing.T) {
	o := createTestOrder(t)
	assert.False(t, o.LockIsStale(time.Minute))

	started := time.Now().Add(-10 * time.Minute)
	o.Queue = QueueLocked
	o.QueueStartedAt = &started

	assert.True(t, o.IsLocked())
	assert.True(t, o.LockIsStale(5*time.Minute))
	assert.False(t, o.LockIsStale(time.Hour))
}

// ============================================
// Parcel Derivation Tests
// ============================================

func TestOrder_ShipmentParcel(t *testing.T) {
	t.Run("no items falls back to default parcel", func(t *testing.T) {
		o := createTestOrder(t)
		p := o.ShipmentParcel()
		assert.True(t, p.WeightOz().Equal(valueobject.DefaultItemWeightOz))
		assert.True(t, p.LengthIn().Equal(valueobject.DefaultItemLengthIn))
	})

	t.Run("weights sum and heights stack across items", func(t *testing.T) {
		o := createTestOrder(t)
		itemA, err := o.AddItem("SKU-A", "Widget", 2, decimal.NewFromFloat(9.99))
		require.NoError(t, err)
		require.NoError(t, itemA.SetDimensions(
			decimal.NewFromInt(10), decimal.NewFromInt(8), decimal.NewFromInt(5), decimal.NewFromInt(3)))
		o.Items[0] = *itemA

		itemB, err := o.AddItem("SKU-B", "Gadget", 1, decimal.NewFromFloat(4.99))
		require.NoError(t, err)
		require.NoError(t, itemB.SetDimensions(
			decimal.NewFromInt(4), decimal.NewFromInt(12), decimal.NewFromInt(4), decimal.NewFromInt(2)))
		o.Items[1] = *itemB

		p := o.ShipmentParcel()
		// 2x10oz + 1x4oz
		assert.True(t, p.WeightOz().Equal(decimal.NewFromInt(24)), "got %s", p.WeightOz())
		// widest footprint wins
		assert.True(t, p.LengthIn().Equal(decimal.NewFromInt(12)))
		assert.True(t, p.WidthIn().Equal(decimal.NewFromInt(5)))
		// heights stack: 2x3 + 1x2
		assert.True(t, p.HeightIn().Equal(decimal.NewFromInt(8)))
	})

	t.Run("missing dimensions use documented defaults", func(t *testing.T) {
		o := createTestOrder(t)
		_, err := o.AddItem("SKU-C", "Mystery Box", 1, decimal.NewFromFloat(1.00))
		require.NoError(t, err)

		p := o.ShipmentParcel()
		assert.True(t, p.WeightOz().Equal(valueobject.DefaultItemWeightOz))
	})
}

// ============================================
// Phase Classification Tests
// ============================================

func TestOrder_ClassifyPhase(t *testing.T) {
	t.Run("fresh order is ineligible", func(t *testing.T) {
		o := createTestOrder(t)
		assert.Equal(t, PhaseIneligible, o.ClassifyPhase(false))
	})

	t.Run("shippable with address is eligible for rates", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		assert.Equal(t, PhaseEligibleForRates, o.ClassifyPhase(false))
	})

	t.Run("stamped default rate is rate-shopped", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkRateShopped(uuid.New(), "usps", decimal.NewFromFloat(4.50), "USD"))
		assert.Equal(t, PhaseRateShopped, o.ClassifyPhase(false))
	})

	t.Run("active shipment with labeled fields", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkLabeled())
		assert.Equal(t, PhaseLabeled, o.ClassifyPhase(true))
	})

	t.Run("archived with active shipment is printed", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkLabeled())
		require.NoError(t, o.Archive())
		assert.Equal(t, PhasePrinted, o.ClassifyPhase(true))
	})

	t.Run("active shipment with unshipped fields is inconsistent", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		assert.Equal(t, PhaseInconsistent, o.ClassifyPhase(true))
	})

	t.Run("labeled fields without shipment is inconsistent", func(t *testing.T) {
		o := createTestOrder(t)
		makeShippable(t, o)
		require.NoError(t, o.MarkLabeled())
		assert.Equal(t, PhaseInconsistent, o.ClassifyPhase(false))
	})
}
