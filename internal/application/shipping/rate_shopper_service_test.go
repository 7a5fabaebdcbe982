package shipping

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared/valueobject"
	"github.com/oms/backend/internal/domain/shipping"
)

func makeShoppableOrder(t *testing.T, orderNumber string) *order.Order {
	t.Helper()
	o, err := order.NewOrder(order.MarketplaceEbay, orderNumber)
	require.NoError(t, err)
	o.ApplyMarketplaceStatus("Unshipped")
	o.SetRecipient("Jamie Doe",
		valueobject.MustNewShippingAddress("9 Elm St", "Portland", "OR", "97201", "US"))
	return o
}

func testShipper() shipping.ShipperProfile {
	return shipping.ShipperProfile{
		Name:    "Acme Fulfillment",
		Phone:   "555-0100",
		Address: valueobject.MustNewShippingAddress("1 Warehouse Way", "Austin", "TX", "78701", "US"),
	}
}

func offer(carrier, serviceCode string, price float64) shipping.QuoteOffer {
	return shipping.QuoteOffer{
		Carrier:     carrier,
		Service:     serviceCode,
		ServiceCode: serviceCode,
		Price:       decimal.NewFromFloat(price),
		Currency:    "USD",
	}
}

func TestRateShopperService_RunBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("shops an eligible order and stamps the cheapest usable quote", func(t *testing.T) {
		o := makeShoppableOrder(t, "EB-1001")
		orderRepo := new(MockOrderRepository)
		quoteRepo := new(MockQuoteRepository)
		gateway := new(MockCarrierGateway)

		orderRepo.On("FindEligibleForRateShopping", ctx, 100).Return([]order.Order{*o}, nil)
		// The excluded media mail offer prices lowest but must not win
		gateway.On("GetRates", ctx, mock.AnythingOfType("shipping.ShipmentSpec")).Return([]shipping.QuoteOffer{
			offer("usps", "usps_media_mail", 4.10),
			offer("usps", "usps_priority_mail", 7.35),
			offer("fedex", "fedex_ground", 9.80),
		}, nil)
		quoteRepo.On("ExistingTupleKeys", ctx, o.ID).Return(map[string]bool{}, nil)
		quoteRepo.On("FindByOrderID", ctx, o.ID).Return([]*shipping.CarrierQuote{}, nil)
		quoteRepo.On("SaveQuotesAndStampOrder", ctx,
			mock.AnythingOfType("[]*shipping.CarrierQuote"),
			mock.AnythingOfType("*shipping.CarrierQuote"),
			mock.AnythingOfType("*order.Order"),
		).Run(func(args mock.Arguments) {
			quotes := args.Get(1).([]*shipping.CarrierQuote)
			winner := args.Get(2).(*shipping.CarrierQuote)
			stamped := args.Get(3).(*order.Order)
			assert.Len(t, quotes, 3)
			assert.Equal(t, "usps_priority_mail", winner.ServiceCode)
			assert.True(t, stamped.ShippingRateFetched)
			assert.Equal(t, "usps", stamped.DefaultCarrier)
		}).Return(nil)

		svc := NewRateShopperService(orderRepo, quoteRepo, gateway, testShipper(), 3)
		result, err := svc.RunBatch(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Scanned)
		assert.Equal(t, 1, result.Shopped)
		quoteRepo.AssertExpectations(t)
	})

	t.Run("transient gateway failure leaves the order untouched", func(t *testing.T) {
		o := makeShoppableOrder(t, "EB-1002")
		orderRepo := new(MockOrderRepository)
		quoteRepo := new(MockQuoteRepository)
		gateway := new(MockCarrierGateway)

		orderRepo.On("FindEligibleForRateShopping", ctx, 10).Return([]order.Order{*o}, nil)
		gateway.On("GetRates", ctx, mock.Anything).
			Return(nil, shipping.NewTransientError("mockgw", "timeout", nil))

		svc := NewRateShopperService(orderRepo, quoteRepo, gateway, testShipper(), 3)
		result, err := svc.RunBatch(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Transient)
		assert.False(t, result.ShortCircuited)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		quoteRepo.AssertNotCalled(t, "SaveQuotesAndStampOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("consecutive transient failures short-circuit the pass", func(t *testing.T) {
		orders := []order.Order{
			*makeShoppableOrder(t, "EB-2001"),
			*makeShoppableOrder(t, "EB-2002"),
			*makeShoppableOrder(t, "EB-2003"),
		}
		orderRepo := new(MockOrderRepository)
		quoteRepo := new(MockQuoteRepository)
		gateway := new(MockCarrierGateway)

		orderRepo.On("FindEligibleForRateShopping", ctx, 10).Return(orders, nil)
		gateway.On("GetRates", ctx, mock.Anything).
			Return(nil, shipping.NewTransientError("mockgw", "unreachable", nil))

		svc := NewRateShopperService(orderRepo, quoteRepo, gateway, testShipper(), 2)
		result, err := svc.RunBatch(ctx, 10)
		require.NoError(t, err)
		assert.True(t, result.ShortCircuited)
		assert.Equal(t, 2, result.Transient)
		gateway.AssertNumberOfCalls(t, "GetRates", 2)
	})

	t.Run("terminal rejection marks the order fetch-failed", func(t *testing.T) {
		o := makeShoppableOrder(t, "EB-1003")
		orderRepo := new(MockOrderRepository)
		quoteRepo := new(MockQuoteRepository)
		gateway := new(MockCarrierGateway)

		orderRepo.On("FindEligibleForRateShopping", ctx, 10).Return([]order.Order{*o}, nil)
		gateway.On("GetRates", ctx, mock.Anything).
			Return(nil, shipping.NewRejectedError("mockgw", "address not serviced"))
		orderRepo.On("Save", ctx, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) {
				saved := args.Get(1).(*order.Order)
				assert.True(t, saved.ShippingRateFetched)
				assert.True(t, saved.RateFetchFailed)
				assert.Nil(t, saved.DefaultRateID)
			}).Return(nil)

		svc := NewRateShopperService(orderRepo, quoteRepo, gateway, testShipper(), 3)
		result, err := svc.RunBatch(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Rejected)
		orderRepo.AssertExpectations(t)
	})

	t.Run("order with an incomplete address is skipped, not burned", func(t *testing.T) {
		incomplete, err := order.NewOrder(order.MarketplaceEbay, "EB-1006")
		require.NoError(t, err)
		incomplete.ApplyMarketplaceStatus("Unshipped")

		orderRepo := new(MockOrderRepository)
		quoteRepo := new(MockQuoteRepository)
		gateway := new(MockCarrierGateway)

		orderRepo.On("FindEligibleForRateShopping", ctx, 10).Return([]order.Order{*incomplete}, nil)

		svc := NewRateShopperService(orderRepo, quoteRepo, gateway, testShipper(), 3)
		result, err := svc.RunBatch(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		gateway.AssertNotCalled(t, "GetRates", mock.Anything, mock.Anything)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("all offers excluded completes without a winner", func(t *testing.T) {
		o := makeShoppableOrder(t, "EB-1004")
		orderRepo := new(MockOrderRepository)
		quoteRepo := new(MockQuoteRepository)
		gateway := new(MockCarrierGateway)

		orderRepo.On("FindEligibleForRateShopping", ctx, 10).Return([]order.Order{*o}, nil)
		gateway.On("GetRates", ctx, mock.Anything).Return([]shipping.QuoteOffer{
			offer("usps", "usps_media_mail", 4.10),
			offer("sendle", "STANDARD-DROPOFF", 5.20),
		}, nil)
		quoteRepo.On("ExistingTupleKeys", ctx, o.ID).Return(map[string]bool{}, nil)
		quoteRepo.On("FindByOrderID", ctx, o.ID).Return([]*shipping.CarrierQuote{}, nil)
		quoteRepo.On("SaveQuotesAndStampOrder", ctx, mock.Anything, mock.Anything,
			mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) {
				winner := args.Get(2)
				stamped := args.Get(3).(*order.Order)
				assert.Nil(t, winner.(*shipping.CarrierQuote))
				assert.True(t, stamped.ShippingRateFetched)
				assert.False(t, stamped.RateFetchFailed)
				assert.Nil(t, stamped.DefaultRateID)
			}).Return(nil)

		svc := NewRateShopperService(orderRepo, quoteRepo, gateway, testShipper(), 3)
		result, err := svc.RunBatch(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, result.NoWinner)
		quoteRepo.AssertExpectations(t)
	})

	t.Run("repeat offers are deduped against stored history", func(t *testing.T) {
		o := makeShoppableOrder(t, "EB-1005")
		stored, err := shipping.NewCarrierQuote(o.ID, "mockgw", offer("usps", "usps_priority_mail", 7.35))
		require.NoError(t, err)

		orderRepo := new(MockOrderRepository)
		quoteRepo := new(MockQuoteRepository)
		gateway := new(MockCarrierGateway)

		orderRepo.On("FindEligibleForRateShopping", ctx, 10).Return([]order.Order{*o}, nil)
		gateway.On("GetRates", ctx, mock.Anything).Return([]shipping.QuoteOffer{
			offer("usps", "usps_priority_mail", 7.35),
		}, nil)
		quoteRepo.On("ExistingTupleKeys", ctx, o.ID).
			Return(map[string]bool{stored.TupleKey(): true}, nil)
		quoteRepo.On("FindByOrderID", ctx, o.ID).Return([]*shipping.CarrierQuote{stored}, nil)
		quoteRepo.On("SaveQuotesAndStampOrder", ctx, mock.Anything, stored,
			mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) {
				quotes := args.Get(1).([]*shipping.CarrierQuote)
				assert.Empty(t, quotes)
			}).Return(nil)

		svc := NewRateShopperService(orderRepo, quoteRepo, gateway, testShipper(), 3)
		result, err := svc.RunBatch(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Shopped)
		quoteRepo.AssertExpectations(t)
	})
}

func TestRateShopperService_ShopOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("ineligible order is refused", func(t *testing.T) {
		o := makeShoppableOrder(t, "EB-3001")
		require.NoError(t, o.MarkRateShopped(o.ID, "usps", decimal.NewFromFloat(7.35), "USD"))

		orderRepo := new(MockOrderRepository)
		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		svc := NewRateShopperService(orderRepo, new(MockQuoteRepository), new(MockCarrierGateway), testShipper(), 3)
		_, err := svc.ShopOrder(ctx, o.ID)
		assert.ErrorContains(t, err, "not eligible")
	})
}
