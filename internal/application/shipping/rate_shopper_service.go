package shipping

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shipping"
	"github.com/oms/backend/internal/infrastructure/logger"
)

// shopOutcome classifies what happened to one order in a shopping pass
type shopOutcome int

const (
	shopSkipped shopOutcome = iota
	shopShopped
	shopNoWinner
	shopRejected
	shopTransient
)

// RateShopperService drives the background rate shopping pass: it asks
// the carrier gateway for quotes on eligible orders, stores them as
// append-only history and stamps the cheapest usable offer on the order.
type RateShopperService struct {
	orderRepo order.Repository
	quoteRepo shipping.QuoteRepository
	gateway   shipping.CarrierGateway
	shipper   shipping.ShipperProfile
	failLimit int
}

// NewRateShopperService creates a new RateShopperService. failLimit is
// the number of consecutive transient gateway failures after which a
// batch pass short-circuits instead of hammering an unreachable carrier.
func NewRateShopperService(
	orderRepo order.Repository,
	quoteRepo shipping.QuoteRepository,
	gateway shipping.CarrierGateway,
	shipper shipping.ShipperProfile,
	failLimit int,
) *RateShopperService {
	if failLimit <= 0 {
		failLimit = 3
	}
	return &RateShopperService{
		orderRepo: orderRepo,
		quoteRepo: quoteRepo,
		gateway:   gateway,
		shipper:   shipper,
		failLimit: failLimit,
	}
}

// ShopOrder fetches and stores quotes for a single order on demand and
// returns the order's full quote history
func (s *RateShopperService) ShopOrder(ctx context.Context, orderID uuid.UUID) ([]QuoteResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.EligibleForRateShopping() {
		return nil, shared.NewDomainError("NOT_ELIGIBLE", "Order is not eligible for rate shopping")
	}

	if _, err := s.shopOne(ctx, o); err != nil {
		return nil, err
	}
	return s.ListQuotes(ctx, orderID)
}

// ListQuotes returns the stored quote history for an order
func (s *RateShopperService) ListQuotes(ctx context.Context, orderID uuid.UUID) ([]QuoteResponse, error) {
	quotes, err := s.quoteRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, ToQuoteResponse(q))
	}
	return out, nil
}

// RunBatch shops rates for up to limit eligible orders. Transient
// gateway failures leave the order untouched for the next pass;
// consecutive transient failures beyond the fail limit short-circuit
// the whole pass.
func (s *RateShopperService) RunBatch(ctx context.Context, limit int) (*RateShopRunResult, error) {
	orders, err := s.orderRepo.FindEligibleForRateShopping(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &RateShopRunResult{Scanned: len(orders)}
	consecutiveTransient := 0

	for i := range orders {
		o := &orders[i]
		outcome, err := s.shopOne(ctx, o)

		switch outcome {
		case shopShopped:
			result.Shopped++
			consecutiveTransient = 0
		case shopNoWinner:
			result.NoWinner++
			consecutiveTransient = 0
		case shopRejected:
			result.Rejected++
			consecutiveTransient = 0
		case shopTransient:
			result.Transient++
			consecutiveTransient++
			logger.L(ctx).Warn("transient gateway failure during rate shopping",
				zap.String("order_id", o.ID.String()),
				zap.Error(err))
			if consecutiveTransient >= s.failLimit {
				result.ShortCircuited = true
				logger.L(ctx).Warn("rate shopping pass short-circuited, gateway unreachable",
					zap.Int("consecutive_failures", consecutiveTransient))
				return result, nil
			}
		case shopSkipped:
			if err != nil {
				return result, err
			}
			result.Skipped++
		}
	}
	return result, nil
}

// shopOne runs one order through the gateway and persists the outcome.
// Eligibility is rechecked here so an order the listing query returned
// with an incomplete address or a concurrent state change never reaches
// the gateway and gets burned as fetch-failed.
func (s *RateShopperService) shopOne(ctx context.Context, o *order.Order) (shopOutcome, error) {
	if !o.EligibleForRateShopping() {
		return shopSkipped, nil
	}

	spec := shipping.ShipmentSpec{
		OrderNumber:   o.OrderNumber,
		From:          s.shipper,
		RecipientName: o.RecipientName,
		To:            o.ShipTo,
		Parcel:        o.ShipmentParcel(),
	}

	offers, err := s.gateway.GetRates(ctx, spec)
	if err != nil {
		if shipping.IsTransient(err) {
			return shopTransient, err
		}
		// Terminal rejection: mark the order fetched-and-failed so the
		// pass does not retry it forever.
		o.MarkRateFetchFailed()
		if saveErr := s.orderRepo.Save(ctx, o); saveErr != nil {
			return shopRejected, saveErr
		}
		logger.L(ctx).Info("rate fetch rejected by gateway",
			zap.String("order_id", o.ID.String()),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
		return shopRejected, nil
	}

	fetched := make([]*shipping.CarrierQuote, 0, len(offers))
	for _, offer := range offers {
		q, err := shipping.NewCarrierQuote(o.ID, s.gateway.Name(), offer)
		if err != nil {
			logger.L(ctx).Warn("dropping malformed gateway offer",
				zap.String("order_id", o.ID.String()),
				zap.String("carrier", offer.Carrier),
				zap.Error(err))
			continue
		}
		fetched = append(fetched, q)
	}

	existingKeys, err := s.quoteRepo.ExistingTupleKeys(ctx, o.ID)
	if err != nil {
		return shopSkipped, err
	}
	newQuotes := shipping.DedupeOffers(fetched, existingKeys)

	stored, err := s.quoteRepo.FindByOrderID(ctx, o.ID)
	if err != nil {
		return shopSkipped, err
	}

	// Cheapest-selection runs over the full history so a re-shop can
	// never lose a previously observed better price.
	all := make([]*shipping.CarrierQuote, 0, len(stored)+len(newQuotes))
	all = append(all, stored...)
	all = append(all, newQuotes...)
	winner := shipping.SelectCheapest(all)

	if winner == nil {
		o.MarkRateShoppedNoWinner()
		if err := s.quoteRepo.SaveQuotesAndStampOrder(ctx, newQuotes, nil, o); err != nil {
			return shopNoWinner, err
		}
		logger.L(ctx).Info("rate shopping found no usable winner",
			zap.String("order_id", o.ID.String()),
			zap.Int("quotes", len(all)))
		return shopNoWinner, nil
	}

	if err := o.MarkRateShopped(winner.ID, winner.Carrier, winner.Price, winner.Currency); err != nil {
		return shopSkipped, err
	}
	if err := s.quoteRepo.SaveQuotesAndStampOrder(ctx, newQuotes, winner, o); err != nil {
		return shopShopped, err
	}

	logger.L(ctx).Info("order rate shopped",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("carrier", winner.Carrier),
		zap.String("service_code", winner.ServiceCode),
		zap.String("price", winner.Price.String()))
	return shopShopped, nil
}
