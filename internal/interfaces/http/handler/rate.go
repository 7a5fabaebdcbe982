package handler

import (
	"github.com/gin-gonic/gin"

	appshipping "github.com/oms/backend/internal/application/shipping"
)

// RateHandler handles rate shopping API endpoints
type RateHandler struct {
	BaseHandler
	rateShopper *appshipping.RateShopperService
}

// NewRateHandler creates a new RateHandler
func NewRateHandler(rateShopper *appshipping.RateShopperService) *RateHandler {
	return &RateHandler{rateShopper: rateShopper}
}

// ShopOrder godoc
// @ID           shopOrderRates
// @Summary      Fetch fresh carrier quotes for one order
// @Description  Replaces any stored quotes for the order and stamps the cheapest offer as its default rate
// @Tags         rates
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /rates/orders/{id} [post]
func (h *RateHandler) ShopOrder(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	quotes, err := h.rateShopper.ShopOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quotes)
}

// ListQuotes godoc
// @ID           listOrderRates
// @Summary      List the stored carrier quotes for an order
// @Tags         rates
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /rates/orders/{id} [get]
func (h *RateHandler) ListQuotes(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	quotes, err := h.rateShopper.ListQuotes(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quotes)
}
