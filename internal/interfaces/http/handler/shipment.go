package handler

import (
	"github.com/gin-gonic/gin"

	appshipping "github.com/oms/backend/internal/application/shipping"
	"github.com/oms/backend/internal/domain/batch"
	"github.com/oms/backend/internal/interfaces/http/middleware"
)

// ShipmentHandler handles label purchase and void API endpoints
type ShipmentHandler struct {
	BaseHandler
	procurement *appshipping.ProcurementService
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(procurement *appshipping.ProcurementService) *ShipmentHandler {
	return &ShipmentHandler{procurement: procurement}
}

// Purchase godoc
// @ID           purchaseLabel
// @Summary      Purchase a shipping label for one order
// @Description  Buys a label against the order's cheapest quote, or an explicit quote_id. Set force to void and replace an active label.
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Success      201 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /shipments [post]
func (h *ShipmentHandler) Purchase(c *gin.Context) {
	var req appshipping.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.procurement.Purchase(c.Request.Context(), req, getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// PurchaseBatch godoc
// @ID           purchaseLabelBatch
// @Summary      Purchase shipping labels for a set of orders
// @Description  Large batches run asynchronously and return 202 with a processing batch record to poll
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response
// @Success      202 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /shipments/batch [post]
func (h *ShipmentHandler) PurchaseBatch(c *gin.Context) {
	var req appshipping.BatchPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.procurement.RunBatch(c.Request.Context(), req, getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if resp.Status == string(batch.BatchStatusProcessing) {
		h.Accepted(c, resp)
		return
	}
	h.Success(c, resp)
}

// ListByOrder godoc
// @ID           listOrderShipments
// @Summary      List all shipments recorded for an order
// @Tags         shipments
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /shipments/order/{id} [get]
func (h *ShipmentHandler) ListByOrder(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	shipments, err := h.procurement.GetShipmentsByOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, shipments)
}

// Void godoc
// @ID           voidShipment
// @Summary      Void a shipment's label with the carrier
// @Tags         shipments
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /shipments/{id}/void [post]
func (h *ShipmentHandler) Void(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid shipment ID")
		return
	}

	resp, err := h.procurement.VoidShipment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
