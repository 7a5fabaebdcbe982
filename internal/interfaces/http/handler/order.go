package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/oms/backend/internal/application/order"
)

// OrderHandler handles order intake and queue API endpoints
type OrderHandler struct {
	BaseHandler
	intake *apporder.IntakeService
	queues *apporder.QueueService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(intake *apporder.IntakeService, queues *apporder.QueueService) *OrderHandler {
	return &OrderHandler{
		intake: intake,
		queues: queues,
	}
}

// Upsert godoc
// @ID           upsertOrder
// @Summary      Create or refresh an order from a marketplace snapshot
// @Description  Orders are identified by (marketplace, order_number); an existing order is refreshed in place
// @Tags         orders
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /orders [post]
func (h *OrderHandler) Upsert(c *gin.Context) {
	var req apporder.UpsertOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.intake.Upsert(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetByID godoc
// @ID           getOrder
// @Summary      Get an order by ID
// @Tags         orders
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := h.intake.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List godoc
// @ID           listOrders
// @Summary      List orders with filters and pagination
// @Tags         orders
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter apporder.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	orders, total, err := h.intake.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// MarkAsShip godoc
// @ID           markOrderAsShip
// @Summary      Toggle the manual shipping override on an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /orders/{id}/mark-as-ship [put]
func (h *OrderHandler) MarkAsShip(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req apporder.MarkAsShipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.intake.SetMarkedAsShip(c.Request.Context(), id, req.Marked)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Archive godoc
// @ID           archiveOrder
// @Summary      Archive a labeled order
// @Tags         orders
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /orders/{id}/archive [post]
func (h *OrderHandler) Archive(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := h.intake.Archive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AwaitingShipment godoc
// @ID           listAwaitingShipment
// @Summary      List the awaiting-shipment work queue
// @Tags         orders
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /orders/queues/awaiting-shipment [get]
func (h *OrderHandler) AwaitingShipment(c *gin.Context) {
	var filter apporder.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	orders, total, err := h.queues.AwaitingShipment(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// AwaitingPrint godoc
// @ID           listAwaitingPrint
// @Summary      List the awaiting-print work queue
// @Tags         orders
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /orders/queues/awaiting-print [get]
func (h *OrderHandler) AwaitingPrint(c *gin.Context) {
	var filter apporder.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	orders, total, err := h.queues.AwaitingPrint(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// QueueCounts godoc
// @ID           getQueueCounts
// @Summary      Get the size of both work queues
// @Tags         orders
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /orders/queues/counts [get]
func (h *OrderHandler) QueueCounts(c *gin.Context) {
	counts, err := h.queues.Counts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, counts)
}
