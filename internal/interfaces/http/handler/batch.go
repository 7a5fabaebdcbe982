package handler

import (
	"github.com/gin-gonic/gin"

	appshipping "github.com/oms/backend/internal/application/shipping"
)

// BatchHandler handles procurement batch history API endpoints
type BatchHandler struct {
	BaseHandler
	procurement    *appshipping.ProcurementService
	reconciliation *appshipping.ReconciliationService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(
	procurement *appshipping.ProcurementService,
	reconciliation *appshipping.ReconciliationService,
) *BatchHandler {
	return &BatchHandler{
		procurement:    procurement,
		reconciliation: reconciliation,
	}
}

// List godoc
// @ID           listBatches
// @Summary      List procurement batches with filters and pagination
// @Tags         batches
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	var filter appshipping.BatchListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	batches, total, err := h.procurement.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, batches, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getBatch
// @Summary      Get a procurement batch by ID
// @Tags         batches
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /batches/{id} [get]
func (h *BatchHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	resp, err := h.procurement.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Recover godoc
// @ID           recoverBatch
// @Summary      Re-run the missing orders of a terminal batch
// @Description  Finds orders the batch claims succeeded but that have no active shipment, plus transient failures and orders a crashed worker never reached, and purchases them again in a recovery batch merged back into the original record
// @Tags         batches
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /batches/{id}/recover [post]
func (h *BatchHandler) Recover(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	var req appshipping.RecoverRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	resp, err := h.reconciliation.RecoverBatch(c.Request.Context(), id, getActor(c), req.Force)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
