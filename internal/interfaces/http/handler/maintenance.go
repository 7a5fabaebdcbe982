package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oms/backend/internal/infrastructure/scheduler"
	"github.com/oms/backend/internal/interfaces/http/dto"
)

// JobScheduler defines the interface for driving maintenance jobs
type JobScheduler interface {
	TriggerJob(name scheduler.JobName) error
	GetStatus() map[string]any
}

// MaintenanceHandler handles background maintenance API endpoints
type MaintenanceHandler struct {
	BaseHandler
	scheduler JobScheduler
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(jobScheduler JobScheduler) *MaintenanceHandler {
	return &MaintenanceHandler{scheduler: jobScheduler}
}

// Status godoc
// @ID           getMaintenanceStatus
// @Summary      Report scheduler state and the last run of each maintenance job
// @Tags         maintenance
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /maintenance/status [get]
func (h *MaintenanceHandler) Status(c *gin.Context) {
	h.Success(c, h.scheduler.GetStatus())
}

// TriggerJob godoc
// @ID           triggerMaintenanceJob
// @Summary      Run a maintenance job once, outside its regular interval
// @Description  Valid job names: rate_shop, stale_lock_sweep, reconcile. The run continues after this request returns; poll /maintenance/status for the outcome.
// @Tags         maintenance
// @Produce      json
// @Success      202 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /maintenance/jobs/{name} [post]
func (h *MaintenanceHandler) TriggerJob(c *gin.Context) {
	name := scheduler.JobName(c.Param("name"))

	err := h.scheduler.TriggerJob(name)
	switch {
	case err == nil:
		h.Accepted(c, gin.H{"job": string(name), "triggered": true})
	case errors.Is(err, scheduler.ErrUnknownJob):
		h.BadRequest(c, "Unknown maintenance job: "+string(name))
	case errors.Is(err, scheduler.ErrJobAlreadyRunning):
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, "Job is already running")
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.Error(c, http.StatusConflict, dto.ErrCodeInvalidState, "Scheduler is not running")
	default:
		h.HandleError(c, err)
	}
}
