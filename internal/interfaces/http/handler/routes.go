package handler

import (
	"github.com/oms/backend/internal/interfaces/http/router"
)

// OrderRoutes creates the route group for order intake and queues
func OrderRoutes(handler *OrderHandler) *router.DomainGroup {
	group := router.NewDomainGroup("orders", "/orders")

	// Intake and lookup
	group.POST("", handler.Upsert)
	group.GET("", handler.List)

	// Work queues
	group.GET("/queues/awaiting-shipment", handler.AwaitingShipment)
	group.GET("/queues/awaiting-print", handler.AwaitingPrint)
	group.GET("/queues/counts", handler.QueueCounts)

	group.GET("/:id", handler.GetByID)
	group.PUT("/:id/mark-as-ship", handler.MarkAsShip)
	group.POST("/:id/archive", handler.Archive)

	return group
}

// RateRoutes creates the route group for rate shopping
func RateRoutes(handler *RateHandler) *router.DomainGroup {
	group := router.NewDomainGroup("rates", "/rates")

	group.POST("/orders/:id", handler.ShopOrder)
	group.GET("/orders/:id", handler.ListQuotes)

	return group
}

// ShipmentRoutes creates the route group for label purchase and void
func ShipmentRoutes(handler *ShipmentHandler) *router.DomainGroup {
	group := router.NewDomainGroup("shipments", "/shipments")

	group.POST("", handler.Purchase)
	group.POST("/batch", handler.PurchaseBatch)
	group.GET("/order/:id", handler.ListByOrder)
	group.POST("/:id/void", handler.Void)

	return group
}

// BatchRoutes creates the route group for procurement batch history
func BatchRoutes(handler *BatchHandler) *router.DomainGroup {
	group := router.NewDomainGroup("batches", "/batches")

	group.GET("", handler.List)
	group.GET("/:id", handler.GetByID)
	group.POST("/:id/recover", handler.Recover)

	return group
}

// MaintenanceRoutes creates the route group for background maintenance
func MaintenanceRoutes(handler *MaintenanceHandler) *router.DomainGroup {
	group := router.NewDomainGroup("maintenance", "/maintenance")

	group.GET("/status", handler.Status)
	group.POST("/jobs/:name", handler.TriggerJob)

	return group
}

// SystemRoutes creates the route group for system endpoints
func SystemRoutes(handler *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/system")

	group.GET("/ping", handler.Ping)
	group.GET("/info", handler.GetSystemInfo)

	return group
}
