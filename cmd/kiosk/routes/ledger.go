package routes

import (
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/container"
	"github.com/labstack/echo/v4"
)

// RegisterLedgerRoutes registers the kiosk ledger API
func RegisterLedgerRoutes(e *echo.Echo, c *container.Container) {
	h := c.LedgerHandler

	api := e.Group("/api")
	{
		api.POST("/save-student", h.SavePurchase)
		api.GET("/students", h.ListLedgers)
		api.GET("/students/:id", h.GetLedger)
		api.POST("/students/:id/adjust", h.AdjustBooth)
		api.POST("/students/:id/add-payment", h.AddPayment)
		api.DELETE("/students/:id", h.DeleteLedger)
	}
}
