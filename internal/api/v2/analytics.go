package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Dashboard handles GET /api/v2/admin/dashboard
func (c *Controller) Dashboard(ctx echo.Context) error {
	stats, err := c.DS.GetDashboardStats()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute dashboard stats", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, stats)
}
