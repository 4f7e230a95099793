package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/budgettracker/budget-tracker/internal/api/middleware"
)

// ctxUserID extracts the user ID injected by the Auth middleware. A missing
// value means the route was mounted without the middleware.
func ctxUserID(c echo.Context) (int64, error) {
	id, _ := c.Get(middleware.ContextUserID).(int64)
	if id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return id, nil
}
