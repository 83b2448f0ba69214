package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// operator returns the subject injected by the Auth middleware, or
// "anonymous" when the API runs without authentication.
func operator(c echo.Context) string {
	if sub, _ := c.Get("subject").(string); sub != "" {
		return sub
	}
	return "anonymous"
}

// bindAndValidate decodes the body into req and runs the echo validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
