package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// CatalogHandler serves the session history.
type CatalogHandler struct {
	catalog ports.CatalogService
	log     zerolog.Logger
}

func NewCatalogHandler(catalog ports.CatalogService, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

// List handles GET /v1/sessions.
//
// @Summary      List all sessions, newest first
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  catalogListResponse
// @Failure      503  {object}  map[string]string
// @Router       /v1/sessions [get]
func (h *CatalogHandler) List(c echo.Context) error {
	entries, err := h.catalog.List(c.Request().Context())
	if err != nil {
		return err
	}

	resp := catalogListResponse{Sessions: make([]catalogEntryResponse, 0, len(entries)), Count: len(entries)}
	for _, e := range entries {
		resp.Sessions = append(resp.Sessions, toCatalogEntry(e))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /v1/sessions/:id.
//
// @Summary      Full report of one session
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session id (e.g. session_1718000000000)"
// @Success      200  {object}  sessionDetailResponse
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /v1/sessions/{id} [get]
func (h *CatalogHandler) Get(c echo.Context) error {
	detail, err := h.catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDetailResponse(detail))
}

// Purge handles DELETE /v1/sessions/:id?confirm=:id.
//
// @Summary      Delete a stopped session and its votes
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id       path   string  true  "Session id"
// @Param        confirm  query  string  true  "Must repeat the session id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string  "session is still active"
// @Failure      422  {object}  map[string]string  "purge not confirmed"
// @Router       /v1/sessions/{id} [delete]
func (h *CatalogHandler) Purge(c echo.Context) error {
	id := c.Param("id")
	if err := h.catalog.Purge(c.Request().Context(), id, c.QueryParam("confirm")); err != nil {
		return err
	}

	h.log.Info().Str("operator", operator(c)).Str("session_id", id).Msg("session purged via api")
	return c.NoContent(http.StatusNoContent)
}
