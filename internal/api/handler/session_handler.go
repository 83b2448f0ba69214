package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// SessionHandler exposes the lifecycle controls of the voting round.
type SessionHandler struct {
	lifecycle ports.LifecycleService
	live      ports.LiveView
	log       zerolog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(lifecycle ports.LifecycleService, live ports.LiveView, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{lifecycle: lifecycle, live: live, log: log}
}

// Start handles POST /v1/sessions.
//
// @Summary      Start a voting session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      startSessionRequest  true  "Duration and candidates"
// @Success      201   {object}  startSessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /v1/sessions [post]
func (h *SessionHandler) Start(c echo.Context) error {
	var req startSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.lifecycle.Start(c.Request().Context(), toStartInput(req))
	if err != nil {
		return err
	}

	h.log.Info().
		Str("operator", operator(c)).
		Str("session_id", res.SessionID).
		Msg("session started via api")
	return c.JSON(http.StatusCreated, toStartResponse(res))
}

// Stop handles POST /v1/sessions/current/stop.
//
// @Summary      Stop the running session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  stopSessionResponse
// @Failure      409  {object}  map[string]string  "no active voting session"
// @Failure      503  {object}  map[string]string
// @Router       /v1/sessions/current/stop [post]
func (h *SessionHandler) Stop(c echo.Context) error {
	res, err := h.lifecycle.Stop(c.Request().Context(), domain.StopManual)
	if err != nil {
		return err
	}

	h.log.Info().
		Str("operator", operator(c)).
		Str("session_id", res.SessionID).
		Msg("session stopped via api")
	return c.JSON(http.StatusOK, toStopResponse(res))
}

// Current handles GET /v1/sessions/current.
//
// @Summary      Countdown and live tally of the running session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  currentSessionResponse
// @Failure      503  {object}  map[string]string
// @Router       /v1/sessions/current [get]
func (h *SessionHandler) Current(c echo.Context) error {
	st, err := h.lifecycle.Status(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCurrentResponse(st, h.live.Snapshot()))
}
