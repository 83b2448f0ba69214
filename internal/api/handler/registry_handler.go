package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

// RegistryHandler manages registered users and the card-scan handshake.
type RegistryHandler struct {
	registration ports.RegistrationService
	log          zerolog.Logger
}

func NewRegistryHandler(registration ports.RegistrationService, log zerolog.Logger) *RegistryHandler {
	return &RegistryHandler{registration: registration, log: log}
}

// ListUsers handles GET /v1/users.
//
// @Summary      List registered users in registration order
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userListResponse
// @Failure      503  {object}  map[string]string
// @Router       /v1/users [get]
func (h *RegistryHandler) ListUsers(c echo.Context) error {
	users, err := h.registration.List(c.Request().Context())
	if err != nil {
		return err
	}

	resp := userListResponse{Users: make([]userResponse, 0, len(users)), Count: len(users)}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, resp)
}

// RemoveUser handles DELETE /v1/users/:id.
//
// @Summary      Remove a registered user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Card id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string  "user is a candidate in the running session"
// @Router       /v1/users/{id} [delete]
func (h *RegistryHandler) RemoveUser(c echo.Context) error {
	id := c.Param("id")
	if err := h.registration.Remove(c.Request().Context(), id); err != nil {
		return err
	}

	h.log.Info().Str("operator", operator(c)).Str("user_id", id).Msg("user removed via api")
	return c.NoContent(http.StatusNoContent)
}

// OpenRegistration handles POST /v1/registrations.
//
// @Summary      Put the reader into registration mode
// @Tags         registrations
// @Produce      json
// @Security     BearerAuth
// @Success      202  {object}  registrationStateResponse
// @Failure      503  {object}  map[string]string
// @Router       /v1/registrations [post]
func (h *RegistryHandler) OpenRegistration(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.registration.Open(ctx); err != nil {
		return err
	}
	return h.writeState(c, http.StatusAccepted)
}

// State handles GET /v1/registrations.
//
// @Summary      Current card-scan handshake state
// @Tags         registrations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  registrationStateResponse
// @Router       /v1/registrations [get]
func (h *RegistryHandler) State(c echo.Context) error {
	return h.writeState(c, http.StatusOK)
}

// CompleteRegistration handles POST /v1/registrations/complete.
//
// @Summary      Name the scanned card and register it
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      completeRegistrationRequest  true  "Display name"
// @Success      201   {object}  userResponse
// @Failure      409   {object}  map[string]string  "no scanned card or already registered"
// @Failure      422   {object}  map[string]string
// @Router       /v1/registrations/complete [post]
func (h *RegistryHandler) CompleteRegistration(c echo.Context) error {
	var req completeRegistrationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.registration.Complete(c.Request().Context(), ports.CompleteRegistrationInput{
		Name:   req.Name,
		CardID: req.CardID,
	})
	if err != nil {
		return err
	}

	h.log.Info().Str("operator", operator(c)).Str("user_id", user.ID).Msg("user registered via api")
	return c.JSON(http.StatusCreated, toUserResponse(*user))
}

// CancelRegistration handles DELETE /v1/registrations.
//
// @Summary      Leave registration mode and discard any pending scan
// @Tags         registrations
// @Security     BearerAuth
// @Success      204
// @Router       /v1/registrations [delete]
func (h *RegistryHandler) CancelRegistration(c echo.Context) error {
	if err := h.registration.Cancel(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RegistryHandler) writeState(c echo.Context, code int) error {
	st, err := h.registration.State(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(code, registrationStateResponse{
		Open:          st.Open,
		PendingCardID: st.PendingCardID,
		LastRejected:  h.registration.LastRejected(),
	})
}
