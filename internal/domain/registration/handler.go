package registration

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Handler struct {
	svc        *Service
	log        zerolog.Logger
	production bool
}

func NewHandler(svc *Service, log zerolog.Logger, production bool) *Handler {
	return &Handler{svc: svc, log: log, production: production}
}

// RegisterRoutes mounts the public signup endpoint. Registration is the one
// write that happens before the caller has a token.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/register", h.Register)
}

func (h *Handler) Register(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, &ErrorResponse{
			Message: "invalid request body",
		})
	}

	resp, err := h.svc.Register(c.Request().Context(), &req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) fail(c echo.Context, err error) error {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, &ErrorResponse{
			Message: "validation failed",
			Errors:  vErr.Fields,
		})
	}

	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return c.JSON(http.StatusConflict, &ErrorResponse{Message: cErr.Message})
	}

	h.log.Error().Err(err).Msg("registration failed")
	msg := "registration failed"
	if !h.production {
		msg = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, &ErrorResponse{Message: msg})
}
