package ingest

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quantaira/vitals/internal/platform/auth"
)

// Handler is the webhook entry point.
type Handler struct {
	service       *Service
	webhookSecret string
	logger        zerolog.Logger
}

func NewHandler(service *Service, webhookSecret string, logger zerolog.Logger) *Handler {
	return &Handler{
		service:       service,
		webhookSecret: webhookSecret,
		logger:        logger.With().Str("component", "webhook").Logger(),
	}
}

// RegisterRoutes mounts the webhook endpoint. Vendors are inconsistent about
// singular vs plural paths, so both aliases reach the same handler.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/tenovi", h.Receive)
	e.POST("/webhook/tenovi", h.Receive)
	e.POST("/webhook", h.Receive)
}

// Receive handles one webhook delivery.
func (h *Handler) Receive(c echo.Context) error {
	if !auth.CheckWebhookSecret(c, h.webhookSecret) {
		return c.JSON(http.StatusUnauthorized, Result{OK: false, Error: "unauthorized"})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, Result{OK: false, Error: "failed to read request body"})
	}

	result, err := h.service.Ingest(c.Request().Context(), body)
	if errors.Is(err, ErrMalformedBody) || errors.Is(err, ErrUnsupportedShape) {
		return c.JSON(http.StatusBadRequest, Result{OK: false, Error: err.Error()})
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("ingestion failed")
		return c.JSON(http.StatusServiceUnavailable, Result{OK: false, Error: "temporarily unable to store delivery"})
	}
	return c.JSON(http.StatusOK, result)
}
