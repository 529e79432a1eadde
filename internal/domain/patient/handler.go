package patient

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the patient directory API.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the patient endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.ListPatients)
	g.POST("/patients", h.RegisterPatient)
}

type registerPatientRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RegisterPatient handles POST /patients, creating or renaming an entry.
func (h *Handler) RegisterPatient(c echo.Context) error {
	var req registerPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	p, err := h.service.Register(c.Request().Context(), req.ID, req.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":      true,
		"patient": p,
	})
}

// ListPatients handles GET /patients.
func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patients")
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(patients),
		"items": patients,
	})
}
