package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quantaira/vitals/pkg/pagination"
)

// Handler serves the gateway directory API.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the gateway endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/map-gateway", h.MapGateway)
	g.GET("/gateways", h.ListGateways)
	g.GET("/gateways/unassigned", h.ListUnassigned)
}

type mapGatewayRequest struct {
	GatewayID string `json:"gateway_id"`
	PatientID string `json:"patient_id"`
}

// MapGateway handles POST /map-gateway, binding a gateway to a patient.
func (h *Handler) MapGateway(c echo.Context) error {
	var req mapGatewayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.GatewayID == "" || req.PatientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "gateway_id and patient_id are required")
	}

	b, err := h.service.Bind(c.Request().Context(), req.GatewayID, req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":      true,
		"binding": b,
	})
}

// ListGateways handles GET /gateways with limit/offset paging. Fleets grow
// past what one page should carry.
func (h *Handler) ListGateways(c echo.Context) error {
	params := pagination.FromContext(c)
	bindings, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list gateways")
	}

	total := len(bindings)
	start := params.Offset
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	page := bindings[start:end]
	if page == nil {
		page = []*Binding{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(page, total, params.Limit, params.Offset))
}

// ListUnassigned handles GET /gateways/unassigned, the worklist of gateways
// whose readings are landing on placeholder patients.
func (h *Handler) ListUnassigned(c echo.Context) error {
	bindings, err := h.service.ListUnassigned(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list unassigned gateways")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(bindings),
		"items": bindings,
	})
}
