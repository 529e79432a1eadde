package measurement

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler serves the read side of the vitals API.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the vitals query endpoints on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/vitals", h.GetVitals)
}

// GetVitals handles GET /vitals?hours=&patient_id=&metric=&limit=.
// Records come back timestamp-ascending, ready for charting.
func (h *Handler) GetVitals(c echo.Context) error {
	hours, err := intParam(c, "hours")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "hours must be an integer")
	}
	limit, err := intParam(c, "limit")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}

	records, err := h.service.Query(c.Request().Context(), QueryParams{
		Hours:     hours,
		PatientID: c.QueryParam("patient_id"),
		Metric:    c.QueryParam("metric"),
		Limit:     limit,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to query vitals")
	}
	if records == nil {
		records = []*Record{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(records),
		"items": records,
	})
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
