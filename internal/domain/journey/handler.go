package journey

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dentiva/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "dentist"))
	g.GET("/patients/:patientId/journey", h.GetJourney)
	g.GET("/patients/:patientId/journey/selection", h.GetSelection)
	g.POST("/patients/:patientId/journey/selection", h.ApplySelection)
	g.DELETE("/patients/:patientId/journey/selection", h.ResetSelection)
}

type selectionResponse struct {
	VisitIDs []string    `json:"visit_ids"`
	ImageIDs []uuid.UUID `json:"image_ids"`
}

func toSelectionResponse(sel Selection) selectionResponse {
	return selectionResponse{VisitIDs: sel.VisitIDs(), ImageIDs: sel.ImageIDs()}
}

func (h *Handler) GetJourney(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	j, err := h.svc.GetJourney(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, j)
}

func (h *Handler) GetSelection(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return c.JSON(http.StatusOK, toSelectionResponse(h.svc.GetSelection(patientID)))
}

type applySelectionRequest struct {
	Actions []Action `json:"actions"`
}

// ApplySelection applies the posted actions in request order. Out-of-order
// application would break the cascade rule.
func (h *Handler) ApplySelection(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req applySelectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Actions) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no actions given")
	}
	sel, err := h.svc.ApplySelection(c.Request().Context(), patientID, req.Actions)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toSelectionResponse(sel))
}

func (h *Handler) ResetSelection(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	h.svc.ResetSelection(patientID)
	return c.NoContent(http.StatusNoContent)
}
