package casestudy

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dentiva/clinic/internal/domain/journey"
	"github.com/dentiva/clinic/internal/platform/auth"
	"github.com/dentiva/clinic/internal/platform/genai"
	"github.com/dentiva/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "dentist"))
	g.POST("/patients/:patientId/case-studies", h.Dispatch)
	g.GET("/patients/:patientId/case-studies", h.ListByPatient)
	g.GET("/patients/:patientId/case-studies/status", h.GenerationStatus)
	g.GET("/case-studies/:id", h.Get)
	g.POST("/case-studies/:id/sections/:section/regenerate", h.RegenerateSection)
}

type dispatchRequest struct {
	Title          string `json:"title"`
	ChiefComplaint string `json:"chief_complaint"`
}

func (h *Handler) Dispatch(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req dispatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status, err := h.svc.Dispatch(c.Request().Context(), patientID, req.Title, req.ChiefComplaint)
	switch {
	case err == nil:
		return c.JSON(http.StatusAccepted, status)
	case errors.Is(err, journey.ErrNoSelection):
		return echo.NewHTTPError(http.StatusBadRequest, "select at least one visit first")
	case errors.Is(err, ErrGenerationInFlight):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, genai.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "narrative generator is not configured")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) RegenerateSection(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case study id")
	}
	section := c.Param("section")

	status, err := h.svc.RegenerateSection(c.Request().Context(), id, section)
	switch {
	case err == nil:
		return c.JSON(http.StatusAccepted, status)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "case study not found")
	case errors.Is(err, ErrGenerationInFlight):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoResult):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, genai.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "narrative generator is not configured")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case study id")
	}
	cs, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "case study not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	params := pagination.FromContext(c)
	list, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, params.Limit, params.Offset))
}

func (h *Handler) GenerationStatus(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return c.JSON(http.StatusOK, h.svc.GenerationStatus(patientID))
}
