package records

import (
	"errors"
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
	readGroup := api.Group("", auth.RequireRole("admin", "dentist", "assistant"))
	readGroup.GET("/patients/:patientId/records", h.GetBundle)
	readGroup.GET("/observations/:id", h.GetObservation)
	readGroup.GET("/procedures/:id", h.GetProcedure)

	writeGroup := api.Group("", auth.RequireRole("admin", "dentist"))
	writeGroup.POST("/observations", h.CreateObservation)
	writeGroup.PUT("/observations/:id", h.UpdateObservation)
	writeGroup.DELETE("/observations/:id", h.DeleteObservation)
	writeGroup.POST("/procedures", h.CreateProcedure)
	writeGroup.PUT("/procedures/:id", h.UpdateProcedure)
	writeGroup.DELETE("/procedures/:id", h.DeleteProcedure)
	writeGroup.POST("/attachments", h.CreateAttachment)
	writeGroup.DELETE("/attachments/:id", h.DeleteAttachment)
}

func (h *Handler) GetBundle(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	bundle, err := h.svc.GetBundle(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, bundle)
}

// -- Observations --

func (h *Handler) CreateObservation(c echo.Context) error {
	var o Observation
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateObservation(c.Request().Context(), &o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetObservation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid observation id")
	}
	o, err := h.svc.GetObservation(c.Request().Context(), id)
	if err != nil {
		return notFoundOrInternal(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) UpdateObservation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid observation id")
	}
	var o Observation
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o.ID = id
	if err := h.svc.UpdateObservation(c.Request().Context(), &o); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "observation not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) DeleteObservation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid observation id")
	}
	if err := h.svc.DeleteObservation(c.Request().Context(), id); err != nil {
		return notFoundOrInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Procedures --

func (h *Handler) CreateProcedure(c echo.Context) error {
	var p Procedure
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateProcedure(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProcedure(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid procedure id")
	}
	p, err := h.svc.GetProcedure(c.Request().Context(), id)
	if err != nil {
		return notFoundOrInternal(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProcedure(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid procedure id")
	}
	var p Procedure
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdateProcedure(c.Request().Context(), &p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "procedure not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProcedure(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid procedure id")
	}
	if err := h.svc.DeleteProcedure(c.Request().Context(), id); err != nil {
		return notFoundOrInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Attachments --

func (h *Handler) CreateAttachment(c echo.Context) error {
	var a Attachment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAttachment(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) DeleteAttachment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid attachment id")
	}
	if err := h.svc.DeleteAttachment(c.Request().Context(), id); err != nil {
		return notFoundOrInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func notFoundOrInternal(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
