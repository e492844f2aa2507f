package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roadready/drive-booking-api/internal/service"
	appErrors "github.com/roadready/drive-booking-api/pkg/errors"
	"github.com/roadready/drive-booking-api/pkg/response"
)

// AvailabilityHandler exposes window resolution and the availability write paths.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// ResolveWindow godoc
// @Summary Resolve the effective working window for a date
// @Tags Availability
// @Produce json
// @Param id path string true "Instructor ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/availability/window [get]
func (h *AvailabilityHandler) ResolveWindow(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	window, err := h.service.ResolveWindow(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// ListWeekly godoc
// @Summary List an instructor's weekly availability
// @Tags Availability
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/availability/weekly [get]
func (h *AvailabilityHandler) ListWeekly(c *gin.Context) {
	rows, err := h.service.ListWeekly(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// PutWeekly godoc
// @Summary Replace an instructor's weekly availability
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param payload body service.PutWeeklyRequest true "Weekly rows"
// @Success 204 "No Content"
// @Router /instructors/{id}/availability/weekly [put]
func (h *AvailabilityHandler) PutWeekly(c *gin.Context) {
	var req service.PutWeeklyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.PutWeekly(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAbsences godoc
// @Summary List an instructor's absences
// @Tags Availability
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/absences [get]
func (h *AvailabilityHandler) ListAbsences(c *gin.Context) {
	rows, err := h.service.ListAbsences(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// CreateAbsence godoc
// @Summary Record an instructor absence
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param payload body service.CreateAbsenceRequest true "Absence period"
// @Success 201 {object} response.Envelope
// @Router /instructors/{id}/absences [post]
func (h *AvailabilityHandler) CreateAbsence(c *gin.Context) {
	var req service.CreateAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	absence, err := h.service.CreateAbsence(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, absence)
}

// DeleteAbsence godoc
// @Summary Remove an instructor absence
// @Tags Availability
// @Param id path string true "Instructor ID"
// @Param absenceId path string true "Absence ID"
// @Success 204 "No Content"
// @Router /instructors/{id}/absences/{absenceId} [delete]
func (h *AvailabilityHandler) DeleteAbsence(c *gin.Context) {
	if err := h.service.DeleteAbsence(c.Request.Context(), c.Param("id"), c.Param("absenceId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListGlobal godoc
// @Summary List school-wide availability rows
// @Tags Availability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /availability/global [get]
func (h *AvailabilityHandler) ListGlobal(c *gin.Context) {
	rows, err := h.service.ListGlobal(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// PutGlobalDefault godoc
// @Summary Set the school-wide default window for a weekday
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body service.PutGlobalDefaultRequest true "Default window"
// @Success 200 {object} response.Envelope
// @Router /availability/global [put]
func (h *AvailabilityHandler) PutGlobalDefault(c *gin.Context) {
	var req service.PutGlobalDefaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := h.service.PutGlobalDefault(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// CreateSpecial godoc
// @Summary Add a date-ranged school-wide override
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body service.CreateSpecialRequest true "Special range"
// @Success 201 {object} response.Envelope
// @Router /availability/special [post]
func (h *AvailabilityHandler) CreateSpecial(c *gin.Context) {
	var req service.CreateSpecialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := h.service.CreateSpecial(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, row)
}
