package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sma-timetable/scheduler-api/internal/dto"
	"github.com/sma-timetable/scheduler-api/internal/service"
	appErrors "github.com/sma-timetable/scheduler-api/pkg/errors"
	"github.com/sma-timetable/scheduler-api/pkg/response"
)

// GenerationHandler exposes the timetable generation engine's
// propose-then-commit workflow over HTTP.
type GenerationHandler struct {
	service *service.GenerationService
}

// NewGenerationHandler constructs a GenerationHandler.
func NewGenerationHandler(svc *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{service: svc}
}

// Generate godoc
// @Summary Generate a timetable proposal for a term
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation request"
// @Success 200 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	proposal, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Commit godoc
// @Summary Commit a previously generated timetable proposal
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.CommitTimetableRequest true "Commit request"
// @Success 201 {object} response.Envelope
// @Router /timetables/commit [post]
func (h *GenerationHandler) Commit(c *gin.Context) {
	var req dto.CommitTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	timetable, err := h.service.Commit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable)
}

// List godoc
// @Summary List timetables generated for a term
// @Tags Timetables
// @Produce json
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *GenerationHandler) List(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	timetables, err := h.service.List(c.Request.Context(), query.TermID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetables, nil)
}

// Slots godoc
// @Summary List the slots belonging to a committed timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/slots [get]
func (h *GenerationHandler) Slots(c *gin.Context) {
	slots, err := h.service.Slots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}
