package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-vaccination-api/internal/dto"
	"github.com/noah-isme/school-vaccination-api/internal/models"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
	"github.com/noah-isme/school-vaccination-api/pkg/response"
)

type vaccinationService interface {
	Vaccinate(ctx context.Context, studentID, driveID string) (*dto.VaccinationResult, error)
	Eligibility(ctx context.Context, studentID, driveID string, historical bool) (models.Eligibility, error)
}

// VaccinationHandler records vaccinations against drives.
type VaccinationHandler struct {
	service vaccinationService
}

// NewVaccinationHandler constructs VaccinationHandler.
func NewVaccinationHandler(svc vaccinationService) *VaccinationHandler {
	return &VaccinationHandler{service: svc}
}

// Vaccinate godoc
// @Summary Record vaccination
// @Description Vaccinates the student in the given drive. Vaccine name and date are taken from the drive.
// @Tags Vaccinations
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.VaccinateRequest true "Vaccination payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/vaccinate [post]
func (h *VaccinationHandler) Vaccinate(c *gin.Context) {
	var req dto.VaccinateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid vaccination payload"))
		return
	}
	driveID := strings.TrimSpace(req.DriveID)
	if driveID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "driveId is required"))
		return
	}

	result, err := h.service.Vaccinate(c.Request.Context(), c.Param("id"), driveID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Eligibility godoc
// @Summary Check vaccination eligibility
// @Tags Vaccinations
// @Produce json
// @Param id path string true "Student ID"
// @Param driveId query string true "Drive ID"
// @Param historical query bool false "Allow drives dated before today"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/eligibility [get]
func (h *VaccinationHandler) Eligibility(c *gin.Context) {
	driveID := strings.TrimSpace(c.Query("driveId"))
	if driveID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "driveId is required"))
		return
	}
	historical := false
	if raw := c.Query("historical"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "historical must be a boolean"))
			return
		}
		historical = parsed
	}

	result, err := h.service.Eligibility(c.Request.Context(), c.Param("id"), driveID, historical)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
