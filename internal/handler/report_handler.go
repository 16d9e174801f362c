package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-vaccination-api/internal/dto"
	"github.com/noah-isme/school-vaccination-api/internal/models"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
	"github.com/noah-isme/school-vaccination-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, filter models.ReportFilter) ([]models.ReportRow, error)
	Render(ctx context.Context, req dto.ReportRequest) (*dto.RenderedReport, error)
}

// ReportHandler exposes vaccination compliance reports.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Vaccinations godoc
// @Summary Vaccination compliance report
// @Description One row per student. A vaccine filter leaves out unvaccinated students.
// @Tags Reports
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param vaccineName query string false "Vaccine name"
// @Param grade query string false "Grade"
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/vaccinations [get]
func (h *ReportHandler) Vaccinations(c *gin.Context) {
	format, ok := models.ParseReportFormat(c.Query("format"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or pdf"))
		return
	}
	req := dto.ReportRequest{
		VaccineName: strings.TrimSpace(c.Query("vaccineName")),
		Grade:       strings.TrimSpace(c.Query("grade")),
		Format:      format,
	}

	if format == models.ReportFormatJSON {
		rows, err := h.reports.Generate(c.Request.Context(), models.ReportFilter{VaccineName: req.VaccineName, Grade: req.Grade})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, rows, nil, map[string]interface{}{"count": len(rows)})
		return
	}

	rendered, err := h.reports.Render(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, rendered.Filename, rendered.ContentType, rendered.Payload)
}
