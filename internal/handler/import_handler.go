package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-vaccination-api/internal/dto"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
	"github.com/noah-isme/school-vaccination-api/pkg/importer"
	"github.com/noah-isme/school-vaccination-api/pkg/response"
)

type importService interface {
	ImportRows(ctx context.Context, rows []dto.StudentImportRow) (*dto.ImportResult, error)
	ImportRecords(ctx context.Context, records []importer.Record) (*dto.ImportResult, error)
}

// ImportLimits caps uploaded import files.
type ImportLimits struct {
	MaxFileSize int64
	MaxRows     int
}

// ImportHandler accepts bulk student uploads.
type ImportHandler struct {
	service importService
	limits  ImportLimits
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(svc importService, limits ImportLimits) *ImportHandler {
	return &ImportHandler{service: svc, limits: limits}
}

// BulkImport godoc
// @Summary Bulk import students
// @Description Accepts a CSV upload in the "file" field or a JSON body {"rows": [...]}. Failing rows do not stop the rest.
// @Tags Students
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param file formData file false "CSV with header studentId,firstName,lastName,grade,section,dateOfBirth,gender"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/bulk-import [post]
func (h *ImportHandler) BulkImport(c *gin.Context) {
	var (
		result *dto.ImportResult
		err    error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		result, err = h.importFile(c)
	} else {
		var req dto.StudentImportRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			response.Error(c, appErrors.Wrap(bindErr, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
			return
		}
		result, err = h.service.ImportRows(c.Request.Context(), req.Rows)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *ImportHandler) importFile(c *gin.Context) (*dto.ImportResult, error) {
	if h.limits.MaxFileSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.MaxFileSize)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the upload size limit")
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	defer src.Close()

	records, err := importer.ReadCSV(src, h.limits.MaxRows)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid csv file")
	}
	return h.service.ImportRecords(c.Request.Context(), records)
}
