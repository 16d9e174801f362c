package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-vaccination-api/internal/models"
	"github.com/noah-isme/school-vaccination-api/internal/service"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
	"github.com/noah-isme/school-vaccination-api/pkg/response"
)

type driveService interface {
	List(ctx context.Context, past *bool) ([]models.Drive, error)
	Get(ctx context.Context, id string) (*models.Drive, error)
	Create(ctx context.Context, req service.DriveRequest) (*models.Drive, error)
	Update(ctx context.Context, id string, req service.DriveRequest) (*models.Drive, error)
	Delete(ctx context.Context, id string) error
}

// DriveHandler exposes vaccination drive endpoints.
type DriveHandler struct {
	drives driveService
}

// NewDriveHandler constructs DriveHandler.
func NewDriveHandler(drives driveService) *DriveHandler {
	return &DriveHandler{drives: drives}
}

// List godoc
// @Summary List vaccination drives
// @Tags Drives
// @Produce json
// @Param past query bool false "true for drives before today, false for today onwards"
// @Success 200 {object} response.Envelope
// @Router /drives [get]
func (h *DriveHandler) List(c *gin.Context) {
	var past *bool
	if raw := c.Query("past"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "past must be a boolean"))
			return
		}
		past = &parsed
	}

	drives, err := h.drives.List(c.Request.Context(), past)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drives, nil)
}

// Get godoc
// @Summary Get drive
// @Tags Drives
// @Produce json
// @Param id path string true "Drive ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /drives/{id} [get]
func (h *DriveHandler) Get(c *gin.Context) {
	drive, err := h.drives.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}

// Create godoc
// @Summary Schedule drive
// @Tags Drives
// @Accept json
// @Produce json
// @Param payload body service.DriveRequest true "Drive payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /drives [post]
func (h *DriveHandler) Create(c *gin.Context) {
	var req service.DriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	drive, err := h.drives.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, drive)
}

// Update godoc
// @Summary Update drive
// @Description Only drives dated today or later can be changed
// @Tags Drives
// @Accept json
// @Produce json
// @Param id path string true "Drive ID"
// @Param payload body service.DriveRequest true "Drive payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /drives/{id} [put]
func (h *DriveHandler) Update(c *gin.Context) {
	var req service.DriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	drive, err := h.drives.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}

// Delete godoc
// @Summary Delete drive
// @Tags Drives
// @Param id path string true "Drive ID"
// @Success 204 {string} string ""
// @Failure 409 {object} response.Envelope
// @Router /drives/{id} [delete]
func (h *DriveHandler) Delete(c *gin.Context) {
	if err := h.drives.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
