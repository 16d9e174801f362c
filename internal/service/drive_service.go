package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-vaccination-api/internal/models"
	"github.com/noah-isme/school-vaccination-api/internal/repository"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
)

type driveRepository interface {
	List(ctx context.Context, filter models.DriveFilter) ([]models.Drive, error)
	FindByID(ctx context.Context, id string) (*models.Drive, error)
	Create(ctx context.Context, drive *models.Drive) error
	Update(ctx context.Context, drive *models.Drive) error
	Delete(ctx context.Context, id string) error
}

// DriveRequest is the create/update payload for drives. Grades accept "5" or "Grade 5".
type DriveRequest struct {
	VaccineName      string      `json:"vaccineName" validate:"required,max=120"`
	Date             models.Date `json:"date" validate:"required"`
	AvailableDoses   *int        `json:"availableDoses" validate:"required,min=0"`
	ApplicableGrades []string    `json:"applicableGrades" validate:"required,min=1,dive,grade"`
	Description      string      `json:"description" validate:"max=500"`
}

// DriveService manages vaccination drives. Only drives dated today or later can change.
type DriveService struct {
	repo      driveRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewDriveService constructs the drive service.
func NewDriveService(repo driveRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DriveService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriveService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns drives ordered by date; past nil lists all of them.
func (s *DriveService) List(ctx context.Context, past *bool) ([]models.Drive, error) {
	drives, err := s.repo.List(ctx, models.DriveFilter{Past: past, Today: todayFrom(s.now)})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list drives")
	}
	if drives == nil {
		drives = []models.Drive{}
	}
	return drives, nil
}

// Get returns a drive by id.
func (s *DriveService) Get(ctx context.Context, id string) (*models.Drive, error) {
	drive, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Storage(err, "failed to load drive")
	}
	return drive, nil
}

// Create schedules a new drive.
func (s *DriveService) Create(ctx context.Context, req DriveRequest) (*models.Drive, error) {
	drive, err := s.buildDrive(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, drive); err != nil {
		return nil, appErrors.Storage(err, "failed to create drive")
	}
	s.cache.InvalidateDashboard(ctx)
	s.logger.Info("drive scheduled", zap.String("drive_id", drive.ID), zap.String("vaccine", drive.VaccineName), zap.String("date", drive.Date.String()))
	return drive, nil
}

// Update edits an upcoming drive.
func (s *DriveService) Update(ctx context.Context, id string, req DriveRequest) (*models.Drive, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsUpcoming(todayFrom(s.now)) {
		return nil, appErrors.Conflict(string(models.ReasonDrivePast), "past drives cannot be edited")
	}
	drive, err := s.buildDrive(req)
	if err != nil {
		return nil, err
	}
	drive.ID = existing.ID
	drive.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, drive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Storage(err, "failed to update drive")
	}
	s.cache.InvalidateDashboard(ctx)
	return drive, nil
}

// Delete removes an upcoming drive that has not vaccinated anyone.
func (s *DriveService) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !existing.IsUpcoming(todayFrom(s.now)) {
		return appErrors.Conflict(string(models.ReasonDrivePast), "past drives cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			return reasonConflict(models.ReasonDriveInUse)
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		default:
			return appErrors.Storage(err, "failed to delete drive")
		}
	}
	s.cache.InvalidateDashboard(ctx)
	s.logger.Info("drive deleted", zap.String("drive_id", id))
	return nil
}

func (s *DriveService) buildDrive(req DriveRequest) (*models.Drive, error) {
	req.VaccineName = strings.TrimSpace(req.VaccineName)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid drive payload")
	}
	grades, err := models.NormalizeGrades(req.ApplicableGrades)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid applicable grades")
	}
	if req.Date.BeforeDate(todayFrom(s.now)) {
		return nil, appErrors.Conflict(string(models.ReasonDrivePast), "drive date cannot be in the past")
	}
	return &models.Drive{
		VaccineName:      req.VaccineName,
		Date:             req.Date,
		AvailableDoses:   *req.AvailableDoses,
		ApplicableGrades: grades,
		Description:      req.Description,
	}, nil
}
