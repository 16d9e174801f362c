package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-vaccination-api/internal/dto"
	"github.com/noah-isme/school-vaccination-api/internal/models"
	"github.com/noah-isme/school-vaccination-api/internal/repository"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
)

type vaccinationRecorder interface {
	Record(ctx context.Context, studentID, driveID string, check repository.VaccinationCheck) (*models.Vaccination, *models.Drive, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type driveFinder interface {
	FindByID(ctx context.Context, id string) (*models.Drive, error)
}

// VaccinationService records vaccinations and answers eligibility questions.
type VaccinationService struct {
	recorder vaccinationRecorder
	students studentFinder
	drives   driveFinder
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewVaccinationService constructs the vaccination workflow.
func NewVaccinationService(recorder vaccinationRecorder, students studentFinder, drives driveFinder, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *VaccinationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VaccinationService{
		recorder: recorder,
		students: students,
		drives:   drives,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Vaccinate marks the student as vaccinated at the drive and consumes one dose. Past drives are
// accepted so events can be recorded after the fact.
func (s *VaccinationService) Vaccinate(ctx context.Context, studentID, driveID string) (*dto.VaccinationResult, error) {
	driveID = strings.TrimSpace(driveID)
	if driveID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "driveId is required")
	}

	today := todayFrom(s.now)
	vaccination, drive, err := s.recorder.Record(ctx, studentID, driveID, func(student models.StudentDetail, drive models.Drive) error {
		result := CheckEligibility(student, drive, EligibilityOptions{AllowHistorical: true}, today)
		if !result.Eligible {
			return reasonConflict(result.Reason)
		}
		return nil
	})
	if err != nil {
		mapped := s.mapRecordError(err)
		if reason := appErrors.ReasonOf(mapped); reason != "" {
			s.metrics.RecordVaccination(ResultRejected, reason)
		} else if errors.Is(mapped, appErrors.ErrStorage) {
			s.metrics.RecordVaccination(ResultError, "")
		}
		return nil, mapped
	}

	s.metrics.RecordVaccination(ResultSuccess, "")
	s.cache.InvalidateDashboard(ctx)
	s.logger.Info("student vaccinated",
		zap.String("student_id", studentID),
		zap.String("drive_id", driveID),
		zap.String("vaccine", vaccination.VaccineName),
		zap.Int("doses_left", drive.AvailableDoses),
	)
	return &dto.VaccinationResult{Vaccination: *vaccination, Drive: *drive}, nil
}

// Eligibility evaluates the rules without recording anything.
func (s *VaccinationService) Eligibility(ctx context.Context, studentID, driveID string, historical bool) (models.Eligibility, error) {
	if strings.TrimSpace(driveID) == "" {
		return models.Eligibility{}, appErrors.Clone(appErrors.ErrValidation, "driveId is required")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Eligibility{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return models.Eligibility{}, appErrors.Storage(err, "failed to load student")
	}
	drive, err := s.drives.FindByID(ctx, driveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Eligibility{}, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return models.Eligibility{}, appErrors.Storage(err, "failed to load drive")
	}
	return CheckEligibility(*student, *drive, EligibilityOptions{AllowHistorical: historical}, todayFrom(s.now)), nil
}

func (s *VaccinationService) mapRecordError(err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrStudentNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	case errors.Is(err, repository.ErrDriveNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "drive not found")
	case errors.Is(err, repository.ErrDuplicateKey):
		return reasonConflict(models.ReasonAlreadyVaccinated)
	case errors.Is(err, repository.ErrNoDosesLeft):
		return reasonConflict(models.ReasonNoDoses)
	default:
		s.logger.Error("vaccination failed", zap.Error(err))
		return appErrors.Storage(err, "failed to record vaccination")
	}
}
