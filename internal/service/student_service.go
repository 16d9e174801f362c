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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByStudentID(ctx context.Context, studentID string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	StudentID   string      `json:"studentId" validate:"required,max=64"`
	FirstName   string      `json:"firstName" validate:"required,max=100"`
	LastName    string      `json:"lastName" validate:"required,max=100"`
	Grade       string      `json:"grade" validate:"required,grade"`
	Section     string      `json:"section" validate:"max=20"`
	DateOfBirth models.Date `json:"dateOfBirth" validate:"required"`
	Gender      string      `json:"gender" validate:"required,oneof=Male Female Other"`
}

// UpdateStudentRequest holds payload for updating students. StudentID may be echoed back but never changed.
type UpdateStudentRequest struct {
	StudentID   string      `json:"studentId" validate:"max=64"`
	FirstName   string      `json:"firstName" validate:"required,max=100"`
	LastName    string      `json:"lastName" validate:"required,max=100"`
	Grade       string      `json:"grade" validate:"required,grade"`
	Section     string      `json:"section" validate:"max=20"`
	DateOfBirth models.Date `json:"dateOfBirth" validate:"required"`
	Gender      string      `json:"gender" validate:"required,oneof=Male Female Other"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	if filter.Grade != "" {
		grade, ok := models.NormalizeGrade(filter.Grade)
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade filter")
		}
		filter.Grade = grade
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = repository.DefaultPageSize
	}
	if filter.PageSize > repository.MaxPageSize {
		filter.PageSize = repository.MaxPageSize
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "failed to list students")
	}
	if students == nil {
		students = []models.StudentDetail{}
	}
	return students, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a student with its vaccination.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Storage(err, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.StudentDetail, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Section = strings.TrimSpace(req.Section)
	req.Gender = normalizeGender(req.Gender)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	if err := s.checkBirthDate(req.DateOfBirth); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByStudentID(ctx, req.StudentID, "")
	if err != nil {
		return nil, appErrors.Storage(err, "failed to validate student id")
	}
	if exists {
		return nil, duplicateStudentID()
	}

	grade, _ := models.NormalizeGrade(req.Grade)
	student := &models.Student{
		StudentID:   req.StudentID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Grade:       grade,
		Section:     req.Section,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, duplicateStudentID()
		}
		return nil, appErrors.Storage(err, "failed to create student")
	}
	s.cache.InvalidateDashboard(ctx)

	detail := models.NewStudentDetail(*student, nil)
	return &detail, nil
}

// Update modifies an existing student. The school student ID is immutable.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Section = strings.TrimSpace(req.Section)
	req.Gender = normalizeGender(req.Gender)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	if err := s.checkBirthDate(req.DateOfBirth); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.StudentID != "" && req.StudentID != existing.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId cannot be changed")
	}

	grade, _ := models.NormalizeGrade(req.Grade)
	student := existing.Student
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Grade = grade
	student.Section = req.Section
	student.DateOfBirth = req.DateOfBirth
	student.Gender = req.Gender
	if err := s.repo.Update(ctx, &student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Storage(err, "failed to update student")
	}
	s.cache.InvalidateDashboard(ctx)

	detail := models.NewStudentDetail(student, existing.Vaccination)
	return &detail, nil
}

// Delete removes a student and its vaccination. Doses consumed by the student stay consumed.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Storage(err, "failed to delete student")
	}
	s.cache.InvalidateDashboard(ctx)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

func (s *StudentService) checkBirthDate(dob models.Date) error {
	if todayFrom(s.now).BeforeDate(dob) {
		return appErrors.Clone(appErrors.ErrValidation, "dateOfBirth cannot be in the future")
	}
	return nil
}

func duplicateStudentID() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrDuplicateKey, "studentId already registered")
}

func normalizeGender(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, g := range []string{models.GenderMale, models.GenderFemale, models.GenderOther} {
		if strings.EqualFold(trimmed, g) {
			return g
		}
	}
	switch strings.ToUpper(trimmed) {
	case "M":
		return models.GenderMale
	case "F":
		return models.GenderFemale
	}
	return trimmed
}
