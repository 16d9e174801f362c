package service

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/school-vaccination-api/internal/dto"
	"github.com/noah-isme/school-vaccination-api/internal/models"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
	"github.com/noah-isme/school-vaccination-api/pkg/importer"
)

type studentCreator interface {
	Create(ctx context.Context, req CreateStudentRequest) (*models.StudentDetail, error)
}

// ImportConfig bounds bulk imports.
type ImportConfig struct {
	Concurrency int
	MaxRows     int
}

// ImportService creates students in bulk through the regular create path.
type ImportService struct {
	students studentCreator
	metrics  *MetricsService
	cfg      ImportConfig
	logger   *zap.Logger
}

// NewImportService constructs an ImportService.
func NewImportService(students studentCreator, metrics *MetricsService, cfg ImportConfig, logger *zap.Logger) *ImportService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{students: students, metrics: metrics, cfg: cfg, logger: logger}
}

// ImportRows creates one student per row. A failing row never stops the others; the unique index
// settles duplicate student IDs between rows running in parallel. Failures come back in row order.
func (s *ImportService) ImportRows(ctx context.Context, rows []dto.StudentImportRow) (*dto.ImportResult, error) {
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import contains no rows")
	}
	if s.cfg.MaxRows > 0 && len(rows) > s.cfg.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import exceeds the maximum number of rows")
	}

	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, s.cfg.Concurrency)
		mu        sync.Mutex
		result    = &dto.ImportResult{Total: len(rows), Failed: []dto.ImportFailure{}}
	)
	fail := func(row dto.StudentImportRow, err error) {
		appErr := appErrors.FromError(err)
		mu.Lock()
		result.Failed = append(result.Failed, dto.ImportFailure{Row: row.Row, StudentID: row.StudentID, Reason: appErr.Message, Code: appErr.Code})
		mu.Unlock()
	}

	for i, row := range rows {
		if row.Row == 0 {
			row.Row = i + 1
		}
		if ctx.Err() != nil {
			fail(row, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "import cancelled"))
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(row dto.StudentImportRow) {
			defer wg.Done()
			defer func() { <-semaphore }()

			req, err := importRequest(row)
			if err == nil {
				_, err = s.students.Create(ctx, req)
			}
			if err != nil {
				fail(row, err)
				return
			}
			mu.Lock()
			result.Succeeded++
			mu.Unlock()
		}(row)
	}
	wg.Wait()

	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Row < result.Failed[j].Row })
	s.metrics.RecordImportRows(ResultSuccess, result.Succeeded)
	s.metrics.RecordImportRows(ResultRejected, len(result.Failed))
	s.logger.Info("student import finished",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// ImportRecords adapts parsed CSV records and imports them. Row numbers are the CSV line numbers.
func (s *ImportService) ImportRecords(ctx context.Context, records []importer.Record) (*dto.ImportResult, error) {
	return s.ImportRows(ctx, RowsFromRecords(records))
}

// RowsFromRecords maps CSV columns onto import rows. Common header spellings are accepted.
func RowsFromRecords(records []importer.Record) []dto.StudentImportRow {
	rows := make([]dto.StudentImportRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, dto.StudentImportRow{
			Row:         record.Line,
			StudentID:   field(record, "studentid", "id", "studentnumber"),
			FirstName:   field(record, "firstname", "first"),
			LastName:    field(record, "lastname", "last", "surname"),
			Grade:       field(record, "grade", "class"),
			Section:     field(record, "section"),
			DateOfBirth: field(record, "dateofbirth", "dob", "birthdate"),
			Gender:      field(record, "gender", "sex"),
		})
	}
	return rows
}

func field(record importer.Record, keys ...string) string {
	for _, key := range keys {
		if v, ok := record.Fields[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

func importRequest(row dto.StudentImportRow) (CreateStudentRequest, error) {
	dob, err := models.ParseDate(row.DateOfBirth)
	if err != nil {
		return CreateStudentRequest{}, appErrors.Validation(err, "invalid dateOfBirth")
	}
	return CreateStudentRequest{
		StudentID:   row.StudentID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Grade:       row.Grade,
		Section:     row.Section,
		DateOfBirth: dob,
		Gender:      row.Gender,
	}, nil
}
