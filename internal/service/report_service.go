package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-vaccination-api/internal/dto"
	"github.com/noah-isme/school-vaccination-api/internal/models"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
	"github.com/noah-isme/school-vaccination-api/pkg/export"
)

type reportRepository interface {
	StudentRecords(ctx context.Context, filter models.ReportFilter) ([]models.StudentVaccinationRecord, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

// ReportConfig tunes report encodings.
type ReportConfig struct {
	Title      string
	PDFEnabled bool
}

var reportHeaders = []string{"Student ID", "First Name", "Last Name", "Grade", "Section", "Vaccinated", "Vaccine Name", "Date Administered", "Drive Date"}

// ReportService builds the vaccination compliance report.
type ReportService struct {
	repo   reportRepository
	csv    csvRenderer
	pdf    pdfRenderer
	cfg    ReportConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService constructs a ReportService. Nil renderers fall back to the default exporters.
func NewReportService(repo reportRepository, cfg ReportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if cfg.Title == "" {
		cfg.Title = "Vaccination Report"
	}
	return &ReportService{repo: repo, csv: csv, pdf: pdf, cfg: cfg, logger: logger, now: time.Now}
}

// Generate returns one row per student ordered by grade, last name, first name and student ID.
func (s *ReportService) Generate(ctx context.Context, filter models.ReportFilter) ([]models.ReportRow, error) {
	filter.VaccineName = strings.TrimSpace(filter.VaccineName)
	if filter.Grade != "" {
		grade, ok := models.NormalizeGrade(filter.Grade)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade filter")
		}
		filter.Grade = grade
	}

	records, err := s.repo.StudentRecords(ctx, filter)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load report data")
	}

	rows := make([]models.ReportRow, 0, len(records))
	for _, record := range records {
		if filter.VaccineName != "" && (record.Vaccination == nil || record.Vaccination.VaccineName != filter.VaccineName) {
			continue
		}
		rows = append(rows, buildReportRow(record))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if ga, gb := models.GradeOrder(a.Grade), models.GradeOrder(b.Grade); ga != gb {
			return ga < gb
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.StudentID < b.StudentID
	})
	return rows, nil
}

// Render encodes the report in the requested format.
func (s *ReportService) Render(ctx context.Context, req dto.ReportRequest) (*dto.RenderedReport, error) {
	rows, err := s.Generate(ctx, models.ReportFilter{VaccineName: req.VaccineName, Grade: req.Grade})
	if err != nil {
		return nil, err
	}

	var (
		payload     []byte
		contentType string
	)
	switch req.Format {
	case models.ReportFormatJSON, "":
		req.Format = models.ReportFormatJSON
		payload, err = json.Marshal(rows)
		contentType = "application/json"
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(reportDataset(rows))
		contentType = s.csv.ContentType()
	case models.ReportFormatPDF:
		if !s.cfg.PDFEnabled {
			return nil, appErrors.Clone(appErrors.ErrValidation, "pdf reports are disabled")
		}
		payload, err = s.pdf.Render(reportDataset(rows), s.reportTitle(req))
		contentType = s.pdf.ContentType()
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", req.Format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	s.logger.Debug("report rendered", zap.String("format", string(req.Format)), zap.Int("rows", len(rows)))
	return &dto.RenderedReport{
		Filename:    s.buildFilename(req),
		ContentType: contentType,
		Payload:     payload,
		Rows:        len(rows),
	}, nil
}

func buildReportRow(record models.StudentVaccinationRecord) models.ReportRow {
	row := models.ReportRow{
		StudentID: record.StudentID,
		FirstName: record.FirstName,
		LastName:  record.LastName,
		Grade:     record.Grade,
		Section:   record.Section,
	}
	if v := record.Vaccination; v != nil {
		name := v.VaccineName
		administered := v.Date
		driveDate := v.Date
		row.Vaccinated = true
		row.VaccineName = &name
		row.DateAdministered = &administered
		row.DriveDate = &driveDate
	}
	return row
}

func reportDataset(rows []models.ReportRow) export.Dataset {
	data := export.Dataset{Headers: reportHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		cells := map[string]string{
			"Student ID": row.StudentID,
			"First Name": row.FirstName,
			"Last Name":  row.LastName,
			"Grade":      row.Grade,
			"Section":    row.Section,
			"Vaccinated": strconv.FormatBool(row.Vaccinated),
		}
		if row.VaccineName != nil {
			cells["Vaccine Name"] = *row.VaccineName
		}
		if row.DateAdministered != nil {
			cells["Date Administered"] = row.DateAdministered.String()
		}
		if row.DriveDate != nil {
			cells["Drive Date"] = row.DriveDate.String()
		}
		data.Rows = append(data.Rows, cells)
	}
	return data
}

func (s *ReportService) reportTitle(req dto.ReportRequest) string {
	parts := []string{s.cfg.Title}
	if req.VaccineName != "" {
		parts = append(parts, req.VaccineName)
	}
	if req.Grade != "" {
		if grade, ok := models.NormalizeGrade(req.Grade); ok {
			parts = append(parts, grade)
		}
	}
	return strings.Join(parts, " - ")
}

func (s *ReportService) buildFilename(req dto.ReportRequest) string {
	name := "vaccination_report"
	if req.VaccineName != "" {
		name += "_" + sanitizeFilename(req.VaccineName)
	}
	return fmt.Sprintf("%s_%s.%s", name, s.now().UTC().Format("20060102"), req.Format)
}

func sanitizeFilename(raw string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(strings.TrimSpace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
