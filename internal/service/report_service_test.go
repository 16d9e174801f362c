package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-vaccination-api/internal/dto"
	"github.com/noah-isme/school-vaccination-api/internal/models"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
)

func seededReportStore(t *testing.T) *memoryStore {
	t.Helper()
	store := newMemoryStore()
	ana := store.addStudent(models.Student{StudentID: "S-1", FirstName: "Ana", LastName: "Lopez", Grade: "Grade 10", Section: "A"})
	store.addStudent(models.Student{StudentID: "S-2", FirstName: "Ben", LastName: "Adams", Grade: "Grade 2", Section: "B"})
	cy := store.addStudent(models.Student{StudentID: "S-3", FirstName: "Cy", LastName: "Adams", Grade: "Grade 10", Section: "A"})
	mmr := store.addDrive(models.Drive{VaccineName: "MMR", Date: models.NewDate(2026, time.October, 1), AvailableDoses: 5, ApplicableGrades: []string{"Grade 10"}})
	polio := store.addDrive(models.Drive{VaccineName: "Polio", Date: models.NewDate(2026, time.October, 2), AvailableDoses: 5, ApplicableGrades: []string{"Grade 10"}})

	vaccinations := newVaccinationServiceForTest(store, nil)
	_, err := vaccinations.Vaccinate(context.Background(), ana.ID, mmr.ID)
	require.NoError(t, err)
	_, err = vaccinations.Vaccinate(context.Background(), cy.ID, polio.ID)
	require.NoError(t, err)
	return store
}

func newReportServiceForTest(store *memoryStore, pdfEnabled bool) *ReportService {
	svc := NewReportService(reportStore{store}, ReportConfig{PDFEnabled: pdfEnabled}, zap.NewNop(), nil, nil)
	svc.now = fixedClock
	return svc
}

func TestReportGenerateOrdersAndFlags(t *testing.T) {
	svc := newReportServiceForTest(seededReportStore(t), true)

	rows, err := svc.Generate(context.Background(), models.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "S-2", rows[0].StudentID)
	assert.False(t, rows[0].Vaccinated)
	assert.Nil(t, rows[0].VaccineName)
	assert.Nil(t, rows[0].DateAdministered)

	assert.Equal(t, "S-3", rows[1].StudentID)
	assert.Equal(t, "S-1", rows[2].StudentID)
	require.NotNil(t, rows[2].VaccineName)
	assert.Equal(t, "MMR", *rows[2].VaccineName)
	assert.Equal(t, "2026-10-01", rows[2].DriveDate.String())
	assert.Equal(t, "2026-10-01", rows[2].DateAdministered.String())
}

func TestBuildReportRowUsesRecordedDate(t *testing.T) {
	row := buildReportRow(models.StudentVaccinationRecord{
		Student: models.Student{StudentID: "S-1"},
		Vaccination: &models.Vaccination{
			VaccineName: "MMR",
			Date:        models.NewDate(2026, time.October, 1),
			CreatedAt:   time.Date(2026, time.October, 2, 3, 30, 0, 0, time.UTC),
		},
	})

	require.NotNil(t, row.DateAdministered)
	assert.Equal(t, "2026-10-01", row.DateAdministered.String())
	assert.Equal(t, "2026-10-01", row.DriveDate.String())
}

func TestReportGenerateVaccineFilterExcludesUnvaccinated(t *testing.T) {
	svc := newReportServiceForTest(seededReportStore(t), true)

	rows, err := svc.Generate(context.Background(), models.ReportFilter{VaccineName: "MMR"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "S-1", rows[0].StudentID)

	rows, err = svc.Generate(context.Background(), models.ReportFilter{Grade: "2"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "S-2", rows[0].StudentID)
}

func TestReportRenderJSONAndCSVAgree(t *testing.T) {
	svc := newReportServiceForTest(seededReportStore(t), true)

	jsonReport, err := svc.Render(context.Background(), dto.ReportRequest{Format: models.ReportFormatJSON})
	require.NoError(t, err)
	var decoded []models.ReportRow
	require.NoError(t, json.Unmarshal(jsonReport.Payload, &decoded))

	csvReport, err := svc.Render(context.Background(), dto.ReportRequest{Format: models.ReportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, "vaccination_report_20261016.csv", csvReport.Filename)
	records, err := csv.NewReader(strings.NewReader(string(csvReport.Payload))).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, len(decoded)+1)
	assert.Equal(t, reportHeaders, records[0])
	for i, row := range decoded {
		line := records[i+1]
		assert.Equal(t, row.StudentID, line[0])
		assert.Equal(t, row.Grade, line[3])
		if row.Vaccinated {
			assert.Equal(t, "true", line[5])
			assert.Equal(t, *row.VaccineName, line[6])
			assert.Equal(t, row.DriveDate.String(), line[8])
		} else {
			assert.Equal(t, "false", line[5])
			assert.Empty(t, line[6])
			assert.Empty(t, line[7])
		}
	}
	assert.Equal(t, jsonReport.Rows, csvReport.Rows)
}

func TestReportRenderPDF(t *testing.T) {
	store := seededReportStore(t)

	report, err := newReportServiceForTest(store, true).Render(context.Background(), dto.ReportRequest{Format: models.ReportFormatPDF, VaccineName: "Polio"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.True(t, strings.HasPrefix(string(report.Payload), "%PDF"))
	assert.Equal(t, "vaccination_report_Polio_20261016.pdf", report.Filename)

	_, err = newReportServiceForTest(store, false).Render(context.Background(), dto.ReportRequest{Format: models.ReportFormatPDF})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
