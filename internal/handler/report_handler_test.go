package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-vaccination-api/internal/dto"
	"github.com/noah-isme/school-vaccination-api/internal/models"
)

type fakeReportSrv struct {
	filter   models.ReportFilter
	request  dto.ReportRequest
	rendered bool
}

func (f *fakeReportSrv) Generate(_ context.Context, filter models.ReportFilter) ([]models.ReportRow, error) {
	f.filter = filter
	return []models.ReportRow{{StudentID: "STU-1", Grade: "Grade 5"}, {StudentID: "STU-2", Grade: "Grade 6"}}, nil
}

func (f *fakeReportSrv) Render(_ context.Context, req dto.ReportRequest) (*dto.RenderedReport, error) {
	f.request = req
	f.rendered = true
	return &dto.RenderedReport{
		Filename:    "vaccination_report_mmr_20261016.csv",
		ContentType: "text/csv",
		Payload:     []byte("Student ID\nSTU-1\n"),
		Rows:        1,
	}, nil
}

func TestReportHandlerJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeReportSrv{}
	handler := NewReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/vaccinations?vaccineName=MMR&grade=5", nil)

	handler.Vaccinations(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, srv.rendered)
	assert.Equal(t, models.ReportFilter{VaccineName: "MMR", Grade: "5"}, srv.filter)

	envelope := decodeEnvelope(t, rec)
	assert.EqualValues(t, 2, envelope.Meta["count"])
	var rows []models.ReportRow
	require.NoError(t, json.Unmarshal(envelope.Data, &rows))
	assert.Len(t, rows, 2)
}

func TestReportHandlerCSVAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeReportSrv{}
	handler := NewReportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/vaccinations?vaccineName=MMR&format=CSV", nil)

	handler.Vaccinations(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ReportFormatCSV, srv.request.Format)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "vaccination_report_mmr_20261016.csv")
	assert.Contains(t, rec.Body.String(), "STU-1")
}

func TestReportHandlerRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&fakeReportSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/vaccinations?format=xlsx", nil)

	handler.Vaccinations(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
