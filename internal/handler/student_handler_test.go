package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-vaccination-api/internal/models"
	"github.com/noah-isme/school-vaccination-api/internal/service"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
)

type fakeStudentSrv struct {
	lastFilter models.StudentFilter
	lastID     string
	created    service.CreateStudentRequest
	updated    service.UpdateStudentRequest
	detail     *models.StudentDetail
	err        error
}

func (f *fakeStudentSrv) List(_ context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, nil, f.err
	}
	return []models.StudentDetail{{Student: models.Student{ID: "s-1", StudentID: "STU-1"}}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (f *fakeStudentSrv) Get(_ context.Context, id string) (*models.StudentDetail, error) {
	f.lastID = id
	return f.detail, f.err
}

func (f *fakeStudentSrv) Create(_ context.Context, req service.CreateStudentRequest) (*models.StudentDetail, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.StudentDetail{Student: models.Student{ID: "s-new", StudentID: req.StudentID}}, nil
}

func (f *fakeStudentSrv) Update(_ context.Context, id string, req service.UpdateStudentRequest) (*models.StudentDetail, error) {
	f.lastID = id
	f.updated = req
	return f.detail, f.err
}

func (f *fakeStudentSrv) Delete(_ context.Context, id string) error {
	f.lastID = id
	return f.err
}

func TestStudentHandlerListParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeStudentSrv{}
	handler := NewStudentHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students?name=%20ana%20&grade=5&vaccinationStatus=not_vaccinated&page=2&limit=50", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", srv.lastFilter.Name)
	assert.Equal(t, "5", srv.lastFilter.Grade)
	assert.Equal(t, models.VaccinationStatusNotVaccinated, srv.lastFilter.VaccinationStatus)
	assert.Equal(t, 2, srv.lastFilter.Page)
	assert.Equal(t, 50, srv.lastFilter.PageSize)

	envelope := decodeEnvelope(t, rec)
	assert.EqualValues(t, 1, envelope.Pagination["total_count"])
}

func TestStudentHandlerListRejectsUnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStudentHandler(&fakeStudentSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students?vaccinationStatus=partial", nil)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeStudentSrv{}
	handler := NewStudentHandler(srv)

	body := `{"studentId":"STU-9","firstName":"Ana","lastName":"Lima","grade":"Grade 5","section":"A","dateOfBirth":"2015-03-02","gender":"Female"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "STU-9", srv.created.StudentID)
	assert.Equal(t, models.NewDate(2015, 3, 2), srv.created.DateOfBirth)
}

func TestStudentHandlerCreateRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStudentHandler(&fakeStudentSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(`{"dateOfBirth":"02/03/2015"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, rec).Error["code"])
}

func TestStudentHandlerCreateDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStudentHandler(&fakeStudentSrv{err: appErrors.Clone(appErrors.ErrDuplicateKey, "studentId already exists")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(`{"studentId":"STU-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, appErrors.ErrDuplicateKey.Code, decodeEnvelope(t, rec).Error["code"])
}

func TestStudentHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeStudentSrv{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")}
	handler := NewStudentHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "missing", srv.lastID)
}

func TestStudentHandlerUpdateAndDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeStudentSrv{detail: &models.StudentDetail{Student: models.Student{ID: "s-1", FirstName: "Bea"}}}
	handler := NewStudentHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/students/s-1", bytes.NewBufferString(`{"firstName":"Bea"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}

	handler.Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bea", srv.updated.FirstName)
	var detail models.StudentDetail
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &detail))
	assert.Equal(t, "s-1", detail.ID)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/students/s-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "s-1", srv.lastID)
}
