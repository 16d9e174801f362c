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

	"github.com/noah-isme/school-vaccination-api/internal/dto"
	"github.com/noah-isme/school-vaccination-api/internal/models"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
)

type fakeVaccinationSrv struct {
	studentID  string
	driveID    string
	historical bool
	result     *dto.VaccinationResult
	eligible   models.Eligibility
	err        error
}

func (f *fakeVaccinationSrv) Vaccinate(_ context.Context, studentID, driveID string) (*dto.VaccinationResult, error) {
	f.studentID, f.driveID = studentID, driveID
	return f.result, f.err
}

func (f *fakeVaccinationSrv) Eligibility(_ context.Context, studentID, driveID string, historical bool) (models.Eligibility, error) {
	f.studentID, f.driveID, f.historical = studentID, driveID, historical
	return f.eligible, f.err
}

func TestVaccinationHandlerVaccinateIgnoresClientSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeVaccinationSrv{result: &dto.VaccinationResult{
		Vaccination: models.Vaccination{ID: "v-1", VaccineName: "MMR"},
		Drive:       models.Drive{ID: "d-1", AvailableDoses: 9},
	}}
	handler := NewVaccinationHandler(srv)

	body := `{"driveId":" d-1 ","vaccineName":"Other","date":"2020-01-01"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students/s-1/vaccinate", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}

	handler.Vaccinate(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s-1", srv.studentID)
	assert.Equal(t, "d-1", srv.driveID)

	var result dto.VaccinationResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &result))
	assert.Equal(t, "MMR", result.Vaccination.VaccineName)
	assert.Equal(t, 9, result.Drive.AvailableDoses)
}

func TestVaccinationHandlerVaccinateConflictCarriesReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVaccinationHandler(&fakeVaccinationSrv{err: appErrors.Conflict(string(models.ReasonNoDoses), "drive has no doses left")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students/s-1/vaccinate", bytes.NewBufferString(`{"driveId":"d-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}

	handler.Vaccinate(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, appErrors.ErrConflict.Code, envelope.Error["code"])
	assert.Equal(t, "noDoses", envelope.Error["reason"])
}

func TestVaccinationHandlerVaccinateRequiresDrive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeVaccinationSrv{}
	handler := NewVaccinationHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students/s-1/vaccinate", bytes.NewBufferString(`{"vaccineName":"MMR"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Vaccinate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.studentID)
}

func TestVaccinationHandlerEligibility(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeVaccinationSrv{eligible: models.Eligibility{Eligible: false, Reason: models.ReasonGradeMismatch}}
	handler := NewVaccinationHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/s-1/eligibility?driveId=d-2&historical=true", nil)
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}

	handler.Eligibility(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.historical)
	assert.Equal(t, "d-2", srv.driveID)
	var result models.Eligibility
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &result))
	assert.Equal(t, models.ReasonGradeMismatch, result.Reason)
}

func TestVaccinationHandlerEligibilityValidatesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVaccinationHandler(&fakeVaccinationSrv{})

	for _, target := range []string{"/students/s-1/eligibility", "/students/s-1/eligibility?driveId=d-1&historical=maybe"} {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)

		handler.Eligibility(c)

		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
