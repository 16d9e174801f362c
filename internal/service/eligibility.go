package service

import (
	"github.com/noah-isme/school-vaccination-api/internal/models"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
)

// EligibilityOptions relaxes the drive date rule when recording past drives after the fact.
type EligibilityOptions struct {
	AllowHistorical bool
}

// CheckEligibility applies the vaccination rules in order and reports the first failure.
func CheckEligibility(student models.StudentDetail, drive models.Drive, opts EligibilityOptions, today models.Date) models.Eligibility {
	if !opts.AllowHistorical && drive.Date.BeforeDate(today) {
		return models.Eligibility{Reason: models.ReasonDrivePast}
	}
	if !drive.AppliesTo(student.Grade) {
		return models.Eligibility{Reason: models.ReasonGradeMismatch}
	}
	if student.Vaccination != nil {
		return models.Eligibility{Reason: models.ReasonAlreadyVaccinated}
	}
	if drive.AvailableDoses <= 0 {
		return models.Eligibility{Reason: models.ReasonNoDoses}
	}
	return models.Eligibility{Eligible: true}
}

var reasonMessages = map[models.EligibilityReason]string{
	models.ReasonDrivePast:         "drive date has already passed",
	models.ReasonGradeMismatch:     "student grade is not eligible for this drive",
	models.ReasonAlreadyVaccinated: "student is already vaccinated",
	models.ReasonNoDoses:           "drive has no doses left",
	models.ReasonDriveInUse:        "drive has recorded vaccinations",
}

func reasonConflict(reason models.EligibilityReason) *appErrors.Error {
	return appErrors.Conflict(string(reason), reasonMessages[reason])
}
