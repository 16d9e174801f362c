package dto

import "github.com/noah-isme/school-vaccination-api/internal/models"

// VaccinateRequest is the body of POST /students/:id/vaccinate. VaccineName and Date are accepted
// for compatibility with the admin UI but the drive's own values are always recorded.
type VaccinateRequest struct {
	DriveID     string      `json:"driveId" validate:"required"`
	VaccineName string      `json:"vaccineName"`
	Date        models.Date `json:"date"`
}

// VaccinationResult returns the recorded vaccination with the updated drive.
type VaccinationResult struct {
	Vaccination models.Vaccination `json:"vaccination"`
	Drive       models.Drive       `json:"drive"`
}
