package models

import "time"

// Vaccination links one student to the drive that vaccinated them. VaccineName and Date are
// copied from the drive when recorded so later drive edits leave history intact.
type Vaccination struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"studentId"`
	DriveID     string    `db:"drive_id" json:"driveId"`
	VaccineName string    `db:"vaccine_name" json:"vaccineName"`
	Date        Date      `db:"date" json:"date"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
