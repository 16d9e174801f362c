package models

import (
	"time"

	"github.com/lib/pq"
)

// Drive is a scheduled vaccination event with limited doses and grade eligibility.
type Drive struct {
	ID               string         `db:"id" json:"id"`
	VaccineName      string         `db:"vaccine_name" json:"vaccineName"`
	Date             Date           `db:"date" json:"date"`
	AvailableDoses   int            `db:"available_doses" json:"availableDoses"`
	ApplicableGrades pq.StringArray `db:"applicable_grades" json:"applicableGrades"`
	Description      string         `db:"description" json:"description"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// IsUpcoming reports whether the drive is today or later. Only upcoming drives are editable.
func (d Drive) IsUpcoming(today Date) bool {
	return !d.Date.BeforeDate(today)
}

// AppliesTo reports whether grade is in the drive's applicable grades.
func (d Drive) AppliesTo(grade string) bool {
	canonical, ok := NormalizeGrade(grade)
	if !ok {
		return false
	}
	for _, g := range d.ApplicableGrades {
		if c, ok := NormalizeGrade(g); ok && c == canonical {
			return true
		}
	}
	return false
}

// DriveFilter narrows drive listings. Past nil lists every drive.
type DriveFilter struct {
	Past        *bool
	VaccineName string
	Today       Date
}
