package models

import (
	"strings"
	"time"
)

// Gender values accepted for students.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Student represents a learner registered for vaccination tracking.
type Student struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"studentId"`
	FirstName   string    `db:"first_name" json:"firstName"`
	LastName    string    `db:"last_name" json:"lastName"`
	Grade       string    `db:"grade" json:"grade"`
	Section     string    `db:"section" json:"section"`
	DateOfBirth Date      `db:"date_of_birth" json:"dateOfBirth"`
	Gender      string    `db:"gender" json:"gender"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// StudentDetail is a student together with its optional vaccination record.
type StudentDetail struct {
	Student
	Vaccination *Vaccination `json:"vaccination"`
	Vaccinated  bool         `json:"vaccinated"`
}

// NewStudentDetail links a student with its vaccination, which may be nil.
func NewStudentDetail(student Student, vaccination *Vaccination) StudentDetail {
	return StudentDetail{Student: student, Vaccination: vaccination, Vaccinated: vaccination != nil}
}

// VaccinationStatus filters students by whether they own a vaccination record.
type VaccinationStatus string

const (
	VaccinationStatusAny           VaccinationStatus = ""
	VaccinationStatusVaccinated    VaccinationStatus = "vaccinated"
	VaccinationStatusNotVaccinated VaccinationStatus = "not_vaccinated"
)

// ParseVaccinationStatus accepts the list filter values used by the admin UI.
func ParseVaccinationStatus(raw string) (VaccinationStatus, bool) {
	switch VaccinationStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case VaccinationStatusAny:
		return VaccinationStatusAny, true
	case VaccinationStatusVaccinated:
		return VaccinationStatusVaccinated, true
	case VaccinationStatusNotVaccinated, "not-vaccinated", "unvaccinated":
		return VaccinationStatusNotVaccinated, true
	default:
		return VaccinationStatusAny, false
	}
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Name              string
	Grade             string
	VaccinationStatus VaccinationStatus
	Page              int
	PageSize          int
}
