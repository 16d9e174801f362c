package models

import "strings"

// ReportFormat enumerates report encodings.
type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ParseReportFormat defaults to JSON when raw is empty.
func ParseReportFormat(raw string) (ReportFormat, bool) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ReportFormatJSON:
		return ReportFormatJSON, true
	case ReportFormatCSV:
		return ReportFormatCSV, true
	case ReportFormatPDF:
		return ReportFormatPDF, true
	default:
		return "", false
	}
}

// ReportFilter narrows compliance reports. A vaccine filter excludes unvaccinated students.
type ReportFilter struct {
	VaccineName string
	Grade       string
}

// ReportRow is one student line of the compliance report.
type ReportRow struct {
	StudentID        string  `json:"studentId"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Grade            string  `json:"grade"`
	Section          string  `json:"section"`
	Vaccinated       bool    `json:"vaccinated"`
	VaccineName      *string `json:"vaccineName"`
	DateAdministered *Date   `json:"dateAdministered"`
	DriveDate        *Date   `json:"driveDate"`
}

// StudentVaccinationRecord is the joined student/vaccination snapshot reports are built from.
type StudentVaccinationRecord struct {
	Student
	Vaccination *Vaccination
}

// VaccinationCounts holds the dashboard totals computed in a single aggregate query.
type VaccinationCounts struct {
	Total      int `db:"total"`
	Vaccinated int `db:"vaccinated"`
}
