package dto

import "github.com/noah-isme/school-vaccination-api/internal/models"

// ReportRequest carries query parameters for the vaccination report.
type ReportRequest struct {
	VaccineName string
	Grade       string
	Format      models.ReportFormat
}

// RenderedReport is an encoded report ready to be streamed.
type RenderedReport struct {
	Filename    string
	ContentType string
	Payload     []byte
	Rows        int
}
