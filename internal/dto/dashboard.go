package dto

import "github.com/noah-isme/school-vaccination-api/internal/models"

// DashboardStats is the admin dashboard summary.
type DashboardStats struct {
	TotalStudents         int            `json:"totalStudents"`
	VaccinatedStudents    int            `json:"vaccinatedStudents"`
	VaccinationPercentage int            `json:"vaccinationPercentage"`
	UpcomingDrives        []models.Drive `json:"upcomingDrives"`
	AsOf                  models.Date    `json:"asOf"`
}
