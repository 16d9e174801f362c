package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-vaccination-api/internal/models"
)

// ReportRepository runs the read-only aggregate queries behind the dashboard and reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CountStudents returns total and vaccinated student counts from one snapshot.
func (r *ReportRepository) CountStudents(ctx context.Context) (models.VaccinationCounts, error) {
	const query = `SELECT COUNT(s.id) AS total, COUNT(v.id) AS vaccinated
        FROM students s
        LEFT JOIN vaccinations v ON v.student_id = s.id`
	var counts models.VaccinationCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return models.VaccinationCounts{}, fmt.Errorf("count students: %w", err)
	}
	return counts, nil
}

// StudentRecords returns every student joined with its vaccination. A vaccine filter keeps only
// students vaccinated with that vaccine.
func (r *ReportRepository) StudentRecords(ctx context.Context, filter models.ReportFilter) ([]models.StudentVaccinationRecord, error) {
	var conditions []string
	var args []interface{}
	if filter.VaccineName != "" {
		conditions = append(conditions, fmt.Sprintf("v.vaccine_name = $%d", len(args)+1))
		args = append(args, filter.VaccineName)
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("s.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}

	query := fmt.Sprintf(`SELECT %s
        FROM students s
        LEFT JOIN vaccinations v ON v.student_id = s.id
        WHERE 1=1`, studentDetailColumns)
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.last_name ASC, s.first_name ASC, s.student_id ASC"

	var rows []studentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("report student records: %w", err)
	}

	records := make([]models.StudentVaccinationRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.StudentVaccinationRecord{Student: row.Student, Vaccination: row.vaccination()})
	}
	return records, nil
}
