package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-vaccination-api/internal/models"
)

// Student list paging bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

const studentDetailColumns = `s.id, s.student_id, s.first_name, s.last_name, s.grade, s.section, s.date_of_birth, s.gender, s.created_at, s.updated_at,
        v.id AS vaccination_id, v.drive_id AS vaccination_drive_id, v.vaccine_name AS vaccination_vaccine_name, v.date AS vaccination_date, v.created_at AS vaccination_created_at`

// studentRow mirrors the students LEFT JOIN vaccinations projection.
type studentRow struct {
	models.Student
	VaccinationID        sql.NullString `db:"vaccination_id"`
	VaccinationDriveID   sql.NullString `db:"vaccination_drive_id"`
	VaccinationVaccine   sql.NullString `db:"vaccination_vaccine_name"`
	VaccinationDate      models.Date    `db:"vaccination_date"`
	VaccinationCreatedAt sql.NullTime   `db:"vaccination_created_at"`
}

func (r studentRow) vaccination() *models.Vaccination {
	if !r.VaccinationID.Valid {
		return nil
	}
	return &models.Vaccination{
		ID:          r.VaccinationID.String,
		StudentID:   r.ID,
		DriveID:     r.VaccinationDriveID.String,
		VaccineName: r.VaccinationVaccine.String,
		Date:        r.VaccinationDate,
		CreatedAt:   r.VaccinationCreatedAt.Time,
	}
}

func (r studentRow) detail() models.StudentDetail {
	return models.NewStudentDetail(r.Student, r.vaccination())
}

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s LEFT JOIN vaccinations v ON v.student_id = s.id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf("(s.first_name ILIKE $%d OR s.last_name ILIKE $%d OR (s.first_name || ' ' || s.last_name) ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, likePattern(filter.Name))
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("s.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	switch filter.VaccinationStatus {
	case models.VaccinationStatusVaccinated:
		conditions = append(conditions, "v.id IS NOT NULL")
	case models.VaccinationStatusNotVaccinated:
		conditions = append(conditions, "v.id IS NULL")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s
        %s ORDER BY s.created_at DESC, s.id LIMIT %d OFFSET %d`, studentDetailColumns, base, size, offset)

	var rows []studentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	students := make([]models.StudentDetail, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.detail())
	}
	return students, total, nil
}

// FindByID fetches a student with its vaccination by ID. Missing rows return ErrStudentNotFound.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM students s
        LEFT JOIN vaccinations v ON v.student_id = s.id
        WHERE s.id = $1`, studentDetailColumns)
	var row studentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if isMissingRow(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	detail := row.detail()
	return &detail, nil
}

// ExistsByStudentID checks if a student with the given school identifier exists, optionally excluding an ID.
func (r *StudentRepository) ExistsByStudentID(ctx context.Context, studentID string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE student_id = $1"
	args := []interface{}{studentID}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student id: %w", err)
	}
	return true, nil
}

// Create inserts a new student record. A taken student_id yields ErrDuplicateKey.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, student_id, first_name, last_name, grade, section, date_of_birth, gender, created_at, updated_at)
        VALUES (:id, :student_id, :first_name, :last_name, :grade, :section, :date_of_birth, :gender, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", mapPQError(err))
	}
	return nil
}

// Update modifies an existing student. student_id is immutable and never written here.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, grade = :grade, section = :section, date_of_birth = :date_of_birth, gender = :gender, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if isMissingRow(err) {
		return ErrStudentNotFound
	}
	if err != nil {
		return fmt.Errorf("update student: %w", mapPQError(err))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// Delete removes a student and its vaccination record in one transaction. Drive doses are not restored.
func (r *StudentRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked string
	if err = tx.GetContext(ctx, &locked, `SELECT id FROM students WHERE id = $1 FOR UPDATE`, id); err != nil {
		if isMissingRow(err) {
			err = ErrStudentNotFound
			return err
		}
		return fmt.Errorf("lock student: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM vaccinations WHERE student_id = $1`, id); err != nil {
		return fmt.Errorf("delete student vaccination: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit student delete: %w", err)
	}
	return nil
}
