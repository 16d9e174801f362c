package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-vaccination-api/internal/models"
)

// VaccinationCheck decides, under lock, whether the student may be vaccinated at the drive.
// A non-nil error aborts the transaction and is returned unchanged.
type VaccinationCheck func(student models.StudentDetail, drive models.Drive) error

// VaccinationRepository records vaccinations together with the drive dose decrement.
type VaccinationRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewVaccinationRepository constructs a VaccinationRepository.
func NewVaccinationRepository(db *sqlx.DB) *VaccinationRepository {
	return &VaccinationRepository{db: db, now: time.Now}
}

// Record locks the student then the drive, runs check, inserts the vaccination snapshot and
// decrements the drive's available doses. Either both writes commit or neither does.
func (r *VaccinationRepository) Record(ctx context.Context, studentID, driveID string, check VaccinationCheck) (vaccination *models.Vaccination, drive *models.Drive, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin vaccination: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	studentQuery := fmt.Sprintf(`SELECT %s
        FROM students s
        LEFT JOIN vaccinations v ON v.student_id = s.id
        WHERE s.id = $1 FOR UPDATE OF s`, studentDetailColumns)
	var row studentRow
	if err = tx.GetContext(ctx, &row, studentQuery, studentID); err != nil {
		if isMissingRow(err) {
			err = ErrStudentNotFound
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock student: %w", err)
	}

	driveQuery := fmt.Sprintf("SELECT %s FROM drives WHERE id = $1 FOR UPDATE", driveColumns)
	var locked models.Drive
	if err = tx.GetContext(ctx, &locked, driveQuery, driveID); err != nil {
		if isMissingRow(err) {
			err = ErrDriveNotFound
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock drive: %w", err)
	}

	if err = check(row.detail(), locked); err != nil {
		return nil, nil, err
	}

	now := r.now().UTC()
	record := &models.Vaccination{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		DriveID:     driveID,
		VaccineName: locked.VaccineName,
		Date:        locked.Date,
		CreatedAt:   now,
	}
	const insert = `INSERT INTO vaccinations (id, student_id, drive_id, vaccine_name, date, created_at)
        VALUES (:id, :student_id, :drive_id, :vaccine_name, :date, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, record); err != nil {
		err = fmt.Errorf("insert vaccination: %w", mapPQError(err))
		return nil, nil, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE drives SET available_doses = available_doses - 1, updated_at = $2 WHERE id = $1 AND available_doses > 0`, driveID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("decrement doses: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, nil, fmt.Errorf("decrement doses: %w", err)
	}
	if affected == 0 {
		err = ErrNoDosesLeft
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit vaccination: %w", err)
	}

	locked.AvailableDoses--
	locked.UpdatedAt = now
	return record, &locked, nil
}
