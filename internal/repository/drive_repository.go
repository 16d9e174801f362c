package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-vaccination-api/internal/models"
)

const driveColumns = "id, vaccine_name, date, available_doses, applicable_grades, description, created_at, updated_at"

// DriveRepository manages persistence for vaccination drives.
type DriveRepository struct {
	db *sqlx.DB
}

// NewDriveRepository constructs a DriveRepository.
func NewDriveRepository(db *sqlx.DB) *DriveRepository {
	return &DriveRepository{db: db}
}

// List returns drives ordered by date. Past splits around filter.Today.
func (r *DriveRepository) List(ctx context.Context, filter models.DriveFilter) ([]models.Drive, error) {
	var conditions []string
	var args []interface{}

	if filter.Past != nil {
		op := ">="
		if *filter.Past {
			op = "<"
		}
		conditions = append(conditions, fmt.Sprintf("date %s $%d", op, len(args)+1))
		args = append(args, filter.Today)
	}
	if filter.VaccineName != "" {
		conditions = append(conditions, fmt.Sprintf("vaccine_name = $%d", len(args)+1))
		args = append(args, filter.VaccineName)
	}

	query := fmt.Sprintf("SELECT %s FROM drives WHERE 1=1", driveColumns)
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, created_at ASC"

	var drives []models.Drive
	if err := r.db.SelectContext(ctx, &drives, query, args...); err != nil {
		return nil, fmt.Errorf("list drives: %w", err)
	}
	return drives, nil
}

// ListUpcoming returns drives dated today or later, soonest first. limit <= 0 returns all of them.
func (r *DriveRepository) ListUpcoming(ctx context.Context, today models.Date, limit int) ([]models.Drive, error) {
	query := fmt.Sprintf("SELECT %s FROM drives WHERE date >= $1 ORDER BY date ASC, created_at ASC", driveColumns)
	args := []interface{}{today}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	var drives []models.Drive
	if err := r.db.SelectContext(ctx, &drives, query, args...); err != nil {
		return nil, fmt.Errorf("list upcoming drives: %w", err)
	}
	return drives, nil
}

// FindByID fetches a drive. Missing rows return ErrDriveNotFound.
func (r *DriveRepository) FindByID(ctx context.Context, id string) (*models.Drive, error) {
	query := fmt.Sprintf("SELECT %s FROM drives WHERE id = $1", driveColumns)
	var drive models.Drive
	if err := r.db.GetContext(ctx, &drive, query, id); err != nil {
		if isMissingRow(err) {
			return nil, ErrDriveNotFound
		}
		return nil, fmt.Errorf("find drive: %w", err)
	}
	return &drive, nil
}

// Create inserts a new drive.
func (r *DriveRepository) Create(ctx context.Context, drive *models.Drive) error {
	if drive.ID == "" {
		drive.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if drive.CreatedAt.IsZero() {
		drive.CreatedAt = now
	}
	drive.UpdatedAt = now
	const query = `INSERT INTO drives (id, vaccine_name, date, available_doses, applicable_grades, description, created_at, updated_at)
        VALUES (:id, :vaccine_name, :date, :available_doses, :applicable_grades, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, drive); err != nil {
		return fmt.Errorf("create drive: %w", mapPQError(err))
	}
	return nil
}

// Update overwrites the mutable drive fields.
func (r *DriveRepository) Update(ctx context.Context, drive *models.Drive) error {
	drive.UpdatedAt = time.Now().UTC()
	const query = `UPDATE drives SET vaccine_name = :vaccine_name, date = :date, available_doses = :available_doses, applicable_grades = :applicable_grades, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, drive)
	if isMissingRow(err) {
		return ErrDriveNotFound
	}
	if err != nil {
		return fmt.Errorf("update drive: %w", mapPQError(err))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrDriveNotFound
	}
	return nil
}

// Delete removes a drive. Drives referenced by vaccinations yield ErrForeignKey.
func (r *DriveRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drives WHERE id = $1`, id)
	if isMissingRow(err) {
		return ErrDriveNotFound
	}
	if err != nil {
		return fmt.Errorf("delete drive: %w", mapPQError(err))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrDriveNotFound
	}
	return nil
}
