package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/school-vaccination-api/internal/models"
	"github.com/noah-isme/school-vaccination-api/internal/repository"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
)

var fixedNow = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// memoryStore serialises every write behind one mutex, standing in for the row locks Postgres takes.
type memoryStore struct {
	mu           sync.Mutex
	seq          int
	students     map[string]models.Student
	drives       map[string]models.Drive
	vaccinations map[string]models.Vaccination
	failWith     error
	lastFilter   models.StudentFilter
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		students:     map[string]models.Student{},
		drives:       map[string]models.Drive{},
		vaccinations: map[string]models.Vaccination{},
	}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memoryStore) addStudent(s models.Student) models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = m.nextID("stu")
	}
	m.students[s.ID] = s
	return s
}

func (m *memoryStore) addDrive(d models.Drive) models.Drive {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = m.nextID("drv")
	}
	m.drives[d.ID] = d
	return d
}

func (m *memoryStore) detail(s models.Student) models.StudentDetail {
	if v, ok := m.vaccinations[s.ID]; ok {
		return models.NewStudentDetail(s, &v)
	}
	return models.NewStudentDetail(s, nil)
}

func (m *memoryStore) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	var out []models.StudentDetail
	for _, s := range m.students {
		out = append(out, m.detail(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, len(out), nil
}

func (m *memoryStore) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, repository.ErrStudentNotFound
	}
	d := m.detail(s)
	return &d, nil
}

func (m *memoryStore) ExistsByStudentID(ctx context.Context, studentID string, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.students {
		if s.StudentID == studentID && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Create(ctx context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, s := range m.students {
		if s.StudentID == student.StudentID {
			return fmt.Errorf("create student: %w", repository.ErrDuplicateKey)
		}
	}
	if student.ID == "" {
		student.ID = m.nextID("stu")
	}
	student.CreatedAt = fixedNow
	student.UpdatedAt = fixedNow
	m.students[student.ID] = *student
	return nil
}

func (m *memoryStore) Update(ctx context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.students[student.ID]
	if !ok {
		return repository.ErrStudentNotFound
	}
	student.StudentID = existing.StudentID
	m.students[student.ID] = *student
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return repository.ErrStudentNotFound
	}
	delete(m.vaccinations, id)
	delete(m.students, id)
	return nil
}

func (m *memoryStore) Record(ctx context.Context, studentID, driveID string, check repository.VaccinationCheck) (*models.Vaccination, *models.Drive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	student, ok := m.students[studentID]
	if !ok {
		return nil, nil, repository.ErrStudentNotFound
	}
	drive, ok := m.drives[driveID]
	if !ok {
		return nil, nil, repository.ErrDriveNotFound
	}
	if err := check(m.detail(student), drive); err != nil {
		return nil, nil, err
	}
	if m.failWith != nil {
		return nil, nil, m.failWith
	}
	v := models.Vaccination{
		ID:          m.nextID("vac"),
		StudentID:   studentID,
		DriveID:     driveID,
		VaccineName: drive.VaccineName,
		Date:        drive.Date,
		CreatedAt:   fixedNow,
	}
	m.vaccinations[studentID] = v
	drive.AvailableDoses--
	m.drives[driveID] = drive
	return &v, &drive, nil
}

// driveStore adapts memoryStore to the drive repository contract.
type driveStore struct{ *memoryStore }

func (d driveStore) List(ctx context.Context, filter models.DriveFilter) ([]models.Drive, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Drive
	for _, drive := range d.drives {
		if filter.Past != nil && *filter.Past != drive.Date.BeforeDate(filter.Today) {
			continue
		}
		out = append(out, drive)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.BeforeDate(out[j].Date) })
	return out, nil
}

func (d driveStore) ListUpcoming(ctx context.Context, today models.Date, limit int) ([]models.Drive, error) {
	past := false
	drives, _ := d.List(ctx, models.DriveFilter{Past: &past, Today: today})
	if limit > 0 && len(drives) > limit {
		drives = drives[:limit]
	}
	return drives, nil
}

func (d driveStore) FindByID(ctx context.Context, id string) (*models.Drive, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	drive, ok := d.drives[id]
	if !ok {
		return nil, repository.ErrDriveNotFound
	}
	return &drive, nil
}

func (d driveStore) Create(ctx context.Context, drive *models.Drive) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if drive.ID == "" {
		drive.ID = d.nextID("drv")
	}
	d.drives[drive.ID] = *drive
	return nil
}

func (d driveStore) Update(ctx context.Context, drive *models.Drive) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.drives[drive.ID]; !ok {
		return repository.ErrDriveNotFound
	}
	d.drives[drive.ID] = *drive
	return nil
}

func (d driveStore) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.drives[id]; !ok {
		return repository.ErrDriveNotFound
	}
	for _, v := range d.vaccinations {
		if v.DriveID == id {
			return fmt.Errorf("delete drive: %w", repository.ErrForeignKey)
		}
	}
	delete(d.drives, id)
	return nil
}

// reportStore adapts memoryStore to the aggregate queries.
type reportStore struct{ *memoryStore }

func (r reportStore) CountStudents(ctx context.Context) (models.VaccinationCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return models.VaccinationCounts{}, r.failWith
	}
	return models.VaccinationCounts{Total: len(r.students), Vaccinated: len(r.vaccinations)}, nil
}

func (r reportStore) StudentRecords(ctx context.Context, filter models.ReportFilter) ([]models.StudentVaccinationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StudentVaccinationRecord
	for _, s := range r.students {
		if filter.Grade != "" && s.Grade != filter.Grade {
			continue
		}
		record := models.StudentVaccinationRecord{Student: s}
		if v, ok := r.vaccinations[s.ID]; ok {
			record.Vaccination = &v
		}
		out = append(out, record)
	}
	return out, nil
}

// memoryCache is an in-process CacheRepository holding JSON like Redis does.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memoryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
