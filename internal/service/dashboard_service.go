package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-vaccination-api/internal/dto"
	"github.com/noah-isme/school-vaccination-api/internal/models"
	appErrors "github.com/noah-isme/school-vaccination-api/pkg/errors"
)

type countRepository interface {
	CountStudents(ctx context.Context) (models.VaccinationCounts, error)
}

type upcomingDriveRepository interface {
	ListUpcoming(ctx context.Context, today models.Date, limit int) ([]models.Drive, error)
}

// DashboardConfig tunes dashboard assembly.
type DashboardConfig struct {
	// UpcomingLimit caps upcoming drives; 0 lists every one.
	UpcomingLimit int
	CacheTTL      time.Duration
}

// DashboardService assembles the admin dashboard summary.
type DashboardService struct {
	counts countRepository
	drives upcomingDriveRepository
	cache  *CacheService
	cfg    DashboardConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(counts countRepository, drives upcomingDriveRepository, cache *CacheService, cfg DashboardConfig, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{counts: counts, drives: drives, cache: cache, cfg: cfg, logger: logger, now: time.Now}
}

// Stats returns the dashboard summary and whether it came from cache.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, bool, error) {
	today := todayFrom(s.now)
	key := dashboardCachePrefix + today.String()

	var cached dto.DashboardStats
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	counts, err := s.counts.CountStudents(ctx)
	if err != nil {
		return nil, false, appErrors.Storage(err, "failed to count students")
	}
	drives, err := s.drives.ListUpcoming(ctx, today, s.cfg.UpcomingLimit)
	if err != nil {
		return nil, false, appErrors.Storage(err, "failed to list upcoming drives")
	}
	if drives == nil {
		drives = []models.Drive{}
	}

	stats := &dto.DashboardStats{
		TotalStudents:         counts.Total,
		VaccinatedStudents:    counts.Vaccinated,
		VaccinationPercentage: VaccinationPercentage(counts.Vaccinated, counts.Total),
		UpcomingDrives:        drives,
		AsOf:                  today,
	}
	s.cache.Set(ctx, key, stats, s.cfg.CacheTTL)
	return stats, false, nil
}

// VaccinationPercentage rounds vaccinated/total to a whole percent; no students is 0%.
func VaccinationPercentage(vaccinated, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(vaccinated) / float64(total)))
}
