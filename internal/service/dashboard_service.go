package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/yoga-escrow-api/internal/dto"
	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
)

// SnapshotCacheKey holds the raw escrow snapshot. Derived views are never cached.
const SnapshotCacheKey = "ledger:escrows:snapshot"

type escrowLister interface {
	ListAll(ctx context.Context) ([]models.RawEscrow, error)
}

// OpportunitySort selects the order of the opportunities list.
type OpportunitySort string

const (
	SortRecent   OpportunitySort = "recent"
	SortPayout   OpportunitySort = "payout"
	SortEarliest OpportunitySort = "earliest"
)

// ParseOpportunitySort maps a query value onto a sort mode. Empty selects SortRecent.
func ParseOpportunitySort(raw string) (OpportunitySort, error) {
	switch mode := OpportunitySort(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return SortRecent, nil
	case SortRecent, SortPayout, SortEarliest:
		return mode, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "sort must be one of recent, payout, earliest")
	}
}

// DashboardOptions customises a dashboard request.
type DashboardOptions struct {
	Sort OpportunitySort
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	SnapshotTTL time.Duration
	Pipeline    PipelineConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Ledger  escrowLister
	Cache   *CacheService
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  DashboardServiceConfig
}

// DashboardService loads escrow snapshots and runs the pipeline for teacher and admin views.
type DashboardService struct {
	ledger   escrowLister
	cache    *CacheService
	metrics  *MetricsService
	pipeline *Pipeline
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig

	mu         sync.Mutex
	refreshing map[string]struct{}
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 15 * time.Second
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		ledger:     params.Ledger,
		cache:      params.Cache,
		metrics:    params.Metrics,
		pipeline:   NewPipeline(cfg.Pipeline),
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
		refreshing: make(map[string]struct{}),
	}
}

// Teacher returns the dashboard for handle and reports whether the snapshot came from cache.
func (s *DashboardService) Teacher(ctx context.Context, handle string, opts DashboardOptions) (*dto.TeacherDashboardResponse, bool, error) {
	handle, err := NormalizeHandle(handle)
	if err != nil {
		return nil, false, err
	}
	records, hit, err := s.loadSnapshot(ctx, false)
	if err != nil {
		return nil, false, err
	}
	return s.compose(handle, records, opts), hit, nil
}

// Refresh bypasses the cache, re-caches a fresh snapshot and returns the rebuilt dashboard.
// A refresh already running for the same handle is rejected rather than doubled.
func (s *DashboardService) Refresh(ctx context.Context, handle string, opts DashboardOptions) (*dto.TeacherDashboardResponse, error) {
	handle, err := NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}
	if !s.beginRefresh(handle) {
		return nil, appErrors.Clone(appErrors.ErrRefreshInProgress, "a refresh for "+handle+" is already running")
	}
	defer s.endRefresh(handle)

	records, _, err := s.loadSnapshot(ctx, true)
	if err != nil {
		return nil, err
	}
	return s.compose(handle, records, opts), nil
}

// Admin summarises the whole snapshot.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminOverviewResponse, bool, error) {
	records, hit, err := s.loadSnapshot(ctx, false)
	if err != nil {
		return nil, false, err
	}
	return &dto.AdminOverviewResponse{
		Ledger: buildOverview(records, s.cfg.Pipeline.TokenDecimals, s.now().UTC()),
		System: s.metrics.Snapshot(),
	}, hit, nil
}

// InvalidateSnapshot drops the cached snapshot so the next read hits the ledger.
func (s *DashboardService) InvalidateSnapshot(ctx context.Context) error {
	return s.cache.Invalidate(ctx, SnapshotCacheKey)
}

func (s *DashboardService) beginRefresh(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.refreshing[handle]; running {
		return false
	}
	s.refreshing[handle] = struct{}{}
	return true
}

func (s *DashboardService) endRefresh(handle string) {
	s.mu.Lock()
	delete(s.refreshing, handle)
	s.mu.Unlock()
}

func (s *DashboardService) loadSnapshot(ctx context.Context, bypassCache bool) ([]models.RawEscrow, bool, error) {
	if !bypassCache {
		var cached []models.RawEscrow
		hit, err := s.cache.Get(ctx, SnapshotCacheKey, &cached)
		if err != nil {
			s.logger.Warn("snapshot cache read failed, falling back to ledger", zap.Error(err))
		} else if hit {
			return cached, true, nil
		}
	}

	if s.ledger == nil {
		return nil, false, appErrors.Clone(appErrors.ErrLedgerUnavailable, "ledger reader not configured")
	}
	start := time.Now()
	records, err := s.ledger.ListAll(ctx)
	s.metrics.ObserveLedgerQuery("list_all", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrLedgerUnavailable.Code, appErrors.ErrLedgerUnavailable.Status, "failed to load escrow snapshot")
	}

	_ = s.cache.Set(ctx, SnapshotCacheKey, records, s.cfg.SnapshotTTL)
	return records, false, nil
}

func (s *DashboardService) compose(handle string, records []models.RawEscrow, opts DashboardOptions) *dto.TeacherDashboardResponse {
	if opts.Sort == "" {
		opts.Sort = SortRecent
	}
	now := s.now()

	start := time.Now()
	result := s.pipeline.Run(records, handle, now)
	s.metrics.ObservePipeline(time.Since(start), result)

	sortOpportunities(result.Opportunities, opts.Sort)
	sort.SliceStable(result.UpcomingClasses, func(i, j int) bool {
		return result.UpcomingClasses[i].ClassTime.Before(result.UpcomingClasses[j].ClassTime)
	})
	sort.SliceStable(result.ClassHistory, func(i, j int) bool {
		return result.ClassHistory[i].ClassTime.After(result.ClassHistory[j].ClassTime)
	})

	s.logger.Debug("dashboard composed",
		zap.String("handle", handle),
		zap.Int("records", len(records)),
		zap.Int("opportunities", len(result.Opportunities)),
		zap.Int("upcoming", len(result.UpcomingClasses)),
		zap.Int("history", len(result.ClassHistory)),
	)

	return &dto.TeacherDashboardResponse{
		Handle:          handle,
		Sort:            string(opts.Sort),
		GeneratedAt:     now.UTC(),
		Opportunities:   result.Opportunities,
		UpcomingClasses: result.UpcomingClasses,
		ClassHistory:    result.ClassHistory,
	}
}

func sortOpportunities(groups []models.GroupedOpportunity, mode OpportunitySort) {
	var less func(a, b models.GroupedOpportunity) bool
	switch mode {
	case SortPayout:
		less = func(a, b models.GroupedOpportunity) bool { return a.TotalPayout.GreaterThan(b.TotalPayout) }
	case SortEarliest:
		less = func(a, b models.GroupedOpportunity) bool { return a.ProposedTime.Before(b.ProposedTime) }
	default:
		less = func(a, b models.GroupedOpportunity) bool { return a.LatestCreatedAt.After(b.LatestCreatedAt) }
	}
	sort.SliceStable(groups, func(i, j int) bool { return less(groups[i], groups[j]) })
}

func buildOverview(records []models.RawEscrow, decimals int32, now time.Time) models.LedgerOverview {
	statuses := []models.EscrowStatus{models.EscrowPending, models.EscrowAccepted, models.EscrowDelivered, models.EscrowCancelled}
	byStatus := make(map[models.EscrowStatus]*models.StatusVolume, len(statuses))
	overview := models.LedgerOverview{
		TotalEscrows: len(records),
		ByStatus:     make([]models.StatusVolume, 0, len(statuses)),
		ValueLocked:  decimal.Zero,
		GeneratedAt:  now,
	}
	for _, status := range statuses {
		byStatus[status] = &models.StatusVolume{Status: status, Volume: decimal.Zero}
	}

	teachers := make(map[string]struct{})
	students := make(map[string]struct{})
	for _, record := range records {
		payout := record.Payout(decimals)
		if bucket, ok := byStatus[record.Status]; ok {
			bucket.Count++
			bucket.Volume = bucket.Volume.Add(payout)
		}
		if record.Status == models.EscrowPending || record.Status == models.EscrowAccepted {
			overview.ValueLocked = overview.ValueLocked.Add(payout)
		}
		if record.SelectedHandle != nil {
			teachers[*record.SelectedHandle] = struct{}{}
		}
		students[strings.ToLower(record.Student)] = struct{}{}
	}

	for _, status := range statuses {
		overview.ByStatus = append(overview.ByStatus, *byStatus[status])
	}
	overview.ActiveTeachers = len(teachers)
	overview.Students = len(students)
	return overview
}
