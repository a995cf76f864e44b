package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
)

type fakeLedger struct {
	mu      sync.Mutex
	records []models.RawEscrow
	err     error
	calls   int
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeLedger) ListAll(ctx context.Context) ([]models.RawEscrow, error) {
	f.mu.Lock()
	f.calls++
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeLedger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestDashboardService(ledger escrowLister, cache *CacheService) *DashboardService {
	svc := NewDashboardService(DashboardServiceParams{
		Ledger:  ledger,
		Cache:   cache,
		Metrics: NewMetricsService(),
		Config:  DashboardServiceConfig{Pipeline: PipelineConfig{TokenDecimals: 6}},
	})
	svc.now = func() time.Time { return testNow }
	return svc
}

func dashboardFixture() []models.RawEscrow {
	soon, later := at(2*time.Hour), at(48*time.Hour)
	early := escrow(1, models.EscrowPending, "Park", "10", []string{teacherX}, soon)
	big := escrow(2, models.EscrowPending, "Roof", "90", []string{teacherX}, later)
	recent := escrow(3, models.EscrowPending, "Dome", "40", []string{teacherX}, later)
	return []models.RawEscrow{
		early,
		big,
		recent,
		confirmed(escrow(4, models.EscrowAccepted, "Hall", "15", []string{teacherX}, later), teacherX, 0),
		confirmed(escrow(5, models.EscrowAccepted, "Hall", "15", []string{teacherX}, soon), teacherX, 0),
		confirmed(escrow(6, models.EscrowDelivered, "Hall", "12", []string{teacherX}, at(-48*time.Hour)), teacherX, 0),
		confirmed(escrow(7, models.EscrowDelivered, "Hall", "12", []string{teacherX}, at(-2*time.Hour)), teacherX, 0),
		confirmed(escrow(8, models.EscrowCancelled, "Hall", "5", []string{"@other"}, later), "@other", 0),
	}
}

func TestDashboardTeacherServesSnapshotFromCache(t *testing.T) {
	ledger := &fakeLedger{records: dashboardFixture()}
	repo := newStubCacheRepo()
	svc := newTestDashboardService(ledger, NewCacheService(repo, nil, 0, nil, true))
	ctx := context.Background()

	first, hit, err := svc.Teacher(ctx, "teacherX", DashboardOptions{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, teacherX, first.Handle)
	assert.Equal(t, string(SortRecent), first.Sort)
	assert.Equal(t, 15*time.Second, repo.ttls[SnapshotCacheKey])

	second, hit, err := svc.Teacher(ctx, teacherX, DashboardOptions{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, ledger.callCount())
	assert.Equal(t, len(first.Opportunities), len(second.Opportunities))
	assert.Equal(t, len(first.UpcomingClasses), len(second.UpcomingClasses))
	assert.Equal(t, len(first.ClassHistory), len(second.ClassHistory))

	_, err = svc.Refresh(ctx, teacherX, DashboardOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.callCount())

	require.NoError(t, svc.InvalidateSnapshot(ctx))
	_, hit, err = svc.Teacher(ctx, teacherX, DashboardOptions{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, ledger.callCount())
}

func TestDashboardTeacherOrdering(t *testing.T) {
	svc := newTestDashboardService(&fakeLedger{records: dashboardFixture()}, nil)
	ctx := context.Background()

	ids := func(groups []models.GroupedOpportunity) []uint64 {
		out := make([]uint64, 0, len(groups))
		for _, g := range groups {
			out = append(out, g.Opportunities[0].EscrowID)
		}
		return out
	}

	recent, _, err := svc.Teacher(ctx, teacherX, DashboardOptions{Sort: SortRecent})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 2, 1}, ids(recent.Opportunities))

	payout, _, err := svc.Teacher(ctx, teacherX, DashboardOptions{Sort: SortPayout})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3, 1}, ids(payout.Opportunities))

	earliest, _, err := svc.Teacher(ctx, teacherX, DashboardOptions{Sort: SortEarliest})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids(earliest.Opportunities))

	require.Len(t, earliest.UpcomingClasses, 2)
	assert.Equal(t, uint64(5), earliest.UpcomingClasses[0].EscrowID)
	assert.Equal(t, uint64(4), earliest.UpcomingClasses[1].EscrowID)

	require.Len(t, earliest.ClassHistory, 2)
	assert.Equal(t, uint64(7), earliest.ClassHistory[0].EscrowID)
	assert.Equal(t, uint64(6), earliest.ClassHistory[1].EscrowID)
}

func TestDashboardRejectsInvalidHandle(t *testing.T) {
	ledger := &fakeLedger{records: dashboardFixture()}
	svc := newTestDashboardService(ledger, nil)

	_, _, err := svc.Teacher(context.Background(), "not a handle", DashboardOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidHandle))
	assert.Zero(t, ledger.callCount())
}

func TestDashboardLedgerFailure(t *testing.T) {
	svc := newTestDashboardService(&fakeLedger{err: errors.New("connection reset")}, nil)

	_, _, err := svc.Teacher(context.Background(), teacherX, DashboardOptions{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrLedgerUnavailable.Code, appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)

	noLedger := newTestDashboardService(nil, nil)
	_, _, err = noLedger.Admin(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrLedgerUnavailable))
}

func TestDashboardCacheReadErrorFallsBackToLedger(t *testing.T) {
	repo := newStubCacheRepo()
	repo.getErr = errors.New("redis down")
	ledger := &fakeLedger{records: dashboardFixture()}
	svc := newTestDashboardService(ledger, NewCacheService(repo, nil, 0, nil, true))

	resp, hit, err := svc.Teacher(context.Background(), teacherX, DashboardOptions{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotEmpty(t, resp.Opportunities)
	assert.Equal(t, 1, ledger.callCount())
}

func TestDashboardRefreshRejectsOverlap(t *testing.T) {
	ledger := &fakeLedger{
		records: dashboardFixture(),
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	svc := newTestDashboardService(ledger, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(ctx, teacherX, DashboardOptions{})
		done <- err
	}()
	<-ledger.entered

	_, err := svc.Refresh(ctx, teacherX, DashboardOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrRefreshInProgress))

	ledger.mu.Lock()
	ledger.entered = nil
	ledger.mu.Unlock()
	close(ledger.block)
	require.NoError(t, <-done)

	_, err = svc.Refresh(ctx, teacherX, DashboardOptions{})
	assert.NoError(t, err)
}

func TestDashboardAdminOverview(t *testing.T) {
	svc := newTestDashboardService(&fakeLedger{records: dashboardFixture()}, nil)

	resp, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	overview := resp.Ledger
	assert.Equal(t, 8, overview.TotalEscrows)
	assert.Equal(t, "170", overview.ValueLocked.String())
	assert.Equal(t, 2, overview.ActiveTeachers)
	assert.Equal(t, 8, overview.Students)
	assert.Equal(t, testNow, overview.GeneratedAt)

	require.Len(t, overview.ByStatus, 4)
	assert.Equal(t, models.EscrowPending, overview.ByStatus[0].Status)
	assert.Equal(t, 3, overview.ByStatus[0].Count)
	assert.Equal(t, "140", overview.ByStatus[0].Volume.String())
	assert.Equal(t, 2, overview.ByStatus[2].Count)
	assert.Equal(t, "24", overview.ByStatus[2].Volume.String())
	assert.Equal(t, uint64(1), resp.System.LedgerQueryCount)
}

func TestParseOpportunitySort(t *testing.T) {
	mode, err := ParseOpportunitySort("")
	require.NoError(t, err)
	assert.Equal(t, SortRecent, mode)

	mode, err = ParseOpportunitySort(" Payout ")
	require.NoError(t, err)
	assert.Equal(t, SortPayout, mode)

	_, err = ParseOpportunitySort("cheapest")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
