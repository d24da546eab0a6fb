package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/models"
)

// pagedStorage serves a fixed set of sub-jobs through the paging interface
type pagedStorage struct {
	jobs []*models.SubJob
}

func (p *pagedStorage) Enqueue(ctx context.Context, job *models.SubJob) error { return nil }
func (p *pagedStorage) Get(ctx context.Context, subJobID string) (*models.SubJob, error) {
	return nil, models.ErrSubJobNotFound
}
func (p *pagedStorage) GetByRequest(ctx context.Context, requestID string) ([]*models.SubJob, error) {
	return nil, nil
}
func (p *pagedStorage) UpdateState(ctx context.Context, subJobID string, state models.SubJobState) error {
	return nil
}
func (p *pagedStorage) SavePreprocessing(ctx context.Context, subJobID string, outcome *models.PreprocessingOutcome) error {
	return nil
}
func (p *pagedStorage) MarkCompleted(ctx context.Context, subJobID string, result *models.TranslationOutcome) error {
	return nil
}
func (p *pagedStorage) MarkFailed(ctx context.Context, subJobID string, state models.SubJobState, kind models.ErrorKind, errMsg string) error {
	return nil
}

func (p *pagedStorage) CountsByState(ctx context.Context) (map[models.SubJobState]int, error) {
	counts := make(map[models.SubJobState]int)
	for _, job := range p.jobs {
		counts[job.State]++
	}
	return counts, nil
}

func (p *pagedStorage) Page(ctx context.Context, state models.SubJobState, offset, limit int) ([]*models.SubJob, error) {
	var matching []*models.SubJob
	for _, job := range p.jobs {
		if job.State == state {
			matching = append(matching, job)
		}
	}
	if offset >= len(matching) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matching) {
		end = len(matching)
	}
	return matching[offset:end], nil
}

func (p *pagedStorage) CountJobs(ctx context.Context) (int, error) { return len(p.jobs), nil }

func jobInState(id string, state models.SubJobState, age time.Duration) *models.SubJob {
	return &models.SubJob{
		ID:             id,
		RequestID:      common.RequestIDOf(id),
		Language:       "ko",
		State:          state,
		StateChangedAt: time.Now().Add(-age),
	}
}

func newTestMonitor(storage *pagedStorage, pageSize, maxPages int) *Service {
	config := common.NewDefaultConfig()
	config.Monitor.PageSize = pageSize
	config.Monitor.MaxPages = maxPages
	return NewService(storage, NewCounters(), nil, config, common.GetLogger())
}

func TestSnapshot_ClassifiesStuckJobs(t *testing.T) {
	storage := &pagedStorage{jobs: []*models.SubJob{
		jobInState("req_1:ko", models.SubJobStateAwaitingPreprocessing, 10*time.Second),
		jobInState("req_2:ko", models.SubJobStateAwaitingPreprocessing, 90*time.Second),
		jobInState("req_3:ko", models.SubJobStateTranslating, 5*time.Second),
		jobInState("req_4:ko", models.SubJobStateTranslating, 120*time.Second),
		jobInState("req_5:ko", models.SubJobStateCompleted, time.Hour),
	}}

	svc := newTestMonitor(storage, 200, 10)
	snapshot, err := svc.Snapshot(context.Background(), 60*time.Second, 45*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.WaitingJobs)
	assert.Equal(t, 2, snapshot.ActiveJobs)
	assert.False(t, snapshot.Sampled)

	require.Len(t, snapshot.StuckWaitingJobs, 1)
	assert.Equal(t, "req_2:ko", snapshot.StuckWaitingJobs[0].SubJobID)

	require.Len(t, snapshot.StuckActiveJobs, 1)
	assert.Equal(t, "req_4:ko", snapshot.StuckActiveJobs[0].SubJobID)

	// Terminal jobs never appear in stuck lists regardless of age
	assert.Equal(t, 1, snapshot.CountsByState[models.SubJobStateCompleted])
}

func TestSnapshot_ThresholdBoundary(t *testing.T) {
	storage := &pagedStorage{jobs: []*models.SubJob{
		jobInState("req_old:ko", models.SubJobStateTranslating, 2*time.Second),
		jobInState("req_new:ko", models.SubJobStateTranslating, 10*time.Millisecond),
	}}

	svc := newTestMonitor(storage, 200, 10)
	snapshot, err := svc.Snapshot(context.Background(), time.Second, time.Second)
	require.NoError(t, err)

	require.Len(t, snapshot.StuckActiveJobs, 1)
	assert.Equal(t, "req_old:ko", snapshot.StuckActiveJobs[0].SubJobID)
	assert.Greater(t, snapshot.StuckActiveJobs[0].Elapsed, time.Second)
}

func TestSnapshot_SampledWhenPageBudgetExhausted(t *testing.T) {
	var jobs []*models.SubJob
	for i := 0; i < 10; i++ {
		jobs = append(jobs, jobInState("req_n:ko", models.SubJobStateAwaitingPreprocessing, time.Minute))
	}
	storage := &pagedStorage{jobs: jobs}

	// Page budget of 2x3 covers only 6 of the 10 waiting jobs
	svc := newTestMonitor(storage, 3, 2)
	snapshot, err := svc.Snapshot(context.Background(), time.Second, time.Second)
	require.NoError(t, err)

	assert.True(t, snapshot.Sampled)
	assert.Len(t, snapshot.StuckWaitingJobs, 6)
	assert.Equal(t, 10, snapshot.WaitingJobs)
}

func TestCounters(t *testing.T) {
	counters := NewCounters()
	counters.IncDispatched()
	counters.IncDispatched()
	counters.IncPreprocessed()
	counters.IncCompleted()
	counters.IncFailed()

	d, p, c, f := counters.totals()
	assert.Equal(t, int64(2), d)
	assert.Equal(t, int64(1), p)
	assert.Equal(t, int64(1), c)
	assert.Equal(t, int64(1), f)
}
