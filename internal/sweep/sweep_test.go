package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/factorylicense/internal/clock"
	licensedomain "github.com/smallbiznis/factorylicense/internal/license/domain"
	obsmetrics "github.com/smallbiznis/factorylicense/internal/observability/metrics"
	storagedomain "github.com/smallbiznis/factorylicense/internal/storage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeLister struct {
	licenses []licensedomain.License
}

func (f *fakeLister) ActiveLicenses() []licensedomain.License { return f.licenses }

type fakeStorage struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	block map[string]bool
}

func (f *fakeStorage) CalculateStorageUsage(ctx context.Context, factoryID string) (storagedomain.StorageUsage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, factoryID)
	f.mu.Unlock()
	if f.block[factoryID] {
		<-ctx.Done()
		return storagedomain.StorageUsage{}, ctx.Err()
	}
	if err := f.fail[factoryID]; err != nil {
		return storagedomain.StorageUsage{}, err
	}
	return storagedomain.StorageUsage{FactoryID: factoryID}, nil
}

func newTestSweeper(t *testing.T, lister ActiveLicenseLister, storage storagedomain.Service, log *zap.Logger) *Sweeper {
	t.Helper()
	node, err := snowflake.NewNode(5)
	require.NoError(t, err)
	metrics, err := obsmetrics.New(nil)
	require.NoError(t, err)
	return &Sweeper{
		log:      log,
		cfg:      Config{RunInterval: time.Hour, JobTimeout: 50 * time.Millisecond},
		licenses: lister,
		storage:  storage,
		genID:    node,
		clock:    clock.NewFakeClock(time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)),
		metrics:  metrics,
	}
}

func licenses(factories ...string) []licensedomain.License {
	out := make([]licensedomain.License, 0, len(factories))
	for i, f := range factories {
		out = append(out, licensedomain.License{ID: f + "_" + string(rune('a'+i)), FactoryID: f})
	}
	return out
}

func TestRunOnceDedupesFactories(t *testing.T) {
	storage := &fakeStorage{}
	s := newTestSweeper(t, &fakeLister{licenses: licenses("f1", "f2", "f1", "f3", "f2")}, storage, zap.NewNop())

	res := s.RunOnce(context.Background())

	assert.Equal(t, []string{"f1", "f2", "f3"}, storage.calls)
	assert.Equal(t, 3, res.Factories)
	assert.Equal(t, 3, res.Processed)
	assert.Zero(t, res.Failed)
	assert.NotEmpty(t, res.RunID)
}

func TestRunOnceContinuesAfterFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	storage := &fakeStorage{
		fail:  map[string]error{"f1": errors.New("store down")},
		block: map[string]bool{"f2": true},
	}
	s := newTestSweeper(t, &fakeLister{licenses: licenses("f1", "f2", "f3")}, storage, zap.New(core))

	res := s.RunOnce(context.Background())

	assert.Equal(t, []string{"f1", "f2", "f3"}, storage.calls)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 2, res.Failed)

	failed := logs.FilterMessage("sweep.factory.failed").All()
	require.Len(t, failed, 2)
	assert.Equal(t, "f2", failed[1].ContextMap()["factory_id"])
	assert.Equal(t, true, failed[1].ContextMap()["timeout"])

	finish := logs.FilterMessage("sweep.run.finish").All()
	require.Len(t, finish, 1)
	assert.Equal(t, zap.WarnLevel, finish[0].Level)
	assert.Equal(t, res.RunID, finish[0].ContextMap()["run_id"])
}

func TestRunOnceWithNoLicenses(t *testing.T) {
	storage := &fakeStorage{}
	s := newTestSweeper(t, &fakeLister{}, storage, zap.NewNop())

	res := s.RunOnce(context.Background())
	assert.Zero(t, res.Factories)
	assert.Empty(t, storage.calls)
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	storage := &fakeStorage{}
	s := newTestSweeper(t, &fakeLister{licenses: licenses("f1")}, storage, zap.NewNop())
	s.cfg.RunOnStart = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunForever(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		storage.mu.Lock()
		defer storage.mu.Unlock()
		return len(storage.calls) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunForever did not return")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)
}
