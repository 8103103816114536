package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chefdigital/chef/internal/db"
	"github.com/chefdigital/chef/internal/services/photo"
	"github.com/chefdigital/chef/internal/services/recipe"
	"github.com/chefdigital/chef/internal/workflow"
)

type stubContent struct{}

func (stubContent) FetchRecipe(context.Context, string) (*recipe.Recipe, error) {
	return &recipe.Recipe{
		Title:        "Bolo de Cenoura",
		Time:         "50 min",
		Servings:     "8 porções",
		Difficulty:   "Fácil",
		Ingredients:  []string{"2 cenouras"},
		Instructions: []string{"Asse"},
	}, nil
}

type stubImages struct{}

func (stubImages) FetchImage(context.Context, string) (photo.Encoded, error) {
	return photo.Encode("image/png", []byte("x")), nil
}

func factory(opts ...workflow.Option) *workflow.Workflow {
	return workflow.New(stubContent{}, stubImages{}, opts...)
}

type MockSnapshots struct {
	mock.Mock
}

func (m *MockSnapshots) Get(ctx context.Context, sessionID string) (*workflow.State, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(*workflow.State)
	return s, args.Error(1)
}

func (m *MockSnapshots) Set(ctx context.Context, sessionID string, state workflow.State, ttl time.Duration) error {
	return m.Called(ctx, sessionID, state, ttl).Error(0)
}

func (m *MockSnapshots) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type recordingArchiver struct {
	mu       sync.Mutex
	archived []workflow.State
}

func (a *recordingArchiver) Archive(_ context.Context, _ string, s workflow.State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, s)
	return nil
}

func (a *recordingArchiver) List(context.Context, int) ([]db.ArchivedRecipe, error) {
	return nil, nil
}

func TestWorkflowIsPerSession(t *testing.T) {
	m := NewManager(factory)
	ctx := context.Background()

	a := m.Workflow(ctx, "a")
	assert.Same(t, a, m.Workflow(ctx, "a"))
	assert.NotSame(t, a, m.Workflow(ctx, "b"))
	assert.Equal(t, 2, m.Len())

	_, ok := m.Lookup("c")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestTerminalSnapshotsArePersisted(t *testing.T) {
	snapshots := new(MockSnapshots)
	snapshots.On("Get", mock.Anything, "a").Return(nil, nil).Once()
	snapshots.On("Set", mock.Anything, "a", mock.MatchedBy(func(s workflow.State) bool {
		return s.Terminal()
	}), time.Hour).Return(nil).Once()
	archiver := &recordingArchiver{}

	m := NewManager(factory, WithSnapshots(snapshots), WithArchiver(archiver), WithTTL(time.Hour))
	_, err := m.Workflow(context.Background(), "a").Generate(context.Background(), "bolo")
	require.NoError(t, err)
	m.Wait()

	snapshots.AssertExpectations(t)
	require.Len(t, archiver.archived, 1)
	assert.Equal(t, "Bolo de Cenoura", archiver.archived[0].Recipe.Title)
}

func TestWorkflowRestoresSnapshot(t *testing.T) {
	saved := &workflow.State{
		Query:      "bolo",
		Request:    4,
		TextPhase:  workflow.PhaseDone,
		ImagePhase: workflow.PhaseFailed,
		Recipe:     &recipe.Recipe{Title: "Bolo de Cenoura"},
	}
	snapshots := new(MockSnapshots)
	snapshots.On("Get", mock.Anything, "a").Return(saved, nil).Once()

	m := NewManager(factory, WithSnapshots(snapshots))
	wf := m.Workflow(context.Background(), "a")

	assert.Equal(t, *saved, wf.State())
	m.Workflow(context.Background(), "a")
	snapshots.AssertNumberOfCalls(t, "Get", 1)
}

func TestSweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(factory, WithTTL(time.Hour), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	m.Workflow(ctx, "old")
	now = now.Add(50 * time.Minute)
	m.Workflow(ctx, "recent")
	loading := m.Workflow(ctx, "loading")
	_, err := loading.Begin("bolo")
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	assert.Equal(t, 1, m.Sweep())

	_, ok := m.Lookup("old")
	assert.False(t, ok)
	_, ok = m.Lookup("recent")
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, m.Sweep())
	_, ok = m.Lookup("loading")
	assert.True(t, ok)
}

func TestRunStopsOnCancel(t *testing.T) {
	m := NewManager(factory)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
