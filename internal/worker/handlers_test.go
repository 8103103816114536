package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chefdigital/chef/internal/db"
	"github.com/chefdigital/chef/internal/services/recipe"
)

// Mocks

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) SaveRecipe(ctx context.Context, r db.ArchivedRecipe) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func archived() db.ArchivedRecipe {
	return db.ArchivedRecipe{
		ID:        uuid.New(),
		SessionID: "session-1",
		Query:     "bolo",
		Recipe: recipe.Recipe{
			Title:        "Bolo de Cenoura",
			Time:         "50 min",
			Servings:     "8 porções",
			Difficulty:   "Fácil",
			Ingredients:  []string{"2 cenouras", "3 ovos"},
			Instructions: []string{"Bata os ovos", "Asse por 40 min"},
		},
	}
}

func TestNewArchiveRecipeTask(t *testing.T) {
	r := archived()
	task, err := NewArchiveRecipeTask(ArchiveRecipePayload{Recipe: r})
	require.NoError(t, err)

	assert.Equal(t, TypeArchiveRecipe, task.Type())

	var decoded ArchiveRecipePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, r.ID, decoded.Recipe.ID)
	assert.Equal(t, r.Recipe.Ingredients, decoded.Recipe.Recipe.Ingredients)
}

func TestHandleArchiveRecipe(t *testing.T) {
	r := archived()
	saver := new(MockSaver)
	saver.On("SaveRecipe", mock.Anything, mock.MatchedBy(func(got db.ArchivedRecipe) bool {
		return got.ID == r.ID && got.Recipe.Title == r.Recipe.Title
	})).Return(nil).Once()

	task, err := NewArchiveRecipeTask(ArchiveRecipePayload{Recipe: r})
	require.NoError(t, err)

	p := NewArchiveProcessor(saver, nil)
	require.NoError(t, p.HandleArchiveRecipe(context.Background(), task))
	saver.AssertExpectations(t)
}

func TestHandleArchiveRecipeStoreError(t *testing.T) {
	saver := new(MockSaver)
	saver.On("SaveRecipe", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	task, err := NewArchiveRecipeTask(ArchiveRecipePayload{Recipe: archived()})
	require.NoError(t, err)

	err = NewArchiveProcessor(saver, nil).HandleArchiveRecipe(context.Background(), task)

	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleArchiveRecipeInvalidPayload(t *testing.T) {
	saver := new(MockSaver)
	p := NewArchiveProcessor(saver, nil)

	err := p.HandleArchiveRecipe(context.Background(), asynq.NewTask(TypeArchiveRecipe, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	incomplete := archived()
	incomplete.Recipe.Instructions = nil
	task, err := NewArchiveRecipeTask(ArchiveRecipePayload{Recipe: incomplete})
	require.NoError(t, err)
	err = p.HandleArchiveRecipe(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	noID := archived()
	noID.ID = uuid.Nil
	data, err := json.Marshal(ArchiveRecipePayload{Recipe: noID})
	require.NoError(t, err)
	err = p.HandleArchiveRecipe(context.Background(), asynq.NewTask(TypeArchiveRecipe, data))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	saver.AssertNotCalled(t, "SaveRecipe", mock.Anything, mock.Anything)
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		addr     string
		password string
		db       int
		tls      bool
		wantErr  bool
	}{
		{name: "Plain host", url: "localhost:6379", addr: "localhost:6379"},
		{name: "Redis URL", url: "redis://:secret@redis:6379/3", addr: "redis:6379", password: "secret", db: 3},
		{name: "TLS", url: "rediss://user:pw@cache.example.com:6380", addr: "cache.example.com:6380", password: "pw", tls: true},
		{name: "Bad db", url: "redis://redis:6379/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := ParseRedisURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, opt.Addr)
			assert.Equal(t, tt.password, opt.Password)
			assert.Equal(t, tt.db, opt.DB)
			assert.Equal(t, tt.tls, opt.TLSConfig != nil)
		})
	}
}

func TestNewWorkerMetrics(t *testing.T) {
	m, err := NewWorkerMetrics()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.RecordJob(context.Background(), TypeArchiveRecipe, "success", 0.1)
	})

	var nilMetrics *WorkerMetrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordJob(context.Background(), TypeArchiveRecipe, "success", 0.1)
	})
}

func TestReportable(t *testing.T) {
	transient := errors.New("connection refused")

	tests := []struct {
		name     string
		err      error
		retried  int
		maxRetry int
		want     bool
	}{
		{"No error", nil, 0, 5, false},
		{"Retry pending", transient, 1, 5, false},
		{"Last attempt", transient, 5, 5, true},
		{"Skip retry", errors.Join(transient, asynq.SkipRetry), 0, 5, true},
		{"Shutdown", context.Canceled, 5, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reportable(tt.err, tt.retried, tt.maxRetry))
		})
	}
}

func TestTaskSession(t *testing.T) {
	task, err := NewArchiveRecipeTask(ArchiveRecipePayload{Recipe: archived()})
	require.NoError(t, err)
	assert.Equal(t, "session-1", taskSession(task))

	assert.Empty(t, taskSession(asynq.NewTask(TypeArchiveRecipe, []byte("{"))))
	assert.Empty(t, taskSession(asynq.NewTask("other:task", nil)))
}

func TestSentryMiddlewarePassesThrough(t *testing.T) {
	wantErr := errors.New("store down")
	var sawHub bool
	h := SentryMiddleware(asynq.HandlerFunc(func(ctx context.Context, _ *asynq.Task) error {
		sawHub = sentry.GetHubFromContext(ctx) != nil
		return wantErr
	}))

	err := h.ProcessTask(context.Background(), asynq.NewTask(TypeArchiveRecipe, nil))
	assert.ErrorIs(t, err, wantErr)
	assert.True(t, sawHub)
}
