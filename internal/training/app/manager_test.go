package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/2beens/trainlog/internal/auth"
	"github.com/2beens/trainlog/internal/telemetry/metrics"
	"github.com/2beens/trainlog/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type snapshotterFake struct {
	mu       sync.Mutex
	sessions []training.Session
}

func (f *snapshotterFake) ListSessions(_ context.Context, _ string) ([]training.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, nil
}

func (f *snapshotterFake) ListWellness(_ context.Context, _ string) ([]training.WellnessEntry, error) {
	return nil, nil
}

type subscriberFake struct{}

func (subscriberFake) Subscribe(ctx context.Context, _ string) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		<-ctx.Done()
	}()
	return out, nil
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
}

func TestManager_AttachAndTeardown(t *testing.T) {
	manager := NewManager(&snapshotterFake{}, subscriberFake{}, metrics.NewTestManager(), fixedNow)

	_, err := manager.State("user-1")
	require.ErrorIs(t, err, ErrNoState)

	require.NoError(t, manager.Attach(context.Background(), "user-1"))
	state, err := manager.State("user-1")
	require.NoError(t, err)
	require.NotNil(t, state.Adapter)
	require.NotNil(t, state.Router)
	assert.True(t, state.Adapter.Attached())

	// second attach for the same user is a no-op, state is shared
	require.NoError(t, manager.Attach(context.Background(), "user-1"))
	stateAgain, err := manager.State("user-1")
	require.NoError(t, err)
	assert.Same(t, state, stateAgain)

	manager.Teardown("user-1")
	_, err = manager.State("user-1")
	require.ErrorIs(t, err, ErrNoState)
	assert.False(t, state.Adapter.Attached())

	// teardown for an unknown user is a no-op
	manager.Teardown("user-2")
}

func TestManager_Ensure(t *testing.T) {
	manager := NewManager(&snapshotterFake{}, subscriberFake{}, metrics.NewTestManager(), fixedNow)
	defer manager.TeardownAll()

	state, err := manager.Ensure(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, state)

	stateAgain, err := manager.Ensure(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Same(t, state, stateAgain)
}

func TestManager_RunHandlesIdentityEvents(t *testing.T) {
	manager := NewManager(&snapshotterFake{}, subscriberFake{}, metrics.NewTestManager(), fixedNow)

	events := make(chan auth.IdentityEvent)
	runCtx, cancelRun := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		manager.Run(runCtx, events)
	}()

	events <- auth.IdentityEvent{
		Type:     auth.IdentitySignedIn,
		Identity: auth.Identity{UserID: "user-1", Email: "mia@example.com"},
	}
	require.Eventually(t, func() bool {
		_, err := manager.State("user-1")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	events <- auth.IdentityEvent{
		Type:     auth.IdentitySignedOut,
		Identity: auth.Identity{UserID: "user-1", Email: "mia@example.com"},
	}
	require.Eventually(t, func() bool {
		_, err := manager.State("user-1")
		return err != nil
	}, time.Second, 5*time.Millisecond)

	cancelRun()
	<-runDone
}

func TestManager_HistoryView(t *testing.T) {
	repo := &snapshotterFake{
		sessions: []training.Session{
			{
				ID:          "s1",
				Date:        "2024-03-10",
				Category:    training.CategoryRunning,
				Subcategory: "Road",
				Details: training.Details{
					Type:    training.FieldTypeRunning,
					Running: &training.RunningDetails{},
				},
			},
		},
	}
	manager := NewManager(repo, subscriberFake{}, metrics.NewTestManager(), fixedNow)
	defer manager.TeardownAll()

	view, err := manager.HistoryView(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, view)
}
