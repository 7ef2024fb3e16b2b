package store

import (
	"context"
	"sync"
	"testing"
	"time"

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
	wellness []training.WellnessEntry
	delay    time.Duration
}

func (f *snapshotterFake) setSessions(sessions []training.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = sessions
}

func (f *snapshotterFake) ListSessions(_ context.Context, _ string) ([]training.Session, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, nil
}

func (f *snapshotterFake) ListWellness(_ context.Context, _ string) ([]training.WellnessEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wellness, nil
}

type subscriberFake struct {
	mu      sync.Mutex
	changes chan string
}

func newSubscriberFake() *subscriberFake {
	return &subscriberFake{
		changes: make(chan string),
	}
}

func (f *subscriberFake) Subscribe(ctx context.Context, _ string) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		for {
			// don't race a pending send against an already-cancelled
			// context: a cancelled subscription must never consume
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case collection := <-f.changes:
				select {
				case out <- collection:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (f *subscriberFake) announce(collection string) {
	f.changes <- collection
}

type changeRecorder struct {
	mu      sync.Mutex
	changes []string
}

func (r *changeRecorder) record(collection string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, collection)
}

func (r *changeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func TestAdapter_DetachedReads(t *testing.T) {
	adapter := NewAdapter(&snapshotterFake{}, newSubscriberFake(), metrics.NewTestManager())

	_, err := adapter.ListSessions()
	assert.ErrorIs(t, err, ErrNotAttached)
	_, err = adapter.ListWellness()
	assert.ErrorIs(t, err, ErrNotAttached)
	_, err = adapter.GetSession("whatever")
	assert.ErrorIs(t, err, ErrNotAttached)
	assert.False(t, adapter.Attached())

	// teardown while detached is a no-op
	adapter.Teardown()
}

func TestAdapter_AttachLoadsSnapshots(t *testing.T) {
	repo := &snapshotterFake{
		sessions: []training.Session{{ID: "s1", Date: "2024-03-15"}},
		wellness: []training.WellnessEntry{{Date: "2024-03-15"}},
	}
	recorder := &changeRecorder{}

	adapter := NewAdapter(repo, newSubscriberFake(), metrics.NewTestManager())
	adapter.OnChange(recorder.record)
	require.NoError(t, adapter.Attach(context.Background(), "user-1"))
	defer adapter.Teardown()

	assert.True(t, adapter.Attached())

	sessions, err := adapter.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	wellness, err := adapter.ListWellness()
	require.NoError(t, err)
	require.Len(t, wellness, 1)

	session, err := adapter.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)

	_, err = adapter.GetSession("nope")
	assert.ErrorIs(t, err, training.ErrSessionNotFound)

	// one notification per collection fired on attach
	assert.Equal(t, 2, recorder.count())
}

func TestAdapter_ChangeRefreshesSnapshot(t *testing.T) {
	repo := &snapshotterFake{}
	feed := newSubscriberFake()
	recorder := &changeRecorder{}

	adapter := NewAdapter(repo, feed, metrics.NewTestManager())
	adapter.OnChange(recorder.record)
	require.NoError(t, adapter.Attach(context.Background(), "user-1"))
	defer adapter.Teardown()

	sessions, err := adapter.ListSessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// a write lands in the backing store, then the announcement
	// round-trips it into the snapshot
	repo.setSessions([]training.Session{{ID: "s1", Date: "2024-03-15"}})
	feed.announce(training.CollectionSessions)

	require.Eventually(t, func() bool {
		sessions, err := adapter.ListSessions()
		return err == nil && len(sessions) == 1
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return recorder.count() == 3 // 2 on attach + 1 for the refresh
	}, time.Second, 5*time.Millisecond)
}

func TestAdapter_TeardownStopsNotifications(t *testing.T) {
	repo := &snapshotterFake{}
	feed := newSubscriberFake()
	recorder := &changeRecorder{}

	adapter := NewAdapter(repo, feed, metrics.NewTestManager())
	adapter.OnChange(recorder.record)
	require.NoError(t, adapter.Attach(context.Background(), "user-1"))

	notificationsBefore := recorder.count()
	adapter.Teardown()

	_, err := adapter.ListSessions()
	assert.ErrorIs(t, err, ErrNotAttached)
	assert.False(t, adapter.Attached())

	// a late announcement from the old subscription must be dropped
	select {
	case feed.changes <- training.CollectionSessions:
		t.Fatal("subscription still consuming after teardown")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, notificationsBefore, recorder.count())
}

func TestAdapter_LateSnapshotSuppressed(t *testing.T) {
	repo := &snapshotterFake{delay: 50 * time.Millisecond}
	feed := newSubscriberFake()
	recorder := &changeRecorder{}

	adapter := NewAdapter(repo, feed, metrics.NewTestManager())
	adapter.OnChange(recorder.record)
	require.NoError(t, adapter.Attach(context.Background(), "user-1"))

	// the reload for this announcement is still in flight when the
	// adapter gets torn down
	repo.setSessions([]training.Session{{ID: "s1", Date: "2024-03-15"}})
	feed.announce(training.CollectionSessions)
	time.Sleep(10 * time.Millisecond)

	notificationsBefore := recorder.count()
	adapter.Teardown()
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, notificationsBefore, recorder.count())
	_, err := adapter.ListSessions()
	assert.ErrorIs(t, err, ErrNotAttached)
}

func TestAdapter_ReattachSwitchesUser(t *testing.T) {
	repo := &snapshotterFake{
		sessions: []training.Session{{ID: "s1", Date: "2024-03-15"}},
	}

	adapter := NewAdapter(repo, newSubscriberFake(), metrics.NewTestManager())
	require.NoError(t, adapter.Attach(context.Background(), "user-1"))
	// attaching again while attached tears the old attachment down first
	require.NoError(t, adapter.Attach(context.Background(), "user-2"))
	defer adapter.Teardown()

	assert.True(t, adapter.Attached())
	sessions, err := adapter.ListSessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
