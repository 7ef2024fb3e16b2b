package store

import (
	"context"
	"errors"
	"sync"

	"github.com/2beens/trainlog/internal/telemetry/metrics"
	"github.com/2beens/trainlog/internal/training"
	log "github.com/sirupsen/logrus"
)

// ErrNotAttached is returned by reads while no user is attached.
var ErrNotAttached = errors.New("store not attached to a user")

// Snapshotter loads the full per-user collections from the database.
type Snapshotter interface {
	ListSessions(ctx context.Context, userID string) ([]training.Session, error)
	ListWellness(ctx context.Context, userID string) ([]training.WellnessEntry, error)
}

// Subscriber announces collection changes for a user; the returned
// channel closes when ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan string, error)
}

// Adapter keeps in-memory snapshots of one user's collections and
// refreshes them on change announcements. It starts detached; Attach
// binds it to a user, Teardown releases everything again. Writes are
// never applied to the snapshots directly, they become visible only
// after the announcement round-trip refreshes the snapshot.
type Adapter struct {
	repo           Snapshotter
	feed           Subscriber
	metricsManager *metrics.Manager

	mu       sync.RWMutex
	userID   string
	cancel   context.CancelFunc
	done     chan struct{}
	sessions []training.Session
	wellness []training.WellnessEntry

	onChange func(collection string)
}

func NewAdapter(repo Snapshotter, feed Subscriber, metricsManager *metrics.Manager) *Adapter {
	return &Adapter{
		repo:           repo,
		feed:           feed,
		metricsManager: metricsManager,
	}
}

// OnChange registers the callback fired after a snapshot refresh.
// Must be set before Attach.
func (a *Adapter) OnChange(fn func(collection string)) {
	a.onChange = fn
}

// Attach binds the adapter to a user: subscribes to the change feed,
// loads the initial snapshots, and fires a change notification per
// collection. An already attached adapter is torn down first.
func (a *Adapter) Attach(ctx context.Context, userID string) error {
	a.Teardown()

	runCtx, cancel := context.WithCancel(context.Background())
	changes, err := a.feed.Subscribe(runCtx, userID)
	if err != nil {
		cancel()
		return err
	}

	sessions, err := a.repo.ListSessions(ctx, userID)
	if err != nil {
		cancel()
		return err
	}
	wellness, err := a.repo.ListWellness(ctx, userID)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})

	a.mu.Lock()
	a.userID = userID
	a.cancel = cancel
	a.done = done
	a.sessions = sessions
	a.wellness = wellness
	a.mu.Unlock()

	go a.run(runCtx, userID, changes, done)

	a.notify(runCtx, training.CollectionSessions)
	a.notify(runCtx, training.CollectionWellness)
	return nil
}

// Teardown detaches the adapter. The change listener is stopped
// synchronously, no notification fires after Teardown returns.
// Safe to call while detached.
func (a *Adapter) Teardown() {
	a.mu.Lock()
	cancel := a.cancel
	done := a.done
	a.userID = ""
	a.cancel = nil
	a.done = nil
	a.sessions = nil
	a.wellness = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Attached reports whether the adapter is bound to a user.
func (a *Adapter) Attached() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userID != ""
}

// ListSessions returns the current snapshot, newest date first.
// The slice is shared, callers must not modify it.
func (a *Adapter) ListSessions() ([]training.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.userID == "" {
		return nil, ErrNotAttached
	}
	return a.sessions, nil
}

func (a *Adapter) ListWellness() ([]training.WellnessEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.userID == "" {
		return nil, ErrNotAttached
	}
	return a.wellness, nil
}

func (a *Adapter) GetSession(sessionID string) (*training.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.userID == "" {
		return nil, ErrNotAttached
	}
	for i := range a.sessions {
		if a.sessions[i].ID == sessionID {
			return &a.sessions[i], nil
		}
	}
	return nil, training.ErrSessionNotFound
}

func (a *Adapter) run(ctx context.Context, userID string, changes <-chan string, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case collection, ok := <-changes:
			if !ok {
				return
			}
			a.refresh(ctx, userID, collection)
		}
	}
}

// refresh re-loads one collection snapshot and fires the change
// notification, unless the attachment got cancelled meanwhile.
func (a *Adapter) refresh(ctx context.Context, userID, collection string) {
	switch collection {
	case training.CollectionSessions:
		sessions, err := a.repo.ListSessions(ctx, userID)
		if err != nil {
			log.Errorf("refresh sessions snapshot for user %s: %s", userID, err)
			return
		}
		a.mu.Lock()
		if a.userID != userID {
			// torn down (or re-attached) while the reload was in flight
			a.mu.Unlock()
			return
		}
		a.sessions = sessions
		a.mu.Unlock()
	case training.CollectionWellness:
		wellness, err := a.repo.ListWellness(ctx, userID)
		if err != nil {
			log.Errorf("refresh wellness snapshot for user %s: %s", userID, err)
			return
		}
		a.mu.Lock()
		if a.userID != userID {
			a.mu.Unlock()
			return
		}
		a.wellness = wellness
		a.mu.Unlock()
	default:
		log.Warnf("change announcement for unknown collection: %s", collection)
		return
	}

	a.metricsManager.CounterSnapshots.WithLabelValues(collection).Inc()
	a.notify(ctx, collection)
}

func (a *Adapter) notify(ctx context.Context, collection string) {
	if a.onChange == nil || ctx.Err() != nil {
		return
	}
	a.metricsManager.CounterChangeNotifications.Inc()
	a.onChange(collection)
}
