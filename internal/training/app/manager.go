// Package app owns the per-user application state: one store adapter
// and one view router per signed-in user, attached and torn down by
// the identity events the auth service emits.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/trainlog/internal/auth"
	"github.com/2beens/trainlog/internal/telemetry/metrics"
	"github.com/2beens/trainlog/internal/training/store"
	"github.com/2beens/trainlog/internal/training/views"
	log "github.com/sirupsen/logrus"
)

// ErrNoState is returned when no app state is attached for the user,
// i.e. the user has no live session.
var ErrNoState = errors.New("no app state attached for user")

type UserState struct {
	Adapter *store.Adapter
	Router  *views.Router
}

type Manager struct {
	repo           store.Snapshotter
	feed           store.Subscriber
	metricsManager *metrics.Manager
	now            func() time.Time

	mu     sync.Mutex
	states map[string]*UserState
}

func NewManager(
	repo store.Snapshotter,
	feed store.Subscriber,
	metricsManager *metrics.Manager,
	now func() time.Time,
) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		repo:           repo,
		feed:           feed,
		metricsManager: metricsManager,
		now:            now,
		states:         make(map[string]*UserState),
	}
}

// Run consumes identity events until ctx is done: sign-in attaches
// the user's state, sign-out tears it down.
func (m *Manager) Run(ctx context.Context, events <-chan auth.IdentityEvent) {
	for {
		select {
		case <-ctx.Done():
			m.TeardownAll()
			return
		case ev, ok := <-events:
			if !ok {
				m.TeardownAll()
				return
			}
			switch ev.Type {
			case auth.IdentitySignedIn:
				if err := m.Attach(ctx, ev.Identity.UserID); err != nil {
					log.Errorf("attach app state for user %s: %s", ev.Identity.UserID, err)
				}
			case auth.IdentitySignedOut:
				m.Teardown(ev.Identity.UserID)
			}
		}
	}
}

// Attach builds the user's state and loads the first snapshots.
// A second attach for the same user is a no-op, the state is shared
// across that user's sessions.
func (m *Manager) Attach(ctx context.Context, userID string) error {
	m.mu.Lock()
	if _, ok := m.states[userID]; ok {
		m.mu.Unlock()
		return nil
	}

	adapter := store.NewAdapter(m.repo, m.feed, m.metricsManager)
	router := views.NewRouter(adapter, m.now)
	adapter.OnChange(func(collection string) {
		if _, err := router.Refresh(); err != nil {
			log.Errorf("refresh view after %s change for user %s: %s", collection, userID, err)
		}
	})

	m.states[userID] = &UserState{
		Adapter: adapter,
		Router:  router,
	}
	m.mu.Unlock()

	if err := adapter.Attach(ctx, userID); err != nil {
		m.Teardown(userID)
		return err
	}

	m.metricsManager.GaugeAttachedUsers.Inc()
	log.Debugf("app state attached for user %s", userID)
	return nil
}

// Teardown detaches the user's state; safe when none is attached.
func (m *Manager) Teardown(userID string) {
	m.mu.Lock()
	state, ok := m.states[userID]
	delete(m.states, userID)
	m.mu.Unlock()

	if !ok {
		return
	}

	if state.Adapter.Attached() {
		m.metricsManager.GaugeAttachedUsers.Dec()
	}
	state.Adapter.Teardown()
	log.Debugf("app state torn down for user %s", userID)
}

func (m *Manager) TeardownAll() {
	m.mu.Lock()
	userIDs := make([]string, 0, len(m.states))
	for userID := range m.states {
		userIDs = append(userIDs, userID)
	}
	m.mu.Unlock()

	for _, userID := range userIDs {
		m.Teardown(userID)
	}
}

// State returns the attached state for the user.
func (m *Manager) State(userID string) (*UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[userID]
	if !ok {
		return nil, ErrNoState
	}
	return state, nil
}

// HistoryView switches the user's router to the history view and
// returns its model; used as the response to a session save.
func (m *Manager) HistoryView(ctx context.Context, userID string) (any, error) {
	state, err := m.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	model, err := state.Router.SwitchView(views.ViewHistory, views.Context{})
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Ensure returns the user's state, attaching it first when missing.
// Sessions stored in redis outlive a process restart, so a valid
// token can arrive before any sign-in event was seen.
func (m *Manager) Ensure(ctx context.Context, userID string) (*UserState, error) {
	if state, err := m.State(userID); err == nil {
		return state, nil
	}
	if err := m.Attach(ctx, userID); err != nil {
		return nil, err
	}
	return m.State(userID)
}
