package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plan-picker/adapters/webhook"
	"plan-picker/core/catalog"
	"plan-picker/core/picker"
	"plan-picker/core/types"
	"plan-picker/internal/errors"
	"plan-picker/internal/logging"
)

// session is one open picker. Its offering is the catalog snapshot taken at
// creation; later reloads never reach it.
type session struct {
	id        string
	createdAt time.Time
	lastSeen  time.Time
	offering  *catalog.Offering
	selector  *picker.PlanSelector
}

func (s *session) response() SessionResponse {
	return SessionResponse{
		ID:        s.id,
		CreatedAt: s.createdAt,
		Decided:   s.selector.Decided(),
		View:      s.selector.View(s.offering.Tiers),
	}
}

// Notifier forwards host callbacks to the embedding application
type Notifier interface {
	Notify(webhook.Payload)
}

// DefaultSessionTTL is how long a session may sit untouched before Reap
// evicts it
const DefaultSessionTTL = 30 * time.Minute

// SessionStore owns the open picker sessions. PlanSelector is not safe for
// concurrent use, so every operation runs under the store lock.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	metrics  *Metrics
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	ttl      time.Duration
}

// NewSessionStore creates an empty store. notifier may be nil.
func NewSessionStore(metrics *Metrics, notifier Notifier) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		metrics:  metrics,
		notifier: notifier,
		logger:   logging.Named("sessions"),
		now:      time.Now,
		ttl:      DefaultSessionTTL,
	}
}

// SetTTL changes the idle timeout. Zero or less disables expiry.
func (st *SessionStore) SetTTL(ttl time.Duration) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.ttl = ttl
}

// Create opens a session against the given offering
func (st *SessionStore) Create(offering *catalog.Offering, email string) (SessionResponse, error) {
	if err := catalog.ValidateOffering(offering); err != nil {
		return SessionResponse{}, errors.Wrap(errors.TypeCatalog, "offering is invalid", err)
	}

	id := uuid.NewString()
	log := st.logger.With(zap.String("session_id", id))

	selector, err := picker.New(offering.Plans, st.host(id, log, email),
		picker.WithCycleObserver(func(c types.BillingCycle) {
			st.metrics.CycleToggles.Inc()
			log.Debug("billing cycle changed", zap.String("cycle", c.String()))
		}),
		picker.WithOutcomeObserver(st.metrics.RecordOutcome),
	)
	if err != nil {
		return SessionResponse{}, err
	}

	now := st.now().UTC()
	s := &session{
		id:        id,
		createdAt: now,
		lastSeen:  now,
		offering:  offering,
		selector:  selector,
	}

	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()

	st.metrics.SessionsActive.Inc()
	log.Info("session opened", zap.Bool("signed_in", email != ""))
	return s.response(), nil
}

// host builds the callbacks a session reports to. The HTTP client reads the
// outcome back from the session view; the notifier, when set, tells the
// embedding application.
func (st *SessionStore) host(id string, log *zap.Logger, email string) picker.Host {
	notify := func(event webhook.Event, code types.PlanCode) {
		if st.notifier == nil {
			return
		}
		st.notifier.Notify(webhook.Payload{
			Event:     event,
			SessionID: id,
			PlanCode:  code,
			Email:     email,
			Timestamp: st.now().UTC(),
		})
	}

	return picker.Host{
		Email: email,
		OnPlanPicked: func(code types.PlanCode) {
			if code == types.NoPlan {
				log.Info("picker cancelled")
				notify(webhook.EventCancelled, code)
				return
			}
			log.Info("plan picked", zap.String("plan_code", string(code)))
			notify(webhook.EventPlanPicked, code)
		},
		LogIn: func() {
			log.Info("log in requested")
			notify(webhook.EventLogIn, types.NoPlan)
		},
		LogOut: func() {
			log.Info("log out requested")
			notify(webhook.EventLogOut, types.NoPlan)
		},
	}
}

// Get returns the current view of a session
func (st *SessionStore) Get(id string) (SessionResponse, error) {
	return st.Do(id, nil)
}

// Do runs op against a session's selector and returns the resulting view.
// A nil op only reads.
func (st *SessionStore) Do(id string, op func(*picker.PlanSelector) error) (SessionResponse, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return SessionResponse{}, errors.NotFound("session", id)
	}
	s.lastSeen = st.now().UTC()
	if op != nil {
		if err := op(s.selector); err != nil {
			if e, ok := errors.As(err); ok {
				e.WithContext("session_id", id)
			}
			return SessionResponse{}, err
		}
	}
	return s.response(), nil
}

// Delete closes a session. An undecided session is cancelled first, so
// every session reports exactly one outcome.
func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return errors.NotFound("session", id)
	}
	if !s.selector.Decided() {
		if err := s.selector.Cancel(); err != nil {
			return err
		}
	}
	delete(st.sessions, id)
	st.metrics.SessionsActive.Dec()
	st.logger.Info("session closed", zap.String("session_id", id))
	return nil
}

// Reap evicts every session idle for at least the TTL and returns how many
// it removed. An undecided session is cancelled first, so its host still
// hears exactly one outcome.
func (st *SessionStore) Reap() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().UTC().Add(-st.ttl)

	reaped := 0
	for id, s := range st.sessions {
		if s.lastSeen.After(cutoff) {
			continue
		}
		log := st.logger.With(zap.String("session_id", id))
		decided := s.selector.Decided()
		if !decided {
			if err := s.selector.Cancel(); err != nil {
				log.Warn("cancelling idle session", zap.Error(err))
			}
		}
		delete(st.sessions, id)
		st.metrics.SessionsActive.Dec()
		st.metrics.SessionsExpired.Inc()
		log.Info("session expired", zap.Bool("was_decided", decided), zap.Time("last_seen", s.lastSeen))
		reaped++
	}
	return reaped
}

// RunReaper calls Reap every interval until ctx is done
func (st *SessionStore) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Reap(); n > 0 {
				st.logger.Debug("reaped idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Len returns the number of open sessions
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
