package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tayoga/internal/metrics"
)

// EventType names a change in authentication state.
type EventType string

const (
	SignedIn    EventType = "signed_in"
	SignedOut   EventType = "signed_out"
	UserUpdated EventType = "user_updated"
)

// Event is a state change, raised locally or received from the identity backend.
// SignedOut with only UserID set ends every session of that user.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	User      *User     `json:"user,omitempty"`
}

var ErrNoSession = errors.New("no such session")

// Session is one signed-in admin.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Authenticated reports whether the session belongs to a user.
func (s Session) Authenticated() bool {
	return s.ID != "" && s.User.ID != ""
}

// IsAdmin is derived from the user's role.
func (s Session) IsAdmin() bool {
	return s.Authenticated() && s.User.Role == RoleAdmin
}

// Sessions is the process-wide authentication state. It changes only through
// SignIn, SignOut, Apply and Watch; every change is reported to subscribers.
type Sessions struct {
	provider Provider
	ttl      time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	mu      sync.RWMutex
	byID    map[string]Session
	subs    map[int]func(Event)
	nextSub int
}

// NewSessions creates the registry. Sessions expire after ttl.
func NewSessions(provider Provider, ttl time.Duration, log logrus.FieldLogger) *Sessions {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{
		provider: provider,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
		byID:     make(map[string]Session),
		subs:     make(map[int]func(Event)),
	}
}

// SignIn authenticates with the provider and opens a session.
func (s *Sessions) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	now := s.now()
	sess := Session{ID: uuid.NewString(), User: u, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}

	s.mu.Lock()
	s.byID[sess.ID] = sess
	n := len(s.byID)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "session_id": sess.ID}).Info("admin signed in")
	s.emit(Event{Type: SignedIn, SessionID: sess.ID, UserID: u.ID, User: &u})
	return sess, nil
}

// SignOut ends a session. The provider is told, but its failure does not keep the session alive.
func (s *Sessions) SignOut(ctx context.Context, sessionID string) error {
	sess, ok := s.remove(sessionID)
	if !ok {
		return ErrNoSession
	}
	if err := s.provider.SignOut(ctx, sess.User.ID); err != nil {
		s.log.WithError(err).WithField("user_id", sess.User.ID).Warn("provider sign-out failed")
	}
	s.log.WithFields(logrus.Fields{"user_id": sess.User.ID, "session_id": sess.ID}).Info("admin signed out")
	s.emit(Event{Type: SignedOut, SessionID: sess.ID, UserID: sess.User.ID})
	return nil
}

// Get returns a live session. Expired sessions are dropped on access.
func (s *Sessions) Get(sessionID string) (Session, bool) {
	s.mu.RLock()
	sess, ok := s.byID[sessionID]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if !s.now().Before(sess.ExpiresAt) {
		if _, removed := s.remove(sessionID); removed {
			s.emit(Event{Type: SignedOut, SessionID: sessionID, UserID: sess.User.ID})
		}
		return Session{}, false
	}
	return sess, true
}

// Count returns the number of open sessions.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Subscribe registers fn for every state change and returns its unsubscribe func.
// fn runs on the goroutine that made the change and must not block.
func (s *Sessions) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Apply folds an external event into the local state.
func (s *Sessions) Apply(ev Event) {
	switch ev.Type {
	case SignedOut:
		var ended []Session
		s.mu.Lock()
		for id, sess := range s.byID {
			if id == ev.SessionID || (ev.SessionID == "" && ev.UserID != "" && sess.User.ID == ev.UserID) {
				delete(s.byID, id)
				ended = append(ended, sess)
			}
		}
		n := len(s.byID)
		s.mu.Unlock()
		if len(ended) == 0 {
			return
		}
		metrics.ActiveSessions.Set(float64(n))
		for _, sess := range ended {
			s.emit(Event{Type: SignedOut, SessionID: sess.ID, UserID: sess.User.ID})
		}
	case UserUpdated:
		if ev.User == nil || ev.User.ID == "" {
			return
		}
		changed := false
		s.mu.Lock()
		for id, sess := range s.byID {
			if sess.User.ID == ev.User.ID {
				sess.User = *ev.User
				s.byID[id] = sess
				changed = true
			}
		}
		s.mu.Unlock()
		if changed {
			s.emit(Event{Type: UserUpdated, UserID: ev.User.ID, User: ev.User})
		}
	}
}

// Watch applies events until ctx is done or events is closed.
func (s *Sessions) Watch(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Apply(ev)
		}
	}
}

// Close ends every session and drops all subscribers.
func (s *Sessions) Close() {
	s.mu.Lock()
	ended := make([]Session, 0, len(s.byID))
	for _, sess := range s.byID {
		ended = append(ended, sess)
	}
	s.byID = make(map[string]Session)
	s.mu.Unlock()

	for _, sess := range ended {
		s.emit(Event{Type: SignedOut, SessionID: sess.ID, UserID: sess.User.ID})
	}
	s.mu.Lock()
	s.subs = make(map[int]func(Event))
	s.mu.Unlock()
	metrics.ActiveSessions.Set(0)
}

func (s *Sessions) remove(sessionID string) (Session, bool) {
	s.mu.Lock()
	sess, ok := s.byID[sessionID]
	delete(s.byID, sessionID)
	n := len(s.byID)
	s.mu.Unlock()
	if ok {
		metrics.ActiveSessions.Set(float64(n))
	}
	return sess, ok
}

func (s *Sessions) emit(ev Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}
