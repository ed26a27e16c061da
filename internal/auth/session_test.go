package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

type fakeProvider struct {
	users      map[string]User // by email
	passwords  map[string]string
	signOuts   []string
	signOutErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		users: map[string]User{
			"jana@tayoga.cz":   {ID: "u1", Email: "jana@tayoga.cz", Name: "Jana", Role: RoleAdmin},
			"lektor@tayoga.cz": {ID: "u2", Email: "lektor@tayoga.cz", Name: "Petr", Role: "instructor"},
		},
		passwords: map[string]string{"jana@tayoga.cz": "secret", "lektor@tayoga.cz": "secret"},
	}
}

func (f *fakeProvider) SignIn(_ context.Context, email, password string) (User, error) {
	u, ok := f.users[email]
	if !ok || f.passwords[email] != password {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (f *fakeProvider) SignOut(_ context.Context, userID string) error {
	f.signOuts = append(f.signOuts, userID)
	return f.signOutErr
}

func newTestSessions(p Provider) *Sessions {
	log, _ := test.NewNullLogger()
	return NewSessions(p, time.Hour, log)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func TestSignInSignOut(t *testing.T) {
	p := newFakeProvider()
	s := newTestSessions(p)
	events := &eventLog{}
	s.Subscribe(events.add)

	sess, err := s.SignIn(context.Background(), "jana@tayoga.cz", "secret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !sess.Authenticated() || !sess.IsAdmin() {
		t.Fatalf("session = %+v", sess)
	}
	if got, ok := s.Get(sess.ID); !ok || got.User.ID != "u1" {
		t.Fatal("session not registered")
	}

	if err := s.SignOut(context.Background(), sess.ID); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, ok := s.Get(sess.ID); ok {
		t.Fatal("session still open after sign out")
	}
	if len(p.signOuts) != 1 || p.signOuts[0] != "u1" {
		t.Fatalf("provider sign outs = %v", p.signOuts)
	}
	if err := s.SignOut(context.Background(), sess.ID); !errors.Is(err, ErrNoSession) {
		t.Fatalf("second sign out err = %v", err)
	}
	got := events.types()
	if len(got) != 2 || got[0] != SignedIn || got[1] != SignedOut {
		t.Fatalf("events = %v", got)
	}
}

func TestSignInRejectsBadPassword(t *testing.T) {
	s := newTestSessions(newFakeProvider())
	if _, err := s.SignIn(context.Background(), "jana@tayoga.cz", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v", err)
	}
	if s.Count() != 0 {
		t.Fatal("failed sign in opened a session")
	}
}

func TestSignOutProviderFailureStillEndsSession(t *testing.T) {
	p := newFakeProvider()
	p.signOutErr = errors.New("backend down")
	s := newTestSessions(p)
	sess, _ := s.SignIn(context.Background(), "jana@tayoga.cz", "secret")
	if err := s.SignOut(context.Background(), sess.ID); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if s.Count() != 0 {
		t.Fatal("session survived")
	}
}

func TestNonAdminSession(t *testing.T) {
	s := newTestSessions(newFakeProvider())
	sess, err := s.SignIn(context.Background(), "lektor@tayoga.cz", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if !sess.Authenticated() || sess.IsAdmin() {
		t.Fatalf("instructor session = %+v", sess)
	}
	if (Session{}).Authenticated() {
		t.Fatal("zero session must not be authenticated")
	}
}

func TestSessionExpiry(t *testing.T) {
	s := newTestSessions(newFakeProvider())
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	events := &eventLog{}
	s.Subscribe(events.add)

	sess, _ := s.SignIn(context.Background(), "jana@tayoga.cz", "secret")
	now = now.Add(59 * time.Minute)
	if _, ok := s.Get(sess.ID); !ok {
		t.Fatal("session expired early")
	}
	now = now.Add(time.Minute)
	if _, ok := s.Get(sess.ID); ok {
		t.Fatal("session should have expired")
	}
	if s.Count() != 0 {
		t.Fatal("expired session not removed")
	}
	if got := events.types(); got[len(got)-1] != SignedOut {
		t.Fatalf("events = %v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := newTestSessions(newFakeProvider())
	events := &eventLog{}
	unsubscribe := s.Subscribe(events.add)
	unsubscribe()
	unsubscribe()

	_, _ = s.SignIn(context.Background(), "jana@tayoga.cz", "secret")
	if len(events.types()) != 0 {
		t.Fatal("unsubscribed listener was called")
	}
}

func TestApplyExternalEvents(t *testing.T) {
	s := newTestSessions(newFakeProvider())
	a, _ := s.SignIn(context.Background(), "jana@tayoga.cz", "secret")
	b, _ := s.SignIn(context.Background(), "jana@tayoga.cz", "secret")
	c, _ := s.SignIn(context.Background(), "lektor@tayoga.cz", "secret")

	demoted := User{ID: "u1", Email: "jana@tayoga.cz", Name: "Jana", Role: "instructor"}
	s.Apply(Event{Type: UserUpdated, User: &demoted})
	if got, _ := s.Get(a.ID); got.IsAdmin() {
		t.Fatal("user update did not reach the session")
	}

	s.Apply(Event{Type: SignedOut, UserID: "u1"})
	if _, ok := s.Get(a.ID); ok {
		t.Fatal("session a should be gone")
	}
	if _, ok := s.Get(b.ID); ok {
		t.Fatal("session b should be gone")
	}
	if _, ok := s.Get(c.ID); !ok {
		t.Fatal("other user's session must survive")
	}

	s.Apply(Event{Type: SignedOut, SessionID: c.ID})
	if s.Count() != 0 {
		t.Fatalf("count = %d", s.Count())
	}
	// unknown and empty events are ignored
	s.Apply(Event{Type: "token_refreshed"})
	s.Apply(Event{Type: UserUpdated})
}

func TestWatch(t *testing.T) {
	s := newTestSessions(newFakeProvider())
	sess, _ := s.SignIn(context.Background(), "jana@tayoga.cz", "secret")

	events := make(chan Event, 1)
	done := make(chan struct{})
	go func() {
		s.Watch(context.Background(), events)
		close(done)
	}()
	events <- Event{Type: SignedOut, SessionID: sess.ID}
	close(events)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return after channel close")
	}
	if s.Count() != 0 {
		t.Fatal("watched sign-out not applied")
	}
}

func TestClose(t *testing.T) {
	s := newTestSessions(newFakeProvider())
	events := &eventLog{}
	s.Subscribe(events.add)
	_, _ = s.SignIn(context.Background(), "jana@tayoga.cz", "secret")
	s.Close()
	if s.Count() != 0 {
		t.Fatal("sessions left after close")
	}
	got := events.types()
	if got[len(got)-1] != SignedOut {
		t.Fatalf("events = %v", got)
	}
	_, _ = s.SignIn(context.Background(), "jana@tayoga.cz", "secret")
	if len(events.types()) != len(got) {
		t.Fatal("subscribers should be dropped on close")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("namaste")
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckPassword(hash, "namaste"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := CheckPassword(hash, "Namaste"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v", err)
	}
}
