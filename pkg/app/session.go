package app

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sgaunet/s2console/pkg/config"
)

const (
	sessionCookie = "session"
	// LevelAdmin is the listing level reserved to admin users.
	LevelAdmin = "admin"

	defaultSessionTTL = 30 * time.Minute
	maxSweepInterval  = time.Minute
)

// mountedView is the listing currently displayed by a session.
type mountedView interface {
	Resource() string
	Mounted() bool
	Teardown(ctx context.Context) error
}

// session is one logged-in browser. mu serializes the requests of the
// session so that its listing sees actions in order.
type session struct {
	id       string
	user     config.User
	lastSeen atomic.Int64 // unix nanoseconds

	mu     sync.Mutex
	view   mountedView
	scope  string
	closed bool
}

// sessionStore is the registry of live sessions. A session not looked up
// for ttl is expired.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &sessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// create registers a new session for user.
func (s *sessionStore) create(user config.User) *session {
	sess := &session{id: uuid.NewString(), user: user}
	sess.lastSeen.Store(s.now().UnixNano())
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// lookup returns the live session named by the request cookie and marks it
// as seen.
func (s *sessionStore) lookup(r *http.Request) (*session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	sess, ok := s.sessions[c.Value]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.idle(sess, now) {
		return nil, false
	}
	sess.lastSeen.Store(now.UnixNano())
	return sess, true
}

func (s *sessionStore) idle(sess *session, now time.Time) bool {
	return now.Sub(time.Unix(0, sess.lastSeen.Load())) > s.ttl
}

// expire removes and returns the sessions idle for more than ttl.
func (s *sessionStore) expire() []*session {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*session
	for id, sess := range s.sessions {
		if s.idle(sess, now) {
			delete(s.sessions, id)
			out = append(out, sess)
		}
	}
	return out
}

// remove forgets a session and returns it.
func (s *sessionStore) remove(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	return sess, ok
}

// all returns every live session.
func (s *sessionStore) all() []*session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// sweepInterval is how often expired sessions are looked for.
func (s *sessionStore) sweepInterval() time.Duration {
	return min(s.ttl/2, maxSweepInterval)
}

// unmount tears down the mounted listing, if any. Call with sess.mu held.
func (sess *session) unmount(ctx context.Context) error {
	v := sess.view
	sess.view = nil
	sess.scope = ""
	if v == nil || !v.Mounted() {
		return nil
	}
	return v.Teardown(ctx)
}

// close unmounts the listing and refuses later mounts. Call with sess.mu held.
func (sess *session) close(ctx context.Context) error {
	sess.closed = true
	return sess.unmount(ctx)
}

func setSessionCookie(w http.ResponseWriter, id string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
