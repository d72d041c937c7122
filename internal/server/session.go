package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const sessionCookie = "escalboard_session"

// Idle sessions are dropped after this long; the store would otherwise
// grow by one entry per cookie-less request forever.
const sessionTTL = 24 * time.Hour

// Session is per-operator view state: created at session start, updated
// explicitly, cleared on reset. Nothing here affects pipeline results.
type Session struct {
	ID            string            `json:"id"`
	Theme         string            `json:"theme"`
	TutorialShown bool              `json:"tutorial_shown"`
	SavedFilters  map[string]string `json:"saved_filters,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`

	lastSeen time.Time
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*Session)}
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// copyLocked returns a value copy safe to encode after the lock is
// released. Callers must hold st.mu.
func copyLocked(sess *Session) Session {
	out := *sess
	if sess.SavedFilters != nil {
		out.SavedFilters = make(map[string]string, len(sess.SavedFilters))
		for k, v := range sess.SavedFilters {
			out.SavedFilters[k] = v
		}
	}
	return out
}

func (st *sessionStore) get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess := st.sessions[id]
	if sess != nil {
		sess.lastSeen = time.Now()
	}
	return sess
}

func (st *sessionStore) create() *Session {
	now := time.Now()
	sess := &Session{
		ID:        newSessionID(),
		Theme:     "light",
		CreatedAt: now,
		lastSeen:  now,
	}
	st.mu.Lock()
	for id, s := range st.sessions {
		if now.Sub(s.lastSeen) > sessionTTL {
			delete(st.sessions, id)
		}
	}
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

func (st *sessionStore) delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// snapshot returns a copy of the session for encoding. The shared session
// is only ever read or written under the store lock.
func (st *sessionStore) snapshot(sess *Session) Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return copyLocked(sess)
}

// apply mutates the session under the store lock and returns the
// resulting copy, so the response never encodes shared state.
func (st *sessionStore) apply(sess *Session, update sessionUpdate) Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if update.Theme != nil {
		sess.Theme = *update.Theme
	}
	if update.TutorialShown != nil {
		sess.TutorialShown = *update.TutorialShown
	}
	if update.SavedFilters != nil {
		sess.SavedFilters = update.SavedFilters
	}
	return copyLocked(sess)
}

// session resolves the request's session, creating one (and setting the
// cookie) when none exists.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess := s.sessions.get(c.Value); sess != nil {
			return sess
		}
	}
	sess := s.sessions.create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
	})
	return sess
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.snapshot(s.session(w, r)))
}

type sessionUpdate struct {
	Theme         *string           `json:"theme"`
	TutorialShown *bool             `json:"tutorial_shown"`
	SavedFilters  map[string]string `json:"saved_filters"`
}

func (s *Server) handleSessionUpdate(w http.ResponseWriter, r *http.Request) {
	var update sessionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessions.apply(s.session(w, r), update))
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.delete(c.Value)
	}
	writeJSON(w, http.StatusOK, s.sessions.snapshot(s.session(w, r)))
}
