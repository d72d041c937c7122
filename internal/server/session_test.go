package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSessionCreateAndFetch(t *testing.T) {
	s := newTestServer(t)

	rr := get(t, s, "/api/session")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var sess Session
	decode(t, rr, &sess)
	if sess.ID == "" {
		t.Fatal("expected a session id")
	}
	if sess.Theme != "light" {
		t.Fatalf("default theme = %q, want light", sess.Theme)
	}

	cookie := rr.Result().Cookies()
	if len(cookie) != 1 || cookie[0].Name != sessionCookie {
		t.Fatalf("expected a %s cookie, got %v", sessionCookie, cookie)
	}

	// Same cookie resolves to the same session.
	req := httptest.NewRequest("GET", "/api/session", nil)
	req.AddCookie(cookie[0])
	rr2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rr2, req)

	var again Session
	decode(t, rr2, &again)
	if again.ID != sess.ID {
		t.Fatalf("session id changed: %q then %q", sess.ID, again.ID)
	}
}

func TestSessionUpdate(t *testing.T) {
	s := newTestServer(t)

	rr := get(t, s, "/api/session")
	cookie := rr.Result().Cookies()[0]

	body := strings.NewReader(`{"theme":"dark","tutorial_shown":true,"saved_filters":{"month":"January"}}`)
	req := httptest.NewRequest("POST", "/api/session", body)
	req.AddCookie(cookie)
	rr2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rr2, req)

	if rr2.Code != http.StatusOK {
		t.Fatalf("status = %d", rr2.Code)
	}
	var sess Session
	decode(t, rr2, &sess)
	if sess.Theme != "dark" || !sess.TutorialShown {
		t.Fatalf("update not applied: %+v", sess)
	}
	if sess.SavedFilters["month"] != "January" {
		t.Fatalf("saved filters = %v", sess.SavedFilters)
	}
}

func TestSessionPartialUpdateKeepsOtherFields(t *testing.T) {
	s := newTestServer(t)

	rr := get(t, s, "/api/session")
	cookie := rr.Result().Cookies()[0]

	req := httptest.NewRequest("POST", "/api/session", strings.NewReader(`{"tutorial_shown":true}`))
	req.AddCookie(cookie)
	rr2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rr2, req)

	var sess Session
	decode(t, rr2, &sess)
	if sess.Theme != "light" {
		t.Fatalf("partial update clobbered theme: %q", sess.Theme)
	}
	if !sess.TutorialShown {
		t.Fatal("tutorial_shown not applied")
	}
}

func TestSessionConcurrentReadAndUpdate(t *testing.T) {
	s := newTestServer(t)

	rr := get(t, s, "/api/session")
	cookie := rr.Result().Cookies()[0]

	// Interleaved reads and writes against one session must not race on
	// the encoded fields or the saved-filters map.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest("GET", "/api/session", nil)
			req.AddCookie(cookie)
			s.Router().ServeHTTP(httptest.NewRecorder(), req)
		}()
		go func() {
			defer wg.Done()
			body := strings.NewReader(`{"theme":"dark","saved_filters":{"month":"January","status":"Open"}}`)
			req := httptest.NewRequest("POST", "/api/session", body)
			req.AddCookie(cookie)
			s.Router().ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	req := httptest.NewRequest("GET", "/api/session", nil)
	req.AddCookie(cookie)
	rr2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rr2, req)

	var sess Session
	decode(t, rr2, &sess)
	if sess.Theme != "dark" {
		t.Fatalf("theme = %q after updates, want dark", sess.Theme)
	}
}

func TestSessionSnapshotIsACopy(t *testing.T) {
	st := newSessionStore()
	sess := st.create()

	theme := "dark"
	applied := st.apply(sess, sessionUpdate{
		Theme:        &theme,
		SavedFilters: map[string]string{"month": "January"},
	})
	applied.SavedFilters["month"] = "tampered"

	snap := st.snapshot(sess)
	if snap.SavedFilters["month"] != "January" {
		t.Fatalf("saved filter = %q, want January", snap.SavedFilters["month"])
	}
	if snap.Theme != "dark" {
		t.Fatalf("theme = %q, want dark", snap.Theme)
	}
}

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	st := newSessionStore()
	old := st.create()

	st.mu.Lock()
	st.sessions[old.ID].lastSeen = time.Now().Add(-2 * sessionTTL)
	st.mu.Unlock()

	st.create()
	if st.get(old.ID) != nil {
		t.Fatal("idle session survived past the TTL")
	}
}

func TestSessionReset(t *testing.T) {
	s := newTestServer(t)

	rr := get(t, s, "/api/session")
	var sess Session
	decode(t, rr, &sess)
	cookie := rr.Result().Cookies()[0]

	req := httptest.NewRequest("POST", "/api/session/reset", nil)
	req.AddCookie(cookie)
	rr2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rr2, req)

	var fresh Session
	decode(t, rr2, &fresh)
	if fresh.ID == sess.ID {
		t.Fatal("reset must issue a new session")
	}
	if fresh.Theme != "light" || fresh.TutorialShown {
		t.Fatalf("reset session not at defaults: %+v", fresh)
	}
}
