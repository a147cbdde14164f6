package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CITZN/CITZN-Backend/internal/middleware"
	"github.com/CITZN/CITZN-Backend/internal/utils"
)

// mockFetcher implements middleware.SessionFetcher without any database dependency.
type mockFetcher struct {
	session utils.SessionData
	err     error
}

func (m mockFetcher) FindSessionByID(id string) (utils.SessionData, error) {
	return m.session, m.err
}

// callWithCookie wraps a simple 200-OK inner handler in the provided middleware,
// optionally setting one cookie on the request, and returns the recorded response.
func callWithCookie(t *testing.T, mw func(http.Handler) http.Handler, cookieName, cookieValue string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := mw(inner)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if cookieName != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: cookieValue})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestSessionMiddleware_MissingCookie verifies that a request with no session_id
// cookie receives a 401 response.
func TestSessionMiddleware_MissingCookie(t *testing.T) {
	fetcher := mockFetcher{}
	mw := middleware.SessionMiddleware(fetcher)

	rec := callWithCookie(t, mw, "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestSessionMiddleware_ExpiredSession verifies that a valid session_id cookie
// with an expired session receives a 401 containing "Session expired".
func TestSessionMiddleware_ExpiredSession(t *testing.T) {
	fetcher := mockFetcher{
		session: utils.SessionData{
			UserID:    "some-user",
			ExpiresAt: time.Now().Add(-1 * time.Hour), // 1 hour in the past
		},
		err: nil,
	}
	mw := middleware.SessionMiddleware(fetcher)

	rec := callWithCookie(t, mw, "session_id", "expired-session-id")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Session expired") {
		t.Errorf("expected body to contain %q, got: %q", "Session expired", body)
	}
}

// TestSessionMiddleware_FetcherError verifies that a fetcher error (e.g. session
// not found) results in a 401 response.
func TestSessionMiddleware_FetcherError(t *testing.T) {
	fetcher := mockFetcher{
		session: utils.SessionData{},
		err:     errors.New("session not found"),
	}
	mw := middleware.SessionMiddleware(fetcher)

	rec := callWithCookie(t, mw, "session_id", "nonexistent-session-id")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestSessionMiddleware_ValidSession verifies that a valid, non-expired session
// receives a 200 response and that the userID is injected into the context.
func TestSessionMiddleware_ValidSession(t *testing.T) {
	const wantUserID = "test-user-123"

	fetcher := mockFetcher{
		session: utils.SessionData{
			UserID:    wantUserID,
			ExpiresAt: time.Now().Add(1 * time.Hour),
		},
	}
	mw := middleware.SessionMiddleware(fetcher)

	var gotUserID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = utils.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := mw(inner)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUserID != wantUserID {
		t.Errorf("expected userID %q in context, got %q", wantUserID, gotUserID)
	}
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.CORSMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected origin echoed back, got %q", got)
	}
}

func TestCORSMiddleware_UnknownOrigin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.CORSMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unknown origin must not be allowed, got %q", got)
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "")

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RateLimitMiddleware(inner)

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 with limiter disabled, got %d", i, rec.Code)
		}
	}
}

func TestRateLimitMiddleware_Limits(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "1")

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RateLimitMiddleware(inner)

	// Burst is 2×RPS; the bucket empties after a few immediate requests.
	limited := false
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			if got := rec.Header().Get("Retry-After"); got != "1" {
				t.Errorf("expected Retry-After=1, got %q", got)
			}
			break
		}
	}
	if !limited {
		t.Error("expected at least one 429 after burst exhaustion")
	}

	// A different IP has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("separate IP should not be limited, got %d", rec.Code)
	}
}
