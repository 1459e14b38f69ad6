package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/cardmint/cardmint/internal/shared"
	_ "github.com/cardmint/cardmint/testing"
)

func newTestSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func TestLoadWithoutCookieStartsAnonymous(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess.Principal() != nil {
		t.Fatalf("expected anonymous session")
	}
}

func TestPrincipalRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetPrincipal("alice", shared.RoleUser)

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	cookies := res.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "test_session" {
		t.Fatalf("expected session cookie, got %v", cookies)
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, next)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	p := loaded.Principal()
	if p == nil || p.Username != "alice" || p.Role != shared.RoleUser {
		t.Fatalf("expected alice/USER principal, got %+v", p)
	}
}

func TestSeedEstablishesPrincipal(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	id, err := sm.Seed(ctx, "root", shared.RoleAdmin)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: id})
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	p := sess.Principal()
	if p == nil || !p.IsAdmin() {
		t.Fatalf("expected admin principal, got %+v", p)
	}
}

func TestDestroyClearsSession(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	id, err := sm.Seed(ctx, "alice", shared.RoleUser)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: id})
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}

	sm.Destroy(sess)
	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, sess); err != nil {
		t.Fatalf("commit destroy: %v", err)
	}

	cookies := res.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expired cookie, got %v", cookies)
	}

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: id})
	reloaded, err := sm.Load(ctx, again)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if reloaded.Principal() != nil {
		t.Fatalf("expected destroyed session to be anonymous")
	}
}
