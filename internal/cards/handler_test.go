package cards

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardmint/cardmint/internal/authz"
	"github.com/cardmint/cardmint/internal/observability"
	"github.com/cardmint/cardmint/internal/shared"
	_ "github.com/cardmint/cardmint/testing"
)

func newHandlerRouter(t *testing.T, p *shared.Principal) (http.Handler, *Service, *mockRepository) {
	t.Helper()
	svc, repo := newTestService(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(log, svc, authz.Middleware{Logger: log}, observability.NewMetrics())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if p != nil {
				ctx = shared.ContextWithPrincipal(ctx, p)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	handler.MountRoutes(r)
	return r, svc, repo
}

func TestListOwnCardsMasked(t *testing.T) {
	router, svc, repo := newHandlerRouter(t, &alice)
	seedCard(t, svc, repo, "alice", 1234.5)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cards", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `"**** **** **** `)
	assert.Contains(t, body, `"balance_display":"1,234.50"`)
	assert.NotContains(t, body, `"number_encrypted"`)
}

func TestRoutesRequireAuthentication(t *testing.T) {
	router, _, _ := newHandlerRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cards", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminRoutesRejectPlainUsers(t *testing.T) {
	router, _, _ := newHandlerRouter(t, &alice)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/cards", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminPassesUserGate(t *testing.T) {
	router, svc, repo := newHandlerRouter(t, &admin)
	seedCard(t, svc, repo, "root", 5)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cards", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateCardEndpoint(t *testing.T) {
	router, _, _ := newHandlerRouter(t, &admin)

	body := `{"owner_username":"alice","expiry_date":"2029-06-30","initial_balance":100}`
	req := httptest.NewRequest(http.MethodPost, "/admin/cards", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"**** **** **** `)

	bad := httptest.NewRequest(http.MethodPost, "/admin/cards", strings.NewReader(`{"owner_username":"alice","expiry_date":"30/06/2029","initial_balance":0}`))
	bad.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, bad)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransferEndpoint(t *testing.T) {
	router, svc, repo := newHandlerRouter(t, &alice)
	from := seedCard(t, svc, repo, "alice", 100)
	to := seedCard(t, svc, repo, "alice", 0)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/cards/transfer", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	rr := post(`{"from_card_id":1,"to_card_id":2,"amount":30}`)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	fromCard, err := repo.GetCard(context.Background(), from)
	require.NoError(t, err)
	assert.Equal(t, 70.0, fromCard.Balance)

	rr = post(`{"from_card_id":1,"to_card_id":2,"amount":1000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = post(`{"from_card_id":1,"to_card_id":1,"amount":10}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	toCard, err := repo.GetCard(context.Background(), to)
	require.NoError(t, err)
	assert.Equal(t, 30.0, toCard.Balance)
}

func TestBalanceEndpoint(t *testing.T) {
	router, svc, repo := newHandlerRouter(t, &alice)
	seedCard(t, svc, repo, "alice", 42.5)
	seedCard(t, svc, repo, "bob", 9)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cards/1/balance", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"balance":42.5`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cards/2/balance", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cards/zero/balance", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
