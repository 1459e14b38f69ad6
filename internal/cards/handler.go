package cards

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cardmint/cardmint/internal/authz"
	"github.com/cardmint/cardmint/internal/observability"
	"github.com/cardmint/cardmint/internal/platform/httpx"
	"github.com/cardmint/cardmint/internal/shared"
)

// Handler manages card endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	authz    authz.Middleware
	metrics  *observability.Metrics
	printer  *message.Printer
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authz authz.Middleware, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		authz:    authz,
		metrics:  metrics,
		printer:  message.NewPrinter(language.English),
	}
}

// MountRoutes registers card routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRole(shared.RoleUser))
		r.Get("/cards", h.listOwn)
		r.Get("/cards/{cardID}/balance", h.balance)
		r.Post("/cards/{cardID}/block", h.block)
		r.Post("/cards/transfer", h.transfer)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRole(shared.RoleAdmin))
		r.Post("/admin/cards", h.create)
		r.Get("/admin/cards", h.listAll)
		r.Put("/admin/cards/{cardID}/activate", h.activate)
		r.Put("/admin/cards/{cardID}/block", h.block)
		r.Delete("/admin/cards/{cardID}", h.remove)
	})
}

type cardRow struct {
	View
	BalanceDisplay string `json:"balance_display"`
}

type listResponse struct {
	Cards      []cardRow         `json:"cards"`
	Pagination shared.Pagination `json:"pagination"`
}

type balanceResponse struct {
	CardID  int64   `json:"card_id"`
	Balance float64 `json:"balance"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "expiry_date must be YYYY-MM-DD")
		return
	}

	view, err := h.service.Create(r.Context(), req.OwnerUsername, expiry, req.InitialBalance)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	p, cardID, ok := h.principalAndCard(w, r)
	if !ok {
		return
	}
	if err := h.service.Activate(r.Context(), *p, cardID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) block(w http.ResponseWriter, r *http.Request) {
	p, cardID, ok := h.principalAndCard(w, r)
	if !ok {
		return
	}
	if err := h.service.Block(r.Context(), *p, cardID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	p, cardID, ok := h.principalAndCard(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), *p, cardID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	p, cardID, ok := h.principalAndCard(w, r)
	if !ok {
		return
	}
	amount, err := h.service.Balance(r.Context(), *p, cardID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balanceResponse{CardID: cardID, Balance: amount})
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var req TransferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}

	err := h.service.Transfer(r.Context(), *p, req.FromCardID, req.ToCardID, req.Amount)
	h.metrics.RecordTransfer(transferOutcome(err))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	views, page, err := h.service.ListForOwner(r.Context(), *p, h.listRequest(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.listResponse(views, page))
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	views, page, err := h.service.ListAll(r.Context(), *p, h.listRequest(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.listResponse(views, page))
}

func (h *Handler) listRequest(r *http.Request) ListRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return ListRequest{
		Search:  q.Get("search"),
		Page:    page,
		PerPage: perPage,
	}
}

func (h *Handler) listResponse(views []View, page shared.Pagination) listResponse {
	rows := make([]cardRow, len(views))
	for i, v := range views {
		rows[i] = cardRow{
			View:           v,
			BalanceDisplay: h.printer.Sprintf("%.2f", v.Balance),
		}
	}
	return listResponse{Cards: rows, Pagination: page}
}

func (h *Handler) principalAndCard(w http.ResponseWriter, r *http.Request) (*shared.Principal, int64, bool) {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return nil, 0, false
	}
	cardID, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil || cardID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "card id must be a positive integer")
		return nil, 0, false
	}
	return p, cardID, true
}

func transferOutcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, shared.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, shared.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, shared.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
