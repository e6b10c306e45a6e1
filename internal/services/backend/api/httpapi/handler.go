// Package httpapi serves the backend REST contract: list, create, update and
// delete over /v1/{resource}, plus the session exchange.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/boardkit/internal/domain"
	"github.com/louisbranch/boardkit/internal/domain/catalog"
	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/record"
	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
	"github.com/louisbranch/boardkit/internal/platform/session"
	"github.com/louisbranch/boardkit/internal/services/backend/auth"
	"github.com/louisbranch/boardkit/internal/services/backend/storage"
)

const (
	maxBodyBytes = 1 << 20
	maxListLimit = 500
)

// Handler serves the REST API.
type Handler struct {
	store  storage.RecordStore
	issuer *auth.Issuer
	now    func() time.Time
	mux    *http.ServeMux
}

// New builds the API handler with its middleware chain.
func New(store storage.RecordStore, issuer *auth.Issuer) (http.Handler, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if issuer == nil {
		return nil, errors.New("token issuer is required")
	}
	h := &Handler{store: store, issuer: issuer, now: time.Now, mux: http.NewServeMux()}
	h.routes()
	return chain(h.mux, withRequestID, withTracing, withLogging, withRecovery), nil
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	h.mux.HandleFunc("POST /v1/sessions", h.login)
	h.mux.Handle("GET /v1/{resource}", h.authenticated(h.list))
	h.mux.Handle("POST /v1/{resource}", h.authenticated(h.create))
	h.mux.Handle("GET /v1/{resource}/{id}", h.authenticated(h.get))
	h.mux.Handle("PATCH /v1/{resource}/{id}", h.authenticated(h.update))
	h.mux.Handle("DELETE /v1/{resource}/{id}", h.authenticated(h.delete))
}

type loginRequest struct {
	APIKey string `json:"api_key"`
	UserID string `json:"user_id"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	token, expiresAt, err := h.issuer.Login(req.APIKey, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, UserID: strings.TrimSpace(req.UserID), ExpiresAt: expiresAt})
}

type listResponse struct {
	Records []record.Document `json:"records"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, scope storage.Scope, resource domain.Resource) {
	query := r.URL.Query()
	criterion, err := listCriterion(resource, query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, r, apperrors.E(apperrors.KindInvalidInput, "limit must be a non-negative integer"))
			return
		}
	}
	limit = min(limit, maxListLimit)

	records, err := h.store.List(r.Context(), scope, storage.ListOptions{
		Filter:      criterion,
		Fields:      resource.FieldNames(),
		Limit:       limit,
		NewestFirst: resource.Placement == record.Prepend,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Records: records})
}

// listCriterion combines the q search, the AIP filter expression and any
// enum query parameters into one validated criterion.
func listCriterion(resource domain.Resource, query map[string][]string) (filter.Criterion, error) {
	schema, err := resource.DocumentSchema()
	if err != nil {
		return filter.Criterion{}, err
	}
	criteria := []filter.Criterion{resource.SearchCriterion(first(query, "q"))}
	for field := range resource.Enums {
		if value := first(query, field); value != "" {
			criteria = append(criteria, resource.EnumCriterion(field, value))
		}
	}
	if expression := first(query, "filter"); expression != "" {
		parsed, err := filter.Parse(expression, schema)
		if err != nil {
			return filter.Criterion{}, apperrors.E(apperrors.KindInvalidInput, err.Error())
		}
		criteria = append(criteria, parsed)
	}
	set, err := filter.NewSet(schema, criteria...)
	if err != nil {
		return filter.Criterion{}, apperrors.E(apperrors.KindInvalidInput, err.Error())
	}
	return set.Combined(), nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, scope storage.Scope, _ domain.Resource) {
	doc, err := h.store.Get(r.Context(), scope, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, scope storage.Scope, resource domain.Resource) {
	var body map[string]any
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	doc := resource.WithDefaults(domain.Strip(body))
	if err := resource.Validate(doc); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.store.Create(r.Context(), scope, doc, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, scope storage.Scope, resource domain.Resource) {
	var patch map[string]any
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	clean := domain.Strip(patch)
	if err := resource.ValidatePatch(clean); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.store.Update(r.Context(), scope, r.PathValue("id"), clean, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, scope storage.Scope, _ domain.Resource) {
	if err := h.store.Delete(r.Context(), scope, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type scopedHandler func(http.ResponseWriter, *http.Request, storage.Scope, domain.Resource)

// authenticated verifies the bearer token, resolves the resource and scopes
// the request to the token's user.
func (h *Handler) authenticated(next scopedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, apperrors.E(apperrors.KindUnauthorized, "missing bearer token"))
			return
		}
		userID, err := h.issuer.Verify(token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resource, ok := catalog.Lookup(r.PathValue("resource"))
		if !ok {
			writeError(w, r, apperrors.E(apperrors.KindNotFound, fmt.Sprintf("unknown resource %q", r.PathValue("resource"))))
			return
		}
		ctx := session.WithSession(r.Context(), session.Session{UserID: userID, Token: token})
		next(w, r.WithContext(ctx), storage.Scope{OwnerID: userID, Resource: resource.Name}, resource)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(out); err != nil {
		return apperrors.E(apperrors.KindInvalidInput, "request body must be a JSON object")
	}
	return nil
}

func first(query map[string][]string, key string) string {
	values := query[key]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps err to a status and a user-facing message. Unclassified
// failures are logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		err = apperrors.E(apperrors.KindNotFound, "record not found")
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	status := apperrors.HTTPStatus(err)
	message := apperrors.Message(err)
	if status == http.StatusInternalServerError || message == "" {
		log.Printf("request failed request_id=%s path=%s err=%v", RequestIDFromContext(r.Context()), r.URL.Path, err)
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: message})
}
