package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/boardkit/internal/services/backend/auth"
	"github.com/louisbranch/boardkit/internal/services/backend/storage/sqlite"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	handler http.Handler
	issuer  *auth.Issuer
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	issuer, err := auth.NewIssuer(testSecret, "test-key", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	handler, err := New(store, issuer)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return testServer{handler: handler, issuer: issuer}
}

func (s testServer) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := s.issuer.Issue(userID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return token
}

func (s testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/v1/sessions", "", map[string]string{"api_key": "test-key", "user_id": "user-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[loginResponse](t, rec)
	if resp.UserID != "user-1" || resp.Token == "" {
		t.Fatalf("response = %+v", resp)
	}
	if userID, err := srv.issuer.Verify(resp.Token); err != nil || userID != "user-1" {
		t.Fatalf("Verify() = %q, %v", userID, err)
	}

	rec = srv.do(t, http.MethodPost, "/v1/sessions", "", map[string]string{"api_key": "wrong", "user_id": "user-1"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad key status = %d", rec.Code)
	}
}

func TestRequestsRequireBearerToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "not-a-jwt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, "/v1/leads", tc.token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d", rec.Code)
			}
			if resp := decode[errorResponse](t, rec); resp.Error == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestUnknownResource(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/v1/widgets", srv.token(t, "user-1"), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateAppliesDefaultsAndValidates(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token := srv.token(t, "user-1")

	rec := srv.do(t, http.MethodPost, "/v1/leads", token, map[string]any{
		"id":    "client-chosen",
		"name":  "Ana Lima",
		"email": "ana@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]any](t, rec)
	if created["id"] == "client-chosen" || created["id"] == "" {
		t.Fatalf("id = %v, want server-assigned", created["id"])
	}
	if created["status"] != "new" {
		t.Fatalf("status = %v, want default new", created["status"])
	}

	rec = srv.do(t, http.MethodPost, "/v1/leads", token, map[string]any{"name": " ", "email": "x@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name status = %d", rec.Code)
	}
	rec = srv.do(t, http.MethodPost, "/v1/leads", token, map[string]any{"name": "Bo", "email": "bo@example.com", "status": "won"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad enum status = %d", rec.Code)
	}
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/leads", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+srv.token(t, "user-1"))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListFiltersAndScopes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token := srv.token(t, "user-1")
	for _, lead := range []map[string]any{
		{"name": "Ana Lima", "email": "ana@example.com", "status": "new"},
		{"name": "Bruno Dias", "email": "bruno@example.com", "status": "qualified"},
		{"name": "Diana Reyes", "email": "diana@example.com", "status": "qualified"},
	} {
		if rec := srv.do(t, http.MethodPost, "/v1/leads", token, lead); rec.Code != http.StatusCreated {
			t.Fatalf("seed status = %d body=%s", rec.Code, rec.Body.String())
		}
	}
	other := srv.token(t, "user-2")
	if rec := srv.do(t, http.MethodPost, "/v1/leads", other, map[string]any{"name": "Anabel", "email": "a@example.com"}); rec.Code != http.StatusCreated {
		t.Fatalf("seed other status = %d", rec.Code)
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "all newest first", query: "", want: []string{"Diana Reyes", "Bruno Dias", "Ana Lima"}},
		{name: "search", query: "?q=an", want: []string{"Diana Reyes", "Ana Lima"}},
		{name: "enum", query: "?status=qualified", want: []string{"Diana Reyes", "Bruno Dias"}},
		{name: "search and enum", query: "?q=an&status=qualified", want: []string{"Diana Reyes"}},
		{name: "enum all", query: "?status=all", want: []string{"Diana Reyes", "Bruno Dias", "Ana Lima"}},
		{name: "expression", query: `?filter=status%3D%22new%22`, want: []string{"Ana Lima"}},
		{name: "limit", query: "?limit=1", want: []string{"Diana Reyes"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, "/v1/leads"+tc.query, token, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			resp := decode[listResponse](t, rec)
			var got []string
			for _, doc := range resp.Records {
				got = append(got, doc.String("name"))
			}
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("names = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestListRejectsBadQuery(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token := srv.token(t, "user-1")
	for _, query := range []string{"?limit=-1", "?limit=abc", "?filter=color%3D%22red%22"} {
		rec := srv.do(t, http.MethodGet, "/v1/leads"+query, token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d body=%s", query, rec.Code, rec.Body.String())
		}
	}
}

func TestUpdateGetDelete(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token := srv.token(t, "user-1")
	rec := srv.do(t, http.MethodPost, "/v1/deals", token, map[string]any{"title": "Renewal", "customer": "Acme", "value": 1200, "stage": "lead"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	id, _ := decode[map[string]any](t, rec)["id"].(string)

	rec = srv.do(t, http.MethodPatch, "/v1/deals/"+id, token, map[string]any{"stage": "proposal"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[map[string]any](t, rec)["stage"]; got != "proposal" {
		t.Fatalf("stage = %v", got)
	}

	rec = srv.do(t, http.MethodPatch, "/v1/deals/"+id, token, map[string]any{"stage": "archived"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad stage status = %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/v1/deals/"+id, srv.token(t, "user-2"), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("other user get status = %d", rec.Code)
	}

	rec = srv.do(t, http.MethodDelete, "/v1/deals/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = srv.do(t, http.MethodDelete, "/v1/deals/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
	if resp := decode[errorResponse](t, rec); resp.Error != "record not found" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("request id = %q", got)
	}

	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	t.Parallel()

	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), withRequestID, withRecovery)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decode[errorResponse](t, rec); resp.Error != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("error = %q", resp.Error)
	}
}
