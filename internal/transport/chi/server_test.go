package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/document"
	"github.com/kailas-cloud/croptalk/internal/domain/facet"
	"github.com/kailas-cloud/croptalk/internal/domain/search/filter"
	healthuc "github.com/kailas-cloud/croptalk/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/croptalk/internal/usecase/retrieval"
)

type fakeRetriever struct {
	got   retrievaluc.Query
	calls int
	res   retrievaluc.Result
	err   error
}

func (f *fakeRetriever) Search(_ context.Context, q retrievaluc.Query) (retrievaluc.Result, error) {
	f.calls++
	f.got = q
	return f.res, f.err
}

type fakeHealth struct {
	report healthuc.Report
}

func (f *fakeHealth) Check(_ context.Context) healthuc.Report { return f.report }

func newTestHandler(r Retriever, keys ...string) http.Handler {
	h := &fakeHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{
		"database": healthuc.CheckOK,
	}}}
	return NewServer(r, h, zap.NewNop()).Handler(keys)
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetDocuments_OK(t *testing.T) {
	cond, err := filter.NewIn("state", "19", "00")
	if err != nil {
		t.Fatal(err)
	}
	expr, err := filter.NewExpression(cond)
	if err != nil {
		t.Fatal(err)
	}
	fr := &fakeRetriever{res: retrievaluc.Result{
		Documents: []document.Document{{
			DisplayIndex: 1,
			Title:        "Corn Special Provisions",
			PageID:       "2",
			DocCategory:  "SP",
			State:        "19",
			S3Key:        "sp/19/0041.pdf",
			URL:          "https://example.test/sp/19/0041.pdf",
			Content:      "Final planting date May 31.",
		}},
		Filter:      expr,
		Resolutions: []facet.Resolution{facet.Resolved(facet.State, "Iowa", "19")},
		Candidates:  4,
	}}

	rr := post(t, newTestHandler(fr), `{"query":"final planting date","state":"Iowa","top_k":5,"include_common_docs":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	if fr.got.Text != "final planting date" || fr.got.Facets.State != "Iowa" || fr.got.TopK != 5 || !fr.got.IncludeCommon {
		t.Errorf("query = %+v", fr.got)
	}

	var resp struct {
		Documents   []document.Document `json:"documents"`
		Rendered    []string            `json:"rendered"`
		Filter      map[string]any      `json:"filter"`
		Resolutions []struct {
			Facet  string `json:"facet"`
			Code   string `json:"code"`
			Status string `json:"status"`
		} `json:"resolutions"`
		Candidates int `json:"candidates"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Documents) != 1 || resp.Documents[0].S3Key != "sp/19/0041.pdf" {
		t.Errorf("documents = %+v", resp.Documents)
	}
	if len(resp.Rendered) != 1 || !strings.HasPrefix(resp.Rendered[0], "<doc id='1'") {
		t.Errorf("rendered = %v", resp.Rendered)
	}
	if _, ok := resp.Filter["state"]; !ok {
		t.Errorf("filter = %v", resp.Filter)
	}
	if len(resp.Resolutions) != 1 || resp.Resolutions[0].Status != "resolved" || resp.Resolutions[0].Code != "19" {
		t.Errorf("resolutions = %+v", resp.Resolutions)
	}
	if resp.Candidates != 4 || rr.Header().Get("X-Candidates") != "4" {
		t.Errorf("candidates = %d", resp.Candidates)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestGetDocuments_EmptyResultIsArray(t *testing.T) {
	rr := post(t, newTestHandler(&fakeRetriever{}), `{"query":"anything"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"documents":[]`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestGetDocuments_NonStringQuery(t *testing.T) {
	fr := &fakeRetriever{}
	rr := post(t, newTestHandler(fr), `{"query":42}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if fr.calls != 0 {
		t.Error("retriever must not be called for invalid input")
	}
	var e errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Code != codeValidationFailed || !strings.Contains(e.Message, "query") {
		t.Errorf("error = %+v", e)
	}
}

func TestGetDocuments_MalformedBody(t *testing.T) {
	for _, body := range []string{`not json`, `null`, `[1,2]`} {
		rr := post(t, newTestHandler(&fakeRetriever{}), body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d", body, rr.Code)
		}
	}
}

func TestGetDocuments_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid", fmt.Errorf("%w: top_k", domain.ErrInvalidInput), http.StatusBadRequest, codeValidationFailed},
		{"fetch", domain.NewFetchError("sp/1.pdf", errors.New("no such key")), http.StatusBadGateway, codeFetchFailed},
		{"embedding", fmt.Errorf("vectorize: %w", domain.ErrEmbeddingProviderError),
			http.StatusBadGateway, codeEmbeddingProvider},
		{"other", errors.New("redis: connection refused"), http.StatusInternalServerError, codeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(t, newTestHandler(&fakeRetriever{err: tt.err}), `{"query":"q"}`)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			var e errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
				t.Fatal(err)
			}
			if e.Code != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
			if strings.Contains(e.Message, "redis") || strings.Contains(e.Message, "sp/1.pdf") {
				t.Errorf("message leaks internals: %q", e.Message)
			}
		})
	}
}

func TestGetDocuments_RequiresAuth(t *testing.T) {
	h := newTestHandler(&fakeRetriever{}, "secret")

	rr := post(t, h, `{"query":"q"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status with key = %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusServiceUnavailable},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		h := &fakeHealth{report: healthuc.Report{Status: tt.status, Checks: map[string]healthuc.CheckResult{
			"index": healthuc.CheckMissing,
		}}}
		handler := NewServer(&fakeRetriever{}, h, zap.NewNop()).Handler([]string{"secret"})

		req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.status, rr.Code, tt.want)
		}
		var body healthResponse
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Status != string(tt.status) || body.Checks["index"] != "missing" {
			t.Errorf("body = %+v", body)
		}
	}
}

func TestNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/unknown", http.NoBody)
	rr := httptest.NewRecorder()
	newTestHandler(&fakeRetriever{}).ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var e errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Code != codeInternal {
		t.Errorf("code = %q", e.Code)
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(&fakeRetriever{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("response has no X-Request-ID")
	}
}
