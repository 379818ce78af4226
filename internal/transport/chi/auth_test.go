package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func guarded(keys ...string) http.Handler {
	return RequireAPIKey(keys)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func callWith(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", http.NoBody)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRequireAPIKey_Disabled(t *testing.T) {
	for name, keys := range map[string][]string{
		"nil":    nil,
		"blanks": {"", "  "},
	} {
		t.Run(name, func(t *testing.T) {
			if rr := callWith(guarded(keys...), ""); rr.Code != http.StatusNoContent {
				t.Errorf("status = %d, auth should be off", rr.Code)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	h := guarded("alpha-key", "beta-key")

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"first key", "Bearer alpha-key", http.StatusNoContent, ""},
		{"second key", "Bearer beta-key", http.StatusNoContent, ""},
		{"scheme case", "bearer alpha-key", http.StatusNoContent, ""},
		{"no header", "", http.StatusUnauthorized, errNoCredentials.Error()},
		{"basic scheme", "Basic YWxwaGE6a2V5", http.StatusUnauthorized, errNotBearer.Error()},
		{"scheme only", "Bearer", http.StatusUnauthorized, errNotBearer.Error()},
		{"unknown key", "Bearer gamma-key", http.StatusUnauthorized, errUnknownKey.Error()},
		{"key prefix", "Bearer alpha", http.StatusUnauthorized, errUnknownKey.Error()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := callWith(h, tc.header)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			if tc.status != http.StatusUnauthorized {
				return
			}
			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 without WWW-Authenticate")
			}
			var e errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
				t.Fatal(err)
			}
			if e.Code != codeUnauthorized || e.Message != tc.message {
				t.Errorf("error = %+v", e)
			}
		})
	}
}

func TestHandler_OpsRoutesSkipAuth(t *testing.T) {
	h := newTestHandler(&fakeRetriever{}, "secret")
	for _, path := range []string{"/health", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if rr.Code == http.StatusUnauthorized {
			t.Errorf("%s requires auth", path)
		}
	}
}
