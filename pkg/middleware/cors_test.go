package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveCORS(origins []string, env string, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	CORS(origins, env)(okHandler()).ServeHTTP(rr, req)
	return rr
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		env     string
		origin  string
		want    string
		vary    bool
	}{
		{"dev wildcard", []string{"*"}, "development", "https://shop.example", "*", false},
		{"dev without origin", nil, "development", "", "*", false},
		{"prod allowed", []string{"https://a.example", "https://b.example"}, "production", "https://b.example", "https://b.example", true},
		{"prod rejected", []string{"https://a.example"}, "production", "https://evil.example", "", false},
		{"prod no origin", []string{"https://a.example"}, "production", "", "", false},
		{"prod explicit wildcard", []string{"*"}, "production", "https://any.example", "*", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tags", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rr := serveCORS(tc.origins, tc.env, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.want, rr.Header().Get("Access-Control-Allow-Origin"))
			if tc.vary {
				assert.Equal(t, "Origin", rr.Header().Get("Vary"))
			}
			assert.Equal(t, "X-Correlation-ID, Retry-After", rr.Header().Get("Access-Control-Expose-Headers"))
		})
	}
}

func TestCORS_Preflight_Returns204(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/wishlist/commands", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rr := serveCORS([]string{"https://shop.example"}, "production", req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://shop.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept, Authorization, Content-Type, X-Correlation-ID", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PlainOptionsPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tags", nil)
	rr := serveCORS(nil, "development", req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"))
}
