package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lava-10/knowMoreQR/pkg/httputil"
	"github.com/Lava-10/knowMoreQR/pkg/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func staticValidator(valid string, userID string) TokenValidator {
	return func(token string) (*Claims, error) {
		if token != valid {
			return nil, errors.New("bad token")
		}
		return &Claims{UserID: userID}, nil
	}
}

func TestAuth_ValidToken(t *testing.T) {
	var gotUser, gotLogUser string
	handler := Auth(staticValidator("good", "42"), discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotLogUser = logger.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42", gotUser)
	assert.Equal(t, "42", gotLogUser)
}

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic Zm9vOmJhcg=="},
		{"empty token", "Bearer   "},
		{"invalid token", "Bearer nope"},
		{"no scheme", "good"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := Auth(staticValidator("good", "42"), discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)

			var body httputil.Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
		})
	}
}

func TestAuth_ClaimsWithoutUserRejected(t *testing.T) {
	validate := func(string) (*Claims, error) { return &Claims{}, nil }
	handler := Auth(validate, discardLogger())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer anything")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
