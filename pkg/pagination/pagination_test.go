package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		page    int
		perPage int
		offset  int
	}{
		{"defaults", "/api/v1/tags", 1, 20, 0},
		{"custom", "/api/v1/tags?page=3&per_page=50", 3, 50, 100},
		{"capped", "/api/v1/tags?per_page=1000", 1, 100, 0},
		{"invalid values", "/api/v1/tags?page=-2&per_page=abc", 1, 20, 0},
		{"zero page", "/api/v1/tags?page=0&per_page=5", 1, 5, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, tc.url, nil))
			assert.Equal(t, tc.page, p.Page)
			assert.Equal(t, tc.perPage, p.PerPage)
			assert.Equal(t, tc.offset, p.Offset())
		})
	}
}
