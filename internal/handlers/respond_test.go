package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name  string
		query string
		page  int
		limit int
	}{
		{"defaults", "", 1, 20},
		{"explicit page", "page=3", 3, 20},
		{"pageSize", "pageSize=50", 1, 50},
		{"limit alias", "limit=50", 1, 50},
		{"pageSize wins over limit", "pageSize=10&limit=50", 1, 10},
		{"capped at max", "pageSize=500", 1, 100},
		{"limit alias capped too", "limit=101", 1, 100},
		{"zero page ignored", "page=0", 1, 20},
		{"negative size ignored", "pageSize=-5", 1, 20},
		{"junk ignored", "page=abc&pageSize=xyz", 1, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			p := parsePagination(req)
			assert.Equal(t, tc.page, p.Page)
			assert.Equal(t, tc.limit, p.Limit)
		})
	}
}

func TestWritePage(t *testing.T) {
	rec := httptest.NewRecorder()
	writePage(rec, []string{"a", "b"}, 45, pagination{Page: 2, Limit: 20})

	var resp struct {
		Data       []string `json:"data"`
		Pagination pageMeta `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, int64(45), resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.Pages, "45 records at 20 per page")
}

func TestWriteDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeData(rec, http.StatusCreated, map[string]int{"id": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Data["id"])
}
