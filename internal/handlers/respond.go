package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pagination is the normalized page request. Both "pageSize" and "limit" are
// accepted for the page size; "pageSize" wins if both are present.
type pagination struct {
	Page  int
	Limit int
}

func parsePagination(r *http.Request) pagination {
	p := pagination{Page: 1, Limit: defaultPageSize}

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}

	size := r.URL.Query().Get("pageSize")
	if size == "" {
		size = r.URL.Query().Get("limit")
	}
	if size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

type pageMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeData wraps a single entity in the standard {data} envelope.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, map[string]any{"data": v})
}

// writePage writes the canonical list envelope {data, pagination:{...}}.
func writePage(w http.ResponseWriter, data any, total int64, p pagination) {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	writeJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"pagination": pageMeta{
			Page:  p.Page,
			Limit: p.Limit,
			Total: total,
			Pages: pages,
		},
	})
}
