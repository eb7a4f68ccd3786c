package shared

import (
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest carries the shared list-endpoint query contract.
type PageRequest struct {
	Page   int
	Limit  int
	Search string
}

// Offset returns the zero-based row offset for the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePageRequest reads the page/limit/search query params, clamping the
// page size and defaulting absent values.
func ParsePageRequest(r *http.Request) PageRequest {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
			if limit > maxPageSize {
				limit = maxPageSize
			}
		}
	}
	return PageRequest{
		Page:   page,
		Limit:  limit,
		Search: NormalizeSearch(r.URL.Query().Get("search")),
	}
}

var searchFolder = cases.Fold()

// NormalizeSearch trims and case-folds a free-text search term so the
// repositories can match it case-insensitively.
func NormalizeSearch(term string) string {
	return searchFolder.String(strings.TrimSpace(term))
}

// ListEnvelope is the response body shared by every list endpoint.
type ListEnvelope struct {
	Data       any `json:"data"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
}

// NewListEnvelope builds the envelope for a page of results.
func NewListEnvelope(data any, total int, req PageRequest) ListEnvelope {
	return ListEnvelope{Data: data, TotalCount: total, Page: req.Page, Limit: req.Limit}
}
