package common

import (
	"net/http"
	"strconv"
)

// PaginationParams represents pagination parameters for version listings
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultPaginationParams returns default pagination parameters
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Page:     1,
		PageSize: 50,
	}
}

// ExtractPaginationParams extracts pagination parameters from a request
func ExtractPaginationParams(r *http.Request) PaginationParams {
	params := DefaultPaginationParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if pageSize := r.URL.Query().Get("page_size"); pageSize != "" {
		if ps, err := strconv.Atoi(pageSize); err == nil && ps > 0 {
			if ps > 200 {
				ps = 200 // Max page size
			}
			params.PageSize = ps
		}
	}

	return params
}

// Normalize fills unset fields with defaults and caps the page size
func (p *PaginationParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}

// Offset calculates the offset for store queries
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// BuildPaginationInfo builds response metadata for a paginated listing
func BuildPaginationInfo(params PaginationParams, total int) *PaginationInfo {
	totalPages := 0
	if params.PageSize > 0 {
		totalPages = (total + params.PageSize - 1) / params.PageSize
	}
	return &PaginationInfo{
		Page:       params.Page,
		PageSize:   params.PageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
