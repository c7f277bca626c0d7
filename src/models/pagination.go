package models

import "math"

// PaginationParams is bound from the query string of listing endpoints.
type PaginationParams struct {
	Page   int    `json:"page" query:"page" example:"1"`
	Limit  int    `json:"limit" query:"limit" example:"20"`
	SortBy string `json:"sortBy" query:"sortBy" example:"createdAt"`
	Order  string `json:"order" query:"order" example:"desc"`
}

const maxPageLimit = 200

// DefaultPagination lists the newest items first.
func DefaultPagination() PaginationParams {
	return PaginationParams{
		Page:   1,
		Limit:  20,
		SortBy: "createdAt",
		Order:  "desc",
	}
}

// Normalize clamps out-of-range values and falls back to the defaults for
// sort keys outside allowed.
func (p *PaginationParams) Normalize(allowed ...string) {
	def := DefaultPagination()
	if p.Page < 1 {
		p.Page = def.Page
	}
	if p.Limit < 1 {
		p.Limit = def.Limit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Order != "asc" && p.Order != "desc" {
		p.Order = def.Order
	}
	ok := false
	for _, a := range allowed {
		if p.SortBy == a {
			ok = true
			break
		}
	}
	if !ok {
		p.SortBy = def.SortBy
	}
}

// PaginatedResponse wraps one page of a listing.
type PaginatedResponse[T any] struct {
	Data        []T   `json:"data"`
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

func NewPaginatedResponse[T any](data []T, total int64, params PaginationParams) *PaginatedResponse[T] {
	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))
	if data == nil {
		data = []T{}
	}
	return &PaginatedResponse[T]{
		Data:        data,
		Total:       total,
		Page:        params.Page,
		Limit:       params.Limit,
		TotalPages:  totalPages,
		HasNext:     params.Page < totalPages,
		HasPrevious: params.Page > 1,
	}
}

// GetSkip is the number of documents before the requested page.
func (p *PaginationParams) GetSkip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// SortDirection is the Mongo sort direction for Order.
func (p *PaginationParams) SortDirection() int {
	if p.Order == "asc" {
		return 1
	}
	return -1
}
