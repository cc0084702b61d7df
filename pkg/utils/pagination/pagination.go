package pagination

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// MaxLimit is the hard ceiling for any page size.
const MaxLimit = 50

type OrderType string

const (
	OrderTypeAscending  OrderType = "asc"
	OrderTypeDescending OrderType = "desc"
)

// ParseOrder accepts "asc" in any case, everything else sorts descending.
func ParseOrder(raw string) OrderType {
	if strings.EqualFold(strings.TrimSpace(raw), string(OrderTypeAscending)) {
		return OrderTypeAscending
	}
	return OrderTypeDescending
}

// PageRequest is a resolved page position. Page is always >= 1 and Limit is
// always within [1, MaxLimit].
type PageRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Skip  int `json:"-"`
}

// Resolve turns raw query values into a safe PageRequest. Missing or
// non-numeric input falls back to defaults instead of failing.
func Resolve(rawPage, rawLimit string, defaultLimit, maxLimit int) PageRequest {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defaultLimit <= 0 {
		defaultLimit = 10
	}

	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil {
		page = 1
	}
	page = max(1, page)

	limit, err := strconv.Atoi(strings.TrimSpace(rawLimit))
	if err != nil {
		limit = defaultLimit
	}
	limit = min(maxLimit, max(1, limit))
	// (page-1)*limit must not overflow into a negative or wrapped offset.
	page = min(page, math.MaxInt/limit)

	return PageRequest{
		Page:  page,
		Limit: limit,
		Skip:  (page - 1) * limit,
	}
}

type PagedResponse[T any] struct {
	Items           []T   `json:"items"`
	CurrentPage     int   `json:"currentPage"`
	Limit           int   `json:"limit"`
	TotalCount      int64 `json:"totalCount"`
	TotalPages      int64 `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// NewPagedResponse computes paging metadata. Items beyond the limit are cut off
// and a nil slice is replaced by an empty one so it encodes as [].
func NewPagedResponse[T any](items []T, total int64, request PageRequest) *PagedResponse[T] {
	if request.Limit <= 0 {
		panic("pagination: limit must be positive")
	}
	if items == nil {
		items = []T{}
	}
	if len(items) > request.Limit {
		items = items[:request.Limit]
	}
	if total < 0 {
		total = 0
	}

	limit := int64(request.Limit)
	totalPages := (total + limit - 1) / limit
	return &PagedResponse[T]{
		Items:           items,
		CurrentPage:     request.Page,
		Limit:           request.Limit,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasNextPage:     int64(request.Page) < totalPages,
		HasPreviousPage: request.Page > 1,
	}
}

// MapItems converts the items of a page while keeping its metadata.
func MapItems[T, R any](page *PagedResponse[T], fn func(T) R) *PagedResponse[R] {
	mapped := lo.Map(page.Items, func(item T, _ int) R {
		return fn(item)
	})
	return &PagedResponse[R]{
		Items:           mapped,
		CurrentPage:     page.CurrentPage,
		Limit:           page.Limit,
		TotalCount:      page.TotalCount,
		TotalPages:      page.TotalPages,
		HasNextPage:     page.HasNextPage,
		HasPreviousPage: page.HasPreviousPage,
	}
}
