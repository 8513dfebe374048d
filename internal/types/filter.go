package types

import "github.com/samber/lo"

const (
	FilterDefaultLimit = 50
	FilterMaxLimit     = 1000
)

// QueryFilter carries pagination parameters shared by list endpoints.
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" validate:"omitempty,gt=0,lte=1000"`
	Offset *int    `json:"offset,omitempty" validate:"omitempty,gte=0"`
	Sort   *string `json:"sort,omitempty"`
	Order  *string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
}

// NewDefaultQueryFilter returns a filter with the default page size.
func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(FilterDefaultLimit),
		Offset: lo.ToPtr(0),
	}
}

// NewNoLimitQueryFilter returns a filter that fetches all rows; used by
// internal sweeps, never exposed to API callers.
func NewNoLimitQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(FilterMaxLimit),
		Offset: lo.ToPtr(0),
	}
}

func (f *QueryFilter) GetLimit() int {
	if f == nil || f.Limit == nil {
		return FilterDefaultLimit
	}
	return *f.Limit
}

func (f *QueryFilter) GetOffset() int {
	if f == nil || f.Offset == nil {
		return 0
	}
	return *f.Offset
}

// ListResponse is the standard paginated list envelope.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewListResponse builds the standard list envelope.
func NewListResponse[T any](items []T, total, limit, offset int) ListResponse[T] {
	return ListResponse[T]{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}
