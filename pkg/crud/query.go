package crud

import (
	"net/url"
	"strconv"
)

// Query parameter names written by the injectors.
const (
	QueryOffset = "offset"
	QueryLimit  = "limit"
	QuerySortBy = "sortBy"
	QueryOrder  = "order"
)

// FilterKey returns the bracketed query name for a filter.
func FilterKey(name string) string {
	return "filters[" + name + "]"
}

// InjectPagination copies offset and limit into query. Zero values are
// treated as unset and not copied, so an explicit offset of 0 is never
// sent.
func InjectPagination(query url.Values, opts *Options) {
	if opts == nil {
		return
	}

	if opts.Offset != 0 {
		query.Set(QueryOffset, strconv.Itoa(opts.Offset))
	}

	if opts.Limit != 0 {
		query.Set(QueryLimit, strconv.Itoa(opts.Limit))
	}
}

// InjectSorting copies sortBy, and order only when sortBy is set.
func InjectSorting(query url.Values, opts *Options) {
	if opts == nil || opts.SortBy == "" {
		return
	}

	query.Set(QuerySortBy, opts.SortBy)

	if opts.Order != "" {
		query.Set(QueryOrder, opts.Order)
	}
}

// InjectFilters writes every filter as filters[<name>]=<value>.
func InjectFilters(query url.Values, opts *Options) {
	if opts == nil {
		return
	}

	for name, value := range opts.Filters {
		query.Set(FilterKey(name), value)
	}
}

// buildQuery runs the injectors enabled by the descriptor.
func buildQuery(desc EndpointDescriptor, opts *Options) url.Values {
	query := url.Values{}

	if desc.Paginatable {
		InjectPagination(query, opts)
	}

	if desc.Sortable {
		InjectSorting(query, opts)
	}

	if desc.Filterable {
		InjectFilters(query, opts)
	}

	return query
}
