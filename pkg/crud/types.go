package crud

import (
	"fmt"
	"maps"
	"strings"
)

// Method is the HTTP verb an endpoint is called with.
type Method string

// Supported endpoint methods.
const (
	MethodGet    Method = "get"
	MethodPost   Method = "post"
	MethodPut    Method = "put"
	MethodDelete Method = "delete"
)

// ParseMethod normalises a method name. An empty name means get.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodGet, nil
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
}

// HTTP returns the upper-case verb used on the wire.
func (m Method) HTTP() string {
	return strings.ToUpper(string(m))
}

// sendsBody reports whether leftover parameters travel in the request body
// rather than in the query string.
func (m Method) sendsBody() bool {
	return m == MethodPost || m == MethodPut
}

// EndpointDescriptor declares one server operation.
type EndpointDescriptor struct {
	Route       string `json:"route"                 yaml:"route"`
	Method      Method `json:"method,omitempty"      yaml:"method,omitempty"`
	Paginatable bool   `json:"paginatable,omitempty" yaml:"paginatable,omitempty"`
	Sortable    bool   `json:"sortable,omitempty"    yaml:"sortable,omitempty"`
	Filterable  bool   `json:"filterable,omitempty"  yaml:"filterable,omitempty"`
	Cachable    bool   `json:"cachable,omitempty"    yaml:"cachable,omitempty"`
}

// normalize validates the descriptor and fills in the default method.
func (d EndpointDescriptor) normalize() (EndpointDescriptor, error) {
	if strings.TrimSpace(d.Route) == "" {
		return d, ErrEmptyRoute
	}

	method, err := ParseMethod(string(d.Method))
	if err != nil {
		return d, err
	}

	d.Method = method

	return d, nil
}

// Options are the per-call properties that drive query injection and
// cache bypass.
type Options struct {
	// Force skips the cache lookup. The fresh result still replaces the
	// cached one.
	Force bool

	Offset int
	Limit  int

	SortBy string
	Order  string

	// Filters are sent as filters[<name>]=<value>.
	Filters map[string]string
}

// NewOptions returns empty call options.
func NewOptions() *Options {
	return &Options{Filters: make(map[string]string)}
}

// WithForce sets Force.
func (o *Options) WithForce() *Options {
	o.Force = true

	return o
}

// WithPage sets offset and limit.
func (o *Options) WithPage(offset, limit int) *Options {
	o.Offset = offset
	o.Limit = limit

	return o
}

// WithSort sets the sort field and order.
func (o *Options) WithSort(sortBy, order string) *Options {
	o.SortBy = sortBy
	o.Order = order

	return o
}

// WithFilter adds a filter.
func (o *Options) WithFilter(name, value string) *Options {
	if o.Filters == nil {
		o.Filters = make(map[string]string)
	}

	o.Filters[name] = value

	return o
}

// Params holds route placeholder values. Entries not consumed by the route
// are forwarded with the request.
type Params map[string]string

// Clone returns a shallow copy; nil clones to an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)

	return out
}

// Pagination describes the slice of a collection a page holds.
type Pagination struct {
	Offset int `json:"offset" yaml:"offset"`
	Limit  int `json:"limit"  yaml:"limit"`
	Total  int `json:"total"  yaml:"total"`
}

// Page is the normalised result of a paginatable endpoint.
type Page[T any] struct {
	Items      []T        `json:"items"      yaml:"items"`
	Pagination Pagination `json:"pagination" yaml:"pagination"`
}

// Schema maps resource name to endpoint name to descriptor, as served by
// the schema endpoint.
type Schema map[string]map[string]EndpointDescriptor
