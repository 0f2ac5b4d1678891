package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"time"
)

var jsonNull = json.RawMessage("null")

// Endpoint is the callable built from one descriptor.
type Endpoint struct {
	name     string
	resource *Resource
	desc     EndpointDescriptor
}

// Name returns the endpoint name.
func (e *Endpoint) Name() string {
	return e.name
}

// Resource returns the resource the endpoint belongs to.
func (e *Endpoint) Resource() *Resource {
	return e.resource
}

// Descriptor returns a copy of the endpoint's descriptor.
func (e *Endpoint) Descriptor() EndpointDescriptor {
	return e.desc
}

// Call invokes the endpoint. opts, params and body may all be nil; params
// is never modified.
//
// For cachable endpoints a call whose key is already cached gets the
// stored result back, whether it is still in flight or settled. Force
// skips the lookup and replaces the entry with the new result. Endpoints
// that are not cachable never read or write the cache.
//
// The request runs in the background and cannot be cancelled: ctx only
// contributes its values.
func (e *Endpoint) Call(ctx context.Context, opts *Options, params Params, body any) *Result {
	if opts == nil {
		opts = &Options{}
	}

	params = params.Clone()
	reg := e.resource.registry

	query := buildQuery(e.desc, opts)
	key := reg.keyFunc(e.name, query, body, params)
	path := ConsumeRoute(e.desc.Route, params)

	reg.metrics.RecordCall(e.resource.name, e.name)

	if left := Placeholders(path); len(left) > 0 {
		reg.logger.Warn("Unresolved route placeholders", map[string]interface{}{
			"resource":     e.resource.name,
			"endpoint":     e.name,
			"path":         path,
			"placeholders": left,
		})
	}

	result := newResult()

	if e.desc.Cachable {
		if opts.Force {
			e.resource.cache.Set(key, result)
		} else if existing, loaded := e.resource.cache.GetOrSet(key, result); loaded {
			reg.metrics.RecordCacheHit(e.resource.name, e.name)

			return existing
		}

		reg.metrics.RecordCacheMiss(e.resource.name, e.name)
	}

	req := e.newRequest(path, query, params, body)

	go e.execute(context.WithoutCancel(ctx), key, result, req)

	return result
}

// Do calls the endpoint and waits for the result.
func (e *Endpoint) Do(ctx context.Context, opts *Options, params Params, body any) (json.RawMessage, error) {
	return e.Call(ctx, opts, params, body).Wait(ctx)
}

// ClearCache removes every cache entry whose key starts with the endpoint
// name. Endpoints whose names extend this one ("get" and "getAll") are
// cleared as well.
func (e *Endpoint) ClearCache() int {
	return e.resource.ClearCache(e.name)
}

// newRequest decides where leftover parameters go: into the body for
// post/put calls without an explicit body, into the query otherwise.
func (e *Endpoint) newRequest(path string, query url.Values, leftover Params, body any) *Request {
	reqQuery := make(url.Values, len(query)+len(leftover))
	maps.Copy(reqQuery, query)

	if body == nil && e.desc.Method.sendsBody() && len(leftover) > 0 {
		body = map[string]string(leftover)
		leftover = nil
	}

	for name, value := range leftover {
		reqQuery.Set(name, value)
	}

	return &Request{
		Method: e.desc.Method.HTTP(),
		Path:   path,
		Query:  reqQuery,
		Body:   body,
		Metadata: map[string]interface{}{
			"resource": e.resource.name,
			"endpoint": e.name,
		},
	}
}

func (e *Endpoint) execute(ctx context.Context, key string, result *Result, req *Request) {
	reg := e.resource.registry
	start := time.Now()

	reg.metrics.RecordRequestStart(e.resource.name, e.name)

	resp, err := reg.doer.Do(ctx, req)
	if err == nil && resp == nil {
		err = ErrNoResponse
	}

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	var data json.RawMessage
	if err == nil {
		data, err = e.normalize(resp.Body)
	}

	reg.metrics.RecordRequestEnd(e.resource.name, e.name, req.Method, statusCode, time.Since(start).Seconds(), err != nil)

	if err != nil {
		reg.logger.Error("Endpoint call failed", map[string]interface{}{
			"resource":    e.resource.name,
			"endpoint":    e.name,
			"method":      req.Method,
			"path":        req.Path,
			"status_code": statusCode,
			"error":       err.Error(),
		})

		err = fmt.Errorf("calling %s.%s: %w", e.resource.name, e.name, err)
	}

	// The entry is removed before the rejection becomes visible.
	if err != nil && reg.evictOnError && e.desc.Cachable {
		e.resource.cache.DeleteIf(key, result)
	}

	result.settle(data, err)
}

// pageEnvelope is the wire shape of a paginated response.
type pageEnvelope struct {
	Items  json.RawMessage `json:"items"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
	Total  int             `json:"total"`
}

// normalizedPage is the shape handed to callers, matching Page[T].
type normalizedPage struct {
	Items      json.RawMessage `json:"items"`
	Pagination Pagination      `json:"pagination"`
}

func (e *Endpoint) normalize(body []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return jsonNull, nil
	}

	if !e.desc.Paginatable {
		return json.RawMessage(body), nil
	}

	var env pageEnvelope

	err := json.Unmarshal(body, &env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPage, err)
	}

	if env.Items == nil {
		env.Items = jsonNull
	}

	out, err := json.Marshal(normalizedPage{
		Items: env.Items,
		Pagination: Pagination{
			Offset: env.Offset,
			Limit:  env.Limit,
			Total:  env.Total,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPage, err)
	}

	return out, nil
}
