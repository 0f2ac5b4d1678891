package crud

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records call and cache metrics on collector.
func WithMetrics(collector *MetricsCollector) Option {
	return func(r *Registry) {
		r.metrics = collector
	}
}

// WithKeyFunc replaces the cache key derivation.
func WithKeyFunc(fn KeyFunc) Option {
	return func(r *Registry) {
		if fn != nil {
			r.keyFunc = fn
		}
	}
}

// WithEvictOnError removes a cache entry when its call fails, so the next
// identical call goes back to the network. By default failed results stay
// cached until invalidated.
func WithEvictOnError(evict bool) Option {
	return func(r *Registry) {
		r.evictOnError = evict
	}
}

// WithInvalidationBus shares invalidations with other registries.
func WithInvalidationBus(bus InvalidationBus) Option {
	return func(r *Registry) {
		r.bus = bus
	}
}

// Registry holds named resources, their endpoints and one result cache per
// resource.
type Registry struct {
	id           string
	doer         Doer
	logger       Logger
	metrics      *MetricsCollector
	keyFunc      KeyFunc
	evictOnError bool
	bus          InvalidationBus
	unsubscribe  func() error

	mu        sync.RWMutex
	resources map[string]*Resource

	schemaGroup  singleflight.Group
	schemaLoaded atomic.Bool
}

// NewRegistry creates an empty registry sending requests through doer.
func NewRegistry(doer Doer, opts ...Option) (*Registry, error) {
	if doer == nil {
		return nil, ErrNoDoer
	}

	r := &Registry{
		id:        uuid.NewString(),
		doer:      doer,
		logger:    nopLogger{},
		keyFunc:   Key,
		resources: make(map[string]*Resource),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.bus != nil {
		unsubscribe, err := r.bus.Subscribe(r.handleInvalidation)
		if err != nil {
			return nil, fmt.Errorf("subscribing to invalidations: %w", err)
		}

		r.unsubscribe = unsubscribe
	}

	return r, nil
}

// ID identifies the registry on the invalidation bus.
func (r *Registry) ID() string {
	return r.id
}

// RegisterResource adds a resource built from endpoint descriptors.
func (r *Registry) RegisterResource(name string, endpoints map[string]EndpointDescriptor) (*Resource, error) {
	res, err := r.buildResource(name, endpoints)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrResourceAlreadyRegistered, name)
	}

	r.resources[name] = res

	r.logger.Debug("Registered resource", map[string]interface{}{
		"resource":  name,
		"endpoints": len(res.endpoints),
	})

	return res, nil
}

// RegisterSchema registers every resource of schema. Nothing is registered
// if any resource is invalid or already present.
func (r *Registry) RegisterSchema(schema Schema) error {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}

	slices.Sort(names)

	built := make([]*Resource, 0, len(names))

	for _, name := range names {
		res, err := r.buildResource(name, schema[name])
		if err != nil {
			return err
		}

		built = append(built, res)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, res := range built {
		if _, exists := r.resources[res.name]; exists {
			return fmt.Errorf("%w: %s", ErrResourceAlreadyRegistered, res.name)
		}
	}

	for _, res := range built {
		r.resources[res.name] = res
	}

	return nil
}

func (r *Registry) buildResource(name string, endpoints map[string]EndpointDescriptor) (*Resource, error) {
	if name == "" {
		return nil, fmt.Errorf("resource: %w", ErrEmptyName)
	}

	res := &Resource{
		name:      name,
		registry:  r,
		cache:     NewCache(),
		endpoints: make(map[string]*Endpoint, len(endpoints)),
	}

	for endpointName, desc := range endpoints {
		if endpointName == "" {
			return nil, fmt.Errorf("resource %s endpoint: %w", name, ErrEmptyName)
		}

		normalized, err := desc.normalize()
		if err != nil {
			return nil, fmt.Errorf("resource %s endpoint %s: %w", name, endpointName, err)
		}

		res.endpoints[endpointName] = &Endpoint{
			name:     endpointName,
			resource: res,
			desc:     normalized,
		}
	}

	return res, nil
}

// Resource returns a registered resource.
func (r *Registry) Resource(name string) (*Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[name]

	return res, ok
}

// Resources returns the registered resource names in sorted order.
func (r *Registry) Resources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Endpoint looks up an endpoint of a resource.
func (r *Registry) Endpoint(resource, endpoint string) (*Endpoint, error) {
	res, ok := r.Resource(resource)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, resource)
	}

	e, ok := res.Endpoint(endpoint)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrEndpointNotFound, resource, endpoint)
	}

	return e, nil
}

// Call invokes resource.endpoint. Lookup failures come back as a rejected
// result.
func (r *Registry) Call(ctx context.Context, resource, endpoint string, opts *Options, params Params, body any) *Result {
	e, err := r.Endpoint(resource, endpoint)
	if err != nil {
		return Rejected(err)
	}

	return e.Call(ctx, opts, params, body)
}

// Invalidate removes every cache entry of resource whose key starts with
// endpointPrefix and returns the number removed. The match is a plain
// prefix: "get" also removes the entries of "getAll".
func (r *Registry) Invalidate(resource, endpointPrefix string) int {
	inv := Invalidation{Origin: r.id, Resource: resource, Prefix: endpointPrefix}
	removed := r.applyInvalidation(inv, "local")
	r.publish(inv)

	return removed
}

// InvalidateAll clears the cache of resource.
func (r *Registry) InvalidateAll(resource string) int {
	inv := Invalidation{Origin: r.id, Resource: resource, All: true}
	removed := r.applyInvalidation(inv, "local")
	r.publish(inv)

	return removed
}

func (r *Registry) applyInvalidation(inv Invalidation, source string) int {
	res, ok := r.Resource(inv.Resource)
	if !ok {
		return 0
	}

	var removed int
	if inv.All {
		removed = res.cache.Clear()
	} else {
		removed = res.cache.DeletePrefix(inv.Prefix)
	}

	r.metrics.RecordInvalidation(inv.Resource, source, removed)

	r.logger.Debug("Invalidated cache entries", map[string]interface{}{
		"resource": inv.Resource,
		"prefix":   inv.Prefix,
		"all":      inv.All,
		"removed":  removed,
		"source":   source,
	})

	return removed
}

func (r *Registry) publish(inv Invalidation) {
	if r.bus == nil {
		return
	}

	err := r.bus.Publish(inv)
	if err != nil {
		r.logger.Warn("Failed to publish invalidation", map[string]interface{}{
			"resource": inv.Resource,
			"error":    err.Error(),
		})
	}
}

func (r *Registry) handleInvalidation(inv Invalidation) {
	if inv.Origin == r.id {
		return
	}

	r.applyInvalidation(inv, "remote")
}

// LoadSchema fetches the endpoint schema from the server and registers
// its resources. Concurrent callers share one request, which runs detached
// from their cancellation; ctx only bounds how long this caller waits.
// Once a load has succeeded later calls return immediately; a failed load
// is retried by the next call.
func (r *Registry) LoadSchema(ctx context.Context) error {
	if r.schemaLoaded.Load() {
		return nil
	}

	ch := r.schemaGroup.DoChan("schema", func() (interface{}, error) {
		if r.schemaLoaded.Load() {
			return nil, nil
		}

		schema, err := r.fetchSchema(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		err = r.RegisterSchema(schema)
		if err != nil {
			return nil, fmt.Errorf("registering schema: %w", err)
		}

		r.schemaLoaded.Store(true)

		r.logger.Info("Loaded endpoint schema", map[string]interface{}{
			"resources": len(schema),
		})

		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("loading schema: %w", ctx.Err())
	}
}

// SchemaLoaded reports whether LoadSchema has succeeded.
func (r *Registry) SchemaLoaded() bool {
	return r.schemaLoaded.Load()
}

func (r *Registry) fetchSchema(ctx context.Context) (Schema, error) {
	resp, err := r.doer.Do(ctx, &Request{
		Method: MethodGet.HTTP(),
		Path:   constants.SchemaEndpointsPath,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching schema: %w", err)
	}

	if resp == nil {
		return nil, fmt.Errorf("fetching schema: %w", ErrNoResponse)
	}

	var schema Schema

	err = json.Unmarshal(resp.Body, &schema)
	if err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}

	return schema, nil
}

// Close detaches the registry from its invalidation bus.
func (r *Registry) Close() error {
	if r.unsubscribe == nil {
		return nil
	}

	unsubscribe := r.unsubscribe
	r.unsubscribe = nil

	err := unsubscribe()
	if err != nil {
		return fmt.Errorf("unsubscribing from invalidations: %w", err)
	}

	return nil
}

// Resource is a named group of endpoints sharing one cache.
type Resource struct {
	name      string
	registry  *Registry
	cache     *Cache
	endpoints map[string]*Endpoint
}

// Name returns the resource name.
func (res *Resource) Name() string {
	return res.name
}

// Cache returns the resource's result cache.
func (res *Resource) Cache() *Cache {
	return res.cache
}

// Endpoint returns the named endpoint.
func (res *Resource) Endpoint(name string) (*Endpoint, bool) {
	e, ok := res.endpoints[name]

	return e, ok
}

// Endpoints returns the endpoint names in sorted order.
func (res *Resource) Endpoints() []string {
	names := make([]string, 0, len(res.endpoints))
	for name := range res.endpoints {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Call invokes one of the resource's endpoints.
func (res *Resource) Call(ctx context.Context, endpoint string, opts *Options, params Params, body any) *Result {
	e, ok := res.Endpoint(endpoint)
	if !ok {
		return Rejected(fmt.Errorf("%w: %s.%s", ErrEndpointNotFound, res.name, endpoint))
	}

	return e.Call(ctx, opts, params, body)
}

// ClearCache removes entries whose key starts with prefix.
func (res *Resource) ClearCache(prefix string) int {
	return res.registry.Invalidate(res.name, prefix)
}

// ClearCaches removes all of the resource's entries.
func (res *Resource) ClearCaches() int {
	return res.registry.InvalidateAll(res.name)
}
