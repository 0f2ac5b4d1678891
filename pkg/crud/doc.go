// Package crud provides a declarative registry of REST endpoints with an
// in-memory result cache.
//
// # Overview
//
// A Registry holds named resources. Each resource is a set of endpoints
// declared by an EndpointDescriptor (route template, method and the
// paginatable, sortable, filterable and cachable flags) and owns one Cache.
// Calling an endpoint returns a *Result immediately; the request runs in
// the background and the result settles once with JSON data or an error.
//
//	reg, err := crud.NewRegistry(doer)
//	if err != nil { return err }
//
//	_, err = reg.RegisterResource("user", map[string]crud.EndpointDescriptor{
//	  "get":    {Route: "user/:guid", Cachable: true},
//	  "getAll": {Route: "user", Paginatable: true, Sortable: true, Cachable: true},
//	})
//
//	data, err := reg.Call(ctx, "user", "get", nil, crud.Params{"guid": "42"}, nil).Wait(ctx)
//
// # Routes and parameters
//
// Route placeholders (":guid") are filled from Params. Parameters the route
// does not consume are sent as the JSON body for post and put endpoints
// called without an explicit body, and as query parameters otherwise.
// Unknown placeholders are left in the path.
//
// # Caching
//
// Identical calls to a cachable endpoint share one Result, in flight or
// settled, so concurrent callers cause a single request. Options.Force
// issues a new request and replaces the entry. Failed results stay cached
// until invalidated unless the registry was created WithEvictOnError.
// Registry.Invalidate removes entries by endpoint-name prefix; prefixes are
// matched as plain strings, so "get" also clears "getAll".
//
// # Schema discovery
//
// LoadSchema fetches GET schema/endpoints and registers every resource it
// describes. Concurrent loads share one request.
//
// # Invalidation across processes
//
// Registries sharing an InvalidationBus apply each other's invalidations.
// LocalBus works in-process; pkg/natsbus carries invalidations over NATS.
package crud
