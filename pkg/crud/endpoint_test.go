package crud_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDoer records requests and answers them with respond, or with an empty
// object when respond is nil. When gate is set every request blocks until
// it is closed.
type fakeDoer struct {
	calls   atomic.Int32
	gate    chan struct{}
	respond func(req *crud.Request) (*crud.Response, error)

	mu       sync.Mutex
	requests []*crud.Request
}

func (d *fakeDoer) Do(ctx context.Context, req *crud.Request) (*crud.Response, error) {
	d.calls.Add(1)

	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()

	if d.gate != nil {
		<-d.gate
	}

	if d.respond != nil {
		return d.respond(req)
	}

	return &crud.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
}

func (d *fakeDoer) last(t *testing.T) *crud.Request {
	t.Helper()

	d.mu.Lock()
	defer d.mu.Unlock()

	require.NotEmpty(t, d.requests)

	return d.requests[len(d.requests)-1]
}

func jsonResponse(body string) func(*crud.Request) (*crud.Response, error) {
	return func(*crud.Request) (*crud.Response, error) {
		return &crud.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	}
}

func newTestEndpoint(t *testing.T, doer crud.Doer, desc crud.EndpointDescriptor, opts ...crud.Option) *crud.Endpoint {
	t.Helper()

	reg, err := crud.NewRegistry(doer, opts...)
	require.NoError(t, err)

	_, err = reg.RegisterResource("item", map[string]crud.EndpointDescriptor{"get": desc})
	require.NoError(t, err)

	endpoint, err := reg.Endpoint("item", "get")
	require.NoError(t, err)

	return endpoint
}

func waitResult(t *testing.T, result *crud.Result) (json.RawMessage, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return result.Wait(ctx)
}

func TestEndpoint_CachableDeduplicates(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{respond: jsonResponse(`{"id":"1"}`)}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "/item/:id", Cachable: true})
	ctx := context.Background()

	first := endpoint.Call(ctx, nil, crud.Params{"id": "1"}, nil)
	second := endpoint.Call(ctx, nil, crud.Params{"id": "1"}, nil)

	assert.Same(t, first, second)

	data, err := waitResult(t, second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(data))

	third := endpoint.Call(ctx, nil, crud.Params{"id": "1"}, nil)
	assert.Same(t, first, third)
	assert.Equal(t, int32(1), doer.calls.Load())
}

func TestEndpoint_InFlightCallsShareResult(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{gate: make(chan struct{})}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "/item/:id", Cachable: true})

	var (
		wg      sync.WaitGroup
		results = make([]*crud.Result, 20)
	)

	for i := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = endpoint.Call(context.Background(), nil, crud.Params{"id": "1"}, nil)
		}()
	}

	wg.Wait()

	for _, result := range results {
		assert.Same(t, results[0], result)
		assert.False(t, result.Settled())
	}

	close(doer.gate)

	_, err := waitResult(t, results[0])
	require.NoError(t, err)
	assert.Equal(t, int32(1), doer.calls.Load())
}

func TestEndpoint_NotCachableAlwaysCalls(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "/item/:id"})

	for range 3 {
		_, err := waitResult(t, endpoint.Call(context.Background(), nil, crud.Params{"id": "1"}, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), doer.calls.Load())
	assert.Equal(t, 0, endpoint.Resource().Cache().Len())
}

func TestEndpoint_ForceIssuesNewCall(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "/item/:id", Method: crud.MethodGet, Cachable: true})
	ctx := context.Background()

	first := endpoint.Call(ctx, nil, crud.Params{"id": "1"}, nil)
	_, err := waitResult(t, first)
	require.NoError(t, err)

	forced := endpoint.Call(ctx, crud.NewOptions().WithForce(), crud.Params{"id": "1"}, nil)
	_, err = waitResult(t, forced)
	require.NoError(t, err)

	assert.NotSame(t, first, forced)
	assert.Equal(t, int32(2), doer.calls.Load())

	// The forced result replaced the cached one.
	after := endpoint.Call(ctx, nil, crud.Params{"id": "1"}, nil)
	assert.Same(t, forced, after)
	assert.Equal(t, int32(2), doer.calls.Load())
}

func TestEndpoint_DifferentArgumentsAreCachedSeparately(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "/item/:id", Cachable: true, Paginatable: true})
	ctx := context.Background()

	a := endpoint.Call(ctx, nil, crud.Params{"id": "1"}, nil)
	b := endpoint.Call(ctx, nil, crud.Params{"id": "2"}, nil)
	c := endpoint.Call(ctx, crud.NewOptions().WithPage(10, 10), crud.Params{"id": "1"}, nil)

	assert.NotSame(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 3, endpoint.Resource().Cache().Len())
}

func TestEndpoint_RejectionStaysCached(t *testing.T) {
	t.Parallel()

	callErr := errors.New("connection refused")
	doer := &fakeDoer{respond: func(*crud.Request) (*crud.Response, error) {
		return nil, callErr
	}}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "/item/:id", Cachable: true})
	ctx := context.Background()

	first := endpoint.Call(ctx, nil, crud.Params{"id": "1"}, nil)
	_, err := waitResult(t, first)
	require.ErrorIs(t, err, callErr)
	assert.Contains(t, err.Error(), "calling item.get")

	second := endpoint.Call(ctx, nil, crud.Params{"id": "1"}, nil)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), doer.calls.Load())

	assert.Equal(t, 1, endpoint.ClearCache())

	_, err = waitResult(t, endpoint.Call(ctx, nil, crud.Params{"id": "1"}, nil))
	require.Error(t, err)
	assert.Equal(t, int32(2), doer.calls.Load())
}

func TestEndpoint_EvictOnError(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{respond: func(req *crud.Request) (*crud.Response, error) {
		respErr := crud.NewResponseError(req.Method, req.Path, http.StatusNotFound, []byte(`{"message":"missing"}`))

		return &crud.Response{StatusCode: http.StatusNotFound, Error: respErr}, respErr
	}}
	endpoint := newTestEndpoint(t, doer,
		crud.EndpointDescriptor{Route: "/item/:id", Cachable: true},
		crud.WithEvictOnError(true),
	)

	_, err := waitResult(t, endpoint.Call(context.Background(), nil, crud.Params{"id": "1"}, nil))
	require.Error(t, err)
	assert.True(t, crud.IsNotFound(err))

	assert.Equal(t, 0, endpoint.Resource().Cache().Len(), "entry removed before the result settles")

	_, err = waitResult(t, endpoint.Call(context.Background(), nil, crud.Params{"id": "1"}, nil))
	require.Error(t, err)
	assert.Equal(t, int32(2), doer.calls.Load())
}

func TestEndpoint_NilBodySharesEmptyBodyEntry(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{respond: jsonResponse(`{"guid":"7"}`)}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "/item/:guid", Cachable: true})

	first := endpoint.Call(context.Background(), nil, crud.Params{"guid": "7"}, nil)
	second := endpoint.Call(context.Background(), nil, crud.Params{"guid": "7"}, map[string]any{})

	assert.Same(t, first, second)

	_, err := waitResult(t, second)
	require.NoError(t, err)
	assert.Equal(t, int32(1), doer.calls.Load())
	assert.Equal(t, 1, endpoint.Resource().Cache().Len())
}

func TestEndpoint_NilResponseRejects(t *testing.T) {
	t.Parallel()

	doer := crud.DoerFunc(func(context.Context, *crud.Request) (*crud.Response, error) {
		return nil, nil
	})
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "/item/:guid", Cachable: true})

	_, err := waitResult(t, endpoint.Call(context.Background(), nil, crud.Params{"guid": "1"}, nil))
	require.ErrorIs(t, err, crud.ErrNoResponse)
}

func TestEndpoint_RequestShape(t *testing.T) {
	t.Parallel()

	t.Run("leftover parameters go to the body for post", func(t *testing.T) {
		t.Parallel()

		doer := &fakeDoer{}
		endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "user/:guid/password", Method: crud.MethodPost})

		_, err := waitResult(t, endpoint.Call(context.Background(), nil, crud.Params{"guid": "u1", "password": "secret"}, nil))
		require.NoError(t, err)

		req := doer.last(t)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "user/u1/password", req.Path)
		assert.Equal(t, map[string]string{"password": "secret"}, req.Body)
		assert.Empty(t, req.Query)
		assert.Equal(t, "item", req.Metadata["resource"])
		assert.Equal(t, "get", req.Metadata["endpoint"])
	})

	t.Run("explicit body wins over leftover parameters", func(t *testing.T) {
		t.Parallel()

		doer := &fakeDoer{}
		endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "item/:guid", Method: crud.MethodPut})
		body := map[string]any{"name": "new"}

		_, err := waitResult(t, endpoint.Call(context.Background(), nil, crud.Params{"guid": "i1", "extra": "x"}, body))
		require.NoError(t, err)

		req := doer.last(t)
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, body, req.Body)
		assert.Equal(t, "x", req.Query.Get("extra"))
	})

	t.Run("leftover parameters go to the query for get", func(t *testing.T) {
		t.Parallel()

		doer := &fakeDoer{}
		endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{
			Route:       "category/autocomplete",
			Paginatable: true,
			Sortable:    true,
			Filterable:  true,
		})

		opts := crud.NewOptions().WithPage(0, 10).WithSort("name", "asc").WithFilter("type", "leaf")

		_, err := waitResult(t, endpoint.Call(context.Background(), opts, crud.Params{"term": "ca"}, nil))
		require.NoError(t, err)

		req := doer.last(t)
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Nil(t, req.Body)
		assert.Equal(t, "ca", req.Query.Get("term"))
		assert.Equal(t, "10", req.Query.Get(crud.QueryLimit))
		assert.False(t, req.Query.Has(crud.QueryOffset))
		assert.Equal(t, "name", req.Query.Get(crud.QuerySortBy))
		assert.Equal(t, "asc", req.Query.Get(crud.QueryOrder))
		assert.Equal(t, "leaf", req.Query.Get("filters[type]"))
	})

	t.Run("disabled capabilities ignore options", func(t *testing.T) {
		t.Parallel()

		doer := &fakeDoer{}
		endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "item"})

		opts := crud.NewOptions().WithPage(5, 10).WithSort("name", "asc").WithFilter("type", "leaf")

		_, err := waitResult(t, endpoint.Call(context.Background(), opts, nil, nil))
		require.NoError(t, err)

		assert.Empty(t, doer.last(t).Query)
	})

	t.Run("caller parameters are not modified", func(t *testing.T) {
		t.Parallel()

		doer := &fakeDoer{}
		endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "item/:guid"})
		params := crud.Params{"guid": "g"}

		_, err := waitResult(t, endpoint.Call(context.Background(), nil, params, nil))
		require.NoError(t, err)

		assert.Equal(t, crud.Params{"guid": "g"}, params)
	})
}

func TestEndpoint_Pagination(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{respond: jsonResponse(`{"items":[{"guid":"a"},{"guid":"b"}],"offset":10,"limit":2,"total":12}`)}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "item", Paginatable: true})

	data, err := waitResult(t, endpoint.Call(context.Background(), nil, nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"guid":"a"},{"guid":"b"}],"pagination":{"offset":10,"limit":2,"total":12}}`, string(data))

	page, err := crud.FetchPage[map[string]string](context.Background(), endpoint, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "b", page.Items[1]["guid"])
	assert.Equal(t, crud.Pagination{Offset: 10, Limit: 2, Total: 12}, page.Pagination)
}

func TestEndpoint_InvalidPage(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{respond: jsonResponse(`[1,2,3]`)}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "item", Paginatable: true})

	_, err := waitResult(t, endpoint.Call(context.Background(), nil, nil, nil))
	require.ErrorIs(t, err, crud.ErrInvalidPage)
}

func TestEndpoint_EmptyBodyIsNull(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{respond: func(*crud.Request) (*crud.Response, error) {
		return &crud.Response{StatusCode: http.StatusNoContent}, nil
	}}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "item/:guid", Method: crud.MethodDelete})

	data, err := waitResult(t, endpoint.Call(context.Background(), nil, crud.Params{"guid": "g"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
	assert.Equal(t, http.MethodDelete, doer.last(t).Method)
}

func TestEndpoint_CallerContextDoesNotCancel(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{gate: make(chan struct{})}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "item", Cachable: true})

	ctx, cancel := context.WithCancel(context.Background())
	result := endpoint.Call(ctx, nil, nil, nil)
	cancel()

	_, err := result.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(doer.gate)

	_, err = waitResult(t, result)
	require.NoError(t, err)
}

func TestFetch(t *testing.T) {
	t.Parallel()

	type item struct {
		GUID string `json:"guid"`
		Name string `json:"name"`
	}

	doer := &fakeDoer{respond: jsonResponse(`{"guid":"g1","name":"lamp"}`)}
	endpoint := newTestEndpoint(t, doer, crud.EndpointDescriptor{Route: "item/:guid"})

	got, err := crud.Fetch[item](context.Background(), endpoint, nil, crud.Params{"guid": "g1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, item{GUID: "g1", Name: "lamp"}, got)
}
