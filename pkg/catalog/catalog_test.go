package catalog_test

import (
	"context"
	"sync"
	"testing"

	"github.com/fivetwenty-io/restcrud/pkg/catalog"
	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDoer struct {
	mu       sync.Mutex
	requests []*crud.Request
	bodies   map[string]string
}

func (d *recordingDoer) Do(_ context.Context, req *crud.Request) (*crud.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, req)

	body, ok := d.bodies[req.Path]
	if !ok {
		return &crud.Response{StatusCode: 404}, crud.NewResponseError(req.Method, req.Path, 404, nil)
	}

	return &crud.Response{StatusCode: 200, Body: []byte(body)}, nil
}

func (d *recordingDoer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.requests)
}

func newCatalog(t *testing.T, bodies map[string]string) (*catalog.Catalog, *recordingDoer) {
	t.Helper()

	doer := &recordingDoer{bodies: bodies}

	reg, err := crud.NewRegistry(doer)
	require.NoError(t, err)

	c, err := catalog.Register(reg)
	require.NoError(t, err)

	return c, doer
}

func TestRegister(t *testing.T) {
	t.Parallel()

	c, _ := newCatalog(t, nil)
	reg := c.Registry()

	assert.Equal(t, []string{"category", "object", "user"}, reg.Resources())
	assert.Equal(t, []string{"category", "object", "user"}, c.Types())

	autocomplete, err := reg.Endpoint(catalog.ResourceCategory, "autocomplete")
	require.NoError(t, err)
	assert.Equal(t, crud.EndpointDescriptor{
		Route:       "category/autocomplete/:query",
		Method:      crud.MethodGet,
		Cachable:    true,
		Paginatable: true,
	}, autocomplete.Descriptor())

	search, err := reg.Endpoint(catalog.ResourceObject, catalog.EndpointSearch)
	require.NoError(t, err)
	assert.Equal(t, crud.MethodPost, search.Descriptor().Method)
	assert.True(t, search.Descriptor().Cachable)
	assert.False(t, search.Descriptor().Filterable)

	activate, err := reg.Endpoint(catalog.ResourceUser, catalog.EndpointActivate)
	require.NoError(t, err)
	assert.Equal(t, crud.MethodGet, activate.Descriptor().Method)
	assert.False(t, activate.Descriptor().Cachable)

	user, ok := reg.Resource(catalog.ResourceUser)
	require.True(t, ok)
	assert.Contains(t, user.Endpoints(), "checkEmailAvailability")
	assert.Contains(t, user.Endpoints(), "deleteProfilePicture")

	_, err = catalog.Register(reg)
	require.ErrorIs(t, err, crud.ErrResourceAlreadyRegistered)
}

func TestCatalog_Get(t *testing.T) {
	t.Parallel()

	c, doer := newCatalog(t, map[string]string{
		"object/o-1": `{"guid":"o-1","title":"Lamp"}`,
	})

	ctx := context.Background()

	data, err := c.Get(ctx, "Object", "o-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"guid":"o-1","title":"Lamp"}`, string(data))

	_, err = c.Get(ctx, "object", "o-1")
	require.NoError(t, err)
	assert.Equal(t, 1, doer.count(), "get is cachable")

	_, err = c.Get(ctx, "widget", "w-1")
	require.ErrorIs(t, err, catalog.ErrUnknownEntityType)

	_, err = c.Get(ctx, "object", "")
	require.ErrorIs(t, err, catalog.ErrEmptyGUID)

	_, err = c.Get(ctx, "object", "missing")
	require.Error(t, err)
	assert.True(t, crud.IsNotFound(err))
}

func TestCatalog_Resolve(t *testing.T) {
	t.Parallel()

	c, doer := newCatalog(t, map[string]string{
		"category/c-1": `{"guid":"c-1"}`,
	})

	loaded, err := c.Resolve(context.Background(), "category", []byte(`{"guid":"inline"}`), "c-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"guid":"inline"}`, string(loaded))
	assert.Equal(t, 0, doer.count())

	fetched, err := c.Resolve(context.Background(), "category", nil, "c-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"guid":"c-1"}`, string(fetched))
}

func TestCatalog_TypedGetters(t *testing.T) {
	t.Parallel()

	c, _ := newCatalog(t, map[string]string{
		"user/u-1":   `{"guid":"u-1","profilePicture":{"original":"https://cdn/u-1.png","sizes":["50x50"]}}`,
		"object/i-1": `{"guid":"i-1","mimeType":"image/png","fileInformation":{"original":"https://cdn/i-1.png"}}`,
	})

	user, err := c.User(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.GUID)
	require.NotNil(t, user.ProfilePicture)
	assert.Equal(t, []string{"50x50"}, user.ProfilePicture.Sizes)

	img, err := c.Image(context.Background(), "i-1")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, "https://cdn/i-1.png", img.FileInformation.Original)
}

func TestFromRegistry_DiscoveredResources(t *testing.T) {
	t.Parallel()

	reg, err := crud.NewRegistry(&recordingDoer{})
	require.NoError(t, err)

	_, err = reg.RegisterResource("tag", map[string]crud.EndpointDescriptor{
		"get":    {Route: "tag/:guid", Cachable: true},
		"getAll": {Route: "tag"},
	})
	require.NoError(t, err)

	_, err = reg.RegisterResource("health", map[string]crud.EndpointDescriptor{
		"ping": {Route: "ping"},
	})
	require.NoError(t, err)

	c := catalog.FromRegistry(reg)
	assert.Equal(t, []string{"tag"}, c.Types())
}

func TestHasRole(t *testing.T) {
	t.Parallel()

	assert.True(t, catalog.HasRole(0b111, 0b010))
	assert.True(t, catalog.HasRole(0b110, 0b110))
	assert.False(t, catalog.HasRole(0b100, 0b110))
	assert.True(t, catalog.HasRole(0, 0))
}
