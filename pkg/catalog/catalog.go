// Package catalog registers the object, category and user resources and
// looks entities up by type tag.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/fivetwenty-io/restcrud/pkg/resource"
)

// Static errors for err113 compliance.
var (
	ErrUnknownEntityType = errors.New("unknown entity type")
	ErrEmptyGUID         = errors.New("entity guid is required")
)

// Getter fetches one entity by guid.
type Getter func(ctx context.Context, guid string) (json.RawMessage, error)

// Catalog gives typed access to the entity resources of a registry.
type Catalog struct {
	registry *crud.Registry
	getters  map[string]Getter
}

// Register adds the entity resources to reg.
func Register(reg *crud.Registry) (*Catalog, error) {
	err := reg.RegisterSchema(Schema())
	if err != nil {
		return nil, fmt.Errorf("registering entity resources: %w", err)
	}

	return FromRegistry(reg), nil
}

// FromRegistry builds a catalog over entity resources that are already
// registered, e.g. by schema discovery. Every resource with a get
// endpoint is addressable by its name.
func FromRegistry(reg *crud.Registry) *Catalog {
	c := &Catalog{
		registry: reg,
		getters:  make(map[string]Getter),
	}

	for _, name := range reg.Resources() {
		e, err := reg.Endpoint(name, EndpointGet)
		if err != nil {
			continue
		}

		c.getters[name] = getter(e)
	}

	return c
}

func getter(e *crud.Endpoint) Getter {
	return func(ctx context.Context, guid string) (json.RawMessage, error) {
		if guid == "" {
			return nil, ErrEmptyGUID
		}

		return e.Do(ctx, nil, crud.Params{"guid": guid}, nil)
	}
}

// Registry returns the underlying registry.
func (c *Catalog) Registry() *crud.Registry {
	return c.registry
}

// Types returns the addressable type tags in sorted order.
func (c *Catalog) Types() []string {
	types := make([]string, 0, len(c.getters))
	for name := range c.getters {
		types = append(types, name)
	}

	slices.Sort(types)

	return types
}

// Get fetches the entity of the given type. Type tags are matched case
// insensitively ("Object" and "object" are the same).
func (c *Catalog) Get(ctx context.Context, typeTag, guid string) (json.RawMessage, error) {
	get, ok := c.getters[strings.ToLower(typeTag)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, typeTag)
	}

	return get(ctx, guid)
}

// GetAs fetches an entity and decodes it into T.
func GetAs[T any](ctx context.Context, c *Catalog, typeTag, guid string) (T, error) {
	var out T

	data, err := c.Get(ctx, typeTag, guid)
	if err != nil {
		return out, err
	}

	err = json.Unmarshal(data, &out)
	if err != nil {
		return out, fmt.Errorf("decoding %s %s: %w", typeTag, guid, err)
	}

	return out, nil
}

// Resolve returns entity when it is already loaded and fetches it by guid
// otherwise.
func (c *Catalog) Resolve(ctx context.Context, typeTag string, entity json.RawMessage, guid string) (json.RawMessage, error) {
	if len(entity) > 0 && entity[0] == '{' {
		return entity, nil
	}

	return c.Get(ctx, typeTag, guid)
}

// User fetches a user.
func (c *Catalog) User(ctx context.Context, guid string) (*resource.User, error) {
	user, err := GetAs[resource.User](ctx, c, ResourceUser, guid)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Image fetches an object carrying an image.
func (c *Catalog) Image(ctx context.Context, guid string) (*resource.Image, error) {
	img, err := GetAs[resource.Image](ctx, c, ResourceObject, guid)
	if err != nil {
		return nil, err
	}

	return &img, nil
}

// HasRole reports whether the role bits are all set in roles.
func HasRole(roles, role int) bool {
	return roles&role == role
}
