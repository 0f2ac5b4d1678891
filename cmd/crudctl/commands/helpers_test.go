package commands

import (
	"encoding/json"
	"testing"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	t.Parallel()

	params, err := parseParams([]string{"guid=42", "query=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, crud.Params{"guid": "42", "query": "a=b", "empty": ""}, params)

	_, err = parseParams([]string{"=value"})
	require.ErrorIs(t, err, constants.ErrInvalidParam)
}

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	headers, err := parseHeaders([]string{"X-Tenant: acme", "Authorization:Bearer x:y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Tenant": "acme", "Authorization": "Bearer x:y"}, headers)
}

func TestParseBody(t *testing.T) {
	t.Parallel()

	body, err := parseBody("")
	require.NoError(t, err)
	assert.Nil(t, body)

	body, err = parseBody(`{"name":"n"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"n"}`, string(body.(json.RawMessage)))
}

func TestMaskSecrets(t *testing.T) {
	t.Parallel()

	masked := maskSecrets(map[string]any{
		"api":  map[string]any{"url": "https://api.example.com"},
		"auth": map[string]any{"token": "t", "client_secret": "s", "client_id": "id", "password": ""},
	})

	auth := masked["auth"].(map[string]any)
	assert.Equal(t, constants.MaskedSecret, auth["token"])
	assert.Equal(t, constants.MaskedSecret, auth["client_secret"])
	assert.Equal(t, "id", auth["client_id"])
	assert.Empty(t, auth["password"])
	assert.Equal(t, "https://api.example.com", masked["api"].(map[string]any)["url"])
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	assert.Equal(t, constants.NotAvailable, capabilities(crud.EndpointDescriptor{Route: "x"}))
	assert.Equal(t, "Sortable, Cachable", capabilities(crud.EndpointDescriptor{Route: "x", Sortable: true, Cachable: true}))
}
