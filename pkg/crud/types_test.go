package crud_test

import (
	"testing"

	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected crud.Method
	}{
		{"", crud.MethodGet},
		{"get", crud.MethodGet},
		{"POST", crud.MethodPost},
		{" Put ", crud.MethodPut},
		{"delete", crud.MethodDelete},
	}

	for _, testCase := range tests {
		method, err := crud.ParseMethod(testCase.input)
		require.NoError(t, err)
		assert.Equal(t, testCase.expected, method)
	}

	_, err := crud.ParseMethod("patch")
	require.ErrorIs(t, err, crud.ErrInvalidMethod)

	assert.Equal(t, "DELETE", crud.MethodDelete.HTTP())
}

func TestParams_Clone(t *testing.T) {
	t.Parallel()

	var nilParams crud.Params

	clone := nilParams.Clone()
	assert.NotNil(t, clone)
	assert.Empty(t, clone)

	params := crud.Params{"guid": "a"}
	clone = params.Clone()
	clone["guid"] = "b"

	assert.Equal(t, "a", params["guid"])
}
