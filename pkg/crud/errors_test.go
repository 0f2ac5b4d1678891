package crud_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/stretchr/testify/assert"
)

func TestNewResponseError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		status   int
		expected string
	}{
		{
			name:     "message field",
			body:     `{"message":"User not found"}`,
			status:   http.StatusNotFound,
			expected: "GET /user/u1: User not found (status: 404)",
		},
		{
			name:     "error field",
			body:     `{"error":"invalid_token"}`,
			status:   http.StatusUnauthorized,
			expected: "GET /user/u1: invalid_token (status: 401)",
		},
		{
			name:     "non JSON body",
			body:     `<html>oops</html>`,
			status:   http.StatusBadGateway,
			expected: "GET /user/u1: Bad Gateway (status: 502)",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := crud.NewResponseError(http.MethodGet, "/user/u1", testCase.status, []byte(testCase.body))
			assert.Equal(t, testCase.expected, err.Error())
			assert.Equal(t, []byte(testCase.body), err.Body)
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("calling user.get: %w", crud.NewResponseError("GET", "/user", http.StatusNotFound, nil))
	unauthorized := crud.NewResponseError("GET", "/user", http.StatusUnauthorized, nil)
	forbidden := crud.NewResponseError("GET", "/user", http.StatusForbidden, nil)

	assert.True(t, crud.IsNotFound(notFound))
	assert.False(t, crud.IsNotFound(unauthorized))
	assert.True(t, crud.IsUnauthorized(unauthorized))
	assert.True(t, crud.IsForbidden(forbidden))
	assert.False(t, crud.IsForbidden(errors.New("plain")))
}
