package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorStatuses(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, UnknownChat("c1").Status)
	assert.Equal(t, http.StatusForbidden, NotMember("u1", "c1").Status)
	assert.Equal(t, http.StatusNotFound, UnknownMessage("m1").Status)
	assert.Equal(t, http.StatusForbidden, NotRecipient("u1", "m1").Status)
	assert.Equal(t, http.StatusUnprocessableEntity, ValidationError("body", "empty").Status)
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := UnknownChat("c1")
	assert.True(t, errors.Is(err, UnknownChat("other-chat")))
	assert.False(t, errors.Is(err, UnknownMessage("m1")))
}

func TestAsAPIErrorThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading chat: %w", NotMember("u1", "c1"))

	apiErr, ok := AsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrNotMember, apiErr.Code)

	_, ok = AsAPIError(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorString(t *testing.T) {
	assert.Contains(t, UnknownChat("c1").Error(), "UNKNOWN_CHAT")
	assert.Contains(t, ValidationError("body", "must not be empty").Error(), "field: body")
}

func TestStatusCodeFallback(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("SOMETHING_NEW").StatusCode())
	assert.Equal(t, http.StatusTooManyRequests, ErrRateLimited.StatusCode())
}
