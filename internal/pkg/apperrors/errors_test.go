package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("user")

	assert.True(t, IsNotFound(err))
	assert.Equal(t, "user: not found", err.Error())

	wrapped := fmt.Errorf("credit step failed: %w", err)
	assert.True(t, IsNotFound(wrapped))

	assert.False(t, IsNotFound(errors.New("user: not found")))
	assert.False(t, IsNotFound(nil))
}

func TestUpstream(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("list stored blobs", cause)

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "list stored blobs")
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, IsNotFound(err))
}
