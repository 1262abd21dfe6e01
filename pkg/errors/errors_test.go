package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesWrappedErrors(t *testing.T) {
	base := OutputsUnavailable("dev")
	wrapped := fmt.Errorf("resolving env: %w", base)

	assert.True(t, Is(wrapped, ErrCodeOutputsUnavailable))
	assert.False(t, Is(wrapped, ErrCodeUnknownOutput))
	assert.False(t, Is(fmt.Errorf("plain"), ErrCodeOutputsUnavailable))
}

func TestProvisioningError_CarriesCause(t *testing.T) {
	cause := fmt.Errorf("exit status 255")
	err := ProvisioningError("dev", "apply", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dev")
	assert.Contains(t, err.Error(), "apply")
	assert.Contains(t, err.Error(), "exit status 255")
}
