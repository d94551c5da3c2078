package gemini

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBillingError(t *testing.T) {
	assert.True(t, IsBillingError(errors.New("insufficient quota for project")))
	assert.True(t, IsBillingError(errors.New("Quota exceeded")))
	assert.True(t, IsBillingError(errors.New("billing account is not active")))
	assert.False(t, IsBillingError(errors.New("deadline exceeded")))
	assert.False(t, IsBillingError(nil))
}

func TestIs429Error(t *testing.T) {
	assert.True(t, is429Error(errors.New("googleapi: Error 429: rate limited")))
	assert.False(t, is429Error(errors.New("500 internal")))
	assert.False(t, is429Error(nil))
}
