package apperr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCode(t *testing.T) {
	inner := NotFoundf("grant %s not found", "g1")
	err := Wrap(fmt.Errorf("while revoking: %w", inner), "revoke failed")

	assert.Equal(t, NotFound, CodeOf(err))
	assert.True(t, Is(err, NotFound))
}

func TestWrapPlainErrorIsTransient(t *testing.T) {
	err := Wrap(errors.New("connection reset"), "query failed")

	require.Error(t, err)
	assert.Equal(t, Transient, CodeOf(err))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestIneligibleCarriesNextTime(t *testing.T) {
	next := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := Ineligible(next)

	var ae *Error
	require.True(t, errors.As(error(err), &ae))
	require.NotNil(t, ae.NextEligibleAt)
	assert.True(t, ae.NextEligibleAt.Equal(next))
	assert.Equal(t, NotEligible, ae.Code)
}
