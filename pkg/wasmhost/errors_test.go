package wasmhost

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindsRoundTripThroughErrorsAs(t *testing.T) {
	cause := errors.New("disk on fire")
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{NewComponentNotFound("lookup", "comp-1"), ComponentNotFound},
		{NewLoadFailed("load", "comp-1", cause), LoadFailed},
		{NewExecutionFailed("invoke", "comp-1", ReasonFuelExhausted, cause), ExecutionFailed},
		{NewCapabilityDenied("check", "comp-1", "/etc/passwd", "read"), CapabilityDenied},
		{NewAuditLogError("audit", "comp-1", cause), AuditLogError},
	}
	for _, c := range cases {
		var e *Error
		require.ErrorAs(t, c.err, &e, c.err.Error())
		assert.Equal(t, c.kind, e.Kind)
		assert.Equal(t, ComponentID("comp-1"), e.ID)
	}
}

func TestExecutionFailedCarriesReasonAndCause(t *testing.T) {
	cause := errors.New("out of gas")
	err := NewExecutionFailed("invoke", "comp-1", ReasonFuelExhausted, cause)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, string(ReasonFuelExhausted), e.Message)
	assert.ErrorIs(t, err, cause)
}

func TestCapabilityDeniedNamesResourceAndPermission(t *testing.T) {
	err := NewCapabilityDenied("check", "comp-1", "/secret", "write")
	assert.Contains(t, err.Error(), "/secret")
	assert.Contains(t, err.Error(), "write")
}
