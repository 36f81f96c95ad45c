package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, MetadataFor(CodeStateConflict).HTTPStatus)
	assert.Equal(t, http.StatusConflict, MetadataFor(CodeInsufficientStock).HTTPStatus)
	assert.Equal(t, http.StatusUnauthorized, MetadataFor(CodeInvalidSignature).HTTPStatus)
	assert.True(t, MetadataFor(CodeDependency).Retryable)
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(CodeDependency, cause, "dispatch payment")

	require.NotNil(t, err)
	assert.Equal(t, CodeDependency, err.Code())
	assert.ErrorIs(t, err, cause)
}

func TestAsUnwrapsNestedError(t *testing.T) {
	inner := New(CodeStateConflict, "order already confirmed")
	wrapped := fmt.Errorf("transition: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeStateConflict, typed.Code())
	assert.True(t, Is(wrapped, CodeStateConflict))
	assert.False(t, Is(wrapped, CodeNotFound))
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeConflict, fmt.Errorf("base"), "top")
	dump := Dump(err)

	assert.Equal(t, CodeConflict, dump.Code)
	assert.Len(t, dump.Chain, 2)
}
