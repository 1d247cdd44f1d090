package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsKind(t *testing.T) {
	err := New(ValidationFailed, "session.DisplayToast", "title is required")

	assert.True(t, stderrors.Is(err, ValidationFailed))
	assert.False(t, stderrors.Is(err, SubmissionFailed))
	assert.Equal(t, "session.DisplayToast: validation failed: title is required", err.Error())
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("display: %w", Wrap(SubmissionFailed, "notify.Show", cause))

	assert.True(t, stderrors.Is(err, SubmissionFailed))
	assert.True(t, stderrors.Is(err, cause))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, SubmissionFailed, kind)
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(Timeout, "op", nil))
}

func TestKindOfUnclassified(t *testing.T) {
	_, ok := KindOf(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "missing field", MissingField.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
