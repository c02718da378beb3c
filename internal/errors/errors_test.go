package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/sandplay/internal/errors"
)

func TestConstructors(t *testing.T) {
	nf := errors.NewNotFoundError("board", "b1")
	assert.Equal(t, http.StatusNotFound, nf.Status)
	assert.Equal(t, "board not found: b1", nf.Message)

	v := errors.NewValidationError("round", "must be >= 1")
	assert.Equal(t, errors.ErrCodeValidation, v.Code)
	assert.Equal(t, "VALIDATION_ERROR: validation failed for round: must be >= 1", v.Error())

	cause := stderrors.New("disk full")
	in := errors.NewInternalError(cause)
	assert.ErrorIs(t, in, cause)
	assert.Equal(t, "internal server error", in.Message)

	c := errors.NewConflictError(stderrors.New("question already answered"))
	assert.Equal(t, http.StatusConflict, c.Status)
	assert.Equal(t, "question already answered", c.Message)

	u := errors.NewUnavailableError("analysis service unavailable", cause)
	assert.Equal(t, http.StatusServiceUnavailable, u.Status)
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("saving: %w", errors.NewBadRequestError("bad"))
	appErr, ok := errors.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeBadRequest, appErr.Code)

	_, ok = errors.As(stderrors.New("plain"))
	assert.False(t, ok)
}
