package errcode

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(20, 1, "member", "member not found", http.StatusNotFound)

	assert.Equal(t, 200001, err.Code())
	assert.Equal(t, "member", err.Module())
	assert.Equal(t, "member not found", err.Message())
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrStoreUnavailable.Wrap(cause)

	assert.Equal(t, "record store unavailable: connection refused", err.Error())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestError_IsByCode(t *testing.T) {
	// Clones with replaced messages still match the sentinel by code.
	err := ErrMemberNotFound.WithMsgf("member %s not found", "abc")

	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "member abc not found", err.Message())
	// Original sentinel is untouched.
	assert.Equal(t, "member not found", ErrMemberNotFound.Message())
}

func TestError_Wrapf(t *testing.T) {
	cause := errors.New("bad cursor")
	err := ErrInvalidPage.Wrapf(cause, "page %d out of range", 99)

	assert.Equal(t, "page 99 out of range: bad cursor", err.Error())
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestFromError(t *testing.T) {
	assert.Equal(t, ErrMemberNotFound.Code(), FromError(ErrMemberNotFound).Code())

	wrapped := ErrInvalidPage.Wrap(errors.New("x"))
	assert.Equal(t, ErrInvalidPage.Code(), FromError(wrapped).Code())

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code(), plain.Code())
	assert.Equal(t, http.StatusInternalServerError, plain.HTTPStatus())
}
