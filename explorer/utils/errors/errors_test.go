package custom_errors

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapThroughWrap(t *testing.T) {
	err := errors.Wrap(New400Error("bad lens"), "explore")
	e, ok := Unwrap[IExplorerError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, e.GetCode())
	assert.Equal(t, http.StatusBadRequest, Code(err))
}

func TestNotFoundIsCoded(t *testing.T) {
	err := errors.Wrap(ErrNotFound, "list")
	assert.Equal(t, http.StatusNotFound, Code(err))
	assert.Equal(t, "list: not found", err.Error())
}

func TestNew502KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := New502Error(cause)
	assert.Equal(t, http.StatusBadGateway, Code(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, http.StatusInternalServerError, Code(cause))
}
