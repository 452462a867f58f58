package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusAndSafeMessage(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Status(BadRequest("bad prompt")))
	assert.Equal(t, "bad prompt", SafeMessage(BadRequest("bad prompt")))

	assert.Equal(t, http.StatusNotFound, Status(NotFound(FileNotFoundMessage)))
	assert.Equal(t, FileNotFoundMessage, SafeMessage(NotFound(FileNotFoundMessage)))

	boom := errors.New("disk exploded")
	internal := Internal(boom)
	assert.Equal(t, http.StatusInternalServerError, Status(internal))
	assert.Equal(t, SystemErrorMessage, SafeMessage(internal))
	assert.NotContains(t, SafeMessage(internal), "disk")
}

func TestPlainErrorsDefaultToInternal(t *testing.T) {
	err := errors.New("something raw")
	assert.Equal(t, http.StatusInternalServerError, Status(err))
	assert.Equal(t, SystemErrorMessage, SafeMessage(err))
}

func TestWrappedAppErrorIsResolved(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound(FileNotFoundMessage))
	assert.Equal(t, http.StatusNotFound, Status(wrapped))
	assert.Equal(t, FileNotFoundMessage, SafeMessage(wrapped))
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := Internal(fmt.Errorf("layer: %w", cause))
	assert.True(t, errors.Is(err, cause))
}
