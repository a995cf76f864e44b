package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsCodeForErrorsIs(t *testing.T) {
	cloned := Clone(ErrRefreshInProgress, "refresh for @anna already running")
	assert.True(t, errors.Is(cloned, ErrRefreshInProgress))
	assert.False(t, errors.Is(cloned, ErrConflict))
	assert.Equal(t, http.StatusConflict, cloned.Status)
	assert.Equal(t, "refresh already in progress", ErrRefreshInProgress.Message)
}

func TestFromErrorWrapsPlainErrors(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, "internal server error: boom", appErr.Error())

	wrapped := fmt.Errorf("load: %w", Clone(ErrNotFound, "escrow not found"))
	assert.Equal(t, ErrNotFound.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}
