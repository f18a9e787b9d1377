package http

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name      string
		err       ClientError
		errType   ErrorType
		retryable bool
		message   string
	}{
		{
			name:      "connection",
			err:       NewConnectionError("host:22", cause),
			errType:   TypeConnection,
			retryable: true,
			message:   "connection error: host:22: cause",
		},
		{
			name:      "connection_without_addr",
			err:       NewConnectionError("", cause),
			errType:   TypeConnection,
			retryable: true,
			message:   "connection error: cause",
		},
		{
			name:      "execution",
			err:       NewExecutionError(cause),
			errType:   TypeExecution,
			retryable: true,
			message:   "execution error: cause",
		},
		{
			name:      "malformed",
			err:       NewMalformedResponseError(cause, []byte("junk")),
			errType:   TypeMalformedResponse,
			retryable: true,
			message:   "malformed response: cause",
		},
		{
			name:      "validation",
			err:       NewValidationError("bad url", "url", cause),
			errType:   TypeValidation,
			retryable: false,
			message:   "validation error: bad url (field: url): cause",
		},
		{
			name:      "validation_minimal",
			err:       NewValidationError("bad", "", nil),
			errType:   TypeValidation,
			retryable: false,
			message:   "validation error: bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, tt.err.Type())
			assert.Equal(t, tt.retryable, tt.err.Retryable())
			assert.Equal(t, tt.message, tt.err.Error())
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.True(t, IsErrorType(tt.err, tt.errType))
			assert.Equal(t, string(tt.errType), errorType(tt.err))

			if tt.message != "validation error: bad" {
				assert.ErrorIs(t, tt.err, cause)
			}
		})
	}
}

func TestErrorHelpersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewExecutionError(errors.New("x")))

	assert.True(t, IsErrorType(wrapped, TypeExecution))
	assert.False(t, IsErrorType(wrapped, TypeConnection))
	assert.True(t, IsRetryable(wrapped))
	assert.Equal(t, "execution", errorType(wrapped))
}

func TestErrorHelpersOnPlainErrors(t *testing.T) {
	plain := errors.New("plain")

	assert.False(t, IsErrorType(nil, TypeConnection))
	assert.False(t, IsErrorType(plain, TypeConnection))
	assert.False(t, IsRetryable(plain))
	assert.False(t, IsRetryable(nil))
	assert.Equal(t, "", errorType(plain))
	assert.Equal(t, "", errorType(nil))
}

func TestMalformedResponseErrorTruncatesOutput(t *testing.T) {
	output := []byte(strings.Repeat("x", maxOutputSnippet*2))

	err := NewMalformedResponseError(errors.New("bad"), output)

	var malformed *MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
	assert.Len(t, malformed.Output, maxOutputSnippet)
}
