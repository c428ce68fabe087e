package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeNotFound, "opportunity not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeForbidden))
	})

	t.Run("matches wrapped domain code", func(t *testing.T) {
		inner := New(CodeProfileIncomplete, "profile required")
		outer := Wrap(inner, CodeNotFound, "profile has not been created yet")
		assert.True(t, HasCode(outer, CodeNotFound))
		assert.True(t, HasCode(outer, CodeProfileIncomplete))
	})

	t.Run("sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeAlreadyEnrolled, "already enrolled"))
		assert.True(t, HasCode(err, CodeAlreadyEnrolled))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotEligible, CodeOf(New(CodeNotEligible, "not eligible")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("db down")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(errors.New("connection reset"), CodeInternal, "failed to load opportunity")
	assert.Equal(t, "failed to load opportunity: connection reset", err.Error())
	assert.Equal(t, "failed to load opportunity", MessageOf(err))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeForbidden:         http.StatusForbidden,
		CodeProfileIncomplete: http.StatusBadRequest,
		CodeNotFound:          http.StatusNotFound,
		CodeAlreadyEnrolled:   http.StatusBadRequest,
		CodeProfileExists:     http.StatusBadRequest,
		CodeInvalidTimeRange:  http.StatusBadRequest,
		CodeNotEligible:       http.StatusBadRequest,
		CodeInvalidState:      http.StatusConflict,
		CodeTimeout:           http.StatusGatewayTimeout,
		CodeInternal:          http.StatusInternalServerError,
		Code("unknown"):       http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), "code %s", code)
	}
}
