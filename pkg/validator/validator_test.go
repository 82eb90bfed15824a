package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commandBody struct {
	Command string `json:"command" validate:"required,notblank,max=20"`
	Limit   int    `json:"limit" validate:"gte=0,lte=100"`
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(commandBody{Command: "show my list", Limit: 10}))
}

func TestValidate_MissingRequired_UsesJSONName(t *testing.T) {
	err := Validate(commandBody{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["command"])
}

func TestValidate_Blank(t *testing.T) {
	err := Validate(commandBody{Command: "   \t"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must not be blank", valErr.Fields()["command"])
	assert.Contains(t, valErr.Error(), "field 'command' must not be blank")
}

func TestValidate_TooLongAndOutOfRange(t *testing.T) {
	err := Validate(commandBody{Command: strings.Repeat("x", 21), Limit: 500})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be at most 20 characters", fields["command"])
	assert.Equal(t, "must be less than or equal to 100", fields["limit"])
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"command":"add sweater"}`))
		var body commandBody
		require.NoError(t, DecodeAndValidate(req, &body))
		assert.Equal(t, "add sweater", body.Command)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"command":`))
		var body commandBody
		err := DecodeAndValidate(req, &body)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode request body")
	})

	t.Run("fails validation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"command":" "}`))
		var body commandBody
		var valErr *ValidationError
		require.ErrorAs(t, DecodeAndValidate(req, &body), &valErr)
	})
}
