package utils

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidOrigin(t *testing.T) {
	cases := map[string]bool{
		"*":                          true,
		"https://acme.example":       true,
		"http://localhost:3000":      true,
		"https://acme.example/":      true,
		"https://acme.example/chat":  false,
		"ftp://acme.example":         false,
		"acme.example":               false,
		"":                           false,
		"https://user@acme.example":  false,
		"https://acme.example?x=1":   false,
		"https://acme.example'; x()": false,
	}
	for origin, want := range cases {
		assert.Equal(t, want, IsValidOrigin(origin), origin)
	}
}

func TestNormalizeOrigin(t *testing.T) {
	assert.Equal(t, "https://acme.example", NormalizeOrigin(" https://acme.example/ "))
	assert.Equal(t, "*", NormalizeOrigin("*"))
}

func TestOriginValidationTag(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterValidations(v))

	type req struct {
		URL string `validate:"required,origin"`
	}
	assert.NoError(t, v.Struct(req{URL: "https://acme.example/"}))

	err := v.Struct(req{URL: "not a url"})
	require.Error(t, err)
	assert.Contains(t, FormatValidationError(err), "absolute http(s) URL")
}
