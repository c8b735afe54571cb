package session

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Callback
	}{
		{
			name: "query params",
			raw:  "https://app/entry?code=abc&state=xyz",
			want: Callback{Code: "abc", State: "xyz"},
		},
		{
			name: "fragment params",
			raw:  "https://app/entry#code=abc&state=xyz",
			want: Callback{Code: "abc", State: "xyz"},
		},
		{
			name: "query wins per parameter",
			raw:  "https://app/entry?code=fromquery#code=fromfragment&state=xyz",
			want: Callback{Code: "fromquery", State: "xyz"},
		},
		{
			name: "error params",
			raw:  "https://app/entry?error=access_denied&error_description=User+cancelled",
			want: Callback{ErrorCode: "access_denied", ErrorDescription: "User cancelled"},
		},
		{
			name: "hyphenated request id",
			raw:  "https://app/entry?client-request-id=req-1",
			want: Callback{RequestID: "req-1"},
		},
		{
			name: "underscore request id fallback",
			raw:  "https://app/entry?client_request_id=req-2",
			want: Callback{RequestID: "req-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCallback(mustParse(t, tt.raw)))
		})
	}
}

func TestCallbackHasCodePayload(t *testing.T) {
	assert.True(t, Callback{Code: "c", State: "s"}.HasCodePayload())
	assert.False(t, Callback{Code: "c"}.HasCodePayload())
	assert.False(t, Callback{State: "s"}.HasCodePayload())
	assert.False(t, Callback{}.HasCodePayload())
}

func TestCallbackProviderError(t *testing.T) {
	t.Run("no error params", func(t *testing.T) {
		assert.Nil(t, Callback{Code: "c", State: "s"}.ProviderError())
		assert.Nil(t, Callback{}.ProviderError())
	})

	t.Run("request id with valid payload is not an error", func(t *testing.T) {
		cb := Callback{Code: "c", State: "s", RequestID: "req-1"}
		assert.Nil(t, cb.ProviderError())
	})

	t.Run("request id without payload is an error", func(t *testing.T) {
		err := Callback{RequestID: "req-1"}.ProviderError()
		require.NotNil(t, err)
		assert.Equal(t, "Sign-in failed at identity provider. Request ID: req-1", err.Error())
	})

	t.Run("error code present", func(t *testing.T) {
		err := Callback{ErrorCode: "access_denied"}.ProviderError()
		require.NotNil(t, err)
		assert.Equal(t, "Sign-in failed (access_denied).", err.Error())
	})
}

func TestProviderErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  ProviderError
		want string
	}{
		{
			name: "all parts",
			err:  ProviderError{Code: "access_denied", Description: "User declined consent.", RequestID: "req-9"},
			want: "Sign-in failed (access_denied). User declined consent. Request ID: req-9",
		},
		{
			name: "description only",
			err:  ProviderError{Description: "Token expired."},
			want: "Token expired.",
		},
		{
			name: "nothing at all",
			err:  ProviderError{},
			want: "Sign-in failed at identity provider.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
