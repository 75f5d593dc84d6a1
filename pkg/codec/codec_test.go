package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		accept string
		want   Format
	}{
		{"", FormatJSON},
		{"application/json", FormatJSON},
		{"*/*", FormatJSON},
		{"application/x-protobuf", FormatBinary},
		{"application/protobuf", FormatBinary},
		{"Application/X-Protobuf", FormatBinary},
		{"text/html, application/x-protobuf;q=0.9", FormatBinary},
		{"application/x-protobufx", FormatJSON},
		{"garbage;;;", FormatJSON},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Negotiate(tt.accept), "accept=%q", tt.accept)
	}
}

func TestMarshal_json_default(t *testing.T) {
	r := require.New(t)
	b, ct, err := Marshal(FormatJSON, &ErrorBody{Error: "nope", Code: "NOT_FOUND"})
	r.NoError(err)
	r.Equal(ContentTypeJSON, ct)
	r.JSONEq(`{"error":"nope","code":"NOT_FOUND"}`, string(b))
}

func TestMarshal_binary_fallback(t *testing.T) {
	r := require.New(t)
	// A shape without a binary mapping must come back as JSON rather
	// than fail.
	b, ct, err := Marshal(FormatBinary, map[string]string{"status": "ok"})
	r.NoError(err)
	r.Equal(ContentTypeJSON, ct)
	r.JSONEq(`{"status":"ok"}`, string(b))
}
