package codec

import (
	"encoding/json"
	"strings"
)

// Format selects the wire encoding of a response.
type Format int

const (
	FormatJSON Format = iota
	FormatBinary
)

const (
	ContentTypeJSON   = "application/json"
	ContentTypeBinary = "application/x-protobuf"
)

// binaryMediaTypes are the Accept media types that select the compact
// binary encoding. Anything else falls back to JSON.
var binaryMediaTypes = []string{"application/x-protobuf", "application/protobuf"}

// Negotiate picks the response format from an Accept header value.
// JSON is the default; an absent or malformed header never fails.
func Negotiate(accept string) Format {
	for _, v := range strings.Split(accept, ",") {
		mediatype := strings.TrimSpace(strings.SplitN(v, ";", 2)[0])
		for _, bt := range binaryMediaTypes {
			if strings.EqualFold(mediatype, bt) {
				return FormatBinary
			}
		}
	}
	return FormatJSON
}

func (f Format) ContentType() string {
	if f == FormatBinary {
		return ContentTypeBinary
	}
	return ContentTypeJSON
}

// ErrorBody is the negotiated error payload.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Marshal encodes v in the requested format. Types without a binary
// mapping fall back to JSON, reported through the returned content
// type, so a negotiated response can always be produced.
func Marshal(f Format, v any) (body []byte, contentType string, err error) {
	if f == FormatBinary {
		if b, ok := appendBinary(nil, v); ok {
			return b, ContentTypeBinary, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	return b, ContentTypeJSON, nil
}
