package req

import (
	"mime"
	"net/http"
)

// ResponseMeta carries the response metadata available before any body
// byte is read: status code, status text, and headers. FromMetadata
// descriptions select a decoding branch using only this information.
type ResponseMeta struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Status is the status text ("200 OK"). May be empty.
	Status string
	// Header holds the response headers. Lookups are case-insensitive.
	Header http.Header
}

// IsSuccess returns true if the status code is 2xx.
func (m ResponseMeta) IsSuccess() bool {
	return m.StatusCode >= 200 && m.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (m ResponseMeta) IsError() bool {
	return m.StatusCode >= 400
}

// ContentType returns the media type of the Content-Type header without
// parameters, or "" if unset or unparseable.
func (m ResponseMeta) ContentType() string {
	ct := m.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return mt
}

// Charset returns the charset parameter of the Content-Type header,
// or "" if absent.
func (m ResponseMeta) Charset() string {
	ct := m.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return params["charset"]
}
