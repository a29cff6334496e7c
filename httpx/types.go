// Package httpx implements the incremental HTTP/1.1 codec, server, and
// client of the networking core (spec §4.9), grounded on
// momentics-hioload-ws/core/protocol/handshake.go's header-handling idiom
// and original_source/http_server.cpp's route/response shape.
package httpx

import "strings"

// Method is one of the HTTP/1.1 verbs this codec recognizes.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Header is a case-insensitive, insertion-order-preserving header set
// (spec §4.9: "Header name lookups are case-insensitive; case is preserved
// in storage").
type Header struct {
	keys   []string
	values []string
}

// Set stores value under key, preserving the caller's casing. If key is
// already present (matched case-insensitively) its value is replaced in
// place; otherwise the header is appended.
func (h *Header) Set(key, value string) {
	for i, k := range h.keys {
		if strings.EqualFold(k, key) {
			h.values[i] = value
			return
		}
	}
	h.keys = append(h.keys, key)
	h.values = append(h.values, value)
}

// Get returns the first value for key, matched case-insensitively, or "".
func (h *Header) Get(key string) string {
	for i, k := range h.keys {
		if strings.EqualFold(k, key) {
			return h.values[i]
		}
	}
	return ""
}

// ContainsToken reports whether the comma-separated value of key contains
// token, matched case-insensitively on both the header name and token —
// the predicate spec §4.9's WebSocket-upgrade detection is built from.
func (h *Header) ContainsToken(key, token string) bool {
	v := h.Get(key)
	if v == "" {
		return false
	}
	token = strings.ToLower(token)
	for _, part := range strings.Split(v, ",") {
		if strings.ToLower(strings.TrimSpace(part)) == token {
			return true
		}
	}
	return false
}

// Each calls fn for every header in insertion order.
func (h *Header) Each(fn func(key, value string)) {
	for i, k := range h.keys {
		fn(k, h.values[i])
	}
}

// Request is a parsed HTTP/1.1 request (spec §4.9).
type Request struct {
	Method     Method
	URL        string
	Path       string
	Query      string
	Headers    Header
	Body       []byte
	RemoteAddr string
	RemotePort uint16
}

// Response is the mutable record a route handler fills in before the
// codec builds and sends it (spec §4.9, original_source's HttpResponse).
type Response struct {
	StatusCode int
	StatusText string
	Headers    Header
	Body       []byte
}

// NewResponse returns a 200 OK response ready for a handler to customize.
func NewResponse() *Response {
	return &Response{StatusCode: 200, StatusText: "OK"}
}

// notFoundBody is the default synthesized body for unmatched routes
// (spec §5 supplemented feature, original_source's 404 text).
const notFoundBody = "<h1>404 Not Found</h1><p>The requested resource was not found on this server.</p>"

func notFoundResponse() *Response {
	return &Response{
		StatusCode: 404,
		StatusText: "Not Found",
		Body:       []byte(notFoundBody),
	}
}

func badRequestResponse(msg string) *Response {
	return &Response{
		StatusCode: 400,
		StatusText: "Bad Request",
		Body:       []byte(msg),
	}
}
