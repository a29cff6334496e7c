package wsx

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/kestrel-io/reactorcore/httpx"
)

// wsGUID is RFC 6455's fixed handshake GUID, grounded on
// momentics-hioload-ws/core/protocol/handshake.go's WebSocketGUID.
const wsGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// AcceptKey computes Sec-WebSocket-Accept for a client-supplied key
// (spec §4.10's server-side handshake).
func AcceptKey(clientKey string) string {
	h := sha1.New()
	h.Write([]byte(clientKey + wsGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// NewClientKey generates a fresh 16-byte nonce, base64-encoded as
// Sec-WebSocket-Key (spec §4.10's client-side handshake).
func NewClientKey() string {
	var nonce [16]byte
	rand.Read(nonce[:])
	return base64.StdEncoding.EncodeToString(nonce[:])
}

// buildUpgradeResponse serializes the 101 Switching Protocols response
// for a given client key (spec §4.10).
func buildUpgradeResponse(clientKey string) []byte {
	resp := &httpx.Response{StatusCode: 101, StatusText: "Switching Protocols"}
	resp.Headers.Set("Upgrade", "websocket")
	resp.Headers.Set("Connection", "Upgrade")
	resp.Headers.Set("Sec-WebSocket-Accept", AcceptKey(clientKey))
	return httpx.BuildResponse(resp)
}

// buildUpgradeRequest serializes the client's GET Upgrade request for
// path on host, carrying a fresh Sec-WebSocket-Key.
func buildUpgradeRequest(host, path, clientKey string) []byte {
	req := &httpx.Request{Method: httpx.MethodGet, Path: path, URL: path}
	req.Headers.Set("Upgrade", "websocket")
	req.Headers.Set("Connection", "Upgrade")
	req.Headers.Set("Sec-WebSocket-Key", clientKey)
	req.Headers.Set("Sec-WebSocket-Version", "13")
	return httpx.BuildRequest(req, host)
}

// validateUpgradeResponse checks a 101 response carries the headers and
// the Sec-WebSocket-Accept value spec §4.10's client-side handshake
// requires for clientKey.
func validateUpgradeResponse(resp *httpx.Response, clientKey string) error {
	if resp.StatusCode != 101 {
		return fmt.Errorf("wsx: handshake failed: status %d", resp.StatusCode)
	}
	if !strings.EqualFold(resp.Headers.Get("Upgrade"), "websocket") {
		return fmt.Errorf("wsx: handshake response missing Upgrade: websocket")
	}
	if !resp.Headers.ContainsToken("Connection", "upgrade") {
		return fmt.Errorf("wsx: handshake response missing Connection: Upgrade")
	}
	if resp.Headers.Get("Sec-WebSocket-Accept") != AcceptKey(clientKey) {
		return fmt.Errorf("wsx: handshake response Sec-WebSocket-Accept mismatch")
	}
	return nil
}
