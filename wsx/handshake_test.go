package wsx

import (
	"strings"
	"testing"

	"github.com/kestrel-io/reactorcore/httpx"
)

func TestAcceptKeyMatchesRFC6455Example(t *testing.T) {
	// The example vector from RFC 6455 §1.3.
	got := AcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Errorf("AcceptKey() = %q, want %q", got, want)
	}
}

func TestNewClientKeyIsUniqueEachCall(t *testing.T) {
	a := NewClientKey()
	b := NewClientKey()
	if a == b {
		t.Error("expected two distinct nonces")
	}
}

func TestBuildUpgradeResponseCarriesRequiredHeaders(t *testing.T) {
	raw := string(buildUpgradeResponse("dGhlIHNhbXBsZSBub25jZQ=="))
	if !strings.Contains(raw, "101 Switching Protocols") {
		t.Error("expected a 101 status line")
	}
	if !strings.Contains(raw, "Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=") {
		t.Errorf("missing expected accept header in %q", raw)
	}
}

func TestValidateUpgradeResponseRejectsWrongAccept(t *testing.T) {
	raw := buildUpgradeResponse("some-other-key")
	p := httpx.NewResponseParser()
	resp, complete, err := p.Feed(raw)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !complete {
		t.Fatal("expected the synthesized response to parse in one feed")
	}
	if err := validateUpgradeResponse(resp, "dGhlIHNhbXBsZSBub25jZQ=="); err == nil {
		t.Error("expected a mismatch error for a response accepted under a different key")
	}
}
