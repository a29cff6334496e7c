package httpx

import (
	"strings"
	"testing"
)

func TestRequestParserCompletesOnSingleFeed(t *testing.T) {
	p := NewRequestParser()
	raw := "GET /hello?x=1 HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n"

	req, complete, err := p.Feed([]byte(raw))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !complete {
		t.Fatal("expected request to complete on first feed")
	}
	if req.Method != MethodGet || req.Path != "/hello" || req.Query != "x=1" {
		t.Errorf("got method=%s path=%s query=%s", req.Method, req.Path, req.Query)
	}
	if req.Headers.Get("host") != "example.com" {
		t.Error("expected case-insensitive header lookup to find Host")
	}
}

func TestRequestParserAccumulatesAcrossFeeds(t *testing.T) {
	p := NewRequestParser()

	_, complete, err := p.Feed([]byte("POST /data HTTP/1.1\r\nContent-Length: 5\r\n"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if complete {
		t.Fatal("should not complete before CRLFCRLF")
	}

	_, complete, err = p.Feed([]byte("\r\nhel"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if complete {
		t.Fatal("should not complete before full body arrives")
	}

	req, complete, err := p.Feed([]byte("lo"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !complete {
		t.Fatal("expected completion once body reaches Content-Length")
	}
	if string(req.Body) != "hello" {
		t.Errorf("got body %q, want %q", req.Body, "hello")
	}
}

func TestRequestParserRejectsBadContentLength(t *testing.T) {
	p := NewRequestParser()
	_, _, err := p.Feed([]byte("GET / HTTP/1.1\r\nContent-Length: notanumber\r\n\r\n"))
	if err == nil {
		t.Fatal("expected an error for a malformed Content-Length")
	}
}

func TestBuildResponseIncludesContentLength(t *testing.T) {
	resp := NewResponse()
	resp.Body = []byte("hello")
	raw := string(BuildResponse(resp))

	if !strings.Contains(raw, "Content-Length: 5") {
		t.Errorf("expected Content-Length: 5, got %q", raw)
	}
	if !strings.HasPrefix(raw, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("expected status line, got %q", raw)
	}
	if !strings.HasSuffix(raw, "hello") {
		t.Errorf("expected body at the end, got %q", raw)
	}
}

func TestBuildResponseOmitsContentLengthForEmptyBody(t *testing.T) {
	resp := NewResponse()
	raw := string(BuildResponse(resp))
	if strings.Contains(raw, "Content-Length") {
		t.Error("empty body should not carry a Content-Length header")
	}
}

func TestIsWebSocketUpgradeRequiresAllFour(t *testing.T) {
	req := &Request{Method: MethodGet}
	req.Headers.Set("Upgrade", "websocket")
	req.Headers.Set("Connection", "Upgrade")
	req.Headers.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	req.Headers.Set("Sec-WebSocket-Version", "13")

	if !isWebSocketUpgrade(req) {
		t.Error("expected a well-formed upgrade request to be detected")
	}

	req.Headers.Set("Sec-WebSocket-Version", "8")
	if isWebSocketUpgrade(req) {
		t.Error("wrong version should not be detected as an upgrade")
	}
}

func TestResponseParserRoundTrip(t *testing.T) {
	resp := NewResponse()
	resp.Headers.Set("X-Test", "1")
	resp.Body = []byte("payload")
	raw := BuildResponse(resp)

	p := NewResponseParser()
	parsed, complete, err := p.Feed(raw)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !complete {
		t.Fatal("expected response to parse in one feed")
	}
	if parsed.StatusCode != 200 || string(parsed.Body) != "payload" {
		t.Errorf("got status=%d body=%q", parsed.StatusCode, parsed.Body)
	}
	if parsed.Headers.Get("x-test") != "1" {
		t.Error("expected case-insensitive header round-trip")
	}
}
