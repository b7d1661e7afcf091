package http

import (
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP_NoProxy(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "10.0.0.1") // must be ignored

	ip := ExtractClientIP(r, nil)
	if ip != "203.0.113.7" {
		t.Errorf("got %q, want 203.0.113.7", ip)
	}
}

func TestExtractClientIP_UntrustedProxyHeaderIgnored(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	ip := ExtractClientIP(r, cfg)
	if ip != "203.0.113.7" {
		t.Errorf("got %q, want 203.0.113.7 (header from untrusted source)", ip)
	}
}

func TestExtractClientIP_TrustedProxy(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.1.2.3")

	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	ip := ExtractClientIP(r, cfg)
	if ip != "198.51.100.9" {
		t.Errorf("got %q, want 198.51.100.9", ip)
	}
}

func TestExtractClientIP_TrustedProxyXRealIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	r.RemoteAddr = "10.1.2.3:443"
	r.Header.Set("X-Real-IP", "198.51.100.9")

	cfg := &IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	ip := ExtractClientIP(r, cfg)
	if ip != "198.51.100.9" {
		t.Errorf("got %q, want 198.51.100.9", ip)
	}
}

func TestTruncateUserAgent(t *testing.T) {
	if got := TruncateUserAgent(""); got != "unknown" {
		t.Errorf("empty UA: got %q, want unknown", got)
	}

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	if got := TruncateUserAgent(string(long)); len(got) != 256 {
		t.Errorf("long UA: got len %d, want 256", len(got))
	}

	if got := TruncateUserAgent("curl/8.0"); got != "curl/8.0" {
		t.Errorf("short UA: got %q, want unchanged", got)
	}
}
