package chassis

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/hazyhaar/aadhaar-pulse/pkg/mcpquic"
)

func TestNewDevelopmentTLS(t *testing.T) {
	s, err := New(Config{Addr: ":0", Handler: http.NotFoundHandler()})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.tlsCfg.Certificates) != 1 {
		t.Fatalf("certificates = %d", len(s.tlsCfg.Certificates))
	}
	for _, p := range []string{alpnHTTP3, mcpquic.ALPNProtocolMCP} {
		if !slices.Contains(s.tlsCfg.NextProtos, p) {
			t.Errorf("ALPN %q not offered: %v", p, s.tlsCfg.NextProtos)
		}
	}
	if s.mcpHandler != nil {
		t.Error("MCP handler created without an MCP server")
	}
}

func TestNewMissingCert(t *testing.T) {
	_, err := New(Config{Addr: ":0", CertFile: "missing.pem", KeyFile: "missing.key"})
	if err == nil {
		t.Fatal("expected error for missing cert files")
	}
}

func TestHeaders(t *testing.T) {
	s, err := New(Config{Addr: "127.0.0.1:9443", Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})})
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Alt-Svc"); got != `h3=":9443"; ma=86400` {
		t.Errorf("Alt-Svc = %q", got)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}
