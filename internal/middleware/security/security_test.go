package security

import (
	"bytes"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"brankas/internal/log"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		target    string
		userAgent string
		want      string
	}{
		{"plain api call", http.MethodGet, "/api/accounts", "brankas-web/1.0", ""},
		{"scripted client", http.MethodPost, "/api/transactions", "curl/8.5.0", ""},
		{"hex-looking search", http.MethodGet, "/api/transactions?search=0x1f", "", ""},
		{"path traversal", http.MethodGet, "/files/../etc/passwd", "", "path pattern ../"},
		{"dotenv scan", http.MethodGet, "/.env", "", "path pattern .env"},
		{"sql injection in query", http.MethodGet, "/api/transactions?search=1 union select", "", "query pattern union select"},
		{"scanner agent", http.MethodGet, "/", "sqlmap/1.7", "scanner agent sqlmap"},
		{"trace method", "TRACE", "/", "", "method TRACE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(tt.method, "http://example.com/", nil)
			r.URL.Path, r.URL.RawQuery, _ = strings.Cut(tt.target, "?")
			r.Header.Set("User-Agent", tt.userAgent)
			if got := d.Inspect(r); got != tt.want {
				t.Errorf("Inspect() = %q, want %q", got, tt.want)
			}
			wantCount := int64(0)
			if tt.want != "" {
				wantCount = 1
			}
			if got := d.GetMetrics().SuspiciousRequests; got != wantCount {
				t.Errorf("SuspiciousRequests = %d, want %d", got, wantCount)
			}
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct client", "203.0.113.7:5555", "", "203.0.113.7"},
		{"forwarded by trusted proxy", "10.0.0.2:80", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"forwarded header from untrusted peer is ignored", "203.0.113.7:5555", "198.51.100.1", "203.0.113.7"},
		{"garbage forwarded entry falls back to peer", "10.0.0.2:80", "not-an-ip", "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}

	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Error("AddTrustedProxy() error = nil, want error")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:5555"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy() error = %v", err)
	}
	if got := d.ExtractClientIP(r); got != "198.51.100.1" {
		t.Errorf("ExtractClientIP() after trusting peer = %q, want 198.51.100.1", got)
	}

	r.RemoteAddr = "garbage"
	d.ExtractClientIP(r)
	if got := d.GetMetrics().InvalidIPAttempts; got != 1 {
		t.Errorf("InvalidIPAttempts = %d, want 1", got)
	}
}

func TestDetectorMiddlewareLogsWithoutBlocking(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})
	h := NewDetector().Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
	if !strings.Contains(buf.String(), "Suspicious request") || !strings.Contains(buf.String(), "component=security") || !strings.Contains(buf.String(), `reason="path pattern wp-admin"`) {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on plain HTTP")
	}

	r := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	r.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("Strict-Transport-Security = %q", got)
	}
}
