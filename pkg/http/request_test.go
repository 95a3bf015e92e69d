package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	pkghttp "github.com/mhutchens/waypoint/pkg/http"
	"github.com/stretchr/testify/assert"
)

// The extracted address ends up on session rows and audit events, so a
// client must never be able to pick it by setting forwarding headers.
func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		cfg        *pkghttp.IPConfig
		want       string
	}{
		{
			name:       "direct connection ignores forwarding headers",
			remoteAddr: "203.0.113.10:54321",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "192.168.1.1"},
			cfg:        &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}},
			want:       "203.0.113.10",
		},
		{
			name:       "trusted proxy honors first forwarded address",
			remoteAddr: "10.0.0.5:54321",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.42, 203.0.113.43, 10.0.0.5"},
			cfg:        &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}},
			want:       "203.0.113.42",
		},
		{
			name:       "trusted proxy falls back to X-Real-IP",
			remoteAddr: "10.0.0.5:54321",
			headers:    map[string]string{"X-Real-IP": "203.0.113.42"},
			cfg:        &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}},
			want:       "203.0.113.42",
		},
		{
			name:       "nil config trusts nothing",
			remoteAddr: "203.0.113.10:54321",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4"},
			cfg:        nil,
			want:       "203.0.113.10",
		},
		{
			name:       "empty proxy list trusts nothing",
			remoteAddr: "203.0.113.10:54321",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4"},
			cfg:        &pkghttp.IPConfig{TrustedProxies: []string{}},
			want:       "203.0.113.10",
		},
		{
			name:       "malformed CIDR entries never widen trust",
			remoteAddr: "203.0.113.10:54321",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4"},
			cfg:        &pkghttp.IPConfig{TrustedProxies: []string{"not-a-cidr"}},
			want:       "203.0.113.10",
		},
		{
			name:       "forged localhost claim is ignored without a trusted proxy",
			remoteAddr: "203.0.113.10:54321",
			headers:    map[string]string{"X-Forwarded-For": "127.0.0.1, 203.0.113.10"},
			cfg:        &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}},
			want:       "203.0.113.10",
		},
		{
			name:       "IPv6 proxy and client",
			remoteAddr: "[::1]:54321",
			headers:    map[string]string{"X-Forwarded-For": "2001:db8::1"},
			cfg:        &pkghttp.IPConfig{TrustedProxies: []string{"::1/128"}},
			want:       "2001:db8::1",
		},
		{
			name:       "port stripped from peer address",
			remoteAddr: "203.0.113.10:54321",
			cfg:        &pkghttp.IPConfig{},
			want:       "203.0.113.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, pkghttp.ExtractClientIP(req, tt.cfg))
		})
	}
}
