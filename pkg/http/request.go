package http

import (
	"net"
	"net/http"
	"strings"
)

// IPConfig names the proxies allowed to speak for the client. Forwarding
// headers from any other peer are ignored.
type IPConfig struct {
	TrustedProxies []string // CIDR ranges
}

// ExtractClientIP resolves the address recorded on login sessions and audit
// events. X-Forwarded-For and X-Real-IP are honored only when the direct
// peer is a trusted proxy; otherwise a client could choose the address its
// session is stored under.
func ExtractClientIP(r *http.Request, cfg *IPConfig) string {
	peer := remoteHost(r)
	if cfg == nil || !isTrustedProxy(peer, cfg.TrustedProxies) {
		return peer
	}

	// The first valid entry in X-Forwarded-For is the original client;
	// later entries are the proxies it passed through.
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(part); net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); net.ParseIP(xri) != nil {
		return xri
	}

	return peer
}

func remoteHost(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func isTrustedProxy(addr string, proxies []string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, cidr := range proxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue // malformed entries never widen trust
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
