package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPExtractor resolves the client address of a request. Forwarding headers
// are honored only when the direct peer is a trusted proxy.
type IPExtractor struct {
	trustedProxies []*net.IPNet
}

// NewIPExtractor trusts loopback and the private ranges by default.
func NewIPExtractor() *IPExtractor {
	e := &IPExtractor{}
	for _, cidr := range []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"} {
		if err := e.AddTrustedProxy(cidr); err != nil {
			panic(err)
		}
	}
	return e
}

// AddTrustedProxy adds a trusted proxy network
func (e *IPExtractor) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	e.trustedProxies = append(e.trustedProxies, network)
	return nil
}

// ClientIP returns the best guess at the originating client address.
func (e *IPExtractor) ClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !e.isTrusted(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (e *IPExtractor) isTrusted(ip net.IP) bool {
	for _, network := range e.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
