package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ClientIPResolver finds the address of the caller. Forwarding headers are
// honoured only when the direct peer is a trusted proxy.
type ClientIPResolver struct {
	trustedProxies []*net.IPNet
}

// NewClientIPResolver trusts loopback and the private ranges.
func NewClientIPResolver() *ClientIPResolver {
	return &ClientIPResolver{
		trustedProxies: []*net.IPNet{
			mustParseCIDR("127.0.0.0/8"),
			mustParseCIDR("::1/128"),
			mustParseCIDR("10.0.0.0/8"),
			mustParseCIDR("172.16.0.0/12"),
			mustParseCIDR("192.168.0.0/16"),
		},
	}
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// ClientIP extracts the real client IP, validating forwarded headers
func (d *ClientIPResolver) ClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil || !d.isTrustedProxy(parsedDirectIP) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if clientIP := strings.TrimSpace(first); net.ParseIP(clientIP) != nil {
			return clientIP
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (d *ClientIPResolver) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// AddTrustedProxy adds a trusted proxy network
func (d *ClientIPResolver) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}
