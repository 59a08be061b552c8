package v1

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var proxyIPHeaders = []string{
	"X-Real-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Client-IP",
}

// getClientIP resolves the real client address behind common reverse-proxy
// headers, preferring public IPv4 addresses and falling back to loopback when
// nothing usable is found.
func getClientIP(c *fiber.Ctx) string {
	if ip := selectPreferredIP(strings.Split(c.Get("X-Forwarded-For"), ",")); ip != "" {
		return ip
	}

	for _, header := range proxyIPHeaders {
		if value := c.Get(header); value != "" {
			if ip := selectPreferredIP([]string{value}); ip != "" {
				return ip
			}
		}
	}

	remoteAddr := c.Context().RemoteAddr().String()
	if remoteAddr != "" {
		if ip := selectPreferredIP([]string{remoteAddr}); ip != "" {
			return ip
		}
	}

	if ip := c.IP(); ip != "" && ip != "0.0.0.0" && ip != "::" {
		if selected := selectPreferredIP([]string{ip}); selected != "" {
			return selected
		}
	}

	return "127.0.0.1"
}

// selectPreferredIP picks the first public IPv4 candidate, keeping the first
// public IPv6 as a fallback.
func selectPreferredIP(values []string) string {
	var ipv6Fallback string

	for _, raw := range values {
		clean, parsed := normalizeIP(raw)
		if parsed == nil || isPrivateIP(parsed) {
			continue
		}

		if parsed.To4() != nil {
			return clean
		}
		if ipv6Fallback == "" {
			ipv6Fallback = clean
		}
	}

	return ipv6Fallback
}

func normalizeIP(raw string) (string, net.IP) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"")
	if clean == "" {
		return "", nil
	}

	// Strip zone identifier (fe80::1%eth0)
	if percent := strings.Index(clean, "%"); percent != -1 {
		clean = clean[:percent]
	}

	if addrPort, err := netip.ParseAddrPort(clean); err == nil {
		return canonicalAddr(addrPort.Addr())
	}

	trimmed := strings.TrimSuffix(strings.TrimPrefix(clean, "["), "]")
	if addr, err := netip.ParseAddr(trimmed); err == nil {
		return canonicalAddr(addr)
	}

	if host, _, err := net.SplitHostPort(clean); err == nil {
		return normalizeIP(host)
	}

	return "", nil
}

func canonicalAddr(addr netip.Addr) (string, net.IP) {
	if addr.Is4In6() {
		addr = addr.Unmap()
	}
	s := addr.String()
	return s, net.ParseIP(s)
}

var privateIPBlocks = []*net.IPNet{
	parseCIDR("10.0.0.0/8"),     // RFC 1918
	parseCIDR("172.16.0.0/12"),  // RFC 1918
	parseCIDR("192.168.0.0/16"), // RFC 1918
	parseCIDR("fc00::/7"),       // RFC 4193 Unique Local Addresses
	parseCIDR("fe80::/10"),      // RFC 4291 Link-Local
	parseCIDR("::1/128"),        // Loopback
	parseCIDR("127.0.0.0/8"),    // Loopback
}

func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, block := range privateIPBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

func parseCIDR(s string) *net.IPNet {
	_, block, _ := net.ParseCIDR(s)
	return block
}

// generateETag creates a strong ETag from content using SHA-256
func generateETag(content []byte) string {
	hash := sha256.Sum256(content)
	return `"` + hex.EncodeToString(hash[:]) + `"`
}
