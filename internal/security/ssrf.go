// Package security provides URL checks for user-supplied links.
package security

import (
	"net"
	"strings"
)

// IsPrivateIP checks if the given IP address is a private, localhost, or link-local address.
// Returns false for public IPs and invalid IP strings.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast()
}

// IsLocalhost checks if the given host is localhost.
// Accepts: "localhost", "127.0.0.1", "::1", "[::1]", "0.0.0.0"
func IsLocalhost(host string) bool {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	switch strings.ToLower(host) {
	case "localhost", "0.0.0.0":
		return true
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
