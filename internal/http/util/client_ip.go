package util

import (
	"strings"

	"github.com/trisend/trisend/internal/infra/geoip"
)

const fallbackIP = "0.0.0.0"

// ClientIP picks the visitor address: the first public entry of an
// X-Forwarded-For chain, else the first entry, else the connection address.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		var first string
		for _, part := range strings.Split(forwardedFor, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if first == "" {
				first = ip
			}
			if !geoip.IsLocal(ip) {
				return ip
			}
		}
		if first != "" {
			return first
		}
	}
	if remoteAddr != "" {
		return remoteAddr
	}
	return fallbackIP
}
