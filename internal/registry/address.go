package registry

import (
	"fmt"
	"net/netip"
	"strings"
)

// Normalize canonicalises an endpoint address. IP literals are rewritten
// in their canonical form and hostnames are lower-cased.
func Normalize(address string) (string, error) {
	a := strings.TrimSpace(address)
	if a == "" || strings.ContainsAny(a, " \t\r\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	if ip, err := netip.ParseAddr(strings.Trim(a, "[]")); err == nil {
		return ip.String(), nil
	}

	host := strings.ToLower(strings.TrimSuffix(a, "."))
	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return host, nil
}
