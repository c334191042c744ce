// Package ipchecker gates internal endpoints on the caller address belonging
// to a trusted subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/patric-chuzhbe/bookbuddy/internal/httpresponse"
)

// IPChecker matches client addresses against a trusted prefix. Without a
// configured prefix every address is rejected.
type IPChecker struct {
	trusted *netip.Prefix
}

// New parses trustedSubnet in CIDR notation, e.g. "192.168.1.0/24". An empty
// string disables access altogether.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{}, nil
	}
	prefix, err := netip.ParsePrefix(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `netip.ParsePrefix()` calling: %w", err)
	}
	prefix = prefix.Masked()
	return &IPChecker{trusted: &prefix}, nil
}

// Check reports whether addr is inside the trusted subnet.
func (checker *IPChecker) Check(addr netip.Addr) bool {
	return checker.trusted != nil && addr.IsValid() && checker.trusted.Contains(addr.Unmap())
}

// ClientAddr returns the caller address. X-Real-IP wins over the first
// X-Forwarded-For hop, which wins over RemoteAddr. RemoteAddr may come
// without a port when a proxy middleware already rewrote it.
func ClientAddr(request *http.Request) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(strings.TrimSpace(request.Header.Get("X-Real-IP"))); err == nil {
		return addr, nil
	}
	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr, nil
		}
	}

	host := request.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("in internal/ipchecker/ipchecker.go/ClientAddr(): error while `netip.ParseAddr()` calling: %w", err)
	}
	return addr, nil
}

// Middleware answers 403 to callers outside the trusted subnet.
func (checker *IPChecker) Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		addr, err := ClientAddr(request)
		if err != nil || !checker.Check(addr) {
			httpresponse.Message(response, http.StatusForbidden, "forbidden")
			return
		}
		h.ServeHTTP(response, request)
	})
}
