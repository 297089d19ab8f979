package newsfeed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"

	"opensox-api/internal/infra/avatar"
)

var (
	// ErrInvalidURL is returned for unparsable URLs or unsupported schemes.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrPrivateIP is returned when a host resolves to a private address.
	ErrPrivateIP = errors.New("URL resolves to a private address")
)

// validateURL checks scheme and host, and with denyPrivateIPs resolves the
// host and rejects private, loopback, link-local and unspecified addresses.
// The transport repeats the address check at dial time.
func validateURL(ctx context.Context, resolver *net.Resolver, rawURL string, denyPrivateIPs bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if !denyPrivateIPs {
		return nil
	}

	if avatar.LooksPrivateHost(host) {
		return fmt.Errorf("%w: %s", ErrPrivateIP, host)
	}
	if literal, err := netip.ParseAddr(host); err == nil && avatar.IsBlockedAddr(literal) {
		return fmt.Errorf("%w: %s", ErrPrivateIP, host)
	}

	addrs, err := resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %v", ErrInvalidURL, host, err)
	}
	for _, addr := range addrs {
		if avatar.IsBlockedAddr(addr) {
			return fmt.Errorf("%w: hostname '%s' resolves to %s", ErrPrivateIP, host, addr)
		}
	}
	return nil
}
