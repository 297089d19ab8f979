// Package avatar implements the admission pipeline for user-submitted avatar URLs.
//
// A candidate URL passes through a fixed chain of gates (syntax, scheme,
// literal IP, private address, host allowlist, live probe) and the first
// failing gate decides the Verdict. All policy tables are immutable after
// construction so a single Validator can be shared by concurrent callers.
package avatar

import (
	"net/netip"
	"strconv"
	"strings"
)

// privateRanges lists the loopback, private and link-local ranges that an
// avatar host must never denote. fc00::/7 also covers fd00::/8.
var privateRanges = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("fc00::/7"),
}

// hostKind classifies the host component of a parsed URL.
type hostKind int

const (
	hostName hostKind = iota
	hostLiteral
	hostInvalid
)

// classifyHost reports whether host is a domain name, an IP literal or an
// unparseable numeric host. Numeric forms accepted by browsers
// (2130706433, 0x7f.1, 0177.0.0.1) are treated as IPv4 literals.
func classifyHost(host string) (hostKind, netip.Addr) {
	h := strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if addr, err := netip.ParseAddr(h); err == nil {
		return hostLiteral, addr.Unmap()
	}
	if !endsInNumber(h) {
		return hostName, netip.Addr{}
	}
	addr, ok := parseLegacyIPv4(h)
	if !ok {
		return hostInvalid, netip.Addr{}
	}
	return hostLiteral, addr
}

// IsPrivateAddr reports whether host is an IP literal inside the private
// range set. Names that are not literals always return false.
func IsPrivateAddr(host string) bool {
	kind, addr := classifyHost(host)
	if kind != hostLiteral {
		return false
	}
	return inPrivateRange(addr)
}

// LooksPrivateHost reports whether host is a private literal or a name that
// presents itself as one: localhost, *.localhost, or a name whose leading
// labels spell a private IPv4 prefix such as 10.x or 192.168.x.
func LooksPrivateHost(host string) bool {
	if IsPrivateAddr(host) {
		return true
	}
	h := strings.ToLower(strings.TrimSuffix(host, "."))
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return true
	}
	return hasPrivatePrefix(h)
}

// IsBlockedAddr reports whether a resolved address must never be
// connected to: a private range or the unspecified address, which reaches
// the local host.
func IsBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap().WithZone("")
	return addr.IsUnspecified() || inPrivateRange(addr)
}

func inPrivateRange(addr netip.Addr) bool {
	addr = addr.Unmap().WithZone("")
	for _, p := range privateRanges {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// hasPrivatePrefix matches the leading dotted labels of a name against the
// IPv4 private prefixes.
func hasPrivatePrefix(h string) bool {
	labels := strings.Split(h, ".")
	if len(labels) < 2 {
		return false
	}
	switch labels[0] {
	case "127", "10":
		return true
	case "192":
		return labels[1] == "168"
	case "169":
		return labels[1] == "254"
	case "172":
		n, err := strconv.Atoi(labels[1])
		return err == nil && n >= 16 && n <= 31
	}
	return false
}

// endsInNumber reports whether the last label of host is numeric, which is
// what makes a browser parse the whole host as IPv4.
func endsInNumber(host string) bool {
	labels := strings.Split(host, ".")
	last := labels[len(labels)-1]
	if last == "" && len(labels) > 1 {
		last = labels[len(labels)-2]
	}
	if last == "" {
		return false
	}
	if isDigits(last) {
		return true
	}
	_, ok := parseIPv4Number(last)
	return ok
}

func parseLegacyIPv4(host string) (netip.Addr, bool) {
	parts := strings.Split(host, ".")
	if parts[len(parts)-1] == "" && len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 || len(parts) > 4 {
		return netip.Addr{}, false
	}
	nums := make([]uint64, len(parts))
	for i, p := range parts {
		n, ok := parseIPv4Number(p)
		if !ok {
			return netip.Addr{}, false
		}
		nums[i] = n
	}
	for _, n := range nums[:len(nums)-1] {
		if n > 255 {
			return netip.Addr{}, false
		}
	}
	last := nums[len(nums)-1]
	if last >= 1<<(8*(5-len(nums))) {
		return netip.Addr{}, false
	}
	v := last
	for i, n := range nums[:len(nums)-1] {
		v += n << (8 * (3 - i))
	}
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}), true
}

func parseIPv4Number(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	base := 10
	switch {
	case len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X"):
		s, base = s[2:], 16
		if s == "" {
			return 0, true
		}
	case len(s) > 1 && s[0] == '0':
		s, base = s[1:], 8
	}
	n, err := strconv.ParseUint(s, base, 64)
	if err != nil || n > 0xffffffff {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
