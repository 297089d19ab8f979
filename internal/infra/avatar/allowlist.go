package avatar

import "strings"

// DefaultAllowedHosts is the set of image hosting providers trusted for avatars.
var DefaultAllowedHosts = []string{
	"avatars.githubusercontent.com",
	"lh3.googleusercontent.com",
	"graph.facebook.com",
	"pbs.twimg.com",
	"cdn.discordapp.com",
	"i.imgur.com",
	"res.cloudinary.com",
	"ik.imagekit.io",
	"images.unsplash.com",
	"ui-avatars.com",
}

// Allowlist matches hostnames against a fixed set of trusted hosts.
// A host matches an entry exactly or as a subdomain of it.
type Allowlist struct {
	hosts []string
	set   map[string]struct{}
}

// NewAllowlist builds an Allowlist from hosts. Entries are lower-cased and
// de-duplicated; malformed entries are dropped. Order is preserved.
func NewAllowlist(hosts []string) *Allowlist {
	a := &Allowlist{set: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if !isWellFormedHost(h) {
			continue
		}
		if _, dup := a.set[h]; dup {
			continue
		}
		a.set[h] = struct{}{}
		a.hosts = append(a.hosts, h)
	}
	return a
}

// Matches reports whether host is an allowed entry or a subdomain of one.
// Empty and malformed hosts never match.
func (a *Allowlist) Matches(host string) bool {
	host = strings.ToLower(host)
	if !isWellFormedHost(host) {
		return false
	}
	if _, ok := a.set[host]; ok {
		return true
	}
	for _, entry := range a.hosts {
		if strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

// Hosts returns a copy of the allowed hosts in configuration order.
func (a *Allowlist) Hosts() []string {
	out := make([]string, len(a.hosts))
	copy(out, a.hosts)
	return out
}

// Len returns the number of allowed hosts.
func (a *Allowlist) Len() int { return len(a.hosts) }

// String joins the allowed hosts with ", ".
func (a *Allowlist) String() string {
	return strings.Join(a.hosts, ", ")
}

// isWellFormedHost accepts lower-case DNS names made of non-empty labels of
// [a-z0-9-] with no leading or trailing hyphen.
func isWellFormedHost(h string) bool {
	if h == "" || len(h) > 253 {
		return false
	}
	for _, label := range strings.Split(h, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
				return false
			}
		}
	}
	return true
}
