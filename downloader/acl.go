package downloader

import (
	"errors"
	"net/netip"
	"strings"
)

// ErrDenied is returned when a fetch targets an address denied by the ACL
var ErrDenied = errors.New("denied by access control")

var presets = map[string][]string{
	"@private": {
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
	},
	"@loopback": {
		"127.0.0.0/8",
		"::1/128",
	},
	"@linklocal": {
		"169.254.0.0/16",
		"fe80::/10",
	},
	"@reserved": {
		"0.0.0.0/8",
		"100.64.0.0/10",
		"192.0.0.0/24",
		"224.0.0.0/4",
		"240.0.0.0/4",
		"fc00::/7",
	},
	"@default": {
		"@private",
		"@loopback",
		"@linklocal",
		"@reserved",
	},
}

// IsPreset reports whether rule names a preset group
func IsPreset(rule string) bool {
	_, ok := presets[rule]
	return ok
}

// AclOptions lists deny rules: IPs, CIDRs, domains (optionally "*." wildcards) or presets
type AclOptions struct {
	Deny []string
}

// ACL denies outbound connections by address or host name
type ACL struct {
	ips      []netip.Addr
	prefixes []netip.Prefix
	domains  []Domain
}

func expand(rules []string) []string {
	var expanded []string
	for _, r := range rules {
		if set, ok := presets[r]; ok {
			expanded = append(expanded, expand(set)...)
		} else {
			expanded = append(expanded, r)
		}
	}
	return expanded
}

func NewACL(opts AclOptions) *ACL {
	acl := &ACL{}
	for _, rule := range expand(opts.Deny) {
		if addr, err := netip.ParseAddr(rule); err == nil {
			acl.ips = append(acl.ips, addr.Unmap())
		} else if prefix, err := netip.ParsePrefix(rule); err == nil {
			acl.prefixes = append(acl.prefixes, prefix)
		} else {
			acl.domains = append(acl.domains, Domain(rule))
		}
	}
	return acl
}

func (acl *ACL) Empty() bool {
	return len(acl.ips) == 0 && len(acl.prefixes) == 0 && len(acl.domains) == 0
}

// AllowHost checks a host name against the domain rules
func (acl *ACL) AllowHost(host string) bool {
	for _, domain := range acl.domains {
		if domain.Match(host) {
			return false
		}
	}
	return true
}

// AllowAddr checks an address against the IP and CIDR rules
func (acl *ACL) AllowAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, ip := range acl.ips {
		if ip == addr {
			return false
		}
	}
	for _, prefix := range acl.prefixes {
		if prefix.Contains(addr) {
			return false
		}
	}
	return true
}

func (acl *ACL) Allow(host string, addr netip.Addr) bool {
	return acl.AllowHost(host) && acl.AllowAddr(addr)
}

type Domain string

// Match matches host exactly, or as a subdomain for "*." patterns
func (d Domain) Match(host string) bool {
	if host == "" {
		return false
	}

	pattern := strings.ToLower(string(d))
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	if !strings.HasPrefix(pattern, "*.") {
		return pattern == host
	}
	return strings.HasSuffix(host, pattern[1:])
}
