package addrutil

import (
	"fmt"
	"net"
	"strings"
)

// ParseGroup parses an IPv6 multicast group address.
//
// Group addresses pasted from tooling sometimes arrive with fused hex groups
// (e.g. "ff12c909:3199:..."), where one segment carries more than four
// digits. Those are repaired by splitting oversized segments into 4-char
// chunks before parsing.
func ParseGroup(s string) (net.IP, error) {
	raw := strings.TrimSpace(s)
	ip := net.ParseIP(raw)
	if ip == nil {
		fixed := splitFusedSegments(raw)
		ip = net.ParseIP(fixed)
		if ip == nil {
			return nil, fmt.Errorf("invalid IPv6 address %q (tried %q)", raw, fixed)
		}
	}
	if ip.To4() != nil || ip.To16() == nil {
		return nil, fmt.Errorf("%q is not an IPv6 address", raw)
	}
	if !ip.IsMulticast() {
		return nil, fmt.Errorf("%q is not a multicast address", raw)
	}
	return ip, nil
}

func splitFusedSegments(s string) string {
	parts := make([]string, 0, 8)
	for _, seg := range strings.Split(s, ":") {
		for len(seg) > 4 {
			parts = append(parts, seg[:4])
			seg = seg[4:]
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, ":")
}
