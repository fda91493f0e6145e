// Package talkers computes top-talkers byte deltas between two Cisco
// ASA "show conn" snapshots. Parsing and aggregation are pure functions
// over input lines so they can be tested without any I/O.
package talkers

import (
	"net/netip"
	"regexp"
	"strconv"
	"strings"
)

// Matches ASA connection-table lines such as:
//
//	TCP Gateway  192.168.21.180:50525 LAN  172.15.39.29:80, idle 0:00:11, bytes 11113, flags UIOB
//
// The interface labels (Gateway/LAN/Outside/...) are free-form words,
// and byte counts may carry thousands separators.
var lineRE = regexp.MustCompile(
	`(?i)^\s*\S+\s+\S+\s+(\d{1,3}(?:\.\d{1,3}){3}):\d+\s+\S+\s+(\d{1,3}(?:\.\d{1,3}){3}):\d+.*?\bbytes\s+([0-9][0-9,]*)\b`,
)

var (
	bytesTokenRE = regexp.MustCompile(`(?i)\bbytes\s+[0-9][0-9,]*\b`)
	endpointRE   = regexp.MustCompile(`\d{1,3}(?:\.\d{1,3}){3}:\d+`)
)

// Flow is one parsed connection line. A and B are the endpoints in the
// order they appear on the line.
type Flow struct {
	A     netip.Addr
	B     netip.Addr
	Bytes int64
}

// ParseConnLine parses a single ASA conn line. Returns false for lines
// that do not match the expected layout or carry invalid addresses.
func ParseConnLine(line string) (Flow, bool) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return Flow{}, false
	}

	a, err := netip.ParseAddr(m[1])
	if err != nil || !a.Is4() {
		return Flow{}, false
	}
	b, err := netip.ParseAddr(m[2])
	if err != nil || !b.Is4() {
		return Flow{}, false
	}

	n, err := strconv.ParseInt(strings.ReplaceAll(m[3], ",", ""), 10, 64)
	if err != nil {
		return Flow{}, false
	}

	return Flow{A: a, B: b, Bytes: n}, true
}
