package talkers

import (
	"bufio"
	"fmt"
	"io"
)

// Mode selects the aggregation key.
type Mode string

const (
	ModeSrc  Mode = "src"  // aggregate by first endpoint
	ModeDst  Mode = "dst"  // aggregate by second endpoint
	ModePair Mode = "pair" // aggregate by src->dst pair
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSrc, ModeDst, ModePair:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode %q (want src, dst, or pair)", s)
	}
}

// Key identifies an aggregation bucket. Dst is empty in src mode, Src
// is empty in dst mode.
type Key struct {
	Src string
	Dst string
}

// Stats counts what happened to each input line during aggregation.
// The diagnostic counters help tune parsing against unfamiliar ASA
// output formats.
type Stats struct {
	TotalLines        int
	LinesWithBytes    int // lines carrying a "bytes N" token
	LinesWithTwoAddrs int // lines carrying at least two ip:port endpoints
	ParsedFlows       int
	FilteredFlows     int
}

// Aggregate reads conn-snapshot lines from r, summing byte counts into
// buckets keyed per mode. Flows rejected by the filters are counted but
// not aggregated.
func Aggregate(r io.Reader, mode Mode, filt Prefixes) (map[Key]int64, Stats, error) {
	agg := make(map[Key]int64)
	var st Stats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		st.TotalLines++

		if bytesTokenRE.MatchString(line) {
			st.LinesWithBytes++
		}
		if len(endpointRE.FindAllString(line, 2)) >= 2 {
			st.LinesWithTwoAddrs++
		}

		flow, ok := ParseConnLine(line)
		if !ok {
			continue
		}
		st.ParsedFlows++

		if !filt.Allowed(flow.A, flow.B) {
			st.FilteredFlows++
			continue
		}

		agg[keyFor(mode, flow)] += flow.Bytes
	}
	if err := sc.Err(); err != nil {
		return nil, st, fmt.Errorf("read snapshot: %w", err)
	}
	return agg, st, nil
}

func keyFor(mode Mode, flow Flow) Key {
	switch mode {
	case ModeSrc:
		return Key{Src: flow.A.String()}
	case ModeDst:
		return Key{Dst: flow.B.String()}
	default:
		return Key{Src: flow.A.String(), Dst: flow.B.String()}
	}
}

// Delta computes after-before per bucket across the union of keys.
// Negative deltas (connections that reset or aged out between
// snapshots) are dropped unless allowNegative is set.
func Delta(before, after map[Key]int64, allowNegative bool) map[Key]int64 {
	out := make(map[Key]int64)
	for k, b := range before {
		d := after[k] - b
		if d < 0 && !allowNegative {
			continue
		}
		out[k] = d
	}
	for k, a := range after {
		if _, seen := before[k]; !seen {
			out[k] = a
		}
	}
	return out
}
