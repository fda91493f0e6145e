package talkers_test

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdrayer/unnest/internal/talkers"
)

const snapshot = `TCP Gateway 192.168.1.10:50000 LAN 10.0.0.1:80, idle 0:00:11, bytes 1000, flags UIOB
TCP Gateway 192.168.1.10:50001 LAN 10.0.0.1:80, idle 0:00:09, bytes 500, flags UIOB
TCP Gateway 192.168.1.20:4433 LAN 10.0.0.2:443, idle 0:01:00, bytes 2,000, flags UIO
some unparsable banner line
UDP Outside 8.8.8.8:53 LAN 192.168.1.10:3333, idle 0:00:01, bytes 300
`

func aggregate(t *testing.T, input string, mode talkers.Mode, filt talkers.Prefixes) (map[talkers.Key]int64, talkers.Stats) {
	t.Helper()
	agg, st, err := talkers.Aggregate(strings.NewReader(input), mode, filt)
	require.NoError(t, err)
	return agg, st
}

func TestAggregate_PairMode(t *testing.T) {
	agg, st := aggregate(t, snapshot, talkers.ModePair, talkers.Prefixes{})

	assert.Equal(t, int64(1500), agg[talkers.Key{Src: "192.168.1.10", Dst: "10.0.0.1"}])
	assert.Equal(t, int64(2000), agg[talkers.Key{Src: "192.168.1.20", Dst: "10.0.0.2"}])
	assert.Equal(t, int64(300), agg[talkers.Key{Src: "8.8.8.8", Dst: "192.168.1.10"}])

	assert.Equal(t, 5, st.TotalLines)
	assert.Equal(t, 4, st.LinesWithBytes)
	assert.Equal(t, 4, st.LinesWithTwoAddrs)
	assert.Equal(t, 4, st.ParsedFlows)
	assert.Equal(t, 0, st.FilteredFlows)
}

func TestAggregate_SrcAndDstModes(t *testing.T) {
	srcAgg, _ := aggregate(t, snapshot, talkers.ModeSrc, talkers.Prefixes{})
	assert.Equal(t, int64(1500), srcAgg[talkers.Key{Src: "192.168.1.10"}])

	dstAgg, _ := aggregate(t, snapshot, talkers.ModeDst, talkers.Prefixes{})
	assert.Equal(t, int64(1500), dstAgg[talkers.Key{Dst: "10.0.0.1"}])
	assert.Equal(t, int64(300), dstAgg[talkers.Key{Dst: "192.168.1.10"}])
}

func mustPrefixes(t *testing.T, items ...string) []netip.Prefix {
	t.Helper()
	out, err := talkers.ParsePrefixList(items)
	require.NoError(t, err)
	return out
}

func TestAggregate_Filters(t *testing.T) {
	t.Run("exclude any", func(t *testing.T) {
		filt := talkers.Prefixes{ExcludeAny: mustPrefixes(t, "8.8.8.8/32")}
		agg, st := aggregate(t, snapshot, talkers.ModePair, filt)
		assert.NotContains(t, agg, talkers.Key{Src: "8.8.8.8", Dst: "192.168.1.10"})
		assert.Equal(t, 1, st.FilteredFlows)
	})

	t.Run("include both", func(t *testing.T) {
		filt := talkers.Prefixes{IncludeBoth: mustPrefixes(t, "192.168.0.0/16", "10.0.0.0/8")}
		agg, st := aggregate(t, snapshot, talkers.ModePair, filt)
		// The 8.8.8.8 flow has only one endpoint inside the ranges.
		assert.Len(t, agg, 2)
		assert.Equal(t, 1, st.FilteredFlows)
	})

	t.Run("include either", func(t *testing.T) {
		filt := talkers.Prefixes{IncludeEither: mustPrefixes(t, "10.0.0.2/32")}
		agg, _ := aggregate(t, snapshot, talkers.ModePair, filt)
		assert.Len(t, agg, 1)
		assert.Contains(t, agg, talkers.Key{Src: "192.168.1.20", Dst: "10.0.0.2"})
	})
}

func TestDelta(t *testing.T) {
	before := map[talkers.Key]int64{
		{Src: "a"}: 100,
		{Src: "b"}: 500,
		{Src: "c"}: 50,
	}
	after := map[talkers.Key]int64{
		{Src: "a"}: 400, // grew
		{Src: "b"}: 200, // shrank (connection reset)
		{Src: "d"}: 70,  // new
	}

	delta := talkers.Delta(before, after, false)
	assert.Equal(t, map[talkers.Key]int64{
		{Src: "a"}: 300,
		{Src: "d"}: 70,
	}, delta)

	withNeg := talkers.Delta(before, after, true)
	assert.Equal(t, int64(-300), withNeg[talkers.Key{Src: "b"}])
	assert.Equal(t, int64(-50), withNeg[talkers.Key{Src: "c"}])
}
