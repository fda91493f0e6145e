package talkers_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdrayer/unnest/internal/talkers"
)

func TestTopRows(t *testing.T) {
	delta := map[talkers.Key]int64{
		{Src: "10.0.0.1"}: 100,
		{Src: "10.0.0.2"}: 900,
		{Src: "10.0.0.3"}: 500,
		{Src: "10.0.0.4"}: 500, // tie with .3, key breaks it
	}
	after := map[talkers.Key]int64{
		{Src: "10.0.0.2"}: 1000,
	}

	rows := talkers.TopRows(delta, after, 3)
	require.Len(t, rows, 3)
	assert.Equal(t, "10.0.0.2", rows[0].Key.Src)
	assert.Equal(t, int64(1000), rows[0].After)
	assert.Equal(t, "10.0.0.3", rows[1].Key.Src)
	assert.Equal(t, "10.0.0.4", rows[2].Key.Src)
}

func TestTopRows_ZeroLimitKeepsAll(t *testing.T) {
	delta := map[talkers.Key]int64{{Src: "a"}: 1, {Src: "b"}: 2}
	assert.Len(t, talkers.TopRows(delta, nil, 0), 2)
}

func TestRender_PairTable(t *testing.T) {
	rows := []talkers.Row{
		{Key: talkers.Key{Src: "192.168.1.10", Dst: "10.0.0.1"}, Delta: 2048, After: 4096},
	}

	var buf bytes.Buffer
	require.NoError(t, talkers.Render(&buf, talkers.ModePair, rows, true))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "src_ip")
	assert.Contains(t, lines[0], "dst_ip")
	assert.Contains(t, lines[0], "delta_human")
	assert.Contains(t, lines[1], "192.168.1.10")
	assert.Contains(t, lines[1], "2048")
	assert.Contains(t, lines[1], "2.0 KiB")
}

func TestRender_NoHuman(t *testing.T) {
	rows := []talkers.Row{{Key: talkers.Key{Src: "10.0.0.1"}, Delta: 10, After: 20}}

	var buf bytes.Buffer
	require.NoError(t, talkers.Render(&buf, talkers.ModeSrc, rows, false))
	assert.NotContains(t, buf.String(), "delta_human")
	assert.NotContains(t, buf.String(), "dst_ip")
}

func TestWriteCSV(t *testing.T) {
	rows := []talkers.Row{
		{Key: talkers.Key{Src: "192.168.1.10", Dst: "10.0.0.1"}, Delta: 100, After: 300},
		{Key: talkers.Key{Src: "192.168.1.20", Dst: "10.0.0.2"}, Delta: 50, After: 60},
	}

	var buf bytes.Buffer
	require.NoError(t, talkers.WriteCSV(&buf, talkers.ModePair, rows, false))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"src_ip", "dst_ip", "delta_bytes", "after_bytes"}, records[0])
	assert.Equal(t, []string{"192.168.1.10", "10.0.0.1", "100", "300"}, records[1])
}
