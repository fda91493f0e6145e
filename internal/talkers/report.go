package talkers

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/kdrayer/unnest/internal/stats"
)

// Row is one line of the final report.
type Row struct {
	Key   Key
	Delta int64
	After int64
}

// TopRows ranks delta buckets descending and returns at most n rows.
// Ties break on the key so output is deterministic.
func TopRows(delta, after map[Key]int64, n int) []Row {
	rows := make([]Row, 0, len(delta))
	for k, d := range delta {
		rows = append(rows, Row{Key: k, Delta: d, After: after[k]})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Delta != rows[j].Delta {
			return rows[i].Delta > rows[j].Delta
		}
		if rows[i].Key.Src != rows[j].Key.Src {
			return rows[i].Key.Src < rows[j].Key.Src
		}
		return rows[i].Key.Dst < rows[j].Key.Dst
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func header(mode Mode, human bool) []string {
	var h []string
	switch mode {
	case ModeSrc:
		h = []string{"src_ip"}
	case ModeDst:
		h = []string{"dst_ip"}
	default:
		h = []string{"src_ip", "dst_ip"}
	}
	h = append(h, "delta_bytes")
	if human {
		h = append(h, "delta_human")
	}
	h = append(h, "after_bytes")
	if human {
		h = append(h, "after_human")
	}
	return h
}

func cells(mode Mode, r Row, human bool) []string {
	var c []string
	switch mode {
	case ModeSrc:
		c = []string{r.Key.Src}
	case ModeDst:
		c = []string{r.Key.Dst}
	default:
		c = []string{r.Key.Src, r.Key.Dst}
	}
	c = append(c, strconv.FormatInt(r.Delta, 10))
	if human {
		c = append(c, stats.FormatBytes(r.Delta))
	}
	c = append(c, strconv.FormatInt(r.After, 10))
	if human {
		c = append(c, stats.FormatBytes(r.After))
	}
	return c
}

// Render writes an aligned text table of rows to w.
func Render(w io.Writer, mode Mode, rows []Row, human bool) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	writeTabs := func(cols []string) {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}

	writeTabs(header(mode, human))
	for _, r := range rows {
		writeTabs(cells(mode, r, human))
	}
	return tw.Flush()
}

// WriteCSV writes rows as CSV with a header record.
func WriteCSV(w io.Writer, mode Mode, rows []Row, human bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(mode, human)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(cells(mode, r, human)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
