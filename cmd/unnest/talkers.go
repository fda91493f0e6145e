package main

import (
	"fmt"
	"io"
	"net/netip"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kdrayer/unnest/internal/talkers"
)

// cidrFlag is a repeatable pflag.Value that parses CIDR arguments at
// flag-parse time so bad prefixes fail before any file is read.
type cidrFlag struct {
	prefixes *[]netip.Prefix
}

var _ pflag.Value = (*cidrFlag)(nil)

func (*cidrFlag) String() string { return "" }
func (*cidrFlag) Type() string   { return "cidr" }

func (f *cidrFlag) Set(val string) error {
	parsed, err := talkers.ParsePrefixList([]string{val})
	if err != nil {
		return err
	}
	*f.prefixes = append(*f.prefixes, parsed...)
	return nil
}

func talkersCmd() *cobra.Command {
	var (
		beforePath string
		afterPath  string
		topN       int
		modeStr    string
		filt       talkers.Prefixes
		allowNeg   bool
		csvPath    string
		noHuman    bool
	)

	cmd := &cobra.Command{
		Use:   "talkers --before FILE --after FILE",
		Short: "Top-talkers byte deltas between two ASA 'show conn' snapshots",
		Long: `talkers parses two Cisco ASA connection-table snapshots taken at
different times, aggregates byte counts by src, dst, or src->dst pair,
and reports the largest deltas.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := talkers.ParseMode(modeStr)
			if err != nil {
				return err
			}

			beforeAgg, beforeStats, err := aggregateFile(beforePath, mode, filt)
			if err != nil {
				return err
			}
			afterAgg, afterStats, err := aggregateFile(afterPath, mode, filt)
			if err != nil {
				return err
			}

			delta := talkers.Delta(beforeAgg, afterAgg, allowNeg)
			rows := talkers.TopRows(delta, afterAgg, topN)

			out := cmd.OutOrStdout()
			printSnapshotStats(out, "before", beforePath, beforeStats)
			printSnapshotStats(out, "after ", afterPath, afterStats)
			negatives := "dropped"
			if allowNeg {
				negatives = "shown"
			}
			fmt.Fprintf(out, "mode: %s | top: %d | negative deltas: %s\n\n", mode, topN, negatives)

			if len(rows) == 0 {
				fmt.Fprintln(out, "no rows to display (no parsable flows or all deltas filtered)")
				return nil
			}

			if err := talkers.Render(out, mode, rows, !noHuman); err != nil {
				return err
			}

			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("create csv: %w", err)
				}
				defer f.Close()
				if err := talkers.WriteCSV(f, mode, rows, !noHuman); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
				fmt.Fprintf(out, "\nwrote CSV: %s\n", csvPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&beforePath, "before", "", "older snapshot file (t1)")
	cmd.Flags().StringVar(&afterPath, "after", "", "newer snapshot file (t2)")
	cmd.Flags().IntVarP(&topN, "top", "n", 20, "number of rows to show")
	cmd.Flags().StringVar(&modeStr, "mode", "pair", "aggregate by src, dst, or pair")
	cmd.Flags().
		Var(&cidrFlag{prefixes: &filt.IncludeBoth}, "include", "only include flows where BOTH endpoints match CIDR (repeatable)")
	cmd.Flags().
		Var(&cidrFlag{prefixes: &filt.IncludeEither}, "either-include", "only include flows where EITHER endpoint matches CIDR (repeatable)")
	cmd.Flags().
		Var(&cidrFlag{prefixes: &filt.ExcludeAny}, "exclude", "exclude flows where EITHER endpoint matches CIDR (repeatable)")
	cmd.Flags().BoolVar(&allowNeg, "allow-negative", false, "keep negative deltas (default: drop)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write CSV to this path")
	cmd.Flags().BoolVar(&noHuman, "no-human", false, "omit human-readable byte columns")

	_ = cmd.MarkFlagRequired("before")
	_ = cmd.MarkFlagRequired("after")

	return cmd
}

func aggregateFile(path string, mode talkers.Mode, filt talkers.Prefixes) (map[talkers.Key]int64, talkers.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, talkers.Stats{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return talkers.Aggregate(f, mode, filt)
}

func printSnapshotStats(w io.Writer, label, path string, st talkers.Stats) {
	fmt.Fprintf(w, "%s: %s\n", label, path)
	fmt.Fprintf(w, "  total lines          : %d\n", st.TotalLines)
	fmt.Fprintf(w, "  lines w/ bytes token : %d\n", st.LinesWithBytes)
	fmt.Fprintf(w, "  lines w/ >=2 ip:port : %d\n", st.LinesWithTwoAddrs)
	fmt.Fprintf(w, "  parsed flows         : %d\n", st.ParsedFlows)
	fmt.Fprintf(w, "  filtered flows       : %d\n\n", st.FilteredFlows)
}
