package main

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"sesboard/host/recorder"
	"sesboard/protocol"
)

var (
	statsSince time.Duration

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Summarise recorded telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, log, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := recorder.Open(host.Recorder.Path, log)
			if err != nil {
				return err
			}
			defer store.Close()

			since := time.Now().Add(-statsSince)
			samples, err := store.Samples(ctx, since)
			if err != nil {
				return err
			}
			counts, err := store.EventCounts(ctx, since)
			if err != nil {
				return err
			}

			s := recorder.Summarize(samples)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Samples:      %d since %s\n", s.Samples, since.Format(time.DateTime))
			fmt.Fprintf(out, "Running:      %.1f%%\n", s.RunningFrac*100)
			fmt.Fprintf(out, "Speed:        mean %.2f Hz, std %.2f, median %.2f\n", s.MeanHz, s.StdHz, s.MedianHz)
			fmt.Fprintf(out, "Temperature:  mean %.1f C, max %.1f C\n", s.MeanTempC, s.MaxTempC)
			if !math.IsNaN(s.DutyHzCorrelation) {
				fmt.Fprintf(out, "Duty/speed:   r = %.3f\n", s.DutyHzCorrelation)
			}

			kinds := make([]int, 0, len(counts))
			for k := range counts {
				kinds = append(kinds, int(k))
			}
			sort.Ints(kinds)
			for _, k := range kinds {
				kind := protocol.EventKind(k)
				fmt.Fprintf(out, "Events %-8s %d\n", kind.String()+":", counts[kind])
			}
			return nil
		},
	}
)

func init() {
	statsCmd.Flags().DurationVar(&statsSince, "since", 24*time.Hour, "how far back to summarise")
}
