package main

import (
	"time"

	"github.com/spf13/cobra"

	"sesboard/host/logx"
	"sesboard/host/monitor"
)

var (
	watchTimeout time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Log board telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, log, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			mon := monitor.New(log, host.Log.FramesPerS)
			m, err := connect(ctx, host, log, mon)
			if err != nil {
				log.Error("watch failed", logx.Err(err))
				return err
			}
			defer m.Close()

			stop := make(chan struct{})
			defer close(stop)
			go mon.Watchdog(m.LastSeen, watchTimeout, stop)

			if err := m.RequestStatus(); err != nil {
				log.Warn("status request failed", logx.Err(err))
			}

			select {
			case <-ctx.Done():
			case <-waitDone(m.Wait):
				log.Warn("board disconnected")
			}
			c := mon.Counters()
			log.Info("done", logx.Int("statuses", int(c.Statuses)), logx.Int("events", int(c.Events)),
				logx.Int("errors", int(c.Errors)))
			return nil
		},
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 2*time.Second, "warn when the board is silent this long")
}

// waitDone turns a blocking wait into a channel
func waitDone(wait func()) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		wait()
		close(ch)
	}()
	return ch
}
