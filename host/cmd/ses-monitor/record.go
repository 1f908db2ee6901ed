package main

import (
	"github.com/spf13/cobra"

	"sesboard/host/logx"
	"sesboard/host/monitor"
	"sesboard/host/recorder"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Log board telemetry and store it in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		host, log, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		store, err := recorder.Open(host.Recorder.Path, log.With(logx.String("db", host.Recorder.Path)))
		if err != nil {
			log.Error("open database failed", logx.Err(err))
			return err
		}
		defer store.Close()

		retention, err := recorder.NewRetention(store, host.Recorder.Prune, host.Recorder.Retention)
		if err != nil {
			return err
		}
		retention.Start()
		defer retention.Stop()

		mon := monitor.New(log, host.Log.FramesPerS)
		mon.AddSink(store.Sink(ctx))

		m, err := connect(ctx, host, log, mon)
		if err != nil {
			log.Error("record failed", logx.Err(err))
			return err
		}
		defer m.Close()

		select {
		case <-ctx.Done():
		case <-waitDone(m.Wait):
			log.Warn("board disconnected")
		}
		return nil
	},
}
