package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"sesboard/config"
	"sesboard/core"
	"sesboard/host/logx"
	"sesboard/host/mcu"
	"sesboard/host/monitor"
	"sesboard/host/recorder"
	"sesboard/host/sim"
)

var (
	simDuration time.Duration
	simDemo     bool
	simRecord   bool

	simCmd = &cobra.Command{
		Use:   "sim",
		Short: "Run the firmware against a simulated fan",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, log, err := setup()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if simDuration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, simDuration)
				defer cancel()
			}

			cfg := config.DefaultBoard()
			if host.Board != "" {
				if cfg, err = config.LoadBoardFile(host.Board); err != nil {
					return err
				}
			}
			core.SetDebugWriter(log.DebugWriter())

			s, err := sim.New(cfg)
			if err != nil {
				return err
			}

			mon := monitor.New(log, host.Log.FramesPerS)
			if simRecord {
				store, err := recorder.Open(host.Recorder.Path, log)
				if err != nil {
					return err
				}
				defer store.Close()
				mon.AddSink(store.Sink(ctx))
			}

			m := mcu.NewMCU()
			m.SetHandler(mon.Handle)
			m.SetErrorHandler(mon.HandleError)
			if err := m.Attach(ctx, s.Port()); err != nil {
				return err
			}
			defer m.Close()

			errc := make(chan error, 1)
			go func() { errc <- s.Run(ctx) }()
			log.Info("simulator running", logx.Duration("for", simDuration))

			if simDemo {
				go demo(ctx, s, m, log)
			}

			err = <-errc
			if errors.Is(err, context.DeadlineExceeded) {
				err = nil
			}
			if err != nil {
				log.Error("simulator stopped", logx.Err(err))
			}
			return err
		},
	}
)

func init() {
	simCmd.Flags().DurationVar(&simDuration, "duration", 0, "stop after this long, 0 runs until interrupted")
	simCmd.Flags().BoolVar(&simDemo, "demo", false, "drive the inputs through a short scripted session")
	simCmd.Flags().BoolVar(&simRecord, "record", false, "store the telemetry in the database")
}

// demo exercises the panel inputs and host commands in turn
func demo(ctx context.Context, s *sim.Simulator, m *mcu.MCU, log logx.Logger) {
	const press = 60 * time.Millisecond
	steps := []struct {
		name string
		fn   func()
	}{
		{"joystick start", func() { s.PressJoystick(press) }},
		{"knob up", func() { s.Turn(4, 20*time.Millisecond) }},
		{"next preset", func() { s.PressRotary(press) }},
		{"duty 255", func() { _ = m.SetDuty(255) }},
		{"knob down", func() { s.Turn(-4, 20*time.Millisecond) }},
		{"status", func() { _ = m.RequestStatus() }},
		{"motor off", func() { _ = m.Motor(false) }},
	}
	for _, st := range steps {
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
		log.Info("demo", logx.String("step", st.name))
		st.fn()
	}
}
