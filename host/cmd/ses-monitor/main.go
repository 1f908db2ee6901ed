package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sesboard/config"
	"sesboard/host/logx"
	"sesboard/host/mcu"
	"sesboard/host/monitor"
	"sesboard/host/serial"
)

var (
	configPath string
	device     string
	logLevel   string

	mainCmd = &cobra.Command{
		Use:          "ses-monitor",
		Short:        "Host tools for the fan controller board",
		Long:         "Watch, command, record and simulate the fan controller board over its USB serial link.",
		SilenceUsage: true,
	}
)

func init() {
	mainCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "host config file (YAML)")
	mainCmd.PersistentFlags().StringVarP(&device, "device", "d", "", "serial device, overrides the config")
	mainCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level, overrides the config")

	mainCmd.AddCommand(watchCmd, sendCmd, simCmd, recordCmd, statsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mainCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads the host config and applies the command line overrides
func setup() (*config.Host, logx.Logger, error) {
	host, err := config.LoadHostFile(configPath)
	if err != nil {
		return nil, logx.Logger{}, err
	}
	if device != "" {
		host.Serial.Device = device
	}
	if logLevel != "" {
		host.Log.Level = logLevel
	}
	if err := host.Validate(); err != nil {
		return nil, logx.Logger{}, err
	}
	log := logx.New(logx.Options{Level: host.Log.Level, JSON: host.Log.JSON})
	return host, log, nil
}

// connect opens the board named by host and routes its telemetry into mon
func connect(ctx context.Context, host *config.Host, log logx.Logger, mon *monitor.Monitor) (*mcu.MCU, error) {
	m := mcu.NewMCU()
	m.SetHandler(mon.Handle)
	m.SetErrorHandler(mon.HandleError)

	log.Info("connecting", logx.String("device", host.Serial.Device), logx.Int("baud", host.Serial.Baud))
	if err := m.Connect(ctx, serial.FromHost(host.Serial)); err != nil {
		return nil, fmt.Errorf("connect %s: %w", host.Serial.Device, err)
	}
	return m, nil
}
