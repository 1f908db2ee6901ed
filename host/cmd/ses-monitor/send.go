package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sesboard/core"
	"sesboard/host/logx"
	"sesboard/host/monitor"
	"sesboard/protocol"
)

var (
	sendWait time.Duration

	sendCmd = &cobra.Command{
		Use:   "send <duty N | motor on|off | led red|yellow|green on|off | report>",
		Short: "Send one command to the board",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseCommand(args)
			if err != nil {
				return err
			}
			host, log, err := setup()
			if err != nil {
				return err
			}

			mon := monitor.New(log, host.Log.FramesPerS)
			m, err := connect(cmd.Context(), host, log, mon)
			if err != nil {
				log.Error("send failed", logx.Err(err))
				return err
			}
			defer m.Close()

			if err := m.Send(c); err != nil {
				log.Error("send failed", logx.Err(err))
				return err
			}
			log.Info("sent", logx.String("cmd", strings.Join(args, " ")))

			// leave time for the reply
			select {
			case <-cmd.Context().Done():
			case <-time.After(sendWait):
			}
			return nil
		},
	}
)

func init() {
	sendCmd.Flags().DurationVarP(&sendWait, "wait", "w", 500*time.Millisecond, "how long to log replies")
}

// parseCommand turns command line words into a board command
func parseCommand(args []string) (*protocol.Command, error) {
	if len(args) == 0 {
		return nil, errors.New("no command")
	}
	switch args[0] {
	case "duty":
		if len(args) != 2 {
			return nil, errors.New("usage: duty <0-255>")
		}
		v, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return nil, fmt.Errorf("duty %q: %w", args[1], err)
		}
		return &protocol.Command{Op: protocol.CmdSetDuty, Value: int32(v)}, nil

	case "motor":
		if len(args) != 2 {
			return nil, errors.New("usage: motor on|off")
		}
		on, err := parseOnOff(args[1])
		if err != nil {
			return nil, err
		}
		return &protocol.Command{Op: protocol.CmdMotor, Value: boolValue(on)}, nil

	case "led":
		if len(args) != 3 {
			return nil, errors.New("usage: led red|yellow|green on|off")
		}
		led, err := parseLED(args[1])
		if err != nil {
			return nil, err
		}
		on, err := parseOnOff(args[2])
		if err != nil {
			return nil, err
		}
		return &protocol.Command{Op: protocol.CmdLED, Value: int32(led)<<1 | boolValue(on)}, nil

	case "report":
		return &protocol.Command{Op: protocol.CmdReport}, nil
	}
	return nil, fmt.Errorf("unknown command %q", args[0])
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func parseLED(s string) (core.LED, error) {
	for _, led := range []core.LED{core.LEDRed, core.LEDYellow, core.LEDGreen} {
		if strings.EqualFold(s, led.String()) {
			return led, nil
		}
	}
	return 0, fmt.Errorf("unknown LED %q", s)
}

func boolValue(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
