//go:build rp2040

package main

import (
	"context"
	_ "embed"
	"machine"
	"time"

	"sesboard/app"
	"sesboard/config"
	"sesboard/core"
	"sesboard/targets/pio"
)

//go:embed board.json
var boardJSON []byte

func main() {
	// Clear any watchdog state left from before the reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}
	InitUSB()

	cfg, err := config.LoadBoard(boardJSON)
	if err != nil {
		// fall back to the stock wiring rather than not booting
		println("board config:", err.Error())
		cfg = config.DefaultBoard()
	}
	core.SetDebugWriter(func(s string) { println(s) })

	pins := gpioPins{}
	hal := core.HAL{
		GPIO:   pins,
		Edges:  pins,
		PWM:    newPWMOutputs(),
		ADC:    newADCInputs(),
		Clock:  captureClock{},
		Timers: &timers,
	}
	timers.enable()

	opts := app.Options{Telemetry: usbWriter{}}
	if cfg.QuadratureKnob {
		opts.Knob = newEncoderKnob(machine.Pin(cfg.Pins.RotaryA), machine.Pin(cfg.Pins.RotaryB))
	}

	board, err := app.New(cfg, hal, opts)
	if err != nil {
		for {
			println("board:", err.Error())
			time.Sleep(time.Second)
		}
	}

	if cfg.Pins.TachSim != 0 {
		tach := pio.NewTachSimulator(0, 0)
		if err := tach.Start(machine.Pin(cfg.Pins.TachSim), 100); err != nil {
			println("tach simulator:", err.Error())
		}
	}

	go usbReaderLoop(board)

	if err := board.Run(context.Background()); err != nil {
		println("board stopped:", err.Error())
	}
}
