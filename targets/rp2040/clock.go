//go:build rp2040

package main

import "device/rp"

// captureClock is the free-running 1 MHz microsecond timer. The raw low
// word is read so that no other reader's latch is disturbed.
type captureClock struct{}

func (captureClock) Ticks() uint32 { return rp.TIMER.TIMERAWL.Get() }

func (captureClock) Hz() uint32 { return 1_000_000 }
