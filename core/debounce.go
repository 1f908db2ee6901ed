package core

import "sync/atomic"

// DebounceSamples is the length of the sample history. An input must read
// asserted in this many consecutive polls before it counts as asserted.
const DebounceSamples = 5

// Sampler reads the watched inputs of a group into a bitmask, one bit per
// input, set when the input is asserted.
type Sampler func() uint8

// Debouncer filters a group of up to eight digital inputs. Poll is expected
// to run from the scheduler's Run context only.
type Debouncer struct {
	sample    Sampler
	history   [DebounceSamples]uint8
	index     uint8
	debounced uint8

	press   [8]func()
	release [8]func()
	change  func(prev, next uint8)
}

// NewDebouncer creates a filter that reads its inputs through sample
func NewDebouncer(sample Sampler) *Debouncer {
	return &Debouncer{sample: sample}
}

// SetCallback binds fn to input bit becoming asserted. A nil fn unbinds it.
func (d *Debouncer) SetCallback(bit uint8, fn func()) {
	if bit < 8 {
		d.press[bit] = fn
	}
}

// SetReleaseCallback binds fn to input bit being released
func (d *Debouncer) SetReleaseCallback(bit uint8, fn func()) {
	if bit < 8 {
		d.release[bit] = fn
	}
}

// OnChange installs a hook run after the per-bit callbacks whenever the
// debounced mask changes
func (d *Debouncer) OnChange(fn func(prev, next uint8)) {
	d.change = fn
}

// State returns the debounced mask
func (d *Debouncer) State() uint8 {
	return d.debounced
}

// Poll takes one sample and feeds it to the filter
func (d *Debouncer) Poll() {
	d.Feed(d.sample())
}

// Feed stores raw in the history and recomputes the debounced mask as the
// AND of the whole history. It returns true if the mask changed.
func (d *Debouncer) Feed(raw uint8) bool {
	d.history[d.index] = raw
	d.index++
	if d.index == DebounceSamples {
		d.index = 0
	}

	stable := uint8(0xFF)
	for _, h := range d.history {
		stable &= h
	}
	if stable == d.debounced {
		return false
	}

	prev := d.debounced
	d.debounced = stable
	d.notify(prev, stable)
	if d.change != nil {
		d.change(prev, stable)
	}
	return true
}

// notify fires release callbacks for cleared bits and press callbacks for
// newly asserted bits, lowest bit first
func (d *Debouncer) notify(prev, next uint8) {
	fell := prev &^ next
	rose := next &^ prev
	for b := uint8(0); b < 8; b++ {
		mask := uint8(1) << b
		if fell&mask != 0 && d.release[b] != nil {
			d.release[b]()
		}
		if rose&mask != 0 && d.press[b] != nil {
			d.press[b]()
		}
	}
}

// Group drives a Debouncer from the scheduler. The poll is a scheduler task,
// so samples and callbacks run in Run context rather than in an interrupt.
type Group struct {
	deb   *Debouncer
	sched *Scheduler
	timer *Timer

	// Two one-shot polls alternate so a fire during a running poll can
	// queue the next one while the first is still in the table.
	polls   [2]Task
	started [2]atomic.Bool

	dropped atomic.Uint32
}

// NewGroup binds d to sched
func NewGroup(d *Debouncer, sched *Scheduler) *Group {
	g := &Group{deb: d, sched: sched}
	for i := range g.polls {
		g.polls[i] = Task{Fn: g.run, Param: i}
	}
	return g
}

// StartOnTimer polls once per fire of timer. Each fire queues a one-shot
// poll task. A fire that arrives while a poll is queued and not yet
// sampling is coalesced into it; a fire during a running poll queues the
// next one.
func (g *Group) StartOnTimer(timer *Timer) {
	g.Stop()
	g.timer = timer
	g.polls[0].Period = 0
	timer.SetCallback(CallbackFunc(g.request))
	timer.Start()
}

// StartPeriodic polls every period scheduler ticks
func (g *Group) StartPeriodic(period uint32) bool {
	g.Stop()
	if period == 0 {
		period = 1
	}
	g.polls[0].Period = period
	return g.sched.Add(&g.polls[0])
}

// Stop halts polling
func (g *Group) Stop() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer.SetCallback(NoCallback)
		g.timer = nil
	}
	for i := range g.polls {
		g.sched.Remove(&g.polls[i])
	}
}

// Dropped returns how many timer fires were coalesced or refused
func (g *Group) Dropped() uint32 {
	return g.dropped.Load()
}

// Debouncer returns the filter the group drives
func (g *Group) Debouncer() *Debouncer {
	return g.deb
}

func (g *Group) request(any) {
	free := -1
	for i := range g.polls {
		if !g.sched.Contains(&g.polls[i]) {
			free = i
			continue
		}
		if !g.started[i].Load() {
			g.drop()
			return
		}
	}
	if free < 0 {
		g.drop()
		return
	}
	g.started[free].Store(false)
	if !g.sched.Add(&g.polls[free]) {
		g.drop()
	}
}

func (g *Group) drop() {
	n := g.dropped.Add(1)
	RecordEvent(EvtPollDropped, 0, g.sched.Time(), n, 0)
}

func (g *Group) run(param any) {
	g.started[param.(int)].Store(true)
	g.deb.Poll()
}
