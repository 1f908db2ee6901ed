package core

import (
	"context"
	"sync/atomic"
)

// MaxTasks is the capacity of a scheduler's task table
const MaxTasks = 32

const noSlot int8 = -1

// TaskFunc is the entry point of a scheduled task
type TaskFunc func(param any)

// Task describes a unit of work run by a Scheduler. Descriptors are owned by
// the caller and must stay alive while they are scheduled.
type Task struct {
	Fn     TaskFunc
	Param  any
	Period uint32 // ticks between runs, 0 runs once
	Delay  uint32 // ticks before the first run, 0 uses Period
}

// TaskState is a snapshot of a scheduled task's countdown
type TaskState struct {
	Expire  uint32
	Execute bool
}

// slot is one arena entry. Links are indexes into Scheduler.slots and gen
// changes every time the slot is filled or released.
type slot struct {
	task    *Task
	expire  uint32
	execute bool
	gen     uint16
	next    int8
}

type readyEntry struct {
	slot    int8
	gen     uint16
	oneShot bool
}

// Scheduler is a cooperative run-to-completion dispatcher. Update ages the
// table from the tick interrupt; Run executes ready tasks on one goroutine.
type Scheduler struct {
	cs    critical
	slots [MaxTasks]slot
	head  int8
	tail  int8
	count int

	now   atomic.Uint32
	ready readySignal

	// scratch for RunPass, only touched from the Run context
	pass [MaxTasks]readyEntry
	done [MaxTasks]readyEntry
}

// NewScheduler returns an empty scheduler with SystemTime at 0
func NewScheduler() *Scheduler {
	s := &Scheduler{head: noSlot, tail: noSlot}
	for i := range s.slots {
		s.slots[i].next = noSlot
	}
	s.ready.init()
	return s
}

// Add appends t to the task table. It returns false without changing
// anything if t is nil, has no Fn, is already scheduled or the table is full.
func (s *Scheduler) Add(t *Task) bool {
	if t == nil || t.Fn == nil {
		return false
	}

	state := s.cs.enter()
	defer s.cs.exit(state)

	if s.find(t) != noSlot {
		return false
	}
	idx := s.freeSlot()
	if idx == noSlot {
		RecordEvent(EvtTableFull, 0, s.now.Load(), t.Period, uint32(s.count))
		return false
	}

	sl := &s.slots[idx]
	sl.task = t
	sl.gen++
	sl.expire = initialExpire(t)
	sl.execute = false
	sl.next = noSlot

	if s.tail == noSlot {
		s.head = idx
	} else {
		s.slots[s.tail].next = idx
	}
	s.tail = idx
	s.count++

	RecordEvent(EvtTaskAdd, uint8(idx), s.now.Load(), t.Period, uint32(s.count))
	return true
}

// Remove unlinks t from the task table. Removing a task that is not
// scheduled is a no-op and returns false.
func (s *Scheduler) Remove(t *Task) bool {
	if t == nil {
		return false
	}

	state := s.cs.enter()
	defer s.cs.exit(state)

	return s.unlink(t)
}

// Update ages every scheduled task by one tick. It is called from the tick
// interrupt. A task whose countdown reaches zero is re-armed with its period
// and marked ready.
func (s *Scheduler) Update() {
	state := s.cs.enter()
	ready := false
	for i := s.head; i != noSlot; i = s.slots[i].next {
		sl := &s.slots[i]
		if sl.expire != 0 {
			sl.expire--
		}
		if sl.expire == 0 {
			sl.expire = sl.task.Period
			sl.execute = true
			ready = true
		}
	}
	s.cs.exit(state)

	if ready {
		s.ready.notify()
	}
}

// Tick advances SystemTime and then runs Update. It has the TimerCallback
// signature so it can be installed on the scheduler timer directly.
func (s *Scheduler) Tick(arg any) {
	s.now.Add(1)
	s.Update()
}

// RunPass makes one traversal of the table and returns how many tasks ran.
//
// The ready set is captured first, in table order, and periodic entries
// have their flag cleared at that point. Tasks then run with no lock held,
// so they may Add or Remove freely; an entry removed earlier in the same
// pass is skipped. One-shot tasks are unlinked after the whole pass.
//
// RunPass must only be called from one goroutine at a time.
func (s *Scheduler) RunPass() int {
	state := s.cs.enter()
	n := 0
	for i := s.head; i != noSlot; i = s.slots[i].next {
		sl := &s.slots[i]
		if !sl.execute {
			continue
		}
		s.pass[n] = readyEntry{slot: i, gen: sl.gen, oneShot: sl.task.Period == 0}
		n++
		if sl.task.Period > 0 {
			sl.execute = false
		}
	}
	s.cs.exit(state)

	ran, finished := 0, 0
	for _, e := range s.pass[:n] {
		t, ok := s.lookup(e)
		if !ok {
			continue
		}
		t.Fn(t.Param)
		ran++
		if e.oneShot {
			s.done[finished] = e
			finished++
		}
	}

	if finished > 0 {
		state = s.cs.enter()
		for _, e := range s.done[:finished] {
			if sl := &s.slots[e.slot]; sl.gen == e.gen && sl.task != nil {
				s.unlink(sl.task)
			}
		}
		s.cs.exit(state)
	}
	return ran
}

// Run dispatches ready tasks until ctx is cancelled. Between passes that
// find nothing to do it idles until the next Update marks a task ready.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.RunPass() > 0 {
			continue
		}
		if err := s.ready.wait(ctx); err != nil {
			return err
		}
	}
}

// Time returns SystemTime in ticks
func (s *Scheduler) Time() uint32 {
	return s.now.Load()
}

// SetTime overwrites SystemTime
func (s *Scheduler) SetTime(ticks uint32) {
	s.now.Store(ticks)
}

// Len returns the number of scheduled tasks
func (s *Scheduler) Len() int {
	state := s.cs.enter()
	defer s.cs.exit(state)
	return s.count
}

// Contains reports whether t is scheduled
func (s *Scheduler) Contains(t *Task) bool {
	state := s.cs.enter()
	defer s.cs.exit(state)
	return t != nil && s.find(t) != noSlot
}

// State returns the countdown of t, or false if t is not scheduled
func (s *Scheduler) State(t *Task) (TaskState, bool) {
	state := s.cs.enter()
	defer s.cs.exit(state)

	idx := s.find(t)
	if t == nil || idx == noSlot {
		return TaskState{}, false
	}
	sl := &s.slots[idx]
	return TaskState{Expire: sl.expire, Execute: sl.execute}, true
}

// Walk calls fn for every scheduled task in table order until fn returns
// false. fn runs inside the critical section and must not Add or Remove.
func (s *Scheduler) Walk(fn func(t *Task) bool) {
	state := s.cs.enter()
	defer s.cs.exit(state)

	for i := s.head; i != noSlot; i = s.slots[i].next {
		if !fn(s.slots[i].task) {
			return
		}
	}
}

// find returns the slot holding t. Caller holds the critical section.
func (s *Scheduler) find(t *Task) int8 {
	for i := s.head; i != noSlot; i = s.slots[i].next {
		if s.slots[i].task == t {
			return i
		}
	}
	return noSlot
}

func (s *Scheduler) freeSlot() int8 {
	for i := range s.slots {
		if s.slots[i].task == nil {
			return int8(i)
		}
	}
	return noSlot
}

func (s *Scheduler) lookup(e readyEntry) (*Task, bool) {
	state := s.cs.enter()
	defer s.cs.exit(state)

	sl := &s.slots[e.slot]
	if sl.gen != e.gen || sl.task == nil {
		return nil, false
	}
	return sl.task, true
}

// unlink removes t from the list. Caller holds the critical section.
func (s *Scheduler) unlink(t *Task) bool {
	prev := noSlot
	for i := s.head; i != noSlot; i = s.slots[i].next {
		if s.slots[i].task != t {
			prev = i
			continue
		}

		next := s.slots[i].next
		if prev == noSlot {
			s.head = next
		} else {
			s.slots[prev].next = next
		}
		if s.tail == i {
			s.tail = prev
		}

		sl := &s.slots[i]
		sl.task = nil
		sl.expire = 0
		sl.execute = false
		sl.next = noSlot
		sl.gen++
		s.count--

		RecordEvent(EvtTaskRemove, uint8(i), s.now.Load(), t.Period, uint32(s.count))
		return true
	}
	return false
}

func initialExpire(t *Task) uint32 {
	if t.Period == 0 {
		return t.Delay
	}
	if t.Delay == 0 || t.Delay > t.Period {
		return t.Period
	}
	return t.Delay
}
