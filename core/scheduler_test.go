package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func countTask(n *int) *Task {
	return &Task{Fn: func(any) { *n++ }}
}

func occurrences(s *Scheduler, t *Task) int {
	n := 0
	s.Walk(func(x *Task) bool {
		if x == t {
			n++
		}
		return true
	})
	return n
}

func order(s *Scheduler) []*Task {
	var out []*Task
	s.Walk(func(t *Task) bool {
		out = append(out, t)
		return true
	})
	return out
}

func TestSchedulerAdd(t *testing.T) {
	s := NewScheduler()
	var n int
	task := countTask(&n)
	task.Period = 10

	if !s.Add(task) {
		t.Fatal("Expected first Add to succeed")
	}
	if got := occurrences(s, task); got != 1 {
		t.Errorf("Expected task once in table, found %d", got)
	}
	if s.Add(task) {
		t.Error("Expected duplicate Add to fail")
	}
	if s.Len() != 1 {
		t.Errorf("Expected length 1 after duplicate Add, got %d", s.Len())
	}
	if s.Add(nil) {
		t.Error("Expected Add(nil) to fail")
	}
	if s.Add(&Task{Period: 1}) {
		t.Error("Expected Add of a task without Fn to fail")
	}
	if s.Len() != 1 {
		t.Errorf("Expected failed Adds to leave length 1, got %d", s.Len())
	}
}

func TestSchedulerAddAppendsToTail(t *testing.T) {
	s := NewScheduler()
	var n int
	a, b, c := countTask(&n), countTask(&n), countTask(&n)
	for _, task := range []*Task{a, b, c} {
		s.Add(task)
	}

	got := order(s)
	want := []*Task{a, b, c}
	if len(got) != len(want) {
		t.Fatalf("Expected %d tasks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: wrong task", i)
		}
	}
}

func TestSchedulerTableFull(t *testing.T) {
	s := NewScheduler()
	var n int
	for i := 0; i < MaxTasks; i++ {
		if !s.Add(countTask(&n)) {
			t.Fatalf("Add %d failed before the table was full", i)
		}
	}
	if s.Add(countTask(&n)) {
		t.Error("Expected Add to fail on a full table")
	}
	if s.Len() != MaxTasks {
		t.Errorf("Expected length %d, got %d", MaxTasks, s.Len())
	}
}

func TestSchedulerRemove(t *testing.T) {
	tests := []struct {
		name   string
		remove int
		left   []int
	}{
		{name: "head", remove: 0, left: []int{1, 2}},
		{name: "interior", remove: 1, left: []int{0, 2}},
		{name: "tail", remove: 2, left: []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler()
			var n int
			tasks := []*Task{countTask(&n), countTask(&n), countTask(&n)}
			for _, task := range tasks {
				s.Add(task)
			}

			if !s.Remove(tasks[tt.remove]) {
				t.Fatal("Expected Remove to succeed")
			}
			got := order(s)
			if len(got) != len(tt.left) {
				t.Fatalf("Expected %d tasks left, got %d", len(tt.left), len(got))
			}
			for i, idx := range tt.left {
				if got[i] != tasks[idx] {
					t.Errorf("Position %d: expected task %d", i, idx)
				}
			}

			// The tail must still be correct for the next append
			extra := countTask(&n)
			s.Add(extra)
			got = order(s)
			if got[len(got)-1] != extra {
				t.Error("Expected new task at the tail after Remove")
			}
		})
	}
}

func TestSchedulerRemoveNotScheduled(t *testing.T) {
	s := NewScheduler()
	var n int
	a := countTask(&n)
	s.Add(a)

	if s.Remove(countTask(&n)) {
		t.Error("Expected Remove of an unscheduled task to report false")
	}
	if s.Remove(nil) {
		t.Error("Expected Remove(nil) to report false")
	}
	if s.Len() != 1 || !s.Contains(a) {
		t.Error("Table changed by a failed Remove")
	}
}

func TestSchedulerUpdatePeriod(t *testing.T) {
	const period = 7
	s := NewScheduler()
	var n int
	task := countTask(&n)
	task.Period = period
	s.Add(task)

	for i := 1; i < period; i++ {
		s.Update()
		st, _ := s.State(task)
		if st.Execute {
			t.Fatalf("Execute set after only %d updates", i)
		}
		if st.Expire != uint32(period-i) {
			t.Errorf("After %d updates expected expire %d, got %d", i, period-i, st.Expire)
		}
	}

	s.Update()
	st, ok := s.State(task)
	if !ok {
		t.Fatal("Task missing from table")
	}
	if !st.Execute {
		t.Error("Expected execute after period updates")
	}
	if st.Expire != period {
		t.Errorf("Expected expire reset to %d, got %d", period, st.Expire)
	}
}

func TestSchedulerPeriodicTaskStays(t *testing.T) {
	s := NewScheduler()
	var n int
	task := countTask(&n)
	task.Period = 3
	s.Add(task)

	for round := 1; round <= 4; round++ {
		for i := 0; i < 3; i++ {
			s.Update()
		}
		if ran := s.RunPass(); ran != 1 {
			t.Fatalf("Round %d: expected 1 task run, got %d", round, ran)
		}
		if n != round {
			t.Errorf("Round %d: expected %d executions, got %d", round, round, n)
		}
		if !s.Contains(task) {
			t.Fatalf("Round %d: periodic task left the table", round)
		}
		if st, _ := s.State(task); st.Execute {
			t.Errorf("Round %d: execute not cleared after run", round)
		}
	}

	// Passes without ticks run nothing
	if ran := s.RunPass(); ran != 0 {
		t.Errorf("Expected idle pass, ran %d", ran)
	}
}

func TestSchedulerOneShot(t *testing.T) {
	s := NewScheduler()
	var n int
	task := countTask(&n)
	s.Add(task)

	if !s.Contains(task) {
		t.Fatal("One-shot task not in table before running")
	}
	s.Update()
	s.RunPass()

	if n != 1 {
		t.Errorf("Expected one execution, got %d", n)
	}
	if s.Contains(task) {
		t.Error("One-shot task still in table after it ran")
	}

	s.Update()
	s.RunPass()
	if n != 1 {
		t.Errorf("One-shot task ran again: %d executions", n)
	}

	// The descriptor can be reused once removed
	if !s.Add(task) {
		t.Error("Expected re-Add of a finished one-shot to succeed")
	}
}

func TestSchedulerDelay(t *testing.T) {
	tests := []struct {
		name   string
		period uint32
		delay  uint32
		fires  int // update on which the first run becomes ready
	}{
		{name: "one-shot next tick", period: 0, delay: 0, fires: 1},
		{name: "one-shot delayed", period: 0, delay: 4, fires: 4},
		{name: "periodic default", period: 5, delay: 0, fires: 5},
		{name: "periodic early", period: 5, delay: 2, fires: 2},
		{name: "periodic clamped", period: 5, delay: 9, fires: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler()
			var n int
			task := countTask(&n)
			task.Period = tt.period
			task.Delay = tt.delay
			s.Add(task)

			for i := 1; i <= tt.fires; i++ {
				s.Update()
				st, _ := s.State(task)
				if i < tt.fires && st.Execute {
					t.Fatalf("Ready after %d updates, expected %d", i, tt.fires)
				}
				if i == tt.fires && !st.Execute {
					t.Fatalf("Not ready after %d updates", i)
				}
			}
		})
	}
}

func TestSchedulerTaskRemovesItself(t *testing.T) {
	s := NewScheduler()
	var n int
	task := &Task{Period: 1}
	task.Fn = func(any) {
		n++
		s.Remove(task)
	}
	s.Add(task)

	s.Update()
	s.RunPass()
	s.Update()
	s.RunPass()

	if n != 1 {
		t.Errorf("Expected 1 execution, got %d", n)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty table, got %d", s.Len())
	}
}

func TestSchedulerRemoveOtherDuringPass(t *testing.T) {
	s := NewScheduler()
	var ranA, ranB, ranC int
	b := countTask(&ranB)
	b.Period = 1
	a := &Task{Period: 1, Fn: func(any) {
		ranA++
		s.Remove(b)
	}}
	c := countTask(&ranC)
	c.Period = 1

	s.Add(a)
	s.Add(b)
	s.Add(c)
	s.Update()
	if ran := s.RunPass(); ran != 2 {
		t.Errorf("Expected 2 tasks run, got %d", ran)
	}
	if ranA != 1 || ranB != 0 || ranC != 1 {
		t.Errorf("Expected a=1 b=0 c=1, got a=%d b=%d c=%d", ranA, ranB, ranC)
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 tasks left, got %d", s.Len())
	}
}

func TestSchedulerReAddDuringPassIsNewEntry(t *testing.T) {
	s := NewScheduler()
	var ranB int
	b := countTask(&ranB)
	b.Period = 1
	a := &Task{Period: 1, Fn: func(any) {
		// Re-adding b gives it a fresh countdown; it must not run on the
		// stale ready entry from this pass
		s.Remove(b)
		s.Add(b)
	}}

	s.Add(a)
	s.Add(b)
	s.Update()
	s.RunPass()

	if ranB != 0 {
		t.Errorf("Expected re-added task to wait for its countdown, ran %d", ranB)
	}
	if !s.Contains(b) {
		t.Error("Expected re-added task in table")
	}
}

func TestSchedulerTaskAddsDuringPass(t *testing.T) {
	s := NewScheduler()
	var ranChild int
	child := countTask(&ranChild)
	parent := &Task{Fn: func(any) { s.Add(child) }}

	s.Add(parent)
	s.Update()
	s.RunPass()

	if ranChild != 0 {
		t.Error("Task added during pass ran in the same pass")
	}
	if s.Contains(parent) || !s.Contains(child) {
		t.Error("Expected parent removed and child scheduled")
	}

	s.Update()
	s.RunPass()
	if ranChild != 1 {
		t.Errorf("Expected child to run on the next tick, ran %d", ranChild)
	}
}

func TestSchedulerParam(t *testing.T) {
	s := NewScheduler()
	var got any
	s.Add(&Task{Fn: func(p any) { got = p }, Param: "sensor"})
	s.Update()
	s.RunPass()
	if got != "sensor" {
		t.Errorf("Expected param %q, got %v", "sensor", got)
	}
}

func TestSchedulerEndToEnd(t *testing.T) {
	s := NewScheduler()
	var runs int
	a := countTask(&runs)
	a.Period = 5
	s.Add(a)

	for cycle := 1; cycle <= 3; cycle++ {
		for i := 0; i < 5; i++ {
			s.Tick(nil)
			if s.Len() != 1 {
				t.Fatalf("Table length changed to %d", s.Len())
			}
		}
		if st, _ := s.State(a); !st.Execute {
			t.Fatalf("Cycle %d: execute not set after 5 ticks", cycle)
		}
		s.RunPass()
		if st, _ := s.State(a); st.Execute {
			t.Fatalf("Cycle %d: execute not cleared by run", cycle)
		}
		if runs != cycle {
			t.Errorf("Cycle %d: expected %d runs, got %d", cycle, cycle, runs)
		}
	}
	if s.Time() != 15 {
		t.Errorf("Expected SystemTime 15, got %d", s.Time())
	}
}

func TestSchedulerTime(t *testing.T) {
	s := NewScheduler()
	s.SetTime(^uint32(0))
	s.Tick(nil)
	if s.Time() != 0 {
		t.Errorf("Expected SystemTime to wrap to 0, got %d", s.Time())
	}
	s.SetTime(1234)
	if s.Time() != 1234 {
		t.Errorf("Expected 1234, got %d", s.Time())
	}
}

func TestSchedulerIndependentInstances(t *testing.T) {
	s1, s2 := NewScheduler(), NewScheduler()
	var n int
	task := countTask(&n)
	task.Period = 1

	if !s1.Add(task) || !s2.Add(task) {
		t.Fatal("Expected the same descriptor to be addable to two schedulers")
	}
	s1.Tick(nil)
	s1.RunPass()
	s2.RunPass()
	if n != 1 {
		t.Errorf("Expected only s1 to run the task, got %d runs", n)
	}
	if s2.Time() != 0 {
		t.Errorf("s2 time advanced to %d", s2.Time())
	}
}

func TestSchedulerRunConcurrentTicks(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	s.Add(&Task{Period: 2, Fn: func(any) { runs.Add(1) }})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for i := 0; i < 40; i++ {
		s.Tick(nil)
		time.Sleep(200 * time.Microsecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-done; err != context.Canceled {
		t.Errorf("Expected context.Canceled from Run, got %v", err)
	}
	if runs.Load() < 5 {
		t.Errorf("Expected at least 5 runs, got %d", runs.Load())
	}
}
