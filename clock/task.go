package clock

import "sync/atomic"

// TaskFunc is executed by a task at tick. It returns the tick of the next
// execution, or false to finish the task.
type TaskFunc func(tick Tick) (next Tick, ok bool)

// Task is a recurring command. Every execution computes its own next tick
// and posts itself back to the scheduler. Stopping the task cancels the
// pending execution, including the one posted by an execution which runs
// concurrently with Stop.
type Task struct {
	sched *Scheduler
	fn    TaskFunc
	run   atomic.Pointer[run]
}

// run is a single period of task activity between Start and Stop.
type run struct {
	next    atomic.Pointer[Command]
	stopped atomic.Bool
}

// NewTask creates a stopped task.
func NewTask(s *Scheduler, fn TaskFunc) *Task {
	return &Task{
		sched: s,
		fn:    fn,
	}
}

// Start schedules the first execution at tick. Starting a running task does
// nothing and returns false.
func (t *Task) Start(first Tick) bool {
	r := &run{}
	if !t.run.CompareAndSwap(nil, r) {
		return false
	}
	t.schedule(r, first)
	return true
}

// Stop cancels the pending execution. Stopping a stopped task does nothing
// and returns false.
func (t *Task) Stop() bool {
	r := t.run.Swap(nil)
	if r == nil {
		return false
	}
	r.stopped.Store(true)
	t.sched.Remove(r.next.Load())
	return true
}

// Running returns true if task is started and not finished.
func (t *Task) Running() bool {
	return t.run.Load() != nil
}

// Next returns the tick of the pending execution.
func (t *Task) Next() (Tick, bool) {
	r := t.run.Load()
	if r == nil {
		return 0, false
	}
	c := r.next.Load()
	if !c.Pending() {
		return 0, false
	}
	return c.Tick(), true
}

func (t *Task) execute(tick Tick, arg interface{}) {
	r := arg.(*run)
	if r.stopped.Load() {
		return
	}
	next, ok := t.fn(tick)
	if !ok {
		t.run.CompareAndSwap(r, nil)
		return
	}
	t.schedule(r, next)
}

// schedule posts the next execution of run. Stop stores the flag before it
// loads the command and schedule does the opposite, so one of them always
// cancels the command.
func (t *Task) schedule(r *run, tick Tick) {
	c := t.sched.PostAtTick(tick, t.execute, r)
	r.next.Store(c)
	if r.stopped.Load() {
		t.sched.Remove(c)
	}
}
