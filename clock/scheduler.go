package clock

import (
	"container/heap"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/log"
	"github.com/dudk/dunjams/metric"
	"github.com/dudk/dunjams/mutable"
)

// Callback is executed by the scheduler when the tick of a command is
// reached. It's called on the audio goroutine and must not block.
type Callback func(tick Tick, arg interface{})

// compactThreshold is the minimal number of cancelled commands in the queue
// that triggers its compaction.
const compactThreshold = 64

// command states
const (
	pending int32 = iota
	fired
	cancelled
)

// Command is a callback scheduled at a tick. It's returned by PostAtTick and
// can be used to cancel the callback.
type Command struct {
	tick  Tick
	seq   uint64
	cb    Callback
	arg   interface{}
	state atomic.Int32
}

// Tick returns the tick the command is scheduled at.
func (c *Command) Tick() Tick {
	return c.tick
}

// Pending returns true if command is neither executed nor cancelled.
func (c *Command) Pending() bool {
	return c != nil && c.state.Load() == pending
}

// Fired returns true if command was executed.
func (c *Command) Fired() bool {
	return c != nil && c.state.Load() == fired
}

// commands implements a heap ordered by tick, with post order for equal
// ticks.
type commands []*Command

func (q commands) Len() int { return len(q) }

func (q commands) Less(i, j int) bool {
	if q[i].tick != q[j].tick {
		return q[i].tick < q[j].tick
	}
	return q[i].seq < q[j].seq
}

func (q commands) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *commands) Push(x interface{}) {
	*q = append(*q, x.(*Command))
}

func (q *commands) Pop() interface{} {
	old := *q
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return c
}

// Scheduler executes commands at musical ticks. It's driven by the output
// device: every pull advances the sample clock by exactly the number of
// pulled frames, and commands are executed at the frame their tick falls on.
// Audio of the pull is produced by the downstream generator.
//
// Scheduler is a dunjams.Generator. Generate must be called from a single
// goroutine; all other methods are safe for concurrent use.
type Scheduler struct {
	log.Logger
	uid        string
	tempo      *TempoMap
	sampleRate int

	frame     atomic.Int64
	seq       atomic.Uint64
	queued    atomic.Int64
	cancelled atomic.Int64
	inbox     *mutable.Queue

	// owned by the audio goroutine
	queue     commands
	generator dunjams.Generator
	measure   metric.MeasureFunc
	load      metric.Load
}

// NewScheduler returns a scheduler at tick zero.
func NewScheduler(tempo *TempoMap, sampleRate int) (*Scheduler, error) {
	if tempo == nil {
		return nil, fmt.Errorf("%w: tempo map is not defined", ErrInvalidTempo)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	s := &Scheduler{
		Logger:     log.GetLogger(),
		uid:        dunjams.NewUID(),
		tempo:      tempo,
		sampleRate: sampleRate,
		inbox:      mutable.NewQueue(),
		queue:      make(commands, 0, compactThreshold),
	}
	s.measure = metric.Meter(s, sampleRate)()
	return s, nil
}

// ID returns unique id of the scheduler.
func (s *Scheduler) ID() string {
	return s.uid
}

// TempoMap returns tempo map of the scheduler.
func (s *Scheduler) TempoMap() *TempoMap {
	return s.tempo
}

// SampleRate returns sample rate of the sample clock.
func (s *Scheduler) SampleRate() int {
	return s.sampleRate
}

// Frame returns the current position of the sample clock.
func (s *Scheduler) Frame() int64 {
	return s.frame.Load()
}

// Tick returns the current musical position.
func (s *Scheduler) Tick() Tick {
	return s.tempo.FrameToTick(s.frame.Load(), s.sampleRate)
}

// Seconds returns the current position in seconds.
func (s *Scheduler) Seconds() float64 {
	return float64(s.frame.Load()) / float64(s.sampleRate)
}

// Load returns the smoothed time spent on a single pull in milliseconds.
func (s *Scheduler) Load() float64 {
	return s.load.Milliseconds()
}

// Pending returns the number of commands waiting for their tick. Cancelled
// commands are counted until they are reclaimed.
func (s *Scheduler) Pending() int {
	return int(s.queued.Load()) + s.inbox.Len()
}

// SetGenerator sets the generator which produces audio. It takes effect on
// the next pull. The generator is dropped once it reports it's exhausted.
func (s *Scheduler) SetGenerator(g dunjams.Generator) {
	s.inbox.Put(func() {
		s.generator = g
	})
}

// PostAtTick schedules callback at the tick. Commands are executed in tick
// order, commands with equal ticks in the order they were posted. A command
// with a tick in the past is executed on the next pull.
func (s *Scheduler) PostAtTick(tick Tick, cb Callback, arg interface{}) *Command {
	c := &Command{
		tick: tick,
		seq:  s.seq.Add(1),
		cb:   cb,
		arg:  arg,
	}
	s.inbox.Put(func() {
		s.push(c)
	})
	return c
}

// Remove cancels the command. It returns true if the command was pending and
// is now cancelled. Removing nil, executed or already cancelled command does
// nothing.
func (s *Scheduler) Remove(c *Command) bool {
	if c == nil {
		return false
	}
	if c.state.CompareAndSwap(pending, cancelled) {
		s.cancelled.Add(1)
		return true
	}
	return false
}

// Generate executes due commands and pulls the generator. Buffer is split at
// the frames of executed commands, so generators added by a command sound
// from its exact frame.
func (s *Scheduler) Generate(out []float64, channels int) bool {
	started := time.Now()
	frames := dunjams.Frames(out, channels)
	s.inbox.Apply()
	s.compact()

	start := s.frame.Load()
	end := start + int64(frames)
	rendered := 0
	for len(s.queue) > 0 {
		c := s.queue[0]
		if c.state.Load() == cancelled {
			heap.Pop(&s.queue)
			s.cancelled.Add(-1)
			continue
		}
		at := s.tempo.TickToFrame(c.tick, s.sampleRate)
		if at >= end {
			break
		}
		if offset := int(at - start); offset > rendered {
			s.render(out[rendered*channels:offset*channels], channels)
			rendered = offset
			s.frame.Store(at)
		}
		heap.Pop(&s.queue)
		if c.state.CompareAndSwap(pending, fired) {
			c.cb(c.tick, c.arg)
		} else {
			s.cancelled.Add(-1)
		}
		// commands posted by the callback can be due in this buffer
		s.inbox.Apply()
	}
	s.render(out[rendered*channels:], channels)
	s.frame.Store(end)
	s.queued.Store(int64(len(s.queue)))

	elapsed := time.Since(started)
	s.load.Update(elapsed)
	s.measure(int64(frames), elapsed)
	return true
}

// render pulls the generator into out.
func (s *Scheduler) render(out []float64, channels int) {
	if len(out) == 0 {
		return
	}
	if s.generator == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	if !s.generator.Generate(out, channels) {
		if log.Debugging() {
			s.Debug("scheduler ", s.uid, ": generator is done")
		}
		s.generator = nil
	}
}

// push adds command to the queue. Commands cancelled before they reached the
// queue are dropped.
func (s *Scheduler) push(c *Command) {
	if c.state.Load() == cancelled {
		s.cancelled.Add(-1)
		return
	}
	heap.Push(&s.queue, c)
}

// compact reclaims cancelled commands when they make up most of the queue.
func (s *Scheduler) compact() {
	n := s.cancelled.Load()
	if n < compactThreshold || int(n)*2 < len(s.queue) {
		return
	}
	kept := s.queue[:0]
	removed := 0
	for _, c := range s.queue {
		if c.state.Load() == cancelled {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = nil
	}
	s.queue = kept
	heap.Init(&s.queue)
	s.cancelled.Add(int64(-removed))
	if log.Debugging() {
		s.Debug("scheduler ", s.uid, ": reclaimed ", removed, " cancelled commands")
	}
}
