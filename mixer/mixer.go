// Package mixer sums any number of generators into a single stream.
package mixer

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/log"
	"github.com/dudk/dunjams/mutable"
	"github.com/dudk/dunjams/signal"
)

// Mixer sums the output of its inputs. Inputs are pulled on every buffer and
// dropped after the pull in which they report they are exhausted.
//
// Add, Clear, SetGain and Len are safe for concurrent use. Added inputs join
// on the next pull, so a pull never sees a half-added input. Generate must be
// called from a single goroutine.
type Mixer struct {
	log.Logger
	uid       string
	channels  int
	gain      uint64 // float64 bits
	count     int64
	mutations *mutable.Queue

	// owned by the audio goroutine
	inputs  []dunjams.Generator
	scratch []float64
}

// New returns a mixer which produces buffers of numChannels channels.
func New(numChannels int) *Mixer {
	if numChannels != 1 && numChannels != 2 {
		panic(fmt.Sprintf("mixer with %d channels", numChannels))
	}
	return &Mixer{
		Logger:    log.GetLogger(),
		uid:       dunjams.NewUID(),
		channels:  numChannels,
		gain:      math.Float64bits(1),
		mutations: mutable.NewQueue(),
	}
}

// ID returns unique id of the mixer.
func (m *Mixer) ID() string {
	return m.uid
}

// Add input to the mixer.
func (m *Mixer) Add(g dunjams.Generator) {
	if g == nil {
		return
	}
	atomic.AddInt64(&m.count, 1)
	m.mutations.Put(func() {
		m.inputs = append(m.inputs, g)
	})
}

// Clear drops all inputs on the next pull.
func (m *Mixer) Clear() {
	m.mutations.Put(func() {
		for i := range m.inputs {
			m.inputs[i] = nil
		}
		atomic.AddInt64(&m.count, -int64(len(m.inputs)))
		m.inputs = m.inputs[:0]
	})
}

// SetGain sets the gain applied to the sum.
func (m *Mixer) SetGain(gain float64) {
	atomic.StoreUint64(&m.gain, math.Float64bits(gain))
}

// Gain returns the gain applied to the sum.
func (m *Mixer) Gain() float64 {
	return math.Float64frombits(atomic.LoadUint64(&m.gain))
}

// Len returns the number of inputs including the ones which are about to
// join.
func (m *Mixer) Len() int {
	return int(atomic.LoadInt64(&m.count))
}

// Generate sums inputs into out. Mixer itself never ends.
func (m *Mixer) Generate(out []float64, channels int) bool {
	dunjams.Frames(out, channels)
	if channels != m.channels {
		panic(fmt.Sprintf("mixer of %d channels pulled with %d", m.channels, channels))
	}
	m.mutations.Apply()
	signal.Zero(out)
	if len(m.inputs) == 0 {
		return true
	}
	if cap(m.scratch) < len(out) {
		m.scratch = make([]float64, len(out))
	}
	scratch := m.scratch[:len(out)]

	kept := m.inputs[:0]
	for _, in := range m.inputs {
		ok := in.Generate(scratch, channels)
		signal.Add(out, scratch)
		if ok {
			kept = append(kept, in)
		}
	}
	if removed := len(m.inputs) - len(kept); removed > 0 {
		for i := len(kept); i < len(m.inputs); i++ {
			m.inputs[i] = nil
		}
		atomic.AddInt64(&m.count, -int64(removed))
		if log.Debugging() {
			m.Debug("mixer ", m.uid, ": ", removed, " inputs done")
		}
	}
	m.inputs = kept

	if gain := m.Gain(); gain != 1 {
		signal.Scale(out, gain)
	}
	return true
}
