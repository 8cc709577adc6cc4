// Package metric publishes counters of real-time components with expvar.
package metric

import (
	"expvar"
	"fmt"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dudk/dunjams/signal"
)

const componentsLabel = "dunjams.components"

const (
	// BufferCounter measures number of pulled buffers.
	BufferCounter = "Buffers"
	// FrameCounter measures number of frames.
	FrameCounter = "Frames"
	// LatencyCounter measures latency between processing calls.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of signal.
	DurationCounter = "Duration"
	// ComponentCounter counts number of metered components.
	ComponentCounter = "Components"
	// LoadCounter is the smoothed processing time of a buffer in
	// milliseconds.
	LoadCounter = "Load"
)

// loadSmoothing is the weight of the previous value in load average.
const loadSmoothing = 0.9

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		BufferCounter,
		FrameCounter,
		LatencyCounter,
		DurationCounter,
		ComponentCounter,
		LoadCounter,
	}
)

// Get metrics values for provided component type.
func Get(component interface{}) map[string]string {
	return getCounters(getType(component))
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

func getCounters(componentType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(componentType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. This closure is needed to postpone metrics
// capture until component is actually running.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when buffer is processed. Elapsed is the time
// spent on processing of the buffer.
type MeasureFunc func(frames int64, elapsed time.Duration)

// Meter creates new meter closure to capture component counters.
func Meter(component interface{}, sampleRate int) ResetFunc {
	t := getType(component)
	metric := components.get(t)
	metric.components.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		var (
			frames         int64
			bufferDuration time.Duration
		)
		return func(s int64, elapsed time.Duration) {
			now := time.Now()
			metric.latency.set(now.Sub(calledAt))
			metric.buffers.Add(1)
			metric.frames.Add(s)
			// recalculate buffer duration only when buffer size has changed
			if frames != s {
				frames = s
				bufferDuration = signal.DurationOf(sampleRate, s)
			}
			metric.duration.add(bufferDuration)
			metric.load.Set(metric.average.Update(elapsed))
			calledAt = now
		}
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(componentType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[componentType]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(componentType)
	m.m[componentType] = metric
	return metric
}

type metric struct {
	key        string
	components *expvar.Int
	buffers    *expvar.Int
	frames     *expvar.Int
	load       *expvar.Float
	latency    *duration
	duration   *duration
	average    *Load
}

func newMetric(componentType string) metric {
	m := metric{
		key:        componentType,
		components: expvar.NewInt(key(componentType, ComponentCounter)),
		buffers:    expvar.NewInt(key(componentType, BufferCounter)),
		frames:     expvar.NewInt(key(componentType, FrameCounter)),
		load:       expvar.NewFloat(key(componentType, LoadCounter)),
		latency:    &duration{},
		duration:   &duration{},
		average:    &Load{},
	}
	expvar.Publish(key(componentType, LatencyCounter), m.latency)
	expvar.Publish(key(componentType, DurationCounter), m.duration)
	return m
}

func key(componentType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, componentType, counter)
}

func getType(component interface{}) string {
	rv := reflect.ValueOf(component)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%v", time.Duration(atomic.LoadInt64(&v.d)))
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}

// Load is an exponential moving average of processing time. It's updated by
// a single goroutine and can be read from any.
type Load struct {
	bits uint64
}

// Update adds new processing time to the average and returns the new value
// in milliseconds.
func (l *Load) Update(elapsed time.Duration) float64 {
	ms := float64(elapsed) / float64(time.Millisecond)
	v := loadSmoothing*l.Milliseconds() + (1-loadSmoothing)*ms
	atomic.StoreUint64(&l.bits, math.Float64bits(v))
	return v
}

// Milliseconds returns current average in milliseconds.
func (l *Load) Milliseconds() float64 {
	return math.Float64frombits(atomic.LoadUint64(&l.bits))
}
