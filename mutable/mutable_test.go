package mutable_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/dunjams/mutable"
)

// mutableMock used to set up test cases for mutators
type mutableMock struct {
	value int
	order []int
}

func (m *mutableMock) AddDelta(delta int) mutable.MutatorFunc {
	return func() {
		m.value += delta
		m.order = append(m.order, delta)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		deltas   []int
		expected int
	}{
		{deltas: nil, expected: 0},
		{deltas: []int{10}, expected: 10},
		{deltas: []int{10, 20, 30}, expected: 60},
		{deltas: []int{1, -1, 5}, expected: 5},
	}
	for _, test := range tests {
		m := &mutableMock{}
		q := mutable.NewQueue()
		for _, d := range test.deltas {
			q.Put(m.AddDelta(d))
		}
		assert.Equal(t, len(test.deltas), q.Len())
		// nothing applied until the owner asks for it
		assert.Equal(t, 0, m.value)
		assert.Equal(t, len(test.deltas), q.Apply())
		assert.Equal(t, test.expected, m.value)
		if len(test.deltas) > 0 {
			assert.Equal(t, test.deltas, m.order)
		}
		assert.Equal(t, 0, q.Apply())
	}
}

func TestApplyNested(t *testing.T) {
	q := mutable.NewQueue()
	m := &mutableMock{}
	q.Put(func() {
		m.value++
		q.Put(m.AddDelta(10))
	})
	assert.Equal(t, 2, q.Apply())
	assert.Equal(t, 11, m.value)
}

func TestPutWithoutApply(t *testing.T) {
	q := mutable.NewQueue()
	m := &mutableMock{}
	const n = 10000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			q.Put(m.AddDelta(1))
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("put is blocked with %d pending mutators", q.Len())
	}
	assert.Equal(t, n, q.Len())
	assert.Equal(t, n, q.Apply())
	assert.Equal(t, n, m.value)
	assert.Equal(t, 0, q.Len())
}

func TestPutWhileApply(t *testing.T) {
	q := mutable.NewQueue()
	m := &mutableMock{}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				q.Put(m.AddDelta(1))
			}
		}()
	}
	applied := 0
	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	for running := true; running; {
		select {
		case <-finished:
			running = false
		default:
		}
		applied += q.Apply()
	}
	applied += q.Apply()
	assert.Equal(t, 4000, applied)
	assert.Equal(t, 4000, m.value)
}

func TestConcurrentPut(t *testing.T) {
	q := mutable.NewQueue()
	m := &mutableMock{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Put(m.AddDelta(1))
			}
		}()
	}
	wg.Wait()
	q.Apply()
	assert.Equal(t, 800, m.value)
}
