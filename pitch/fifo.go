package pitch

// fifo is a bounded queue of samples. When it's full, the oldest samples
// are overwritten.
type fifo struct {
	buf   []float32
	start int
	size  int
}

func newFIFO(capacity int) *fifo {
	return &fifo{buf: make([]float32, capacity)}
}

// write appends samples and returns number of overwritten ones.
func (f *fifo) write(samples []float32) int {
	overwritten := 0
	if len(samples) > len(f.buf) {
		overwritten = len(samples) - len(f.buf)
		samples = samples[overwritten:]
	}
	for _, s := range samples {
		end := (f.start + f.size) % len(f.buf)
		f.buf[end] = s
		if f.size == len(f.buf) {
			f.start = (f.start + 1) % len(f.buf)
			overwritten++
		} else {
			f.size++
		}
	}
	return overwritten
}

// read moves len(out) samples into out. It returns false if there are not
// enough samples.
func (f *fifo) read(out []float32) bool {
	if len(out) > f.size {
		return false
	}
	for i := range out {
		out[i] = f.buf[(f.start+i)%len(f.buf)]
	}
	f.start = (f.start + len(out)) % len(f.buf)
	f.size -= len(out)
	return true
}

func (f *fifo) available() int {
	return f.size
}
