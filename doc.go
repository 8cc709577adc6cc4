// Package dunjams is the audio core of a rhythm game: a musical event scheduler
// coupled to a pull-based synthesis graph, plus a debouncer that turns noisy
// pitch estimates into stable note events.
//
// # Concept
//
// Audio is produced by pulling. The output device asks for one buffer at a time
// and every stage of the graph implements a single capability:
//
//	Generator - fills a buffer of interleaved samples and reports whether it
//	            wants to be pulled again.
//
// The stages are:
//
//	clock.Scheduler - the root generator; advances musical time by exactly the
//	                  number of frames pulled and fires due commands;
//	mixer.Mixer     - sums its children and drops the exhausted ones;
//	synth.Note      - additive harmonic oscillator;
//	synth.Envelope  - attack/decay amplitude shape with a hard end.
//
// Independently, the input device feeds pitch.Tracker, which keeps a compacted
// log of pitch events the game reads once per beat.
//
// # Real-time boundaries
//
// Two goroutines are real-time: the output callback, which is the only driver of
// musical time, and the input callback, which is the only writer of pitch
// samples. Neither of them waits on the game goroutine, and the game goroutine
// never waits on them. Requests from other goroutines (post a command, add a
// generator, drain the pitch log) are handed over through mutable.Queue and
// applied by the real-time goroutine at the start of its next buffer.
//
//	tempo, err := clock.NewTempoMap(120)
//	sched, err := clock.NewScheduler(tempo, dunjams.DefaultSampleRate)
//	mix := mixer.New(2)
//	sched.SetGenerator(mix)
//
//	sched.PostAtTick(clock.QuantizeTickUp(sched.Tick(), clock.TicksPerQuarter),
//	    func(tick clock.Tick, arg interface{}) {
//	        mix.Add(synth.NewNote(dunjams.DefaultSampleRate, 60, 0.3, synth.Sine))
//	    }, nil)
package dunjams
