// Package effect runs an Animation against a frame buffer and owns the
// start/stop/tick lifecycle shared by every effect.
package effect

import (
	"errors"
	"math"
	"time"

	"github.com/san-kum/treelights/internal/frame"
	"github.com/san-kum/treelights/internal/timeutil"
)

// ErrMissingGeometry is returned when a spatially aware animation is built
// without a spatial model.
var ErrMissingGeometry = errors.New("effect: spatial model required")

// Animation renders one frame into buf. dt is the time since the previous
// frame and elapsed the total time since Start, both in seconds.
// Implementations must not read the wall clock.
type Animation interface {
	Name() string
	Advance(buf *frame.Buffer, dt, elapsed float64)
}

// Effect drives an Animation. It is not safe for concurrent use.
type Effect struct {
	anim     Animation
	ledCount int
	fps      int
	buf      *frame.Buffer
	clock    timeutil.Clock

	running    bool
	frameCount int
	elapsed    float64
	start      time.Time

	onStart func()
	onStop  func()
}

// Option configures an Effect.
type Option func(*Effect)

// WithClock replaces the wall clock used by Tick.
func WithClock(c timeutil.Clock) Option {
	return func(e *Effect) { e.clock = c }
}

// WithOnStart registers a hook run at the end of Start.
func WithOnStart(fn func()) Option {
	return func(e *Effect) { e.onStart = fn }
}

// WithOnStop registers a hook run at the end of Stop.
func WithOnStop(fn func()) Option {
	return func(e *Effect) { e.onStop = fn }
}

// New wraps anim with a zeroed buffer for ledCount LEDs. fps below 1 is
// raised to 1.
func New(anim Animation, ledCount, fps int, opts ...Option) *Effect {
	if fps < 1 {
		fps = 1
	}
	e := &Effect{
		anim:     anim,
		ledCount: ledCount,
		fps:      fps,
		buf:      frame.New(ledCount),
		clock:    timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start zeroes the elapsed time and frame counter and begins running.
func (e *Effect) Start() {
	e.running = true
	e.start = e.clock.Now()
	e.elapsed = 0
	e.frameCount = 0
	if e.onStart != nil {
		e.onStart()
	}
}

// Stop halts the effect; later ticks leave the buffer untouched.
func (e *Effect) Stop() {
	e.running = false
	if e.onStop != nil {
		e.onStop()
	}
}

// Reset clears the buffer and counters without changing the run state.
func (e *Effect) Reset() {
	e.buf.Clear()
	e.frameCount = 0
	e.elapsed = 0
	e.start = e.clock.Now()
}

// Tick advances the animation by the wall time since the last frame.
// The delta is measured against start+elapsed so scheduling jitter never
// accumulates.
func (e *Effect) Tick() *frame.Buffer {
	if !e.running {
		return e.buf
	}
	now := e.clock.Now()
	logical := e.start.Add(time.Duration(e.elapsed * float64(time.Second)))
	dt := now.Sub(logical).Seconds()
	return e.advance(dt)
}

// Step advances the animation by exactly dt seconds, ignoring the clock.
// Used to render frames faster or slower than real time.
func (e *Effect) Step(dt float64) *frame.Buffer {
	if !e.running {
		return e.buf
	}
	return e.advance(dt)
}

func (e *Effect) advance(dt float64) *frame.Buffer {
	e.elapsed += dt
	e.frameCount++
	e.anim.Advance(e.buf, dt, e.elapsed)
	return e.buf
}

// Time is the elapsed animation time in seconds.
func (e *Effect) Time() float64 { return e.elapsed }

// Progress reports the position within a repeating cycle of duration
// seconds, in [0,1). A non-positive duration yields 0.
func (e *Effect) Progress(duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	p := math.Mod(e.elapsed, duration)
	if p < 0 {
		p += duration
	}
	return p / duration
}

func (e *Effect) FrameCount() int { return e.frameCount }
func (e *Effect) Running() bool   { return e.running }
func (e *Effect) FPS() int        { return e.fps }
func (e *Effect) LEDCount() int   { return e.ledCount }
func (e *Effect) Name() string    { return e.anim.Name() }

// FrameTime is the target interval between frames.
func (e *Effect) FrameTime() time.Duration {
	return time.Second / time.Duration(e.fps)
}

// Buffer returns the effect's frame buffer.
func (e *Effect) Buffer() *frame.Buffer { return e.buf }

// Clock returns the clock Tick reads.
func (e *Effect) Clock() timeutil.Clock { return e.clock }
