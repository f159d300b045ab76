package sink

import (
	"context"
	"time"

	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/monitoring"
)

// Stats summarizes a finished run.
type Stats struct {
	Frames   int
	Failures int
	Elapsed  time.Duration
}

// AverageFPS is the achieved frame rate.
func (s Stats) AverageFPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Driver feeds an effect's frames to a sink at the effect's frame rate.
type Driver struct {
	sink Sink
}

func NewDriver(s Sink) *Driver {
	return &Driver{sink: s}
}

// Run starts e and streams frames until ctx is done or duration has passed.
// A zero duration runs until cancellation. Pacing uses e's clock: frame k is
// due at k/fps after the start, so a slow frame is caught up rather than
// pushing every later frame back. Send failures are counted and logged but
// never stop the loop.
func (d *Driver) Run(ctx context.Context, e *effect.Effect, duration time.Duration) (Stats, error) {
	var stats Stats
	clock := e.Clock()

	if s, ok := d.sink.(Session); ok {
		if err := s.Begin(ctx); err != nil {
			return stats, err
		}
		defer func() {
			if err := s.End(context.Background()); err != nil {
				monitoring.Warnf("ending sink session: %v", err)
			}
		}()
	}

	monitoring.Infof("starting effect %s at %d fps", e.Name(), e.FPS())
	e.Start()
	defer e.Stop()

	start := clock.Now()
	for {
		select {
		case <-ctx.Done():
			monitoring.Infof("interrupted")
			stats.Elapsed = clock.Since(start)
			return stats, nil
		default:
		}
		if duration > 0 && clock.Since(start) >= duration {
			break
		}

		buf := e.Tick()
		if err := d.sink.Send(buf.Pixels()); err != nil {
			stats.Failures++
			if stats.Failures == 1 {
				monitoring.Warnf("sending frame %d: %v", stats.Frames, err)
			} else {
				monitoring.Debugf("sending frame %d: %v", stats.Frames, err)
			}
		}
		stats.Frames++

		due := time.Duration(stats.Frames) * time.Second / time.Duration(e.FPS())
		if wait := due - clock.Since(start); wait > 0 {
			select {
			case <-ctx.Done():
			case <-clock.After(wait):
			}
		}
	}

	stats.Elapsed = clock.Since(start)
	monitoring.Infof("effect stopped after %d frames (%.1f fps, %d failed)",
		stats.Frames, stats.AverageFPS(), stats.Failures)
	return stats, nil
}
