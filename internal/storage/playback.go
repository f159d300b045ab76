package storage

import (
	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/frame"
)

const frameEpsilon = 1e-6

// Playback is an animation that replays recorded frames, looping at the
// end. The frame shown is chosen from elapsed time so replay keeps the
// recording's pace at any output rate.
type Playback struct {
	id     string
	fps    int
	frames [][]color.RGB
}

func NewPlayback(meta RunMetadata, frames [][]color.RGB) *Playback {
	fps := meta.FPS
	if fps < 1 {
		fps = 1
	}
	return &Playback{id: meta.ID, fps: fps, frames: frames}
}

// OpenPlayback loads a run for replay.
func (s *Store) OpenPlayback(runID string) (*Playback, *RunMetadata, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	return NewPlayback(*meta, frames), meta, nil
}

func (p *Playback) Name() string { return "replay " + p.id }

// Index is the recorded frame shown at elapsed seconds. Frame k was
// rendered at elapsed (k+1)/fps, so the first tick shows frame 0.
func (p *Playback) Index(elapsed float64) int {
	if len(p.frames) == 0 {
		return 0
	}
	k := int(elapsed*float64(p.fps)+frameEpsilon) - 1
	return max(k, 0) % len(p.frames)
}

func (p *Playback) Advance(buf *frame.Buffer, _, elapsed float64) {
	if len(p.frames) == 0 {
		buf.Clear()
		return
	}
	buf.CopyFrom(p.frames[p.Index(elapsed)])
}
