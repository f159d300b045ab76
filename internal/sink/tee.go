package sink

import (
	"context"
	"errors"

	"github.com/san-kum/treelights/internal/color"
)

// Tee fans each frame out to several sinks. Every sink receives every frame;
// the errors of all failing sinks are joined.
type Tee struct {
	sinks []Sink
}

func NewTee(sinks ...Sink) *Tee {
	return &Tee{sinks: sinks}
}

func (t *Tee) Send(pixels []color.RGB) error {
	var errs []error
	for _, s := range t.sinks {
		if err := s.Send(pixels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tee) Close() error {
	var errs []error
	for _, s := range t.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Begin opens the session of every member that has one. Members already
// begun are ended again when a later one fails.
func (t *Tee) Begin(ctx context.Context) error {
	for i, s := range t.sinks {
		sess, ok := s.(Session)
		if !ok {
			continue
		}
		if err := sess.Begin(ctx); err != nil {
			t.end(ctx, i)
			return err
		}
	}
	return nil
}

func (t *Tee) End(ctx context.Context) error {
	return t.end(ctx, len(t.sinks))
}

func (t *Tee) end(ctx context.Context, upto int) error {
	var errs []error
	for _, s := range t.sinks[:upto] {
		if sess, ok := s.(Session); ok {
			if err := sess.End(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
