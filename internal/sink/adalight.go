package sink

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/frame"
)

// Adalight writes frames in the Adalight serial protocol understood by
// most Arduino/ESP LED bridges.
type Adalight struct {
	w io.WriteCloser
}

// OpenAdalight opens a serial port at 8N1 with the given baud rate.
func OpenAdalight(port string, baud int) (*Adalight, error) {
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", port, err)
	}
	return NewAdalight(p), nil
}

// NewAdalight writes frames to w.
func NewAdalight(w io.WriteCloser) *Adalight {
	return &Adalight{w: w}
}

// AdalightHeader is "Ada", the high and low byte of count-1, and their
// checksum.
func AdalightHeader(count int) []byte {
	n := count - 1
	hi, lo := byte(n>>8), byte(n)
	return []byte{'A', 'd', 'a', hi, lo, hi ^ lo ^ 0x55}
}

func (a *Adalight) Send(pixels []color.RGB) error {
	if len(pixels) == 0 {
		return nil
	}
	msg := append(AdalightHeader(len(pixels)), frame.Flatten(pixels)...)
	_, err := a.w.Write(msg)
	return err
}

func (a *Adalight) Close() error { return a.w.Close() }
