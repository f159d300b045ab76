package wled

import (
	"context"
	"errors"
	"net"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/frame"
	"github.com/san-kum/treelights/internal/monitoring"
)

// Assembler rebuilds frames from DDP packets. Data accumulates by offset
// until a packet with the push flag arrives.
type Assembler struct {
	data []byte
}

// Feed adds one datagram. It returns the completed frame when the datagram
// carried the push flag.
func (a *Assembler) Feed(datagram []byte) ([]color.RGB, bool, error) {
	hdr, payload, err := DecodeDDP(datagram)
	if err != nil {
		return nil, false, err
	}
	end := int(hdr.Offset) + len(payload)
	if end > len(a.data) {
		a.data = append(a.data, make([]byte, end-len(a.data))...)
	}
	copy(a.data[hdr.Offset:], payload)
	if !hdr.Push {
		return nil, false, nil
	}
	pixels := frame.Unflatten(a.data[:end])
	a.data = a.data[:0]
	return pixels, true, nil
}

// Listen receives DDP on conn and calls fn for every completed frame until
// ctx is done. Malformed datagrams are logged and skipped.
func Listen(ctx context.Context, conn net.PacketConn, fn func([]color.RGB)) error {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	var asm Assembler
	buf := make([]byte, 65535)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		pixels, done, err := asm.Feed(buf[:n])
		if err != nil {
			monitoring.Debugf("dropping datagram from %s: %v", from, err)
			continue
		}
		if done {
			fn(pixels)
		}
	}
}
