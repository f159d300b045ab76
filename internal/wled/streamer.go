package wled

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/frame"
	"github.com/san-kum/treelights/internal/monitoring"
)

// RealtimeTimeout is the live-override value sent when a stream begins.
const RealtimeTimeout = 255

// Streamer sends frames to a WLED controller as DDP datagrams. When built
// with a Client it also switches the controller into realtime mode for the
// duration of a stream.
type Streamer struct {
	conn   net.Conn
	client *Client

	mu  sync.Mutex
	seq uint8
}

// Dial opens a UDP socket to host:port.
func Dial(host string, port int, client *Client) (*Streamer, error) {
	conn, err := net.Dial("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("wled: dial %s: %w", host, err)
	}
	monitoring.Infof("streaming DDP to %s", conn.RemoteAddr())
	return NewStreamer(conn, client), nil
}

// NewStreamer writes datagrams to conn. client may be nil.
func NewStreamer(conn net.Conn, client *Client) *Streamer {
	return &Streamer{conn: conn, client: client}
}

// Send writes one frame. Datagrams are fire-and-forget; the first write
// error aborts the rest of the frame.
func (s *Streamer) Send(pixels []color.RGB) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	packets, seq, err := Packetize(frame.Flatten(pixels), s.seq)
	if err != nil {
		return err
	}
	s.seq = seq
	for _, p := range packets {
		if _, err := s.conn.Write(p); err != nil {
			return fmt.Errorf("wled: ddp write: %w", err)
		}
	}
	return nil
}

func (s *Streamer) Begin(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.EnableRealtime(ctx, RealtimeTimeout)
}

func (s *Streamer) End(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.DisableRealtime(ctx)
}

func (s *Streamer) Close() error {
	monitoring.Debugf("closing DDP stream")
	return s.conn.Close()
}
