package wled

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/frame"
)

func gradient(n int) []color.RGB {
	px := make([]color.RGB, n)
	for i := range px {
		px[i] = color.RGB{R: uint8(i), G: uint8(i >> 8), B: uint8(255 - i%256)}
	}
	return px
}

func TestPacketizeFullTree(t *testing.T) {
	data := frame.Flatten(gradient(1610))
	packets, seq, err := Packetize(data, 0)
	require.NoError(t, err)
	require.Len(t, packets, 4)
	assert.Equal(t, uint8(4), seq)

	wantOffsets := []uint32{0, 1440, 2880, 4320}
	wantLengths := []uint16{1440, 1440, 1440, 510}
	var rebuilt []byte
	for i, p := range packets {
		hdr, payload, err := DecodeDDP(p)
		require.NoError(t, err)
		assert.Equal(t, uint8(1), hdr.Version)
		assert.Equal(t, i == 3, hdr.Push, "push on packet %d", i)
		assert.Equal(t, uint8(i+1), hdr.Sequence)
		assert.Equal(t, uint8(DDPTypeRGB), hdr.DataType)
		assert.Equal(t, uint8(DDPDestDisplay), hdr.Destination)
		assert.Equal(t, wantOffsets[i], hdr.Offset)
		assert.Equal(t, wantLengths[i], hdr.Length)
		assert.Len(t, payload, int(wantLengths[i]))
		rebuilt = append(rebuilt, payload...)
	}
	assert.True(t, bytes.Equal(data, rebuilt))
}

func TestPacketHeaderBytes(t *testing.T) {
	packets, _, err := Packetize(frame.Flatten(gradient(481)), 0)
	require.NoError(t, err)
	require.Len(t, packets, 2)

	want := []byte{0x40, 0x01, 0x01, 0x01, 0, 0, 0, 0, 0x05, 0xa0}
	if diff := cmp.Diff(want, packets[0][:DDPHeaderLen]); diff != "" {
		t.Errorf("first header (-want +got):\n%s", diff)
	}
	want = []byte{0x41, 0x02, 0x01, 0x01, 0, 0, 0x05, 0xa0, 0, 3}
	if diff := cmp.Diff(want, packets[1][:DDPHeaderLen]); diff != "" {
		t.Errorf("last header (-want +got):\n%s", diff)
	}
	assert.Len(t, packets[1], DDPHeaderLen+3)
}

func TestSequenceCycles(t *testing.T) {
	_, seq, err := Packetize(make([]byte, 3*DDPMaxData), 14)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), seq)

	packets, _, _ := Packetize(make([]byte, 3), 15)
	hdr, _, err := DecodeDDP(packets[0])
	require.NoError(t, err)
	assert.Equal(t, uint8(1), hdr.Sequence)
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := DecodeDDP([]byte{0x41, 0x01, 0x01})
	assert.Error(t, err)
}

func TestAssembler(t *testing.T) {
	px := gradient(1000)
	packets, _, err := Packetize(frame.Flatten(px), 0)
	require.NoError(t, err)

	var asm Assembler
	for i, p := range packets {
		got, done, err := asm.Feed(p)
		require.NoError(t, err)
		if i < len(packets)-1 {
			assert.False(t, done)
			continue
		}
		require.True(t, done)
		assert.Equal(t, px, got)
	}
}

func TestStreamerOverUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan []color.RGB, 1)
	done := make(chan error, 1)
	go func() {
		done <- Listen(ctx, pc, func(px []color.RGB) { frames <- px })
	}()

	addr := pc.LocalAddr().(*net.UDPAddr)
	s, err := Dial("127.0.0.1", addr.Port, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Begin(ctx))
	px := gradient(700)
	require.NoError(t, s.Send(px))

	select {
	case got := <-frames:
		assert.Equal(t, px, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no frame received")
	}
	require.NoError(t, s.End(ctx))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestStreamerSession(t *testing.T) {
	c, fake := newTestClient(t)
	conn, err := net.Dial("udp", "127.0.0.1:9")
	require.NoError(t, err)
	s := NewStreamer(conn, c)
	defer s.Close()

	require.NoError(t, s.Begin(context.Background()))
	assert.Equal(t, float64(RealtimeTimeout), fake.lastPost()["lor"])
	require.NoError(t, s.End(context.Background()))
	assert.Equal(t, float64(0), fake.lastPost()["lor"])
}
