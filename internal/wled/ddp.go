package wled

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// DDP (Distributed Display Protocol) framing.
const (
	DDPHeaderLen       = 10
	DDPMaxData         = 1440
	DDPPixelsPerPacket = DDPMaxData / 3

	// DDPTypeRGB marks 8-bit RGB pixel data.
	DDPTypeRGB = 0x01
	// DDPDestDisplay is the default output device id.
	DDPDestDisplay = 0x01

	ddpVersion1  = 0x40
	ddpVerMask   = 0xc0
	ddpTimecode  = 0x10
	ddpPush      = 0x01
	ddpTimeBytes = 4
)

// LayerTypeDDP is the gopacket layer type for DDP headers.
var LayerTypeDDP = gopacket.RegisterLayerType(14048, gopacket.LayerTypeMetadata{
	Name:    "DDP",
	Decoder: gopacket.DecodeFunc(decodeDDP),
})

// DDP is one DDP packet header. The payload is the pixel bytes starting at
// Offset within the frame.
type DDP struct {
	layers.BaseLayer
	Version     uint8
	Push        bool
	Sequence    uint8
	DataType    uint8
	Destination uint8
	Offset      uint32
	Length      uint16
}

func (d *DDP) LayerType() gopacket.LayerType     { return LayerTypeDDP }
func (d *DDP) CanDecode() gopacket.LayerClass    { return LayerTypeDDP }
func (d *DDP) NextLayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

func (d *DDP) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < DDPHeaderLen {
		df.SetTruncated()
		return fmt.Errorf("ddp: packet of %d bytes shorter than header", len(data))
	}
	flags := data[0]
	d.Version = (flags & ddpVerMask) >> 6
	d.Push = flags&ddpPush != 0
	d.Sequence = data[1] & 0x0f
	d.DataType = data[2]
	d.Destination = data[3]
	d.Offset = binary.BigEndian.Uint32(data[4:8])
	d.Length = binary.BigEndian.Uint16(data[8:10])

	hdr := DDPHeaderLen
	if flags&ddpTimecode != 0 {
		hdr += ddpTimeBytes
		if len(data) < hdr {
			df.SetTruncated()
			return fmt.Errorf("ddp: timecode header truncated")
		}
	}
	d.Contents = data[:hdr]
	d.Payload = data[hdr:]
	if int(d.Length) > len(d.Payload) {
		df.SetTruncated()
	} else {
		d.Payload = d.Payload[:d.Length]
	}
	return nil
}

// SerializeTo prepends the header to whatever is already in b. With
// FixLengths the Length field is taken from the buffered payload.
func (d *DDP) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	payload := len(b.Bytes())
	if opts.FixLengths {
		d.Length = uint16(payload)
	}
	hdr, err := b.PrependBytes(DDPHeaderLen)
	if err != nil {
		return err
	}
	flags := byte(ddpVersion1)
	if d.Version != 0 {
		flags = d.Version << 6
	}
	if d.Push {
		flags |= ddpPush
	}
	hdr[0] = flags
	hdr[1] = d.Sequence & 0x0f
	hdr[2] = d.DataType
	hdr[3] = d.Destination
	binary.BigEndian.PutUint32(hdr[4:8], d.Offset)
	binary.BigEndian.PutUint16(hdr[8:10], d.Length)
	return nil
}

func decodeDDP(data []byte, p gopacket.PacketBuilder) error {
	d := &DDP{}
	if err := d.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(d)
	return p.NextDecoder(d.NextLayerType())
}

// Packetize splits a flattened RGB frame into DDP packets of at most
// DDPMaxData bytes. Sequence numbers continue from seq, cycling 1..15, and
// the returned value is the last one used. Only the final packet carries
// the push flag.
func Packetize(data []byte, seq uint8) ([][]byte, uint8, error) {
	var packets [][]byte
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}

	for off := 0; off < len(data); off += DDPMaxData {
		end := min(off+DDPMaxData, len(data))
		seq = seq%15 + 1
		hdr := &DDP{
			Version:     1,
			Push:        end == len(data),
			Sequence:    seq,
			DataType:    DDPTypeRGB,
			Destination: DDPDestDisplay,
			Offset:      uint32(off),
		}
		if err := gopacket.SerializeLayers(buf, opts, hdr, gopacket.Payload(data[off:end])); err != nil {
			return nil, seq, err
		}
		pkt := make([]byte, len(buf.Bytes()))
		copy(pkt, buf.Bytes())
		packets = append(packets, pkt)
	}
	return packets, seq, nil
}

// DecodeDDP parses one datagram.
func DecodeDDP(datagram []byte) (*DDP, []byte, error) {
	pkt := gopacket.NewPacket(datagram, LayerTypeDDP, gopacket.DecodeOptions{NoCopy: true})
	if errLayer := pkt.ErrorLayer(); errLayer != nil {
		return nil, nil, errLayer.Error()
	}
	layer, ok := pkt.Layer(LayerTypeDDP).(*DDP)
	if !ok {
		return nil, nil, fmt.Errorf("ddp: no DDP layer in %d byte datagram", len(datagram))
	}
	var payload []byte
	if app := pkt.ApplicationLayer(); app != nil {
		payload = app.Payload()
	}
	return layer, payload, nil
}
