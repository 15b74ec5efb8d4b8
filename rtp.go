package hwcodec

import (
	"fmt"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// DefaultMTU is the RTP packet size budget used when none is given.
const DefaultMTU = 1200

// rtpHeaderSize is the fixed RTP header without CSRCs or extensions.
const rtpHeaderSize = 12

// videoClockRate is the RTP clock for every video payload format.
const videoClockRate = 90000

// RTPPacketizer splits encoded packets from a session into RTP packets.
type RTPPacketizer struct {
	codec       DataFormat
	ssrc        uint32
	payloadType uint8
	mtu         int
	sequencer   rtp.Sequencer
	payloader   rtp.Payloader
	mu          sync.Mutex
}

// NewRTPPacketizer creates a packetizer for codec. H.264, VP8, VP9 and AV1
// have RTP payload formats; other formats fail with ErrNotSupported.
func NewRTPPacketizer(codec DataFormat, ssrc uint32, pt uint8, mtu int) (*RTPPacketizer, error) {
	var payloader rtp.Payloader
	switch codec {
	case DataFormatH264:
		payloader = &codecs.H264Payloader{}
	case DataFormatVP8:
		payloader = &codecs.VP8Payloader{}
	case DataFormatVP9:
		payloader = &codecs.VP9Payloader{}
	case DataFormatAV1:
		payloader = &codecs.AV1Payloader{}
	default:
		return nil, fmt.Errorf("%w: no RTP payload format for %s", ErrNotSupported, codec)
	}
	if mtu <= rtpHeaderSize {
		mtu = DefaultMTU
	}
	return &RTPPacketizer{
		codec:       codec,
		ssrc:        ssrc,
		payloadType: pt,
		mtu:         mtu,
		sequencer:   rtp.NewRandomSequencer(),
		payloader:   payloader,
	}, nil
}

// Packetize converts one encoded packet to RTP packets. The RTP timestamp is
// derived from the packet PTS (milliseconds) on the 90 kHz clock and the
// marker bit is set on the last packet.
func (p *RTPPacketizer) Packetize(pkt *Packet) ([]*rtp.Packet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(pkt.Data) == 0 {
		return nil, nil
	}
	if pkt.Codec != DataFormatUnknown && pkt.Codec != p.codec {
		return nil, fmt.Errorf("packet is %s, packetizer is %s", pkt.Codec, p.codec)
	}

	payloads := p.payloader.Payload(uint16(p.mtu-rtpHeaderSize), pkt.Data)
	if len(payloads) == 0 {
		return nil, nil
	}

	timestamp := uint32(pkt.PTS * (videoClockRate / 1000))
	packets := make([]*rtp.Packet, len(payloads))
	for i, payload := range payloads {
		packets[i] = &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         i == len(payloads)-1,
				PayloadType:    p.payloadType,
				SequenceNumber: p.sequencer.NextSequenceNumber(),
				Timestamp:      timestamp,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		}
	}
	return packets, nil
}

// PacketizeAll packetizes a session output sequence in order.
func (p *RTPPacketizer) PacketizeAll(pkts []*Packet) ([]*rtp.Packet, error) {
	var out []*rtp.Packet
	for _, pkt := range pkts {
		packets, err := p.Packetize(pkt)
		if err != nil {
			return out, err
		}
		out = append(out, packets...)
	}
	return out, nil
}

func (p *RTPPacketizer) Codec() DataFormat       { return p.codec }
func (p *RTPPacketizer) SetSSRC(ssrc uint32)     { p.mu.Lock(); p.ssrc = ssrc; p.mu.Unlock() }
func (p *RTPPacketizer) SSRC() uint32            { p.mu.Lock(); defer p.mu.Unlock(); return p.ssrc }
func (p *RTPPacketizer) PayloadType() uint8      { p.mu.Lock(); defer p.mu.Unlock(); return p.payloadType }
func (p *RTPPacketizer) SetPayloadType(pt uint8) { p.mu.Lock(); p.payloadType = pt; p.mu.Unlock() }
func (p *RTPPacketizer) MTU() int                { p.mu.Lock(); defer p.mu.Unlock(); return p.mtu }
