package webrtc

const (
	naluTypeStapA = 24
	naluTypeFuA   = 28
)

// h264Reassembler recovers NAL units from H264 RTP payloads (RFC 6184):
// single NAL unit packets, STAP-A aggregates and FU-A fragments. One
// reassembler per track; the fragment buffer is not shared.
type h264Reassembler struct {
	frag []byte
}

// push feeds one RTP payload and emits every complete NAL unit it yields.
// Unsupported packetization types and truncated payloads are dropped.
func (r *h264Reassembler) push(payload []byte, emit func(nalu []byte)) {
	if len(payload) == 0 {
		return
	}

	switch naluType := payload[0] & 0x1f; {
	case naluType >= 1 && naluType <= 23:
		emit(payload)

	case naluType == naluTypeStapA:
		r.pushStapA(payload, emit)

	case naluType == naluTypeFuA:
		r.pushFuA(payload, emit)
	}
}

func (r *h264Reassembler) pushStapA(payload []byte, emit func(nalu []byte)) {
	// One aggregation header byte, then length-prefixed NAL units.
	off := 1
	for off+2 <= len(payload) {
		size := int(payload[off])<<8 | int(payload[off+1])
		off += 2
		if off+size > len(payload) {
			return
		}
		emit(payload[off : off+size])
		off += size
	}
}

func (r *h264Reassembler) pushFuA(payload []byte, emit func(nalu []byte)) {
	if len(payload) < 2 {
		return
	}

	indicator, header := payload[0], payload[1]
	start := header&0x80 != 0
	end := header&0x40 != 0

	if start {
		// The original NAL header is F+NRI from the indicator plus the type
		// carried in the FU header.
		r.frag = append(r.frag[:0], indicator&0xe0|header&0x1f)
	} else if r.frag == nil {
		// Mid-fragment without a start; lost the beginning, drop the rest.
		return
	}
	r.frag = append(r.frag, payload[2:]...)

	if end {
		emit(r.frag)
		r.frag = nil
	}
}
