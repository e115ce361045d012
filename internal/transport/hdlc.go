package transport

import (
	"github.com/snksoft/crc"

	"github.com/orp-io/orp/internal/logger"
)

const (
	hdlcFlag   = 0x7E
	hdlcEscape = 0x7D
	hdlcXOR    = 0x20
)

// fcsSize is the CRC-16/CCITT-FALSE frame check sequence appended to every
// frame, most significant byte first.
const fcsSize = 2

// maxFrameSize bounds the receive buffer so a stream that never closes a
// frame cannot grow it without limit.
const maxFrameSize = 4096

// HDLC frames packets between 0x7E flags with 0x7D escaping and a CRC-16
// frame check sequence, the asynchronous HDLC-style framing the device UART
// speaks. Back-to-back flags and wake-up preambles from the peer are
// tolerated as empty frames.
type HDLC struct {
	// wire samples the per-frame drop logs; a noisy line corrupts frames
	// far faster than anyone can read about it.
	wire *logger.SampledLogger

	inFrame bool
	escaped bool
	buf     []byte
}

// NewHDLC returns a framer with an idle receive state.
func NewHDLC(log logger.Logger) *HDLC {
	return &HDLC{wire: logger.NewWireLogger(log.WithField("framing", FramingHDLC))}
}

// Name returns the configuration name of this framing.
func (h *HDLC) Name() string {
	return FramingHDLC
}

// Frame wraps one packet: opening flag, escaped payload and check sequence,
// closing flag.
func (h *HDLC) Frame(pkt []byte) []byte {
	fcs := uint16(crc.CalculateCRC(crc.CCITT, pkt))

	out := make([]byte, 0, len(pkt)+6)
	out = append(out, hdlcFlag)
	out = appendEscaped(out, pkt)
	out = appendEscaped(out, []byte{byte(fcs >> 8), byte(fcs)})
	return append(out, hdlcFlag)
}

// appendEscaped copies src, replacing flag and escape bytes with the escape
// byte followed by the value XORed with 0x20.
func appendEscaped(dst, src []byte) []byte {
	for _, b := range src {
		if b == hdlcFlag || b == hdlcEscape {
			dst = append(dst, hdlcEscape, b^hdlcXOR)
			continue
		}
		dst = append(dst, b)
	}
	return dst
}

// Feed consumes raw bytes from the port and returns the packets whose frames
// completed. Corrupt frames are counted, logged and dropped; the stream
// resynchronizes at the next flag.
func (h *HDLC) Feed(chunk []byte) [][]byte {
	var pkts [][]byte
	for _, b := range chunk {
		switch {
		case b == hdlcFlag:
			if h.escaped {
				// A flag inside an escape sequence means the frame was
				// truncated. The flag still re-arms the receiver below.
				h.drop("dangling_escape")
			} else if h.inFrame && len(h.buf) > 0 {
				if pkt, ok := h.closeFrame(); ok {
					pkts = append(pkts, pkt)
				}
			}
			h.inFrame = true
			h.escaped = false
			h.buf = h.buf[:0]

		case !h.inFrame:
			// Noise between frames; keep hunting for a flag.

		case b == hdlcEscape:
			if h.escaped {
				h.drop("escaped_escape")
				continue
			}
			h.escaped = true

		case h.escaped:
			h.escaped = false
			h.append(b ^ hdlcXOR)

		default:
			h.append(b)
		}
	}
	return pkts
}

func (h *HDLC) append(b byte) {
	if len(h.buf) >= maxFrameSize {
		h.drop("frame_too_long")
		return
	}
	h.buf = append(h.buf, b)
}

// closeFrame verifies the check sequence over the unescaped payload and
// returns it. The two trailing bytes are the FCS, high byte first.
func (h *HDLC) closeFrame() ([]byte, bool) {
	if len(h.buf) <= fcsSize {
		h.drop("frame_too_short")
		return nil, false
	}

	payload := h.buf[:len(h.buf)-fcsSize]
	received := uint16(h.buf[len(h.buf)-2])<<8 | uint16(h.buf[len(h.buf)-1])
	calculated := uint16(crc.CalculateCRC(crc.CCITT, payload))
	if calculated != received {
		h.wire.WarnWithCategory(logger.CategoryFraming, "FCS mismatch, dropping frame", logger.Fields{
			"calculated": calculated,
			"received":   received,
		})
		framingErrorsTotal.WithLabelValues(FramingHDLC, "fcs_mismatch").Inc()
		return nil, false
	}

	pkt := make([]byte, len(payload))
	copy(pkt, payload)
	return pkt, true
}

// drop abandons the frame being collected and hunts for the next flag.
func (h *HDLC) drop(reason string) {
	framingErrorsTotal.WithLabelValues(FramingHDLC, reason).Inc()
	h.wire.WarnWithCategory(logger.CategoryFraming, "Dropping corrupt frame", logger.Fields{"reason": reason})
	h.inFrame = false
	h.escaped = false
	h.buf = h.buf[:0]
}

// Preamble returns count raw flag bytes. Written ahead of a frame they
// rouse the peer UART without being mistaken for frame content, since
// back-to-back flags delimit empty frames.
func (h *HDLC) Preamble(count int) []byte {
	if count <= 0 {
		return nil
	}
	p := make([]byte, count)
	for i := range p {
		p[i] = hdlcFlag
	}
	return p
}
