package protocol

// DefaultAckStatus is the literal status byte carried by automatic
// acknowledgments.
const DefaultAckStatus byte = '0'

// AckFor maps a received packet type onto the acknowledgment it requires,
// or ok=false when none is owed. Both a notification and its own ack type
// trigger the reply, mirroring the request/response pairing on the wire.
func AckFor(t PacketType) (PacketType, bool) {
	switch t {
	case TypeSyncSyn, TypeSyncSynAck:
		return TypeSyncAck, true
	case TypeHandlerCall, TypeHandlerCallAck:
		return TypeHandlerCallAck, true
	case TypeSensorCall, TypeSensorCallAck:
		return TypeSensorCallAck, true
	}
	return 0, false
}

// Responder implements the automatic acknowledgment policy: restart syncs
// and unsolicited notifications get an immediate reply so the peer's
// delivery bookkeeping can move on. Stateless; at most one reply per
// received packet.
type Responder struct {
	builder *Builder
	status  byte
}

// NewResponder returns a responder that builds replies through b, consuming
// sequence numbers like any other request.
func NewResponder(b *Builder) *Responder {
	return &Responder{builder: b, status: DefaultAckStatus}
}

// ReplyTo returns the acknowledgment owed for a received packet type.
// ok is false when the type needs no reply.
func (r *Responder) ReplyTo(t PacketType) (pkt []byte, ok bool, err error) {
	kind, ok := AckFor(t)
	if !ok {
		return nil, false, nil
	}
	pkt, err = r.builder.Ack(kind, r.status)
	if err != nil {
		return nil, false, err
	}
	return pkt, true, nil
}
