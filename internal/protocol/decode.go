package protocol

import "encoding/binary"

// Record is the decoded view of one incoming packet. Decoding is tolerant:
// every field is optional, and a foreign type byte still produces a record
// with the raw character preserved and an empty description. Empty string
// means a field was absent, except for Data, which keeps its own presence
// flag because an empty payload is legal.
type Record struct {
	Type        PacketType
	Known       bool
	Description string

	// Version is set for sync SYN and SYNACK packets, where the second
	// header byte carries the protocol version instead of a status.
	Version string

	Status    StatusCode
	HasStatus bool

	Sequence uint16

	Path      string
	Timestamp string
	Units     string
	Data      string
	HasData   bool
	Sent      string
	Received  string
}

// Decode interprets one incoming packet. On ErrInvalidStatusByte the
// returned record is still populated apart from the status, and the caller
// is expected to keep receiving; only a packet shorter than the fixed
// header yields a nil record.
func Decode(pkt []byte) (*Record, error) {
	if len(pkt) < headerSize {
		return nil, &ErrMalformedHeader{Length: len(pkt)}
	}

	rec := &Record{
		Type:     PacketType(pkt[0]),
		Sequence: binary.BigEndian.Uint16(pkt[2:4]),
	}
	info, ok := rec.Type.Info()
	rec.Known = ok
	rec.Description = info.Description

	var decodeErr error
	if ok && info.Byte1 == RoleVersion {
		rec.Version = string(rune(pkt[1] + 1))
	} else if st, valid := StatusFromWire(pkt[1]); valid {
		rec.Status, rec.HasStatus = st, true
	} else {
		decodeErr = &ErrInvalidStatusByte{Byte: pkt[1]}
	}

	for _, f := range ParseTail(pkt[headerSize:]) {
		switch f.Tag {
		case TagPath:
			rec.Path = f.Value
		case TagTime:
			rec.Timestamp = f.Value
		case TagUnits:
			rec.Units = f.Value
		case TagData:
			rec.Data = f.Value
			rec.HasData = true
		case TagSent:
			rec.Sent = f.Value
		case TagReceived:
			rec.Received = f.Value
		}
	}
	return rec, decodeErr
}
