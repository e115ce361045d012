// Package protocol implements the Octave Resource Protocol (ORP) codec:
// the packet type catalog, status table, sequence numbering, tagged field
// tail, request building and response decoding. The package is transport
// agnostic; framing and I/O live in internal/transport.
package protocol

// PacketType is the first byte of every packet. Request/response pairs share
// a letter and differ by case (uppercase request, lowercase response), except
// for the notification acks where the notification is lowercase and the ack
// uppercase.
type PacketType byte

const (
	TypeInputCreate       PacketType = 'I' // request create input
	TypeInputCreateResp   PacketType = 'i' // response create input
	TypeOutputCreate      PacketType = 'O' // request create output
	TypeOutputCreateResp  PacketType = 'o' // response create output
	TypeDelete            PacketType = 'D' // request delete resource
	TypeDeleteResp        PacketType = 'd' // response delete resource
	TypeHandlerAdd        PacketType = 'H' // request add handler
	TypeHandlerAddResp    PacketType = 'h' // response add handler
	TypeHandlerRemove     PacketType = 'K' // request remove handler
	TypeHandlerRemoveResp PacketType = 'k' // response remove handler
	TypePush              PacketType = 'P' // request push
	TypePushResp          PacketType = 'p' // response push
	TypeGet               PacketType = 'G' // request get
	TypeGetResp           PacketType = 'g' // response get
	TypeExampleSet        PacketType = 'E' // request set example
	TypeExampleSetResp    PacketType = 'e' // response set example
	TypeSensorCreate      PacketType = 'S' // request create sensor
	TypeSensorCreateResp  PacketType = 's' // response create sensor
	TypeSensorRemove      PacketType = 'R' // request remove sensor
	TypeSensorRemoveResp  PacketType = 'r' // response remove sensor

	TypeHandlerCall    PacketType = 'c' // unsolicited handler call
	TypeHandlerCallAck PacketType = 'C' // handler call ack
	TypeSensorCall     PacketType = 'b' // unsolicited sensor poll
	TypeSensorCallAck  PacketType = 'B' // sensor poll ack

	TypeSyncSyn    PacketType = 'Y' // restart sync
	TypeSyncSynAck PacketType = 'z' // restart sync ack
	TypeSyncAck    PacketType = 'y' // restart sync final ack

	TypeUnknownResp PacketType = '?' // response to an unrecognized request
)

// Class groups packet types by their role on the wire.
type Class int

const (
	ClassRequest Class = iota
	ClassResponse
	ClassNotification
	ClassSync
	ClassUnknown
)

// String returns the class name used in logs and metric labels.
func (c Class) String() string {
	switch c {
	case ClassRequest:
		return "request"
	case ClassResponse:
		return "response"
	case ClassNotification:
		return "notification"
	case ClassSync:
		return "sync"
	default:
		return "unknown"
	}
}

// Byte1Role says how the second header byte of a packet is interpreted.
type Byte1Role int

const (
	RoleStatus   Byte1Role = iota // ASCII status code, 0x40 offset
	RoleDataType                  // data type character
	RoleVersion                   // protocol version
)

// TypeInfo describes one entry of the packet type catalog.
type TypeInfo struct {
	Class       Class
	Byte1       Byte1Role
	Description string
}

// catalog is closed: bytes outside it decode to ClassUnknown with the raw
// character preserved. The sync final ack carries a status byte, not a
// version, which is why it is not a RoleVersion entry.
var catalog = map[PacketType]TypeInfo{
	TypeInputCreate:       {ClassRequest, RoleDataType, "request create input"},
	TypeInputCreateResp:   {ClassResponse, RoleStatus, "response create input"},
	TypeOutputCreate:      {ClassRequest, RoleDataType, "request create output"},
	TypeOutputCreateResp:  {ClassResponse, RoleStatus, "response create output"},
	TypeDelete:            {ClassRequest, RoleStatus, "request delete resource"},
	TypeDeleteResp:        {ClassResponse, RoleStatus, "response delete resource"},
	TypeHandlerAdd:        {ClassRequest, RoleStatus, "request add handler"},
	TypeHandlerAddResp:    {ClassResponse, RoleStatus, "response add handler"},
	TypeHandlerRemove:     {ClassRequest, RoleStatus, "request remove handler"},
	TypeHandlerRemoveResp: {ClassResponse, RoleStatus, "response remove handler"},
	TypePush:              {ClassRequest, RoleDataType, "request push"},
	TypePushResp:          {ClassResponse, RoleStatus, "response push"},
	TypeGet:               {ClassRequest, RoleStatus, "request get"},
	TypeGetResp:           {ClassResponse, RoleStatus, "response get"},
	TypeExampleSet:        {ClassRequest, RoleDataType, "request set example"},
	TypeExampleSetResp:    {ClassResponse, RoleStatus, "response set example"},
	TypeSensorCreate:      {ClassRequest, RoleDataType, "request create sensor"},
	TypeSensorCreateResp:  {ClassResponse, RoleStatus, "response create sensor"},
	TypeSensorRemove:      {ClassRequest, RoleStatus, "request remove sensor"},
	TypeSensorRemoveResp:  {ClassResponse, RoleStatus, "response remove sensor"},

	TypeHandlerCall:    {ClassNotification, RoleDataType, "handler call"},
	TypeHandlerCallAck: {ClassResponse, RoleStatus, "handler ack"},
	TypeSensorCall:     {ClassNotification, RoleStatus, "sensor poll"},
	TypeSensorCallAck:  {ClassResponse, RoleStatus, "sensor poll ack"},

	TypeSyncSyn:    {ClassSync, RoleVersion, "sync packet"},
	TypeSyncSynAck: {ClassSync, RoleVersion, "sync ack packet"},
	TypeSyncAck:    {ClassSync, RoleStatus, "sync final ack"},

	TypeUnknownResp: {ClassResponse, RoleStatus, "unknown packet type"},
}

// Info returns the catalog entry for t. ok is false for bytes outside the
// catalog; decoding still proceeds for those.
func (t PacketType) Info() (TypeInfo, bool) {
	info, ok := catalog[t]
	return info, ok
}

// Class returns the catalog class, or ClassUnknown for foreign bytes.
func (t PacketType) Class() Class {
	if info, ok := catalog[t]; ok {
		return info.Class
	}
	return ClassUnknown
}

// Description returns the catalog description, empty for foreign bytes.
func (t PacketType) Description() string {
	if info, ok := catalog[t]; ok {
		return info.Description
	}
	return ""
}

func (t PacketType) String() string {
	return string(rune(t))
}

// DataType is the payload type carried in the second header byte of create,
// push and example requests.
type DataType byte

const (
	DataTrigger   DataType = 'T' // no payload
	DataBoolean   DataType = 'B' // "t" or "f"
	DataNumeric   DataType = 'N' // ASCII decimal, parsed as double
	DataString    DataType = 'S'
	DataJSON      DataType = 'J'
	DataUndefined DataType = ' '
)

// dataTypeNames maps the command line tokens onto wire characters.
var dataTypeNames = map[string]DataType{
	"trig": DataTrigger,
	"bool": DataBoolean,
	"num":  DataNumeric,
	"str":  DataString,
	"json": DataJSON,
}

// DataTypeFromName resolves a command line token (trig, bool, num, str,
// json). The match is exact: abbreviations are rejected.
func DataTypeFromName(name string) (DataType, bool) {
	dt, ok := dataTypeNames[name]
	return dt, ok
}

func (d DataType) String() string {
	switch d {
	case DataTrigger:
		return "trig"
	case DataBoolean:
		return "bool"
	case DataNumeric:
		return "num"
	case DataString:
		return "str"
	case DataJSON:
		return "json"
	default:
		return "undef"
	}
}

// StatusCode indexes the status table. On the wire a status is one ASCII
// byte, statusWireBase plus the index, so OK is '@'.
type StatusCode int

const (
	StatusOK StatusCode = iota
	StatusNotFound
	StatusNotPossible // deprecated
	StatusOutOfRange
	StatusNoMemory
	StatusNotPermitted
	StatusFault
	StatusCommError
	StatusTimeout
	StatusOverflow
	StatusUnderflow
	StatusWouldBlock
	StatusDeadlock
	StatusFormatError
	StatusDuplicate
	StatusBadParameter
	StatusClosed
	StatusBusy
	StatusUnsupported
	StatusIOError
	StatusNotImplemented
	StatusUnavailable
	StatusTerminated

	statusCount
)

const statusWireBase = 0x40

var statusNames = [statusCount]string{
	"OK",
	"NOT FOUND",
	"NOT POSSIBLE",
	"OUT OF RANGE",
	"NO MEMORY",
	"NOT PERMITTED",
	"FAULT",
	"COMM ERROR",
	"TIMEOUT",
	"OVERFLOW",
	"UNDERFLOW",
	"WOULD BLOCK",
	"DEADLOCK",
	"FORMAT ERROR",
	"DUPLICATE",
	"BAD PARAMETER",
	"CLOSED",
	"BUSY",
	"UNSUPPORTED",
	"IO_ERROR",
	"NOT IMPLEMENTED",
	"UNAVAILABLE",
	"TERMINATED",
}

// StatusFromWire maps a status byte back onto the table. ok is false for
// bytes outside [0x40, 0x40+23).
func StatusFromWire(b byte) (StatusCode, bool) {
	if b < statusWireBase || b >= statusWireBase+byte(statusCount) {
		return 0, false
	}
	return StatusCode(b - statusWireBase), true
}

// Wire returns the on-wire byte for the status.
func (s StatusCode) Wire() byte {
	return statusWireBase + byte(s)
}

func (s StatusCode) String() string {
	if s < 0 || s >= statusCount {
		return "INVALID"
	}
	return statusNames[s]
}

// FieldTag identifies one tagged field in the variable length packet tail.
type FieldTag byte

const (
	TagPath     FieldTag = 'P'
	TagTime     FieldTag = 'T'
	TagUnits    FieldTag = 'U'
	TagData     FieldTag = 'D'
	TagSent     FieldTag = 'S'
	TagReceived FieldTag = 'R'
)

// fieldSeparator joins tagged fields in the packet tail.
const fieldSeparator = ','

// headerSize is the fixed packet prefix: type byte, data type / status /
// version byte, and the big endian sequence number.
const headerSize = 4
