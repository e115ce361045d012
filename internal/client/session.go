// Package client runs one ORP session: the send path encodes console
// commands into packets and writes them to the serial link, the receive
// goroutine decodes incoming frames and answers sync and notification
// packets. The session also keeps the counters reported by the status API.
package client

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/orp-io/orp/internal/config"
	apperrors "github.com/orp-io/orp/internal/errors"
	"github.com/orp-io/orp/internal/logger"
	"github.com/orp-io/orp/internal/metrics"
	"github.com/orp-io/orp/internal/protocol"
	"github.com/orp-io/orp/internal/transport"
)

// Event is one incoming packet as seen by the receive path: the deframed
// bytes, the decoded record, and the receipt that was sent back for it.
// Record is nil only when the packet was shorter than the fixed header.
type Event struct {
	Raw    []byte
	Record *protocol.Record
	Err    error

	// AutoAck is the receipt type sent automatically for this packet,
	// zero when none was owed or auto-ack is disabled.
	AutoAck protocol.PacketType
}

// EventHandler receives each decoded packet on the session's receive
// goroutine. Handlers must not block: the serial read loop waits for them.
type EventHandler func(Event)

// Session drives the protocol codec over a serial link.
type Session struct {
	id     string
	cfg    *config.Config
	opener transport.Opener
	logger logger.Logger

	// wire samples the per-packet debug logs so a busy link cannot swamp
	// the output.
	wire *logger.SampledLogger

	seq       *protocol.Sequencer
	builder   *protocol.Builder
	responder *protocol.Responder
	autoAck   bool

	// limiter paces outgoing packets; nil when pacing is disabled.
	limiter *rate.Limiter

	handler EventHandler

	// mu guards the link pointer, which is swapped on redial, and the
	// stats carried over from links that have already been torn down.
	mu        sync.Mutex
	link      *transport.Link
	prevStats transport.LinkStats

	redialer *transport.Redialer

	startTime time.Time
	started   int32
	closed    int32

	commands     int64
	commandFails int64
	decodeErrors int64
	autoAcks     int64
	redials      int64

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a session for the given configuration. The opener supplies
// serial ports (real or in-memory), payloads backs file:// push data and
// may be nil.
func New(cfg *config.Config, opener transport.Opener, payloads protocol.PayloadSource, log logger.Logger) *Session {
	id := uuid.New().String()

	seq := protocol.NewSequencer()
	builder := protocol.NewBuilder(seq, payloads)

	s := &Session{
		id:        id,
		cfg:       cfg,
		opener:    opener,
		logger:    log.WithField("session_id", id),
		seq:       seq,
		builder:   builder,
		responder: protocol.NewResponder(builder),
		autoAck:   cfg.Client.AutoAck,
		done:      make(chan struct{}),
	}
	s.wire = logger.NewWireLogger(s.logger)

	if cfg.Client.SendRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Client.SendRate), 1)
	}

	if cfg.Client.Redial.Enabled {
		strategy := transport.NewExponentialBackoff(
			cfg.Client.Redial.InitialDelay,
			cfg.Client.Redial.MaxDelay,
			cfg.Client.Redial.Multiplier,
			cfg.Client.Redial.MaxRetries,
		)
		s.redialer = transport.NewRedialer(strategy, s.logger)
	}

	return s
}

// SetHandler registers the receiver for decoded packets. Must be called
// before Start.
func (s *Session) SetHandler(handler EventHandler) {
	s.handler = handler
}

// ID returns the session identifier used in logs and the status API.
func (s *Session) ID() string {
	return s.id
}

// Start opens the serial link and launches the receive goroutine. The
// context cancels the receive loop; Close tears the session down.
func (s *Session) Start(ctx context.Context) error {
	if err := s.openLink(); err != nil {
		return apperrors.WrapTransportDownError(err, s.cfg.Serial.Device)
	}

	atomic.StoreInt32(&s.started, 1)
	s.startTime = time.Now()
	metrics.IncrementSessions()

	s.logger.WithFields(logger.Fields{
		"device":   s.cfg.Serial.Device,
		"framing":  s.cfg.Framing.Mode,
		"auto_ack": s.autoAck,
	}).Info("Session started")

	go s.run(ctx)
	return nil
}

// Execute encodes one command line and writes the packet to the link. The
// packet actually sent is returned so the caller can display it. Rejected
// commands consume no sequence number; a rejected or unsendable command
// yields a typed error the caller can render.
func (s *Session) Execute(ctx context.Context, line string) ([]byte, error) {
	if s.isClosed() {
		return nil, apperrors.NewTransportDownError(s.cfg.Serial.Device)
	}

	verb := metricVerb(line)
	start := time.Now()

	pkt, err := s.builder.Encode(line)
	if err != nil {
		appErr := apperrors.FromCodec(err)
		atomic.AddInt64(&s.commandFails, 1)
		metrics.IncrementCommandError(verb, string(appErr.Type))
		return nil, appErr
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			atomic.AddInt64(&s.commandFails, 1)
			return nil, err
		}
	}

	if err := s.send(pkt); err != nil {
		atomic.AddInt64(&s.commandFails, 1)
		metrics.IncrementCommandError(verb, string(apperrors.ErrorTypeTransportDown))
		return nil, err
	}

	atomic.AddInt64(&s.commands, 1)
	metrics.RecordPacketSent(protocol.PacketType(pkt[0]).String())
	metrics.RecordCommandDuration(verb, time.Since(start).Seconds())
	s.wire.DebugWithCategory(logger.CategoryPacketSend, "Packet sent", logger.Fields{
		"verb":   verb,
		"length": len(pkt),
	})
	return pkt, nil
}

// Close shuts the session down: the redialer stops, the link closes, and
// the receive goroutine drains out. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		atomic.StoreInt32(&s.closed, 1)

		if s.redialer != nil {
			s.redialer.Stop()
		}
		if link := s.currentLink(); link != nil {
			link.Close()
		}
		close(s.done)

		if atomic.LoadInt32(&s.started) == 1 {
			metrics.DecrementSessions()
		}
		s.logger.Info("Session closed")
	})
	return nil
}

// Done returns a channel closed when the session has shut down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Device returns the configured serial device. Part of the health probe.
func (s *Session) Device() string {
	return s.cfg.Serial.Device
}

// Connected reports whether the serial link is currently open. Part of the
// health probe.
func (s *Session) Connected() bool {
	link := s.currentLink()
	return link != nil && !link.IsClosed()
}

// Stats is a snapshot of the session counters.
type Stats struct {
	ID        string    `json:"id"`
	Device    string    `json:"device"`
	Framing   string    `json:"framing"`
	Connected bool      `json:"connected"`
	AutoAck   bool      `json:"auto_ack"`
	StartedAt time.Time `json:"started_at"`

	LastSequence uint16 `json:"last_sequence"`

	Commands      int64 `json:"commands"`
	CommandErrors int64 `json:"command_errors"`
	DecodeErrors  int64 `json:"decode_errors"`
	AutoAcks      int64 `json:"auto_acks"`
	Redials       int64 `json:"redials"`

	PacketsSent     int64 `json:"packets_sent"`
	PacketsReceived int64 `json:"packets_received"`
	BytesSent       int64 `json:"bytes_sent"`
	BytesReceived   int64 `json:"bytes_received"`
}

// Stats returns the current counters. Link traffic is accumulated across
// redials.
func (s *Session) Stats() Stats {
	st := Stats{
		ID:           s.id,
		Device:       s.cfg.Serial.Device,
		Framing:      s.cfg.Framing.Mode,
		Connected:    s.Connected(),
		AutoAck:      s.autoAck,
		StartedAt:    s.startTime,
		LastSequence: s.seq.Current(),

		Commands:      atomic.LoadInt64(&s.commands),
		CommandErrors: atomic.LoadInt64(&s.commandFails),
		DecodeErrors:  atomic.LoadInt64(&s.decodeErrors),
		AutoAcks:      atomic.LoadInt64(&s.autoAcks),
		Redials:       atomic.LoadInt64(&s.redials),
	}

	s.mu.Lock()
	link, prev := s.link, s.prevStats
	s.mu.Unlock()

	st.PacketsSent = prev.PacketsSent
	st.PacketsReceived = prev.PacketsReceived
	st.BytesSent = prev.BytesSent
	st.BytesReceived = prev.BytesReceived
	if link != nil {
		cur := link.Stats()
		st.PacketsSent += cur.PacketsSent
		st.PacketsReceived += cur.PacketsReceived
		st.BytesSent += cur.BytesSent
		st.BytesReceived += cur.BytesReceived
	}
	return st
}

// run is the receive goroutine: it pumps the link's read loop and, when
// the device fails, redials before resuming. A cancelled context or a
// session close ends it.
func (s *Session) run(ctx context.Context) {
	for {
		link := s.currentLink()
		if link == nil {
			return
		}

		err := link.ReadLoop(ctx, s.handlePacket)

		if ctx.Err() != nil || s.isClosed() {
			return
		}
		if err == nil {
			// The link was closed cleanly underneath the loop.
			return
		}

		s.logger.WithError(err).Error("Serial link lost")
		if s.redialer == nil {
			s.logger.Warn("Redial disabled, session stays disconnected")
			return
		}
		if !s.redialLink(ctx) {
			return
		}
		s.logger.Info("Serial link re-established")
	}
}

// handlePacket decodes one deframed packet, sends the receipt it may owe,
// and hands the event to the registered handler.
func (s *Session) handlePacket(pkt []byte) {
	raw := make([]byte, len(pkt))
	copy(raw, pkt)

	rec, err := protocol.Decode(pkt)
	ev := Event{Raw: raw, Record: rec, Err: err}

	if err != nil {
		atomic.AddInt64(&s.decodeErrors, 1)
		metrics.IncrementDecodeError(string(apperrors.FromCodec(err).Type))
		s.logger.WithError(err).WithField("length", len(pkt)).Warn("Incoming packet failed to decode")
	}

	if rec != nil {
		metrics.RecordPacketReceived(rec.Type.Class().String())
		s.wire.DebugWithCategory(logger.CategoryPacketDecode, "Packet received", logger.Fields{
			"type":     rec.Type.String(),
			"sequence": rec.Sequence,
		})

		if s.autoAck {
			ev.AutoAck = s.acknowledge(rec.Type)
		}
	}

	if s.handler != nil {
		s.handler(ev)
	}
}

// acknowledge sends the automatic receipt owed for a received packet type
// and returns the receipt type, or zero when none was owed or the send
// failed.
func (s *Session) acknowledge(t protocol.PacketType) protocol.PacketType {
	reply, ok, err := s.responder.ReplyTo(t)
	if !ok || err != nil {
		return 0
	}
	if err := s.send(reply); err != nil {
		s.logger.WithError(err).Warn("Failed to send automatic receipt")
		return 0
	}

	kind, _ := protocol.AckFor(t)
	atomic.AddInt64(&s.autoAcks, 1)
	metrics.IncrementAutoAck(t.String())
	metrics.RecordPacketSent(kind.String())
	s.wire.DebugWithCategory(logger.CategoryAutoAck, "Receipt sent", logger.Fields{
		"for":     t.String(),
		"receipt": kind.String(),
	})
	return kind
}

// send writes one packet to the current link.
func (s *Session) send(pkt []byte) error {
	link := s.currentLink()
	if link == nil || link.IsClosed() {
		return apperrors.NewTransportDownError(s.cfg.Serial.Device)
	}
	if err := link.Send(pkt); err != nil {
		return apperrors.FromCodec(err)
	}
	return nil
}

// openLink dials the device and installs the fresh link, folding the old
// link's traffic counters into the carried-over stats.
func (s *Session) openLink() error {
	link, err := transport.Dial(transport.LinkConfig{
		Device:      s.cfg.Serial.Device,
		Baud:        s.cfg.Serial.Baud,
		Framing:     s.cfg.Framing.Mode,
		ReadTimeout: s.cfg.Serial.ReadTimeout,
		SendDelay:   s.cfg.Framing.SendDelay,
		Preamble:    s.cfg.Framing.Preamble,
	}, s.opener, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if old := s.link; old != nil {
		st := old.Stats()
		s.prevStats.PacketsSent += st.PacketsSent
		s.prevStats.PacketsReceived += st.PacketsReceived
		s.prevStats.BytesSent += st.BytesSent
		s.prevStats.BytesReceived += st.BytesReceived
	}
	s.link = link
	s.mu.Unlock()
	return nil
}

// redialLink drives the redialer until the link is back or the strategy
// gives up. Runs on the receive goroutine, so attempts are serialized.
func (s *Session) redialLink(ctx context.Context) bool {
	outcome := make(chan bool, 1)
	s.redialer.SetCallbacks(
		func(context.Context) error {
			atomic.AddInt64(&s.redials, 1)
			metrics.IncrementRedial(s.cfg.Serial.Device)
			return s.openLink()
		},
		func() { outcome <- true },
		func(error) { outcome <- false },
	)
	s.redialer.Start(ctx)

	select {
	case ok := <-outcome:
		return ok
	case <-ctx.Done():
		s.redialer.Stop()
		return false
	case <-s.done:
		s.redialer.Stop()
		return false
	}
}

func (s *Session) currentLink() *transport.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link
}

func (s *Session) isClosed() bool {
	return atomic.LoadInt32(&s.closed) == 1
}

// knownVerbs bounds the verb label on command metrics; anything the
// builder would reject is reported as "unknown".
var knownVerbs = map[string]bool{
	"create":  true,
	"delete":  true,
	"add":     true,
	"push":    true,
	"get":     true,
	"example": true,
	"reply":   true,
	"send":    true,
}

func metricVerb(line string) string {
	verb, _, _ := strings.Cut(line, " ")
	verb = strings.ToLower(verb)
	if knownVerbs[verb] {
		return verb
	}
	return "unknown"
}
