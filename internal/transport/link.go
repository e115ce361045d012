package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orp-io/orp/internal/logger"
)

// ErrLinkClosed is returned by Send after the link has been closed.
var ErrLinkClosed = errors.New("link is closed")

// Default link timings. The pauses match the cadence the target modems
// expect on their UART.
const (
	DefaultBaud        = 9600
	DefaultReadTimeout = 100 * time.Millisecond
	DefaultSendDelay   = 100 * time.Millisecond
	DefaultPreamble    = 2
)

// LinkConfig configures a serial link
type LinkConfig struct {
	Device      string
	Baud        int
	Framing     string
	ReadTimeout time.Duration
	SendDelay   time.Duration
	Preamble    int
}

// withDefaults fills zero fields with the package defaults.
func (c LinkConfig) withDefaults() LinkConfig {
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.Framing == "" {
		c.Framing = FramingHDLC
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.SendDelay == 0 {
		c.SendDelay = DefaultSendDelay
	}
	return c
}

// PacketHandler receives each packet deframed from the device.
type PacketHandler func(pkt []byte)

// Link binds an open serial port to a framing. Sends are serialized and
// paced; reads run in ReadLoop, which deframes chunks and hands completed
// packets to a handler.
type Link struct {
	device string
	port   Port
	framer Framer
	logger logger.Logger

	// wire samples the per-chunk read logs.
	wire *logger.SampledLogger

	sendDelay time.Duration
	preamble  int

	startTime time.Time
	stats     LinkStats
	closed    int32

	// sendMu serializes writes so frames from concurrent senders never
	// interleave on the wire.
	sendMu sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
}

// Dial opens the configured device, clears stale input and returns a ready
// link. The caller owns the link and must Close it.
func Dial(cfg LinkConfig, opener Opener, log logger.Logger) (*Link, error) {
	cfg = cfg.withDefaults()

	framer, err := NewFramer(cfg.Framing, log)
	if err != nil {
		return nil, err
	}

	port, err := opener.Open(cfg.Device, cfg.Baud)
	if err != nil {
		return nil, err
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to reset input buffer: %w", err)
	}

	scoped := log.WithField("device", cfg.Device)
	link := &Link{
		device:    cfg.Device,
		port:      port,
		framer:    framer,
		logger:    scoped,
		wire:      logger.NewWireLogger(scoped),
		sendDelay: cfg.SendDelay,
		preamble:  cfg.Preamble,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}

	linkUp.WithLabelValues(cfg.Device).Set(1)
	link.logger.WithFields(logger.Fields{
		"baud":    cfg.Baud,
		"framing": framer.Name(),
	}).Info("Serial link established")

	return link, nil
}

// Send frames one packet and writes it to the device, preceded by the
// framing's wake-up preamble when one is configured. Writes are paced by
// the configured send delay so consecutive frames do not overrun the
// device UART.
func (l *Link) Send(pkt []byte) error {
	if atomic.LoadInt32(&l.closed) == 1 {
		return ErrLinkClosed
	}

	frame := l.framer.Frame(pkt)

	l.sendMu.Lock()
	defer l.sendMu.Unlock()

	if pre := l.framer.Preamble(l.preamble); len(pre) > 0 {
		if err := l.write(pre); err != nil {
			return err
		}
		time.Sleep(l.sendDelay)
	}

	if err := l.write(frame); err != nil {
		return err
	}
	atomic.AddInt64(&l.stats.PacketsSent, 1)
	linkPacketsSent.WithLabelValues(l.device).Inc()

	time.Sleep(l.sendDelay)
	return nil
}

func (l *Link) write(b []byte) error {
	n, err := l.port.Write(b)
	if n > 0 {
		atomic.AddInt64(&l.stats.BytesSent, int64(n))
		linkBytesSent.WithLabelValues(l.device).Add(float64(n))
	}
	if err != nil {
		if atomic.LoadInt32(&l.closed) == 1 {
			return ErrLinkClosed
		}
		return fmt.Errorf("serial write failed: %w", err)
	}
	return nil
}

// ReadLoop reads from the device until the context is cancelled, the link
// is closed, or the device fails. Completed packets are handed to handle on
// the loop goroutine. A device failure closes the link and is returned so
// the caller can decide whether to redial.
func (l *Link) ReadLoop(ctx context.Context, handle PacketHandler) error {
	defer l.Close()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		default:
			// Read timeouts surface as (0, nil) so the loop can
			// observe cancellation between chunks.
			n, err := l.port.Read(buf)
			if n > 0 {
				atomic.AddInt64(&l.stats.BytesReceived, int64(n))
				linkBytesReceived.WithLabelValues(l.device).Add(float64(n))

				pkts := l.framer.Feed(buf[:n])
				l.wire.DebugWithCategory(logger.CategoryLinkRead, "Chunk read", logger.Fields{
					"bytes":   n,
					"packets": len(pkts),
				})
				for _, pkt := range pkts {
					atomic.AddInt64(&l.stats.PacketsReceived, 1)
					linkPacketsReceived.WithLabelValues(l.device).Inc()
					handle(pkt)
				}
			}
			if err != nil {
				if atomic.LoadInt32(&l.closed) == 1 {
					return nil
				}
				l.logger.WithError(err).Error("Serial read error")
				return err
			}
		}
	}
}

// Close closes the link and the underlying port
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		atomic.StoreInt32(&l.closed, 1)

		if l.port != nil {
			l.port.Close()
		}
		close(l.done)

		linkUp.WithLabelValues(l.device).Set(0)
		l.logger.Info("Serial link closed")
	})
	return nil
}

// IsClosed returns whether the link has been closed
func (l *Link) IsClosed() bool {
	return atomic.LoadInt32(&l.closed) == 1
}

// Done returns a channel closed when the link closes
func (l *Link) Done() <-chan struct{} {
	return l.done
}

// Device returns the device path the link was opened on
func (l *Link) Device() string {
	return l.device
}

// Framing returns the name of the framing in use
func (l *Link) Framing() string {
	return l.framer.Name()
}

// StartTime returns when the link was established
func (l *Link) StartTime() time.Time {
	return l.startTime
}

// Stats returns current link statistics
func (l *Link) Stats() LinkStats {
	return LinkStats{
		BytesSent:       atomic.LoadInt64(&l.stats.BytesSent),
		BytesReceived:   atomic.LoadInt64(&l.stats.BytesReceived),
		PacketsSent:     atomic.LoadInt64(&l.stats.PacketsSent),
		PacketsReceived: atomic.LoadInt64(&l.stats.PacketsReceived),
	}
}
