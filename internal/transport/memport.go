package transport

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// MemPort is an in-memory implementation of Port for testing
type MemPort struct {
	mu      sync.Mutex
	rbuf    []byte
	wbuf    []byte
	closed  bool
	resets  int
	baud    int
	timeout time.Duration
}

// NewMemPort creates a new in-memory port
func NewMemPort() *MemPort {
	return &MemPort{}
}

// Read copies previously queued bytes into b. When nothing is queued it
// behaves like a serial read timeout: a short pause, then (0, nil).
func (p *MemPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, io.EOF
	}
	if len(p.rbuf) == 0 {
		p.mu.Unlock()
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n := copy(b, p.rbuf)
	p.rbuf = p.rbuf[n:]
	p.mu.Unlock()
	return n, nil
}

// Write records b as written to the device
func (p *MemPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, fmt.Errorf("port is closed")
	}
	p.wbuf = append(p.wbuf, b...)
	return len(b), nil
}

// Close closes the port; further reads return io.EOF
func (p *MemPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("port already closed")
	}
	p.closed = true
	return nil
}

// SetReadTimeout records the configured timeout
func (p *MemPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

// ResetInputBuffer discards queued read bytes
func (p *MemPort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rbuf = nil
	p.resets++
	return nil
}

// QueueRead appends bytes for subsequent Reads to return
func (p *MemPort) QueueRead(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rbuf = append(p.rbuf, b...)
}

// Written returns a copy of everything written so far
func (p *MemPort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, len(p.wbuf))
	copy(out, p.wbuf)
	return out
}

// TakeWritten returns everything written so far and clears the record
func (p *MemPort) TakeWritten() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.wbuf
	p.wbuf = nil
	return out
}

// Closed reports whether Close has been called
func (p *MemPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Resets returns how many times ResetInputBuffer was called
func (p *MemPort) Resets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resets
}

// MemOpener hands out in-memory ports keyed by device name
type MemOpener struct {
	mu    sync.Mutex
	ports map[string]*MemPort
	err   error
	opens int
}

// NewMemOpener creates a new in-memory opener
func NewMemOpener() *MemOpener {
	return &MemOpener{
		ports: make(map[string]*MemPort),
	}
}

// Open returns the port registered for device, creating one if needed.
// A closed port is replaced by a fresh one, as reopening a real device would.
func (o *MemOpener) Open(device string, baud int) (Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.opens++
	if o.err != nil {
		return nil, o.err
	}

	port, exists := o.ports[device]
	if !exists || port.Closed() {
		port = NewMemPort()
		o.ports[device] = port
	}
	port.mu.Lock()
	port.baud = baud
	port.mu.Unlock()
	return port, nil
}

// SetErr makes subsequent Opens fail with err; nil restores success
func (o *MemOpener) SetErr(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// Opens returns how many times Open was called
func (o *MemOpener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

// Port returns the current port for device, or nil if never opened
func (o *MemOpener) Port(device string) *MemPort {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ports[device]
}

// Ensure the in-memory implementations satisfy the transport interfaces
var (
	_ Port   = (*MemPort)(nil)
	_ Opener = (*MemOpener)(nil)
)
