// network/memory.go
package network

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemTransport wires peers together in-process so the session layer and
// the game host can be exercised without real sockets. Delivery is
// reliable and ordered per channel, matching the websocket transport.
type MemTransport struct {
	mu        sync.Mutex
	listeners map[string]chan Channel
	closed    bool
}

func NewMemTransport() *MemTransport {
	return &MemTransport{listeners: make(map[string]chan Channel)}
}

func (t *MemTransport) Listen(code string) (<-chan Channel, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	code = strings.ToUpper(code)
	if _, exists := t.listeners[code]; exists {
		return nil, ErrAlreadyListening
	}

	accepts := make(chan Channel, acceptBacklog)
	t.listeners[code] = accepts
	return accepts, nil
}

func (t *MemTransport) Dial(address string) (Channel, error) {
	addr, err := ParseAddress(address, "")
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	accepts, exists := t.listeners[addr.Code]
	t.mu.Unlock()
	if !exists {
		return nil, ErrNotListening
	}

	local, remote := NewMemPair()
	select {
	case accepts <- remote:
		return local, nil
	default:
		// Backlog full: refuse the dial instead of blocking the caller.
		local.Close()
		remote.Close()
		return nil, ErrNotListening
	}
}

func (t *MemTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	// Accept channels are abandoned, not closed, so a concurrent Dial
	// can never send on a closed channel.
	for code := range t.listeners {
		delete(t.listeners, code)
	}
	return nil
}

// MemChannel is one end of an in-memory channel pair.
type MemChannel struct {
	id        string
	recv      chan *Packet
	peer      *MemChannel
	closeOnce sync.Once
	closed    chan struct{}
}

// NewMemPair returns two connected channel ends. Sends after either end
// closes are silently dropped, mirroring the production transport's
// closed-channel behavior.
func NewMemPair() (*MemChannel, *MemChannel) {
	a := &MemChannel{
		id:     uuid.New().String(),
		recv:   make(chan *Packet, 64),
		closed: make(chan struct{}),
	}
	b := &MemChannel{
		id:     uuid.New().String(),
		recv:   make(chan *Packet, 64),
		closed: make(chan struct{}),
	}
	a.peer = b
	b.peer = a
	return a, b
}

func (c *MemChannel) ID() string {
	return c.id
}

func (c *MemChannel) Send(msgID uint16, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	pkt := &Packet{MsgID: msgID, Data: buf, Length: uint16(len(buf))}

	select {
	case <-c.closed:
		return errors.New("channel closed")
	case <-c.peer.closed:
		return errors.New("peer channel closed")
	case c.peer.recv <- pkt:
		return nil
	}
}

func (c *MemChannel) ReadPacket() (*Packet, error) {
	select {
	case <-c.closed:
		return nil, io.EOF
	case pkt, ok := <-c.recv:
		if !ok {
			return nil, io.EOF
		}
		return pkt, nil
	case <-c.peer.closed:
		// Drain anything already delivered before reporting EOF.
		select {
		case pkt := <-c.recv:
			return pkt, nil
		default:
			return nil, io.EOF
		}
	}
}

func (c *MemChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}

func (c *MemChannel) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}
