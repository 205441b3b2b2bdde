// network/transport.go
package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Albix4563/peertable/logger"
)

var (
	ErrAlreadyListening = errors.New("transport already listening")
	ErrNotListening     = errors.New("transport not listening")
	ErrBadAddress       = errors.New("malformed join address")
)

const qrImageSize = 256

// acceptBacklog bounds how many handshaken channels may wait for the
// session layer to pick them up.
const acceptBacklog = 16

// Transport opens point-to-point channels keyed by a human-shareable
// session code. Listen serves the host side; Dial opens a guest's
// primary channel.
type Transport interface {
	Listen(code string) (<-chan Channel, error)
	Dial(address string) (Channel, error)
	Close() error
}

// ShareLinker is implemented by transports that can turn a session code
// into a URL worth pasting into a chat.
type ShareLinker interface {
	ShareLink(code string) string
}

// Address is the parsed form of anything a guest may type or paste:
// a full share URL, "host:port/CODE", or a bare session code.
type Address struct {
	Endpoint string
	Code     string
}

// ParseAddress accepts the three join formats. A bare code resolves
// against defaultEndpoint.
func ParseAddress(raw, defaultEndpoint string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{}, ErrBadAddress
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %v", ErrBadAddress, err)
		}
		code := u.Query().Get("session")
		if code == "" {
			code = strings.TrimPrefix(u.Path, "/")
			code = strings.TrimPrefix(code, "session/")
		}
		if u.Host == "" || code == "" {
			return Address{}, ErrBadAddress
		}
		return Address{Endpoint: u.Host, Code: strings.ToUpper(code)}, nil
	}

	if idx := strings.IndexByte(raw, '/'); idx > 0 {
		return Address{Endpoint: raw[:idx], Code: strings.ToUpper(raw[idx+1:])}, nil
	}

	return Address{Endpoint: defaultEndpoint, Code: strings.ToUpper(raw)}, nil
}

// WSTransport serves and dials websocket channels. The host side mounts
// /session/:code for upgrades and /qr/:code for a shareable QR image of
// the join link.
type WSTransport struct {
	ListenAddress string
	PublicURL     string

	upgrader websocket.Upgrader
	mu       sync.Mutex
	server   *http.Server
	accepts  chan Channel
	code     string
}

func NewWSTransport(listenAddress, publicURL string) *WSTransport {
	return &WSTransport{
		ListenAddress: listenAddress,
		PublicURL:     publicURL,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ShareLink builds the join URL guests embed the session code in.
func (t *WSTransport) ShareLink(code string) string {
	base := t.PublicURL
	if base == "" {
		base = "http://" + t.ListenAddress
	}
	return strings.TrimSuffix(base, "/") + "/join?session=" + code
}

func (t *WSTransport) Listen(code string) (<-chan Channel, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.server != nil {
		return nil, ErrAlreadyListening
	}

	t.code = code
	t.accepts = make(chan Channel, acceptBacklog)

	router := httprouter.New()
	router.GET("/session/:code", t.handleUpgrade)
	router.GET("/qr/:code", t.handleQR)

	t.server = &http.Server{Addr: t.ListenAddress, Handler: router}
	go func() {
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Errorf("session listener error: %v", err)
		}
	}()

	logger.Log.Infof("session %s listening on %s", code, t.ListenAddress)
	return t.accepts, nil
}

func (t *WSTransport) handleUpgrade(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	t.mu.Lock()
	code := t.code
	accepts := t.accepts
	t.mu.Unlock()

	if accepts == nil || !strings.EqualFold(p.ByName("code"), code) {
		http.NotFound(w, r)
		return
	}

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnf("failed to upgrade connection from %s: %v", r.RemoteAddr, err)
		return
	}

	// Close may have run while the upgrade was in flight.
	t.mu.Lock()
	open := t.accepts != nil
	t.mu.Unlock()
	if !open {
		conn.Close()
		return
	}
	accepts <- NewWSChannel(conn)
}

func (t *WSTransport) handleQR(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	t.mu.Lock()
	code := t.code
	t.mu.Unlock()

	if !strings.EqualFold(p.ByName("code"), code) {
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(t.ShareLink(code), qrcode.Medium, qrImageSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (t *WSTransport) Dial(address string) (Channel, error) {
	addr, err := ParseAddress(address, t.ListenAddress)
	if err != nil {
		return nil, err
	}

	u := url.URL{Scheme: "ws", Host: addr.Endpoint, Path: "/session/" + addr.Code}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return NewWSChannel(conn), nil
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := t.server.Shutdown(ctx)
	t.server = nil
	// The accepts channel is abandoned, not closed: a handler that
	// raced past the open check must never hit a closed channel.
	t.accepts = nil
	return err
}
