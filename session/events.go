// session/events.go
package session

import (
	"sync"

	"github.com/Albix4563/peertable/protocol"
)

// ConnState is the peer's connection state as shown to the UI layer.
type ConnState string

const (
	StateOffline ConnState = "offline"
	StateHost    ConnState = "host"
	StateOnline  ConnState = "online"
)

// LocalReady fires once the local peer has an identity.
type LocalReady struct {
	ID string
}

// Message is an application-layer message the session layer does not
// interpret itself. On the host, SenderID is the originating guest.
type Message struct {
	MsgID    uint16
	Payload  []byte
	SenderID string
}

// stream is one typed event feed. Subscribing returns an unsubscribe
// function, mirroring on(event, handler) -> unsubscribe. Handlers fire
// in subscription order.
type stream[T any] struct {
	mutex sync.Mutex
	next  int
	subs  []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

func (s *stream[T]) subscribe(fn func(T)) func() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.next
	s.next++
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})

	return func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *stream[T]) publish(v T) {
	s.mutex.Lock()
	handlers := make([]func(T), 0, len(s.subs))
	for _, sub := range s.subs {
		handlers = append(handlers, sub.fn)
	}
	s.mutex.Unlock()

	for _, fn := range handlers {
		fn(v)
	}
}

// Typed subscriptions. The event set is fixed; payload shapes are
// checked at compile time.

func (m *Manager) OnLocalReady(fn func(LocalReady)) func() {
	return m.localReady.subscribe(fn)
}

func (m *Manager) OnConnectionState(fn func(ConnState)) func() {
	return m.connStates.subscribe(fn)
}

func (m *Manager) OnPlayersChanged(fn func([]protocol.PlayerInfo)) func() {
	return m.playersChanged.subscribe(fn)
}

func (m *Manager) OnPlayerJoined(fn func(protocol.PlayerInfo)) func() {
	return m.playerJoined.subscribe(fn)
}

func (m *Manager) OnPlayerLeft(fn func(string)) func() {
	return m.playerLeft.subscribe(fn)
}

func (m *Manager) OnMessage(fn func(Message)) func() {
	return m.messages.subscribe(fn)
}

func (m *Manager) OnHostClosing(fn func(struct{})) func() {
	return m.hostClosing.subscribe(fn)
}

func (m *Manager) OnKicked(fn func(protocol.KickedPayload)) func() {
	return m.kickedEvents.subscribe(fn)
}

func (m *Manager) OnScoreUpdate(fn func(protocol.ScoreUpdatePayload)) func() {
	return m.scoreUpdates.subscribe(fn)
}

func (m *Manager) OnSessionState(fn func(protocol.SessionStatePayload)) func() {
	return m.sessionStates.subscribe(fn)
}
