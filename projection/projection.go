// Package projection holds a guest's read-only copy of the game state.
// Each incoming snapshot replaces the previous one wholesale, so a
// dropped or reordered update never leaves the view permanently stale:
// the next snapshot repairs everything.
package projection

import (
	"sync"

	"github.com/Albix4563/peertable/game/uno"
	"github.com/Albix4563/peertable/protocol"
	"github.com/Albix4563/peertable/session"
)

// Projection is safe for concurrent use: the session loop applies
// snapshots while the UI goroutine reads.
type Projection struct {
	mutex   sync.RWMutex
	localID string
	current protocol.GameSnapshot
	applied int
}

func New() *Projection {
	return &Projection{}
}

// Attach subscribes the projection to a session's game traffic and
// returns the unsubscribe functions.
func (p *Projection) Attach(mgr *session.Manager) []func() {
	return []func(){
		mgr.OnLocalReady(func(lr session.LocalReady) {
			p.mutex.Lock()
			p.localID = lr.ID
			p.mutex.Unlock()
		}),
		mgr.OnMessage(func(msg session.Message) {
			if msg.MsgID != protocol.MsgGameState {
				return
			}
			var snap protocol.GameSnapshot
			if err := protocol.Decode(msg.Payload, &snap); err != nil {
				return
			}
			p.Apply(snap)
		}),
	}
}

// Apply replaces the projected state. Applying the same snapshot twice
// is a no-op as far as any reader can tell.
func (p *Projection) Apply(snap protocol.GameSnapshot) {
	p.mutex.Lock()
	p.current = snap
	p.applied++
	p.mutex.Unlock()
}

// SetLocalID fixes the viewer identity when the projection is built
// outside a session, e.g. on the hosting peer.
func (p *Projection) SetLocalID(id string) {
	p.mutex.Lock()
	p.localID = id
	p.mutex.Unlock()
}

// State returns the last applied snapshot.
func (p *Projection) State() protocol.GameSnapshot {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.current
}

// Hand returns the viewer's private hand from the last snapshot.
func (p *Projection) Hand() []protocol.Card {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return append([]protocol.Card(nil), p.current.Hand...)
}

// Applied reports how many snapshots have been applied.
func (p *Projection) Applied() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.applied
}

// IsMyTurn is derived from the snapshot on every call, never cached.
func (p *Projection) IsMyTurn() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.current.Started && p.current.CurrentPlayerID == p.localID
}

// AwaitingMyColor reports whether the viewer owes the table a color
// choice for a just-played wild.
func (p *Projection) AwaitingMyColor() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.current.AwaitingColor && p.current.PendingWildPlayerID == p.localID
}

// IsPlayable mirrors the host's matching rule so the UI can grey out
// dead cards. The host still has the final word.
func (p *Projection) IsPlayable(card protocol.Card) bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	if !p.current.Started || p.current.AwaitingColor {
		return false
	}
	if card.Color == uno.ColorWild {
		return true
	}
	return card.Color == p.current.CurrentColor || card.Value == p.current.CurrentValue
}
