// Package host wires a game engine to a session as its single
// authority. Guests never mutate game state: their actions arrive as
// intents, the authority validates and applies them against the one
// canonical engine, and every accepted mutation goes back out as
// complete per-recipient snapshots.
package host

import (
	"sync"

	"github.com/Albix4563/peertable/game"
	"github.com/Albix4563/peertable/logger"
	"github.com/Albix4563/peertable/monitor"
	"github.com/Albix4563/peertable/protocol"
	"github.com/Albix4563/peertable/session"
)

const defaultMinPlayers = 2

// Options configures an Authority. MoveGuard, OnSnapshot and Monitor
// may be nil.
type Options struct {
	MinPlayers int

	// MoveGuard runs before any validated move mutates state. Returning
	// a notice vetoes the move with a targeted error.
	MoveGuard func(playerID string, action protocol.GameAction) *protocol.Notice

	// OnSnapshot receives the host's own view after every broadcast, so
	// the local UI stays in the same update path as every guest.
	OnSnapshot func(protocol.GameSnapshot)

	Monitor *monitor.Monitor
}

// Authority owns the canonical engine on the hosting peer. All engine
// access is serialized: session callbacks already arrive one at a time
// from the session loop, and the mutex extends that guarantee to calls
// from other goroutines.
type Authority struct {
	mgr    *session.Manager
	engine game.Engine
	opts   Options

	mutex  sync.Mutex
	unsubs []func()
}

func NewAuthority(mgr *session.Manager, engine game.Engine, opts Options) *Authority {
	if opts.MinPlayers <= 0 {
		opts.MinPlayers = defaultMinPlayers
	}
	a := &Authority{mgr: mgr, engine: engine, opts: opts}
	engine.SetHooks(a)

	a.unsubs = append(a.unsubs,
		mgr.OnMessage(a.handleMessage),
		mgr.OnPlayerJoined(a.handlePlayerJoined),
		mgr.OnPlayerLeft(a.handlePlayerLeft),
	)
	return a
}

// Close detaches the authority from the session's event bus. The engine
// keeps whatever state it had.
func (a *Authority) Close() {
	for _, unsub := range a.unsubs {
		unsub()
	}
	a.unsubs = nil
}

// StartRound deals a new round over the current roster. The returned
// notice, if any, names why the round could not start.
func (a *Authority) StartRound() *protocol.Notice {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.startRoundLocked()
}

func (a *Authority) startRoundLocked() *protocol.Notice {
	players := a.mgr.Players()
	if len(players) < a.opts.MinPlayers {
		return &protocol.Notice{Key: game.KeyNeedPlayers}
	}
	seats := make([]game.Seat, 0, len(players))
	for _, p := range players {
		seats = append(seats, game.Seat{ID: p.ID, Nickname: p.Nickname, Score: p.Score})
	}
	if notice := a.engine.StartRound(seats); notice != nil {
		return notice
	}
	logger.Log.Infof("round started with %d players", len(seats))
	return nil
}

// Submit applies the host's own move through the same validation path
// guests go through.
func (a *Authority) Submit(action protocol.GameAction) *protocol.Notice {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	out := a.applyLocked(a.mgr.LocalID(), action)
	if out.Reject != nil {
		return out.Reject
	}
	return nil
}

// BeforeMove implements game.Hooks.
func (a *Authority) BeforeMove(playerID string, action protocol.GameAction) *protocol.Notice {
	if a.opts.MoveGuard != nil {
		return a.opts.MoveGuard(playerID, action)
	}
	return nil
}

// AfterStateChange implements game.Hooks: one accepted mutation, one
// snapshot per recipient. Holding the mutex is the caller's job, since
// the engine only fires this from inside a guarded call.
func (a *Authority) AfterStateChange() {
	a.broadcastLocked()
}

func (a *Authority) broadcastLocked() {
	for _, p := range a.mgr.Players() {
		snap := a.engine.SnapshotFor(p.ID)
		if p.ID == a.mgr.LocalID() {
			if a.opts.OnSnapshot != nil {
				a.opts.OnSnapshot(snap)
			}
			continue
		}
		if err := a.mgr.SendMessage(protocol.MsgGameState, snap, session.SendOptions{TargetID: p.ID}); err != nil {
			logger.Log.Debugf("snapshot to %s dropped: %v", p.ID, err)
		}
	}
	a.opts.Monitor.IncSnapshotsBroadcast()
}

func (a *Authority) handleMessage(msg session.Message) {
	switch msg.MsgID {
	case protocol.MsgGameAction:
		var action protocol.GameAction
		if err := protocol.Decode(msg.Payload, &action); err != nil {
			logger.Log.Warnf("malformed action from %s: %v", msg.SenderID, err)
			a.opts.Monitor.IncActionsRejected()
			a.mutex.Lock()
			a.rejectLocked(msg.SenderID, &protocol.Notice{Key: game.KeyUnknownMove})
			a.mutex.Unlock()
			return
		}
		a.mutex.Lock()
		a.applyLocked(msg.SenderID, action)
		a.mutex.Unlock()

	case protocol.MsgRequestStart:
		a.mutex.Lock()
		if !a.engine.Started() {
			a.startRoundLocked()
		}
		a.mutex.Unlock()
	}
}

// applyLocked runs one action through the engine. Rejections go back
// to the sender alone; nobody else hears about them.
func (a *Authority) applyLocked(playerID string, action protocol.GameAction) game.Outcome {
	out := a.engine.HandleAction(playerID, action)
	if out.Reject != nil {
		a.opts.Monitor.IncActionsRejected()
		a.rejectLocked(playerID, out.Reject)
		return out
	}
	if out.WinnerID != "" {
		a.recordWinLocked(out.WinnerID)
	}
	return out
}

func (a *Authority) rejectLocked(playerID string, notice *protocol.Notice) {
	gameErr := protocol.GameError{Key: notice.Key, Params: notice.Params}
	if playerID == a.mgr.LocalID() {
		return
	}
	if err := a.mgr.SendMessage(protocol.MsgGameError, gameErr, session.SendOptions{TargetID: playerID}); err != nil {
		logger.Log.Debugf("rejection to %s dropped: %v", playerID, err)
	}
}

// recordWinLocked pushes the winner's new counter through the roster
// protocol so it survives the round.
func (a *Authority) recordWinLocked(winnerID string) {
	snap := a.engine.SnapshotFor(winnerID)
	for _, s := range snap.Players {
		if s.ID == winnerID {
			if err := a.mgr.SetPlayerScore(s.ID, s.Score, s.Nickname); err != nil {
				logger.Log.Warnf("could not record win for %s: %v", s.Nickname, err)
			}
			logger.Log.Infof("%s won the round, %d total", s.Nickname, s.Score)
			return
		}
	}
}

// A mid-round joiner is dealt in next round. Until then they still get
// the full spectator view immediately.
func (a *Authority) handlePlayerJoined(p protocol.PlayerInfo) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if !a.engine.Started() {
		return
	}
	snap := a.engine.SnapshotFor(p.ID)
	if err := a.mgr.SendMessage(protocol.MsgGameState, snap, session.SendOptions{TargetID: p.ID}); err != nil {
		logger.Log.Debugf("snapshot to %s dropped: %v", p.ID, err)
	}
}

func (a *Authority) handlePlayerLeft(playerID string) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if !a.engine.Started() {
		return
	}
	a.engine.RemovePlayer(playerID)
	a.broadcastLocked()
}
