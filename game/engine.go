// Package game defines the contract between the host authority and a
// turn-based game engine: the engine owns the round state machine and
// mutates canonical state, the authority gatekeeps untrusted input and
// pushes snapshots out through its hooks.
package game

import "github.com/Albix4563/peertable/protocol"

// Translatable keys shared by every engine. Game-specific engines add
// their own on top.
const (
	KeyNotStarted  = "waitingStart"
	KeyNotYourTurn = "notYourTurn"
	KeyNeedPlayers = "needPlayers"
	KeyUnknownMove = "invalidMove"
)

// Seat identifies one participant at round start. Score carries the
// running win counter into the engine so a rejoining player keeps it.
type Seat struct {
	ID       string
	Nickname string
	Score    int
}

// Outcome reports what an accepted or rejected action did. Reject being
// non-nil means nothing was mutated. WinnerID is set when the action
// emptied the acting player's hand and ended the round.
type Outcome struct {
	Reject   *protocol.Notice
	WinnerID string
	Status   *protocol.Notice
}

// Reject builds a rejection outcome with a translatable key.
func Reject(key string, params map[string]string) Outcome {
	return Outcome{Reject: &protocol.Notice{Key: key, Params: params}}
}

// Hooks is implemented by the networking adapter driving an engine.
// The engine never talks to the wire itself.
type Hooks interface {
	// BeforeMove runs after an action passed validation and before it
	// mutates state. Returning a notice vetoes the move.
	BeforeMove(playerID string, action protocol.GameAction) *protocol.Notice

	// AfterStateChange runs once per accepted mutation, after canonical
	// state settled. The adapter snapshots and broadcasts here.
	AfterStateChange()
}

// NopHooks keeps an engine runnable without a networking adapter.
type NopHooks struct{}

func (NopHooks) BeforeMove(string, protocol.GameAction) *protocol.Notice { return nil }
func (NopHooks) AfterStateChange()                                       {}

// Engine is a per-game-type state machine mutated only by the host
// authority. Implementations are not safe for concurrent use: the
// authority's single event loop is the only caller.
type Engine interface {
	GameID() string
	Started() bool

	// StartRound deals a fresh round for the given seats. The starting
	// seat rotates internally so the first-move advantage cycles.
	StartRound(seats []Seat) *protocol.Notice

	// HandleAction validates and applies one player action.
	HandleAction(playerID string, action protocol.GameAction) Outcome

	// RemovePlayer splices a disconnected player out mid-round.
	RemovePlayer(playerID string)

	// ForceEnd aborts the active round and returns to the idle state.
	ForceEnd()

	// SnapshotFor serializes complete state for one recipient, embedding
	// that recipient's private hand only.
	SnapshotFor(viewerID string) protocol.GameSnapshot

	SetHooks(h Hooks)
}
