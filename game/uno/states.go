// game/uno/states.go
package uno

import (
	"github.com/Albix4563/peertable/game"
	"github.com/Albix4563/peertable/protocol"
)

// idleState: no round is running. Every action is rejected.
type idleState struct {
	game.StateBase
	table *Engine
}

func (s *idleState) HandleAction(playerID string, action protocol.GameAction) game.Outcome {
	return game.Reject(game.KeyNotStarted, nil)
}

// dealingState is transient: the engine enters it at the top of
// StartRound and leaves it before returning.
type dealingState struct {
	game.StateBase
	table *Engine
}

func (s *dealingState) HandleAction(playerID string, action protocol.GameAction) game.Outcome {
	return game.Reject(game.KeyNotStarted, nil)
}

// awaitingMoveState accepts draw and play from the current player only.
type awaitingMoveState struct {
	game.StateBase
	table *Engine
}

func (s *awaitingMoveState) HandleAction(playerID string, action protocol.GameAction) game.Outcome {
	t := s.table

	current := t.currentSeat()
	if current == nil || current.id != playerID {
		return game.Reject(game.KeyNotYourTurn, nil)
	}

	switch action.Type {
	case protocol.ActionDraw:
		if notice := t.hooks.BeforeMove(playerID, action); notice != nil {
			return game.Outcome{Reject: notice}
		}
		return t.drawForCurrent(current)

	case protocol.ActionPlay:
		if action.Card == nil {
			return game.Reject(KeyInvalidCard, nil)
		}
		idx := current.indexOf(*action.Card)
		if idx == -1 {
			return game.Reject(KeyInvalidCard, nil)
		}
		if !t.isPlayable(current.hand[idx]) {
			return game.Reject(KeyInvalidCard, nil)
		}
		if notice := t.hooks.BeforeMove(playerID, action); notice != nil {
			return game.Outcome{Reject: notice}
		}
		return t.playCard(current, idx)

	default:
		return game.Reject(game.KeyUnknownMove, nil)
	}
}

// awaitingColorState guards the two-phase wild resolution: only the
// pending choice's owner may act, and only by choosing a color.
type awaitingColorState struct {
	game.StateBase
	table *Engine
}

func (s *awaitingColorState) HandleAction(playerID string, action protocol.GameAction) game.Outcome {
	t := s.table

	if action.Type != protocol.ActionChooseColor || playerID != t.pendingWildID {
		return game.Reject(game.KeyNotYourTurn, nil)
	}
	if !isChoosableColor(action.Color) {
		return game.Reject(game.KeyUnknownMove, nil)
	}
	if notice := t.hooks.BeforeMove(playerID, action); notice != nil {
		return game.Outcome{Reject: notice}
	}
	return t.resolveWild(action.Color)
}

// roundOverState: the round settled; the table waits for a fresh start.
type roundOverState struct {
	game.StateBase
	table *Engine
}

func (s *roundOverState) HandleAction(playerID string, action protocol.GameAction) game.Outcome {
	return game.Reject(KeyRoundEnded, nil)
}
