// game/uno/engine.go
package uno

import (
	"math/rand"
	"time"

	"github.com/Albix4563/peertable/game"
	"github.com/Albix4563/peertable/protocol"
)

const GameID = "uno"

const defaultHandSize = 7

// State machine phase IDs.
const (
	StateIdle          = "idle"
	StateDealing       = "dealing"
	StateAwaitingMove  = "awaitingMove"
	StateAwaitingColor = "awaitingColorChoice"
	StateRoundOver     = "roundOver"
)

// Translatable keys specific to this game.
const (
	KeyInvalidCard  = "invalidCard"
	KeyDeckEmpty    = "deckEmpty"
	KeyDrawTaken    = "drawTaken"
	KeyColorChanged = "colorChanged"
	KeyChooseColor  = "chooseColor"
	KeyRoundEnded   = "roundEnded"
	KeyRoundActive  = "roundActive"
)

type seat struct {
	id       string
	nickname string
	wins     int
	hand     []protocol.Card
}

func (s *seat) indexOf(card protocol.Card) int {
	for i, c := range s.hand {
		if c.Color == card.Color && c.Value == card.Value {
			return i
		}
	}
	return -1
}

// Engine holds the canonical state of one directional card-game round.
// It exists only on the host; every access goes through the host
// authority's event loop, so there is no internal locking.
type Engine struct {
	handSize int
	rng      *rand.Rand
	hooks    game.Hooks

	seats   []*seat
	deck    []protocol.Card
	discard []protocol.Card
	cursor  game.TurnCursor

	currentColor     string
	currentValue     string
	pendingWildID    string
	pendingWildValue string
	winnerID         string
	nextStart        int
	status           *protocol.Notice

	machine       game.StateMachine
	idle          *idleState
	dealing       *dealingState
	awaitingMove  *awaitingMoveState
	awaitingColor *awaitingColorState
	roundOver     *roundOverState
}

// NewEngine builds an idle engine. A nil rng gets a time-seeded one;
// tests pass a fixed seed instead.
func NewEngine(handSize int, rng *rand.Rand) *Engine {
	if handSize <= 0 {
		handSize = defaultHandSize
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		handSize: handSize,
		rng:      rng,
		hooks:    game.NopHooks{},
		cursor:   game.TurnCursor{Direction: 1},
	}

	e.idle = &idleState{StateBase: game.StateBase{ID: StateIdle}, table: e}
	e.dealing = &dealingState{StateBase: game.StateBase{ID: StateDealing}, table: e}
	e.awaitingMove = &awaitingMoveState{StateBase: game.StateBase{ID: StateAwaitingMove}, table: e}
	e.awaitingColor = &awaitingColorState{StateBase: game.StateBase{ID: StateAwaitingColor}, table: e}
	e.roundOver = &roundOverState{StateBase: game.StateBase{ID: StateRoundOver}, table: e}

	e.machine = game.NewBaseStateMachine(e.idle)

	// Dealing is reachable only between rounds.
	blocked := func() bool { return false }
	e.machine.AddTransition(e.awaitingMove, e.dealing, blocked)
	e.machine.AddTransition(e.awaitingColor, e.dealing, blocked)
	e.machine.AddTransition(e.dealing, e.dealing, blocked)

	return e
}

func (e *Engine) GameID() string {
	return GameID
}

func (e *Engine) SetHooks(h game.Hooks) {
	if h == nil {
		h = game.NopHooks{}
	}
	e.hooks = h
}

func (e *Engine) Started() bool {
	switch e.machine.GetCurrentState().GetID() {
	case StateDealing, StateAwaitingMove, StateAwaitingColor:
		return true
	}
	return false
}

// Phase reports the current state machine phase.
func (e *Engine) Phase() string {
	return e.machine.GetCurrentState().GetID()
}

// WinsOf returns the monotonic win counter for a seated player.
func (e *Engine) WinsOf(playerID string) int {
	if s := e.seatByID(playerID); s != nil {
		return s.wins
	}
	return 0
}

// StartRound resets the table and deals a fresh round. The starting seat
// rotates by one from the previous round's starter.
func (e *Engine) StartRound(seats []game.Seat) *protocol.Notice {
	if len(seats) < 2 {
		return &protocol.Notice{Key: game.KeyNeedPlayers}
	}
	if err := e.machine.ChangeState(e.dealing); err != nil {
		return &protocol.Notice{Key: KeyRoundActive}
	}

	// Win counters survive across rounds for returning players.
	prev := make(map[string]int, len(e.seats))
	for _, s := range e.seats {
		prev[s.id] = s.wins
	}
	e.seats = e.seats[:0]
	for _, st := range seats {
		wins := st.Score
		if w, ok := prev[st.ID]; ok && w > wins {
			wins = w
		}
		e.seats = append(e.seats, &seat{id: st.ID, nickname: st.Nickname, wins: wins})
	}

	e.deck = NewDeck()
	shuffle(e.deck, e.rng)
	e.discard = e.discard[:0]
	e.cursor = game.TurnCursor{Direction: 1}
	e.winnerID = ""
	e.pendingWildID = ""
	e.pendingWildValue = ""
	e.status = nil

	for i := 0; i < e.handSize; i++ {
		for _, s := range e.seats {
			if card := e.drawFromDeck(); card != nil {
				s.hand = append(s.hand, *card)
			}
		}
	}

	first := e.flipStartingCard()
	e.discard = append(e.discard, first)
	e.currentColor = first.Color
	e.currentValue = first.Value
	if isWild(first) {
		// A wild opener gets a forced color so play can proceed.
		e.currentColor = ColorRed
	}

	e.cursor.Index = e.nextStart
	e.cursor.Clamp(len(e.seats))
	e.nextStart = e.cursor.Index + 1

	e.machine.ChangeState(e.awaitingMove)
	e.hooks.AfterStateChange()
	return nil
}

// flipStartingCard turns the face-up opener. A wild may not open a
// round while a plain card remains: it slides under the deck and the
// next card is tried, so the card universe stays intact. When only
// wilds are left the top one opens anyway (the caller forces a color),
// and only a fully exhausted deck falls back to a fabricated card.
func (e *Engine) flipStartingCard() protocol.Card {
	hasPlain := false
	for _, card := range e.deck {
		if !isWild(card) {
			hasPlain = true
			break
		}
	}
	for hasPlain {
		card := e.deck[len(e.deck)-1]
		e.deck = e.deck[:len(e.deck)-1]
		if !isWild(card) {
			return card
		}
		e.deck = append([]protocol.Card{card}, e.deck...)
	}
	if len(e.deck) == 0 {
		return protocol.Card{Color: ColorRed, Value: "0"}
	}
	card := e.deck[len(e.deck)-1]
	e.deck = e.deck[:len(e.deck)-1]
	return card
}

// HandleAction routes one player action through the current phase. On
// rejection nothing is mutated and the caller gets a targeted notice; on
// acceptance the AfterStateChange hook fires exactly once.
func (e *Engine) HandleAction(playerID string, action protocol.GameAction) game.Outcome {
	prevStatus := e.status
	e.status = nil

	out := e.machine.GetCurrentState().HandleAction(playerID, action)
	if out.Reject != nil {
		e.status = prevStatus
		return out
	}

	if out.Status == nil {
		out.Status = e.status
	} else {
		e.status = out.Status
	}
	e.hooks.AfterStateChange()
	return out
}

// RemovePlayer splices a disconnected player out and re-clamps the turn
// cursor. If the pending wild's owner leaves, the wild resolves to red
// and play moves on; if the roster drops below two, the round ends.
func (e *Engine) RemovePlayer(playerID string) {
	idx := -1
	for i, s := range e.seats {
		if s.id == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	leaver := e.seats[idx]
	e.seats = append(e.seats[:idx], e.seats[idx+1:]...)
	if e.Started() && len(leaver.hand) > 0 {
		// The leaver's cards go under the deck so the card universe
		// stays whole for the rest of the round.
		e.deck = append(append([]protocol.Card(nil), leaver.hand...), e.deck...)
		leaver.hand = nil
	}
	if idx < e.cursor.Index {
		e.cursor.Index--
	}
	e.cursor.Clamp(len(e.seats))

	if !e.Started() {
		return
	}

	if len(e.seats) < 2 {
		e.ForceEnd()
		return
	}

	if e.pendingWildID == playerID {
		e.pendingWildID = ""
		e.pendingWildValue = ""
		e.currentColor = ColorRed
		e.machine.ChangeState(e.awaitingMove)
	}
}

// ForceEnd aborts the active round and resets the table to waiting.
func (e *Engine) ForceEnd() {
	for _, s := range e.seats {
		s.hand = nil
	}
	e.deck = nil
	e.discard = nil
	e.winnerID = ""
	e.pendingWildID = ""
	e.pendingWildValue = ""
	e.currentColor = ""
	e.currentValue = ""
	e.status = nil
	e.machine.ChangeState(e.idle)
}

func (e *Engine) SnapshotFor(viewerID string) protocol.GameSnapshot {
	started := e.Started()

	players := make([]protocol.SeatInfo, 0, len(e.seats))
	for i, s := range e.seats {
		players = append(players, protocol.SeatInfo{
			ID:        s.id,
			Nickname:  s.nickname,
			CardCount: len(s.hand),
			Score:     s.wins,
			IsCurrent: started && i == e.cursor.Index,
		})
	}

	snap := protocol.GameSnapshot{
		Started:             started,
		Players:             players,
		DeckCount:           len(e.deck),
		CurrentColor:        e.currentColor,
		CurrentValue:        e.currentValue,
		AwaitingColor:       e.machine.GetCurrentState().GetID() == StateAwaitingColor,
		PendingWildPlayerID: e.pendingWildID,
		WinnerID:            e.winnerID,
		Status:              e.status,
	}
	if started {
		if cur := e.currentSeat(); cur != nil {
			snap.CurrentPlayerID = cur.id
		}
	}
	if len(e.discard) > 0 {
		top := e.discard[len(e.discard)-1]
		snap.DiscardTop = &top
	}
	if s := e.seatByID(viewerID); s != nil {
		snap.Hand = append([]protocol.Card(nil), s.hand...)
	}
	return snap
}

// --- internal table operations, called from the phase states ---

func (e *Engine) currentSeat() *seat {
	if len(e.seats) == 0 || e.cursor.Index >= len(e.seats) {
		return nil
	}
	return e.seats[e.cursor.Index]
}

func (e *Engine) seatByID(id string) *seat {
	for _, s := range e.seats {
		if s.id == id {
			return s
		}
	}
	return nil
}

func (e *Engine) nextSeat() *seat {
	if len(e.seats) == 0 {
		return nil
	}
	return e.seats[e.cursor.Next(len(e.seats))]
}

// drawFromDeck pops the top card, reshuffling the discard pile into a
// fresh deck when needed. The top discard card is held out of the
// reshuffle. Returns nil when both piles are exhausted.
func (e *Engine) drawFromDeck() *protocol.Card {
	if len(e.deck) == 0 {
		e.refillDeck()
	}
	if len(e.deck) == 0 {
		return nil
	}
	card := e.deck[len(e.deck)-1]
	e.deck = e.deck[:len(e.deck)-1]
	return &card
}

func (e *Engine) refillDeck() {
	if len(e.discard) <= 1 {
		return
	}
	top := e.discard[len(e.discard)-1]
	rest := append([]protocol.Card(nil), e.discard[:len(e.discard)-1]...)
	shuffle(rest, e.rng)
	e.deck = rest
	e.discard = []protocol.Card{top}
	e.status = &protocol.Notice{Key: KeyDeckEmpty}
}

func (e *Engine) drawMany(s *seat, amount int) {
	for i := 0; i < amount; i++ {
		card := e.drawFromDeck()
		if card == nil {
			break
		}
		s.hand = append(s.hand, *card)
	}
}

func (e *Engine) drawForCurrent(current *seat) game.Outcome {
	if card := e.drawFromDeck(); card != nil {
		current.hand = append(current.hand, *card)
		if e.status == nil {
			e.status = &protocol.Notice{
				Key:    KeyDrawTaken,
				Params: map[string]string{"name": current.nickname},
			}
		}
	}
	// The turn consumes whether or not a card was available.
	e.cursor.Advance(len(e.seats), 1)
	return game.Outcome{Status: e.status}
}

func (e *Engine) playCard(current *seat, idx int) game.Outcome {
	card := current.hand[idx]
	current.hand = append(current.hand[:idx], current.hand[idx+1:]...)
	e.discard = append(e.discard, card)
	e.currentValue = card.Value

	if len(current.hand) == 0 {
		return e.declareWinner(current)
	}

	if isWild(card) {
		e.pendingWildID = current.id
		e.pendingWildValue = card.Value
		e.currentColor = ""
		e.machine.ChangeState(e.awaitingColor)
		return game.Outcome{Status: &protocol.Notice{Key: KeyChooseColor}}
	}

	e.currentColor = card.Color
	e.applyCardEffect(card)
	return game.Outcome{}
}

func (e *Engine) applyCardEffect(card protocol.Card) {
	skipNext := false
	switch card.Value {
	case ValueDraw2:
		if target := e.nextSeat(); target != nil {
			e.drawMany(target, 2)
		}
		skipNext = true
	case ValueReverse:
		if len(e.seats) == 2 {
			skipNext = true
		} else {
			e.cursor.Reverse()
		}
	case ValueSkip:
		skipNext = true
	}

	step := 1
	if skipNext {
		step = 2
	}
	e.cursor.Advance(len(e.seats), step)
}

func (e *Engine) resolveWild(color string) game.Outcome {
	e.currentColor = color
	wild4 := e.pendingWildValue == ValueWild4
	e.pendingWildID = ""
	e.pendingWildValue = ""
	e.machine.ChangeState(e.awaitingMove)

	if wild4 {
		if target := e.nextSeat(); target != nil {
			e.drawMany(target, 4)
			e.cursor.Advance(len(e.seats), 2)
		} else {
			e.cursor.Advance(len(e.seats), 1)
		}
	} else {
		e.cursor.Advance(len(e.seats), 1)
	}

	if e.status == nil {
		e.status = &protocol.Notice{
			Key:    KeyColorChanged,
			Params: map[string]string{"color": color},
		}
	}
	return game.Outcome{Status: e.status}
}

func (e *Engine) declareWinner(s *seat) game.Outcome {
	s.wins++
	e.winnerID = s.id
	e.pendingWildID = ""
	e.pendingWildValue = ""
	e.machine.ChangeState(e.roundOver)
	return game.Outcome{WinnerID: s.id}
}

func (e *Engine) isPlayable(card protocol.Card) bool {
	if isWild(card) {
		return true
	}
	if card.Color == e.currentColor {
		return true
	}
	return card.Value == e.currentValue
}
