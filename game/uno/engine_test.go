package uno

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/Albix4563/peertable/game"
	"github.com/Albix4563/peertable/protocol"
)

func newTestEngine(seed int64) *Engine {
	return NewEngine(7, rand.New(rand.NewSource(seed)))
}

func testSeats(n int) []game.Seat {
	seats := make([]game.Seat, 0, n)
	for i := 0; i < n; i++ {
		seats = append(seats, game.Seat{
			ID:       fmt.Sprintf("p%d", i),
			Nickname: fmt.Sprintf("Player %d", i),
		})
	}
	return seats
}

func countCards(e *Engine) int {
	total := len(e.deck) + len(e.discard)
	for _, s := range e.seats {
		total += len(s.hand)
	}
	return total
}

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	if len(deck) != DeckSize {
		t.Fatalf("Expected %d cards, got %d", DeckSize, len(deck))
	}

	counts := make(map[protocol.Card]int)
	for _, card := range deck {
		counts[card]++
	}

	for _, color := range colors {
		if got := counts[protocol.Card{Color: color, Value: "0"}]; got != 1 {
			t.Errorf("Expected one %s 0, got %d", color, got)
		}
		if got := counts[protocol.Card{Color: color, Value: "5"}]; got != 2 {
			t.Errorf("Expected two %s 5, got %d", color, got)
		}
		if got := counts[protocol.Card{Color: color, Value: ValueSkip}]; got != 2 {
			t.Errorf("Expected two %s skip, got %d", color, got)
		}
	}
	if got := counts[protocol.Card{Color: ColorWild, Value: ValueWild}]; got != 4 {
		t.Errorf("Expected four wild cards, got %d", got)
	}
	if got := counts[protocol.Card{Color: ColorWild, Value: ValueWild4}]; got != 4 {
		t.Errorf("Expected four wild4 cards, got %d", got)
	}
}

func TestStartRoundDealsHands(t *testing.T) {
	e := newTestEngine(1)

	if notice := e.StartRound(testSeats(2)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	for _, s := range e.seats {
		if len(s.hand) != 7 {
			t.Errorf("Expected 7 cards for %s, got %d", s.id, len(s.hand))
		}
	}
	if expected := DeckSize - 2*7 - 1; len(e.deck) != expected {
		t.Errorf("Expected deck of %d, got %d", expected, len(e.deck))
	}
	if len(e.discard) != 1 {
		t.Fatalf("Expected one discard card, got %d", len(e.discard))
	}
	if isWild(e.discard[0]) {
		t.Error("Starting card must not be a wild")
	}
	if countCards(e) != DeckSize {
		t.Errorf("Expected %d cards in play, got %d", DeckSize, countCards(e))
	}
	if e.Phase() != StateAwaitingMove {
		t.Errorf("Expected phase %s, got %s", StateAwaitingMove, e.Phase())
	}
}

func TestStartRoundNeedsTwoPlayers(t *testing.T) {
	e := newTestEngine(1)

	notice := e.StartRound(testSeats(1))
	if notice == nil || notice.Key != game.KeyNeedPlayers {
		t.Fatalf("Expected %s, got %v", game.KeyNeedPlayers, notice)
	}
	if e.Started() {
		t.Error("Engine must stay idle after a failed start")
	}
}

func TestStartRoundWhileActiveRejected(t *testing.T) {
	e := newTestEngine(1)
	if notice := e.StartRound(testSeats(2)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	notice := e.StartRound(testSeats(2))
	if notice == nil || notice.Key != KeyRoundActive {
		t.Fatalf("Expected %s, got %v", KeyRoundActive, notice)
	}
}

func TestActionBeforeStartRejected(t *testing.T) {
	e := newTestEngine(1)

	out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionDraw})
	if out.Reject == nil || out.Reject.Key != game.KeyNotStarted {
		t.Fatalf("Expected %s, got %+v", game.KeyNotStarted, out)
	}
}

func TestWrongPlayerRejected(t *testing.T) {
	e := newTestEngine(1)
	if notice := e.StartRound(testSeats(3)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}
	e.cursor.Index = 0

	out := e.HandleAction("p1", protocol.GameAction{Type: protocol.ActionDraw})
	if out.Reject == nil || out.Reject.Key != game.KeyNotYourTurn {
		t.Fatalf("Expected %s, got %+v", game.KeyNotYourTurn, out)
	}
}

func TestRejectionLeavesStateUntouched(t *testing.T) {
	e := newTestEngine(2)
	if notice := e.StartRound(testSeats(3)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}
	e.cursor.Index = 0

	before := make([]protocol.GameSnapshot, 0, 3)
	for _, s := range e.seats {
		before = append(before, e.SnapshotFor(s.id))
	}

	rejections := []struct {
		player string
		action protocol.GameAction
	}{
		{"p1", protocol.GameAction{Type: protocol.ActionDraw}},
		{"p0", protocol.GameAction{Type: protocol.ActionPlay}},
		{"p0", protocol.GameAction{Type: protocol.ActionPlay, Card: &protocol.Card{Color: "purple", Value: "99"}}},
		{"p0", protocol.GameAction{Type: "teleport"}},
		{"p0", protocol.GameAction{Type: protocol.ActionChooseColor, Color: ColorRed}},
	}
	for _, r := range rejections {
		out := e.HandleAction(r.player, r.action)
		if out.Reject == nil {
			t.Fatalf("Expected rejection for %s by %s", r.action.Type, r.player)
		}
	}

	for i, s := range e.seats {
		after := e.SnapshotFor(s.id)
		if !reflect.DeepEqual(before[i], after) {
			t.Errorf("Snapshot for %s changed after rejected actions", s.id)
		}
	}
}

func TestDraw2FeedsNextAndSkips(t *testing.T) {
	e := newTestEngine(3)
	if notice := e.StartRound(testSeats(3)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	e.currentColor = ColorRed
	e.currentValue = "5"
	draw2 := protocol.Card{Color: ColorRed, Value: ValueDraw2}
	e.seats[0].hand = append(e.seats[0].hand, draw2)

	nextBefore := len(e.seats[1].hand)
	out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionPlay, Card: &draw2})
	if out.Reject != nil {
		t.Fatalf("Play rejected: %+v", out.Reject)
	}

	if got := len(e.seats[1].hand); got != nextBefore+2 {
		t.Errorf("Expected next hand to grow by 2, got %d -> %d", nextBefore, got)
	}
	if e.cursor.Index != 2 {
		t.Errorf("Expected cursor at 2 after draw2, got %d", e.cursor.Index)
	}
	if e.currentColor != ColorRed || e.currentValue != ValueDraw2 {
		t.Errorf("Expected top red draw2, got %s %s", e.currentColor, e.currentValue)
	}
}

func TestWildOpensColorWindow(t *testing.T) {
	e := newTestEngine(4)
	if notice := e.StartRound(testSeats(3)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	wild := protocol.Card{Color: ColorWild, Value: ValueWild}
	e.seats[0].hand = append(e.seats[0].hand, wild)

	out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionPlay, Card: &wild})
	if out.Reject != nil {
		t.Fatalf("Wild play rejected: %+v", out.Reject)
	}
	if e.Phase() != StateAwaitingColor {
		t.Fatalf("Expected phase %s, got %s", StateAwaitingColor, e.Phase())
	}
	if e.pendingWildID != "p0" {
		t.Errorf("Expected pending owner p0, got %s", e.pendingWildID)
	}

	// Nobody else may act inside the window, the owner included, until
	// the color is chosen.
	blocked := []struct {
		player string
		action protocol.GameAction
	}{
		{"p1", protocol.GameAction{Type: protocol.ActionDraw}},
		{"p1", protocol.GameAction{Type: protocol.ActionChooseColor, Color: ColorBlue}},
		{"p0", protocol.GameAction{Type: protocol.ActionDraw}},
	}
	for _, b := range blocked {
		out := e.HandleAction(b.player, b.action)
		if out.Reject == nil || out.Reject.Key != game.KeyNotYourTurn {
			t.Errorf("Expected %s for %s by %s, got %+v", game.KeyNotYourTurn, b.action.Type, b.player, out)
		}
	}

	out = e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionChooseColor, Color: ColorBlue})
	if out.Reject != nil {
		t.Fatalf("Color choice rejected: %+v", out.Reject)
	}
	if e.currentColor != ColorBlue {
		t.Errorf("Expected color blue, got %s", e.currentColor)
	}
	if e.Phase() != StateAwaitingMove {
		t.Errorf("Expected phase %s, got %s", StateAwaitingMove, e.Phase())
	}
	if e.cursor.Index != 1 {
		t.Errorf("Expected cursor at 1, got %d", e.cursor.Index)
	}
}

func TestWild4FeedsFourAndSkips(t *testing.T) {
	e := newTestEngine(5)
	if notice := e.StartRound(testSeats(3)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	wild4 := protocol.Card{Color: ColorWild, Value: ValueWild4}
	e.seats[0].hand = append(e.seats[0].hand, wild4)
	nextBefore := len(e.seats[1].hand)

	out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionPlay, Card: &wild4})
	if out.Reject != nil {
		t.Fatalf("Wild4 play rejected: %+v", out.Reject)
	}
	out = e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionChooseColor, Color: ColorGreen})
	if out.Reject != nil {
		t.Fatalf("Color choice rejected: %+v", out.Reject)
	}

	if got := len(e.seats[1].hand); got != nextBefore+4 {
		t.Errorf("Expected next hand to grow by 4, got %d -> %d", nextBefore, got)
	}
	if e.cursor.Index != 2 {
		t.Errorf("Expected cursor at 2 after wild4, got %d", e.cursor.Index)
	}
	if e.currentColor != ColorGreen {
		t.Errorf("Expected color green, got %s", e.currentColor)
	}
}

func TestInvalidColorChoiceRejected(t *testing.T) {
	e := newTestEngine(6)
	if notice := e.StartRound(testSeats(2)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	wild := protocol.Card{Color: ColorWild, Value: ValueWild}
	e.seats[0].hand = append(e.seats[0].hand, wild)
	if out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionPlay, Card: &wild}); out.Reject != nil {
		t.Fatalf("Wild play rejected: %+v", out.Reject)
	}

	out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionChooseColor, Color: "wild"})
	if out.Reject == nil || out.Reject.Key != game.KeyUnknownMove {
		t.Fatalf("Expected %s, got %+v", game.KeyUnknownMove, out)
	}
	if e.Phase() != StateAwaitingColor {
		t.Errorf("Window must stay open after a bad choice, phase is %s", e.Phase())
	}
}

func TestReverseWithTwoPlayersActsAsSkip(t *testing.T) {
	e := newTestEngine(7)
	if notice := e.StartRound(testSeats(2)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	e.currentColor = ColorYellow
	e.currentValue = "3"
	reverse := protocol.Card{Color: ColorYellow, Value: ValueReverse}
	e.seats[0].hand = append(e.seats[0].hand, reverse)

	out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionPlay, Card: &reverse})
	if out.Reject != nil {
		t.Fatalf("Reverse rejected: %+v", out.Reject)
	}
	if e.cursor.Index != 0 {
		t.Errorf("Expected the same player to move again, cursor at %d", e.cursor.Index)
	}
	if e.cursor.Direction != 1 {
		t.Errorf("Direction must not flip with two players, got %d", e.cursor.Direction)
	}
}

func TestReverseFlipsDirection(t *testing.T) {
	e := newTestEngine(8)
	if notice := e.StartRound(testSeats(3)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	e.currentColor = ColorGreen
	e.currentValue = "8"
	reverse := protocol.Card{Color: ColorGreen, Value: ValueReverse}
	e.seats[0].hand = append(e.seats[0].hand, reverse)

	out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionPlay, Card: &reverse})
	if out.Reject != nil {
		t.Fatalf("Reverse rejected: %+v", out.Reject)
	}
	if e.cursor.Direction != -1 {
		t.Errorf("Expected direction -1, got %d", e.cursor.Direction)
	}
	if e.cursor.Index != 2 {
		t.Errorf("Expected cursor to wrap to 2, got %d", e.cursor.Index)
	}
}

func TestReshuffleHoldsOutTopDiscard(t *testing.T) {
	e := newTestEngine(9)
	if notice := e.StartRound(testSeats(2)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	top := protocol.Card{Color: ColorBlue, Value: "9"}
	e.deck = e.deck[:0]
	e.discard = []protocol.Card{
		{Color: ColorRed, Value: "1"},
		{Color: ColorRed, Value: "2"},
		{Color: ColorGreen, Value: "3"},
		{Color: ColorYellow, Value: "4"},
		top,
	}

	card := e.drawFromDeck()
	if card == nil {
		t.Fatal("Draw must succeed after the reshuffle")
	}
	if len(e.deck) != 3 {
		t.Errorf("Expected 3 cards left after reshuffle and draw, got %d", len(e.deck))
	}
	if len(e.discard) != 1 || e.discard[0] != top {
		t.Errorf("Expected the prior top card as sole discard, got %v", e.discard)
	}
	if e.status == nil || e.status.Key != KeyDeckEmpty {
		t.Errorf("Expected %s status, got %v", KeyDeckEmpty, e.status)
	}
}

func TestDrawConsumesTurnWithEmptyPiles(t *testing.T) {
	e := newTestEngine(10)
	if notice := e.StartRound(testSeats(2)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	e.deck = e.deck[:0]
	e.discard = e.discard[:1]
	handBefore := len(e.seats[0].hand)

	out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionDraw})
	if out.Reject != nil {
		t.Fatalf("Empty-pile draw rejected: %+v", out.Reject)
	}
	if got := len(e.seats[0].hand); got != handBefore {
		t.Errorf("Hand must not change, got %d -> %d", handBefore, got)
	}
	if e.cursor.Index != 1 {
		t.Errorf("Expected the turn to pass, cursor at %d", e.cursor.Index)
	}
}

func TestWinEndsRoundAndRotatesStarter(t *testing.T) {
	e := newTestEngine(11)
	seats := testSeats(3)
	if notice := e.StartRound(seats); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}
	firstStarter := e.cursor.Index

	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	e.currentColor = ColorRed
	e.currentValue = "5"
	last := protocol.Card{Color: ColorRed, Value: "7"}
	e.seats[0].hand = []protocol.Card{last}

	out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionPlay, Card: &last})
	if out.Reject != nil {
		t.Fatalf("Winning play rejected: %+v", out.Reject)
	}
	if out.WinnerID != "p0" {
		t.Fatalf("Expected winner p0, got %q", out.WinnerID)
	}
	if e.WinsOf("p0") != 1 {
		t.Errorf("Expected 1 win, got %d", e.WinsOf("p0"))
	}
	if e.Phase() != StateRoundOver {
		t.Errorf("Expected phase %s, got %s", StateRoundOver, e.Phase())
	}
	if e.Started() {
		t.Error("Round must not count as started once over")
	}

	// Any further move bounces until a new round is dealt.
	out = e.HandleAction("p1", protocol.GameAction{Type: protocol.ActionDraw})
	if out.Reject == nil || out.Reject.Key != KeyRoundEnded {
		t.Fatalf("Expected %s, got %+v", KeyRoundEnded, out)
	}

	if notice := e.StartRound(seats); notice != nil {
		t.Fatalf("Second StartRound failed: %v", notice)
	}
	if expected := (firstStarter + 1) % 3; e.cursor.Index != expected {
		t.Errorf("Expected starter %d, got %d", expected, e.cursor.Index)
	}
	if e.WinsOf("p0") != 1 {
		t.Errorf("Win counter must survive the redeal, got %d", e.WinsOf("p0"))
	}
}

func TestRemovePlayerReturnsHandToDeck(t *testing.T) {
	e := newTestEngine(12)
	if notice := e.StartRound(testSeats(3)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}
	e.cursor = game.TurnCursor{Index: 2, Direction: 1}

	e.RemovePlayer("p0")

	if len(e.seats) != 2 {
		t.Fatalf("Expected 2 seats, got %d", len(e.seats))
	}
	if countCards(e) != DeckSize {
		t.Errorf("Expected %d cards after removal, got %d", DeckSize, countCards(e))
	}
	if e.cursor.Index != 1 {
		t.Errorf("Expected cursor shifted to 1, got %d", e.cursor.Index)
	}
	if !e.Started() {
		t.Error("Round must continue with 2 players")
	}

	e.RemovePlayer("p1")
	if e.Started() {
		t.Error("Round must end once players drop below 2")
	}
	if e.Phase() != StateIdle {
		t.Errorf("Expected phase %s, got %s", StateIdle, e.Phase())
	}
}

func TestRemovePendingWildOwnerResolvesWindow(t *testing.T) {
	e := newTestEngine(13)
	if notice := e.StartRound(testSeats(3)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	wild := protocol.Card{Color: ColorWild, Value: ValueWild}
	e.seats[0].hand = append(e.seats[0].hand, wild)
	if out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionPlay, Card: &wild}); out.Reject != nil {
		t.Fatalf("Wild play rejected: %+v", out.Reject)
	}

	e.RemovePlayer("p0")

	if e.Phase() != StateAwaitingMove {
		t.Fatalf("Expected the window to close, phase is %s", e.Phase())
	}
	if e.pendingWildID != "" {
		t.Errorf("Expected no pending owner, got %s", e.pendingWildID)
	}
	if e.currentColor != ColorRed {
		t.Errorf("Expected fallback color red, got %s", e.currentColor)
	}
}

func TestSnapshotHidesOtherHands(t *testing.T) {
	e := newTestEngine(14)
	if notice := e.StartRound(testSeats(3)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	snap := e.SnapshotFor("p1")
	if len(snap.Hand) != len(e.seats[1].hand) {
		t.Errorf("Expected the viewer's own hand, got %d cards", len(snap.Hand))
	}
	for _, info := range snap.Players {
		if info.CardCount != 7 {
			t.Errorf("Expected card count 7 for %s, got %d", info.ID, info.CardCount)
		}
	}

	spectator := e.SnapshotFor("ghost")
	if spectator.Hand != nil {
		t.Error("A non-seated viewer must get no hand")
	}
}

// Plays a full scripted round and checks that every accepted action
// leaves the 108-card universe intact.
func TestCardConservationThroughFullRound(t *testing.T) {
	e := newTestEngine(42)
	if notice := e.StartRound(testSeats(4)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}

	for turns := 0; turns < 2000 && e.Started(); turns++ {
		if e.Phase() == StateAwaitingColor {
			out := e.HandleAction(e.pendingWildID, protocol.GameAction{Type: protocol.ActionChooseColor, Color: ColorBlue})
			if out.Reject != nil {
				t.Fatalf("Turn %d: color choice rejected: %+v", turns, out.Reject)
			}
		} else {
			current := e.currentSeat()
			played := false
			for _, card := range current.hand {
				if e.isPlayable(card) {
					card := card
					out := e.HandleAction(current.id, protocol.GameAction{Type: protocol.ActionPlay, Card: &card})
					if out.Reject != nil {
						t.Fatalf("Turn %d: play of %v rejected: %+v", turns, card, out.Reject)
					}
					played = true
					break
				}
			}
			if !played {
				if out := e.HandleAction(current.id, protocol.GameAction{Type: protocol.ActionDraw}); out.Reject != nil {
					t.Fatalf("Turn %d: draw rejected: %+v", turns, out.Reject)
				}
			}
		}

		if got := countCards(e); got != DeckSize {
			t.Fatalf("Card universe broke after %d turns: %d cards", turns, got)
		}
	}

	if e.Started() {
		t.Fatal("Scripted round did not finish")
	}
	if e.winnerID == "" {
		t.Fatal("Expected a winner")
	}
	if e.WinsOf(e.winnerID) != 1 {
		t.Errorf("Expected 1 win for %s, got %d", e.winnerID, e.WinsOf(e.winnerID))
	}
}

type recordingHooks struct {
	vetoKey string
	changes int
	moves   int
}

func (h *recordingHooks) BeforeMove(playerID string, action protocol.GameAction) *protocol.Notice {
	h.moves++
	if h.vetoKey != "" {
		return &protocol.Notice{Key: h.vetoKey}
	}
	return nil
}

func (h *recordingHooks) AfterStateChange() {
	h.changes++
}

func TestHooksFireOncePerMutation(t *testing.T) {
	e := newTestEngine(15)
	hooks := &recordingHooks{}
	e.SetHooks(hooks)

	if notice := e.StartRound(testSeats(2)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}
	if hooks.changes != 1 {
		t.Fatalf("Expected 1 state change after the deal, got %d", hooks.changes)
	}

	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	if out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionDraw}); out.Reject != nil {
		t.Fatalf("Draw rejected: %+v", out.Reject)
	}
	if hooks.changes != 2 {
		t.Errorf("Expected 2 state changes, got %d", hooks.changes)
	}
	if hooks.moves != 1 {
		t.Errorf("Expected 1 BeforeMove call, got %d", hooks.moves)
	}

	// A rejection must not fire AfterStateChange.
	e.HandleAction("p0", protocol.GameAction{Type: "bogus"})
	if hooks.changes != 2 {
		t.Errorf("Rejected action fired AfterStateChange, count %d", hooks.changes)
	}
}

func TestBeforeMoveVetoBlocksMutation(t *testing.T) {
	e := newTestEngine(16)
	hooks := &recordingHooks{vetoKey: "frozen"}
	e.SetHooks(hooks)

	if notice := e.StartRound(testSeats(2)); notice != nil {
		t.Fatalf("StartRound failed: %v", notice)
	}
	e.cursor = game.TurnCursor{Index: 0, Direction: 1}
	handBefore := len(e.seats[0].hand)

	out := e.HandleAction("p0", protocol.GameAction{Type: protocol.ActionDraw})
	if out.Reject == nil || out.Reject.Key != "frozen" {
		t.Fatalf("Expected the veto to reject, got %+v", out)
	}
	if len(e.seats[0].hand) != handBefore {
		t.Error("Vetoed draw still mutated the hand")
	}
	if e.cursor.Index != 0 {
		t.Error("Vetoed draw still advanced the cursor")
	}
}

func TestAllWildDeckOpenerKeepsCardCount(t *testing.T) {
	e := newTestEngine(1)
	e.deck = []protocol.Card{
		{Color: ColorWild, Value: ValueWild},
		{Color: ColorWild, Value: ValueWild4},
		{Color: ColorWild, Value: ValueWild},
	}

	first := e.flipStartingCard()
	if !isWild(first) {
		t.Fatalf("Expected a wild opener, got %+v", first)
	}
	if len(e.deck) != 2 {
		t.Errorf("Expected 2 cards left in the deck, got %d", len(e.deck))
	}
}

func TestEmptyDeckOpenerFallsBack(t *testing.T) {
	e := newTestEngine(1)
	e.deck = nil

	first := e.flipStartingCard()
	if first.Color != ColorRed || first.Value != "0" {
		t.Errorf("Expected the red 0 fallback, got %+v", first)
	}
}
