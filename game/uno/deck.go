// game/uno/deck.go
package uno

import (
	"math/rand"

	"github.com/Albix4563/peertable/protocol"
)

const (
	ColorRed    = "red"
	ColorYellow = "yellow"
	ColorGreen  = "green"
	ColorBlue   = "blue"
	ColorWild   = "wild"

	ValueSkip    = "skip"
	ValueReverse = "reverse"
	ValueDraw2   = "draw2"
	ValueWild    = "wild"
	ValueWild4   = "wild4"
)

// DeckSize is the fixed card universe for one session: 25 cards per
// color plus eight wilds.
const DeckSize = 108

var (
	colors       = []string{ColorRed, ColorYellow, ColorGreen, ColorBlue}
	numberValues = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
	actionValues = []string{ValueSkip, ValueReverse, ValueDraw2}
	wildValues   = []string{ValueWild, ValueWild4}
)

// NewDeck builds the full 108-card deck in canonical order: one zero and
// two of every other number per color, two of each action card per
// color, four of each wild.
func NewDeck() []protocol.Card {
	deck := make([]protocol.Card, 0, DeckSize)
	for _, color := range colors {
		for i, value := range numberValues {
			deck = append(deck, protocol.Card{Color: color, Value: value})
			if i != 0 {
				deck = append(deck, protocol.Card{Color: color, Value: value})
			}
		}
		for _, value := range actionValues {
			deck = append(deck, protocol.Card{Color: color, Value: value})
			deck = append(deck, protocol.Card{Color: color, Value: value})
		}
	}
	for _, value := range wildValues {
		for i := 0; i < 4; i++ {
			deck = append(deck, protocol.Card{Color: ColorWild, Value: value})
		}
	}
	return deck
}

func shuffle(cards []protocol.Card, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

func isWild(card protocol.Card) bool {
	return card.Color == ColorWild
}

func isChoosableColor(color string) bool {
	for _, c := range colors {
		if c == color {
			return true
		}
	}
	return false
}
