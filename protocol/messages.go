// protocol/messages.go
package protocol

import "encoding/json"

// PlayerInfo 玩家信息 (roster entry shared by the session layer)
type PlayerInfo struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// JoinPayload is the first message a guest sends on its primary channel.
// It carries no player id: the host derives the joiner's identity from
// the transport channel, never from guest-supplied data.
type JoinPayload struct {
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// SessionStatePayload is the host's reply to a join, sent to the new
// channel only. SelfID tells the joiner which roster entry is its own.
type SessionStatePayload struct {
	SessionID  string       `json:"sessionId"`
	SelfID     string       `json:"selfId,omitempty"`
	Players    []PlayerInfo `json:"players"`
	ScoreLabel string       `json:"scoreLabel"`
}

type PlayerLeftPayload struct {
	ID string `json:"id"`
}

type ScoreUpdatePayload struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

type KickedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// Card is the wire form of a single card. Color is one of red, yellow,
// green, blue or wild.
type Card struct {
	Color string `json:"color"`
	Value string `json:"value"`
}

// GameAction is a guest intent forwarded to the host for validation.
type GameAction struct {
	Type  string `json:"type"`
	Card  *Card  `json:"card,omitempty"`
	Color string `json:"color,omitempty"`
}

// Notice is a translatable status or error key with optional parameters,
// rendered by the UI layer.
type Notice struct {
	Key    string            `json:"key"`
	Params map[string]string `json:"params,omitempty"`
}

// GameError is sent to exactly one guest when the host rejects an action.
type GameError struct {
	Key    string            `json:"key"`
	Params map[string]string `json:"params,omitempty"`
}

// SeatInfo describes one player inside a snapshot. CardCount is public,
// the hand itself is not.
type SeatInfo struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	CardCount int    `json:"cardCount"`
	Score     int    `json:"score"`
	IsCurrent bool   `json:"isCurrent"`
}

// GameSnapshot is a complete, self-describing serialization of the
// canonical card game's state. Hand is recipient-specific: every peer
// receives its own private hand and nobody else's.
type GameSnapshot struct {
	Started             bool       `json:"started"`
	Players             []SeatInfo `json:"players"`
	DeckCount           int        `json:"deckCount"`
	DiscardTop          *Card      `json:"discardTop,omitempty"`
	CurrentPlayerID     string     `json:"currentPlayerId,omitempty"`
	CurrentColor        string     `json:"currentColor,omitempty"`
	CurrentValue        string     `json:"currentValue,omitempty"`
	AwaitingColor       bool       `json:"awaitingColor"`
	PendingWildPlayerID string     `json:"pendingWildPlayerId,omitempty"`
	WinnerID            string     `json:"winnerId,omitempty"`
	Status              *Notice    `json:"status,omitempty"`
	Hand                []Card     `json:"hand,omitempty"`
}

// Encode marshals a payload for the binary packet body.
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Decode unmarshals a packet body into the given payload struct.
func Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
