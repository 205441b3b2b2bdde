// protocol/protocol.go
package protocol

// Message IDs carried in the packet header. The 1xx range is the session
// layer, the 2xx range is the game layer.
const (
	MsgJoin         uint16 = 101
	MsgSessionState uint16 = 102
	MsgPlayerJoined uint16 = 103
	MsgPlayerLeft   uint16 = 104
	MsgScoreUpdate  uint16 = 105
	MsgHostClosing  uint16 = 106
	MsgKicked       uint16 = 107

	MsgGameAction   uint16 = 201
	MsgGameState    uint16 = 202
	MsgGameError    uint16 = 203
	MsgRequestStart uint16 = 204
)

// Action types accepted by the game layer.
const (
	ActionDraw        = "draw"
	ActionPlay        = "play"
	ActionChooseColor = "chooseColor"
)
