// session/loop.go
package session

import (
	"github.com/Albix4563/peertable/logger"
	"github.com/Albix4563/peertable/network"
	"github.com/Albix4563/peertable/protocol"
)

// loop serializes every mutation of session state. Whatever order
// packets arrive across different guests' channels, the order this loop
// dequeues them in is the order that counts.
func (m *Manager) loop() {
	for {
		select {
		case fn := <-m.cmds:
			fn()
		case ch := <-m.accepted:
			m.handleAccepted(ch)
		case in := <-m.inbound:
			m.handlePacket(in)
		case chID := <-m.closures:
			m.handleChannelClosed(chID)
		case <-m.done:
			return
		}
	}
}

func (m *Manager) acceptLoop(accepts <-chan network.Channel) {
	for {
		select {
		case ch, ok := <-accepts:
			if !ok {
				return
			}
			select {
			case m.accepted <- ch:
			case <-m.done:
				ch.Close()
				return
			}
		case <-m.done:
			return
		}
	}
}

func (m *Manager) readLoop(ch network.Channel) {
	for {
		pkt, err := ch.ReadPacket()
		if err != nil {
			select {
			case m.closures <- ch.ID():
			case <-m.done:
			}
			return
		}
		select {
		case m.inbound <- inboundPacket{channelID: ch.ID(), packet: pkt}:
		case <-m.done:
			return
		}
	}
}

func (m *Manager) handleAccepted(ch network.Channel) {
	if !m.isHost {
		// Guests never accept incoming channels.
		ch.Close()
		return
	}
	m.pending[ch.ID()] = ch
	go m.readLoop(ch)
	logger.Log.Infof("incoming channel from %s", ch.RemoteAddr())
}

func (m *Manager) handlePacket(in inboundPacket) {
	m.opts.Monitor.IncMessagesRelayed()
	if m.isHost {
		m.handleHostPacket(in)
	} else {
		m.handleGuestPacket(in.packet)
	}
}

// --- host side ---

func (m *Manager) handleHostPacket(in inboundPacket) {
	pkt := in.packet

	// A channel's first message must be the join handshake.
	if ch, isPending := m.pending[in.channelID]; isPending {
		if pkt.MsgID != protocol.MsgJoin {
			logger.Log.Warnf("channel %s sent %d before joining, dropping", in.channelID, pkt.MsgID)
			return
		}
		m.registerGuest(ch, pkt.Data)
		return
	}

	senderID, known := m.byChannel[in.channelID]
	if !known {
		return
	}

	switch pkt.MsgID {
	case protocol.MsgScoreUpdate:
		var payload protocol.ScoreUpdatePayload
		if err := protocol.Decode(pkt.Data, &payload); err != nil {
			return
		}
		payload.ID = senderID
		m.applyScoreUpdate(payload, senderID)
	case protocol.MsgJoin, protocol.MsgSessionState, protocol.MsgHostClosing, protocol.MsgKicked:
		// Session-control messages only ever flow host -> guest.
	default:
		m.messages.publish(Message{MsgID: pkt.MsgID, Payload: pkt.Data, SenderID: senderID})
	}
}

func (m *Manager) registerGuest(ch network.Channel, data []byte) {
	var join protocol.JoinPayload
	if err := protocol.Decode(data, &join); err != nil {
		logger.Log.Warnf("malformed join payload: %v", err)
		return
	}

	// The player id is the channel id the transport assigned. A guest
	// never picks its own id, so it cannot claim another player's.
	playerID := ch.ID()

	delete(m.pending, ch.ID())

	if len(m.players) >= m.opts.MaxPlayers {
		payload, _ := protocol.Encode(protocol.KickedPayload{Reason: "sessionFull"})
		m.sendOn(ch, protocol.MsgKicked, payload)
		ch.Close()
		logger.Log.Infof("rejected %s: session full", join.Nickname)
		return
	}

	m.channels[playerID] = ch
	m.byChannel[ch.ID()] = playerID
	m.addOrUpdatePlayer(playerID, join.Nickname, join.Score)

	// Full roster snapshot to the new channel only, including the id
	// the joiner has been assigned.
	state := protocol.SessionStatePayload{
		SessionID:  m.sessionID,
		SelfID:     playerID,
		Players:    m.serializePlayers(),
		ScoreLabel: m.opts.ScoreLabel,
	}
	if data, err := protocol.Encode(state); err == nil {
		m.sendOn(ch, protocol.MsgSessionState, data)
	}

	// Tell everyone else about the newcomer.
	joined := protocol.PlayerInfo{ID: playerID, Nickname: cleanName(join.Nickname), Score: join.Score}
	if data, err := protocol.Encode(joined); err == nil {
		m.broadcast(protocol.MsgPlayerJoined, data, playerID)
	}

	m.opts.Monitor.SetConnectedPeers(len(m.channels))
	logger.Log.Infof("player %s joined session %s", joined.Nickname, m.sessionID)
	m.playerJoined.publish(joined)
	m.publishPlayers()
}

func (m *Manager) handleChannelClosed(chID string) {
	if !m.isHost {
		if m.primary != nil && m.primary.ID() == chID {
			logger.Log.Info("lost connection to host")
			m.teardown()
		}
		return
	}

	if _, isPending := m.pending[chID]; isPending {
		delete(m.pending, chID)
		return
	}

	playerID, known := m.byChannel[chID]
	if !known {
		return
	}
	delete(m.byChannel, chID)
	delete(m.channels, playerID)
	m.removePlayer(playerID)

	if data, err := protocol.Encode(protocol.PlayerLeftPayload{ID: playerID}); err == nil {
		m.broadcast(protocol.MsgPlayerLeft, data, "")
	}

	m.opts.Monitor.SetConnectedPeers(len(m.channels))
	logger.Log.Infof("player %s left session %s", playerID, m.sessionID)
	m.playerLeft.publish(playerID)
	m.publishPlayers()
}

// --- guest side ---

func (m *Manager) handleGuestPacket(pkt *network.Packet) {
	switch pkt.MsgID {
	case protocol.MsgSessionState:
		var state protocol.SessionStatePayload
		if err := protocol.Decode(pkt.Data, &state); err != nil {
			return
		}
		m.applySessionState(state)

	case protocol.MsgPlayerJoined:
		var joined protocol.PlayerInfo
		if err := protocol.Decode(pkt.Data, &joined); err != nil {
			return
		}
		m.addOrUpdatePlayer(joined.ID, joined.Nickname, joined.Score)
		m.playerJoined.publish(joined)
		m.publishPlayers()

	case protocol.MsgPlayerLeft:
		var left protocol.PlayerLeftPayload
		if err := protocol.Decode(pkt.Data, &left); err != nil {
			return
		}
		m.removePlayer(left.ID)
		m.playerLeft.publish(left.ID)
		m.publishPlayers()

	case protocol.MsgScoreUpdate:
		var payload protocol.ScoreUpdatePayload
		if err := protocol.Decode(pkt.Data, &payload); err != nil {
			return
		}
		m.addOrUpdatePlayer(payload.ID, payload.Nickname, payload.Score)
		m.scoreUpdates.publish(payload)
		m.publishPlayers()

	case protocol.MsgHostClosing:
		logger.Log.Info("host closed the session")
		m.hostClosing.publish(struct{}{})
		m.teardown()

	case protocol.MsgKicked:
		var payload protocol.KickedPayload
		protocol.Decode(pkt.Data, &payload)
		logger.Log.Infof("removed from session: %s", payload.Reason)
		m.kickedEvents.publish(payload)
		m.teardown()

	default:
		m.messages.publish(Message{MsgID: pkt.MsgID, Payload: pkt.Data, SenderID: m.sessionID})
	}
}

func (m *Manager) applySessionState(state protocol.SessionStatePayload) {
	if state.SessionID != "" {
		m.sessionID = state.SessionID
		m.mutex.Lock()
		m.selfCode = state.SessionID
		m.mutex.Unlock()
	}

	// Adopt the id the host assigned; the id generated at Join time was
	// only a placeholder until the handshake completed.
	if state.SelfID != "" && state.SelfID != m.localID {
		m.localID = state.SelfID
		m.mutex.Lock()
		m.selfID = state.SelfID
		m.mutex.Unlock()
		m.localReady.publish(LocalReady{ID: state.SelfID})
	}

	// Replace the roster wholesale; the host's view wins.
	m.players = make(map[string]*protocol.PlayerInfo)
	m.order = nil
	for _, p := range state.Players {
		m.addOrUpdatePlayer(p.ID, p.Nickname, p.Score)
	}

	m.sessionStates.publish(state)
	m.connStates.publish(StateOnline)
	m.publishPlayers()
}

// --- shared roster / send helpers, loop goroutine only ---

func (m *Manager) addOrUpdatePlayer(id, nickname string, scoreValue int) {
	if id == "" {
		return
	}
	if existing, ok := m.players[id]; ok {
		if nickname != "" {
			existing.Nickname = cleanName(nickname)
		}
		existing.Score = scoreValue
		return
	}
	m.players[id] = &protocol.PlayerInfo{ID: id, Nickname: cleanName(nickname), Score: scoreValue}
	m.order = append(m.order, id)
}

func (m *Manager) removePlayer(id string) {
	if _, ok := m.players[id]; !ok {
		return
	}
	delete(m.players, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Manager) serializePlayers() []protocol.PlayerInfo {
	list := make([]protocol.PlayerInfo, 0, len(m.order))
	for _, id := range m.order {
		if p, ok := m.players[id]; ok {
			list = append(list, *p)
		}
	}
	return list
}

func (m *Manager) publishPlayers() {
	list := m.serializePlayers()
	m.mutex.Lock()
	m.roster = list
	m.mutex.Unlock()
	m.playersChanged.publish(list)
}

func (m *Manager) applyScoreUpdate(payload protocol.ScoreUpdatePayload, excludeID string) {
	m.addOrUpdatePlayer(payload.ID, payload.Nickname, payload.Score)
	if m.isHost {
		if data, err := protocol.Encode(payload); err == nil {
			m.broadcast(protocol.MsgScoreUpdate, data, excludeID)
		}
	} else if payload.ID == m.localID {
		if data, err := protocol.Encode(payload); err == nil {
			m.sendOn(m.primary, protocol.MsgScoreUpdate, data)
		}
	}
	m.scoreUpdates.publish(payload)
	m.publishPlayers()
}

func (m *Manager) sendToPlayer(playerID string, msgID uint16, data []byte) {
	if playerID == m.localID {
		// Local loopback: hand the message straight to subscribers.
		m.messages.publish(Message{MsgID: msgID, Payload: data, SenderID: m.localID})
		return
	}
	ch, exists := m.channels[playerID]
	if !exists {
		m.opts.Monitor.IncSendsDropped()
		return
	}
	m.sendOn(ch, msgID, data)
}

func (m *Manager) broadcast(msgID uint16, data []byte, excludeID string) {
	for playerID, ch := range m.channels {
		if excludeID != "" && playerID == excludeID {
			continue
		}
		m.sendOn(ch, msgID, data)
	}
}

// sendOn either succeeds immediately or drops the message: there is no
// retry path for a closed or unknown channel.
func (m *Manager) sendOn(ch network.Channel, msgID uint16, data []byte) {
	if ch == nil {
		m.opts.Monitor.IncSendsDropped()
		return
	}
	if err := ch.Send(msgID, data); err != nil {
		logger.Log.Debugf("send of %d dropped: %v", msgID, err)
		m.opts.Monitor.IncSendsDropped()
	}
}

// teardown runs on the loop goroutine and ends the session.
func (m *Manager) teardown() {
	m.stopOnce.Do(func() {
		if m.isHost {
			if data, err := protocol.Encode(struct{}{}); err == nil {
				m.broadcast(protocol.MsgHostClosing, data, "")
			}
			for _, ch := range m.channels {
				ch.Close()
			}
			for _, ch := range m.pending {
				ch.Close()
			}
			m.transport.Close()
		} else if m.primary != nil {
			m.primary.Close()
			m.primary = nil
		}

		m.channels = make(map[string]network.Channel)
		m.byChannel = make(map[string]string)
		m.pending = make(map[string]network.Channel)
		m.players = make(map[string]*protocol.PlayerInfo)
		m.order = nil
		m.opts.Monitor.SetConnectedPeers(0)

		m.mutex.Lock()
		m.running = false
		m.roster = nil
		m.mutex.Unlock()

		m.connStates.publish(StateOffline)
		m.playersChanged.publish(nil)
		close(m.done)
	})
}
