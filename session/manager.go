// session/manager.go
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Albix4563/peertable/logger"
	"github.com/Albix4563/peertable/monitor"
	"github.com/Albix4563/peertable/network"
	"github.com/Albix4563/peertable/protocol"
	"github.com/Albix4563/peertable/score"
)

var (
	ErrSessionActive = errors.New("a session is already active")
	ErrNoSession     = errors.New("no active session")
	ErrNotHost       = errors.New("operation requires the host role")
)

const defaultMaxPlayers = 5

// Options tunes a Manager. Zero values fall back to sensible defaults;
// Store and Monitor may be nil.
type Options struct {
	GameID     string
	ScoreLabel string
	MaxPlayers int
	CodeLength int
	Store      score.Store
	Monitor    *monitor.Monitor
}

// SendOptions routes an outgoing application message at the host-side
// relay. Guests ignore it: they can only talk to the host.
type SendOptions struct {
	TargetID  string
	ExcludeID string
}

type inboundPacket struct {
	channelID string
	packet    *network.Packet
}

// Manager owns one peer's session: local identity, role, roster and the
// channels behind it. All session state is mutated by a single event
// loop goroutine; public methods hand work to that loop.
type Manager struct {
	opts      Options
	transport network.Transport

	// event bus
	localReady     stream[LocalReady]
	connStates     stream[ConnState]
	playersChanged stream[[]protocol.PlayerInfo]
	playerJoined   stream[protocol.PlayerInfo]
	playerLeft     stream[string]
	messages       stream[Message]
	hostClosing    stream[struct{}]
	kickedEvents   stream[protocol.KickedPayload]
	scoreUpdates   stream[protocol.ScoreUpdatePayload]
	sessionStates  stream[protocol.SessionStatePayload]

	// loop plumbing
	cmds     chan func()
	inbound  chan inboundPacket
	accepted chan network.Channel
	closures chan string
	done     chan struct{}
	stopOnce *sync.Once

	// loop-owned session state
	isHost     bool
	sessionID  string
	localID    string
	nickname   string
	localScore int
	players    map[string]*protocol.PlayerInfo
	order      []string
	channels   map[string]network.Channel // playerID -> channel (host)
	byChannel  map[string]string          // channelID -> playerID (host)
	pending    map[string]network.Channel // channelID -> channel, pre-join (host)
	primary    network.Channel            // guest

	// guarded snapshot for reads from outside the loop
	mutex    sync.RWMutex
	running  bool
	roster   []protocol.PlayerInfo
	selfID   string
	selfHost bool
	selfCode string
}

func NewManager(transport network.Transport, opts Options) *Manager {
	if opts.GameID == "" {
		opts.GameID = "game"
	}
	if opts.ScoreLabel == "" {
		opts.ScoreLabel = "Score"
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = defaultMaxPlayers
	}
	return &Manager{
		opts:      opts,
		transport: transport,
	}
}

// Host opens a listener bound to a freshly generated session code and
// takes the host role.
func (m *Manager) Host(nickname string) error {
	m.mutex.Lock()
	if m.running {
		m.mutex.Unlock()
		return ErrSessionActive
	}
	m.running = true
	m.mutex.Unlock()

	code := GenerateCode(m.opts.GameID, m.opts.CodeLength)
	accepts, err := m.transport.Listen(code)
	if err != nil {
		m.setRunning(false)
		return err
	}

	m.beginSession(true, code, nickname)

	go m.loop()
	go m.acceptLoop(accepts)

	logger.Log.Infof("hosting session %s as %s", code, m.nickname)
	m.localReady.publish(LocalReady{ID: m.localID})
	m.connStates.publish(StateHost)
	m.playersChanged.publish(m.Players())
	return nil
}

// Join dials an existing session. The address may be a bare code, a
// "host:port/CODE" pair or a full share URL.
func (m *Manager) Join(address, nickname string) error {
	m.mutex.Lock()
	if m.running {
		m.mutex.Unlock()
		return ErrSessionActive
	}
	m.running = true
	m.mutex.Unlock()

	ch, err := m.transport.Dial(address)
	if err != nil {
		m.setRunning(false)
		return err
	}

	code := address
	if parsed, perr := network.ParseAddress(address, ""); perr == nil {
		code = parsed.Code
	}

	m.beginSession(false, code, nickname)
	m.primary = ch

	go m.loop()
	go m.readLoop(ch)

	join := protocol.JoinPayload{Nickname: m.nickname, Score: m.localScore}
	data, _ := protocol.Encode(join)
	m.sendOn(ch, protocol.MsgJoin, data)

	logger.Log.Infof("joined session %s as %s", code, m.nickname)
	m.localReady.publish(LocalReady{ID: m.localID})
	m.connStates.publish(StateOnline)
	return nil
}

// beginSession resets loop-owned state for a fresh session. Called
// before the loop goroutine starts, so plain assignment is fine.
func (m *Manager) beginSession(isHost bool, code, nickname string) {
	m.isHost = isHost
	m.sessionID = code
	m.localID = uuid.New().String()
	m.nickname = cleanName(nickname)
	m.players = make(map[string]*protocol.PlayerInfo)
	m.order = nil
	m.channels = make(map[string]network.Channel)
	m.byChannel = make(map[string]string)
	m.pending = make(map[string]network.Channel)
	m.primary = nil

	m.localScore = 0
	if m.opts.Store != nil {
		if wins, err := m.opts.Store.Load(m.opts.GameID); err == nil {
			m.localScore = wins
		} else {
			logger.Log.Warnf("could not load saved score: %v", err)
		}
	}
	m.addOrUpdatePlayer(m.localID, m.nickname, m.localScore)

	m.cmds = make(chan func(), 64)
	m.inbound = make(chan inboundPacket, 256)
	m.accepted = make(chan network.Channel, 16)
	m.closures = make(chan string, 16)
	m.done = make(chan struct{})
	m.stopOnce = &sync.Once{}

	// The loop goroutine is not running yet, so reading loop-owned
	// state for the snapshot is safe here.
	m.mutex.Lock()
	m.selfID = m.localID
	m.selfHost = isHost
	m.selfCode = code
	m.roster = m.serializePlayers()
	m.mutex.Unlock()
}

func (m *Manager) setRunning(v bool) {
	m.mutex.Lock()
	m.running = v
	m.mutex.Unlock()
}

// Disconnect tears the session down. Hosts notify guests first; guests
// just close their primary channel. Safe to call repeatedly.
func (m *Manager) Disconnect() {
	m.mutex.RLock()
	running := m.running
	m.mutex.RUnlock()
	if !running {
		return
	}

	select {
	case m.cmds <- func() { m.teardown() }:
	case <-m.done:
	}
}

// SendMessage relays an application message. Hosts send to TargetID
// when set, otherwise broadcast to every guest except ExcludeID; guests
// always send to the host, whatever the options say.
func (m *Manager) SendMessage(msgID uint16, payload interface{}, opts ...SendOptions) error {
	data, err := protocol.Encode(payload)
	if err != nil {
		return err
	}
	var opt SendOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	return m.post(func() {
		if m.isHost {
			if opt.TargetID != "" {
				m.sendToPlayer(opt.TargetID, msgID, data)
				return
			}
			m.broadcast(msgID, data, opt.ExcludeID)
			return
		}
		m.sendOn(m.primary, msgID, data)
	})
}

// SetLocalScore updates the local player's score, persists it and
// propagates it through the roster protocol.
func (m *Manager) SetLocalScore(scoreValue int) error {
	return m.post(func() {
		m.localScore = scoreValue
		if m.opts.Store != nil {
			if err := m.opts.Store.Save(m.opts.GameID, scoreValue); err != nil {
				logger.Log.Warnf("could not persist score: %v", err)
			}
		}
		m.applyScoreUpdate(protocol.ScoreUpdatePayload{
			ID:       m.localID,
			Nickname: m.nickname,
			Score:    scoreValue,
		}, m.localID)
	})
}

// SetPlayerScore lets the host authoritatively set any player's score,
// e.g. when recording a round win.
func (m *Manager) SetPlayerScore(playerID string, scoreValue int, nickname string) error {
	m.mutex.RLock()
	isHost := m.selfHost
	m.mutex.RUnlock()
	if !isHost {
		return ErrNotHost
	}
	return m.post(func() {
		if playerID == m.localID {
			m.localScore = scoreValue
			if m.opts.Store != nil {
				if err := m.opts.Store.Save(m.opts.GameID, scoreValue); err != nil {
					logger.Log.Warnf("could not persist score: %v", err)
				}
			}
		}
		m.applyScoreUpdate(protocol.ScoreUpdatePayload{
			ID:       playerID,
			Nickname: nickname,
			Score:    scoreValue,
		}, "")
	})
}

// Kick removes a guest from the session. The guest gets a targeted
// notice before its channel closes.
func (m *Manager) Kick(playerID, reason string) error {
	m.mutex.RLock()
	isHost := m.selfHost
	m.mutex.RUnlock()
	if !isHost {
		return ErrNotHost
	}
	return m.post(func() {
		ch, exists := m.channels[playerID]
		if !exists {
			return
		}
		data, _ := protocol.Encode(protocol.KickedPayload{Reason: reason})
		m.sendOn(ch, protocol.MsgKicked, data)
		ch.Close()
	})
}

func (m *Manager) post(fn func()) error {
	m.mutex.RLock()
	running := m.running
	m.mutex.RUnlock()
	if !running {
		return ErrNoSession
	}
	select {
	case m.cmds <- fn:
		return nil
	case <-m.done:
		return ErrNoSession
	}
}

// --- read-only accessors, safe from any goroutine ---

func (m *Manager) LocalID() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.selfID
}

func (m *Manager) IsHost() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.selfHost
}

func (m *Manager) SessionID() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.selfCode
}

func (m *Manager) Players() []protocol.PlayerInfo {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]protocol.PlayerInfo(nil), m.roster...)
}

// ShareLink returns a join URL for the current session when the
// transport can build one, otherwise the bare session code.
func (m *Manager) ShareLink() string {
	m.mutex.RLock()
	code := m.selfCode
	m.mutex.RUnlock()
	if code == "" {
		return ""
	}
	if linker, ok := m.transport.(network.ShareLinker); ok {
		return linker.ShareLink(code)
	}
	return code
}
