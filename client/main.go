// Command client runs one interactive peer: host a table or join one,
// then play from the terminal.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/Albix4563/peertable/config"
	"github.com/Albix4563/peertable/game/uno"
	"github.com/Albix4563/peertable/host"
	"github.com/Albix4563/peertable/logger"
	"github.com/Albix4563/peertable/monitor"
	"github.com/Albix4563/peertable/network"
	"github.com/Albix4563/peertable/projection"
	"github.com/Albix4563/peertable/protocol"
	"github.com/Albix4563/peertable/score"
	"github.com/Albix4563/peertable/session"
)

func main() {
	hostFlag := flag.Bool("host", false, "host a new session")
	joinFlag := flag.String("join", "", "session code or share link to join")
	nickFlag := flag.String("nick", "", "player nickname")
	confFlag := flag.String("config", ".", "config directory")
	flag.Parse()

	cfg, err := config.LoadConfig(*confFlag)
	if err != nil {
		logger.Log.Fatalf("could not load config: %v", err)
	}

	if !*hostFlag && *joinFlag == "" {
		fmt.Println("usage: client -host | -join CODE [-nick NAME]")
		os.Exit(2)
	}

	nickname := *nickFlag
	if nickname == "" {
		nickname = cfg.Session.Nickname
	}

	var mon *monitor.Monitor
	if cfg.Monitor.Enabled {
		mon = monitor.NewMonitor("peertable")
		mon.StartServer(cfg.Monitor.Address)
	}

	store, err := score.NewFileStore(cfg.Score.Path)
	if err != nil {
		logger.Log.Fatalf("could not open score file: %v", err)
	}

	transport := network.NewWSTransport(cfg.Session.ListenAddress, cfg.Session.PublicURL)
	mgr := session.NewManager(transport, session.Options{
		GameID:     cfg.Game.ID,
		ScoreLabel: "Wins",
		MaxPlayers: cfg.Game.MaxPlayers,
		CodeLength: cfg.Session.CodeLength,
		Store:      store,
		Monitor:    mon,
	})

	view := projection.New()
	for _, unsub := range view.Attach(mgr) {
		defer unsub()
	}

	mgr.OnPlayersChanged(func(players []protocol.PlayerInfo) {
		names := make([]string, 0, len(players))
		for _, p := range players {
			names = append(names, fmt.Sprintf("%s(%d)", p.Nickname, p.Score))
		}
		fmt.Printf("players: %s\n", strings.Join(names, ", "))
	})
	mgr.OnMessage(func(msg session.Message) {
		switch msg.MsgID {
		case protocol.MsgGameError:
			var gameErr protocol.GameError
			if protocol.Decode(msg.Payload, &gameErr) == nil {
				fmt.Printf("!! %s\n", renderNotice(&protocol.Notice{Key: gameErr.Key, Params: gameErr.Params}))
			}
		case protocol.MsgGameState:
			printSnapshot(view.State(), view)
		}
	})
	mgr.OnHostClosing(func(struct{}) {
		fmt.Println("host closed the session")
	})
	mgr.OnKicked(func(k protocol.KickedPayload) {
		fmt.Printf("removed from session: %s\n", k.Reason)
	})

	var authority *host.Authority
	if *hostFlag {
		if err := mgr.Host(nickname); err != nil {
			logger.Log.Fatalf("could not host: %v", err)
		}
		engine := uno.NewEngine(cfg.Game.HandSize, nil)
		authority = host.NewAuthority(mgr, engine, host.Options{
			MinPlayers: cfg.Game.MinPlayers,
			Monitor:    mon,
			OnSnapshot: func(snap protocol.GameSnapshot) {
				view.Apply(snap)
				printSnapshot(snap, view)
			},
		})
		defer authority.Close()
		view.SetLocalID(mgr.LocalID())
		fmt.Printf("session code: %s\n", mgr.SessionID())
		fmt.Printf("share link:   %s\n", mgr.ShareLink())
	} else {
		if err := mgr.Join(*joinFlag, nickname); err != nil {
			logger.Log.Fatalf("could not join: %v", err)
		}
	}
	defer mgr.Disconnect()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	fmt.Println("commands: start | draw | play COLOR VALUE | color COLOR | hand | quit")
	for {
		select {
		case <-interrupt:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if line == "quit" {
				return
			}
			runCommand(line, mgr, authority, view)
		}
	}
}

func runCommand(line string, mgr *session.Manager, authority *host.Authority, view *projection.Projection) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	var action *protocol.GameAction
	switch fields[0] {
	case "start":
		if authority != nil {
			if notice := authority.StartRound(); notice != nil {
				fmt.Printf("!! %s\n", renderNotice(notice))
			}
			return
		}
		mgr.SendMessage(protocol.MsgRequestStart, struct{}{})
		return
	case "draw":
		action = &protocol.GameAction{Type: protocol.ActionDraw}
	case "play":
		if len(fields) < 3 {
			fmt.Println("play needs a color and a value, e.g. play red 7")
			return
		}
		action = &protocol.GameAction{
			Type: protocol.ActionPlay,
			Card: &protocol.Card{Color: fields[1], Value: fields[2]},
		}
	case "color":
		if len(fields) < 2 {
			fmt.Println("color needs a choice, e.g. color blue")
			return
		}
		action = &protocol.GameAction{Type: protocol.ActionChooseColor, Color: fields[1]}
	case "hand":
		for _, card := range view.Hand() {
			marker := " "
			if view.IsPlayable(card) {
				marker = "*"
			}
			fmt.Printf(" %s %s %s\n", marker, card.Color, card.Value)
		}
		return
	default:
		fmt.Printf("unknown command %q\n", fields[0])
		return
	}

	if authority != nil {
		if notice := authority.Submit(*action); notice != nil {
			fmt.Printf("!! %s\n", renderNotice(notice))
		}
		return
	}
	if err := mgr.SendMessage(protocol.MsgGameAction, action); err != nil {
		fmt.Printf("!! %v\n", err)
	}
}

func printSnapshot(snap protocol.GameSnapshot, view *projection.Projection) {
	if !snap.Started {
		if snap.WinnerID != "" {
			fmt.Println("round over")
		}
		if snap.Status != nil {
			fmt.Printf("-- %s\n", renderNotice(snap.Status))
		}
		return
	}
	top := "-"
	if snap.DiscardTop != nil {
		top = snap.DiscardTop.Color + " " + snap.DiscardTop.Value
	}
	fmt.Printf("top: %s | color: %s | deck: %d\n", top, snap.CurrentColor, snap.DeckCount)
	for _, seat := range snap.Players {
		marker := " "
		if seat.IsCurrent {
			marker = ">"
		}
		fmt.Printf(" %s %-18s %d cards, %d wins\n", marker, seat.Nickname, seat.CardCount, seat.Score)
	}
	if snap.Status != nil {
		fmt.Printf("-- %s\n", renderNotice(snap.Status))
	}
	if view.IsMyTurn() {
		fmt.Println("your move")
	}
	if view.AwaitingMyColor() {
		fmt.Println("choose a color: color red|yellow|green|blue")
	}
}

var noticeText = map[string]string{
	"waitingStart": "the round has not started",
	"notYourTurn":  "not your turn",
	"invalidCard":  "you cannot play that card",
	"invalidMove":  "that move is not allowed",
	"needPlayers":  "not enough players",
	"deckEmpty":    "both piles are empty, turn passes",
	"drawTaken":    "{name} drew a card",
	"colorChanged": "color is now {color}",
	"chooseColor":  "waiting for a color choice",
	"roundEnded":   "the round is over",
	"roundActive":  "a round is already running",
	"sessionFull":  "the session is full",
}

func renderNotice(n *protocol.Notice) string {
	text, ok := noticeText[n.Key]
	if !ok {
		return n.Key
	}
	for key, value := range n.Params {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}
	return text
}
