package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"deepdrift.game/internal/protocol"
)

// A smoke-test client: joins a campaign, wanders the map by picking
// destinations until one is accepted, and ends rounds on its own.
func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "client name")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{
		conn: conn,
		log:  logger,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			b.numLocations = w.CampaignParams.NumLocations
			logger.Printf("WELCOME client_id=%s seed=%s locations=%d money=%d",
				w.ClientID, w.CampaignParams.Seed, w.CampaignParams.NumLocations, w.CampaignParams.InitialMoney)

		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			b.handleState(&st)

		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(msg, &ack); err != nil {
				continue
			}
			b.handleAck(&ack)

		case protocol.TypeEvent:
			var ev protocol.EventMsg
			if err := json.Unmarshal(msg, &ev); err != nil {
				continue
			}
			if ev.Event == protocol.EventTransition {
				logger.Printf("transition=%s seed=%s", ev.Transition, ev.LevelSeed)
			}
		}
	}
}

type bot struct {
	conn *websocket.Conn
	log  *log.Logger
	rng  *rand.Rand

	numLocations int
	nextID       int
	pendingSel   string
}

// handleState drives the loop: pick a destination, then end the round
// once one sticks.
func (b *bot) handleState(st *protocol.StateMsg) {
	if st.SelectedLoc != "" {
		b.pendingSel = ""
		b.send(protocol.ActMsg{
			Type:            protocol.TypeAct,
			ProtocolVersion: protocol.Version,
			ID:              b.actID("end"),
			Cmd:             protocol.CmdEndRound,
		})
		return
	}
	if b.pendingSel != "" {
		return
	}
	b.guessDestination()
}

// guessDestination picks a random location id. The server names them
// loc00..locNN; rejections retrigger the guess until a neighbor lands.
func (b *bot) guessDestination() {
	if b.numLocations == 0 {
		return
	}
	target := fmt.Sprintf("loc%02d", b.rng.Intn(b.numLocations))
	b.pendingSel = target
	b.send(protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		ID:              b.actID("sel"),
		Cmd:             protocol.CmdSelectLocation,
		LocationID:      target,
	})
}

func (b *bot) handleAck(ack *protocol.AckMsg) {
	if ack.Accepted {
		return
	}
	b.log.Printf("rejected %s: %s %s", ack.AckFor, ack.Code, ack.Message)
	// A refused destination just means "not adjacent"; clear the guard
	// so the next state triggers another guess.
	if ack.Code == protocol.ErrNotConnected || ack.Code == protocol.ErrUnknownLocation {
		b.pendingSel = ""
		b.guessDestination()
	}
}

func (b *bot) send(act protocol.ActMsg) {
	if err := b.conn.WriteJSON(act); err != nil {
		b.log.Printf("send %s: %v", act.Cmd, err)
	}
}

func (b *bot) actID(kind string) string {
	b.nextID++
	return fmt.Sprintf("%s_%d", kind, b.nextID)
}
