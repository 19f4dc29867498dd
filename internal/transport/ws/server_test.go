package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"deepdrift.game/internal/protocol"
	"deepdrift.game/internal/sim/campaign"
	"deepdrift.game/internal/sim/catalogs"
	"deepdrift.game/internal/sim/gamemap"
	"deepdrift.game/internal/sim/tuning"
	"deepdrift.game/internal/sim/vessel"
)

func testCats() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		LocationTypes: catalogs.LocationTypeCatalog{
			ByID: map[string]catalogs.LocationTypeDef{
				"city": {ID: "city", Name: "City", HasOutpost: true, Commonness: 10},
				"mine": {ID: "mine", Name: "Mine", Commonness: 5},
			},
			Order: []string{"city", "mine"},
		},
		Factions: catalogs.FactionCatalog{
			ByID: map[string]catalogs.FactionDef{
				"coalition": {
					ID: "coalition", MenuOrder: 1,
					MinReputation: -100, MaxReputation: 100, InitialReputation: 15,
					ControlledOutpostPercentage: 50,
				},
			},
			Order: []string{"coalition"},
		},
	}
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	var tune tuning.Tuning
	tune.ApplyDefaults()
	cats := testCats()
	m, err := gamemap.Generate("ws-test", 8, cats)
	require.NoError(t, err)

	logger := log.New(io.Discard, "", 0)
	c := campaign.New(cats, tune, m, logger, campaign.Options{})
	c.SetMainSubmarineInfo(&vessel.SubmarineInfo{
		Name: "mule", Type: vessel.SubPlayer, TeamID: vessel.TeamPlayer,
		Hulls: []vessel.HullInfo{{ID: "bridge"}},
	})
	require.NoError(t, c.LoadInitialLevel())

	rt := campaign.NewRuntime(c, "camp_ws", t.TempDir(), nil, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = rt.Run(ctx) }()
	t.Cleanup(cancel)

	srv := httptest.NewServer(NewServer(rt, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readType(t *testing.T, conn *websocket.Conn, msgType string) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		base, err := protocol.DecodeBase(msg)
		require.NoError(t, err)
		if base.Type == msgType {
			return msg
		}
	}
}

func TestHandshakeAndState(t *testing.T) {
	srv := startServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "skipper",
	}))

	var welcome protocol.WelcomeMsg
	require.NoError(t, json.Unmarshal(readType(t, conn, protocol.TypeWelcome), &welcome))
	require.NotEmpty(t, welcome.ClientID)
	require.Equal(t, welcome.ClientID, welcome.ResumeToken)
	require.Equal(t, "ws-test", welcome.CampaignParams.Seed)
	require.Equal(t, 8, welcome.CampaignParams.NumLocations)

	// The full state follows the welcome without being asked.
	var state protocol.StateMsg
	require.NoError(t, json.Unmarshal(readType(t, conn, protocol.TypeState), &state))
	require.NotEmpty(t, state.CurrentLoc)
	require.Equal(t, 8500, state.Money)
	require.True(t, state.IsFirstRound)
}

func TestActRoundtrip(t *testing.T) {
	srv := startServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "skipper",
	}))
	readType(t, conn, protocol.TypeWelcome)
	readType(t, conn, protocol.TypeState)

	require.NoError(t, conn.WriteJSON(protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		ID:              "a1",
		Cmd:             protocol.CmdSelectLocation,
		LocationID:      "nowhere",
	}))

	var ack protocol.AckMsg
	require.NoError(t, json.Unmarshal(readType(t, conn, protocol.TypeAck), &ack))
	require.Equal(t, "a1", ack.AckFor)
	require.False(t, ack.Accepted)
	require.Equal(t, protocol.ErrUnknownLocation, ack.Code)
}

func TestRejectsNonHelloFirstMessage(t *testing.T) {
	srv := startServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		ID:              "a1",
		Cmd:             protocol.CmdEndRound,
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	require.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
}

func TestRejectsVersionMismatch(t *testing.T) {
	srv := startServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: "0.9",
		ClientName:      "relic",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	require.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
}

func TestResumeTokenKeepsClientID(t *testing.T) {
	srv := startServer(t)

	first := dial(t, srv)
	require.NoError(t, first.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "skipper",
	}))
	var welcome protocol.WelcomeMsg
	require.NoError(t, json.Unmarshal(readType(t, first, protocol.TypeWelcome), &welcome))
	first.Close()

	second := dial(t, srv)
	require.NoError(t, second.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "skipper",
		ResumeToken:     welcome.ResumeToken,
	}))
	var resumed protocol.WelcomeMsg
	require.NoError(t, json.Unmarshal(readType(t, second, protocol.TypeWelcome), &resumed))
	require.Equal(t, welcome.ClientID, resumed.ClientID)
}
