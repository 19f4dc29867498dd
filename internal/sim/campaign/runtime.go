package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"deepdrift.game/internal/persistence/indexdb"
	plog "deepdrift.game/internal/persistence/log"
	"deepdrift.game/internal/persistence/snapshot"
	"deepdrift.game/internal/protocol"
)

// ActEnvelope is one client request routed into the simulation loop.
type ActEnvelope struct {
	ClientID string
	Act      protocol.ActMsg
}

type JoinRequest struct {
	Name        string
	ResumeToken string
	Out         chan []byte
	Resp        chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type session struct {
	id   string
	name string
	out  chan []byte
}

// Runtime owns the campaign and is its only mutator: requests arrive on
// channels and are applied between ticks, the way the rest of the state
// machine expects single-threaded access.
type Runtime struct {
	c   *Campaign
	log *log.Logger

	campaignID string
	snapDir    string
	index      *indexdb.SQLiteIndex
	rounds     *plog.RoundLogger

	tick uint64

	inbox chan ActEnvelope
	join  chan JoinRequest
	leave chan string

	sessions    map[string]*session
	nextSession int
}

func NewRuntime(c *Campaign, campaignID, snapDir string, index *indexdb.SQLiteIndex, logger *log.Logger) *Runtime {
	rt := &Runtime{
		c:          c,
		log:        logger,
		campaignID: campaignID,
		snapDir:    snapDir,
		index:      index,
		inbox:      make(chan ActEnvelope, 256),
		join:       make(chan JoinRequest, 16),
		leave:      make(chan string, 16),
		sessions:   make(map[string]*session),
	}

	c.OnMoneyChanged(func(ch WalletChange) {
		rt.broadcast(protocol.EventMsg{
			Type:            protocol.TypeEvent,
			ProtocolVersion: protocol.Version,
			Tick:            rt.tick,
			Event:           protocol.EventMoneyChanged,
			Delta:           ch.Delta,
			Balance:         ch.Balance,
		})
	})
	c.OnReputationChanged(func(ch ReputationChange) {
		rt.broadcast(protocol.EventMsg{
			Type:            protocol.TypeEvent,
			ProtocolVersion: protocol.Version,
			Tick:            rt.tick,
			Event:           protocol.EventReputationChanged,
			FactionID:       ch.FactionID,
			RepDelta:        ch.Delta,
			RepValue:        ch.Value,
		})
	})
	c.OnTransition(func(ev TransitionEvent) {
		rt.broadcast(protocol.EventMsg{
			Type:            protocol.TypeEvent,
			ProtocolVersion: protocol.Version,
			Tick:            rt.tick,
			Event:           protocol.EventTransition,
			Transition:      ev.Type.String(),
			LevelSeed:       ev.NextSeed,
			Mirror:          ev.Mirror,
		})
		rt.recordRound(ev)
	})
	return rt
}

// SetRoundLog mirrors round transitions to a JSONL journal. Call before
// Run.
func (rt *Runtime) SetRoundLog(l *plog.RoundLogger) { rt.rounds = l }

func (rt *Runtime) Inbox() chan<- ActEnvelope { return rt.inbox }
func (rt *Runtime) Join() chan<- JoinRequest  { return rt.join }
func (rt *Runtime) Leave() chan<- string      { return rt.leave }
func (rt *Runtime) CurrentTick() uint64       { return rt.tick }

// Run steps the campaign until ctx is cancelled, then cuts a final
// snapshot.
func (rt *Runtime) Run(ctx context.Context) error {
	tune := rt.c.Tuning()
	dt := 1.0 / float64(tune.TickRateHz)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rt.writeSnapshot()
			return ctx.Err()

		case req := <-rt.join:
			rt.handleJoin(req)

		case id := <-rt.leave:
			delete(rt.sessions, id)

		case env := <-rt.inbox:
			rt.handleAct(env)

		case <-ticker.C:
			rt.tick++
			rt.c.Tick(dt)
			rt.flushDirty()
			if tune.SnapshotEveryTicks > 0 && rt.tick%uint64(tune.SnapshotEveryTicks) == 0 {
				rt.writeSnapshot()
			}
		}
	}
}

func (rt *Runtime) handleJoin(req JoinRequest) {
	rt.nextSession++
	id := fmt.Sprintf("c%04d", rt.nextSession)
	if req.ResumeToken != "" {
		id = req.ResumeToken
	}
	rt.sessions[id] = &session{id: id, name: req.Name, out: req.Out}

	cats := rt.c.Catalogs()
	tune := rt.c.Tuning()
	req.Resp <- JoinResponse{Welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       id,
		ClientID:        id,
		ResumeToken:     id,
		CampaignParams: protocol.CampaignParams{
			TickRateHz:   tune.TickRateHz,
			Seed:         rt.c.Map.Seed,
			NumLocations: len(rt.c.Map.Locations),
			InitialMoney: tune.InitialMoney,
		},
		Catalogs: protocol.CatalogDigests{
			MissionsDigest:      cats.Missions.Digest,
			FactionsDigest:      cats.Factions.Digest,
			LocationTypesDigest: cats.LocationTypes.Digest,
			ItemsDigest:         cats.Items.Digest,
		},
	}}

	// Late joiners get the full state immediately.
	rt.sendState(rt.sessions[id], nil)
}

func (rt *Runtime) handleAct(env ActEnvelope) {
	code, err := rt.applyAct(env)
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          env.Act.ID,
		Accepted:        err == nil,
		ServerTick:      rt.tick,
	}
	if err != nil {
		ack.Code = code
		ack.Message = err.Error()
	}
	if s := rt.sessions[env.ClientID]; s != nil {
		rt.send(s, ack)
	}
	rt.flushDirty()
}

func (rt *Runtime) applyAct(env ActEnvelope) (string, error) {
	c := rt.c
	act := env.Act
	switch act.Cmd {
	case protocol.CmdSelectLocation:
		loc := c.Map.LocationByID(act.LocationID)
		if loc == nil {
			return protocol.ErrUnknownLocation, fmt.Errorf("unknown location %q", act.LocationID)
		}
		if err := c.Map.SelectLocation(loc); err != nil {
			return protocol.ErrNotConnected, err
		}
		c.SetDirty(NetMapData)
		return "", nil

	case protocol.CmdDeselectLocation:
		_ = c.Map.SelectLocation(nil)
		c.SetDirty(NetMapData)
		return "", nil

	case protocol.CmdSelectMission:
		cur := c.Map.CurrentLocation
		if cur == nil {
			return protocol.ErrBadRequest, fmt.Errorf("no current location")
		}
		for _, m := range cur.AvailableMissions() {
			if m.Prefab.ID == act.MissionID {
				cur.SelectMission(m)
				c.CheckTooManyMissions(env.ClientID)
				c.SetDirty(NetMissions)
				return "", nil
			}
		}
		return protocol.ErrUnknownMission, fmt.Errorf("mission %q not available here", act.MissionID)

	case protocol.CmdDeselectMission:
		cur := c.Map.CurrentLocation
		if cur == nil {
			return protocol.ErrBadRequest, fmt.Errorf("no current location")
		}
		for _, m := range cur.SelectedMissions() {
			if m.Prefab.ID == act.MissionID {
				cur.DeselectMission(m)
				c.SetDirty(NetMissions)
				return "", nil
			}
		}
		return protocol.ErrUnknownMission, fmt.Errorf("mission %q not selected", act.MissionID)

	case protocol.CmdPurchase:
		if act.Price < 0 {
			return protocol.ErrBadRequest, fmt.Errorf("negative price")
		}
		if !c.TryPurchase(env.ClientID, act.Price) {
			return protocol.ErrNoMoney, fmt.Errorf("cannot afford %d", act.Price)
		}
		return "", nil

	case protocol.CmdHire:
		if act.HireID == "" || act.HireName == "" {
			return protocol.ErrBadRequest, fmt.Errorf("missing hire id or name")
		}
		if !c.TryHireCharacter(env.ClientID, act.HireID, act.HireName, act.HireSalary) {
			return protocol.ErrNoMoney, fmt.Errorf("cannot afford salary %d", act.HireSalary)
		}
		return "", nil

	case protocol.CmdHullRepairs:
		if !c.TryPurchaseHullRepairs(env.ClientID) {
			return protocol.ErrNoMoney, fmt.Errorf("hull repairs unavailable or unaffordable")
		}
		return "", nil

	case protocol.CmdItemRepairs:
		if !c.TryPurchaseItemRepairs(env.ClientID) {
			return protocol.ErrNoMoney, fmt.Errorf("item repairs unavailable or unaffordable")
		}
		return "", nil

	case protocol.CmdReplaceShuttles:
		if !c.TryReplaceLostShuttles(env.ClientID) {
			return protocol.ErrNoMoney, fmt.Errorf("shuttle replacement unavailable or unaffordable")
		}
		return "", nil

	case protocol.CmdSwitchSub:
		for _, info := range c.OwnedSubmarines() {
			if info.Name == act.SubName {
				c.SetPendingSubmarineSwitch(info, act.TransferItems)
				return "", nil
			}
		}
		return protocol.ErrBadRequest, fmt.Errorf("submarine %q is not owned", act.SubName)

	case protocol.CmdEndRound:
		if c.Runners().IsRunning(RunnerLevelTransition) {
			return protocol.ErrTransitionBusy, fmt.Errorf("transition already in flight")
		}
		if err := c.EndRound(); err != nil {
			return protocol.ErrNoTransition, err
		}
		return "", nil

	default:
		return protocol.ErrProtoBadRequest, fmt.Errorf("unknown cmd %q", act.Cmd)
	}
}

// flushDirty replicates changed state sections to every session.
func (rt *Runtime) flushDirty() {
	d := rt.c.TakeDirty()
	if d == 0 {
		return
	}
	flags := flagNames(d)
	for _, s := range rt.sessions {
		rt.sendState(s, flags)
	}
}

func flagNames(d NetFlags) []string {
	var out []string
	names := map[NetFlags]string{
		NetMisc:       "misc",
		NetMapData:    "map",
		NetMoney:      "money",
		NetReputation: "reputation",
		NetMissions:   "missions",
		NetSubmarine:  "submarine",
		NetPurchases:  "purchases",
		NetCrew:       "crew",
	}
	for _, f := range AllNetFlags {
		if d.Has(f) {
			out = append(out, names[f])
		}
	}
	return out
}

func (rt *Runtime) sendState(s *session, flags []string) {
	c := rt.c
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            rt.tick,
		Flags:           flags,
		Money:           c.Bank.Balance(),
		Reputations:     make(map[string]float64),
		IsFirstRound:    c.IsFirstRound(),
		PassedLevels:    c.TotalPassedLevels,
	}
	for _, f := range c.Factions() {
		msg.Reputations[f.Prefab.ID] = f.Reputation.Value()
	}
	if loc := c.Map.CurrentLocation; loc != nil {
		msg.CurrentLoc = loc.ID
	}
	if loc := c.Map.SelectedLocation; loc != nil {
		msg.SelectedLoc = loc.ID
	}
	for _, m := range c.Missions() {
		msg.Missions = append(msg.Missions, protocol.MissionRef{
			PrefabID: m.Prefab.ID,
			Kind:     m.Prefab.Type,
			From:     m.Locations[0].ID,
			To:       m.Locations[1].ID,
		})
	}
	for _, cm := range c.Crew() {
		msg.Crew = append(msg.Crew, protocol.CrewRef{ID: cm.ID, Name: cm.Name, Salary: cm.Salary, NewHire: cm.NewHire})
	}
	if info := c.MainSubmarineInfo(); info != nil {
		msg.MainSub = info.Name
	}
	if info := c.PendingSubmarineSwitch; info != nil {
		msg.PendingSub = info.Name
	}
	rt.send(s, msg)
}

func (rt *Runtime) send(s *session, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.out <- b:
	default:
		// Slow consumer; drop rather than stall the loop.
	}
}

func (rt *Runtime) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	for _, s := range rt.sessions {
		select {
		case s.out <- b:
		default:
		}
	}
}

func (rt *Runtime) writeSnapshot() {
	snap := rt.c.Export(rt.campaignID, rt.tick)
	path := filepath.Join(rt.snapDir, snapshot.Filename(rt.tick))
	if err := snapshot.Write(path, snap); err != nil {
		rt.log.Printf("[runtime] snapshot write failed: %v", err)
		return
	}
	rt.index.RecordSnapshot(path, snap)
	rt.log.Printf("[runtime] snapshot written: %s", path)
}

func (rt *Runtime) recordRound(ev TransitionEvent) {
	from, to := "", ""
	if rt.c.Map.CurrentLocation != nil {
		to = rt.c.Map.CurrentLocation.ID
	}
	if h := rt.c.Map.LocationHistory(); len(h) > 1 {
		from = h[len(h)-2]
	}
	rt.index.WriteRound(indexdb.RoundRow{
		Tick:         rt.tick,
		Transition:   ev.Type.String(),
		FromLocation: from,
		ToLocation:   to,
		LevelSeed:    ev.NextSeed,
		Mirror:       ev.Mirror,
		PassedLevels: rt.c.TotalPassedLevels,
		Money:        rt.c.Bank.Balance(),
		MissionCount: len(rt.c.Missions()),
	})
	if err := rt.rounds.WriteRound(plog.RoundEntry{
		Tick:         rt.tick,
		Transition:   ev.Type.String(),
		FromLocation: from,
		ToLocation:   to,
		LevelSeed:    ev.NextSeed,
		Mirror:       ev.Mirror,
		PassedLevels: rt.c.TotalPassedLevels,
		Money:        rt.c.Bank.Balance(),
		MissionCount: len(rt.c.Missions()),
	}); err != nil {
		rt.log.Printf("[runtime] round journal write failed: %v", err)
	}
}
