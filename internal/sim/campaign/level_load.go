package campaign

import (
	"fmt"

	"deepdrift.game/internal/sim/gamemap"
	"deepdrift.game/internal/sim/vessel"
)

// RunnerLevelTransition is the mutual-exclusion name for the level
// transition runner: at most one transition may be in flight.
const RunnerLevelTransition = "LevelTransition"

// Horizontal span of a connection level; exits sit at either end.
const levelWidth = 8000.0

// LoadInitialLevel builds the first round's outpost level at the start
// location. Called once when a new campaign begins.
func (c *Campaign) LoadInitialLevel() error {
	if c.Map.CurrentLocation == nil {
		c.Map.SetLocation(c.Map.StartLocation)
		c.Map.ClearLocationHistory()
	}
	loc := c.Map.CurrentLocation
	if loc == nil {
		return fmt.Errorf("load initial level: map has no current location")
	}
	l, err := c.buildLevel(loc.LevelData, false)
	if err != nil {
		return fmt.Errorf("load initial level: %w", err)
	}
	c.Level = l
	c.drawExtraMissions(loc.LevelData)
	c.snapshotRoundStartReputation()
	c.dirty |= NetMapData | NetMisc | NetMissions
	return nil
}

// LoadNewLevel attempts the currently available transition. Authority
// side only; a transition already in flight or a decision of None is
// not fatal, the round simply does not advance yet.
func (c *Campaign) LoadNewLevel() error {
	if c.isClient {
		return fmt.Errorf("load new level: campaign is a network client, the server decides transitions")
	}
	if c.runners.IsRunning(RunnerLevelTransition) {
		c.log.Printf("[campaign] level transition already in flight, ignoring")
		return nil
	}

	t, next, leavingSub := c.GetAvailableTransition()
	if t == TransitionNone || next == nil {
		return fmt.Errorf("load new level: no transition available: %s", c.transitionDebugState(t, leavingSub))
	}

	mirror := false
	if next.Type == gamemap.LevelLocationConnection {
		if conn := c.Map.ConnectionForLevel(next); conn != nil {
			if dep := c.GetCurrentDisplayLocation(); dep != nil {
				mirror = conn.Locations[0] != dep
			}
		}
	}

	c.isFirstRound = false
	c.NextLevel = next
	r := &transitionRunner{
		c:          c,
		t:          t,
		next:       next,
		leavingSub: leavingSub,
		mirror:     mirror,
		ticksLeft:  c.tune.EndTransitionTicks,
	}
	if err := c.runners.Start(RunnerLevelTransition, r); err != nil {
		return fmt.Errorf("load new level: %w", err)
	}
	c.log.Printf("[campaign] transition %s started (next seed %s, mirror %v)", t, next.Seed, mirror)
	return nil
}

// transitionDebugState captures the decision inputs for the postmortem
// log when a transition was requested but none is possible.
func (c *Campaign) transitionDebugState(t TransitionType, leavingSub *vessel.Submarine) string {
	m := c.Map
	cur, sel := "<nil>", "<nil>"
	if m.CurrentLocation != nil {
		cur = m.CurrentLocation.ID
	}
	if m.SelectedLocation != nil {
		sel = m.SelectedLocation.ID
	}
	subName, atStart, atEnd := "<nil>", false, false
	if leavingSub != nil {
		subName = leavingSub.Name
		atStart = leavingSub.AtStartExit
		atEnd = leavingSub.AtEndExit
	}
	return fmt.Sprintf("type=%s current=%s selected=%s leavingSub=%s atStartExit=%v atEndExit=%v",
		t, cur, sel, subName, atStart, atEnd)
}

// transitionRunner counts down the end-of-round delay, then commits the
// transition.
type transitionRunner struct {
	c          *Campaign
	t          TransitionType
	next       *gamemap.LevelData
	leavingSub *vessel.Submarine
	mirror     bool
	ticksLeft  int
}

func (r *transitionRunner) Tick(dt float64) RunnerStatus {
	if r.ticksLeft > 0 {
		r.ticksLeft--
		return RunnerRunning
	}
	if err := r.c.finishTransition(r.t, r.next, r.leavingSub, r.mirror); err != nil {
		r.c.log.Printf("[campaign] transition %s failed: %v", r.t, err)
		r.c.NextLevel = nil
		return RunnerFailed
	}
	return RunnerDone
}

func (c *Campaign) finishTransition(t TransitionType, next *gamemap.LevelData, leavingSub *vessel.Submarine, mirror bool) error {
	for _, fn := range c.beforeLevelLoading {
		fn()
	}
	c.beforeLevelLoading = nil

	if t == TransitionEnd {
		c.EndCampaign()
		return nil
	}

	oldLevel := c.Level
	c.wasDocked = leavingSub != nil && oldLevel != nil &&
		(leavingSub.IsDockedTo(oldLevel.StartOutpost) || leavingSub.IsDockedTo(oldLevel.EndOutpost))

	if c.PendingSubmarineSwitch != nil {
		if err := c.commitSubmarineSwitch(oldLevel, leavingSub); err != nil {
			c.log.Printf("[campaign] submarine switch failed, keeping current sub: %v", err)
		}
	}

	m := c.Map
	switch t {
	case TransitionProgressToNextLocation:
		if loc := m.LocationForLevel(next); loc != nil {
			m.SetLocation(loc)
		} else if oldLevel != nil && oldLevel.EndLocation != nil {
			m.SetLocation(oldLevel.EndLocation)
		}
	case TransitionProgressToNextEmptyLocation:
		if oldLevel != nil && oldLevel.EndLocation != nil {
			m.SetLocation(oldLevel.EndLocation)
		}
	case TransitionReturnToPreviousLocation, TransitionReturnToPreviousEmptyLocation:
		m.SelectLocation(nil)
	case TransitionLeaveLocation:
		// The crew is in transit; CurrentLocation stays until they
		// arrive at the far end.
	}

	l, err := c.buildLevel(next, mirror)
	if err != nil {
		return fmt.Errorf("build level %s: %w", next.Seed, err)
	}
	c.Level = l
	c.NextLevel = nil
	c.TotalPassedLevels++

	c.drawExtraMissions(next)
	c.snapshotRoundStartReputation()
	c.markCrewSettled()

	ev := TransitionEvent{Type: t, NextSeed: next.Seed, Mirror: mirror}
	for _, fn := range c.onTransition {
		fn(ev)
	}
	c.dirty |= NetMapData | NetMisc | NetMissions
	c.log.Printf("[campaign] transition %s complete: now at level %s (passed %d)", t, next.Seed, c.TotalPassedLevels)
	return nil
}

func (c *Campaign) snapshotRoundStartReputation() {
	for _, f := range c.factions {
		f.Reputation.snapshotRoundStart()
	}
}

func (c *Campaign) markCrewSettled() {
	for _, cm := range c.crew {
		cm.NewHire = false
	}
}

// buildLevel instantiates the scene for a level: exit outposts where
// the bordering locations have one, the main submarine docked at the
// start, and the surviving crew aboard.
func (c *Campaign) buildLevel(data *gamemap.LevelData, mirror bool) (*Level, error) {
	if data == nil {
		return nil, fmt.Errorf("nil level data")
	}
	sc := &vessel.Scene{}
	l := &Level{
		Data:       data,
		Mirrored:   mirror,
		Generating: true,
		Scene:      sc,
	}

	m := c.Map
	switch data.Type {
	case gamemap.LevelOutpost:
		loc := m.LocationForLevel(data)
		if loc == nil {
			loc = m.CurrentLocation
		}
		if loc == nil {
			return nil, fmt.Errorf("outpost level %s matches no location", data.Seed)
		}
		l.StartLocation = loc
		l.EndLocation = loc
		l.EndExitPos = vessel.Vec2{X: levelWidth}
		if loc.HasOutpost() {
			l.StartOutpost = spawnOutpost(sc, loc.ID, l.StartExitPos)
		}

	case gamemap.LevelLocationConnection:
		conn := m.ConnectionForLevel(data)
		if conn == nil {
			return nil, fmt.Errorf("connection level %s matches no connection", data.Seed)
		}
		start, end := conn.Locations[0], conn.Locations[1]
		if mirror {
			start, end = end, start
		}
		l.StartLocation = start
		l.EndLocation = end
		l.EndExitPos = vessel.Vec2{X: levelWidth}
		if start.HasOutpost() {
			l.StartOutpost = spawnOutpost(sc, start.ID, l.StartExitPos)
		}
		if end.HasOutpost() {
			l.EndOutpost = spawnOutpost(sc, end.ID, l.EndExitPos)
		}

	default:
		return nil, fmt.Errorf("unknown level type %q", data.Type)
	}

	if c.mainSubInfo != nil {
		sub, err := sc.Instantiate(*c.mainSubInfo, c.cats)
		if err != nil {
			return nil, fmt.Errorf("instantiate main sub: %w", err)
		}
		sub.Position = l.StartExitPos
		sub.AtStartExit = true
		sc.MainSub = sub
		if l.StartOutpost != nil && c.wasDocked {
			sub.Dock(l.StartOutpost)
		}
	}

	for _, cm := range c.crew {
		if cm.CauseOfDeath != "" {
			continue
		}
		sc.Characters = append(sc.Characters, &vessel.Character{
			ID:        cm.ID,
			Name:      cm.Name,
			TeamID:    vessel.TeamPlayer,
			Submarine: sc.MainSub,
		})
	}

	l.Generating = false
	return l, nil
}

func spawnOutpost(sc *vessel.Scene, locationID string, pos vessel.Vec2) *vessel.Submarine {
	sub := &vessel.Submarine{
		Name:     "outpost-" + locationID,
		Type:     vessel.SubOutpost,
		TeamID:   vessel.TeamFriendlyNPC,
		Position: pos,
	}
	sc.AddSub(sub)
	return sub
}
