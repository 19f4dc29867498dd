package campaign

import (
	"testing"

	"deepdrift.game/internal/sim/gamemap"
)

func tickUntilTransitionDone(t *testing.T, c *Campaign) {
	t.Helper()
	for i := 0; i < c.tune.EndTransitionTicks+5; i++ {
		c.Tick(0.2)
		if !c.Runners().IsRunning(RunnerLevelTransition) {
			return
		}
	}
	t.Fatalf("transition runner never finished")
}

func TestLoadInitialLevel(t *testing.T) {
	c := testCampaign(chainMap(outpostType, outpostType))
	c.SetMainSubmarineInfo(pendingSubInfo())

	if err := c.LoadInitialLevel(); err != nil {
		t.Fatalf("LoadInitialLevel: %v", err)
	}
	l := c.Level
	if !l.IsOutpostLevel() || l.StartLocation != c.Map.StartLocation {
		t.Fatalf("initial level is not the start location's outpost level")
	}
	if l.Scene.MainSub == nil || !l.Scene.MainSub.AtStartExit {
		t.Fatalf("main sub missing or not at the start exit")
	}
	if !c.IsFirstRound() {
		t.Fatalf("IsFirstRound=false before the first transition")
	}
}

func TestRoundProgression(t *testing.T) {
	c := testCampaign(chainMap(outpostType, outpostType))
	c.SetMainSubmarineInfo(pendingSubInfo())
	if err := c.LoadInitialLevel(); err != nil {
		t.Fatalf("LoadInitialLevel: %v", err)
	}
	start := c.Map.CurrentLocation
	dest := c.Map.Locations[1]

	// No destination picked: the round cannot end.
	if err := c.EndRound(); err == nil {
		t.Fatalf("EndRound succeeded with no destination selected")
	}

	if err := c.Map.SelectLocation(dest); err != nil {
		t.Fatalf("SelectLocation: %v", err)
	}
	if err := c.EndRound(); err != nil {
		t.Fatalf("EndRound: %v", err)
	}
	if c.IsFirstRound() {
		t.Fatalf("IsFirstRound survived a transition start")
	}

	// A second request while the runner counts down is ignored, not
	// duplicated.
	if err := c.EndRound(); err != nil {
		t.Fatalf("EndRound during countdown: %v", err)
	}

	tickUntilTransitionDone(t, c)

	l := c.Level
	if l.Data.Type != gamemap.LevelLocationConnection {
		t.Fatalf("level type=%s after leaving, want connection", l.Data.Type)
	}
	if l.Mirrored {
		t.Fatalf("connection entered from its own start should not mirror")
	}
	if c.Map.CurrentLocation != start {
		t.Fatalf("current location moved to %s during transit, want %s", c.Map.CurrentLocation.ID, start.ID)
	}
	if c.TotalPassedLevels != 1 {
		t.Fatalf("TotalPassedLevels=%d, want 1", c.TotalPassedLevels)
	}

	// Cross the level and dock at the far outpost.
	sub := l.Scene.MainSub
	sub.AtStartExit = false
	sub.AtEndExit = true
	sub.Position = l.EndExitPos
	sub.Dock(l.EndOutpost)
	addPlayer(l, "p1", sub)

	if err := c.EndRound(); err != nil {
		t.Fatalf("EndRound at the far exit: %v", err)
	}
	tickUntilTransitionDone(t, c)

	if c.Map.CurrentLocation != dest {
		t.Fatalf("current=%s after arriving, want %s", c.Map.CurrentLocation.ID, dest.ID)
	}
	if !c.Level.IsOutpostLevel() || c.Level.StartLocation != dest {
		t.Fatalf("arrival level is not the destination outpost")
	}
	// Docked on departure means docked on arrival.
	if c.Level.StartOutpost == nil || !c.Level.Scene.MainSub.IsDockedTo(c.Level.StartOutpost) {
		t.Fatalf("main sub not docked at the arrival outpost")
	}
	if c.TotalPassedLevels != 2 {
		t.Fatalf("TotalPassedLevels=%d, want 2", c.TotalPassedLevels)
	}
	if got := c.Map.LocationHistory(); len(got) != 1 || got[0] != dest.ID {
		t.Fatalf("history=%v, want [%s]", got, dest.ID)
	}
}

func TestTransitionEventFanout(t *testing.T) {
	c := testCampaign(chainMap(outpostType, outpostType))
	c.SetMainSubmarineInfo(pendingSubInfo())
	if err := c.LoadInitialLevel(); err != nil {
		t.Fatalf("LoadInitialLevel: %v", err)
	}

	var events []TransitionEvent
	c.OnTransition(func(ev TransitionEvent) { events = append(events, ev) })

	c.Map.SelectLocation(c.Map.Locations[1])
	if err := c.EndRound(); err != nil {
		t.Fatalf("EndRound: %v", err)
	}
	tickUntilTransitionDone(t, c)

	if len(events) != 1 || events[0].Type != TransitionLeaveLocation {
		t.Fatalf("events=%v, want one LeaveLocation", events)
	}
	if events[0].NextSeed != c.Level.Data.Seed {
		t.Fatalf("event seed=%q, want %q", events[0].NextSeed, c.Level.Data.Seed)
	}
}

func TestBeforeLevelLoadingHooksFireOnce(t *testing.T) {
	c := testCampaign(chainMap(outpostType, outpostType))
	c.SetMainSubmarineInfo(pendingSubInfo())
	if err := c.LoadInitialLevel(); err != nil {
		t.Fatalf("LoadInitialLevel: %v", err)
	}

	fired := 0
	c.BeforeLevelLoading(func() { fired++ })

	c.Map.SelectLocation(c.Map.Locations[1])
	if err := c.EndRound(); err != nil {
		t.Fatalf("EndRound: %v", err)
	}
	tickUntilTransitionDone(t, c)
	if fired != 1 {
		t.Fatalf("hook fired %d times, want 1", fired)
	}

	// The hook is consumed; the next transition must not re-fire it.
	l := c.Level
	sub := l.Scene.MainSub
	sub.AtStartExit = false
	sub.AtEndExit = true
	sub.Dock(l.EndOutpost)
	addPlayer(l, "p1", sub)
	if err := c.EndRound(); err != nil {
		t.Fatalf("EndRound: %v", err)
	}
	tickUntilTransitionDone(t, c)
	if fired != 1 {
		t.Fatalf("hook fired %d times across two transitions, want 1", fired)
	}
}

func TestCheckTooManyMissions(t *testing.T) {
	c := testCampaign(chainMap(outpostType, mineType))
	cur := c.Map.CurrentLocation
	dest := c.Map.Locations[1]

	for i := 0; i < 4; i++ {
		m := &gamemap.Mission{
			Prefab:    c.cats.Missions.ByID["salvage_a"],
			Locations: [2]*gamemap.Location{cur, dest},
		}
		cur.AddAvailableMission(m)
		cur.SelectMission(m)
	}

	c.CheckTooManyMissions("c1")
	if got := c.NumberOfMissionsAtLocation(dest); got != c.tune.TotalMaxMissionCount {
		t.Fatalf("missions at destination=%d after cap check, want %d", got, c.tune.TotalMaxMissionCount)
	}
}
