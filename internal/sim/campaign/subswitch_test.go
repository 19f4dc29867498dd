package campaign

import (
	"testing"

	"deepdrift.game/internal/sim/vessel"
)

func pendingSubInfo(containers ...string) *vessel.SubmarineInfo {
	return &vessel.SubmarineInfo{
		Name:   "upgrade",
		Type:   vessel.SubPlayer,
		TeamID: vessel.TeamPlayer,
		Hulls: []vessel.HullInfo{
			{ID: "bridge", X: 0, Y: 0},
			{ID: "hold", X: 10, Y: 0},
		},
		CargoHull:  "hold",
		Containers: containers,
	}
}

// transferScene builds an old sub carrying a mix of transferable and
// fixed items.
func transferScene(c *Campaign) (*vessel.Scene, *vessel.Submarine, map[string]*vessel.Item) {
	sc := &vessel.Scene{}
	oldSub := &vessel.Submarine{Name: "rustbucket", Type: vessel.SubPlayer, TeamID: vessel.TeamPlayer}
	sc.AddSub(oldSub)
	sc.MainSub = oldSub
	sc.Hulls = append(sc.Hulls, &vessel.Hull{ID: "old-hold", Submarine: oldSub})

	items := map[string]*vessel.Item{}
	spawn := func(key, prefab string) *vessel.Item {
		it := sc.SpawnItem(c.cats.Items.ByID[prefab], oldSub, vessel.Vec2{})
		items[key] = it
		return it
	}

	crate := spawn("crate", "supply_crate")
	tool := spawn("tool", "welding_tool")
	crate.TryPut(tool)

	spawn("bar", "steel_bar")
	spawn("door", "hatch")
	spawn("core", "reactor_core")

	wired := spawn("wire", "wire")
	wired.WiredLive = true

	attached := spawn("attached_bar", "steel_bar")
	attached.Attached = true

	held := spawn("held_bar", "steel_bar")
	held.SetHeldBy(&vessel.Character{ID: "p1", Submarine: oldSub})

	return sc, oldSub, items
}

func TestTransferItemsBetweenSubs(t *testing.T) {
	c := testCampaign(chainMap(outpostType, mineType))
	sc, oldSub, items := transferScene(c)

	newSub, err := c.TransferItemsBetweenSubs(sc, oldSub, pendingSubInfo("steel_cabinet"))
	if err != nil {
		t.Fatalf("TransferItemsBetweenSubs: %v", err)
	}

	// The crate moves to the cargo drop.
	if items["crate"].Submarine != newSub {
		t.Fatalf("crate not on the new sub")
	}
	// The tool finds its preferred container on the new sub.
	toolDst := items["tool"].Container()
	if toolDst == nil || toolDst.Prefab.ID != "steel_cabinet" {
		t.Fatalf("tool landed in %v, want the steel cabinet", toolDst)
	}
	// The bar has no preferred container; the crate that came along has
	// room for it.
	if items["bar"].Container() != items["crate"] {
		t.Fatalf("bar landed in %v, want the transferred crate", items["bar"].Container())
	}

	// Fixed and held items stay behind.
	for _, key := range []string{"door", "core", "wire", "attached_bar", "held_bar"} {
		if items[key].Submarine == newSub {
			t.Fatalf("%s was transferred, want left behind", key)
		}
	}

	// The old sub is recorded as what the crew left behind.
	if c.PreviousSubmarine() == nil || c.PreviousSubmarine().Name != "rustbucket" {
		t.Fatalf("previous submarine=%v, want rustbucket", c.PreviousSubmarine())
	}
}

func TestTransferFallsBackToLooseDrop(t *testing.T) {
	c := testCampaign(chainMap(outpostType, mineType))
	sc := &vessel.Scene{}
	oldSub := &vessel.Submarine{Name: "rustbucket", Type: vessel.SubPlayer, TeamID: vessel.TeamPlayer}
	sc.AddSub(oldSub)
	sc.MainSub = oldSub
	sc.Hulls = append(sc.Hulls, &vessel.Hull{ID: "old-hold", Submarine: oldSub})

	// One crate (capacity 4) and 13 tools. The new sub's cabinet takes
	// 8, overflow fills the crate, and the last tool has nowhere left.
	sc.SpawnItem(c.cats.Items.ByID["supply_crate"], oldSub, vessel.Vec2{})
	var tools []*vessel.Item
	for i := 0; i < 13; i++ {
		tools = append(tools, sc.SpawnItem(c.cats.Items.ByID["welding_tool"], oldSub, vessel.Vec2{}))
	}

	newSub, err := c.TransferItemsBetweenSubs(sc, oldSub, pendingSubInfo("steel_cabinet"))
	if err != nil {
		t.Fatalf("TransferItemsBetweenSubs: %v", err)
	}

	inCabinet, inCrate, loose := 0, 0, 0
	var looseTool *vessel.Item
	for _, tool := range tools {
		switch {
		case tool.Container() != nil && tool.Container().Prefab.ID == "steel_cabinet":
			inCabinet++
		case tool.Container() != nil && tool.Container().Prefab.ID == "supply_crate":
			inCrate++
		case tool.Submarine == newSub:
			loose++
			looseTool = tool
		default:
			t.Fatalf("tool %s ended up nowhere: container=%v sub=%v", tool.ID, tool.Container(), tool.Submarine)
		}
	}
	if inCabinet != 8 || inCrate != 4 || loose != 1 {
		t.Fatalf("cabinet=%d crate=%d loose=%d, want 8/4/1", inCabinet, inCrate, loose)
	}

	// The overflow tool lands at the cargo drop after the crate took
	// slot 0.
	want := vessel.CargoPos(vessel.Vec2{X: 10}, 1)
	if looseTool.Position != want {
		t.Fatalf("loose tool at %v, want cargo drop %v", looseTool.Position, want)
	}
}

func TestTransferAbortsWithoutSpawnHull(t *testing.T) {
	c := testCampaign(chainMap(outpostType, mineType))
	sc, oldSub, items := transferScene(c)

	pending := &vessel.SubmarineInfo{Name: "hulk", Type: vessel.SubPlayer, TeamID: vessel.TeamPlayer}
	if _, err := c.TransferItemsBetweenSubs(sc, oldSub, pending); err == nil {
		t.Fatalf("transfer to a sub with no hulls succeeded")
	}

	// The abort leaves already-detached cargo in limbo; callers surface
	// this and retry rather than silently re-homing items.
	if items["bar"].Submarine != nil {
		t.Fatalf("bar re-homed after abort, want detached")
	}
}

func TestCommitSubmarineSwitchWithoutTransfer(t *testing.T) {
	c := testCampaign(chainMap(outpostType, mineType))
	sc, oldSub, _ := transferScene(c)
	l := &Level{Data: c.Map.CurrentLocation.LevelData, Scene: sc}
	c.Level = l

	info := vessel.NewSubmarineInfo(oldSub, sc)
	c.mainSubInfo = &info
	c.SetPendingSubmarineSwitch(pendingSubInfo(), false)

	if err := c.commitSubmarineSwitch(l, oldSub); err != nil {
		t.Fatalf("commitSubmarineSwitch: %v", err)
	}

	if c.MainSubmarineInfo().Name != "upgrade" {
		t.Fatalf("main sub=%q after switch, want upgrade", c.MainSubmarineInfo().Name)
	}
	if c.PendingSubmarineSwitch != nil {
		t.Fatalf("pending switch not cleared")
	}
	if c.PreviousSubmarine() == nil || c.PreviousSubmarine().Name != "rustbucket" {
		t.Fatalf("previous submarine=%v, want rustbucket", c.PreviousSubmarine())
	}

	owned := c.OwnedSubmarines()
	if len(owned) != 2 || owned[0].Name != "upgrade" || owned[1].Name != "rustbucket" {
		names := make([]string, len(owned))
		for i, s := range owned {
			names[i] = s.Name
		}
		t.Fatalf("owned subs=%v, want [upgrade rustbucket]", names)
	}
}
