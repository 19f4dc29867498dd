package campaign

import (
	"io"
	"log"

	"deepdrift.game/internal/sim/catalogs"
	"deepdrift.game/internal/sim/gamemap"
	"deepdrift.game/internal/sim/tuning"
	"deepdrift.game/internal/sim/vessel"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testTuning() tuning.Tuning {
	var t tuning.Tuning
	t.ApplyDefaults()
	return t
}

func missionCatalog(defs ...catalogs.MissionDef) catalogs.MissionCatalog {
	c := catalogs.MissionCatalog{ByID: make(map[string]catalogs.MissionDef, len(defs))}
	for _, d := range defs {
		c.ByID[d.ID] = d
		c.Order = append(c.Order, d.ID)
	}
	return c
}

func factionCatalog(defs ...catalogs.FactionDef) catalogs.FactionCatalog {
	c := catalogs.FactionCatalog{ByID: make(map[string]catalogs.FactionDef, len(defs))}
	for _, d := range defs {
		c.ByID[d.ID] = d
		c.Order = append(c.Order, d.ID)
	}
	return c
}

func itemCatalog(defs ...catalogs.ItemDef) catalogs.ItemCatalog {
	c := catalogs.ItemCatalog{ByID: make(map[string]catalogs.ItemDef, len(defs))}
	for _, d := range defs {
		c.ByID[d.ID] = d
		c.Order = append(c.Order, d.ID)
	}
	return c
}

func testCatalogs() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Missions: missionCatalog(
			catalogs.MissionDef{ID: "beacon_a", NumericID: 1, Type: "Beacon", Tags: []string{"beaconnoreward"}, Commonness: 10},
			catalogs.MissionDef{ID: "hunt_easy", NumericID: 2, Type: "Monster", Tags: []string{"huntinggrounds", "easy"}, Commonness: 10},
			catalogs.MissionDef{ID: "hunt_hard", NumericID: 3, Type: "Monster", Tags: []string{"huntinggrounds", "hard"}, Commonness: 10},
			catalogs.MissionDef{ID: "pirate_a", NumericID: 4, Type: "Pirate", Tags: []string{"pirate"}, Commonness: 10},
			catalogs.MissionDef{ID: "pirate_b", NumericID: 5, Type: "Pirate", Tags: []string{"pirate"}, Commonness: 10},
			catalogs.MissionDef{ID: "end_conn", NumericID: 6, Type: "End", Tags: []string{"endlevel_locationconnection_0"}, Commonness: 10},
			catalogs.MissionDef{ID: "end_loc", NumericID: 7, Type: "End", Tags: []string{"endlevel_location_0"}, Commonness: 10},
			catalogs.MissionDef{ID: "salvage_a", NumericID: 8, Type: "Salvage", Commonness: 10},
		),
		Factions: factionCatalog(
			catalogs.FactionDef{ID: "coalition", Name: "Coalition", MenuOrder: 1, MinReputation: -100, MaxReputation: 100, InitialReputation: 10, ControlledOutpostPercentage: 50},
			catalogs.FactionDef{ID: "separatists", Name: "Separatists", MenuOrder: 2, MinReputation: -100, MaxReputation: 100, ControlledOutpostPercentage: 30},
		),
		LocationTypes: catalogs.LocationTypeCatalog{
			ByID: map[string]catalogs.LocationTypeDef{
				"outpost": {ID: "outpost", Name: "Outpost", HasOutpost: true, Commonness: 50},
				"mine":    {ID: "mine", Name: "Mine", Commonness: 50},
			},
			Order: []string{"mine", "outpost"},
		},
		Items: itemCatalog(
			catalogs.ItemDef{ID: "supply_crate", Tags: []string{"crate"}, Pickable: true, Capacity: 4},
			catalogs.ItemDef{ID: "steel_cabinet", Capacity: 8},
			catalogs.ItemDef{ID: "welding_tool", Pickable: true, Repairable: true, PreferredContainer: "steel_cabinet", FixDuration: 6},
			catalogs.ItemDef{ID: "steel_bar", Pickable: true},
			catalogs.ItemDef{ID: "hatch", IsDoor: true},
			catalogs.ItemDef{ID: "reactor_core", DontTransfer: true},
			catalogs.ItemDef{ID: "wire", Pickable: true, IsWire: true},
		),
	}
}

var outpostType = catalogs.LocationTypeDef{ID: "outpost", Name: "Outpost", HasOutpost: true, Commonness: 50}
var mineType = catalogs.LocationTypeDef{ID: "mine", Name: "Mine", Commonness: 50}

// chainMap builds a hand-wired line of locations: loc0 - loc1 - ... with
// one connection between each neighboring pair. Types alternate outpost
// first unless overridden by the caller afterwards.
func chainMap(types ...catalogs.LocationTypeDef) *gamemap.Map {
	m := &gamemap.Map{Seed: "test"}
	for i, ty := range types {
		biome := &gamemap.Biome{ID: "testbiome", MinDifficulty: 0, MaxDifficulty: 100}
		loc := &gamemap.Location{
			ID:    "loc" + string(rune('0'+i)),
			Name:  ty.Name,
			Type:  ty,
			Biome: biome,
			MapX:  float64(i * 100),
			LevelData: &gamemap.LevelData{
				Type:       gamemap.LevelOutpost,
				Seed:       "o" + string(rune('0'+i)),
				Difficulty: 20,
				Biome:      biome,
			},
		}
		m.Locations = append(m.Locations, loc)
	}
	for i := 0; i < len(m.Locations)-1; i++ {
		a, b := m.Locations[i], m.Locations[i+1]
		conn := &gamemap.LocationConnection{
			Locations:  [2]*gamemap.Location{a, b},
			Biome:      a.Biome,
			Difficulty: 30,
			LevelData: &gamemap.LevelData{
				Type:       gamemap.LevelLocationConnection,
				Seed:       "c" + string(rune('0'+i)),
				Difficulty: 30,
				Biome:      a.Biome,
			},
		}
		m.Connections = append(m.Connections, conn)
		a.Connections = append(a.Connections, conn)
		b.Connections = append(b.Connections, conn)
	}
	m.StartLocation = m.Locations[0]
	m.SetLocation(m.StartLocation)
	m.ClearLocationHistory()
	return m
}

func testCampaign(m *gamemap.Map) *Campaign {
	return New(testCatalogs(), testTuning(), m, testLogger(), Options{})
}

// connectionLevel sets the campaign up as if the crew were inside the
// connection between m.Locations[i] and m.Locations[i+1].
func connectionLevel(c *Campaign, conn *gamemap.LocationConnection) *Level {
	start, end := conn.Locations[0], conn.Locations[1]
	sc := &vessel.Scene{}
	l := &Level{
		Data:          conn.LevelData,
		StartLocation: start,
		EndLocation:   end,
		EndExitPos:    vessel.Vec2{X: levelWidth},
		Scene:         sc,
	}
	if start.HasOutpost() {
		l.StartOutpost = spawnOutpost(sc, start.ID, l.StartExitPos)
	}
	if end.HasOutpost() {
		l.EndOutpost = spawnOutpost(sc, end.ID, l.EndExitPos)
	}
	c.Level = l
	return l
}

func addMainSub(l *Level) *vessel.Submarine {
	sub := &vessel.Submarine{Name: "main", Type: vessel.SubPlayer, TeamID: vessel.TeamPlayer}
	l.Scene.AddSub(sub)
	l.Scene.MainSub = sub
	return sub
}

func addPlayer(l *Level, id string, sub *vessel.Submarine) *vessel.Character {
	ch := &vessel.Character{ID: id, TeamID: vessel.TeamPlayer, Controlled: true, Submarine: sub}
	if sub != nil {
		ch.Position = sub.Position
	}
	l.Scene.Characters = append(l.Scene.Characters, ch)
	return ch
}
