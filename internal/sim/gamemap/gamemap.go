package gamemap

import (
	"sort"

	"deepdrift.game/internal/sim/catalogs"
)

type LevelType string

const (
	LevelLocationConnection LevelType = "LocationConnection"
	LevelOutpost            LevelType = "Outpost"
)

type Biome struct {
	ID            string
	IsEndBiome    bool
	MinDifficulty float64
	MaxDifficulty float64
}

// LevelData describes a level that can be loaded: either the passage
// along a connection or the outpost level of a location. Produced by
// the generator, consumed read-only by the campaign.
type LevelData struct {
	Type       LevelType
	Seed       string
	Difficulty float64
	Biome      *Biome

	HasBeaconStation bool
	IsBeaconActive   bool

	HasHuntingGrounds           bool
	OriginallyHadHuntingGrounds bool
}

type Location struct {
	ID   string
	Name string
	Type catalogs.LocationTypeDef

	Biome *Biome
	// Controlling faction ids; empty string = uncontrolled.
	Faction          string
	SecondaryFaction string

	LevelData *LevelData

	Connections []*LocationConnection

	// Position along the progression axis; start is the smallest.
	MapX float64

	availableMissions []*Mission
	selectedMissions  []*Mission
	takenItems        map[string]struct{}

	TurnsInRadiation int
}

func (l *Location) HasOutpost() bool { return l.Type.HasOutpost }

func (l *Location) AvailableMissions() []*Mission { return l.availableMissions }
func (l *Location) SelectedMissions() []*Mission  { return l.selectedMissions }

func (l *Location) AddAvailableMission(m *Mission) {
	l.availableMissions = append(l.availableMissions, m)
}

func (l *Location) SelectMission(m *Mission) {
	for _, sel := range l.selectedMissions {
		if sel == m {
			return
		}
	}
	l.selectedMissions = append(l.selectedMissions, m)
}

func (l *Location) DeselectMission(m *Mission) {
	for i, sel := range l.selectedMissions {
		if sel == m {
			l.selectedMissions = append(l.selectedMissions[:i], l.selectedMissions[i+1:]...)
			return
		}
	}
}

// RegisterTakenItems records outpost items the crew made off with, so
// they stay gone on revisits.
func (l *Location) RegisterTakenItems(itemIDs []string) {
	if l.takenItems == nil {
		l.takenItems = make(map[string]struct{})
	}
	for _, id := range itemIDs {
		l.takenItems[id] = struct{}{}
	}
}

func (l *Location) TakenItemCount() int { return len(l.takenItems) }

// TakenItems lists the recorded item ids, sorted for stable output.
func (l *Location) TakenItems() []string {
	out := make([]string, 0, len(l.takenItems))
	for id := range l.takenItems {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Reset clears per-campaign state when a campaign ends and loops.
func (l *Location) Reset() {
	l.availableMissions = nil
	l.selectedMissions = nil
	l.takenItems = nil
	l.TurnsInRadiation = 0
}

type LocationConnection struct {
	Locations  [2]*Location
	Biome      *Biome
	Difficulty float64
	LevelData  *LevelData
}

func (c *LocationConnection) OtherLocation(l *Location) *Location {
	if c.Locations[0] == l {
		return c.Locations[1]
	}
	return c.Locations[0]
}

func (c *LocationConnection) Contains(l *Location) bool {
	return c.Locations[0] == l || c.Locations[1] == l
}

// Mission is an instantiated mission prefab bound to two location
// slots. Same-location missions have both slots equal.
type Mission struct {
	Prefab    catalogs.MissionDef
	Locations [2]*Location
}

func (m *Mission) SameLocation() bool { return m.Locations[0] == m.Locations[1] }

func (m *Mission) Involves(l *Location) bool {
	return m.Locations[0] == l || m.Locations[1] == l
}
