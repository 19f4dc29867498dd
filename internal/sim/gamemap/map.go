package gamemap

import (
	"fmt"

	"github.com/dominikbraun/graph"
)

// Map is the campaign world graph. CurrentLocation advances only via
// level transitions; SelectedLocation/SelectedConnection reflect the
// crew's chosen next destination.
type Map struct {
	Seed string

	Locations   []*Location
	Connections []*LocationConnection

	StartLocation *Location
	// Locations in the end biome, ordered by progression axis. The last
	// entry ends the campaign.
	EndLocations []*Location

	CurrentLocation    *Location
	SelectedLocation   *Location
	SelectedConnection *LocationConnection

	byID    map[string]*Location
	g       graph.Graph[string, *Location]
	history []string
}

func (m *Map) LocationByID(id string) *Location { return m.byID[id] }

func (m *Map) ConnectionBetween(a, b *Location) *LocationConnection {
	if a == nil || b == nil {
		return nil
	}
	for _, c := range a.Connections {
		if c.OtherLocation(a) == b {
			return c
		}
	}
	return nil
}

// SelectLocation picks the next destination. It must be adjacent to the
// current location; nil clears the selection.
func (m *Map) SelectLocation(loc *Location) error {
	if loc == nil {
		m.SelectedLocation = nil
		m.SelectedConnection = nil
		return nil
	}
	conn := m.ConnectionBetween(m.CurrentLocation, loc)
	if conn == nil {
		return fmt.Errorf("location %s is not connected to %s", loc.ID, m.CurrentLocation.ID)
	}
	m.SelectedLocation = loc
	m.SelectedConnection = conn
	return nil
}

// SetLocation moves the current location (end of a transition) and
// clears the selection.
func (m *Map) SetLocation(loc *Location) {
	if loc == nil {
		return
	}
	m.CurrentLocation = loc
	m.SelectedLocation = nil
	m.SelectedConnection = nil
	m.history = append(m.history, loc.ID)
}

// ConnectionForLevel finds the connection whose level is data, if any.
func (m *Map) ConnectionForLevel(data *LevelData) *LocationConnection {
	for _, c := range m.Connections {
		if c.LevelData == data {
			return c
		}
	}
	return nil
}

// LocationForLevel finds the location whose level is data, if any.
func (m *Map) LocationForLevel(data *LevelData) *Location {
	for _, l := range m.Locations {
		if l.LevelData == data {
			return l
		}
	}
	return nil
}

func (m *Map) LocationHistory() []string { return m.history }

func (m *Map) ClearLocationHistory() { m.history = nil }

// AppendHistory re-adds a visited location id when restoring a save.
func (m *Map) AppendHistory(id string) { m.history = append(m.history, id) }

// EndLocationIndex returns the position of loc in the ordered
// end-location list.
func (m *Map) EndLocationIndex(loc *Location) (int, bool) {
	for i, l := range m.EndLocations {
		if l == loc {
			return i, true
		}
	}
	return 0, false
}

func (m *Map) IsLastEndLocation(loc *Location) bool {
	n := len(m.EndLocations)
	return n > 0 && m.EndLocations[n-1] == loc
}

// HasFactionOutpostWithin reports whether a location controlled by the
// given faction, with an outpost, lies within maxHops connections of
// from (inclusive of from itself).
func (m *Map) HasFactionOutpostWithin(from *Location, factionID string, maxHops int) bool {
	if from == nil || factionID == "" {
		return false
	}
	adj, err := m.g.AdjacencyMap()
	if err != nil {
		return false
	}
	type entry struct {
		id   string
		hops int
	}
	visited := map[string]bool{from.ID: true}
	queue := []entry{{id: from.ID, hops: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		loc := m.byID[cur.id]
		if loc != nil && loc.Faction == factionID && loc.HasOutpost() {
			return true
		}
		if cur.hops >= maxHops {
			continue
		}
		for next := range adj[cur.id] {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, entry{id: next, hops: cur.hops + 1})
		}
	}
	return false
}
