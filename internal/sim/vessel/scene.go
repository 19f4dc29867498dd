package vessel

import (
	"fmt"

	"deepdrift.game/internal/sim/catalogs"
)

// Spawn point types.
const (
	SpawnCargo = "cargo"
	SpawnPath  = "path"
)

type Hull struct {
	ID        string
	Submarine *Submarine
	IsWetRoom bool
	Position  Vec2
}

type Waypoint struct {
	ID        string
	SpawnType string
	Submarine *Submarine
	Hull      *Hull
	Position  Vec2
}

// Wall damage is tracked per section; repair costs sum over them.
type Wall struct {
	Submarine     *Submarine
	SectionDamage []float64
}

// Scene is everything physically present in the loaded level. Owned by
// the campaign loop; never shared between goroutines.
type Scene struct {
	MainSub *Submarine

	Subs       []*Submarine
	Items      []*Item
	Characters []*Character
	Hulls      []*Hull
	Waypoints  []*Waypoint
	Walls      []*Wall

	nextItem int
}

func (sc *Scene) AddSub(s *Submarine) { sc.Subs = append(sc.Subs, s) }

func (sc *Scene) SpawnItem(def catalogs.ItemDef, sub *Submarine, pos Vec2) *Item {
	sc.nextItem++
	it := &Item{
		ID:           fmt.Sprintf("it%04d", sc.nextItem),
		Prefab:       def,
		Submarine:    sub,
		Position:     pos,
		Condition:    100,
		MaxCondition: 100,
	}
	sc.Items = append(sc.Items, it)
	return it
}

// CargoWaypoint returns the designated cargo spawn point on sub, if any.
func (sc *Scene) CargoWaypoint(sub *Submarine) *Waypoint {
	for _, wp := range sc.Waypoints {
		if wp.Submarine == sub && wp.SpawnType == SpawnCargo {
			return wp
		}
	}
	return nil
}

// FirstDryHull is the fallback cargo destination when a sub has no
// cargo waypoint.
func (sc *Scene) FirstDryHull(sub *Submarine) *Hull {
	for _, h := range sc.Hulls {
		if h.Submarine == sub && !h.IsWetRoom {
			return h
		}
	}
	return nil
}

// FindContainerFor looks for a container on the given subs whose
// preferred-container slot matches the item's prefab.
func (sc *Scene) FindContainerFor(item *Item, subs []*Submarine) *Item {
	if item.Prefab.PreferredContainer == "" {
		return nil
	}
	for _, it := range sc.Items {
		if it.Removed || !it.Prefab.IsContainer() {
			continue
		}
		if !subContains(subs, it.Submarine) {
			continue
		}
		if it.Prefab.ID != item.Prefab.PreferredContainer {
			continue
		}
		if it.FreeSlots() > 0 {
			return it
		}
	}
	return nil
}

// CrateContainersOn lists reusable cargo containers (crate-tagged,
// interactable) on the given subs.
func (sc *Scene) CrateContainersOn(subs []*Submarine) []*Item {
	var out []*Item
	for _, it := range sc.Items {
		if it.Removed || it.NonInteractable || it.NonPlayerTeamInteractable || it.Hidden {
			continue
		}
		if !it.HasTag("crate") || !it.Prefab.IsContainer() {
			continue
		}
		if !subContains(subs, it.Submarine) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func subContains(subs []*Submarine, s *Submarine) bool {
	for _, sub := range subs {
		if sub == s {
			return true
		}
	}
	return false
}

// CargoPos spreads loose cargo drops inside the spawn hull so stacks
// don't overlap exactly.
func CargoPos(hullPos Vec2, index int) Vec2 {
	return Vec2{X: hullPos.X + float64(index)*1.5, Y: hullPos.Y}
}

// SubmarineInfo is the serializable description of a hull: enough to
// re-instantiate it in the next level, and the payload of a pending
// submarine switch.
type SubmarineInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	TeamID  string `json:"team_id"`
	NoItems bool   `json:"no_items,omitempty"`

	Hulls []HullInfo `json:"hulls,omitempty"`
	// Hull id of the cargo spawn point; empty = no cargo waypoint.
	CargoHull string `json:"cargo_hull,omitempty"`
	// Container item prefabs present on the sub when instantiated.
	Containers []string `json:"containers,omitempty"`
}

type HullInfo struct {
	ID        string  `json:"id"`
	IsWetRoom bool    `json:"is_wet_room,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// NewSubmarineInfo snapshots a live submarine.
func NewSubmarineInfo(sub *Submarine, sc *Scene) SubmarineInfo {
	info := SubmarineInfo{
		Name:   sub.Name,
		Type:   sub.Type,
		TeamID: sub.TeamID,
	}
	for _, h := range sc.Hulls {
		if h.Submarine != sub {
			continue
		}
		info.Hulls = append(info.Hulls, HullInfo{ID: h.ID, IsWetRoom: h.IsWetRoom, X: h.Position.X, Y: h.Position.Y})
	}
	if wp := sc.CargoWaypoint(sub); wp != nil && wp.Hull != nil {
		info.CargoHull = wp.Hull.ID
	}
	for _, it := range sc.Items {
		if it.Submarine == sub && it.Prefab.IsContainer() && !it.Removed {
			info.Containers = append(info.Containers, it.Prefab.ID)
		}
	}
	return info
}

// Instantiate builds a submarine from its info and registers it with
// the scene, including hulls, the cargo waypoint and container items.
func (sc *Scene) Instantiate(info SubmarineInfo, cats *catalogs.Catalogs) (*Submarine, error) {
	sub := &Submarine{
		Name:   info.Name,
		Type:   info.Type,
		TeamID: info.TeamID,
	}
	sc.AddSub(sub)
	for _, hi := range info.Hulls {
		h := &Hull{ID: hi.ID, Submarine: sub, IsWetRoom: hi.IsWetRoom, Position: Vec2{X: hi.X, Y: hi.Y}}
		sc.Hulls = append(sc.Hulls, h)
		if info.CargoHull != "" && h.ID == info.CargoHull {
			sc.Waypoints = append(sc.Waypoints, &Waypoint{
				ID:        fmt.Sprintf("wp-%s-%s", sub.Name, h.ID),
				SpawnType: SpawnCargo,
				Submarine: sub,
				Hull:      h,
				Position:  h.Position,
			})
		}
	}
	for _, prefabID := range info.Containers {
		def, ok := cats.Items.ByID[prefabID]
		if !ok {
			return nil, fmt.Errorf("submarine %q references unknown item prefab %q", info.Name, prefabID)
		}
		pos := Vec2{}
		if h := sc.FirstDryHull(sub); h != nil {
			pos = h.Position
		}
		sc.SpawnItem(def, sub, pos)
	}
	return sub, nil
}
