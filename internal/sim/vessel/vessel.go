package vessel

import "math"

// Team ids. Pirate subs are tagged as player subs too, so team checks
// matter when picking the leaving sub.
const (
	TeamPlayer      = "team1"
	TeamFriendlyNPC = "friendlynpc"
	TeamHostile     = "hostile"
)

// Submarine types.
const (
	SubPlayer  = "player"
	SubOutpost = "outpost"
	SubShuttle = "shuttle"
)

type Vec2 struct {
	X, Y float64
}

func (v Vec2) DistSquared(o Vec2) float64 {
	dx, dy := v.X-o.X, v.Y-o.Y
	return dx*dx + dy*dy
}

type Submarine struct {
	Name     string
	Type     string
	TeamID   string
	Position Vec2

	AtStartExit bool
	AtEndExit   bool

	docked []*Submarine
}

// DockedTo lists submarines directly docked to s.
func (s *Submarine) DockedTo() []*Submarine { return s.docked }

func (s *Submarine) IsDockedTo(other *Submarine) bool {
	for _, d := range s.docked {
		if d == other {
			return true
		}
	}
	return false
}

func (s *Submarine) Dock(other *Submarine) {
	if s == other || s.IsDockedTo(other) {
		return
	}
	s.docked = append(s.docked, other)
	other.docked = append(other.docked, s)
}

func (s *Submarine) Undock(other *Submarine) {
	s.docked = removeSub(s.docked, other)
	other.docked = removeSub(other.docked, s)
}

func removeSub(subs []*Submarine, target *Submarine) []*Submarine {
	for i, d := range subs {
		if d == target {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}

// ConnectedSubs returns the transitive docking chain including s itself.
func (s *Submarine) ConnectedSubs() []*Submarine {
	seen := map[*Submarine]bool{s: true}
	out := []*Submarine{s}
	for i := 0; i < len(out); i++ {
		for _, d := range out[i].docked {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}

type Character struct {
	ID   string
	Name string

	TeamID         string
	IsRemotePlayer bool
	// The locally controlled character (single-player).
	Controlled bool

	Dead          bool
	Incapacitated bool

	Submarine *Submarine
	Position  Vec2
}

func (c *Character) Alive() bool { return !c.Dead }

// FindClosestOpts narrows FindClosest the way exit resolution needs:
// outposts and respawn shuttles never count as the leaving hull.
type FindClosestOpts struct {
	IgnoreOutposts bool
	IgnoreShuttles bool
	TeamID         string // empty = any team
}

func FindClosest(subs []*Submarine, pos Vec2, opts FindClosestOpts) *Submarine {
	var best *Submarine
	bestDist := math.MaxFloat64
	for _, s := range subs {
		if opts.IgnoreOutposts && s.Type == SubOutpost {
			continue
		}
		if opts.IgnoreShuttles && s.Type == SubShuttle {
			continue
		}
		if opts.TeamID != "" && s.TeamID != opts.TeamID {
			continue
		}
		if d := s.Position.DistSquared(pos); d < bestDist {
			best = s
			bestDist = d
		}
	}
	return best
}
