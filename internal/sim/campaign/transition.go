package campaign

import (
	"deepdrift.game/internal/sim/gamemap"
	"deepdrift.game/internal/sim/vessel"
)

// TransitionType is the single outcome of a transition decision.
type TransitionType int

const (
	TransitionNone TransitionType = iota
	// Leaving a location level.
	TransitionLeaveLocation
	// Progressing to the next location level.
	TransitionProgressToNextLocation
	// Returning to the previous location level.
	TransitionReturnToPreviousLocation
	// Returning to a location with no outpost: the crew is taken to the
	// map screen to pick the next destination.
	TransitionReturnToPreviousEmptyLocation
	// Progressing to a location with no outpost; same map-screen stop.
	TransitionProgressToNextEmptyLocation
	// End of the campaign (reached the final end location).
	TransitionEnd
)

func (t TransitionType) String() string {
	switch t {
	case TransitionNone:
		return "None"
	case TransitionLeaveLocation:
		return "LeaveLocation"
	case TransitionProgressToNextLocation:
		return "ProgressToNextLocation"
	case TransitionReturnToPreviousLocation:
		return "ReturnToPreviousLocation"
	case TransitionReturnToPreviousEmptyLocation:
		return "ReturnToPreviousEmptyLocation"
	case TransitionProgressToNextEmptyLocation:
		return "ProgressToNextEmptyLocation"
	case TransitionEnd:
		return "End"
	default:
		return "Unknown"
	}
}

// GetAvailableTransition decides which transition (if any) is currently
// possible, and which level it leads to. Total: always returns exactly
// one TransitionType, TransitionNone meaning "stay put". A nil next
// level with a non-None type means the crew must pick a destination on
// the map first.
func (c *Campaign) GetAvailableTransition() (TransitionType, *gamemap.LevelData, *vessel.Submarine) {
	l := c.Level
	if l == nil || l.Scene == nil || l.Scene.MainSub == nil {
		return TransitionNone, nil, nil
	}

	leavingSub := c.getLeavingSub()
	if leavingSub == nil {
		return TransitionNone, nil, nil
	}

	m := c.Map
	switch l.Data.Type {
	case gamemap.LevelLocationConnection:
		switch {
		case leavingSub.AtEndExit:
			return c.connectionEndExitTransition(l, leavingSub)
		case leavingSub.AtStartExit:
			return c.connectionStartExitTransition(l, leavingSub)
		default:
			return TransitionNone, nil, leavingSub
		}

	case gamemap.LevelOutpost:
		cur := m.CurrentLocation
		if _, isEnd := m.EndLocationIndex(cur); isEnd {
			if m.IsLastEndLocation(cur) {
				// Campaign complete; loop back to the start.
				return TransitionEnd, m.StartLocation.LevelData, leavingSub
			}
			if leavingSub.AtEndExit {
				if next := c.nextEndLocationAfter(cur); next != nil {
					return TransitionProgressToNextLocation, next.LevelData, leavingSub
				}
			}
			return TransitionNone, nil, leavingSub
		}
		if m.SelectedLocation != nil && m.SelectedConnection != nil {
			return TransitionLeaveLocation, m.SelectedConnection.LevelData, leavingSub
		}
		return TransitionNone, nil, leavingSub

	default:
		return TransitionNone, nil, leavingSub
	}
}

func (c *Campaign) connectionEndExitTransition(l *Level, leavingSub *vessel.Submarine) (TransitionType, *gamemap.LevelData, *vessel.Submarine) {
	m := c.Map
	if l.EndLocation != nil && l.EndLocation.HasOutpost() && l.EndOutpost != nil {
		return TransitionProgressToNextLocation, l.EndLocation.LevelData, leavingSub
	}
	if m.SelectedConnection != nil {
		// Re-entering the already loaded connection with consistent
		// orientation is a no-op transition: nil next level.
		next := m.SelectedConnection.LevelData
		if l.Data == next && (m.SelectedConnection.Locations[0] == l.EndLocation) != l.Mirrored {
			next = nil
		}
		return TransitionProgressToNextEmptyLocation, next, leavingSub
	}
	// No selection: the crew must pick a destination on the map.
	return TransitionProgressToNextEmptyLocation, nil, leavingSub
}

func (c *Campaign) connectionStartExitTransition(l *Level, leavingSub *vessel.Submarine) (TransitionType, *gamemap.LevelData, *vessel.Submarine) {
	m := c.Map
	cur := m.CurrentLocation
	if cur.HasOutpost() && l.StartOutpost != nil {
		return TransitionReturnToPreviousLocation, cur.LevelData, leavingSub
	}
	if m.SelectedLocation != nil && m.SelectedLocation != cur && !cur.HasOutpost() &&
		m.SelectedConnection != nil && l.Data != m.SelectedConnection.LevelData {
		return TransitionLeaveLocation, m.SelectedConnection.LevelData, leavingSub
	}
	var next *gamemap.LevelData
	if m.SelectedConnection != nil {
		next = m.SelectedConnection.LevelData
	}
	return TransitionReturnToPreviousEmptyLocation, next, leavingSub
}

func (c *Campaign) nextEndLocationAfter(cur *gamemap.Location) *gamemap.Location {
	idx, ok := c.Map.EndLocationIndex(cur)
	if !ok || idx+1 >= len(c.Map.EndLocations) {
		return nil
	}
	return c.Map.EndLocations[idx+1]
}

// getLeavingSub picks the submarine eligible to trigger a transition.
// In an outpost level that is always the main sub. Elsewhere the subs
// at the two exits compete: the one with strictly more live crew
// aboard (counting docked chains and outpost occupancy) wins, and a tie
// means nobody leaves.
func (c *Campaign) getLeavingSub() *vessel.Submarine {
	l := c.Level
	if l.IsOutpostLevel() {
		return l.Scene.MainSub
	}

	leavingPlayers := c.leavingPlayers()

	subAtStart := c.leavingSubAtStart(leavingPlayers)
	subAtEnd := c.leavingSubAtEnd(leavingPlayers)

	playersAtStart := 0
	if subAtStart != nil && subAtStart.AtStartExit {
		playersAtStart = countAboard(leavingPlayers, subAtStart, l.StartOutpost)
	}
	playersAtEnd := 0
	if subAtEnd != nil && subAtEnd.AtEndExit {
		playersAtEnd = countAboard(leavingPlayers, subAtEnd, l.EndOutpost)
	}

	// Strictly-greater wins; a tie (including both zero) leaves nobody
	// eligible.
	switch {
	case playersAtStart > playersAtEnd:
		return subAtStart
	case playersAtEnd > playersAtStart:
		return subAtEnd
	default:
		return nil
	}
}

// leavingPlayers are the characters whose position decides a
// transition: the controlled character plus remote players, dead ones
// excluded.
func (c *Campaign) leavingPlayers() []*vessel.Character {
	var out []*vessel.Character
	for _, ch := range c.Level.Scene.Characters {
		if ch.Dead {
			continue
		}
		if ch.Controlled || ch.IsRemotePlayer {
			out = append(out, ch)
		}
	}
	return out
}

func countAboard(players []*vessel.Character, sub *vessel.Submarine, outpost *vessel.Submarine) int {
	n := 0
	for _, ch := range players {
		if ch.Incapacitated {
			continue
		}
		if ch.Submarine == sub || sub.IsDockedTo(ch.Submarine) || (outpost != nil && ch.Submarine == outpost) {
			n++
		}
	}
	return n
}

func (c *Campaign) leavingSubAtStart(players []*vessel.Character) *vessel.Submarine {
	l := c.Level
	return c.leavingSubAtExit(players, l.StartOutpost, l.StartExitPos, func(s *vessel.Submarine) bool { return s.AtStartExit })
}

func (c *Campaign) leavingSubAtEnd(players []*vessel.Character) *vessel.Submarine {
	l := c.Level
	// Outpost levels have no end exit.
	if l.IsOutpostLevel() {
		return nil
	}
	return c.leavingSubAtExit(players, l.EndOutpost, l.EndExitPos, func(s *vessel.Submarine) bool { return s.AtEndExit })
}

// leavingSubAtExit resolves the candidate sub at one exit: the sub
// docked to the exit outpost if there is one, otherwise the nearest sub
// (preferring the main sub when the found one is docked into its
// chain).
func (c *Campaign) leavingSubAtExit(players []*vessel.Character, outpost *vessel.Submarine, exitPos vessel.Vec2, atExit func(*vessel.Submarine) bool) *vessel.Submarine {
	l := c.Level
	scene := l.Scene
	teamID := ""
	if len(players) > 0 {
		teamID = players[0].TeamID
	}
	opts := vessel.FindClosestOpts{IgnoreOutposts: true, IgnoreShuttles: true, TeamID: teamID}

	if outpost == nil {
		closest := vessel.FindClosest(scene.Subs, exitPos, opts)
		if closest == nil {
			return nil
		}
		return preferMainSub(closest, scene.MainSub)
	}

	// A sub docked to the outpost can leave.
	if docked := outpost.DockedTo(); len(docked) > 0 {
		d := docked[0]
		if d.Type == vessel.SubShuttle || (teamID != "" && d.TeamID != teamID) {
			return nil
		}
		return preferMainSub(d, scene.MainSub)
	}

	// Nothing docked: require someone inside the outpost, then take the
	// closest sub that is actually at the exit.
	if l.Data.Type == gamemap.LevelLocationConnection && !anyInside(players, outpost) {
		return nil
	}
	closest := vessel.FindClosest(scene.Subs, outpost.Position, opts)
	if closest == nil || !atExit(closest) {
		return nil
	}
	return preferMainSub(closest, scene.MainSub)
}

func preferMainSub(found, main *vessel.Submarine) *vessel.Submarine {
	if main != nil && found.IsDockedTo(main) {
		return main
	}
	return found
}

func anyInside(players []*vessel.Character, sub *vessel.Submarine) bool {
	for _, ch := range players {
		if ch.Submarine == sub {
			return true
		}
	}
	return false
}
