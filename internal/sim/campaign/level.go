package campaign

import (
	"deepdrift.game/internal/sim/gamemap"
	"deepdrift.game/internal/sim/vessel"
)

// Level is the currently loaded level: the level data plus everything
// physically in it. Built by the level loader (a collaborator); the
// campaign reads it to decide transitions.
type Level struct {
	Data *gamemap.LevelData

	StartLocation *gamemap.Location
	EndLocation   *gamemap.Location

	// Outpost submarines at the exits, nil when the exit is open water.
	StartOutpost *vessel.Submarine
	EndOutpost   *vessel.Submarine

	StartExitPos vessel.Vec2
	EndExitPos   vessel.Vec2

	// The connection level was entered from its far side.
	Mirrored bool

	Generating bool

	Scene *vessel.Scene
}

func (l *Level) IsOutpostLevel() bool {
	return l != nil && l.Data != nil && l.Data.Type == gamemap.LevelOutpost
}

// GetCurrentDisplayLocation is the location shown as "current" on the
// map screen. Normally the level's start location, but while the crew
// sits at the far end of a connection waiting to pick a destination,
// the end location reads better.
func (c *Campaign) GetCurrentDisplayLocation() *gamemap.Location {
	l := c.Level
	if l != nil && !l.Generating && l.Data.Type == gamemap.LevelLocationConnection {
		if t, _, _ := c.GetAvailableTransition(); t == TransitionProgressToNextEmptyLocation {
			if l.EndLocation != nil {
				return l.EndLocation
			}
		}
	}
	if l != nil && l.StartLocation != nil {
		return l.StartLocation
	}
	return c.Map.CurrentLocation
}

// GetSubsToLeaveBehind lists player subs that are neither docked to the
// leaving sub nor sitting at the same exit; they stay in this level.
func (c *Campaign) GetSubsToLeaveBehind(leavingSub *vessel.Submarine) []*vessel.Submarine {
	var out []*vessel.Submarine
	if c.Level == nil || c.Level.Scene == nil {
		return out
	}
	for _, sub := range c.Level.Scene.Subs {
		if sub == leavingSub || leavingSub.IsDockedTo(sub) {
			continue
		}
		// Pirate subs are tagged as player subs too; the team check
		// keeps them out. Shuttles and outposts fail the type check.
		if sub.Type != vessel.SubPlayer || sub.TeamID != vessel.TeamPlayer {
			continue
		}
		if sub.AtEndExit != leavingSub.AtEndExit || sub.AtStartExit != leavingSub.AtStartExit {
			out = append(out, sub)
		}
	}
	return out
}
