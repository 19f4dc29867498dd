package campaign

import (
	"fmt"
	"sort"

	"deepdrift.game/internal/sim/catalogs"
	"deepdrift.game/internal/sim/gamemap"
)

// Mission tags with draw rules attached.
const (
	tagBeacon         = "beaconnoreward"
	tagHuntingGrounds = "huntinggrounds"
	tagEasy           = "easy"
	tagHard           = "hard"
)

// drawExtraMissions rebuilds the per-level extra mission list on level
// entry. Fully deterministic in (level seed, total passed levels): the
// same entry always produces the same missions.
func (c *Campaign) drawExtraMissions(data *gamemap.LevelData) {
	c.extraMissions = nil
	cur := c.Map.CurrentLocation
	if cur == nil {
		return
	}

	switch data.Type {
	case gamemap.LevelOutpost:
		// Same-location missions apply automatically at the outpost.
		for _, m := range cur.AvailableMissions() {
			if m.SameLocation() {
				cur.SelectMission(m)
			}
		}
		c.drawEndOfBiomeMission(data, cur, cur)

	case gamemap.LevelLocationConnection:
		// Same-location missions no longer apply away from the outpost.
		for _, m := range append([]*gamemap.Mission(nil), cur.SelectedMissions()...) {
			if m.SameLocation() {
				cur.DeselectMission(m)
			}
		}

		conn := c.Map.ConnectionForLevel(data)
		dest := cur
		if conn != nil {
			if conn.Contains(cur) {
				dest = conn.OtherLocation(cur)
			} else {
				dest = conn.Locations[1]
			}
		}

		c.drawBeaconMission(data, cur, dest)
		c.drawHuntingGroundsMission(data, cur, dest)
		c.drawFactionAutomaticMissions(data, cur, dest)
		c.drawEndOfBiomeMission(data, cur, dest)
	}

	c.dirty |= NetMissions
}

func (c *Campaign) drawBeaconMission(data *gamemap.LevelData, cur, dest *gamemap.Location) {
	if !data.HasBeaconStation || data.IsBeaconActive {
		return
	}
	candidates := c.missionsByTag(tagBeacon)
	if len(candidates) == 0 {
		return
	}
	// Each category reseeds from the level seed; one draw never shifts
	// another.
	r := NewRand(StringToInt(data.Seed))
	def, ok := drawWeightedMission(r, candidates, func(d catalogs.MissionDef) float64 {
		return float64(d.Commonness)
	})
	if !ok || c.hasMissionOfType(def.Type) {
		return
	}
	c.addExtraMission(def, cur, dest)
}

func (c *Campaign) drawHuntingGroundsMission(data *gamemap.LevelData, cur, dest *gamemap.Location) {
	if !data.HasHuntingGrounds {
		return
	}
	candidates := c.missionsByTag(tagHuntingGrounds)
	if len(candidates) == 0 {
		c.log.Printf("[campaign] warning: level %s has hunting grounds but no mission prefab is tagged %q",
			data.Seed, tagHuntingGrounds)
		return
	}
	threshold := c.tune.HuntingGroundsDifficultyThreshold
	difficulty := data.Difficulty
	r := NewRand(StringToInt(data.Seed))
	// Difficulty scales the easy/hard variants on top of their base
	// commonness weight.
	def, ok := drawWeightedMission(r, candidates, func(d catalogs.MissionDef) float64 {
		w := float64(d.Commonness)
		if w < 1 {
			w = 1
		}
		switch {
		case d.HasTag(tagEasy):
			w *= lerp(0.2, 2.0, inverseLerp(80, threshold, difficulty))
		case d.HasTag(tagHard):
			w *= lerp(0.5, 1.5, inverseLerp(threshold+10, 80, difficulty))
		}
		return w
	})
	if !ok || c.hasMissionWithTag(tagHuntingGrounds) {
		return
	}
	c.addExtraMission(def, cur, dest)
}

// drawFactionAutomaticMissions evaluates each faction's automatic rules
// in stable menu order. The roll RNG is re-created for every rule from
// (seed + passed levels), so rules evaluated in the same level entry
// all see the same roll sequence. That matches the long-standing live
// behavior; changing the reseed point changes every existing campaign.
func (c *Campaign) drawFactionAutomaticMissions(data *gamemap.LevelData, cur, dest *gamemap.Location) {
	factions := append([]*Faction(nil), c.factions...)
	sort.Slice(factions, func(i, j int) bool {
		if factions[i].Prefab.MenuOrder != factions[j].Prefab.MenuOrder {
			return factions[i].Prefab.MenuOrder < factions[j].Prefab.MenuOrder
		}
		return factions[i].Prefab.ID < factions[j].Prefab.ID
	})

	for _, f := range factions {
		for _, rule := range f.Prefab.AutomaticMissions {
			if rule.LevelType != "" && rule.LevelType != string(data.Type) {
				continue
			}
			rep := f.Reputation.Value()
			if rep < rule.MinReputation || rep > rule.MaxReputation {
				continue
			}
			if rule.NotBetweenOtherFactionOutposts && cur.Faction != f.Prefab.ID && dest.Faction != f.Prefab.ID {
				continue
			}
			if rule.MaxDistanceFromOutpost > 0 &&
				!c.Map.HasFactionOutpostWithin(cur, f.Prefab.ID, rule.MaxDistanceFromOutpost) {
				continue
			}

			probability := lerp(rule.MinProbability, rule.MaxProbability,
				inverseLerp(rule.MinReputation, rule.MaxReputation, rep))
			rr := NewRand(StringToInt(data.Seed) + int64(c.TotalPassedLevels))
			if rr.Float() >= probability {
				continue
			}

			candidates := c.missionsByTag(rule.MissionTag)
			if len(candidates) == 0 {
				continue
			}
			def, ok := drawWeightedMission(rr, candidates, func(d catalogs.MissionDef) float64 {
				w := float64(d.Commonness)
				if w < 1 {
					w = 1
				}
				return w
			})
			if !ok {
				continue
			}
			if def.Type == "Pirate" && c.hasMissionOfType("Pirate") {
				continue
			}
			c.addExtraMission(def, cur, dest)
		}
	}
}

func (c *Campaign) drawEndOfBiomeMission(data *gamemap.LevelData, cur, dest *gamemap.Location) {
	if data.Biome == nil || !data.Biome.IsEndBiome {
		return
	}
	idx, ok := c.Map.EndLocationIndex(dest)
	if !ok {
		return
	}
	var tag string
	switch data.Type {
	case gamemap.LevelLocationConnection:
		tag = fmt.Sprintf("endlevel_locationconnection_%d", idx)
	case gamemap.LevelOutpost:
		tag = fmt.Sprintf("endlevel_location_%d", idx)
	default:
		return
	}
	candidates := c.missionsByTag(tag)
	if len(candidates) == 0 {
		return
	}
	r := NewRand(StringToInt(data.Seed))
	def, ok := drawWeightedMission(r, candidates, func(d catalogs.MissionDef) float64 {
		return float64(d.Commonness)
	})
	if !ok || c.hasMissionOfType(def.Type) {
		return
	}
	c.addExtraMission(def, cur, dest)
}

func (c *Campaign) addExtraMission(def catalogs.MissionDef, cur, dest *gamemap.Location) {
	m := &gamemap.Mission{
		Prefab:    def,
		Locations: [2]*gamemap.Location{cur, dest},
	}
	c.extraMissions = append(c.extraMissions, m)
	c.log.Printf("[campaign] extra mission %s (%s) added for level entry", def.ID, def.Type)
}

// missionsByTag lists the prefabs carrying the tag, ordered by
// NumericID so draw order never depends on map iteration.
func (c *Campaign) missionsByTag(tag string) []catalogs.MissionDef {
	var out []catalogs.MissionDef
	for _, id := range c.cats.Missions.Order {
		d := c.cats.Missions.ByID[id]
		if d.HasTag(tag) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NumericID < out[j].NumericID })
	return out
}

// drawWeightedMission picks one prefab with probability proportional to
// its weight. Zero or negative weights never win; a zero total means no
// draw.
func drawWeightedMission(r *Rand, defs []catalogs.MissionDef, weight func(catalogs.MissionDef) float64) (catalogs.MissionDef, bool) {
	total := 0.0
	weights := make([]float64, len(defs))
	for i, d := range defs {
		w := weight(d)
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return catalogs.MissionDef{}, false
	}
	roll := r.Float() * total
	for i, d := range defs {
		roll -= weights[i]
		if roll < 0 {
			return d, true
		}
	}
	// Float rounding can leave a sliver; the last positive weight wins.
	for i := len(defs) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return defs[i], true
		}
	}
	return catalogs.MissionDef{}, false
}
