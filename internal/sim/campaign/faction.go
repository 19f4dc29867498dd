package campaign

import (
	"sort"

	"deepdrift.game/internal/sim/catalogs"
)

// Faction pairs a static prefab with the campaign's standing toward it.
// Exactly one Faction exists per prefab id; created at campaign start,
// lives for the whole campaign.
type Faction struct {
	Prefab     catalogs.FactionDef
	Reputation *Reputation
}

func newFaction(def catalogs.FactionDef) *Faction {
	return &Faction{
		Prefab:     def,
		Reputation: newReputation(def.ID, def.MinReputation, def.MaxReputation, def.InitialReputation),
	}
}

// GetRandomFaction draws a faction weighted by outpost control
// percentage (secondary control if secondary is set). If the weights
// sum below 100 and allowEmpty is set, the shortfall becomes a "no
// faction" option and the draw may return nil. Factions are sorted by
// id first so the draw is reproducible for a given Rand state.
func GetRandomFaction(factions []*Faction, r *Rand, secondary, allowEmpty bool) *Faction {
	sorted := make([]*Faction, len(factions))
	copy(sorted, factions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Prefab.ID < sorted[j].Prefab.ID })

	var total float64
	weights := make([]float64, len(sorted))
	for i, f := range sorted {
		w := f.Prefab.ControlledOutpostPercentage
		if secondary {
			w = f.Prefab.SecondaryControlledOutpostPercentage
		}
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}

	emptyWeight := 0.0
	if allowEmpty && total < 100 {
		emptyWeight = 100 - total
		total += emptyWeight
	}
	if total <= 0 {
		return nil
	}

	target := r.Float() * total
	for i, f := range sorted {
		target -= weights[i]
		if target < 0 {
			return f
		}
	}
	if emptyWeight > 0 {
		// Remainder lands in the synthetic empty slot.
		return nil
	}
	// Rounding pushed target past the last weight; return the last
	// faction that could have been drawn.
	for i := len(sorted) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return sorted[i]
		}
	}
	return nil
}
