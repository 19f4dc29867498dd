package campaign

import (
	"deepdrift.game/internal/sim/vessel"
)

// Tick advances campaign time by one simulation step. The only caller
// is the simulation loop; dt is seconds.
func (c *Campaign) Tick(dt float64) {
	c.TotalPlayTime += dt
	c.runners.Tick(dt)
}

func (c *Campaign) Runners() *RunnerSet { return c.runners }

// StartRound applies purchased services to the freshly loaded level and
// resets the purchase flags for the new round.
func (c *Campaign) StartRound() {
	if c.Level == nil || c.Level.Scene == nil {
		return
	}
	sc := c.Level.Scene

	if c.PurchasedHullRepairs {
		for _, w := range sc.Walls {
			if w.Submarine != sc.MainSub {
				continue
			}
			for i := range w.SectionDamage {
				w.SectionDamage[i] = 0
			}
		}
	}
	if c.PurchasedItemRepairs {
		for _, it := range sc.Items {
			if it.Submarine == sc.MainSub && it.Prefab.Repairable {
				it.Condition = it.MaxCondition
			}
		}
	}

	c.purchasedHullRepairsInLatestSave = c.PurchasedHullRepairs
	c.purchasedItemRepairsInLatestSave = c.PurchasedItemRepairs
	c.purchasedLostShuttlesInLatestSave = c.PurchasedLostShuttles
	c.PurchasedHullRepairs = false
	c.PurchasedItemRepairs = false
	c.PurchasedLostShuttles = false
	c.dirty |= NetPurchases
}

// EndRound attempts to advance to the next level; the actual state
// change happens when the transition runner completes.
func (c *Campaign) EndRound() error {
	c.removeDeadCrew()
	return c.LoadNewLevel()
}

// EndCampaign resets progression after the final end location: every
// location forgets its missions and taken items, the crew returns to
// the start, and the endings counter ticks up.
func (c *Campaign) EndCampaign() {
	for _, loc := range c.Map.Locations {
		loc.Reset()
	}
	c.Map.ClearLocationHistory()
	c.Map.SelectLocation(nil)
	c.Map.SetLocation(c.Map.StartLocation)
	c.Map.ClearLocationHistory()
	c.extraMissions = nil
	c.Level = nil
	c.NextLevel = nil
	c.TotalPassedLevels = 0
	c.Metadata.SetInt("campaign.endings", c.Metadata.GetInt("campaign.endings", 0)+1)
	c.dirty |= NetMapData | NetMisc | NetMissions
	c.log.Printf("[campaign] campaign ended, returning to %s (ending #%d)",
		c.Map.StartLocation.ID, c.Metadata.GetInt("campaign.endings", 0))
}

// GetHullRepairCost sums wall section damage on the main sub.
func (c *Campaign) GetHullRepairCost() int {
	if c.Level == nil || c.Level.Scene == nil || c.Level.Scene.MainSub == nil {
		return 0
	}
	sc := c.Level.Scene
	damage := 0.0
	for _, w := range sc.Walls {
		if w.Submarine != sc.MainSub {
			continue
		}
		for _, d := range w.SectionDamage {
			damage += d
		}
	}
	cost := int(damage * c.tune.HullRepairCostPerDamage)
	if cost > c.tune.MaxHullRepairCost {
		cost = c.tune.MaxHullRepairCost
	}
	return cost
}

// GetItemRepairCost prices fixing every damaged repairable item on the
// main sub: repair duration scaled by the missing condition fraction.
func (c *Campaign) GetItemRepairCost() int {
	if c.Level == nil || c.Level.Scene == nil || c.Level.Scene.MainSub == nil {
		return 0
	}
	sc := c.Level.Scene
	cost := 0.0
	for _, it := range sc.Items {
		if it.Submarine != sc.MainSub || !it.Prefab.Repairable || it.Removed {
			continue
		}
		if it.Condition >= it.MaxCondition {
			continue
		}
		missing := 1 - it.Condition/it.MaxCondition
		cost += it.Prefab.FixDuration * missing * c.tune.ItemRepairCostPerRepairDuration
	}
	out := int(cost)
	if out > c.tune.MaxItemRepairCost {
		out = c.tune.MaxItemRepairCost
	}
	return out
}

func (c *Campaign) TryPurchaseHullRepairs(clientID string) bool {
	if c.PurchasedHullRepairs {
		return false
	}
	if !c.TryPurchase(clientID, c.GetHullRepairCost()) {
		return false
	}
	c.PurchasedHullRepairs = true
	c.dirty |= NetPurchases
	return true
}

func (c *Campaign) TryPurchaseItemRepairs(clientID string) bool {
	if c.PurchasedItemRepairs {
		return false
	}
	if !c.TryPurchase(clientID, c.GetItemRepairCost()) {
		return false
	}
	c.PurchasedItemRepairs = true
	c.dirty |= NetPurchases
	return true
}

func (c *Campaign) TryReplaceLostShuttles(clientID string) bool {
	if c.PurchasedLostShuttles {
		return false
	}
	if !c.TryPurchase(clientID, c.tune.ShuttleReplaceCost) {
		return false
	}
	c.PurchasedLostShuttles = true
	c.dirty |= NetPurchases
	return true
}

// OutpostNPCAttacked docks reputation with the current location's
// faction when the crew harms outpost staff. Loss per event is capped.
func (c *Campaign) OutpostNPCAttacked(damage float64) {
	if damage <= 0 {
		return
	}
	cur := c.Map.CurrentLocation
	if cur == nil || cur.Faction == "" {
		return
	}
	f := c.byID[cur.Faction]
	if f == nil {
		return
	}
	loss := damage * c.tune.ReputationLossPerNPCDamage
	f.Reputation.AddReputation(-loss, c.tune.MaxReputationLossPerEvent)
}

// DoCharacterWait keeps an NPC waiting near a target character until
// one of them dies or the target wanders out of range. Liveness is
// re-checked every tick; there is no explicit cancel.
func (c *Campaign) DoCharacterWait(npc, target *vessel.Character) error {
	name := "NPCWait:" + npc.ID
	maxDistSq := c.tune.NPCWaitMaxDistance * c.tune.NPCWaitMaxDistance
	return c.runners.Start(name, RunnerFunc(func(dt float64) RunnerStatus {
		if npc.Dead || npc.Incapacitated {
			return RunnerFailed
		}
		if target.Dead {
			return RunnerDone
		}
		if npc.Position.DistSquared(target.Position) > maxDistSq {
			return RunnerDone
		}
		return RunnerRunning
	}))
}

// LogState dumps the decision-relevant campaign state; transition
// failures reference this output for postmortems.
func (c *Campaign) LogState() {
	c.log.Printf("[campaign] money=%d playtime=%.0fs passed=%d firstRound=%v",
		c.Bank.Balance(), c.TotalPlayTime, c.TotalPassedLevels, c.isFirstRound)
	m := c.Map
	cur, sel := "<nil>", "<nil>"
	if m.CurrentLocation != nil {
		cur = m.CurrentLocation.ID
	}
	if m.SelectedLocation != nil {
		sel = m.SelectedLocation.ID
	}
	c.log.Printf("[campaign] map current=%s selected=%s history=%d", cur, sel, len(m.LocationHistory()))
	for _, f := range c.factions {
		c.log.Printf("[campaign] faction %s reputation=%.1f", f.Prefab.ID, f.Reputation.Value())
	}
	for _, ms := range c.Missions() {
		c.log.Printf("[campaign] mission %s (%s) %s -> %s",
			ms.Prefab.ID, ms.Prefab.Type, ms.Locations[0].ID, ms.Locations[1].ID)
	}
	if c.Level != nil {
		c.log.Printf("[campaign] level seed=%s type=%s mirrored=%v", c.Level.Data.Seed, c.Level.Data.Type, c.Level.Mirrored)
	}
	if c.NextLevel != nil {
		c.log.Printf("[campaign] next level seed=%s pending", c.NextLevel.Seed)
	}
}
