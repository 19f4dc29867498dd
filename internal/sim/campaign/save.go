package campaign

import (
	"fmt"

	"deepdrift.game/internal/persistence/snapshot"
	"deepdrift.game/internal/sim/gamemap"
	"deepdrift.game/internal/sim/vessel"
)

// Export captures everything needed to resume the campaign. The map
// graph itself is not stored: it regenerates deterministically from
// (seed, location count) and the catalogs, so only dynamic state goes
// into the snapshot.
func (c *Campaign) Export(campaignID string, tick uint64) snapshot.CampaignSnapshotV1 {
	snap := snapshot.CampaignSnapshotV1{
		Header: snapshot.Header{Version: 1, CampaignID: campaignID, Tick: tick},

		Seed:         c.Map.Seed,
		NumLocations: len(c.Map.Locations),

		Money:       c.Bank.Balance(),
		Reputations: make(map[string]float64, len(c.factions)),

		TotalPlayTime:     c.TotalPlayTime,
		TotalPassedLevels: c.TotalPassedLevels,
		TooFarWarning:     c.tooFarWarningShown,
		IsFirstRound:      c.isFirstRound,

		TransferItems: c.TransferItemsOnSubSwitch,

		PurchasedHullRepairs:  c.purchasedHullRepairsInLatestSave,
		PurchasedItemRepairs:  c.purchasedItemRepairsInLatestSave,
		PurchasedLostShuttles: c.purchasedLostShuttlesInLatestSave,

		Pets:         c.pets,
		ActiveOrders: c.activeOrders,

		CatalogDigests: map[string]string{
			"missions":       c.cats.Missions.Digest,
			"factions":       c.cats.Factions.Digest,
			"location_types": c.cats.LocationTypes.Digest,
			"items":          c.cats.Items.Digest,
		},
	}

	for _, f := range c.factions {
		snap.Reputations[f.Prefab.ID] = f.Reputation.Value()
	}

	if c.Map.CurrentLocation != nil {
		snap.CurrentLocation = c.Map.CurrentLocation.ID
	}
	if c.Map.SelectedLocation != nil {
		snap.SelectedLocation = c.Map.SelectedLocation.ID
	}
	snap.LocationHistory = append([]string(nil), c.Map.LocationHistory()...)

	for _, loc := range c.Map.Locations {
		ls := snapshot.LocationStateV1{
			ID:               loc.ID,
			TakenItems:       loc.TakenItems(),
			TurnsInRadiation: loc.TurnsInRadiation,
		}
		if loc.LevelData != nil {
			ls.BeaconActive = loc.LevelData.IsBeaconActive
		}
		for _, m := range loc.AvailableMissions() {
			ls.Available = append(ls.Available, snapshot.MissionV1{
				PrefabID:    m.Prefab.ID,
				Destination: m.Locations[1].ID,
			})
		}
		for _, m := range loc.SelectedMissions() {
			ls.SelectedIDs = append(ls.SelectedIDs, m.Prefab.ID)
		}
		if len(ls.Available) == 0 && len(ls.SelectedIDs) == 0 &&
			len(ls.TakenItems) == 0 && ls.TurnsInRadiation == 0 && !ls.BeaconActive {
			continue
		}
		snap.Locations = append(snap.Locations, ls)
	}

	for _, cm := range c.crew {
		snap.Crew = append(snap.Crew, snapshot.CrewMemberV1{
			ID:           cm.ID,
			Name:         cm.Name,
			Salary:       cm.Salary,
			NewHire:      cm.NewHire,
			CauseOfDeath: cm.CauseOfDeath,
		})
	}

	snap.MainSubmarine = subInfoToV1(c.mainSubInfo)
	snap.PreviousSubmarine = subInfoToV1(c.previousSubmarine)
	snap.PendingSubSwitch = subInfoToV1(c.PendingSubmarineSwitch)

	snap.MetadataInts, snap.MetadataFloats, snap.MetadataStrings = c.Metadata.Export()
	return snap
}

// Import restores dynamic state from a snapshot onto a campaign whose
// map was regenerated from the snapshot's seed.
func (c *Campaign) Import(snap snapshot.CampaignSnapshotV1) error {
	if snap.Seed != c.Map.Seed {
		return fmt.Errorf("snapshot seed %q does not match map seed %q", snap.Seed, c.Map.Seed)
	}

	c.Bank.Restore(snap.Money)
	for id, v := range snap.Reputations {
		f := c.byID[id]
		if f == nil {
			return fmt.Errorf("snapshot references unknown faction %q", id)
		}
		f.Reputation.Restore(v)
	}

	if snap.CurrentLocation != "" {
		loc := c.Map.LocationByID(snap.CurrentLocation)
		if loc == nil {
			return fmt.Errorf("snapshot references unknown location %q", snap.CurrentLocation)
		}
		c.Map.CurrentLocation = loc
	}

	for _, ls := range snap.Locations {
		loc := c.Map.LocationByID(ls.ID)
		if loc == nil {
			return fmt.Errorf("snapshot references unknown location %q", ls.ID)
		}
		loc.RegisterTakenItems(ls.TakenItems)
		loc.TurnsInRadiation = ls.TurnsInRadiation
		if loc.LevelData != nil {
			loc.LevelData.IsBeaconActive = ls.BeaconActive
		}
		for _, mv := range ls.Available {
			def, ok := c.cats.Missions.ByID[mv.PrefabID]
			if !ok {
				return fmt.Errorf("snapshot references unknown mission prefab %q", mv.PrefabID)
			}
			dest := c.Map.LocationByID(mv.Destination)
			if dest == nil {
				return fmt.Errorf("snapshot mission %q references unknown destination %q", mv.PrefabID, mv.Destination)
			}
			loc.AddAvailableMission(&gamemap.Mission{
				Prefab:    def,
				Locations: [2]*gamemap.Location{loc, dest},
			})
		}
		for _, id := range ls.SelectedIDs {
			for _, m := range loc.AvailableMissions() {
				if m.Prefab.ID == id {
					loc.SelectMission(m)
					break
				}
			}
		}
	}

	// Selection restores after the current location so adjacency holds.
	if snap.SelectedLocation != "" {
		loc := c.Map.LocationByID(snap.SelectedLocation)
		if loc == nil {
			return fmt.Errorf("snapshot references unknown location %q", snap.SelectedLocation)
		}
		if err := c.Map.SelectLocation(loc); err != nil {
			return fmt.Errorf("restore selection: %w", err)
		}
	}
	c.restoreHistory(snap.LocationHistory)

	c.TotalPlayTime = snap.TotalPlayTime
	c.TotalPassedLevels = snap.TotalPassedLevels
	c.tooFarWarningShown = snap.TooFarWarning
	c.isFirstRound = snap.IsFirstRound

	c.crew = nil
	for _, cv := range snap.Crew {
		c.crew = append(c.crew, &CrewMember{
			ID:           cv.ID,
			Name:         cv.Name,
			Salary:       cv.Salary,
			NewHire:      cv.NewHire,
			CauseOfDeath: cv.CauseOfDeath,
		})
	}

	c.mainSubInfo = subInfoFromV1(snap.MainSubmarine)
	c.previousSubmarine = subInfoFromV1(snap.PreviousSubmarine)
	c.PendingSubmarineSwitch = subInfoFromV1(snap.PendingSubSwitch)
	c.TransferItemsOnSubSwitch = snap.TransferItems
	c.RefreshOwnedSubmarines()

	c.purchasedHullRepairsInLatestSave = snap.PurchasedHullRepairs
	c.purchasedItemRepairsInLatestSave = snap.PurchasedItemRepairs
	c.purchasedLostShuttlesInLatestSave = snap.PurchasedLostShuttles
	c.PurchasedHullRepairs = snap.PurchasedHullRepairs
	c.PurchasedItemRepairs = snap.PurchasedItemRepairs
	c.PurchasedLostShuttles = snap.PurchasedLostShuttles

	c.pets = snap.Pets
	c.activeOrders = snap.ActiveOrders

	c.Metadata.Import(snap.MetadataInts, snap.MetadataFloats, snap.MetadataStrings)
	return nil
}

func (c *Campaign) restoreHistory(ids []string) {
	c.Map.ClearLocationHistory()
	for _, id := range ids {
		c.Map.AppendHistory(id)
	}
}

func subInfoToV1(info *vessel.SubmarineInfo) *snapshot.SubmarineInfoV1 {
	if info == nil {
		return nil
	}
	out := &snapshot.SubmarineInfoV1{
		Name:       info.Name,
		Type:       info.Type,
		TeamID:     info.TeamID,
		NoItems:    info.NoItems,
		CargoHull:  info.CargoHull,
		Containers: append([]string(nil), info.Containers...),
	}
	for _, h := range info.Hulls {
		out.Hulls = append(out.Hulls, snapshot.HullInfoV1{ID: h.ID, IsWetRoom: h.IsWetRoom, X: h.X, Y: h.Y})
	}
	return out
}

func subInfoFromV1(v *snapshot.SubmarineInfoV1) *vessel.SubmarineInfo {
	if v == nil {
		return nil
	}
	out := &vessel.SubmarineInfo{
		Name:       v.Name,
		Type:       v.Type,
		TeamID:     v.TeamID,
		NoItems:    v.NoItems,
		CargoHull:  v.CargoHull,
		Containers: append([]string(nil), v.Containers...),
	}
	for _, h := range v.Hulls {
		out.Hulls = append(out.Hulls, vessel.HullInfo{ID: h.ID, IsWetRoom: h.IsWetRoom, X: h.X, Y: h.Y})
	}
	return out
}
