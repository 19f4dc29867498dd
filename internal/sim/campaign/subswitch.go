package campaign

import (
	"fmt"

	"deepdrift.game/internal/sim/vessel"
)

// SetPendingSubmarineSwitch registers the sub the crew switches to at
// the next transition, optionally carrying their cargo over.
func (c *Campaign) SetPendingSubmarineSwitch(info *vessel.SubmarineInfo, transferItems bool) {
	c.PendingSubmarineSwitch = info
	c.TransferItemsOnSubSwitch = transferItems
	c.dirty |= NetSubmarine
}

// PreviousSubmarine is the snapshot of the sub left behind by the last
// switch, nil if the crew never switched.
func (c *Campaign) PreviousSubmarine() *vessel.SubmarineInfo { return c.previousSubmarine }

// commitSubmarineSwitch executes the pending switch during a
// transition, while the old scene still exists.
func (c *Campaign) commitSubmarineSwitch(oldLevel *Level, leavingSub *vessel.Submarine) error {
	pending := c.PendingSubmarineSwitch
	if pending == nil {
		return nil
	}
	if oldLevel == nil || oldLevel.Scene == nil || oldLevel.Scene.MainSub == nil {
		return fmt.Errorf("submarine switch: no live scene to switch in")
	}
	sc := oldLevel.Scene
	oldSub := sc.MainSub

	var newSub *vessel.Submarine
	var err error
	if c.TransferItemsOnSubSwitch {
		newSub, err = c.TransferItemsBetweenSubs(sc, oldSub, pending)
		if err != nil {
			return err
		}
	} else {
		prev := vessel.NewSubmarineInfo(oldSub, sc)
		c.previousSubmarine = &prev
		newSub, err = sc.Instantiate(*pending, c.cats)
		if err != nil {
			return fmt.Errorf("submarine switch: %w", err)
		}
	}

	newInfo := vessel.NewSubmarineInfo(newSub, sc)
	c.mainSubInfo = &newInfo
	sc.MainSub = newSub

	c.PendingSubmarineSwitch = nil
	c.TransferItemsOnSubSwitch = false
	c.RefreshOwnedSubmarines()
	c.dirty |= NetSubmarine
	c.log.Printf("[campaign] switched submarine %s -> %s", oldSub.Name, newSub.Name)
	return nil
}

// RefreshOwnedSubmarines rebuilds the owned-sub list: the current main
// sub plus the one most recently left behind.
func (c *Campaign) RefreshOwnedSubmarines() {
	c.ownedSubmarines = nil
	if c.mainSubInfo != nil {
		c.ownedSubmarines = append(c.ownedSubmarines, c.mainSubInfo)
	}
	if c.previousSubmarine != nil && (c.mainSubInfo == nil || c.previousSubmarine.Name != c.mainSubInfo.Name) {
		c.ownedSubmarines = append(c.ownedSubmarines, c.previousSubmarine)
	}
	c.dirty |= NetSubmarine
}

// TransferItemsBetweenSubs moves the crew's cargo from oldSub (and its
// docking chain) onto a newly instantiated sub. On a missing spawn hull
// the transfer aborts wholesale: items stay detached where step 2 left
// them, a degraded state the caller is expected to surface and retry.
func (c *Campaign) TransferItemsBetweenSubs(sc *vessel.Scene, oldSub *vessel.Submarine, pending *vessel.SubmarineInfo) (*vessel.Submarine, error) {
	connected := oldSub.ConnectedSubs()

	// Step 1: eligible items on the docking chain.
	var transfer []*vessel.Item
	for _, it := range sc.Items {
		if !itemTransferable(it, connected) {
			continue
		}
		transfer = append(transfer, it)
	}

	// Step 2: detach everything, remembering the container it came out
	// of so natural slots can be re-matched on the new sub.
	priorContainer := make(map[*vessel.Item]*vessel.Item, len(transfer))
	for _, it := range transfer {
		priorContainer[it] = it.Container()
		if it.Container() != nil && !itemInSet(it.Container(), transfer) {
			it.Drop()
		}
		it.Submarine = nil
	}

	// Step 3: snapshot the old sub before the new one mutates the scene;
	// this becomes the record of what the crew left behind.
	oldInfo := vessel.NewSubmarineInfo(oldSub, sc)
	c.previousSubmarine = &oldInfo

	// Step 4: instantiate the destination and find the cargo drop point.
	newSub, err := sc.Instantiate(*pending, c.cats)
	if err != nil {
		return nil, fmt.Errorf("transfer items: %w", err)
	}
	var spawnHull *vessel.Hull
	if wp := sc.CargoWaypoint(newSub); wp != nil {
		spawnHull = wp.Hull
	}
	if spawnHull == nil {
		spawnHull = sc.FirstDryHull(newSub)
	}
	if spawnHull == nil {
		c.log.Printf("[campaign] warning: submarine %q has no cargo spawn hull, item transfer aborted (%d items left detached)",
			newSub.Name, len(transfer))
		return nil, fmt.Errorf("transfer items: no spawn hull on %q", newSub.Name)
	}

	newSubs := newSub.ConnectedSubs()

	// Step 5: crates move first so their capacity is available for the
	// loose items that follow.
	dropIndex := 0
	for _, it := range transfer {
		if !it.HasTag("crate") {
			continue
		}
		it.Submarine = newSub
		it.Position = vessel.CargoPos(spawnHull.Position, dropIndex)
		dropIndex++
		c.log.Printf("[campaign] transfer %s: crate placed at cargo drop", it.ID)
	}

	// Step 6: everything else tries its natural slot, then a crate,
	// then lands loose at the drop point.
	for _, it := range transfer {
		if it.HasTag("crate") {
			continue
		}
		prior := priorContainer[it]
		if dst := sc.FindContainerFor(it, newSubs); dst != nil && dst.TryPut(it) {
			c.log.Printf("[campaign] transfer %s: %s -> %s", it.ID, containerID(prior), dst.ID)
			continue
		}
		if crate := putInAnyCrate(sc, it, newSubs); crate != nil {
			c.log.Printf("[campaign] transfer %s: %s -> crate %s", it.ID, containerID(prior), crate.ID)
			continue
		}
		it.Submarine = newSub
		it.Position = vessel.CargoPos(spawnHull.Position, dropIndex)
		dropIndex++
		c.log.Printf("[campaign] transfer %s: %s -> loose drop", it.ID, containerID(prior))
	}

	// Step 7: old hull emptied, new hull populated; the caller snapshots
	// the new sub as the persisted payload.
	return newSub, nil
}

func itemTransferable(it *vessel.Item, connected []*vessel.Submarine) bool {
	if it.Removed || it.Hidden || it.NonInteractable || it.NonPlayerTeamInteractable {
		return false
	}
	if it.Prefab.DontTransfer || it.Prefab.IsDoor {
		return false
	}
	if !it.Prefab.Pickable || it.Attached {
		return false
	}
	if it.Prefab.IsWire && it.WiredLive {
		return false
	}
	root, holder := it.RootHolder()
	if holder != nil {
		// Held items travel with their characters, not the cargo hold.
		return false
	}
	onChain := false
	for _, s := range connected {
		if root.Submarine == s {
			onChain = true
			break
		}
	}
	return onChain
}

func itemInSet(it *vessel.Item, set []*vessel.Item) bool {
	for _, x := range set {
		if x == it {
			return true
		}
	}
	return false
}

func putInAnyCrate(sc *vessel.Scene, it *vessel.Item, subs []*vessel.Submarine) *vessel.Item {
	for _, crate := range sc.CrateContainersOn(subs) {
		if crate.TryPut(it) {
			return crate
		}
	}
	return nil
}

func containerID(c *vessel.Item) string {
	if c == nil {
		return "<loose>"
	}
	return c.ID
}
