package vessel

import "deepdrift.game/internal/sim/catalogs"

type Item struct {
	ID     string
	Prefab catalogs.ItemDef

	Submarine *Submarine
	Position  Vec2

	NonInteractable           bool
	NonPlayerTeamInteractable bool
	Hidden                    bool
	Removed                   bool

	// A pickable fixed to a wall cannot be relocated.
	Attached bool
	// A wire with at least one live connection cannot be relocated.
	WiredLive bool

	Condition    float64
	MaxCondition float64

	SpawnedInCurrentOutpost bool

	container *Item
	contents  []*Item
	heldBy    *Character
}

func (it *Item) HasTag(tag string) bool { return it.Prefab.HasTag(tag) }

func (it *Item) Container() *Item   { return it.container }
func (it *Item) Contents() []*Item  { return it.contents }
func (it *Item) HeldBy() *Character { return it.heldBy }

func (it *Item) SetHeldBy(c *Character) {
	it.detach()
	it.heldBy = c
	if c != nil {
		it.Submarine = c.Submarine
	}
}

// RootHolder walks the container chain to the outermost item, and
// reports the character holding it, if any.
func (it *Item) RootHolder() (*Item, *Character) {
	root := it
	for root.container != nil {
		root = root.container
	}
	return root, root.heldBy
}

// TryPut places item into the container if there is room. The item
// inherits the container's submarine.
func (it *Item) TryPut(item *Item) bool {
	if !it.Prefab.IsContainer() || item == it {
		return false
	}
	if len(it.contents) >= it.Prefab.Capacity {
		return false
	}
	item.detach()
	item.container = it
	item.Submarine = it.Submarine
	it.contents = append(it.contents, item)
	return true
}

// Drop detaches the item from its container without touching its
// transform; the caller decides where it lands.
func (it *Item) Drop() {
	it.detach()
}

func (it *Item) detach() {
	if it.heldBy != nil {
		it.heldBy = nil
	}
	if it.container == nil {
		return
	}
	c := it.container
	for i, child := range c.contents {
		if child == it {
			c.contents = append(c.contents[:i], c.contents[i+1:]...)
			break
		}
	}
	it.container = nil
}

// FreeSlots reports remaining container capacity.
func (it *Item) FreeSlots() int {
	if !it.Prefab.IsContainer() {
		return 0
	}
	return it.Prefab.Capacity - len(it.contents)
}
