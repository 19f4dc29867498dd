package campaign

import (
	"log"

	"deepdrift.game/internal/sim/catalogs"
	"deepdrift.game/internal/sim/gamemap"
	"deepdrift.game/internal/sim/tuning"
	"deepdrift.game/internal/sim/vessel"
)

// Campaign is the authoritative progression state machine: where the
// crew is, what they can do next, and what it costs. All state is owned
// by the simulation goroutine; nothing here locks.
type Campaign struct {
	log  *log.Logger
	cats *catalogs.Catalogs
	tune tuning.Tuning

	Bank     *Wallet
	factions []*Faction
	byID     map[string]*Faction

	Map   *gamemap.Map
	Level *Level // nil until the first round loads

	NextLevel *gamemap.LevelData

	// Extra missions for the current level only: beacon, hunting
	// grounds, faction automatics, end-of-biome. Cleared and redrawn on
	// every level entry; never persisted.
	extraMissions []*gamemap.Mission

	TotalPlayTime     float64
	TotalPassedLevels int

	isFirstRound bool
	wasDocked    bool

	PendingSubmarineSwitch   *vessel.SubmarineInfo
	TransferItemsOnSubSwitch bool
	// Snapshot of the sub the crew left behind when switching.
	previousSubmarine *vessel.SubmarineInfo

	mainSubInfo     *vessel.SubmarineInfo
	ownedSubmarines []*vessel.SubmarineInfo

	PurchasedHullRepairs              bool
	PurchasedItemRepairs              bool
	PurchasedLostShuttles             bool
	purchasedHullRepairsInLatestSave  bool
	purchasedItemRepairsInLatestSave  bool
	purchasedLostShuttlesInLatestSave bool

	crew               []*CrewMember
	Metadata           *Metadata
	runners            *RunnerSet
	dirty              NetFlags
	tooFarWarningShown bool

	// Owned by collaborators (pet sim, order queue); carried through
	// saves untouched.
	pets         []byte
	activeOrders []byte

	// Client campaigns mirror the server; they never trigger
	// transitions themselves.
	isClient bool

	onMoneyChanged      []func(WalletChange)
	onReputationChanged []func(ReputationChange)
	onTransition        []func(TransitionEvent)
	beforeLevelLoading  []func()
}

// CrewMember is the persistent record of a hired character (the live
// vessel.Character only exists while a level is loaded).
type CrewMember struct {
	ID           string
	Name         string
	Salary       int
	NewHire      bool
	CauseOfDeath string
}

type TransitionEvent struct {
	Type     TransitionType
	NextSeed string
	Mirror   bool
}

type Options struct {
	IsClient bool
}

func New(cats *catalogs.Catalogs, tune tuning.Tuning, m *gamemap.Map, logger *log.Logger, opts Options) *Campaign {
	c := &Campaign{
		log:          logger,
		cats:         cats,
		tune:         tune,
		Map:          m,
		Bank:         NewWallet("", tune.InitialMoney),
		byID:         make(map[string]*Faction),
		Metadata:     NewMetadata(),
		runners:      NewRunnerSet(),
		isFirstRound: true,
		isClient:     opts.IsClient,
	}
	for _, id := range cats.Factions.Order {
		f := newFaction(cats.Factions.ByID[id])
		f.Reputation.OnChanged(func(ch ReputationChange) {
			c.dirty |= NetReputation
			for _, fn := range c.onReputationChanged {
				fn(ch)
			}
		})
		c.factions = append(c.factions, f)
		c.byID[id] = f
	}
	c.Bank.OnChanged(func(ch WalletChange) {
		c.dirty |= NetMoney
		for _, fn := range c.onMoneyChanged {
			fn(ch)
		}
	})
	return c
}

func (c *Campaign) Factions() []*Faction { return c.factions }

func (c *Campaign) Faction(id string) *Faction { return c.byID[id] }

func (c *Campaign) IsFirstRound() bool { return c.isFirstRound }

func (c *Campaign) Tuning() tuning.Tuning { return c.tune }

func (c *Campaign) Catalogs() *catalogs.Catalogs { return c.cats }

// GetWallet resolves which wallet applies to a client. The shared bank
// serves everyone here; split-wallet modes override per client in the
// multiplayer layer.
func (c *Campaign) GetWallet(clientID string) *Wallet { return c.Bank }

func (c *Campaign) TryPurchase(clientID string, price int) bool {
	return c.GetWallet(clientID).TryDeduct(price)
}

func (c *Campaign) GetBalance(clientID string) int {
	return c.GetWallet(clientID).Balance()
}

func (c *Campaign) CanAfford(cost int, clientID string) bool {
	return c.GetBalance(clientID) >= cost
}

func (c *Campaign) OnMoneyChanged(fn func(WalletChange)) {
	c.onMoneyChanged = append(c.onMoneyChanged, fn)
}

func (c *Campaign) OnReputationChanged(fn func(ReputationChange)) {
	c.onReputationChanged = append(c.onReputationChanged, fn)
}

func (c *Campaign) OnTransition(fn func(TransitionEvent)) {
	c.onTransition = append(c.onTransition, fn)
}

// BeforeLevelLoading hooks fire once at the next level load, then
// clear; no unregistering needed.
func (c *Campaign) BeforeLevelLoading(fn func()) {
	c.beforeLevelLoading = append(c.beforeLevelLoading, fn)
}

// Missions lists the missions in play for the current level: the
// current location's selected missions that are relevant to where the
// crew is headed, plus the per-level extra missions.
func (c *Campaign) Missions() []*gamemap.Mission {
	var out []*gamemap.Mission
	if cur := c.Map.CurrentLocation; cur != nil {
		for _, m := range cur.SelectedMissions() {
			if m.SameLocation() || m.Involves(c.Map.SelectedLocation) {
				out = append(out, m)
			}
		}
	}
	out = append(out, c.extraMissions...)
	return out
}

func (c *Campaign) ExtraMissions() []*gamemap.Mission { return c.extraMissions }

func (c *Campaign) hasMissionOfType(missionType string) bool {
	for _, m := range c.Missions() {
		if m.Prefab.Type == missionType {
			return true
		}
	}
	return false
}

func (c *Campaign) hasMissionWithTag(tag string) bool {
	for _, m := range c.Missions() {
		if m.Prefab.HasTag(tag) {
			return true
		}
	}
	return false
}

// NumberOfMissionsAtLocation counts selected missions that involve the
// given destination.
func (c *Campaign) NumberOfMissionsAtLocation(loc *gamemap.Location) int {
	cur := c.Map.CurrentLocation
	if cur == nil {
		return 0
	}
	n := 0
	for _, m := range cur.SelectedMissions() {
		if m.Involves(loc) {
			n++
		}
	}
	return n
}

// CheckTooManyMissions enforces the selected-mission cap per
// destination, deselecting the surplus. Runs on the authority when a
// client's selection arrives.
func (c *Campaign) CheckTooManyMissions(sender string) {
	cur := c.Map.CurrentLocation
	if cur == nil {
		return
	}
	maxCount := c.tune.TotalMaxMissionCount
	for _, conn := range cur.Connections {
		dest := conn.OtherLocation(cur)
		if c.NumberOfMissionsAtLocation(dest) <= maxCount {
			continue
		}
		c.log.Printf("[campaign] client %s had too many missions selected for %s (count %d), deselecting extras",
			sender, dest.Name, c.NumberOfMissionsAtLocation(dest))
		kept := 0
		for _, m := range append([]*gamemap.Mission(nil), cur.SelectedMissions()...) {
			if m.Locations[1] != dest {
				continue
			}
			kept++
			if kept > maxCount {
				cur.DeselectMission(m)
			}
		}
	}
}

func (c *Campaign) Crew() []*CrewMember { return c.crew }

func (c *Campaign) MainSubmarineInfo() *vessel.SubmarineInfo { return c.mainSubInfo }

// SetMainSubmarineInfo sets the sub the crew plays on; takes effect at
// the next level load.
func (c *Campaign) SetMainSubmarineInfo(info *vessel.SubmarineInfo) {
	c.mainSubInfo = info
	c.dirty |= NetSubmarine
}

func (c *Campaign) OwnedSubmarines() []*vessel.SubmarineInfo { return c.ownedSubmarines }

// TryHireCharacter hires a character if the wallet covers the salary.
func (c *Campaign) TryHireCharacter(clientID string, id, name string, salary int) bool {
	if !c.TryPurchase(clientID, salary) {
		return false
	}
	c.crew = append(c.crew, &CrewMember{ID: id, Name: name, Salary: salary, NewHire: true})
	c.dirty |= NetCrew
	return true
}

func (c *Campaign) removeDeadCrew() {
	alive := c.crew[:0]
	for _, cm := range c.crew {
		if cm.CauseOfDeath == "" {
			alive = append(alive, cm)
		}
	}
	c.crew = alive
}
