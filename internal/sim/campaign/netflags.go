package campaign

// NetFlags marks which slices of campaign state need replicating to
// clients since the last flush.
type NetFlags uint16

const (
	NetMisc NetFlags = 1 << iota
	NetMapData
	NetMoney
	NetReputation
	NetMissions
	NetSubmarine
	NetPurchases
	NetCrew
)

// AllNetFlags enumerates every defined flag; the flags test checks the
// set is exhaustive and each member is a distinct power of two.
var AllNetFlags = [...]NetFlags{
	NetMisc,
	NetMapData,
	NetMoney,
	NetReputation,
	NetMissions,
	NetSubmarine,
	NetPurchases,
	NetCrew,
}

func (f NetFlags) Has(flag NetFlags) bool { return f&flag != 0 }

func (c *Campaign) SetDirty(flag NetFlags) { c.dirty |= flag }

// TakeDirty returns and clears the pending flags; called by the
// replication layer once per flush.
func (c *Campaign) TakeDirty() NetFlags {
	d := c.dirty
	c.dirty = 0
	return d
}
