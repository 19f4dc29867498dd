package campaign

// Reputation is a per-faction standing value bounded to the faction's
// configured range. Only AddReputation mutates it.
type Reputation struct {
	factionID string
	min, max  float64

	value        float64
	atRoundStart float64

	onChanged []func(ReputationChange)
}

type ReputationChange struct {
	FactionID string
	Delta     float64
	Value     float64
}

func newReputation(factionID string, min, max, initial float64) *Reputation {
	r := &Reputation{factionID: factionID, min: min, max: max}
	r.value = r.clamp(initial)
	r.atRoundStart = r.value
	return r
}

func (r *Reputation) FactionID() string { return r.factionID }
func (r *Reputation) Value() float64    { return r.value }

// ValueAtRoundStart is the snapshot taken at round start; UI deltas are
// computed against it.
func (r *Reputation) ValueAtRoundStart() float64 { return r.atRoundStart }

func (r *Reputation) snapshotRoundStart() { r.atRoundStart = r.value }

// AddReputation applies a signed delta. maxMagnitude > 0 caps how much
// a single event can move the value (used to soften reputation loss);
// maxMagnitude <= 0 means uncapped.
func (r *Reputation) AddReputation(delta, maxMagnitude float64) {
	if maxMagnitude > 0 {
		if delta > maxMagnitude {
			delta = maxMagnitude
		} else if delta < -maxMagnitude {
			delta = -maxMagnitude
		}
	}
	next := r.clamp(r.value + delta)
	if next == r.value {
		return
	}
	applied := next - r.value
	r.value = next
	for _, fn := range r.onChanged {
		fn(ReputationChange{FactionID: r.factionID, Delta: applied, Value: r.value})
	}
}

// Restore sets the value directly without firing change events; used
// only when loading a save.
func (r *Reputation) Restore(value float64) {
	r.value = r.clamp(value)
	r.atRoundStart = r.value
}

func (r *Reputation) OnChanged(fn func(ReputationChange)) {
	r.onChanged = append(r.onChanged, fn)
}

func (r *Reputation) clamp(v float64) float64 {
	if v < r.min {
		return r.min
	}
	if v > r.max {
		return r.max
	}
	return v
}
