package campaign

import "testing"

func TestReputationClamp(t *testing.T) {
	r := newReputation("f", -100, 100, 0)

	r.AddReputation(1e9, 0)
	if got := r.Value(); got != 100 {
		t.Fatalf("Value=%v after huge gain, want 100", got)
	}
	r.AddReputation(-1e9, 0)
	if got := r.Value(); got != -100 {
		t.Fatalf("Value=%v after huge loss, want -100", got)
	}
}

func TestReputationInitialClamped(t *testing.T) {
	r := newReputation("f", -10, 10, 50)
	if got := r.Value(); got != 10 {
		t.Fatalf("Value=%v for out-of-range initial, want 10", got)
	}
	if got := r.ValueAtRoundStart(); got != 10 {
		t.Fatalf("ValueAtRoundStart=%v, want 10", got)
	}
}

func TestReputationMaxMagnitude(t *testing.T) {
	r := newReputation("f", -100, 100, 0)

	r.AddReputation(-50, 10)
	if got := r.Value(); got != -10 {
		t.Fatalf("Value=%v with magnitude cap 10, want -10", got)
	}
	r.AddReputation(50, 10)
	if got := r.Value(); got != 0 {
		t.Fatalf("Value=%v, want 0", got)
	}
}

func TestReputationChangeEvents(t *testing.T) {
	r := newReputation("coalition", -100, 100, 95)
	var changes []ReputationChange
	r.OnChanged(func(ch ReputationChange) { changes = append(changes, ch) })

	r.AddReputation(10, 0) // clamps at 100, applied delta is 5
	r.AddReputation(10, 0) // already at ceiling, no event

	if len(changes) != 1 {
		t.Fatalf("got %d change events, want 1", len(changes))
	}
	if changes[0].Delta != 5 || changes[0].Value != 100 {
		t.Fatalf("change=%+v, want applied delta 5 value 100", changes[0])
	}
	if changes[0].FactionID != "coalition" {
		t.Fatalf("FactionID=%q, want coalition", changes[0].FactionID)
	}
}

func TestReputationRestore(t *testing.T) {
	r := newReputation("f", -100, 100, 0)
	fired := false
	r.OnChanged(func(ReputationChange) { fired = true })

	r.Restore(250)
	if fired {
		t.Fatalf("Restore fired a change event")
	}
	if got := r.Value(); got != 100 {
		t.Fatalf("Value=%v after Restore(250), want clamped 100", got)
	}
	if got := r.ValueAtRoundStart(); got != 100 {
		t.Fatalf("ValueAtRoundStart=%v after Restore, want 100", got)
	}
}
