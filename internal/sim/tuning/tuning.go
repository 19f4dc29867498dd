package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	InitialMoney         int `yaml:"initial_money"`
	TotalMaxMissionCount int `yaml:"total_max_mission_count"`

	// End-of-round camera transition, in ticks.
	EndTransitionTicks int `yaml:"end_transition_ticks"`

	HuntingGroundsDifficultyThreshold float64 `yaml:"hunting_grounds_difficulty_threshold"`

	ReputationLossPerNPCDamage float64 `yaml:"reputation_loss_per_npc_damage"`
	MaxReputationLossPerEvent  float64 `yaml:"max_reputation_loss_per_event"`

	HullRepairCostPerDamage         float64 `yaml:"hull_repair_cost_per_damage"`
	ItemRepairCostPerRepairDuration float64 `yaml:"item_repair_cost_per_repair_duration"`
	MaxHullRepairCost               int     `yaml:"max_hull_repair_cost"`
	MaxItemRepairCost               int     `yaml:"max_item_repair_cost"`
	ShuttleReplaceCost              int     `yaml:"shuttle_replace_cost"`

	// NPC interaction wait breaks off past this distance.
	NPCWaitMaxDistance float64 `yaml:"npc_wait_max_distance"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.ApplyDefaults()
	return t, nil
}

func (t *Tuning) ApplyDefaults() {
	if t.TickRateHz <= 0 {
		t.TickRateHz = 5
	}
	if t.SnapshotEveryTicks <= 0 {
		t.SnapshotEveryTicks = 3000
	}
	if t.InitialMoney <= 0 {
		t.InitialMoney = 8500
	}
	if t.TotalMaxMissionCount <= 0 {
		t.TotalMaxMissionCount = 2
	}
	if t.EndTransitionTicks <= 0 {
		t.EndTransitionTicks = 25
	}
	if t.HuntingGroundsDifficultyThreshold <= 0 {
		t.HuntingGroundsDifficultyThreshold = 25
	}
	if t.ReputationLossPerNPCDamage <= 0 {
		t.ReputationLossPerNPCDamage = 0.1
	}
	if t.MaxReputationLossPerEvent <= 0 {
		t.MaxReputationLossPerEvent = 10
	}
	if t.HullRepairCostPerDamage <= 0 {
		t.HullRepairCostPerDamage = 0.5
	}
	if t.ItemRepairCostPerRepairDuration <= 0 {
		t.ItemRepairCostPerRepairDuration = 1.0
	}
	if t.MaxHullRepairCost <= 0 {
		t.MaxHullRepairCost = 2000
	}
	if t.MaxItemRepairCost <= 0 {
		t.MaxItemRepairCost = 2000
	}
	if t.ShuttleReplaceCost <= 0 {
		t.ShuttleReplaceCost = 1000
	}
	if t.NPCWaitMaxDistance <= 0 {
		t.NPCWaitMaxDistance = 300
	}
}
