package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Catalogs holds the static prefab tables a campaign is built from.
// Loaded once at startup; read-only afterwards.
type Catalogs struct {
	Missions      MissionCatalog
	Factions      FactionCatalog
	LocationTypes LocationTypeCatalog
	Items         ItemCatalog
}

type MissionCatalog struct {
	ByID   map[string]MissionDef
	Order  []string // ids sorted ascending; draw sites iterate this
	Digest string
}

// MissionDef is a mission prefab. NumericID is the stable ordering key
// used before weighted draws (draw order must not depend on map order).
type MissionDef struct {
	ID         string   `json:"id"`
	NumericID  uint32   `json:"numeric_id"`
	Type       string   `json:"type"` // "Salvage","Pirate","Beacon","Monster","Escort","End"
	Tags       []string `json:"tags,omitempty"`
	Commonness int      `json:"commonness"`
	Reward     int      `json:"reward,omitempty"`
}

func (d MissionDef) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

type FactionCatalog struct {
	ByID   map[string]FactionDef
	Order  []string
	Digest string
}

type FactionDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MenuOrder int    `json:"menu_order"`

	MinReputation     float64 `json:"min_reputation"`
	MaxReputation     float64 `json:"max_reputation"`
	InitialReputation float64 `json:"initial_reputation"`

	ControlledOutpostPercentage          float64 `json:"controlled_outpost_percentage"`
	SecondaryControlledOutpostPercentage float64 `json:"secondary_controlled_outpost_percentage,omitempty"`

	AutomaticMissions []AutomaticMissionRule `json:"automatic_missions,omitempty"`
}

// AutomaticMissionRule triggers faction missions when a level is
// entered. Probability scales with the player's standing inside the
// rule's reputation window.
type AutomaticMissionRule struct {
	MissionTag     string  `json:"mission_tag"`
	LevelType      string  `json:"level_type"` // "LocationConnection" or "Outpost"
	MinReputation  float64 `json:"min_reputation"`
	MaxReputation  float64 `json:"max_reputation"`
	MinProbability float64 `json:"min_probability"`
	MaxProbability float64 `json:"max_probability"`

	// Require an endpoint of the connection to belong to this faction.
	NotBetweenOtherFactionOutposts bool `json:"not_between_other_faction_outposts,omitempty"`
	// Require a faction outpost within this many hops (0 = anywhere).
	MaxDistanceFromOutpost int `json:"max_distance_from_outpost,omitempty"`
}

type LocationTypeCatalog struct {
	ByID   map[string]LocationTypeDef
	Order  []string
	Digest string
}

type LocationTypeDef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HasOutpost bool   `json:"has_outpost"`
	Commonness int    `json:"commonness"`
}

type ItemCatalog struct {
	ByID   map[string]ItemDef
	Order  []string
	Digest string
}

type ItemDef struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags,omitempty"`

	Pickable     bool `json:"pickable,omitempty"`
	IsDoor       bool `json:"is_door,omitempty"`
	IsWire       bool `json:"is_wire,omitempty"`
	DontTransfer bool `json:"dont_transfer,omitempty"`
	Repairable   bool `json:"repairable,omitempty"`

	// Container properties (Capacity == 0 means not a container).
	Capacity           int    `json:"capacity,omitempty"`
	PreferredContainer string `json:"preferred_container,omitempty"`

	FixDuration float64 `json:"fix_duration,omitempty"`
}

func (d ItemDef) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (d ItemDef) IsContainer() bool { return d.Capacity > 0 }

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadMissions(filepath.Join(configDir, "missions.json"), &c.Missions); err != nil {
		return nil, err
	}
	if err := loadFactions(filepath.Join(configDir, "factions.json"), &c.Factions); err != nil {
		return nil, err
	}
	if err := loadLocationTypes(filepath.Join(configDir, "location_types.json"), &c.LocationTypes); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}

	return &c, nil
}

func loadMissions(path string, out *MissionCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validateCatalog(raw, "missions"); err != nil {
		return err
	}
	var defs []MissionDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("missions.json: %w", err)
	}
	out.ByID = make(map[string]MissionDef, len(defs))
	seenNumeric := make(map[uint32]string, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("missions.json: empty mission id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("missions.json: duplicate mission id %q", d.ID)
		}
		if prev, dup := seenNumeric[d.NumericID]; dup {
			return fmt.Errorf("missions.json: numeric id %d reused by %q and %q", d.NumericID, prev, d.ID)
		}
		seenNumeric[d.NumericID] = d.ID
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	sort.Strings(out.Order)
	out.Digest = digestMissions(out)
	return nil
}

func loadFactions(path string, out *FactionCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validateCatalog(raw, "factions"); err != nil {
		return err
	}
	var defs []FactionDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("factions.json: %w", err)
	}
	out.ByID = make(map[string]FactionDef, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("factions.json: empty faction id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("factions.json: duplicate faction id %q", d.ID)
		}
		if d.MinReputation >= d.MaxReputation {
			return fmt.Errorf("factions.json: faction %q has an empty reputation range", d.ID)
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	sort.Strings(out.Order)
	out.Digest = digestFactions(out)
	return nil
}

func loadLocationTypes(path string, out *LocationTypeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validateCatalog(raw, "location_types"); err != nil {
		return err
	}
	var defs []LocationTypeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("location_types.json: %w", err)
	}
	out.ByID = make(map[string]LocationTypeDef, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("location_types.json: empty location type id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("location_types.json: duplicate location type id %q", d.ID)
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	sort.Strings(out.Order)
	out.Digest = digestLocationTypes(out)
	return nil
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validateCatalog(raw, "items"); err != nil {
		return err
	}
	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.ByID = make(map[string]ItemDef, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty item id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate item id %q", d.ID)
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	sort.Strings(out.Order)
	out.Digest = digestItems(out)
	return nil
}

// Digests hash defs in id order so the result is stable across load
// order and map iteration.

func digestMissions(c *MissionCatalog) string {
	h := sha256.New()
	for _, id := range c.Order {
		b, _ := json.Marshal(c.ByID[id])
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestFactions(c *FactionCatalog) string {
	h := sha256.New()
	for _, id := range c.Order {
		b, _ := json.Marshal(c.ByID[id])
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestLocationTypes(c *LocationTypeCatalog) string {
	h := sha256.New()
	for _, id := range c.Order {
		b, _ := json.Marshal(c.ByID[id])
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestItems(c *ItemCatalog) string {
	h := sha256.New()
	for _, id := range c.Order {
		b, _ := json.Marshal(c.ByID[id])
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}
