package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version    int    `json:"version"`
	CampaignID string `json:"campaign_id"`
	Tick       uint64 `json:"tick"`
}

// CampaignSnapshotV1 is the full persisted campaign. The map itself is
// regenerated from (seed, num_locations) and the catalogs; only the
// dynamic per-location state is stored.
type CampaignSnapshotV1 struct {
	Header Header `json:"header"`

	Seed         string `json:"seed"`
	NumLocations int    `json:"num_locations"`

	Money       int                `json:"money"`
	Reputations map[string]float64 `json:"reputations"`

	CurrentLocation  string   `json:"current_location"`
	SelectedLocation string   `json:"selected_location,omitempty"`
	LocationHistory  []string `json:"location_history,omitempty"`

	Locations []LocationStateV1 `json:"locations,omitempty"`

	TotalPlayTime     float64 `json:"total_play_time"`
	TotalPassedLevels int     `json:"total_passed_levels"`
	TooFarWarning     bool    `json:"too_far_warning_shown,omitempty"`
	IsFirstRound      bool    `json:"is_first_round"`

	Crew []CrewMemberV1 `json:"crew,omitempty"`

	MainSubmarine     *SubmarineInfoV1 `json:"main_submarine,omitempty"`
	PreviousSubmarine *SubmarineInfoV1 `json:"previous_submarine,omitempty"`
	PendingSubSwitch  *SubmarineInfoV1 `json:"pending_sub_switch,omitempty"`
	TransferItems     bool             `json:"transfer_items,omitempty"`

	PurchasedHullRepairs  bool `json:"purchased_hull_repairs,omitempty"`
	PurchasedItemRepairs  bool `json:"purchased_item_repairs,omitempty"`
	PurchasedLostShuttles bool `json:"purchased_lost_shuttles,omitempty"`

	MetadataInts    map[string]int     `json:"metadata_ints,omitempty"`
	MetadataFloats  map[string]float64 `json:"metadata_floats,omitempty"`
	MetadataStrings map[string]string  `json:"metadata_strings,omitempty"`

	// Owned by collaborators; carried through saves untouched.
	Pets         []byte `json:"pets,omitempty"`
	ActiveOrders []byte `json:"active_orders,omitempty"`

	CatalogDigests map[string]string `json:"catalog_digests,omitempty"`
}

// LocationStateV1 is the dynamic state of one map location.
type LocationStateV1 struct {
	ID               string      `json:"id"`
	Available        []MissionV1 `json:"available,omitempty"`
	SelectedIDs      []string    `json:"selected_ids,omitempty"`
	TakenItems       []string    `json:"taken_items,omitempty"`
	TurnsInRadiation int         `json:"turns_in_radiation,omitempty"`
	BeaconActive     bool        `json:"beacon_active,omitempty"`
}

type MissionV1 struct {
	PrefabID    string `json:"prefab_id"`
	Destination string `json:"destination"`
}

type CrewMemberV1 struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Salary       int    `json:"salary"`
	NewHire      bool   `json:"new_hire,omitempty"`
	CauseOfDeath string `json:"cause_of_death,omitempty"`
}

type SubmarineInfoV1 struct {
	Name       string       `json:"name"`
	Type       string       `json:"type"`
	TeamID     string       `json:"team_id"`
	NoItems    bool         `json:"no_items,omitempty"`
	Hulls      []HullInfoV1 `json:"hulls,omitempty"`
	CargoHull  string       `json:"cargo_hull,omitempty"`
	Containers []string     `json:"containers,omitempty"`
}

type HullInfoV1 struct {
	ID        string  `json:"id"`
	IsWetRoom bool    `json:"is_wet_room,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

func Write(path string, snap CampaignSnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func Read(path string) (CampaignSnapshotV1, error) {
	var snap CampaignSnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// Header line is for quick inspection only; gob carries it too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// Latest returns the newest snapshot file in dir by tick encoded in the
// filename (snap-<tick>.zst), empty string when none exist.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "snap-") && strings.HasSuffix(name, ".zst") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

// Filename builds the canonical snapshot name for a tick, zero-padded
// so lexical order matches numeric order.
func Filename(tick uint64) string {
	return fmt.Sprintf("snap-%012d.zst", tick)
}
