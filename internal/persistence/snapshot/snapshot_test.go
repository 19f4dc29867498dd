package snapshot

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func sampleSnapshot() CampaignSnapshotV1 {
	return CampaignSnapshotV1{
		Header:       Header{Version: 1, CampaignID: "camp1", Tick: 9000},
		Seed:         "europan-trench",
		NumLocations: 15,
		Money:        4321,
		Reputations:  map[string]float64{"coalition": 25, "separatists": -10},

		CurrentLocation:  "loc03",
		SelectedLocation: "loc04",
		LocationHistory:  []string{"loc01", "loc03"},

		Locations: []LocationStateV1{
			{
				ID:          "loc03",
				Available:   []MissionV1{{PrefabID: "salvage_a", Destination: "loc04"}},
				SelectedIDs: []string{"salvage_a"},
			},
			{ID: "loc05", TakenItems: []string{"it1", "it2"}, TurnsInRadiation: 3},
		},

		TotalPlayTime:     1234.5,
		TotalPassedLevels: 7,
		IsFirstRound:      false,

		Crew: []CrewMemberV1{{ID: "h1", Name: "Jonas", Salary: 100, NewHire: true}},

		MainSubmarine: &SubmarineInfoV1{
			Name: "upgrade", Type: "player", TeamID: "team1",
			Hulls:     []HullInfoV1{{ID: "bridge"}, {ID: "hold", X: 10}},
			CargoHull: "hold",
		},

		PurchasedHullRepairs: true,
		MetadataInts:         map[string]int{"campaign.endings": 2},
		MetadataStrings:      map[string]string{"note": "roundtrip"},
		Pets:                 []byte(`{"pets":[]}`),
		CatalogDigests:       map[string]string{"missions": "deadbeef"},
	}
}

func TestWriteReadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", Filename(9000))
	want := sampleSnapshot()

	if err := Write(path, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("roundtrip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Read(filepath.Join(dir, "missing.zst")); err == nil {
		t.Fatalf("Read succeeded on a missing file")
	}

	garbage := filepath.Join(dir, "garbage.zst")
	if err := os.WriteFile(garbage, []byte("not zstd at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Read(garbage); err == nil {
		t.Fatalf("Read succeeded on garbage")
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()

	// Missing or empty directories mean "no snapshot yet", not an error.
	if got, err := Latest(filepath.Join(dir, "nope")); err != nil || got != "" {
		t.Fatalf("Latest on missing dir=%q/%v", got, err)
	}
	if got, err := Latest(dir); err != nil || got != "" {
		t.Fatalf("Latest on empty dir=%q/%v", got, err)
	}

	for _, tick := range []uint64{3000, 12000, 6000} {
		snap := sampleSnapshot()
		snap.Header.Tick = tick
		if err := Write(filepath.Join(dir, Filename(tick)), snap); err != nil {
			t.Fatalf("Write %d: %v", tick, err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Latest(dir)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got != filepath.Join(dir, Filename(12000)) {
		t.Fatalf("Latest=%q, want the tick-12000 snapshot", got)
	}

	snap, err := Read(got)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Header.Tick != 12000 {
		t.Fatalf("tick=%d, want 12000", snap.Header.Tick)
	}
}

func TestFilenameOrdering(t *testing.T) {
	// Zero padding keeps lexical order aligned with tick order.
	if Filename(999) >= Filename(10000) {
		t.Fatalf("%q sorts after %q", Filename(999), Filename(10000))
	}
	if Filename(0) != "snap-000000000000.zst" {
		t.Fatalf("Filename(0)=%q", Filename(0))
	}
}
