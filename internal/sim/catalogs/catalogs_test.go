package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	missionsJSON = `[
	  {"id":"salvage_a","numeric_id":2,"type":"Salvage","commonness":10,"reward":500},
	  {"id":"beacon_a","numeric_id":1,"type":"Beacon","tags":["beaconnoreward"],"commonness":5}
	]`
	factionsJSON = `[
	  {"id":"coalition","name":"Coalition","menu_order":1,
	   "min_reputation":-100,"max_reputation":100,"initial_reputation":15,
	   "controlled_outpost_percentage":60,
	   "automatic_missions":[
	     {"mission_tag":"patrol","level_type":"LocationConnection",
	      "min_reputation":20,"max_reputation":100,
	      "min_probability":0.1,"max_probability":0.5,
	      "not_between_other_faction_outposts":true}
	   ]}
	]`
	locationTypesJSON = `[
	  {"id":"city","name":"City","has_outpost":true,"commonness":10},
	  {"id":"mine","name":"Mine","commonness":5}
	]`
	itemsJSON = `[
	  {"id":"supply_crate","tags":["crate"],"pickable":true,"capacity":8},
	  {"id":"welding_tool","pickable":true,"repairable":true,
	   "preferred_container":"supply_crate","fix_duration":6}
	]`
)

func writeConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	defaults := map[string]string{
		"missions.json":       missionsJSON,
		"factions.json":       factionsJSON,
		"location_types.json": locationTypesJSON,
		"items.json":          itemsJSON,
	}
	for name, body := range files {
		defaults[name] = body
	}
	for name, body := range defaults {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoad(t *testing.T) {
	cats, err := Load(writeConfigDir(t, nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Order is sorted by id regardless of file order.
	if got := cats.Missions.Order; len(got) != 2 || got[0] != "beacon_a" || got[1] != "salvage_a" {
		t.Fatalf("mission order=%v, want [beacon_a salvage_a]", got)
	}
	if !cats.Missions.ByID["beacon_a"].HasTag("BeaconNoReward") {
		t.Fatalf("tag lookup should be case-insensitive")
	}

	f := cats.Factions.ByID["coalition"]
	if len(f.AutomaticMissions) != 1 || !f.AutomaticMissions[0].NotBetweenOtherFactionOutposts {
		t.Fatalf("automatic mission rule not loaded: %+v", f.AutomaticMissions)
	}

	if !cats.LocationTypes.ByID["city"].HasOutpost || cats.LocationTypes.ByID["mine"].HasOutpost {
		t.Fatalf("outpost flags mixed up")
	}

	crate := cats.Items.ByID["supply_crate"]
	if !crate.IsContainer() || crate.Capacity != 8 {
		t.Fatalf("crate def=%+v", crate)
	}
	if cats.Items.ByID["welding_tool"].IsContainer() {
		t.Fatalf("zero-capacity item reported as a container")
	}
}

func TestDigestStable(t *testing.T) {
	a, err := Load(writeConfigDir(t, nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, err := Load(writeConfigDir(t, nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.Missions.Digest != b.Missions.Digest || a.Factions.Digest != b.Factions.Digest ||
		a.LocationTypes.Digest != b.LocationTypes.Digest || a.Items.Digest != b.Items.Digest {
		t.Fatalf("digests differ across identical loads")
	}

	// Reordering entries in the file must not change the digest.
	reordered := `[
	  {"id":"beacon_a","numeric_id":1,"type":"Beacon","tags":["beaconnoreward"],"commonness":5},
	  {"id":"salvage_a","numeric_id":2,"type":"Salvage","commonness":10,"reward":500}
	]`
	c, err := Load(writeConfigDir(t, map[string]string{"missions.json": reordered}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Missions.Digest != a.Missions.Digest {
		t.Fatalf("digest depends on file order")
	}

	// Changing a field must change it.
	changed := `[
	  {"id":"salvage_a","numeric_id":2,"type":"Salvage","commonness":10,"reward":501},
	  {"id":"beacon_a","numeric_id":1,"type":"Beacon","tags":["beaconnoreward"],"commonness":5}
	]`
	d, err := Load(writeConfigDir(t, map[string]string{"missions.json": changed}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Missions.Digest == a.Missions.Digest {
		t.Fatalf("digest ignored a reward change")
	}
}

func TestLoadRejectsBadData(t *testing.T) {
	cases := map[string]map[string]string{
		"duplicate mission id": {"missions.json": `[
		  {"id":"m1","numeric_id":1,"type":"Salvage","commonness":1},
		  {"id":"m1","numeric_id":2,"type":"Salvage","commonness":1}
		]`},
		"duplicate numeric id": {"missions.json": `[
		  {"id":"m1","numeric_id":1,"type":"Salvage","commonness":1},
		  {"id":"m2","numeric_id":1,"type":"Salvage","commonness":1}
		]`},
		"empty mission id": {"missions.json": `[
		  {"id":"","numeric_id":1,"type":"Salvage","commonness":1}
		]`},
		"duplicate faction id": {"factions.json": `[
		  {"id":"f1","name":"F","menu_order":1,"min_reputation":-10,"max_reputation":10,"controlled_outpost_percentage":10},
		  {"id":"f1","name":"F","menu_order":2,"min_reputation":-10,"max_reputation":10,"controlled_outpost_percentage":10}
		]`},
		"empty reputation range": {"factions.json": `[
		  {"id":"f1","name":"F","menu_order":1,"min_reputation":10,"max_reputation":10,"controlled_outpost_percentage":10}
		]`},
		"duplicate location type": {"location_types.json": `[
		  {"id":"city","name":"City","commonness":1},
		  {"id":"city","name":"City","commonness":1}
		]`},
		"duplicate item id": {"items.json": `[
		  {"id":"i1"},
		  {"id":"i1"}
		]`},
		"malformed json": {"items.json": `{not json`},
		"unknown mission type": {"missions.json": `[
		  {"id":"m1","numeric_id":1,"type":"Heist","commonness":1}
		]`},
		"unexpected field": {"items.json": `[
		  {"id":"i1","weight":40}
		]`},
		"missing faction name": {"factions.json": `[
		  {"id":"f1","menu_order":1,"min_reputation":-10,"max_reputation":10}
		]`},
	}
	for name, files := range cases {
		if _, err := Load(writeConfigDir(t, files)); err == nil {
			t.Fatalf("%s: Load succeeded", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("Load succeeded with an empty config dir")
	}
}
