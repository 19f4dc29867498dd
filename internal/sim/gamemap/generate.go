package gamemap

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"deepdrift.game/internal/sim/catalogs"
)

// Biomes along the progression axis. The last one is the end biome:
// reaching its final location closes the campaign loop.
var Biomes = []Biome{
	{ID: "coldcaverns", MinDifficulty: 0, MaxDifficulty: 35},
	{ID: "ridgefields", MinDifficulty: 25, MaxDifficulty: 65},
	{ID: "theabyss", IsEndBiome: true, MinDifficulty: 55, MaxDifficulty: 100},
}

// Generate builds a deterministic campaign map from a seed string.
// Locations form a chain along the progression axis with extra edges
// sprinkled in, so there is always a route from start to end.
func Generate(seed string, numLocations int, cats *catalogs.Catalogs) (*Map, error) {
	if numLocations < 4 {
		return nil, fmt.Errorf("map needs at least 4 locations, got %d", numLocations)
	}
	if len(cats.LocationTypes.Order) == 0 {
		return nil, fmt.Errorf("empty location type catalog")
	}

	m := &Map{
		Seed: seed,
		byID: make(map[string]*Location, numLocations),
		g:    graph.New(locationHash),
	}

	h := seedHash(seed)

	for i := 0; i < numLocations; i++ {
		biome := biomeForIndex(i, numLocations)
		loc := &Location{
			ID:    fmt.Sprintf("loc%02d", i),
			Biome: biome,
			MapX:  float64(i)*100 + float64(mix(h, uint64(i), 1)%40),
		}
		loc.Type = pickLocationType(cats, mix(h, uint64(i), 2))
		loc.Name = fmt.Sprintf("%s %02d", loc.Type.Name, i)
		if loc.HasOutpost() {
			loc.Faction, loc.SecondaryFaction = pickControl(cats, mix(h, uint64(i), 3), mix(h, uint64(i), 4))
		}
		progress := float64(i) / float64(numLocations-1)
		loc.LevelData = &LevelData{
			Type:       LevelOutpost,
			Seed:       fmt.Sprintf("%s-o%02d", seed, i),
			Difficulty: levelDifficulty(biome, progress),
			Biome:      biome,
		}
		m.Locations = append(m.Locations, loc)
		m.byID[loc.ID] = loc
		if err := m.g.AddVertex(loc); err != nil {
			return nil, fmt.Errorf("add location %s: %w", loc.ID, err)
		}
	}

	// Chain edges guarantee connectivity; every third location also
	// links two steps ahead to give the crew a choice of route.
	for i := 0; i < numLocations-1; i++ {
		if err := m.connect(seed, i, i+1); err != nil {
			return nil, err
		}
		if i%3 == 0 && i+2 < numLocations {
			if err := m.connect(seed, i, i+2); err != nil {
				return nil, err
			}
		}
	}

	// First outpost location is the campaign start.
	for _, loc := range m.Locations {
		if loc.HasOutpost() {
			m.StartLocation = loc
			break
		}
	}
	if m.StartLocation == nil {
		// Force one: a campaign cannot start in open water.
		m.Locations[0].Type = firstOutpostType(cats)
		m.StartLocation = m.Locations[0]
	}

	for _, loc := range m.Locations {
		if loc.Biome.IsEndBiome {
			m.EndLocations = append(m.EndLocations, loc)
		}
	}
	sort.Slice(m.EndLocations, func(i, j int) bool { return m.EndLocations[i].MapX < m.EndLocations[j].MapX })
	if len(m.EndLocations) == 0 {
		return nil, fmt.Errorf("map %q generated no end locations", seed)
	}

	m.SetLocation(m.StartLocation)
	m.ClearLocationHistory()
	return m, nil
}

func (m *Map) connect(seed string, i, j int) error {
	a, b := m.Locations[i], m.Locations[j]
	if m.ConnectionBetween(a, b) != nil {
		return nil
	}
	if err := m.g.AddEdge(a.ID, b.ID); err != nil {
		return fmt.Errorf("connect %s-%s: %w", a.ID, b.ID, err)
	}
	biome := b.Biome
	diff := (a.LevelData.Difficulty + b.LevelData.Difficulty) / 2
	h := seedHash(seed)
	conn := &LocationConnection{
		Locations:  [2]*Location{a, b},
		Biome:      biome,
		Difficulty: diff,
		LevelData: &LevelData{
			Type:             LevelLocationConnection,
			Seed:             fmt.Sprintf("%s-c%02d-%02d", seed, i, j),
			Difficulty:       diff,
			Biome:            biome,
			HasBeaconStation: mix(h, uint64(i*97+j), 5)%5 == 0,
		},
	}
	if mix(h, uint64(i*97+j), 6)%5 == 0 {
		conn.LevelData.HasHuntingGrounds = true
		conn.LevelData.OriginallyHadHuntingGrounds = true
	}
	m.Connections = append(m.Connections, conn)
	a.Connections = append(a.Connections, conn)
	b.Connections = append(b.Connections, conn)
	return nil
}

func biomeForIndex(i, total int) *Biome {
	zone := i * len(Biomes) / total
	if zone >= len(Biomes) {
		zone = len(Biomes) - 1
	}
	return &Biomes[zone]
}

func levelDifficulty(b *Biome, progress float64) float64 {
	return b.MinDifficulty + (b.MaxDifficulty-b.MinDifficulty)*progress
}

func pickLocationType(cats *catalogs.Catalogs, roll uint64) catalogs.LocationTypeDef {
	total := 0
	for _, id := range cats.LocationTypes.Order {
		total += max(cats.LocationTypes.ByID[id].Commonness, 0)
	}
	if total <= 0 {
		return cats.LocationTypes.ByID[cats.LocationTypes.Order[0]]
	}
	target := int(roll % uint64(total))
	for _, id := range cats.LocationTypes.Order {
		target -= max(cats.LocationTypes.ByID[id].Commonness, 0)
		if target < 0 {
			return cats.LocationTypes.ByID[id]
		}
	}
	return cats.LocationTypes.ByID[cats.LocationTypes.Order[0]]
}

func firstOutpostType(cats *catalogs.Catalogs) catalogs.LocationTypeDef {
	for _, id := range cats.LocationTypes.Order {
		if cats.LocationTypes.ByID[id].HasOutpost {
			return cats.LocationTypes.ByID[id]
		}
	}
	return cats.LocationTypes.ByID[cats.LocationTypes.Order[0]]
}

// pickControl assigns controlling factions to an outpost using the
// catalog control percentages; a total below 100 leaves room for an
// uncontrolled outpost.
func pickControl(cats *catalogs.Catalogs, roll, secondaryRoll uint64) (string, string) {
	primary := weightedFaction(cats, roll, false)
	secondary := weightedFaction(cats, secondaryRoll, true)
	if secondary == primary {
		secondary = ""
	}
	return primary, secondary
}

func weightedFaction(cats *catalogs.Catalogs, roll uint64, secondary bool) string {
	var total float64
	for _, id := range cats.Factions.Order {
		def := cats.Factions.ByID[id]
		if secondary {
			total += def.SecondaryControlledOutpostPercentage
		} else {
			total += def.ControlledOutpostPercentage
		}
	}
	if total < 100 {
		total = 100
	}
	target := float64(roll%10000) / 10000 * total
	for _, id := range cats.Factions.Order {
		def := cats.Factions.ByID[id]
		w := def.ControlledOutpostPercentage
		if secondary {
			w = def.SecondaryControlledOutpostPercentage
		}
		target -= w
		if target < 0 {
			return id
		}
	}
	return "" // the uncontrolled remainder
}

func locationHash(l *Location) string { return l.ID }

// Local seed hashing, duplicated from the campaign package to avoid an
// import cycle (campaign imports gamemap).
func seedHash(s string) uint64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func mix(seed, a, b uint64) uint64 {
	z := seed ^ (a * 0x9e3779b97f4a7c15) ^ (b * 0xbf58476d1ce4e5b9)
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
