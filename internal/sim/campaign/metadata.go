package campaign

import "maps"

// Metadata is a small typed key/value store persisted with the
// campaign; event scripting and the endings counter live here.
type Metadata struct {
	ints    map[string]int
	floats  map[string]float64
	strings map[string]string
}

func NewMetadata() *Metadata {
	return &Metadata{
		ints:    make(map[string]int),
		floats:  make(map[string]float64),
		strings: make(map[string]string),
	}
}

func (m *Metadata) GetInt(key string, def int) int {
	if v, ok := m.ints[key]; ok {
		return v
	}
	return def
}

func (m *Metadata) GetFloat(key string, def float64) float64 {
	if v, ok := m.floats[key]; ok {
		return v
	}
	return def
}

func (m *Metadata) GetString(key string, def string) string {
	if v, ok := m.strings[key]; ok {
		return v
	}
	return def
}

func (m *Metadata) SetInt(key string, v int)       { m.ints[key] = v }
func (m *Metadata) SetFloat(key string, v float64) { m.floats[key] = v }
func (m *Metadata) SetString(key string, v string) { m.strings[key] = v }

// Export copies the store for snapshots; later Set calls never mutate
// an exported snapshot.
func (m *Metadata) Export() (ints map[string]int, floats map[string]float64, strings map[string]string) {
	return maps.Clone(m.ints), maps.Clone(m.floats), maps.Clone(m.strings)
}

func (m *Metadata) Import(ints map[string]int, floats map[string]float64, strings map[string]string) {
	for k, v := range ints {
		m.ints[k] = v
	}
	for k, v := range floats {
		m.floats[k] = v
	}
	for k, v := range strings {
		m.strings[k] = v
	}
}
