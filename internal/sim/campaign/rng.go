package campaign

// Deterministic randomness for campaign draws. Everything that picks a
// mission, a faction or a probability roll goes through Rand so that the
// same level seed always produces the same campaign state, on every
// platform and across save/load.

// StringToInt folds a seed string to a signed integer (FNV-1a 64-bit,
// truncated). Must stay stable forever: level seeds are persisted.
func StringToInt(s string) int64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return int64(int32(uint32(h)))
}

// Rand is a splitmix64 sequence. Not crypto, not shared between
// goroutines; one instance per draw site.
type Rand struct {
	state uint64
}

func NewRand(seed int64) *Rand {
	return &Rand{state: uint64(seed)}
}

func (r *Rand) next() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Float returns a uniform value in [0,1).
func (r *Rand) Float() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

// Intn returns a uniform value in [0,n). n must be > 0.
func (r *Rand) Intn(n int) int {
	return int(r.next() % uint64(n))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// inverseLerp maps v into [0,1] relative to the a..b span. a > b is
// allowed (descending span); a == b collapses to 0.
func inverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	t := (v - a) / (b - a)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
