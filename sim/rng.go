package sim

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/google/uuid"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey, policy and configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemArrivals is the RNG subsystem for system inter-arrival times.
	// Uses master seed directly so --seed maps onto the arrival stream.
	SubsystemArrivals = "arrivals"

	// SubsystemCars is the RNG subsystem for car attributes
	// (position, initial battery, target charge level).
	SubsystemCars = "cars"

	// SubsystemReplication derives the replication ID. Kept separate so
	// that drawing the ID never shifts the arrival or car streams.
	SubsystemReplication = "replication"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemArrivals: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// No routing policy draws random numbers, so two runs with the same key see
// the same arrivals and the same cars regardless of policy (common random numbers).
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemArrivals {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Variates returns a VariateSource over the named subsystem stream.
func (p *PartitionedRNG) Variates(name string) *VariateSource {
	return NewVariateSource(p.ForSubsystem(name))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// ReplicationID returns a UUID derived only from the key. Runs of different
// policies under the same seed share it, which is what pairs them in a
// common-random-numbers comparison. Repeated calls return the same ID.
func (p *PartitionedRNG) ReplicationID() string {
	src := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(SubsystemReplication)))
	id, err := uuid.NewRandomFromReader(src)
	if err != nil {
		// rand.Rand.Read never returns an error.
		panic("PartitionedRNG.ReplicationID: " + err.Error())
	}
	return id.String()
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// === VariateSource ===

// VariateSource produces uniform and derived samples from one RNG stream.
// The only side effect of any method is advancing the stream.
type VariateSource struct {
	rng *rand.Rand
}

// NewVariateSource wraps an existing *rand.Rand. Panics on nil.
func NewVariateSource(rng *rand.Rand) *VariateSource {
	if rng == nil {
		panic("NewVariateSource: rng must not be nil")
	}
	return &VariateSource{rng: rng}
}

// Uniform returns a sample in [0, 1).
func (v *VariateSource) Uniform() float64 {
	return v.rng.Float64()
}

// UniformRange returns a sample in [lo, hi).
func (v *VariateSource) UniformRange(lo, hi float64) float64 {
	return lo + (hi-lo)*v.Uniform()
}

// Exponential returns -mean * ln(U).
func (v *VariateSource) Exponential(mean float64) float64 {
	u := v.Uniform()
	if u == 0 {
		u = math.SmallestNonzeroFloat64 // prevent -ln(0) = +Inf
	}
	return -mean * math.Log(u)
}
