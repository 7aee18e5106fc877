package physics

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// StateHash digests the id, position and velocity of every entity in
// insertion order. Two runs fed the same inputs must produce the same value.
func (s *SimulationSpace) StateHash() uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	put(s.stepCount)
	for _, e := range s.entities {
		put(uint64(e.id))
		put(math.Float64bits(e.Position.X))
		put(math.Float64bits(e.Position.Y))
		put(math.Float64bits(e.Velocity.X))
		put(math.Float64bits(e.Velocity.Y))
	}
	return d.Sum64()
}
