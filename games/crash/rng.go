package crash

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RandomSource draws uniform floats in (0, 1). Engines take one so tests can
// replace the default CSPRNG with something deterministic.
type RandomSource interface {
	Float64() float64
}

type cryptoSource struct{}

// CryptoSource returns a source backed by crypto/rand. It is the default:
// a client cannot infer the next draw from previous ones.
func CryptoSource() RandomSource { return cryptoSource{} }

func (cryptoSource) Float64() float64 {
	var buf [8]byte
	for {
		if _, err := cryptorand.Read(buf[:]); err != nil {
			panic("crash: crypto/rand unavailable: " + err.Error())
		}
		u := binary.BigEndian.Uint64(buf[:]) >> 11
		if u != 0 {
			return float64(u) / (1 << 53)
		}
	}
}

type seededSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededSource returns a reproducible PCG source for simulations and tests.
func NewSeededSource(seed uint64) RandomSource {
	return &seededSource{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if u := s.r.Float64(); u > 0 {
			return u
		}
	}
}

type fixedSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewFixedSource replays values in order, wrapping around at the end.
func NewFixedSource(values ...float64) RandomSource {
	if len(values) == 0 {
		values = []float64{0.5}
	}
	return &fixedSource{values: values}
}

func (s *fixedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.values[s.next%len(s.values)]
	s.next++
	return u
}
