package crash

import (
	"crypto/hmac"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
)

// ProvablyFair derives draws from HMAC-SHA256(serverSeed, clientSeed:nonce).
// The server seed stays hidden until Reveal; Commitment can be published
// up front so players can check afterwards that the seed was not swapped.
type ProvablyFair struct {
	mu         sync.Mutex
	serverSeed string
	clientSeed string
	nonce      uint64
}

// NewServerSeed returns 32 random bytes, hex encoded.
func NewServerSeed() (string, error) {
	var b [32]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read server seed: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// NewProvablyFair returns a source for the given seeds starting at nonce 0.
func NewProvablyFair(serverSeed, clientSeed string) *ProvablyFair {
	return &ProvablyFair{serverSeed: serverSeed, clientSeed: clientSeed}
}

// Float64 derives the draw for the current nonce and advances it.
func (p *ProvablyFair) Float64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	u := DeriveFloat(p.serverSeed, p.clientSeed, p.nonce)
	p.nonce++
	return u
}

// Nonce returns the nonce the next draw will use.
func (p *ProvablyFair) Nonce() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nonce
}

// ClientSeed returns the player-supplied seed.
func (p *ProvablyFair) ClientSeed() string { return p.clientSeed }

// Commitment is the hex SHA-256 of the server seed.
func (p *ProvablyFair) Commitment() string { return SeedHash(p.serverSeed) }

// Reveal returns the server seed. Only call it once the rounds it covers are over.
func (p *ProvablyFair) Reveal() string { return p.serverSeed }

// SeedHash returns the hex SHA-256 of seed.
func SeedHash(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// DeriveFloat maps the HMAC of clientSeed:nonce keyed by serverSeed to (0, 1)
// using the top 52 bits of the digest.
func DeriveFloat(serverSeed, clientSeed string, nonce uint64) float64 {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	mac.Write([]byte(clientSeed + ":" + strconv.FormatUint(nonce, 10)))
	sum := mac.Sum(nil)
	v := binary.BigEndian.Uint64(sum[:8]) >> 12
	return (float64(v) + 0.5) / (1 << 52)
}

// VerifyCrashPoint recomputes the crash point of a past round.
func VerifyCrashPoint(serverSeed, clientSeed string, nonce uint64, houseEdge float64) float64 {
	return CrashPointFor(DeriveFloat(serverSeed, clientSeed, nonce), houseEdge)
}
