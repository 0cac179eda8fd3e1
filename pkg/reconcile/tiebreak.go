package reconcile

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownTieBreak is returned when a configured strategy name is not recognised.
var ErrUnknownTieBreak = errors.New("unknown tie-break strategy")

const (
	NameLowestID   = "lowest-id"
	NameSeededHash = "seeded-hash"
)

// TieBreaker settles a tie that survived every rank-based criterion.
// Pick receives at least two ids and must return one of them, deterministically.
type TieBreaker interface {
	Name() string
	Pick(groupID string, tied []string) string
}

// LowestID picks the lexicographically smallest variant id.
type LowestID struct{}

func (LowestID) Name() string { return NameLowestID }

func (LowestID) Pick(_ string, tied []string) string {
	best := tied[0]
	for _, id := range tied[1:] {
		if id < best {
			best = id
		}
	}
	return best
}

// SeededHash ranks each tied variant by a hash of the seed, the group and the
// variant id, and picks the smallest. The choice is reproducible for a given
// seed but does not favour ids by spelling.
type SeededHash struct {
	Seed string
}

func (s SeededHash) Name() string {
	if s.Seed == "" {
		return NameSeededHash
	}
	return NameSeededHash + ":" + s.Seed
}

func (s SeededHash) Pick(groupID string, tied []string) string {
	best := tied[0]
	bestKey := s.key(groupID, best)
	for _, id := range tied[1:] {
		k := s.key(groupID, id)
		if k < bestKey || (k == bestKey && id < best) {
			best, bestKey = id, k
		}
	}
	return best
}

func (s SeededHash) key(groupID, variantID string) uint64 {
	h := sha256.New()
	h.Write([]byte(s.Seed))
	h.Write([]byte{0})
	h.Write([]byte(groupID))
	h.Write([]byte{0})
	h.Write([]byte(variantID))
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

// Names lists the supported strategy names.
func Names() []string {
	names := []string{NameLowestID, NameSeededHash}
	sort.Strings(names)
	return names
}

// ParseTieBreak resolves a strategy from configuration. An empty name selects
// LowestID.
func ParseTieBreak(name, seed string) (TieBreaker, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameLowestID:
		return LowestID{}, nil
	case NameSeededHash:
		return SeededHash{Seed: seed}, nil
	}
	return nil, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownTieBreak, name, strings.Join(Names(), ", "))
}
