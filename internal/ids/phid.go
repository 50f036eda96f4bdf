// Package ids implements primary key assignment.
//
// Three strategies exist: autoincrement (the store generates the key),
// PHID (a generated, store-independent identifier becomes the key) and
// manual (the caller supplies the key). The Allocator adjusts insert
// payloads and decides between insert and update for each strategy.
package ids

import (
	"encoding/base32"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Generator produces PHIDs. Record types that use PHID keys or auxiliary
// PHIDs implement it.
type Generator interface {
	GeneratePHID() (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func() (string, error)

// GeneratePHID implements Generator.
func (f GeneratorFunc) GeneratePHID() (string, error) { return f() }

var phidEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewPHID returns a PHID of the form "PHID-KIND-xxxxxxxxxxxxxxxxxxxxxxxxxx".
//
// The random part is a UUIDv7, so PHIDs of one kind sort by creation time.
// kind is upper-cased and must be non-empty.
func NewPHID(kind string) (string, error) {
	kind = strings.ToUpper(strings.TrimSpace(kind))
	if kind == "" {
		return "", fmt.Errorf("phid kind must not be empty")
	}
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate phid: %w", err)
	}
	return "PHID-" + kind + "-" + strings.ToLower(phidEncoding.EncodeToString(u[:])), nil
}

// KindGenerator generates PHIDs of a fixed kind.
type KindGenerator string

// GeneratePHID implements Generator.
func (k KindGenerator) GeneratePHID() (string, error) {
	return NewPHID(string(k))
}

// FixedGenerator returns predetermined PHIDs for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu    sync.Mutex
	phids []string
	idx   int
}

// NewFixedGenerator creates a generator that returns phids in order.
func NewFixedGenerator(phids ...string) *FixedGenerator {
	return &FixedGenerator{phids: phids}
}

// GeneratePHID returns the next predetermined PHID, or an error once all
// have been consumed.
func (g *FixedGenerator) GeneratePHID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.phids) {
		return "", fmt.Errorf("fixed generator: all %d phids consumed", len(g.phids))
	}
	phid := g.phids[g.idx]
	g.idx++
	return phid, nil
}

// Issued returns how many PHIDs were handed out.
func (g *FixedGenerator) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.idx
}
