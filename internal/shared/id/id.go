// Package id provides ID generation for the embed server.
//
// Server-side identifiers are prefixed ULIDs, so they sort by creation time
// and read well in logs (relay_*, req_*). Frame element ids rendered into
// embed pages are random UUIDs because they are visible to the browser and
// must not leak timing.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RelayID identifies a bridge websocket session
type RelayID string

// RequestID identifies an API request
type RequestID string

// FrameElementID is the DOM id of a rendered iframe
type FrameElementID string

const (
	RelayPrefix   = "relay"
	RequestPrefix = "req"
	FramePrefix   = "docuseal-frame"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator reading crypto/rand entropy. IDs from the
// same millisecond are monotonic.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(ulid.Monotonic(rand.Reader, 0))
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewRelayID generates a new relay session ID
func NewRelayID() RelayID {
	return RelayID(Default().GenerateWithPrefix(RelayPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewFrameElementID generates a DOM id for an embedded frame
func NewFrameElementID() FrameElementID {
	return FrameElementID(FramePrefix + "-" + uuid.NewString())
}

func (id RelayID) String() string        { return string(id) }
func (id RequestID) String() string      { return string(id) }
func (id FrameElementID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// IsValidPrefixed checks that id is prefix_ULID
func IsValidPrefixed(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	return ok && IsValid(rest)
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
