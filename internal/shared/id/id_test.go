package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestTypedIDGeneration(t *testing.T) {
	tests := []struct {
		id     string
		prefix string
	}{
		{string(NewRelayID()), RelayPrefix},
		{string(NewRequestID()), RequestPrefix},
	}

	for _, tt := range tests {
		if !IsValidPrefixed(tt.id, tt.prefix) {
			t.Errorf("ID should have format '%s_<ulid>', got: %s", tt.prefix, tt.id)
		}
	}
}

func TestIsValidPrefixed(t *testing.T) {
	valid := "req_" + NewGenerator().GenerateString()
	if !IsValidPrefixed(valid, "req") {
		t.Errorf("expected %s to be valid", valid)
	}

	invalid := []string{"", "req_", "relay_" + NewGenerator().GenerateString(), "req_invalid"}
	for _, id := range invalid {
		if IsValidPrefixed(id, "req") {
			t.Errorf("ID should be invalid: %s", id)
		}
	}
}

func TestNewFrameElementID(t *testing.T) {
	a := NewFrameElementID()
	b := NewFrameElementID()

	if a == b {
		t.Error("Frame element IDs should be unique")
	}

	rest, ok := strings.CutPrefix(a.String(), FramePrefix+"-")
	if !ok {
		t.Fatalf("Frame element ID should start with %s-, got: %s", FramePrefix, a)
	}
	if _, err := uuid.Parse(rest); err != nil {
		t.Errorf("Frame element ID suffix should be a UUID: %v", err)
	}
}

func TestIsValid(t *testing.T) {
	gen := NewGenerator()

	validID := gen.GenerateString()
	if !IsValid(validID) {
		t.Error("Generated ULID should be valid")
	}

	invalidIDs := []string{
		"",
		"invalid",
		"1234567890",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzz",
	}

	for _, id := range invalidIDs {
		if IsValid(id) {
			t.Errorf("ID should be invalid: %s", id)
		}
	}
}

func TestTimestamp(t *testing.T) {
	gen := NewGenerator()

	before := time.Now()
	id := gen.GenerateString()
	after := time.Now()

	ts, err := Timestamp(id)
	if err != nil {
		t.Fatalf("Failed to extract timestamp: %v", err)
	}

	// ULID timestamps have millisecond precision
	if ts.UnixMilli() < before.UnixMilli() || ts.UnixMilli() > after.UnixMilli() {
		t.Errorf("Timestamp should be between %d and %d ms, got %d ms",
			before.UnixMilli(), after.UnixMilli(), ts.UnixMilli())
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 50
	const idsPerGoroutine = 100

	var wg sync.WaitGroup
	idChan := make(chan string, goroutines*idsPerGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				idChan <- gen.GenerateString()
			}
		}()
	}

	wg.Wait()
	close(idChan)

	seen := make(map[string]bool)
	for id := range idChan {
		if seen[id] {
			t.Errorf("Duplicate ID found in concurrent generation: %s", id)
		}
		seen[id] = true
	}

	if len(seen) != goroutines*idsPerGoroutine {
		t.Errorf("Expected %d unique IDs, got %d", goroutines*idsPerGoroutine, len(seen))
	}
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	gen := NewGenerator()

	prev := gen.GenerateString()
	for i := 0; i < 1000; i++ {
		next := gen.GenerateString()
		if next <= prev {
			t.Fatalf("IDs should be strictly increasing: %s <= %s", next, prev)
		}
		prev = next
	}
}

func TestDefaultGenerator(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() should return the same instance")
	}
}

func BenchmarkGenerateWithPrefix(b *testing.B) {
	gen := NewGenerator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = gen.GenerateWithPrefix(RelayPrefix)
	}
}
