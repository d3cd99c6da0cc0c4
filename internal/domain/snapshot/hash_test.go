package snapshot

import (
	"testing"

	"github.com/bytedance/sonic"
)

func decodePayload(t *testing.T, raw string) map[string]any {
	t.Helper()

	var payload map[string]any
	if err := sonic.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return payload
}

func TestSourceHashIgnoresKeyOrder(t *testing.T) {
	t.Parallel()

	a := decodePayload(t, `{"id":1,"settings":{"name":"L","size":10},"teams":[{"id":1,"abbrev":"A"}]}`)
	b := decodePayload(t, `{"teams":[{"abbrev":"A","id":1}],"settings":{"size":10,"name":"L"},"id":1}`)

	hashA, err := SourceHash(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hashB, err := SourceHash(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}

	if hashA != hashB {
		t.Fatalf("key order changed the hash: %s vs %s", hashA, hashB)
	}
	if len(hashA) != 64 {
		t.Fatalf("expected hex sha256 digest, got %d chars", len(hashA))
	}
}

func TestSourceHashDropsVolatileFields(t *testing.T) {
	t.Parallel()

	morning := decodePayload(t, `{"id":1,"teams":[{"id":1,"playoffSeed":4,"rankCalculatedFinal":9}]}`)
	evening := decodePayload(t, `{"id":1,"teams":[{"id":1,"playoffSeed":7,"rankCalculatedFinal":2}]}`)

	hashMorning, err := SourceHash(morning)
	if err != nil {
		t.Fatalf("hash morning: %v", err)
	}
	hashEvening, err := SourceHash(evening)
	if err != nil {
		t.Fatalf("hash evening: %v", err)
	}

	if hashMorning != hashEvening {
		t.Fatal("rank churn should not change the source hash")
	}
}

func TestSourceHashSeesRealChanges(t *testing.T) {
	t.Parallel()

	before := decodePayload(t, `{"id":1,"settings":{"name":"League"}}`)
	after := decodePayload(t, `{"id":1,"settings":{"name":"Renamed"}}`)

	hashBefore, err := SourceHash(before)
	if err != nil {
		t.Fatalf("hash before: %v", err)
	}
	hashAfter, err := SourceHash(after)
	if err != nil {
		t.Fatalf("hash after: %v", err)
	}

	if hashBefore == hashAfter {
		t.Fatal("a settings change must change the source hash")
	}
}

func TestSlimPayloadDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	payload := decodePayload(t, `{"id":1,"teams":[{"id":1,"rank":3}]}`)
	SlimPayload(payload)

	teams := payload["teams"].([]any)
	team := teams[0].(map[string]any)
	if _, ok := team["rank"]; !ok {
		t.Fatal("input payload was mutated")
	}
}
