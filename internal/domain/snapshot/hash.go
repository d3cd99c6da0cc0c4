package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bytedance/sonic"
)

// canonicalJSON sorts map keys so the same payload always encodes to
// the same bytes regardless of provider key order.
var canonicalJSON = sonic.Config{SortMapKeys: true}.Froze()

// volatileKeys are provider fields that churn between fetches without
// any roster or settings change. They are dropped before hashing so a
// mid-day rank shuffle does not look like new data.
var volatileKeys = map[string]struct{}{
	"rank":                  {},
	"rankFinal":             {},
	"rankCalculatedFinal":   {},
	"playoffSeed":           {},
	"currentProjectedRank":  {},
	"draftDayProjectedRank": {},
	"waiverRank":            {},
	"transactionCounter":    {},
	"currentMatchupPeriod":  {},
	"latestScoringPeriod":   {},
}

// SlimPayload returns a copy of payload with volatile provider fields
// removed at every depth. The input is never mutated.
func SlimPayload(payload map[string]any) map[string]any {
	slim, _ := stripVolatile(payload).(map[string]any)
	return slim
}

func stripVolatile(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			if _, volatile := volatileKeys[key]; volatile {
				continue
			}
			out[key] = stripVolatile(inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = stripVolatile(inner)
		}
		return out
	default:
		return value
	}
}

// SourceHash digests the slim payload under canonical key order. Equal
// payloads hash equal no matter how the provider ordered its keys.
func SourceHash(payload map[string]any) (string, error) {
	raw, err := canonicalJSON.Marshal(SlimPayload(payload))
	if err != nil {
		return "", fmt.Errorf("encode canonical payload: %w", err)
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
