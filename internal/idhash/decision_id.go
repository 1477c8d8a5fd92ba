package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"regime-allocator/internal/domain"
)

// ComputeDecisionID computes a deterministic decision_id using SHA256.
// Formula: SHA256(strategy_id|variant|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeDecisionID(
	strategyID string,
	variant domain.Variant,
	timestampMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%d",
		strategyID,
		string(variant),
		timestampMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
